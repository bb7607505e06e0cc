package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/krishikarobar/marketplace-backend/pkg/enums"
	"github.com/krishikarobar/marketplace-backend/pkg/types"
)

var (
	ErrFarmerRequired  = errors.New("farmer must be set for regular products")
	ErrFarmerForbidden = errors.New("farmer must not be set for inventory products")
	ErrQuantityInvalid = errors.New("quantity must be at least 1")
)

// Order is a buyer's placed purchase. TotalPrice is fixed at checkout;
// Status is derived from the items except for buyer cancellation.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	BuyerID         uuid.UUID         `gorm:"column:buyer_id;type:uuid;not null"`
	Status          enums.OrderStatus `gorm:"column:status;not null;default:'pending'"`
	TotalPrice      decimal.Decimal   `gorm:"column:total_price;type:numeric(12,2);not null;default:0"`
	ShippingAddress *string           `gorm:"column:shipping_address"`
	Note            *string           `gorm:"column:note"`
	Items           []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string { return "orders" }

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderItem carries the price snapshot and the fulfillment status of one line.
type OrderItem struct {
	ID                 uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderID            uuid.UUID         `gorm:"column:order_id;type:uuid;not null"`
	ProductID          *uuid.UUID        `gorm:"column:product_id;type:uuid"`
	InventoryProductID *uuid.UUID        `gorm:"column:inventory_product_id;type:uuid"`
	FarmerID           *uuid.UUID        `gorm:"column:farmer_id;type:uuid"`
	Name               string            `gorm:"column:name;not null;default:''"`
	Quantity           int               `gorm:"column:quantity;not null"`
	UnitPrice          decimal.Decimal   `gorm:"column:unit_price;type:numeric(10,2);not null"`
	TotalPrice         decimal.Decimal   `gorm:"column:total_price;type:numeric(12,2);not null"`
	Status             enums.OrderStatus `gorm:"column:status;not null;default:'pending'"`
	Note               *string           `gorm:"column:note"`
	CreatedAt          time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (OrderItem) TableName() string { return "order_items" }

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return i.Validate()
}

func (i OrderItem) Ref() (types.CatalogRef, error) {
	return types.ParseCatalogRef(i.ProductID, i.InventoryProductID)
}

func (i *OrderItem) SetRef(ref types.CatalogRef) {
	i.ProductID, i.InventoryProductID = ref.Columns()
}

// Validate enforces the catalog ref and farmer attribution rules that the
// database also guards with check constraints.
func (i OrderItem) Validate() error {
	ref, err := i.Ref()
	if err != nil {
		return err
	}
	hasFarmer := i.FarmerID != nil && *i.FarmerID != uuid.Nil
	if ref.IsProduct() && !hasFarmer {
		return ErrFarmerRequired
	}
	if ref.IsInventory() && hasFarmer {
		return ErrFarmerForbidden
	}
	if i.Quantity < 1 {
		return ErrQuantityInvalid
	}
	return nil
}
