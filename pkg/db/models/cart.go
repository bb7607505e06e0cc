package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/krishikarobar/marketplace-backend/pkg/types"
)

// Cart is the single pending selection owned by a buyer.
type Cart struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID  `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Cart) TableName() string { return "carts" }

func (c *Cart) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CartItem is one line of a cart. At most one line exists per catalog ref.
type CartItem struct {
	ID                 uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	CartID             uuid.UUID  `gorm:"column:cart_id;type:uuid;not null"`
	ProductID          *uuid.UUID `gorm:"column:product_id;type:uuid"`
	InventoryProductID *uuid.UUID `gorm:"column:inventory_product_id;type:uuid"`
	Quantity           int        `gorm:"column:quantity;not null"`
	Note               *string    `gorm:"column:note"`
	AddedAt            time.Time  `gorm:"column:added_at;autoCreateTime"`
}

func (CartItem) TableName() string { return "cart_items" }

func (i *CartItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if _, err := i.Ref(); err != nil {
		return err
	}
	return nil
}

func (i CartItem) Ref() (types.CatalogRef, error) {
	return types.ParseCatalogRef(i.ProductID, i.InventoryProductID)
}

func (i *CartItem) SetRef(ref types.CatalogRef) {
	i.ProductID, i.InventoryProductID = ref.Columns()
}
