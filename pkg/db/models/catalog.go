package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a farmer-listed catalog row. Rows are written by the catalog
// service; this module only reads them and decrements stock.
type Product struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	FarmerID  uuid.UUID       `gorm:"column:farmer_id;type:uuid;not null"`
	Name      string          `gorm:"column:name;not null"`
	Category  string          `gorm:"column:category;not null"`
	Unit      string          `gorm:"column:unit;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	MinOrder  *int            `gorm:"column:min_order"`
	Stock     int             `gorm:"column:stock;not null;default:0"`
	Status    string          `gorm:"column:status;not null;default:'active'"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// InventoryProduct is platform-owned stock sold without a farmer.
type InventoryProduct struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name      string          `gorm:"column:name;not null"`
	Category  string          `gorm:"column:category;not null"`
	Unit      string          `gorm:"column:unit;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	MinOrder  *int            `gorm:"column:min_order"`
	Stock     int             `gorm:"column:stock;not null;default:0"`
	Status    string          `gorm:"column:status;not null;default:'active'"`
	Featured  bool            `gorm:"column:featured;not null;default:false"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (InventoryProduct) TableName() string { return "inventory_products" }

func (p *InventoryProduct) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
