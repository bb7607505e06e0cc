package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/krishikarobar/marketplace-backend/pkg/db/models"
	"github.com/krishikarobar/marketplace-backend/pkg/types"
)

// Entry is the view of a sellable catalog row that ordering code needs.
type Entry struct {
	Ref      types.CatalogRef
	Name     string
	Unit     string
	Price    decimal.Decimal
	Stock    int
	MinOrder int
	// FarmerID is set for products and nil for inventory products.
	FarmerID *uuid.UUID
}

func entryFromProduct(p models.Product) *Entry {
	farmerID := p.FarmerID
	return &Entry{
		Ref:      types.ProductRef(p.ID),
		Name:     p.Name,
		Unit:     p.Unit,
		Price:    p.Price,
		Stock:    p.Stock,
		MinOrder: minOrderOrDefault(p.MinOrder),
		FarmerID: &farmerID,
	}
}

func entryFromInventory(p models.InventoryProduct) *Entry {
	return &Entry{
		Ref:      types.InventoryRef(p.ID),
		Name:     p.Name,
		Unit:     p.Unit,
		Price:    p.Price,
		Stock:    p.Stock,
		MinOrder: minOrderOrDefault(p.MinOrder),
	}
}

// minOrderOrDefault treats a missing or non-positive minimum as 1.
func minOrderOrDefault(v *int) int {
	if v == nil || *v < 1 {
		return 1
	}
	return *v
}
