package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// View is the buyer's cart priced at current catalog values.
type View struct {
	ID    uuid.UUID       `json:"id"`
	Items []LineView      `json:"items"`
	Total decimal.Decimal `json:"total"`
}

// LineView is one cart line. Available is false when the catalog row is gone.
type LineView struct {
	ID                 uuid.UUID       `json:"id"`
	ProductID          *uuid.UUID      `json:"product_id"`
	InventoryProductID *uuid.UUID      `json:"inventory_product_id"`
	Name               string          `json:"name"`
	Unit               string          `json:"unit"`
	Quantity           int             `json:"quantity"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	LineTotal          decimal.Decimal `json:"line_total"`
	Stock              int             `json:"stock"`
	Available          bool            `json:"available"`
	Note               *string         `json:"note,omitempty"`
	AddedAt            time.Time       `json:"added_at"`
}
