package types

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/krishikarobar/marketplace-backend/pkg/enums"
)

var (
	ErrCatalogRefMissing   = errors.New("exactly one of product_id or inventory_product_id must be set")
	ErrCatalogRefAmbiguous = errors.New("only one of product_id or inventory_product_id may be set")
)

// CatalogRef points at exactly one sellable catalog row: a farmer product or
// a platform inventory product. The zero value is invalid.
type CatalogRef struct {
	kind enums.CatalogKind
	id   uuid.UUID
}

func ProductRef(id uuid.UUID) CatalogRef {
	return CatalogRef{kind: enums.CatalogKindProduct, id: id}
}

func InventoryRef(id uuid.UUID) CatalogRef {
	return CatalogRef{kind: enums.CatalogKindInventory, id: id}
}

// ParseCatalogRef builds a ref from the two nullable columns used on the wire
// and in storage.
func ParseCatalogRef(productID, inventoryProductID *uuid.UUID) (CatalogRef, error) {
	hasProduct := productID != nil && *productID != uuid.Nil
	hasInventory := inventoryProductID != nil && *inventoryProductID != uuid.Nil
	switch {
	case hasProduct && hasInventory:
		return CatalogRef{}, ErrCatalogRefAmbiguous
	case hasProduct:
		return ProductRef(*productID), nil
	case hasInventory:
		return InventoryRef(*inventoryProductID), nil
	}
	return CatalogRef{}, ErrCatalogRefMissing
}

func (r CatalogRef) Kind() enums.CatalogKind { return r.kind }
func (r CatalogRef) ID() uuid.UUID           { return r.id }

func (r CatalogRef) IsValid() bool {
	return r.kind.IsValid() && r.id != uuid.Nil
}

func (r CatalogRef) IsProduct() bool   { return r.kind == enums.CatalogKindProduct }
func (r CatalogRef) IsInventory() bool { return r.kind == enums.CatalogKindInventory }

// Columns splits the ref back into (product_id, inventory_product_id).
func (r CatalogRef) Columns() (*uuid.UUID, *uuid.UUID) {
	id := r.id
	switch r.kind {
	case enums.CatalogKindProduct:
		return &id, nil
	case enums.CatalogKindInventory:
		return nil, &id
	}
	return nil, nil
}

func (r CatalogRef) String() string {
	if !r.IsValid() {
		return "invalid"
	}
	return fmt.Sprintf("%s:%s", r.kind, r.id)
}
