package enums

import "fmt"

// CatalogKind distinguishes farmer-listed products from platform inventory.
type CatalogKind string

const (
	CatalogKindProduct   CatalogKind = "product"
	CatalogKindInventory CatalogKind = "inventory"
)

func (k CatalogKind) String() string {
	return string(k)
}

func (k CatalogKind) IsValid() bool {
	return k == CatalogKindProduct || k == CatalogKindInventory
}

func ParseCatalogKind(value string) (CatalogKind, error) {
	kind := CatalogKind(value)
	if !kind.IsValid() {
		return "", fmt.Errorf("invalid catalog kind %q", value)
	}
	return kind, nil
}
