package catalog

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/krishikarobar/marketplace-backend/internal/repo"
	"github.com/krishikarobar/marketplace-backend/pkg/db/models"
	"github.com/krishikarobar/marketplace-backend/pkg/enums"
	pkgerrors "github.com/krishikarobar/marketplace-backend/pkg/errors"
	"github.com/krishikarobar/marketplace-backend/pkg/types"
)

// Repository reads catalog rows and is the only writer of their stock.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx binds the repository to an open transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{Base: repo.NewBase(tx)}
}

// Lookup resolves a ref to its current catalog entry.
func (r *Repository) Lookup(ctx context.Context, ref types.CatalogRef) (*Entry, error) {
	return r.load(r.DB(ctx), ref)
}

// LockForUpdate resolves a ref and holds a row lock until the surrounding
// transaction ends. Must be called on a repository bound with WithTx.
func (r *Repository) LockForUpdate(ctx context.Context, ref types.CatalogRef) (*Entry, error) {
	return r.load(r.DB(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), ref)
}

// LookupMany resolves refs in at most two queries. Missing refs are absent
// from the result.
func (r *Repository) LookupMany(ctx context.Context, refs []types.CatalogRef) (map[types.CatalogRef]*Entry, error) {
	out := make(map[types.CatalogRef]*Entry, len(refs))
	var productIDs, inventoryIDs []any
	for _, ref := range refs {
		switch ref.Kind() {
		case enums.CatalogKindProduct:
			productIDs = append(productIDs, ref.ID())
		case enums.CatalogKindInventory:
			inventoryIDs = append(inventoryIDs, ref.ID())
		}
	}
	if len(productIDs) > 0 {
		var rows []models.Product
		if err := r.DB(ctx).Where("id IN ?", productIDs).Find(&rows).Error; err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
		}
		for _, row := range rows {
			entry := entryFromProduct(row)
			out[entry.Ref] = entry
		}
	}
	if len(inventoryIDs) > 0 {
		var rows []models.InventoryProduct
		if err := r.DB(ctx).Where("id IN ?", inventoryIDs).Find(&rows).Error; err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory products")
		}
		for _, row := range rows {
			entry := entryFromInventory(row)
			out[entry.Ref] = entry
		}
	}
	return out, nil
}

// DecrementStock removes qty units if at least qty are available and returns
// the remaining stock. The guard lives in the UPDATE itself so concurrent
// acceptances can never drive stock negative.
func (r *Repository) DecrementStock(ctx context.Context, ref types.CatalogRef, qty int) (int, error) {
	if qty < 1 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	table, err := tableFor(ref)
	if err != nil {
		return 0, err
	}

	res := r.DB(ctx).Table(table).
		Where("id = ? AND stock >= ?", ref.ID(), qty).
		Updates(map[string]any{
			"stock":      gorm.Expr("stock - ?", qty),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "decrement stock")
	}
	if res.RowsAffected == 0 {
		if _, err := r.Lookup(ctx, ref); err != nil {
			return 0, err
		}
		return 0, pkgerrors.New(pkgerrors.CodeInsufficientStock, "not enough stock")
	}

	var remaining int
	if err := r.DB(ctx).Table(table).Select("stock").Where("id = ?", ref.ID()).Scan(&remaining).Error; err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read remaining stock")
	}
	return remaining, nil
}

func (r *Repository) load(query *gorm.DB, ref types.CatalogRef) (*Entry, error) {
	switch ref.Kind() {
	case enums.CatalogKindProduct:
		var row models.Product
		if err := query.Where("id = ?", ref.ID()).First(&row).Error; err != nil {
			return nil, mapLookupErr(err, "product")
		}
		return entryFromProduct(row), nil
	case enums.CatalogKindInventory:
		var row models.InventoryProduct
		if err := query.Where("id = ?", ref.ID()).First(&row).Error; err != nil {
			return nil, mapLookupErr(err, "inventory product")
		}
		return entryFromInventory(row), nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation, types.ErrCatalogRefMissing.Error())
}

func tableFor(ref types.CatalogRef) (string, error) {
	switch ref.Kind() {
	case enums.CatalogKindProduct:
		return models.Product{}.TableName(), nil
	case enums.CatalogKindInventory:
		return models.InventoryProduct{}.TableName(), nil
	}
	return "", pkgerrors.New(pkgerrors.CodeValidation, types.ErrCatalogRefMissing.Error())
}

func mapLookupErr(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, what+" not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+what)
}
