package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/krishikarobar/marketplace-backend/internal/catalog"
	"github.com/krishikarobar/marketplace-backend/pkg/db"
	"github.com/krishikarobar/marketplace-backend/pkg/db/models"
	pkgerrors "github.com/krishikarobar/marketplace-backend/pkg/errors"
	"github.com/krishikarobar/marketplace-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type catalogReader interface {
	Lookup(ctx context.Context, ref types.CatalogRef) (*catalog.Entry, error)
	LookupMany(ctx context.Context, refs []types.CatalogRef) (map[types.CatalogRef]*catalog.Entry, error)
}

// Service exposes the buyer's cart operations.
type Service interface {
	AddItem(ctx context.Context, input AddItemInput) (*AddItemResult, error)
	UpdateQuantity(ctx context.Context, input UpdateQuantityInput) (*models.CartItem, error)
	RemoveItem(ctx context.Context, buyerID, itemID uuid.UUID) error
	GetCart(ctx context.Context, buyerID uuid.UUID) (*View, error)
	ClearRefs(ctx context.Context, tx *gorm.DB, buyerID uuid.UUID, refs []types.CatalogRef) (int64, error)
}

type service struct {
	repo    CartRepository
	tx      txRunner
	catalog catalogReader
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, catalog catalogReader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog reader required")
	}
	return &service{repo: repo, tx: tx, catalog: catalog}, nil
}

// AddItemInput describes one add-to-cart request. A zero Quantity means 1.
type AddItemInput struct {
	BuyerID  uuid.UUID
	Ref      types.CatalogRef
	Quantity int
	Note     *string
}

// AddItemResult reports the resulting line and whether it is new.
type AddItemResult struct {
	Item    *models.CartItem
	Created bool
}

// UpdateQuantityInput sets a line's quantity outright.
type UpdateQuantityInput struct {
	BuyerID  uuid.UUID
	ItemID   uuid.UUID
	Quantity int
	Note     *string
}

func (s *service) AddItem(ctx context.Context, input AddItemInput) (*AddItemResult, error) {
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Ref.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, types.ErrCatalogRefMissing.Error())
	}
	qty := input.Quantity
	if qty == 0 {
		qty = 1
	}
	if qty < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	entry, err := s.catalog.Lookup(ctx, input.Ref)
	if err != nil {
		return nil, err
	}
	if qty < entry.MinOrder {
		qty = entry.MinOrder
	}

	var result *AddItemResult
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := ensureCart(ctx, repo, input.BuyerID)
		if err != nil {
			return err
		}

		existing, err := repo.FindItemByRef(ctx, cart.ID, input.Ref)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
		}

		if existing != nil {
			merged, err := repo.AddQuantity(ctx, existing.ID, qty, entry.Stock)
			switch {
			case errors.Is(err, ErrQuantityLimit):
				return stockExceeded(entry)
			case err != nil:
				return lineWriteErr(err)
			}
			if note := cleanNote(input.Note); note != nil {
				if err := repo.UpdateItem(ctx, existing.ID, map[string]any{"note": *note}); err != nil {
					return lineWriteErr(err)
				}
				existing.Note = note
			}
			existing.Quantity = merged
			result = &AddItemResult{Item: existing}
			return nil
		}

		if qty > entry.Stock {
			return stockExceeded(entry)
		}
		item := &models.CartItem{
			CartID:   cart.ID,
			Quantity: qty,
			Note:     cleanNote(input.Note),
		}
		item.SetRef(input.Ref)
		if err := repo.CreateItem(ctx, item); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "item was added concurrently, retry")
			}
			return pkgerrors.FromDB(err, "create cart item")
		}
		result = &AddItemResult{Item: item, Created: true}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) UpdateQuantity(ctx context.Context, input UpdateQuantityInput) (*models.CartItem, error) {
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	item, err := s.ownedItem(ctx, s.repo, input.BuyerID, input.ItemID)
	if err != nil {
		return nil, err
	}
	ref, err := item.Ref()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cart item has no catalog reference")
	}
	entry, err := s.catalog.Lookup(ctx, ref)
	if err != nil {
		return nil, err
	}

	qty := input.Quantity
	if qty < entry.MinOrder {
		qty = entry.MinOrder
	}
	if qty > entry.Stock {
		return nil, stockExceeded(entry)
	}

	updates := map[string]any{"quantity": qty}
	if note := cleanNote(input.Note); note != nil {
		updates["note"] = *note
		item.Note = note
	}
	if err := s.repo.UpdateItem(ctx, item.ID, updates); err != nil {
		return nil, lineWriteErr(err)
	}
	item.Quantity = qty
	return item, nil
}

func (s *service) RemoveItem(ctx context.Context, buyerID, itemID uuid.UUID) error {
	if buyerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := s.ownedItem(ctx, repo, buyerID, itemID)
		if err != nil {
			return err
		}
		if err := repo.DeleteItem(ctx, item.ID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
		}
		return nil
	})
}

func (s *service) GetCart(ctx context.Context, buyerID uuid.UUID) (*View, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	view := &View{Items: []LineView{}, Total: decimal.Zero}

	cart, err := s.repo.FindByUser(ctx, buyerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return view, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	view.ID = cart.ID

	items, err := s.repo.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart items")
	}
	refs := make([]types.CatalogRef, 0, len(items))
	for _, item := range items {
		if ref, err := item.Ref(); err == nil {
			refs = append(refs, ref)
		}
	}
	entries, err := s.catalog.LookupMany(ctx, refs)
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		ref, err := item.Ref()
		if err != nil {
			continue
		}
		line := LineView{
			ID:                 item.ID,
			ProductID:          item.ProductID,
			InventoryProductID: item.InventoryProductID,
			Quantity:           item.Quantity,
			Note:               item.Note,
			AddedAt:            item.AddedAt,
			LineTotal:          decimal.Zero,
		}
		// Lines whose catalog row was removed stay visible but do not count.
		if entry, ok := entries[ref]; ok {
			line.Name = entry.Name
			line.Unit = entry.Unit
			line.UnitPrice = entry.Price
			line.Stock = entry.Stock
			line.Available = true
			line.LineTotal = entry.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
			view.Total = view.Total.Add(line.LineTotal)
		}
		view.Items = append(view.Items, line)
	}
	return view, nil
}

// ClearRefs removes the buyer's cart lines that point at refs. It runs on
// the caller's transaction so checkout and cart cleanup commit together.
func (s *service) ClearRefs(ctx context.Context, tx *gorm.DB, buyerID uuid.UUID, refs []types.CatalogRef) (int64, error) {
	if len(refs) == 0 {
		return 0, nil
	}
	repo := s.repo.WithTx(tx)
	cart, err := repo.FindByUser(ctx, buyerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	removed, err := repo.DeleteItemsByRefs(ctx, cart.ID, refs)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart items")
	}
	return removed, nil
}

func (s *service) ownedItem(ctx context.Context, repo CartRepository, buyerID, itemID uuid.UUID) (*models.CartItem, error) {
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart item id required")
	}
	item, err := repo.FindItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}
	cart, err := repo.FindByID(ctx, item.CartID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if cart.UserID != buyerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cart item belongs to another buyer")
	}
	return item, nil
}

// ensureCart returns the buyer's cart, creating it on first use. A concurrent
// first add loses the insert quietly and reads the winner's row.
func ensureCart(ctx context.Context, repo CartRepository, buyerID uuid.UUID) (*models.Cart, error) {
	cart, err := repo.FindByUser(ctx, buyerID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if err := repo.CreateIfAbsent(ctx, &models.Cart{UserID: buyerID}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	cart, err = repo.FindByUser(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

func lineWriteErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
}

func stockExceeded(entry *catalog.Entry) error {
	return pkgerrors.New(
		pkgerrors.CodeInsufficientStock,
		fmt.Sprintf("cannot add more than available stock (%d)", entry.Stock),
	).WithDetails(map[string]any{
		"available": entry.Stock,
		"ref":       entry.Ref.String(),
	})
}

func cleanNote(note *string) *string {
	if note == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*note)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
