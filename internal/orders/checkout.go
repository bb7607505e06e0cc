package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/krishikarobar/marketplace-backend/internal/catalog"
	"github.com/krishikarobar/marketplace-backend/internal/notifications"
	"github.com/krishikarobar/marketplace-backend/pkg/db/models"
	"github.com/krishikarobar/marketplace-backend/pkg/enums"
	pkgerrors "github.com/krishikarobar/marketplace-backend/pkg/errors"
	"github.com/krishikarobar/marketplace-backend/pkg/types"
)

// CheckoutInput is a buyer's request to place one order.
type CheckoutInput struct {
	Actor           Actor
	Lines           []CheckoutLine
	ShippingAddress *string
	Note            *string
}

// CheckoutLine requests one order item. FarmerID is optional; when present it
// must match the product's owner and must be absent for inventory products.
type CheckoutLine struct {
	ProductID          *uuid.UUID
	InventoryProductID *uuid.UUID
	FarmerID           *uuid.UUID
	Quantity           int
	Note               *string
}

const (
	checkoutSucceeded = "success"
	checkoutRejected  = "rejected"
	checkoutFailed    = "error"
)

func (s *service) Checkout(ctx context.Context, input CheckoutInput) (*OrderDTO, error) {
	if err := requireIdentity(input.Actor); err != nil {
		return nil, err
	}
	if input.Actor.Role != enums.ActorRoleBuyer {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only buyers can place orders")
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}

	refs, lineErrs := parseLines(input.Lines)

	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		valid := make([]types.CatalogRef, 0, len(refs))
		for i, ref := range refs {
			if lineErrs[i] == nil {
				valid = append(valid, ref)
			}
		}
		entries, err := s.catalog.WithTx(tx).LookupMany(ctx, valid)
		if err != nil {
			return err
		}
		if err := checkLines(input.Lines, refs, entries, lineErrs); err != nil {
			return err
		}

		order := &models.Order{
			BuyerID:         input.Actor.UserID,
			Status:          enums.OrderStatusPending,
			ShippingAddress: trimmed(input.ShippingAddress),
			Note:            trimmed(input.Note),
			TotalPrice:      decimal.Zero,
		}
		items := make([]models.OrderItem, 0, len(input.Lines))
		for i, line := range input.Lines {
			entry := entries[refs[i]]
			qty := decimal.NewFromInt(int64(line.Quantity))
			item := models.OrderItem{
				FarmerID:   entry.FarmerID,
				Name:       entry.Name,
				Quantity:   line.Quantity,
				UnitPrice:  entry.Price,
				TotalPrice: entry.Price.Mul(qty),
				Status:     enums.OrderStatusPending,
				Note:       trimmed(line.Note),
			}
			item.SetRef(refs[i])
			items = append(items, item)
			order.TotalPrice = order.TotalPrice.Add(item.TotalPrice)
		}

		if err := repo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.FromDB(err, "create order")
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := repo.CreateItems(ctx, items); err != nil {
			return itemWriteErr(err, "create order items")
		}
		if _, err := s.afterItemWrite(ctx, repo, order.ID); err != nil {
			return err
		}
		if _, err := s.cart.ClearRefs(ctx, tx, order.BuyerID, refs); err != nil {
			return err
		}
		if err := s.notifier.Notify(ctx, tx, checkoutMessages(order.ID, order.BuyerID, items)...); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "notify checkout")
		}

		created, err = repo.FindOrderWithItems(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		return nil
	})
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			s.metrics.IncCheckout(checkoutRejected)
		} else {
			s.metrics.IncCheckout(checkoutFailed)
		}
		return nil, err
	}

	s.metrics.IncCheckout(checkoutSucceeded)
	logCtx := s.logg.WithOrderID(ctx, created.ID.String())
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"buyer_id":    created.BuyerID.String(),
		"item_count":  len(created.Items),
		"total_price": created.TotalPrice.StringFixed(2),
	})
	s.logg.Info(logCtx, "order.checkout.completed")

	dto := orderToDTO(*created)
	return &dto, nil
}

// parseLines resolves every line's catalog ref. lineErrs[i] is set for lines
// that are malformed on their own.
func parseLines(lines []CheckoutLine) ([]types.CatalogRef, []error) {
	refs := make([]types.CatalogRef, len(lines))
	lineErrs := make([]error, len(lines))
	for i, line := range lines {
		ref, err := types.ParseCatalogRef(line.ProductID, line.InventoryProductID)
		if err != nil {
			lineErrs[i] = pkgerrors.FieldError{Index: i, Field: "product_id", Message: err.Error()}
			continue
		}
		refs[i] = ref
		if line.Quantity < 1 {
			lineErrs[i] = pkgerrors.FieldError{Index: i, Field: "quantity", Message: "quantity must be at least 1"}
		}
	}
	return refs, lineErrs
}

// checkLines validates lines against their catalog entries and reports every
// failing line in one validation error.
func checkLines(lines []CheckoutLine, refs []types.CatalogRef, entries map[types.CatalogRef]*catalog.Entry, lineErrs []error) error {
	var errs error
	for i, line := range lines {
		if lineErrs[i] != nil {
			errs = multierr.Append(errs, lineErrs[i])
			continue
		}
		ref := refs[i]
		entry, ok := entries[ref]
		if !ok {
			errs = multierr.Append(errs, pkgerrors.FieldError{
				Index:   i,
				Field:   refField(ref),
				Message: fmt.Sprintf("%s not found", kindLabel(ref)),
			})
			continue
		}
		if line.FarmerID == nil || *line.FarmerID == uuid.Nil {
			continue
		}
		if ref.IsInventory() {
			errs = multierr.Append(errs, pkgerrors.FieldError{
				Index: i, Field: "farmer_id", Message: models.ErrFarmerForbidden.Error(),
			})
			continue
		}
		if entry.FarmerID == nil || *entry.FarmerID != *line.FarmerID {
			errs = multierr.Append(errs, pkgerrors.FieldError{
				Index: i, Field: "farmer_id", Message: "farmer does not sell this product",
			})
		}
	}
	if errs == nil {
		return nil
	}
	return pkgerrors.Fields("invalid order lines", errs)
}

func checkoutMessages(orderID, buyerID uuid.UUID, items []models.OrderItem) []notifications.Message {
	msgs := []notifications.Message{{
		RecipientID: buyerID,
		Type:        enums.NotificationTypeOrder,
		Text:        fmt.Sprintf("Your order #%s has been placed", orderID),
		Link:        orderLink(orderID),
	}}
	seen := make(map[uuid.UUID]struct{})
	for _, item := range items {
		if item.FarmerID == nil {
			continue
		}
		if _, ok := seen[*item.FarmerID]; ok {
			continue
		}
		seen[*item.FarmerID] = struct{}{}
		msgs = append(msgs, notifications.Message{
			RecipientID: *item.FarmerID,
			Type:        enums.NotificationTypeOrder,
			Text:        fmt.Sprintf("New order received for %s", item.Name),
			Link:        sellerItemsLink,
		})
	}
	return msgs
}

// itemWriteErr maps model validation failures raised by the create hook.
func itemWriteErr(err error, op string) error {
	for _, target := range []error{models.ErrFarmerRequired, models.ErrFarmerForbidden, models.ErrQuantityInvalid, types.ErrCatalogRefMissing, types.ErrCatalogRefAmbiguous} {
		if errors.Is(err, target) {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, target.Error())
		}
	}
	return pkgerrors.FromDB(err, op)
}

func refField(ref types.CatalogRef) string {
	if ref.IsInventory() {
		return "inventory_product_id"
	}
	return "product_id"
}

func kindLabel(ref types.CatalogRef) string {
	if ref.IsInventory() {
		return "inventory product"
	}
	return "product"
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	out := strings.TrimSpace(*v)
	if out == "" {
		return nil
	}
	return &out
}
