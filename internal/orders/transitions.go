package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/krishikarobar/marketplace-backend/internal/notifications"
	"github.com/krishikarobar/marketplace-backend/pkg/db/models"
	"github.com/krishikarobar/marketplace-backend/pkg/enums"
	pkgerrors "github.com/krishikarobar/marketplace-backend/pkg/errors"
)

// UpdateItemStatusInput asks to move one order item to Status.
type UpdateItemStatusInput struct {
	Actor  Actor
	ItemID uuid.UUID
	Status string
	Note   *string
}

// CancelOrderInput asks to cancel a buyer's order.
type CancelOrderInput struct {
	Actor   Actor
	OrderID uuid.UUID
}

// DeleteItemInput asks to remove one order item.
type DeleteItemInput struct {
	Actor  Actor
	ItemID uuid.UUID
}

// acceptance records what an accept transition did to stock.
type acceptance struct {
	kind      string
	units     int
	remaining int
	lowStock  bool
}

func (s *service) UpdateItemStatus(ctx context.Context, input UpdateItemStatusInput) (*OrderItemDTO, error) {
	if err := requireIdentity(input.Actor); err != nil {
		return nil, err
	}
	target, err := enums.ParseOrderStatus(input.Status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
	}

	var (
		updated  *models.OrderItem
		previous enums.OrderStatus
		rollup   enums.OrderStatus
		accepted *acceptance
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, order, err := lockItemOrder(ctx, repo, input.Actor, input.ItemID)
		if err != nil {
			return err
		}
		if order.Status == enums.OrderStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeValidation, "cannot update order item because the order has been cancelled")
		}

		previous = item.Status
		if target == item.Status {
			updated, rollup = item, order.Status
			return nil
		}
		if err := s.checkTransition(item.Status, target); err != nil {
			return err
		}

		if target == enums.OrderStatusAccepted && item.Status == enums.OrderStatusPending {
			accepted, err = s.takeStock(ctx, tx, item)
			if err != nil {
				return err
			}
		}

		updates := map[string]any{"status": target}
		if note := trimmed(input.Note); note != nil {
			updates["note"] = *note
		}
		if err := repo.UpdateItemFrom(ctx, item.ID, item.Status, updates); err != nil {
			if errors.Is(err, ErrItemStatusChanged) {
				return errItemChanged()
			}
			return notFoundOr(err, "order item not found", "update order item")
		}
		if rollup, err = s.afterItemWrite(ctx, repo, item.OrderID); err != nil {
			return err
		}

		if err := s.notifier.Notify(ctx, tx, statusMessages(order.BuyerID, item, target)...); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "notify status change")
		}

		updated, err = repo.FindItem(ctx, item.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order item")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if previous != target {
		s.metrics.IncTransition(target.String())
		logCtx := s.logg.WithOrderID(ctx, updated.OrderID.String())
		logCtx = s.logg.WithOrderItemID(logCtx, updated.ID.String())
		logCtx = s.logg.WithFields(logCtx, map[string]any{
			"from":         previous.String(),
			"to":           target.String(),
			"order_status": rollup.String(),
		})
		s.logg.Info(logCtx, "order_item.status.updated")
	}
	if accepted != nil {
		s.metrics.AddStockDecrement(accepted.kind, accepted.units)
		if accepted.lowStock {
			s.metrics.IncLowStock(accepted.kind)
			logCtx := s.logg.WithOrderItemID(ctx, updated.ID.String())
			s.logg.Warn(s.logg.WithField(logCtx, "remaining", accepted.remaining), "catalog.stock.low")
		}
	}

	dto := itemToDTO(*updated)
	return &dto, nil
}

// checkTransition applies the forward-only rule when strict transitions are
// enabled. Otherwise any known status is accepted.
func (s *service) checkTransition(from, to enums.OrderStatus) error {
	if !s.opts.StrictTransitions {
		return nil
	}
	if next, ok := from.Next(); ok && next == to {
		return nil
	}
	return pkgerrors.New(
		pkgerrors.CodeValidation,
		fmt.Sprintf("cannot move order item from %s to %s", from, to),
	).WithDetails(map[string]any{"from": from, "to": to})
}

// takeStock locks the catalog row, checks availability and removes the
// item's quantity. A low stock alert goes to the farmer in the same
// transaction.
func (s *service) takeStock(ctx context.Context, tx *gorm.DB, item *models.OrderItem) (*acceptance, error) {
	ref, err := item.Ref()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "order item has no catalog reference")
	}
	cat := s.catalog.WithTx(tx)
	entry, err := cat.LockForUpdate(ctx, ref)
	if err != nil {
		return nil, err
	}
	if entry.Stock < item.Quantity {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "not enough stock to accept this order").
			WithDetails(map[string]any{"available": entry.Stock, "requested": item.Quantity})
	}
	remaining, err := cat.DecrementStock(ctx, ref, item.Quantity)
	if err != nil {
		return nil, err
	}

	result := &acceptance{
		kind:      ref.Kind().String(),
		units:     item.Quantity,
		remaining: remaining,
		lowStock:  remaining < s.opts.LowStockThreshold,
	}
	if result.lowStock && item.FarmerID != nil {
		err := s.notifier.Notify(ctx, tx, notifications.Message{
			RecipientID: *item.FarmerID,
			Type:        enums.NotificationTypeStock,
			Text:        fmt.Sprintf("Low stock alert: %s has only %d left", entry.Name, remaining),
			Link:        sellerItemsLink,
		})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "notify low stock")
		}
	}
	return result, nil
}

func (s *service) CancelOrder(ctx context.Context, input CancelOrderInput) (*OrderDTO, error) {
	if err := requireIdentity(input.Actor); err != nil {
		return nil, err
	}

	var (
		cancelled *models.Order
		changed   bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.LockOrder(ctx, input.OrderID); err != nil {
			return notFoundOr(err, "order not found", "lock order")
		}
		order, err := repo.FindOrderWithItems(ctx, input.OrderID)
		if err != nil {
			return notFoundOr(err, "order not found", "load order")
		}
		if input.Actor.Role != enums.ActorRoleBuyer || order.BuyerID != input.Actor.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the buyer who placed the order can cancel it")
		}
		if order.Status == enums.OrderStatusCancelled {
			cancelled = order
			return nil
		}
		for _, item := range order.Items {
			if item.Status != enums.OrderStatusPending {
				return pkgerrors.New(pkgerrors.CodeValidation, "cannot cancel order that has already been accepted or shipped")
			}
		}

		n, err := repo.UpdateItemsStatus(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusCancelled)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order items")
		}
		if n != int64(len(order.Items)) {
			return errItemChanged()
		}
		if err := repo.UpdateOrder(ctx, order.ID, map[string]any{"status": enums.OrderStatusCancelled}); err != nil {
			return notFoundOr(err, "order not found", "cancel order")
		}
		if err := s.notifier.Notify(ctx, tx, cancelMessages(order)...); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "notify cancellation")
		}

		changed = true
		cancelled, err = repo.FindOrderWithItems(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.metrics.IncCancellation()
		s.logg.Info(s.logg.WithOrderID(ctx, cancelled.ID.String()), "order.cancelled")
	}
	dto := orderToDTO(*cancelled)
	return &dto, nil
}

func (s *service) DeleteItem(ctx context.Context, input DeleteItemInput) error {
	if err := requireIdentity(input.Actor); err != nil {
		return err
	}
	var (
		orderID uuid.UUID
		rollup  enums.OrderStatus
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, _, err := lockItemOrder(ctx, repo, input.Actor, input.ItemID)
		if err != nil {
			return err
		}
		if err := repo.DeleteItem(ctx, item.ID); err != nil {
			return notFoundOr(err, "order item not found", "delete order item")
		}
		orderID = item.OrderID
		rollup, err = s.afterItemWrite(ctx, repo, item.OrderID)
		return err
	})
	if err != nil {
		return err
	}
	logCtx := s.logg.WithOrderID(ctx, orderID.String())
	s.logg.Info(s.logg.WithField(logCtx, "order_status", rollup.String()), "order_item.deleted")
	return nil
}

// lockItemOrder authorizes the actor against the item, takes the parent
// order's row lock and reads the item again under it.
func lockItemOrder(ctx context.Context, repo Repository, actor Actor, itemID uuid.UUID) (*models.OrderItem, *models.Order, error) {
	item, err := repo.FindItem(ctx, itemID)
	if err != nil {
		return nil, nil, notFoundOr(err, "order item not found", "load order item")
	}
	if err := authorizeSeller(actor, item); err != nil {
		return nil, nil, err
	}
	order, err := repo.LockOrder(ctx, item.OrderID)
	if err != nil {
		return nil, nil, notFoundOr(err, "order not found", "lock order")
	}
	item, err = repo.FindItem(ctx, itemID)
	if err != nil {
		return nil, nil, notFoundOr(err, "order item not found", "load order item")
	}
	if item.OrderID != order.ID {
		return nil, nil, errItemChanged()
	}
	return item, order, nil
}

func errItemChanged() error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "order item was changed by another request, reload and retry")
}

// authorizeSeller allows the attributed farmer on product items and admins
// on inventory items, which have no farmer.
func authorizeSeller(actor Actor, item *models.OrderItem) error {
	if item.FarmerID != nil {
		if actor.Role == enums.ActorRoleFarmer && *item.FarmerID == actor.UserID {
			return nil
		}
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the farmer selling this item can change it")
	}
	if actor.Role == enums.ActorRoleAdmin {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "only admins can change inventory items")
}

func statusMessages(buyerID uuid.UUID, item *models.OrderItem, status enums.OrderStatus) []notifications.Message {
	msgs := []notifications.Message{{
		RecipientID: buyerID,
		Type:        enums.NotificationTypeOrderStatus,
		Text:        fmt.Sprintf("Your order for %s is now %s", item.Name, status),
		Link:        orderLink(item.OrderID),
	}}
	if item.FarmerID != nil {
		msgs = append(msgs, notifications.Message{
			RecipientID: *item.FarmerID,
			Type:        enums.NotificationTypeOrderStatus,
			Text:        fmt.Sprintf("Order for %s is now %s", item.Name, status),
			Link:        sellerItemsLink,
		})
	}
	return msgs
}

func cancelMessages(order *models.Order) []notifications.Message {
	var msgs []notifications.Message
	seen := make(map[uuid.UUID]struct{})
	for _, item := range order.Items {
		if item.FarmerID == nil {
			continue
		}
		if _, ok := seen[*item.FarmerID]; ok {
			continue
		}
		seen[*item.FarmerID] = struct{}{}
		msgs = append(msgs, notifications.Message{
			RecipientID: *item.FarmerID,
			Type:        enums.NotificationTypeOrderStatus,
			Text:        fmt.Sprintf("Order #%s was cancelled by the buyer", order.ID),
			Link:        sellerItemsLink,
		})
	}
	return msgs
}

// sellerItemsLink is where farmers review their order items; they cannot
// open the buyer's order.
const sellerItemsLink = "/api/v1/order-items"

func orderLink(orderID uuid.UUID) string {
	return "/api/v1/orders/" + orderID.String()
}
