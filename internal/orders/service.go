package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/krishikarobar/marketplace-backend/internal/catalog"
	"github.com/krishikarobar/marketplace-backend/internal/notifications"
	"github.com/krishikarobar/marketplace-backend/pkg/db/models"
	"github.com/krishikarobar/marketplace-backend/pkg/enums"
	pkgerrors "github.com/krishikarobar/marketplace-backend/pkg/errors"
	"github.com/krishikarobar/marketplace-backend/pkg/logger"
	"github.com/krishikarobar/marketplace-backend/pkg/metrics"
	"github.com/krishikarobar/marketplace-backend/pkg/pagination"
	"github.com/krishikarobar/marketplace-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type notifier interface {
	Notify(ctx context.Context, tx *gorm.DB, msgs ...notifications.Message) error
}

type cartClearer interface {
	ClearRefs(ctx context.Context, tx *gorm.DB, buyerID uuid.UUID, refs []types.CatalogRef) (int64, error)
}

// Service defines checkout, fulfillment and order read operations.
type Service interface {
	Checkout(ctx context.Context, input CheckoutInput) (*OrderDTO, error)
	CancelOrder(ctx context.Context, input CancelOrderInput) (*OrderDTO, error)
	UpdateItemStatus(ctx context.Context, input UpdateItemStatusInput) (*OrderItemDTO, error)
	DeleteItem(ctx context.Context, input DeleteItemInput) error
	ListBuyerOrders(ctx context.Context, input ListOrdersInput) (*OrderList, error)
	GetOrder(ctx context.Context, actor Actor, orderID uuid.UUID) (*OrderDTO, error)
	ListSellerItems(ctx context.Context, input ListItemsInput) (*OrderItemList, error)
}

// Actor is the authenticated caller.
type Actor struct {
	UserID uuid.UUID
	Role   enums.ActorRole
}

// Options tunes fulfillment rules.
type Options struct {
	// StrictTransitions limits sellers to one forward step at a time.
	StrictTransitions bool
	// LowStockThreshold triggers a stock alert when remaining stock drops below it.
	LowStockThreshold int
}

// ServiceParams carries the service dependencies. Metrics may be nil.
type ServiceParams struct {
	Repo     Repository
	Tx       txRunner
	Catalog  *catalog.Repository
	Cart     cartClearer
	Notifier notifier
	Logger   *logger.Logger
	Metrics  *metrics.OrderMetrics
	Options  Options
}

type service struct {
	repo     Repository
	tx       txRunner
	catalog  *catalog.Repository
	cart     cartClearer
	notifier notifier
	logg     *logger.Logger
	metrics  *metrics.OrderMetrics
	opts     Options
}

// NewService builds the orders service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if params.Cart == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Options.LowStockThreshold < 0 {
		return nil, fmt.Errorf("low stock threshold must not be negative")
	}
	return &service{
		repo:     params.Repo,
		tx:       params.Tx,
		catalog:  params.Catalog,
		cart:     params.Cart,
		notifier: params.Notifier,
		logg:     params.Logger,
		metrics:  params.Metrics,
		opts:     params.Options,
	}, nil
}

// afterItemWrite recomputes and persists the order's rollup status. It must
// run on the same transaction as the item write that preceded it. A
// cancelled order is terminal and is left untouched.
func (s *service) afterItemWrite(ctx context.Context, repo Repository, orderID uuid.UUID) (enums.OrderStatus, error) {
	order, err := repo.FindOrder(ctx, orderID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order for rollup")
	}
	if order.Status == enums.OrderStatusCancelled {
		return order.Status, nil
	}
	statuses, err := repo.ListItemStatuses(ctx, orderID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item statuses")
	}
	next := AggregateStatus(statuses)
	if next == order.Status {
		return next, nil
	}
	if err := repo.UpdateOrder(ctx, orderID, map[string]any{"status": next}); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	return next, nil
}

// ListOrdersInput filters buyer order listings.
type ListOrdersInput struct {
	Actor  Actor
	Status *enums.OrderStatus
	Limit  int
	Cursor string
}

// ListItemsInput filters seller item listings.
type ListItemsInput struct {
	Actor  Actor
	Status *enums.OrderStatus
	Limit  int
	Cursor string
}

func (s *service) ListBuyerOrders(ctx context.Context, input ListOrdersInput) (*OrderList, error) {
	if err := requireIdentity(input.Actor); err != nil {
		return nil, err
	}
	filters := OrderFilters{Status: input.Status}
	switch input.Actor.Role {
	case enums.ActorRoleAdmin:
	case enums.ActorRoleBuyer:
		buyerID := input.Actor.UserID
		filters.BuyerID = &buyerID
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only buyers and admins can list orders")
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status")
	}

	page, err := parsePage(input.Limit, input.Cursor)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListOrders(ctx, filters, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	rows, next := pagination.Trim(rows, input.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})

	out := &OrderList{Orders: make([]OrderDTO, 0, len(rows)), NextCursor: next}
	for _, row := range rows {
		out.Orders = append(out.Orders, orderToDTO(row))
	}
	return out, nil
}

func (s *service) GetOrder(ctx context.Context, actor Actor, orderID uuid.UUID) (*OrderDTO, error) {
	if err := requireIdentity(actor); err != nil {
		return nil, err
	}
	order, err := s.repo.FindOrderWithItems(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "order not found", "load order")
	}
	if actor.Role != enums.ActorRoleAdmin && order.BuyerID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another buyer")
	}
	dto := orderToDTO(*order)
	return &dto, nil
}

func (s *service) ListSellerItems(ctx context.Context, input ListItemsInput) (*OrderItemList, error) {
	if err := requireIdentity(input.Actor); err != nil {
		return nil, err
	}
	filters := ItemFilters{Status: input.Status}
	switch input.Actor.Role {
	case enums.ActorRoleAdmin:
	case enums.ActorRoleFarmer:
		farmerID := input.Actor.UserID
		filters.FarmerID = &farmerID
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only farmers and admins can list order items")
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status")
	}

	page, err := parsePage(input.Limit, input.Cursor)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListItems(ctx, filters, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order items")
	}
	rows, next := pagination.Trim(rows, input.Limit, func(i models.OrderItem) pagination.Cursor {
		return pagination.Cursor{CreatedAt: i.CreatedAt, ID: i.ID}
	})

	out := &OrderItemList{Items: make([]OrderItemDTO, 0, len(rows)), NextCursor: next}
	for _, row := range rows {
		out.Items = append(out.Items, itemToDTO(row))
	}
	return out, nil
}

func requireIdentity(actor Actor) error {
	if actor.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	return nil
}

func notFoundOr(err error, notFound, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}

func parsePage(limit int, cursor string) (pagination.Params, error) {
	if _, err := pagination.ParseCursor(cursor); err != nil {
		return pagination.Params{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	return pagination.Params{Limit: limit, Cursor: cursor}, nil
}
