package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/krishikarobar/marketplace-backend/internal/repo"
	"github.com/krishikarobar/marketplace-backend/pkg/db/models"
	"github.com/krishikarobar/marketplace-backend/pkg/enums"
	"github.com/krishikarobar/marketplace-backend/pkg/pagination"
)

// ErrItemStatusChanged is returned by conditional item writes when the row no
// longer holds the status the caller read.
var ErrItemStatusChanged = errors.New("order item status changed")

// Repository defines persistence operations for orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateItems(ctx context.Context, items []models.OrderItem) error
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	LockOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindOrderWithItems(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindItem(ctx context.Context, itemID uuid.UUID) (*models.OrderItem, error)
	ListItemStatuses(ctx context.Context, orderID uuid.UUID) ([]enums.OrderStatus, error)
	UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
	UpdateItemFrom(ctx context.Context, itemID uuid.UUID, from enums.OrderStatus, updates map[string]any) error
	UpdateItemsStatus(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus) (int64, error)
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	ListOrders(ctx context.Context, filters OrderFilters, params pagination.Params) ([]models.Order, error)
	ListItems(ctx context.Context, filters ItemFilters, params pagination.Params) ([]models.OrderItem, error)
}

// OrderFilters narrows order listings. A nil BuyerID lists every buyer.
type OrderFilters struct {
	BuyerID *uuid.UUID
	Status  *enums.OrderStatus
}

// ItemFilters narrows seller item listings. A nil FarmerID lists every item.
type ItemFilters struct {
	FarmerID *uuid.UUID
	Status   *enums.OrderStatus
}

type repository struct {
	repo.Base
}

// NewRepository returns an orders repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

// CreateOrder inserts the order row only; items are written with CreateItems.
func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.DB(ctx).Omit("Items").Create(order).Error
}

func (r *repository) CreateItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.DB(ctx).Create(&items).Error
}

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.DB(ctx).Where("id = ?", orderID).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// LockOrder loads the order and holds its row lock until the surrounding
// transaction ends. Writes to any item of the order take this lock first so
// they serialize per order.
func (r *repository) LockOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.DB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindOrderWithItems(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.DB(ctx).
		Preload("Items", itemOrdering).
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindItem(ctx context.Context, itemID uuid.UUID) (*models.OrderItem, error) {
	var item models.OrderItem
	if err := r.DB(ctx).Where("id = ?", itemID).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) ListItemStatuses(ctx context.Context, orderID uuid.UUID) ([]enums.OrderStatus, error) {
	var statuses []enums.OrderStatus
	err := r.DB(ctx).
		Model(&models.OrderItem{}).
		Where("order_id = ?", orderID).
		Pluck("status", &statuses).Error
	if err != nil {
		return nil, err
	}
	return statuses, nil
}

func (r *repository) UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	return updateByID(r.DB(ctx).Model(&models.Order{}), orderID, updates)
}

// UpdateItemFrom applies updates only while the item still has status from.
// A missing row is gorm.ErrRecordNotFound; a row in another status is
// ErrItemStatusChanged.
func (r *repository) UpdateItemFrom(ctx context.Context, itemID uuid.UUID, from enums.OrderStatus, updates map[string]any) error {
	res := r.DB(ctx).
		Model(&models.OrderItem{}).
		Where("id = ? AND status = ?", itemID, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	var n int64
	if err := r.DB(ctx).Model(&models.OrderItem{}).Where("id = ?", itemID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return gorm.ErrRecordNotFound
	}
	return ErrItemStatusChanged
}

// UpdateItemsStatus moves every item of the order currently in status from
// to status to and reports how many rows changed.
func (r *repository) UpdateItemsStatus(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus) (int64, error) {
	res := r.DB(ctx).
		Model(&models.OrderItem{}).
		Where("order_id = ? AND status = ?", orderID, from).
		Update("status", to)
	return res.RowsAffected, res.Error
}

func (r *repository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	res := r.DB(ctx).Where("id = ?", itemID).Delete(&models.OrderItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListOrders returns up to params.Limit+1 orders, newest first, with items.
func (r *repository) ListOrders(ctx context.Context, filters OrderFilters, params pagination.Params) ([]models.Order, error) {
	query := r.DB(ctx).Model(&models.Order{}).Preload("Items", itemOrdering)
	if filters.BuyerID != nil {
		query = query.Where("buyer_id = ?", *filters.BuyerID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	query, err := repo.Paginate(query, "", params)
	if err != nil {
		return nil, err
	}

	var rows []models.Order
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListItems returns up to params.Limit+1 order items, newest first.
func (r *repository) ListItems(ctx context.Context, filters ItemFilters, params pagination.Params) ([]models.OrderItem, error) {
	query := r.DB(ctx).Model(&models.OrderItem{})
	if filters.FarmerID != nil {
		query = query.Where("farmer_id = ?", *filters.FarmerID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	query, err := repo.Paginate(query, "", params)
	if err != nil {
		return nil, err
	}

	var rows []models.OrderItem
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func itemOrdering(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC").Order("id ASC")
}

func updateByID(query *gorm.DB, id uuid.UUID, updates map[string]any) error {
	res := query.Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
