package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/krishikarobar/marketplace-backend/internal/repo"
	"github.com/krishikarobar/marketplace-backend/pkg/db/models"
	"github.com/krishikarobar/marketplace-backend/pkg/types"
)

// CartRepository defines the persistence surface required by the cart service.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Cart, error)
	CreateIfAbsent(ctx context.Context, cart *models.Cart) error
	FindItem(ctx context.Context, itemID uuid.UUID) (*models.CartItem, error)
	FindItemByRef(ctx context.Context, cartID uuid.UUID, ref types.CatalogRef) (*models.CartItem, error)
	ListItems(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error)
	CreateItem(ctx context.Context, item *models.CartItem) error
	UpdateItem(ctx context.Context, itemID uuid.UUID, updates map[string]any) error
	AddQuantity(ctx context.Context, itemID uuid.UUID, delta, limit int) (int, error)
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	DeleteItemsByRefs(ctx context.Context, cartID uuid.UUID, refs []types.CatalogRef) (int64, error)
}

// ErrQuantityLimit is returned when an increment would pass the limit.
var ErrQuantityLimit = errors.New("cart quantity limit exceeded")

// Repository persists carts and their lines.
type Repository struct {
	repo.Base
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{Base: repo.NewBase(tx)}
}

func (r *Repository) FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	if err := r.DB(ctx).Where("user_id = ?", userID).First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	if err := r.DB(ctx).Where("id = ?", id).First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// CreateIfAbsent inserts the cart unless the user already has one.
func (r *Repository) CreateIfAbsent(ctx context.Context, cart *models.Cart) error {
	return r.DB(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(cart).Error
}

func (r *Repository) FindItem(ctx context.Context, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.DB(ctx).Where("id = ?", itemID).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindItemByRef returns the line for ref in the cart, if any.
func (r *Repository) FindItemByRef(ctx context.Context, cartID uuid.UUID, ref types.CatalogRef) (*models.CartItem, error) {
	var item models.CartItem
	query := r.DB(ctx).Where("cart_id = ?", cartID)
	if ref.IsProduct() {
		query = query.Where("product_id = ?", ref.ID())
	} else {
		query = query.Where("inventory_product_id = ?", ref.ID())
	}
	if err := query.First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// ListItems returns cart lines oldest first.
func (r *Repository) ListItems(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.DB(ctx).
		Where("cart_id = ?", cartID).
		Order("added_at ASC").
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *Repository) CreateItem(ctx context.Context, item *models.CartItem) error {
	return r.DB(ctx).Create(item).Error
}

func (r *Repository) UpdateItem(ctx context.Context, itemID uuid.UUID, updates map[string]any) error {
	res := r.DB(ctx).Model(&models.CartItem{}).Where("id = ?", itemID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AddQuantity raises a line's quantity by delta in one statement, provided
// the result stays within limit, and returns the new quantity.
func (r *Repository) AddQuantity(ctx context.Context, itemID uuid.UUID, delta, limit int) (int, error) {
	res := r.DB(ctx).
		Model(&models.CartItem{}).
		Where("id = ? AND quantity + ? <= ?", itemID, delta, limit).
		Update("quantity", gorm.Expr("quantity + ?", delta))
	if res.Error != nil {
		return 0, res.Error
	}
	var item models.CartItem
	if err := r.DB(ctx).Select("quantity").Where("id = ?", itemID).First(&item).Error; err != nil {
		return 0, err
	}
	if res.RowsAffected == 0 {
		return item.Quantity, ErrQuantityLimit
	}
	return item.Quantity, nil
}

func (r *Repository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	res := r.DB(ctx).Where("id = ?", itemID).Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteItemsByRefs removes every line of the cart that points at one of refs.
func (r *Repository) DeleteItemsByRefs(ctx context.Context, cartID uuid.UUID, refs []types.CatalogRef) (int64, error) {
	var productIDs, inventoryIDs []uuid.UUID
	for _, ref := range refs {
		if ref.IsProduct() {
			productIDs = append(productIDs, ref.ID())
		} else if ref.IsInventory() {
			inventoryIDs = append(inventoryIDs, ref.ID())
		}
	}
	if len(productIDs) == 0 && len(inventoryIDs) == 0 {
		return 0, nil
	}

	query := r.DB(ctx).Where("cart_id = ?", cartID)
	switch {
	case len(productIDs) > 0 && len(inventoryIDs) > 0:
		query = query.Where("(product_id IN ? OR inventory_product_id IN ?)", productIDs, inventoryIDs)
	case len(productIDs) > 0:
		query = query.Where("product_id IN ?", productIDs)
	default:
		query = query.Where("inventory_product_id IN ?", inventoryIDs)
	}
	res := query.Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}
