package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/krishikarobar/marketplace-backend/pkg/pagination"
)

// Base provides a shared foundation for domain repositories.
type Base struct {
	db *gorm.DB
}

// NewBase constructs a Base repository backed by the provided GORM connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the GORM connection bound to the supplied context (if any).
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Conn exposes the raw handle so callers can open a transaction on it.
func (b Base) Conn() *gorm.DB {
	return b.db
}

// Paginate applies newest-first keyset ordering on (created_at, id) and the
// buffered limit. table qualifies the columns when the query joins.
func Paginate(query *gorm.DB, table string, params pagination.Params) (*gorm.DB, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	createdAt, id := "created_at", "id"
	if table != "" {
		createdAt, id = table+".created_at", table+".id"
	}
	if cursor != nil {
		query = query.Where(
			"("+createdAt+" < ?) OR ("+createdAt+" = ? AND "+id+" < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}
	return query.
		Order(createdAt + " DESC").
		Order(id + " DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)), nil
}
