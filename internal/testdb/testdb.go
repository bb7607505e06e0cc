// Package testdb opens isolated in-memory sqlite databases carrying the
// marketplace schema for repository and service tests.
package testdb

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/krishikarobar/marketplace-backend/pkg/db"
	"github.com/krishikarobar/marketplace-backend/pkg/db/models"
)

var seq atomic.Int64

const schema = `
CREATE TABLE products (
  id TEXT PRIMARY KEY,
  farmer_id TEXT NOT NULL,
  name TEXT NOT NULL,
  category TEXT NOT NULL,
  unit TEXT NOT NULL,
  price TEXT NOT NULL,
  min_order INTEGER,
  stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
  status TEXT NOT NULL DEFAULT 'active',
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE inventory_products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  category TEXT NOT NULL,
  unit TEXT NOT NULL,
  price TEXT NOT NULL,
  min_order INTEGER,
  stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
  status TEXT NOT NULL DEFAULT 'active',
  featured INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE carts (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE cart_items (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
  product_id TEXT,
  inventory_product_id TEXT,
  quantity INTEGER NOT NULL CHECK (quantity >= 1),
  note TEXT,
  added_at DATETIME,
  CHECK ((product_id IS NULL) <> (inventory_product_id IS NULL))
);
CREATE TABLE orders (
  id TEXT PRIMARY KEY,
  buyer_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  total_price TEXT NOT NULL DEFAULT '0',
  shipping_address TEXT,
  note TEXT,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  product_id TEXT,
  inventory_product_id TEXT,
  farmer_id TEXT,
  name TEXT NOT NULL DEFAULT '',
  quantity INTEGER NOT NULL CHECK (quantity >= 1),
  unit_price TEXT NOT NULL,
  total_price TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  note TEXT,
  created_at DATETIME,
  updated_at DATETIME,
  CHECK ((product_id IS NULL) <> (inventory_product_id IS NULL)),
  CHECK ((product_id IS NOT NULL) = (farmer_id IS NOT NULL))
);
CREATE TABLE notifications (
  id TEXT PRIMARY KEY,
  recipient_id TEXT NOT NULL,
  type TEXT NOT NULL,
  text TEXT NOT NULL,
  link TEXT,
  read_at DATETIME,
  created_at DATETIME
);`

// Open returns a client over a fresh database. The pool is pinned to one
// connection, so code under test must not touch the root handle while a
// transaction is open.
func Open(t *testing.T) *db.Client {
	t.Helper()

	name := fmt.Sprintf("testdb_%d", seq.Add(1))
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", name)), db.GormConfig())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("apply schema: %v", err)
		}
	}
	return db.NewWithConn(conn)
}

// ProductOpts customizes SeedProduct.
type ProductOpts struct {
	Name     string
	Price    string
	Stock    int
	MinOrder *int
}

func SeedProduct(t *testing.T, client *db.Client, farmerID uuid.UUID, opts ProductOpts) models.Product {
	t.Helper()
	product := models.Product{
		FarmerID: farmerID,
		Name:     defaultString(opts.Name, "Tomatoes"),
		Category: "vegetables",
		Unit:     "kg",
		Price:    decimal.RequireFromString(defaultString(opts.Price, "10.00")),
		MinOrder: opts.MinOrder,
		Stock:    opts.Stock,
		Status:   "active",
	}
	if err := client.DB().Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func SeedInventory(t *testing.T, client *db.Client, opts ProductOpts) models.InventoryProduct {
	t.Helper()
	item := models.InventoryProduct{
		Name:     defaultString(opts.Name, "Urea 50kg"),
		Category: "fertilizer",
		Unit:     "bag",
		Price:    decimal.RequireFromString(defaultString(opts.Price, "25.00")),
		MinOrder: opts.MinOrder,
		Stock:    opts.Stock,
		Status:   "active",
	}
	if err := client.DB().Create(&item).Error; err != nil {
		t.Fatalf("seed inventory product: %v", err)
	}
	return item
}

// IntPtr is shorthand for optional integer columns.
func IntPtr(v int) *int { return &v }

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
