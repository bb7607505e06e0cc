package catalog

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/krishikarobar/marketplace-backend/internal/testdb"
	pkgerrors "github.com/krishikarobar/marketplace-backend/pkg/errors"
	"github.com/krishikarobar/marketplace-backend/pkg/types"
)

func TestLookupProductAndInventory(t *testing.T) {
	client := testdb.Open(t)
	farmerID := uuid.New()
	product := testdb.SeedProduct(t, client, farmerID, testdb.ProductOpts{Name: "Rice", Price: "12.50", Stock: 9, MinOrder: testdb.IntPtr(3)})
	inventory := testdb.SeedInventory(t, client, testdb.ProductOpts{Stock: 4})

	r := NewRepository(client.DB())
	ctx := context.Background()

	entry, err := r.Lookup(ctx, types.ProductRef(product.ID))
	require.NoError(t, err)
	assert.Equal(t, "Rice", entry.Name)
	assert.Equal(t, "12.5", entry.Price.String())
	assert.Equal(t, 9, entry.Stock)
	assert.Equal(t, 3, entry.MinOrder)
	require.NotNil(t, entry.FarmerID)
	assert.Equal(t, farmerID, *entry.FarmerID)

	entry, err = r.Lookup(ctx, types.InventoryRef(inventory.ID))
	require.NoError(t, err)
	assert.Nil(t, entry.FarmerID)
	assert.Equal(t, 1, entry.MinOrder, "missing min order defaults to 1")
}

func TestLookupMissingIsNotFound(t *testing.T) {
	client := testdb.Open(t)
	r := NewRepository(client.DB())

	_, err := r.Lookup(context.Background(), types.ProductRef(uuid.New()))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)

	_, err = r.Lookup(context.Background(), types.CatalogRef{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
}

func TestLookupMany(t *testing.T) {
	client := testdb.Open(t)
	p := testdb.SeedProduct(t, client, uuid.New(), testdb.ProductOpts{Stock: 1})
	i := testdb.SeedInventory(t, client, testdb.ProductOpts{Stock: 1})
	missing := types.ProductRef(uuid.New())

	got, err := NewRepository(client.DB()).LookupMany(context.Background(), []types.CatalogRef{
		types.ProductRef(p.ID), types.InventoryRef(i.ID), missing,
	})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Contains(t, got, types.ProductRef(p.ID))
	assert.Contains(t, got, types.InventoryRef(i.ID))
	assert.NotContains(t, got, missing)
}

func TestDecrementStock(t *testing.T) {
	client := testdb.Open(t)
	p := testdb.SeedProduct(t, client, uuid.New(), testdb.ProductOpts{Stock: 5})
	ref := types.ProductRef(p.ID)
	ctx := context.Background()

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		r := NewRepository(client.DB()).WithTx(tx)
		if _, err := r.LockForUpdate(ctx, ref); err != nil {
			return err
		}
		remaining, err := r.DecrementStock(ctx, ref, 2)
		require.NoError(t, err)
		assert.Equal(t, 3, remaining)
		return nil
	})
	require.NoError(t, err)

	r := NewRepository(client.DB())
	_, err = r.DecrementStock(ctx, ref, 4)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock), "got %v", err)

	entry, err := r.Lookup(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, 3, entry.Stock, "failed decrement must not change stock")

	_, err = r.DecrementStock(ctx, types.InventoryRef(uuid.New()), 1)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)

	_, err = r.DecrementStock(ctx, ref, 0)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
}

func TestDecrementStockConcurrentNeverOversells(t *testing.T) {
	client := testdb.Open(t)
	p := testdb.SeedInventory(t, client, testdb.ProductOpts{Stock: 5})
	ref := types.InventoryRef(p.ID)
	r := NewRepository(client.DB())

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.DecrementStock(context.Background(), ref, 2); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, succeeded)
	entry, err := r.Lookup(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, 1, entry.Stock)
}
