package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/inventory-engine/inventory"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func date(month time.Month, day int) time.Time {
	return time.Date(2025, month, day, 0, 0, 0, 0, time.UTC)
}

func TestNew_ReopenAppliesNoNewMigrations(t *testing.T) {
	// GIVEN: a file database that has been migrated once
	path := filepath.Join(t.TempDir(), "inventory.db")
	s, err := New(path)
	require.NoError(t, err)
	ctx := context.Background()
	id, err := s.CreateSupplier(ctx, inventory.Supplier{Name: "Acme", Phone: "1", Email: "a@b.example"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// WHEN: reopening it
	s, err = New(path)
	require.NoError(t, err)
	defer s.Close()

	// THEN: the data survives
	got, err := s.GetSupplier(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Acme", got.Name)
}

func TestStore_DecimalsRoundTripExactly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateStockItem(ctx, inventory.StockItem{
		Name:         "Saffron",
		Category:     "Spice",
		Quantity:     decimal.RequireFromString("0.1"),
		UnitPrice:    decimal.RequireFromString("12345.6789"),
		ReorderLevel: decimal.RequireFromString("0.05"),
	})
	require.NoError(t, err)

	item, err := s.GetStockItem(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "0.1", item.Quantity.String())
	assert.Equal(t, "12345.6789", item.UnitPrice.String())
	assert.Equal(t, "0.05", item.ReorderLevel.String())
	assert.Equal(t, int64(1), item.Version)
}

func TestStore_SetStockQuantity_VersionGuard(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id, err := s.CreateStockItem(ctx, inventory.StockItem{Name: "Salt", Category: "Spice"})
	require.NoError(t, err)

	require.NoError(t, s.SetStockQuantity(ctx, id, decimal.NewFromInt(5), 1))
	assert.ErrorIs(t, s.SetStockQuantity(ctx, id, decimal.NewFromInt(6), 1), inventory.ErrConcurrentModification)

	found, err := s.UpdateStockItem(ctx, inventory.StockItem{ID: id, Name: "Salt", Category: "Spice", Quantity: decimal.NewFromInt(9)})
	require.NoError(t, err)
	assert.True(t, found)

	item, err := s.GetStockItem(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(3), item.Version)
}

func TestStore_WithTx_RollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id, err := s.CreateStockItem(ctx, inventory.StockItem{Name: "Salt", Category: "Spice", Quantity: decimal.NewFromInt(10)})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.WithTx(ctx, func(tx inventory.Store) error {
		if err := tx.SetStockQuantity(ctx, id, decimal.NewFromInt(3), 1); err != nil {
			return err
		}
		// Reads inside the transaction see its own writes.
		item, err := tx.GetStockItem(ctx, id)
		if err != nil {
			return err
		}
		assert.True(t, decimal.NewFromInt(3).Equal(item.Quantity))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	item, err := s.GetStockItem(ctx, id)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(10).Equal(item.Quantity))
}

func TestStore_Purchases_ItemsOrderedAndCascadeDeleted(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	saved, err := s.CreatePurchase(ctx, inventory.Purchase{
		SupplierID:  1,
		Date:        date(time.March, 5),
		TotalAmount: decimal.RequireFromString("17"),
		Items: []inventory.PurchaseItem{
			{StockItemID: 3, Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(5)},
			{StockItemID: 1, Quantity: decimal.NewFromInt(2), Price: decimal.NewFromInt(6)},
		},
	})
	require.NoError(t, err)

	got, err := s.GetPurchase(ctx, saved.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, int64(3), got.Items[0].StockItemID)
	assert.Equal(t, int64(1), got.Items[1].StockItemID)
	assert.Equal(t, date(time.March, 5), got.Date)

	found, err := s.DeletePurchase(ctx, saved.ID)
	require.NoError(t, err)
	assert.True(t, found)

	var orphans int
	require.NoError(t, s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM purchase_items").Scan(&orphans))
	assert.Zero(t, orphans)
}

func TestStore_ListPurchasesBetween_HalfOpen(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, dt := range []time.Time{date(time.February, 28), date(time.March, 1), date(time.March, 31), date(time.April, 1)} {
		_, err := s.CreatePurchase(ctx, inventory.Purchase{
			SupplierID:  1,
			Date:        dt,
			TotalAmount: decimal.NewFromInt(1),
			Items:       []inventory.PurchaseItem{{StockItemID: 1, Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(1)}},
		})
		require.NoError(t, err)
	}

	got, err := s.ListPurchasesBetween(ctx, date(time.March, 1), date(time.April, 1))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, date(time.March, 1), got[0].Date)
	assert.Equal(t, date(time.March, 31), got[1].Date)
	for _, p := range got {
		assert.Len(t, p.Items, 1)
	}
}

func TestStore_Usages_RecordedByRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateUsage(ctx, inventory.Usage{
		StockItemID: 1, QuantityUsed: decimal.RequireFromString("2.5"), Date: date(time.June, 1), RecordedBy: "alice",
	})
	require.NoError(t, err)

	u, err := s.GetUsage(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.RecordedBy)
	assert.Equal(t, "2.5", u.QuantityUsed.String())

	u.QuantityUsed = decimal.NewFromInt(4)
	found, err := s.UpdateUsage(ctx, *u)
	require.NoError(t, err)
	assert.True(t, found)

	between, err := s.ListUsagesBetween(ctx, date(time.June, 1), date(time.June, 2))
	require.NoError(t, err)
	require.Len(t, between, 1)
	assert.True(t, decimal.NewFromInt(4).Equal(between[0].QuantityUsed))
}

func TestStore_MissingRows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.GetPurchase(ctx, 1)
	assert.NoError(t, err)
	assert.Nil(t, p)

	e, err := s.GetExpense(ctx, 1)
	assert.NoError(t, err)
	assert.Nil(t, e)

	found, err := s.DeleteUsage(ctx, 1)
	assert.NoError(t, err)
	assert.False(t, found)

	found, err = s.UpdateExpense(ctx, inventory.Expense{ID: 1, Category: "x", Date: date(time.May, 1)})
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestStore_Ping(t *testing.T) {
	assert.NoError(t, newTestStore(t).Ping(context.Background()))
}
