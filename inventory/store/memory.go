// Package store provides in-memory inventory.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/inventory-engine/inventory"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory is an inventory.TxStore held in maps. All access is serialized by a
// single mutex; WithTx holds it for the whole transaction and restores a
// snapshot when fn fails.
type Memory struct {
	mu   sync.Mutex
	data *tables
}

type tables struct {
	seq       map[string]int64
	stock     map[int64]inventory.StockItem
	suppliers map[int64]inventory.Supplier
	purchases map[int64]inventory.Purchase
	usages    map[int64]inventory.Usage
	expenses  map[int64]inventory.Expense
}

func NewMemory() *Memory {
	return &Memory{data: newTables()}
}

func newTables() *tables {
	return &tables{
		seq:       make(map[string]int64),
		stock:     make(map[int64]inventory.StockItem),
		suppliers: make(map[int64]inventory.Supplier),
		purchases: make(map[int64]inventory.Purchase),
		usages:    make(map[int64]inventory.Usage),
		expenses:  make(map[int64]inventory.Expense),
	}
}

func (t *tables) next(table string) int64 {
	t.seq[table]++
	return t.seq[table]
}

func (t *tables) clone() *tables {
	c := newTables()
	for k, v := range t.seq {
		c.seq[k] = v
	}
	for k, v := range t.stock {
		c.stock[k] = v
	}
	for k, v := range t.suppliers {
		c.suppliers[k] = v
	}
	for k, v := range t.purchases {
		c.purchases[k] = copyPurchase(v)
	}
	for k, v := range t.usages {
		c.usages[k] = v
	}
	for k, v := range t.expenses {
		c.expenses[k] = v
	}
	return c
}

func copyPurchase(p inventory.Purchase) inventory.Purchase {
	p.Items = append([]inventory.PurchaseItem(nil), p.Items...)
	return p
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
func (m *Memory) WithTx(_ context.Context, fn func(inventory.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.data.clone()
	if err := fn(m.data); err != nil {
		m.data = snapshot
		return err
	}
	return nil
}

// =============================================================================
// LOCKED ENTRY POINTS
// =============================================================================

func (m *Memory) GetStockItem(ctx context.Context, id int64) (*inventory.StockItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.GetStockItem(ctx, id)
}

func (m *Memory) ListStockItems(ctx context.Context) ([]inventory.StockItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.ListStockItems(ctx)
}

func (m *Memory) CreateStockItem(ctx context.Context, item inventory.StockItem) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.CreateStockItem(ctx, item)
}

func (m *Memory) UpdateStockItem(ctx context.Context, item inventory.StockItem) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.UpdateStockItem(ctx, item)
}

func (m *Memory) SetStockQuantity(ctx context.Context, id int64, quantity decimal.Decimal, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.SetStockQuantity(ctx, id, quantity, expectedVersion)
}

func (m *Memory) DeleteStockItem(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.DeleteStockItem(ctx, id)
}

func (m *Memory) GetSupplier(ctx context.Context, id int64) (*inventory.Supplier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.GetSupplier(ctx, id)
}

func (m *Memory) ListSuppliers(ctx context.Context) ([]inventory.Supplier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.ListSuppliers(ctx)
}

func (m *Memory) CreateSupplier(ctx context.Context, s inventory.Supplier) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.CreateSupplier(ctx, s)
}

func (m *Memory) UpdateSupplier(ctx context.Context, s inventory.Supplier) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.UpdateSupplier(ctx, s)
}

func (m *Memory) DeleteSupplier(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.DeleteSupplier(ctx, id)
}

func (m *Memory) GetPurchase(ctx context.Context, id int64) (*inventory.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.GetPurchase(ctx, id)
}

func (m *Memory) ListPurchases(ctx context.Context) ([]inventory.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.ListPurchases(ctx)
}

func (m *Memory) ListPurchasesBetween(ctx context.Context, start, end time.Time) ([]inventory.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.ListPurchasesBetween(ctx, start, end)
}

func (m *Memory) CreatePurchase(ctx context.Context, p inventory.Purchase) (inventory.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.CreatePurchase(ctx, p)
}

func (m *Memory) DeletePurchase(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.DeletePurchase(ctx, id)
}

func (m *Memory) GetUsage(ctx context.Context, id int64) (*inventory.Usage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.GetUsage(ctx, id)
}

func (m *Memory) ListUsages(ctx context.Context) ([]inventory.Usage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.ListUsages(ctx)
}

func (m *Memory) ListUsagesBetween(ctx context.Context, start, end time.Time) ([]inventory.Usage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.ListUsagesBetween(ctx, start, end)
}

func (m *Memory) CreateUsage(ctx context.Context, u inventory.Usage) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.CreateUsage(ctx, u)
}

func (m *Memory) UpdateUsage(ctx context.Context, u inventory.Usage) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.UpdateUsage(ctx, u)
}

func (m *Memory) DeleteUsage(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.DeleteUsage(ctx, id)
}

func (m *Memory) GetExpense(ctx context.Context, id int64) (*inventory.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.GetExpense(ctx, id)
}

func (m *Memory) ListExpenses(ctx context.Context) ([]inventory.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.ListExpenses(ctx)
}

func (m *Memory) ListExpensesBetween(ctx context.Context, start, end time.Time) ([]inventory.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.ListExpensesBetween(ctx, start, end)
}

func (m *Memory) CreateExpense(ctx context.Context, e inventory.Expense) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.CreateExpense(ctx, e)
}

func (m *Memory) UpdateExpense(ctx context.Context, e inventory.Expense) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.UpdateExpense(ctx, e)
}

func (m *Memory) DeleteExpense(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.DeleteExpense(ctx, id)
}

// =============================================================================
// UNLOCKED TABLE ACCESS (callers hold Memory.mu)
// =============================================================================

func (t *tables) GetStockItem(_ context.Context, id int64) (*inventory.StockItem, error) {
	item, ok := t.stock[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (t *tables) ListStockItems(_ context.Context) ([]inventory.StockItem, error) {
	return sortedValues(t.stock), nil
}

func (t *tables) CreateStockItem(_ context.Context, item inventory.StockItem) (int64, error) {
	item.ID = t.next("stock")
	item.Version = 1
	t.stock[item.ID] = item
	return item.ID, nil
}

func (t *tables) UpdateStockItem(_ context.Context, item inventory.StockItem) (bool, error) {
	current, ok := t.stock[item.ID]
	if !ok {
		return false, nil
	}
	item.Version = current.Version + 1
	t.stock[item.ID] = item
	return true, nil
}

func (t *tables) SetStockQuantity(_ context.Context, id int64, quantity decimal.Decimal, expectedVersion int64) error {
	item, ok := t.stock[id]
	if !ok || item.Version != expectedVersion {
		return inventory.ErrConcurrentModification
	}
	item.Quantity = quantity
	item.Version++
	t.stock[id] = item
	return nil
}

func (t *tables) DeleteStockItem(_ context.Context, id int64) (bool, error) {
	return deleteKey(t.stock, id), nil
}

func (t *tables) GetSupplier(_ context.Context, id int64) (*inventory.Supplier, error) {
	s, ok := t.suppliers[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (t *tables) ListSuppliers(_ context.Context) ([]inventory.Supplier, error) {
	return sortedValues(t.suppliers), nil
}

func (t *tables) CreateSupplier(_ context.Context, s inventory.Supplier) (int64, error) {
	s.ID = t.next("suppliers")
	t.suppliers[s.ID] = s
	return s.ID, nil
}

func (t *tables) UpdateSupplier(_ context.Context, s inventory.Supplier) (bool, error) {
	if _, ok := t.suppliers[s.ID]; !ok {
		return false, nil
	}
	t.suppliers[s.ID] = s
	return true, nil
}

func (t *tables) DeleteSupplier(_ context.Context, id int64) (bool, error) {
	return deleteKey(t.suppliers, id), nil
}

func (t *tables) GetPurchase(_ context.Context, id int64) (*inventory.Purchase, error) {
	p, ok := t.purchases[id]
	if !ok {
		return nil, nil
	}
	p = copyPurchase(p)
	return &p, nil
}

func (t *tables) ListPurchases(_ context.Context) ([]inventory.Purchase, error) {
	result := sortedValues(t.purchases)
	for i := range result {
		result[i] = copyPurchase(result[i])
	}
	return result, nil
}

func (t *tables) ListPurchasesBetween(_ context.Context, start, end time.Time) ([]inventory.Purchase, error) {
	var result []inventory.Purchase
	for _, p := range sortedValues(t.purchases) {
		if inRange(p.Date, start, end) {
			result = append(result, copyPurchase(p))
		}
	}
	return result, nil
}

func (t *tables) CreatePurchase(_ context.Context, p inventory.Purchase) (inventory.Purchase, error) {
	p = copyPurchase(p)
	p.ID = t.next("purchases")
	for i := range p.Items {
		p.Items[i].ID = t.next("purchase_items")
	}
	t.purchases[p.ID] = p
	return copyPurchase(p), nil
}

func (t *tables) DeletePurchase(_ context.Context, id int64) (bool, error) {
	return deleteKey(t.purchases, id), nil
}

func (t *tables) GetUsage(_ context.Context, id int64) (*inventory.Usage, error) {
	u, ok := t.usages[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (t *tables) ListUsages(_ context.Context) ([]inventory.Usage, error) {
	return sortedValues(t.usages), nil
}

func (t *tables) ListUsagesBetween(_ context.Context, start, end time.Time) ([]inventory.Usage, error) {
	var result []inventory.Usage
	for _, u := range sortedValues(t.usages) {
		if inRange(u.Date, start, end) {
			result = append(result, u)
		}
	}
	return result, nil
}

func (t *tables) CreateUsage(_ context.Context, u inventory.Usage) (int64, error) {
	u.ID = t.next("usages")
	t.usages[u.ID] = u
	return u.ID, nil
}

func (t *tables) UpdateUsage(_ context.Context, u inventory.Usage) (bool, error) {
	if _, ok := t.usages[u.ID]; !ok {
		return false, nil
	}
	t.usages[u.ID] = u
	return true, nil
}

func (t *tables) DeleteUsage(_ context.Context, id int64) (bool, error) {
	return deleteKey(t.usages, id), nil
}

func (t *tables) GetExpense(_ context.Context, id int64) (*inventory.Expense, error) {
	e, ok := t.expenses[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (t *tables) ListExpenses(_ context.Context) ([]inventory.Expense, error) {
	return sortedValues(t.expenses), nil
}

func (t *tables) ListExpensesBetween(_ context.Context, start, end time.Time) ([]inventory.Expense, error) {
	var result []inventory.Expense
	for _, e := range sortedValues(t.expenses) {
		if inRange(e.Date, start, end) {
			result = append(result, e)
		}
	}
	return result, nil
}

func (t *tables) CreateExpense(_ context.Context, e inventory.Expense) (int64, error) {
	e.ID = t.next("expenses")
	t.expenses[e.ID] = e
	return e.ID, nil
}

func (t *tables) UpdateExpense(_ context.Context, e inventory.Expense) (bool, error) {
	if _, ok := t.expenses[e.ID]; !ok {
		return false, nil
	}
	t.expenses[e.ID] = e
	return true, nil
}

func (t *tables) DeleteExpense(_ context.Context, id int64) (bool, error) {
	return deleteKey(t.expenses, id), nil
}

// =============================================================================
// HELPERS
// =============================================================================

func inRange(date, start, end time.Time) bool {
	return !date.Before(start) && date.Before(end)
}

func deleteKey[V any](m map[int64]V, id int64) bool {
	if _, ok := m[id]; !ok {
		return false
	}
	delete(m, id)
	return true
}

// sortedValues returns the map's values ordered by key (insertion order, since
// keys come from a sequence).
func sortedValues[V any](m map[int64]V) []V {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	result := make([]V, 0, len(keys))
	for _, k := range keys {
		result = append(result, m[k])
	}
	return result
}
