/*
store.go - Persistence interfaces for the inventory domain

KEY INTERFACES:
  StockStore     stock items, including the guarded quantity write
  SupplierStore  supplier directory
  PurchaseStore  purchases with their items
  UsageStore     usage records
  ExpenseStore   expense records
  Store          all of the above
  TxStore        Store + WithTx for atomic multi-table writes

MISSING ROWS:
  Get* methods return (nil, nil) when the row does not exist.
  Delete* and Update* methods return (false, nil) when nothing matched.

QUANTITY WRITES:
  SetStockQuantity is the only path the engine uses to change a quantity.
  It is conditional on the version the engine read, so a stale read cannot
  overwrite a newer value. UpdateStockItem is the administrative overwrite
  and is kept separate on purpose.

IMPLEMENTATIONS:
  - store/sqlite: SQLite
  - inventory/store: in-memory, for tests
*/
package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type StockStore interface {
	GetStockItem(ctx context.Context, id int64) (*StockItem, error)
	ListStockItems(ctx context.Context) ([]StockItem, error)

	// CreateStockItem inserts the item and returns its assigned ID.
	CreateStockItem(ctx context.Context, item StockItem) (int64, error)

	// UpdateStockItem overwrites every field of an existing item and bumps its version.
	UpdateStockItem(ctx context.Context, item StockItem) (bool, error)

	// SetStockQuantity writes quantity if the stored version still equals
	// expectedVersion, bumping the version. Returns ErrConcurrentModification otherwise.
	SetStockQuantity(ctx context.Context, id int64, quantity decimal.Decimal, expectedVersion int64) error

	DeleteStockItem(ctx context.Context, id int64) (bool, error)
}

type SupplierStore interface {
	GetSupplier(ctx context.Context, id int64) (*Supplier, error)
	ListSuppliers(ctx context.Context) ([]Supplier, error)
	CreateSupplier(ctx context.Context, s Supplier) (int64, error)
	UpdateSupplier(ctx context.Context, s Supplier) (bool, error)
	DeleteSupplier(ctx context.Context, id int64) (bool, error)
}

type PurchaseStore interface {
	GetPurchase(ctx context.Context, id int64) (*Purchase, error)
	ListPurchases(ctx context.Context) ([]Purchase, error)

	// ListPurchasesBetween returns purchases dated in [start, end).
	ListPurchasesBetween(ctx context.Context, start, end time.Time) ([]Purchase, error)

	// CreatePurchase persists the purchase and its items, returning it with
	// the purchase and item IDs assigned.
	CreatePurchase(ctx context.Context, p Purchase) (Purchase, error)

	// DeletePurchase removes the purchase and its items.
	DeletePurchase(ctx context.Context, id int64) (bool, error)
}

type UsageStore interface {
	GetUsage(ctx context.Context, id int64) (*Usage, error)
	ListUsages(ctx context.Context) ([]Usage, error)

	// ListUsagesBetween returns usages dated in [start, end).
	ListUsagesBetween(ctx context.Context, start, end time.Time) ([]Usage, error)

	CreateUsage(ctx context.Context, u Usage) (int64, error)
	UpdateUsage(ctx context.Context, u Usage) (bool, error)
	DeleteUsage(ctx context.Context, id int64) (bool, error)
}

type ExpenseStore interface {
	GetExpense(ctx context.Context, id int64) (*Expense, error)
	ListExpenses(ctx context.Context) ([]Expense, error)

	// ListExpensesBetween returns expenses dated in [start, end).
	ListExpensesBetween(ctx context.Context, start, end time.Time) ([]Expense, error)

	CreateExpense(ctx context.Context, e Expense) (int64, error)
	UpdateExpense(ctx context.Context, e Expense) (bool, error)
	DeleteExpense(ctx context.Context, id int64) (bool, error)
}

// Store is the full persistence surface.
type Store interface {
	StockStore
	SupplierStore
	PurchaseStore
	UsageStore
	ExpenseStore
}

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, transaction is rolled back.
	// If fn returns nil, transaction is committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}
