/*
Package sqlite provides a SQLite-backed implementation of inventory.TxStore.

PURPOSE:
  Persists stock items, suppliers, purchases (with their items), usages and
  expenses. The reconciliation engine runs every operation through WithTx, so
  the stock change and the event record commit or roll back together.

KEY TABLES:
  stock_items:    Catalog entries, running quantity and version
  suppliers:      Supplier directory
  purchases:      Inbound events
  purchase_items: Lines of a purchase (ON DELETE CASCADE from purchases)
  usages:         Outbound events with the recording user
  expenses:       Expense ledger

STORAGE FORMAT:
  Quantities and amounts are TEXT holding decimal strings, so values round-trip
  exactly. Dates are TEXT in YYYY-MM-DD form; range queries compare them
  lexically over [start, end).

CONCURRENCY:
  The pool is limited to one connection and transactions begin IMMEDIATE, so
  writers are serialized by SQLite itself. On top of that, quantity writes are
  guarded by the row version (SetStockQuantity). Inside WithTx every query goes
  through the *sql.Tx; touching s.db there would wait on the only connection.

MIGRATION:
  Schema lives in migrations/*.sql, embedded into the binary and applied with
  golang-migrate on New().

USAGE:
  store, err := sqlite.New("./data/inventory.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  engine := inventory.NewEngine(store, logger)

SEE ALSO:
  - inventory/store.go: Interface definitions
  - inventory/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/inventory-engine/inventory"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store implements inventory.TxStore using SQLite.
type Store struct {
	queries
	db *sql.DB
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A second connection to ":memory:" would be a second, empty database.
	db.SetMaxOpenConns(1)

	store := &Store{queries: queries{q: db}, db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate applies the embedded migrations. The migrate instance is not
// closed: that would close s.db as well.
func (s *Store) migrate() error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// =============================================================================
// TRANSACTIONAL STORE (inventory.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store inventory.Store) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{queries: queries{q: sqlTx}}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// CreatePurchase writes the purchase and its items atomically.
func (s *Store) CreatePurchase(ctx context.Context, p inventory.Purchase) (inventory.Purchase, error) {
	var saved inventory.Purchase
	err := s.WithTx(ctx, func(store inventory.Store) error {
		var err error
		saved, err = store.CreatePurchase(ctx, p)
		return err
	})
	return saved, err
}

type txStore struct {
	queries
}

// =============================================================================
// QUERIES - shared by Store and txStore
// =============================================================================

// querier is the subset of *sql.DB and *sql.Tx used by queries.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type queries struct {
	q querier
}

func (q queries) exec(ctx context.Context, b sq.Sqlizer) (sql.Result, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	return q.q.ExecContext(ctx, query, args...)
}

func (q queries) query(ctx context.Context, b sq.Sqlizer) (*sql.Rows, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	return q.q.QueryContext(ctx, query, args...)
}

func (q queries) queryRow(ctx context.Context, b sq.Sqlizer) (*sql.Row, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	return q.q.QueryRowContext(ctx, query, args...), nil
}

func (q queries) insert(ctx context.Context, b sq.InsertBuilder) (int64, error) {
	res, err := q.exec(ctx, b)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// affected runs b and reports whether any row matched.
func (q queries) affected(ctx context.Context, b sq.Sqlizer) (bool, error) {
	res, err := q.exec(ctx, b)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func formatDate(t time.Time) string {
	return t.Format(inventory.DateLayout)
}

func parseDate(s string) (time.Time, error) {
	t, err := inventory.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse stored date %q: %w", s, err)
	}
	return t, nil
}

// dateRange restricts column to [start, end).
func dateRange(column string, start, end time.Time) sq.And {
	return sq.And{
		sq.GtOrEq{column: formatDate(start)},
		sq.Lt{column: formatDate(end)},
	}
}

// =============================================================================
// STOCK ITEMS
// =============================================================================

func selectStock() sq.SelectBuilder {
	return sq.Select("id", "name", "category", "quantity", "unit_price", "reorder_level", "version").
		From("stock_items")
}

func scanStock(row interface{ Scan(...any) error }) (inventory.StockItem, error) {
	var item inventory.StockItem
	err := row.Scan(&item.ID, &item.Name, &item.Category, &item.Quantity,
		&item.UnitPrice, &item.ReorderLevel, &item.Version)
	return item, err
}

func (q queries) GetStockItem(ctx context.Context, id int64) (*inventory.StockItem, error) {
	row, err := q.queryRow(ctx, selectStock().Where(sq.Eq{"id": id}))
	if err != nil {
		return nil, err
	}
	item, err := scanStock(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stock item: %w", err)
	}
	return &item, nil
}

func (q queries) ListStockItems(ctx context.Context) ([]inventory.StockItem, error) {
	rows, err := q.query(ctx, selectStock().OrderBy("id"))
	if err != nil {
		return nil, fmt.Errorf("failed to list stock items: %w", err)
	}
	defer rows.Close()

	items := []inventory.StockItem{}
	for rows.Next() {
		item, err := scanStock(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (q queries) CreateStockItem(ctx context.Context, item inventory.StockItem) (int64, error) {
	id, err := q.insert(ctx, sq.Insert("stock_items").
		Columns("name", "category", "quantity", "unit_price", "reorder_level", "version").
		Values(item.Name, item.Category, item.Quantity, item.UnitPrice, item.ReorderLevel, 1))
	if err != nil {
		return 0, fmt.Errorf("failed to create stock item: %w", err)
	}
	return id, nil
}

func (q queries) UpdateStockItem(ctx context.Context, item inventory.StockItem) (bool, error) {
	found, err := q.affected(ctx, sq.Update("stock_items").
		Set("name", item.Name).
		Set("category", item.Category).
		Set("quantity", item.Quantity).
		Set("unit_price", item.UnitPrice).
		Set("reorder_level", item.ReorderLevel).
		Set("version", sq.Expr("version + 1")).
		Where(sq.Eq{"id": item.ID}))
	if err != nil {
		return false, fmt.Errorf("failed to update stock item: %w", err)
	}
	return found, nil
}

// SetStockQuantity writes quantity only if the row is still at expectedVersion.
func (q queries) SetStockQuantity(ctx context.Context, id int64, quantity decimal.Decimal, expectedVersion int64) error {
	found, err := q.affected(ctx, sq.Update("stock_items").
		Set("quantity", quantity).
		Set("version", sq.Expr("version + 1")).
		Where(sq.Eq{"id": id, "version": expectedVersion}))
	if err != nil {
		return fmt.Errorf("failed to set stock quantity: %w", err)
	}
	if !found {
		return inventory.ErrConcurrentModification
	}
	return nil
}

func (q queries) DeleteStockItem(ctx context.Context, id int64) (bool, error) {
	found, err := q.affected(ctx, sq.Delete("stock_items").Where(sq.Eq{"id": id}))
	if err != nil {
		return false, fmt.Errorf("failed to delete stock item: %w", err)
	}
	return found, nil
}

// =============================================================================
// SUPPLIERS
// =============================================================================

func selectSupplier() sq.SelectBuilder {
	return sq.Select("id", "name", "contact_person", "phone", "email", "address").From("suppliers")
}

func scanSupplier(row interface{ Scan(...any) error }) (inventory.Supplier, error) {
	var s inventory.Supplier
	err := row.Scan(&s.ID, &s.Name, &s.ContactPerson, &s.Phone, &s.Email, &s.Address)
	return s, err
}

func (q queries) GetSupplier(ctx context.Context, id int64) (*inventory.Supplier, error) {
	row, err := q.queryRow(ctx, selectSupplier().Where(sq.Eq{"id": id}))
	if err != nil {
		return nil, err
	}
	s, err := scanSupplier(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get supplier: %w", err)
	}
	return &s, nil
}

func (q queries) ListSuppliers(ctx context.Context) ([]inventory.Supplier, error) {
	rows, err := q.query(ctx, selectSupplier().OrderBy("id"))
	if err != nil {
		return nil, fmt.Errorf("failed to list suppliers: %w", err)
	}
	defer rows.Close()

	suppliers := []inventory.Supplier{}
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, err
		}
		suppliers = append(suppliers, s)
	}
	return suppliers, rows.Err()
}

func (q queries) CreateSupplier(ctx context.Context, s inventory.Supplier) (int64, error) {
	id, err := q.insert(ctx, sq.Insert("suppliers").
		Columns("name", "contact_person", "phone", "email", "address").
		Values(s.Name, s.ContactPerson, s.Phone, s.Email, s.Address))
	if err != nil {
		return 0, fmt.Errorf("failed to create supplier: %w", err)
	}
	return id, nil
}

func (q queries) UpdateSupplier(ctx context.Context, s inventory.Supplier) (bool, error) {
	found, err := q.affected(ctx, sq.Update("suppliers").
		Set("name", s.Name).
		Set("contact_person", s.ContactPerson).
		Set("phone", s.Phone).
		Set("email", s.Email).
		Set("address", s.Address).
		Where(sq.Eq{"id": s.ID}))
	if err != nil {
		return false, fmt.Errorf("failed to update supplier: %w", err)
	}
	return found, nil
}

func (q queries) DeleteSupplier(ctx context.Context, id int64) (bool, error) {
	found, err := q.affected(ctx, sq.Delete("suppliers").Where(sq.Eq{"id": id}))
	if err != nil {
		return false, fmt.Errorf("failed to delete supplier: %w", err)
	}
	return found, nil
}

// =============================================================================
// PURCHASES
// =============================================================================

func selectPurchase() sq.SelectBuilder {
	return sq.Select("id", "supplier_id", "purchase_date", "total_amount").From("purchases")
}

func scanPurchase(row interface{ Scan(...any) error }) (inventory.Purchase, error) {
	var (
		p    inventory.Purchase
		date string
	)
	if err := row.Scan(&p.ID, &p.SupplierID, &date, &p.TotalAmount); err != nil {
		return p, err
	}
	var err error
	p.Date, err = parseDate(date)
	return p, err
}

func (q queries) GetPurchase(ctx context.Context, id int64) (*inventory.Purchase, error) {
	row, err := q.queryRow(ctx, selectPurchase().Where(sq.Eq{"id": id}))
	if err != nil {
		return nil, err
	}
	p, err := scanPurchase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get purchase: %w", err)
	}

	purchases := []inventory.Purchase{p}
	if err := q.attachItems(ctx, purchases); err != nil {
		return nil, err
	}
	return &purchases[0], nil
}

func (q queries) ListPurchases(ctx context.Context) ([]inventory.Purchase, error) {
	return q.listPurchases(ctx, selectPurchase().OrderBy("id"))
}

func (q queries) ListPurchasesBetween(ctx context.Context, start, end time.Time) ([]inventory.Purchase, error) {
	return q.listPurchases(ctx, selectPurchase().
		Where(dateRange("purchase_date", start, end)).
		OrderBy("purchase_date", "id"))
}

func (q queries) listPurchases(ctx context.Context, b sq.SelectBuilder) ([]inventory.Purchase, error) {
	rows, err := q.query(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	purchases := []inventory.Purchase{}
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		purchases = append(purchases, p)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, err
	}

	if err := q.attachItems(ctx, purchases); err != nil {
		return nil, err
	}
	return purchases, nil
}

// attachItems loads the items of every purchase in one query.
func (q queries) attachItems(ctx context.Context, purchases []inventory.Purchase) error {
	if len(purchases) == 0 {
		return nil
	}
	ids := make([]int64, len(purchases))
	index := make(map[int64]int, len(purchases))
	for i, p := range purchases {
		ids[i] = p.ID
		index[p.ID] = i
	}

	rows, err := q.query(ctx, sq.Select("id", "purchase_id", "stock_item_id", "quantity", "price").
		From("purchase_items").
		Where(sq.Eq{"purchase_id": ids}).
		OrderBy("purchase_id", "position"))
	if err != nil {
		return fmt.Errorf("failed to load purchase items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item       inventory.PurchaseItem
			purchaseID int64
		)
		if err := rows.Scan(&item.ID, &purchaseID, &item.StockItemID, &item.Quantity, &item.Price); err != nil {
			return err
		}
		i := index[purchaseID]
		purchases[i].Items = append(purchases[i].Items, item)
	}
	return rows.Err()
}

// CreatePurchase inserts the purchase row and then each item in order. On
// *Store it is wrapped in its own transaction; on txStore it joins the
// caller's.
func (q queries) CreatePurchase(ctx context.Context, p inventory.Purchase) (inventory.Purchase, error) {
	id, err := q.insert(ctx, sq.Insert("purchases").
		Columns("supplier_id", "purchase_date", "total_amount").
		Values(p.SupplierID, formatDate(p.Date), p.TotalAmount))
	if err != nil {
		return inventory.Purchase{}, fmt.Errorf("failed to create purchase: %w", err)
	}

	saved := p
	saved.ID = id
	saved.Items = make([]inventory.PurchaseItem, len(p.Items))
	for i, item := range p.Items {
		itemID, err := q.insert(ctx, sq.Insert("purchase_items").
			Columns("purchase_id", "position", "stock_item_id", "quantity", "price").
			Values(id, i, item.StockItemID, item.Quantity, item.Price))
		if err != nil {
			return inventory.Purchase{}, fmt.Errorf("failed to create purchase item: %w", err)
		}
		item.ID = itemID
		saved.Items[i] = item
	}
	return saved, nil
}

func (q queries) DeletePurchase(ctx context.Context, id int64) (bool, error) {
	found, err := q.affected(ctx, sq.Delete("purchases").Where(sq.Eq{"id": id}))
	if err != nil {
		return false, fmt.Errorf("failed to delete purchase: %w", err)
	}
	return found, nil
}

// =============================================================================
// USAGES
// =============================================================================

func selectUsage() sq.SelectBuilder {
	return sq.Select("id", "stock_item_id", "quantity_used", "usage_date", "recorded_by").From("usages")
}

func scanUsage(row interface{ Scan(...any) error }) (inventory.Usage, error) {
	var (
		u    inventory.Usage
		date string
	)
	if err := row.Scan(&u.ID, &u.StockItemID, &u.QuantityUsed, &date, &u.RecordedBy); err != nil {
		return u, err
	}
	var err error
	u.Date, err = parseDate(date)
	return u, err
}

func (q queries) GetUsage(ctx context.Context, id int64) (*inventory.Usage, error) {
	row, err := q.queryRow(ctx, selectUsage().Where(sq.Eq{"id": id}))
	if err != nil {
		return nil, err
	}
	u, err := scanUsage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get usage: %w", err)
	}
	return &u, nil
}

func (q queries) ListUsages(ctx context.Context) ([]inventory.Usage, error) {
	return q.listUsages(ctx, selectUsage().OrderBy("id"))
}

func (q queries) ListUsagesBetween(ctx context.Context, start, end time.Time) ([]inventory.Usage, error) {
	return q.listUsages(ctx, selectUsage().
		Where(dateRange("usage_date", start, end)).
		OrderBy("usage_date", "id"))
}

func (q queries) listUsages(ctx context.Context, b sq.SelectBuilder) ([]inventory.Usage, error) {
	rows, err := q.query(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("failed to list usages: %w", err)
	}
	defer rows.Close()

	usages := []inventory.Usage{}
	for rows.Next() {
		u, err := scanUsage(rows)
		if err != nil {
			return nil, err
		}
		usages = append(usages, u)
	}
	return usages, rows.Err()
}

func (q queries) CreateUsage(ctx context.Context, u inventory.Usage) (int64, error) {
	id, err := q.insert(ctx, sq.Insert("usages").
		Columns("stock_item_id", "quantity_used", "usage_date", "recorded_by").
		Values(u.StockItemID, u.QuantityUsed, formatDate(u.Date), u.RecordedBy))
	if err != nil {
		return 0, fmt.Errorf("failed to create usage: %w", err)
	}
	return id, nil
}

func (q queries) UpdateUsage(ctx context.Context, u inventory.Usage) (bool, error) {
	found, err := q.affected(ctx, sq.Update("usages").
		Set("stock_item_id", u.StockItemID).
		Set("quantity_used", u.QuantityUsed).
		Set("usage_date", formatDate(u.Date)).
		Set("recorded_by", u.RecordedBy).
		Where(sq.Eq{"id": u.ID}))
	if err != nil {
		return false, fmt.Errorf("failed to update usage: %w", err)
	}
	return found, nil
}

func (q queries) DeleteUsage(ctx context.Context, id int64) (bool, error) {
	found, err := q.affected(ctx, sq.Delete("usages").Where(sq.Eq{"id": id}))
	if err != nil {
		return false, fmt.Errorf("failed to delete usage: %w", err)
	}
	return found, nil
}

// =============================================================================
// EXPENSES
// =============================================================================

func selectExpense() sq.SelectBuilder {
	return sq.Select("id", "category", "amount", "description", "expense_date").From("expenses")
}

func scanExpense(row interface{ Scan(...any) error }) (inventory.Expense, error) {
	var (
		e    inventory.Expense
		date string
	)
	if err := row.Scan(&e.ID, &e.Category, &e.Amount, &e.Description, &date); err != nil {
		return e, err
	}
	var err error
	e.Date, err = parseDate(date)
	return e, err
}

func (q queries) GetExpense(ctx context.Context, id int64) (*inventory.Expense, error) {
	row, err := q.queryRow(ctx, selectExpense().Where(sq.Eq{"id": id}))
	if err != nil {
		return nil, err
	}
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return &e, nil
}

func (q queries) ListExpenses(ctx context.Context) ([]inventory.Expense, error) {
	return q.listExpenses(ctx, selectExpense().OrderBy("id"))
}

func (q queries) ListExpensesBetween(ctx context.Context, start, end time.Time) ([]inventory.Expense, error) {
	return q.listExpenses(ctx, selectExpense().
		Where(dateRange("expense_date", start, end)).
		OrderBy("expense_date", "id"))
}

func (q queries) listExpenses(ctx context.Context, b sq.SelectBuilder) ([]inventory.Expense, error) {
	rows, err := q.query(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	expenses := []inventory.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (q queries) CreateExpense(ctx context.Context, e inventory.Expense) (int64, error) {
	id, err := q.insert(ctx, sq.Insert("expenses").
		Columns("category", "amount", "description", "expense_date").
		Values(e.Category, e.Amount, e.Description, formatDate(e.Date)))
	if err != nil {
		return 0, fmt.Errorf("failed to create expense: %w", err)
	}
	return id, nil
}

func (q queries) UpdateExpense(ctx context.Context, e inventory.Expense) (bool, error) {
	found, err := q.affected(ctx, sq.Update("expenses").
		Set("category", e.Category).
		Set("amount", e.Amount).
		Set("description", e.Description).
		Set("expense_date", formatDate(e.Date)).
		Where(sq.Eq{"id": e.ID}))
	if err != nil {
		return false, fmt.Errorf("failed to update expense: %w", err)
	}
	return found, nil
}

func (q queries) DeleteExpense(ctx context.Context, id int64) (bool, error) {
	found, err := q.affected(ctx, sq.Delete("expenses").Where(sq.Eq{"id": id}))
	if err != nil {
		return false, fmt.Errorf("failed to delete expense: %w", err)
	}
	return found, nil
}

var (
	_ inventory.TxStore = (*Store)(nil)
	_ inventory.Store   = (*txStore)(nil)
)
