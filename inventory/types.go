/*
Package inventory provides the stock tracking domain and its reconciliation engine.

PURPOSE:
  Tracks stock items, suppliers, purchases (inbound stock), usages (outbound
  stock) and expenses. The interesting part is the Engine: it keeps each
  StockItem's on-hand quantity consistent with the Purchase and Usage events
  as they are created, edited and deleted.

KEY CONCEPTS IN THIS FILE (types.go):
  - StockItem: catalog entry with a single running quantity
  - Purchase / PurchaseItem: inbound event, owns its items by value
  - Usage: outbound event, attributed to the caller who recorded it
  - Supplier, Expense: plain records with no effect on quantities

DESIGN PRINCIPLES:
  1. Precision: quantities and money use decimal.Decimal
  2. One-way ownership: a Purchase holds its items; items never point back
  3. Explicit identity: the recording user is passed in, never read from context

SIGN CONVENTION:
  Purchase item quantity  -> +quantity on the stock item
  Usage quantityUsed      -> -quantityUsed on the stock item
  Usage update            -> -(new - old) on the referenced stock item
  Usage delete            -> +quantityUsed (compensation)
  Purchase delete         -> no stock change

SEE ALSO:
  - engine.go: Reconciliation Engine
  - catalog.go: Stock Catalog
  - store.go: Persistence interfaces
*/
package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// STOCK ITEM
// =============================================================================

// StockItem is a catalog entry with its on-hand quantity.
type StockItem struct {
	ID           int64
	Name         string
	Category     string
	Quantity     decimal.Decimal
	UnitPrice    decimal.Decimal
	ReorderLevel decimal.Decimal

	// Version increases on every write and guards quantity updates.
	Version int64
}

// IsLowStock reports whether the quantity has fallen to or below the reorder level.
func (s StockItem) IsLowStock() bool {
	return s.Quantity.LessThanOrEqual(s.ReorderLevel)
}

// =============================================================================
// SUPPLIER
// =============================================================================

type Supplier struct {
	ID            int64
	Name          string `validate:"notblank"`
	Phone         string `validate:"notblank" label:"Phone number"`
	Email         string `validate:"notblank,email"`
	ContactPerson string
	Address       string
}

// =============================================================================
// PURCHASE - inbound stock
// =============================================================================

// PurchaseItem is a line of a Purchase. It carries no reference to its parent.
type PurchaseItem struct {
	ID          int64
	StockItemID int64
	Quantity    decimal.Decimal
	Price       decimal.Decimal
}

// LineTotal is quantity × price.
func (i PurchaseItem) LineTotal() decimal.Decimal {
	return i.Quantity.Mul(i.Price)
}

type Purchase struct {
	ID          int64
	SupplierID  int64
	Date        time.Time
	TotalAmount decimal.Decimal
	Items       []PurchaseItem
}

// ComputeTotal returns Σ(quantity × price) over the items.
func (p Purchase) ComputeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range p.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// =============================================================================
// USAGE - outbound stock
// =============================================================================

type Usage struct {
	ID           int64
	StockItemID  int64
	QuantityUsed decimal.Decimal
	Date         time.Time

	// RecordedBy is the username of the caller who recorded the usage.
	// Empty when recorded anonymously.
	RecordedBy string
}

// =============================================================================
// EXPENSE
// =============================================================================

type Expense struct {
	ID          int64
	Category    string `validate:"notblank"`
	Amount      decimal.Decimal
	Description string
	Date        time.Time
}

// =============================================================================
// DATES
// =============================================================================

// DateLayout is the wire and storage format for event dates.
const DateLayout = "2006-01-02"

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
