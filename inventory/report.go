package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// MonthlyReport aggregates one calendar month.
type MonthlyReport struct {
	Month      string
	Purchases  decimal.Decimal // Σ purchase totals
	Expenses   decimal.Decimal // Σ expense amounts
	LowStock   int             // items at or below reorder level, as of now
	UsageCount int
}

// Reporter is read-only.
type Reporter struct {
	store   Store
	catalog *Catalog
}

func NewReporter(store Store) *Reporter {
	return &Reporter{store: store, catalog: NewCatalog(store, nil)}
}

// MonthRange returns [first day of month, first day of next month) for "YYYY-MM".
func MonthRange(month string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}, time.Time{}, invalid("month", "Month must be formatted as YYYY-MM")
	}
	return start, start.AddDate(0, 1, 0), nil
}

func (r *Reporter) Monthly(ctx context.Context, month string) (*MonthlyReport, error) {
	start, end, err := MonthRange(month)
	if err != nil {
		return nil, err
	}

	purchases, err := r.store.ListPurchasesBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}
	expenses, err := r.store.ListExpensesBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}
	usages, err := r.store.ListUsagesBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}
	low, err := r.catalog.ListLowStock(ctx)
	if err != nil {
		return nil, err
	}

	report := &MonthlyReport{
		Month:      month,
		Purchases:  decimal.Zero,
		Expenses:   decimal.Zero,
		LowStock:   len(low),
		UsageCount: len(usages),
	}
	for _, p := range purchases {
		report.Purchases = report.Purchases.Add(p.TotalAmount)
	}
	for _, e := range expenses {
		report.Expenses = report.Expenses.Add(e.Amount)
	}
	return report, nil
}
