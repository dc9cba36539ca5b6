package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type ExpenseInput struct {
	Category    string
	Amount      decimal.Decimal
	Description string
	Date        *time.Time
}

// Expenses is the expense ledger. It has no effect on stock.
type Expenses struct {
	store ExpenseStore
	now   func() time.Time
}

func NewExpenses(store ExpenseStore) *Expenses {
	return &Expenses{store: store, now: time.Now}
}

func (x *Expenses) Get(ctx context.Context, id int64) (*Expense, error) {
	e, err := x.store.GetExpense(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, &NotFoundError{Kind: "Expense", ID: id}
	}
	return e, nil
}

func (x *Expenses) List(ctx context.Context) ([]Expense, error) {
	return x.store.ListExpenses(ctx)
}

func checkExpense(e Expense) error {
	if err := checkStruct(e); err != nil {
		return err
	}
	return checkPositive("amount", "Amount", e.Amount)
}

// Create records an expense dated today unless a date is given.
func (x *Expenses) Create(ctx context.Context, in ExpenseInput) (*Expense, error) {
	e := Expense{
		Category:    in.Category,
		Amount:      in.Amount,
		Description: in.Description,
		Date:        Day(x.now()),
	}
	if in.Date != nil {
		e.Date = Day(*in.Date)
	}
	if err := checkExpense(e); err != nil {
		return nil, err
	}
	id, err := x.store.CreateExpense(ctx, e)
	if err != nil {
		return nil, err
	}
	e.ID = id
	return &e, nil
}

// Update replaces category, amount and description; the date only when given.
func (x *Expenses) Update(ctx context.Context, id int64, in ExpenseInput) (*Expense, error) {
	e, err := x.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	e.Category = in.Category
	e.Amount = in.Amount
	e.Description = in.Description
	if in.Date != nil {
		e.Date = Day(*in.Date)
	}
	if err := checkExpense(*e); err != nil {
		return nil, err
	}
	found, err := x.store.UpdateExpense(ctx, *e)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &NotFoundError{Kind: "Expense", ID: id}
	}
	return e, nil
}

func (x *Expenses) Delete(ctx context.Context, id int64) error {
	found, err := x.store.DeleteExpense(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return &NotFoundError{Kind: "Expense", ID: id}
	}
	return nil
}
