/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Field names are
  camelCase; quantities and money are decimal.Decimal end to end and travel
  as bare JSON numbers, so no value is rounded or overflows on the way
  through. Dates are "YYYY-MM-DD" strings.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

SERVER-OWNED FIELDS:
  A purchase request has no totalAmount and a usage request has no user.
  Clients that send them anyway are ignored; the server computes the total
  and attaches the authenticated caller.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/inventory-engine/inventory"
)

// Decimals marshal as JSON numbers ("2.5"), not strings ("\"2.5\"").
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// =============================================================================
// STOCK ITEMS
// =============================================================================

type StockItemDTO struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	ReorderLevel decimal.Decimal `json:"reorderLevel"`
	LowStock     bool            `json:"lowStock"`
}

// StockItemRequest leaves absent amounts nil so they are reported as missing
// instead of defaulting to zero.
type StockItemRequest struct {
	Name         string           `json:"name"`
	Category     string           `json:"category"`
	Quantity     *decimal.Decimal `json:"quantity"`
	UnitPrice    *decimal.Decimal `json:"unitPrice"`
	ReorderLevel *decimal.Decimal `json:"reorderLevel"`
}

func (r StockItemRequest) toInput() inventory.StockItemInput {
	return inventory.StockItemInput{
		Name:         r.Name,
		Category:     r.Category,
		Quantity:     r.Quantity,
		UnitPrice:    r.UnitPrice,
		ReorderLevel: r.ReorderLevel,
	}
}

func toStockItemDTO(item inventory.StockItem) StockItemDTO {
	return StockItemDTO{
		ID:           item.ID,
		Name:         item.Name,
		Category:     item.Category,
		Quantity:     item.Quantity,
		UnitPrice:    item.UnitPrice,
		ReorderLevel: item.ReorderLevel,
		LowStock:     item.IsLowStock(),
	}
}

// =============================================================================
// SUPPLIERS
// =============================================================================

type SupplierDTO struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	ContactPerson string `json:"contactPerson"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Address       string `json:"address"`
}

type SupplierRequest struct {
	Name          string `json:"name"`
	ContactPerson string `json:"contactPerson"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Address       string `json:"address"`
}

func (r SupplierRequest) toInput() inventory.SupplierInput {
	return inventory.SupplierInput{
		Name:          r.Name,
		Phone:         r.Phone,
		Email:         r.Email,
		ContactPerson: r.ContactPerson,
		Address:       r.Address,
	}
}

func toSupplierDTO(s inventory.Supplier) SupplierDTO {
	return SupplierDTO{
		ID:            s.ID,
		Name:          s.Name,
		ContactPerson: s.ContactPerson,
		Phone:         s.Phone,
		Email:         s.Email,
		Address:       s.Address,
	}
}

// =============================================================================
// PURCHASES
// =============================================================================

type PurchaseItemDTO struct {
	ID          int64           `json:"id"`
	StockItemID int64           `json:"stockItemId"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

type PurchaseDTO struct {
	ID          int64             `json:"id"`
	SupplierID  int64             `json:"supplierId"`
	Date        string            `json:"date"`
	TotalAmount decimal.Decimal   `json:"totalAmount"`
	Items       []PurchaseItemDTO `json:"items"`
}

type PurchaseItemRequest struct {
	StockItemID int64           `json:"stockItemId"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

type CreatePurchaseRequest struct {
	SupplierID int64                 `json:"supplierId"`
	Date       string                `json:"date,omitempty"`
	Items      []PurchaseItemRequest `json:"items"`
}

func (r CreatePurchaseRequest) toInput() (inventory.PurchaseInput, error) {
	date, err := parseOptionalDate(r.Date)
	if err != nil {
		return inventory.PurchaseInput{}, err
	}
	in := inventory.PurchaseInput{
		SupplierID: r.SupplierID,
		Date:       date,
		Items:      make([]inventory.PurchaseItemInput, len(r.Items)),
	}
	for i, item := range r.Items {
		in.Items[i] = inventory.PurchaseItemInput{
			StockItemID: item.StockItemID,
			Quantity:    item.Quantity,
			Price:       item.Price,
		}
	}
	return in, nil
}

func toPurchaseDTO(p inventory.Purchase) PurchaseDTO {
	dto := PurchaseDTO{
		ID:          p.ID,
		SupplierID:  p.SupplierID,
		Date:        p.Date.Format(inventory.DateLayout),
		TotalAmount: p.TotalAmount,
		Items:       make([]PurchaseItemDTO, len(p.Items)),
	}
	for i, item := range p.Items {
		dto.Items[i] = PurchaseItemDTO{
			ID:          item.ID,
			StockItemID: item.StockItemID,
			Quantity:    item.Quantity,
			Price:       item.Price,
		}
	}
	return dto
}

// =============================================================================
// USAGES
// =============================================================================

// UserRefDTO identifies the user who recorded a usage.
type UserRefDTO struct {
	Username string `json:"username"`
}

type UsageDTO struct {
	ID           int64       `json:"id"`
	StockItemID  int64       `json:"stockItemId"`
	QuantityUsed decimal.Decimal `json:"quantityUsed"`
	Date         string          `json:"date"`
	User         *UserRefDTO     `json:"user"`
}

type UsageRequest struct {
	StockItemID  int64           `json:"stockItemId"`
	QuantityUsed decimal.Decimal `json:"quantityUsed"`
	Date         string          `json:"date,omitempty"`
}

func (r UsageRequest) toInput() (inventory.UsageInput, error) {
	date, err := parseOptionalDate(r.Date)
	if err != nil {
		return inventory.UsageInput{}, err
	}
	return inventory.UsageInput{
		StockItemID:  r.StockItemID,
		QuantityUsed: r.QuantityUsed,
		Date:         date,
	}, nil
}

func toUsageDTO(u inventory.Usage) UsageDTO {
	dto := UsageDTO{
		ID:           u.ID,
		StockItemID:  u.StockItemID,
		QuantityUsed: u.QuantityUsed,
		Date:         u.Date.Format(inventory.DateLayout),
	}
	if u.RecordedBy != "" {
		dto.User = &UserRefDTO{Username: u.RecordedBy}
	}
	return dto
}

// =============================================================================
// EXPENSES
// =============================================================================

type ExpenseDTO struct {
	ID          int64           `json:"id"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
}

type ExpenseRequest struct {
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Date        string          `json:"date,omitempty"`
}

func (r ExpenseRequest) toInput() (inventory.ExpenseInput, error) {
	date, err := parseOptionalDate(r.Date)
	if err != nil {
		return inventory.ExpenseInput{}, err
	}
	return inventory.ExpenseInput{
		Category:    r.Category,
		Amount:      r.Amount,
		Description: r.Description,
		Date:        date,
	}, nil
}

func toExpenseDTO(e inventory.Expense) ExpenseDTO {
	return ExpenseDTO{
		ID:          e.ID,
		Category:    e.Category,
		Amount:      e.Amount,
		Description: e.Description,
		Date:        e.Date.Format(inventory.DateLayout),
	}
}

// =============================================================================
// REPORTS
// =============================================================================

type MonthlyReportDTO struct {
	Month      string          `json:"month"`
	Purchases  decimal.Decimal `json:"purchases"`
	Expenses   decimal.Decimal `json:"expenses"`
	LowStock   int             `json:"lowStock"`
	UsageCount int             `json:"usageCount"`
}

func toMonthlyReportDTO(r inventory.MonthlyReport) MonthlyReportDTO {
	return MonthlyReportDTO{
		Month:      r.Month,
		Purchases:  r.Purchases,
		Expenses:   r.Expenses,
		LowStock:   r.LowStock,
		UsageCount: r.UsageCount,
	}
}

// =============================================================================
// COMMON
// =============================================================================

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Message string `json:"message"`
}

// errBadDate is reported for a date field that is present but malformed.
var errBadDate = &inventory.ValidationError{Field: "date", Message: "Invalid date format (use YYYY-MM-DD)"}

func parseOptionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := inventory.ParseDate(s)
	if err != nil {
		return nil, errBadDate
	}
	return &t, nil
}
