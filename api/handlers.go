/*
handlers.go - HTTP API handlers for the inventory service

PURPOSE:
  Exposes the inventory domain via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the engine, catalog, supplier
  directory, expense ledger and reporter.

ENDPOINTS:
  Purchases:
    GET    /api/purchases              List purchases with items
    GET    /api/purchases/{id}         Get one purchase
    POST   /api/purchases              Record purchase (stock +quantity)
    DELETE /api/purchases/{id}         Delete purchase (stock unchanged)

  Usages:
    GET    /api/usages                 List usages
    GET    /api/usages/{id}            Get one usage
    POST   /api/usages                 Record usage (stock -quantityUsed)
    PUT    /api/usages/{id}            Update usage (stock -delta), owner only
    DELETE /api/usages/{id}            Delete usage (stock +quantityUsed)

  Stocks:
    GET    /api/stocks                 List stock items
    GET    /api/stocks/low             Items at or below reorder level
    GET    /api/stocks/{id}            Get one stock item
    POST   /api/stocks                 Create stock item
    PUT    /api/stocks/{id}            Administrative overwrite
    DELETE /api/stocks/{id}            Delete stock item

  Suppliers, Expenses:
    Standard CRUD under /api/suppliers and /api/expenses

  Reports:
    GET    /api/reports/monthly?month=YYYY-MM

ERROR HANDLING:
  Every failure is a JSON {message} body:
  - 400: InvalidInput, ReferenceNotFound, InsufficientStock, bad body
  - 401: Missing or invalid token (auth middleware)
  - 403: Role gate, or updating another user's usage
  - 404: Target entity absent
  - 500: Internal errors (logged, message kept generic)

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/warp/inventory-engine/auth"
	"github.com/warp/inventory-engine/inventory"
	"github.com/warp/inventory-engine/logger"
	"go.uber.org/zap"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store inventory.TxStore

	engine    *inventory.Engine
	catalog   *inventory.Catalog
	suppliers *inventory.Directory
	expenses  *inventory.Expenses
	reports   *inventory.Reporter
	logger    *zap.Logger
}

// NewHandler wires the domain services over store.
// A nil base logger disables logging.
func NewHandler(store inventory.TxStore, base *zap.Logger) *Handler {
	return &Handler{
		Store:     store,
		engine:    inventory.NewEngine(store, logger.Named(base, "engine")),
		catalog:   inventory.NewCatalog(store, logger.Named(base, "catalog")),
		suppliers: inventory.NewDirectory(store),
		expenses:  inventory.NewExpenses(store),
		reports:   inventory.NewReporter(store),
		logger:    logger.Named(base, "api"),
	}
}

// =============================================================================
// PURCHASE HANDLERS
// =============================================================================

// ListPurchases returns all purchases with their items.
func (h *Handler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	purchases, err := h.engine.ListPurchases(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dtos := make([]PurchaseDTO, len(purchases))
	for i, p := range purchases {
		dtos[i] = toPurchaseDTO(p)
	}
	h.respond(w, r, http.StatusOK, dtos)
}

func (h *Handler) GetPurchase(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := h.engine.GetPurchase(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, toPurchaseDTO(*p))
}

// CreatePurchase records a purchase and increments stock.
// POST /api/purchases
func (h *Handler) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	var req CreatePurchaseRequest
	if !decode(w, r, &req) {
		return
	}
	in, err := req.toInput()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.engine.RecordPurchase(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, toPurchaseDTO(*p))
}

// DeletePurchase removes a purchase. Stock is not reversed.
// DELETE /api/purchases/{id}
func (h *Handler) DeletePurchase(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.engine.DeletePurchase(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// =============================================================================
// USAGE HANDLERS
// =============================================================================

func (h *Handler) ListUsages(w http.ResponseWriter, r *http.Request) {
	usages, err := h.engine.ListUsages(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dtos := make([]UsageDTO, len(usages))
	for i, u := range usages {
		dtos[i] = toUsageDTO(u)
	}
	h.respond(w, r, http.StatusOK, dtos)
}

func (h *Handler) GetUsage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	u, err := h.engine.GetUsage(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, toUsageDTO(*u))
}

// CreateUsage records a usage for the authenticated caller.
// POST /api/usages
func (h *Handler) CreateUsage(w http.ResponseWriter, r *http.Request) {
	var req UsageRequest
	if !decode(w, r, &req) {
		return
	}
	in, err := req.toInput()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	u, err := h.engine.RecordUsage(r.Context(), in, callerName(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, toUsageDTO(*u))
}

// UpdateUsage applies the quantity delta of an edited usage.
// PUT /api/usages/{id}
func (h *Handler) UpdateUsage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req UsageRequest
	if !decode(w, r, &req) {
		return
	}
	in, err := req.toInput()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	u, err := h.engine.UpdateUsage(r.Context(), id, callerName(r.Context()), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, toUsageDTO(*u))
}

// DeleteUsage removes a usage and restores its quantity.
// DELETE /api/usages/{id}
func (h *Handler) DeleteUsage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.engine.DeleteUsage(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// =============================================================================
// STOCK HANDLERS
// =============================================================================

func (h *Handler) ListStocks(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, stockDTOs(items))
}

// ListLowStock returns items at or below their reorder level.
// GET /api/stocks/low
func (h *Handler) ListLowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.ListLowStock(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, stockDTOs(items))
}

func (h *Handler) GetStock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	item, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, toStockItemDTO(*item))
}

func (h *Handler) CreateStock(w http.ResponseWriter, r *http.Request) {
	var req StockItemRequest
	if !decode(w, r, &req) {
		return
	}
	item, err := h.catalog.Create(r.Context(), req.toInput())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, toStockItemDTO(*item))
}

// UpdateStock overwrites every field, quantity included.
// PUT /api/stocks/{id}
func (h *Handler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req StockItemRequest
	if !decode(w, r, &req) {
		return
	}
	item, err := h.catalog.Update(r.Context(), id, req.toInput())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, toStockItemDTO(*item))
}

func (h *Handler) DeleteStock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.catalog.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func stockDTOs(items []inventory.StockItem) []StockItemDTO {
	dtos := make([]StockItemDTO, len(items))
	for i, item := range items {
		dtos[i] = toStockItemDTO(item)
	}
	return dtos
}

// =============================================================================
// SUPPLIER HANDLERS
// =============================================================================

func (h *Handler) ListSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.suppliers.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dtos := make([]SupplierDTO, len(suppliers))
	for i, s := range suppliers {
		dtos[i] = toSupplierDTO(s)
	}
	h.respond(w, r, http.StatusOK, dtos)
}

func (h *Handler) GetSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s, err := h.suppliers.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, toSupplierDTO(*s))
}

func (h *Handler) CreateSupplier(w http.ResponseWriter, r *http.Request) {
	var req SupplierRequest
	if !decode(w, r, &req) {
		return
	}
	s, err := h.suppliers.Create(r.Context(), req.toInput())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, toSupplierDTO(*s))
}

func (h *Handler) UpdateSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req SupplierRequest
	if !decode(w, r, &req) {
		return
	}
	s, err := h.suppliers.Update(r.Context(), id, req.toInput())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, toSupplierDTO(*s))
}

func (h *Handler) DeleteSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.suppliers.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// =============================================================================
// EXPENSE HANDLERS
// =============================================================================

func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := h.expenses.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dtos := make([]ExpenseDTO, len(expenses))
	for i, e := range expenses {
		dtos[i] = toExpenseDTO(e)
	}
	h.respond(w, r, http.StatusOK, dtos)
}

func (h *Handler) GetExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	e, err := h.expenses.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, toExpenseDTO(*e))
}

func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var req ExpenseRequest
	if !decode(w, r, &req) {
		return
	}
	in, err := req.toInput()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	e, err := h.expenses.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, toExpenseDTO(*e))
}

func (h *Handler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req ExpenseRequest
	if !decode(w, r, &req) {
		return
	}
	in, err := req.toInput()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	e, err := h.expenses.Update(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, toExpenseDTO(*e))
}

func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.expenses.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// =============================================================================
// REPORTS & HEALTH
// =============================================================================

// MonthlyReport aggregates a calendar month.
// GET /api/reports/monthly?month=YYYY-MM
func (h *Handler) MonthlyReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.reports.Monthly(r.Context(), r.URL.Query().Get("month"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, toMonthlyReportDTO(*report))
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Health reports whether the store is reachable.
// GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if p, ok := h.Store.(pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			h.logger.Error("health check failed", zap.Error(err))
			h.respond(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
			return
		}
	}
	h.respond(w, r, http.StatusOK, map[string]string{"status": "healthy"})
}

// =============================================================================
// HELPERS
// =============================================================================

// respond encodes data before the status line goes out, so a body that
// cannot be encoded turns into a logged 500 rather than an empty 200.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		h.fail(w, r, fmt.Errorf("encode response: %w", err))
		return
	}
	writeBody(w, status, body)
}

func writeBody(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, message string) {
	body, _ := json.Marshal(ErrorResponse{Message: message})
	writeBody(w, status, body)
}

// statusFor maps a domain error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, inventory.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, inventory.ErrForbidden):
		return http.StatusForbidden
	case inventory.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as a JSON error. Internal errors are logged and their
// details withheld from the client.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
		writeError(w, status, "Internal server error")
		return
	}
	writeError(w, status, err.Error())
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return id, true
}

func callerName(ctx context.Context) string {
	p, _ := auth.PrincipalFromCtx(ctx)
	return p.Username
}
