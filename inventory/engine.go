/*
engine.go - Reconciliation Engine

PURPOSE:
  Applies Purchase and Usage events to stock quantities. For each event the
  engine validates it against the current stock state, computes the signed
  delta for every affected StockItem, and writes the deltas together with the
  event record in one transaction.

OPERATIONS:
  RecordPurchase   +quantity per item, total recomputed server-side
  DeletePurchase   removes the record, stock is NOT reversed
  RecordUsage      -quantityUsed, rejected when stock is short
  UpdateUsage      -(new - old) on the stock item named by the update
  DeleteUsage      +quantityUsed back onto the stock item, if it still exists

ATOMICITY:
  Every operation runs inside TxStore.WithTx. All validation happens before
  the first write, so a rejected multi-item purchase leaves no increments.

CONCURRENCY:
  Quantity writes go through SetStockQuantity, guarded by the version read in
  the same transaction. A lost race surfaces as ErrConcurrentModification and
  the whole transaction is retried (maxAttempts). Two usages racing on the
  same item therefore cannot both pass the sufficiency check on a stale value.

KNOWN ASYMMETRY:
  Deleting a usage restores stock, deleting a purchase does not. Reports and
  existing data depend on this, so it is kept as-is.

SEE ALSO:
  - store.go: TxStore
  - errors.go: Error taxonomy
*/
package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const maxAttempts = 3

// =============================================================================
// INPUTS
// =============================================================================

// PurchaseItemInput is one requested line of a purchase.
type PurchaseItemInput struct {
	StockItemID int64
	Quantity    decimal.Decimal
	Price       decimal.Decimal
}

// PurchaseInput is a purchase as submitted by a client. There is no total:
// it is always computed from the items.
type PurchaseInput struct {
	SupplierID int64
	Date       *time.Time // today when nil
	Items      []PurchaseItemInput
}

// UsageInput is a usage as submitted by a client. The recording user is not
// part of it; it is passed separately by the caller of the engine.
type UsageInput struct {
	StockItemID  int64
	QuantityUsed decimal.Decimal
	Date         *time.Time // today on create, unchanged on update, when nil
}

// =============================================================================
// ENGINE
// =============================================================================

type Engine struct {
	store  TxStore
	logger *zap.Logger
	now    func() time.Time
}

// NewEngine creates an engine over store. A nil logger disables logging.
func NewEngine(store TxStore, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: store, logger: logger, now: time.Now}
}

// inTx runs fn in a transaction, retrying when a guarded quantity write lost a race.
func (e *Engine) inTx(ctx context.Context, op string, fn func(Store) error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = e.store.WithTx(ctx, fn)
		if !IsRetryable(err) {
			return err
		}
		e.logger.Warn("retrying after concurrent stock update",
			zap.String("op", op), zap.Int("attempt", attempt))
	}
	return err
}

func (e *Engine) today() time.Time {
	return Day(e.now())
}

// =============================================================================
// PURCHASES
// =============================================================================

// RecordPurchase validates a purchase, increments every referenced stock item
// by its line quantity and persists the purchase, all in one transaction.
func (e *Engine) RecordPurchase(ctx context.Context, in PurchaseInput) (*Purchase, error) {
	date := e.today()
	if in.Date != nil {
		date = Day(*in.Date)
	}

	var saved Purchase
	err := e.inTx(ctx, "record_purchase", func(s Store) error {
		supplier, err := s.GetSupplier(ctx, in.SupplierID)
		if err != nil {
			return err
		}
		if in.SupplierID == 0 || supplier == nil {
			return &ReferenceError{Kind: "supplier", ID: in.SupplierID}
		}
		if len(in.Items) == 0 {
			return invalid("items", "At least one item is required")
		}

		// Validate every line before touching stock.
		purchase := Purchase{SupplierID: in.SupplierID, Date: date}
		increments := make(map[int64]decimal.Decimal)
		var order []int64
		for _, line := range in.Items {
			if line.StockItemID == 0 {
				return invalid("stockItemId", "Stock item ID cannot be null")
			}
			item, err := s.GetStockItem(ctx, line.StockItemID)
			if err != nil {
				return err
			}
			if item == nil {
				return &ReferenceError{Kind: "stock item", ID: line.StockItemID}
			}
			if err := checkPositive("quantity", "Item quantity", line.Quantity); err != nil {
				return err
			}
			if err := checkPositive("price", "Item price", line.Price); err != nil {
				return err
			}

			if _, seen := increments[line.StockItemID]; !seen {
				order = append(order, line.StockItemID)
				increments[line.StockItemID] = decimal.Zero
			}
			increments[line.StockItemID] = increments[line.StockItemID].Add(line.Quantity)
			purchase.Items = append(purchase.Items, PurchaseItem{
				StockItemID: line.StockItemID,
				Quantity:    line.Quantity,
				Price:       line.Price,
			})
		}
		purchase.TotalAmount = purchase.ComputeTotal()

		for _, id := range order {
			if err := adjustQuantity(ctx, s, id, increments[id]); err != nil {
				return err
			}
		}

		saved, err = s.CreatePurchase(ctx, purchase)
		return err
	})
	if err != nil {
		e.logger.Debug("purchase rejected", zap.Int64("supplier_id", in.SupplierID), zap.Error(err))
		return nil, err
	}

	e.logger.Info("purchase.recorded",
		zap.Int64("purchase_id", saved.ID),
		zap.Int64("supplier_id", saved.SupplierID),
		zap.Int("items", len(saved.Items)),
		zap.String("total_amount", saved.TotalAmount.String()))
	return &saved, nil
}

// DeletePurchase removes a purchase and its items. Stock increases applied
// when the purchase was recorded stay in place.
func (e *Engine) DeletePurchase(ctx context.Context, id int64) error {
	err := e.inTx(ctx, "delete_purchase", func(s Store) error {
		found, err := s.DeletePurchase(ctx, id)
		if err != nil {
			return err
		}
		if !found {
			return &NotFoundError{Kind: "Purchase", ID: id}
		}
		return nil
	})
	if err != nil {
		return err
	}
	e.logger.Info("purchase.deleted", zap.Int64("purchase_id", id))
	return nil
}

// GetPurchase returns a purchase with its items.
func (e *Engine) GetPurchase(ctx context.Context, id int64) (*Purchase, error) {
	p, err := e.store.GetPurchase(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &NotFoundError{Kind: "Purchase", ID: id}
	}
	return p, nil
}

func (e *Engine) ListPurchases(ctx context.Context) ([]Purchase, error) {
	return e.store.ListPurchases(ctx)
}

// =============================================================================
// USAGES
// =============================================================================

func validateUsageInput(in UsageInput) error {
	if in.StockItemID == 0 {
		return invalid("stockItemId", "Stock item ID cannot be null")
	}
	return checkPositive("quantityUsed", "Quantity used", in.QuantityUsed)
}

// RecordUsage decrements the stock item by quantityUsed and persists the usage.
// caller is attached as the recording user; pass "" for none.
func (e *Engine) RecordUsage(ctx context.Context, in UsageInput, caller string) (*Usage, error) {
	if err := validateUsageInput(in); err != nil {
		return nil, err
	}
	usage := Usage{
		StockItemID:  in.StockItemID,
		QuantityUsed: in.QuantityUsed,
		Date:         e.today(),
		RecordedBy:   caller,
	}
	if in.Date != nil {
		usage.Date = Day(*in.Date)
	}

	err := e.inTx(ctx, "record_usage", func(s Store) error {
		item, err := s.GetStockItem(ctx, in.StockItemID)
		if err != nil {
			return err
		}
		if item == nil {
			return &ReferenceError{Kind: "stock item", ID: in.StockItemID}
		}
		if item.Quantity.LessThan(in.QuantityUsed) {
			return &InsufficientStockError{
				StockItemID: item.ID,
				Available:   item.Quantity,
				Requested:   in.QuantityUsed,
			}
		}
		if err := s.SetStockQuantity(ctx, item.ID, item.Quantity.Sub(in.QuantityUsed), item.Version); err != nil {
			return err
		}
		usage.ID, err = s.CreateUsage(ctx, usage)
		return err
	})
	if err != nil {
		e.logger.Debug("usage rejected", zap.Int64("stock_item_id", in.StockItemID), zap.Error(err))
		return nil, err
	}

	e.logger.Info("usage.recorded",
		zap.Int64("usage_id", usage.ID),
		zap.Int64("stock_item_id", usage.StockItemID),
		zap.String("quantity_used", usage.QuantityUsed.String()),
		zap.String("recorded_by", usage.RecordedBy))
	return &usage, nil
}

// UpdateUsage replaces a usage's stock item, quantity and (optionally) date.
//
// Only the difference delta = new - old is applied, and it is applied to the
// stock item named in the update. When the update also switches stock items,
// the old item is not credited and the new one is only charged the delta.
// That mirrors the behaviour existing data was produced with.
func (e *Engine) UpdateUsage(ctx context.Context, id int64, caller string, in UsageInput) (*Usage, error) {
	var updated Usage
	err := e.inTx(ctx, "update_usage", func(s Store) error {
		existing, err := s.GetUsage(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return &NotFoundError{Kind: "Usage", ID: id}
		}
		if existing.RecordedBy != "" && existing.RecordedBy != caller {
			return &ForbiddenError{Caller: caller, Owner: existing.RecordedBy}
		}
		if err := validateUsageInput(in); err != nil {
			return err
		}

		item, err := s.GetStockItem(ctx, in.StockItemID)
		if err != nil {
			return err
		}
		if item == nil {
			return &ReferenceError{Kind: "stock item", ID: in.StockItemID}
		}

		delta := in.QuantityUsed.Sub(existing.QuantityUsed)
		if delta.IsPositive() && item.Quantity.LessThan(delta) {
			return &InsufficientStockError{
				StockItemID: item.ID,
				Available:   item.Quantity,
				Requested:   delta,
				Additional:  true,
			}
		}
		if !delta.IsZero() {
			if err := s.SetStockQuantity(ctx, item.ID, item.Quantity.Sub(delta), item.Version); err != nil {
				return err
			}
		}

		updated = *existing
		updated.StockItemID = in.StockItemID
		updated.QuantityUsed = in.QuantityUsed
		if in.Date != nil {
			updated.Date = Day(*in.Date)
		}
		found, err := s.UpdateUsage(ctx, updated)
		if err != nil {
			return err
		}
		if !found {
			return &NotFoundError{Kind: "Usage", ID: id}
		}
		return nil
	})
	if err != nil {
		e.logger.Debug("usage update rejected", zap.Int64("usage_id", id), zap.Error(err))
		return nil, err
	}

	e.logger.Info("usage.updated",
		zap.Int64("usage_id", updated.ID),
		zap.Int64("stock_item_id", updated.StockItemID),
		zap.String("quantity_used", updated.QuantityUsed.String()))
	return &updated, nil
}

// DeleteUsage credits the usage's quantity back onto its stock item and
// removes the usage. A stock item that no longer exists is skipped.
func (e *Engine) DeleteUsage(ctx context.Context, id int64) error {
	restored := false
	err := e.inTx(ctx, "delete_usage", func(s Store) error {
		restored = false
		usage, err := s.GetUsage(ctx, id)
		if err != nil {
			return err
		}
		if usage == nil {
			return &NotFoundError{Kind: "Usage", ID: id}
		}

		err = adjustQuantity(ctx, s, usage.StockItemID, usage.QuantityUsed)
		switch {
		case err == nil:
			restored = true
		case errors.Is(err, ErrReferenceNotFound):
			// stock item deleted in the meantime; nothing to credit
		default:
			return err
		}

		_, err = s.DeleteUsage(ctx, id)
		return err
	})
	if err != nil {
		return err
	}
	e.logger.Info("usage.deleted", zap.Int64("usage_id", id), zap.Bool("stock_restored", restored))
	return nil
}

// GetUsage returns a single usage record.
func (e *Engine) GetUsage(ctx context.Context, id int64) (*Usage, error) {
	u, err := e.store.GetUsage(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, &NotFoundError{Kind: "Usage", ID: id}
	}
	return u, nil
}

func (e *Engine) ListUsages(ctx context.Context) ([]Usage, error) {
	return e.store.ListUsages(ctx)
}

// =============================================================================
// HELPERS
// =============================================================================

// adjustQuantity adds delta to a stock item's current quantity through the
// version-guarded write.
func adjustQuantity(ctx context.Context, s Store, id int64, delta decimal.Decimal) error {
	item, err := s.GetStockItem(ctx, id)
	if err != nil {
		return err
	}
	if item == nil {
		return &ReferenceError{Kind: "stock item", ID: id}
	}
	return s.SetStockQuantity(ctx, id, item.Quantity.Add(delta), item.Version)
}
