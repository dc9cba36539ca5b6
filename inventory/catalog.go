/*
catalog.go - Stock Catalog

PURPOSE:
  Owns StockItem records: lookup, listing, creation, administrative edits,
  deletion, and the low-stock query used by reporting.

ADMINISTRATIVE OVERWRITE:
  Update replaces every field including quantity. It does not go through the
  reconciliation rules and does not enforce quantity >= 0. It is the escape
  hatch for stock-take corrections. It writes through UpdateStockItem, never
  SetStockQuantity, and bumps the version, so an engine transaction that read
  the old row fails its guarded write and retries against the new value.

DELETION:
  Delete is unconditional. Purchases and usages that reference the item keep
  their stock item ID; DeleteUsage skips compensation for such usages.
*/
package inventory

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StockItemInput carries the editable fields of a stock item. Amounts are
// pointers so that an absent value is distinguishable from zero.
type StockItemInput struct {
	Name         string           `validate:"notblank"`
	Category     string           `validate:"notblank"`
	Quantity     *decimal.Decimal `validate:"required"`
	UnitPrice    *decimal.Decimal `validate:"required" label:"Unit price"`
	ReorderLevel *decimal.Decimal `validate:"required" label:"Reorder level"`
}

// item builds the StockItem described by a checked input.
func (in StockItemInput) item(id int64) StockItem {
	return StockItem{
		ID:           id,
		Name:         in.Name,
		Category:     in.Category,
		Quantity:     *in.Quantity,
		UnitPrice:    *in.UnitPrice,
		ReorderLevel: *in.ReorderLevel,
	}
}

type Catalog struct {
	store  StockStore
	logger *zap.Logger
}

func NewCatalog(store StockStore, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{store: store, logger: logger}
}

func (c *Catalog) Get(ctx context.Context, id int64) (*StockItem, error) {
	item, err := c.store.GetStockItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, &NotFoundError{Kind: "Stock item", ID: id}
	}
	return item, nil
}

func (c *Catalog) List(ctx context.Context) ([]StockItem, error) {
	return c.store.ListStockItems(ctx)
}

// Create validates every field and inserts the item.
func (c *Catalog) Create(ctx context.Context, in StockItemInput) (*StockItem, error) {
	if err := checkStruct(in); err != nil {
		return nil, err
	}
	item := in.item(0)
	if err := checkNonNegative("quantity", "Quantity", item.Quantity); err != nil {
		return nil, err
	}
	if err := checkPositive("unitPrice", "Unit price", item.UnitPrice); err != nil {
		return nil, err
	}
	if err := checkNonNegative("reorderLevel", "Reorder level", item.ReorderLevel); err != nil {
		return nil, err
	}

	id, err := c.store.CreateStockItem(ctx, item)
	if err != nil {
		return nil, err
	}
	item.ID = id
	item.Version = 1
	return &item, nil
}

// Update overwrites an item as an administrative correction. Every field must
// be present, but no range rules are applied.
func (c *Catalog) Update(ctx context.Context, id int64, in StockItemInput) (*StockItem, error) {
	current, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkStruct(in); err != nil {
		return nil, err
	}

	item := in.item(id)
	found, err := c.store.UpdateStockItem(ctx, item)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &NotFoundError{Kind: "Stock item", ID: id}
	}

	if !item.Quantity.Equal(current.Quantity) {
		c.logger.Warn("stock quantity overwritten",
			zap.Int64("stock_item_id", id),
			zap.String("from", current.Quantity.String()),
			zap.String("to", item.Quantity.String()),
			zap.Bool("negative", item.Quantity.IsNegative()))
	}
	item.Version = current.Version + 1
	return &item, nil
}

// Delete removes an item without checking for referencing events.
func (c *Catalog) Delete(ctx context.Context, id int64) error {
	found, err := c.store.DeleteStockItem(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return &NotFoundError{Kind: "Stock item", ID: id}
	}
	return nil
}

// ListLowStock returns items whose quantity is at or below their reorder level.
func (c *Catalog) ListLowStock(ctx context.Context) ([]StockItem, error) {
	items, err := c.store.ListStockItems(ctx)
	if err != nil {
		return nil, err
	}
	low := make([]StockItem, 0, len(items))
	for _, item := range items {
		if item.IsLowStock() {
			low = append(low, item)
		}
	}
	return low, nil
}
