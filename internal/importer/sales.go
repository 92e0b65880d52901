package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/merchdesk/internal/coerce"
	"github.com/JonMunkholm/merchdesk/internal/csvparse"
	"github.com/JonMunkholm/merchdesk/internal/domain"
	"github.com/JonMunkholm/merchdesk/internal/ledger"
	"github.com/JonMunkholm/merchdesk/internal/store"
)

// Direct sales report columns.
const (
	colOrderNumber = "Order #"
	colOrderDate   = "Order Date"
	colName        = "Name"
	colSKU         = "SKU"
	colQuantity    = "QTY"
	colGrossSales  = "Gross Sales"
	colDiscounts   = "Discounts"
	colNetSales    = "Net sales"
	colCommission  = "Commission"
	colDeduction   = "Deduction"
	colPayout      = "Payout"
)

// Sales imports a direct-to-consumer order report. Each row is one order
// line; resolved lines also reduce warehouse stock.
type Sales struct {
	base
}

// NewSales returns a sales importer writing to s.
func NewSales(s store.Store, opts ...Option) *Sales {
	return &Sales{base: newBase("sales", domain.SourceAmbientInks, s, opts)}
}

// Import parses content and imports it.
func (si *Sales) Import(ctx context.Context, content string) SalesResult {
	return si.ImportRows(ctx, parse(content))
}

func (si *Sales) ImportRows(ctx context.Context, rows []csvparse.Row) (res SalesResult) {
	started := time.Now()
	res = SalesResult{Report: newReport()}
	res.Rows = len(rows)
	defer func() { si.complete(ctx, &res.Report, started, res.Counts()) }()

	if len(rows) == 0 {
		res.errorf(errNoRows)
		return res
	}

	for _, row := range rows {
		if cancelled(ctx, &res.Report) {
			return res
		}
		if err := si.importOrder(ctx, row, &res); err != nil {
			res.errorf("Error importing order %s: %v", row.Get(colOrderNumber), err)
		}
	}
	return res
}

func (si *Sales) importOrder(ctx context.Context, row csvparse.Row, res *SalesResult) error {
	orderNumber, ok := coerce.Integer(row.Get(colOrderNumber))
	if !ok || orderNumber == 0 {
		res.warnf("Order without order number (line %d)", row.Line)
		return nil
	}

	orderDate, ok := coerce.Date(row.Get(colOrderDate))
	if !ok {
		res.warnf("Order %d has invalid date: %s", orderNumber, row.Get(colOrderDate))
		return nil
	}

	sku := row.Get(colSKU)
	var variantID uuid.NullUUID
	if sku != "" {
		m := si.resolve(ctx, &res.Report, sku)
		if m.Resolved() {
			variantID = m.VariantID
		} else {
			res.warnf("SKU not found for order %d: %s%s", orderNumber, sku, notFoundSuffix(m))
		}
	}

	exists, err := si.store.SalesOrderExists(ctx, orderNumber, sku)
	if err != nil {
		return fmt.Errorf("check existing order: %w", err)
	}
	if exists {
		return nil
	}

	qty := coerce.IntOrZero(row.Get(colQuantity))
	order := domain.SalesOrder{
		OrderNumber: orderNumber,
		OrderDate:   orderDate,
		ProductName: row.Get(colName),
		VariantID:   variantID,
		SKU:         sku,
		Quantity:    qty,
		GrossSales:  coerce.NumericOrZero(row.Get(colGrossSales)),
		Discounts:   coerce.NumericOrZero(row.Get(colDiscounts)),
		NetSales:    coerce.NumericOrZero(row.Get(colNetSales)),
		Commission:  coerce.NumericOrZero(row.Get(colCommission)),
		Deduction:   coerce.NumericOrZero(row.Get(colDeduction)),
		Payout:      coerce.NumericOrZero(row.Get(colPayout)),
		Source:      si.source,
	}
	if err := si.store.CreateSalesOrder(ctx, &order); err != nil {
		return fmt.Errorf("create sales order: %w", err)
	}
	res.OrdersCreated++

	if !variantID.Valid || qty == 0 {
		return nil
	}

	_, err = si.ledger.Record(ctx, ledger.Movement{
		VariantID: variantID.UUID,
		Type:      domain.TxSale,
		State:     domain.StateWarehouse,
		Quantity:  -qty,
		Date:      orderDate,
		Source:    si.source,
		Notes:     fmt.Sprintf("Online sale - Order #%d", orderNumber),
	})
	switch {
	case errors.Is(err, ledger.ErrStateNotUpdated):
		res.TransactionsCreated++
		res.warnf("Inventory not updated for order %d: %v", orderNumber, err)
	case err != nil:
		res.warnf("Failed to create transaction for order %d: %v", orderNumber, err)
	default:
		res.TransactionsCreated++
	}
	return nil
}
