package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/merchdesk/internal/coerce"
	"github.com/JonMunkholm/merchdesk/internal/csvparse"
	"github.com/JonMunkholm/merchdesk/internal/domain"
	"github.com/JonMunkholm/merchdesk/internal/store"
)

// Merch metadata sheet columns.
const (
	colItem           = "Item"
	colCategory       = "Category"
	colSupplier       = "Supplier/Manufacturer"
	colDatePurchased  = "Date Purchased"
	colUnitsPurchased = "Units Purchased"
	colPrintingCost   = "Printing/Manufacturing Cost"
	colPackagingCost  = "Packaging/Shipping Cost"
	colWholesaleCost  = "Wholesale Cost per Unit (no tax)"
	colTaxPaid        = "Tax Paid"
)

// Metadata imports purchasing details kept in the band's merch sheet.
// Each variant has at most one metadata row; a re-import overwrites it.
type Metadata struct {
	base
}

// NewMetadata returns a metadata importer writing to s.
func NewMetadata(s store.Store, opts ...Option) *Metadata {
	return &Metadata{base: newBase("metadata", domain.SourceDirtwire, s, opts)}
}

// Import parses content and imports it.
func (mi *Metadata) Import(ctx context.Context, content string) MetadataResult {
	return mi.ImportRows(ctx, parse(content))
}

func (mi *Metadata) ImportRows(ctx context.Context, rows []csvparse.Row) (res MetadataResult) {
	started := time.Now()
	res = MetadataResult{Report: newReport()}
	res.Rows = len(rows)
	defer func() { mi.complete(ctx, &res.Report, started, res.Counts()) }()

	if len(rows) == 0 {
		res.errorf(errNoRows)
		return res
	}

	for _, row := range rows {
		if cancelled(ctx, &res.Report) {
			return res
		}
		if err := mi.importRow(ctx, row, &res); err != nil {
			res.errorf("Error importing metadata for %s: %v", row.Get(colSKU), err)
		}
	}
	return res
}

func (mi *Metadata) importRow(ctx context.Context, row csvparse.Row, res *MetadataResult) error {
	sku := row.Get(colSKU)
	if sku == "" {
		res.warnf("No SKU for item: %s (line %d)", row.Get(colItem), row.Line)
		return nil
	}

	m := mi.resolve(ctx, &res.Report, sku)
	if !m.Resolved() {
		res.warnf("SKU not found: %s (%s)%s", sku, row.Get(colItem), notFoundSuffix(m))
		return nil
	}

	md := domain.Metadata{
		VariantID:            m.VariantID.UUID,
		Category:             row.Get(colCategory),
		SupplierManufacturer: row.Get(colSupplier),
		PrintingCost:         coerce.NullNumeric(row.Get(colPrintingCost)),
		PackagingCost:        coerce.NullNumeric(row.Get(colPackagingCost)),
		WholesaleCostPerUnit: coerce.NullNumeric(row.Get(colWholesaleCost)),
		TaxPaid:              coerce.NullNumeric(row.Get(colTaxPaid)),
	}
	if d, ok := coerce.Date(row.Get(colDatePurchased)); ok {
		d = domain.Date(d)
		md.DatePurchased = &d
	}
	if n, ok := coerce.Integer(row.Get(colUnitsPurchased)); ok {
		units := int(n)
		md.UnitsPurchased = &units
	}

	existing, err := mi.store.FindMetadata(ctx, md.VariantID)
	switch {
	case err == nil:
		md.ID = existing.ID
		if err := mi.store.UpdateMetadata(ctx, &md); err != nil {
			return fmt.Errorf("update metadata: %w", err)
		}
		res.MetadataUpdated++
	case errors.Is(err, store.ErrNotFound):
		if err := mi.store.CreateMetadata(ctx, &md); err != nil {
			return fmt.Errorf("create metadata: %w", err)
		}
		res.MetadataCreated++
	default:
		return fmt.Errorf("find metadata: %w", err)
	}
	return nil
}
