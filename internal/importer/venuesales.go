package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/merchdesk/internal/coerce"
	"github.com/JonMunkholm/merchdesk/internal/csvparse"
	"github.com/JonMunkholm/merchdesk/internal/domain"
	"github.com/JonMunkholm/merchdesk/internal/ledger"
	"github.com/JonMunkholm/merchdesk/internal/store"
)

// Venue sales report columns.
const (
	colItemName       = "Name"
	colItemType       = "Type"
	colItemSex        = "Sex"
	colItemSize       = "Size"
	colSold           = "Sold"
	colComp           = "Comp"
	colUnitPctOfTotal = "Unit % of Total"
	colAvgPrice       = "Avg. Price"
	colGrossRev       = "Gross Rev"
	colPctOfTotal     = "% of Total"
)

// VenueSalesOptions selects the show a venue sales report belongs to.
// When ShowID is not set the tour's earliest show is used.
type VenueSalesOptions struct {
	TourID uuid.UUID
	ShowID uuid.NullUUID
}

// VenueSales imports a per-item venue sales report for a single show.
// Paid and comped units are recorded separately and both reduce the
// tour's stock.
type VenueSales struct {
	base
}

// NewVenueSales returns a venue sales importer writing to s.
func NewVenueSales(s store.Store, opts ...Option) *VenueSales {
	return &VenueSales{base: newBase("venue_sales", domain.SourceAtVenue, s, opts)}
}

// Import parses content and imports it against the show opts selects.
func (vs *VenueSales) Import(ctx context.Context, content string, opts VenueSalesOptions) VenueSalesResult {
	return vs.ImportRows(ctx, parse(content), opts)
}

func (vs *VenueSales) ImportRows(ctx context.Context, rows []csvparse.Row, opts VenueSalesOptions) (res VenueSalesResult) {
	started := time.Now()
	res = VenueSalesResult{Report: newReport()}
	res.Rows = len(rows)
	defer func() { vs.complete(ctx, &res.Report, started, res.Counts()) }()

	if len(rows) == 0 {
		res.errorf(errNoRows)
		return res
	}

	show, ok := vs.pickShow(ctx, opts, &res)
	if !ok {
		return res
	}
	res.ShowID = show.ID.String()

	for _, row := range itemRows(rows) {
		if cancelled(ctx, &res.Report) {
			return res
		}
		if err := vs.importItem(ctx, show, row, &res); err != nil {
			res.errorf("Error importing sales item %s: %v", row.Get(colItemName), err)
		}
	}
	return res
}

// itemRows drops blank and summary rows.
func itemRows(rows []csvparse.Row) []csvparse.Row {
	out := make([]csvparse.Row, 0, len(rows))
	for _, row := range rows {
		name := row.Get(colItemName)
		if name == "" || strings.Contains(name, "SUBTOTAL") || strings.Contains(name, "TOTAL") {
			continue
		}
		out = append(out, row)
	}
	return out
}

func (vs *VenueSales) pickShow(ctx context.Context, opts VenueSalesOptions, res *VenueSalesResult) (domain.Show, bool) {
	if _, err := vs.store.GetTour(ctx, opts.TourID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			res.errorf("Tour not found: %s", opts.TourID)
		} else {
			res.errorf("Error loading tour %s: %v", opts.TourID, err)
		}
		return domain.Show{}, false
	}

	if opts.ShowID.Valid {
		show, err := vs.store.GetShow(ctx, opts.ShowID.UUID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			res.errorf("Show not found: %s", opts.ShowID.UUID)
			return domain.Show{}, false
		case err != nil:
			res.errorf("Error loading show %s: %v", opts.ShowID.UUID, err)
			return domain.Show{}, false
		case show.TourID != opts.TourID:
			res.errorf("Show %s belongs to tour %s, not %s", show.ID, show.TourID, opts.TourID)
			return domain.Show{}, false
		}
		return show, true
	}

	show, err := vs.store.EarliestShow(ctx, opts.TourID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		res.errorf("No show ID provided and no shows found for tour")
		return domain.Show{}, false
	case err != nil:
		res.errorf("Error loading shows for tour %s: %v", opts.TourID, err)
		return domain.Show{}, false
	}
	res.warnf("No show ID provided, using first show of tour: %s", show.ID)
	return show, true
}

func (vs *VenueSales) importItem(ctx context.Context, show domain.Show, row csvparse.Row, res *VenueSalesResult) error {
	name := row.Get(colItemName)
	sold := coerce.IntOrZero(row.Get(colSold))
	comp := coerce.IntOrZero(row.Get(colComp))
	if sold+comp == 0 {
		return nil
	}

	var variantID uuid.NullUUID
	if sku := row.Get(colSKU); sku == "" {
		res.warnf("No SKU for item: %s", name)
	} else if m := vs.resolve(ctx, &res.Report, sku); m.Resolved() {
		variantID = m.VariantID
	} else {
		res.warnf("SKU not found: %s (%s)%s", sku, name, notFoundSuffix(m))
	}

	avgPrice := coerce.NullNumeric(row.Get(colAvgPrice))

	if sold > 0 {
		sale := domain.TourSale{
			ShowID:       show.ID,
			VariantID:    variantID,
			QuantitySold: sold,
			UnitPrice:    avgPrice,
			GrossRevenue: coerce.NullNumeric(row.Get(colGrossRev)),
			SaleDate:     show.Date,
			Source:       vs.source,
			SourceData: map[string]string{
				"name":                  name,
				"type":                  row.Get(colItemType),
				"size":                  row.Get(colItemSize),
				"sex":                   row.Get(colItemSex),
				"unit_percent_of_total": row.Get(colUnitPctOfTotal),
				"percent_of_total":      row.Get(colPctOfTotal),
			},
		}
		if err := vs.store.CreateTourSale(ctx, &sale); err != nil {
			return fmt.Errorf("create tour sale: %w", err)
		}
		res.SalesCreated++
		vs.reduceTourStock(ctx, show, variantID, sold, false, res)
	}

	if comp > 0 {
		sale := domain.TourSale{
			ShowID:       show.ID,
			VariantID:    variantID,
			QuantitySold: comp,
			IsComp:       true,
			UnitPrice:    avgPrice,
			GrossRevenue: decimal.NewNullDecimal(decimal.Zero),
			SaleDate:     show.Date,
			Source:       vs.source,
			SourceData: map[string]string{
				"name": name,
				"type": row.Get(colItemType),
				"size": row.Get(colItemSize),
				"sex":  row.Get(colItemSex),
			},
		}
		if err := vs.store.CreateTourSale(ctx, &sale); err != nil {
			return fmt.Errorf("create comp sale: %w", err)
		}
		res.SalesCreated++
		vs.reduceTourStock(ctx, show, variantID, comp, true, res)
	}
	return nil
}

func (vs *VenueSales) reduceTourStock(ctx context.Context, show domain.Show, variantID uuid.NullUUID, qty int, isComp bool, res *VenueSalesResult) {
	if !variantID.Valid {
		return
	}

	m := ledger.Movement{
		VariantID: variantID.UUID,
		Type:      domain.TxSale,
		State:     domain.StateTour,
		TourID:    uuid.NullUUID{UUID: show.TourID, Valid: true},
		ShowID:    uuid.NullUUID{UUID: show.ID, Valid: true},
		Quantity:  -qty,
		Date:      show.Date,
		Source:    vs.source,
		Notes:     "Tour sale",
	}
	if isComp {
		m.Type = domain.TxComp
		m.Notes = "Complementary item"
	}

	_, err := vs.ledger.Record(ctx, m)
	switch {
	case errors.Is(err, ledger.ErrStateNotUpdated):
		res.TransactionsCreated++
		res.warnf("Tour inventory not updated for variant %s: %v", variantID.UUID, err)
	case err != nil:
		res.warnf("Failed to create transaction for variant %s: %v", variantID.UUID, err)
	default:
		res.TransactionsCreated++
	}
}
