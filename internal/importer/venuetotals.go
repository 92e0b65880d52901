package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/merchdesk/internal/coerce"
	"github.com/JonMunkholm/merchdesk/internal/csvparse"
	"github.com/JonMunkholm/merchdesk/internal/domain"
	"github.com/JonMunkholm/merchdesk/internal/store"
)

// Venue night totals report columns.
const (
	colDate          = "Date"
	colVenue         = "Venue"
	colCityState     = "City, St"
	colTotalReceipts = "Total Receipts"
	colTotalFees     = "Total Fees"
	colNetReceipts   = "Net Receipts"
)

// VenueTotals imports nightly receipt totals for a tour, creating any
// show it has not seen before.
type VenueTotals struct {
	base
}

// NewVenueTotals returns a venue totals importer writing to s.
func NewVenueTotals(s store.Store, opts ...Option) *VenueTotals {
	return &VenueTotals{base: newBase("venue_totals", domain.SourceAtVenue, s, opts)}
}

// Import parses content and imports it for the given tour.
func (vt *VenueTotals) Import(ctx context.Context, content string, tourID uuid.UUID) VenueTotalsResult {
	return vt.ImportRows(ctx, parse(content), tourID)
}

func (vt *VenueTotals) ImportRows(ctx context.Context, rows []csvparse.Row, tourID uuid.UUID) (res VenueTotalsResult) {
	started := time.Now()
	res = VenueTotalsResult{Report: newReport()}
	res.Rows = len(rows)
	defer func() { vt.complete(ctx, &res.Report, started, res.Counts()) }()

	if len(rows) == 0 {
		res.errorf(errNoRows)
		return res
	}

	if _, err := vt.store.GetTour(ctx, tourID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			res.errorf("Tour not found: %s", tourID)
		} else {
			res.errorf("Error loading tour %s: %v", tourID, err)
		}
		return res
	}

	for _, row := range nightRows(rows) {
		if cancelled(ctx, &res.Report) {
			return res
		}
		if err := vt.importNight(ctx, tourID, row, &res); err != nil {
			res.errorf("Error importing venue night %s: %v", row.Get(colVenue), err)
		}
	}
	return res
}

// nightRows drops repeated headers and total rows.
func nightRows(rows []csvparse.Row) []csvparse.Row {
	out := make([]csvparse.Row, 0, len(rows))
	for _, row := range rows {
		date, venue := row.Get(colDate), row.Get(colVenue)
		if date == "" || venue == "" {
			continue
		}
		if strings.Contains(strings.ToLower(venue), "total") || strings.Contains(strings.ToLower(date), "date") {
			continue
		}
		out = append(out, row)
	}
	return out
}

// SplitCityState splits "City, ST" on the first comma.
func SplitCityState(s string) (city, state string) {
	city, state, _ = strings.Cut(s, ",")
	return strings.TrimSpace(city), strings.TrimSpace(state)
}

func (vt *VenueTotals) importNight(ctx context.Context, tourID uuid.UUID, row csvparse.Row, res *VenueTotalsResult) error {
	venue := row.Get(colVenue)
	date, ok := coerce.Date(row.Get(colDate))
	if !ok {
		res.warnf("Invalid date for venue %s: %s", venue, row.Get(colDate))
		return nil
	}
	date = domain.Date(date)

	total := coerce.NumericOrZero(row.Get(colTotalReceipts))
	net := coerce.NumericOrZero(row.Get(colNetReceipts))
	// Zero nights are future or cancelled dates.
	if total.IsZero() && net.IsZero() {
		return nil
	}

	show, err := vt.store.FindShow(ctx, tourID, venue, date)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotFound):
		city, state := SplitCityState(row.Get(colCityState))
		show = domain.Show{TourID: tourID, Venue: venue, City: city, State: state, Date: date}
		if err := vt.store.CreateShow(ctx, &show); err != nil {
			return fmt.Errorf("create show: %w", err)
		}
		res.ShowsCreated++
	default:
		return fmt.Errorf("find show: %w", err)
	}

	exists, err := vt.store.VenueNightTotalExists(ctx, show.ID, date)
	if err != nil {
		return fmt.Errorf("check existing total: %w", err)
	}
	if exists {
		return nil
	}

	err = vt.store.CreateVenueNightTotal(ctx, &domain.VenueNightTotal{
		ShowID:        show.ID,
		TotalReceipts: total,
		TotalFees:     coerce.NumericOrZero(row.Get(colTotalFees)),
		NetReceipts:   net,
		SaleDate:      date,
		Source:        vt.source,
	})
	if err != nil {
		return fmt.Errorf("create venue night total: %w", err)
	}
	res.TotalsCreated++
	return nil
}
