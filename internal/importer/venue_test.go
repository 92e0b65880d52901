package importer_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/merchdesk/internal/domain"
	"github.com/JonMunkholm/merchdesk/internal/importer"
	"github.com/JonMunkholm/merchdesk/internal/ledger"
	"github.com/JonMunkholm/merchdesk/internal/store/memstore"
)

const venueSalesCSV = `SKU,Name,Type,Sex,Size,Sold,Unit % of Total,Comp,Avg. Price,Gross Rev,% of Total
TS-S,Logo Tee,Shirt,Unisex,S,4,50%,1,$25.00,$100.00,80%
,Tour Poster,Poster,,,2,25%,0,$10.00,$20.00,16%
XX-1,Sold Out Hat,Hat,,,0,0%,0,$0.00,$0.00,0%
,SUBTOTAL,,,,6,,1,,$120.00,
,GRAND TOTAL,,,,6,,1,,$120.00,
`

type tourFixture struct {
	store  *memstore.Store
	tour   domain.Tour
	first  domain.Show
	second domain.Show
}

func day(d int) time.Time { return time.Date(2024, time.May, d, 0, 0, 0, 0, time.UTC) }

func newTourFixture(t *testing.T) tourFixture {
	t.Helper()
	s := seededCatalog(t)
	tour := s.AddTour(domain.Tour{Name: "Spring Run"})
	second := s.AddShow(domain.Show{TourID: tour.ID, Venue: "Crystal Ballroom", Date: day(2)})
	first := s.AddShow(domain.Show{TourID: tour.ID, Venue: "The Fillmore", Date: day(1)})
	return tourFixture{store: s, tour: tour, first: first, second: second}
}

func (f tourFixture) tourKey(sku string) domain.StateKey {
	return domain.StateKey{
		VariantID: f.store.VariantID(sku),
		State:     domain.StateTour,
		TourID:    uuid.NullUUID{UUID: f.tour.ID, Valid: true},
	}
}

func TestVenueSalesImport(t *testing.T) {
	f := newTourFixture(t)
	require.NoError(t, ledger.New(f.store).SetCount(context.Background(), f.tourKey("TS-S"), 10, day(1)))

	res := importer.NewVenueSales(f.store).Import(context.Background(), venueSalesCSV,
		importer.VenueSalesOptions{TourID: f.tour.ID, ShowID: uuid.NullUUID{UUID: f.second.ID, Valid: true}})

	require.True(t, res.Success, "errors: %v", res.Errors)
	assert.Equal(t, f.second.ID.String(), res.ShowID)
	assert.Equal(t, 3, res.SalesCreated)
	assert.Equal(t, 2, res.TransactionsCreated)
	assert.Equal(t, []string{"No SKU for item: Tour Poster"}, res.Warnings)

	sales := f.store.TourSales()
	require.Len(t, sales, 3)

	paid, comp := sales[0], sales[1]
	assert.False(t, paid.IsComp)
	assert.Equal(t, 4, paid.QuantitySold)
	assert.True(t, paid.GrossRevenue.Decimal.Equal(decimal.RequireFromString("100")))
	assert.True(t, paid.UnitPrice.Decimal.Equal(decimal.RequireFromString("25")))
	assert.Equal(t, "80%", paid.SourceData["percent_of_total"])
	assert.Equal(t, day(2), paid.SaleDate)

	assert.True(t, comp.IsComp)
	assert.Equal(t, 1, comp.QuantitySold)
	assert.True(t, comp.GrossRevenue.Valid)
	assert.True(t, comp.GrossRevenue.Decimal.IsZero())
	assert.NotContains(t, comp.SourceData, "percent_of_total")

	assert.False(t, sales[2].VariantID.Valid, "poster has no sku")

	txs := f.store.Transactions()
	require.Len(t, txs, 2)
	assert.Equal(t, domain.TxSale, txs[0].Type)
	assert.Equal(t, -4, txs[0].Quantity)
	assert.Equal(t, "Tour sale", txs[0].Notes)
	assert.Equal(t, domain.TxComp, txs[1].Type)
	assert.Equal(t, -1, txs[1].Quantity)
	assert.Equal(t, "Complementary item", txs[1].Notes)
	for _, tx := range txs {
		assert.Equal(t, domain.StateTour, tx.FromState)
		assert.Equal(t, uuid.NullUUID{UUID: f.second.ID, Valid: true}, tx.ShowID)
		assert.Equal(t, uuid.NullUUID{UUID: f.tour.ID, Valid: true}, tx.TourID)
	}

	assert.Equal(t, 5, f.store.StateQuantity(f.tourKey("TS-S")))
}

func TestVenueSalesDefaultsToEarliestShow(t *testing.T) {
	f := newTourFixture(t)

	res := importer.NewVenueSales(f.store).Import(context.Background(), venueSalesCSV,
		importer.VenueSalesOptions{TourID: f.tour.ID})

	require.True(t, res.Success)
	assert.Equal(t, f.first.ID.String(), res.ShowID)
	assert.Contains(t, res.Warnings, "No show ID provided, using first show of tour: "+f.first.ID.String())
	for _, s := range f.store.TourSales() {
		assert.Equal(t, f.first.ID, s.ShowID)
	}
	// No tour stock row exists, so the decrements create nothing.
	assert.Equal(t, -1, f.store.StateQuantity(f.tourKey("TS-S")))
}

func TestVenueSalesSetupFailures(t *testing.T) {
	t.Run("unknown tour", func(t *testing.T) {
		s := memstore.New()
		missing := uuid.New()
		res := importer.NewVenueSales(s).Import(context.Background(), venueSalesCSV, importer.VenueSalesOptions{TourID: missing})
		assert.False(t, res.Success)
		assert.Equal(t, []string{"Tour not found: " + missing.String()}, res.Errors)
	})

	t.Run("tour without shows", func(t *testing.T) {
		s := memstore.New()
		tour := s.AddTour(domain.Tour{Name: "Empty"})
		res := importer.NewVenueSales(s).Import(context.Background(), venueSalesCSV, importer.VenueSalesOptions{TourID: tour.ID})
		assert.Equal(t, []string{"No show ID provided and no shows found for tour"}, res.Errors)
		assert.Empty(t, s.TourSales())
	})

	t.Run("show from another tour", func(t *testing.T) {
		f := newTourFixture(t)
		other := f.store.AddTour(domain.Tour{Name: "Other"})
		res := importer.NewVenueSales(f.store).Import(context.Background(), venueSalesCSV,
			importer.VenueSalesOptions{TourID: other.ID, ShowID: uuid.NullUUID{UUID: f.first.ID, Valid: true}})
		assert.False(t, res.Success)
		assert.Equal(t, []string{fmt.Sprintf("Show %s belongs to tour %s, not %s", f.first.ID, f.tour.ID, other.ID)}, res.Errors)
		assert.Empty(t, f.store.TourSales())
	})

	t.Run("sale insert failure", func(t *testing.T) {
		f := newTourFixture(t)
		f.store.FailOn("CreateTourSale", errors.New("timeout"))
		res := importer.NewVenueSales(f.store).Import(context.Background(), venueSalesCSV,
			importer.VenueSalesOptions{TourID: f.tour.ID, ShowID: uuid.NullUUID{UUID: f.first.ID, Valid: true}})
		assert.False(t, res.Success)
		assert.Contains(t, res.Errors, "Error importing sales item Logo Tee: create tour sale: timeout")
	})
}

const venueTotalsCSV = `Date,Venue,"City, St",Total Receipts,Total Fees,Net Receipts
05/01/2024,The Fillmore,"San Francisco, CA","$1,200.00",$100.00,"$1,100.00"
05/03/2024,Roseland,"Portland, OR",$950.00,$50.00,$900.00
05/09/2024,Future Hall,"Seattle, WA",$0.00,$0.00,$0.00
n/a,Nowhere,"Boise, ID",$10.00,$1.00,$9.00
Date,Venue,"City, St",Total Receipts,Total Fees,Net Receipts
,Tour Total,,"$2,150.00",$150.00,"$2,000.00"
`

func TestVenueTotalsImport(t *testing.T) {
	f := newTourFixture(t)
	vt := importer.NewVenueTotals(f.store)

	res := vt.Import(context.Background(), venueTotalsCSV, f.tour.ID)
	require.True(t, res.Success, "errors: %v", res.Errors)
	assert.Equal(t, 1, res.ShowsCreated, "the Fillmore show already exists")
	assert.Equal(t, 2, res.TotalsCreated)
	assert.Equal(t, []string{"Invalid date for venue Nowhere: n/a"}, res.Warnings)

	var roseland domain.Show
	for _, sh := range f.store.Shows() {
		if sh.Venue == "Roseland" {
			roseland = sh
		}
	}
	assert.Equal(t, "Portland", roseland.City)
	assert.Equal(t, "OR", roseland.State)
	assert.Equal(t, day(3), roseland.Date)

	totals := f.store.VenueNightTotals()
	require.Len(t, totals, 2)
	assert.Equal(t, f.first.ID, totals[0].ShowID)
	assert.True(t, totals[0].TotalReceipts.Equal(decimal.RequireFromString("1200")))
	assert.True(t, totals[0].NetReceipts.Equal(decimal.RequireFromString("1100")))

	again := vt.Import(context.Background(), venueTotalsCSV, f.tour.ID)
	assert.True(t, again.Success)
	assert.Equal(t, 0, again.ShowsCreated)
	assert.Equal(t, 0, again.TotalsCreated)
	assert.Len(t, f.store.VenueNightTotals(), 2)
}

func TestVenueTotalsSpacedCurrency(t *testing.T) {
	f := newTourFixture(t)
	csv := `Date,Venue,"City, St",Total Receipts,Total Fees,Net Receipts
05/01/2024,The Fillmore,"San Francisco, CA","$ 1,200.00",$ 100.00,"$ 1,100.00"
`
	res := importer.NewVenueTotals(f.store).Import(context.Background(), csv, f.tour.ID)
	require.True(t, res.Success, "errors: %v", res.Errors)
	assert.Equal(t, 1, res.TotalsCreated)

	totals := f.store.VenueNightTotals()
	require.Len(t, totals, 1)
	assert.True(t, totals[0].TotalReceipts.Equal(decimal.RequireFromString("1200")))
	assert.True(t, totals[0].TotalFees.Equal(decimal.RequireFromString("100")))
	assert.True(t, totals[0].NetReceipts.Equal(decimal.RequireFromString("1100")))
}

func TestVenueTotalsUnknownTour(t *testing.T) {
	missing := uuid.New()
	res := importer.NewVenueTotals(memstore.New()).Import(context.Background(), venueTotalsCSV, missing)
	assert.Equal(t, []string{"Tour not found: " + missing.String()}, res.Errors)
}

func TestSplitCityState(t *testing.T) {
	tests := []struct{ in, city, state string }{
		{"Portland, OR", "Portland", "OR"},
		{"Washington, D.C., US", "Washington", "D.C., US"},
		{"Reykjavik", "Reykjavik", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		city, state := importer.SplitCityState(tt.in)
		assert.Equal(t, tt.city, city, tt.in)
		assert.Equal(t, tt.state, state, tt.in)
	}
}
