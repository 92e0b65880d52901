package importer_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/merchdesk/internal/domain"
	"github.com/JonMunkholm/merchdesk/internal/importer"
	"github.com/JonMunkholm/merchdesk/internal/store/memstore"
)

const teeCatalog = `_id,Handle,Title,Vendor,Tags,Published,Option1 Name,Option1 Value,Variant SKU,Variant Price,Cost Per Item,Inventory Location: eCommerce Inventory
p1,logo-tee,Logo Tee,Band,"shirts, tour",TRUE,Size,S,TS-S,20.00,8.50,5
p1,logo-tee,Logo Tee,Band,"shirts, tour",TRUE,Size,M,TS-M,22.00,,3
`

func fixedClock(day int) func() time.Time {
	return func() time.Time { return time.Date(2024, time.March, day, 12, 0, 0, 0, time.UTC) }
}

func retailRows(s *memstore.Store, variantID uuid.UUID) []domain.Pricing {
	var out []domain.Pricing
	for _, p := range s.Pricing() {
		if p.VariantID == variantID && p.PriceType == domain.PriceRetail {
			out = append(out, p)
		}
	}
	return out
}

func warehouse(variantID uuid.UUID) domain.StateKey {
	return domain.StateKey{VariantID: variantID, State: domain.StateWarehouse}
}

func TestCatalogImport(t *testing.T) {
	s := memstore.New()
	res := importer.NewCatalog(s, importer.WithClock(fixedClock(1))).Import(context.Background(), teeCatalog)

	require.True(t, res.Success, "errors: %v", res.Errors)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, 2, res.Rows)
	assert.Equal(t, 1, res.ProductsCreated)
	assert.Equal(t, 2, res.VariantsCreated)

	products := s.Products()
	require.Len(t, products, 1)
	p := products[0]
	assert.Equal(t, "logo-tee", p.Handle)
	assert.Equal(t, "Band", p.Vendor)
	assert.Equal(t, []string{"shirts", "tour"}, p.Tags)
	assert.True(t, p.Published)
	assert.Equal(t, domain.SourceAmbientInks, p.Source)

	small, medium := s.VariantID("TS-S"), s.VariantID("TS-M")
	require.NotEqual(t, uuid.Nil, small)
	require.NotEqual(t, uuid.Nil, medium)

	for _, v := range s.Variants() {
		assert.Equal(t, p.ID, v.ProductID)
		assert.Equal(t, domain.Option{Name: "Size", Value: v.Name}, v.Options[0])
	}

	require.Len(t, retailRows(s, small), 1)
	assert.True(t, retailRows(s, small)[0].Amount.Equal(decimal.RequireFromString("20.00")))
	require.Len(t, retailRows(s, medium), 1)
	assert.True(t, retailRows(s, medium)[0].Amount.Equal(decimal.RequireFromString("22.00")))
	assert.Len(t, s.Pricing(), 3, "two retail rows plus one wholesale row")

	assert.Equal(t, 5, s.StateQuantity(warehouse(small)))
	assert.Equal(t, 3, s.StateQuantity(warehouse(medium)))

	ids := s.Identifiers()
	require.Len(t, ids, 2)
	for _, id := range ids {
		assert.Equal(t, "ambient_inks_sku", id.Type)
	}
}

func TestCatalogImportIsIdempotent(t *testing.T) {
	s := memstore.New()
	c := importer.NewCatalog(s, importer.WithClock(fixedClock(1)))

	first := c.Import(context.Background(), teeCatalog)
	require.True(t, first.Success)
	second := c.Import(context.Background(), teeCatalog)
	require.True(t, second.Success)

	assert.Equal(t, 0, second.ProductsCreated)
	assert.Equal(t, 0, second.VariantsCreated)
	assert.Len(t, s.Products(), 1)
	assert.Len(t, s.Variants(), 2)
	assert.Len(t, s.Identifiers(), 2)
	assert.Len(t, s.Pricing(), 3)
	assert.Len(t, s.InventoryStates(), 2)
	assert.Equal(t, 5, s.StateQuantity(warehouse(s.VariantID("TS-S"))))
}

func TestCatalogPriceChangeOnLaterDayAddsPeriod(t *testing.T) {
	s := memstore.New()
	importer.NewCatalog(s, importer.WithClock(fixedClock(1))).Import(context.Background(), teeCatalog)

	repriced := `_id,Title,Variant SKU,Variant Price
p1,Logo Tee,TS-S,24.00
`
	res := importer.NewCatalog(s, importer.WithClock(fixedClock(2))).Import(context.Background(), repriced)
	require.True(t, res.Success)

	// The earlier period stays open; both rows coexist.
	rows := retailRows(s, s.VariantID("TS-S"))
	require.Len(t, rows, 2)
	assert.True(t, rows[0].Amount.Equal(decimal.RequireFromString("20.00")))
	assert.True(t, rows[1].Amount.Equal(decimal.RequireFromString("24.00")))
	assert.Nil(t, rows[0].EffectiveTo)
}

func TestCatalogSameDayPriceChangeUpdatesInPlace(t *testing.T) {
	s := memstore.New()
	c := importer.NewCatalog(s, importer.WithClock(fixedClock(1)))
	c.Import(context.Background(), teeCatalog)

	res := c.Import(context.Background(), "_id,Title,Variant SKU,Variant Price\np1,Logo Tee,TS-S,19.00\n")
	require.True(t, res.Success)

	rows := retailRows(s, s.VariantID("TS-S"))
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Amount.Equal(decimal.RequireFromString("19.00")))
}

func TestCatalogRejectsMalformedTitles(t *testing.T) {
	for _, title := range []string{"<div>bad</div>", "A", "Created_2023", "--draft", "{{title}}"} {
		t.Run(title, func(t *testing.T) {
			s := memstore.New()
			csv := "_id,Title,Variant SKU,Variant Price\np1," + title + ",X-1,10\n"
			res := importer.NewCatalog(s).Import(context.Background(), csv)

			assert.True(t, res.Success)
			assert.Equal(t, 0, res.ProductsCreated)
			assert.Len(t, res.Warnings, 1)
			assert.Empty(t, s.Products())
			assert.Empty(t, s.Variants())
		})
	}
}

func TestCatalogRowHandling(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		res := importer.NewCatalog(memstore.New()).Import(context.Background(), "")
		assert.False(t, res.Success)
		assert.Equal(t, []string{"No data found in CSV file"}, res.Errors)
	})

	t.Run("variant without sku", func(t *testing.T) {
		s := memstore.New()
		res := importer.NewCatalog(s).Import(context.Background(), "_id,Title,Variant SKU\np1,Logo Tee,\n")
		assert.True(t, res.Success)
		assert.Equal(t, 1, res.ProductsCreated)
		assert.Equal(t, []string{"Variant without SKU for product Logo Tee"}, res.Warnings)
		assert.Empty(t, s.Variants())
	})

	t.Run("handle fallback groups rows", func(t *testing.T) {
		s := memstore.New()
		csv := "Handle,Title,Variant SKU\nmug,Coffee Mug,MUG-1\nmug,Coffee Mug,MUG-2\n"
		res := importer.NewCatalog(s).Import(context.Background(), csv)
		assert.True(t, res.Success)
		assert.Equal(t, 1, res.ProductsCreated)
		assert.Equal(t, 2, res.VariantsCreated)
	})

	t.Run("row without id or handle", func(t *testing.T) {
		s := memstore.New()
		res := importer.NewCatalog(s).Import(context.Background(), "_id,Handle,Title,Variant SKU\n,,Logo Tee,X-1\n")
		assert.True(t, res.Success)
		assert.Len(t, res.Warnings, 1)
		assert.Empty(t, s.Products())
	})

	t.Run("product failure is an error", func(t *testing.T) {
		s := memstore.New()
		s.FailOn("CreateProduct", errors.New("disk full"))
		res := importer.NewCatalog(s).Import(context.Background(), teeCatalog)
		assert.False(t, res.Success)
		assert.Equal(t, []string{"Error importing product p1: create product: disk full"}, res.Errors)
	})

	t.Run("variant failure is a warning", func(t *testing.T) {
		s := memstore.New()
		s.FailOn("CreateVariant", errors.New("disk full"))
		res := importer.NewCatalog(s).Import(context.Background(), teeCatalog)
		assert.True(t, res.Success)
		assert.Equal(t, 1, res.ProductsCreated)
		assert.Len(t, res.Warnings, 2)
		assert.Contains(t, res.Warnings[0], "Error importing variant TS-S")
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		res := importer.NewCatalog(memstore.New()).Import(ctx, teeCatalog)
		assert.False(t, res.Success)
		assert.Equal(t, []string{"Import cancelled: context canceled"}, res.Errors)
	})
}

func TestValidateTitle(t *testing.T) {
	tests := []struct {
		title string
		ok    bool
	}{
		{"Logo Tee", true},
		{"Tee", true},
		{"", false},
		{"A", false},
		{"ab", false},
		{"<b>Tee</b>", false},
		{"{{ product.title }}", false},
		{"-- hidden", false},
		{"MB-Invisible", false},
		{"bis-hidden", false},
		{"Music", false},
		{"Music Box", true},
		{strings.Repeat("x", 201), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ok, importer.ValidateTitle(tt.title) == "", "title %q", tt.title)
	}
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "logo-tee-black", importer.Slugify("  Logo Tee (Black)! "))
	assert.Equal(t, "", importer.Slugify("!!!"))

	long := importer.Slugify(strings.Repeat("ab ", 60))
	assert.LessOrEqual(t, len(long), 100)
	assert.NotEqual(t, '-', rune(long[len(long)-1]))
}

func TestVariantName(t *testing.T) {
	assert.Equal(t, "Default", importer.VariantName("", "", ""))
	assert.Equal(t, "Black - L", importer.VariantName("Black", "", "L"))
}
