package importer

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/merchdesk/internal/coerce"
	"github.com/JonMunkholm/merchdesk/internal/csvparse"
	"github.com/JonMunkholm/merchdesk/internal/domain"
	"github.com/JonMunkholm/merchdesk/internal/store"
)

// Catalog export columns.
const (
	colProductID      = "_id"
	colHandle         = "Handle"
	colTitle          = "Title"
	colDescription    = "Description"
	colVendor         = "Vendor"
	colType           = "Type"
	colTags           = "Tags"
	colImageSrc       = "Image Src"
	colPublished      = "Published"
	colVariantSKU     = "Variant SKU"
	colVariantWeight  = "Variant Weight"
	colWeightUnit     = "Variant Weight Unit"
	colVariantBarcode = "Variant Barcode"
	colVariantPrice   = "Variant Price"
	colCompareAtPrice = "Variant Compare At Price"
	colCostPerItem    = "Cost Per Item"
	colWarehouseQty   = "Inventory Location: eCommerce Inventory"
	colTourQty        = "Inventory Location: Tour Inventory"
	maxHandleLength   = 100
	minTitleLength    = 3
	maxTitleLength    = 200
)

var optionColumns = [3][2]string{
	{"Option1 Name", "Option1 Value"},
	{"Option2 Name", "Option2 Value"},
	{"Option3 Name", "Option3 Value"},
}

var (
	// Placeholder titles the storefront export emits for hidden or system products.
	garbageTitle = regexp.MustCompile(`(?i)^(Created_\d{4}|MB-Invisible|bis-hidden|music)$`)
	nonAlnumRun  = regexp.MustCompile(`[^a-z0-9]+`)
	validHandle  = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
)

// Catalog imports a storefront product export. Rows sharing a product id
// form one product; each row is a variant.
type Catalog struct {
	base
}

// NewCatalog returns a catalog importer writing to s.
func NewCatalog(s store.Store, opts ...Option) *Catalog {
	return &Catalog{base: newBase("catalog", domain.SourceAmbientInks, s, opts)}
}

// Import parses content and imports it.
func (c *Catalog) Import(ctx context.Context, content string) CatalogResult {
	return c.ImportRows(ctx, parse(content))
}

// ImportRows imports already parsed rows.
func (c *Catalog) ImportRows(ctx context.Context, rows []csvparse.Row) (res CatalogResult) {
	started := time.Now()
	res = CatalogResult{Report: newReport()}
	res.Rows = len(rows)
	defer func() { c.complete(ctx, &res.Report, started, res.Counts()) }()

	if len(rows) == 0 {
		res.errorf(errNoRows)
		return res
	}

	for _, g := range groupByProduct(rows, &res.Report) {
		if cancelled(ctx, &res.Report) {
			return res
		}
		if err := c.importProduct(ctx, g, &res); err != nil {
			res.errorf("Error importing product %s: %v", g.id, err)
		}
	}
	return res
}

type productGroup struct {
	id   string
	rows []csvparse.Row
}

// groupByProduct groups rows by product id in first-seen order. Rows with
// no product id fall back to their handle; rows with neither are skipped.
func groupByProduct(rows []csvparse.Row, r *Report) []*productGroup {
	var groups []*productGroup
	index := make(map[string]*productGroup)

	for _, row := range rows {
		id := row.Get(colProductID)
		if id == "" {
			id = row.Get(colHandle)
		}
		if id == "" {
			r.warnf("Row on line %d has no product id or handle", row.Line)
			continue
		}

		g, ok := index[id]
		if !ok {
			g = &productGroup{id: id}
			index[id] = g
			groups = append(groups, g)
		}
		g.rows = append(g.rows, row)
	}
	return groups
}

// ValidateTitle returns why title cannot name a product, or "" when it can.
func ValidateTitle(title string) string {
	switch {
	case title == "":
		return "missing title"
	case strings.ContainsAny(title, "<>{"):
		return "title contains markup"
	case strings.HasPrefix(title, "--"):
		return "title starts with --"
	case garbageTitle.MatchString(title):
		return "placeholder title"
	}
	if n := len([]rune(title)); n < minTitleLength || n > maxTitleLength {
		return fmt.Sprintf("title length %d outside %d-%d", n, minTitleLength, maxTitleLength)
	}
	return ""
}

// Slugify lowercases s, collapses every run of non-alphanumerics into a
// single hyphen, trims hyphens and caps the result at 100 characters.
func Slugify(s string) string {
	slug := strings.Trim(nonAlnumRun.ReplaceAllString(strings.ToLower(s), "-"), "-")
	if len(slug) > maxHandleLength {
		slug = strings.TrimRight(slug[:maxHandleLength], "-")
	}
	return slug
}

// handleFor keeps a supplied handle when it is already a clean slug and
// otherwise derives one from the title.
func handleFor(handle, title, productID string) string {
	if len(handle) <= maxHandleLength && validHandle.MatchString(handle) {
		return handle
	}
	if slug := Slugify(title); slug != "" {
		return slug
	}
	if slug := Slugify(productID); slug != "" {
		return slug
	}
	return "product"
}

func (c *Catalog) importProduct(ctx context.Context, g *productGroup, res *CatalogResult) error {
	first := g.rows[0]
	title := first.Get(colTitle)
	if reason := ValidateTitle(title); reason != "" {
		res.warnf("Skipping product %s (%q): %s", g.id, title, reason)
		return nil
	}

	product, err := c.store.FindProductBySourceID(ctx, c.source, g.id)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotFound):
		product = domain.Product{
			Source:      c.source,
			SourceID:    g.id,
			Handle:      handleFor(first.Get(colHandle), title, g.id),
			Title:       title,
			Description: first.Get(colDescription),
			Vendor:      first.Get(colVendor),
			Type:        first.Get(colType),
			Tags:        coerce.List(first.Get(colTags), ","),
			ImageURLs:   coerce.List(first.Get(colImageSrc), ","),
			Published:   coerce.Boolean(first.Get(colPublished)),
		}
		if err := c.store.CreateProduct(ctx, &product); err != nil {
			return fmt.Errorf("create product: %w", err)
		}
		res.ProductsCreated++
	default:
		return fmt.Errorf("find product: %w", err)
	}

	for _, row := range g.rows {
		if err := c.importVariant(ctx, product, row, res); err != nil {
			res.warnf("Error importing variant %s: %v", row.Get(colVariantSKU), err)
		}
	}
	return nil
}

// VariantName joins the non-empty option values with " - ", or returns
// "Default" when there are none.
func VariantName(values ...string) string {
	var parts []string
	for _, v := range values {
		if v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return "Default"
	}
	return strings.Join(parts, " - ")
}

func (c *Catalog) importVariant(ctx context.Context, product domain.Product, row csvparse.Row, res *CatalogResult) error {
	sku := row.Get(colVariantSKU)
	if sku == "" {
		res.warnf("Variant without SKU for product %s", product.Title)
		return nil
	}

	variant, err := c.store.FindVariantBySKU(ctx, sku)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotFound):
		variant = domain.Variant{
			ProductID:  product.ID,
			SKU:        sku,
			Weight:     coerce.NullNumeric(row.Get(colVariantWeight)),
			WeightUnit: row.Get(colWeightUnit),
			Barcode:    row.Get(colVariantBarcode),
		}
		values := make([]string, 0, len(optionColumns))
		for i, cols := range optionColumns {
			variant.Options[i] = domain.Option{Name: row.Get(cols[0]), Value: row.Get(cols[1])}
			values = append(values, variant.Options[i].Value)
		}
		variant.Name = VariantName(values...)

		if err := c.store.CreateVariant(ctx, &variant); err != nil {
			return fmt.Errorf("create variant: %w", err)
		}
		res.VariantsCreated++
	default:
		return fmt.Errorf("find variant: %w", err)
	}

	if err := c.tagIdentifier(ctx, variant.ID, sku); err != nil {
		res.warnf("Identifier for %s not saved: %v", sku, err)
	}

	prices := []struct {
		kind   domain.PriceType
		column string
	}{
		{domain.PriceRetail, colVariantPrice},
		{domain.PriceCompareAt, colCompareAtPrice},
		{domain.PriceWholesale, colCostPerItem},
	}
	for _, p := range prices {
		amount, ok := coerce.Numeric(row.Get(p.column))
		if !ok || !amount.IsPositive() {
			continue
		}
		if err := c.setPrice(ctx, variant.ID, p.kind, amount); err != nil {
			res.warnf("%s price for %s not saved: %v", p.kind, sku, err)
		}
	}

	counts := []struct {
		state  domain.InventoryState
		column string
	}{
		{domain.StateWarehouse, colWarehouseQty},
		{domain.StateTour, colTourQty},
	}
	for _, cnt := range counts {
		qty, ok := coerce.Integer(row.Get(cnt.column))
		if !ok || qty == 0 {
			continue
		}
		key := domain.StateKey{VariantID: variant.ID, State: cnt.state}
		if err := c.ledger.SetCount(ctx, key, int(qty), c.now()); err != nil {
			res.warnf("%s inventory for %s not saved: %v", cnt.state, sku, err)
		}
	}
	return nil
}

// tagIdentifier records sku as this source's own identifier for the
// variant, repointing an existing identifier if it names another variant.
func (c *Catalog) tagIdentifier(ctx context.Context, variantID uuid.UUID, sku string) error {
	idType := c.source.IdentifierType()
	existing, err := c.store.FindIdentifier(ctx, idType, sku)
	switch {
	case err == nil:
		if existing.VariantID == variantID {
			return nil
		}
		return c.store.UpdateIdentifierVariant(ctx, existing.ID, variantID)
	case errors.Is(err, store.ErrNotFound):
		return c.store.CreateIdentifier(ctx, &domain.Identifier{
			VariantID: variantID,
			Type:      idType,
			Value:     sku,
			Source:    c.source,
		})
	default:
		return err
	}
}

// setPrice writes the price effective today. A row for the same key is
// updated in place; earlier periods are left open.
func (c *Catalog) setPrice(ctx context.Context, variantID uuid.UUID, kind domain.PriceType, amount decimal.Decimal) error {
	key := domain.PricingKey{
		VariantID:     variantID,
		PriceType:     kind,
		Source:        c.source,
		EffectiveFrom: c.today(),
	}

	existing, err := c.store.FindPricing(ctx, key)
	switch {
	case err == nil:
		if existing.Amount.Equal(amount) {
			return nil
		}
		return c.store.UpdatePricingAmount(ctx, existing.ID, amount)
	case errors.Is(err, store.ErrNotFound):
		return c.store.CreatePricing(ctx, &domain.Pricing{PricingKey: key, Amount: amount})
	default:
		return err
	}
}
