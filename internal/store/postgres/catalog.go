package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/merchdesk/internal/domain"
)

const productColumns = `id, source, source_product_id, handle, title, description, vendor, type,
	tags, image_urls, published, created_at`

func (s *Store) FindProductBySourceID(ctx context.Context, source domain.Source, sourceID string) (domain.Product, error) {
	var (
		p                  domain.Product
		desc, vendor, kind pgtype.Text
	)
	err := s.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products
		WHERE source = $1 AND source_product_id = $2`, source, sourceID).
		Scan(&p.ID, &p.Source, &p.SourceID, &p.Handle, &p.Title, &desc, &vendor, &kind,
			&p.Tags, &p.ImageURLs, &p.Published, &p.CreatedAt)
	if err != nil {
		return domain.Product{}, notFound(err, "product", sourceID)
	}
	p.Description, p.Vendor, p.Type = fromText(desc), fromText(vendor), fromText(kind)
	return p, nil
}

func (s *Store) CreateProduct(ctx context.Context, p *domain.Product) error {
	p.ID = newID(p.ID)
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.ImageURLs == nil {
		p.ImageURLs = []string{}
	}
	err := s.db.QueryRow(ctx, `INSERT INTO products (id, source, source_product_id, handle, title,
			description, vendor, type, tags, image_urls, published)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at`,
		p.ID, p.Source, p.SourceID, p.Handle, p.Title, text(p.Description), text(p.Vendor), text(p.Type),
		p.Tags, p.ImageURLs, p.Published).Scan(&p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (s *Store) CountProducts(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM products`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

func (s *Store) FindVariantBySKU(ctx context.Context, sku string) (domain.Variant, error) {
	var (
		v       domain.Variant
		opts    [6]pgtype.Text
		unit    pgtype.Text
		barcode pgtype.Text
	)
	err := s.db.QueryRow(ctx, `SELECT id, product_id, sku, variant_name,
			option1_name, option1_value, option2_name, option2_value, option3_name, option3_value,
			weight, weight_unit, barcode, created_at
		FROM product_variants WHERE sku = $1`, sku).
		Scan(&v.ID, &v.ProductID, &v.SKU, &v.Name,
			&opts[0], &opts[1], &opts[2], &opts[3], &opts[4], &opts[5],
			&v.Weight, &unit, &barcode, &v.CreatedAt)
	if err != nil {
		return domain.Variant{}, notFound(err, "variant", sku)
	}
	for i := range v.Options {
		v.Options[i] = domain.Option{Name: fromText(opts[2*i]), Value: fromText(opts[2*i+1])}
	}
	v.WeightUnit, v.Barcode = fromText(unit), fromText(barcode)
	return v, nil
}

func (s *Store) ListVariantRefs(ctx context.Context) ([]domain.VariantRef, error) {
	rows, err := s.db.Query(ctx, `SELECT id, sku FROM product_variants ORDER BY created_at, sku`)
	if err != nil {
		return nil, fmt.Errorf("list variants: %w", err)
	}
	defer rows.Close()

	var refs []domain.VariantRef
	for rows.Next() {
		var r domain.VariantRef
		if err := rows.Scan(&r.ID, &r.SKU); err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		refs = append(refs, r)
	}
	return refs, rows.Err()
}

func (s *Store) CreateVariant(ctx context.Context, v *domain.Variant) error {
	v.ID = newID(v.ID)
	o := v.Options
	err := s.db.QueryRow(ctx, `INSERT INTO product_variants (id, product_id, sku, variant_name,
			option1_name, option1_value, option2_name, option2_value, option3_name, option3_value,
			weight, weight_unit, barcode)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at`,
		v.ID, v.ProductID, v.SKU, v.Name,
		text(o[0].Name), text(o[0].Value), text(o[1].Name), text(o[1].Value), text(o[2].Name), text(o[2].Value),
		v.Weight, text(v.WeightUnit), text(v.Barcode)).Scan(&v.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert variant %s: %w", v.SKU, err)
	}
	return nil
}

func (s *Store) scanIdentifier(row interface{ Scan(...any) error }, key string) (domain.Identifier, error) {
	var id domain.Identifier
	if err := row.Scan(&id.ID, &id.VariantID, &id.Type, &id.Value, &id.Source, &id.CreatedAt); err != nil {
		return domain.Identifier{}, notFound(err, "identifier", key)
	}
	return id, nil
}

func (s *Store) FindIdentifierByValue(ctx context.Context, value string) (domain.Identifier, error) {
	return s.scanIdentifier(s.db.QueryRow(ctx, `SELECT id, product_variant_id, identifier_type,
			identifier_value, source, created_at
		FROM product_identifiers WHERE identifier_value = $1
		ORDER BY created_at LIMIT 1`, value), value)
}

func (s *Store) FindIdentifier(ctx context.Context, identifierType, value string) (domain.Identifier, error) {
	return s.scanIdentifier(s.db.QueryRow(ctx, `SELECT id, product_variant_id, identifier_type,
			identifier_value, source, created_at
		FROM product_identifiers WHERE identifier_type = $1 AND identifier_value = $2`,
		identifierType, value), identifierType+"/"+value)
}

func (s *Store) CreateIdentifier(ctx context.Context, id *domain.Identifier) error {
	id.ID = newID(id.ID)
	err := s.db.QueryRow(ctx, `INSERT INTO product_identifiers (id, product_variant_id, identifier_type,
			identifier_value, source)
		VALUES ($1, $2, $3, $4, $5) RETURNING created_at`,
		id.ID, id.VariantID, id.Type, id.Value, id.Source).Scan(&id.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert identifier: %w", err)
	}
	return nil
}

func (s *Store) UpdateIdentifierVariant(ctx context.Context, id, variantID uuid.UUID) error {
	_, err := s.db.Exec(ctx, `UPDATE product_identifiers SET product_variant_id = $2 WHERE id = $1`, id, variantID)
	if err != nil {
		return fmt.Errorf("update identifier: %w", err)
	}
	return nil
}

func (s *Store) FindPricing(ctx context.Context, key domain.PricingKey) (domain.Pricing, error) {
	p := domain.Pricing{PricingKey: key}
	err := s.db.QueryRow(ctx, `SELECT id, amount, effective_to, updated_at FROM product_pricing
		WHERE product_variant_id = $1 AND price_type = $2 AND source = $3 AND effective_from = $4`,
		key.VariantID, key.PriceType, key.Source, key.EffectiveFrom).
		Scan(&p.ID, &p.Amount, &p.EffectiveTo, &p.UpdatedAt)
	if err != nil {
		return domain.Pricing{}, notFound(err, "pricing", string(key.PriceType))
	}
	return p, nil
}

func (s *Store) CreatePricing(ctx context.Context, p *domain.Pricing) error {
	p.ID = newID(p.ID)
	err := s.db.QueryRow(ctx, `INSERT INTO product_pricing (id, product_variant_id, price_type, amount,
			source, effective_from, effective_to)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING updated_at`,
		p.ID, p.VariantID, p.PriceType, p.Amount, p.Source, p.EffectiveFrom, p.EffectiveTo).Scan(&p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert pricing: %w", err)
	}
	return nil
}

func (s *Store) UpdatePricingAmount(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	_, err := s.db.Exec(ctx, `UPDATE product_pricing SET amount = $2, updated_at = now() WHERE id = $1`, id, amount)
	if err != nil {
		return fmt.Errorf("update pricing: %w", err)
	}
	return nil
}

func (s *Store) FindMetadata(ctx context.Context, variantID uuid.UUID) (domain.Metadata, error) {
	var (
		m                  domain.Metadata
		category, supplier pgtype.Text
		units              pgtype.Int4
	)
	err := s.db.QueryRow(ctx, `SELECT id, product_variant_id, category, supplier_manufacturer,
			date_purchased, units_purchased, printing_manufacturing_cost, packaging_shipping_cost,
			wholesale_cost_per_unit, tax_paid, updated_at
		FROM product_metadata WHERE product_variant_id = $1`, variantID).
		Scan(&m.ID, &m.VariantID, &category, &supplier, &m.DatePurchased, &units,
			&m.PrintingCost, &m.PackagingCost, &m.WholesaleCostPerUnit, &m.TaxPaid, &m.UpdatedAt)
	if err != nil {
		return domain.Metadata{}, notFound(err, "metadata", variantID.String())
	}
	m.Category, m.SupplierManufacturer = fromText(category), fromText(supplier)
	if units.Valid {
		n := int(units.Int32)
		m.UnitsPurchased = &n
	}
	return m, nil
}

func (s *Store) CreateMetadata(ctx context.Context, m *domain.Metadata) error {
	m.ID = newID(m.ID)
	err := s.db.QueryRow(ctx, `INSERT INTO product_metadata (id, product_variant_id, category,
			supplier_manufacturer, date_purchased, units_purchased, printing_manufacturing_cost,
			packaging_shipping_cost, wholesale_cost_per_unit, tax_paid)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING updated_at`,
		m.ID, m.VariantID, text(m.Category), text(m.SupplierManufacturer), m.DatePurchased, m.UnitsPurchased,
		m.PrintingCost, m.PackagingCost, m.WholesaleCostPerUnit, m.TaxPaid).Scan(&m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert metadata: %w", err)
	}
	return nil
}

func (s *Store) UpdateMetadata(ctx context.Context, m *domain.Metadata) error {
	err := s.db.QueryRow(ctx, `UPDATE product_metadata SET category = $2, supplier_manufacturer = $3,
			date_purchased = $4, units_purchased = $5, printing_manufacturing_cost = $6,
			packaging_shipping_cost = $7, wholesale_cost_per_unit = $8, tax_paid = $9, updated_at = now()
		WHERE id = $1 RETURNING updated_at`,
		m.ID, text(m.Category), text(m.SupplierManufacturer), m.DatePurchased, m.UnitsPurchased,
		m.PrintingCost, m.PackagingCost, m.WholesaleCostPerUnit, m.TaxPaid).Scan(&m.UpdatedAt)
	if err != nil {
		return notFound(err, "metadata", m.ID.String())
	}
	return nil
}
