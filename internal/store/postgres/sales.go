package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/merchdesk/internal/domain"
)

var errNoRows = pgx.ErrNoRows

func (s *Store) SalesOrderExists(ctx context.Context, orderNumber int64, sku string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM sales_orders WHERE order_number = $1 AND sku = $2)`,
		orderNumber, sku).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check sales order: %w", err)
	}
	return exists, nil
}

func (s *Store) CreateSalesOrder(ctx context.Context, o *domain.SalesOrder) error {
	o.ID = newID(o.ID)
	err := s.db.QueryRow(ctx, `INSERT INTO sales_orders (id, order_number, order_date, product_name,
			product_variant_id, sku, quantity, gross_sales, discounts, net_sales, commission, deduction,
			payout, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14) RETURNING created_at`,
		o.ID, o.OrderNumber, o.OrderDate, text(o.ProductName), o.VariantID, o.SKU, o.Quantity,
		o.GrossSales, o.Discounts, o.NetSales, o.Commission, o.Deduction, o.Payout, o.Source).
		Scan(&o.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert sales order %d: %w", o.OrderNumber, err)
	}
	return nil
}

func (s *Store) GetTour(ctx context.Context, id uuid.UUID) (domain.Tour, error) {
	var t domain.Tour
	err := s.db.QueryRow(ctx, `SELECT id, name, start_date, end_date FROM tours WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.StartDate, &t.EndDate)
	if err != nil {
		return domain.Tour{}, notFound(err, "tour", id.String())
	}
	return t, nil
}

const showColumns = `id, tour_id, venue_name, city, state, show_date, created_at`

func scanShow(row pgx.Row) (domain.Show, error) {
	var (
		sh          domain.Show
		city, state pgtype.Text
	)
	err := row.Scan(&sh.ID, &sh.TourID, &sh.Venue, &city, &state, &sh.Date, &sh.CreatedAt)
	sh.City, sh.State = fromText(city), fromText(state)
	return sh, err
}

func (s *Store) GetShow(ctx context.Context, id uuid.UUID) (domain.Show, error) {
	sh, err := scanShow(s.db.QueryRow(ctx, `SELECT `+showColumns+` FROM shows WHERE id = $1`, id))
	if err != nil {
		return domain.Show{}, notFound(err, "show", id.String())
	}
	return sh, nil
}

func (s *Store) EarliestShow(ctx context.Context, tourID uuid.UUID) (domain.Show, error) {
	sh, err := scanShow(s.db.QueryRow(ctx, `SELECT `+showColumns+` FROM shows
		WHERE tour_id = $1 ORDER BY show_date, created_at LIMIT 1`, tourID))
	if err != nil {
		return domain.Show{}, notFound(err, "show for tour", tourID.String())
	}
	return sh, nil
}

func (s *Store) FindShow(ctx context.Context, tourID uuid.UUID, venue string, date time.Time) (domain.Show, error) {
	sh, err := scanShow(s.db.QueryRow(ctx, `SELECT `+showColumns+` FROM shows
		WHERE tour_id = $1 AND venue_name = $2 AND show_date = $3`, tourID, venue, date))
	if err != nil {
		return domain.Show{}, notFound(err, "show", venue)
	}
	return sh, nil
}

func (s *Store) CreateShow(ctx context.Context, sh *domain.Show) error {
	sh.ID = newID(sh.ID)
	err := s.db.QueryRow(ctx, `INSERT INTO shows (id, tour_id, venue_name, city, state, show_date)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`,
		sh.ID, sh.TourID, sh.Venue, text(sh.City), text(sh.State), sh.Date).Scan(&sh.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert show: %w", err)
	}
	return nil
}

func (s *Store) CreateTourSale(ctx context.Context, ts *domain.TourSale) error {
	ts.ID = newID(ts.ID)
	err := s.db.QueryRow(ctx, `INSERT INTO tour_sales (id, show_id, product_variant_id, quantity_sold,
			is_comp, unit_price, gross_revenue, sale_date, source, source_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING created_at`,
		ts.ID, ts.ShowID, ts.VariantID, ts.QuantitySold, ts.IsComp, ts.UnitPrice, ts.GrossRevenue,
		ts.SaleDate, ts.Source, ts.SourceData).Scan(&ts.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert tour sale: %w", err)
	}
	return nil
}

func (s *Store) VenueNightTotalExists(ctx context.Context, showID uuid.UUID, saleDate time.Time) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM venue_night_totals WHERE show_id = $1 AND sale_date = $2)`,
		showID, saleDate).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check venue night total: %w", err)
	}
	return exists, nil
}

func (s *Store) CreateVenueNightTotal(ctx context.Context, t *domain.VenueNightTotal) error {
	t.ID = newID(t.ID)
	err := s.db.QueryRow(ctx, `INSERT INTO venue_night_totals (id, show_id, total_receipts, total_fees,
			net_receipts, sale_date, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at`,
		t.ID, t.ShowID, t.TotalReceipts, t.TotalFees, t.NetReceipts, t.SaleDate, t.Source).Scan(&t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert venue night total: %w", err)
	}
	return nil
}
