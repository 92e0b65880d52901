package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/merchdesk/internal/domain"
)

const stateColumns = `id, product_variant_id, state, tour_id, quantity, location_details, last_counted_at, updated_at`

func scanState(row interface{ Scan(...any) error }) (domain.InventoryStateRow, error) {
	var (
		st      domain.InventoryStateRow
		details pgtype.Text
	)
	err := row.Scan(&st.ID, &st.VariantID, &st.State, &st.TourID, &st.Quantity, &details, &st.LastCountedAt, &st.UpdatedAt)
	st.LocationDetails = fromText(details)
	return st, err
}

func (s *Store) FindInventoryState(ctx context.Context, key domain.StateKey) (domain.InventoryStateRow, error) {
	st, err := scanState(s.db.QueryRow(ctx, `SELECT `+stateColumns+` FROM inventory_states
		WHERE product_variant_id = $1 AND state = $2 AND tour_id IS NOT DISTINCT FROM $3`,
		key.VariantID, key.State, key.TourID))
	if err != nil {
		return domain.InventoryStateRow{}, notFound(err, "inventory state", string(key.State))
	}
	return st, nil
}

func (s *Store) ListInventoryStates(ctx context.Context, variantID uuid.UUID) ([]domain.InventoryStateRow, error) {
	rows, err := s.db.Query(ctx, `SELECT `+stateColumns+` FROM inventory_states
		WHERE product_variant_id = $1 ORDER BY state, tour_id NULLS FIRST`, variantID)
	if err != nil {
		return nil, fmt.Errorf("list inventory states: %w", err)
	}
	defer rows.Close()

	var out []domain.InventoryStateRow
	for rows.Next() {
		st, err := scanState(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory state: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *Store) CreateInventoryState(ctx context.Context, st *domain.InventoryStateRow) error {
	st.ID = newID(st.ID)
	err := s.db.QueryRow(ctx, `INSERT INTO inventory_states (id, product_variant_id, state, tour_id,
			quantity, location_details, last_counted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING updated_at`,
		st.ID, st.VariantID, st.State, st.TourID, st.Quantity, text(st.LocationDetails), st.LastCountedAt).
		Scan(&st.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert inventory state: %w", err)
	}
	return nil
}

func (s *Store) UpdateInventoryState(ctx context.Context, id uuid.UUID, quantity int, lastCountedAt *time.Time) error {
	tag, err := s.db.Exec(ctx, `UPDATE inventory_states
		SET quantity = $2, last_counted_at = coalesce($3, last_counted_at), updated_at = now()
		WHERE id = $1`, id, quantity, lastCountedAt)
	if err != nil {
		return fmt.Errorf("update inventory state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(errNoRows, "inventory state", id.String())
	}
	return nil
}

func (s *Store) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	tx.ID = newID(tx.ID)
	err := s.db.QueryRow(ctx, `INSERT INTO inventory_transactions (id, product_variant_id, transaction_type,
			from_state, to_state, quantity, tour_id, show_id, transaction_date, source, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING created_at`,
		tx.ID, tx.VariantID, tx.Type, text(string(tx.FromState)), text(string(tx.ToState)), tx.Quantity,
		tx.TourID, tx.ShowID, tx.Date, tx.Source, text(tx.Notes)).Scan(&tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}
