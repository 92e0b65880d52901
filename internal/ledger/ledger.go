// Package ledger maintains inventory: an append-only transaction log plus
// one mutable current-quantity row per (variant, state, tour) key.
//
// Quantities never go below zero. A decrement against a missing row is a
// no-op, and a row is only created by a positive movement or a count.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/merchdesk/internal/domain"
	"github.com/JonMunkholm/merchdesk/internal/store"
)

// ErrStateNotUpdated wraps failures that happen after the transaction was
// written but before the current-state row caught up.
var ErrStateNotUpdated = errors.New("inventory state not updated")

// Store is the subset of the persistence port the ledger writes.
type Store interface {
	FindInventoryState(ctx context.Context, key domain.StateKey) (domain.InventoryStateRow, error)
	ListInventoryStates(ctx context.Context, variantID uuid.UUID) ([]domain.InventoryStateRow, error)
	CreateInventoryState(ctx context.Context, s *domain.InventoryStateRow) error
	UpdateInventoryState(ctx context.Context, id uuid.UUID, quantity int, lastCountedAt *time.Time) error
	CreateTransaction(ctx context.Context, tx *domain.Transaction) error
}

// Movement describes one quantity change. Quantity is signed: sales and
// comps are negative.
type Movement struct {
	VariantID uuid.UUID
	Type      domain.TransactionType
	State     domain.InventoryState
	TourID    uuid.NullUUID
	ShowID    uuid.NullUUID
	Quantity  int
	Date      time.Time
	Source    domain.Source
	Notes     string
}

func (m Movement) key() domain.StateKey {
	return domain.StateKey{VariantID: m.VariantID, State: m.State, TourID: m.TourID}
}

// Ledger records inventory movements as transactions and keeps the
// per-state quantities in step with them.
type Ledger struct {
	store Store
	now   func() time.Time
}

// New returns a Ledger backed by s.
func New(s Store) *Ledger {
	return &Ledger{store: s, now: time.Now}
}

// Record appends the transaction for m and then applies its delta to the
// matching state row. When the transaction cannot be written the state
// row is left untouched.
func (l *Ledger) Record(ctx context.Context, m Movement) (domain.Transaction, error) {
	if !m.Type.Valid() {
		return domain.Transaction{}, fmt.Errorf("record movement: invalid transaction type %q", m.Type)
	}
	if !m.State.Valid() {
		return domain.Transaction{}, fmt.Errorf("record movement: invalid inventory state %q", m.State)
	}

	tx := domain.Transaction{
		VariantID: m.VariantID,
		Type:      m.Type,
		Quantity:  m.Quantity,
		TourID:    m.TourID,
		ShowID:    m.ShowID,
		Date:      m.Date,
		Source:    m.Source,
		Notes:     m.Notes,
	}
	if m.Quantity < 0 {
		tx.FromState = m.State
	} else {
		tx.ToState = m.State
	}
	if tx.Date.IsZero() {
		tx.Date = l.now()
	}

	if err := l.store.CreateTransaction(ctx, &tx); err != nil {
		return domain.Transaction{}, fmt.Errorf("record movement: %w", err)
	}

	if _, err := l.Apply(ctx, m.key(), m.Quantity); err != nil {
		return tx, fmt.Errorf("%w: %w", ErrStateNotUpdated, err)
	}
	return tx, nil
}

// Apply adds delta to the state row for key, flooring at zero, and returns
// the resulting quantity. A missing row is created only for a positive delta.
func (l *Ledger) Apply(ctx context.Context, key domain.StateKey, delta int) (int, error) {
	current, err := l.store.FindInventoryState(ctx, key)
	switch {
	case err == nil:
		next := max(0, current.Quantity+delta)
		if err := l.store.UpdateInventoryState(ctx, current.ID, next, nil); err != nil {
			return current.Quantity, fmt.Errorf("update %s state: %w", key.State, err)
		}
		return next, nil

	case errors.Is(err, store.ErrNotFound):
		if delta <= 0 {
			return 0, nil
		}
		row := &domain.InventoryStateRow{StateKey: key, Quantity: delta}
		if err := l.store.CreateInventoryState(ctx, row); err != nil {
			return 0, fmt.Errorf("create %s state: %w", key.State, err)
		}
		return delta, nil

	default:
		return 0, fmt.Errorf("find %s state: %w", key.State, err)
	}
}

// SetCount records a physical count: the row for key is set to quantity
// (negative counts become zero) and stamped with countedAt. An existing
// row is updated in place so its identity is preserved.
func (l *Ledger) SetCount(ctx context.Context, key domain.StateKey, quantity int, countedAt time.Time) error {
	quantity = max(0, quantity)

	current, err := l.store.FindInventoryState(ctx, key)
	switch {
	case err == nil:
		if err := l.store.UpdateInventoryState(ctx, current.ID, quantity, &countedAt); err != nil {
			return fmt.Errorf("update %s count: %w", key.State, err)
		}
		return nil

	case errors.Is(err, store.ErrNotFound):
		row := &domain.InventoryStateRow{StateKey: key, Quantity: quantity, LastCountedAt: &countedAt}
		if err := l.store.CreateInventoryState(ctx, row); err != nil {
			return fmt.Errorf("create %s count: %w", key.State, err)
		}
		return nil

	default:
		return fmt.Errorf("find %s state: %w", key.State, err)
	}
}

// Stock is the on-hand quantity of one variant across all states.
type Stock struct {
	VariantID uuid.UUID                     `json:"variant_id"`
	ByState   map[domain.InventoryState]int `json:"by_state"`
	Total     int                           `json:"total"`
}

// Summary totals a variant's state rows. Tour-scoped rows are folded into
// their state.
func (l *Ledger) Summary(ctx context.Context, variantID uuid.UUID) (Stock, error) {
	rows, err := l.store.ListInventoryStates(ctx, variantID)
	if err != nil {
		return Stock{}, fmt.Errorf("stock summary: %w", err)
	}

	stock := Stock{VariantID: variantID, ByState: make(map[domain.InventoryState]int, len(domain.InventoryStates))}
	for _, st := range domain.InventoryStates {
		stock.ByState[st] = 0
	}
	for _, r := range rows {
		stock.ByState[r.State] += r.Quantity
		stock.Total += r.Quantity
	}
	return stock, nil
}
