package ledger

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/merchdesk/internal/domain"
	"github.com/JonMunkholm/merchdesk/internal/store/memstore"
)

func warehouse(variantID uuid.UUID) domain.StateKey {
	return domain.StateKey{VariantID: variantID, State: domain.StateWarehouse}
}

func TestRecord_SaleDecrements(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	l := New(s)
	variant := uuid.New()

	require.NoError(t, l.SetCount(ctx, warehouse(variant), 5, time.Now()))

	tx, err := l.Record(ctx, Movement{
		VariantID: variant,
		Type:      domain.TxSale,
		State:     domain.StateWarehouse,
		Quantity:  -2,
		Source:    domain.SourceAmbientInks,
		Notes:     "Online sale - Order #1001",
	})
	require.NoError(t, err)

	assert.Equal(t, -2, tx.Quantity)
	assert.Equal(t, domain.StateWarehouse, tx.FromState)
	assert.Empty(t, tx.ToState)
	assert.False(t, tx.Date.IsZero())
	assert.Equal(t, 3, s.StateQuantity(warehouse(variant)))
	assert.Len(t, s.Transactions(), 1)
}

func TestApply_FloorInvariant(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 50; run++ {
		s := memstore.New()
		l := New(s)
		key := warehouse(uuid.New())

		start := rng.Intn(10)
		if start > 0 {
			require.NoError(t, l.SetCount(ctx, key, start, time.Now()))
		}

		for step := 0; step < 20; step++ {
			got, err := l.Apply(ctx, key, -rng.Intn(4))
			require.NoError(t, err)
			require.GreaterOrEqual(t, got, 0)
			if q := s.StateQuantity(key); q != -1 {
				require.GreaterOrEqual(t, q, 0, "run %d step %d", run, step)
			}
		}
	}
}

func TestApply_MissingRow(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	l := New(s)
	key := warehouse(uuid.New())

	got, err := l.Apply(ctx, key, -3)
	require.NoError(t, err)
	assert.Equal(t, 0, got)
	assert.Equal(t, -1, s.StateQuantity(key), "decrement must not create a row")

	got, err = l.Apply(ctx, key, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, got)
	assert.Equal(t, 4, s.StateQuantity(key))
}

func TestRecord_TransactionFailureLeavesState(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	l := New(s)
	key := warehouse(uuid.New())
	require.NoError(t, l.SetCount(ctx, key, 5, time.Now()))

	s.FailOn("CreateTransaction", errors.New("insert failed"))
	_, err := l.Record(ctx, Movement{VariantID: key.VariantID, Type: domain.TxSale, State: key.State, Quantity: -1})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrStateNotUpdated))
	assert.Equal(t, 5, s.StateQuantity(key))
}

func TestRecord_StateFailureIsReported(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	l := New(s)
	key := warehouse(uuid.New())
	require.NoError(t, l.SetCount(ctx, key, 5, time.Now()))

	s.FailOn("UpdateInventoryState", errors.New("timeout"))
	tx, err := l.Record(ctx, Movement{VariantID: key.VariantID, Type: domain.TxSale, State: key.State, Quantity: -1})
	require.ErrorIs(t, err, ErrStateNotUpdated)
	assert.NotEqual(t, uuid.Nil, tx.ID)
	assert.Len(t, s.Transactions(), 1)
}

func TestRecord_RejectsInvalidEnums(t *testing.T) {
	l := New(memstore.New())

	_, err := l.Record(context.Background(), Movement{Type: "gift", State: domain.StateTour})
	assert.Error(t, err)
	_, err = l.Record(context.Background(), Movement{Type: domain.TxComp, State: "backstage"})
	assert.Error(t, err)
}

func TestSetCount_UpdatesInPlace(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	l := New(s)
	key := warehouse(uuid.New())

	require.NoError(t, l.SetCount(ctx, key, 5, time.Now()))
	first := s.InventoryStates()[0]

	counted := time.Date(2025, 11, 17, 9, 0, 0, 0, time.UTC)
	require.NoError(t, l.SetCount(ctx, key, -4, counted))

	rows := s.InventoryStates()
	require.Len(t, rows, 1)
	assert.Equal(t, first.ID, rows[0].ID)
	assert.Equal(t, 0, rows[0].Quantity)
	assert.True(t, rows[0].LastCountedAt.Equal(counted))
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	l := New(s)
	variant := uuid.New()
	tour := uuid.NullUUID{UUID: uuid.New(), Valid: true}

	require.NoError(t, l.SetCount(ctx, warehouse(variant), 5, time.Now()))
	require.NoError(t, l.SetCount(ctx, domain.StateKey{VariantID: variant, State: domain.StateTour}, 2, time.Now()))
	require.NoError(t, l.SetCount(ctx, domain.StateKey{VariantID: variant, State: domain.StateTour, TourID: tour}, 7, time.Now()))

	stock, err := l.Summary(ctx, variant)
	require.NoError(t, err)
	assert.Equal(t, 5, stock.ByState[domain.StateWarehouse])
	assert.Equal(t, 9, stock.ByState[domain.StateTour])
	assert.Equal(t, 0, stock.ByState[domain.StateVenue])
	assert.Equal(t, 14, stock.Total)
}
