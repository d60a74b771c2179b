package in_memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olyamironova/orderbook-engine/internal/domain"
	"github.com/olyamironova/orderbook-engine/internal/port"
)

func TestLoadOpenOrdersBreaksTimestampTiesByArrival(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	createdAt := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	// Same created_at for every order; arrival order must still win.
	for _, id := range []uint64{5, 2, 9, 1} {
		require.NoError(t, repo.SaveOrder(ctx, &port.OrderRecord{
			ID:        id,
			Symbol:    "BTC-USD",
			Side:      domain.Buy,
			Kind:      domain.GoodTillCancel,
			Price:     100,
			Quantity:  10,
			Remaining: 10,
			Status:    domain.Open,
			CreatedAt: createdAt,
		}))
	}

	recs, err := repo.LoadOpenOrders(ctx, "BTC-USD")
	require.NoError(t, err)
	require.Len(t, recs, 4)
	for i, want := range []uint64{5, 2, 9, 1} {
		assert.Equal(t, want, recs[i].ID)
	}
}

func TestLoadOpenOrdersKeepsSeqAcrossUpserts(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	createdAt := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	for _, id := range []uint64{1, 2} {
		require.NoError(t, repo.SaveOrder(ctx, &port.OrderRecord{
			ID:        id,
			Symbol:    "BTC-USD",
			Side:      domain.Buy,
			Kind:      domain.GoodTillCancel,
			Price:     100,
			Quantity:  10,
			Remaining: 10,
			Status:    domain.Open,
			CreatedAt: createdAt,
		}))
	}

	// Re-saving order 1 (a partial fill update) must not move it behind 2.
	require.NoError(t, repo.SaveOrder(ctx, &port.OrderRecord{
		ID:        1,
		Symbol:    "BTC-USD",
		Side:      domain.Buy,
		Kind:      domain.GoodTillCancel,
		Price:     100,
		Quantity:  10,
		Remaining: 6,
		Status:    domain.PartiallyFilled,
		CreatedAt: createdAt,
	}))

	recs, err := repo.LoadOpenOrders(ctx, "BTC-USD")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, uint64(1), recs[0].ID)
	assert.Equal(t, uint64(6), recs[0].Remaining)
	assert.Equal(t, uint64(2), recs[1].ID)
}
