package in_memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/olyamironova/orderbook-engine/internal/domain"
	"github.com/olyamironova/orderbook-engine/internal/port"
)

var _ port.Repository = (*MemoryRepo)(nil)

// MemoryRepo is the map-backed Repository used by tests and by
// deployments running without a database.
type MemoryRepo struct {
	mu        sync.Mutex
	orders    map[uint64]*orderRow
	trades    map[string]tradeRow
	snapshots map[string]domain.Depth
	nextSeq   uint64
}

// orderRow pairs the record with its arrival sequence; created_at alone
// cannot break ties between orders persisted in the same instant.
type orderRow struct {
	rec *port.OrderRecord
	seq uint64
}

type tradeRow struct {
	symbol     string
	trade      domain.Trade
	executedAt time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		orders:    make(map[uint64]*orderRow),
		trades:    make(map[string]tradeRow),
		snapshots: make(map[string]domain.Depth),
	}
}

// SaveOrder upserts the record. The arrival sequence is assigned on the
// first insert and kept across updates, like a serial column.
func (r *MemoryRepo) SaveOrder(ctx context.Context, rec *port.OrderRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rec
	if row, ok := r.orders[rec.ID]; ok {
		row.rec = &cp
		return nil
	}
	r.nextSeq++
	r.orders[rec.ID] = &orderRow{rec: &cp, seq: r.nextSeq}
	return nil
}

func (r *MemoryRepo) SaveTrade(ctx context.Context, id, symbol string, t domain.Trade, executedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trades[id] = tradeRow{symbol: symbol, trade: t, executedAt: executedAt}
	return nil
}

func (r *MemoryRepo) UpdateOrderFill(ctx context.Context, orderID uint64, remaining uint64, status domain.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.orders[orderID]
	if !ok {
		return errors.New("order not found")
	}
	row.rec.Remaining = remaining
	row.rec.Status = status
	return nil
}

func (r *MemoryRepo) LoadOpenOrders(ctx context.Context, symbol string) ([]*port.OrderRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var rows []*orderRow
	for _, row := range r.orders {
		rec := row.rec
		if rec.Symbol != symbol || rec.Remaining == 0 {
			continue
		}
		if rec.Status != domain.Open && rec.Status != domain.PartiallyFilled {
			continue
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].rec.CreatedAt.Equal(rows[j].rec.CreatedAt) {
			return rows[i].rec.CreatedAt.Before(rows[j].rec.CreatedAt)
		}
		return rows[i].seq < rows[j].seq
	})
	res := make([]*port.OrderRecord, len(rows))
	for i, row := range rows {
		cp := *row.rec
		res[i] = &cp
	}
	return res, nil
}

func (r *MemoryRepo) MarkCancelled(ctx context.Context, orderID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.orders[orderID]
	if !ok {
		return errors.New("order not found")
	}
	row.rec.Status = domain.Cancelled
	return nil
}

func (r *MemoryRepo) SaveDepthSnapshot(ctx context.Context, id string, d domain.Depth) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots[id] = d
	return nil
}

// BeginTx returns a pass-through transaction: writes apply immediately
// and Rollback is a no-op. Good enough for tests; the pg adapter is the
// one that needs real atomicity.
func (r *MemoryRepo) BeginTx(ctx context.Context) (port.Tx, error) {
	return &memTx{repo: r}, nil
}

func (r *MemoryRepo) Close(ctx context.Context) {}

// TradeCount reports how many trades were persisted (test helper).
func (r *MemoryRepo) TradeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.trades)
}

// Order returns the persisted record for an id (test helper).
func (r *MemoryRepo) Order(id uint64) (*port.OrderRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.orders[id]
	if !ok {
		return nil, false
	}
	cp := *row.rec
	return &cp, true
}

type memTx struct {
	repo *MemoryRepo
}

var _ port.Tx = (*memTx)(nil)

func (t *memTx) SaveOrder(ctx context.Context, rec *port.OrderRecord) error {
	return t.repo.SaveOrder(ctx, rec)
}

func (t *memTx) SaveTrade(ctx context.Context, id, symbol string, tr domain.Trade, executedAt time.Time) error {
	return t.repo.SaveTrade(ctx, id, symbol, tr, executedAt)
}

func (t *memTx) UpdateOrderFill(ctx context.Context, orderID uint64, remaining uint64, status domain.OrderStatus) error {
	return t.repo.UpdateOrderFill(ctx, orderID, remaining, status)
}

func (t *memTx) Commit(ctx context.Context) error   { return nil }
func (t *memTx) Rollback(ctx context.Context) error { return nil }
