package core

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/olyamironova/orderbook-engine/internal/domain"
	"github.com/olyamironova/orderbook-engine/internal/port"
)

// Engine owns one OrderBook for one instrument and serializes every
// public operation behind a mutex; the book itself is single-threaded
// by contract. Around each book mutation it drives the external
// collaborators: the repository for persistence and the cache for the
// published depth view. Both are optional.
type Engine struct {
	log    *zap.Logger
	repo   port.Repository
	cache  port.Cache
	symbol string

	mu   sync.Mutex
	book *OrderBook
}

func NewEngine(log *zap.Logger, repo port.Repository, cache port.Cache, symbol string) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		log:    log,
		repo:   repo,
		cache:  cache,
		symbol: symbol,
		book:   NewOrderBook(),
	}
}

func (e *Engine) Symbol() string { return e.symbol }

// SubmitOrder admits and matches an order, persists the outcome and
// refreshes the depth cache. Business-level rejections (duplicate id,
// unmatchable aggressive order) return an empty trade slice and no
// error; only infrastructure failures are logged, never surfaced as
// matching failures.
func (e *Engine) SubmitOrder(ctx context.Context, o *domain.Order) ([]domain.Trade, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.book.Contains(o.ID()) {
		e.log.Debug("duplicate order id rejected", zap.Uint64("order_id", o.ID()))
		return nil, nil
	}

	trades := e.book.AddOrder(o)
	status := e.submitStatus(o)
	e.log.Info("order submitted",
		zap.Uint64("order_id", o.ID()),
		zap.Stringer("side", o.Side()),
		zap.Stringer("kind", o.Kind()),
		zap.Int64("price", o.Price()),
		zap.Uint64("quantity", o.InitialQuantity()),
		zap.String("status", string(status)),
		zap.Int("trades", len(trades)),
	)

	e.persistSubmit(ctx, o, status, trades)
	e.refreshDepth(ctx)
	return trades, nil
}

// CancelOrder removes a resting order. Unknown ids are a no-op.
func (e *Engine) CancelOrder(ctx context.Context, orderID uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.book.Contains(orderID) {
		e.log.Debug("cancel for unknown order", zap.Uint64("order_id", orderID))
		return nil
	}
	e.book.CancelOrder(orderID)
	e.log.Info("order cancelled", zap.Uint64("order_id", orderID))

	if e.repo != nil {
		if err := e.repo.MarkCancelled(ctx, orderID); err != nil {
			e.log.Warn("persist cancel failed", zap.Uint64("order_id", orderID), zap.Error(err))
		}
	}
	e.refreshDepth(ctx)
	return nil
}

// ModifyOrder atomically cancels and readmits an order with new
// parameters, preserving its kind. Unknown ids return no trades.
func (e *Engine) ModifyOrder(ctx context.Context, m domain.OrderModify) ([]domain.Trade, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.book.orders[m.ID]
	if !ok {
		e.log.Debug("modify for unknown order", zap.Uint64("order_id", m.ID))
		return nil, nil
	}
	kind := entry.order.Kind()

	// Same cancel-then-readmit sequence as OrderBook.ModifyOrder, done
	// stepwise so the replacement's final state is at hand for persistence.
	e.book.CancelOrder(m.ID)
	replacement := m.Order(kind)
	trades := e.book.AddOrder(replacement)
	status := e.submitStatus(replacement)

	e.log.Info("order modified",
		zap.Uint64("order_id", m.ID),
		zap.Int64("price", m.Price),
		zap.Uint64("quantity", m.Quantity),
		zap.String("status", string(status)),
		zap.Int("trades", len(trades)),
	)

	e.persistSubmit(ctx, replacement, status, trades)
	e.refreshDepth(ctx)
	return trades, nil
}

// Depth returns the current depth-of-book and republishes it to the
// cache for out-of-process readers.
func (e *Engine) Depth(ctx context.Context) domain.Depth {
	e.mu.Lock()
	d := e.book.Depth()
	e.mu.Unlock()
	d.Symbol = e.symbol

	if e.cache != nil {
		if err := e.cache.SetDepth(ctx, e.symbol, d); err != nil {
			e.log.Warn("depth cache refresh failed", zap.Error(err))
		}
	}
	return d
}

// Contains reports whether an order with the given id is resting.
func (e *Engine) Contains(orderID uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book.Contains(orderID)
}

// Size returns the count of live orders.
func (e *Engine) Size() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book.Size()
}

// SnapshotDepth persists the current depth view under a fresh id.
func (e *Engine) SnapshotDepth(ctx context.Context) (string, error) {
	e.mu.Lock()
	d := e.book.Depth()
	e.mu.Unlock()
	d.Symbol = e.symbol

	id := uuid.NewString()
	if e.repo != nil {
		if err := e.repo.SaveDepthSnapshot(ctx, id, d); err != nil {
			return "", err
		}
	}
	e.log.Info("depth snapshot saved", zap.String("snapshot_id", id))
	return id, nil
}

// LoadOpenOrders replays resting orders from the repository into the
// book, in arrival order. Used once at startup; a consistent book
// produces no trades during replay.
func (e *Engine) LoadOpenOrders(ctx context.Context) error {
	if e.repo == nil {
		return nil
	}
	recs, err := e.repo.LoadOpenOrders(ctx, e.symbol)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, rec := range recs {
		o := domain.NewOrder(rec.Kind, rec.ID, rec.Side, rec.Price, rec.Quantity)
		o.Fill(rec.Quantity - rec.Remaining)
		if trades := e.book.AddOrder(o); len(trades) > 0 {
			e.log.Warn("replayed order crossed the book",
				zap.Uint64("order_id", rec.ID),
				zap.Int("trades", len(trades)),
			)
		}
	}
	e.log.Info("open orders loaded", zap.Int("count", len(recs)))
	return nil
}

// submitStatus derives the persisted status of an order after AddOrder
// ran. Callers hold the engine mutex.
func (e *Engine) submitStatus(o *domain.Order) domain.OrderStatus {
	switch {
	case e.book.Contains(o.ID()) && o.FilledQuantity() > 0:
		return domain.PartiallyFilled
	case e.book.Contains(o.ID()):
		return domain.Open
	case o.IsFilled():
		return domain.Filled
	case o.FilledQuantity() > 0:
		return domain.Cancelled // FillAndKill remainder was killed
	default:
		return domain.Rejected
	}
}

// persistSubmit writes an admitted or rejected order and its trades in
// one transaction. Persistence failures are logged, not propagated: the
// in-memory book already advanced and stays authoritative.
func (e *Engine) persistSubmit(ctx context.Context, o *domain.Order, status domain.OrderStatus, trades []domain.Trade) {
	if e.repo == nil {
		return
	}
	rec := &port.OrderRecord{
		ID:        o.ID(),
		Symbol:    e.symbol,
		Side:      o.Side(),
		Kind:      o.Kind(),
		Price:     o.Price(),
		Quantity:  o.InitialQuantity(),
		Remaining: o.RemainingQuantity(),
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}
	err := withTx(ctx, e.repo, func(tx port.Tx) error {
		if err := tx.SaveOrder(ctx, rec); err != nil {
			return err
		}
		executedAt := time.Now().UTC()
		for _, t := range trades {
			if err := tx.SaveTrade(ctx, uuid.NewString(), e.symbol, t, executedAt); err != nil {
				return err
			}
			// The resting counterparty's record must track its fill, or
			// a restart replays liquidity that no longer exists.
			counterID := t.Bid.OrderID
			if counterID == o.ID() {
				counterID = t.Ask.OrderID
			}
			remaining, cstatus := uint64(0), domain.Filled
			if entry, ok := e.book.orders[counterID]; ok {
				remaining = entry.order.RemainingQuantity()
				cstatus = domain.PartiallyFilled
			}
			if err := tx.UpdateOrderFill(ctx, counterID, remaining, cstatus); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		e.log.Warn("persist submit failed", zap.Uint64("order_id", o.ID()), zap.Error(err))
	}
}

// refreshDepth republishes the depth view after a mutation. Callers hold
// the engine mutex.
func (e *Engine) refreshDepth(ctx context.Context) {
	if e.cache == nil {
		return
	}
	d := e.book.Depth()
	d.Symbol = e.symbol
	if err := e.cache.SetDepth(ctx, e.symbol, d); err != nil {
		e.log.Warn("depth cache refresh failed", zap.Error(err))
	}
}
