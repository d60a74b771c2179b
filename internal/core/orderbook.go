package core

import (
	"time"

	"github.com/olyamironova/orderbook-engine/internal/domain"
)

// orderEntry is the locator record for one live order: the order itself
// plus its node in the side/price FIFO, so cancel never scans a queue.
type orderEntry struct {
	order *domain.Order
	node  *levelNode
}

// OrderBook is the single-instrument matching core. It is deliberately
// not safe for concurrent use: callers serialize access (see Engine),
// one book per instrument.
type OrderBook struct {
	bids   *levelTree            // best bid = max
	asks   *levelTree            // best ask = min
	orders map[uint64]*orderEntry
}

func NewOrderBook() *OrderBook {
	return &OrderBook{
		bids:   newLevelTree(),
		asks:   newLevelTree(),
		orders: make(map[uint64]*orderEntry),
	}
}

// AddOrder admits an order and matches it against resting liquidity,
// returning the trades produced. Policy rejections (duplicate id,
// unmatchable FillAndKill/FillOrKill/Market) leave the book untouched
// and return no trades.
func (b *OrderBook) AddOrder(o *domain.Order) []domain.Trade {
	if o == nil || o.InitialQuantity() == 0 {
		return nil
	}
	if _, exists := b.orders[o.ID()]; exists {
		return nil
	}

	if o.Kind() == domain.Market {
		// Reprice to the worst resting opposite price so the order
		// sweeps every level it can reach.
		if o.Side() == domain.Buy {
			worst := b.asks.max()
			if worst == nil {
				return nil
			}
			o.ToGoodTillCancel(worst.price)
		} else {
			worst := b.bids.min()
			if worst == nil {
				return nil
			}
			o.ToGoodTillCancel(worst.price)
		}
	}

	if o.Kind() == domain.FillAndKill && !b.canMatch(o.Side(), o.Price()) {
		return nil
	}
	if o.Kind() == domain.FillOrKill && !b.canFullyFill(o.Side(), o.Price(), o.InitialQuantity()) {
		return nil
	}

	var lvl *priceLevel
	if o.Side() == domain.Buy {
		lvl = b.bids.upsert(o.Price())
	} else {
		lvl = b.asks.upsert(o.Price())
	}
	node := lvl.enqueue(o)
	b.orders[o.ID()] = &orderEntry{order: o, node: node}

	return b.matchOrders()
}

// CancelOrder removes a resting order. Unknown ids are a no-op.
func (b *OrderBook) CancelOrder(id uint64) {
	entry, ok := b.orders[id]
	if !ok {
		return
	}
	delete(b.orders, id)

	o := entry.order
	if o.Side() == domain.Buy {
		lvl := b.bids.find(o.Price())
		lvl.unlink(entry.node)
		if lvl.empty() {
			b.bids.remove(o.Price())
		}
	} else {
		lvl := b.asks.find(o.Price())
		lvl.unlink(entry.node)
		if lvl.empty() {
			b.asks.remove(o.Price())
		}
	}
}

// ModifyOrder cancels the existing order and readmits a replacement with
// the same id and kind through the full admission policy. The
// replacement queues at the tail of its new level: a modify never keeps
// time priority. Unknown ids return no trades.
func (b *OrderBook) ModifyOrder(m domain.OrderModify) []domain.Trade {
	entry, ok := b.orders[m.ID]
	if !ok {
		return nil
	}
	kind := entry.order.Kind()
	b.CancelOrder(m.ID)
	return b.AddOrder(m.Order(kind))
}

// Contains reports whether the order id is currently resting in the book.
func (b *OrderBook) Contains(id uint64) bool {
	_, ok := b.orders[id]
	return ok
}

// Size returns the number of live orders.
func (b *OrderBook) Size() int { return len(b.orders) }

// BestBid returns the highest resting bid price.
func (b *OrderBook) BestBid() (int64, bool) {
	lvl := b.bids.max()
	if lvl == nil {
		return 0, false
	}
	return lvl.price, true
}

// BestAsk returns the lowest resting ask price.
func (b *OrderBook) BestAsk() (int64, bool) {
	lvl := b.asks.min()
	if lvl == nil {
		return 0, false
	}
	return lvl.price, true
}

// Depth returns the per-side (price, aggregate remaining quantity) view,
// best-to-worst. Pure query.
func (b *OrderBook) Depth() domain.Depth {
	d := domain.Depth{
		Bids:      make([]domain.LevelInfo, 0, b.bids.len()),
		Asks:      make([]domain.LevelInfo, 0, b.asks.len()),
		Timestamp: time.Now().UTC(),
	}
	b.bids.descend(func(lvl *priceLevel) bool {
		d.Bids = append(d.Bids, domain.LevelInfo{Price: lvl.price, Quantity: lvl.totalQty})
		return true
	})
	b.asks.ascend(func(lvl *priceLevel) bool {
		d.Asks = append(d.Asks, domain.LevelInfo{Price: lvl.price, Quantity: lvl.totalQty})
		return true
	})
	return d
}

// OrderIDsOfKind lists live orders of one kind, for the day-boundary
// GoodForDay sweep.
func (b *OrderBook) OrderIDsOfKind(kind domain.OrderKind) []uint64 {
	var ids []uint64
	for id, entry := range b.orders {
		if entry.order.Kind() == kind {
			ids = append(ids, id)
		}
	}
	return ids
}

// canMatch reports whether an order at price on side would cross the
// current opposite best.
func (b *OrderBook) canMatch(side domain.Side, price int64) bool {
	if side == domain.Buy {
		best := b.asks.min()
		return best != nil && price >= best.price
	}
	best := b.bids.max()
	return best != nil && price <= best.price
}

// canFullyFill reports whether resting opposite liquidity at acceptable
// prices covers the full quantity. It may span multiple levels; the walk
// stops as soon as coverage is reached or prices stop being acceptable.
func (b *OrderBook) canFullyFill(side domain.Side, price int64, quantity uint64) bool {
	var available uint64
	if side == domain.Buy {
		b.asks.ascend(func(lvl *priceLevel) bool {
			if lvl.price > price {
				return false
			}
			available += lvl.totalQty
			return available < quantity
		})
	} else {
		b.bids.descend(func(lvl *priceLevel) bool {
			if lvl.price < price {
				return false
			}
			available += lvl.totalQty
			return available < quantity
		})
	}
	return available >= quantity
}
