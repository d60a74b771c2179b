package core

import "github.com/olyamironova/orderbook-engine/internal/domain"

// matchOrders crosses best bid against best ask until no cross remains.
// Within a price pair the queue heads trade first (price-time priority),
// each match consuming min(remaining, remaining) from both heads. Fully
// filled orders leave their queue and the locator; emptied levels leave
// their tree, and the loop re-reads the best prices rather than trusting
// the pair it just drained. Trades carry each leg's own resting price.
func (b *OrderBook) matchOrders() []domain.Trade {
	var trades []domain.Trade

	for {
		bidLvl := b.bids.max()
		askLvl := b.asks.min()
		if bidLvl == nil || askLvl == nil {
			break
		}
		if bidLvl.price < askLvl.price {
			break
		}

		for !bidLvl.empty() && !askLvl.empty() {
			bid := bidLvl.head.order
			ask := askLvl.head.order

			quantity := min(bid.RemainingQuantity(), ask.RemainingQuantity())
			bid.Fill(quantity)
			ask.Fill(quantity)
			bidLvl.reduce(quantity)
			askLvl.reduce(quantity)

			if bid.IsFilled() {
				bidLvl.unlink(bidLvl.head)
				delete(b.orders, bid.ID())
			}
			if ask.IsFilled() {
				askLvl.unlink(askLvl.head)
				delete(b.orders, ask.ID())
			}

			trades = append(trades, domain.Trade{
				Bid: domain.TradeInfo{OrderID: bid.ID(), Price: bid.Price(), Quantity: quantity},
				Ask: domain.TradeInfo{OrderID: ask.ID(), Price: ask.Price(), Quantity: quantity},
			})
		}

		if bidLvl.empty() {
			b.bids.remove(bidLvl.price)
		}
		if askLvl.empty() {
			b.asks.remove(askLvl.price)
		}
	}

	// FillAndKill never rests: whatever could not match is cancelled.
	if lvl := b.bids.max(); lvl != nil && lvl.head.order.Kind() == domain.FillAndKill {
		b.CancelOrder(lvl.head.order.ID())
	}
	if lvl := b.asks.min(); lvl != nil && lvl.head.order.Kind() == domain.FillAndKill {
		b.CancelOrder(lvl.head.order.ID())
	}

	return trades
}
