package domain

import "fmt"

type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

// Opposite returns the side resting liquidity is consumed from.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

type OrderKind int

const (
	GoodTillCancel OrderKind = iota
	FillAndKill
	FillOrKill
	GoodForDay
	Market
)

func (k OrderKind) String() string {
	switch k {
	case GoodTillCancel:
		return "GTC"
	case FillAndKill:
		return "FAK"
	case FillOrKill:
		return "FOK"
	case GoodForDay:
		return "GFD"
	case Market:
		return "MARKET"
	default:
		return fmt.Sprintf("OrderKind(%d)", int(k))
	}
}

type OrderStatus string

const (
	Open            OrderStatus = "OPEN"
	PartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	Filled          OrderStatus = "FILLED"
	Cancelled       OrderStatus = "CANCELLED"
	Rejected        OrderStatus = "REJECTED"
)

// Order is one trading intent: immutable identity plus the remaining
// quantity mutated by fills. Prices are integer ticks, quantities integer
// lots. The matching core is the only mutator.
type Order struct {
	kind      OrderKind
	id        uint64
	side      Side
	price     int64
	initial   uint64
	remaining uint64
}

func NewOrder(kind OrderKind, id uint64, side Side, price int64, quantity uint64) *Order {
	return &Order{
		kind:      kind,
		id:        id,
		side:      side,
		price:     price,
		initial:   quantity,
		remaining: quantity,
	}
}

// NewMarketOrder creates a Market order with no meaningful price of its
// own; the book reprices it to a crossable limit at admission.
func NewMarketOrder(id uint64, side Side, quantity uint64) *Order {
	return NewOrder(Market, id, side, 0, quantity)
}

func (o *Order) ID() uint64                { return o.id }
func (o *Order) Side() Side                { return o.side }
func (o *Order) Kind() OrderKind           { return o.kind }
func (o *Order) Price() int64              { return o.price }
func (o *Order) InitialQuantity() uint64   { return o.initial }
func (o *Order) RemainingQuantity() uint64 { return o.remaining }
func (o *Order) FilledQuantity() uint64    { return o.initial - o.remaining }
func (o *Order) IsFilled() bool            { return o.remaining == 0 }

// Fill consumes quantity from the order. Filling beyond the remaining
// quantity means the matching loop is broken, so fail fast.
func (o *Order) Fill(quantity uint64) {
	if quantity > o.remaining {
		panic(fmt.Sprintf("order %d: fill %d exceeds remaining %d", o.id, quantity, o.remaining))
	}
	o.remaining -= quantity
}

// ToGoodTillCancel reprices a Market order into an aggressive limit.
// Only Market orders may be repriced.
func (o *Order) ToGoodTillCancel(price int64) {
	if o.kind != Market {
		panic(fmt.Sprintf("order %d: only market orders can be repriced", o.id))
	}
	o.price = price
	o.kind = GoodTillCancel
}

// OrderModify carries the replacement parameters for an existing order.
// The original order's kind is preserved across the modify.
type OrderModify struct {
	ID       uint64
	Side     Side
	Price    int64
	Quantity uint64
}

// Order builds the replacement order readmitted in place of the original.
func (m OrderModify) Order(kind OrderKind) *Order {
	return NewOrder(kind, m.ID, m.Side, m.Price, m.Quantity)
}
