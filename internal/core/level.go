package core

import "github.com/olyamironova/orderbook-engine/internal/domain"

// levelNode is one resting order's slot inside a price level's FIFO.
// Nodes are linked doubly so a cancel can unlink in O(1) from the
// middle of the queue; unlinking one node never invalidates another.
type levelNode struct {
	order *domain.Order
	prev  *levelNode
	next  *levelNode
}

// priceLevel is the FIFO of resting orders sharing one price on one side.
// totalQty tracks the aggregate remaining quantity, maintained on every
// enqueue, fill and unlink, so depth and fill-or-kill coverage checks
// never rescan the queue.
type priceLevel struct {
	price    int64
	head     *levelNode
	tail     *levelNode
	totalQty uint64
	count    int
}

func (l *priceLevel) enqueue(o *domain.Order) *levelNode {
	n := &levelNode{order: o, prev: l.tail}
	if l.tail != nil {
		l.tail.next = n
	} else {
		l.head = n
	}
	l.tail = n
	l.totalQty += o.RemainingQuantity()
	l.count++
	return n
}

func (l *priceLevel) unlink(n *levelNode) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev, n.next = nil, nil
	l.totalQty -= n.order.RemainingQuantity()
	l.count--
}

// reduce accounts a partial or full fill of quantity against this level.
func (l *priceLevel) reduce(quantity uint64) {
	l.totalQty -= quantity
}

func (l *priceLevel) empty() bool { return l.count == 0 }
