package port

import (
	"context"
	"time"

	"github.com/olyamironova/orderbook-engine/internal/domain"
)

// OrderRecord is the persisted shape of an order; the repository keeps
// both initial and remaining quantity so resting orders can be replayed
// into the book on startup.
type OrderRecord struct {
	ID        uint64
	Symbol    string
	Side      domain.Side
	Kind      domain.OrderKind
	Price     int64
	Quantity  uint64
	Remaining uint64
	Status    domain.OrderStatus
	CreatedAt time.Time
}

// Repository persists orders, trades and depth snapshots. Every method
// is optional infrastructure from the engine's point of view: a nil
// repository disables persistence without changing matching semantics.
type Repository interface {
	SaveOrder(ctx context.Context, rec *OrderRecord) error
	SaveTrade(ctx context.Context, id string, symbol string, t domain.Trade, executedAt time.Time) error
	UpdateOrderFill(ctx context.Context, orderID uint64, remaining uint64, status domain.OrderStatus) error
	LoadOpenOrders(ctx context.Context, symbol string) ([]*OrderRecord, error)
	MarkCancelled(ctx context.Context, orderID uint64) error
	SaveDepthSnapshot(ctx context.Context, id string, d domain.Depth) error
	BeginTx(ctx context.Context) (Tx, error)
	Close(ctx context.Context)
}

// Tx groups the order, trade and counterparty writes of one submit so a
// crash never persists trades without their orders.
type Tx interface {
	SaveOrder(ctx context.Context, rec *OrderRecord) error
	SaveTrade(ctx context.Context, id string, symbol string, t domain.Trade, executedAt time.Time) error
	UpdateOrderFill(ctx context.Context, orderID uint64, remaining uint64, status domain.OrderStatus) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
