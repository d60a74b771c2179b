package pg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/olyamironova/orderbook-engine/internal/domain"
	"github.com/olyamironova/orderbook-engine/internal/port"
)

var _ port.Repository = (*PgRepo)(nil)

type PgRepo struct {
	pool *pgxpool.Pool
}

// call Close when finished working with the database.
func NewPgRepo(ctx context.Context, dsn string) (*PgRepo, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}
	return &PgRepo{pool: pool}, nil
}

func (p *PgRepo) Close(ctx context.Context) {
	if p.pool != nil {
		p.pool.Close()
	}
}

func (p *PgRepo) SaveOrder(ctx context.Context, rec *port.OrderRecord) error {
	return saveOrder(ctx, p.pool, rec)
}

func (p *PgRepo) SaveTrade(ctx context.Context, id, symbol string, t domain.Trade, executedAt time.Time) error {
	return saveTrade(ctx, p.pool, id, symbol, t, executedAt)
}

func (p *PgRepo) UpdateOrderFill(ctx context.Context, orderID uint64, remaining uint64, status domain.OrderStatus) error {
	return updateOrderFill(ctx, p.pool, orderID, remaining, status)
}

// LoadOpenOrders returns resting orders for a symbol in arrival order so
// replay preserves time priority. The seq bigserial breaks created_at
// ties, which land on the same microsecond under burst traffic.
func (p *PgRepo) LoadOpenOrders(ctx context.Context, symbol string) ([]*port.OrderRecord, error) {
	rows, err := p.pool.Query(ctx, `
SELECT id, symbol, side, kind, price, quantity, remaining, status, created_at
FROM orders
WHERE symbol = $1 AND remaining > 0 AND status IN ('OPEN', 'PARTIALLY_FILLED')
ORDER BY created_at ASC, seq ASC
`, symbol)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*port.OrderRecord
	for rows.Next() {
		var rec port.OrderRecord
		var side, kind, status string
		var price, quantity, remaining int64
		if err := rows.Scan(&rec.ID, &rec.Symbol, &side, &kind, &price, &quantity, &remaining, &status, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Side, err = parseSide(side)
		if err != nil {
			return nil, err
		}
		rec.Kind, err = parseKind(kind)
		if err != nil {
			return nil, err
		}
		rec.Price = price
		rec.Quantity = uint64(quantity)
		rec.Remaining = uint64(remaining)
		rec.Status = domain.OrderStatus(status)
		res = append(res, &rec)
	}
	return res, rows.Err()
}

func (p *PgRepo) MarkCancelled(ctx context.Context, orderID uint64) error {
	res, err := p.pool.Exec(ctx, `
UPDATE orders
SET status = 'CANCELLED'
WHERE id = $1 AND status IN ('OPEN', 'PARTIALLY_FILLED')
`, int64(orderID))
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return errors.New("order not found or already closed")
	}
	return nil
}

// SaveDepthSnapshot persists the depth view as JSONB.
func (p *PgRepo) SaveDepthSnapshot(ctx context.Context, id string, d domain.Depth) error {
	b, err := json.Marshal(d)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, `
INSERT INTO depth_snapshots(id, symbol, depth_json, created_at)
VALUES($1,$2,$3,NOW())
ON CONFLICT (id) DO UPDATE SET depth_json = EXCLUDED.depth_json, created_at = NOW()
`, id, d.Symbol, string(b))
	return err
}

func (p *PgRepo) BeginTx(ctx context.Context) (port.Tx, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("pg: begin tx: %w", err)
	}
	return &pgTx{tx: tx}, nil
}

type pgTx struct {
	tx pgx.Tx
}

var _ port.Tx = (*pgTx)(nil)

func (t *pgTx) SaveOrder(ctx context.Context, rec *port.OrderRecord) error {
	return saveOrder(ctx, t.tx, rec)
}

func (t *pgTx) SaveTrade(ctx context.Context, id, symbol string, tr domain.Trade, executedAt time.Time) error {
	return saveTrade(ctx, t.tx, id, symbol, tr, executedAt)
}

func (t *pgTx) UpdateOrderFill(ctx context.Context, orderID uint64, remaining uint64, status domain.OrderStatus) error {
	return updateOrderFill(ctx, t.tx, orderID, remaining, status)
}

func (t *pgTx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *pgTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

// execer covers both pool and transaction handles.
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func saveOrder(ctx context.Context, db execer, rec *port.OrderRecord) error {
	if rec == nil {
		return errors.New("nil order record")
	}
	_, err := db.Exec(ctx, `
INSERT INTO orders(id, symbol, side, kind, price, quantity, remaining, status, created_at)
VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id) DO UPDATE SET
  symbol = EXCLUDED.symbol,
  side = EXCLUDED.side,
  kind = EXCLUDED.kind,
  price = EXCLUDED.price,
  quantity = EXCLUDED.quantity,
  remaining = EXCLUDED.remaining,
  status = EXCLUDED.status
`, int64(rec.ID), rec.Symbol, rec.Side.String(), rec.Kind.String(),
		rec.Price, int64(rec.Quantity), int64(rec.Remaining), string(rec.Status), rec.CreatedAt)
	return err
}

func saveTrade(ctx context.Context, db execer, id, symbol string, t domain.Trade, executedAt time.Time) error {
	_, err := db.Exec(ctx, `
INSERT INTO trades(id, symbol, bid_order, ask_order, bid_price, ask_price, quantity, executed_at)
VALUES($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO NOTHING
`, id, symbol, int64(t.Bid.OrderID), int64(t.Ask.OrderID),
		t.Bid.Price, t.Ask.Price, int64(t.Bid.Quantity), executedAt)
	return err
}

func updateOrderFill(ctx context.Context, db execer, orderID uint64, remaining uint64, status domain.OrderStatus) error {
	_, err := db.Exec(ctx, `
UPDATE orders
SET remaining = $2, status = $3
WHERE id = $1
`, int64(orderID), int64(remaining), string(status))
	return err
}

func parseSide(s string) (domain.Side, error) {
	switch s {
	case "BUY":
		return domain.Buy, nil
	case "SELL":
		return domain.Sell, nil
	default:
		return 0, fmt.Errorf("pg: unknown side %q", s)
	}
}

func parseKind(s string) (domain.OrderKind, error) {
	switch s {
	case "GTC":
		return domain.GoodTillCancel, nil
	case "FAK":
		return domain.FillAndKill, nil
	case "FOK":
		return domain.FillOrKill, nil
	case "GFD":
		return domain.GoodForDay, nil
	case "MARKET":
		return domain.Market, nil
	default:
		return 0, fmt.Errorf("pg: unknown order kind %q", s)
	}
}
