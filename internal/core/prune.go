package core

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/olyamironova/orderbook-engine/internal/domain"
)

// PruneGoodForDay cancels every resting GoodForDay order. It is the
// day-boundary sweep the embedding process schedules at the trading-day
// close; it takes the same mutex as every other operation. Returns the
// number of orders cancelled.
func (e *Engine) PruneGoodForDay(ctx context.Context) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	ids := e.book.OrderIDsOfKind(domain.GoodForDay)
	slices.Sort(ids)
	for _, id := range ids {
		e.book.CancelOrder(id)
		if e.repo != nil {
			if err := e.repo.MarkCancelled(ctx, id); err != nil {
				e.log.Warn("persist day-close cancel failed", zap.Uint64("order_id", id), zap.Error(err))
			}
		}
	}
	if len(ids) > 0 {
		e.log.Info("good-for-day orders pruned", zap.Int("count", len(ids)))
		e.refreshDepth(ctx)
	}
	return len(ids)
}

// NextClose returns the first trading-day close strictly after now.
// closeAt is "HH:MM" wall-clock time in now's location.
func NextClose(now time.Time, closeAt string) (time.Time, error) {
	t, err := time.Parse("15:04", closeAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse close time %q: %w", closeAt, err)
	}
	next := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next, nil
}
