package core

import (
	"context"

	"github.com/olyamironova/orderbook-engine/internal/port"
)

// withTx runs fn inside one repository transaction so a submit's order,
// trades and counterparty updates land together or not at all. Rollback
// covers every failure path, including a failed Commit.
func withTx(ctx context.Context, repo port.Repository, fn func(port.Tx) error) error {
	tx, err := repo.BeginTx(ctx)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	committed = true
	return nil
}
