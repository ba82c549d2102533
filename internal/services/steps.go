package services

import (
	"context"
	"log/slog"

	"github.com/mpiyush15/pixels-official-sub001/internal/db"
)

// step is one write of a multi-collection mutation. undo reverses apply and may be nil.
type step struct {
	name  string
	apply func(ctx context.Context) error
	undo  func(ctx context.Context) error
}

// runSteps applies steps in order. With a transactional runner they commit or abort together.
// Otherwise the undo of every applied step runs in reverse when a later step fails;
// undo failures are logged and left for the reconciliation pass.
func runSteps(ctx context.Context, tx db.TxRunner, steps ...step) error {
	if tx.Transactional() {
		return tx.Run(ctx, func(ctx context.Context) error {
			for _, s := range steps {
				if err := s.apply(ctx); err != nil {
					return err
				}
			}
			return nil
		})
	}

	for i, s := range steps {
		if err := s.apply(ctx); err != nil {
			for j := i - 1; j >= 0; j-- {
				if steps[j].undo == nil {
					continue
				}
				if uerr := steps[j].undo(context.WithoutCancel(ctx)); uerr != nil {
					slog.ErrorContext(ctx, "compensation failed", "step", steps[j].name, "failed_step", s.name, "error", uerr)
				}
			}
			return err
		}
	}
	return nil
}
