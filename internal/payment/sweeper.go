// AngelaMos | 2026
// sweeper.go

package payment

import (
	"context"
	"errors"
	"time"

	"github.com/carterperez-dev/ea-marketplace/internal/core"
)

// SweepExpired fails pending orders created before cutoff. It returns the
// number of orders it moved to failed.
func (s *Service) SweepExpired(ctx context.Context, cutoff time.Time) (int, error) {
	stale, err := s.orders.ListPendingBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	swept := 0
	for i := range stale {
		if ctx.Err() != nil {
			return swept, ctx.Err()
		}

		moved, err := s.failOrder(ctx, stale[i].ID, "pending order expired")
		if err != nil {
			if !errors.Is(err, core.ErrNotFound) {
				s.logger.Error("sweep order failed", "order_id", stale[i].ID, "error", err)
			}
			continue
		}
		if moved {
			swept++
		}
	}

	return swept, nil
}

// RunSweeper blocks until ctx is done.
func (s *Service) RunSweeper(ctx context.Context, ttl, interval time.Duration) {
	if ttl <= 0 || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("pending order sweeper started", "ttl", ttl, "interval", interval)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.SweepExpired(ctx, s.now().Add(-ttl))
			if err != nil {
				s.logger.Error("pending order sweep failed", "error", err)
				continue
			}
			if n > 0 {
				s.logger.Info("expired pending orders", "count", n)
			}
		}
	}
}
