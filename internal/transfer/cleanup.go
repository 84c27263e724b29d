package transfer

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// SessionCleanup periodically evicts finished sessions from the registry
// once they have been completed for longer than retain, so progress polls
// and exports keep working for a while after an upload lands without the
// registry growing for the lifetime of the process.
func SessionCleanup(ctx context.Context, r *Registry, tick, retain time.Duration) {
	ticker := time.NewTicker(tick)

	zap.L().Debug("Session cleanup attached", zap.Duration("tick_every", tick), zap.Duration("retain", retain))

	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := r.Sweep(time.Now().Add(-retain)); n > 0 {
					zap.L().Debug("Evicted finished transfers", zap.Int("count", n))
				}
			}
		}
	}()
}
