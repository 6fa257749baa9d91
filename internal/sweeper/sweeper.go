// Package sweeper runs the periodic cleanup of expired demo accounts.
package sweeper

import (
	"context"
	"log"
	"time"

	"github.com/iliyamo/cine-reservas/internal/repository"
)

// Run deletes expired users on the given cadence until ctx is
// cancelled. Each sweep is a single transaction in the repository, so
// a sweep and an in-flight reservation for the same user cannot
// interleave. Intended to be started as a goroutine from main.
func Run(ctx context.Context, users *repository.UserRepo, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := users.SweepExpired(ctx)
			if err != nil {
				log.Printf("sweeper: cleanup failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("sweeper: removed %d expired users", n)
			}
		}
	}
}
