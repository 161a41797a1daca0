package main

import (
	"context"
	"time"

	"github.com/angelmondragon/storefront-checkout/pkg/logger"
	"github.com/angelmondragon/storefront-checkout/pkg/metrics"
)

const sweepJob = "session_sweep"

type sweeper interface {
	Sweep() int
}

// sweepInterval runs the sweep a few times per idle lifetime, at most once a minute.
func sweepInterval(idle time.Duration) time.Duration {
	interval := idle / 4
	if interval < time.Minute {
		return time.Minute
	}
	return interval
}

// runSessionSweeper evicts idle session workspaces until ctx is cancelled.
func runSessionSweeper(ctx context.Context, s sweeper, interval time.Duration, jobs *metrics.JobMetrics, logg *logger.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepOnce(ctx, s, jobs, logg)
		}
	}
}

func sweepOnce(ctx context.Context, s sweeper, jobs *metrics.JobMetrics, logg *logger.Logger) int {
	started := time.Now()
	evicted := s.Sweep()
	jobs.ObserveRun(sweepJob, time.Since(started), evicted, nil)
	if evicted > 0 {
		logg.Debug(logg.WithField(ctx, "evicted", evicted), "idle sessions swept")
	}
	return evicted
}
