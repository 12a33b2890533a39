package snapshot

import (
	"context"
	"log/slog"
	"time"

	"github.com/mars/marsclock/internal/metrics"
	"github.com/mars/marsclock/internal/site"
)

// Generator republishes the site snapshot at a fixed interval.
type Generator struct {
	store    *Store
	sites    []site.Site
	interval time.Duration
	logger   *slog.Logger
}

// NewGenerator creates a generator for the given catalog. Interval values
// below 100ms are clamped; the display contract is one update per second.
func NewGenerator(store *Store, sites []site.Site, interval time.Duration, logger *slog.Logger) *Generator {
	if interval < 100*time.Millisecond {
		interval = time.Second
	}
	return &Generator{
		store:    store,
		sites:    sites,
		interval: interval,
		logger:   logger,
	}
}

// Start publishes an immediate snapshot, then republishes every interval
// until ctx is cancelled.
func (g *Generator) Start(ctx context.Context) {
	g.publish(time.Now())

	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	g.logger.Info("snapshot generator started",
		"sites", len(g.sites),
		"interval_ms", g.interval.Milliseconds(),
	)

	for {
		select {
		case <-ctx.Done():
			g.logger.Info("snapshot generator stopped")
			return
		case t := <-ticker.C:
			g.publish(t)
		}
	}
}

func (g *Generator) publish(t time.Time) {
	snap, err := Compute(t, g.sites)
	if err != nil {
		// Only the zero instant can fail; a ticker never produces one.
		g.logger.Warn("snapshot computation failed", "error", err)
		return
	}
	g.store.Set(snap)
	metrics.SetSnapshotAge(0)
}
