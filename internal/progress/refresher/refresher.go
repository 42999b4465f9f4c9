// Package refresher recomputes the dashboard stats cache on a cron schedule.
package refresher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"vetting/internal/progress/models"
)

const defaultRunTimeout = 30 * time.Second

type StatsRefresher interface {
	Refresh(ctx context.Context) (*models.Stats, error)
}

type Refresher struct {
	cron    *cron.Cron
	stats   StatsRefresher
	logger  *slog.Logger
	timeout time.Duration

	mu      sync.Mutex
	running bool
}

type Option func(*Refresher)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Refresher) {
		r.logger = logger
	}
}

func WithLocation(loc *time.Location) Option {
	return func(r *Refresher) {
		if loc != nil {
			r.cron = cron.New(cron.WithLocation(loc))
		}
	}
}

// WithRunTimeout bounds a single refresh.
func WithRunTimeout(d time.Duration) Option {
	return func(r *Refresher) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// New schedules stats refreshes. The schedule uses standard cron syntax or a
// descriptor such as "@every 1m".
func New(stats StatsRefresher, schedule string, opts ...Option) (*Refresher, error) {
	r := &Refresher{
		cron:    cron.New(),
		stats:   stats,
		logger:  slog.Default(),
		timeout: defaultRunTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	if _, err := r.cron.AddFunc(schedule, r.run); err != nil {
		return nil, fmt.Errorf("invalid stats refresh schedule %q: %w", schedule, err)
	}
	return r, nil
}

func (r *Refresher) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	r.running = true
	r.logger.Info("stats refresher started")
	r.cron.Start()
}

// Stop halts scheduling and waits for a running refresh or ctx.
func (r *Refresher) Stop(ctx context.Context) {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.mu.Unlock()

	done := r.cron.Stop()
	select {
	case <-done.Done():
		r.logger.Info("stats refresher stopped")
	case <-ctx.Done():
		r.logger.Warn("stats refresher stop timed out")
	}
}

// RunOnce refreshes immediately, outside the schedule.
func (r *Refresher) RunOnce() {
	r.run()
}

func (r *Refresher) run() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	start := time.Now()
	stats, err := r.stats.Refresh(ctx)
	if err != nil {
		r.logger.Error("stats refresh failed", "error", err)
		return
	}
	r.logger.Debug("stats refreshed",
		"pending", stats.Pending,
		"total", stats.Total,
		"duration", time.Since(start),
	)
}
