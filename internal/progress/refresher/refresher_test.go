package refresher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vetting/internal/progress/models"
)

type countingRefresher struct {
	calls atomic.Int32
	err   error
}

func (c *countingRefresher) Refresh(context.Context) (*models.Stats, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return &models.Stats{Pending: 1}, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew_RejectsBadSchedule(t *testing.T) {
	_, err := New(&countingRefresher{}, "not a schedule", WithLogger(quietLogger()))
	require.Error(t, err)
}

func TestRunOnce(t *testing.T) {
	stats := &countingRefresher{}
	r, err := New(stats, "@every 1h", WithLogger(quietLogger()))
	require.NoError(t, err)

	r.RunOnce()
	assert.Equal(t, int32(1), stats.calls.Load())

	stats.err = errors.New("db down")
	assert.NotPanics(t, r.RunOnce)
	assert.Equal(t, int32(2), stats.calls.Load())
}

func TestScheduledRuns(t *testing.T) {
	stats := &countingRefresher{}
	r, err := New(stats, "@every 1s", WithLogger(quietLogger()), WithLocation(time.UTC))
	require.NoError(t, err)

	r.Start()
	r.Start()
	assert.Eventually(t, func() bool { return stats.calls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	r.Stop(ctx)
	r.Stop(ctx)
}
