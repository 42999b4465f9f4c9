package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vetting/internal/platform/config"
)

func TestNewWithoutURL(t *testing.T) {
	client, err := New(context.Background(), config.RedisConfig{})
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestOptionsOverridePool(t *testing.T) {
	opts, err := options(config.RedisConfig{
		URL:          "redis://:secret@cache.internal:6380/2",
		PoolSize:     25,
		MinIdleConns: 4,
		ReadTimeout:  time.Second,
	})
	require.NoError(t, err)

	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 25, opts.PoolSize)
	assert.Equal(t, 4, opts.MinIdleConns)
	assert.Equal(t, time.Second, opts.ReadTimeout)
	assert.Zero(t, opts.DialTimeout, "left for go-redis to default")
}

func TestOptionsRejectsBadURL(t *testing.T) {
	_, err := options(config.RedisConfig{URL: "http://not-redis"})
	assert.Error(t, err)
}
