//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"vetting/internal/progress/models"
	"vetting/pkg/testutil/containers"
)

type RedisStatsCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	cache *RedisStatsCache
	ctx   context.Context
}

func TestRedisStatsCacheSuite(t *testing.T) {
	suite.Run(t, new(RedisStatsCacheSuite))
}

func (s *RedisStatsCacheSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.ctx = context.Background()
}

func (s *RedisStatsCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
	s.cache = NewRedis(s.redis.Client)
}

func (s *RedisStatsCacheSuite) TestMissThenHit() {
	_, ok, err := s.cache.Get(s.ctx)
	s.Require().NoError(err)
	s.False(ok)

	want := &models.Stats{Pending: 3, ApprovedToday: 1, ApprovedThisWeek: 4, GeneratedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	s.Require().NoError(s.cache.Set(s.ctx, want, time.Minute))

	got, ok, err := s.cache.Get(s.ctx)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(want.Pending, got.Pending)
	s.Equal(want.ApprovedThisWeek, got.ApprovedThisWeek)
	s.True(want.GeneratedAt.Equal(got.GeneratedAt))

	ttl, err := s.redis.Client.TTL(s.ctx, StatsKey).Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
}

func (s *RedisStatsCacheSuite) TestInvalidate() {
	s.Require().NoError(s.cache.Set(s.ctx, &models.Stats{Total: 1}, time.Minute))
	s.Require().NoError(s.cache.Invalidate(s.ctx))
	_, ok, err := s.cache.Get(s.ctx)
	s.Require().NoError(err)
	s.False(ok)
}
