//go:build integration

package bucket_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"careflow/internal/ratelimit/models"
	"careflow/internal/ratelimit/store/bucket"
	"careflow/pkg/testutil/containers"
)

type RedisBucketStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *bucket.RedisBucketStore
}

func TestRedisBucketStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisBucketStoreSuite))
}

func (s *RedisBucketStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = bucket.NewRedisBucketStore(s.redis.Client, "test:ratelimit:")
}

func (s *RedisBucketStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisBucketStoreSuite) TestBlocksOnceWindowIsFull() {
	ctx := context.Background()
	limit := models.Limit{Requests: 2, Window: time.Minute}

	for i := range 2 {
		result, err := s.store.Allow(ctx, "ip:10.0.0.1:public", limit)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(1-i, result.Remaining)
	}

	result, err := s.store.Allow(ctx, "ip:10.0.0.1:public", limit)
	s.Require().NoError(err)
	s.False(result.Allowed)
	s.Equal(0, result.Remaining)
	s.GreaterOrEqual(result.RetryAfter, 1)
	s.LessOrEqual(result.RetryAfter, 60)

	other, err := s.store.Allow(ctx, "ip:10.0.0.2:public", limit)
	s.Require().NoError(err)
	s.True(other.Allowed)
}

func (s *RedisBucketStoreSuite) TestKeyExpiresWithWindow() {
	ctx := context.Background()
	limit := models.Limit{Requests: 1, Window: 200 * time.Millisecond}

	first, err := s.store.Allow(ctx, "sub:nurse-1:write", limit)
	s.Require().NoError(err)
	s.True(first.Allowed)

	ttl, err := s.redis.Client.PTTL(ctx, "test:ratelimit:sub:nurse-1:write").Result()
	s.Require().NoError(err)
	s.Positive(ttl)

	time.Sleep(300 * time.Millisecond)
	again, err := s.store.Allow(ctx, "sub:nurse-1:write", limit)
	s.Require().NoError(err)
	s.True(again.Allowed)
}
