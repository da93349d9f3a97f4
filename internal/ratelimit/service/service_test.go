package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"careflow/internal/ratelimit/metrics"
	"careflow/internal/ratelimit/models"
	"careflow/internal/ratelimit/service/mocks"
)

type LimiterSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	buckets *mocks.MockBucketStore
	metrics *metrics.Metrics
	service *Service
	ctx     context.Context
}

var (
	publicLimit = models.Limit{Requests: 10, Window: time.Minute}
	writeLimit  = models.Limit{Requests: 60, Window: time.Minute}
)

func TestLimiterSuite(t *testing.T) {
	suite.Run(t, new(LimiterSuite))
}

func (s *LimiterSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.buckets = mocks.NewMockBucketStore(s.ctrl)
	s.metrics = metrics.New(prometheus.NewRegistry())
	var err error
	s.service, err = New(s.buckets, map[models.EndpointClass]models.Limit{
		models.ClassPublic: publicLimit,
		models.ClassWrite:  writeLimit,
	},
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(s.metrics),
	)
	s.Require().NoError(err)
	s.ctx = context.Background()
}

func (s *LimiterSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *LimiterSuite) TestNewValidatesLimits() {
	_, err := New(nil, nil)
	s.Require().Error(err)

	_, err = New(s.buckets, map[models.EndpointClass]models.Limit{
		models.ClassRead: {Requests: 0, Window: time.Minute},
	})
	s.Require().ErrorContains(err, "read")
}

func (s *LimiterSuite) TestCheckIPUsesClassLimit() {
	s.buckets.EXPECT().Allow(s.ctx, "ip:192.0.2.7:public", publicLimit).
		Return(&models.RateLimitResult{Allowed: true, Limit: 10, Remaining: 9}, nil)

	result, err := s.service.CheckIP(s.ctx, "192.0.2.7", models.ClassPublic)
	s.Require().NoError(err)
	s.True(result.Allowed)
	s.Equal(9, result.Remaining)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Decisions.WithLabelValues("public", "allowed")))
}

func (s *LimiterSuite) TestCheckSubjectRecordsBlocks() {
	s.buckets.EXPECT().Allow(s.ctx, "sub:nurse-1:write", writeLimit).
		Return(&models.RateLimitResult{Allowed: false, Limit: 60, RetryAfter: 12}, nil)

	result, err := s.service.CheckSubject(s.ctx, "nurse-1", models.ClassWrite)
	s.Require().NoError(err)
	s.False(result.Allowed)
	s.Equal(12, result.RetryAfter)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Decisions.WithLabelValues("write", "blocked")))
}

func (s *LimiterSuite) TestUnconfiguredClassIsNotThrottled() {
	result, err := s.service.CheckSubject(s.ctx, "nurse-1", models.ClassRead)
	s.Require().NoError(err)
	s.True(result.Allowed)
}

func (s *LimiterSuite) TestStoreErrorIsReturned() {
	s.buckets.EXPECT().Allow(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("connection refused"))

	_, err := s.service.CheckIP(s.ctx, "192.0.2.7", models.ClassPublic)
	s.Require().Error(err)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.StoreErrors))
}
