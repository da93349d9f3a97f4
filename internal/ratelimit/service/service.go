// Package service decides whether a caller still has budget for an endpoint class.
package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks BucketStore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"careflow/internal/ratelimit/metrics"
	"careflow/internal/ratelimit/models"
)

type BucketStore interface {
	Allow(ctx context.Context, key string, limit models.Limit) (*models.RateLimitResult, error)
}

type Service struct {
	buckets BucketStore
	limits  map[models.EndpointClass]models.Limit
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New validates every configured limit. A class without a limit is never throttled.
func New(buckets BucketStore, limits map[models.EndpointClass]models.Limit, opts ...Option) (*Service, error) {
	if buckets == nil {
		return nil, errors.New("bucket store is required")
	}
	for class, limit := range limits {
		if err := limit.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", class, err)
		}
	}
	s := &Service{buckets: buckets, limits: limits, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CheckIP spends one request of the class budget for a client address.
func (s *Service) CheckIP(ctx context.Context, ip string, class models.EndpointClass) (*models.RateLimitResult, error) {
	return s.check(ctx, "ip:"+ip+":"+string(class), class)
}

// CheckSubject spends one request of the class budget for an authenticated caller.
func (s *Service) CheckSubject(ctx context.Context, subject string, class models.EndpointClass) (*models.RateLimitResult, error) {
	return s.check(ctx, "sub:"+subject+":"+string(class), class)
}

func (s *Service) check(ctx context.Context, key string, class models.EndpointClass) (*models.RateLimitResult, error) {
	limit, ok := s.limits[class]
	if !ok {
		return &models.RateLimitResult{Allowed: true}, nil
	}
	result, err := s.buckets.Allow(ctx, key, limit)
	if err != nil {
		s.metrics.IncStoreErrors()
		return nil, err
	}
	s.metrics.ObserveDecision(string(class), result.Allowed)
	if !result.Allowed {
		s.logger.WarnContext(ctx, "rate limit exceeded",
			"class", string(class),
			"retry_after", result.RetryAfter,
		)
	}
	return result, nil
}
