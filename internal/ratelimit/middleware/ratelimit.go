// Package middleware enforces rate limits on HTTP routes.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"careflow/internal/ratelimit/models"
	"careflow/pkg/platform/httputil"
	"careflow/pkg/platform/middleware/request"
	"careflow/pkg/requestcontext"
)

type RateLimiter interface {
	CheckIP(ctx context.Context, ip string, class models.EndpointClass) (*models.RateLimitResult, error)
	CheckSubject(ctx context.Context, subject string, class models.EndpointClass) (*models.RateLimitResult, error)
}

type Middleware struct {
	limiter  RateLimiter
	logger   *slog.Logger
	disabled bool
}

type Option func(*Middleware)

// WithDisabled lets every request through.
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

func New(limiter RateLimiter, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		limiter: limiter,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// RateLimit keys the budget by client IP. Store failures let the request through.
func (m *Middleware) RateLimit(class models.EndpointClass) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.disabled {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			result, err := m.limiter.CheckIP(ctx, request.ClientIP(r), class)
			m.enforce(w, r, next, result, err)
		})
	}
}

// RateLimitAuthenticated keys the budget by principal subject and falls back to the
// client IP when no principal is attached. Mount it after auth.RequireAuth.
func (m *Middleware) RateLimitAuthenticated(class models.EndpointClass) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.disabled {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			var (
				result *models.RateLimitResult
				err    error
			)
			if principal, ok := requestcontext.PrincipalFrom(ctx); ok && principal.Subject != "" {
				result, err = m.limiter.CheckSubject(ctx, principal.Subject, class)
			} else {
				result, err = m.limiter.CheckIP(ctx, request.ClientIP(r), class)
			}
			m.enforce(w, r, next, result, err)
		})
	}
}

func (m *Middleware) enforce(w http.ResponseWriter, r *http.Request, next http.Handler, result *models.RateLimitResult, err error) {
	if err != nil {
		m.logger.ErrorContext(r.Context(), "failed to check rate limit",
			"error", err,
			"route", r.URL.Path,
			"request_id", requestcontext.RequestID(r.Context()),
		)
		next.ServeHTTP(w, r)
		return
	}
	addRateLimitHeaders(w, result)
	if !result.Allowed {
		writeRateLimitExceeded(w, result)
		return
	}
	next.ServeHTTP(w, r)
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.RateLimitResult) {
	if result == nil || result.Limit == 0 {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeRateLimitExceeded(w http.ResponseWriter, result *models.RateLimitResult) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.RateLimitExceededResponse{
		Error:      "rate_limit_exceeded",
		Message:    "Too many requests. Please try again later.",
		RetryAfter: result.RetryAfter,
	})
}
