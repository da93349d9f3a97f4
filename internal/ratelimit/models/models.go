// Package models holds rate limiting value types.
package models

import (
	"fmt"
	"time"
)

// EndpointClass groups routes that share one budget.
type EndpointClass string

const (
	ClassPublic EndpointClass = "public" // unauthenticated, keyed by client IP
	ClassRead   EndpointClass = "read"
	ClassWrite  EndpointClass = "write"
)

// Limit allows Requests per sliding Window.
type Limit struct {
	Requests int
	Window   time.Duration
}

func (l Limit) Validate() error {
	if l.Requests < 1 {
		return fmt.Errorf("limit must allow at least one request: got %d", l.Requests)
	}
	if l.Window <= 0 {
		return fmt.Errorf("limit window must be positive: got %s", l.Window)
	}
	return nil
}

type RateLimitResult struct {
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int       `json:"retry_after,omitempty"` // seconds, only set when not allowed
}

// RateLimitExceededResponse is the API response when a budget is spent.
type RateLimitExceededResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"`
}
