// Package compliance provides a fail-closed audit publisher.
//
// Emit writes synchronously and returns the store error. Callers emit inside the unit
// of work that carries the change, so a failed audit write rolls the change back.
package compliance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	audit "careflow/pkg/platform/audit"
	"careflow/pkg/requestcontext"
)

// SystemActor is recorded when no principal is attached to the context.
const SystemActor = "system"

type Publisher struct {
	store   audit.Store
	logger  *slog.Logger
	metrics *Metrics
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit fills the actor, request ID, and timestamp from ctx when they are unset and
// persists the event.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	start := time.Now()

	if event.Action == "" {
		return errors.New("audit event requires an action")
	}
	if event.ResourceID == "" {
		return errors.New("audit event requires a resource ID")
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.Actor == "" {
		if principal, ok := requestcontext.PrincipalFrom(ctx); ok {
			event.Actor = principal.Subject
			event.ActorRole = principal.Role
		} else {
			event.Actor = SystemActor
		}
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}

	if err := p.store.Append(ctx, event); err != nil {
		p.metrics.IncPersistFailures()
		p.logger.ErrorContext(ctx, "compliance audit failed",
			"action", string(event.Action),
			"resource_id", event.ResourceID,
			"error", err,
		)
		return fmt.Errorf("compliance audit persistence failed: %w", err)
	}

	p.metrics.ObservePersistDuration(time.Since(start).Seconds())
	p.metrics.IncEventsEmitted(string(event.Action))
	return nil
}
