// Package events is the append-only domain event log.
//
// Producers call Append in the same unit of work as their state change. The rule engine
// is the only caller of ClaimPending and Mark. Events are never deleted. Release hands
// an event stranded in PROCESSING back to the next pass.
package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"careflow/internal/events/metrics"
	"careflow/internal/events/models"
	id "careflow/pkg/domain"
	dErrors "careflow/pkg/domain-errors"
	"careflow/pkg/platform/sentinel"
	"careflow/pkg/requestcontext"
)

// Store persists events. Implementations must make ClaimPending atomic with
// respect to other ClaimPending callers.
type Store interface {
	Append(ctx context.Context, event *models.Event) error
	FindByID(ctx context.Context, eventID id.EventID) (*models.Event, error)
	ListPending(ctx context.Context, limit int) ([]*models.Event, error)
	ListByStatus(ctx context.Context, status models.Status, limit int) ([]*models.Event, error)
	ClaimPending(ctx context.Context, limit int, now time.Time) ([]*models.Event, error)
	Mark(ctx context.Context, eventID id.EventID, status models.Status, reason string, at time.Time) (bool, error)
	Release(ctx context.Context, eventID id.EventID) (bool, error)
}

// Log validates payloads against their event schema before they reach the store.
type Log struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Log)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Log) {
		l.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Log) {
		l.metrics = m
	}
}

// New creates an event log over store.
func New(store Store, opts ...Option) (*Log, error) {
	if store == nil {
		return nil, errors.New("event store is required")
	}
	l := &Log{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Append records a PENDING event and returns its ID. The payload is normalized
// against the schema of eventType; store errors are returned unchanged.
func (l *Log) Append(ctx context.Context, eventType models.Type, payload models.Payload) (id.EventID, error) {
	normalized, err := models.Normalize(eventType, payload)
	if err != nil {
		return id.EventID{}, err
	}
	event := &models.Event{
		ID:        id.NewEventID(),
		Type:      eventType,
		Payload:   normalized,
		Status:    models.StatusPending,
		CreatedAt: requestcontext.Now(ctx),
	}
	if err := l.store.Append(ctx, event); err != nil {
		return id.EventID{}, err
	}
	l.metrics.IncAppended(string(eventType))
	l.logger.DebugContext(ctx, "domain event appended",
		"event_id", event.ID.String(),
		"type", string(eventType),
	)
	return event.ID, nil
}

// Get returns one event.
func (l *Log) Get(ctx context.Context, eventID id.EventID) (*models.Event, error) {
	event, err := l.store.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "event not found")
		}
		return nil, err
	}
	return event, nil
}

// ListPending returns up to limit PENDING events, oldest first.
func (l *Log) ListPending(ctx context.Context, limit int) ([]*models.Event, error) {
	if limit <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "limit must be positive")
	}
	return l.store.ListPending(ctx, limit)
}

// ListByStatus returns up to limit events in status, oldest first.
func (l *Log) ListByStatus(ctx context.Context, status models.Status, limit int) ([]*models.Event, error) {
	if !status.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown event status %q", status)
	}
	if limit <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "limit must be positive")
	}
	return l.store.ListByStatus(ctx, status, limit)
}

// ClaimPending moves up to limit PENDING events to PROCESSING and returns them,
// oldest first. Two concurrent callers never receive the same event.
func (l *Log) ClaimPending(ctx context.Context, limit int) ([]*models.Event, error) {
	if limit <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "limit must be positive")
	}
	claimed, err := l.store.ClaimPending(ctx, limit, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	l.metrics.AddClaimed(len(claimed))
	return claimed, nil
}

// Mark moves an event to PROCESSED or FAILED. Marking an event that is already
// terminal is a no-op, not an error.
func (l *Log) Mark(ctx context.Context, eventID id.EventID, status models.Status, reason string) error {
	if !status.IsTerminal() {
		return dErrors.Newf(dErrors.CodeValidation, "cannot mark event %s", status)
	}
	changed, err := l.store.Mark(ctx, eventID, status, reason, requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "event not found")
		}
		return err
	}
	if !changed {
		l.logger.DebugContext(ctx, "event already terminal, mark ignored",
			"event_id", eventID.String(),
			"status", string(status),
		)
		return nil
	}
	l.metrics.IncMarked(string(status))
	return nil
}

// Release moves a PROCESSING event back to PENDING so the next pass claims it again.
// Events in any other status yield an invalid state error.
func (l *Log) Release(ctx context.Context, eventID id.EventID) error {
	released, err := l.store.Release(ctx, eventID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "event not found")
		}
		return err
	}
	if !released {
		return dErrors.New(dErrors.CodeInvalidState, "only PROCESSING events can be released")
	}
	l.metrics.IncReleased()
	l.logger.InfoContext(ctx, "domain event released",
		"event_id", eventID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}
