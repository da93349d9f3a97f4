// Package engine runs workflow rules against pending domain events. A pass reads
// one rule snapshot, claims a batch of events, executes the actions of every
// matching rule, and moves each event to PROCESSED or FAILED exactly once.
package engine

//go:generate mockgen -source=engine.go -destination=mocks/mocks.go -package=mocks EventLog,RuleSource,AlertCreator,ReferralCreator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	alertmodels "careflow/internal/alerts/models"
	alertservice "careflow/internal/alerts/service"
	eventmodels "careflow/internal/events/models"
	referralmodels "careflow/internal/referrals/models"
	referralservice "careflow/internal/referrals/service"
	"careflow/internal/workflow/metrics"
	"careflow/internal/workflow/models"
	id "careflow/pkg/domain"
	dErrors "careflow/pkg/domain-errors"
	"careflow/pkg/platform/tx"
)

const (
	DefaultBatchLimit = 25
	MaxBatchLimit     = 200
)

type EventLog interface {
	ClaimPending(ctx context.Context, limit int) ([]*eventmodels.Event, error)
	Mark(ctx context.Context, eventID id.EventID, status eventmodels.Status, reason string) error
	Release(ctx context.Context, eventID id.EventID) error
}

type RuleSource interface {
	Snapshot(ctx context.Context) (*models.Snapshot, error)
}

type AlertCreator interface {
	CreateAlert(ctx context.Context, req alertservice.CreateRequest) (*alertmodels.Alert, error)
	Escalate(ctx context.Context, req alertservice.CreateRequest) (*alertmodels.Alert, error)
}

type ReferralCreator interface {
	Create(ctx context.Context, req referralservice.CreateRequest) (*referralmodels.Referral, error)
}

type Engine struct {
	events    EventLog
	rules     RuleSource
	alerts    AlertCreator
	referrals ReferralCreator
	tx        tx.Transactor
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

func New(events EventLog, rules RuleSource, alerts AlertCreator, referrals ReferralCreator, transactor tx.Transactor, opts ...Option) (*Engine, error) {
	if events == nil {
		return nil, errors.New("event log is required")
	}
	if rules == nil {
		return nil, errors.New("rule source is required")
	}
	if alerts == nil {
		return nil, errors.New("alert creator is required")
	}
	if referrals == nil {
		return nil, errors.New("referral creator is required")
	}
	if transactor == nil {
		return nil, errors.New("transactor is required")
	}
	e := &Engine{
		events:    events,
		rules:     rules,
		alerts:    alerts,
		referrals: referrals,
		tx:        transactor,
		logger:    slog.Default(),
		tracer:    otel.Tracer("careflow/workflow"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Outcome reports what happened to one claimed event.
type Outcome struct {
	EventID      id.EventID
	Type         eventmodels.Type
	Status       eventmodels.Status
	MatchedRules []id.RuleID
	Error        string
}

type Result struct {
	Processed      int
	Failed         int
	RuleSetVersion int64
	Events         []Outcome
}

// ProcessPending runs one pass over at most batchLimit pending events. Action
// failures mark the event FAILED and the pass continues. Storage errors end the pass
// and are returned unchanged after the unhandled rest of the batch is released back
// to PENDING.
func (e *Engine) ProcessPending(ctx context.Context, batchLimit int) (*Result, error) {
	if batchLimit < 1 || batchLimit > MaxBatchLimit {
		return nil, dErrors.Newf(dErrors.CodeValidation, "batch limit must be between 1 and %d", MaxBatchLimit)
	}
	ctx, span := e.tracer.Start(ctx, "workflow.ProcessPending", trace.WithAttributes(
		attribute.Int("batch.limit", batchLimit),
	))
	defer span.End()
	start := time.Now()

	snap, err := e.rules.Snapshot(ctx)
	if err != nil {
		return nil, e.abort(span, fmt.Errorf("load rule snapshot: %w", err))
	}
	claimed, err := e.events.ClaimPending(ctx, batchLimit)
	if err != nil {
		return nil, e.abort(span, err)
	}

	// a claimed batch runs to completion even if the caller goes away
	ctx = context.WithoutCancel(ctx)
	result := &Result{RuleSetVersion: snap.Version, Events: make([]Outcome, 0, len(claimed))}
	for i, event := range claimed {
		outcome, err := e.handle(ctx, snap, event)
		if err != nil {
			e.release(ctx, claimed[i:])
			return result, e.abort(span, err)
		}
		result.Events = append(result.Events, outcome)
		if outcome.Status == eventmodels.StatusFailed {
			result.Failed++
		} else {
			result.Processed++
		}
	}

	e.metrics.ObservePass(time.Since(start).Seconds(), snap.Version)
	span.SetAttributes(
		attribute.Int("events.processed", result.Processed),
		attribute.Int("events.failed", result.Failed),
		attribute.Int64("rules.version", snap.Version),
	)
	if len(claimed) > 0 {
		e.logger.InfoContext(ctx, "workflow pass complete",
			"claimed", len(claimed),
			"processed", result.Processed,
			"failed", result.Failed,
			"rule_set_version", snap.Version,
		)
	}
	return result, nil
}

// release hands claimed events back to PENDING. Events whose release also fails stay
// PROCESSING; GET /v1/events?status=PROCESSING lists them for a manual release.
func (e *Engine) release(ctx context.Context, events []*eventmodels.Event) {
	for _, event := range events {
		if err := e.events.Release(ctx, event.ID); err != nil {
			e.logger.ErrorContext(ctx, "claimed event left in PROCESSING",
				"event_id", event.ID.String(),
				"error", err,
			)
			continue
		}
		e.logger.WarnContext(ctx, "claimed event released after aborted pass",
			"event_id", event.ID.String(),
		)
	}
}

func (e *Engine) abort(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, "pass aborted")
	return err
}

// handle executes the matching rules of one event and marks it. The actions and the
// PROCESSED mark share one unit of work; a failed action rolls back the actions that
// ran before it, then the event is marked FAILED on its own.
func (e *Engine) handle(ctx context.Context, snap *models.Snapshot, event *eventmodels.Event) (Outcome, error) {
	ctx, span := e.tracer.Start(ctx, "workflow.HandleEvent", trace.WithAttributes(
		attribute.String("event.id", event.ID.String()),
		attribute.String("event.type", string(event.Type)),
	))
	defer span.End()

	matched := snap.Matching(event.Type, event.Payload)
	outcome := Outcome{EventID: event.ID, Type: event.Type, MatchedRules: make([]id.RuleID, len(matched))}
	for i, r := range matched {
		outcome.MatchedRules[i] = r.ID
	}

	err := e.tx.RunInTx(ctx, func(ctx context.Context) error {
		for _, r := range matched {
			if err := e.execute(ctx, r, event); err != nil {
				return err
			}
		}
		return e.events.Mark(ctx, event.ID, eventmodels.StatusProcessed, "")
	})
	if err == nil {
		outcome.Status = eventmodels.StatusProcessed
		e.metrics.IncEvent(string(outcome.Status))
		return outcome, nil
	}
	if !dErrors.HasCode(err, dErrors.CodeActionExecution) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage failure")
		return outcome, err
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, "action failed")
	outcome.Status = eventmodels.StatusFailed
	outcome.Error = err.Error()
	if markErr := e.events.Mark(ctx, event.ID, eventmodels.StatusFailed, outcome.Error); markErr != nil {
		return outcome, markErr
	}
	e.metrics.IncEvent(string(outcome.Status))
	e.logger.WarnContext(ctx, "workflow event failed",
		"event_id", event.ID.String(),
		"event_type", string(event.Type),
		"error", outcome.Error,
	)
	return outcome, nil
}

// execute runs one rule's action. Domain errors become action execution errors;
// anything else is treated as a storage failure and passes through unchanged. An
// alert or referral that already exists for this event and rule counts as done.
func (e *Engine) execute(ctx context.Context, r *models.Rule, event *eventmodels.Event) error {
	err := e.dispatch(ctx, r, event)
	switch {
	case err == nil:
		e.metrics.IncAction(string(r.Action.Kind), "ok")
		return nil
	case dErrors.HasCode(err, dErrors.CodeConflict):
		e.metrics.IncAction(string(r.Action.Kind), "duplicate")
		e.logger.InfoContext(ctx, "rule action already applied",
			"rule_id", r.ID.String(),
			"event_id", event.ID.String(),
		)
		return nil
	case isDomainError(err):
		e.metrics.IncAction(string(r.Action.Kind), "failed")
		return dErrors.Wrap(err, dErrors.CodeActionExecution,
			fmt.Sprintf("rule %q action %s", r.Name, r.Action.Kind))
	default:
		return err
	}
}

func (e *Engine) dispatch(ctx context.Context, r *models.Rule, event *eventmodels.Event) error {
	patientID, err := event.PatientID()
	if err != nil {
		return err
	}
	reason := models.Render(r.Action.Param(models.ParamReason), event.Payload)

	switch r.Action.Kind {
	case models.ActionCreateAlert, models.ActionEscalate:
		req := alertservice.CreateRequest{
			PatientID:     patientID,
			Reason:        reasonOr(reason, r),
			SourceEventID: event.ID,
			RuleID:        r.ID,
		}
		if raw := r.Action.Param(models.ParamSeverity); raw != "" {
			sev, err := alertmodels.ParseSeverity(raw)
			if err != nil {
				return err
			}
			req.Severity = sev
		}
		if r.Action.Kind == models.ActionEscalate {
			_, err = e.alerts.Escalate(ctx, req)
		} else {
			_, err = e.alerts.CreateAlert(ctx, req)
		}
		return err
	case models.ActionCreateReferral:
		category, err := referralmodels.ParseCategory(r.Action.Param(models.ParamCategory))
		if err != nil {
			return err
		}
		_, err = e.referrals.Create(ctx, referralservice.CreateRequest{
			PatientID:     patientID,
			Category:      category,
			Reason:        reasonOr(reason, r),
			SourceEventID: event.ID,
			RuleID:        r.ID,
		})
		return err
	}
	return dErrors.Newf(dErrors.CodeValidation, "unknown action kind %q", r.Action.Kind)
}

func reasonOr(reason string, r *models.Rule) string {
	if reason != "" {
		return reason
	}
	return r.Name
}

// isDomainError reports whether err is a rejection by a domain service rather than an
// infrastructure failure.
func isDomainError(err error) bool {
	code, ok := dErrors.CodeOf(err)
	if !ok {
		return false
	}
	switch code {
	case dErrors.CodeUnavailable, dErrors.CodeTimeout, dErrors.CodeInternal:
		return false
	}
	return true
}
