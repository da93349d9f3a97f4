// Package service is the alert and escalation policy: it persists alerts raised by
// workflow rules and hands them to the notification collaborator once committed.
package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"careflow/internal/alerts/metrics"
	"careflow/internal/alerts/models"
	"careflow/internal/alerts/notify"
	id "careflow/pkg/domain"
	dErrors "careflow/pkg/domain-errors"
	"careflow/pkg/platform/sentinel"
	"careflow/pkg/platform/tx"
	"careflow/pkg/requestcontext"
)

type Store interface {
	Save(ctx context.Context, a *models.Alert) error
	ListByPatient(ctx context.Context, patientID id.PatientID, limit int) ([]*models.Alert, error)
	ListBySourceEvent(ctx context.Context, eventID id.EventID) ([]*models.Alert, error)
	ListRecent(ctx context.Context, limit int) ([]*models.Alert, error)
}

type Service struct {
	store         Store
	notifier      notify.Notifier
	notifyTimeout time.Duration
	logger        *slog.Logger
	metrics       *metrics.Metrics
	tracer        trace.Tracer
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

func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

func WithNotifyTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.notifyTimeout = d
		}
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("alert store is required")
	}
	s := &Service{
		store:         store,
		notifyTimeout: 2 * time.Second,
		logger:        slog.Default(),
		tracer:        otel.Tracer("careflow/alerts"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.notifier == nil {
		s.notifier = notify.NewLogNotifier(s.logger)
	}
	return s, nil
}

type CreateRequest struct {
	PatientID     id.PatientID
	Severity      models.Severity
	Reason        string
	SourceEventID id.EventID
	RuleID        id.RuleID
}

// CreateAlert persists a new alert. When called inside a unit of work the
// notification is sent only after that unit commits. A second alert for the same
// (source event, rule) pair is a conflict.
func (s *Service) CreateAlert(ctx context.Context, req CreateRequest) (*models.Alert, error) {
	return s.create(ctx, req, false)
}

// Escalate raises an escalation alert. Severity defaults to URGENT.
func (s *Service) Escalate(ctx context.Context, req CreateRequest) (*models.Alert, error) {
	if req.Severity == "" {
		req.Severity = models.SeverityUrgent
	}
	return s.create(ctx, req, true)
}

func (s *Service) create(ctx context.Context, req CreateRequest, escalation bool) (*models.Alert, error) {
	reason := strings.TrimSpace(req.Reason)
	if req.PatientID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "alert patient is required")
	}
	if !req.Severity.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown alert severity %q", req.Severity)
	}
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "alert reason is required")
	}

	a := &models.Alert{
		ID:            id.NewAlertID(),
		PatientID:     req.PatientID,
		Severity:      req.Severity,
		Reason:        reason,
		SourceEventID: req.SourceEventID,
		RuleID:        req.RuleID,
		Escalation:    escalation,
		CreatedAt:     requestcontext.Now(ctx),
	}
	if err := s.store.Save(ctx, a); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "alert already raised for this event and rule")
		}
		return nil, err
	}
	s.metrics.IncCreated(string(a.Severity), a.Escalation)
	s.logger.InfoContext(ctx, "alert created",
		"alert_id", a.ID.String(),
		"patient_id", a.PatientID.String(),
		"severity", string(a.Severity),
		"escalation", a.Escalation,
	)

	created := *a
	tx.AfterCommit(ctx, func(ctx context.Context) {
		s.notify(ctx, &created)
	})
	return a, nil
}

// notify never fails the caller; delivery errors are logged and counted.
func (s *Service) notify(ctx context.Context, a *models.Alert) {
	ctx, span := s.tracer.Start(ctx, "alerts.Notify", trace.WithAttributes(
		attribute.String("alert.id", a.ID.String()),
		attribute.String("alert.severity", string(a.Severity)),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
	defer cancel()

	n := notify.Notification{
		AlertID:    a.ID.String(),
		PatientID:  a.PatientID.String(),
		Severity:   string(a.Severity),
		Reason:     a.Reason,
		Escalation: a.Escalation,
		CreatedAt:  a.CreatedAt,
	}
	if !a.SourceEventID.IsNil() {
		n.SourceEventID = a.SourceEventID.String()
	}

	start := time.Now()
	err := s.notifier.Notify(ctx, n)
	s.metrics.ObserveNotify(time.Since(start).Seconds(), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "notification failed")
		s.logger.WarnContext(ctx, "alert notification failed",
			"alert_id", a.ID.String(),
			"error", err,
		)
	}
}

func (s *Service) ListByPatient(ctx context.Context, patientID id.PatientID, limit int) ([]*models.Alert, error) {
	return s.store.ListByPatient(ctx, patientID, limit)
}

func (s *Service) ListBySourceEvent(ctx context.Context, eventID id.EventID) ([]*models.Alert, error) {
	return s.store.ListBySourceEvent(ctx, eventID)
}

func (s *Service) ListRecent(ctx context.Context, limit int) ([]*models.Alert, error) {
	return s.store.ListRecent(ctx, limit)
}
