package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,EventAppender

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	eventmodels "careflow/internal/events/models"
	"careflow/internal/risk/metrics"
	"careflow/internal/risk/models"
	"careflow/internal/risk/scoring"
	id "careflow/pkg/domain"
	dErrors "careflow/pkg/domain-errors"
	"careflow/pkg/platform/sentinel"
	"careflow/pkg/platform/tx"
	"careflow/pkg/requestcontext"
)

// Store persists assessments.
type Store interface {
	Save(ctx context.Context, a *models.Assessment) error
	FindByID(ctx context.Context, assessmentID id.AssessmentID) (*models.Assessment, error)
	ListByPatient(ctx context.Context, patientID id.PatientID) ([]*models.Assessment, error)
}

// EventAppender is the producer side of the domain event log.
type EventAppender interface {
	Append(ctx context.Context, eventType eventmodels.Type, payload eventmodels.Payload) (id.EventID, error)
}

// Service scores patients. Assess persists and emits AssessmentCreated; Preview only scores.
type Service struct {
	engine  *scoring.Engine
	store   Store
	events  EventAppender
	tx      tx.Transactor
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
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

func WithEngine(engine *scoring.Engine) Option {
	return func(s *Service) {
		s.engine = engine
	}
}

func New(store Store, events EventAppender, transactor tx.Transactor, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("assessment store is required")
	}
	if events == nil {
		return nil, errors.New("event appender is required")
	}
	if transactor == nil {
		return nil, errors.New("transactor is required")
	}
	engine, err := scoring.NewEngine(scoring.DefaultConfig())
	if err != nil {
		return nil, err
	}
	s := &Service{
		engine: engine,
		store:  store,
		events: events,
		tx:     transactor,
		logger: slog.Default(),
		tracer: otel.Tracer("careflow/risk"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// AssessRequest is the stored-path scoring input.
type AssessRequest struct {
	PatientID id.PatientID
	Features  models.Features
	Source    models.Source
}

// Assess scores the features, persists an Assessment, and appends AssessmentCreated
// in one unit of work. Validation errors happen before anything is written.
func (s *Service) Assess(ctx context.Context, req AssessRequest) (*models.Assessment, error) {
	ctx, span := s.tracer.Start(ctx, "risk.Assess")
	defer span.End()

	if req.PatientID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "patient ID is required")
	}
	if req.Source == "" {
		req.Source = models.SourceTriage
	}
	result, err := s.engine.Score(req.Features)
	if err != nil {
		return nil, err
	}

	assessment := &models.Assessment{
		ID:        id.NewAssessmentID(),
		PatientID: req.PatientID,
		Score:     result.Score,
		Level:     result.Level,
		Drivers:   result.Drivers,
		Features:  req.Features,
		Source:    req.Source,
		CreatedAt: requestcontext.Now(ctx),
	}
	payload := eventmodels.Payload{
		"assessment_id": assessment.ID.String(),
		"patient_id":    assessment.PatientID.String(),
		"risk_score":    assessment.Score,
		"risk_level":    string(assessment.Level),
		"drivers":       assessment.DriverFeatures(),
		"source":        string(assessment.Source),
	}
	if req.Features.Age != nil {
		payload["patient_age"] = *req.Features.Age
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Save(ctx, assessment); err != nil {
			return err
		}
		_, err := s.events.Append(ctx, eventmodels.TypeAssessmentCreated, payload)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "assess failed")
		return nil, err
	}

	span.SetAttributes(
		attribute.String("risk.level", string(assessment.Level)),
		attribute.Float64("risk.score", assessment.Score),
	)
	s.metrics.ObserveAssessment(string(assessment.Level), string(assessment.Source), assessment.Score)
	s.logger.InfoContext(ctx, "assessment created",
		"assessment_id", assessment.ID.String(),
		"patient_id", assessment.PatientID.String(),
		"risk_level", string(assessment.Level),
		"request_id", requestcontext.RequestID(ctx),
	)
	return assessment, nil
}

// Preview scores without persistence or event emission.
func (s *Service) Preview(_ context.Context, features models.Features) (models.Result, error) {
	result, err := s.engine.Score(features)
	if err != nil {
		return models.Result{}, err
	}
	s.metrics.IncPreview()
	return result, nil
}

func (s *Service) Get(ctx context.Context, assessmentID id.AssessmentID) (*models.Assessment, error) {
	a, err := s.store.FindByID(ctx, assessmentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "assessment not found")
		}
		return nil, err
	}
	return a, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID id.PatientID) ([]*models.Assessment, error) {
	return s.store.ListByPatient(ctx, patientID)
}
