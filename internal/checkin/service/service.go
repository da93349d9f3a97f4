// Package service records patient check-ins, raises CheckinUrgent when vitals or
// self-reports cross urgency thresholds, and optionally reassesses risk.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"careflow/internal/checkin/models"
	eventmodels "careflow/internal/events/models"
	riskmodels "careflow/internal/risk/models"
	riskservice "careflow/internal/risk/service"
	id "careflow/pkg/domain"
	"careflow/pkg/platform/tx"
	"careflow/pkg/requestcontext"
)

type Store interface {
	Save(ctx context.Context, c *models.Checkin) error
	ListByPatient(ctx context.Context, patientID id.PatientID, limit int) ([]*models.Checkin, error)
}

type EventAppender interface {
	Append(ctx context.Context, eventType eventmodels.Type, payload eventmodels.Payload) (id.EventID, error)
}

// RiskAssessor persists a reassessment. It must join the caller's unit of work.
type RiskAssessor interface {
	Assess(ctx context.Context, req riskservice.AssessRequest) (*riskmodels.Assessment, error)
}

type Service struct {
	store  Store
	events EventAppender
	risk   RiskAssessor
	tx     tx.Transactor
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithRiskAssessor enables reassessment for check-ins that carry baseline features.
func WithRiskAssessor(r RiskAssessor) Option {
	return func(s *Service) {
		s.risk = r
	}
}

func New(store Store, events EventAppender, transactor tx.Transactor, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("checkin store is required")
	}
	if events == nil {
		return nil, errors.New("event appender is required")
	}
	if transactor == nil {
		return nil, errors.New("transactor is required")
	}
	s := &Service{store: store, events: events, tx: transactor, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

type RecordRequest struct {
	PatientID        id.PatientID
	SymptomSeverity  int
	Mood             int
	MedicationTaken  bool
	HeartRate        *float64
	SystolicBP       *float64
	OxygenSaturation *float64
	Notes            string
	// Baseline, when set, triggers a reassessment with the check-in vitals merged in.
	Baseline *riskmodels.Features
}

type RecordResult struct {
	Checkin    *models.Checkin
	Urgency    models.Urgency
	EventID    *id.EventID
	Assessment *riskmodels.Assessment
}

// Record saves the check-in, appends CheckinUrgent when any signal fires, and runs
// the optional reassessment, all in one unit of work.
func (s *Service) Record(ctx context.Context, req RecordRequest) (*RecordResult, error) {
	c := &models.Checkin{
		ID:               id.NewCheckinID(),
		PatientID:        req.PatientID,
		SymptomSeverity:  req.SymptomSeverity,
		Mood:             req.Mood,
		MedicationTaken:  req.MedicationTaken,
		HeartRate:        req.HeartRate,
		SystolicBP:       req.SystolicBP,
		OxygenSaturation: req.OxygenSaturation,
		Notes:            strings.TrimSpace(req.Notes),
		CreatedAt:        requestcontext.Now(ctx),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.Signals = models.Evaluate(c)
	result := &RecordResult{Checkin: c, Urgency: models.UrgencyFor(c.Signals)}

	if req.Baseline != nil && s.risk == nil {
		s.logger.WarnContext(ctx, "reassessment requested but no risk assessor is configured",
			"patient_id", c.PatientID.String())
	}

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Save(ctx, c); err != nil {
			return err
		}
		if len(c.Signals) > 0 {
			eventID, err := s.events.Append(ctx, eventmodels.TypeCheckinUrgent, urgentPayload(c, result.Urgency))
			if err != nil {
				return err
			}
			result.EventID = &eventID
		}
		if req.Baseline != nil && s.risk != nil {
			assessment, err := s.risk.Assess(ctx, riskservice.AssessRequest{
				PatientID: c.PatientID,
				Features:  req.Baseline.Merge(vitals(c)),
				Source:    riskmodels.SourceCheckin,
			})
			if err != nil {
				return err
			}
			result.Assessment = assessment
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	level := slog.LevelInfo
	if len(c.Signals) > 0 {
		level = slog.LevelWarn
	}
	s.logger.Log(ctx, level, "checkin recorded",
		"checkin_id", c.ID.String(),
		"patient_id", c.PatientID.String(),
		"urgency", string(result.Urgency),
		"signal_count", len(c.Signals),
		"request_id", requestcontext.RequestID(ctx),
	)
	return result, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID id.PatientID, limit int) ([]*models.Checkin, error) {
	return s.store.ListByPatient(ctx, patientID, limit)
}

func vitals(c *models.Checkin) riskmodels.Features {
	return riskmodels.Features{
		HeartRate:        c.HeartRate,
		OxygenSaturation: c.OxygenSaturation,
		BloodPressure:    c.SystolicBP,
	}
}

func urgentPayload(c *models.Checkin, urgency models.Urgency) eventmodels.Payload {
	signals := make([]string, len(c.Signals))
	for i, sig := range c.Signals {
		signals[i] = string(sig)
	}
	p := eventmodels.Payload{
		"checkin_id":       c.ID.String(),
		"patient_id":       c.PatientID.String(),
		"signal_count":     len(signals),
		"signals":          signals,
		"urgency":          string(urgency),
		"symptom_severity": c.SymptomSeverity,
		"mood":             c.Mood,
		"medication_taken": c.MedicationTaken,
	}
	if c.OxygenSaturation != nil {
		p["oxygen_saturation"] = *c.OxygenSaturation
	}
	if c.HeartRate != nil {
		p["heart_rate"] = *c.HeartRate
	}
	if c.SystolicBP != nil {
		p["systolic_bp"] = *c.SystolicBP
	}
	return p
}
