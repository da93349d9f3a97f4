// Package service applies admission transitions and emits their domain events in the
// same unit of work.
package service

import (
	"context"
	"errors"
	"log/slog"

	"careflow/internal/admission/metrics"
	"careflow/internal/admission/models"
	eventmodels "careflow/internal/events/models"
	id "careflow/pkg/domain"
	dErrors "careflow/pkg/domain-errors"
	audit "careflow/pkg/platform/audit"
	"careflow/pkg/platform/sentinel"
	"careflow/pkg/platform/tx"
	"careflow/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, a *models.Admission) error
	FindByID(ctx context.Context, admissionID id.AdmissionID) (*models.Admission, error)
	FindActiveByBed(ctx context.Context, bedID id.BedID) (*models.Admission, error)
	UpdateIfVersion(ctx context.Context, a *models.Admission, expectedVersion int64) error
}

type EventAppender interface {
	Append(ctx context.Context, eventType eventmodels.Type, payload eventmodels.Payload) (id.EventID, error)
}

type Auditor interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store   Store
	events  EventAppender
	tx      tx.Transactor
	auditor Auditor
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

// WithAuditor records every committed transition in the audit trail.
func WithAuditor(a Auditor) Option {
	return func(s *Service) {
		s.auditor = a
	}
}

func New(store Store, events EventAppender, transactor tx.Transactor, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("admission store is required")
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

type AdmitRequest struct {
	PatientID  id.PatientID
	BedID      id.BedID
	WardID     id.WardID
	PatientAge *int
}

// Admit places a patient in a bed. A bed with a non-discharged admission, or a patient
// who is already admitted, yields a conflict and writes nothing.
func (s *Service) Admit(ctx context.Context, req AdmitRequest) (*models.Admission, error) {
	if req.PatientID.IsNil() || req.BedID.IsNil() || req.WardID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "patient, bed, and ward are required")
	}
	if req.PatientAge != nil && (*req.PatientAge < 0 || *req.PatientAge > 130) {
		return nil, dErrors.New(dErrors.CodeValidation, "patient age must be between 0 and 130")
	}
	a := &models.Admission{
		ID:         id.NewAdmissionID(),
		PatientID:  req.PatientID,
		BedID:      req.BedID,
		WardID:     req.WardID,
		Status:     models.StatusAdmitted,
		PatientAge: req.PatientAge,
		AdmittedAt: requestcontext.Now(ctx),
		Version:    1,
	}
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Create(ctx, a); err != nil {
			return err
		}
		payload := basePayload(a)
		payload["bed_id"] = a.BedID.String()
		if _, err := s.events.Append(ctx, eventmodels.TypeAdmissionCreated, payload); err != nil {
			return err
		}
		return s.audit(ctx, audit.ActionPatientAdmitted, a, "bed "+a.BedID.String())
	})
	if err != nil {
		return nil, s.reject(ctx, "admit", err, "bed or patient already has an active admission")
	}
	s.committed(ctx, "admit", a)
	return a, nil
}

type TransferRequest struct {
	BedID  id.BedID
	WardID id.WardID
}

// Transfer moves an active admission to a free bed.
func (s *Service) Transfer(ctx context.Context, admissionID id.AdmissionID, req TransferRequest) (*models.Admission, error) {
	a, err := s.load(ctx, admissionID)
	if err != nil {
		return nil, err
	}
	fromBed := a.BedID
	expected := a.Version
	if err := a.Transfer(req.BedID, req.WardID, requestcontext.Now(ctx)); err != nil {
		s.metrics.IncRejection("transfer", codeLabel(err))
		return nil, err
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.UpdateIfVersion(ctx, a, expected); err != nil {
			return err
		}
		payload := basePayload(a)
		payload["from_bed_id"] = fromBed.String()
		payload["to_bed_id"] = a.BedID.String()
		if _, err := s.events.Append(ctx, eventmodels.TypeAdmissionTransferred, payload); err != nil {
			return err
		}
		return s.audit(ctx, audit.ActionPatientTransferred, a, "bed "+fromBed.String()+" -> "+a.BedID.String())
	})
	if err != nil {
		return nil, s.reject(ctx, "transfer", err, "target bed is occupied or admission changed concurrently")
	}
	s.committed(ctx, "transfer", a)
	return a, nil
}

// Discharge ends an admission and frees its bed.
func (s *Service) Discharge(ctx context.Context, admissionID id.AdmissionID) (*models.Admission, error) {
	a, err := s.load(ctx, admissionID)
	if err != nil {
		return nil, err
	}
	expected := a.Version
	if err := a.Discharge(requestcontext.Now(ctx)); err != nil {
		s.metrics.IncRejection("discharge", codeLabel(err))
		return nil, err
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.UpdateIfVersion(ctx, a, expected); err != nil {
			return err
		}
		payload := basePayload(a)
		payload["bed_id"] = a.BedID.String()
		if _, err := s.events.Append(ctx, eventmodels.TypeAdmissionDischarged, payload); err != nil {
			return err
		}
		return s.audit(ctx, audit.ActionPatientDischarged, a, "")
	})
	if err != nil {
		return nil, s.reject(ctx, "discharge", err, "admission changed concurrently")
	}
	s.committed(ctx, "discharge", a)
	return a, nil
}

func (s *Service) Get(ctx context.Context, admissionID id.AdmissionID) (*models.Admission, error) {
	return s.load(ctx, admissionID)
}

func (s *Service) load(ctx context.Context, admissionID id.AdmissionID) (*models.Admission, error) {
	a, err := s.store.FindByID(ctx, admissionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "admission not found")
		}
		return nil, err
	}
	return a, nil
}

// reject translates store conflicts; every other error passes through unchanged.
func (s *Service) reject(ctx context.Context, transition string, err error, conflictMsg string) error {
	if errors.Is(err, sentinel.ErrConflict) {
		err = dErrors.Wrap(err, dErrors.CodeConflict, conflictMsg)
	}
	s.metrics.IncRejection(transition, codeLabel(err))
	s.logger.WarnContext(ctx, "admission transition rejected",
		"transition", transition,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	return err
}

func (s *Service) audit(ctx context.Context, action audit.Action, a *models.Admission, detail string) error {
	if s.auditor == nil {
		return nil
	}
	return s.auditor.Emit(ctx, audit.Event{
		Action:     action,
		Resource:   audit.ResourceAdmission,
		ResourceID: a.ID.String(),
		PatientID:  a.PatientID.String(),
		Detail:     detail,
	})
}

func (s *Service) committed(ctx context.Context, transition string, a *models.Admission) {
	s.metrics.IncTransition(transition)
	s.logger.InfoContext(ctx, "admission transition committed",
		"transition", transition,
		"admission_id", a.ID.String(),
		"status", string(a.Status),
		"request_id", requestcontext.RequestID(ctx),
	)
}

func basePayload(a *models.Admission) eventmodels.Payload {
	p := eventmodels.Payload{
		"admission_id": a.ID.String(),
		"patient_id":   a.PatientID.String(),
		"ward_id":      a.WardID.String(),
	}
	if a.PatientAge != nil {
		p["patient_age"] = *a.PatientAge
	}
	return p
}

func codeLabel(err error) string {
	if code, ok := dErrors.CodeOf(err); ok {
		return string(code)
	}
	return "error"
}
