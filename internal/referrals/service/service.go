// Package service recommends community and clinical referrals. Every referral appends
// ReferralCreated in the same unit of work.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	eventmodels "careflow/internal/events/models"
	"careflow/internal/referrals/models"
	id "careflow/pkg/domain"
	dErrors "careflow/pkg/domain-errors"
	"careflow/pkg/platform/sentinel"
	"careflow/pkg/platform/tx"
	"careflow/pkg/requestcontext"
)

type Store interface {
	Save(ctx context.Context, r *models.Referral) error
	ListByPatient(ctx context.Context, patientID id.PatientID) ([]*models.Referral, error)
}

type EventAppender interface {
	Append(ctx context.Context, eventType eventmodels.Type, payload eventmodels.Payload) (id.EventID, error)
}

type Service struct {
	store  Store
	events EventAppender
	tx     tx.Transactor
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store Store, events EventAppender, transactor tx.Transactor, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("referral store is required")
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

type CreateRequest struct {
	PatientID     id.PatientID
	Category      models.Category
	Reason        string
	SourceEventID id.EventID
	RuleID        id.RuleID
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Referral, error) {
	if req.PatientID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "referral patient is required")
	}
	if !req.Category.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown referral category %q", req.Category)
	}
	r := &models.Referral{
		ID:            id.NewReferralID(),
		PatientID:     req.PatientID,
		Category:      req.Category,
		Reason:        strings.TrimSpace(req.Reason),
		Status:        models.StatusRecommended,
		SourceEventID: req.SourceEventID,
		RuleID:        req.RuleID,
		CreatedAt:     requestcontext.Now(ctx),
	}

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Save(ctx, r); err != nil {
			return err
		}
		payload := eventmodels.Payload{
			"referral_id": r.ID.String(),
			"patient_id":  r.PatientID.String(),
			"category":    string(r.Category),
		}
		if !r.SourceEventID.IsNil() {
			payload["source_event_id"] = r.SourceEventID.String()
		}
		_, err := s.events.Append(ctx, eventmodels.TypeReferralCreated, payload)
		return err
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "referral already created for this event and rule")
		}
		return nil, err
	}
	s.logger.InfoContext(ctx, "referral created",
		"referral_id", r.ID.String(),
		"patient_id", r.PatientID.String(),
		"category", string(r.Category),
	)
	return r, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID id.PatientID) ([]*models.Referral, error) {
	return s.store.ListByPatient(ctx, patientID)
}
