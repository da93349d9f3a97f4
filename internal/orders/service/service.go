// Package service places medication and lab orders and walks them through their
// lifecycle, emitting a status change event with every committed transition.
package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,EventAppender

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	eventmodels "careflow/internal/events/models"
	"careflow/internal/orders/metrics"
	"careflow/internal/orders/models"
	id "careflow/pkg/domain"
	dErrors "careflow/pkg/domain-errors"
	audit "careflow/pkg/platform/audit"
	"careflow/pkg/platform/sentinel"
	"careflow/pkg/platform/tx"
	"careflow/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, o *models.Order) error
	FindByID(ctx context.Context, kind models.Kind, orderID id.OrderID) (*models.Order, error)
	UpdateIfStatus(ctx context.Context, o *models.Order, expected models.Status) error
}

type EventAppender interface {
	Append(ctx context.Context, eventType eventmodels.Type, payload eventmodels.Payload) (id.EventID, error)
}

// Auditor records status changes inside the unit of work that commits them.
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

func WithAuditor(a Auditor) Option {
	return func(s *Service) {
		s.auditor = a
	}
}

func New(store Store, events EventAppender, transactor tx.Transactor, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("order store is required")
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

type MedicationRequest struct {
	PatientID  id.PatientID
	Medication string
	Dose       string
}

type LabRequest struct {
	PatientID id.PatientID
	TestName  string
	Priority  models.LabPriority
}

// PlaceMedication records a new medication order in ORDERED.
func (s *Service) PlaceMedication(ctx context.Context, req MedicationRequest) (*models.Order, error) {
	medication := strings.TrimSpace(req.Medication)
	if req.PatientID.IsNil() || medication == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "patient and medication are required")
	}
	o := s.newOrder(ctx, models.KindMedication, req.PatientID)
	o.Medication = medication
	o.Dose = strings.TrimSpace(req.Dose)
	return s.place(ctx, o)
}

// PlaceLab records a new lab order in ORDERED. Priority defaults to routine.
func (s *Service) PlaceLab(ctx context.Context, req LabRequest) (*models.Order, error) {
	testName := strings.TrimSpace(req.TestName)
	if req.PatientID.IsNil() || testName == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "patient and test name are required")
	}
	priority := req.Priority
	if priority == "" {
		priority = models.PriorityRoutine
	}
	if !priority.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown lab priority %q", priority)
	}
	o := s.newOrder(ctx, models.KindLab, req.PatientID)
	o.TestName = testName
	o.Priority = priority
	return s.place(ctx, o)
}

func (s *Service) newOrder(ctx context.Context, kind models.Kind, patientID id.PatientID) *models.Order {
	now := requestcontext.Now(ctx)
	return &models.Order{
		ID:        id.NewOrderID(),
		Kind:      kind,
		PatientID: patientID,
		Status:    models.StatusOrdered,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Service) place(ctx context.Context, o *models.Order) (*models.Order, error) {
	if err := s.store.Create(ctx, o); err != nil {
		return nil, err
	}
	s.metrics.IncPlaced(string(o.Kind))
	s.logger.InfoContext(ctx, "order placed",
		"kind", string(o.Kind),
		"order_id", o.ID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return o, nil
}

// MarkStatus moves an order along an allowed edge and appends the matching status
// change event in the same unit of work. A disallowed edge fails with an invalid
// transition error and the stored status is left unchanged.
func (s *Service) MarkStatus(ctx context.Context, kind models.Kind, orderID id.OrderID, next models.Status) (*models.Order, error) {
	if !kind.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown order kind %q", kind)
	}
	o, err := s.Get(ctx, kind, orderID)
	if err != nil {
		return nil, err
	}
	from := o.Status
	if err := o.MarkStatus(next, requestcontext.Now(ctx)); err != nil {
		s.metrics.IncRejection(string(kind), codeLabel(err))
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.UpdateIfStatus(ctx, o, from); err != nil {
			return err
		}
		if _, err := s.events.Append(ctx, eventTypeFor(kind), statusPayload(o, from)); err != nil {
			return err
		}
		if s.auditor == nil {
			return nil
		}
		return s.auditor.Emit(ctx, audit.Event{
			Action:     audit.ActionOrderStatusChanged,
			Resource:   audit.ResourceOrder,
			ResourceID: o.ID.String(),
			PatientID:  o.PatientID.String(),
			Detail:     string(kind) + " " + string(from) + " -> " + string(next),
		})
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			err = dErrors.Wrap(err, dErrors.CodeConflict, "order changed concurrently")
		}
		s.metrics.IncRejection(string(kind), codeLabel(err))
		s.logger.WarnContext(ctx, "order status change rejected",
			"kind", string(kind),
			"order_id", orderID.String(),
			"to_status", string(next),
			"error", err,
		)
		return nil, err
	}

	s.metrics.IncTransition(string(kind), string(next))
	s.logger.InfoContext(ctx, "order status changed",
		"kind", string(kind),
		"order_id", o.ID.String(),
		"from_status", string(from),
		"to_status", string(next),
		"request_id", requestcontext.RequestID(ctx),
	)
	return o, nil
}

func (s *Service) Get(ctx context.Context, kind models.Kind, orderID id.OrderID) (*models.Order, error) {
	o, err := s.store.FindByID(ctx, kind, orderID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "%s order not found", kind)
		}
		return nil, err
	}
	return o, nil
}

func eventTypeFor(kind models.Kind) eventmodels.Type {
	if kind == models.KindLab {
		return eventmodels.TypeLabOrderStatusChanged
	}
	return eventmodels.TypeMedicationOrderStatusChanged
}

func statusPayload(o *models.Order, from models.Status) eventmodels.Payload {
	p := eventmodels.Payload{
		"order_id":    o.ID.String(),
		"patient_id":  o.PatientID.String(),
		"from_status": string(from),
		"to_status":   string(o.Status),
	}
	switch o.Kind {
	case models.KindMedication:
		p["medication"] = o.Medication
	case models.KindLab:
		p["priority"] = string(o.Priority)
		p["test_name"] = o.TestName
	}
	return p
}

func codeLabel(err error) string {
	if code, ok := dErrors.CodeOf(err); ok {
		return string(code)
	}
	return "error"
}
