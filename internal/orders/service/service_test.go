package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"careflow/internal/events"
	eventmodels "careflow/internal/events/models"
	eventstore "careflow/internal/events/store"
	"careflow/internal/orders/metrics"
	"careflow/internal/orders/models"
	"careflow/internal/orders/service/mocks"
	"careflow/internal/orders/store"
	id "careflow/pkg/domain"
	dErrors "careflow/pkg/domain-errors"
	audit "careflow/pkg/platform/audit"
	"careflow/pkg/platform/audit/publishers/compliance"
	auditmemory "careflow/pkg/platform/audit/store/memory"
	"careflow/pkg/platform/tx"
)

type OrderServiceSuite struct {
	suite.Suite
	store   *store.InMemory
	events  *eventstore.InMemory
	metrics *metrics.Metrics
	service *Service
	ctx     context.Context
	patient id.PatientID
}

func TestOrderServiceSuite(t *testing.T) {
	suite.Run(t, new(OrderServiceSuite))
}

func (s *OrderServiceSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.events = eventstore.NewInMemory()
	log, err := events.New(s.events)
	s.Require().NoError(err)
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.service, err = New(s.store, log, tx.NewMemory(),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(s.metrics),
	)
	s.Require().NoError(err)
	s.ctx = context.Background()
	s.patient = id.PatientID(uuid.New())
}

func (s *OrderServiceSuite) pending() []*eventmodels.Event {
	pending, err := s.events.ListPending(s.ctx, 100)
	s.Require().NoError(err)
	return pending
}

func field(e *eventmodels.Event, name string) string {
	v, _ := e.Payload.String(name)
	return v
}

func (s *OrderServiceSuite) TestPlace() {
	s.Run("lab order defaults to routine priority", func() {
		o, err := s.service.PlaceLab(s.ctx, LabRequest{PatientID: s.patient, TestName: " CBC "})
		s.Require().NoError(err)
		s.Equal(models.StatusOrdered, o.Status)
		s.Equal(models.PriorityRoutine, o.Priority)
		s.Equal("CBC", o.TestName)
	})

	s.Run("unknown lab priority is rejected", func() {
		_, err := s.service.PlaceLab(s.ctx, LabRequest{PatientID: s.patient, TestName: "CBC", Priority: "asap"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("medication name is required", func() {
		_, err := s.service.PlaceMedication(s.ctx, MedicationRequest{PatientID: s.patient, Medication: "  "})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("placing emits no event", func() {
		_, err := s.service.PlaceMedication(s.ctx, MedicationRequest{PatientID: s.patient, Medication: "metformin", Dose: "500mg"})
		s.Require().NoError(err)
		s.Empty(s.pending())
		s.Equal(float64(1), testutil.ToFloat64(s.metrics.Placed.WithLabelValues("medication")))
	})
}

func (s *OrderServiceSuite) TestMarkStatus() {
	s.Run("skipping IN_PROGRESS fails and keeps ORDERED", func() {
		o, err := s.service.PlaceLab(s.ctx, LabRequest{PatientID: s.patient, TestName: "troponin", Priority: models.PriorityStat})
		s.Require().NoError(err)

		_, err = s.service.MarkStatus(s.ctx, models.KindLab, o.ID, models.StatusCompleted)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))

		stored, err := s.service.Get(s.ctx, models.KindLab, o.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusOrdered, stored.Status)
		s.Empty(s.pending())
	})

	s.Run("each committed edge appends one event", func() {
		o, err := s.service.PlaceLab(s.ctx, LabRequest{PatientID: s.patient, TestName: "lactate", Priority: models.PriorityUrgent})
		s.Require().NoError(err)
		before := len(s.pending())

		_, err = s.service.MarkStatus(s.ctx, models.KindLab, o.ID, models.StatusInProgress)
		s.Require().NoError(err)
		done, err := s.service.MarkStatus(s.ctx, models.KindLab, o.ID, models.StatusCompleted)
		s.Require().NoError(err)
		s.Equal(models.StatusCompleted, done.Status)

		pending := s.pending()
		s.Require().Len(pending, before+2)
		last := pending[len(pending)-1]
		s.Equal(eventmodels.TypeLabOrderStatusChanged, last.Type)
		s.Equal("IN_PROGRESS", field(last, "from_status"))
		s.Equal("COMPLETED", field(last, "to_status"))
		s.Equal("urgent", field(last, "priority"))
		s.Equal("lactate", field(last, "test_name"))
	})

	s.Run("medication cancel from ORDERED", func() {
		o, err := s.service.PlaceMedication(s.ctx, MedicationRequest{PatientID: s.patient, Medication: "warfarin"})
		s.Require().NoError(err)
		_, err = s.service.MarkStatus(s.ctx, models.KindMedication, o.ID, models.StatusCancelled)
		s.Require().NoError(err)

		pending := s.pending()
		last := pending[len(pending)-1]
		s.Equal(eventmodels.TypeMedicationOrderStatusChanged, last.Type)
		s.Equal("warfarin", field(last, "medication"))
		s.Equal(float64(1), testutil.ToFloat64(s.metrics.Transitions.WithLabelValues("medication", "CANCELLED")))
	})

	s.Run("wrong kind is not found", func() {
		o, err := s.service.PlaceMedication(s.ctx, MedicationRequest{PatientID: s.patient, Medication: "aspirin"})
		s.Require().NoError(err)
		_, err = s.service.MarkStatus(s.ctx, models.KindLab, o.ID, models.StatusInProgress)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *OrderServiceSuite) TestAppendFailureLeavesStatus() {
	ctrl := gomock.NewController(s.T())
	mockStore := mocks.NewMockStore(ctrl)
	mockEvents := mocks.NewMockEventAppender(ctrl)
	svc, err := New(mockStore, mockEvents, tx.NewMemory(), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.Require().NoError(err)

	order := &models.Order{ID: id.NewOrderID(), Kind: models.KindMedication, PatientID: s.patient, Status: models.StatusOrdered}
	boom := errors.New("event log unavailable")

	mockStore.EXPECT().FindByID(gomock.Any(), models.KindMedication, order.ID).Return(order.Clone(), nil)
	mockStore.EXPECT().UpdateIfStatus(gomock.Any(), gomock.Any(), models.StatusOrdered).Return(nil)
	mockEvents.EXPECT().Append(gomock.Any(), eventmodels.TypeMedicationOrderStatusChanged, gomock.Any()).Return(id.EventID{}, boom)

	_, err = svc.MarkStatus(s.ctx, models.KindMedication, order.ID, models.StatusInProgress)
	s.ErrorIs(err, boom)
}

func (s *OrderServiceSuite) TestStatusChangeIsAudited() {
	trail := auditmemory.NewInMemoryStore()
	log, err := events.New(s.events)
	s.Require().NoError(err)
	svc, err := New(s.store, log, tx.NewMemory(), WithAuditor(compliance.New(trail)))
	s.Require().NoError(err)

	o, err := svc.PlaceMedication(s.ctx, MedicationRequest{PatientID: s.patient, Medication: "heparin", Dose: "5000 IU"})
	s.Require().NoError(err)
	_, err = svc.MarkStatus(s.ctx, models.KindMedication, o.ID, models.StatusInProgress)
	s.Require().NoError(err)

	entries, err := trail.ListRecent(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(entries, 1, "placing an order is not audited, only status changes")
	s.Equal(audit.ActionOrderStatusChanged, entries[0].Action)
	s.Equal("medication ORDERED -> IN_PROGRESS", entries[0].Detail)
	s.Equal(compliance.SystemActor, entries[0].Actor)
}
