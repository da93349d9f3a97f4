package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"careflow/internal/alerts/metrics"
	"careflow/internal/alerts/models"
	"careflow/internal/alerts/notify"
	"careflow/internal/alerts/service/mocks"
	"careflow/internal/alerts/store"
	id "careflow/pkg/domain"
	dErrors "careflow/pkg/domain-errors"
	"careflow/pkg/platform/tx"
)

type captureNotifier struct {
	mu   sync.Mutex
	sent []notify.Notification
	err  error
}

func (c *captureNotifier) Notify(_ context.Context, n notify.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, n)
	return c.err
}

type AlertServiceSuite struct {
	suite.Suite
	store    *store.InMemory
	notifier *captureNotifier
	metrics  *metrics.Metrics
	service  *Service
	ctx      context.Context
	patient  id.PatientID
}

func TestAlertServiceSuite(t *testing.T) {
	suite.Run(t, new(AlertServiceSuite))
}

func (s *AlertServiceSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.notifier = &captureNotifier{}
	s.metrics = metrics.New(prometheus.NewRegistry())
	var err error
	s.service, err = New(s.store,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(s.metrics),
		WithNotifier(s.notifier),
	)
	s.Require().NoError(err)
	s.ctx = context.Background()
	s.patient = id.PatientID(uuid.New())
}

func (s *AlertServiceSuite) TestCreateAlert() {
	s.Run("validates input", func() {
		_, err := s.service.CreateAlert(s.ctx, CreateRequest{PatientID: s.patient, Severity: "LOUD", Reason: "x"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		_, err = s.service.CreateAlert(s.ctx, CreateRequest{PatientID: s.patient, Severity: models.SeverityInfo, Reason: "  "})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("outside a unit notifies immediately", func() {
		a, err := s.service.CreateAlert(s.ctx, CreateRequest{PatientID: s.patient, Severity: models.SeverityWarning, Reason: "risk HIGH"})
		s.Require().NoError(err)
		s.False(a.Escalation)
		s.Require().Len(s.notifier.sent, 1)
		s.Equal(a.ID.String(), s.notifier.sent[0].AlertID)
		s.Empty(s.notifier.sent[0].SourceEventID)
		s.Equal(float64(1), testutil.ToFloat64(s.metrics.Created.WithLabelValues("WARNING", "false")))
	})
}

func (s *AlertServiceSuite) TestNotifyFollowsCommit() {
	transactor := tx.NewMemory()
	event, rule := id.NewEventID(), id.NewRuleID()

	err := transactor.RunInTx(s.ctx, func(ctx context.Context) error {
		_, err := s.service.CreateAlert(ctx, CreateRequest{
			PatientID: s.patient, Severity: models.SeverityUrgent, Reason: "r", SourceEventID: event, RuleID: rule,
		})
		s.Require().NoError(err)
		return errors.New("later action failed")
	})
	s.Require().Error(err)
	s.Empty(s.notifier.sent, "rolled back alerts are never announced")

	stored, err := s.service.ListBySourceEvent(s.ctx, event)
	s.Require().NoError(err)
	s.Empty(stored)

	err = transactor.RunInTx(s.ctx, func(ctx context.Context) error {
		_, err := s.service.CreateAlert(ctx, CreateRequest{
			PatientID: s.patient, Severity: models.SeverityUrgent, Reason: "r", SourceEventID: event, RuleID: rule,
		})
		return err
	})
	s.Require().NoError(err)
	s.Require().Len(s.notifier.sent, 1)
	s.Equal(event.String(), s.notifier.sent[0].SourceEventID)
}

func (s *AlertServiceSuite) TestDuplicateEventRuleConflicts() {
	event, rule := id.NewEventID(), id.NewRuleID()
	req := CreateRequest{PatientID: s.patient, Severity: models.SeverityWarning, Reason: "r", SourceEventID: event, RuleID: rule}
	_, err := s.service.CreateAlert(s.ctx, req)
	s.Require().NoError(err)

	_, err = s.service.CreateAlert(s.ctx, req)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *AlertServiceSuite) TestEscalateDefaultsToUrgent() {
	a, err := s.service.Escalate(s.ctx, CreateRequest{PatientID: s.patient, Reason: "urgent check-in"})
	s.Require().NoError(err)
	s.Equal(models.SeverityUrgent, a.Severity)
	s.True(a.Escalation)
	s.True(s.notifier.sent[0].Escalation)
}

func (s *AlertServiceSuite) TestNotifierFailureKeepsAlert() {
	s.notifier.err = errors.New("pager offline")
	a, err := s.service.CreateAlert(s.ctx, CreateRequest{PatientID: s.patient, Severity: models.SeverityInfo, Reason: "lab done"})
	s.Require().NoError(err)

	stored, err := s.service.ListByPatient(s.ctx, s.patient, 10)
	s.Require().NoError(err)
	s.Require().Len(stored, 1)
	s.Equal(a.ID, stored[0].ID)
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.NotifyErrors))
}

func (s *AlertServiceSuite) TestStoreErrorPropagates() {
	ctrl := gomock.NewController(s.T())
	mockStore := mocks.NewMockStore(ctrl)
	svc, err := New(mockStore, WithNotifier(s.notifier), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.Require().NoError(err)

	down := errors.New("connection refused")
	mockStore.EXPECT().Save(gomock.Any(), gomock.Any()).Return(down)

	_, err = svc.CreateAlert(s.ctx, CreateRequest{PatientID: s.patient, Severity: models.SeverityInfo, Reason: "r"})
	s.ErrorIs(err, down)
	s.Empty(s.notifier.sent)
}
