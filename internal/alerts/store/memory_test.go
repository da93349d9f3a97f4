package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"careflow/internal/alerts/models"
	id "careflow/pkg/domain"
	"careflow/pkg/platform/sentinel"
	"careflow/pkg/platform/tx"
)

type InMemoryAlertStoreSuite struct {
	suite.Suite
	store   *InMemory
	ctx     context.Context
	patient id.PatientID
}

func TestInMemoryAlertStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryAlertStoreSuite))
}

func (s *InMemoryAlertStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.patient = id.PatientID(uuid.New())
}

func (s *InMemoryAlertStoreSuite) alert(event id.EventID, rule id.RuleID, at time.Time) *models.Alert {
	return &models.Alert{
		ID:            id.NewAlertID(),
		PatientID:     s.patient,
		Severity:      models.SeverityWarning,
		Reason:        "high risk",
		SourceEventID: event,
		RuleID:        rule,
		CreatedAt:     at,
	}
}

func (s *InMemoryAlertStoreSuite) TestDuplicateSourceRuleConflicts() {
	event, rule := id.NewEventID(), id.NewRuleID()
	now := time.Now()
	s.Require().NoError(s.store.Save(s.ctx, s.alert(event, rule, now)))

	err := s.store.Save(s.ctx, s.alert(event, rule, now))
	s.ErrorIs(err, sentinel.ErrConflict)

	s.Run("manual alerts are never deduplicated", func() {
		s.Require().NoError(s.store.Save(s.ctx, s.alert(id.EventID{}, id.RuleID{}, now)))
		s.Require().NoError(s.store.Save(s.ctx, s.alert(id.EventID{}, id.RuleID{}, now)))
	})
}

func (s *InMemoryAlertStoreSuite) TestListNewestFirst() {
	base := time.Now()
	first := s.alert(id.NewEventID(), id.NewRuleID(), base)
	second := s.alert(id.NewEventID(), id.NewRuleID(), base.Add(time.Minute))
	s.Require().NoError(s.store.Save(s.ctx, first))
	s.Require().NoError(s.store.Save(s.ctx, second))

	got, err := s.store.ListByPatient(s.ctx, s.patient, 10)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(second.ID, got[0].ID)

	got, err = s.store.ListRecent(s.ctx, 1)
	s.Require().NoError(err)
	s.Len(got, 1)
}

func (s *InMemoryAlertStoreSuite) TestRollbackRemovesAlert() {
	event, rule := id.NewEventID(), id.NewRuleID()
	boom := errors.New("boom")
	err := tx.NewMemory().RunInTx(s.ctx, func(ctx context.Context) error {
		s.Require().NoError(s.store.Save(ctx, s.alert(event, rule, time.Now())))
		return boom
	})
	s.ErrorIs(err, boom)

	got, err := s.store.ListBySourceEvent(s.ctx, event)
	s.Require().NoError(err)
	s.Empty(got)
	// the pair is free again
	s.NoError(s.store.Save(s.ctx, s.alert(event, rule, time.Now())))
}
