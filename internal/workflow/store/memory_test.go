package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	eventmodels "careflow/internal/events/models"
	"careflow/internal/workflow/models"
	id "careflow/pkg/domain"
	"careflow/pkg/platform/sentinel"
	"careflow/pkg/platform/tx"
)

type InMemoryRuleStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestInMemoryRuleStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryRuleStoreSuite))
}

func (s *InMemoryRuleStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func rule(name string, priority int, active bool) *models.Rule {
	now := time.Now()
	return &models.Rule{
		ID:          id.NewRuleID(),
		Name:        name,
		TriggerType: eventmodels.TypeCheckinUrgent,
		Action:      models.Action{Kind: models.ActionEscalate},
		Priority:    priority,
		Active:      active,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (s *InMemoryRuleStoreSuite) TestCreate() {
	s.Require().NoError(s.store.Create(s.ctx, rule("Escalate", 10, true)))

	err := s.store.Create(s.ctx, rule("escalate", 20, true))
	s.ErrorIs(err, sentinel.ErrConflict, "names are unique ignoring case")
}

func (s *InMemoryRuleStoreSuite) TestSnapshot() {
	s.Require().NoError(s.store.Create(s.ctx, rule("a", 10, true)))
	s.Require().NoError(s.store.Create(s.ctx, rule("b", 50, true)))
	s.Require().NoError(s.store.Create(s.ctx, rule("c", 99, false)))

	snap, err := s.store.Snapshot(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(3), snap.Version)
	s.Require().Len(snap.Rules, 2)
	s.Equal("b", snap.Rules[0].Name)

	s.Run("snapshot is isolated from later writes", func() {
		r := snap.Rules[0].Clone()
		r.Active = false
		r.Version = 2
		s.Require().NoError(s.store.Update(s.ctx, r, 1))
		s.True(snap.Rules[0].Active)

		next, err := s.store.Snapshot(s.ctx)
		s.Require().NoError(err)
		s.Equal(int64(4), next.Version)
		s.Len(next.Rules, 1)
	})
}

func (s *InMemoryRuleStoreSuite) TestUpdateVersionCheck() {
	r := rule("a", 10, true)
	s.Require().NoError(s.store.Create(s.ctx, r))

	stale := r.Clone()
	stale.Version = 3
	s.ErrorIs(s.store.Update(s.ctx, stale, 2), sentinel.ErrConflict)

	s.ErrorIs(s.store.Update(s.ctx, rule("missing", 1, true), 1), sentinel.ErrNotFound)
}

func (s *InMemoryRuleStoreSuite) TestRollbackRestoresVersion() {
	boom := errors.New("boom")
	err := tx.NewMemory().RunInTx(s.ctx, func(ctx context.Context) error {
		s.Require().NoError(s.store.Create(ctx, rule("a", 10, true)))
		return boom
	})
	s.ErrorIs(err, boom)

	snap, err := s.store.Snapshot(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(0), snap.Version)
	s.Empty(snap.Rules)
}
