//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	audit "careflow/pkg/platform/audit"
	auditpostgres "careflow/pkg/platform/audit/store/postgres"
	"careflow/pkg/platform/tx"
	"careflow/pkg/testutil/containers"
)

type AuditStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *auditpostgres.Store
}

func TestAuditStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(AuditStoreSuite))
}

func (s *AuditStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = auditpostgres.New(s.postgres.DB)
}

func (s *AuditStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "audit_events"))
}

func (s *AuditStoreSuite) TestAppendAndListRecent() {
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)
	for i, action := range []audit.Action{audit.ActionRuleCreated, audit.ActionRuleDeactivated} {
		s.Require().NoError(s.store.Append(ctx, audit.Event{
			Timestamp:  base.Add(time.Duration(i) * time.Second),
			Actor:      "root",
			ActorRole:  "admin",
			Action:     action,
			Resource:   audit.ResourceRule,
			ResourceID: "rule-1",
		}))
	}

	events, err := s.store.ListRecent(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(audit.ActionRuleDeactivated, events[0].Action)
	s.Equal("admin", events[0].ActorRole)
}

func (s *AuditStoreSuite) TestRolledBackAppendLeavesNoRow() {
	ctx := context.Background()
	boom := errors.New("abort")
	err := tx.NewSQL(s.postgres.DB).RunInTx(ctx, func(ctx context.Context) error {
		s.Require().NoError(s.store.Append(ctx, audit.Event{
			Timestamp:  time.Now().UTC(),
			Actor:      "dr.ade",
			Action:     audit.ActionPatientAdmitted,
			Resource:   audit.ResourceAdmission,
			ResourceID: "adm-1",
		}))
		return boom
	})
	s.Require().ErrorIs(err, boom)

	events, err := s.store.ListRecent(ctx, 10)
	s.Require().NoError(err)
	s.Empty(events)
}
