//go:build integration

package store_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"careflow/internal/orders/models"
	"careflow/internal/orders/store"
	id "careflow/pkg/domain"
	"careflow/pkg/platform/sentinel"
	"careflow/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "medication_orders", "lab_orders"))
}

func newLabOrder() *models.Order {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.Order{
		ID:        id.NewOrderID(),
		Kind:      models.KindLab,
		PatientID: id.PatientID(uuid.New()),
		Status:    models.StatusOrdered,
		TestName:  "CBC",
		Priority:  models.PriorityStat,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	o := newLabOrder()
	s.Require().NoError(s.store.Create(ctx, o))

	found, err := s.store.FindByID(ctx, models.KindLab, o.ID)
	s.Require().NoError(err)
	s.Equal(o.TestName, found.TestName)
	s.Equal(models.PriorityStat, found.Priority)
	s.Equal(models.KindLab, found.Kind)

	_, err = s.store.FindByID(ctx, models.KindMedication, o.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestConcurrentTransitionsCommitOnce() {
	ctx := context.Background()
	o := newLabOrder()
	s.Require().NoError(s.store.Create(ctx, o))

	var (
		wg      sync.WaitGroup
		success atomic.Int32
	)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			next := o.Clone()
			next.Status = models.StatusInProgress
			if err := s.store.UpdateIfStatus(ctx, next, models.StatusOrdered); err == nil {
				success.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(1), success.Load())
}
