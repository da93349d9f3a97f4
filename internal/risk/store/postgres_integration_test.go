//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"careflow/internal/risk/models"
	"careflow/internal/risk/store"
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
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "assessments"))
}

func (s *PostgresStoreSuite) TestRoundTripKeepsDriversAndFeatures() {
	ctx := context.Background()
	age, bp := 71.0, 168.0
	smoker := true
	a := &models.Assessment{
		ID:        id.NewAssessmentID(),
		PatientID: id.PatientID(uuid.New()),
		Score:     0.83,
		Level:     models.LevelCritical,
		Drivers: []models.Driver{
			{Feature: "blood_pressure", Label: "Blood pressure", Contribution: 0.21},
			{Feature: "age", Label: "Age", Contribution: 0.15},
		},
		Features:  models.Features{Age: &age, BloodPressure: &bp, Smoker: &smoker},
		Source:    models.SourceCheckin,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	s.Require().NoError(s.store.Save(ctx, a))

	found, err := s.store.FindByID(ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(a.Drivers, found.Drivers)
	s.Equal(models.LevelCritical, found.Level)
	s.Equal(models.SourceCheckin, found.Source)
	s.Require().NotNil(found.Features.Age)
	s.Equal(71.0, *found.Features.Age)
	s.Nil(found.Features.BMI)
	s.True(a.CreatedAt.Equal(found.CreatedAt))

	list, err := s.store.ListByPatient(ctx, a.PatientID)
	s.Require().NoError(err)
	s.Len(list, 1)
}

func (s *PostgresStoreSuite) TestFindUnknown() {
	_, err := s.store.FindByID(context.Background(), id.NewAssessmentID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}
