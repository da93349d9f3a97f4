package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careflow/internal/risk/models"
	id "careflow/pkg/domain"
	"careflow/pkg/platform/sentinel"
	"careflow/pkg/platform/tx"
)

func assessment(patient id.PatientID, at time.Time) *models.Assessment {
	return &models.Assessment{
		ID:        id.NewAssessmentID(),
		PatientID: patient,
		Score:     0.64,
		Level:     models.LevelHigh,
		Drivers:   []models.Driver{{Feature: "blood_pressure", Label: "Blood pressure", Contribution: 0.2}},
		Source:    models.SourceTriage,
		CreatedAt: at,
	}
}

func TestInMemorySaveAndFind(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	a := assessment(id.PatientID(uuid.New()), time.Now())
	require.NoError(t, s.Save(ctx, a))

	t.Run("assessments are immutable once saved", func(t *testing.T) {
		require.ErrorIs(t, s.Save(ctx, a), sentinel.ErrConflict)
	})

	t.Run("callers get a copy", func(t *testing.T) {
		a.Drivers[0].Feature = "mutated"
		found, err := s.FindByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, "blood_pressure", found.Drivers[0].Feature)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := s.FindByID(ctx, id.NewAssessmentID())
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}

func TestInMemoryListByPatientNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	patient := id.PatientID(uuid.New())
	base := time.Date(2025, 1, 5, 10, 0, 0, 0, time.UTC)

	old := assessment(patient, base)
	recent := assessment(patient, base.Add(24*time.Hour))
	require.NoError(t, s.Save(ctx, old))
	require.NoError(t, s.Save(ctx, recent))
	require.NoError(t, s.Save(ctx, assessment(id.PatientID(uuid.New()), base)))

	list, err := s.ListByPatient(ctx, patient)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, recent.ID, list[0].ID)
	assert.Equal(t, old.ID, list[1].ID)
}

func TestInMemoryRollback(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	a := assessment(id.PatientID(uuid.New()), time.Now())

	err := tx.NewMemory().RunInTx(ctx, func(ctx context.Context) error {
		require.NoError(t, s.Save(ctx, a))
		return errors.New("event append failed")
	})
	require.Error(t, err)

	_, err = s.FindByID(ctx, a.ID)
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}
