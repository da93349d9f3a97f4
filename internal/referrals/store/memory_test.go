package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careflow/internal/referrals/models"
	id "careflow/pkg/domain"
	"careflow/pkg/platform/sentinel"
	"careflow/pkg/platform/tx"
)

func referral(patient id.PatientID, event id.EventID, rule id.RuleID) *models.Referral {
	return &models.Referral{
		ID:            id.NewReferralID(),
		PatientID:     patient,
		Category:      models.CategoryMentalHealth,
		Reason:        "low mood on two check-ins",
		Status:        models.StatusRecommended,
		SourceEventID: event,
		RuleID:        rule,
		CreatedAt:     time.Now().UTC(),
	}
}

func TestInMemorySave(t *testing.T) {
	ctx := context.Background()
	patient := id.PatientID(uuid.New())
	event, rule := id.NewEventID(), id.NewRuleID()

	t.Run("one referral per source event and rule", func(t *testing.T) {
		s := NewInMemory()
		require.NoError(t, s.Save(ctx, referral(patient, event, rule)))

		err := s.Save(ctx, referral(patient, event, rule))
		require.ErrorIs(t, err, sentinel.ErrConflict)

		require.NoError(t, s.Save(ctx, referral(patient, event, id.NewRuleID())))
	})

	t.Run("untracked referrals never conflict", func(t *testing.T) {
		s := NewInMemory()
		require.NoError(t, s.Save(ctx, referral(patient, id.EventID{}, id.RuleID{})))
		require.NoError(t, s.Save(ctx, referral(patient, id.EventID{}, id.RuleID{})))

		list, err := s.ListByPatient(ctx, patient)
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("rollback frees the source pair", func(t *testing.T) {
		s := NewInMemory()
		err := tx.NewMemory().RunInTx(ctx, func(ctx context.Context) error {
			require.NoError(t, s.Save(ctx, referral(patient, event, rule)))
			return errors.New("engine step failed")
		})
		require.Error(t, err)

		list, err := s.ListByPatient(ctx, patient)
		require.NoError(t, err)
		assert.Empty(t, list)
		require.NoError(t, s.Save(ctx, referral(patient, event, rule)))
	})
}

func TestInMemoryListByPatientKeepsCreationOrder(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	patient := id.PatientID(uuid.New())

	first := referral(patient, id.NewEventID(), id.NewRuleID())
	second := referral(patient, id.NewEventID(), id.NewRuleID())
	second.Category = models.CategoryHousing
	require.NoError(t, s.Save(ctx, first))
	require.NoError(t, s.Save(ctx, referral(id.PatientID(uuid.New()), id.NewEventID(), id.NewRuleID())))
	require.NoError(t, s.Save(ctx, second))

	list, err := s.ListByPatient(ctx, patient)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, models.CategoryHousing, list[1].Category)
}
