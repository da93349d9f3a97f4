package models

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "careflow/pkg/domain"
	dErrors "careflow/pkg/domain-errors"
)

func newAdmission() *Admission {
	return &Admission{
		ID:         id.NewAdmissionID(),
		PatientID:  id.PatientID(uuid.New()),
		BedID:      id.BedID(uuid.New()),
		WardID:     id.WardID(uuid.New()),
		Status:     StatusAdmitted,
		AdmittedAt: time.Now(),
		Version:    1,
	}
}

func TestTransfer(t *testing.T) {
	now := time.Now()

	t.Run("moves bed and keeps ward when none given", func(t *testing.T) {
		a := newAdmission()
		ward := a.WardID
		bed := id.BedID(uuid.New())

		require.NoError(t, a.Transfer(bed, id.WardID{}, now))
		assert.Equal(t, StatusTransferred, a.Status)
		assert.Equal(t, bed, a.BedID)
		assert.Equal(t, ward, a.WardID)
		require.NotNil(t, a.TransferredAt)
	})

	t.Run("can repeat", func(t *testing.T) {
		a := newAdmission()
		require.NoError(t, a.Transfer(id.BedID(uuid.New()), id.WardID{}, now))
		require.NoError(t, a.Transfer(id.BedID(uuid.New()), id.WardID(uuid.New()), now))
		assert.Equal(t, StatusTransferred, a.Status)
		assert.Equal(t, int64(3), a.Version, "every transfer bumps the version even when status stays put")
	})

	t.Run("rejects same bed", func(t *testing.T) {
		a := newAdmission()
		err := a.Transfer(a.BedID, id.WardID{}, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.Equal(t, StatusAdmitted, a.Status)
		assert.Equal(t, int64(1), a.Version)
	})

	t.Run("rejects discharged admission and leaves it unchanged", func(t *testing.T) {
		a := newAdmission()
		require.NoError(t, a.Discharge(now))
		before := a.Clone()

		err := a.Transfer(id.BedID(uuid.New()), id.WardID{}, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
		assert.Equal(t, before, a)
	})
}

func TestDischarge(t *testing.T) {
	a := newAdmission()
	require.NoError(t, a.Discharge(time.Now()))
	assert.Equal(t, StatusDischarged, a.Status)
	assert.False(t, a.IsActive())
	assert.Equal(t, int64(2), a.Version)

	before := a.Clone()
	err := a.Discharge(time.Now().Add(time.Hour))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	assert.Equal(t, before, a)
}

// TestLifecycleOnlyMovesForward drives random transition sequences and checks the
// status rank never decreases.
func TestLifecycleOnlyMovesForward(t *testing.T) {
	rank := map[Status]int{StatusAdmitted: 0, StatusTransferred: 1, StatusDischarged: 2}
	rng := rand.New(rand.NewPCG(3, 5))

	for range 200 {
		a := newAdmission()
		for range 10 {
			prev := a.Clone()
			var err error
			if rng.IntN(3) == 0 {
				err = a.Discharge(time.Now())
			} else {
				err = a.Transfer(id.BedID(uuid.New()), id.WardID{}, time.Now())
			}
			require.GreaterOrEqual(t, rank[a.Status], rank[prev.Status])
			if prev.Status == StatusDischarged {
				require.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
				require.Equal(t, prev, a)
			}
		}
	}
}
