package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "careflow/pkg/domain-errors"
)

// TestParseUUID_Invariants: IDs must be valid, non-empty, non-nil UUIDs.
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParsePatientID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParsePatientID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParsePatientID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParsePatientID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, PatientID(validUUID), id)
	})
}

// TestTypeDistinction: a bed and an admission minted from the same UUID are still
// different types; the compiler rejects `var _ BedID = AdmissionID(u)`.
func TestTypeDistinction(t *testing.T) {
	u := uuid.New()
	bed := BedID(u)
	admission := AdmissionID(u)

	assert.Equal(t, bed.String(), admission.String())
	assert.False(t, bed.IsNil())
	assert.True(t, BedID(uuid.Nil).IsNil())
}

// TestParseID_SecurityInvariants: IDs arrive from HTTP bodies and event payloads.
func TestParseID_SecurityInvariants(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		// Attack vectors
		{"SQL injection attempt", "'; DROP TABLE users;--", true},
		{"Path traversal", "../../../etc/passwd", true},
		{"Null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Unicode zero-width space", "550e8400\u200B-e29b-41d4-a716-446655440000", true},

		// Edge cases
		{"Empty string", "", true},
		{"Nil UUID", uuid.Nil.String(), true},
		{"Whitespace only", "   ", true},
		{"Uppercase valid UUID", "550E8400-E29B-41D4-A716-446655440000", false},
		// Note: uuid.Parse trims whitespace, so " uuid " is accepted as valid

		// Valid
		{"Valid UUID lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePatientID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

// TestAllIDTypes_ConsistentBehavior ensures every ID type parses identically.
func TestAllIDTypes_ConsistentBehavior(t *testing.T) {
	validUUID := uuid.New().String()
	invalidInputs := []string{"", "invalid", uuid.Nil.String()}

	// All types should accept valid UUID
	t.Run("all accept valid UUID", func(t *testing.T) {
		for _, parse := range allParsers() {
			require.NoError(t, parse(validUUID))
		}
	})

	// All types should reject invalid inputs identically
	for _, input := range invalidInputs {
		t.Run("all reject: "+input, func(t *testing.T) {
			for name, parse := range allParsers() {
				require.Error(t, parse(input), name)
			}
		})
	}
}

func allParsers() map[string]func(string) error {
	return map[string]func(string) error{
		"patient":    func(s string) error { _, err := ParsePatientID(s); return err },
		"assessment": func(s string) error { _, err := ParseAssessmentID(s); return err },
		"checkin":    func(s string) error { _, err := ParseCheckinID(s); return err },
		"event":      func(s string) error { _, err := ParseEventID(s); return err },
		"rule":       func(s string) error { _, err := ParseRuleID(s); return err },
		"admission":  func(s string) error { _, err := ParseAdmissionID(s); return err },
		"bed":        func(s string) error { _, err := ParseBedID(s); return err },
		"ward":       func(s string) error { _, err := ParseWardID(s); return err },
		"order":      func(s string) error { _, err := ParseOrderID(s); return err },
		"alert":      func(s string) error { _, err := ParseAlertID(s); return err },
		"referral":   func(s string) error { _, err := ParseReferralID(s); return err },
	}
}

func TestIsNil(t *testing.T) {
	assert.True(t, WardID{}.IsNil())
	assert.False(t, WardID(uuid.New()).IsNil())
	assert.True(t, AssessmentID{}.IsNil())
	assert.True(t, CheckinID{}.IsNil())
	assert.True(t, AlertID{}.IsNil())
	assert.False(t, NewReferralID().IsNil())
}
