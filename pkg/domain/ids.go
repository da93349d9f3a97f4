// Package domain holds typed identifiers shared across modules.
//
// Each ID wraps uuid.UUID so a PatientID can never be passed where an AdmissionID is
// expected. Parse* functions are the trust boundary: they reject empty, malformed,
// and nil UUIDs with dErrors.CodeInvalidInput.
package domain

import (
	"github.com/google/uuid"

	dErrors "careflow/pkg/domain-errors"
)

type (
	PatientID    uuid.UUID
	AssessmentID uuid.UUID
	CheckinID    uuid.UUID
	EventID      uuid.UUID
	RuleID       uuid.UUID
	AdmissionID  uuid.UUID
	BedID        uuid.UUID
	WardID       uuid.UUID
	OrderID      uuid.UUID
	AlertID      uuid.UUID
	ReferralID   uuid.UUID
)

func parseID[T ~[16]byte](s, kind string) (T, error) {
	var zero T
	if s == "" {
		return zero, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return zero, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if u == uuid.Nil {
		return zero, dErrors.New(dErrors.CodeInvalidInput, kind+" must not be nil")
	}
	return T(u), nil
}

func ParsePatientID(s string) (PatientID, error)       { return parseID[PatientID](s, "patient ID") }
func ParseAssessmentID(s string) (AssessmentID, error) { return parseID[AssessmentID](s, "assessment ID") }
func ParseCheckinID(s string) (CheckinID, error)       { return parseID[CheckinID](s, "check-in ID") }
func ParseEventID(s string) (EventID, error)           { return parseID[EventID](s, "event ID") }
func ParseRuleID(s string) (RuleID, error)             { return parseID[RuleID](s, "rule ID") }
func ParseAdmissionID(s string) (AdmissionID, error)   { return parseID[AdmissionID](s, "admission ID") }
func ParseBedID(s string) (BedID, error)               { return parseID[BedID](s, "bed ID") }
func ParseWardID(s string) (WardID, error)             { return parseID[WardID](s, "ward ID") }
func ParseOrderID(s string) (OrderID, error)           { return parseID[OrderID](s, "order ID") }
func ParseAlertID(s string) (AlertID, error)           { return parseID[AlertID](s, "alert ID") }
func ParseReferralID(s string) (ReferralID, error)     { return parseID[ReferralID](s, "referral ID") }

func (id PatientID) String() string    { return uuid.UUID(id).String() }
func (id AssessmentID) String() string { return uuid.UUID(id).String() }
func (id CheckinID) String() string    { return uuid.UUID(id).String() }
func (id EventID) String() string      { return uuid.UUID(id).String() }
func (id RuleID) String() string       { return uuid.UUID(id).String() }
func (id AdmissionID) String() string  { return uuid.UUID(id).String() }
func (id BedID) String() string        { return uuid.UUID(id).String() }
func (id WardID) String() string       { return uuid.UUID(id).String() }
func (id OrderID) String() string      { return uuid.UUID(id).String() }
func (id AlertID) String() string      { return uuid.UUID(id).String() }
func (id ReferralID) String() string   { return uuid.UUID(id).String() }

func (id PatientID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id AssessmentID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id CheckinID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id EventID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id RuleID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id AdmissionID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id BedID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id WardID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id OrderID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id AlertID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id ReferralID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }

// NewEventID and friends mint fresh random identifiers.
func NewEventID() EventID           { return EventID(uuid.New()) }
func NewAssessmentID() AssessmentID { return AssessmentID(uuid.New()) }
func NewCheckinID() CheckinID       { return CheckinID(uuid.New()) }
func NewRuleID() RuleID             { return RuleID(uuid.New()) }
func NewAdmissionID() AdmissionID   { return AdmissionID(uuid.New()) }
func NewOrderID() OrderID           { return OrderID(uuid.New()) }
func NewAlertID() AlertID           { return AlertID(uuid.New()) }
func NewReferralID() ReferralID     { return ReferralID(uuid.New()) }
