package models

import (
	"time"

	id "careflow/pkg/domain"
	dErrors "careflow/pkg/domain-errors"
)

// Status is the lifecycle state of an admission.
type Status string

const (
	StatusAdmitted    Status = "ADMITTED"
	StatusTransferred Status = "TRANSFERRED"
	StatusDischarged  Status = "DISCHARGED"
)

func (s Status) IsValid() bool {
	return s == StatusAdmitted || s == StatusTransferred || s == StatusDischarged
}

// Admission places a patient in a bed.
//
// Invariants:
//   - status moves ADMITTED -> TRANSFERRED* -> DISCHARGED and never backwards
//   - DISCHARGED is terminal
//   - a bed holds at most one non-discharged admission (enforced by the store)
//   - Version starts at 1 and grows by one on every transition
type Admission struct {
	ID            id.AdmissionID
	PatientID     id.PatientID
	BedID         id.BedID
	WardID        id.WardID
	Status        Status
	PatientAge    *int
	AdmittedAt    time.Time
	TransferredAt *time.Time
	DischargedAt  *time.Time
	Version       int64
}

// IsActive reports whether the admission still occupies its bed.
func (a *Admission) IsActive() bool {
	return a.Status != StatusDischarged
}

// Transfer moves the admission to another bed. A zero ward keeps the current ward.
// The receiver is unchanged on error.
func (a *Admission) Transfer(bedID id.BedID, wardID id.WardID, now time.Time) error {
	if !a.IsActive() {
		return dErrors.New(dErrors.CodeInvalidState, "cannot transfer a discharged admission")
	}
	if bedID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "target bed is required")
	}
	if bedID == a.BedID {
		return dErrors.New(dErrors.CodeValidation, "admission is already in this bed")
	}
	a.BedID = bedID
	if !wardID.IsNil() {
		a.WardID = wardID
	}
	a.Status = StatusTransferred
	t := now
	a.TransferredAt = &t
	a.Version++
	return nil
}

// Discharge ends the admission. The receiver is unchanged on error.
func (a *Admission) Discharge(now time.Time) error {
	if !a.IsActive() {
		return dErrors.New(dErrors.CodeInvalidState, "admission is already discharged")
	}
	a.Status = StatusDischarged
	t := now
	a.DischargedAt = &t
	a.Version++
	return nil
}

// Clone returns a deep copy.
func (a *Admission) Clone() *Admission {
	c := *a
	if a.PatientAge != nil {
		v := *a.PatientAge
		c.PatientAge = &v
	}
	if a.TransferredAt != nil {
		t := *a.TransferredAt
		c.TransferredAt = &t
	}
	if a.DischargedAt != nil {
		t := *a.DischargedAt
		c.DischargedAt = &t
	}
	return &c
}
