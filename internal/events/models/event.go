package models

import (
	"time"

	id "careflow/pkg/domain"
)

// Type names a kind of domain event.
type Type string

const (
	TypeAssessmentCreated            Type = "AssessmentCreated"
	TypeCheckinUrgent                Type = "CheckinUrgent"
	TypeAdmissionCreated             Type = "AdmissionCreated"
	TypeAdmissionTransferred         Type = "AdmissionTransferred"
	TypeAdmissionDischarged          Type = "AdmissionDischarged"
	TypeMedicationOrderStatusChanged Type = "MedicationOrderStatusChanged"
	TypeLabOrderStatusChanged        Type = "LabOrderStatusChanged"
	TypeReferralCreated              Type = "ReferralCreated"
)

// IsValid reports whether t has a registered payload schema.
func (t Type) IsValid() bool {
	_, ok := schemas[t]
	return ok
}

func (t Type) String() string { return string(t) }

// Status is the processing state of an event.
//
// PENDING -> PROCESSING (claimed by one batch) -> PROCESSED | FAILED.
// PROCESSED and FAILED are terminal; nothing moves an event back to PENDING.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusProcessed  Status = "PROCESSED"
	StatusFailed     Status = "FAILED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusProcessed, StatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether s is PROCESSED or FAILED.
func (s Status) IsTerminal() bool {
	return s == StatusProcessed || s == StatusFailed
}

func (s Status) String() string { return string(s) }

// Event is an append-only record of something that happened.
// Status, Attempts, Error, and ProcessedAt are the only fields that change after append.
type Event struct {
	ID          id.EventID
	Seq         int64
	Type        Type
	Payload     Payload
	Status      Status
	Attempts    int
	Error       string
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// PatientID parses the patient_id every payload schema requires.
func (e *Event) PatientID() (id.PatientID, error) {
	raw, _ := e.Payload.String("patient_id")
	return id.ParsePatientID(raw)
}

// Clone returns a deep copy so stores never hand out shared state.
func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}
	c := *e
	c.Payload = e.Payload.Clone()
	if e.ProcessedAt != nil {
		t := *e.ProcessedAt
		c.ProcessedAt = &t
	}
	return &c
}
