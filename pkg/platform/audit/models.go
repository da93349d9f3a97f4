// Package audit records who changed clinical state or workflow configuration.
// Audit entries are written in the same unit of work as the change they describe.
package audit

import (
	"context"
	"time"
)

// Action names one auditable change.
type Action string

const (
	ActionRuleCreated     Action = "rule_created"
	ActionRuleUpdated     Action = "rule_updated"
	ActionRuleActivated   Action = "rule_activated"
	ActionRuleDeactivated Action = "rule_deactivated"

	ActionPatientAdmitted    Action = "patient_admitted"
	ActionPatientTransferred Action = "patient_transferred"
	ActionPatientDischarged  Action = "patient_discharged"

	ActionOrderStatusChanged Action = "order_status_changed"
)

// Resource is the kind of record an action touched.
type Resource string

const (
	ResourceRule      Resource = "workflow_rule"
	ResourceAdmission Resource = "admission"
	ResourceOrder     Resource = "order"
)

// Event is one audit entry. Actor fields come from the authenticated principal;
// system callers such as the seeder are recorded as "system".
type Event struct {
	Timestamp  time.Time
	Actor      string
	ActorRole  string
	Action     Action
	Resource   Resource
	ResourceID string
	PatientID  string
	Detail     string
	RequestID  string
}

type Store interface {
	Append(ctx context.Context, event Event) error
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
