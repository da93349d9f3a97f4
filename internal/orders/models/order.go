package models

import (
	"slices"
	"time"

	id "careflow/pkg/domain"
	dErrors "careflow/pkg/domain-errors"
)

// Kind distinguishes medication orders from lab orders. Both share one lifecycle.
type Kind string

const (
	KindMedication Kind = "medication"
	KindLab        Kind = "lab"
)

func (k Kind) IsValid() bool { return k == KindMedication || k == KindLab }

// Status is the order lifecycle state.
type Status string

const (
	StatusOrdered    Status = "ORDERED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// transitions is the allowed edge set:
// ORDERED -> IN_PROGRESS -> COMPLETED, and CANCELLED from ORDERED or IN_PROGRESS.
var transitions = map[Status][]Status{
	StatusOrdered:    {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

func (s Status) IsValid() bool {
	switch s {
	case StatusOrdered, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no edge leaves s.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// CanTransitionTo reports whether s -> next is an allowed edge.
func (s Status) CanTransitionTo(next Status) bool {
	return slices.Contains(transitions[s], next)
}

// LabPriority is the urgency of a lab order.
type LabPriority string

const (
	PriorityRoutine LabPriority = "routine"
	PriorityUrgent  LabPriority = "urgent"
	PriorityStat    LabPriority = "stat"
)

func (p LabPriority) IsValid() bool {
	return p == PriorityRoutine || p == PriorityUrgent || p == PriorityStat
}

// Order is a medication or lab order. Medication and Dose apply to medication orders,
// TestName and Priority to lab orders.
type Order struct {
	ID         id.OrderID
	Kind       Kind
	PatientID  id.PatientID
	Status     Status
	Medication string
	Dose       string
	TestName   string
	Priority   LabPriority
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// MarkStatus applies an allowed edge. Disallowed edges return an invalid transition
// error and leave the order unchanged.
func (o *Order) MarkStatus(next Status, now time.Time) error {
	if !next.IsValid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown order status %q", next)
	}
	if !o.Status.CanTransitionTo(next) {
		return dErrors.Newf(dErrors.CodeInvalidTransition, "cannot move %s order from %s to %s", o.Kind, o.Status, next)
	}
	o.Status = next
	o.UpdatedAt = now
	return nil
}

func (o *Order) Clone() *Order {
	c := *o
	return &c
}
