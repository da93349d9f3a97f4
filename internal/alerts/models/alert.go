package models

import (
	"strings"
	"time"

	id "careflow/pkg/domain"
	dErrors "careflow/pkg/domain-errors"
)

type Severity string

const (
	SeverityInfo    Severity = "INFO"
	SeverityWarning Severity = "WARNING"
	SeverityUrgent  Severity = "URGENT"
)

func (s Severity) IsValid() bool {
	return s == SeverityInfo || s == SeverityWarning || s == SeverityUrgent
}

// ParseSeverity accepts any casing of a known severity.
func ParseSeverity(raw string) (Severity, error) {
	s := Severity(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown alert severity %q", raw)
	}
	return s, nil
}

// Alert is immutable once created. SourceEventID and RuleID are zero for alerts
// raised outside the rule engine.
type Alert struct {
	ID            id.AlertID
	PatientID     id.PatientID
	Severity      Severity
	Reason        string
	SourceEventID id.EventID
	RuleID        id.RuleID
	Escalation    bool
	CreatedAt     time.Time
}
