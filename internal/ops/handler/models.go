package handler

import (
	"time"

	alertmodels "careflow/internal/alerts/models"
	eventmodels "careflow/internal/events/models"
	"careflow/internal/workflow/engine"
	"careflow/internal/workflow/models"
	"careflow/internal/workflow/rules"
	audit "careflow/pkg/platform/audit"
)

type ProcessRequest struct {
	Limit *int `json:"limit,omitempty"`
}

type OutcomeResponse struct {
	EventID      string   `json:"event_id"`
	Type         string   `json:"type"`
	Status       string   `json:"status"`
	MatchedRules []string `json:"matched_rules"`
	Error        string   `json:"error,omitempty"`
}

type ProcessResponse struct {
	Processed      int               `json:"processed"`
	Failed         int               `json:"failed"`
	RuleSetVersion int64             `json:"rule_set_version"`
	Events         []OutcomeResponse `json:"events"`
}

func toProcessResponse(r *engine.Result) ProcessResponse {
	resp := ProcessResponse{
		Processed:      r.Processed,
		Failed:         r.Failed,
		RuleSetVersion: r.RuleSetVersion,
		Events:         make([]OutcomeResponse, len(r.Events)),
	}
	for i, o := range r.Events {
		matched := make([]string, len(o.MatchedRules))
		for j, ruleID := range o.MatchedRules {
			matched[j] = ruleID.String()
		}
		resp.Events[i] = OutcomeResponse{
			EventID:      o.EventID.String(),
			Type:         string(o.Type),
			Status:       string(o.Status),
			MatchedRules: matched,
			Error:        o.Error,
		}
	}
	return resp
}

type RuleRequest struct {
	Name            string           `json:"name"`
	TriggerType     string           `json:"trigger_type"`
	Condition       models.Condition `json:"condition"`
	Action          models.Action    `json:"action"`
	Priority        int              `json:"priority"`
	Active          *bool            `json:"active,omitempty"`
	ExpectedVersion int64            `json:"expected_version,omitempty"`
}

func (r RuleRequest) toInput() rules.Input {
	return rules.Input{
		Name:        r.Name,
		TriggerType: eventmodels.Type(r.TriggerType),
		Condition:   r.Condition,
		Action:      r.Action,
		Priority:    r.Priority,
		Active:      r.Active,
	}
}

type RuleResponse struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	TriggerType string           `json:"trigger_type"`
	Condition   models.Condition `json:"condition"`
	Action      models.Action    `json:"action"`
	Priority    int              `json:"priority"`
	Active      bool             `json:"active"`
	Version     int64            `json:"version"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func toRuleResponse(r *models.Rule) RuleResponse {
	return RuleResponse{
		ID:          r.ID.String(),
		Name:        r.Name,
		TriggerType: string(r.TriggerType),
		Condition:   r.Condition,
		Action:      r.Action,
		Priority:    r.Priority,
		Active:      r.Active,
		Version:     r.Version,
		UpdatedAt:   r.UpdatedAt,
	}
}

type EventResponse struct {
	ID          string              `json:"id"`
	Type        string              `json:"type"`
	Status      string              `json:"status"`
	Payload     eventmodels.Payload `json:"payload"`
	Attempts    int                 `json:"attempts"`
	Error       string              `json:"error,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	ProcessedAt *time.Time          `json:"processed_at,omitempty"`
}

func toEventResponse(e *eventmodels.Event) EventResponse {
	return EventResponse{
		ID:          e.ID.String(),
		Type:        string(e.Type),
		Status:      string(e.Status),
		Payload:     e.Payload,
		Attempts:    e.Attempts,
		Error:       e.Error,
		CreatedAt:   e.CreatedAt,
		ProcessedAt: e.ProcessedAt,
	}
}

type AlertResponse struct {
	ID            string    `json:"id"`
	PatientID     string    `json:"patient_id"`
	Severity      string    `json:"severity"`
	Reason        string    `json:"reason"`
	Escalation    bool      `json:"escalation"`
	SourceEventID string    `json:"source_event_id,omitempty"`
	RuleID        string    `json:"rule_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func toAlertResponse(a *alertmodels.Alert) AlertResponse {
	resp := AlertResponse{
		ID:         a.ID.String(),
		PatientID:  a.PatientID.String(),
		Severity:   string(a.Severity),
		Reason:     a.Reason,
		Escalation: a.Escalation,
		CreatedAt:  a.CreatedAt,
	}
	if !a.SourceEventID.IsNil() {
		resp.SourceEventID = a.SourceEventID.String()
	}
	if !a.RuleID.IsNil() {
		resp.RuleID = a.RuleID.String()
	}
	return resp
}

type AuditEventResponse struct {
	Timestamp  time.Time `json:"timestamp"`
	Actor      string    `json:"actor"`
	ActorRole  string    `json:"actor_role,omitempty"`
	Action     string    `json:"action"`
	Resource   string    `json:"resource"`
	ResourceID string    `json:"resource_id"`
	PatientID  string    `json:"patient_id,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
}

func toAuditEventResponse(e audit.Event) AuditEventResponse {
	return AuditEventResponse{
		Timestamp:  e.Timestamp,
		Actor:      e.Actor,
		ActorRole:  e.ActorRole,
		Action:     string(e.Action),
		Resource:   string(e.Resource),
		ResourceID: e.ResourceID,
		PatientID:  e.PatientID,
		Detail:     e.Detail,
		RequestID:  e.RequestID,
	}
}
