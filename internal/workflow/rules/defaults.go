package rules

import (
	eventmodels "careflow/internal/events/models"
	"careflow/internal/workflow/models"
)

// DefaultRules is the built-in alert and escalation policy. The rules are ordinary
// rows once seeded, so operators can retune or deactivate them.
func DefaultRules() []Input {
	active := true
	return []Input{
		{
			Name:        "High-risk triage alert",
			TriggerType: eventmodels.TypeAssessmentCreated,
			Condition: models.Condition{All: []models.Clause{
				{Field: "risk_level", Op: models.OpIn, Value: []any{"HIGH", "CRITICAL"}},
			}},
			Action: models.Action{Kind: models.ActionCreateAlert, Params: map[string]string{
				models.ParamSeverity: "WARNING",
				models.ParamReason:   "Risk level {risk_level} (score {risk_score}); top drivers: {drivers}",
			}},
			Priority: 100,
			Active:   &active,
		},
		{
			Name:        "Urgent check-in escalation",
			TriggerType: eventmodels.TypeCheckinUrgent,
			Action: models.Action{Kind: models.ActionEscalate, Params: map[string]string{
				models.ParamSeverity: "URGENT",
				models.ParamReason:   "Check-in is {urgency}: {signals}",
			}},
			Priority: 200,
			Active:   &active,
		},
		{
			Name:        "Senior discharge wellness referral",
			TriggerType: eventmodels.TypeAdmissionDischarged,
			Condition: models.Condition{All: []models.Clause{
				{Field: "patient_age", Op: models.OpGte, Value: 65},
			}},
			Action: models.Action{Kind: models.ActionCreateReferral, Params: map[string]string{
				models.ParamCategory: "wellness",
				models.ParamReason:   "Post-discharge wellness follow-up, patient aged {patient_age}",
			}},
			Priority: 50,
			Active:   &active,
		},
		{
			Name:        "STAT lab completed",
			TriggerType: eventmodels.TypeLabOrderStatusChanged,
			Condition: models.Condition{All: []models.Clause{
				{Field: "to_status", Op: models.OpEq, Value: "COMPLETED"},
				{Field: "priority", Op: models.OpEq, Value: "stat"},
			}},
			Action: models.Action{Kind: models.ActionCreateAlert, Params: map[string]string{
				models.ParamSeverity: "INFO",
				models.ParamReason:   "STAT {test_name} result is ready",
			}},
			Priority: 50,
			Active:   &active,
		},
	}
}
