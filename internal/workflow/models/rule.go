package models

import (
	"sort"
	"strings"
	"time"

	eventmodels "careflow/internal/events/models"
	id "careflow/pkg/domain"
	dErrors "careflow/pkg/domain-errors"
)

type ActionKind string

const (
	ActionCreateAlert    ActionKind = "CREATE_ALERT"
	ActionCreateReferral ActionKind = "CREATE_REFERRAL"
	ActionEscalate       ActionKind = "ESCALATE"
)

func (k ActionKind) IsValid() bool {
	return k == ActionCreateAlert || k == ActionCreateReferral || k == ActionEscalate
}

// Action is what a matching rule does. Params are strings; reason-like params may
// reference payload fields as {field}.
type Action struct {
	Kind   ActionKind        `json:"kind"`
	Params map[string]string `json:"params,omitempty"`
}

func (a Action) Param(name string) string {
	return a.Params[name]
}

// Rule binds an event type and condition to one action.
type Rule struct {
	ID          id.RuleID
	Name        string
	TriggerType eventmodels.Type
	Condition   Condition
	Action      Action
	Priority    int
	Active      bool
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks the rule against the payload schema of its trigger and returns a
// copy whose condition values carry their canonical types.
func (r *Rule) Validate() (*Rule, error) {
	out := *r
	out.Name = strings.TrimSpace(r.Name)
	if out.Name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "rule name is required")
	}
	if !r.TriggerType.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown trigger type %q", r.TriggerType)
	}
	cond, err := r.Condition.Validate(r.TriggerType)
	if err != nil {
		return nil, err
	}
	out.Condition = cond
	if err := validateAction(r.Action, r.TriggerType); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Rule) Clone() *Rule {
	c := *r
	c.Condition = r.Condition.clone()
	if r.Action.Params != nil {
		c.Action.Params = make(map[string]string, len(r.Action.Params))
		for k, v := range r.Action.Params {
			c.Action.Params[k] = v
		}
	}
	return &c
}

// Snapshot is the rule set as of one version. The engine reads one per pass.
type Snapshot struct {
	Version int64
	Rules   []*Rule
}

// Matching returns active rules triggered by eventType whose condition holds for
// payload, ordered by priority descending then rule ID ascending.
func (s *Snapshot) Matching(eventType eventmodels.Type, payload eventmodels.Payload) []*Rule {
	var out []*Rule
	for _, r := range s.Rules {
		if r.Active && r.TriggerType == eventType && r.Condition.Matches(payload) {
			out = append(out, r)
		}
	}
	SortForExecution(out)
	return out
}

func SortForExecution(rules []*Rule) {
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority > rules[j].Priority
		}
		return rules[i].ID.String() < rules[j].ID.String()
	})
}
