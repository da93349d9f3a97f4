package models

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	alertmodels "careflow/internal/alerts/models"
	eventmodels "careflow/internal/events/models"
	referralmodels "careflow/internal/referrals/models"
	dErrors "careflow/pkg/domain-errors"
)

// Action parameter names.
const (
	ParamSeverity = "severity"
	ParamCategory = "category"
	ParamReason   = "reason"
)

var allowedParams = map[ActionKind][]string{
	ActionCreateAlert:    {ParamSeverity, ParamReason},
	ActionEscalate:       {ParamSeverity, ParamReason},
	ActionCreateReferral: {ParamCategory, ParamReason},
}

func validateAction(a Action, trigger eventmodels.Type) error {
	if !a.Kind.IsValid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown action kind %q", a.Kind)
	}
	for name := range a.Params {
		if !slices.Contains(allowedParams[a.Kind], name) {
			return dErrors.Newf(dErrors.CodeValidation, "%s does not take parameter %q", a.Kind, name)
		}
	}
	switch a.Kind {
	case ActionCreateAlert:
		if _, err := alertmodels.ParseSeverity(a.Param(ParamSeverity)); err != nil {
			return err
		}
	case ActionEscalate:
		if raw := a.Param(ParamSeverity); raw != "" {
			if _, err := alertmodels.ParseSeverity(raw); err != nil {
				return err
			}
		}
	case ActionCreateReferral:
		if _, err := referralmodels.ParseCategory(a.Param(ParamCategory)); err != nil {
			return err
		}
	}
	schema, _ := eventmodels.SchemaFor(trigger)
	for _, field := range TemplateFields(a.Param(ParamReason)) {
		if _, ok := schema[field]; !ok {
			return dErrors.Newf(dErrors.CodeValidation, "reason template references unknown field %q", field)
		}
	}
	return nil
}

var placeholder = regexp.MustCompile(`\{([a-z_][a-z0-9_]*)\}`)

// TemplateFields lists the payload fields a template references, in order.
func TemplateFields(tmpl string) []string {
	matches := placeholder.FindAllStringSubmatch(tmpl, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

// Render substitutes {field} placeholders with payload values. Absent fields render
// as the empty string.
func Render(tmpl string, p eventmodels.Payload) string {
	return placeholder.ReplaceAllStringFunc(tmpl, func(m string) string {
		v, ok := p.Get(m[1 : len(m)-1])
		if !ok {
			return ""
		}
		return formatValue(v)
	})
}

func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []string:
		return strings.Join(t, ", ")
	}
	return ""
}
