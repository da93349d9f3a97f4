package models

import (
	"slices"

	eventmodels "careflow/internal/events/models"
	dErrors "careflow/pkg/domain-errors"
)

type Operator string

const (
	OpEq     Operator = "eq"
	OpNeq    Operator = "neq"
	OpIn     Operator = "in"
	OpGt     Operator = "gt"
	OpGte    Operator = "gte"
	OpLt     Operator = "lt"
	OpLte    Operator = "lte"
	OpExists Operator = "exists"
)

// operators lists the operators each payload kind supports. On a string_set
// field eq means "contains" and in means "shares any element with".
var operators = map[eventmodels.Kind][]Operator{
	eventmodels.KindString:    {OpEq, OpNeq, OpIn, OpExists},
	eventmodels.KindNumber:    {OpEq, OpNeq, OpIn, OpGt, OpGte, OpLt, OpLte, OpExists},
	eventmodels.KindBool:      {OpEq, OpNeq, OpExists},
	eventmodels.KindStringSet: {OpEq, OpIn, OpExists},
}

// Clause is one field test. Value is unused by exists and is a list for in.
type Clause struct {
	Field string   `json:"field"`
	Op    Operator `json:"op"`
	Value any      `json:"value,omitempty"`
}

// Condition holds when every All clause holds and, if Any is non-empty, at least one
// Any clause holds. The empty condition always holds.
type Condition struct {
	All []Clause `json:"all,omitempty"`
	Any []Clause `json:"any,omitempty"`
}

func (c Condition) IsEmpty() bool {
	return len(c.All) == 0 && len(c.Any) == 0
}

// Validate checks every clause against the payload schema of t and normalizes
// comparison values.
func (c Condition) Validate(t eventmodels.Type) (Condition, error) {
	schema, ok := eventmodels.SchemaFor(t)
	if !ok {
		return Condition{}, dErrors.Newf(dErrors.CodeValidation, "unknown event type %q", t)
	}
	all, err := validateClauses(schema, c.All)
	if err != nil {
		return Condition{}, err
	}
	anyOf, err := validateClauses(schema, c.Any)
	if err != nil {
		return Condition{}, err
	}
	return Condition{All: all, Any: anyOf}, nil
}

func validateClauses(schema eventmodels.Schema, clauses []Clause) ([]Clause, error) {
	if len(clauses) == 0 {
		return nil, nil
	}
	out := make([]Clause, 0, len(clauses))
	for _, cl := range clauses {
		field, ok := schema[cl.Field]
		if !ok {
			return nil, dErrors.Newf(dErrors.CodeValidation, "condition references unknown field %q", cl.Field)
		}
		if !slices.Contains(operators[field.Kind], cl.Op) {
			return nil, dErrors.Newf(dErrors.CodeValidation, "operator %q is not supported on %s field %q", cl.Op, field.Kind, cl.Field)
		}
		value, err := normalizeValue(field.Kind, cl)
		if err != nil {
			return nil, err
		}
		out = append(out, Clause{Field: cl.Field, Op: cl.Op, Value: value})
	}
	return out, nil
}

func normalizeValue(kind eventmodels.Kind, cl Clause) (any, error) {
	switch cl.Op {
	case OpExists:
		return nil, nil
	case OpIn:
		list, ok := cl.Value.([]any)
		if !ok {
			if strs, isStrs := cl.Value.([]string); isStrs {
				list = make([]any, len(strs))
				for i, s := range strs {
					list[i] = s
				}
			} else {
				return nil, dErrors.Newf(dErrors.CodeValidation, "operator in on %q needs a list value", cl.Field)
			}
		}
		if len(list) == 0 {
			return nil, dErrors.Newf(dErrors.CodeValidation, "operator in on %q needs a non-empty list", cl.Field)
		}
		elemKind := kind
		if kind == eventmodels.KindStringSet {
			elemKind = eventmodels.KindString
		}
		out := make([]any, len(list))
		for i, item := range list {
			v, err := eventmodels.Coerce(elemKind, item)
			if err != nil {
				return nil, dErrors.Newf(dErrors.CodeValidation, "condition value for %q: %v", cl.Field, err)
			}
			out[i] = v
		}
		return out, nil
	default:
		elemKind := kind
		if kind == eventmodels.KindStringSet {
			elemKind = eventmodels.KindString
		}
		v, err := eventmodels.Coerce(elemKind, cl.Value)
		if err != nil {
			return nil, dErrors.Newf(dErrors.CodeValidation, "condition value for %q: %v", cl.Field, err)
		}
		return v, nil
	}
}

// Matches evaluates c against a normalized payload. A clause on an absent field
// is false.
func (c Condition) Matches(p eventmodels.Payload) bool {
	for _, cl := range c.All {
		if !cl.holds(p) {
			return false
		}
	}
	if len(c.Any) == 0 {
		return true
	}
	for _, cl := range c.Any {
		if cl.holds(p) {
			return true
		}
	}
	return false
}

func (cl Clause) holds(p eventmodels.Payload) bool {
	actual, ok := p.Get(cl.Field)
	if !ok {
		return false
	}
	if cl.Op == OpExists {
		return true
	}
	if set, isSet := actual.([]string); isSet {
		return setHolds(cl, set)
	}
	switch cl.Op {
	case OpEq:
		return actual == cl.Value
	case OpNeq:
		return actual != cl.Value
	case OpIn:
		list, _ := cl.Value.([]any)
		return slices.Contains(list, actual)
	case OpGt, OpGte, OpLt, OpLte:
		a, aok := actual.(float64)
		b, bok := cl.Value.(float64)
		if !aok || !bok {
			return false
		}
		switch cl.Op {
		case OpGt:
			return a > b
		case OpGte:
			return a >= b
		case OpLt:
			return a < b
		default:
			return a <= b
		}
	}
	return false
}

func setHolds(cl Clause, set []string) bool {
	switch cl.Op {
	case OpEq:
		s, _ := cl.Value.(string)
		return slices.Contains(set, s)
	case OpIn:
		list, _ := cl.Value.([]any)
		for _, v := range list {
			if s, ok := v.(string); ok && slices.Contains(set, s) {
				return true
			}
		}
	}
	return false
}

func (c Condition) clone() Condition {
	return Condition{All: cloneClauses(c.All), Any: cloneClauses(c.Any)}
}

func cloneClauses(in []Clause) []Clause {
	if in == nil {
		return nil
	}
	out := make([]Clause, len(in))
	for i, cl := range in {
		out[i] = cl
		if list, ok := cl.Value.([]any); ok {
			out[i].Value = slices.Clone(list)
		}
	}
	return out
}
