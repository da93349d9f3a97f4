package models

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"
	"sort"

	dErrors "careflow/pkg/domain-errors"
)

// Kind is the value type of a payload field.
type Kind string

const (
	KindString    Kind = "string"
	KindNumber    Kind = "number"
	KindBool      Kind = "bool"
	KindStringSet Kind = "string_set"
)

// Field declares one payload field of an event type.
type Field struct {
	Kind     Kind
	Required bool
}

// Schema maps field names to their declaration.
type Schema map[string]Field

var schemas = map[Type]Schema{
	TypeAssessmentCreated: {
		"assessment_id": {Kind: KindString, Required: true},
		"patient_id":    {Kind: KindString, Required: true},
		"risk_score":    {Kind: KindNumber, Required: true},
		"risk_level":    {Kind: KindString, Required: true},
		"drivers":       {Kind: KindStringSet},
		"source":        {Kind: KindString},
		"patient_age":   {Kind: KindNumber},
	},
	TypeCheckinUrgent: {
		"checkin_id":        {Kind: KindString, Required: true},
		"patient_id":        {Kind: KindString, Required: true},
		"signal_count":      {Kind: KindNumber, Required: true},
		"signals":           {Kind: KindStringSet, Required: true},
		"urgency":           {Kind: KindString, Required: true},
		"symptom_severity":  {Kind: KindNumber},
		"oxygen_saturation": {Kind: KindNumber},
		"heart_rate":        {Kind: KindNumber},
		"systolic_bp":       {Kind: KindNumber},
		"mood":              {Kind: KindNumber},
		"medication_taken":  {Kind: KindBool},
	},
	TypeAdmissionCreated: {
		"admission_id": {Kind: KindString, Required: true},
		"patient_id":   {Kind: KindString, Required: true},
		"bed_id":       {Kind: KindString, Required: true},
		"ward_id":      {Kind: KindString, Required: true},
		"patient_age":  {Kind: KindNumber},
	},
	TypeAdmissionTransferred: {
		"admission_id": {Kind: KindString, Required: true},
		"patient_id":   {Kind: KindString, Required: true},
		"from_bed_id":  {Kind: KindString, Required: true},
		"to_bed_id":    {Kind: KindString, Required: true},
		"ward_id":      {Kind: KindString, Required: true},
		"patient_age":  {Kind: KindNumber},
	},
	TypeAdmissionDischarged: {
		"admission_id": {Kind: KindString, Required: true},
		"patient_id":   {Kind: KindString, Required: true},
		"bed_id":       {Kind: KindString, Required: true},
		"ward_id":      {Kind: KindString, Required: true},
		"patient_age":  {Kind: KindNumber},
	},
	TypeMedicationOrderStatusChanged: {
		"order_id":    {Kind: KindString, Required: true},
		"patient_id":  {Kind: KindString, Required: true},
		"from_status": {Kind: KindString, Required: true},
		"to_status":   {Kind: KindString, Required: true},
		"medication":  {Kind: KindString},
	},
	TypeLabOrderStatusChanged: {
		"order_id":    {Kind: KindString, Required: true},
		"patient_id":  {Kind: KindString, Required: true},
		"from_status": {Kind: KindString, Required: true},
		"to_status":   {Kind: KindString, Required: true},
		"priority":    {Kind: KindString},
		"test_name":   {Kind: KindString},
	},
	TypeReferralCreated: {
		"referral_id":     {Kind: KindString, Required: true},
		"patient_id":      {Kind: KindString, Required: true},
		"category":        {Kind: KindString, Required: true},
		"source_event_id": {Kind: KindString},
	},
}

// SchemaFor returns the payload schema of t.
func SchemaFor(t Type) (Schema, bool) {
	s, ok := schemas[t]
	return s, ok
}

// Types lists every registered event type in name order.
func Types() []Type {
	out := slices.Collect(maps.Keys(schemas))
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Payload holds typed field values: string, float64, bool, or []string.
type Payload map[string]any

// Clone copies p, including string sets.
func (p Payload) Clone() Payload {
	if p == nil {
		return nil
	}
	out := make(Payload, len(p))
	for k, v := range p {
		if set, ok := v.([]string); ok {
			v = slices.Clone(set)
		}
		out[k] = v
	}
	return out
}

func (p Payload) Get(field string) (any, bool) {
	v, ok := p[field]
	return v, ok
}

func (p Payload) String(field string) (string, bool) {
	v, ok := p[field].(string)
	return v, ok
}

func (p Payload) Number(field string) (float64, bool) {
	v, ok := p[field].(float64)
	return v, ok
}

func (p Payload) Bool(field string) (bool, bool) {
	v, ok := p[field].(bool)
	return v, ok
}

func (p Payload) StringSet(field string) ([]string, bool) {
	v, ok := p[field].([]string)
	return v, ok
}

// Normalize checks p against the schema of t and returns a copy whose values carry
// the canonical Go type of their Kind. Unknown fields, kind mismatches, and missing
// required fields are validation errors.
func Normalize(t Type, p Payload) (Payload, error) {
	schema, ok := schemas[t]
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown event type %q", t)
	}
	out := make(Payload, len(p))
	for name, raw := range p {
		field, ok := schema[name]
		if !ok {
			return nil, dErrors.Newf(dErrors.CodeValidation, "%s: unknown payload field %q", t, name)
		}
		if raw == nil {
			continue
		}
		v, err := coerce(field.Kind, raw)
		if err != nil {
			return nil, dErrors.Newf(dErrors.CodeValidation, "%s.%s: %v", t, name, err)
		}
		out[name] = v
	}
	for name, field := range schema {
		if _, ok := out[name]; field.Required && !ok {
			return nil, dErrors.Newf(dErrors.CodeValidation, "%s: missing payload field %q", t, name)
		}
	}
	return out, nil
}

// Coerce converts raw to the canonical Go type of kind.
func Coerce(kind Kind, raw any) (any, error) {
	return coerce(kind, raw)
}

func coerce(kind Kind, raw any) (any, error) {
	switch kind {
	case KindString:
		if s, ok := raw.(string); ok {
			return s, nil
		}
	case KindBool:
		if b, ok := raw.(bool); ok {
			return b, nil
		}
	case KindNumber:
		if f, ok := toFloat(raw); ok {
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return nil, fmt.Errorf("number must be finite")
			}
			return f, nil
		}
	case KindStringSet:
		switch v := raw.(type) {
		case []string:
			return slices.Clone(v), nil
		case []any:
			out := make([]string, 0, len(v))
			for _, item := range v {
				s, ok := item.(string)
				if !ok {
					return nil, fmt.Errorf("expected %s, got element %T", kind, item)
				}
				out = append(out, s)
			}
			return out, nil
		}
	default:
		return nil, fmt.Errorf("unknown kind %q", kind)
	}
	return nil, fmt.Errorf("expected %s, got %T", kind, raw)
}

func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

// DecodePayload parses stored JSON back into a normalized payload of type t.
func DecodePayload(t Type, raw []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", t, err)
	}
	return Normalize(t, p)
}
