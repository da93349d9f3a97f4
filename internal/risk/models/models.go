package models

import (
	"time"

	id "careflow/pkg/domain"
)

// Level is the triage band derived from a risk score.
type Level string

const (
	LevelLow      Level = "LOW"
	LevelMedium   Level = "MEDIUM"
	LevelHigh     Level = "HIGH"
	LevelCritical Level = "CRITICAL"
)

func (l Level) String() string { return string(l) }

// Features are the scoring inputs. A nil field is absent and contributes nothing.
type Features struct {
	Age               *float64 `json:"age,omitempty"`
	BMI               *float64 `json:"bmi,omitempty"`
	BloodPressure     *float64 `json:"blood_pressure,omitempty"` // systolic, mmHg
	Cholesterol       *float64 `json:"cholesterol,omitempty"`    // total, mg/dL
	Smoker            *bool    `json:"smoker,omitempty"`
	ExerciseMinutes   *float64 `json:"exercise_minutes,omitempty"` // per week
	ChronicConditions *int     `json:"chronic_conditions,omitempty"`
	HeartRate         *float64 `json:"heart_rate,omitempty"`
	OxygenSaturation  *float64 `json:"oxygen_saturation,omitempty"`
}

// Merge returns f with every non-nil field of other applied on top.
func (f Features) Merge(other Features) Features {
	out := f
	if other.Age != nil {
		out.Age = other.Age
	}
	if other.BMI != nil {
		out.BMI = other.BMI
	}
	if other.BloodPressure != nil {
		out.BloodPressure = other.BloodPressure
	}
	if other.Cholesterol != nil {
		out.Cholesterol = other.Cholesterol
	}
	if other.Smoker != nil {
		out.Smoker = other.Smoker
	}
	if other.ExerciseMinutes != nil {
		out.ExerciseMinutes = other.ExerciseMinutes
	}
	if other.ChronicConditions != nil {
		out.ChronicConditions = other.ChronicConditions
	}
	if other.HeartRate != nil {
		out.HeartRate = other.HeartRate
	}
	if other.OxygenSaturation != nil {
		out.OxygenSaturation = other.OxygenSaturation
	}
	return out
}

// Driver explains one feature's signed, weighted share of a score.
type Driver struct {
	Feature      string  `json:"feature"`
	Label        string  `json:"label"`
	Contribution float64 `json:"contribution"`
}

// Result is the output of scoring.
type Result struct {
	Score   float64  `json:"risk_score"`
	Level   Level    `json:"risk_level"`
	Drivers []Driver `json:"drivers"`
}

// Source records which clinical action produced an assessment.
type Source string

const (
	SourceTriage  Source = "triage"
	SourceCheckin Source = "checkin"
)

// Assessment is an immutable, persisted scoring result.
type Assessment struct {
	ID        id.AssessmentID
	PatientID id.PatientID
	Score     float64
	Level     Level
	Drivers   []Driver
	Features  Features
	Source    Source
	CreatedAt time.Time
}

// DriverFeatures lists driver feature names in rank order.
func (a *Assessment) DriverFeatures() []string {
	out := make([]string, len(a.Drivers))
	for i, d := range a.Drivers {
		out[i] = d.Feature
	}
	return out
}
