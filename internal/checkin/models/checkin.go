package models

import (
	"time"

	id "careflow/pkg/domain"
	dErrors "careflow/pkg/domain-errors"
)

// Signal names one reason a check-in needs clinical attention.
type Signal string

const (
	SignalSevereSymptoms      Signal = "severe_symptoms"
	SignalLowOxygen           Signal = "low_oxygen"
	SignalHypertensiveCrisis  Signal = "hypertensive_crisis"
	SignalTachycardia         Signal = "tachycardia"
	SignalLowMoodMissedDosage Signal = "low_mood_missed_medication"
)

// Thresholds for urgency signals.
const (
	SevereSymptomThreshold = 8
	LowOxygenThreshold     = 92.0
	CrisisSystolic         = 180.0
	TachycardiaHeartRate   = 130.0
	LowMoodThreshold       = 2
)

type Urgency string

const (
	UrgencyRoutine  Urgency = "routine"
	UrgencyUrgent   Urgency = "urgent"
	UrgencyCritical Urgency = "critical"
)

type Checkin struct {
	ID               id.CheckinID
	PatientID        id.PatientID
	SymptomSeverity  int // 0..10
	Mood             int // 1..5
	MedicationTaken  bool
	HeartRate        *float64
	SystolicBP       *float64
	OxygenSaturation *float64
	Notes            string
	Signals          []Signal
	CreatedAt        time.Time
}

// Validate checks self-reported scales and vital ranges.
func (c *Checkin) Validate() error {
	if c.PatientID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "patient ID is required")
	}
	if c.SymptomSeverity < 0 || c.SymptomSeverity > 10 {
		return dErrors.New(dErrors.CodeValidation, "symptom severity must be between 0 and 10")
	}
	if c.Mood < 1 || c.Mood > 5 {
		return dErrors.New(dErrors.CodeValidation, "mood must be between 1 and 5")
	}
	if err := inRange("heart rate", c.HeartRate, 20, 250); err != nil {
		return err
	}
	if err := inRange("systolic blood pressure", c.SystolicBP, 50, 300); err != nil {
		return err
	}
	return inRange("oxygen saturation", c.OxygenSaturation, 50, 100)
}

func inRange(name string, v *float64, lo, hi float64) error {
	if v != nil && (*v < lo || *v > hi) {
		return dErrors.Newf(dErrors.CodeValidation, "%s must be between %g and %g", name, lo, hi)
	}
	return nil
}

// Evaluate returns the urgency signals raised by c, in a fixed order.
func Evaluate(c *Checkin) []Signal {
	var signals []Signal
	if c.SymptomSeverity >= SevereSymptomThreshold {
		signals = append(signals, SignalSevereSymptoms)
	}
	if c.OxygenSaturation != nil && *c.OxygenSaturation < LowOxygenThreshold {
		signals = append(signals, SignalLowOxygen)
	}
	if c.SystolicBP != nil && *c.SystolicBP >= CrisisSystolic {
		signals = append(signals, SignalHypertensiveCrisis)
	}
	if c.HeartRate != nil && *c.HeartRate >= TachycardiaHeartRate {
		signals = append(signals, SignalTachycardia)
	}
	if c.Mood <= LowMoodThreshold && !c.MedicationTaken {
		signals = append(signals, SignalLowMoodMissedDosage)
	}
	return signals
}

// UrgencyFor maps a signal count to an urgency: none is routine, two or more is critical.
func UrgencyFor(signals []Signal) Urgency {
	switch {
	case len(signals) == 0:
		return UrgencyRoutine
	case len(signals) >= 2:
		return UrgencyCritical
	default:
		return UrgencyUrgent
	}
}
