package scoring

import "careflow/internal/risk/models"

// feature is one published term of the score: weight × curve(value).
type feature struct {
	name   string
	label  string
	weight float64
	value  func(models.Features) (float64, bool)
}

// ramp is 0 at or below lo, 1 at or above hi, linear between.
func ramp(v, lo, hi float64) float64 {
	switch {
	case v <= lo:
		return 0
	case v >= hi:
		return 1
	}
	return (v - lo) / (hi - lo)
}

// Published weights and curves. Absent inputs contribute 0.
//
//	age               0.20  0 at <=20 y,        1 at >=70 y
//	bmi               0.15  0 at <=22,          1 at >=32
//	blood_pressure    0.25  0 at <=110 mmHg,    1 at >=150 mmHg (systolic)
//	cholesterol       0.20  0 at <=160 mg/dL,   1 at >=240 mg/dL
//	smoking           0.10  1 when smoker
//	exercise          0.05  +1 at 0 min/week, 0 at 150, -1 at >=300 (protective)
//	chronic           0.05  n/5 conditions, capped at 1
//	heart_rate        0.10  0 at <=100 bpm,     1 at >=140 bpm
//	oxygen_saturation 0.15  0 at >=95 %,        1 at <=85 %
var features = []feature{
	{name: "age", label: "Age", weight: 0.20, value: func(f models.Features) (float64, bool) {
		if f.Age == nil {
			return 0, false
		}
		return ramp(*f.Age, 20, 70), true
	}},
	{name: "bmi", label: "Body mass index", weight: 0.15, value: func(f models.Features) (float64, bool) {
		if f.BMI == nil {
			return 0, false
		}
		return ramp(*f.BMI, 22, 32), true
	}},
	{name: "blood_pressure", label: "Systolic blood pressure", weight: 0.25, value: func(f models.Features) (float64, bool) {
		if f.BloodPressure == nil {
			return 0, false
		}
		return ramp(*f.BloodPressure, 110, 150), true
	}},
	{name: "cholesterol", label: "Total cholesterol", weight: 0.20, value: func(f models.Features) (float64, bool) {
		if f.Cholesterol == nil {
			return 0, false
		}
		return ramp(*f.Cholesterol, 160, 240), true
	}},
	{name: "smoking", label: "Smoking", weight: 0.10, value: func(f models.Features) (float64, bool) {
		if f.Smoker == nil || !*f.Smoker {
			return 0, f.Smoker != nil
		}
		return 1, true
	}},
	{name: "exercise", label: "Weekly exercise", weight: 0.05, value: func(f models.Features) (float64, bool) {
		if f.ExerciseMinutes == nil {
			return 0, false
		}
		return 1 - 2*ramp(*f.ExerciseMinutes, 0, 300), true
	}},
	{name: "chronic_conditions", label: "Chronic conditions", weight: 0.05, value: func(f models.Features) (float64, bool) {
		if f.ChronicConditions == nil {
			return 0, false
		}
		return ramp(float64(*f.ChronicConditions), 0, 5), true
	}},
	{name: "heart_rate", label: "Heart rate", weight: 0.10, value: func(f models.Features) (float64, bool) {
		if f.HeartRate == nil {
			return 0, false
		}
		return ramp(*f.HeartRate, 100, 140), true
	}},
	{name: "oxygen_saturation", label: "Oxygen saturation", weight: 0.15, value: func(f models.Features) (float64, bool) {
		if f.OxygenSaturation == nil {
			return 0, false
		}
		return ramp(95-*f.OxygenSaturation, 0, 10), true
	}},
}
