// Package scoring is the explainable triage risk formula.
//
// Score is a pure function of its input: each present feature is mapped onto [0,1] by
// a published curve, multiplied by a published weight, and summed. The sum is clamped
// to [0,1] and banded into a Level by configurable cut points. Drivers are the signed
// weighted contributions ranked by magnitude.
package scoring

import (
	"fmt"
	"math"
	"sort"

	"careflow/internal/risk/models"
	dErrors "careflow/pkg/domain-errors"
)

// CutPoints are the lower bounds of MEDIUM, HIGH, and CRITICAL.
type CutPoints struct {
	Medium   float64
	High     float64
	Critical float64
}

// Config holds scoring configuration.
type Config struct {
	CutPoints CutPoints
	TopK      int
}

// DefaultConfig returns cut points 0.25/0.5/0.75 and three drivers.
func DefaultConfig() Config {
	return Config{
		CutPoints: CutPoints{Medium: 0.25, High: 0.5, Critical: 0.75},
		TopK:      3,
	}
}

// Validate requires strictly ascending cut points inside (0,1) and a positive TopK.
func (c Config) Validate() error {
	cp := c.CutPoints
	if !(cp.Medium > 0 && cp.Medium < cp.High && cp.High < cp.Critical && cp.Critical < 1) {
		return fmt.Errorf("risk cut points must be ascending within (0,1): got %v/%v/%v", cp.Medium, cp.High, cp.Critical)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("risk top-k must be positive: got %d", c.TopK)
	}
	return nil
}

// Engine scores features against a fixed configuration.
type Engine struct {
	cfg Config
}

// NewEngine validates cfg and returns an Engine.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// Score computes score, level, and drivers. Malformed input is a validation error.
func (e *Engine) Score(f models.Features) (models.Result, error) {
	if err := Validate(f); err != nil {
		return models.Result{}, err
	}

	var total float64
	drivers := make([]models.Driver, 0, len(features))
	for _, feat := range features {
		sub, ok := feat.value(f)
		if !ok {
			continue
		}
		contribution := feat.weight * sub
		total += contribution
		if contribution == 0 {
			continue
		}
		drivers = append(drivers, models.Driver{
			Feature:      feat.name,
			Label:        feat.label,
			Contribution: contribution,
		})
	}

	sort.SliceStable(drivers, func(i, j int) bool {
		ai, aj := math.Abs(drivers[i].Contribution), math.Abs(drivers[j].Contribution)
		if ai != aj {
			return ai > aj
		}
		return drivers[i].Feature < drivers[j].Feature
	})
	if len(drivers) > e.cfg.TopK {
		drivers = drivers[:e.cfg.TopK]
	}

	score := clamp01(total)
	return models.Result{
		Score:   score,
		Level:   e.LevelFor(score),
		Drivers: drivers,
	}, nil
}

// LevelFor bands score by the configured cut points. It is monotonic in score.
func (e *Engine) LevelFor(score float64) models.Level {
	cp := e.cfg.CutPoints
	switch {
	case score >= cp.Critical:
		return models.LevelCritical
	case score >= cp.High:
		return models.LevelHigh
	case score >= cp.Medium:
		return models.LevelMedium
	}
	return models.LevelLow
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

type bounds struct {
	name     string
	value    *float64
	min, max float64
}

// Validate rejects non-finite and physiologically impossible inputs.
func Validate(f models.Features) error {
	checks := []bounds{
		{"age", f.Age, 0, 130},
		{"bmi", f.BMI, 8, 100},
		{"blood_pressure", f.BloodPressure, 40, 320},
		{"cholesterol", f.Cholesterol, 40, 1000},
		{"exercise_minutes", f.ExerciseMinutes, 0, 10080},
		{"heart_rate", f.HeartRate, 20, 300},
		{"oxygen_saturation", f.OxygenSaturation, 40, 100},
	}
	for _, c := range checks {
		if c.value == nil {
			continue
		}
		v := *c.value
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return dErrors.Newf(dErrors.CodeValidation, "%s must be a finite number", c.name)
		}
		if v < c.min || v > c.max {
			return dErrors.Newf(dErrors.CodeValidation, "%s must be between %g and %g", c.name, c.min, c.max)
		}
	}
	if f.ChronicConditions != nil && (*f.ChronicConditions < 0 || *f.ChronicConditions > 50) {
		return dErrors.New(dErrors.CodeValidation, "chronic_conditions must be between 0 and 50")
	}
	return nil
}
