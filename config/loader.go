package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultEngine returns the engine tunables the tracker ships with.
func DefaultEngine() Engine {
	return Engine{
		MaxSpeedMps:     50,
		BackwardJumpM:   50,
		BackwardVotes:   3,
		ProgressHistory: 5,
		SpeedWindow:     6,
		BlendNew:        0.7,

		SearchBackEdges:  120,
		SearchAheadEdges: 240,
		WindowFallbackM:  250,

		MinTurnAngleDeg:     28,
		MinManeuverSpacingM: 40,
		MinEdgeLenM:         8,
		ManeuverPassedM:     5,

		ArriveRadiusM:         25,
		SmartStartRadiusM:     50,
		ArrivedAtStartDwellMS: 1500,
		OffRouteM:             60,
		ResumeAheadM:          500,
		ResumeSearchM:         1000,

		CellSizeM:         160,
		SegmentMatchM:     25,
		PersistDebounceMS: 2000,
		MaxPersistRetries: 2,
	}
}

// PersistDebounce returns the debounce quiet period as a duration.
func (e Engine) PersistDebounce() time.Duration {
	return time.Duration(e.PersistDebounceMS) * time.Millisecond
}

// ArrivedAtStartDwell returns the arrived-at-start dwell as a duration.
func (e Engine) ArrivedAtStartDwell() time.Duration {
	return time.Duration(e.ArrivedAtStartDwellMS) * time.Millisecond
}

// Load reads an AppConfig from a yaml file, fills engine defaults for fields
// left at zero, and validates the result. It returns the config by value so
// callers inject it where needed instead of sharing a global.
func Load(path string) (AppConfig, error) {
	var cfg AppConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Engine = cfg.Engine.withDefaults()
	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("validate %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks an AppConfig against its struct validation tags.
func Validate(cfg AppConfig) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return err
	}
	return v.Struct(cfg.Engine)
}

// withDefaults fills any zero-valued tunable with its default. Explicit zero
// is not distinguishable from unset, which is fine: zero is invalid for every
// field that defaults to non-zero.
func (e Engine) withDefaults() Engine {
	d := DefaultEngine()
	if e.MaxSpeedMps == 0 {
		e.MaxSpeedMps = d.MaxSpeedMps
	}
	if e.BackwardJumpM == 0 {
		e.BackwardJumpM = d.BackwardJumpM
	}
	if e.BackwardVotes == 0 {
		e.BackwardVotes = d.BackwardVotes
	}
	if e.ProgressHistory == 0 {
		e.ProgressHistory = d.ProgressHistory
	}
	if e.SpeedWindow == 0 {
		e.SpeedWindow = d.SpeedWindow
	}
	if e.BlendNew == 0 {
		e.BlendNew = d.BlendNew
	}
	if e.SearchBackEdges == 0 {
		e.SearchBackEdges = d.SearchBackEdges
	}
	if e.SearchAheadEdges == 0 {
		e.SearchAheadEdges = d.SearchAheadEdges
	}
	if e.WindowFallbackM == 0 {
		e.WindowFallbackM = d.WindowFallbackM
	}
	if e.MinTurnAngleDeg == 0 {
		e.MinTurnAngleDeg = d.MinTurnAngleDeg
	}
	if e.MinManeuverSpacingM == 0 {
		e.MinManeuverSpacingM = d.MinManeuverSpacingM
	}
	if e.MinEdgeLenM == 0 {
		e.MinEdgeLenM = d.MinEdgeLenM
	}
	if e.ManeuverPassedM == 0 {
		e.ManeuverPassedM = d.ManeuverPassedM
	}
	if e.ArriveRadiusM == 0 {
		e.ArriveRadiusM = d.ArriveRadiusM
	}
	if e.SmartStartRadiusM == 0 {
		e.SmartStartRadiusM = d.SmartStartRadiusM
	}
	if e.ArrivedAtStartDwellMS == 0 {
		e.ArrivedAtStartDwellMS = d.ArrivedAtStartDwellMS
	}
	if e.OffRouteM == 0 {
		e.OffRouteM = d.OffRouteM
	}
	if e.ResumeAheadM == 0 {
		e.ResumeAheadM = d.ResumeAheadM
	}
	if e.ResumeSearchM == 0 {
		e.ResumeSearchM = d.ResumeSearchM
	}
	if e.CellSizeM == 0 {
		e.CellSizeM = d.CellSizeM
	}
	if e.SegmentMatchM == 0 {
		e.SegmentMatchM = d.SegmentMatchM
	}
	if e.PersistDebounceMS == 0 {
		e.PersistDebounceMS = d.PersistDebounceMS
	}
	if e.MaxPersistRetries == 0 {
		e.MaxPersistRetries = d.MaxPersistRetries
	}
	return e
}
