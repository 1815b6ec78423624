/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package wheel

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"
)

var (
	ErrNoCandidates   = errors.New("wheel has no candidates")
	ErrSpinInProgress = errors.New("a spin is already in progress")
)

// Source supplies uniform random numbers in [0, 1). *math/rand/v2.Rand
// satisfies it.
type Source interface {
	Float64() float64
}

// Config holds the tuning of a spin.
type Config struct {
	Duration time.Duration
	MinTurns float64
	MaxTurns float64
	Easing   Easing
}

// DefaultConfig is a five second quartic ease-out of 5 to 8 full turns.
func DefaultConfig() Config {
	return Config{
		Duration: 5 * time.Second,
		MinTurns: 5,
		MaxTurns: 8,
		Easing:   EaseOutQuart,
	}
}

func (c Config) validate() error {
	if c.Duration <= 0 {
		return fmt.Errorf("spin duration must be positive: %s", c.Duration)
	}
	if math.IsNaN(c.MinTurns) || math.IsInf(c.MinTurns, 0) || c.MinTurns < 1 {
		return fmt.Errorf("minimum turns must be a finite number of at least 1: %v", c.MinTurns)
	}
	if math.IsNaN(c.MaxTurns) || math.IsInf(c.MaxTurns, 0) || c.MaxTurns <= c.MinTurns {
		return fmt.Errorf("maximum turns must be finite and above minimum turns (%v): %v", c.MinTurns, c.MaxTurns)
	}
	return nil
}

// SpinState describes the spin currently in flight.
type SpinState struct {
	StartTime      time.Time     `json:"-"`
	StartRotation  float64       `json:"start_rotation"`
	TargetRotation float64       `json:"target_rotation"`
	Duration       time.Duration `json:"-"`
}

// Progress returns linear progress in [0, 1] at now.
func (s SpinState) Progress(now time.Time) float64 {
	elapsed := now.Sub(s.StartTime)
	if elapsed <= 0 {
		return 0
	}
	if elapsed >= s.Duration {
		return 1
	}
	return float64(elapsed) / float64(s.Duration)
}

// Engine owns the rotation of one wheel. It is not safe for concurrent use;
// a single goroutine issues RequestSpin and Tick.
type Engine struct {
	cfg Config
	rng Source

	rotation float64
	spin     *SpinState

	// snapshot of the candidates at spin start
	candidates []Candidate
}

// New returns an idle engine at rotation zero.
func New(cfg Config, rng Source) (*Engine, error) {
	if cfg.Easing == nil {
		cfg.Easing = EaseOutQuart
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, errors.New("wheel needs a random source")
	}

	return &Engine{cfg: cfg, rng: rng}, nil
}

// Config returns the tuning the engine was built with.
func (e *Engine) Config() Config {
	return e.cfg
}

// Rotation is the orientation applied to the wheel this frame.
func (e *Engine) Rotation() float64 {
	return e.rotation
}

// Spinning reports whether a spin is in flight.
func (e *Engine) Spinning() bool {
	return e.spin != nil
}

// State returns the in-flight spin, if any.
func (e *Engine) State() (SpinState, bool) {
	if e.spin == nil {
		return SpinState{}, false
	}
	return *e.spin, true
}

// RequestSpin starts a spin from the current rotation. The candidates are
// copied; later changes to the caller's slice do not affect resolution.
func (e *Engine) RequestSpin(now time.Time, candidates []Candidate) error {
	if e.spin != nil {
		return ErrSpinInProgress
	}
	if len(candidates) == 0 {
		return ErrNoCandidates
	}

	extraTurns := e.cfg.MinTurns + e.rng.Float64()*(e.cfg.MaxTurns-e.cfg.MinTurns)
	randomOffset := e.rng.Float64() * FullTurn

	e.candidates = slices.Clone(candidates)
	e.spin = &SpinState{
		StartTime:      now,
		StartRotation:  e.rotation,
		TargetRotation: e.rotation + extraTurns*FullTurn + randomOffset,
		Duration:       e.cfg.Duration,
	}

	return nil
}

// Tick advances the rotation to now. It returns the resolved candidate on
// the tick that completes the spin and false on every other call.
func (e *Engine) Tick(now time.Time) (Candidate, bool) {
	if e.spin == nil {
		return Candidate{}, false
	}

	s := e.spin
	progress := s.Progress(now)

	e.rotation = s.StartRotation + (s.TargetRotation-s.StartRotation)*e.cfg.Easing(progress)

	if progress < 1 {
		return Candidate{}, false
	}

	e.rotation = s.TargetRotation
	e.spin = nil

	winner := e.candidates[Resolve(e.rotation, len(e.candidates))]
	e.candidates = nil

	return winner, true
}
