// Package thruster implements the fuel-limited vertical thruster ("jetpack").
//
// A Resource owns its fuel pool exclusively. Each tick the caller feeds the
// raw activation input, then lets the fuel refill logic run, and finally the
// locomotion integrator pulls a force from it while airborne.
package thruster

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/opd-ai/go-skijet/pkg/physics"
)

// Config holds the static thruster tuning.
type Config struct {
	ForceMagnitude   float64 `json:"forceMagnitude" mapstructure:"forceMagnitude"`
	MaxVerticalSpeed float64 `json:"maxVerticalSpeed" mapstructure:"maxVerticalSpeed"` // 0 = constant force
	TaperFloor       float64 `json:"taperFloor" mapstructure:"taperFloor"`             // force fraction left at the cap
	MaxFuel          float64 `json:"maxFuel" mapstructure:"maxFuel"`
	ConsumeRate      float64 `json:"consumeRate" mapstructure:"consumeRate"` // fuel/sec while active
	RefillRate       float64 `json:"refillRate" mapstructure:"refillRate"`   // fuel/sec while refilling
	RefillDelay      float64 `json:"refillDelay" mapstructure:"refillDelay"` // sec after last active tick
}

// DefaultConfig returns the tapered thruster tuning.
func DefaultConfig() Config {
	return Config{
		ForceMagnitude:   25,
		MaxVerticalSpeed: 12,
		TaperFloor:       0.5,
		MaxFuel:          100,
		ConsumeRate:      20,
		RefillRate:       15,
		RefillDelay:      2,
	}
}

// BasicConfig returns the constant-force tuning with no vertical speed cap.
func BasicConfig() Config {
	cfg := DefaultConfig()
	cfg.ForceMagnitude = 40
	cfg.MaxVerticalSpeed = 0
	return cfg
}

// Source is what the locomotion integrator needs from a thruster.
type Source interface {
	IsActive() bool
	ComputeForce(verticalSpeed float64) mgl64.Vec3
}

// State is the mutable part of a Resource, exposed for replay and tests.
type State struct {
	Fuel           float64
	Active         bool
	LastActivation float64
	DeltaTime      float64
}

// Resource tracks the fuel pool and activation state.
type Resource struct {
	cfg   Config
	state State
}

// New creates a thruster with a full tank.
func New(cfg Config) *Resource {
	fuel := cfg.MaxFuel
	if fuel < 0 {
		fuel = 0
	}
	return &Resource{
		cfg:   cfg,
		state: State{Fuel: fuel},
	}
}

// Config returns the tuning the thruster was built with.
func (r *Resource) Config() Config {
	return r.cfg
}

// SetActivationInput recomputes activation from the raw held input. There is
// no carry-over from the previous tick: with an empty tank the thruster is
// inactive even if the key is held.
func (r *Resource) SetActivationInput(held bool, now float64) {
	r.state.Active = held && r.state.Fuel > 0
	if r.state.Active {
		r.state.LastActivation = now
	}
}

// UpdateFuel records the tick length and refills the tank once the refill
// delay has elapsed since the last active tick. It must run every tick.
func (r *Resource) UpdateFuel(dt, now float64) {
	r.state.DeltaTime = dt
	if r.state.Active || dt <= 0 {
		return
	}
	if now > r.state.LastActivation+r.cfg.RefillDelay {
		r.state.Fuel += r.cfg.RefillRate * dt
		if r.state.Fuel > r.cfg.MaxFuel {
			r.state.Fuel = r.cfg.MaxFuel
		}
	}
}

// Tick runs SetActivationInput followed by UpdateFuel.
func (r *Resource) Tick(held bool, dt, now float64) {
	r.SetActivationInput(held, now)
	r.UpdateFuel(dt, now)
}

// ComputeForce burns fuel for the current tick and returns the upward force.
// Fuel is consumed even when the vertical speed cap suppresses the force.
func (r *Resource) ComputeForce(verticalSpeed float64) mgl64.Vec3 {
	if !r.state.Active || r.state.Fuel <= 0 {
		return mgl64.Vec3{}
	}

	r.state.Fuel -= r.cfg.ConsumeRate * r.state.DeltaTime
	if r.state.Fuel < 0 {
		r.state.Fuel = 0
	}

	return physics.Up.Mul(r.forceFor(verticalSpeed))
}

// forceFor returns the thrust magnitude at the given vertical speed.
func (r *Resource) forceFor(verticalSpeed float64) float64 {
	limit := r.cfg.MaxVerticalSpeed
	if limit <= 0 {
		return r.cfg.ForceMagnitude
	}
	if verticalSpeed >= limit {
		return 0
	}
	ratio := physics.Clamp01(verticalSpeed / limit)
	return r.cfg.ForceMagnitude * (1 - ratio*(1-r.cfg.TaperFloor))
}

// FuelFraction returns current fuel over capacity, for display.
func (r *Resource) FuelFraction() float64 {
	if r.cfg.MaxFuel <= 0 {
		return 0
	}
	return physics.Clamp01(r.state.Fuel / r.cfg.MaxFuel)
}

// Fuel returns the current fuel level.
func (r *Resource) Fuel() float64 {
	return r.state.Fuel
}

// IsActive reports whether the thruster fired this tick.
func (r *Resource) IsActive() bool {
	return r.state.Active
}

// LastActivation returns the simulation time of the most recent active tick.
func (r *Resource) LastActivation() float64 {
	return r.state.LastActivation
}

// Snapshot returns a copy of the mutable state.
func (r *Resource) Snapshot() State {
	return r.state
}

// Restore replaces the mutable state. Fuel is clamped into [0, MaxFuel].
func (r *Resource) Restore(s State) {
	if s.Fuel < 0 {
		s.Fuel = 0
	}
	if s.Fuel > r.cfg.MaxFuel {
		s.Fuel = r.cfg.MaxFuel
	}
	s.Active = s.Active && s.Fuel > 0
	r.state = s
}
