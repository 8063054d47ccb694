// Package locomotion integrates a character's velocity once per tick.
//
// The Integrator is a two-state machine (grounded / airborne) with a skiing
// sub-mode on the ground. Every contribution is additive to the persistent
// velocity except where a clamp is called out: jump and ground-stick assign
// the vertical component, and the speed caps rescale the horizontal one.
package locomotion

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/opd-ai/go-skijet/pkg/physics"
	"github.com/opd-ai/go-skijet/pkg/thruster"
)

// Host is the character controller the integrator reads its frame and
// jump/gravity tuning from.
type Host interface {
	Forward() mgl64.Vec3
	Right() mgl64.Vec3
	JumpSpeed() float64
	GravityMultiplier() float64
}

// NormalSource supplies the latest ground contact normal.
type NormalSource interface {
	Normal() mgl64.Vec3
}

// Input is everything the integrator consumes for a single tick.
type Input struct {
	Move        mgl64.Vec2 // X = strafe (right), Y = forward; each axis in [-1, 1]
	BaseSpeed   float64
	JumpPressed bool // rising edge only
	JumpHeld    bool // held since a previous tick
	Grounded    bool
}

// State is the integrator's persistent state, exposed for replay and tests.
type State struct {
	Velocity          mgl64.Vec3
	WasGrounded       bool
	LastMoveDirection mgl64.Vec3
	IsSkiing          bool
	CurrentSpeed      float64
}

// Integrator owns the character velocity. It is not safe for concurrent use;
// exactly one Step runs per tick.
type Integrator struct {
	cfg      Config
	host     Host
	thruster thruster.Source
	ground   NormalSource

	velocity          mgl64.Vec3
	wasGrounded       bool
	lastMoveDirection mgl64.Vec3
	isSkiing          bool
	currentSpeed      float64
	slopeAngle        float64
}

// New creates an integrator at rest. thr and ground may be nil: a missing
// thruster means airborne ticks always apply gravity, and a missing ground
// source reads as flat ground.
func New(cfg Config, host Host, thr thruster.Source, ground NormalSource) *Integrator {
	if host == nil {
		host = StaticHost{}
	}
	return &Integrator{
		cfg:      cfg,
		host:     host,
		thruster: thr,
		ground:   ground,
	}
}

// Step advances the velocity by one tick and returns it. A non-positive or
// non-finite dt leaves the state untouched.
func (it *Integrator) Step(in Input, dt float64) mgl64.Vec3 {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return it.velocity
	}

	move := sanitizeMove(in.Move)
	moveMag := move.Len()
	dir := it.inputDirection(move)

	v := it.velocity
	it.currentSpeed = physics.HorizontalSpeed(v)
	it.isSkiing = in.Grounded && it.currentSpeed > it.cfg.MinSpeedToSki

	if in.Grounded {
		v = it.stepGrounded(v, in, move, moveMag, dir, dt)
	} else {
		v = it.stepAirborne(v, moveMag, dir, dt)
	}

	if physics.IsFinite(v) {
		it.velocity = v
	}
	return it.velocity
}

func (it *Integrator) stepGrounded(v mgl64.Vec3, in Input, move mgl64.Vec2, moveMag float64, dir mgl64.Vec3, dt float64) mgl64.Vec3 {
	cfg := it.cfg

	// Jump only ever touches the vertical component so ski momentum survives.
	if in.JumpPressed && !in.JumpHeld {
		v[1] = it.host.JumpSpeed()
	} else if !in.JumpPressed && v.Y() < 0 {
		v[1] = -cfg.GroundStickSpeed
	}

	normal := it.groundNormal()
	it.slopeAngle = physics.SlopeAngle(normal)
	onSlope := it.slopeAngle > cfg.SlopeThreshold

	if it.isSkiing {
		v = it.ski(v, move, moveMag, dir, normal, onSlope, dt)
	} else {
		v = it.walk(v, dir, in.BaseSpeed, dt)
	}

	it.wasGrounded = true
	return v
}

func (it *Integrator) ski(v mgl64.Vec3, move mgl64.Vec2, moveMag float64, dir, normal mgl64.Vec3, onSlope bool, dt float64) mgl64.Vec3 {
	cfg := it.cfg

	if cfg.MaxSpeed > 0 && it.currentSpeed > cfg.MaxSpeed {
		v = physics.ClampHorizontal(v, cfg.MaxSpeed)
	}

	if onSlope && it.slopeAngle > cfg.MinSlopeAngleForBoost {
		v = v.Add(it.slopeForce(v, normal, dt))
	}

	steering := moveMag > cfg.InputDeadzone

	// Sharper direction changes scrub more speed off the edges.
	if steering {
		change := physics.AngleDeg(it.lastMoveDirection, dir)
		turn := ratio(change, cfg.TurnRange) * cfg.TurningFriction
		v = physics.LerpVec3(v, v.Mul(1-turn*dt), dt*cfg.TurnBlendRate)
	}

	friction := cfg.SkiFriction
	if !onSlope {
		friction *= cfg.FlatSkiFrictionScale
	}
	v[0] = physics.Lerp(v.X(), v.X()*(1-friction), dt)
	v[2] = physics.Lerp(v.Z(), v.Z()*(1-friction), dt)

	if steering {
		control := dir.Mul(cfg.SkiControl * dt)
		speedRatio := 0.0
		if cfg.MaxSpeed > 0 {
			speedRatio = physics.Clamp01(it.currentSpeed / cfg.MaxSpeed)
		}
		v = v.Add(control.Mul(physics.Lerp(1, cfg.HighSpeedControlFloor, speedRatio)))

		if cfg.BrakeThreshold > 0 && move.Y() < -cfg.BrakeThreshold {
			forward := it.host.Forward()
			v = v.Sub(forward.Mul(v.Dot(forward) * cfg.GroundFriction * dt))
		}

		it.lastMoveDirection = dir
	}

	return v
}

// slopeForce returns the velocity change from gravity along the slope plane.
// The direction of travel is judged from the full velocity, including the
// ground-stick component.
func (it *Integrator) slopeForce(v, normal mgl64.Vec3, dt float64) mgl64.Vec3 {
	cfg := it.cfg

	slopeDir := physics.SafeNormalize(physics.ProjectOnPlane(physics.Down, normal))
	factor := ratio(it.slopeAngle-cfg.MinSlopeAngleForBoost, cfg.SlopeRange)

	gain := cfg.UphillMomentumRetention
	if physics.SafeNormalize(v).Dot(physics.Up) < 0 {
		gain = cfg.DownhillSpeedGain
	}

	return slopeDir.Mul(cfg.Gravity * factor * gain * dt)
}

func (it *Integrator) walk(v, dir mgl64.Vec3, baseSpeed, dt float64) mgl64.Vec3 {
	cfg := it.cfg

	target := dir.Mul(baseSpeed)
	v[0] = physics.Lerp(v.X(), target.X(), cfg.GroundFriction*dt)
	v[2] = physics.Lerp(v.Z(), target.Z(), cfg.GroundFriction*dt)

	limit := math.Max(baseSpeed*cfg.WalkSpeedCapScale, 0)
	horizontal := physics.Horizontal(v)
	if horizontal.Len() > limit {
		v = physics.WithHorizontal(v, physics.SafeNormalize(horizontal).Mul(limit))
	}
	return v
}

func (it *Integrator) stepAirborne(v mgl64.Vec3, moveMag float64, dir mgl64.Vec3, dt float64) mgl64.Vec3 {
	cfg := it.cfg
	it.isSkiing = false

	if cfg.MaxSpeed > 0 {
		v = physics.ClampHorizontal(v, cfg.MaxSpeed)
	}

	// Thrust and gravity never combine in the same tick.
	if it.thrusterActive() {
		v = v.Add(it.thruster.ComputeForce(v.Y()).Mul(dt))
	} else {
		v[1] += cfg.WorldGravity * it.host.GravityMultiplier() * dt
	}

	multiplier := cfg.AirControl * cfg.AirControlSustained
	if it.wasGrounded {
		multiplier = cfg.AirControl * cfg.AirControlTakeoffBoost
	}
	if moveMag > cfg.InputDeadzone {
		v = v.Add(dir.Mul(cfg.GroundControl * multiplier * dt))
	}

	it.wasGrounded = false
	return v
}

func (it *Integrator) thrusterActive() bool {
	return it.thruster != nil && it.thruster.IsActive()
}

func (it *Integrator) groundNormal() mgl64.Vec3 {
	if it.ground == nil {
		return physics.Up
	}
	n := physics.SafeNormalize(it.ground.Normal())
	if n == physics.Zero {
		return physics.Up
	}
	return n
}

// inputDirection maps the local move vector onto the host's world axes.
func (it *Integrator) inputDirection(move mgl64.Vec2) mgl64.Vec3 {
	world := it.host.Forward().Mul(move.Y()).Add(it.host.Right().Mul(move.X()))
	return physics.SafeNormalize(world)
}

// Velocity returns the current velocity.
func (it *Integrator) Velocity() mgl64.Vec3 {
	return it.velocity
}

// SetVelocity overwrites the velocity, e.g. after the host resolves a collision.
func (it *Integrator) SetVelocity(v mgl64.Vec3) {
	if physics.IsFinite(v) {
		it.velocity = v
	}
}

// IsSkiing reports whether the last tick ran in the skiing sub-mode.
func (it *Integrator) IsSkiing() bool {
	return it.isSkiing
}

// CurrentSpeed returns the horizontal speed measured at the start of the last tick.
func (it *Integrator) CurrentSpeed() float64 {
	return it.currentSpeed
}

// SlopeAngle returns the ground slope seen on the last grounded tick, in degrees.
func (it *Integrator) SlopeAngle() float64 {
	return it.slopeAngle
}

// WasGrounded reports whether the last tick was grounded.
func (it *Integrator) WasGrounded() bool {
	return it.wasGrounded
}

// LastMoveDirection returns the last steering direction applied while skiing.
func (it *Integrator) LastMoveDirection() mgl64.Vec3 {
	return it.lastMoveDirection
}

// Config returns the integrator's tuning.
func (it *Integrator) Config() Config {
	return it.cfg
}

// Snapshot returns a copy of the persistent state.
func (it *Integrator) Snapshot() State {
	return State{
		Velocity:          it.velocity,
		WasGrounded:       it.wasGrounded,
		LastMoveDirection: it.lastMoveDirection,
		IsSkiing:          it.isSkiing,
		CurrentSpeed:      it.currentSpeed,
	}
}

// Restore replaces the persistent state.
func (it *Integrator) Restore(s State) {
	it.velocity = s.Velocity
	it.wasGrounded = s.WasGrounded
	it.lastMoveDirection = s.LastMoveDirection
	it.isSkiing = s.IsSkiing
	it.currentSpeed = s.CurrentSpeed
}

// sanitizeMove zeroes NaN axes.
func sanitizeMove(m mgl64.Vec2) mgl64.Vec2 {
	for i, c := range m {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			m[i] = 0
		}
	}
	return m
}

// ratio maps value onto [0, 1] over span. A non-positive span saturates.
func ratio(value, span float64) float64 {
	if span <= 0 {
		if value > 0 {
			return 1
		}
		return 0
	}
	return physics.Clamp01(value / span)
}
