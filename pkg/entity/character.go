package entity

import (
	"context"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/opd-ai/go-skijet/pkg/event"
	"github.com/opd-ai/go-skijet/pkg/input"
	"github.com/opd-ai/go-skijet/pkg/locomotion"
	"github.com/opd-ai/go-skijet/pkg/logging"
	"github.com/opd-ai/go-skijet/pkg/physics"
	"github.com/opd-ai/go-skijet/pkg/thruster"
)

// Core is the thruster, integrator and contact register of one character,
// stepped in the fixed per-tick order. Replay drives a Core directly.
type Core struct {
	Thruster   *thruster.Resource
	Integrator *locomotion.Integrator
	Contacts   *physics.ContactRegister
	BaseSpeed  float64
}

// NewCore builds a core at rest with a full tank.
func NewCore(host locomotion.Host, thr thruster.Config, loco locomotion.Config, baseSpeed float64) *Core {
	res := thruster.New(thr)
	contacts := physics.NewContactRegister()
	return &Core{
		Thruster:   res,
		Integrator: locomotion.New(loco, host, res, contacts),
		Contacts:   contacts,
		BaseSpeed:  baseSpeed,
	}
}

// Step updates the thruster from the held flag, then integrates velocity.
func (c *Core) Step(frame input.Frame, grounded bool, dt, now float64) mgl64.Vec3 {
	c.Thruster.Tick(frame.ThrusterHeld, dt, now)
	return c.Integrator.Step(locomotion.Input{
		Move:        frame.Move,
		BaseSpeed:   c.BaseSpeed,
		JumpPressed: frame.JumpPressed,
		JumpHeld:    frame.JumpHeld,
		Grounded:    grounded,
	}, dt)
}

// TickResult is what one Character tick produced.
type TickResult struct {
	Tick           uint64
	Now            float64
	DT             float64
	Frame          input.Frame
	Normal         mgl64.Vec3 // ground normal the integrator read
	Grounded       bool       // grounded flag the integrator read
	Velocity       mgl64.Vec3
	Position       mgl64.Vec3
	Skiing         bool
	Speed          float64
	Fuel           float64
	FuelFraction   float64
	ThrusterActive bool
	SlopeAngle     float64
	Skipped        bool
}

// Options configures optional collaborators of a Character.
type Options struct {
	Bus    *event.Bus
	Logger *logging.Logger
}

// Character is a skiing, jetpacking entity driven by a Body.
type Character struct {
	BaseEntity

	body   Body
	core   *Core
	bus    *event.Bus
	logger *logging.Logger

	ticks        uint64
	prevGrounded bool
	prevSkiing   bool
	prevActive   bool
	prevFuel     float64
	last         TickResult
}

// NewCharacter spawns a character on body with velocity zero and a full tank.
func NewCharacter(id ID, body Body, thr thruster.Config, loco locomotion.Config, baseSpeed float64, opts Options) *Character {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	core := NewCore(body, thr, loco, baseSpeed)
	c := &Character{
		BaseEntity: BaseEntity{
			ID:       id,
			Position: body.Position(),
			Active:   true,
		},
		body:         body,
		core:         core,
		bus:          opts.Bus,
		logger:       logger,
		prevGrounded: body.Grounded(),
		prevFuel:     core.Thruster.Fuel(),
	}
	c.last = c.snapshot()
	return c
}

// Tick runs one simulation step: sample the grounded flag and contact
// normal, update the thruster, integrate, let the body move, then publish
// transitions. A non-positive or non-finite dt skips the tick.
func (c *Character) Tick(frame input.Frame, dt, now float64) TickResult {
	ctx := context.Background()
	frame = input.Sanitize(frame)

	if !(dt > 0) || math.IsInf(dt, 0) || math.IsNaN(now) {
		c.logger.Debug(ctx, "tick skipped", "entity", uint64(c.ID), "dt", dt, "now", now)
		skipped := c.last
		skipped.Skipped = true
		return skipped
	}

	grounded := c.body.Grounded()
	normal := c.core.Contacts.Normal()
	c.core.Contacts.Reset()

	velocity := c.core.Step(frame, grounded, dt, now)

	contacts := c.body.Move(velocity, dt)
	for _, contact := range contacts {
		c.reportContact(contact)
	}

	c.Position = c.body.Position()
	c.Velocity = velocity

	it := c.core.Integrator
	res := c.core.Thruster
	result := TickResult{
		Tick:           c.ticks,
		Now:            now,
		DT:             dt,
		Frame:          frame,
		Normal:         normal,
		Grounded:       grounded,
		Velocity:       velocity,
		Position:       c.Position,
		Skiing:         it.IsSkiing(),
		Speed:          physics.HorizontalSpeed(velocity),
		Fuel:           res.Fuel(),
		FuelFraction:   res.FuelFraction(),
		ThrusterActive: res.IsActive(),
		SlopeAngle:     it.SlopeAngle(),
	}

	c.publishTransitions(result)

	if c.logger.DebugEnabled(ctx) {
		c.logger.Debug(ctx, "tick",
			"entity", uint64(c.ID),
			"tick", result.Tick,
			"grounded", grounded,
			"skiing", result.Skiing,
			"speed", result.Speed,
			"fuel", result.Fuel,
		)
	}

	c.ticks++
	c.last = result
	return result
}

// OnContact is the collision callback: it records a ground contact normal
// for the next tick. Several calls per tick are fine; the last one wins.
func (c *Character) OnContact(normal mgl64.Vec3) {
	c.reportContact(physics.Contact{Normal: normal})
}

func (c *Character) reportContact(contact physics.Contact) {
	before := c.core.Contacts.Contacts()
	c.core.Contacts.Report(contact)
	if c.core.Contacts.Contacts() == before {
		return
	}
	c.bus.Publish(event.NewContactEvent(c, uint64(c.ID), c.ticks, c.core.Contacts.Normal()))
}

func (c *Character) publishTransitions(r TickResult) {
	emit := func(t event.Type) {
		c.bus.Publish(event.NewCharacterEvent(t, c, uint64(c.ID), r.Tick, r.Velocity, r.FuelFraction))
	}

	if r.Grounded && r.Frame.JumpPressed && !r.Frame.JumpHeld {
		emit(event.Jumped)
	}
	if c.prevGrounded && !r.Grounded {
		emit(event.TookOff)
	}
	if !c.prevGrounded && r.Grounded {
		emit(event.Landed)
	}
	if !c.prevSkiing && r.Skiing {
		emit(event.SkiStarted)
	}
	if c.prevSkiing && !r.Skiing {
		emit(event.SkiStopped)
	}
	if !c.prevActive && r.ThrusterActive {
		emit(event.ThrusterIgnited)
	}
	if c.prevFuel > 0 && r.Fuel <= 0 {
		emit(event.ThrusterDepleted)
	}
	maxFuel := c.core.Thruster.Config().MaxFuel
	if maxFuel > 0 && c.prevFuel < maxFuel && r.Fuel >= maxFuel {
		emit(event.FuelFull)
	}

	c.prevGrounded = r.Grounded
	c.prevSkiing = r.Skiing
	c.prevActive = r.ThrusterActive
	c.prevFuel = r.Fuel
}

func (c *Character) snapshot() TickResult {
	res := c.core.Thruster
	return TickResult{
		Normal:         c.core.Contacts.Normal(),
		Grounded:       c.body.Grounded(),
		Velocity:       c.core.Integrator.Velocity(),
		Position:       c.body.Position(),
		Fuel:           res.Fuel(),
		FuelFraction:   res.FuelFraction(),
		ThrusterActive: res.IsActive(),
	}
}

// Ticks returns the number of completed ticks.
func (c *Character) Ticks() uint64 {
	return c.ticks
}

// Last returns the most recent tick result.
func (c *Character) Last() TickResult {
	return c.last
}

// Body returns the controller the character drives.
func (c *Character) Body() Body {
	return c.body
}

// Core exposes the simulation core for inspection and state injection.
func (c *Character) Core() *Core {
	return c.core
}

// FuelFraction returns the tank level in [0, 1] for displays.
func (c *Character) FuelFraction() float64 {
	return c.core.Thruster.FuelFraction()
}
