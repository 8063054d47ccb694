// pkg/entity/entity_test.go
package entity

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/opd-ai/go-skijet/pkg/event"
	"github.com/opd-ai/go-skijet/pkg/input"
	"github.com/opd-ai/go-skijet/pkg/locomotion"
	"github.com/opd-ai/go-skijet/pkg/physics"
	"github.com/opd-ai/go-skijet/pkg/thruster"
)

const dt = 1.0 / 60.0

func TestBaseEntity_Accessors(t *testing.T) {
	tests := []struct {
		name string
		e    BaseEntity
	}{
		{"zero", BaseEntity{}},
		{"positive", BaseEntity{ID: 42, Position: mgl64.Vec3{1, 2, 3}, Velocity: mgl64.Vec3{4, 5, 6}}},
		{"max_id", BaseEntity{ID: math.MaxUint64}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e Entity = &tt.e
			if e.GetID() != tt.e.ID || e.GetPosition() != tt.e.Position || e.GetVelocity() != tt.e.Velocity {
				t.Errorf("accessors disagree with fields: %+v", tt.e)
			}
		})
	}
}

// recorder collects transitions published on a bus.
type recorder struct {
	events   []*event.CharacterEvent
	contacts []*event.ContactEvent
}

func newRecorder(bus *event.Bus) *recorder {
	r := &recorder{}
	bus.SubscribeAll(event.CharacterTypes, func(e event.Event) {
		switch ev := e.(type) {
		case *event.CharacterEvent:
			r.events = append(r.events, ev)
		case *event.ContactEvent:
			r.contacts = append(r.contacts, ev)
		}
	})
	return r
}

func (r *recorder) first(t event.Type) (*event.CharacterEvent, bool) {
	for _, e := range r.events {
		if e.GetType() == t {
			return e, true
		}
	}
	return nil, false
}

func (r *recorder) count(t event.Type) int {
	n := 0
	for _, e := range r.events {
		if e.GetType() == t {
			n++
		}
	}
	return n
}

func newTestCharacter(terrain Terrain, x float64, thr thruster.Config) (*Character, *recorder) {
	bus := event.NewEventBus()
	rec := newRecorder(bus)
	body := NewTerrainBody(terrain, x, 10, 2)
	c := NewCharacter(7, body, thr, locomotion.DefaultConfig(), 10, Options{Bus: bus})
	return c, rec
}

func TestCharacter_SpawnsAtRest(t *testing.T) {
	c, _ := newTestCharacter(FlatCourse, 5, thruster.DefaultConfig())

	if c.GetID() != 7 || c.GetPosition() != (mgl64.Vec3{5, 0, 0}) {
		t.Errorf("spawn = id %d at %v", c.GetID(), c.GetPosition())
	}
	if c.FuelFraction() != 1 {
		t.Errorf("FuelFraction() = %v, expected full", c.FuelFraction())
	}

	r := c.Tick(input.Frame{}, dt, dt)
	if r.Velocity != (mgl64.Vec3{}) || !r.Grounded || r.Skiing {
		t.Errorf("idle tick = %+v", r)
	}
	if c.Ticks() != 1 || r.Tick != 0 {
		t.Errorf("Ticks() = %d, result tick = %d", c.Ticks(), r.Tick)
	}
}

func TestCharacter_JumpTakeoffLanding(t *testing.T) {
	c, rec := newTestCharacter(FlatCourse, 5, thruster.DefaultConfig())

	r := c.Tick(input.Frame{JumpPressed: true}, dt, dt)
	if r.Velocity.Y() != 10 {
		t.Fatalf("jump velocity = %v, expected 10", r.Velocity.Y())
	}

	now := dt
	for i := 0; i < 180; i++ {
		now += dt
		c.Tick(input.Frame{}, dt, now)
	}

	jumped, ok := rec.first(event.Jumped)
	if !ok || jumped.Tick != 0 || jumped.EntityID != 7 {
		t.Fatalf("missing or misplaced jumped event: %+v", jumped)
	}
	took, ok := rec.first(event.TookOff)
	if !ok || took.Tick != 1 {
		t.Errorf("took_off event = %+v, expected tick 1", took)
	}
	landed, ok := rec.first(event.Landed)
	if !ok || landed.Tick <= took.Tick {
		t.Errorf("landed event = %+v, expected after takeoff", landed)
	}
	if rec.count(event.Jumped) != 1 {
		t.Errorf("jumped published %d times", rec.count(event.Jumped))
	}
	if !c.Last().Grounded {
		t.Error("character should have landed")
	}
}

func TestCharacter_HeldJumpDoesNotRepeat(t *testing.T) {
	c, rec := newTestCharacter(FlatCourse, 5, thruster.DefaultConfig())

	c.Tick(input.Frame{JumpPressed: true, JumpHeld: true}, dt, dt)

	if rec.count(event.Jumped) != 0 {
		t.Error("a held jump must not publish jumped")
	}
	if c.Last().Velocity.Y() != 0 {
		t.Errorf("held jump changed vertical velocity: %v", c.Last().Velocity)
	}
}

func TestCharacter_ThrusterIgnitesAndDepletes(t *testing.T) {
	cfg := thruster.DefaultConfig()
	cfg.MaxFuel = 1
	cfg.ConsumeRate = 100
	c, rec := newTestCharacter(FlatCourse, 5, cfg)

	c.Tick(input.Frame{JumpPressed: true}, dt, dt)
	r := c.Tick(input.Frame{ThrusterHeld: true}, dt, 2*dt)

	if !r.ThrusterActive {
		t.Fatal("thruster should be active on the first held airborne tick")
	}
	if r.Fuel != 0 {
		t.Errorf("Fuel = %v, expected empty", r.Fuel)
	}
	if _, ok := rec.first(event.ThrusterIgnited); !ok {
		t.Error("missing thruster_ignited")
	}
	depleted, ok := rec.first(event.ThrusterDepleted)
	if !ok || depleted.FuelFraction != 0 {
		t.Errorf("thruster_depleted = %+v", depleted)
	}

	r = c.Tick(input.Frame{ThrusterHeld: true}, dt, 3*dt)
	if r.ThrusterActive {
		t.Error("thruster must not stay active with an empty tank")
	}
}

func TestCharacter_ThrustReplacesGravity(t *testing.T) {
	c, _ := newTestCharacter(FlatCourse, 5, thruster.DefaultConfig())

	c.Tick(input.Frame{JumpPressed: true}, dt, dt)
	r := c.Tick(input.Frame{ThrusterHeld: true}, dt, 2*dt)

	// Vertical speed 10 is below the cap of 12: taper leaves 25*(1-10/12*0.5).
	expected := 10 + 25*(1-10.0/12.0*0.5)*dt
	if !near(r.Velocity.Y(), expected) {
		t.Errorf("thrusting vertical velocity = %v, expected %v", r.Velocity.Y(), expected)
	}
}

func TestCharacter_FuelFull(t *testing.T) {
	c, rec := newTestCharacter(FlatCourse, 5, thruster.DefaultConfig())
	c.Core().Thruster.Restore(thruster.State{Fuel: 99.9, LastActivation: -10})
	c.prevFuel = 99.9

	c.Tick(input.Frame{}, dt, dt)

	full, ok := rec.first(event.FuelFull)
	if !ok || full.FuelFraction != 1 {
		t.Errorf("fuel_full = %+v, ok=%v", full, ok)
	}
}

func TestCharacter_OnContactFeedsNextTick(t *testing.T) {
	c, rec := newTestCharacter(FlatCourse, 5, thruster.DefaultConfig())
	c.Tick(input.Frame{}, dt, dt)

	slope := mgl64.Vec3{-0.5, math.Sqrt(3) / 2, 0}
	c.OnContact(slope.Mul(3))
	c.OnContact(mgl64.Vec3{})

	r := c.Tick(input.Frame{}, dt, 2*dt)
	if !near(r.Normal.X(), slope.X()) || !near(r.Normal.Y(), slope.Y()) {
		t.Errorf("tick read normal %v, expected %v", r.Normal, slope)
	}
	if !near(r.SlopeAngle, 30) {
		t.Errorf("SlopeAngle = %v, expected 30", r.SlopeAngle)
	}

	var sawSlope bool
	for _, e := range rec.contacts {
		if near(e.Normal.X(), slope.X()) {
			sawSlope = true
		}
	}
	if !sawSlope {
		t.Error("OnContact should publish ground_contact")
	}
}

func TestCharacter_SkippedTick(t *testing.T) {
	c, rec := newTestCharacter(FlatCourse, 5, thruster.DefaultConfig())
	c.Tick(input.Frame{Move: mgl64.Vec2{0, 1}}, dt, dt)
	before := c.Last()

	for _, bad := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		r := c.Tick(input.Frame{JumpPressed: true}, bad, 2*dt)
		if !r.Skipped || r.Velocity != before.Velocity {
			t.Errorf("dt=%v: result %+v", bad, r)
		}
	}
	if c.Ticks() != 1 {
		t.Errorf("skipped ticks were counted: %d", c.Ticks())
	}
	if rec.count(event.Jumped) != 0 {
		t.Error("skipped tick published events")
	}
}

func TestCharacter_SkisDownSlope(t *testing.T) {
	c, rec := newTestCharacter(SlopeCourse, 25, thruster.DefaultConfig())
	forward := input.Frame{Move: mgl64.Vec2{0, 1}}

	maxSpeed := 0.0
	now := 0.0
	for i := 0; i < 600; i++ {
		now += dt
		r := c.Tick(forward, dt, now)
		if !physics.IsFinite(r.Velocity) {
			t.Fatalf("tick %d: non-finite velocity", i)
		}
		maxSpeed = math.Max(maxSpeed, r.Speed)
	}

	if _, ok := rec.first(event.SkiStarted); !ok {
		t.Error("never started skiing on a 25 degree slope")
	}
	if maxSpeed < 20 {
		t.Errorf("max speed %v, expected skiing to build past walking pace", maxSpeed)
	}
	if maxSpeed > 40 {
		t.Errorf("max speed %v, runaway past the cap", maxSpeed)
	}
	if c.GetPosition().X() <= 25 {
		t.Errorf("character did not travel down the course: %v", c.GetPosition())
	}
}

func TestCore_StepMatchesCharacter(t *testing.T) {
	c, _ := newTestCharacter(SlopeCourse, 25, thruster.DefaultConfig())
	core := NewCore(NewTerrainBody(Terrain{}, 0, 10, 2), thruster.DefaultConfig(), locomotion.DefaultConfig(), 10)

	frames := []input.Frame{
		{Move: mgl64.Vec2{0, 1}},
		{Move: mgl64.Vec2{0.5, 1}, JumpPressed: true},
		{ThrusterHeld: true},
		{ThrusterHeld: true, Move: mgl64.Vec2{-1, 0}},
		{},
	}

	now := 0.0
	for i := 0; i < 200; i++ {
		now += dt
		r := c.Tick(frames[i%len(frames)], dt, now)

		core.Contacts.ReportNormal(r.Normal)
		v := core.Step(r.Frame, r.Grounded, r.DT, r.Now)

		if !near(v.X(), r.Velocity.X()) || !near(v.Y(), r.Velocity.Y()) || !near(v.Z(), r.Velocity.Z()) {
			t.Fatalf("tick %d: core %v, character %v", i, v, r.Velocity)
		}
	}
}
