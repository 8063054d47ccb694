package locomotion

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/opd-ai/go-skijet/pkg/physics"
	"github.com/opd-ai/go-skijet/pkg/thruster"
)

const dt = 1.0 / 60.0

// fakeThruster records how often the integrator pulls force from it.
type fakeThruster struct {
	active bool
	force  float64
	calls  int
	lastVS float64
}

func (f *fakeThruster) IsActive() bool { return f.active }

func (f *fakeThruster) ComputeForce(verticalSpeed float64) mgl64.Vec3 {
	f.calls++
	f.lastVS = verticalSpeed
	return mgl64.Vec3{0, f.force, 0}
}

type fixedNormal mgl64.Vec3

func (n fixedNormal) Normal() mgl64.Vec3 { return mgl64.Vec3(n) }

// incline returns the normal of a slope rising towards +X.
func incline(deg float64) fixedNormal {
	rad := mgl64.DegToRad(deg)
	return fixedNormal{-math.Sin(rad), math.Cos(rad), 0}
}

func near(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9
}

func vecNear(a, b mgl64.Vec3) bool {
	return near(a.X(), b.X()) && near(a.Y(), b.Y()) && near(a.Z(), b.Z())
}

func newIntegrator(cfg Config, v mgl64.Vec3) *Integrator {
	it := New(cfg, StaticHost{Jump: 8}, nil, nil)
	it.SetVelocity(v)
	return it
}

func TestStep_JumpPreservesHorizontalMomentum(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GroundFriction = 0
	it := newIntegrator(cfg, mgl64.Vec3{5, 0, 3})

	v := it.Step(Input{BaseSpeed: 10, JumpPressed: true, Grounded: true}, dt)

	if v.X() != 5 || v.Z() != 3 {
		t.Errorf("Jump changed horizontal velocity: got (%v, %v), expected (5, 3)", v.X(), v.Z())
	}
	if v.Y() != 8 {
		t.Errorf("Expected vertical velocity to equal jump speed 8, got %v", v.Y())
	}
}

func TestStep_JumpDoesNotPerturbSkiing(t *testing.T) {
	start := mgl64.Vec3{15, 0, 9}
	jumping := newIntegrator(DefaultConfig(), start)
	coasting := newIntegrator(DefaultConfig(), start)

	a := jumping.Step(Input{JumpPressed: true, Grounded: true}, dt)
	b := coasting.Step(Input{Grounded: true}, dt)

	if !near(a.X(), b.X()) || !near(a.Z(), b.Z()) {
		t.Errorf("Jumping horizontal %v differs from coasting %v", physics.Horizontal(a), physics.Horizontal(b))
	}
	if a.Y() != 8 {
		t.Errorf("Expected jump speed 8, got %v", a.Y())
	}
}

func TestStep_JumpSuppressedWhileHeld(t *testing.T) {
	it := newIntegrator(DefaultConfig(), mgl64.Vec3{0, -2, 0})

	v := it.Step(Input{JumpPressed: true, JumpHeld: true, Grounded: true}, dt)

	if v.Y() != -2 {
		t.Errorf("Held jump should neither jump nor stick, got y=%v", v.Y())
	}
}

func TestStep_GroundStick(t *testing.T) {
	tests := []struct {
		name     string
		vy       float64
		expected float64
	}{
		{"falling_is_clamped", -3, -20},
		{"fast_fall_is_clamped", -55, -20},
		{"rising_untouched", 4, 4},
		{"at_rest_untouched", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := newIntegrator(DefaultConfig(), mgl64.Vec3{0, tt.vy, 0})

			v := it.Step(Input{Grounded: true}, dt)

			if v.Y() != tt.expected {
				t.Errorf("Expected y=%v, got %v", tt.expected, v.Y())
			}
		})
	}
}

func TestStep_SkiActivationThreshold(t *testing.T) {
	tests := []struct {
		name     string
		speed    float64
		grounded bool
		expected bool
	}{
		{"just_below", 7.99, true, false},
		{"just_above", 8.01, true, true},
		{"fast_but_airborne", 20, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := newIntegrator(DefaultConfig(), mgl64.Vec3{tt.speed, 0, 0})

			it.Step(Input{BaseSpeed: 5, Grounded: tt.grounded}, dt)

			if it.IsSkiing() != tt.expected {
				t.Errorf("IsSkiing() = %v, expected %v", it.IsSkiing(), tt.expected)
			}
			if !near(it.CurrentSpeed(), tt.speed) {
				t.Errorf("CurrentSpeed() = %v, expected pre-tick speed %v", it.CurrentSpeed(), tt.speed)
			}
		})
	}
}

func TestStep_SpeedCapIdempotence(t *testing.T) {
	it := newIntegrator(DefaultConfig(), mgl64.Vec3{30, 0, 40})

	first := it.Step(Input{Grounded: true}, dt)
	if physics.HorizontalSpeed(first) > 35+1e-9 {
		t.Fatalf("First tick did not clamp: speed %v", physics.HorizontalSpeed(first))
	}

	for i := 0; i < 120; i++ {
		v := it.Step(Input{Grounded: true}, dt)
		if physics.HorizontalSpeed(v) > 35+1e-9 {
			t.Fatalf("tick %d: speed %v exceeds cap", i, physics.HorizontalSpeed(v))
		}
	}
}

func TestStep_AirborneSpeedCap(t *testing.T) {
	it := newIntegrator(DefaultConfig(), mgl64.Vec3{0, 0, 50})
	v := it.Step(Input{}, dt)
	if !near(physics.HorizontalSpeed(v), 35) {
		t.Errorf("Expected airborne speed clamped to 35, got %v", physics.HorizontalSpeed(v))
	}

	basic := newIntegrator(BasicConfig(), mgl64.Vec3{0, 0, 50})
	v = basic.Step(Input{}, dt)
	if v.Z() != 50 {
		t.Errorf("Basic tuning has no cap, expected z=50, got %v", v.Z())
	}
}

func TestStep_AirborneVerticalForceExclusive(t *testing.T) {
	tests := []struct {
		name      string
		thruster  *fakeThruster
		expectedY float64
		calls     int
	}{
		{
			name:      "thruster_active",
			thruster:  &fakeThruster{active: true, force: 25},
			expectedY: 1 + 25*dt,
			calls:     1,
		},
		{
			name:      "thruster_idle",
			thruster:  &fakeThruster{active: false, force: 25},
			expectedY: 1 - 9.81*dt,
			calls:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := New(DefaultConfig(), StaticHost{}, tt.thruster, nil)
			it.SetVelocity(mgl64.Vec3{0, 1, 0})

			v := it.Step(Input{}, dt)

			if !near(v.Y(), tt.expectedY) {
				t.Errorf("Expected y=%v, got %v", tt.expectedY, v.Y())
			}
			if tt.thruster.calls != tt.calls {
				t.Errorf("ComputeForce called %d times, expected %d", tt.thruster.calls, tt.calls)
			}
		})
	}
}

func TestStep_ThrusterIgnoredOnGround(t *testing.T) {
	thr := &fakeThruster{active: true, force: 25}
	it := New(DefaultConfig(), StaticHost{}, thr, nil)

	it.Step(Input{Grounded: true}, dt)

	if thr.calls != 0 {
		t.Errorf("ComputeForce must not run on grounded ticks, ran %d times", thr.calls)
	}
}

func TestStep_ThrusterReadsCurrentVerticalSpeed(t *testing.T) {
	thr := &fakeThruster{active: true, force: 10}
	it := New(DefaultConfig(), StaticHost{}, thr, nil)
	it.SetVelocity(mgl64.Vec3{0, 6, 0})

	it.Step(Input{}, dt)

	if thr.lastVS != 6 {
		t.Errorf("Thruster saw vertical speed %v, expected 6", thr.lastVS)
	}
}

func TestStep_RealThrusterTaper(t *testing.T) {
	res := thruster.New(thruster.DefaultConfig())
	res.Tick(true, dt, 0)
	it := New(DefaultConfig(), StaticHost{}, res, nil)
	it.SetVelocity(mgl64.Vec3{0, 6, 0})

	v := it.Step(Input{}, dt)

	if !near(v.Y(), 6+18.75*dt) {
		t.Errorf("Expected y=%v, got %v", 6+18.75*dt, v.Y())
	}
}

func TestStep_NilThrusterAppliesGravity(t *testing.T) {
	it := New(DefaultConfig(), StaticHost{GravityMul: 2}, nil, nil)

	v := it.Step(Input{}, dt)

	if !near(v.Y(), -9.81*2*dt) {
		t.Errorf("Expected gravity with multiplier 2, got y=%v", v.Y())
	}
}

func TestStep_AirControlTakeoffBoost(t *testing.T) {
	cfg := DefaultConfig()
	forward := Input{Move: mgl64.Vec2{0, 1}}

	it := New(cfg, StaticHost{}, nil, nil)
	it.Restore(State{WasGrounded: true})

	first := it.Step(forward, dt)
	expectedFirst := cfg.GroundControl * cfg.AirControl * cfg.AirControlTakeoffBoost * dt
	if !near(first.Z(), expectedFirst) {
		t.Errorf("Takeoff tick z=%v, expected %v", first.Z(), expectedFirst)
	}
	if it.WasGrounded() {
		t.Error("WasGrounded() should be false after an airborne tick")
	}

	second := it.Step(forward, dt)
	expectedDelta := cfg.GroundControl * cfg.AirControl * cfg.AirControlSustained * dt
	if !near(second.Z()-first.Z(), expectedDelta) {
		t.Errorf("Sustained tick delta=%v, expected %v", second.Z()-first.Z(), expectedDelta)
	}
	if expectedFirst <= expectedDelta {
		t.Error("Takeoff air control should exceed sustained air control")
	}
}

func TestStep_AirControlDeadzone(t *testing.T) {
	it := New(DefaultConfig(), StaticHost{}, nil, nil)

	v := it.Step(Input{Move: mgl64.Vec2{0.05, 0.05}}, dt)

	if v.X() != 0 || v.Z() != 0 {
		t.Errorf("Input inside deadzone steered: %v", v)
	}
}

func TestStep_SkiFriction(t *testing.T) {
	tests := []struct {
		name     string
		ground   NormalSource
		friction float64
	}{
		{"flat_doubles_friction", nil, 0.6},
		{"gentle_slope_below_boost", incline(10), 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := New(DefaultConfig(), StaticHost{}, nil, tt.ground)
			it.SetVelocity(mgl64.Vec3{20, 0, 0})

			v := it.Step(Input{Grounded: true}, dt)

			expected := 20 - 20*tt.friction*dt
			if !near(v.X(), expected) {
				t.Errorf("Expected x=%v, got %v", expected, v.X())
			}
		})
	}
}

func TestStep_SlopeBoostDownhill(t *testing.T) {
	cfg := DefaultConfig()
	ground := incline(30)
	it := New(cfg, StaticHost{}, nil, ground)
	it.SetVelocity(mgl64.Vec3{-20, -5, 0})

	v := it.Step(Input{Grounded: true}, dt)

	// Ground-stick first, then the downhill boost, then friction.
	slopeDir := physics.SafeNormalize(physics.ProjectOnPlane(physics.Down, mgl64.Vec3(ground)))
	factor := (30.0 - 15.0) / 45.0
	boosted := mgl64.Vec3{-20, -20, 0}.Add(slopeDir.Mul(cfg.Gravity * factor * cfg.DownhillSpeedGain * dt))
	expected := mgl64.Vec3{
		boosted.X() * (1 - 0.3*dt),
		boosted.Y(),
		boosted.Z() * (1 - 0.3*dt),
	}

	if !vecNear(v, expected) {
		t.Errorf("Step() = %v, expected %v", v, expected)
	}
	if physics.HorizontalSpeed(v) <= 20*(1-0.3*dt) {
		t.Errorf("Downhill slope should add speed, got %v", physics.HorizontalSpeed(v))
	}
}

func TestStep_SlopeUphillRetention(t *testing.T) {
	cfg := DefaultConfig()
	ground := incline(30)
	it := New(cfg, StaticHost{}, nil, ground)
	it.SetVelocity(mgl64.Vec3{20, 3, 0})

	v := it.Step(Input{Grounded: true}, dt)

	slopeDir := physics.SafeNormalize(physics.ProjectOnPlane(physics.Down, mgl64.Vec3(ground)))
	factor := (30.0 - 15.0) / 45.0
	climb := mgl64.Vec3{20, 3, 0}.Add(slopeDir.Mul(cfg.Gravity * factor * cfg.UphillMomentumRetention * dt))
	expectedX := climb.X() * (1 - 0.3*dt)

	if !near(v.X(), expectedX) {
		t.Errorf("Expected x=%v, got %v", expectedX, v.X())
	}
	if v.X() >= 20 {
		t.Errorf("Climbing should cost speed, got x=%v", v.X())
	}
}

func TestStep_BasicSlopeBoostOnAnySlope(t *testing.T) {
	ground := incline(10)
	basic := New(BasicConfig(), StaticHost{}, nil, ground)
	basic.SetVelocity(mgl64.Vec3{-20, -1, 0})
	extended := New(DefaultConfig(), StaticHost{}, nil, ground)
	extended.SetVelocity(mgl64.Vec3{-20, -1, 0})

	b := basic.Step(Input{Grounded: true}, dt)
	e := extended.Step(Input{Grounded: true}, dt)

	// Both see a slope; only the basic tuning boosts on 10 degrees.
	noBoostBasic := -20 * (1 - 0.1*dt)
	if b.X() >= noBoostBasic {
		t.Errorf("Basic tuning should boost on 10 degrees: x=%v", b.X())
	}
	if !near(e.X(), -20*(1-0.3*dt)) {
		t.Errorf("Extended tuning should not boost below 15 degrees: x=%v", e.X())
	}
}

func TestStep_TurningFriction(t *testing.T) {
	forward := Input{Move: mgl64.Vec2{0, 1}, Grounded: true}

	straight := New(DefaultConfig(), StaticHost{}, nil, nil)
	straight.Restore(State{Velocity: mgl64.Vec3{0, 0, 20}, LastMoveDirection: mgl64.Vec3{0, 0, 1}})
	turning := New(DefaultConfig(), StaticHost{}, nil, nil)
	turning.Restore(State{Velocity: mgl64.Vec3{0, 0, 20}, LastMoveDirection: mgl64.Vec3{1, 0, 0}})

	a := straight.Step(forward, dt)
	b := turning.Step(forward, dt)

	if b.Z() >= a.Z() {
		t.Errorf("A 90 degree change should scrub speed: turning z=%v, straight z=%v", b.Z(), a.Z())
	}
	if turning.LastMoveDirection() != (mgl64.Vec3{0, 0, 1}) {
		t.Errorf("LastMoveDirection() = %v, expected forward", turning.LastMoveDirection())
	}
}

func TestStep_TurningFrictionMagnitude(t *testing.T) {
	// Friction and control off so only the turn scrub moves the velocity.
	cfg := DefaultConfig()
	cfg.SkiFriction = 0
	cfg.SkiControl = 0

	half := math.Sqrt(0.5)
	tests := []struct {
		name string
		last mgl64.Vec3
		turn float64 // clamp01(angle/TurnRange) * TurningFriction
	}{
		{"straight", mgl64.Vec3{0, 0, 1}, 0},
		{"45_degrees", mgl64.Vec3{half, 0, half}, 0.75},
		{"90_degrees", mgl64.Vec3{1, 0, 0}, 1.5},
		{"reversal_clamped", mgl64.Vec3{0, 0, -1}, 1.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := mgl64.Vec3{0, 0, 20}
			it := New(cfg, StaticHost{}, nil, nil)
			it.Restore(State{Velocity: start, LastMoveDirection: tt.last})

			v := it.Step(Input{Move: mgl64.Vec2{0, 1}, Grounded: true}, dt)

			expected := physics.LerpVec3(start, start.Mul(1-tt.turn*dt), dt*cfg.TurnBlendRate)
			if !vecNear(v, expected) {
				t.Errorf("Expected %v after turn scrub, got %v", expected, v)
			}
		})
	}
}

func TestStep_HighSpeedControlFade(t *testing.T) {
	cfg := DefaultConfig()
	it := New(cfg, StaticHost{}, nil, nil)
	it.SetVelocity(mgl64.Vec3{0, 0, 35})

	v := it.Step(Input{Move: mgl64.Vec2{1, 0}, Grounded: true}, dt)

	expected := cfg.SkiControl * dt * cfg.HighSpeedControlFloor
	if !near(v.X(), expected) {
		t.Errorf("Expected faded control x=%v, got %v", expected, v.X())
	}
}

func TestStep_Brake(t *testing.T) {
	back := Input{Move: mgl64.Vec2{0, -1}, Grounded: true}

	braking := New(DefaultConfig(), StaticHost{}, nil, nil)
	braking.Restore(State{Velocity: mgl64.Vec3{0, 0, 20}, LastMoveDirection: mgl64.Vec3{0, 0, -1}})

	noBrakeCfg := DefaultConfig()
	noBrakeCfg.BrakeThreshold = 0
	coasting := New(noBrakeCfg, StaticHost{}, nil, nil)
	coasting.Restore(State{Velocity: mgl64.Vec3{0, 0, 20}, LastMoveDirection: mgl64.Vec3{0, 0, -1}})

	a := braking.Step(back, dt)
	b := coasting.Step(back, dt)

	expectedDrop := b.Z() * DefaultConfig().GroundFriction * dt
	if !near(b.Z()-a.Z(), expectedDrop) {
		t.Errorf("Brake removed %v, expected %v", b.Z()-a.Z(), expectedDrop)
	}
}

func TestStep_WalkBlendAndCap(t *testing.T) {
	t.Run("blend_towards_target", func(t *testing.T) {
		it := New(DefaultConfig(), StaticHost{}, nil, nil)
		v := it.Step(Input{Move: mgl64.Vec2{0, 1}, BaseSpeed: 10, Grounded: true}, dt)

		expected := 10 * 4 * dt
		if !near(v.Z(), expected) {
			t.Errorf("Expected z=%v, got %v", expected, v.Z())
		}
	})

	t.Run("clamped_to_base_speed_scale", func(t *testing.T) {
		it := New(DefaultConfig(), StaticHost{}, nil, nil)
		it.SetVelocity(mgl64.Vec3{7, 0, 0})

		v := it.Step(Input{BaseSpeed: 5, Grounded: true}, dt)

		if !near(physics.HorizontalSpeed(v), 6) {
			t.Errorf("Expected walk speed clamped to 6, got %v", physics.HorizontalSpeed(v))
		}
	})

	t.Run("zero_base_speed_stops", func(t *testing.T) {
		it := New(DefaultConfig(), StaticHost{}, nil, nil)
		it.SetVelocity(mgl64.Vec3{3, 0, 4})

		v := it.Step(Input{Grounded: true}, dt)

		if physics.HorizontalSpeed(v) != 0 {
			t.Errorf("Expected zero walk speed, got %v", physics.HorizontalSpeed(v))
		}
	})
}

func TestStep_DegenerateInputs(t *testing.T) {
	it := New(DefaultConfig(), StaticHost{}, nil, nil)
	it.SetVelocity(mgl64.Vec3{1, 2, 3})

	for _, bad := range []float64{0, -dt, math.NaN(), math.Inf(1)} {
		v := it.Step(Input{Move: mgl64.Vec2{0, 1}}, bad)
		if v != (mgl64.Vec3{1, 2, 3}) {
			t.Errorf("dt=%v changed velocity to %v", bad, v)
		}
	}

	v := it.Step(Input{Move: mgl64.Vec2{math.NaN(), math.Inf(-1)}}, dt)
	if !physics.IsFinite(v) {
		t.Errorf("NaN input produced non-finite velocity %v", v)
	}
}

func TestStep_LongRunStaysFinite(t *testing.T) {
	thr := thruster.New(thruster.DefaultConfig())
	it := New(DefaultConfig(), StaticHost{Jump: 8}, thr, incline(35))
	now := 0.0

	for i := 0; i < 6000; i++ {
		now += dt
		grounded := (i/90)%2 == 0
		thr.Tick(!grounded, dt, now)
		in := Input{
			Move:        mgl64.Vec2{math.Sin(float64(i) / 30), 1},
			BaseSpeed:   10,
			JumpPressed: i%90 == 0,
			Grounded:    grounded,
		}
		v := it.Step(in, dt)

		if !physics.IsFinite(v) {
			t.Fatalf("tick %d: non-finite velocity %v", i, v)
		}
		if physics.HorizontalSpeed(v) > it.Config().MaxSpeed+2 {
			t.Fatalf("tick %d: runaway horizontal speed %v", i, physics.HorizontalSpeed(v))
		}
	}
}

func BenchmarkStep_Skiing(b *testing.B) {
	it := New(DefaultConfig(), StaticHost{}, nil, incline(25))
	in := Input{Move: mgl64.Vec2{0.3, 1}, Grounded: true}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		it.SetVelocity(mgl64.Vec3{-20, -20, 5})
		it.Step(in, dt)
	}
}
