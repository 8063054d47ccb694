// pkg/engine/simulation.go
package engine

import (
	"context"
	"math"

	"github.com/EngoEngine/ecs"

	"github.com/opd-ai/go-skijet/pkg/config"
	"github.com/opd-ai/go-skijet/pkg/entity"
	"github.com/opd-ai/go-skijet/pkg/event"
	"github.com/opd-ai/go-skijet/pkg/input"
	"github.com/opd-ai/go-skijet/pkg/logging"
)

// stepEpsilon absorbs rounding when the accumulator lands a hair under a
// whole step.
const stepEpsilon = 1e-9

// Options configures optional collaborators of a Simulation.
type Options struct {
	Bus    *event.Bus
	Logger *logging.Logger
}

// Simulation advances characters on a fixed-step clock. Each step is one
// ecs.World update: the CharacterSystem ticks every character first, then
// observer systems see the results. A Simulation must be driven from a
// single goroutine.
type Simulation struct {
	World    *ecs.World
	EventBus *event.Bus

	TimeStep     float64 // seconds per tick
	MaxFrameTime float64 // cap on a single Advance

	CurrentTick uint64

	cfg         *config.Config
	characters  *CharacterSystem
	accumulator float64
	logger      *logging.Logger
	nextID      entity.ID
}

// NewSimulation creates an empty world ticking at cfg.Simulation.TickRate.
func NewSimulation(cfg *config.Config, opts Options) *Simulation {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	bus := opts.Bus
	if bus == nil {
		bus = event.NewEventBus()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	step := 1.0 / 60.0
	if cfg.Simulation.TickRate > 0 {
		step = 1.0 / cfg.Simulation.TickRate
	}
	maxFrame := cfg.Simulation.MaxFrameTime
	if !(maxFrame > 0) {
		maxFrame = 0.1
	}

	sim := &Simulation{
		World:        &ecs.World{},
		EventBus:     bus,
		TimeStep:     step,
		MaxFrameTime: maxFrame,
		cfg:          cfg,
		logger:       logger.With("component", "engine"),
		nextID:       1,
	}
	sim.characters = &CharacterSystem{sim: sim}
	sim.World.AddSystem(sim.characters)
	return sim
}

// Config returns the configuration the simulation was built with.
func (s *Simulation) Config() *config.Config {
	return s.cfg
}

// Now returns simulated time: ticks completed times the step.
func (s *Simulation) Now() float64 {
	return float64(s.CurrentTick) * s.TimeStep
}

// SpawnCharacter creates a character on body with the configured tuning and
// registers it with its input provider.
func (s *Simulation) SpawnCharacter(body entity.Body, provider input.Provider) *entity.Character {
	id := s.nextID
	s.nextID++
	c := entity.NewCharacter(id, body, s.cfg.Thruster, s.cfg.Locomotion, s.cfg.Simulation.BaseSpeed, entity.Options{
		Bus:    s.EventBus,
		Logger: s.logger,
	})
	s.AddCharacter(c, provider)
	return c
}

// AddCharacter registers an existing character.
func (s *Simulation) AddCharacter(c *entity.Character, provider input.Provider) ecs.BasicEntity {
	if provider == nil {
		provider = input.Idle
	}
	basic := ecs.NewBasic()
	s.characters.Add(&basic, c, provider)
	s.logger.Debug(context.Background(), "character added", "entity", uint64(c.GetID()))
	return basic
}

// RemoveCharacter drops a character from every system.
func (s *Simulation) RemoveCharacter(basic ecs.BasicEntity) {
	s.World.RemoveEntity(basic)
}

// Characters returns the characters in tick order.
func (s *Simulation) Characters() []*entity.Character {
	return s.characters.Characters()
}

// Results returns the results of the last step, in tick order.
func (s *Simulation) Results() []Result {
	return s.characters.results
}

// AddObserver registers an observer system that runs after characters tick.
func (s *Simulation) AddObserver(sys *ObserverSystem) {
	sys.sim = s
	s.World.AddSystem(sys)
}

// Step runs exactly one tick.
func (s *Simulation) Step() {
	s.World.Update(float32(s.TimeStep))
	s.CurrentTick++
}

// Advance feeds real elapsed time into the fixed-step accumulator and runs
// as many whole ticks as it covers. Elapsed time above MaxFrameTime is
// dropped; invalid values run nothing. It returns the number of ticks run.
func (s *Simulation) Advance(elapsed float64) int {
	if !(elapsed > 0) || math.IsInf(elapsed, 0) {
		return 0
	}
	if elapsed > s.MaxFrameTime {
		elapsed = s.MaxFrameTime
	}

	s.accumulator += elapsed
	n := 0
	for s.accumulator+stepEpsilon >= s.TimeStep {
		s.accumulator -= s.TimeStep
		s.Step()
		n++
	}
	if s.accumulator < 0 {
		s.accumulator = 0
	}
	return n
}

// Alpha returns how far the accumulator is into the next tick, in [0, 1).
func (s *Simulation) Alpha() float64 {
	return s.accumulator / s.TimeStep
}

// Run steps ticks times, stopping early when ctx is cancelled.
func (s *Simulation) Run(ctx context.Context, ticks int) error {
	s.logger.Info(ctx, "simulation started",
		"ticks", ticks,
		"tick_rate", 1/s.TimeStep,
		"characters", len(s.characters.entries),
	)
	for i := 0; i < ticks; i++ {
		if err := ctx.Err(); err != nil {
			s.logger.Warn(ctx, "simulation interrupted", "tick", s.CurrentTick)
			return logging.WrapError(err, "simulation stopped at tick %d", s.CurrentTick)
		}
		s.Step()
	}
	s.logger.Info(ctx, "simulation finished", "tick", s.CurrentTick, "sim_time", s.Now())
	return nil
}
