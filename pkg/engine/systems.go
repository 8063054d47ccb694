package engine

import (
	"github.com/EngoEngine/ecs"

	"github.com/opd-ai/go-skijet/pkg/entity"
	"github.com/opd-ai/go-skijet/pkg/input"
)

// System priorities. Higher runs first within a world update.
const (
	CharacterPriority = 10
	ObserverPriority  = 0
)

// Result pairs a character with what its last tick produced.
type Result struct {
	ID     entity.ID
	Result entity.TickResult
}

type characterEntry struct {
	basic     *ecs.BasicEntity
	character *entity.Character
	provider  input.Provider
}

// CharacterSystem polls each character's provider and ticks it.
type CharacterSystem struct {
	sim     *Simulation
	entries []characterEntry
	results []Result
}

// Add registers a character with the provider that drives it.
func (cs *CharacterSystem) Add(basic *ecs.BasicEntity, c *entity.Character, provider input.Provider) {
	cs.entries = append(cs.entries, characterEntry{basic: basic, character: c, provider: provider})
}

// Remove satisfies the ecs.System interface
func (cs *CharacterSystem) Remove(basic ecs.BasicEntity) {
	for i, e := range cs.entries {
		if e.basic.ID() == basic.ID() {
			cs.entries = append(cs.entries[:i], cs.entries[i+1:]...)
			return
		}
	}
}

// Update ticks every character once. The world's float32 dt is ignored in
// favour of the simulation's float64 step so runs stay reproducible.
func (cs *CharacterSystem) Update(float32) {
	step := cs.sim.TimeStep
	now := float64(cs.sim.CurrentTick+1) * step

	cs.results = cs.results[:0]
	for _, e := range cs.entries {
		r := e.character.Tick(e.provider.Poll(), step, now)
		cs.results = append(cs.results, Result{ID: e.character.GetID(), Result: r})
	}
}

// Priority makes characters tick before observers.
func (cs *CharacterSystem) Priority() int {
	return CharacterPriority
}

// Characters returns the registered characters.
func (cs *CharacterSystem) Characters() []*entity.Character {
	out := make([]*entity.Character, 0, len(cs.entries))
	for _, e := range cs.entries {
		out = append(out, e.character)
	}
	return out
}

// Observer receives every tick result.
type Observer interface {
	Observe(id entity.ID, r entity.TickResult)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(id entity.ID, r entity.TickResult)

// Observe calls f.
func (f ObserverFunc) Observe(id entity.ID, r entity.TickResult) {
	f(id, r)
}

// ObserverSystem forwards the step's results to an Observer after all
// characters have ticked.
type ObserverSystem struct {
	Name     string
	observer Observer
	sim      *Simulation
}

// NewObserverSystem wraps obs.
func NewObserverSystem(name string, obs Observer) *ObserverSystem {
	return &ObserverSystem{Name: name, observer: obs}
}

// NewTelemetrySystem forwards results to a metrics recorder.
func NewTelemetrySystem(obs Observer) *ObserverSystem {
	return NewObserverSystem("telemetry", obs)
}

// NewTraceSystem forwards results to a trace writer.
func NewTraceSystem(obs Observer) *ObserverSystem {
	return NewObserverSystem("trace", obs)
}

// Remove satisfies the ecs.System interface
func (obs *ObserverSystem) Remove(ecs.BasicEntity) {}

// Update forwards the results of the current step.
func (obs *ObserverSystem) Update(float32) {
	if obs.sim == nil {
		return
	}
	for _, r := range obs.sim.characters.results {
		if r.Result.Skipped {
			continue
		}
		obs.observer.Observe(r.ID, r.Result)
	}
}

// Priority makes observers run after characters.
func (obs *ObserverSystem) Priority() int {
	return ObserverPriority
}
