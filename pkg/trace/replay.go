package trace

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/opd-ai/go-skijet/pkg/config"
	"github.com/opd-ai/go-skijet/pkg/entity"
)

// Tolerance is the largest per-component velocity difference replay accepts.
const Tolerance = 1e-9

// Divergence describes the first tick whose replayed velocity differs from
// the recording.
type Divergence struct {
	Tick     uint64
	Recorded mgl64.Vec3
	Replayed mgl64.Vec3
}

func (d Divergence) String() string {
	return fmt.Sprintf("tick %d: recorded %v, replayed %v", d.Tick, d.Recorded, d.Replayed)
}

// Report summarises a replay.
type Report struct {
	RunID      uint
	Ticks      int
	Divergence *Divergence
}

// Deterministic reports whether every tick matched.
func (r Report) Deterministic() bool {
	return r.Divergence == nil
}

// Replay reruns a recorded run through a fresh simulation core. Each tick
// receives the recorded input, grounded flag, ground normal, dt and clock,
// so only the thruster and integrator are under test. A nil cfg uses the
// configuration stored with the run.
func Replay(store *Store, runID uint, cfg *config.Config) (Report, error) {
	run, err := store.Run(runID)
	if err != nil {
		return Report{}, err
	}
	if cfg == nil {
		cfg, err = config.Parse([]byte(run.ConfigJSON))
		if err != nil {
			return Report{}, fmt.Errorf("run %d: %w", runID, err)
		}
	}
	samples, err := store.Samples(runID)
	if err != nil {
		return Report{}, err
	}

	return ReplaySamples(runID, samples, cfg), nil
}

// ReplaySamples checks samples against a core built from cfg.
func ReplaySamples(runID uint, samples []Sample, cfg *config.Config) Report {
	host := entity.NewTerrainBody(entity.Terrain{}, 0, cfg.Character.JumpSpeed, cfg.Character.GravityMultiplier)
	core := entity.NewCore(host, cfg.Thruster, cfg.Locomotion, cfg.Simulation.BaseSpeed)

	report := Report{RunID: runID}
	for _, s := range samples {
		core.Contacts.ReportNormal(s.Normal())
		v := core.Step(s.Frame(), s.Grounded, s.DT, s.Now)
		report.Ticks++

		recorded := s.Velocity()
		if !within(v, recorded) {
			report.Divergence = &Divergence{Tick: s.Tick, Recorded: recorded, Replayed: v}
			return report
		}
	}
	return report
}

func within(a, b mgl64.Vec3) bool {
	for i := range a {
		if !(math.Abs(a[i]-b[i]) <= Tolerance) {
			return false
		}
	}
	return true
}
