// pkg/render/renderer.go
package render

import (
	"context"

	"github.com/opd-ai/go-skijet/pkg/entity"
	"github.com/opd-ai/go-skijet/pkg/logging"
)

// Readout is what a fuel display shows for one character.
type Readout struct {
	Tick           uint64
	FuelFraction   float64
	Speed          float64
	Skiing         bool
	ThrusterActive bool
	Grounded       bool
	SlopeAngle     float64
}

// ReadoutFrom extracts the displayed values from a tick result.
func ReadoutFrom(r entity.TickResult) Readout {
	return Readout{
		Tick:           r.Tick,
		FuelFraction:   r.FuelFraction,
		Speed:          r.Speed,
		Skiing:         r.Skiing,
		ThrusterActive: r.ThrusterActive,
		Grounded:       r.Grounded,
		SlopeAngle:     r.SlopeAngle,
	}
}

// Display presents a readout.
type Display interface {
	Show(r Readout)
}

// NullDisplay logs readouts at debug level instead of drawing them.
type NullDisplay struct {
	logger *logging.Logger
}

// NewNullDisplay creates a NullDisplay. A nil logger discards.
func NewNullDisplay(logger *logging.Logger) *NullDisplay {
	if logger == nil {
		logger = logging.Discard()
	}
	return &NullDisplay{logger: logger}
}

// Show implements Display.
func (d *NullDisplay) Show(r Readout) {
	ctx := context.Background()
	if !d.logger.DebugEnabled(ctx) {
		return
	}
	d.logger.Debug(ctx, "readout",
		"tick", r.Tick,
		"fuel_fraction", r.FuelFraction,
		"speed", r.Speed,
		"skiing", r.Skiing,
		"thruster_active", r.ThrusterActive,
		"grounded", r.Grounded,
	)
}

// DisplayObserver feeds one character's tick results to a Display.
type DisplayObserver struct {
	Display Display
	Entity  entity.ID
}

// Observe shows r when it belongs to the watched character.
func (o DisplayObserver) Observe(id entity.ID, r entity.TickResult) {
	if id != o.Entity || o.Display == nil {
		return
	}
	o.Display.Show(ReadoutFrom(r))
}
