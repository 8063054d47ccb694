// pkg/render/engo/hud.go
package engo

import (
	"image/color"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"

	"github.com/opd-ai/go-skijet/pkg/render"
)

// HUD layout in pixels.
const (
	hudMargin      = 10
	gaugeWidth     = 200
	gaugeHeight    = 14
	indicatorSize  = 14
	indicatorSpace = 6
)

// Indicator colours.
var (
	fuelFull   = color.NRGBA{R: 60, G: 200, B: 90, A: 255}
	fuelHalf   = color.NRGBA{R: 230, G: 200, B: 40, A: 255}
	fuelLow    = color.NRGBA{R: 220, G: 50, B: 40, A: 255}
	skiOn      = color.NRGBA{R: 80, G: 160, B: 255, A: 255}
	thrusterOn = color.NRGBA{R: 255, G: 140, B: 30, A: 255}
	airOn      = color.NRGBA{R: 200, G: 200, B: 255, A: 255}
)

// HUDSystem draws the fuel gauge and state indicators. It implements
// render.Display.
type HUDSystem struct {
	readout render.Readout
	dirty   bool

	background *sprite
	fill       *sprite
	skiing     *sprite
	thruster   *sprite
	airborne   *sprite

	// Title receives the status line. Nil leaves the window title alone.
	Title func(string)
}

// NewHUDSystem lays out the HUD in the top-left corner.
func NewHUDSystem() *HUDSystem {
	hud := &HUDSystem{
		background: newSprite(common.Rectangle{}, GaugeBack),
		fill:       newSprite(common.Rectangle{}, fuelFull),
		skiing:     newSprite(common.Rectangle{}, IndicatorOff),
		thruster:   newSprite(common.Rectangle{}, IndicatorOff),
		airborne:   newSprite(common.Rectangle{}, IndicatorOff),
	}

	hud.background.Position = engo.Point{X: hudMargin, Y: hudMargin}
	hud.background.Width = gaugeWidth
	hud.background.Height = gaugeHeight

	hud.fill.Position = hud.background.Position
	hud.fill.Width = gaugeWidth
	hud.fill.Height = gaugeHeight

	for i, ind := range []*sprite{hud.skiing, hud.thruster, hud.airborne} {
		ind.Position = engo.Point{
			X: hudMargin + float32(i)*(indicatorSize+indicatorSpace),
			Y: hudMargin + gaugeHeight + indicatorSpace,
		}
		ind.Width = indicatorSize
		ind.Height = indicatorSize
	}
	hud.readout.FuelFraction = 1
	return hud
}

// Attach registers the HUD sprites with the render system, above the course.
func (hud *HUDSystem) Attach(rs *common.RenderSystem) {
	for i, s := range hud.sprites() {
		s.SetShader(common.HUDShader)
		s.SetZIndex(10 + float32(i))
		rs.Add(&s.BasicEntity, &s.RenderComponent, &s.SpaceComponent)
	}
}

func (hud *HUDSystem) sprites() []*sprite {
	return []*sprite{hud.background, hud.fill, hud.skiing, hud.thruster, hud.airborne}
}

// Show implements render.Display. The change is drawn on the next Update.
func (hud *HUDSystem) Show(r render.Readout) {
	hud.readout = r
	hud.dirty = true
}

// Remove satisfies the ecs.System interface
func (hud *HUDSystem) Remove(ecs.BasicEntity) {}

// Update applies the latest readout.
func (hud *HUDSystem) Update(float32) {
	if !hud.dirty {
		return
	}
	hud.dirty = false
	r := hud.readout

	hud.fill.Width = GaugeFill(r.FuelFraction)
	hud.fill.Color = gaugeColor(r.FuelFraction)

	hud.skiing.Color = indicator(r.Skiing && r.Grounded, skiOn)
	hud.thruster.Color = indicator(r.ThrusterActive, thrusterOn)
	hud.airborne.Color = indicator(!r.Grounded, airOn)

	if hud.Title != nil {
		hud.Title("skijet  " + render.FuelBar(r.FuelFraction, render.GaugeWidth) + "  " + render.StatusLine(r))
	}
}

// GaugeFill returns the fill width in pixels for a tank fraction.
func GaugeFill(fraction float64) float32 {
	if !(fraction > 0) {
		return 0
	}
	if fraction > 1 {
		fraction = 1
	}
	return float32(fraction) * gaugeWidth
}

func gaugeColor(fraction float64) color.Color {
	switch {
	case fraction <= 0.2:
		return fuelLow
	case fraction <= 0.5:
		return fuelHalf
	default:
		return fuelFull
	}
}

func indicator(on bool, c color.Color) color.Color {
	if on {
		return c
	}
	return IndicatorOff
}
