package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/gdamore/tcell/v2"
)

// GaugeWidth is the number of cells in the fuel bar.
const GaugeWidth = 20

// Gauge colour thresholds, as fractions of a full tank.
const (
	fuelLow  = 0.2
	fuelHalf = 0.5
)

// TerminalHUD draws a fuel gauge and status line on a tcell screen.
type TerminalHUD struct {
	screen tcell.Screen
	style  tcell.Style
}

// NewTerminalHUD draws on an initialised screen.
func NewTerminalHUD(screen tcell.Screen) *TerminalHUD {
	return &TerminalHUD{
		screen: screen,
		style:  tcell.StyleDefault,
	}
}

// FuelBar renders the gauge text for fraction, e.g. "[#####-----]".
func FuelBar(fraction float64, width int) string {
	if math.IsNaN(fraction) {
		fraction = 0
	}
	fraction = math.Max(0, math.Min(1, fraction))
	filled := int(math.Round(fraction * float64(width)))
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

// StatusLine renders the second HUD row.
func StatusLine(r Readout) string {
	var flags []string
	switch {
	case !r.Grounded:
		flags = append(flags, "AIR")
	case r.Skiing:
		flags = append(flags, "SKI")
	default:
		flags = append(flags, "WALK")
	}
	if r.ThrusterActive {
		flags = append(flags, "THR")
	}
	return fmt.Sprintf("SPD %5.1f m/s  SLOPE %4.1f  %s", r.Speed, r.SlopeAngle, strings.Join(flags, " "))
}

func fuelColor(fraction float64) tcell.Color {
	switch {
	case fraction <= fuelLow:
		return tcell.ColorRed
	case fraction <= fuelHalf:
		return tcell.ColorYellow
	default:
		return tcell.ColorGreen
	}
}

// Show implements Display.
func (h *TerminalHUD) Show(r Readout) {
	h.screen.Clear()

	fuel := fmt.Sprintf("FUEL %s %3.0f%%", FuelBar(r.FuelFraction, GaugeWidth), r.FuelFraction*100)
	h.drawText(0, 0, fuel, h.style.Foreground(fuelColor(r.FuelFraction)))

	status := h.style
	if r.ThrusterActive {
		status = status.Bold(true)
	}
	h.drawText(0, 1, StatusLine(r), status)
	h.drawText(0, 2, fmt.Sprintf("TICK %d", r.Tick), h.style.Dim(true))

	h.screen.Show()
}

func (h *TerminalHUD) drawText(x, y int, text string, style tcell.Style) {
	w, hgt := h.screen.Size()
	if y < 0 || y >= hgt {
		return
	}
	for _, c := range text {
		if x >= w {
			return
		}
		h.screen.SetContent(x, y, c, nil, style)
		x++
	}
}
