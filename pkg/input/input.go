// Package input turns raw button and axis levels into the per-tick frames the
// character consumes.
package input

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Frame is the sampled input for one tick.
type Frame struct {
	Move         mgl64.Vec2 // X = strafe, Y = forward
	JumpPressed  bool       // true only on the tick the button went down
	JumpHeld     bool       // true while down after the first tick
	ThrusterHeld bool
}

// Raw is the level-triggered state of the physical controls.
type Raw struct {
	Move     mgl64.Vec2
	Jump     bool
	Thruster bool
}

// Sanitize zeroes non-finite axes and clamps each axis to [-1, 1]. The
// magnitude is not normalized, so diagonals may exceed 1.
func Sanitize(f Frame) Frame {
	f.Move = SanitizeMove(f.Move)
	return f
}

// SanitizeMove applies the Sanitize rules to a move vector.
func SanitizeMove(m mgl64.Vec2) mgl64.Vec2 {
	for i, c := range m {
		switch {
		case math.IsNaN(c) || math.IsInf(c, 0):
			m[i] = 0
		case c > 1:
			m[i] = 1
		case c < -1:
			m[i] = -1
		}
	}
	return m
}

// EdgeTracker derives press and hold edges from a button level.
type EdgeTracker struct {
	wasDown bool
}

// Update records this tick's level and returns the edges.
func (e *EdgeTracker) Update(down bool) (pressed, held bool) {
	pressed = down && !e.wasDown
	held = down && e.wasDown
	e.wasDown = down
	return pressed, held
}

// Reset forgets the previous level.
func (e *EdgeTracker) Reset() {
	e.wasDown = false
}

// Sampler converts successive Raw states into Frames.
type Sampler struct {
	jump EdgeTracker
}

// Sample returns the sanitized frame for raw.
func (s *Sampler) Sample(raw Raw) Frame {
	pressed, held := s.jump.Update(raw.Jump)
	return Sanitize(Frame{
		Move:         raw.Move,
		JumpPressed:  pressed,
		JumpHeld:     held,
		ThrusterHeld: raw.Thruster,
	})
}

// Provider supplies one Frame per tick.
type Provider interface {
	Poll() Frame
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func() Frame

// Poll calls f.
func (f ProviderFunc) Poll() Frame {
	return f()
}

// Idle never touches the controls.
var Idle Provider = ProviderFunc(func() Frame { return Frame{} })
