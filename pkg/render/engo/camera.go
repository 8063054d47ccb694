// pkg/render/engo/camera.go
package engo

import (
	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/go-gl/mathgl/mgl64"
)

// PixelsPerMeter maps course metres to screen pixels at zoom 1.
const PixelsPerMeter = 12

// CameraSystem follows the character along the course. World Y points up,
// screen Y points down.
type CameraSystem struct {
	target    mgl64.Vec2
	targetSet bool

	zoom    float32
	minZoom float32
	maxZoom float32

	followSpeed float32
	smoothing   bool

	currentPos mgl64.Vec2

	width, height float32
}

// NewCameraSystem creates a camera for a width × height viewport.
func NewCameraSystem(width, height float32) *CameraSystem {
	return &CameraSystem{
		zoom:        1.0,
		minZoom:     0.25,
		maxZoom:     4.0,
		followSpeed: 4.0,
		smoothing:   true,
		width:       width,
		height:      height,
	}
}

// Remove satisfies the ecs.System interface
func (cs *CameraSystem) Remove(ecs.BasicEntity) {}

// Update eases towards the target. Entities are placed in screen space by
// WorldToScreen, so engo's own camera stays fixed.
func (cs *CameraSystem) Update(dt float32) {
	if cs.targetSet {
		cs.follow(dt)
	}
}

func (cs *CameraSystem) follow(dt float32) {
	if !cs.smoothing {
		cs.currentPos = cs.target
		return
	}
	t := float64(cs.followSpeed * dt)
	if t > 1 {
		t = 1
	}
	cs.currentPos = cs.currentPos.Add(cs.target.Sub(cs.currentPos).Mul(t))
}

// SetTarget sets the world point to follow. The first target snaps.
func (cs *CameraSystem) SetTarget(target mgl64.Vec2) {
	first := !cs.targetSet
	cs.target = target
	cs.targetSet = true
	if first || !cs.smoothing {
		cs.currentPos = target
	}
}

// ClearTarget stops following.
func (cs *CameraSystem) ClearTarget() {
	cs.targetSet = false
}

// SetZoom sets the zoom level within the limits.
func (cs *CameraSystem) SetZoom(zoom float32) {
	cs.zoom = cs.clampZoom(zoom)
}

// Zoom returns the zoom level.
func (cs *CameraSystem) Zoom() float32 {
	return cs.zoom
}

func (cs *CameraSystem) clampZoom(zoom float32) float32 {
	if zoom < cs.minZoom {
		return cs.minZoom
	}
	if zoom > cs.maxZoom {
		return cs.maxZoom
	}
	return zoom
}

// EnableSmoothing toggles eased following.
func (cs *CameraSystem) EnableSmoothing(enabled bool) {
	cs.smoothing = enabled
}

// Position returns the world point at the centre of the view.
func (cs *CameraSystem) Position() mgl64.Vec2 {
	return cs.currentPos
}

func (cs *CameraSystem) scale() float64 {
	return PixelsPerMeter * float64(cs.zoom)
}

// WorldToScreen converts a course point to pixels.
func (cs *CameraSystem) WorldToScreen(world mgl64.Vec2) engo.Point {
	rel := world.Sub(cs.currentPos).Mul(cs.scale())
	return engo.Point{
		X: float32(rel.X()) + cs.width/2,
		Y: cs.height/2 - float32(rel.Y()),
	}
}

// ScreenToWorld converts pixels to a course point.
func (cs *CameraSystem) ScreenToWorld(p engo.Point) mgl64.Vec2 {
	rel := mgl64.Vec2{float64(p.X - cs.width/2), float64(cs.height/2 - p.Y)}
	return rel.Mul(1 / cs.scale()).Add(cs.currentPos)
}
