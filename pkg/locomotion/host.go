package locomotion

import (
	"github.com/go-gl/mathgl/mgl64"
)

// StaticHost is a Host with a fixed facing. The zero value faces +Z with
// +X to the right, cannot jump and uses a gravity multiplier of 1.
type StaticHost struct {
	Facing     mgl64.Vec3
	Side       mgl64.Vec3
	Jump       float64
	GravityMul float64
}

// Forward returns the facing axis, +Z when unset.
func (h StaticHost) Forward() mgl64.Vec3 {
	if h.Facing == (mgl64.Vec3{}) {
		return mgl64.Vec3{0, 0, 1}
	}
	return h.Facing
}

// Right returns the side axis, +X when unset.
func (h StaticHost) Right() mgl64.Vec3 {
	if h.Side == (mgl64.Vec3{}) {
		return mgl64.Vec3{1, 0, 0}
	}
	return h.Side
}

// JumpSpeed returns the configured jump speed.
func (h StaticHost) JumpSpeed() float64 {
	return h.Jump
}

// GravityMultiplier returns the gravity scale, 1 when unset.
func (h StaticHost) GravityMultiplier() float64 {
	if h.GravityMul == 0 {
		return 1
	}
	return h.GravityMul
}
