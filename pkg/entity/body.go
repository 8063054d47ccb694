package entity

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/opd-ai/go-skijet/pkg/locomotion"
	"github.com/opd-ai/go-skijet/pkg/physics"
)

// Body is the character controller a Character drives. It answers the
// grounded test, supplies the facing axes and jump tuning, and applies the
// integrated velocity. Move returns the ground contacts made while moving.
type Body interface {
	locomotion.Host
	Grounded() bool
	Position() mgl64.Vec3
	Move(velocity mgl64.Vec3, dt float64) []physics.Contact
}

// groundSkin is how far above the surface still counts as touching it.
const groundSkin = 0.01

// TerrainBody is a point-mass controller riding a Terrain. It faces +X,
// with -Z to its right.
type TerrainBody struct {
	Terrain        Terrain
	JumpSpeedValue float64
	GravityMul     float64

	position mgl64.Vec3
	grounded bool
}

// NewTerrainBody places a body on the ground at x.
func NewTerrainBody(terrain Terrain, x, jumpSpeed, gravityMultiplier float64) *TerrainBody {
	return &TerrainBody{
		Terrain:        terrain,
		JumpSpeedValue: jumpSpeed,
		GravityMul:     gravityMultiplier,
		position:       mgl64.Vec3{x, terrain.Height(x), 0},
		grounded:       true,
	}
}

// Grounded reports whether the last Move ended on the surface.
func (b *TerrainBody) Grounded() bool {
	return b.grounded
}

// Position returns the current position.
func (b *TerrainBody) Position() mgl64.Vec3 {
	return b.position
}

// Forward is +X, down the course.
func (b *TerrainBody) Forward() mgl64.Vec3 {
	return mgl64.Vec3{1, 0, 0}
}

// Right is -Z.
func (b *TerrainBody) Right() mgl64.Vec3 {
	return mgl64.Vec3{0, 0, -1}
}

// JumpSpeed returns the configured jump speed.
func (b *TerrainBody) JumpSpeed() float64 {
	return b.JumpSpeedValue
}

// GravityMultiplier returns the configured gravity scale.
func (b *TerrainBody) GravityMultiplier() float64 {
	return b.GravityMul
}

// Move integrates position and snaps to the surface when the body ends up
// on or below it. Snapping reports one contact with the surface normal.
func (b *TerrainBody) Move(velocity mgl64.Vec3, dt float64) []physics.Contact {
	if !(dt > 0) || !physics.IsFinite(velocity) {
		return nil
	}

	p := b.position.Add(velocity.Mul(dt))
	ground := b.Terrain.Height(p.X())

	if p.Y() > ground+groundSkin {
		b.position = p
		b.grounded = false
		return nil
	}

	p[1] = ground
	b.position = p
	b.grounded = true
	return []physics.Contact{{Normal: b.Terrain.Normal(p.X()), Point: p}}
}
