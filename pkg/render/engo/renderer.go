// pkg/render/engo/renderer.go
package engo

import (
	"image/color"
	"math"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/opd-ai/go-skijet/pkg/entity"
)

// courseThickness is the drawn height of a terrain segment in pixels.
const courseThickness = 4

type sprite struct {
	ecs.BasicEntity
	common.RenderComponent
	common.SpaceComponent
}

func newSprite(drawable common.Drawable, c color.Color) *sprite {
	return &sprite{
		BasicEntity:     ecs.NewBasic(),
		RenderComponent: common.RenderComponent{Drawable: drawable, Color: c},
	}
}

// Segment is one straight piece of a course in world space.
type Segment struct {
	Start    mgl64.Vec2
	Length   float64 // along the surface
	AngleDeg float64
}

// CourseSegments converts a terrain profile to drawable pieces.
func CourseSegments(t entity.Terrain) []Segment {
	var out []Segment
	x := 0.0
	for _, s := range t.Segments {
		if s.Length <= 0 {
			continue
		}
		rad := mgl64.DegToRad(s.AngleDeg)
		out = append(out, Segment{
			Start:    mgl64.Vec2{x, t.Height(x)},
			Length:   s.Length / math.Cos(rad),
			AngleDeg: s.AngleDeg,
		})
		x += s.Length
	}
	return out
}

// CourseRenderer places the course and the character on screen.
type CourseRenderer struct {
	camera    *CameraSystem
	segments  []Segment
	pieces    []*sprite
	character *sprite
}

// NewCourseRenderer builds sprites for terrain seen through camera.
func NewCourseRenderer(camera *CameraSystem, terrain entity.Terrain) *CourseRenderer {
	r := &CourseRenderer{
		camera:    camera,
		segments:  CourseSegments(terrain),
		character: newSprite(nil, color.White),
	}
	for range r.segments {
		r.pieces = append(r.pieces, newSprite(common.Rectangle{}, SnowColor))
	}
	r.character.Width = CharacterWidth
	r.character.Height = CharacterHeight
	return r
}

// Attach registers every sprite with the render system.
func (r *CourseRenderer) Attach(rs *common.RenderSystem, character common.Drawable) {
	r.character.Drawable = character
	r.character.SetZIndex(2)
	for _, p := range r.pieces {
		rs.Add(&p.BasicEntity, &p.RenderComponent, &p.SpaceComponent)
	}
	rs.Add(&r.character.BasicEntity, &r.character.RenderComponent, &r.character.SpaceComponent)
}

// Sync moves the sprites to match the character position and camera.
func (r *CourseRenderer) Sync(position mgl64.Vec3) {
	scale := float32(r.camera.scale())
	for i, seg := range r.segments {
		p := r.pieces[i]
		p.Position = r.camera.WorldToScreen(seg.Start)
		p.Width = float32(seg.Length) * scale
		p.Height = courseThickness
		// engo rotates clockwise on a Y-down screen.
		p.Rotation = float32(-seg.AngleDeg)
	}

	feet := r.camera.WorldToScreen(mgl64.Vec2{position.X(), position.Y()})
	r.character.Position = engo.Point{
		X: feet.X - CharacterWidth/2,
		Y: feet.Y - CharacterHeight,
	}
}

// CharacterPosition returns the character sprite's top-left corner.
func (r *CourseRenderer) CharacterPosition() engo.Point {
	return r.character.Position
}
