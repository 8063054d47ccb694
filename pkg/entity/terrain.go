package entity

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// TerrainSegment is one straight run of a course profile. AngleDeg is
// positive when the ground rises towards +X.
type TerrainSegment struct {
	Length   float64 `json:"length"`
	AngleDeg float64 `json:"angleDeg"`
}

// Terrain is a piecewise-linear height profile along X starting at the
// origin. Ground is flat before the first segment and after the last one.
type Terrain struct {
	Segments []TerrainSegment `json:"segments"`
}

// locate returns the segment covering x, its start, and the height there.
// ok is false outside the profile.
func (t Terrain) locate(x float64) (seg TerrainSegment, startX, startY float64, ok bool) {
	if x < 0 {
		return TerrainSegment{}, 0, 0, false
	}
	for _, s := range t.Segments {
		if s.Length <= 0 {
			continue
		}
		if x < startX+s.Length {
			return s, startX, startY, true
		}
		startX += s.Length
		startY += s.Length * math.Tan(mgl64.DegToRad(s.AngleDeg))
	}
	return TerrainSegment{}, startX, startY, false
}

// Height returns the ground height at x.
func (t Terrain) Height(x float64) float64 {
	seg, startX, startY, ok := t.locate(x)
	if !ok {
		return startY
	}
	return startY + (x-startX)*math.Tan(mgl64.DegToRad(seg.AngleDeg))
}

// Normal returns the unit ground normal at x.
func (t Terrain) Normal(x float64) mgl64.Vec3 {
	seg, _, _, ok := t.locate(x)
	if !ok {
		return mgl64.Vec3{0, 1, 0}
	}
	rad := mgl64.DegToRad(seg.AngleDeg)
	return mgl64.Vec3{-math.Sin(rad), math.Cos(rad), 0}
}

// Length returns the horizontal extent of the profile.
func (t Terrain) Length() float64 {
	total := 0.0
	for _, s := range t.Segments {
		if s.Length > 0 {
			total += s.Length
		}
	}
	return total
}

// Courses used by the CLI and tests.
var (
	// SlopeCourse is a long descent with a kicker and a runout.
	SlopeCourse = Terrain{Segments: []TerrainSegment{
		{Length: 20, AngleDeg: 0},
		{Length: 120, AngleDeg: -25},
		{Length: 15, AngleDeg: 10},
		{Length: 80, AngleDeg: -30},
		{Length: 200, AngleDeg: 0},
	}}

	// FlatCourse has no slope at all.
	FlatCourse = Terrain{Segments: []TerrainSegment{{Length: 500, AngleDeg: 0}}}

	// JetpackCourse is a flat start into a wall-like climb.
	JetpackCourse = Terrain{Segments: []TerrainSegment{
		{Length: 40, AngleDeg: 0},
		{Length: 30, AngleDeg: 40},
		{Length: 200, AngleDeg: 0},
	}}
)

// Course returns a named course.
func Course(name string) (Terrain, bool) {
	switch name {
	case "slope":
		return SlopeCourse, true
	case "flat":
		return FlatCourse, true
	case "jetpack":
		return JetpackCourse, true
	default:
		return Terrain{}, false
	}
}
