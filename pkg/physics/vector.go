// pkg/physics/vector.go
package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// World axes. Y is up.
var (
	Up   = mgl64.Vec3{0, 1, 0}
	Down = mgl64.Vec3{0, -1, 0}
	Zero = mgl64.Vec3{}
)

// SafeNormalize returns a unit vector in the same direction, or the zero
// vector when v has no length. mgl64's Normalize divides by zero.
func SafeNormalize(v mgl64.Vec3) mgl64.Vec3 {
	length := v.Len()
	if length == 0 || math.IsNaN(length) || math.IsInf(length, 0) {
		return mgl64.Vec3{}
	}
	return v.Mul(1 / length)
}

// SafeNormalize2 is SafeNormalize for 2D vectors.
func SafeNormalize2(v mgl64.Vec2) mgl64.Vec2 {
	length := v.Len()
	if length == 0 || math.IsNaN(length) || math.IsInf(length, 0) {
		return mgl64.Vec2{}
	}
	return v.Mul(1 / length)
}

// Horizontal drops the vertical component.
func Horizontal(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v.X(), 0, v.Z()}
}

// HorizontalSpeed returns the magnitude of the XZ components.
func HorizontalSpeed(v mgl64.Vec3) float64 {
	return math.Hypot(v.X(), v.Z())
}

// WithHorizontal replaces the XZ components of v with those of h.
func WithHorizontal(v, h mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{h.X(), v.Y(), h.Z()}
}

// ClampHorizontal rescales the horizontal part of v to exactly limit when it
// exceeds it. A limit of zero or less means uncapped.
func ClampHorizontal(v mgl64.Vec3, limit float64) mgl64.Vec3 {
	if limit <= 0 {
		return v
	}
	h := Horizontal(v)
	if h.Len() <= limit {
		return v
	}
	return WithHorizontal(v, SafeNormalize(h).Mul(limit))
}

// ProjectOnPlane removes the component of v along the plane normal n.
func ProjectOnPlane(v, n mgl64.Vec3) mgl64.Vec3 {
	sqr := n.Dot(n)
	if sqr == 0 {
		return v
	}
	return v.Sub(n.Mul(v.Dot(n) / sqr))
}

// AngleDeg returns the unsigned angle between a and b in degrees.
// Either vector being zero yields 0.
func AngleDeg(a, b mgl64.Vec3) float64 {
	denom := a.Len() * b.Len()
	if denom == 0 {
		return 0
	}
	cos := clamp(a.Dot(b)/denom, -1, 1)
	return mgl64.RadToDeg(math.Acos(cos))
}

// SlopeAngle returns the angle in degrees between world up and a surface normal.
func SlopeAngle(normal mgl64.Vec3) float64 {
	return AngleDeg(Up, normal)
}

// Clamp01 clamps x into [0, 1]. NaN maps to 0.
func Clamp01(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return clamp(x, 0, 1)
}

// Lerp interpolates from a to b by t, with t clamped to [0, 1].
func Lerp(a, b, t float64) float64 {
	t = Clamp01(t)
	return a + (b-a)*t
}

// LerpVec3 interpolates component-wise from a to b by t, with t clamped to [0, 1].
func LerpVec3(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	t = Clamp01(t)
	return a.Add(b.Sub(a).Mul(t))
}

// IsFinite reports whether every component of v is a real number.
func IsFinite(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
