// Package mathx holds small numeric helpers shared by the simulation packages.
package mathx

import (
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/exp/constraints"
)

// Clamp returns the value `f` clamped to the range [low, high].
// It works for any numeric type (integers and floats).
func Clamp[T constraints.Ordered](f, low, high T) T {
	if f < low {
		return low
	}
	if f > high {
		return high
	}
	return f
}

// Saturate clamps f to [0,1].
func Saturate(f float32) float32 {
	return Clamp(f, 0, 1)
}

// SaturateVec clamps every component of v to [0,1].
func SaturateVec(v mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{Saturate(v[0]), Saturate(v[1]), Saturate(v[2])}
}

// Sign returns -1, 0 or 1.
func Sign(f float32) int {
	switch {
	case f > 0:
		return 1
	case f < 0:
		return -1
	}
	return 0
}

// SafeNormalize returns v normalized, or zero if v has no length.
func SafeNormalize(v mgl32.Vec3) mgl32.Vec3 {
	l := v.Len()
	if l < 1e-12 {
		return mgl32.Vec3{}
	}
	return v.Mul(1 / l)
}
