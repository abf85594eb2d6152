package impact

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/rustsim/internal/field"
	"github.com/Faultbox/rustsim/internal/mathx"
	"github.com/Faultbox/rustsim/internal/mesh"
)

// Local is an event mapped into normalized volume space [0,1]^3.
type Local struct {
	Center    mgl32.Vec3
	Direction mgl32.Vec3 // Unit length, or zero
	Radius    float32
	Depth     float32
	ConeAngle float32 // Radians
	Strength  float32
	Kind      Kind
}

// ToLocal maps a world-space event through the object's inverse transform
// and its bounds. The center is clamped into the volume. Lengths are
// converted with the largest bounds axis: on non-cubic bounds the stamp
// covers the world radius along that axis and is squashed along the
// shorter ones.
func ToLocal(e Event, worldToObject mgl32.Mat4, b mesh.Bounds) Local {
	pos := worldToObject.Mul4x1(e.Position.Vec4(1)).Vec3()
	center := mathx.SaturateVec(b.Normalize(pos))

	size := b.Size()
	extent := max(size[0], size[1], size[2])
	toVolume := float32(0)
	if extent > 0 {
		toVolume = meanScale(worldToObject) / extent
	}

	dir := worldToObject.Mul4x1(e.Direction.Vec4(0)).Vec3()
	if dir == (mgl32.Vec3{}) {
		dir = worldToObject.Mul4x1(e.SurfaceNormal.Mul(-1).Vec4(0)).Vec3()
	}

	return Local{
		Center:    center,
		Direction: mathx.SafeNormalize(dir),
		Radius:    e.Radius * toVolume,
		Depth:     e.PenetrationStrength * toVolume,
		ConeAngle: mgl32.DegToRad(e.PenetrationConeDeg),
		Strength:  e.Strength,
		Kind:      e.Kind,
	}
}

// meanScale is the average length of the matrix basis vectors.
func meanScale(m mgl32.Mat4) float32 {
	x := m.Col(0).Vec3().Len()
	y := m.Col(1).Vec3().Len()
	z := m.Col(2).Vec3().Len()
	return (x + y + z) / 3
}

// Apply writes the event into f with the kernel of its kind and returns
// the voxel region it visited.
func Apply(f *field.Field, l Local) field.Region {
	switch l.Kind {
	case KindCrowbar:
		return f.StampCone(field.Cone{
			Origin:    l.Center,
			Direction: l.Direction,
			Radius:    l.Radius,
			Angle:     l.ConeAngle,
			Depth:     l.Depth,
		}, l.Strength)
	default:
		return f.StampSphere(l.Center, l.Radius, l.Strength, field.Moisture)
	}
}
