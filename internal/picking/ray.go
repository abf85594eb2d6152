// Package picking provides ray casting against object bounds.
package picking

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/rustsim/internal/mathx"
	"github.com/Faultbox/rustsim/internal/mesh"
)

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3 // Normalized direction
}

// NewRay creates a ray, normalizing dir.
func NewRay(origin, dir mgl32.Vec3) Ray {
	return Ray{Origin: origin, Direction: mathx.SafeNormalize(dir)}
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// Transform maps the ray through m. The direction is renormalized, so
// distances along the result are in the target space.
func (r Ray) Transform(m mgl32.Mat4) Ray {
	return NewRay(
		m.Mul4x1(r.Origin.Vec4(1)).Vec3(),
		m.Mul4x1(r.Direction.Vec4(0)).Vec3(),
	)
}

// IntersectAABB tests ray intersection with a box using the slab method.
// It returns the distance to the entry point and the outward normal of the
// face hit. If the ray starts inside the box, the exit distance and face
// are returned.
func (r Ray) IntersectAABB(box mesh.Bounds) (t float32, normal mgl32.Vec3, hit bool) {
	tmin := float32(-math.MaxFloat32)
	tmax := float32(math.MaxFloat32)
	var inAxis, outAxis int
	var inSign, outSign float32

	for a := 0; a < 3; a++ {
		if r.Direction[a] == 0 {
			if r.Origin[a] < box.Min[a] || r.Origin[a] > box.Max[a] {
				return 0, mgl32.Vec3{}, false
			}
			continue
		}
		t1 := (box.Min[a] - r.Origin[a]) / r.Direction[a]
		t2 := (box.Max[a] - r.Origin[a]) / r.Direction[a]
		near, far := float32(-1), float32(1) // Normal signs of the faces at t1, t2
		if t1 > t2 {
			t1, t2 = t2, t1
			near, far = far, near
		}
		if t1 > tmin {
			tmin, inAxis, inSign = t1, a, near
		}
		if t2 < tmax {
			tmax, outAxis, outSign = t2, a, far
		}
	}

	if tmax < tmin || tmax < 0 {
		return 0, mgl32.Vec3{}, false
	}

	if tmin < 0 {
		normal[outAxis] = outSign
		return tmax, normal, true
	}
	normal[inAxis] = inSign
	return tmin, normal, true
}

// Hit is a world-space ray hit on an object.
type Hit struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	Distance float32
}

// CastBounds intersects a world-space ray with an object's local bounds.
// objectToWorld and worldToObject are the object's transform and its
// inverse. Hits beyond maxDistance (when positive) are ignored.
func CastBounds(r Ray, objectToWorld, worldToObject mgl32.Mat4, bounds mesh.Bounds, maxDistance float32) (Hit, bool) {
	local := r.Transform(worldToObject)
	t, n, ok := local.IntersectAABB(bounds)
	if !ok {
		return Hit{}, false
	}

	pos := objectToWorld.Mul4x1(local.At(t).Vec4(1)).Vec3()
	dist := pos.Sub(r.Origin).Len()
	if maxDistance > 0 && dist > maxDistance {
		return Hit{}, false
	}

	// Normals transform with the inverse transpose
	normal := worldToObject.Transpose().Mul4x1(n.Vec4(0)).Vec3()
	return Hit{
		Position: pos,
		Normal:   mathx.SafeNormalize(normal),
		Distance: dist,
	}, true
}
