package field

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/rustsim/internal/mathx"
)

// Region is an inclusive voxel range. Regions returned by a Field never
// extend outside [0, N-1] on any axis.
type Region struct {
	Min, Max [3]int
	empty    bool
}

// Empty reports whether the region covers no voxel.
func (r Region) Empty() bool {
	return r.empty
}

// Contains reports whether the voxel lies inside the region.
func (r Region) Contains(x, y, z int) bool {
	if r.empty {
		return false
	}
	return x >= r.Min[0] && x <= r.Max[0] &&
		y >= r.Min[1] && y <= r.Max[1] &&
		z >= r.Min[2] && z <= r.Max[2]
}

// Within reports whether the region fits a grid of side n.
func (r Region) Within(n int) bool {
	if r.empty {
		return true
	}
	for a := 0; a < 3; a++ {
		if r.Min[a] < 0 || r.Max[a] >= n || r.Min[a] > r.Max[a] {
			return false
		}
	}
	return true
}

// RegionFor returns the voxels whose centers may lie within the
// normalized box [lo, hi], clamped to the grid.
func (f *Field) RegionFor(lo, hi mgl32.Vec3) Region {
	if !f.Ready() {
		return Region{empty: true}
	}

	n := float32(f.size)
	var r Region
	for a := 0; a < 3; a++ {
		i0 := int(math.Floor(float64(lo[a]*n - 0.5)))
		i1 := int(math.Ceil(float64(hi[a]*n - 0.5)))
		if i1 < 0 || i0 > f.size-1 {
			return Region{empty: true}
		}
		r.Min[a] = mathx.Clamp(i0, 0, f.size-1)
		r.Max[a] = mathx.Clamp(i1, 0, f.size-1)
	}
	return r
}

func (f *Field) voxelCenter(x, y, z int) mgl32.Vec3 {
	n := float32(f.size)
	return mgl32.Vec3{(float32(x) + 0.5) / n, (float32(y) + 0.5) / n, (float32(z) + 0.5) / n}
}

// add accumulates delta into a channel, keeping it in [0,1].
func (f *Field) add(x, y, z int, ch Channel, delta float32) {
	i := f.current.index(x, y, z) + int(ch)
	f.current.data[i] = mathx.Saturate(f.current.data[i] + delta)
}

// StampSphere adds strength into ch around center with linear falloff to
// zero at radius. center and radius are in normalized volume space; the
// center is clamped into [0,1] first. It returns the region visited.
func (f *Field) StampSphere(center mgl32.Vec3, radius, strength float32, ch Channel) Region {
	if !f.Ready() || radius <= 0 {
		return Region{empty: true}
	}

	center = mathx.SaturateVec(center)
	ext := mgl32.Vec3{radius, radius, radius}
	r := f.RegionFor(center.Sub(ext), center.Add(ext))
	if r.Empty() {
		return r
	}

	for z := r.Min[2]; z <= r.Max[2]; z++ {
		for y := r.Min[1]; y <= r.Max[1]; y++ {
			for x := r.Min[0]; x <= r.Max[0]; x++ {
				dist := f.voxelCenter(x, y, z).Sub(center).Len()
				if dist >= radius {
					continue
				}
				f.add(x, y, z, ch, strength*(1-dist/radius))
			}
		}
	}
	return r
}

// Cone describes a penetrating stamp in normalized volume space.
type Cone struct {
	Origin    mgl32.Vec3 // Impact point, clamped into [0,1]
	Direction mgl32.Vec3 // Into the material
	Radius    float32    // Radius at the origin
	Angle     float32    // Half angle in radians
	Depth     float32    // Maximum penetration along Direction
}

// StampCone damages the volume inside a cone starting at the impact point
// and strips corrosion from it. Falloff is linear in depth and in distance
// from the axis. It returns the region visited.
func (f *Field) StampCone(c Cone, strength float32) Region {
	if !f.Ready() || c.Radius <= 0 {
		return Region{empty: true}
	}

	origin := mathx.SaturateVec(c.Origin)
	dir := mathx.SafeNormalize(c.Direction)
	depth := max(c.Depth, 0)
	if dir == (mgl32.Vec3{}) {
		depth = 0
	}
	spread := float32(math.Tan(float64(mathx.Clamp(c.Angle, 0, 1.5))))
	reach := c.Radius + depth*spread

	end := origin.Add(dir.Mul(depth))
	ext := mgl32.Vec3{reach, reach, reach}
	lo := mgl32.Vec3{min(origin[0], end[0]), min(origin[1], end[1]), min(origin[2], end[2])}.Sub(ext)
	hi := mgl32.Vec3{max(origin[0], end[0]), max(origin[1], end[1]), max(origin[2], end[2])}.Add(ext)
	r := f.RegionFor(lo, hi)
	if r.Empty() {
		return r
	}

	for z := r.Min[2]; z <= r.Max[2]; z++ {
		for y := r.Min[1]; y <= r.Max[1]; y++ {
			for x := r.Min[0]; x <= r.Max[0]; x++ {
				v := f.voxelCenter(x, y, z).Sub(origin)
				along := v.Dot(dir)

				// Voxels just behind the surface point still take the hit
				if along < 0 {
					if v.Len() >= c.Radius {
						continue
					}
					along = 0
				}
				if along > depth {
					continue
				}

				perp := v.Sub(dir.Mul(along)).Len()
				allowed := c.Radius + along*spread
				if perp >= allowed {
					continue
				}

				w := 1 - perp/allowed
				if depth > 0 {
					w *= 1 - along/depth
				}
				amount := strength * w
				f.add(x, y, z, Damage, amount)
				f.add(x, y, z, Corrosion, -amount)
			}
		}
	}
	return r
}
