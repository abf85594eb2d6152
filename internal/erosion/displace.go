package erosion

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/rustsim/internal/field"
	"github.com/Faultbox/rustsim/internal/mathx"
	"github.com/Faultbox/rustsim/internal/mesh"
)

// Displace moves every vertex of m towards target by
// strength * corrosion * (1 + damage), sampled from the field at the
// vertex's position in volume space. A vertex never passes the target.
// It returns the number of vertices that moved.
func Displace(m *mesh.Mesh, f *field.Buffer, bounds mesh.Bounds, target mgl32.Vec3, strength float32) int {
	if f == nil || strength <= 0 {
		return 0
	}

	moved := 0
	for i := range m.Vertices {
		pos := m.Vertices[i].Position
		s := f.Sample(mathx.SaturateVec(bounds.Normalize(pos)))

		step := strength * s.Corrosion * (1 + s.Damage)
		if step <= 0 {
			continue
		}

		toward := target.Sub(pos)
		dist := toward.Len()
		if dist == 0 {
			continue
		}
		if step >= dist {
			m.Vertices[i].Position = target
		} else {
			m.Vertices[i].Position = pos.Add(toward.Mul(step / dist))
		}
		moved++
	}
	return moved
}
