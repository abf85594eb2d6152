package mesh

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/rustsim/internal/mathx"
)

// RecomputeNormals rebuilds vertex normals from the current triangle
// geometry, then averages normals at shared positions so hard splits in
// the index buffer do not show as seams. Tangents are re-orthogonalized
// against the new normals.
func RecomputeNormals(m *Mesh) {
	acc := make([]mgl32.Vec3, len(m.Vertices))
	for t := 0; t+2 < len(m.Indices); t += 3 {
		a, b, c := m.Indices[t], m.Indices[t+1], m.Indices[t+2]
		pa, pb, pc := m.Vertices[a].Position, m.Vertices[b].Position, m.Vertices[c].Position

		// Unnormalized: area weighted
		n := pb.Sub(pa).Cross(pc.Sub(pa))
		acc[a] = acc[a].Add(n)
		acc[b] = acc[b].Add(n)
		acc[c] = acc[c].Add(n)
	}

	const epsilon float32 = 0.001

	// Group vertices by quantized position for O(n) lookup
	posMap := make(map[[3]int32][]int)
	for i := range m.Vertices {
		p := m.Vertices[i].Position
		key := [3]int32{int32(p[0] / epsilon), int32(p[1] / epsilon), int32(p[2] / epsilon)}
		posMap[key] = append(posMap[key], i)
	}

	for _, idxs := range posMap {
		var sum mgl32.Vec3
		for _, idx := range idxs {
			sum = sum.Add(acc[idx])
		}
		n := mathx.SafeNormalize(sum)
		for _, idx := range idxs {
			v := &m.Vertices[idx]
			if n == (mgl32.Vec3{}) {
				// Collapsed geometry keeps its previous shading
				continue
			}
			v.Normal = n
			v.Tangent = orthogonalTangent(n, v.Tangent)
		}
	}
}

// orthogonalTangent removes the normal component from t, picking an
// arbitrary perpendicular when nothing is left.
func orthogonalTangent(n, t mgl32.Vec3) mgl32.Vec3 {
	t = mathx.SafeNormalize(t.Sub(n.Mul(n.Dot(t))))
	if t != (mgl32.Vec3{}) {
		return t
	}
	ref := mgl32.Vec3{0, 1, 0}
	if abs(n[1]) > 0.9 {
		ref = mgl32.Vec3{1, 0, 0}
	}
	return mathx.SafeNormalize(ref.Cross(n))
}

func abs(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
