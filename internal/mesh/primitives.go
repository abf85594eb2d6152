package mesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Box returns a single-material box centered on the origin with the
// given half extents. Each face has its own four vertices.
func Box(half mgl32.Vec3) Mesh {
	type face struct {
		normal, u, v mgl32.Vec3
	}
	faces := []face{
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}},
		{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
	}
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}

	m := Mesh{Materials: 1}
	for _, f := range faces {
		base := uint32(len(m.Vertices))
		for _, c := range corners {
			p := f.normal.Add(f.u.Mul(c[0])).Add(f.v.Mul(c[1]))
			m.Vertices = append(m.Vertices, Vertex{
				Position: mgl32.Vec3{p[0] * half[0], p[1] * half[1], p[2] * half[2]},
				Normal:   f.normal,
				Tangent:  f.u,
				TexCoord: mgl32.Vec2{(c[0] + 1) / 2, (c[1] + 1) / 2},
			})
		}
		m.Indices = append(m.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	m.UpdateBounds()
	return m
}

// Icosphere returns a welded sphere of the given radius built by
// subdividing an icosahedron. Every edge is shared by exactly two
// triangles.
func Icosphere(radius float32, subdivisions int) Mesh {
	t := float32((1 + math.Sqrt(5)) / 2)
	points := []mgl32.Vec3{
		{-1, t, 0}, {1, t, 0}, {-1, -t, 0}, {1, -t, 0},
		{0, -1, t}, {0, 1, t}, {0, -1, -t}, {0, 1, -t},
		{t, 0, -1}, {t, 0, 1}, {-t, 0, -1}, {-t, 0, 1},
	}
	for i := range points {
		points[i] = points[i].Normalize()
	}
	tris := [][3]uint32{
		{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
		{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
		{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
		{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
	}

	for s := 0; s < subdivisions; s++ {
		cache := make(map[edgeKey]uint32)
		mid := func(a, b uint32) uint32 {
			key := makeEdgeKey(a, b)
			if idx, ok := cache[key]; ok {
				return idx
			}
			idx := uint32(len(points))
			points = append(points, points[a].Add(points[b]).Normalize())
			cache[key] = idx
			return idx
		}

		next := make([][3]uint32, 0, len(tris)*4)
		for _, tri := range tris {
			a, b, c := tri[0], tri[1], tri[2]
			ab, bc, ca := mid(a, b), mid(b, c), mid(c, a)
			next = append(next,
				[3]uint32{a, ab, ca},
				[3]uint32{b, bc, ab},
				[3]uint32{c, ca, bc},
				[3]uint32{ab, bc, ca},
			)
		}
		tris = next
	}

	m := Mesh{Materials: 1, Vertices: make([]Vertex, len(points))}
	for i, n := range points {
		u := float32(0.5 + math.Atan2(float64(n[2]), float64(n[0]))/(2*math.Pi))
		v := float32(0.5 - math.Asin(float64(n[1]))/math.Pi)
		m.Vertices[i] = Vertex{
			Position: n.Mul(radius),
			Normal:   n,
			Tangent:  orthogonalTangent(n, mgl32.Vec3{-n[2], 0, n[0]}),
			TexCoord: mgl32.Vec2{u, v},
		}
	}
	for _, tri := range tris {
		m.Indices = append(m.Indices, tri[0], tri[1], tri[2])
	}
	m.UpdateBounds()
	return m
}
