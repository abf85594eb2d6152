package mesh

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func triangle(a, b, c mgl32.Vec3) Mesh {
	n := b.Sub(a).Cross(c.Sub(a)).Normalize()
	m := Mesh{
		Materials: 1,
		Vertices: []Vertex{
			{Position: a, Normal: n, Tangent: mgl32.Vec3{1, 0, 0}},
			{Position: b, Normal: n, Tangent: mgl32.Vec3{1, 0, 0}},
			{Position: c, Normal: n, Tangent: mgl32.Vec3{1, 0, 0}},
		},
		Indices: []uint32{0, 1, 2},
	}
	m.UpdateBounds()
	return m
}

// checkWatertight verifies every directed edge has exactly one opposite twin.
func checkWatertight(t *testing.T, m *Mesh) {
	t.Helper()
	directed := make(map[[2]uint32]int)
	for i := 0; i < len(m.Indices); i += 3 {
		for e := 0; e < 3; e++ {
			a, b := m.Indices[i+e], m.Indices[i+(e+1)%3]
			directed[[2]uint32{a, b}]++
		}
	}
	for e, n := range directed {
		if n != 1 {
			t.Fatalf("directed edge %v used %d times", e, n)
		}
		if directed[[2]uint32{e[1], e[0]}] != 1 {
			t.Fatalf("edge %v has no twin: mesh has a crack", e)
		}
	}
}

func TestValidate(t *testing.T) {
	good := Icosphere(1, 0)
	if err := good.Validate(); err != nil {
		t.Fatalf("icosphere invalid: %v", err)
	}

	tests := []struct {
		name string
		edit func(m *Mesh)
		want error
	}{
		{"materials", func(m *Mesh) { m.Materials = 2 }, ErrMultipleMaterials},
		{"vertices", func(m *Mesh) { m.Vertices = make([]Vertex, MaxVertices+1) }, ErrTooManyVertices},
		{"empty", func(m *Mesh) { m.Indices = nil }, ErrEmpty},
		{"ragged", func(m *Mesh) { m.Indices = m.Indices[:4] }, ErrMalformed},
		{"range", func(m *Mesh) { m.Indices[0] = 999 }, ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := good.Clone()
			tt.edit(&m)
			if err := m.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDensifyPatterns(t *testing.T) {
	tests := []struct {
		name      string
		tri       Mesh
		maxEdge   float32
		triangles int
	}{
		{"no split", triangle(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}), 2, 1},
		// Only the long base exceeds 1.5
		{"one edge", triangle(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{2, 0, 0}, mgl32.Vec3{1, 0.5, 0}), 1.5, 2},
		// Both legs are 2.06; the base of 1 stays
		{"two edges", triangle(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0.5, 2, 0}), 1.5, 3},
		{"three edges", triangle(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{4, 0, 0}, mgl32.Vec3{2, 3, 0}), 1.5, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, res, err := Densify(tt.tri, tt.maxEdge)
			if err != nil {
				t.Fatalf("Densify: %v", err)
			}
			if out.TriangleCount() != tt.triangles || res.NewTriangleCount != tt.triangles {
				t.Errorf("got %d triangles (result %d), want %d", out.TriangleCount(), res.NewTriangleCount, tt.triangles)
			}

			// Winding is preserved: all normals point the same way as the input
			want := tt.tri.Vertices[0].Normal
			for i := 0; i < len(out.Indices); i += 3 {
				a := out.Vertices[out.Indices[i]].Position
				b := out.Vertices[out.Indices[i+1]].Position
				c := out.Vertices[out.Indices[i+2]].Position
				if n := b.Sub(a).Cross(c.Sub(a)); n.Dot(want) <= 0 {
					t.Errorf("triangle %d flipped or degenerate", i/3)
				}
			}
		})
	}
}

func TestDensifyMidpointAttributes(t *testing.T) {
	m := triangle(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{2, 0, 0}, mgl32.Vec3{1, 0.5, 0})
	m.Vertices[0].Normal = mgl32.Vec3{0, 0, 1}
	m.Vertices[1].Normal = mgl32.Vec3{1, 0, 0}
	m.Vertices[0].TexCoord = mgl32.Vec2{0, 0}
	m.Vertices[1].TexCoord = mgl32.Vec2{1, 0}

	out, _, err := Densify(m, 1.5)
	if err != nil {
		t.Fatal(err)
	}
	mid := out.Vertices[3]
	if !mid.Position.ApproxEqual(mgl32.Vec3{1, 0, 0}) {
		t.Errorf("midpoint position %v", mid.Position)
	}
	if l := mid.Normal.Len(); math.Abs(float64(l-1)) > 1e-5 {
		t.Errorf("midpoint normal not renormalized: len %v", l)
	}
	if !mid.TexCoord.ApproxEqual(mgl32.Vec2{0.5, 0}) {
		t.Errorf("midpoint uv %v", mid.TexCoord)
	}
}

func TestDensifyConvergesAndStaysWatertight(t *testing.T) {
	sphere := Icosphere(1, 0)
	checkWatertight(t, &sphere)

	out, res, reason, err := DensifyUntil(sphere, 0.3, 6, 0)
	if err != nil {
		t.Fatal(err)
	}
	if reason != StopConverged || !res.Success {
		t.Fatalf("stopped with %v, result %+v", reason, res)
	}
	if res.MaxRemainingEdgeLength > 0.3 {
		t.Errorf("max edge %v exceeds 0.3", res.MaxRemainingEdgeLength)
	}
	if res.AvgRemainingEdgeLength <= 0 || res.AvgRemainingEdgeLength > res.MaxRemainingEdgeLength {
		t.Errorf("avg edge %v out of range", res.AvgRemainingEdgeLength)
	}
	if res.Passes < 2 {
		t.Errorf("expected several passes, got %d", res.Passes)
	}
	if err := out.Validate(); err != nil {
		t.Fatal(err)
	}
	checkWatertight(t, &out)
}

func TestDensifyUntilTriangleCap(t *testing.T) {
	sphere := Icosphere(1, 1)
	out, res, reason, err := DensifyUntil(sphere, 0.01, 10, 500)
	if err != nil {
		t.Fatal(err)
	}
	if reason != StopTriangleCap {
		t.Fatalf("reason = %v, want triangle cap", reason)
	}
	if out.TriangleCount() > 500 || res.Success {
		t.Errorf("cap not honoured: %d triangles, success %v", out.TriangleCount(), res.Success)
	}
}

func TestDensifyUntilPassLimit(t *testing.T) {
	_, res, reason, err := DensifyUntil(Icosphere(1, 0), 0.01, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if reason != StopPassLimit || res.Passes != 1 {
		t.Errorf("reason %v passes %d", reason, res.Passes)
	}
}

func TestDensifyRejects(t *testing.T) {
	m := Icosphere(1, 0)
	if _, _, err := Densify(m, 0); !errors.Is(err, ErrEdgeLength) {
		t.Errorf("zero edge length: %v", err)
	}

	m.Materials = 3
	if _, _, err := Densify(m, 0.5); !errors.Is(err, ErrMultipleMaterials) {
		t.Errorf("multi material: %v", err)
	}

	// 5 subdivisions is 10242 vertices; another full split would be ~41k,
	// a second one overflows
	big := Icosphere(1, 5)
	_, _, reason, err := DensifyUntil(big, 0.001, 4, 0)
	if err != nil {
		t.Fatal(err)
	}
	if reason != StopVertexLimit {
		t.Errorf("reason = %v, want vertex limit", reason)
	}
}

func TestBoxAndProxy(t *testing.T) {
	box := Box(mgl32.Vec3{1, 2, 3})
	if err := box.Validate(); err != nil {
		t.Fatal(err)
	}
	if !box.Bounds.Min.ApproxEqual(mgl32.Vec3{-1, -2, -3}) || !box.Bounds.Max.ApproxEqual(mgl32.Vec3{1, 2, 3}) {
		t.Errorf("bounds %+v", box.Bounds)
	}

	// Every triangle faces away from the center
	for i := 0; i < len(box.Indices); i += 3 {
		a := box.Vertices[box.Indices[i]].Position
		b := box.Vertices[box.Indices[i+1]].Position
		c := box.Vertices[box.Indices[i+2]].Position
		n := b.Sub(a).Cross(c.Sub(a))
		if n.Dot(a.Add(b).Add(c)) <= 0 {
			t.Errorf("box triangle %d faces inward", i/3)
		}
	}

	p := Flatten(&box)
	if p.TriangleCount() != 12 {
		t.Errorf("proxy has %d triangles, want 12", p.TriangleCount())
	}
	a, _, _ := p.Triangle(0)
	if a != box.Vertices[box.Indices[0]].Position {
		t.Error("proxy does not follow the index buffer")
	}
	// Drawable: normals and texture coordinates come along
	for i, idx := range box.Indices {
		if p.Vertices[i] != box.Vertices[idx] {
			t.Fatalf("proxy vertex %d differs from mesh vertex %d", i, idx)
		}
	}
}

func TestRecomputeNormals(t *testing.T) {
	sphere := Icosphere(2, 2)
	for i := range sphere.Vertices {
		sphere.Vertices[i].Normal = mgl32.Vec3{0, 0, 1}
	}
	RecomputeNormals(&sphere)

	for i, v := range sphere.Vertices {
		radial := v.Position.Normalize()
		if v.Normal.Dot(radial) < 0.95 {
			t.Fatalf("vertex %d normal %v not radial", i, v.Normal)
		}
		if d := v.Normal.Dot(v.Tangent); math.Abs(float64(d)) > 1e-4 {
			t.Fatalf("vertex %d tangent not orthogonal: %v", i, d)
		}
	}
}

func TestBoundsNormalize(t *testing.T) {
	b := Bounds{Min: mgl32.Vec3{-1, 0, 2}, Max: mgl32.Vec3{1, 4, 2}}
	got := b.Normalize(mgl32.Vec3{0, 1, 2})
	want := mgl32.Vec3{0.5, 0.25, 0.5} // Flat Z maps to the middle
	if !got.ApproxEqual(want) {
		t.Errorf("Normalize = %v, want %v", got, want)
	}
	if b.Diagonal() <= 0 {
		t.Error("diagonal should be positive")
	}
}
