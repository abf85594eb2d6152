// Package mesh holds the editable triangle mesh of a simulated object and
// the preprocessing applied to it before erosion.
package mesh

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxVertices is the largest vertex count a working mesh may hold.
const MaxVertices = 65535

var (
	ErrTooManyVertices   = errors.New("mesh: too many vertices")
	ErrMultipleMaterials = errors.New("mesh: more than one material")
	ErrMalformed         = errors.New("mesh: malformed index buffer")
	ErrEmpty             = errors.New("mesh: no triangles")
)

// Vertex is one mesh vertex. Normal and Tangent are unit length.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	Tangent  mgl32.Vec3
	TexCoord mgl32.Vec2
}

// Mesh is an indexed triangle list with a single material.
type Mesh struct {
	Vertices  []Vertex
	Indices   []uint32
	Materials int
	Bounds    Bounds
}

// Bounds is an axis-aligned bounding box in object space.
type Bounds struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// EmptyBounds returns a box that any Extend call replaces.
func EmptyBounds() Bounds {
	inf := float32(math.Inf(1))
	return Bounds{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

// Extend grows b to contain p.
func (b *Bounds) Extend(p mgl32.Vec3) {
	for a := 0; a < 3; a++ {
		if p[a] < b.Min[a] {
			b.Min[a] = p[a]
		}
		if p[a] > b.Max[a] {
			b.Max[a] = p[a]
		}
	}
}

// Center returns the midpoint of the box.
func (b Bounds) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the box extent per axis.
func (b Bounds) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// Diagonal returns the length of the box diagonal.
func (b Bounds) Diagonal() float32 {
	return b.Size().Len()
}

// Normalize maps p into [0,1]^3 relative to the box. Flat axes map to 0.5.
func (b Bounds) Normalize(p mgl32.Vec3) mgl32.Vec3 {
	size := b.Size()
	var out mgl32.Vec3
	for a := 0; a < 3; a++ {
		if size[a] <= 0 {
			out[a] = 0.5
			continue
		}
		out[a] = (p[a] - b.Min[a]) / size[a]
	}
	return out
}

// ComputeBounds returns the bounds of the given vertices.
func ComputeBounds(vertices []Vertex) Bounds {
	b := EmptyBounds()
	for i := range vertices {
		b.Extend(vertices[i].Position)
	}
	return b
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Validate checks the limits a working mesh must respect.
func (m *Mesh) Validate() error {
	if m.Materials > 1 {
		return fmt.Errorf("%w: %d", ErrMultipleMaterials, m.Materials)
	}
	if len(m.Vertices) > MaxVertices {
		return fmt.Errorf("%w: %d > %d", ErrTooManyVertices, len(m.Vertices), MaxVertices)
	}
	if len(m.Indices) == 0 {
		return ErrEmpty
	}
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("%w: %d indices", ErrMalformed, len(m.Indices))
	}
	for i, idx := range m.Indices {
		if int(idx) >= len(m.Vertices) {
			return fmt.Errorf("%w: index %d at %d out of range", ErrMalformed, idx, i)
		}
	}
	return nil
}

// Clone returns a deep copy of m.
func (m *Mesh) Clone() Mesh {
	c := Mesh{
		Vertices:  make([]Vertex, len(m.Vertices)),
		Indices:   make([]uint32, len(m.Indices)),
		Materials: m.Materials,
		Bounds:    m.Bounds,
	}
	copy(c.Vertices, m.Vertices)
	copy(c.Indices, m.Indices)
	return c
}

// Positions returns a copy of the vertex positions.
func (m *Mesh) Positions() []mgl32.Vec3 {
	out := make([]mgl32.Vec3, len(m.Vertices))
	for i := range m.Vertices {
		out[i] = m.Vertices[i].Position
	}
	return out
}

// UpdateBounds recomputes Bounds from the vertices.
func (m *Mesh) UpdateBounds() {
	m.Bounds = ComputeBounds(m.Vertices)
}
