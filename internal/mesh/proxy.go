package mesh

import "github.com/go-gl/mathgl/mgl32"

// Proxy is a flat, non-indexed triangle list for draw submission and hit
// testing: every three consecutive vertices form one triangle.
type Proxy struct {
	Vertices []Vertex
}

// Flatten expands the indexed mesh into a proxy.
func Flatten(m *Mesh) Proxy {
	p := Proxy{Vertices: make([]Vertex, len(m.Indices))}
	for i, idx := range m.Indices {
		p.Vertices[i] = m.Vertices[idx]
	}
	return p
}

// TriangleCount returns the number of triangles.
func (p Proxy) TriangleCount() int {
	return len(p.Vertices) / 3
}

// Triangle returns the corner positions of triangle i.
func (p Proxy) Triangle(i int) (a, b, c mgl32.Vec3) {
	return p.Vertices[i*3].Position, p.Vertices[i*3+1].Position, p.Vertices[i*3+2].Position
}
