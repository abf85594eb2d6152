// Package hull builds convex hulls for collision from eroded mesh vertices.
//
// The merge tolerance scales with the size of the input: points closer
// than max(diagonal/Divisor, Floor) to the current hull are dropped. Large
// objects get a coarse hull, small ones are bounded by the floor so the
// build never degenerates on float noise.
package hull

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

var (
	ErrTooFewPoints = errors.New("hull: need at least 4 points")
	ErrDegenerate   = errors.New("hull: points are coplanar, collinear or coincident")
)

// Options controls the merge tolerance.
type Options struct {
	Divisor float32 // Diagonal is divided by this
	Floor   float32 // Minimum tolerance in object units
}

// DefaultOptions returns the tolerance settings used for collision hulls.
func DefaultOptions() Options {
	return Options{Divisor: 25, Floor: 1.5}
}

// Tolerance returns the merge distance for a point set with the given
// bounding box diagonal.
func (o Options) Tolerance(diagonal float32) float32 {
	divisor := o.Divisor
	if divisor <= 0 {
		divisor = DefaultOptions().Divisor
	}
	return max(diagonal/divisor, o.Floor)
}

// Hull is a closed convex triangle mesh. Faces wind counter-clockwise
// seen from outside.
type Hull struct {
	Vertices  []mgl32.Vec3
	Faces     [][3]int
	Tolerance float32
}

func widen(p mgl32.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{float64(p[0]), float64(p[1]), float64(p[2])}
}

func narrow(p mgl64.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{float32(p[0]), float32(p[1]), float32(p[2])}
}

type face struct {
	v       [3]int
	normal  mgl64.Vec3
	offset  float64
	outside []int
	alive   bool
}

func (f *face) distance(p mgl64.Vec3) float64 {
	return f.normal.Dot(p) - f.offset
}

type builder struct {
	pts   []mgl64.Vec3
	faces []*face
	tol   float64
	eps   float64
}

func (b *builder) newFace(i, j, k int) *face {
	n := b.pts[j].Sub(b.pts[i]).Cross(b.pts[k].Sub(b.pts[i]))
	if l := n.Len(); l > 0 {
		n = n.Mul(1 / l)
	}
	f := &face{v: [3]int{i, j, k}, normal: n, offset: n.Dot(b.pts[i]), alive: true}
	b.faces = append(b.faces, f)
	return f
}

// Build computes the convex hull of points.
func Build(points []mgl32.Vec3, opts Options) (*Hull, error) {
	if len(points) < 4 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewPoints, len(points))
	}

	b := &builder{pts: make([]mgl64.Vec3, len(points))}
	lo := mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi := mgl64.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for i, p := range points {
		v := widen(p)
		b.pts[i] = v
		for a := 0; a < 3; a++ {
			lo[a] = math.Min(lo[a], v[a])
			hi[a] = math.Max(hi[a], v[a])
		}
	}
	diag := hi.Sub(lo).Len()
	tol := opts.Tolerance(float32(diag))
	b.tol = float64(tol)
	b.eps = 1e-6 * diag
	if diag == 0 || math.IsNaN(diag) || math.IsInf(diag, 0) {
		return nil, ErrDegenerate
	}

	simplex, err := b.initialSimplex()
	if err != nil {
		return nil, err
	}
	b.assign(b.faces, allExcept(len(b.pts), simplex))
	b.expand()

	return b.result(tol), nil
}

func allExcept(n int, skip [4]int) []int {
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if i != skip[0] && i != skip[1] && i != skip[2] && i != skip[3] {
			out = append(out, i)
		}
	}
	return out
}

// initialSimplex picks four well-spread points and creates an outward
// facing tetrahedron from them.
func (b *builder) initialSimplex() ([4]int, error) {
	var s [4]int

	// Most distant pair among the axis extremes
	var extremes []int
	for a := 0; a < 3; a++ {
		minI, maxI := 0, 0
		for i, p := range b.pts {
			if p[a] < b.pts[minI][a] {
				minI = i
			}
			if p[a] > b.pts[maxI][a] {
				maxI = i
			}
		}
		extremes = append(extremes, minI, maxI)
	}
	best := -1.0
	for i := 0; i < len(extremes); i++ {
		for j := i + 1; j < len(extremes); j++ {
			if d := b.pts[extremes[i]].Sub(b.pts[extremes[j]]).Len(); d > best {
				best = d
				s[0], s[1] = extremes[i], extremes[j]
			}
		}
	}
	if best <= b.eps {
		return s, fmt.Errorf("%w: coincident", ErrDegenerate)
	}

	// Farthest from the line
	dir := b.pts[s[1]].Sub(b.pts[s[0]]).Mul(1 / best)
	best = -1
	for i, p := range b.pts {
		if d := p.Sub(b.pts[s[0]]).Cross(dir).Len(); d > best {
			best = d
			s[2] = i
		}
	}
	if best <= b.eps {
		return s, fmt.Errorf("%w: collinear", ErrDegenerate)
	}

	// Farthest from the plane
	n := b.pts[s[1]].Sub(b.pts[s[0]]).Cross(b.pts[s[2]].Sub(b.pts[s[0]]))
	n = n.Mul(1 / n.Len())
	best = -1
	for i, p := range b.pts {
		if d := math.Abs(p.Sub(b.pts[s[0]]).Dot(n)); d > best {
			best = d
			s[3] = i
		}
	}
	if best <= b.eps {
		return s, fmt.Errorf("%w: coplanar", ErrDegenerate)
	}

	centroid := b.pts[s[0]].Add(b.pts[s[1]]).Add(b.pts[s[2]]).Add(b.pts[s[3]]).Mul(0.25)
	for _, tri := range [4][3]int{{0, 1, 2}, {0, 3, 1}, {0, 2, 3}, {1, 3, 2}} {
		i, j, k := s[tri[0]], s[tri[1]], s[tri[2]]
		f := b.newFace(i, j, k)
		if f.distance(centroid) > 0 {
			f.v[1], f.v[2] = f.v[2], f.v[1]
			f.normal = f.normal.Mul(-1)
			f.offset = -f.offset
		}
	}
	return s, nil
}

// assign moves each point onto the outside set of the face it is farthest
// above. Points within tolerance of every face are dropped.
func (b *builder) assign(faces []*face, points []int) {
	for _, i := range points {
		var owner *face
		best := b.tol
		for _, f := range faces {
			if !f.alive {
				continue
			}
			if d := f.distance(b.pts[i]); d > best {
				best = d
				owner = f
			}
		}
		if owner != nil {
			owner.outside = append(owner.outside, i)
		}
	}
}

func (b *builder) expand() {
	for {
		var cur *face
		for _, f := range b.faces {
			if f.alive && len(f.outside) > 0 {
				cur = f
				break
			}
		}
		if cur == nil {
			return
		}

		eye := cur.outside[0]
		far := cur.distance(b.pts[eye])
		for _, i := range cur.outside[1:] {
			if d := cur.distance(b.pts[i]); d > far {
				far = d
				eye = i
			}
		}
		p := b.pts[eye]

		var visible []*face
		edges := make(map[[2]int]bool)
		for _, f := range b.faces {
			if f.alive && f.distance(p) > b.eps {
				visible = append(visible, f)
				for e := 0; e < 3; e++ {
					edges[[2]int{f.v[e], f.v[(e+1)%3]}] = true
				}
			}
		}

		var orphans []int
		for _, f := range visible {
			f.alive = false
			for _, i := range f.outside {
				if i != eye {
					orphans = append(orphans, i)
				}
			}
			f.outside = nil
		}

		// Horizon edges keep their winding; the new face closes them at the eye
		var created []*face
		for _, f := range visible {
			for e := 0; e < 3; e++ {
				a, c := f.v[e], f.v[(e+1)%3]
				if edges[[2]int{c, a}] {
					continue
				}
				created = append(created, b.newFace(a, c, eye))
			}
		}
		b.assign(created, orphans)
	}
}

func (b *builder) result(tol float32) *Hull {
	h := &Hull{Tolerance: tol}
	remap := make(map[int]int)
	for _, f := range b.faces {
		if !f.alive {
			continue
		}
		var tri [3]int
		for k, i := range f.v {
			idx, ok := remap[i]
			if !ok {
				idx = len(h.Vertices)
				remap[i] = idx
				h.Vertices = append(h.Vertices, narrow(b.pts[i]))
			}
			tri[k] = idx
		}
		h.Faces = append(h.Faces, tri)
	}
	return h
}

// Plane returns the outward unit normal and offset of face i.
func (h *Hull) Plane(i int) (normal mgl32.Vec3, offset float32) {
	f := h.Faces[i]
	a, b, c := h.Vertices[f[0]], h.Vertices[f[1]], h.Vertices[f[2]]
	n := b.Sub(a).Cross(c.Sub(a))
	if l := n.Len(); l > 0 {
		n = n.Mul(1 / l)
	}
	return n, n.Dot(a)
}

// Contains reports whether p lies inside the hull or within slack of it.
func (h *Hull) Contains(p mgl32.Vec3, slack float32) bool {
	for i := range h.Faces {
		n, d := h.Plane(i)
		if n.Dot(p)-d > slack {
			return false
		}
	}
	return true
}

// Volume returns the enclosed volume.
func (h *Hull) Volume() float32 {
	var v float64
	for _, f := range h.Faces {
		a, b, c := h.Vertices[f[0]], h.Vertices[f[1]], h.Vertices[f[2]]
		v += float64(a.Dot(b.Cross(c)))
	}
	return float32(v / 6)
}
