package mesh

import (
	"errors"
	"fmt"
	"math"

	"github.com/Faultbox/rustsim/internal/mathx"
)

// ErrEdgeLength is returned for a non-positive target edge length.
var ErrEdgeLength = errors.New("mesh: max edge length must be positive")

// DensifyResult summarises one densification run.
type DensifyResult struct {
	Success                bool    // Every remaining edge is within the limit
	MaxRemainingEdgeLength float32 // Longest edge after the run
	AvgRemainingEdgeLength float32 // Mean over unique edges after the run
	NewTriangleCount       int
	Passes                 int
}

// StopReason tells why DensifyUntil returned.
type StopReason int

const (
	StopConverged StopReason = iota
	StopTriangleCap
	StopPassLimit
	StopVertexLimit
)

func (r StopReason) String() string {
	switch r {
	case StopConverged:
		return "converged"
	case StopTriangleCap:
		return "triangle cap"
	case StopPassLimit:
		return "pass limit"
	case StopVertexLimit:
		return "vertex limit"
	}
	return "unknown"
}

type edgeKey [2]uint32

func makeEdgeKey(a, b uint32) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// splitter holds the state of one densification pass.
type splitter struct {
	src       *Mesh
	vertices  []Vertex
	midpoints map[edgeKey]uint32
	maxSq     float32
	overflow  bool
}

func (s *splitter) long(a, b uint32) bool {
	d := s.src.Vertices[a].Position.Sub(s.src.Vertices[b].Position)
	return d.Dot(d) > s.maxSq
}

// midpoint returns the shared vertex in the middle of edge a-b, creating
// it on first use so both triangles on the edge agree.
func (s *splitter) midpoint(a, b uint32) uint32 {
	key := makeEdgeKey(a, b)
	if idx, ok := s.midpoints[key]; ok {
		return idx
	}
	if len(s.vertices) >= MaxVertices {
		s.overflow = true
		return a
	}

	va, vb := s.src.Vertices[key[0]], s.src.Vertices[key[1]]
	n := mathx.SafeNormalize(va.Normal.Add(vb.Normal))
	if n.Len() == 0 {
		n = va.Normal
	}
	t := mathx.SafeNormalize(va.Tangent.Add(vb.Tangent))
	if t.Len() == 0 {
		t = va.Tangent
	}

	idx := uint32(len(s.vertices))
	s.vertices = append(s.vertices, Vertex{
		Position: va.Position.Add(vb.Position).Mul(0.5),
		Normal:   n,
		Tangent:  t,
		TexCoord: va.TexCoord.Add(vb.TexCoord).Mul(0.5),
	})
	s.midpoints[key] = idx
	return idx
}

// Densify runs one pass splitting every edge longer than maxEdgeLength at
// its midpoint. Each triangle becomes 1, 2, 3 or 4 triangles depending on
// how many of its edges were split; winding is preserved. Midpoints are
// shared between the triangles on either side of an edge so a watertight
// input stays watertight.
func Densify(m Mesh, maxEdgeLength float32) (Mesh, DensifyResult, error) {
	if maxEdgeLength <= 0 {
		return m, DensifyResult{}, ErrEdgeLength
	}
	if err := m.Validate(); err != nil {
		return m, DensifyResult{}, fmt.Errorf("densify: %w", err)
	}

	s := &splitter{
		src:       &m,
		vertices:  append(make([]Vertex, 0, len(m.Vertices)*2), m.Vertices...),
		midpoints: make(map[edgeKey]uint32),
		maxSq:     maxEdgeLength * maxEdgeLength,
	}
	indices := make([]uint32, 0, len(m.Indices)*2)

	for t := 0; t < len(m.Indices); t += 3 {
		v := [3]uint32{m.Indices[t], m.Indices[t+1], m.Indices[t+2]}
		split := [3]bool{s.long(v[0], v[1]), s.long(v[1], v[2]), s.long(v[2], v[0])}

		count := 0
		for _, sp := range split {
			if sp {
				count++
			}
		}

		switch count {
		case 0:
			indices = append(indices, v[0], v[1], v[2])

		case 1:
			// Rotate so the split edge is v0-v1
			k := 0
			for !split[k] {
				k++
			}
			a, b, c := v[k], v[(k+1)%3], v[(k+2)%3]
			mab := s.midpoint(a, b)
			indices = append(indices,
				a, mab, c,
				mab, b, c,
			)

		case 2:
			// Rotate so the unsplit edge is v2-v0
			k := 0
			for split[k] {
				k++
			}
			a, b, c := v[(k+1)%3], v[(k+2)%3], v[k]
			mab, mbc := s.midpoint(a, b), s.midpoint(b, c)
			indices = append(indices,
				mab, b, mbc,
				a, mab, mbc,
				a, mbc, c,
			)

		case 3:
			a, b, c := v[0], v[1], v[2]
			mab, mbc, mca := s.midpoint(a, b), s.midpoint(b, c), s.midpoint(c, a)
			indices = append(indices,
				a, mab, mca,
				mab, b, mbc,
				mca, mbc, c,
				mab, mbc, mca,
			)
		}

		if s.overflow {
			return m, DensifyResult{}, fmt.Errorf("densify: %w: limit %d", ErrTooManyVertices, MaxVertices)
		}
	}

	out := Mesh{
		Vertices:  s.vertices,
		Indices:   indices,
		Materials: m.Materials,
	}
	out.UpdateBounds()

	res := measureEdges(&out, maxEdgeLength)
	res.Passes = 1
	return out, res, nil
}

// DensifyUntil repeats Densify until every edge fits, the next pass would
// exceed maxTriangles, or maxPasses passes have run. maxTriangles <= 0
// means no cap. The returned mesh never exceeds the cap or the vertex
// limit: a pass that would is discarded.
func DensifyUntil(m Mesh, maxEdgeLength float32, maxPasses, maxTriangles int) (Mesh, DensifyResult, StopReason, error) {
	if maxEdgeLength <= 0 {
		return m, DensifyResult{}, StopConverged, ErrEdgeLength
	}
	if err := m.Validate(); err != nil {
		return m, DensifyResult{}, StopConverged, fmt.Errorf("densify: %w", err)
	}

	res := measureEdges(&m, maxEdgeLength)
	for pass := 0; ; pass++ {
		if res.Success {
			return m, res, StopConverged, nil
		}
		if pass >= maxPasses {
			return m, res, StopPassLimit, nil
		}

		next, nextRes, err := Densify(m, maxEdgeLength)
		if errors.Is(err, ErrTooManyVertices) {
			return m, res, StopVertexLimit, nil
		}
		if err != nil {
			return m, res, StopConverged, err
		}
		if maxTriangles > 0 && nextRes.NewTriangleCount > maxTriangles {
			return m, res, StopTriangleCap, nil
		}

		nextRes.Passes = res.Passes + 1
		m, res = next, nextRes
	}
}

// measureEdges reports the edge statistics of m against the limit.
func measureEdges(m *Mesh, maxEdgeLength float32) DensifyResult {
	seen := make(map[edgeKey]struct{}, len(m.Indices))
	var longest float32
	var sum float64

	for t := 0; t+2 < len(m.Indices); t += 3 {
		for e := 0; e < 3; e++ {
			a, b := m.Indices[t+e], m.Indices[t+(e+1)%3]
			key := makeEdgeKey(a, b)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}

			l := m.Vertices[a].Position.Sub(m.Vertices[b].Position).Len()
			sum += float64(l)
			longest = float32(math.Max(float64(longest), float64(l)))
		}
	}

	res := DensifyResult{
		MaxRemainingEdgeLength: longest,
		NewTriangleCount:       m.TriangleCount(),
	}
	if len(seen) > 0 {
		res.AvgRemainingEdgeLength = float32(sum / float64(len(seen)))
	}
	res.Success = longest <= maxEdgeLength
	return res
}
