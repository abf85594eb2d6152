// Package palette colours mesh vertices from the corrosion field for the
// debug and pretty rendering modes.
package palette

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/Faultbox/rustsim/internal/config"
	"github.com/Faultbox/rustsim/internal/field"
	"github.com/Faultbox/rustsim/internal/mathx"
	"github.com/Faultbox/rustsim/internal/mesh"
)

// Mode selects a colouring.
type Mode int

const (
	Debug Mode = iota
	Pretty
)

// ParseMode maps the rendering config string to a Mode. Anything other
// than "pretty" is Debug.
func ParseMode(s string) Mode {
	if s == config.RenderingPretty {
		return Pretty
	}
	return Debug
}

func (m Mode) String() string {
	if m == Pretty {
		return config.RenderingPretty
	}
	return config.RenderingDebug
}

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Heat keyframes for the debug view: clean is blue, fully corroded is red
var heat = []colorful.Color{
	mustHex("#4169e1"),
	mustHex("#00ced1"),
	mustHex("#228b22"),
	mustHex("#ffd700"),
	mustHex("#ff4500"),
	mustHex("#8b0000"),
}

var (
	steel   = mustHex("#8a9097")
	rust    = mustHex("#8b3a0f")
	scale   = mustHex("#3b1d0c") // Heavy flaking
	wetTint = mustHex("#2c3e50")
)

// Heat returns the debug gradient colour for t in [0,1].
func Heat(t float32) colorful.Color {
	t = mathx.Saturate(t)
	segments := float32(len(heat) - 1)
	pos := t * segments
	i := int(pos)
	if i >= len(heat)-1 {
		return heat[len(heat)-1]
	}
	return heat[i].BlendLab(heat[i+1], float64(pos-float32(i))).Clamped()
}

// Color returns the colour of one field sample.
func Color(s field.Sample, mode Mode) colorful.Color {
	if mode == Debug {
		// Damage shows through corrosion so crowbar hits stand out
		return Heat(max(s.Corrosion, s.Damage))
	}

	c := steel.BlendLab(rust, float64(mathx.Saturate(s.Corrosion)))
	c = c.BlendLab(scale, float64(mathx.Saturate(s.Damage)))
	c = c.BlendRgb(wetTint, float64(mathx.Saturate(s.Moisture))*0.3)
	return c.Clamped()
}

// VertexColors samples the field at every vertex of m. bounds is the box
// the field is mapped over.
func VertexColors(m *mesh.Mesh, f *field.Field, bounds mesh.Bounds, mode Mode) []colorful.Color {
	out := make([]colorful.Color, len(m.Vertices))
	for i := range m.Vertices {
		uvw := mathx.SaturateVec(bounds.Normalize(m.Vertices[i].Position))
		out[i] = Color(f.Sample(uvw), mode)
	}
	return out
}

// RGBA converts a colour to float components for vertex buffers.
func RGBA(c colorful.Color) mgl32.Vec4 {
	return mgl32.Vec4{float32(c.R), float32(c.G), float32(c.B), 1}
}
