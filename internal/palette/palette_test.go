package palette

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/rustsim/internal/field"
	"github.com/Faultbox/rustsim/internal/mesh"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"debug", Debug},
		{"pretty", Pretty},
		{"", Debug},
		{"neon", Debug},
	}
	for _, tt := range tests {
		if got := ParseMode(tt.in); got != tt.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestHeatEndpoints(t *testing.T) {
	if got := Heat(0); got.DistanceLab(heat[0]) > 1e-6 {
		t.Errorf("Heat(0) = %v, want %v", got.Hex(), heat[0].Hex())
	}
	if got := Heat(1); got.DistanceLab(heat[len(heat)-1]) > 1e-6 {
		t.Errorf("Heat(1) = %v, want %v", got.Hex(), heat[len(heat)-1].Hex())
	}
	if Heat(-3) != Heat(0) || Heat(7) != Heat(1) {
		t.Error("Heat should clamp its input")
	}
}

func TestPrettyDarkensWithRust(t *testing.T) {
	clean := Color(field.Sample{}, Pretty)
	rusty := Color(field.Sample{Corrosion: 1}, Pretty)

	if clean.DistanceLab(steel) > 1e-6 {
		t.Errorf("clean metal = %v, want steel %v", clean.Hex(), steel.Hex())
	}
	if rusty.DistanceLab(rust) > 1e-6 {
		t.Errorf("rusty metal = %v, want rust %v", rusty.Hex(), rust.Hex())
	}

	_, _, lClean := clean.Hcl()
	_, _, lRust := rusty.Hcl()
	if lRust >= lClean {
		t.Errorf("rust luminance %v should be below steel %v", lRust, lClean)
	}
}

func TestModesDiffer(t *testing.T) {
	s := field.Sample{Corrosion: 0.6, Moisture: 0.2, Damage: 0.1}
	if Color(s, Debug).DistanceLab(Color(s, Pretty)) < 0.01 {
		t.Error("debug and pretty colours should differ")
	}
}

func TestVertexColors(t *testing.T) {
	m := mesh.Box(mgl32.Vec3{1, 1, 1})
	f := field.New(4)
	f.Set(3, 3, 3, field.Sample{Corrosion: 1})

	colors := VertexColors(&m, f, m.Bounds, Debug)
	if len(colors) != len(m.Vertices) {
		t.Fatalf("%d colours for %d vertices", len(colors), len(m.Vertices))
	}

	var hot, cold int
	for i, v := range m.Vertices {
		if v.Position == (mgl32.Vec3{1, 1, 1}) {
			if colors[i].DistanceLab(heat[len(heat)-1]) > 1e-6 {
				t.Errorf("corroded corner coloured %v", colors[i].Hex())
			}
			hot++
		}
		if v.Position == (mgl32.Vec3{-1, -1, -1}) {
			if colors[i].DistanceLab(heat[0]) > 1e-6 {
				t.Errorf("clean corner coloured %v", colors[i].Hex())
			}
			cold++
		}
	}
	if hot == 0 || cold == 0 {
		t.Fatal("box corners not found")
	}

	rgba := RGBA(colors[0])
	if rgba[3] != 1 {
		t.Errorf("alpha = %v, want 1", rgba[3])
	}
}
