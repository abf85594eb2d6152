package field

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/rustsim/internal/ambient"
	"github.com/Faultbox/rustsim/internal/config"
	"github.com/Faultbox/rustsim/internal/mathx"
)

// Params are the kernel rates applied per Step. All rates are per step,
// not per second.
type Params struct {
	DiffusionRate   float32    // Moisture exchange with the 6 neighbours
	EvaporationRate float32    // Moisture loss, scaled by (1 - ambient moisture)
	DripRate        float32    // Moisture pulled from the voxel above (against gravity)
	GrowthRate      float32    // Corrosion growth per unit oxygen*moisture
	SpreadRate      float32    // Corrosion bleed into cleaner neighbours (soft rust)
	DamageRate      float32    // Integrity loss per unit corrosion
	Gravity         mgl32.Vec3 // World-space down
	SoftRust        bool
}

// DefaultParams returns the kernel rates used by the default config.
func DefaultParams() Params {
	return Params{
		DiffusionRate:   0.1,
		EvaporationRate: 0.01,
		DripRate:        0.05,
		GrowthRate:      0.02,
		SpreadRate:      0.05,
		DamageRate:      0.005,
		Gravity:         mgl32.Vec3{0, -1, 0},
		SoftRust:        true,
	}
}

// ParamsFromConfig builds kernel rates from the field config.
func ParamsFromConfig(cfg config.FieldConfig, softRust bool) Params {
	return Params{
		DiffusionRate:   cfg.DiffusionRate,
		EvaporationRate: cfg.EvaporationRate,
		DripRate:        cfg.DripRate,
		GrowthRate:      cfg.GrowthRate,
		SpreadRate:      cfg.SpreadRate,
		DamageRate:      cfg.DamageRate,
		Gravity:         mgl32.Vec3(cfg.Gravity),
		SoftRust:        softRust,
	}
}

// dripStencil is gravity resolved into grid axes: for each axis the
// offset of the upstream voxel and its weight.
type dripStencil struct {
	offset [3]int
	weight [3]float32
}

func newDripStencil(worldToObject mgl32.Mat4, gravity mgl32.Vec3) dripStencil {
	g := mathx.SafeNormalize(worldToObject.Mul4x1(gravity.Vec4(0)).Vec3())

	var s dripStencil
	var sum float32
	for a := 0; a < 3; a++ {
		s.offset[a] = -mathx.Sign(g[a])
		w := g[a]
		if w < 0 {
			w = -w
		}
		s.weight[a] = w
		sum += w
	}
	if sum > 0 {
		for a := range s.weight {
			s.weight[a] /= sum
		}
	}
	return s
}

// Step advances the simulation by one step.
//
// The current buffer is first copied into scratch; the kernel then reads
// scratch and writes current. worldToObject is the inverse of the
// object's object-to-world transform; it resolves world gravity into grid
// space so drips run downhill however the object is oriented.
func (f *Field) Step(worldToObject mgl32.Mat4, levels ambient.Levels, p Params) {
	if !f.Ready() {
		return
	}

	copyKernel(f.scratch, f.current)

	src, dst := f.scratch, f.current
	n := f.size
	drip := newDripStencil(worldToObject, p.Gravity)
	dry := p.EvaporationRate * (1 - mathx.Saturate(levels.Moisture))
	oxygen := mathx.Saturate(levels.Oxygen)

	for z := 0; z < n; z++ {
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				i := src.index(x, y, z)
				c, m, d := src.data[i], src.data[i+1], src.data[i+2]

				var cSum, mSum float32
				for _, o := range neighbours {
					j := src.index(src.clampCoord(x+o[0]), src.clampCoord(y+o[1]), src.clampCoord(z+o[2]))
					cSum += src.data[j]
					mSum += src.data[j+1]
				}
				cAvg, mAvg := cSum/6, mSum/6

				var mUp float32
				for a := 0; a < 3; a++ {
					if drip.weight[a] == 0 {
						continue
					}
					ux, uy, uz := x, y, z
					switch a {
					case 0:
						ux += drip.offset[0]
					case 1:
						uy += drip.offset[1]
					case 2:
						uz += drip.offset[2]
					}
					j := src.index(src.clampCoord(ux), src.clampCoord(uy), src.clampCoord(uz))
					mUp += drip.weight[a] * src.data[j+1]
				}
				if drip.weight == [3]float32{} {
					mUp = m
				}

				m += p.DiffusionRate*(mAvg-m) + p.DripRate*(mUp-m) - dry*m
				m = mathx.Saturate(m)

				c += p.GrowthRate * oxygen * m * (1 - c)
				if p.SoftRust && cAvg > c {
					c += p.SpreadRate * (cAvg - c)
				}
				c = mathx.Saturate(c)

				d = mathx.Saturate(d + p.DamageRate*c)

				dst.data[i] = c
				dst.data[i+1] = m
				dst.data[i+2] = d
			}
		}
	}
}

var neighbours = [6][3]int{
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
}
