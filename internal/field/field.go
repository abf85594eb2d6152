// Package field implements the double-buffered volumetric corrosion state
// of a single object.
//
// A Field is a cubic grid of side N holding three channels per voxel:
// corrosion, moisture and damage. Damage is lost structural integrity, so
// a freshly allocated (zeroed) field is clean, dry, intact metal. All
// channels stay in [0,1].
//
// Two buffers exist at all times once N > 0. The current buffer is what
// readers and stamps see; the scratch buffer receives a copy of it at the
// start of each Step and is the kernel's read source. N == 0 is the
// uninitialized state in which every operation is a no-op.
package field

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Channel selects one of the per-voxel values.
type Channel int

const (
	Corrosion Channel = iota
	Moisture
	Damage

	channelCount = 3
)

// DefaultResolution is the side length used when nothing else is configured.
const DefaultResolution = 64

// Sample is the value of all channels at one point.
type Sample struct {
	Corrosion float32
	Moisture  float32
	Damage    float32
}

// Integrity returns the remaining structural integrity.
func (s Sample) Integrity() float32 {
	return 1 - s.Damage
}

// Buffer is one 3D grid with interleaved channels.
type Buffer struct {
	size int
	data []float32
}

func newBuffer(n int) *Buffer {
	return &Buffer{size: n, data: make([]float32, n*n*n*channelCount)}
}

// Size returns the side length.
func (b *Buffer) Size() int {
	return b.size
}

func (b *Buffer) index(x, y, z int) int {
	return ((z*b.size+y)*b.size + x) * channelCount
}

// At returns the voxel at integer coordinates, clamped to the grid.
func (b *Buffer) At(x, y, z int) Sample {
	if b == nil || b.size == 0 {
		return Sample{}
	}
	x, y, z = b.clampCoord(x), b.clampCoord(y), b.clampCoord(z)
	i := b.index(x, y, z)
	return Sample{Corrosion: b.data[i], Moisture: b.data[i+1], Damage: b.data[i+2]}
}

func (b *Buffer) clampCoord(c int) int {
	if c < 0 {
		return 0
	}
	if c >= b.size {
		return b.size - 1
	}
	return c
}

// Sample reads the grid at normalized coordinates uvw in [0,1]^3 with
// trilinear filtering between voxel centers.
func (b *Buffer) Sample(uvw mgl32.Vec3) Sample {
	if b == nil || b.size == 0 {
		return Sample{}
	}

	n := float32(b.size)
	fx, fy, fz := uvw[0]*n-0.5, uvw[1]*n-0.5, uvw[2]*n-0.5
	x0, y0, z0 := floor(fx), floor(fy), floor(fz)
	tx, ty, tz := fx-float32(x0), fy-float32(y0), fz-float32(z0)

	var out [channelCount]float32
	for dz := 0; dz <= 1; dz++ {
		wz := lerpWeight(tz, dz)
		for dy := 0; dy <= 1; dy++ {
			wy := lerpWeight(ty, dy)
			for dx := 0; dx <= 1; dx++ {
				w := lerpWeight(tx, dx) * wy * wz
				if w == 0 {
					continue
				}
				i := b.index(b.clampCoord(x0+dx), b.clampCoord(y0+dy), b.clampCoord(z0+dz))
				out[0] += w * b.data[i]
				out[1] += w * b.data[i+1]
				out[2] += w * b.data[i+2]
			}
		}
	}
	return Sample{Corrosion: out[0], Moisture: out[1], Damage: out[2]}
}

func floor(f float32) int {
	i := int(f)
	if f < float32(i) {
		i--
	}
	return i
}

func lerpWeight(t float32, side int) float32 {
	if side == 0 {
		return 1 - t
	}
	return t
}

// Clone returns an independent copy of b.
func (b *Buffer) Clone() *Buffer {
	if b == nil {
		return nil
	}
	c := newBuffer(b.size)
	copyKernel(c, b)
	return c
}

// copyKernel copies every element of src into dst. Both must have the same size.
func copyKernel(dst, src *Buffer) {
	for i, v := range src.data {
		dst.data[i] = v
	}
}

// Stats summarises a field.
type Stats struct {
	MeanCorrosion float32
	MeanMoisture  float32
	MeanDamage    float32
	MaxDamage     float32
}

// Field is the per-object ping-pong pair of buffers.
// It is owned and mutated by a single object on the main tick.
type Field struct {
	size       int
	current    *Buffer
	scratch    *Buffer
	generation uint64
}

// New creates a field with side n. n == 0 yields an uninitialized field.
func New(n int) *Field {
	f := &Field{}
	f.Resize(n)
	return f
}

// Resize disposes both buffers and allocates zeroed ones of side n.
// It returns false when n already matches. Every real resize bumps the
// generation so consumers holding buffer bindings know to rebind.
func (f *Field) Resize(n int) bool {
	n = max(n, 0)
	if n == f.size && (n == 0 || f.current != nil) {
		return false
	}

	f.current, f.scratch = nil, nil
	f.size = n
	if n > 0 {
		f.current = newBuffer(n)
		f.scratch = newBuffer(n)
	}
	f.generation++
	return true
}

// Release frees both buffers and returns the field to the uninitialized state.
func (f *Field) Release() {
	f.Resize(0)
}

// Resolution returns the side length, 0 when uninitialized.
func (f *Field) Resolution() int {
	return f.size
}

// Ready reports whether the field holds buffers.
func (f *Field) Ready() bool {
	return f.size > 0 && f.current != nil
}

// Generation changes every time the buffers are reallocated.
func (f *Field) Generation() uint64 {
	return f.generation
}

// Current returns the read-bound buffer. Callers must not keep it across
// a Resize.
func (f *Field) Current() *Buffer {
	return f.current
}

// Snapshot returns a copy of the current buffer for readers off the main tick.
func (f *Field) Snapshot() *Buffer {
	if !f.Ready() {
		return nil
	}
	return f.current.Clone()
}

// At returns the current value of a voxel.
func (f *Field) At(x, y, z int) Sample {
	if !f.Ready() {
		return Sample{}
	}
	return f.current.At(x, y, z)
}

// Set overwrites a voxel in the current buffer. Out-of-grid coordinates
// are ignored.
func (f *Field) Set(x, y, z int, s Sample) {
	if !f.Ready() || !f.inGrid(x, y, z) {
		return
	}
	i := f.current.index(x, y, z)
	f.current.data[i] = s.Corrosion
	f.current.data[i+1] = s.Moisture
	f.current.data[i+2] = s.Damage
}

// Sample reads the current buffer at normalized coordinates.
func (f *Field) Sample(uvw mgl32.Vec3) Sample {
	if !f.Ready() {
		return Sample{}
	}
	return f.current.Sample(uvw)
}

// Stats computes channel means over the current buffer.
func (f *Field) Stats() Stats {
	if !f.Ready() {
		return Stats{}
	}

	var s Stats
	var sc, sm, sd float64
	data := f.current.data
	for i := 0; i < len(data); i += channelCount {
		sc += float64(data[i])
		sm += float64(data[i+1])
		sd += float64(data[i+2])
		if data[i+2] > s.MaxDamage {
			s.MaxDamage = data[i+2]
		}
	}
	voxels := float64(len(data) / channelCount)
	s.MeanCorrosion = float32(sc / voxels)
	s.MeanMoisture = float32(sm / voxels)
	s.MeanDamage = float32(sd / voxels)
	return s
}

func (f *Field) inGrid(x, y, z int) bool {
	return x >= 0 && y >= 0 && z >= 0 && x < f.size && y < f.size && z < f.size
}
