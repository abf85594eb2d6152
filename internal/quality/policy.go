// Package quality holds the runtime quality policy polled by the tick loop.
package quality

import (
	"sync/atomic"

	"github.com/Faultbox/rustsim/internal/config"
)

// Policy exposes the current volumetric resolution and per-frame object
// update throughput. Setters may be called from any goroutine (the file
// watcher), getters are polled once per tick.
type Policy struct {
	resolution atomic.Int32
	throughput atomic.Int32
	softRust   atomic.Bool
	revision   atomic.Uint64
}

// NewPolicy creates a policy from the quality section of the config.
func NewPolicy(cfg config.QualityConfig) *Policy {
	p := &Policy{}
	p.Apply(cfg)
	return p
}

// Apply replaces every field of the policy. Invalid values are clamped:
// throughput never drops below 1 and resolution never below 0.
func (p *Policy) Apply(cfg config.QualityConfig) {
	p.resolution.Store(int32(max(cfg.VolumeResolution, 0)))
	p.throughput.Store(int32(max(cfg.ObjectUpdatesPerFrame, 1)))
	p.softRust.Store(cfg.SoftRust)
	p.revision.Add(1)
}

// Resolution returns the volume side length. 0 means uninitialized.
func (p *Policy) Resolution() int {
	return int(p.resolution.Load())
}

// Throughput returns how many objects may update per frame.
func (p *Policy) Throughput() int {
	return int(p.throughput.Load())
}

// SoftRust reports whether corrosion spreads into neighbouring voxels.
func (p *Policy) SoftRust() bool {
	return p.softRust.Load()
}

// SetResolution changes the volume resolution.
func (p *Policy) SetResolution(n int) {
	p.resolution.Store(int32(max(n, 0)))
	p.revision.Add(1)
}

// SetThroughput changes the per-frame update budget.
func (p *Policy) SetThroughput(n int) {
	p.throughput.Store(int32(max(n, 1)))
	p.revision.Add(1)
}

// Revision increments on every change.
func (p *Policy) Revision() uint64 {
	return p.revision.Load()
}
