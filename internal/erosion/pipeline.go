// Package erosion moves mesh vertices according to the corrosion field and
// rebuilds the derived geometry off the main tick.
//
// A pass has two phases. Displacement samples a snapshot of the field at
// every vertex and pulls the vertex towards the erosion target. The build
// phase recomputes normals and bounds, flattens the collision proxy and
// builds the convex hull. The finished mesh, proxy and hull are published
// together in a single pending cell; the main tick swaps them in before
// rendering. A failed pass publishes nothing.
package erosion

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/rustsim/internal/config"
	"github.com/Faultbox/rustsim/internal/field"
	"github.com/Faultbox/rustsim/internal/hull"
	"github.com/Faultbox/rustsim/internal/jobs"
	"github.com/Faultbox/rustsim/internal/logger"
	"github.com/Faultbox/rustsim/internal/mesh"
)

var (
	ErrBusy     = errors.New("erosion: pass in flight or result pending")
	ErrNotReady = errors.New("erosion: no mesh or field to erode")
)

// State is the pipeline's position in a pass.
type State int32

const (
	Idle State = iota
	ComputingDisplacement
	BuildingMesh
	PendingSwap
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case ComputingDisplacement:
		return "computing displacement"
	case BuildingMesh:
		return "building mesh"
	case PendingSwap:
		return "pending swap"
	}
	return "unknown"
}

// Result is the geometry produced by one successful pass.
type Result struct {
	Mesh  mesh.Mesh
	Proxy mesh.Proxy
	Hull  *hull.Hull
	Pass  uint64
}

// Request is the input of a pass, read on the main tick by Start.
type Request struct {
	Mesh         *mesh.Mesh
	Field        *field.Field
	VolumeBounds mesh.Bounds // Object-space box the field is mapped over
	Target       mgl32.Vec3  // Object-space point vertices erode towards
}

// HullBuilder builds the collision hull of the eroded vertices.
type HullBuilder func(points []mgl32.Vec3, opts hull.Options) (*hull.Hull, error)

// Options configures a pipeline.
type Options struct {
	Strength  float32
	Async     bool
	Pool      *jobs.Pool // Required when Async is set
	Hull      hull.Options
	BuildHull HullBuilder
}

// OptionsFromConfig builds pipeline options from the erosion config.
func OptionsFromConfig(cfg config.ErosionConfig, pool *jobs.Pool) Options {
	return Options{
		Strength: cfg.Strength,
		Async:    cfg.Async && pool != nil,
		Pool:     pool,
		Hull: hull.Options{
			Divisor: cfg.HullDivisor,
			Floor:   cfg.HullFloor,
		},
		BuildHull: hull.Build,
	}
}

// Pipeline runs erosion passes for one object. Start and TakePending must
// be called from the main tick.
type Pipeline struct {
	name string
	opts Options
	log  *zap.Logger

	state atomic.Int32

	mu      sync.Mutex
	pending *Result

	passes   atomic.Uint64
	failures atomic.Uint64
}

// New creates an idle pipeline. name is used in logs.
func New(name string, opts Options) *Pipeline {
	if opts.BuildHull == nil {
		opts.BuildHull = hull.Build
	}
	if opts.Pool == nil {
		opts.Async = false
	}
	return &Pipeline{
		name: name,
		opts: opts,
		log:  logger.Named("erosion").With(zap.String("object", name)),
	}
}

// State returns the current state.
func (p *Pipeline) State() State {
	return State(p.state.Load())
}

// Passes returns how many passes were started.
func (p *Pipeline) Passes() uint64 {
	return p.passes.Load()
}

// Failures returns how many passes were abandoned.
func (p *Pipeline) Failures() uint64 {
	return p.failures.Load()
}

// Start snapshots the request and runs a pass, on the pool when async.
// It never blocks: it returns ErrBusy unless the pipeline is idle, and an
// error wrapping both ErrBusy and jobs.ErrQueueFull when the pool has no
// room, leaving the pipeline idle.
func (p *Pipeline) Start(req Request) error {
	if !p.state.CompareAndSwap(int32(Idle), int32(ComputingDisplacement)) {
		return ErrBusy
	}
	if req.Mesh == nil || req.Field == nil || !req.Field.Ready() {
		p.state.Store(int32(Idle))
		return ErrNotReady
	}

	pass := p.passes.Load() + 1
	work := req.Mesh.Clone()
	snap := req.Field.Snapshot()
	bounds, target := req.VolumeBounds, req.Target

	task := jobs.Task{
		Name: fmt.Sprintf("erode %s #%d", p.name, pass),
		Run: func() error {
			return p.run(pass, &work, snap, bounds, target)
		},
		OnFailure: func(err error) {
			p.fail(pass, err)
		},
	}

	if p.opts.Async {
		switch err := p.opts.Pool.TrySubmit(task); {
		case errors.Is(err, jobs.ErrQueueFull):
			// Nothing was queued; the next turn retries
			p.state.Store(int32(Idle))
			return fmt.Errorf("%w: %w", ErrBusy, err)
		case err != nil:
			p.fail(pass, err)
			return err
		}
		p.passes.Add(1)
		return nil
	}

	p.passes.Add(1)
	// Failures are already recorded by OnFailure
	_ = jobs.Execute(task)
	return nil
}

func (p *Pipeline) run(pass uint64, work *mesh.Mesh, snap *field.Buffer, bounds mesh.Bounds, target mgl32.Vec3) error {
	moved := Displace(work, snap, bounds, target, p.opts.Strength)

	p.state.Store(int32(BuildingMesh))
	mesh.RecomputeNormals(work)
	work.UpdateBounds()
	proxy := mesh.Flatten(work)

	h, err := p.opts.BuildHull(work.Positions(), p.opts.Hull)
	if err != nil {
		return fmt.Errorf("build hull: %w", err)
	}

	p.mu.Lock()
	p.pending = &Result{Mesh: *work, Proxy: proxy, Hull: h, Pass: pass}
	p.state.Store(int32(PendingSwap))
	p.mu.Unlock()

	p.log.Debug("erosion pass ready",
		zap.Uint64("pass", pass),
		zap.Int("moved", moved),
		zap.Int("hull_vertices", len(h.Vertices)))
	return nil
}

func (p *Pipeline) fail(pass uint64, err error) {
	p.failures.Add(1)
	p.log.Warn("erosion pass abandoned", zap.Uint64("pass", pass), zap.Error(err))
	p.state.Store(int32(Idle))
}

// TakePending returns the finished result and returns the pipeline to
// Idle, or nil when nothing is pending.
func (p *Pipeline) TakePending() *Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	r := p.pending
	if r == nil {
		return nil
	}
	p.pending = nil
	p.state.Store(int32(Idle))
	return r
}
