package sim

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/lucasb-eyer/go-colorful"
	"go.uber.org/zap"

	"github.com/Faultbox/rustsim/internal/ambient"
	"github.com/Faultbox/rustsim/internal/assets"
	"github.com/Faultbox/rustsim/internal/erosion"
	"github.com/Faultbox/rustsim/internal/field"
	"github.com/Faultbox/rustsim/internal/hull"
	"github.com/Faultbox/rustsim/internal/impact"
	"github.com/Faultbox/rustsim/internal/logger"
	"github.com/Faultbox/rustsim/internal/mesh"
	"github.com/Faultbox/rustsim/internal/palette"
	"github.com/Faultbox/rustsim/internal/scheduler"
)

// ErrNoLibrary is returned when a template object is enabled in a world
// without a mesh library.
var ErrNoLibrary = errors.New("sim: world has no mesh library")

// Object is one corroding instance. Apart from StoreImpact, every method
// must be called from the main tick.
type Object struct {
	id   uuid.UUID
	name string
	log  *zap.Logger

	toWorld  mgl32.Mat4
	toObject mgl32.Mat4

	source   mesh.Mesh // As supplied, densified on Enable
	template string    // Library template used instead of source when set

	mesh   mesh.Mesh
	proxy  mesh.Proxy
	hull   *hull.Hull
	volume mesh.Bounds // Object-space box the field covers

	target       mgl32.Vec3
	customTarget bool
	forced       bool // Forced erosion not yet started

	field    *field.Field
	impacts  impact.Queue
	pipeline *erosion.Pipeline

	world  *World
	handle scheduler.Handle

	steps    uint64
	erosions uint64
	applied  uint64
}

// NewObject creates a disabled object from a mesh placed by transform.
func NewObject(name string, m mesh.Mesh, transform mgl32.Mat4) *Object {
	id := uuid.New()
	if name == "" {
		name = id.String()[:8]
	}
	o := &Object{
		id:     id,
		name:   name,
		log:    logger.Named("sim").With(zap.String("object", name)),
		source: m,
	}
	o.SetTransform(transform)
	return o
}

// NewTemplateObject creates a disabled object whose mesh is taken from
// the world's library on Enable.
func NewTemplateObject(name, template string, transform mgl32.Mat4) *Object {
	o := NewObject(name, mesh.Mesh{}, transform)
	o.template = template
	return o
}

// ID returns the object's identity.
func (o *Object) ID() uuid.UUID { return o.id }

// Name returns the display name.
func (o *Object) Name() string { return o.name }

// Enabled reports whether the object is registered with a world.
func (o *Object) Enabled() bool { return o.world != nil }

// Transform returns the object-to-world matrix.
func (o *Object) Transform() mgl32.Mat4 { return o.toWorld }

// SetTransform places the object in the world.
func (o *Object) SetTransform(m mgl32.Mat4) {
	o.toWorld = m
	o.toObject = m.Inv()
}

// WorldToObject returns the inverse transform.
func (o *Object) WorldToObject() mgl32.Mat4 { return o.toObject }

// SetErosionTarget overrides the object-space point vertices erode
// towards. The default is the mesh centre.
func (o *Object) SetErosionTarget(p mgl32.Vec3) {
	o.target = p
	o.customTarget = true
}

// ErosionTarget returns the current erosion target.
func (o *Object) ErosionTarget() mgl32.Vec3 { return o.target }

// Mesh returns the live working mesh. Callers must not modify it.
func (o *Object) Mesh() *mesh.Mesh { return &o.mesh }

// Proxy returns the live flattened triangle list.
func (o *Object) Proxy() mesh.Proxy { return o.proxy }

// Hull returns the live collision hull, or nil.
func (o *Object) Hull() *hull.Hull { return o.hull }

// Bounds returns the object-space box the field is mapped over.
func (o *Object) Bounds() mesh.Bounds { return o.volume }

// Field returns the object's volumetric field, nil while disabled.
func (o *Object) Field() *field.Field { return o.field }

// ErosionState returns the pipeline state.
func (o *Object) ErosionState() erosion.State {
	if o.pipeline == nil {
		return erosion.Idle
	}
	return o.pipeline.State()
}

// Steps returns how many field steps ran.
func (o *Object) Steps() uint64 { return o.steps }

// Erosions returns how many erosion results were swapped in.
func (o *Object) Erosions() uint64 { return o.erosions }

// ImpactsApplied returns how many impacts reached the field.
func (o *Object) ImpactsApplied() uint64 { return o.applied }

// ErosionFailures returns how many erosion passes were abandoned.
func (o *Object) ErosionFailures() uint64 {
	if o.pipeline == nil {
		return 0
	}
	return o.pipeline.Failures()
}

func (o *Object) geometry() Geometry {
	return Geometry{Mesh: &o.mesh, Proxy: o.proxy, Hull: o.hull}
}

// Enable prepares the object's resources and registers it with w.
// Configuration errors leave the object disabled and are returned.
func (o *Object) Enable(w *World) error {
	if o.world != nil {
		return nil
	}

	m, err := o.workingMesh(w)
	if err != nil {
		o.log.Error("object disabled", zap.Error(err))
		return fmt.Errorf("enable %s: %w", o.name, err)
	}

	o.mesh = m
	o.proxy = mesh.Flatten(&o.mesh)
	o.volume = o.mesh.Bounds
	if !o.customTarget {
		o.target = o.volume.Center()
	}

	opts := erosion.OptionsFromConfig(w.cfg.Erosion, w.pool)
	h, err := hull.Build(o.mesh.Positions(), opts.Hull)
	if err != nil {
		o.log.Warn("no initial hull", zap.Error(err))
		h = nil
	}
	o.hull = h

	o.field = field.New(w.policy.Resolution())
	o.pipeline = erosion.New(o.name, opts)
	o.handle = w.sched.Register()
	o.world = w
	w.objects = append(w.objects, o)

	w.host.Commit(o.id, o.geometry())
	w.host.BindField(o.id, o.field)

	o.log.Info("object enabled",
		zap.String("id", o.id.String()),
		zap.Int("vertices", len(o.mesh.Vertices)),
		zap.Int("resolution", o.field.Resolution()))
	return nil
}

// workingMesh validates and densifies the object's mesh, through the
// library cache for template objects.
func (o *Object) workingMesh(w *World) (mesh.Mesh, error) {
	d := w.cfg.Erosion.Densify

	var p assets.Prepared
	if o.template != "" {
		if w.library == nil {
			return mesh.Mesh{}, ErrNoLibrary
		}
		var err error
		if p, err = w.library.Prepare(o.template, d); err != nil {
			return mesh.Mesh{}, err
		}
	} else {
		m := o.source.Clone()
		if err := m.Validate(); err != nil {
			return mesh.Mesh{}, fmt.Errorf("unsupported mesh: %w", err)
		}
		p.Mesh = m
		if d.MaxEdgeLength > 0 {
			var err error
			if p.Mesh, p.Result, p.Stop, err = mesh.DensifyUntil(m, d.MaxEdgeLength, d.MaxPasses, d.MaxTriangles); err != nil {
				return mesh.Mesh{}, fmt.Errorf("densify: %w", err)
			}
		}
	}

	if d.MaxEdgeLength > 0 {
		o.log.Debug("mesh densified",
			zap.Int("passes", p.Result.Passes),
			zap.Int("triangles", p.Mesh.TriangleCount()),
			zap.Int("vertices", len(p.Mesh.Vertices)),
			zap.Float32("max_edge", p.Result.MaxRemainingEdgeLength),
			zap.Stringer("stop", p.Stop))
	}
	return p.Mesh, nil
}

// Disable unregisters the object and releases its resources. An erosion
// pass still in flight finishes but its result is dropped.
func (o *Object) Disable() {
	w := o.world
	if w == nil {
		return
	}

	w.sched.Unregister(o.handle)
	w.detach(o)
	w.host.Release(o.id)

	o.field.Release()
	o.pipeline.TakePending()
	o.handle = scheduler.Handle{}
	o.forced = false
	o.world = nil

	o.log.Info("object disabled")
}

// StoreImpact records e as the pending impact, replacing any unconsumed
// one. Safe to call from any goroutine.
func (o *Object) StoreImpact(e impact.Event) {
	o.impacts.Store(e)
}

// ApplyPendingImpact consumes the pending impact and stamps it into the
// field. It reports whether anything was written.
func (o *Object) ApplyPendingImpact() bool {
	e, ok := o.impacts.Take()
	if !ok || o.field == nil || !o.field.Ready() {
		return false
	}

	l := impact.ToLocal(e, o.toObject, o.volume)
	region := impact.Apply(o.field, l)
	o.applied++

	o.log.Debug("impact applied",
		zap.Stringer("kind", e.Kind),
		zap.Float32("radius", l.Radius),
		zap.Bool("empty", region.Empty()))
	return true
}

// ForceErosion makes the next tick run an erosion pass for this object.
// While the pipeline is busy the force is carried over to later ticks
// until a pass starts.
func (o *Object) ForceErosion() {
	if o.world != nil {
		o.forced = true
		o.world.sched.ForceErosionNextTick(o.handle)
	}
}

// VertexColors colours the live mesh from the field.
func (o *Object) VertexColors(mode palette.Mode) []colorful.Color {
	if o.field == nil {
		return nil
	}
	return palette.VertexColors(&o.mesh, o.field, o.volume, mode)
}

// update is the per-frame work of one object.
func (o *Object) update(w *World) {
	if n := w.policy.Resolution(); n != o.field.Resolution() {
		if o.field.Resize(n) {
			w.host.BindField(o.id, o.field)
			o.log.Info("field resized", zap.Int("resolution", n), zap.Uint64("generation", o.field.Generation()))
		}
	}

	o.ApplyPendingImpact()

	if w.sched.ShouldRunSimulation(o.handle) && o.field.Ready() {
		o.field.Step(o.toObject, ambient.Resolve(w.ambient), w.fieldParams())
		o.steps++
	}

	if w.sched.ShouldRunErosion(o.handle) {
		o.startErosion(w)
	}
}

func (o *Object) startErosion(w *World) {
	err := o.pipeline.Start(erosion.Request{
		Mesh:         &o.mesh,
		Field:        o.field,
		VolumeBounds: o.volume,
		Target:       o.target,
	})
	switch {
	case err == nil:
	case errors.Is(err, erosion.ErrBusy):
		o.log.Debug("erosion skipped", zap.Error(err), zap.Bool("forced", o.forced))
		if o.forced {
			w.sched.ForceErosionNextTick(o.handle)
			return
		}
	case errors.Is(err, erosion.ErrNotReady):
		o.log.Debug("erosion skipped", zap.Error(err))
	default:
		o.log.Warn("erosion not started", zap.Error(err))
	}
	o.forced = false
}

// swapPending moves a finished erosion result into the live geometry.
func (o *Object) swapPending() bool {
	r := o.pipeline.TakePending()
	if r == nil {
		return false
	}

	o.mesh = r.Mesh
	o.proxy = r.Proxy
	o.hull = r.Hull
	o.erosions++
	o.world.host.Commit(o.id, o.geometry())

	o.log.Debug("erosion swapped in", zap.Uint64("pass", r.Pass), zap.Int("hull_faces", len(r.Hull.Faces)))
	return true
}
