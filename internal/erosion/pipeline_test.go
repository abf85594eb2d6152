package erosion

import (
	"errors"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/rustsim/internal/field"
	"github.com/Faultbox/rustsim/internal/hull"
	"github.com/Faultbox/rustsim/internal/jobs"
	"github.com/Faultbox/rustsim/internal/mesh"
)

// rusted returns a field of side n with every voxel at the given corrosion.
func rusted(n int, corrosion float32) *field.Field {
	f := field.New(n)
	for z := 0; z < n; z++ {
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				f.Set(x, y, z, field.Sample{Corrosion: corrosion})
			}
		}
	}
	return f
}

func request(m *mesh.Mesh, f *field.Field) Request {
	return Request{Mesh: m, Field: f, VolumeBounds: m.Bounds, Target: m.Bounds.Center()}
}

func smallHull() hull.Options {
	return hull.Options{Divisor: 100, Floor: 0.001}
}

func waitFor(t *testing.T, p *Pipeline, want State) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for p.State() != want {
		if time.Now().After(deadline) {
			t.Fatalf("state %v, want %v", p.State(), want)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestDisplaceTowardsTarget(t *testing.T) {
	m := mesh.Icosphere(1, 1)
	f := rusted(8, 1)

	moved := Displace(&m, f.Current(), m.Bounds, mgl32.Vec3{}, 0.1)
	if moved != len(m.Vertices) {
		t.Errorf("moved %d of %d vertices", moved, len(m.Vertices))
	}
	for i, v := range m.Vertices {
		if r := v.Position.Len(); r < 0.89 || r > 0.91 {
			t.Fatalf("vertex %d at radius %v, want 0.9", i, r)
		}
	}
}

func TestDisplaceScalesWithDamage(t *testing.T) {
	f := field.New(4)
	for z := 0; z < 4; z++ {
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				f.Set(x, y, z, field.Sample{Corrosion: 0.5, Damage: 1})
			}
		}
	}
	m := mesh.Box(mgl32.Vec3{1, 1, 1})
	start := m.Vertices[0].Position

	Displace(&m, f.Current(), m.Bounds, mgl32.Vec3{}, 0.1)
	// 0.1 * 0.5 * (1 + 1)
	if d := start.Sub(m.Vertices[0].Position).Len(); d < 0.099 || d > 0.101 {
		t.Errorf("moved %v, want 0.1", d)
	}
}

func TestDisplaceNeverOvershoots(t *testing.T) {
	m := mesh.Box(mgl32.Vec3{1, 1, 1})
	target := mgl32.Vec3{0.25, 0, 0}
	Displace(&m, rusted(4, 1).Current(), m.Bounds, target, 100)
	for i, v := range m.Vertices {
		if v.Position != target {
			t.Fatalf("vertex %d at %v, want clamped to target", i, v.Position)
		}
	}
}

func TestDisplaceCleanFieldIsNoop(t *testing.T) {
	m := mesh.Box(mgl32.Vec3{1, 1, 1})
	before := m.Clone()
	if moved := Displace(&m, field.New(4).Current(), m.Bounds, mgl32.Vec3{}, 1); moved != 0 {
		t.Errorf("clean metal moved %d vertices", moved)
	}
	for i := range m.Vertices {
		if m.Vertices[i] != before.Vertices[i] {
			t.Fatal("vertex changed on a clean field")
		}
	}
}

func TestSyncPass(t *testing.T) {
	m := mesh.Icosphere(1, 2)
	p := New("sync", Options{Strength: 0.1, Hull: smallHull()})

	if err := p.Start(request(&m, rusted(8, 1))); err != nil {
		t.Fatal(err)
	}
	if p.State() != PendingSwap {
		t.Fatalf("state %v after sync pass, want pending swap", p.State())
	}
	if err := p.Start(request(&m, rusted(8, 1))); !errors.Is(err, ErrBusy) {
		t.Errorf("Start with a result pending = %v, want ErrBusy", err)
	}

	r := p.TakePending()
	if r == nil {
		t.Fatal("no result after a successful pass")
	}
	if p.State() != Idle || p.TakePending() != nil {
		t.Error("taking the result should empty the cell and return to idle")
	}

	if r.Proxy.TriangleCount() != r.Mesh.TriangleCount() {
		t.Errorf("proxy has %d triangles, mesh %d", r.Proxy.TriangleCount(), r.Mesh.TriangleCount())
	}
	if r.Hull == nil || len(r.Hull.Faces) < 4 {
		t.Error("result is missing its hull")
	}
	if r.Mesh.Bounds.Max[0] > 0.91 {
		t.Errorf("bounds not updated: %+v", r.Mesh.Bounds)
	}
	// The input mesh belongs to the caller and is left alone
	if m.Bounds.Max[0] < 0.99 {
		t.Error("Start modified the request mesh")
	}
}

func TestHullFailureAbandonsPass(t *testing.T) {
	m := mesh.Box(mgl32.Vec3{1, 1, 1})
	before := m.Clone()

	tests := []struct {
		name  string
		build HullBuilder
	}{
		{"error", func([]mgl32.Vec3, hull.Options) (*hull.Hull, error) { return nil, hull.ErrDegenerate }},
		{"panic", func([]mgl32.Vec3, hull.Options) (*hull.Hull, error) { panic("hull exploded") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.name, Options{Strength: 0.1, BuildHull: tt.build})
			if err := p.Start(request(&m, rusted(4, 1))); err != nil {
				t.Fatal(err)
			}

			if p.TakePending() != nil {
				t.Error("failed pass published a result")
			}
			if p.State() != Idle {
				t.Errorf("state %v, want idle", p.State())
			}
			if p.Failures() != 1 {
				t.Errorf("Failures = %d, want 1", p.Failures())
			}
			for i := range m.Vertices {
				if m.Vertices[i] != before.Vertices[i] {
					t.Fatal("failed pass touched the working mesh")
				}
			}

			// The pipeline accepts the next pass
			if err := p.Start(request(&m, rusted(4, 1))); err != nil {
				t.Errorf("Start after failure = %v", err)
			}
		})
	}
}

func TestCollapsedMeshFailsHull(t *testing.T) {
	m := mesh.Box(mgl32.Vec3{1, 1, 1})
	p := New("collapse", Options{Strength: 100})
	p.Start(request(&m, rusted(4, 1)))

	if p.TakePending() != nil || p.Failures() != 1 {
		t.Errorf("a mesh collapsed to a point must not produce a result (failures %d)", p.Failures())
	}
}

func TestStartNotReady(t *testing.T) {
	m := mesh.Box(mgl32.Vec3{1, 1, 1})
	p := New("empty", Options{Strength: 0.1})

	if err := p.Start(request(&m, field.New(0))); !errors.Is(err, ErrNotReady) {
		t.Errorf("Start with N=0 field = %v, want ErrNotReady", err)
	}
	if p.State() != Idle {
		t.Errorf("state %v, want idle", p.State())
	}
}

func TestAsyncPassIsAtomic(t *testing.T) {
	pool, err := jobs.NewPool(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Shutdown()

	release := make(chan struct{})
	blocking := func(pts []mgl32.Vec3, o hull.Options) (*hull.Hull, error) {
		<-release
		return hull.Build(pts, o)
	}

	m := mesh.Icosphere(1, 1)
	p := New("async", Options{Strength: 0.1, Async: true, Pool: pool, Hull: smallHull(), BuildHull: blocking})

	if err := p.Start(request(&m, rusted(8, 1))); err != nil {
		t.Fatal(err)
	}
	waitFor(t, p, BuildingMesh)

	// Mid-pass: nothing visible and no second pass
	if p.TakePending() != nil {
		t.Error("partial result visible while building")
	}
	if err := p.Start(request(&m, rusted(8, 1))); !errors.Is(err, ErrBusy) {
		t.Errorf("Start while building = %v, want ErrBusy", err)
	}

	close(release)
	waitFor(t, p, PendingSwap)

	r := p.TakePending()
	if r == nil || r.Hull == nil || r.Proxy.TriangleCount() == 0 {
		t.Fatalf("incomplete result: %+v", r)
	}
	if r.Pass != 1 || p.Passes() != 1 {
		t.Errorf("pass %d, passes %d", r.Pass, p.Passes())
	}
}

func TestStartWithFullPoolDoesNotBlock(t *testing.T) {
	pool, err := jobs.NewPool(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Shutdown()

	release := make(chan struct{})
	blocking := func(pts []mgl32.Vec3, o hull.Options) (*hull.Hull, error) {
		<-release
		return hull.Build(pts, o)
	}
	newPipeline := func(name string) *Pipeline {
		return New(name, Options{Strength: 0.1, Async: true, Pool: pool, Hull: smallHull(), BuildHull: blocking})
	}

	m := mesh.Icosphere(1, 1)
	running, queued, refused := newPipeline("running"), newPipeline("queued"), newPipeline("refused")

	if err := running.Start(request(&m, rusted(8, 1))); err != nil {
		t.Fatal(err)
	}
	waitFor(t, running, BuildingMesh)
	if err := queued.Start(request(&m, rusted(8, 1))); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() { done <- refused.Start(request(&m, rusted(8, 1))) }()
	select {
	case err := <-done:
		if !errors.Is(err, ErrBusy) || !errors.Is(err, jobs.ErrQueueFull) {
			t.Errorf("Start on a saturated pool = %v, want ErrBusy and ErrQueueFull", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Start blocked on a saturated pool")
	}
	if refused.State() != Idle || refused.Passes() != 0 || refused.Failures() != 0 {
		t.Errorf("refused pipeline: state %v passes %d failures %d", refused.State(), refused.Passes(), refused.Failures())
	}

	close(release)
	waitFor(t, running, PendingSwap)
	waitFor(t, queued, PendingSwap)

	// Room again: the refused pipeline gets its pass
	if err := refused.Start(request(&m, rusted(8, 1))); err != nil {
		t.Fatalf("retry after the pool drained = %v", err)
	}
	waitFor(t, refused, PendingSwap)
}
