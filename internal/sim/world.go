// Package sim ties the simulation together: objects own their field, mesh
// and erosion pipeline, and the World drives them from a single tick.
package sim

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/rustsim/internal/ambient"
	"github.com/Faultbox/rustsim/internal/assets"
	"github.com/Faultbox/rustsim/internal/config"
	"github.com/Faultbox/rustsim/internal/field"
	"github.com/Faultbox/rustsim/internal/jobs"
	"github.com/Faultbox/rustsim/internal/logger"
	"github.com/Faultbox/rustsim/internal/palette"
	"github.com/Faultbox/rustsim/internal/quality"
	"github.com/Faultbox/rustsim/internal/scheduler"
	"github.com/Faultbox/rustsim/internal/telemetry"
)

// Publisher receives frame stats.
type Publisher interface {
	Publish(telemetry.FrameStats) error
}

// Options configures a World. Only Config is required.
type Options struct {
	Config    *config.Config
	Policy    *quality.Policy  // Built from Config.Quality when nil
	Ambient   ambient.Provider // Nil falls back to the default levels
	Host      Host             // NopHost when nil
	Pool      *jobs.Pool       // Erosion runs inline when nil
	Publisher Publisher        // Stats are not collected when nil
	Library   *assets.Library  // Needed for template objects
}

// World is the fleet of simulated objects and the tick that drives them.
// It is not safe for concurrent use.
type World struct {
	cfg       *config.Config
	policy    *quality.Policy
	ambient   ambient.Provider
	host      Host
	pool      *jobs.Pool
	publisher Publisher
	library   *assets.Library
	mode      palette.Mode

	sched   *scheduler.Scheduler
	objects []*Object
	log     *zap.Logger
}

// NewWorld creates an empty world.
func NewWorld(opts Options) (*World, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("new world: %w", err)
	}

	w := &World{
		cfg:       cfg,
		policy:    opts.Policy,
		ambient:   opts.Ambient,
		host:      opts.Host,
		pool:      opts.Pool,
		publisher: opts.Publisher,
		library:   opts.Library,
		mode:      palette.ParseMode(cfg.Rendering.Mode),
		log:       logger.Named("world"),
	}
	if w.policy == nil {
		w.policy = quality.NewPolicy(cfg.Quality)
	}
	if w.host == nil {
		w.host = NopHost{}
	}

	w.sched = scheduler.New(scheduler.Config{
		SimulationFrequency: cfg.Simulation.SimulationFrequency,
		ErosionFrequency:    cfg.Simulation.ErosionFrequency,
		ErosionPhaseOffset:  cfg.Simulation.ErosionPhaseOffset,
		Throughput:          cfg.Quality.ObjectUpdatesPerFrame,
	}, w.policy)

	return w, nil
}

// Config returns the read-only configuration.
func (w *World) Config() *config.Config { return w.cfg }

// Mode returns the rendering mode.
func (w *World) Mode() palette.Mode { return w.mode }

// Scheduler exposes the turn allocator.
func (w *World) Scheduler() *scheduler.Scheduler { return w.sched }

// Frame returns the current frame number.
func (w *World) Frame() int64 { return w.sched.Frame() }

// Objects returns the enabled objects in turn order.
func (w *World) Objects() []*Object { return w.objects }

// Add enables o in this world.
func (w *World) Add(o *Object) error {
	return o.Enable(w)
}

// Remove disables o.
func (w *World) Remove(o *Object) {
	if o.world == w {
		o.Disable()
	}
}

func (w *World) detach(o *Object) {
	for i, other := range w.objects {
		if other == o {
			w.objects = append(w.objects[:i], w.objects[i+1:]...)
			return
		}
	}
}

func (w *World) fieldParams() field.Params {
	return field.ParamsFromConfig(w.cfg.Field, w.policy.SoftRust())
}

// Tick advances the simulation by one frame.
func (w *World) Tick() {
	w.sched.Advance()
	frame := w.sched.Frame()

	for _, o := range w.objects {
		o.update(w)
	}

	w.PreRender()
	w.host.Submit(frame)

	if w.publisher != nil {
		if every := max(w.cfg.Telemetry.Every, 1); frame%int64(every) == 0 {
			if err := w.publisher.Publish(w.Stats()); err != nil {
				w.log.Warn("telemetry publish failed", zap.Error(err))
			}
		}
	}
}

// PreRender swaps finished erosion results into the live geometry. It is
// the only place pending results are consumed.
func (w *World) PreRender() int {
	swapped := 0
	for _, o := range w.objects {
		if o.swapPending() {
			swapped++
		}
	}
	return swapped
}

// Stats collects the current frame stats.
func (w *World) Stats() telemetry.FrameStats {
	fs := telemetry.FrameStats{
		Frame:      w.sched.Frame(),
		Throughput: w.sched.Throughput(),
		Resolution: w.policy.Resolution(),
		Mode:       w.mode.String(),
		Objects:    make([]telemetry.ObjectStats, 0, len(w.objects)),
	}
	for _, o := range w.objects {
		st := o.field.Stats()
		fs.Objects = append(fs.Objects, telemetry.ObjectStats{
			ID:            o.id.String(),
			Name:          o.name,
			Resolution:    o.field.Resolution(),
			Steps:         o.steps,
			Erosions:      o.erosions,
			Impacts:       o.applied,
			Failures:      o.ErosionFailures(),
			State:         o.ErosionState().String(),
			Triangles:     o.mesh.TriangleCount(),
			MeanCorrosion: st.MeanCorrosion,
			MeanMoisture:  st.MeanMoisture,
			MeanDamage:    st.MeanDamage,
		})
	}
	return fs
}

// Run ticks the world until frames ticks have run or ctx is done.
// frames <= 0 runs until ctx is done. Ticks are paced at the configured
// frame rate; a rate of 0 runs unpaced.
func (w *World) Run(ctx context.Context, frames int) error {
	var pace <-chan time.Time
	if rate := w.cfg.Simulation.FrameRate; rate > 0 {
		ticker := time.NewTicker(time.Second / time.Duration(rate))
		defer ticker.Stop()
		pace = ticker.C
	}

	// Timing
	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	w.log.Info("starting simulation loop",
		zap.Int("objects", len(w.objects)),
		zap.Int("frames", frames),
		zap.Stringer("mode", w.mode))

	for n := 0; frames <= 0 || n < frames; n++ {
		if pace != nil {
			select {
			case <-ctx.Done():
				w.log.Info("simulation interrupted", zap.Int64("frame", w.Frame()))
				return nil
			case <-pace:
			}
		} else if ctx.Err() != nil {
			w.log.Info("simulation interrupted", zap.Int64("frame", w.Frame()))
			return nil
		}

		now := time.Now()
		dt := now.Sub(lastTime)
		lastTime = now

		w.Tick()

		// FPS counter
		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			w.log.Debug("fps", zap.Int("count", frameCount), zap.Duration("dt", dt))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	w.log.Info("simulation finished", zap.Int64("frame", w.Frame()))
	return nil
}

// Close disables every object. The job pool is left to its owner.
func (w *World) Close() {
	objs := append([]*Object(nil), w.objects...)
	for _, o := range objs {
		o.Disable()
	}
}
