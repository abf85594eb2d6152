// Package main is the entry point for the headless corrosion simulator.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"
	"go.uber.org/zap"

	"github.com/Faultbox/rustsim/internal/ambient"
	"github.com/Faultbox/rustsim/internal/assets"
	"github.com/Faultbox/rustsim/internal/config"
	"github.com/Faultbox/rustsim/internal/jobs"
	"github.com/Faultbox/rustsim/internal/logger"
	"github.com/Faultbox/rustsim/internal/mesh"
	"github.com/Faultbox/rustsim/internal/quality"
	"github.com/Faultbox/rustsim/internal/sim"
	"github.com/Faultbox/rustsim/internal/telemetry"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== rustsim ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	if err := run(cfg); err != nil {
		logger.Error("simulation error", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}

	logger.Info("simulation closed normally")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := sim.Options{
		Config: cfg,
		Policy: quality.NewPolicy(cfg.Quality),
		Host:   newLogHost(),
	}

	if cfg.Erosion.Async {
		pool, err := jobs.NewPool(cfg.Erosion.Workers, cfg.Erosion.QueueSize)
		if err != nil {
			return fmt.Errorf("erosion pool: %w", err)
		}
		defer pool.Shutdown()
		opts.Pool = pool
	}

	if path := cfg.Quality.WatchFile; path != "" {
		watcher, err := quality.Watch(path, opts.Policy)
		if err != nil {
			logger.Warn("quality hot reload disabled", zap.String("path", path), zap.Error(err))
		} else {
			defer watcher.Close()
		}
	}

	if cfg.Ambient.Enabled {
		opts.Ambient = ambient.NewAtmosphere(cfg.Ambient.Oxygen, cfg.Ambient.Moisture)
	}

	if cfg.Telemetry.Enabled {
		hub := telemetry.NewHub()
		opts.Publisher = hub
		go func() {
			if err := hub.Serve(ctx, cfg.Telemetry.Addr); err != nil {
				logger.Error("telemetry server stopped", zap.Error(err))
			}
		}()
	}

	lib, err := templates()
	if err != nil {
		return err
	}
	opts.Library = lib

	world, err := sim.NewWorld(opts)
	if err != nil {
		return err
	}
	defer world.Close()

	spawn(world, cfg.Simulation.Objects)
	if len(world.Objects()) == 0 {
		return fmt.Errorf("no objects could be enabled")
	}

	if rate := cfg.Simulation.ImpactsPerSecond; rate > 0 {
		s := newShooter(world, rate)
		go s.run(ctx)
	}

	if err := world.Run(ctx, cfg.Simulation.Frames); err != nil {
		return err
	}

	report(world)
	return nil
}

// templates registers the meshes the driver spawns.
func templates() (*assets.Library, error) {
	lib := assets.NewLibrary()
	if err := lib.Register("crate", mesh.Box(mgl32.Vec3{1, 0.5, 1})); err != nil {
		return nil, err
	}
	if err := lib.Register("tank", mesh.Icosphere(1, 2)); err != nil {
		return nil, err
	}
	return lib, nil
}

// spawn places alternating crates and tanks on a grid.
func spawn(w *sim.World, count int) {
	const spacing = 4
	side := 1
	for side*side < count {
		side++
	}

	kinds := []string{"crate", "tank"}
	for i := 0; i < count; i++ {
		kind := kinds[i%len(kinds)]
		x := float32(i%side) * spacing
		z := float32(i/side) * spacing
		transform := mgl32.Translate3D(x, 0, z).Mul4(mgl32.HomogRotate3DY(float32(i) * 0.4))

		o := sim.NewTemplateObject(fmt.Sprintf("%s-%d", kind, i), kind, transform)
		if err := w.Add(o); err != nil {
			logger.Warn("object skipped", zap.Error(err))
		}
	}
}

// report logs the final state of every object.
func report(w *sim.World) {
	for _, o := range w.Objects() {
		st := o.Field().Stats()
		logger.Info("object summary",
			zap.String("object", o.Name()),
			zap.Uint64("steps", o.Steps()),
			zap.Uint64("erosions", o.Erosions()),
			zap.Uint64("impacts", o.ImpactsApplied()),
			zap.Uint64("failures", o.ErosionFailures()),
			zap.Float32("corrosion", st.MeanCorrosion),
			zap.Float32("damage", st.MaxDamage),
			zap.String("colour", meanColour(o.VertexColors(w.Mode())).Hex()))
	}
}

func meanColour(cs []colorful.Color) colorful.Color {
	if len(cs) == 0 {
		return colorful.Color{}
	}
	var sum colorful.Color
	for _, c := range cs {
		sum.R += c.R
		sum.G += c.G
		sum.B += c.B
	}
	n := float64(len(cs))
	return colorful.Color{R: sum.R / n, G: sum.G / n, B: sum.B / n}
}
