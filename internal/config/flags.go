package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file (.yaml or .toml)")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagFrames     = flag.Int("frames", -1, "Frames to simulate (0 = until interrupted)")
	flagObjects    = flag.Int("objects", 0, "Number of simulated objects")
	flagThroughput = flag.Int("throughput", 0, "Object updates per frame")
	flagResolution = flag.Int("resolution", 0, "Volume resolution")
	flagSync       = flag.Bool("sync", false, "Run erosion passes on the main tick")
	flagTelemetry  = flag.String("telemetry", "", "Serve telemetry on this address")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
		cfg.Rendering.Mode = RenderingDebug
	}
	if *flagFrames >= 0 {
		cfg.Simulation.Frames = *flagFrames
	}
	if *flagObjects > 0 {
		cfg.Simulation.Objects = *flagObjects
	}
	if *flagThroughput > 0 {
		cfg.Quality.ObjectUpdatesPerFrame = *flagThroughput
	}
	if *flagResolution > 0 {
		cfg.Quality.VolumeResolution = *flagResolution
	}
	if *flagSync {
		cfg.Erosion.Async = false
	}
	if *flagTelemetry != "" {
		cfg.Telemetry.Enabled = true
		cfg.Telemetry.Addr = *flagTelemetry
	}
}
