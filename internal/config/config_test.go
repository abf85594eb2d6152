package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Quality.VolumeResolution != 64 {
		t.Errorf("expected volume resolution 64, got %d", cfg.Quality.VolumeResolution)
	}
	if cfg.Quality.ObjectUpdatesPerFrame != 1 {
		t.Errorf("expected 1 object update per frame, got %d", cfg.Quality.ObjectUpdatesPerFrame)
	}
	if !cfg.Quality.SoftRust {
		t.Error("expected soft rust to be enabled by default")
	}

	// Ambient fallback levels
	if cfg.Ambient.Oxygen != 0.2 {
		t.Errorf("expected oxygen 0.2, got %f", cfg.Ambient.Oxygen)
	}
	if cfg.Ambient.Moisture != 0.5 {
		t.Errorf("expected moisture 0.5, got %f", cfg.Ambient.Moisture)
	}

	if cfg.Erosion.HullDivisor != 25 || cfg.Erosion.HullFloor != 0.015 {
		t.Errorf("unexpected hull tolerance defaults %f/%f", cfg.Erosion.HullDivisor, cfg.Erosion.HullFloor)
	}
	if cfg.Impact.Crowbar.PenetrationCone != 20 {
		t.Errorf("expected crowbar cone 20, got %f", cfg.Impact.Crowbar.PenetrationCone)
	}
	if cfg.Rendering.Mode != RenderingDebug {
		t.Errorf("expected debug rendering mode, got %s", cfg.Rendering.Mode)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "rustsim.yaml")

	yamlContent := `
simulation:
  objects: 32
  simulation_frequency: 3
  erosion_frequency: 90

erosion:
  strength: 0.5
  async: false
  densify:
    max_edge_length: 0.1

impact:
  spray:
    radius: 0.25

quality:
  object_updates_per_frame: 4
  volume_resolution: 32
  soft_rust: false

rendering:
  mode: pretty

logging:
  level: "debug"
  log_file: "rustsim.log"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Simulation.Objects != 32 {
		t.Errorf("expected 32 objects, got %d", cfg.Simulation.Objects)
	}
	if cfg.Simulation.SimulationFrequency != 3 {
		t.Errorf("expected simulation frequency 3, got %d", cfg.Simulation.SimulationFrequency)
	}
	if cfg.Erosion.Async {
		t.Error("expected async to be false")
	}
	if cfg.Erosion.Densify.MaxEdgeLength != 0.1 {
		t.Errorf("expected max edge 0.1, got %f", cfg.Erosion.Densify.MaxEdgeLength)
	}
	// Unset nested values keep their defaults
	if cfg.Erosion.Densify.MaxPasses != 6 {
		t.Errorf("expected default max passes 6, got %d", cfg.Erosion.Densify.MaxPasses)
	}
	if cfg.Impact.Spray.Radius != 0.25 {
		t.Errorf("expected spray radius 0.25, got %f", cfg.Impact.Spray.Radius)
	}
	if cfg.Impact.Spray.Strength != 0.03 {
		t.Errorf("expected default spray strength 0.03, got %f", cfg.Impact.Spray.Strength)
	}
	if cfg.Quality.ObjectUpdatesPerFrame != 4 || cfg.Quality.VolumeResolution != 32 || cfg.Quality.SoftRust {
		t.Errorf("unexpected quality %+v", cfg.Quality)
	}
	if cfg.Rendering.Mode != RenderingPretty {
		t.Errorf("expected pretty mode, got %s", cfg.Rendering.Mode)
	}
	if cfg.Logging.LogFile != "rustsim.log" {
		t.Errorf("expected log file 'rustsim.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromTOML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "rustsim.toml")

	tomlContent := `
[simulation]
objects = 3
erosion_phase_offset = 2

[quality]
volume_resolution = 16

[field]
gravity = [0.0, 0.0, -1.0]
`
	if err := os.WriteFile(configPath, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load toml config: %v", err)
	}

	if cfg.Simulation.Objects != 3 {
		t.Errorf("expected 3 objects, got %d", cfg.Simulation.Objects)
	}
	if cfg.Simulation.ErosionPhaseOffset != 2 {
		t.Errorf("expected phase offset 2, got %d", cfg.Simulation.ErosionPhaseOffset)
	}
	if cfg.Quality.VolumeResolution != 16 {
		t.Errorf("expected resolution 16, got %d", cfg.Quality.VolumeResolution)
	}
	if cfg.Field.Gravity != [3]float32{0, 0, -1} {
		t.Errorf("expected gravity -Z, got %v", cfg.Field.Gravity)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.yaml")

	invalidYAML := `
quality:
  volume_resolution: not a number
  invalid syntax here
`
	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/rustsim.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero throughput", func(c *Config) { c.Quality.ObjectUpdatesPerFrame = 0 }},
		{"negative resolution", func(c *Config) { c.Quality.VolumeResolution = -1 }},
		{"zero simulation frequency", func(c *Config) { c.Simulation.SimulationFrequency = 0 }},
		{"zero erosion frequency", func(c *Config) { c.Simulation.ErosionFrequency = 0 }},
		{"async without workers", func(c *Config) { c.Erosion.Workers = 0 }},
		{"zero hull divisor", func(c *Config) { c.Erosion.HullDivisor = 0 }},
		{"unknown rendering mode", func(c *Config) { c.Rendering.Mode = "fancy" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}

	t.Run("resolution zero is allowed", func(t *testing.T) {
		cfg := Default()
		cfg.Quality.VolumeResolution = 0
		if err := cfg.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "rustsim.yaml")
	if err := os.WriteFile(configPath, []byte("simulation:\n  objects: 2\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find rustsim.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "throughput and resolution flags",
			setup: func() { *flagThroughput = 3; *flagResolution = 24 },
			verify: func(cfg *Config) {
				if cfg.Quality.ObjectUpdatesPerFrame != 3 {
					t.Errorf("expected throughput 3, got %d", cfg.Quality.ObjectUpdatesPerFrame)
				}
				if cfg.Quality.VolumeResolution != 24 {
					t.Errorf("expected resolution 24, got %d", cfg.Quality.VolumeResolution)
				}
			},
			teardown: func() { *flagThroughput = 0; *flagResolution = 0 },
		},
		{
			name:  "sync flag",
			setup: func() { *flagSync = true },
			verify: func(cfg *Config) {
				if cfg.Erosion.Async {
					t.Error("expected async erosion to be disabled with sync flag")
				}
			},
			teardown: func() { *flagSync = false },
		},
		{
			name:  "frames flag zero means unbounded",
			setup: func() { *flagFrames = 0 },
			verify: func(cfg *Config) {
				if cfg.Simulation.Frames != 0 {
					t.Errorf("expected frames 0, got %d", cfg.Simulation.Frames)
				}
			},
			teardown: func() { *flagFrames = -1 },
		},
		{
			name:  "telemetry flag",
			setup: func() { *flagTelemetry = "127.0.0.1:9999" },
			verify: func(cfg *Config) {
				if !cfg.Telemetry.Enabled || cfg.Telemetry.Addr != "127.0.0.1:9999" {
					t.Errorf("unexpected telemetry %+v", cfg.Telemetry)
				}
			},
			teardown: func() { *flagTelemetry = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)
			tt.verify(cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "rustsim.yaml")

	yamlContent := `
quality:
  object_updates_per_frame: 2
  volume_resolution: 48
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagResolution = 96
	defer func() {
		*flagConfig = ""
		*flagResolution = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Resolution comes from the flag, throughput from the file
	if cfg.Quality.VolumeResolution != 96 {
		t.Errorf("expected resolution 96 from flag, got %d", cfg.Quality.VolumeResolution)
	}
	if cfg.Quality.ObjectUpdatesPerFrame != 2 {
		t.Errorf("expected throughput 2 from file, got %d", cfg.Quality.ObjectUpdatesPerFrame)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	for _, name := range []string{"out.yaml", "out.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)

			cfg := Default()
			cfg.Simulation.Objects = 17
			cfg.Rendering.Mode = RenderingPretty
			if err := cfg.SaveTo(path); err != nil {
				t.Fatalf("SaveTo failed: %v", err)
			}

			loaded := Default()
			if err := loadFromFile(loaded, path); err != nil {
				t.Fatalf("reload failed: %v", err)
			}
			if loaded.Simulation.Objects != 17 {
				t.Errorf("expected 17 objects after reload, got %d", loaded.Simulation.Objects)
			}
			if loaded.Rendering.Mode != RenderingPretty {
				t.Errorf("expected pretty mode after reload, got %s", loaded.Rendering.Mode)
			}
		})
	}
}
