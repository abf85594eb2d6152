// Package config handles simulator configuration loading and management.
package config

// Config holds all simulator settings.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation" toml:"simulation"`
	Field      FieldConfig      `yaml:"field" toml:"field"`
	Erosion    ErosionConfig    `yaml:"erosion" toml:"erosion"`
	Impact     ImpactConfig     `yaml:"impact" toml:"impact"`
	Ambient    AmbientConfig    `yaml:"ambient" toml:"ambient"`
	Quality    QualityConfig    `yaml:"quality" toml:"quality"`
	Rendering  RenderingConfig  `yaml:"rendering" toml:"rendering"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" toml:"telemetry"`
	Logging    LoggingConfig    `yaml:"logging" toml:"logging"`
}

// SimulationConfig holds tick loop and scheduler cadence settings.
type SimulationConfig struct {
	Objects             int `yaml:"objects" toml:"objects"`                           // Objects spawned by the driver
	Frames              int `yaml:"frames" toml:"frames"`                             // 0 runs until interrupted
	FrameRate           int `yaml:"frame_rate" toml:"frame_rate"`                     // Ticks per second, 0 = unpaced
	SimulationFrequency int `yaml:"simulation_frequency" toml:"simulation_frequency"` // Min frames between field steps
	ErosionFrequency    int `yaml:"erosion_frequency" toml:"erosion_frequency"`       // Min frames between erosion passes
	ErosionPhaseOffset  int `yaml:"erosion_phase_offset" toml:"erosion_phase_offset"` // Bucket shift of the erosion cadence
	ImpactsPerSecond    int `yaml:"impacts_per_second" toml:"impacts_per_second"`     // Scripted weapon fire in the driver
}

// FieldConfig holds volumetric kernel rates.
type FieldConfig struct {
	DiffusionRate   float32    `yaml:"diffusion_rate" toml:"diffusion_rate"`
	EvaporationRate float32    `yaml:"evaporation_rate" toml:"evaporation_rate"`
	DripRate        float32    `yaml:"drip_rate" toml:"drip_rate"`
	GrowthRate      float32    `yaml:"growth_rate" toml:"growth_rate"`
	SpreadRate      float32    `yaml:"spread_rate" toml:"spread_rate"`
	DamageRate      float32    `yaml:"damage_rate" toml:"damage_rate"`
	Gravity         [3]float32 `yaml:"gravity" toml:"gravity"` // World-space down
}

// ErosionConfig holds mesh erosion and rebuild settings.
type ErosionConfig struct {
	Strength    float32 `yaml:"strength" toml:"strength"`
	Async       bool    `yaml:"async" toml:"async"`
	Workers     int     `yaml:"workers" toml:"workers"`
	QueueSize   int     `yaml:"queue_size" toml:"queue_size"`
	HullDivisor float32 `yaml:"hull_divisor" toml:"hull_divisor"`
	HullFloor   float32 `yaml:"hull_floor" toml:"hull_floor"`

	Densify DensifyConfig `yaml:"densify" toml:"densify"`
}

// DensifyConfig controls the mesh preprocessing pass.
type DensifyConfig struct {
	MaxEdgeLength float32 `yaml:"max_edge_length" toml:"max_edge_length"` // 0 disables densification
	MaxPasses     int     `yaml:"max_passes" toml:"max_passes"`
	MaxTriangles  int     `yaml:"max_triangles" toml:"max_triangles"`
}

// WeaponConfig holds impact magnitudes for one weapon kind.
type WeaponConfig struct {
	Radius          float32 `yaml:"radius" toml:"radius"`
	Strength        float32 `yaml:"strength" toml:"strength"`
	Penetration     float32 `yaml:"penetration" toml:"penetration"`
	PenetrationCone float32 `yaml:"penetration_cone_deg" toml:"penetration_cone_deg"`
	ShootDelay      float32 `yaml:"shoot_delay" toml:"shoot_delay"` // Seconds
	Range           float32 `yaml:"range" toml:"range"`
}

// ImpactConfig holds weapon presets.
type ImpactConfig struct {
	Spray   WeaponConfig `yaml:"spray" toml:"spray"`
	Crowbar WeaponConfig `yaml:"crowbar" toml:"crowbar"`
}

// AmbientConfig holds the ambient-condition provider levels.
type AmbientConfig struct {
	Enabled  bool    `yaml:"enabled" toml:"enabled"`
	Oxygen   float32 `yaml:"oxygen" toml:"oxygen"`
	Moisture float32 `yaml:"moisture" toml:"moisture"`
}

// QualityConfig holds the initial quality policy.
type QualityConfig struct {
	ObjectUpdatesPerFrame int    `yaml:"object_updates_per_frame" toml:"object_updates_per_frame"`
	VolumeResolution      int    `yaml:"volume_resolution" toml:"volume_resolution"`
	SoftRust              bool   `yaml:"soft_rust" toml:"soft_rust"`
	WatchFile             string `yaml:"watch_file" toml:"watch_file"` // Reloaded on change when set
}

// RenderingConfig holds the visualization switch.
type RenderingConfig struct {
	Mode string `yaml:"mode" toml:"mode"` // "debug" or "pretty"
}

// TelemetryConfig holds the websocket stats stream settings.
type TelemetryConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Addr    string `yaml:"addr" toml:"addr"`
	Every   int    `yaml:"every" toml:"every"` // Publish every N frames
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Simulation: SimulationConfig{
			Objects:             8,
			Frames:              600,
			FrameRate:           60,
			SimulationFrequency: 5,
			ErosionFrequency:    120,
			ErosionPhaseOffset:  1,
			ImpactsPerSecond:    4,
		},
		Field: FieldConfig{
			DiffusionRate:   0.1,
			EvaporationRate: 0.01,
			DripRate:        0.05,
			GrowthRate:      0.02,
			SpreadRate:      0.05,
			DamageRate:      0.005,
			Gravity:         [3]float32{0, -1, 0},
		},
		Erosion: ErosionConfig{
			Strength:    0.02,
			Async:       true,
			Workers:     2,
			QueueSize:   16,
			HullDivisor: 25,
			HullFloor:   0.015,
			Densify: DensifyConfig{
				MaxEdgeLength: 0.25,
				MaxPasses:     6,
				MaxTriangles:  60000,
			},
		},
		Impact: ImpactConfig{
			Spray: WeaponConfig{
				Radius:          0.15,
				Strength:        0.03,
				Penetration:     5,
				PenetrationCone: 0,
				ShootDelay:      0.016,
				Range:           100,
			},
			Crowbar: WeaponConfig{
				Radius:          0.3,
				Strength:        4,
				Penetration:     0.3,
				PenetrationCone: 20,
				ShootDelay:      0.5,
				Range:           50,
			},
		},
		Ambient: AmbientConfig{
			Enabled:  true,
			Oxygen:   0.2,
			Moisture: 0.5,
		},
		Quality: QualityConfig{
			ObjectUpdatesPerFrame: 1,
			VolumeResolution:      64,
			SoftRust:              true,
		},
		Rendering: RenderingConfig{
			Mode: "debug",
		},
		Telemetry: TelemetryConfig{
			Enabled: false,
			Addr:    "127.0.0.1:8089",
			Every:   10,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
