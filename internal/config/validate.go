package config

import (
	"errors"
	"fmt"
)

// Rendering modes. The switch only changes how corrosion is visualized.
const (
	RenderingDebug  = "debug"
	RenderingPretty = "pretty"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Validate checks values the simulation cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Quality.ObjectUpdatesPerFrame < 1:
		return fmt.Errorf("%w: quality.object_updates_per_frame must be >= 1, got %d", ErrInvalid, c.Quality.ObjectUpdatesPerFrame)
	case c.Quality.VolumeResolution < 0:
		return fmt.Errorf("%w: quality.volume_resolution must be >= 0, got %d", ErrInvalid, c.Quality.VolumeResolution)
	case c.Simulation.SimulationFrequency < 1:
		return fmt.Errorf("%w: simulation.simulation_frequency must be >= 1, got %d", ErrInvalid, c.Simulation.SimulationFrequency)
	case c.Simulation.ErosionFrequency < 1:
		return fmt.Errorf("%w: simulation.erosion_frequency must be >= 1, got %d", ErrInvalid, c.Simulation.ErosionFrequency)
	case c.Simulation.Frames < 0:
		return fmt.Errorf("%w: simulation.frames must be >= 0, got %d", ErrInvalid, c.Simulation.Frames)
	case c.Erosion.Async && c.Erosion.Workers < 1:
		return fmt.Errorf("%w: erosion.workers must be >= 1 when async", ErrInvalid)
	case c.Erosion.HullDivisor <= 0:
		return fmt.Errorf("%w: erosion.hull_divisor must be > 0", ErrInvalid)
	case c.Erosion.Densify.MaxEdgeLength < 0:
		return fmt.Errorf("%w: erosion.densify.max_edge_length must be >= 0", ErrInvalid)
	}

	if c.Rendering.Mode != RenderingDebug && c.Rendering.Mode != RenderingPretty {
		return fmt.Errorf("%w: rendering.mode must be %q or %q, got %q", ErrInvalid, RenderingDebug, RenderingPretty, c.Rendering.Mode)
	}
	return nil
}
