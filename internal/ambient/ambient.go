// Package ambient provides the scene-level conditions that drive corrosion.
package ambient

import (
	"math"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Faultbox/rustsim/internal/logger"
	"github.com/Faultbox/rustsim/internal/mathx"
)

// Fallback levels used when no provider is present.
const (
	DefaultOxygen   float32 = 0.2
	DefaultMoisture float32 = 0.5
)

// Levels are the two scalar inputs of the field step, both in [0,1].
type Levels struct {
	Oxygen   float32
	Moisture float32
}

// Defaults returns the fallback levels.
func Defaults() Levels {
	return Levels{Oxygen: DefaultOxygen, Moisture: DefaultMoisture}
}

// Provider exposes the current oxidizer and moisture availability.
type Provider interface {
	Levels() Levels
}

// Resolve returns p's levels, or the defaults when p is nil. The fallback
// is logged once per process.
func Resolve(p Provider) Levels {
	if p == nil {
		logger.WarnOnce("ambient.missing", "no ambient provider, using defaults",
			zap.Float32("oxygen", DefaultOxygen),
			zap.Float32("moisture", DefaultMoisture),
		)
		return Defaults()
	}
	return p.Levels()
}

// Atmosphere is a mutable Provider safe for concurrent use.
type Atmosphere struct {
	oxygen   atomic.Uint32
	moisture atomic.Uint32
}

// NewAtmosphere creates an atmosphere with the given levels.
func NewAtmosphere(oxygen, moisture float32) *Atmosphere {
	a := &Atmosphere{}
	a.Set(oxygen, moisture)
	return a
}

// Set changes both levels. Values are clamped to [0,1].
func (a *Atmosphere) Set(oxygen, moisture float32) {
	a.oxygen.Store(math.Float32bits(mathx.Saturate(oxygen)))
	a.moisture.Store(math.Float32bits(mathx.Saturate(moisture)))
}

// AdjustOxygen shifts the oxygen level by delta, never below 0.
func (a *Atmosphere) AdjustOxygen(delta float32) {
	l := a.Levels()
	a.Set(l.Oxygen+delta, l.Moisture)
}

// Levels implements Provider.
func (a *Atmosphere) Levels() Levels {
	return Levels{
		Oxygen:   math.Float32frombits(a.oxygen.Load()),
		Moisture: math.Float32frombits(a.moisture.Load()),
	}
}
