package main

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/rustsim/internal/impact"
	"github.com/Faultbox/rustsim/internal/logger"
	"github.com/Faultbox/rustsim/internal/mesh"
	"github.com/Faultbox/rustsim/internal/picking"
	"github.com/Faultbox/rustsim/internal/sim"
)

// target is a snapshot of what the shooter needs from an object. Objects
// do not move after spawning, so it is taken once.
type target struct {
	obj      *sim.Object
	toWorld  mgl32.Mat4
	toObject mgl32.Mat4
	bounds   mesh.Bounds
	center   mgl32.Vec3
}

// shooter plays the hit-detection collaborator: it fires scripted spray
// and crowbar hits at random objects from its own goroutine.
type shooter struct {
	targets  []target
	interval time.Duration
	spray    impact.Trigger
	crowbar  impact.Trigger
	rng      *rand.Rand
	log      *zap.Logger
}

func newShooter(w *sim.World, perSecond int) *shooter {
	presets := impact.PresetsFromConfig(w.Config().Impact)
	s := &shooter{
		interval: time.Second / time.Duration(perSecond),
		spray:    impact.Trigger{Weapon: presets.Spray},
		crowbar:  impact.Trigger{Weapon: presets.Crowbar},
		rng:      rand.New(rand.NewPCG(1, 2)),
		log:      logger.Named("shooter"),
	}
	for _, o := range w.Objects() {
		b := o.Bounds()
		s.targets = append(s.targets, target{
			obj:      o,
			toWorld:  o.Transform(),
			toObject: o.WorldToObject(),
			bounds:   b,
			center:   o.Transform().Mul4x1(b.Center().Vec4(1)).Vec3(),
		})
	}
	return s
}

func (s *shooter) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	start := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.shoot(time.Since(start).Seconds())
		}
	}
}

func (s *shooter) shoot(now float64) {
	if len(s.targets) == 0 {
		return
	}
	t := s.targets[s.rng.IntN(len(s.targets))]

	trigger := &s.spray
	if s.rng.IntN(8) == 0 {
		trigger = &s.crowbar
	}

	// Aim at the object from a random direction, a few units out
	dir := mgl32.Vec3{
		float32(s.rng.NormFloat64()),
		float32(s.rng.NormFloat64()),
		float32(s.rng.NormFloat64()),
	}
	if dir.Len() < 1e-3 {
		return
	}
	origin := t.center.Add(dir.Normalize().Mul(6))
	ray := picking.NewRay(origin, t.center.Sub(origin))

	hit, ok := picking.CastBounds(ray, t.toWorld, t.toObject, t.bounds, trigger.Weapon.Range)
	if !ok || !trigger.Fire(now) {
		return
	}

	t.obj.StoreImpact(trigger.Weapon.Hit(hit.Position, hit.Normal, ray.Direction))
	s.log.Debug("hit",
		zap.String("object", t.obj.Name()),
		zap.Stringer("weapon", trigger.Weapon.Kind),
		zap.Float32("distance", hit.Distance))
}
