// Package impact describes weapon hits on simulated objects and maps them
// into an object's volume space.
package impact

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/rustsim/internal/config"
)

// Kind selects how an impact is written into the field.
type Kind int

const (
	// KindSpray wets a sphere of the surface.
	KindSpray Kind = iota
	// KindCrowbar damages a cone into the material and knocks rust off.
	KindCrowbar
)

func (k Kind) String() string {
	switch k {
	case KindSpray:
		return "spray"
	case KindCrowbar:
		return "crowbar"
	}
	return "unknown"
}

// Event is one hit in world space. Events are values and never modified
// after creation.
type Event struct {
	Position            mgl32.Vec3 // Hit point on the surface
	SurfaceNormal       mgl32.Vec3
	Direction           mgl32.Vec3 // Travel direction of the hit, into the surface
	Radius              float32
	Strength            float32
	PenetrationStrength float32 // Maximum depth along Direction
	PenetrationConeDeg  float32 // Half angle of the penetration cone
	Kind                Kind
}

// Weapon is a preset that turns hits into events.
type Weapon struct {
	Kind            Kind
	Radius          float32
	Strength        float32
	Penetration     float32
	PenetrationCone float32 // Degrees
	ShootDelay      float32 // Seconds between shots
	Range           float32
}

// Presets holds one Weapon per kind.
type Presets struct {
	Spray   Weapon
	Crowbar Weapon
}

func weaponFromConfig(kind Kind, c config.WeaponConfig) Weapon {
	return Weapon{
		Kind:            kind,
		Radius:          c.Radius,
		Strength:        c.Strength,
		Penetration:     c.Penetration,
		PenetrationCone: c.PenetrationCone,
		ShootDelay:      c.ShootDelay,
		Range:           c.Range,
	}
}

// PresetsFromConfig builds the weapon presets from the impact config.
func PresetsFromConfig(c config.ImpactConfig) Presets {
	return Presets{
		Spray:   weaponFromConfig(KindSpray, c.Spray),
		Crowbar: weaponFromConfig(KindCrowbar, c.Crowbar),
	}
}

// For returns the preset of the given kind.
func (p Presets) For(k Kind) Weapon {
	if k == KindCrowbar {
		return p.Crowbar
	}
	return p.Spray
}

// Hit builds the event for a hit at pos with the given surface normal,
// travelling along dir.
func (w Weapon) Hit(pos, normal, dir mgl32.Vec3) Event {
	return Event{
		Position:            pos,
		SurfaceNormal:       normal,
		Direction:           dir,
		Radius:              w.Radius,
		Strength:            w.Strength,
		PenetrationStrength: w.Penetration,
		PenetrationConeDeg:  w.PenetrationCone,
		Kind:                w.Kind,
	}
}

// Trigger rate-limits a weapon to its shoot delay.
type Trigger struct {
	Weapon Weapon
	last   float64
	fired  bool
}

// Fire reports whether the weapon may shoot at time now (seconds) and
// records the shot if so.
func (t *Trigger) Fire(now float64) bool {
	if t.fired && now-t.last < float64(t.Weapon.ShootDelay) {
		return false
	}
	t.last = now
	t.fired = true
	return true
}

// Queue is a single-slot mailbox. A newer event replaces an unconsumed
// older one. Store may be called from any goroutine.
type Queue struct {
	mu      sync.Mutex
	event   Event
	pending bool
}

// Store replaces the pending event.
func (q *Queue) Store(e Event) {
	q.mu.Lock()
	q.event = e
	q.pending = true
	q.mu.Unlock()
}

// Take removes and returns the pending event.
func (q *Queue) Take() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.pending {
		return Event{}, false
	}
	e := q.event
	q.event = Event{}
	q.pending = false
	return e, true
}

// Pending reports whether an event is waiting.
func (q *Queue) Pending() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending
}
