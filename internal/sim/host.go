package sim

import (
	"github.com/google/uuid"

	"github.com/Faultbox/rustsim/internal/field"
	"github.com/Faultbox/rustsim/internal/hull"
	"github.com/Faultbox/rustsim/internal/mesh"
)

// Geometry is what an object hands to the rendering and collision host.
// The host must treat it as read-only; it stays valid until the next
// Commit for the same object.
type Geometry struct {
	Mesh  *mesh.Mesh
	Proxy mesh.Proxy
	Hull  *hull.Hull // May be nil when no hull could be built
}

// Host receives committed geometry and owns draw submission. All methods
// are called from the main tick.
type Host interface {
	// Commit replaces the live geometry of an object.
	Commit(id uuid.UUID, g Geometry)
	// BindField binds the object's field for sampling. Called again
	// whenever the field is reallocated.
	BindField(id uuid.UUID, f *field.Field)
	// Release drops every resource held for the object.
	Release(id uuid.UUID)
	// Submit is the draw-submission point of a frame.
	Submit(frame int64)
}

// NopHost discards everything.
type NopHost struct{}

func (NopHost) Commit(uuid.UUID, Geometry)        {}
func (NopHost) BindField(uuid.UUID, *field.Field) {}
func (NopHost) Release(uuid.UUID)                 {}
func (NopHost) Submit(int64)                      {}
