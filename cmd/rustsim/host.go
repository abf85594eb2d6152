package main

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/rustsim/internal/field"
	"github.com/Faultbox/rustsim/internal/logger"
	"github.com/Faultbox/rustsim/internal/sim"
)

// logHost stands in for a renderer: it keeps the committed geometry and
// logs what it would upload.
type logHost struct {
	log      *zap.Logger
	live     map[uuid.UUID]sim.Geometry
	fields   map[uuid.UUID]*field.Field
	uploads  int
	lastDraw int64
}

func newLogHost() *logHost {
	return &logHost{
		log:    logger.Named("host"),
		live:   make(map[uuid.UUID]sim.Geometry),
		fields: make(map[uuid.UUID]*field.Field),
	}
}

func (h *logHost) Commit(id uuid.UUID, g sim.Geometry) {
	h.live[id] = g
	h.uploads++

	hullFaces := 0
	if g.Hull != nil {
		hullFaces = len(g.Hull.Faces)
	}
	h.log.Debug("geometry committed",
		zap.String("id", id.String()),
		zap.Int("triangles", g.Proxy.TriangleCount()),
		zap.Int("hull_faces", hullFaces))
}

func (h *logHost) BindField(id uuid.UUID, f *field.Field) {
	h.fields[id] = f
	h.log.Debug("field bound",
		zap.String("id", id.String()),
		zap.Int("resolution", f.Resolution()),
		zap.Uint64("generation", f.Generation()))
}

func (h *logHost) Release(id uuid.UUID) {
	delete(h.live, id)
	delete(h.fields, id)
}

func (h *logHost) Submit(frame int64) {
	h.lastDraw = frame
	if frame%600 == 0 {
		h.log.Info("draw",
			zap.Int64("frame", frame),
			zap.Int("objects", len(h.live)),
			zap.Int("uploads", h.uploads))
	}
}
