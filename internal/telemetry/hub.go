// Package telemetry streams per-frame simulation stats to websocket
// subscribers as msgpack binary messages.
package telemetry

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/Faultbox/rustsim/internal/logger"
)

const (
	writeWait  = 2 * time.Second
	sendBuffer = 16
)

// ObjectStats is the per-object part of a frame.
type ObjectStats struct {
	ID            string  `msgpack:"id"`
	Name          string  `msgpack:"name"`
	Resolution    int     `msgpack:"res"`
	Steps         uint64  `msgpack:"steps"`
	Erosions      uint64  `msgpack:"erosions"`
	Impacts       uint64  `msgpack:"impacts"`
	Failures      uint64  `msgpack:"failures"`
	State         string  `msgpack:"state"`
	Triangles     int     `msgpack:"tris"`
	MeanCorrosion float32 `msgpack:"corrosion"`
	MeanMoisture  float32 `msgpack:"moisture"`
	MeanDamage    float32 `msgpack:"damage"`
}

// FrameStats is one telemetry message.
type FrameStats struct {
	Frame      int64         `msgpack:"frame"`
	Throughput int           `msgpack:"throughput"`
	Resolution int           `msgpack:"res"`
	Mode       string        `msgpack:"mode"`
	Objects    []ObjectStats `msgpack:"objects"`
}

// Decode unmarshals a message produced by the hub.
func Decode(data []byte) (FrameStats, error) {
	var fs FrameStats
	err := msgpack.Unmarshal(data, &fs)
	return fs, err
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// writePump drains the send queue onto the connection. A failed write
// closes the connection, which ends the subscriber's read loop.
func (s *subscriber) writePump(log *zap.Logger) {
	for data := range s.send {
		s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := s.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
			log.Debug("telemetry write failed", zap.Error(err))
			s.conn.Close()
			// Discard until the read loop notices and closes send
			for range s.send {
			}
			return
		}
	}
}

// Hub fans frame stats out to every connected subscriber. Publishing never
// waits on the network: each subscriber has a bounded queue and frames
// that do not fit are dropped for that subscriber.
type Hub struct {
	upgrader websocket.Upgrader
	log      *zap.Logger

	mu          sync.RWMutex
	subscribers map[*subscriber]struct{}

	dropped atomic.Uint64
}

// NewHub creates a hub with no subscribers.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log:         logger.Named("telemetry"),
		subscribers: make(map[*subscriber]struct{}),
	}
}

// ServeHTTP upgrades the request and keeps the subscriber until the peer
// goes away. Incoming messages are ignored.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	sub := &subscriber{conn: conn, send: make(chan []byte, sendBuffer)}
	go sub.writePump(h.log)

	h.mu.Lock()
	h.subscribers[sub] = struct{}{}
	h.mu.Unlock()
	h.log.Info("subscriber connected", zap.String("remote", r.RemoteAddr))

	defer func() {
		h.mu.Lock()
		delete(h.subscribers, sub)
		close(sub.send)
		h.mu.Unlock()
		h.log.Info("subscriber left", zap.String("remote", r.RemoteAddr))
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Dropped returns how many frames were skipped for slow subscribers.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// Publish encodes fs once and queues it for every subscriber. It does not
// block; a subscriber whose queue is full misses this frame.
func (h *Hub) Publish(fs FrameStats) error {
	data, err := msgpack.Marshal(&fs)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subscribers {
		select {
		case sub.send <- data:
		default:
			h.dropped.Add(1)
		}
	}
	return nil
}

// Serve listens on addr and serves the hub at /ws until ctx is done.
func (h *Hub) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return h.serve(ctx, ln)
}

func (h *Hub) serve(ctx context.Context, ln net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", h)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	h.log.Info("telemetry listening", zap.String("addr", ln.Addr().String()))
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
