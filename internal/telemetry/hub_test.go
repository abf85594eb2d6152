package telemetry

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func waitSubscribers(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for h.Subscribers() != n {
		if time.Now().After(deadline) {
			t.Fatalf("subscribers = %d, want %d", h.Subscribers(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPublishReachesSubscribers(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	a, b := dial(t, srv), dial(t, srv)
	defer a.Close()
	defer b.Close()
	waitSubscribers(t, hub, 2)

	sent := FrameStats{
		Frame:      42,
		Throughput: 2,
		Resolution: 32,
		Mode:       "debug",
		Objects: []ObjectStats{
			{ID: "a", Name: "pipe", Steps: 7, MeanCorrosion: 0.25, State: "idle"},
		},
	}
	if err := hub.Publish(sent); err != nil {
		t.Fatal(err)
	}

	for _, conn := range []*websocket.Conn{a, b} {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		kind, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatal(err)
		}
		if kind != websocket.BinaryMessage {
			t.Errorf("message type %d, want binary", kind)
		}
		got, err := Decode(data)
		if err != nil {
			t.Fatal(err)
		}
		if got.Frame != 42 || len(got.Objects) != 1 || got.Objects[0].MeanCorrosion != 0.25 || got.Objects[0].Steps != 7 {
			t.Errorf("decoded %+v", got)
		}
	}
}

func TestSubscriberLeaves(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	waitSubscribers(t, hub, 1)
	conn.Close()
	waitSubscribers(t, hub, 0)

	if err := hub.Publish(FrameStats{Frame: 1}); err != nil {
		t.Errorf("publish with no subscribers: %v", err)
	}
}

func TestStalledSubscriberDoesNotBlockPublish(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	stalled, live := dial(t, srv), dial(t, srv)
	defer stalled.Close()
	defer live.Close()
	waitSubscribers(t, hub, 2)

	// Large frames fill the stalled peer's socket buffers quickly
	big := FrameStats{Objects: make([]ObjectStats, 2000)}
	for i := range big.Objects {
		big.Objects[i] = ObjectStats{Name: strings.Repeat("x", 64), State: "idle"}
	}

	received := make(chan int64, 1)
	go func() {
		var last int64
		for {
			_, data, err := live.ReadMessage()
			if err != nil {
				received <- last
				return
			}
			if fs, err := Decode(data); err == nil {
				last = fs.Frame
			}
		}
	}()

	const frames = 300
	var slowest time.Duration
	for f := int64(1); f <= frames; f++ {
		big.Frame = f
		start := time.Now()
		if err := hub.Publish(big); err != nil {
			t.Fatal(err)
		}
		slowest = max(slowest, time.Since(start))
	}
	if slowest >= writeWait/2 {
		t.Errorf("slowest publish took %v with a stalled subscriber", slowest)
	}
	if hub.Dropped() == 0 {
		t.Error("no frames dropped for a subscriber that never reads")
	}

	// The reading subscriber still gets the stream
	hub.Publish(FrameStats{Frame: frames + 1})
	live.SetReadDeadline(time.Now().Add(time.Second))
	if last := <-received; last == 0 {
		t.Error("live subscriber received nothing")
	}
}
