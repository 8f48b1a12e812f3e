package brewsignal

import (
	"bytes"
	"context"
	"encoding/json"
	stdlog "log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/brewsignal/brewsignal/api"
	"github.com/brewsignal/brewsignal/calibration"
	"github.com/brewsignal/brewsignal/config"
	"github.com/brewsignal/brewsignal/discovery"
	"github.com/brewsignal/brewsignal/mock"
)

func ExampleBridge() {
	cfg := config.Default()
	bridge := New(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := bridge.Connect(ctx); err != nil {
		stdlog.Fatal("Error connecting to broker", err)
	}
	defer func() {
		bridge.Disconnect()
	}()
	bridge.Start(ctx)
	<-bridge.Ready()
	if cfg.Discovery.Enabled {
		bridge.Discover(ctx, "")
	}
	<-ctx.Done()
}

type safeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// newTestBackend serves a single device, its calibration, and a reading
// stream that delivers one raw reading.
func newTestBackend(t *testing.T) *httptest.Server {
	t.Helper()
	var upgrader websocket.Upgrader
	mux := http.NewServeMux()
	mux.HandleFunc("/devices/tilt-red/calibration", func(w http.ResponseWriter, r *http.Request) {
		gravity := calibration.NewSetPoints(calibration.Gravity, "tilt-red", []calibration.Point{
			{Raw: 1.040, Actual: 1.038},
		})
		rec := calibration.NewRecord(gravity, nil)
		json.NewEncoder(w).Encode(&rec)
	})
	mux.HandleFunc("/devices/tilt-red/readings/latest", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(&api.Reading{
			DeviceID:    "tilt-red",
			Gravity:     1.052,
			Temperature: 20.0,
		})
	})
	mux.HandleFunc("/ws/readings", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteJSON(api.Reading{DeviceID: "tilt-red", Gravity: 1.050, Temperature: 19.0})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestConfig(srv *httptest.Server) *config.Config {
	cfg := config.Default()
	cfg.Interval = time.Minute
	cfg.Backend.URL = srv.URL
	cfg.Backend.StreamPath = "/ws/readings"
	cfg.Devices = []config.DeviceConfig{{
		ID:    "tilt-red",
		Name:  "Red Tilt",
		Kind:  "tilt",
		Topic: "brewsignal/device/tilt-red",
	}}
	cfg.Devices[0].Interval = cfg.Interval
	return cfg
}

func waitFor(t *testing.T, buf *safeBuffer, substr string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(buf.String(), substr) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %q in published output:\n%s", substr, buf.String())
}

func TestBridge(t *testing.T) {
	srv := newTestBackend(t)
	cfg := newTestConfig(srv)

	var buf safeBuffer
	client := mock.NewClient(cfg.MQTT.ClientOptions(), &buf)
	b := NewWithClient(cfg, client)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := b.Connect(ctx); err != nil {
		t.Fatal(err)
	}
	b.Start(ctx)
	<-b.Ready()

	// The streamed raw 1.050 is corrected by the single point offset.
	waitFor(t, &buf, `"gravity": 1.048`)
	if !strings.Contains(buf.String(), "brewsignal/device/tilt-red") {
		t.Errorf("missing device topic in output:\n%s", buf.String())
	}

	// A press on the refresh button forces a REST fetch of raw 1.052.
	if !client.Push("brewsignal/device/tilt-red/update", []byte("update")) {
		t.Fatal("no handler for update topic")
	}
	waitFor(t, &buf, `"gravity": 1.050`)

	b.Disconnect()
	<-b.Done()
}

func TestBridgeAdoptsBackendDevices(t *testing.T) {
	var upgrader websocket.Upgrader
	mux := http.NewServeMux()
	mux.HandleFunc("/devices", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]api.Device{{ID: "spindel-1", Name: "iSpindel", Kind: "ispindel"}})
	})
	mux.HandleFunc("/devices/spindel-1/calibration", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(&calibration.Record{Type: calibration.TypeNone})
	})
	mux.HandleFunc("/ws/readings", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := config.Default()
	cfg.Backend.URL = srv.URL

	var buf safeBuffer
	b := NewWithClient(cfg, mock.NewClient(cfg.MQTT.ClientOptions(), &buf))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := b.Connect(ctx); err != nil {
		t.Fatal(err)
	}
	b.Start(ctx)
	<-b.Ready()

	h := b.Device("spindel-1")
	if h == nil {
		t.Fatal("backend device not adopted")
	}
	if h.Name() != "iSpindel" {
		t.Errorf("Name = %q", h.Name())
	}
	b.Disconnect()
	<-b.Done()
}

func TestDiscover(t *testing.T) {
	srv := newTestBackend(t)
	cfg := newTestConfig(srv)

	var buf safeBuffer
	b := NewWithClient(cfg, mock.NewClient(cfg.MQTT.ClientOptions(), &buf))

	path := filepath.Join(t.TempDir(), "discovery.json")
	ctx := context.Background()
	if err := b.Discover(ctx, path); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "homeassistant/device/") {
		t.Errorf("missing discovery topic in output:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "brewsignal_tilt_red_gravity") {
		t.Errorf("missing gravity component in output:\n%s", buf.String())
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatal(err)
	}

	d, err := discovery.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := d.Components["brewsignal_tilt_red_gravity"]; !ok {
		t.Errorf("gravity component not persisted, got %v", d.Components)
	}
}
