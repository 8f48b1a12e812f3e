package device

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/brewsignal/brewsignal/discovery"

	"github.com/brewsignal/brewsignal/api"
	"github.com/brewsignal/brewsignal/calibration"
	"github.com/brewsignal/brewsignal/config"
	"github.com/brewsignal/brewsignal/units"
)

func newTestHydrometer(t *testing.T) *Hydrometer {
	t.Helper()
	h, err := New(&config.DeviceConfig{
		ID:       "tilt-red",
		Name:     "Red Tilt",
		Kind:     "tilt",
		Topic:    "brewsignal/device/tilt-red",
		Interval: time.Minute,
	}, config.DefaultUnits, nil)
	if err != nil {
		t.Fatal(err)
	}
	return h
}

func TestParseKind(t *testing.T) {
	for _, s := range []string{"tilt", "ispindel", "gravitymon", ""} {
		if _, err := ParseKind(s); err != nil {
			t.Errorf("ParseKind(%q) = %v", s, err)
		}
	}
	if _, err := ParseKind("plaato"); err == nil {
		t.Error("ParseKind(\"plaato\") = nil, want error")
	}
}

func TestApplyCorrects(t *testing.T) {
	h := newTestHydrometer(t)
	gravity := calibration.NewSetPoints(calibration.Gravity, "tilt-red", []calibration.Point{
		{Raw: 1.040, Actual: 1.038},
	})
	temp := calibration.NewSetPoints(calibration.Temperature, "tilt-red", []calibration.Point{
		{Raw: 20.0, Actual: 19.5},
	})
	rec := calibration.NewRecord(gravity, temp)
	h.SetCalibration(&rec)

	err := h.Apply(&api.Reading{
		DeviceID:    "tilt-red",
		Gravity:     1.050,
		Temperature: 21.0,
	})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(h.gravity-1.048) > 1e-9 {
		t.Errorf("gravity = %v, want 1.048", h.gravity)
	}
	if h.temp != 20.5 {
		t.Errorf("temp = %v, want 20.5", h.temp)
	}
	if h.rawGravity != 1.050 || h.rawTemp != 21.0 {
		t.Errorf("raw = %v, %v", h.rawGravity, h.rawTemp)
	}
	if !h.changes.Has(hydroGravity) || !h.changes.Has(hydroTemperature) {
		t.Errorf("changes = %v", h.changes)
	}
}

func TestApplyNoChange(t *testing.T) {
	h := newTestHydrometer(t)
	r := api.Reading{DeviceID: "tilt-red", Gravity: 1.042, Temperature: 19.5}
	if err := h.Apply(&r); err != nil {
		t.Fatal(err)
	}
	if err := h.Apply(&r); err != ErrNoChange {
		t.Errorf("second Apply = %v, want ErrNoChange", err)
	}
}

func TestApplyWrongDevice(t *testing.T) {
	h := newTestHydrometer(t)
	if err := h.Apply(&api.Reading{DeviceID: "spindel-1"}); err == nil {
		t.Error("Apply = nil, want error")
	}
}

func TestCheckStale(t *testing.T) {
	h := newTestHydrometer(t)
	if err := h.checkStale(); err != ErrStale {
		t.Errorf("checkStale with no reading = %v, want ErrStale", err)
	}
	if err := h.checkStale(); err != ErrNoChange {
		t.Errorf("checkStale again = %v, want ErrNoChange", err)
	}
	if err := h.Apply(&api.Reading{DeviceID: "tilt-red", Gravity: 1.042, Temperature: 19.5}); err != nil {
		t.Fatal(err)
	}
	if h.stale {
		t.Error("stale after Apply")
	}
	if err := h.checkStale(); err != ErrNoChange {
		t.Errorf("checkStale after Apply = %v, want ErrNoChange", err)
	}
	h.lastSeen = time.Now().Add(-2 * time.Minute)
	if err := h.checkStale(); err != ErrStale {
		t.Errorf("checkStale after interval = %v, want ErrStale", err)
	}
}

func TestPayload(t *testing.T) {
	h := newTestHydrometer(t)
	battery := 87.5
	rssi := -68
	if err := h.Apply(&api.Reading{
		DeviceID:    "tilt-red",
		Gravity:     1.0421,
		Temperature: 19.54,
		Battery:     &battery,
		RSSI:        &rssi,
		Timestamp:   time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(h)
	if err != nil {
		t.Fatal(err)
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("invalid payload %s: %v", data, err)
	}
	want := map[string]any{
		"id":              "tilt-red",
		"kind":            "tilt",
		"gravity":         1.042,
		"raw_gravity":     1.042,
		"temperature":     19.5,
		"raw_temperature": 19.5,
		"battery":         87.5,
		"rssi":            float64(-68),
		"last_seen":       "2026-08-01T12:00:00Z",
		"stale":           false,
	}
	for k, v := range want {
		if payload[k] != v {
			t.Errorf("payload[%q] = %v, want %v", k, payload[k], v)
		}
	}
}

func TestPayloadFahrenheitPlato(t *testing.T) {
	h := newTestHydrometer(t)
	h.units = config.UnitsConfig{Temperature: units.Fahrenheit, Gravity: units.Plato}
	if err := h.Apply(&api.Reading{DeviceID: "tilt-red", Gravity: 1.040, Temperature: 20.0}); err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(h)
	if err != nil {
		t.Fatal(err)
	}
	var payload struct {
		Gravity     float64 `json:"gravity"`
		Temperature float64 `json:"temperature"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Temperature != 68.0 {
		t.Errorf("temperature = %v, want 68", payload.Temperature)
	}
	if payload.Gravity != 10.0 {
		t.Errorf("gravity = %v, want 10", payload.Gravity)
	}
}

func newTestDiscovery() (*discovery.Discovery, error) {
	return discovery.New(&config.DiscoveryConfig{DeviceName: "Test Bridge"})
}

func TestDiscoverComponents(t *testing.T) {
	h := newTestHydrometer(t)
	d, err := newTestDiscovery()
	if err != nil {
		t.Fatal(err)
	}
	h.Discover(d)
	for _, name := range []string{
		"brewsignal_tilt_red_gravity",
		"brewsignal_tilt_red_temperature",
		"brewsignal_tilt_red_battery",
		"brewsignal_tilt_red_signal",
		"brewsignal_tilt_red_stale",
		"brewsignal_tilt_red_update",
	} {
		if _, ok := d.Components[name]; !ok {
			t.Errorf("missing component %q", name)
		}
	}
}
