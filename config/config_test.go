package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/brewsignal/brewsignal/config"
	"github.com/brewsignal/brewsignal/units"
)

func TestReplaceBase(t *testing.T) {
	var tests = []struct {
		base  string
		topic string
		want  string
	}{
		{"base", "~/topic/foo", "base/topic/foo"},
		{"base", "topic/foo/~", "topic/foo/base"},
		{"base", "~/topic/foo/~", "base/topic/foo/base"},
		{"base", "topic/~/foo", "topic/~/foo"},
	}
	for _, tt := range tests {
		got := config.ReplaceBase(tt.base, tt.topic)
		if got != tt.want {
			t.Errorf("%q: wanted %q, got %q", tt.topic, tt.want, got)
		}
	}
}

func TestExpand(t *testing.T) {
	t.Setenv("BREWSIGNAL_TEST_VAR", "hello")
	if got := config.Expand("$BREWSIGNAL_TEST_VAR"); got != "hello" {
		t.Errorf("wanted %q, got %q", "hello", got)
	}
	if got := config.Expand("plain"); got != "plain" {
		t.Errorf("wanted %q, got %q", "plain", got)
	}
}

func TestRead(t *testing.T) {
	const doc = `
topic_prefix: cellar
mqtt:
  broker: tcp://127.0.0.1:1883
  username: brew
  password: $BREWSIGNAL_TEST_PASSWORD
  birth_lwt_enabled: true
  birth_lwt_topic: ~/bridge/status
backend:
  url: http://localhost:8008/api
  token: t0k3n
units:
  temperature: fahrenheit
  gravity: plato
devices:
  - id: tilt-red
    kind: tilt
  - id: spindel-01
    kind: ispindel
    topic: ~/fermenter/two
`
	t.Setenv("BREWSIGNAL_TEST_PASSWORD", "s3cret")

	cfg, err := config.Read(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MQTT.Password != "s3cret" {
		t.Errorf("password: got %q", cfg.MQTT.Password)
	}
	if cfg.MQTT.BirthWillTopic != "cellar/bridge/status" {
		t.Errorf("birth topic: got %q", cfg.MQTT.BirthWillTopic)
	}
	if cfg.Discovery.Availability != "cellar/bridge/status" {
		t.Errorf("availability: got %q", cfg.Discovery.Availability)
	}
	if cfg.Units.Temperature != units.Fahrenheit || cfg.Units.Gravity != units.Plato {
		t.Errorf("units: got %+v", cfg.Units)
	}
	if len(cfg.Devices) != 2 {
		t.Fatalf("devices: got %d", len(cfg.Devices))
	}
	if got := cfg.Devices[0].Topic; got != "cellar/device/tilt-red" {
		t.Errorf("default device topic: got %q", got)
	}
	if got := cfg.Devices[1].Topic; got != "cellar/fermenter/two" {
		t.Errorf("device topic: got %q", got)
	}
	if cfg.Devices[0].Interval != cfg.Interval {
		t.Errorf("device interval: got %v", cfg.Devices[0].Interval)
	}
	if d := cfg.Device("spindel-01"); d == nil || d.Kind != "ispindel" {
		t.Errorf("Device lookup: got %+v", d)
	}
	if cfg.Device("nope") != nil {
		t.Error("Device lookup of unknown id succeeded")
	}
}

func TestDefault(t *testing.T) {
	cfg := config.Default()
	if cfg.TopicPrefix != config.DefaultBase {
		t.Errorf("prefix: got %q", cfg.TopicPrefix)
	}
	if cfg.Backend.StreamPath != "/ws/readings" {
		t.Errorf("stream path: got %q", cfg.Backend.StreamPath)
	}
	if cfg.Units.Temperature != units.Celsius || cfg.Units.Gravity != units.SG {
		t.Errorf("units: got %+v", cfg.Units)
	}
}

func TestSetInterval(t *testing.T) {
	cfg, err := config.Read(strings.NewReader("devices:\n  - id: a\n  - id: b\n"))
	if err != nil {
		t.Fatal(err)
	}
	cfg.SetInterval(time.Minute * 5)
	for i := range cfg.Devices {
		if cfg.Devices[i].Interval != 5*time.Minute {
			t.Errorf("device %d interval: got %v", i, cfg.Devices[i].Interval)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TopicPrefix != config.DefaultBase {
		t.Errorf("prefix: got %q", cfg.TopicPrefix)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("topic_prefix: cellar\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TopicPrefix != "cellar" {
		t.Errorf("prefix: got %q", cfg.TopicPrefix)
	}
}
