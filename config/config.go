// Package config provides the structures used for configuration.
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/brewsignal/brewsignal/config/secrets"
	"github.com/brewsignal/brewsignal/log"
)

// DefaultBase is the default base of every topic the bridge publishes to.
const DefaultBase = "brewsignal"

// Config contains the configuration for the MQTT client, the backend
// connection, and the hydrometer devices. Config should be created with a
// call to [Default], [Read], or [Load], as some options require further
// processing than simply setting.
type Config struct {
	Interval    time.Duration   `yaml:"interval"`
	TopicPrefix string          `yaml:"topic_prefix"`
	MQTT        MQTTConfig      `yaml:"mqtt,omitempty"`
	Discovery   DiscoveryConfig `yaml:"discovery,omitempty"`
	Backend     BackendConfig   `yaml:"backend,omitempty"`
	Units       UnitsConfig     `yaml:"units,omitempty"`
	Devices     []DeviceConfig  `yaml:"devices,omitempty"`
	Log         LogConfig       `yaml:"log,omitempty"`
}

func defaultConfig() *Config {
	return &Config{
		Interval:    time.Minute,
		TopicPrefix: DefaultBase,
		MQTT:        DefaultMQTT,
		Discovery:   DefaultDiscovery,
		Backend:     DefaultBackend,
		Units:       DefaultUnits,
	}
}

// Default returns the default Config used when no config file is provided.
func Default() *Config {
	cfg := defaultConfig()
	cfg.load()
	return cfg
}

// Read returns the Config parsed from the yaml encoded config from r.
func Read(r io.Reader) (*Config, error) {
	cfg := defaultConfig()
	if err := yaml.NewDecoder(r).Decode(cfg); err != nil && err != io.EOF {
		return nil, err
	}
	return cfg, cfg.load()
}

// Load returns the Config parsed from the given yaml files, concatenated in
// order. If the first file does not exist, the default config is returned.
// Any path that is a directory contributes every .yaml/.yml file it
// contains.
func Load(file ...string) (*Config, error) {
	log.Info("Loading config", "path", file)
	if len(file) == 0 {
		return Default(), nil
	}
	if _, err := os.Stat(file[0]); err != nil {
		return Default(), nil
	}
	var buf bytes.Buffer
	for _, path := range file {
		if err := appendFile(&buf, path); err != nil {
			return nil, err
		}
	}
	return Read(&buf)
}

func appendFile(buf *bytes.Buffer, path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	if fi.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return err
		}
		for _, e := range entries {
			switch filepath.Ext(e.Name()) {
			case ".yaml", ".yml":
				if err := appendFile(buf, filepath.Join(path, e.Name())); err != nil {
					return err
				}
			}
		}
		return nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	buf.Write(b)
	buf.WriteByte('\n')
	return nil
}

var topicFields = []string{
	"BirthWillTopic", "Availability", "Topic", "WaitTopic",
}

// load expands every string field and rebases topic fields onto the
// configured prefix.
func (cfg *Config) load() error {
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = DefaultBase
	}
	cfg.forValue(reflect.ValueOf(cfg).Elem(), "")
	for i := range cfg.Devices {
		cfg.Devices[i].applyDefaults(cfg)
	}
	if cfg.Discovery.Availability == "" {
		cfg.Discovery.Availability = cfg.MQTT.BirthWillTopic
	}
	return nil
}

func (cfg *Config) forValue(v reflect.Value, field string) {
	switch v.Kind() {
	case reflect.String:
		s := Expand(v.String())
		for _, f := range topicFields {
			if f == field {
				s = ReplaceBase(cfg.TopicPrefix, s)
				break
			}
		}
		v.SetString(s)
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			cfg.forValue(v.FieldByIndex(f.Index), f.Name)
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			cfg.forValue(v.Index(i), field)
		}
	case reflect.Pointer:
		if !v.IsNil() {
			cfg.forValue(v.Elem(), field)
		}
	}
}

// Expand replaces ${var} or $var in s according to the values of the current
// environment variables, and replaces "!secret var" according to the file at
// /run/secrets/<var>.
func Expand(s string) string {
	if secret, ok := secrets.CutPrefix(s); ok {
		return secrets.MustRead(secret, "")
	}
	return os.ExpandEnv(s)
}

// ReplaceBase replaces a leading "~/" or trailing "/~" of topic with base.
func ReplaceBase(base, topic string) string {
	if s, ok := strings.CutPrefix(topic, "~/"); ok {
		topic = base + "/" + s
	}
	if s, ok := strings.CutSuffix(topic, "/~"); ok {
		topic = s + "/" + base
	}
	return topic
}

// Write writes the yaml encoding of cfg to w.
func (cfg *Config) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	enc.SetIndent(2)
	return enc.Encode(cfg)
}

// SetInterval sets the update interval for the bridge and every device that
// does not override it.
func (cfg *Config) SetInterval(d time.Duration) {
	cfg.Interval = d
	for i := range cfg.Devices {
		cfg.Devices[i].Interval = d
	}
}

// Device returns the config of the device with the given id, or nil.
func (cfg *Config) Device(id string) *DeviceConfig {
	for i := range cfg.Devices {
		if cfg.Devices[i].ID == id {
			return &cfg.Devices[i]
		}
	}
	return nil
}
