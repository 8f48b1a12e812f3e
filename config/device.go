package config

import "time"

// DeviceConfig is the configuration of a single paired hydrometer.
type DeviceConfig struct {
	// ID is the backend's device identifier. Required.
	ID string `yaml:"id"`
	// Name is the display name of the device. If blank the backend's name
	// is used, falling back to the ID.
	Name string `yaml:"name,omitempty"`
	// Kind is the hydrometer type: "tilt", "ispindel", or "gravitymon".
	// If blank the backend's reported kind is used.
	Kind string `yaml:"kind,omitempty"`
	// Topic is the topic readings are published to. The default value is
	// "<topic_prefix>/device/<id>".
	Topic string `yaml:"topic,omitempty"`
	// Interval is the maximum time between readings before the device is
	// considered stale. Defaults to the bridge interval.
	Interval time.Duration `yaml:"interval,omitempty"`
}

func (d *DeviceConfig) applyDefaults(cfg *Config) {
	if d.Topic == "" {
		d.Topic = cfg.TopicPrefix + "/device/" + d.ID
	} else {
		d.Topic = ReplaceBase(cfg.TopicPrefix, d.Topic)
	}
	if d.Interval <= 0 {
		d.Interval = cfg.Interval
	}
	if d.Name == "" {
		d.Name = d.ID
	}
}
