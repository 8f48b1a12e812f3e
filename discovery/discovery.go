// Package discovery builds and publishes Home Assistant MQTT discovery
// payloads for the bridge and its hydrometers.
package discovery

import (
	"errors"
	"strings"

	"github.com/brewsignal/brewsignal/config"
)

// Component platforms.
const (
	BinarySensor = "binary_sensor"
	Button       = "button"
	Sensor       = "sensor"
)

// Entity categories.
const (
	Diagnostic = "diagnostic"
)

// Component is a single discovery component, keyed by the abbreviated
// option names Home Assistant accepts.
type Component map[Option]any

// Discoverer is implemented by anything that contributes components to the
// discovery payload.
type Discoverer interface {
	Discover(*Discovery)
}

// Discovery is the device discovery payload published to
// <prefix>/device/<node_id>/<object_id>/config.
type Discovery struct {
	Origin     *Origin              `json:"o"`
	Device     *Device              `json:"dev"`
	Components map[string]Component `json:"cmps"`

	cfg     *config.DiscoveryConfig
	removed map[string]string // component name -> platform

	AvailabilityTopic string `json:"-"`
	ObjectID          string `json:"-"`
	NodeID            string `json:"-"`
}

// New returns a new Discovery with the given config and the components of
// each given Discoverer.
func New(cfg *config.DiscoveryConfig, cmps ...Discoverer) (*Discovery, error) {
	dev := NewDevice(cfg.DeviceName)

	d := &Discovery{
		Origin:            NewOrigin(),
		Device:            dev,
		Components:        make(map[string]Component, len(cmps)),
		cfg:               cfg,
		NodeID:            cfg.NodeID,
		AvailabilityTopic: cfg.Availability,
	}
	if d.NodeID == "" {
		d.NodeID = "brewsignal"
	}
	if len(dev.Identifiers) == 0 {
		return nil, errors.New("no object id")
	}
	d.ObjectID = strings.Join(dev.Identifiers, "_")
	for i := range cmps {
		cmps[i].Discover(d)
	}
	return d, nil
}

// Topic returns the discovery topic for the given parts, e.g.
// <prefix>/device/<node_id>/<object_id>/config.
func (d *Discovery) Topic(parts ...string) string {
	elems := append([]string{d.cfg.Prefix}, parts...)
	return strings.Join(append(elems, "config"), "/")
}

// SetAvailability sets the availability of every component.
func (d *Discovery) SetAvailability(avail Component) {
	for cmp := range d.Components {
		d.Components[cmp][Availability] = avail
	}
}
