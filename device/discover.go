package device

import (
	"fmt"

	"github.com/brewsignal/brewsignal/discovery"
	"github.com/brewsignal/brewsignal/discovery/icon"
	"github.com/brewsignal/brewsignal/units"
)

func availabilityTemplate(topic string) string {
	return fmt.Sprintf(
		"{{ iif(value_json[%q]|default, 'online', 'offline') if value_json is defined else value }}",
		topic,
	)
}

// Discover adds the hydrometer's components to the discovery payload, one
// sensor per reported value plus a refresh button.
func (h *Hydrometer) Discover(d *discovery.Discovery) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	avail := availabilityTemplate(h.topic)
	slug := discovery.Slug(h.id)

	id := d.Origin.Name + "_" + slug + "_gravity"
	gravity := discovery.Component{
		discovery.Platform:             discovery.Sensor,
		discovery.Name:                 h.name + " gravity",
		discovery.Icon:                 icon.Gravity,
		discovery.StateClass:           "measurement",
		discovery.AvailabilityTopic:    d.AvailabilityTopic,
		discovery.AvailabilityTemplate: avail,
		discovery.StateTopic:           h.topic,
		discovery.ValueTemplate:        "{{ value_json.gravity }}",
		discovery.UniqueID:             id,
	}
	if h.units.Gravity == units.Plato || h.units.Gravity == units.Brix {
		gravity[discovery.UnitOfMeasurement] = h.units.Gravity.String()
		gravity[discovery.SuggestedDisplayPrecision] = 1
	} else {
		gravity[discovery.SuggestedDisplayPrecision] = 3
	}
	d.Components[id] = gravity

	id = d.Origin.Name + "_" + slug + "_temperature"
	d.Components[id] = discovery.Component{
		discovery.Platform:                  discovery.Sensor,
		discovery.Name:                      h.name + " temperature",
		discovery.DeviceClass:               "temperature",
		discovery.StateClass:                "measurement",
		discovery.AvailabilityTopic:         d.AvailabilityTopic,
		discovery.AvailabilityTemplate:      avail,
		discovery.StateTopic:                h.topic,
		discovery.ValueTemplate:             "{{ value_json.temperature }}",
		discovery.UnitOfMeasurement:         h.units.Temperature.String(),
		discovery.SuggestedDisplayPrecision: 1,
		discovery.UniqueID:                  id,
	}

	id = d.Origin.Name + "_" + slug + "_battery"
	d.Components[id] = discovery.Component{
		discovery.Platform:             discovery.Sensor,
		discovery.Name:                 h.name + " battery",
		discovery.EntityCategory:       discovery.Diagnostic,
		discovery.DeviceClass:          "battery",
		discovery.AvailabilityTopic:    d.AvailabilityTopic,
		discovery.AvailabilityTemplate: avail,
		discovery.StateTopic:           h.topic,
		discovery.ValueTemplate:        "{{ value_json.battery }}",
		discovery.UnitOfMeasurement:    "%",
		discovery.UniqueID:             id,
	}

	id = d.Origin.Name + "_" + slug + "_signal"
	d.Components[id] = discovery.Component{
		discovery.Platform:             discovery.Sensor,
		discovery.Name:                 h.name + " signal strength",
		discovery.EntityCategory:       discovery.Diagnostic,
		discovery.DeviceClass:          "signal_strength",
		discovery.AvailabilityTopic:    d.AvailabilityTopic,
		discovery.AvailabilityTemplate: avail,
		discovery.StateTopic:           h.topic,
		discovery.ValueTemplate:        "{{ value_json.rssi }}",
		discovery.UnitOfMeasurement:    "dBm",
		discovery.UniqueID:             id,
		discovery.EnabledByDefault:     false,
	}

	id = d.Origin.Name + "_" + slug + "_stale"
	d.Components[id] = discovery.Component{
		discovery.Platform:             discovery.BinarySensor,
		discovery.Name:                 h.name + " stale",
		discovery.EntityCategory:       discovery.Diagnostic,
		discovery.DeviceClass:          "problem",
		discovery.AvailabilityTopic:    d.AvailabilityTopic,
		discovery.AvailabilityTemplate: avail,
		discovery.StateTopic:           h.topic,
		discovery.ValueTemplate:        "{{ iif(value_json.stale, 'ON', 'OFF') }}",
		discovery.UniqueID:             id,
	}

	id = d.Origin.Name + "_" + slug + "_update"
	d.Components[id] = discovery.Component{
		discovery.Platform:       discovery.Button,
		discovery.Name:           h.name + " refresh",
		discovery.Icon:           icon.Update,
		discovery.EntityCategory: discovery.Diagnostic,
		discovery.CommandTopic:   h.topic + "/update",
		discovery.PayloadPress:   "update",
		discovery.UniqueID:       id,
	}
}
