package discovery

import (
	"context"
	"encoding/json"
	"os"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

func waitToken(ctx context.Context, t mqtt.Token) error {
	select {
	case <-ctx.Done():
		return nil
	case <-t.Done():
	}
	return t.Error()
}

// Publish publishes the device discovery payload. If migrate is true, stale
// components recorded by a previous [Discovery.Diff] are removed first by
// publishing empty payloads to their per-component discovery topics.
func (d *Discovery) Publish(ctx context.Context, c mqtt.Client, migrate bool) error {
	if migrate {
		if err := d.removeComponents(ctx, c); err != nil {
			return err
		}
	}
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	topic := d.Topic("device", d.NodeID, d.ObjectID)
	t := c.Publish(topic, d.cfg.QoS, d.cfg.Retained, data)
	return waitToken(ctx, t)
}

// removeComponents publishes empty payloads to the discovery topic of each
// component recorded by [Discovery.Diff], deleting them from Home Assistant.
func (d *Discovery) removeComponents(ctx context.Context, c mqtt.Client) error {
	for name, platform := range d.removed {
		if platform == "" {
			platform = Sensor
		}
		topic := d.Topic(platform, d.NodeID, name)
		t := c.Publish(topic, d.cfg.QoS, d.cfg.Retained, []byte{})
		if err := waitToken(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

// persisted is the subset of the payload written to disk between runs, used
// to detect removed components.
type persisted struct {
	ObjectID   string            `json:"object_id"`
	NodeID     string            `json:"node_id"`
	Components map[string]string `json:"components"`
}

// Load reads the discovery previously written to path by [Discovery.Write].
func Load(path string) (*Discovery, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	d := &Discovery{
		ObjectID:   p.ObjectID,
		NodeID:     p.NodeID,
		Components: make(map[string]Component, len(p.Components)),
	}
	for name, platform := range p.Components {
		d.Components[name] = Component{Platform: platform}
	}
	return d, nil
}

// Write writes the parts of the discovery needed by a later [Load] to path.
func (d *Discovery) Write(path string) error {
	p := persisted{
		ObjectID:   d.ObjectID,
		NodeID:     d.NodeID,
		Components: make(map[string]string, len(d.Components)),
	}
	for name, cmp := range d.Components {
		platform, _ := cmp[Platform].(string)
		p.Components[name] = platform
	}
	data, err := json.MarshalIndent(&p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Diff records which of old's components no longer exist in d and reports
// whether any were found. A following [Discovery.Publish] with migrate set
// removes them.
func (d *Discovery) Diff(old *Discovery) bool {
	d.removed = make(map[string]string)
	for name, cmp := range old.Components {
		if _, ok := d.Components[name]; ok {
			continue
		}
		platform, _ := cmp[Platform].(string)
		d.removed[name] = platform
	}
	return len(d.removed) > 0
}
