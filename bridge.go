package brewsignal

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/sync/errgroup"

	"github.com/brewsignal/brewsignal/api"
	"github.com/brewsignal/brewsignal/config"
	"github.com/brewsignal/brewsignal/device"
	"github.com/brewsignal/brewsignal/discovery"
	"github.com/brewsignal/brewsignal/log"
)

type stateMap struct {
	m  map[string]bool
	mu sync.Mutex
}

func (m *stateMap) Set(key string, state bool) {
	m.mu.Lock()
	m.m[key] = state
	m.mu.Unlock()
}

func (m *stateMap) Delete(key string) {
	m.mu.Lock()
	delete(m.m, key)
	m.mu.Unlock()
}

func (m *stateMap) MarshalJSON() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return json.Marshal(m.m)
}

var errNoDevices = errors.New("no devices")

// Bridge is the mqtt client that bridges corrected hydrometer readings to
// the mqtt broker.
type Bridge struct {
	client mqtt.Client
	api    *api.Client

	cfg          *config.Config
	topicPrefix  string
	discoveryCfg *config.DiscoveryConfig
	devices      []*device.Hydrometer
	states       stateMap

	stream  *api.Stream
	updates chan *device.Hydrometer
	once    sync.Once

	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
	ready  chan struct{}
	done   chan struct{}
}

// New returns a new Bridge with the provided config and a [mqtt.Client] derived from the config.
// The bridge must have [Bridge.Connect] and [Bridge.Ready] called on it before it may be used.
// This follows the convention of [mqtt.NewClient] as well as waiting for devices to be ready.
func New(cfg *config.Config) *Bridge {
	client := mqtt.NewClient(cfg.MQTT.ClientOptions())
	return NewWithClient(cfg, client)
}

// NewWithClient returns a new Bridge with the provided config and [mqtt.Client].
// The bridge must have [Bridge.Connect] and [Bridge.Ready] called on it before it may be used.
// This follows the convention of [mqtt.NewClient] as well as waiting for devices to be ready.
func NewWithClient(cfg *config.Config, c mqtt.Client) *Bridge {
	if cfg.MQTT.LogLevel <= log.LevelError {
		mqtt.ERROR = log.ErrorLogger()
	}
	if cfg.MQTT.LogLevel <= log.LevelWarn {
		mqtt.WARN = log.WarnLogger()
	}
	if cfg.MQTT.LogLevel <= log.LevelDebug {
		mqtt.DEBUG = log.DebugLogger()
	}
	if cfg.Discovery.Enabled && cfg.Discovery.DeviceName == "username" {
		cfg.Discovery.DeviceName = cfg.MQTT.Username
	}
	if cfg.Discovery.Availability == "" {
		cfg.Discovery.Availability = cfg.MQTT.BirthWillTopic
	}
	b := &Bridge{
		client:       c,
		api:          api.NewClient(&cfg.Backend),
		cfg:          cfg,
		topicPrefix:  cfg.TopicPrefix,
		discoveryCfg: &cfg.Discovery,
	}
	for i := range cfg.Devices {
		h, err := device.New(&cfg.Devices[i], cfg.Units, b.api)
		if err != nil {
			log.Error("Couldn't initialize device", err, "device", cfg.Devices[i].ID)
			continue
		}
		b.devices = append(b.devices, h)
	}
	return b
}

func waitToken(ctx context.Context, t mqtt.Token) error {
	select {
	case <-ctx.Done():
		return nil
	case <-t.Done():
	}
	return t.Error()
}

// Devices returns the bridged hydrometers.
func (b *Bridge) Devices() []*device.Hydrometer {
	b.mu.Lock()
	defer b.mu.Unlock()
	devs := make([]*device.Hydrometer, 0, len(b.devices))
	for _, h := range b.devices {
		if h != nil {
			devs = append(devs, h)
		}
	}
	return devs
}

// Device returns the hydrometer with the given backend id, or nil.
func (b *Bridge) Device(id string) *device.Hydrometer {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, h := range b.devices {
		if h != nil && h.ID() == id {
			return h
		}
	}
	return nil
}

// syncDevices pairs the bridge with the backend. Devices not present in the
// config are adopted from the backend's device list, then names, kinds, and
// calibration records are fetched concurrently.
func (b *Bridge) syncDevices(ctx context.Context) {
	if len(b.devices) == 0 {
		devs, err := b.api.Devices(ctx)
		if err != nil {
			log.Error("Couldn't list backend devices", err)
			return
		}
		for _, dev := range devs {
			cfg := config.DeviceConfig{
				ID:       dev.ID,
				Name:     dev.Name,
				Kind:     dev.Kind,
				Topic:    b.topicPrefix + "/device/" + dev.ID,
				Interval: b.cfg.Interval,
			}
			h, err := device.New(&cfg, b.cfg.Units, b.api)
			if err != nil {
				log.Error("Couldn't initialize device", err, "device", dev.ID)
				continue
			}
			b.mu.Lock()
			b.devices = append(b.devices, h)
			b.mu.Unlock()
		}
	}
	g, ctx := errgroup.WithContext(ctx)
	for _, h := range b.devices {
		h := h
		g.Go(func() error {
			if h.Kind() == "" {
				if dev, err := b.api.Device(ctx, h.ID()); err == nil {
					if kind, err := device.ParseKind(dev.Kind); err == nil {
						h.SetKind(kind)
					}
				}
			}
			rec, err := b.api.Calibration(ctx, h.ID())
			if err != nil {
				log.Warn("Couldn't fetch calibration", "device", h.ID(), "error", err)
				return nil
			}
			h.SetCalibration(rec)
			log.Debug("calibration loaded", "device", h.ID())
			return nil
		})
	}
	g.Wait()
}

func (b *Bridge) handleDevice(h *device.Hydrometer) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		msg.Ack()
		switch {
		case strings.HasSuffix(msg.Topic(), "update"):
			go func() {
				if err := h.Update(); err == nil {
					b.updates <- h
				}
			}()
		case strings.HasSuffix(msg.Topic(), "stop"):
			go h.Stop()
		}
	}
}

func (b *Bridge) publishBirthOrWill(ctx context.Context, isBirth bool) (err error) {
	var (
		data []byte
		opts = b.client.OptionsReader()
	)
	if ctx == nil {
		ctx = context.Background()
	}
	if isBirth {
		data, err = json.Marshal(&b.states)
		if err != nil {
			return
		}
	} else {
		data = opts.WillPayload()
	}
	t := b.client.Publish(opts.WillTopic(), opts.WillQos(), opts.WillRetained(), data)
	return waitToken(ctx, t)
}

func (b *Bridge) publishUpdates(ctx context.Context) {
	var done <-chan struct{}
	for {
		select {
		case <-ctx.Done():
			return
		case h, ok := <-b.updates:
			if !ok {
				return
			}
			data, _ := h.AppendText(nil)
			t := b.client.Publish(h.Topic(), 0, false, data)
			done = t.Done()
		case <-done:
			done = nil
		}
	}
}

// dispatch routes raw readings from the backend stream to their hydrometers.
func (b *Bridge) dispatch(ctx context.Context) {
	for r := range b.stream.Readings() {
		h := b.Device(r.DeviceID)
		if h == nil {
			log.Debug("reading for unpaired device", "device", r.DeviceID)
			continue
		}
		err := h.Apply(&r)
		if err == device.ErrNoChange {
			continue
		}
		if err != nil {
			log.Warn("Couldn't apply reading", "device", r.DeviceID, "error", err)
			continue
		}
		select {
		case b.updates <- h:
		case <-ctx.Done():
			return
		}
	}
}

func deviceTopics(h *device.Hydrometer) map[string]byte {
	return map[string]byte{
		h.Topic() + "/update": 0,
		h.Topic() + "/stop":   0,
	}
}

// Start pairs with the backend, sets up each device, and begins bridging
// readings. Corrected readings are published to the relevant device's topic.
func (b *Bridge) Start(ctx context.Context) {
	b.once.Do(func() {
		if ctx == nil {
			ctx = context.Background()
		}
		b.start(ctx)
	})
}

func (b *Bridge) startDevice(ctx context.Context, i int, h *device.Hydrometer) {
	if h.Topic() == "" {
		return
	}
	if err := h.Start(ctx); err != nil {
		log.Error("Error starting "+h.ID(), err)
		b.states.Set(h.Topic(), false)
		return
	}
	b.states.Set(h.Topic(), true)
	t := b.client.SubscribeMultiple(deviceTopics(h), b.handleDevice(h))
	if err := waitToken(ctx, t); err != nil {
		log.Error("Error subscribing to "+h.Topic(), err)
		return
	}
	b.wg.Add(1)
	go func(idx int, h *device.Hydrometer) {
		defer b.states.Delete(h.Topic())
		defer func() {
			h.Stop()
			b.mu.Lock()
			b.devices[idx] = nil
			b.mu.Unlock()
		}()
		defer b.wg.Done()
		ch := h.Updated()
		log.Info(h.ID() + " started")
		for err := range ch {
			if err == nil || err == device.ErrStale {
				b.updates <- h
			} else if err != device.ErrNoChange {
				log.Warn("Error updating device", "device", h.ID(), "err", err)
			}
		}
		log.Info(h.ID() + " done")
	}(i, h)
}

// start starts listening to the devices and the backend stream.
func (b *Bridge) start(ctx context.Context) {
	b.ready = make(chan struct{})
	b.done = make(chan struct{})
	b.updates = make(chan *device.Hydrometer)
	ctx, b.cancel = context.WithCancel(ctx)
	go func() {
		defer close(b.ready)
		b.syncDevices(ctx)
		b.states.m = make(map[string]bool, len(b.devices))
		for i, h := range b.devices {
			b.startDevice(ctx, i, h)
			select {
			case <-ctx.Done():
				return
			default:
			}
		}
		b.stream = b.api.Stream(ctx)
		go b.dispatch(ctx)
		if err := b.publishBirthOrWill(ctx, true); err != nil {
			log.Error("Unable to publish birth message", err)
		}
		go b.publishUpdates(ctx)
		if b.topicPrefix == "" {
			b.topicPrefix = config.DefaultBase
		}
		t := b.client.Subscribe(b.topicPrefix+"/bridge/stop", 0, func(_ mqtt.Client, msg mqtt.Message) {
			msg.Ack()
			b.Disconnect()
		})
		if err := waitToken(ctx, t); err != nil {
			log.Error("Unable to subscribe to stop topic", err)
		}
	}()
}

// Ready returns a channel that can be used to wait until all devices have been started.
func (b *Bridge) Ready() <-chan struct{} {
	return b.ready
}

// Done returns a channel that can be used to wait until the bridge has disconnected.
func (b *Bridge) Done() <-chan struct{} {
	return b.done
}

// Connect will create a connection to the message broker with the provided context, by default
// it will attempt to connect at v3.1.1 and auto retry at v3.1 if that
// fails
func (b *Bridge) Connect(ctx context.Context) error {
	if len(b.devices) == 0 && b.cfg.Backend.URL == "" {
		return errNoDevices
	}
	t := b.client.Connect()
	return waitToken(ctx, t)
}

// Disconnect will end the connection with the server.
func (b *Bridge) Disconnect() {
	if !b.client.IsConnected() {
		return
	}
	if err := b.publishBirthOrWill(nil, false); err != nil {
		log.Warn("Unable to publish LWT on graceful disconnect", "err", err)
	}
	b.client.Disconnect(500)
	if b.ready != nil {
		<-b.ready
	}
	b.cancel()
	if b.stream != nil {
		b.stream.Stop()
	}
	b.wg.Wait()
	close(b.updates)
	time.Sleep(time.Second)
	log.Info("Disconnected")
	close(b.done)
}

// Discover publishes the discovery payload(s) for Home Assistant MQTT discovery. If path
// is a non-empty string, the previous discovery is loaded from the file at path for
// removing old components.
func (b *Bridge) Discover(ctx context.Context, path string) (err error) {
	var old, d *discovery.Discovery
	if path != "" {
		old, err = discovery.Load(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	d, err = discovery.New(b.discoveryCfg)
	if err != nil {
		return err
	}
	for _, h := range b.Devices() {
		h.Discover(d)
	}
	var migrate bool
	if old != nil {
		migrate = d.Diff(old)
	}
	if err = d.Publish(ctx, b.client, migrate); err != nil {
		log.Error("Unable to perform discovery", err)
		return err
	}
	if path != "" {
		err = d.Write(path)
	}
	log.Info("Discovery complete")
	return
}
