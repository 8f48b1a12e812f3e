// Package device provides the hydrometers bridged to MQTT.
package device

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/brewsignal/brewsignal/api"
	"github.com/brewsignal/brewsignal/calibration"
	"github.com/brewsignal/brewsignal/config"
	"github.com/brewsignal/brewsignal/log"
	"github.com/brewsignal/brewsignal/units"
)

var (
	// ErrNoChange indicates a successful update that changed nothing.
	ErrNoChange = errors.New("no change")
	// ErrStale indicates the device has not reported within its interval.
	ErrStale = errors.New("stale")
)

type hydroFlag uint8

const (
	hydroGravity hydroFlag = 1 << iota
	hydroTemperature
	hydroBattery
	hydroSignal
	hydroStale
)

func (f hydroFlag) Has(flags hydroFlag) bool {
	return f&flags != 0
}

func (f hydroFlag) String() string {
	var s []string
	if f.Has(hydroGravity) {
		s = append(s, "gravity")
	}
	if f.Has(hydroTemperature) {
		s = append(s, "temperature")
	}
	if f.Has(hydroBattery) {
		s = append(s, "battery")
	}
	if f.Has(hydroSignal) {
		s = append(s, "signal")
	}
	if f.Has(hydroStale) {
		s = append(s, "stale")
	}
	return fmt.Sprintf("%s (%05b)", strings.Join(s, "|"), f)
}

// Hydrometer is a single paired hydrometer. Raw readings arrive over the
// backend stream via [Hydrometer.Apply], or on demand via
// [Hydrometer.Update], and corrected values are held in canonical units
// until rendered for publishing.
type Hydrometer struct {
	client *api.Client

	id   string
	name string
	kind Kind

	gravitySet *calibration.Set
	tempSet    *calibration.Set
	units      config.UnitsConfig

	rawGravity  float64
	gravity     float64
	rawTemp     float64
	temp        float64
	battery     *float64
	rssi        *int
	lastSeen    time.Time
	hasReading  bool
	stale       bool

	changes hydroFlag

	interval time.Duration
	tick     *time.Ticker
	topic    string

	mu   sync.RWMutex
	once sync.Once
	stop context.CancelFunc
	ch   chan error
}

// New returns a new Hydrometer for cfg, with readings fetched and corrected
// through client. The calibration sets start empty until
// [Hydrometer.SetCalibration] is called.
func New(cfg *config.DeviceConfig, u config.UnitsConfig, client *api.Client) (*Hydrometer, error) {
	kind, err := ParseKind(cfg.Kind)
	if err != nil {
		return nil, err
	}
	return &Hydrometer{
		client:     client,
		id:         cfg.ID,
		name:       cfg.Name,
		kind:       kind,
		units:      u,
		gravitySet: calibration.NewSet(calibration.Gravity, cfg.ID),
		tempSet:    calibration.NewSet(calibration.Temperature, cfg.ID),
		interval:   cfg.Interval,
		topic:      cfg.Topic,
	}, nil
}

// ID returns the backend identifier of the hydrometer.
func (h *Hydrometer) ID() string {
	return h.id
}

// Name returns the display name of the hydrometer.
func (h *Hydrometer) Name() string {
	return h.name
}

// Kind returns the hydrometer type.
func (h *Hydrometer) Kind() Kind {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.kind
}

// Type returns the constant string "hydrometer".
func (*Hydrometer) Type() string {
	return "hydrometer"
}

// Topic returns the topic readings are published to.
func (h *Hydrometer) Topic() string {
	return h.topic
}

// SetInterval sets the staleness interval of the hydrometer.
func (h *Hydrometer) SetInterval(d time.Duration) {
	h.mu.Lock()
	if h.tick != nil && d != h.interval {
		h.tick.Reset(d)
	}
	h.interval = d
	h.mu.Unlock()
}

// SetCalibration replaces both calibration sets from the backend record.
func (h *Hydrometer) SetCalibration(rec *calibration.Record) {
	gravity, temp := rec.Sets(h.id)
	h.mu.Lock()
	h.gravitySet = gravity
	h.tempSet = temp
	h.mu.Unlock()
}

// Calibration returns the record of the hydrometer's current calibration.
func (h *Hydrometer) Calibration() calibration.Record {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return calibration.NewRecord(h.gravitySet, h.tempSet)
}

// SetKind sets the hydrometer type when it was not configured, as reported
// by the backend.
func (h *Hydrometer) SetKind(kind Kind) {
	h.mu.Lock()
	if h.kind == "" {
		h.kind = kind
	}
	h.mu.Unlock()
}

func (h *Hydrometer) loop(ctx context.Context) {
	h.mu.Lock()
	h.tick = time.NewTicker(h.interval)
	h.mu.Unlock()

	defer h.tick.Stop()
	defer close(h.ch)
	var (
		err error
		ch  chan error
	)
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.tick.C:
			err = h.checkStale()
			if err == ErrNoChange {
				log.Debug("hydrometer checked, no change", "device", h.id)
				break
			}
			log.Debug("hydrometer stale", "device", h.id)
			ch = h.ch
		case ch <- err:
			ch = nil
		}
	}
}

// Start starts watching for staleness. This may only be called once per
// hydrometer. Any calls to Start after stopping do nothing.
func (h *Hydrometer) Start(ctx context.Context) (err error) {
	if h.interval == 0 {
		return
	}
	h.once.Do(func() {
		ctx, h.stop = context.WithCancel(ctx)
		h.ch = make(chan error)
		go h.loop(ctx)
	})
	return
}

func (h *Hydrometer) checkStale() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	wasStale := h.stale
	h.stale = !h.hasReading || time.Since(h.lastSeen) > h.interval
	if h.stale == wasStale {
		return ErrNoChange
	}
	h.changes = hydroStale
	if h.stale {
		return ErrStale
	}
	return nil
}

func (h *Hydrometer) apply(r *api.Reading) error {
	h.changes = 0

	gravity := h.gravitySet.Correct(r.Gravity)
	if r.Gravity != h.rawGravity || gravity != h.gravity {
		h.changes |= hydroGravity
	}
	h.rawGravity = r.Gravity
	h.gravity = gravity

	temp := h.tempSet.Correct(r.Temperature)
	if r.Temperature != h.rawTemp || temp != h.temp {
		h.changes |= hydroTemperature
	}
	h.rawTemp = r.Temperature
	h.temp = temp

	if r.Battery != nil && (h.battery == nil || *r.Battery != *h.battery) {
		h.changes |= hydroBattery
	}
	if r.Battery != nil {
		h.battery = r.Battery
	}
	if r.RSSI != nil && (h.rssi == nil || *r.RSSI != *h.rssi) {
		h.changes |= hydroSignal
	}
	if r.RSSI != nil {
		h.rssi = r.RSSI
	}

	if h.stale {
		h.changes |= hydroStale
	}
	h.stale = false
	h.hasReading = true
	if !r.Timestamp.IsZero() {
		h.lastSeen = r.Timestamp
	} else {
		h.lastSeen = time.Now()
	}
	if h.tick != nil {
		h.tick.Reset(h.interval)
	}
	if h.changes == 0 {
		return ErrNoChange
	}
	return nil
}

// Apply applies a raw reading delivered on the backend stream. The reading
// must belong to this hydrometer.
func (h *Hydrometer) Apply(r *api.Reading) error {
	if r.DeviceID != h.id {
		return fmt.Errorf("reading for %q applied to %q", r.DeviceID, h.id)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.apply(r)
}

// Update fetches the latest raw reading from the backend, regardless of the
// stream. It implements forced refreshes from the update command topic.
func (h *Hydrometer) Update() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	r, err := h.client.LatestReading(ctx, h.id)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.apply(r)
}

// Updated returns the channel staleness transitions are delivered on. A nil
// value indicates the hydrometer came back, [ErrStale] that it went away.
func (h *Hydrometer) Updated() <-chan error {
	return h.ch
}

// Stop stops watching for staleness. The hydrometer may not be restarted
// after stopping.
func (h *Hydrometer) Stop() {
	h.mu.Lock()
	if h.stop != nil {
		h.stop()
	}
	h.mu.Unlock()
}

func (h *Hydrometer) String() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var b strings.Builder
	b.WriteString(h.name)
	b.WriteString(" (")
	b.WriteString(h.kind.String())
	b.WriteByte(')')
	if h.hasReading {
		b.WriteString(": ")
		b.WriteString(units.FormatGravity(h.gravity, h.units.Gravity))
		b.WriteString(", ")
		b.WriteString(units.FormatTemperature(h.temp, h.units.Temperature))
	}
	return b.String()
}

func appendFloat(b []byte, v float64, prec int) []byte {
	return strconv.AppendFloat(b, v, 'f', prec, 64)
}

// AppendText appends the JSON state payload to b. Gravity and temperature
// are rendered in the configured display units, raw values alongside.
func (h *Hydrometer) AppendText(b []byte) ([]byte, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	gravPrec := 3
	if h.units.Gravity == units.Plato || h.units.Gravity == units.Brix {
		gravPrec = 1
	}
	b = append(b, "{\"id\": \""...)
	b = append(b, h.id...)
	b = append(b, "\", \"kind\": \""...)
	b = append(b, h.kind.String()...)
	b = append(b, "\", \"gravity\": "...)
	b = appendFloat(b, units.GravityFromSG(h.gravity, h.units.Gravity), gravPrec)
	b = append(b, ", \"raw_gravity\": "...)
	b = appendFloat(b, units.GravityFromSG(h.rawGravity, h.units.Gravity), gravPrec)
	b = append(b, ", \"temperature\": "...)
	b = appendFloat(b, units.CelsiusTo(h.temp, h.units.Temperature), 1)
	b = append(b, ", \"raw_temperature\": "...)
	b = appendFloat(b, units.CelsiusTo(h.rawTemp, h.units.Temperature), 1)
	if h.battery != nil {
		b = append(b, ", \"battery\": "...)
		b = appendFloat(b, *h.battery, 1)
	}
	if h.rssi != nil {
		b = append(b, ", \"rssi\": "...)
		b = strconv.AppendInt(b, int64(*h.rssi), 10)
	}
	if !h.lastSeen.IsZero() {
		b = append(b, ", \"last_seen\": \""...)
		b = h.lastSeen.UTC().AppendFormat(b, time.RFC3339)
		b = append(b, '"')
	}
	b = append(b, ", \"stale\": "...)
	b = strconv.AppendBool(b, h.stale)
	return append(b, '}'), nil
}

// MarshalJSON implements json.Marshaler.
func (h *Hydrometer) MarshalJSON() ([]byte, error) {
	return h.AppendText(nil)
}
