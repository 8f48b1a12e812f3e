// Package calibration implements the two-point linear calibration model
// applied to raw hydrometer readings. A device owns up to two calibration
// sets, one per axis (gravity and temperature), each a short list of
// (raw, actual) pairs kept sorted ascending by raw value. Correction is
// linear interpolation between the bracketing pair, extrapolating from the
// two nearest points outside the bracket.
//
// Temperature points are always held in Celsius and gravity points in
// specific gravity, regardless of the configured display units.
package calibration

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
)

// Kind identifies the axis a calibration set corrects.
type Kind byte

const (
	Gravity Kind = iota
	Temperature
)

func (k Kind) String() string {
	if k == Temperature {
		return "temperature"
	}
	return "gravity"
}

// Tolerances within which two raw values are considered the same point.
const (
	GravityTolerance     = 0.001 // SG
	TemperatureTolerance = 0.1   // °C
)

// Accepted value ranges. Values outside these bounds are sensor garbage and
// are rejected before ever reaching the backend.
const (
	MinGravity     = 0.990
	MaxGravity     = 1.200
	MinTemperature = -5.0  // °C
	MaxTemperature = 110.0 // °C
)

var (
	ErrDuplicatePoint = errors.New("duplicate calibration point")
	ErrOutOfRange     = errors.New("out of range")
)

func errDuplicate(k Kind, raw float64) error {
	return fmt.Errorf("%s %w at raw value %g", k, ErrDuplicatePoint, raw)
}

func errOutOfRange(k Kind, v float64) error {
	return fmt.Errorf("%s value %g is %w", k, v, ErrOutOfRange)
}

// Point is a single calibration point, pairing the value a sensor reported
// with the value a trusted reference measured.
type Point struct {
	Raw    float64
	Actual float64
}

// MarshalJSON encodes the point as a [raw, actual] tuple, the form the
// backend persists.
func (p Point) MarshalJSON() ([]byte, error) {
	return fmt.Appendf(nil, "[%g,%g]", p.Raw, p.Actual), nil
}

// UnmarshalJSON decodes a [raw, actual] tuple.
func (p *Point) UnmarshalJSON(data []byte) error {
	var tuple []float64
	if err := json.Unmarshal(data, &tuple); err != nil {
		return err
	}
	if len(tuple) != 2 {
		return fmt.Errorf("calibration point %s: want [raw, actual]", data)
	}
	p.Raw, p.Actual = tuple[0], tuple[1]
	return nil
}

// Set is an ordered calibration set for one axis of one device. The zero
// value is an empty gravity set. Sets are not safe for concurrent mutation.
type Set struct {
	kind   Kind
	device string
	points []Point
}

// NewSet returns an empty calibration set of the given kind owned by the
// given device.
func NewSet(kind Kind, device string) *Set {
	return &Set{kind: kind, device: device}
}

// NewSetPoints returns a calibration set populated with the given points,
// sorted ascending by raw value. Duplicate and range checks are not applied;
// the points are assumed to come from an already-validated record.
func NewSetPoints(kind Kind, device string, points []Point) *Set {
	s := &Set{kind: kind, device: device, points: slices.Clone(points)}
	s.sort()
	return s
}

func (s *Set) sort() {
	slices.SortStableFunc(s.points, func(a, b Point) int {
		switch {
		case a.Raw < b.Raw:
			return -1
		case a.Raw > b.Raw:
			return 1
		}
		return 0
	})
}

// Kind returns the axis the set corrects.
func (s *Set) Kind() Kind { return s.kind }

// Device returns the owning device identifier.
func (s *Set) Device() string { return s.device }

// Len returns the number of calibration points in the set.
func (s *Set) Len() int { return len(s.points) }

// Points returns a copy of the calibration points, sorted ascending by raw
// value.
func (s *Set) Points() []Point { return slices.Clone(s.points) }

func (s *Set) tolerance() float64 {
	if s.kind == Temperature {
		return TemperatureTolerance
	}
	return GravityTolerance
}

func (s *Set) bounds() (lo, hi float64) {
	if s.kind == Temperature {
		return MinTemperature, MaxTemperature
	}
	return MinGravity, MaxGravity
}

// Validate reports whether v is an acceptable raw or actual value for the
// set's axis.
func (s *Set) Validate(v float64) error {
	lo, hi := s.bounds()
	if math.IsNaN(v) || v < lo || v > hi {
		return errOutOfRange(s.kind, v)
	}
	return nil
}

// Add inserts a point into the set, keeping the ascending order by raw
// value. Points whose raw value lies within the axis tolerance of an
// existing point are rejected with [ErrDuplicatePoint]; values outside the
// axis bounds are rejected with [ErrOutOfRange]. Duplicate detection always
// happens in the canonical unit, so the result does not depend on the
// configured display unit.
func (s *Set) Add(p Point) error {
	if err := s.Validate(p.Raw); err != nil {
		return err
	}
	if err := s.Validate(p.Actual); err != nil {
		return err
	}
	tol := s.tolerance()
	for i := range s.points {
		if math.Abs(s.points[i].Raw-p.Raw) < tol {
			return errDuplicate(s.kind, p.Raw)
		}
	}
	s.points = append(s.points, p)
	s.sort()
	return nil
}

// Clear removes all points from the set, disabling calibration for its axis.
func (s *Set) Clear() {
	s.points = s.points[:0]
}

// Correct maps a raw sensor reading to a corrected value.
//
// With no points the reading is returned unchanged. With a single point the
// point's constant offset is applied. Otherwise the bracketing pair is
// interpolated linearly; readings below the first or above the last point
// extrapolate along the nearest segment.
func (s *Set) Correct(raw float64) float64 {
	switch len(s.points) {
	case 0:
		return raw
	case 1:
		return raw + s.points[0].Actual - s.points[0].Raw
	}
	i := len(s.points) - 2
	for j := 1; j < len(s.points); j++ {
		if raw <= s.points[j].Raw {
			i = j - 1
			break
		}
	}
	p0, p1 := s.points[i], s.points[i+1]
	if p1.Raw == p0.Raw {
		// Should be impossible given Add's tolerance check, but never
		// divide by zero on data that came in through a record.
		return p0.Actual
	}
	return p0.Actual + (p1.Actual-p0.Actual)*(raw-p0.Raw)/(p1.Raw-p0.Raw)
}
