package calibration_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/brewsignal/brewsignal/calibration"
)

const eps = 1e-9

func mustAdd(t *testing.T, s *calibration.Set, points ...calibration.Point) {
	t.Helper()
	for _, p := range points {
		if err := s.Add(p); err != nil {
			t.Fatalf("Add(%v): %v", p, err)
		}
	}
}

func TestCorrectEmpty(t *testing.T) {
	s := calibration.NewSet(calibration.Gravity, "tilt-red")
	for _, x := range []float64{0.995, 1.000, 1.048, 1.120} {
		if got := s.Correct(x); got != x {
			t.Errorf("empty set Correct(%v): got %v", x, got)
		}
	}
}

func TestCorrectSinglePoint(t *testing.T) {
	s := calibration.NewSet(calibration.Gravity, "tilt-red")
	mustAdd(t, s, calibration.Point{Raw: 1.040, Actual: 1.038})
	if got := s.Correct(1.050); math.Abs(got-1.048) > eps {
		t.Errorf("Correct(1.050): wanted 1.048, got %v", got)
	}
	if got := s.Correct(1.000); math.Abs(got-0.998) > eps {
		t.Errorf("Correct(1.000): wanted 0.998, got %v", got)
	}
}

func TestCorrectInterpolation(t *testing.T) {
	s := calibration.NewSet(calibration.Gravity, "tilt-red")
	mustAdd(t, s,
		calibration.Point{Raw: 1.000, Actual: 1.000},
		calibration.Point{Raw: 1.060, Actual: 1.058},
	)
	var tests = []struct {
		raw, want float64
	}{
		{1.030, 1.029}, // midpoint
		{1.000, 1.000}, // lower bracket edge
		{1.060, 1.058}, // upper bracket edge
		{1.070, 1.058 + (1.058-1.000)/(1.060-1.000)*0.010},
		{0.990, 1.000 + (1.058-1.000)/(1.060-1.000)*(0.990-1.000)},
	}
	for _, tt := range tests {
		if got := s.Correct(tt.raw); math.Abs(got-tt.want) > eps {
			t.Errorf("Correct(%v): wanted %v, got %v", tt.raw, tt.want, got)
		}
	}
}

func TestCorrectExtrapolationBelow(t *testing.T) {
	s := calibration.NewSet(calibration.Temperature, "spindel-01")
	mustAdd(t, s,
		calibration.Point{Raw: 10, Actual: 9.5},
		calibration.Point{Raw: 20, Actual: 19.8},
		calibration.Point{Raw: 30, Actual: 30.2},
	)
	// Below the first point the first segment's slope continues.
	want := 9.5 + (19.8-9.5)/(20.0-10.0)*(5.0-10.0)
	if got := s.Correct(5); math.Abs(got-want) > eps {
		t.Errorf("Correct(5): wanted %v, got %v", want, got)
	}
	// Interior readings use their own bracket.
	want = 19.8 + (30.2-19.8)/(30.0-20.0)*(25.0-20.0)
	if got := s.Correct(25); math.Abs(got-want) > eps {
		t.Errorf("Correct(25): wanted %v, got %v", want, got)
	}
}

func TestAddKeepsSorted(t *testing.T) {
	s := calibration.NewSet(calibration.Gravity, "tilt-red")
	mustAdd(t, s,
		calibration.Point{Raw: 1.060, Actual: 1.058},
		calibration.Point{Raw: 1.000, Actual: 1.000},
		calibration.Point{Raw: 1.030, Actual: 1.029},
	)
	pts := s.Points()
	for i := 1; i < len(pts); i++ {
		if pts[i-1].Raw >= pts[i].Raw {
			t.Fatalf("points not sorted: %v", pts)
		}
	}
}

func TestAddDuplicate(t *testing.T) {
	s := calibration.NewSet(calibration.Gravity, "tilt-red")
	mustAdd(t, s, calibration.Point{Raw: 1.000, Actual: 1.001})
	err := s.Add(calibration.Point{Raw: 1.0005, Actual: 1.002})
	if !errors.Is(err, calibration.ErrDuplicatePoint) {
		t.Fatalf("wanted ErrDuplicatePoint, got %v", err)
	}
	if err := s.Add(calibration.Point{Raw: 1.002, Actual: 1.003}); err != nil {
		t.Fatalf("point outside tolerance rejected: %v", err)
	}
}

func TestAddDuplicateTemperature(t *testing.T) {
	s := calibration.NewSet(calibration.Temperature, "spindel-01")
	mustAdd(t, s, calibration.Point{Raw: 20.0, Actual: 19.9})
	if err := s.Add(calibration.Point{Raw: 20.05, Actual: 20}); !errors.Is(err, calibration.ErrDuplicatePoint) {
		t.Fatalf("wanted ErrDuplicatePoint, got %v", err)
	}
	if err := s.Add(calibration.Point{Raw: 20.2, Actual: 20.1}); err != nil {
		t.Fatalf("point outside tolerance rejected: %v", err)
	}
}

func TestAddOutOfRange(t *testing.T) {
	var tests = []struct {
		kind calibration.Kind
		p    calibration.Point
	}{
		{calibration.Gravity, calibration.Point{Raw: 0.980, Actual: 1.000}},
		{calibration.Gravity, calibration.Point{Raw: 1.000, Actual: 1.250}},
		{calibration.Temperature, calibration.Point{Raw: -20, Actual: 0}},
		{calibration.Temperature, calibration.Point{Raw: 20, Actual: 150}},
		{calibration.Gravity, calibration.Point{Raw: math.NaN(), Actual: 1.0}},
	}
	for _, tt := range tests {
		s := calibration.NewSet(tt.kind, "dev")
		if err := s.Add(tt.p); !errors.Is(err, calibration.ErrOutOfRange) {
			t.Errorf("%s Add(%v): wanted ErrOutOfRange, got %v", tt.kind, tt.p, err)
		}
	}
}

func TestClear(t *testing.T) {
	s := calibration.NewSet(calibration.Gravity, "tilt-red")
	mustAdd(t, s, calibration.Point{Raw: 1.040, Actual: 1.038})
	s.Clear()
	if s.Len() != 0 {
		t.Fatalf("Len after Clear: %d", s.Len())
	}
	if got := s.Correct(1.050); got != 1.050 {
		t.Errorf("cleared set Correct(1.050): got %v", got)
	}
}

func TestDegenerateEqualRaws(t *testing.T) {
	// A record can carry points Add would have rejected; Correct must not
	// divide by zero.
	s := calibration.NewSetPoints(calibration.Gravity, "dev", []calibration.Point{
		{Raw: 1.040, Actual: 1.038},
		{Raw: 1.040, Actual: 1.042},
	})
	got := s.Correct(1.040)
	if math.IsNaN(got) || math.IsInf(got, 0) {
		t.Fatalf("Correct on equal raws: got %v", got)
	}
	if got != 1.038 {
		t.Errorf("Correct on equal raws: wanted lower actual 1.038, got %v", got)
	}
}

func TestRecordRoundTrip(t *testing.T) {
	g := calibration.NewSet(calibration.Gravity, "tilt-red")
	mustAdd(t, g,
		calibration.Point{Raw: 1.000, Actual: 1.000},
		calibration.Point{Raw: 1.060, Actual: 1.058},
	)
	temp := calibration.NewSet(calibration.Temperature, "tilt-red")
	mustAdd(t, temp, calibration.Point{Raw: 20.5, Actual: 20.0})

	rec := calibration.NewRecord(g, temp)
	if rec.Type != calibration.TypeLinear {
		t.Fatalf("record type: %q", rec.Type)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	var got calibration.Record
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal %s: %v", data, err)
	}
	g2, t2 := got.Sets("tilt-red")
	if g2.Len() != 2 || t2.Len() != 1 {
		t.Fatalf("set sizes after round trip: %d gravity, %d temperature", g2.Len(), t2.Len())
	}
	if corr := g2.Correct(1.030); math.Abs(corr-1.029) > eps {
		t.Errorf("Correct(1.030) after round trip: got %v", corr)
	}
}

func TestRecordNoneWhenBothEmpty(t *testing.T) {
	g := calibration.NewSet(calibration.Gravity, "dev")
	temp := calibration.NewSet(calibration.Temperature, "dev")

	rec := calibration.NewRecord(g, temp)
	if rec.Type != calibration.TypeNone || rec.Data != nil {
		t.Fatalf("empty record: %+v", rec)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"calibration_type":"none","calibration_data":null}`
	if string(data) != want {
		t.Errorf("wanted %s, got %s", want, data)
	}

	// One axis cleared, one still populated: stays linear.
	mustAdd(t, g, calibration.Point{Raw: 1.040, Actual: 1.038})
	temp.Clear()
	if rec := calibration.NewRecord(g, temp); rec.Type != calibration.TypeLinear {
		t.Errorf("one-axis record type: %q", rec.Type)
	}
}

func TestPointJSON(t *testing.T) {
	p := calibration.Point{Raw: 1.04, Actual: 1.038}
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[1.04,1.038]" {
		t.Errorf("marshal: got %s", data)
	}
	var got calibration.Point
	if err := json.Unmarshal([]byte("[1.05, 1.049]"), &got); err != nil {
		t.Fatal(err)
	}
	if got.Raw != 1.05 || got.Actual != 1.049 {
		t.Errorf("unmarshal: got %+v", got)
	}
	if err := json.Unmarshal([]byte("[1.05]"), &got); err == nil {
		t.Error("short tuple accepted")
	}
}
