package brewcalc_test

import (
	"math"
	"testing"

	"github.com/brewsignal/brewsignal/brewcalc"
)

const eps = 1e-9

func TestCalculate(t *testing.T) {
	v := brewcalc.Calculate(brewcalc.Inputs{
		BatchSizeL:  19,
		GrainKg:     4.5,
		BoilTimeMin: 60,
	})
	if v == nil {
		t.Fatal("wanted a result")
	}
	var tests = []struct {
		name string
		got  float64
		want float64
	}{
		{"mash water", v.MashWater, 10.935},
		{"sparge water", v.SpargeWater, 16.885},
		{"total water", v.TotalWater, 27.82},
		{"mash volume", v.MashVolume, 13.965},
	}
	for _, tt := range tests {
		if math.Abs(tt.got-tt.want) > eps {
			t.Errorf("%s: wanted %v, got %v", tt.name, tt.want, tt.got)
		}
	}
}

func TestCalculateDefaultBoilTime(t *testing.T) {
	with := brewcalc.Calculate(brewcalc.Inputs{BatchSizeL: 19, GrainKg: 4.5, BoilTimeMin: 60})
	without := brewcalc.Calculate(brewcalc.Inputs{BatchSizeL: 19, GrainKg: 4.5})
	if *with != *without {
		t.Errorf("default boil time: %+v != %+v", without, with)
	}
}

func TestCalculateLongBoil(t *testing.T) {
	v := brewcalc.Calculate(brewcalc.Inputs{BatchSizeL: 19, GrainKg: 4.5, BoilTimeMin: 90})
	if v == nil {
		t.Fatal("wanted a result")
	}
	// 90 min boil adds half an hour of boil-off to the pre-boil volume.
	want := 19 + 1.5*brewcalc.BoilOffRate + brewcalc.TrubLoss - 10.935 + 4.32
	if math.Abs(v.SpargeWater-want) > eps {
		t.Errorf("sparge water: wanted %v, got %v", want, v.SpargeWater)
	}
}

func TestCalculateBoilSizeOverride(t *testing.T) {
	v := brewcalc.Calculate(brewcalc.Inputs{BatchSizeL: 19, GrainKg: 4.5, BoilSizeL: 25})
	if v == nil {
		t.Fatal("wanted a result")
	}
	want := 25 - 10.935 + 4.32
	if math.Abs(v.SpargeWater-want) > eps {
		t.Errorf("sparge water with override: wanted %v, got %v", want, v.SpargeWater)
	}
}

func TestCalculateSpargeClamped(t *testing.T) {
	// A huge grain bill for a tiny batch drives the sparge negative; it
	// must clamp at zero and keep every output non-negative.
	v := brewcalc.Calculate(brewcalc.Inputs{BatchSizeL: 4, GrainKg: 12})
	if v == nil {
		t.Fatal("wanted a result")
	}
	if v.SpargeWater != 0 {
		t.Errorf("sparge water: wanted 0, got %v", v.SpargeWater)
	}
	for _, x := range []float64{v.MashWater, v.SpargeWater, v.TotalWater, v.MashVolume} {
		if x < 0 || math.IsNaN(x) {
			t.Errorf("negative or NaN output: %+v", v)
		}
	}
}

func TestCalculateNotComputable(t *testing.T) {
	var tests = []brewcalc.Inputs{
		{BatchSizeL: 0, GrainKg: 4.5},
		{BatchSizeL: 19, GrainKg: 0},
		{BatchSizeL: -1, GrainKg: 4.5},
		{BatchSizeL: 19, GrainKg: -0.5},
		{},
	}
	for _, in := range tests {
		if v := brewcalc.Calculate(in); v != nil {
			t.Errorf("Calculate(%+v): wanted nil, got %+v", in, v)
		}
	}
}
