// Package brewcalc estimates brewing water volumes from a grain bill and a
// target batch size, using industry-typical constants. All quantities are
// metric: liters, kilograms, minutes.
package brewcalc

// Fixed process constants.
const (
	GrainAbsorption   = 0.96 // L of wort retained per kg of grain
	MashRatio         = 2.43 // L of strike water per kg of grain
	BoilOffRate       = 4.0  // L evaporated per hour of boil
	TrubLoss          = 0.5  // L left behind in the kettle
	GrainDisplacement = 0.67 // L of mash volume displaced per kg of grain
)

// DefaultBoilTime is assumed when no boil time is given.
const DefaultBoilTime = 60 // minutes

// Inputs are the parameters of a water calculation. A zero BoilTimeMin means
// [DefaultBoilTime]; a zero BoilSizeL means the pre-boil volume is derived
// from the batch size, boil-off, and trub loss.
type Inputs struct {
	BatchSizeL  float64
	GrainKg     float64
	BoilTimeMin float64
	BoilSizeL   float64
}

// Volumes is the result of a water calculation, all in liters and all
// non-negative.
type Volumes struct {
	MashWater   float64
	SpargeWater float64
	TotalWater  float64
	MashVolume  float64
}

// Calculate derives the water volumes for the given inputs. It returns nil
// when the inputs are insufficient (non-positive batch size or grain mass);
// there is no meaningful number to compute in that case, and callers render
// the absence rather than an error.
func Calculate(in Inputs) *Volumes {
	if in.BatchSizeL <= 0 || in.GrainKg <= 0 {
		return nil
	}

	boilTime := in.BoilTimeMin
	if boilTime <= 0 {
		boilTime = DefaultBoilTime
	}

	mashWater := in.GrainKg * MashRatio
	absorbed := in.GrainKg * GrainAbsorption

	preboil := in.BoilSizeL
	if preboil <= 0 {
		preboil = in.BatchSizeL + boilTime/60*BoilOffRate + TrubLoss
	}

	sparge := preboil - mashWater + absorbed
	if sparge < 0 {
		sparge = 0
	}

	return &Volumes{
		MashWater:   mashWater,
		SpargeWater: sparge,
		TotalWater:  mashWater + sparge,
		MashVolume:  mashWater + in.GrainKg*GrainDisplacement,
	}
}
