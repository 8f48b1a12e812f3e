// Package units provides conversions between the unit systems used for
// hydrometer readings. Temperatures are stored canonically in Celsius and
// gravities in specific gravity; everything else is a display concern.
package units

import (
	"strconv"

	"gopkg.in/yaml.v3"
)

// TempUnit is a temperature unit, identified by its symbol.
type TempUnit byte

const (
	Celsius    TempUnit = 'C'
	Fahrenheit TempUnit = 'F'
)

// UnmarshalYAML implements [yaml.Unmarshaler], accepting values like
// "C", "F", "celsius", or "fahrenheit".
func (u *TempUnit) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		*u = Celsius
		return nil
	}
	switch s[0] {
	case 'f', 'F':
		*u = Fahrenheit
	default:
		*u = Celsius
	}
	return nil
}

func (u TempUnit) String() string {
	if u == 0 {
		u = Celsius
	}
	return "°" + string(u)
}

// GravityUnit is a gravity representation.
type GravityUnit byte

const (
	SG    GravityUnit = 'G'
	Plato GravityUnit = 'P'
	Brix  GravityUnit = 'B'
)

// UnmarshalYAML implements [yaml.Unmarshaler], accepting values like
// "sg", "plato", or "brix".
func (u *GravityUnit) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		*u = SG
		return nil
	}
	switch s[0] {
	case 'p', 'P':
		*u = Plato
	case 'b', 'B':
		*u = Brix
	default:
		*u = SG
	}
	return nil
}

func (u GravityUnit) String() string {
	switch u {
	case Plato:
		return "°P"
	case Brix:
		return "°Bx"
	}
	return "SG"
}

// FahrenheitToCelsius converts f from Fahrenheit to Celsius.
func FahrenheitToCelsius(f float64) float64 {
	return (f - 32) * 5 / 9
}

// CelsiusToFahrenheit converts c from Celsius to Fahrenheit.
func CelsiusToFahrenheit(c float64) float64 {
	return c*9/5 + 32
}

// CelsiusTo converts v from Celsius to the given unit.
func CelsiusTo(v float64, u TempUnit) float64 {
	if u == Fahrenheit {
		return CelsiusToFahrenheit(v)
	}
	return v
}

// ToCelsius converts v from the given unit to Celsius.
func ToCelsius(v float64, u TempUnit) float64 {
	if u == Fahrenheit {
		return FahrenheitToCelsius(v)
	}
	return v
}

// TempPointToCelsius converts a (raw, actual) temperature pair from the given
// unit to Celsius, the canonical storage unit for calibration points.
func TempPointToCelsius(raw, actual float64, u TempUnit) (float64, float64) {
	if u == Fahrenheit {
		return FahrenheitToCelsius(raw), FahrenheitToCelsius(actual)
	}
	return raw, actual
}

// TempPointFromCelsius is the inverse of [TempPointToCelsius], converting a
// canonical (raw, actual) pair to the given display unit.
func TempPointFromCelsius(raw, actual float64, u TempUnit) (float64, float64) {
	if u == Fahrenheit {
		return CelsiusToFahrenheit(raw), CelsiusToFahrenheit(actual)
	}
	return raw, actual
}

// SGToPlato converts a specific gravity to degrees Plato using the ASBC
// cubic approximation.
func SGToPlato(sg float64) float64 {
	return -616.868 + 1111.14*sg - 630.272*sg*sg + 135.997*sg*sg*sg
}

// PlatoToSG converts degrees Plato to specific gravity.
func PlatoToSG(p float64) float64 {
	return 1 + p/(258.6-227.1*(p/258.2))
}

// SGToBrix converts a specific gravity to degrees Brix.
func SGToBrix(sg float64) float64 {
	return ((182.4601*sg-775.6821)*sg+1262.7794)*sg - 669.5622
}

// BrixToSG converts degrees Brix to specific gravity. Brix and Plato share
// the same rational form to within a few thousandths of a degree.
func BrixToSG(bx float64) float64 {
	return 1 + bx/(258.6-227.1*(bx/258.2))
}

// GravityFromSG converts a canonical specific gravity to the given unit.
func GravityFromSG(sg float64, u GravityUnit) float64 {
	switch u {
	case Plato:
		return SGToPlato(sg)
	case Brix:
		return SGToBrix(sg)
	}
	return sg
}

// GravityToSG converts v in the given unit to canonical specific gravity.
func GravityToSG(v float64, u GravityUnit) float64 {
	switch u {
	case Plato:
		return PlatoToSG(v)
	case Brix:
		return BrixToSG(v)
	}
	return v
}

// FormatTemperature formats a canonical Celsius value in the given display
// unit with one decimal place.
func FormatTemperature(c float64, u TempUnit) string {
	return strconv.FormatFloat(CelsiusTo(c, u), 'f', 1, 64) + " " + u.String()
}

// FormatGravity formats a canonical specific gravity in the given display
// unit. Specific gravity keeps its customary three decimals, Plato and Brix
// one.
func FormatGravity(sg float64, u GravityUnit) string {
	if u == Plato || u == Brix {
		return strconv.FormatFloat(GravityFromSG(sg, u), 'f', 1, 64) + " " + u.String()
	}
	return strconv.FormatFloat(sg, 'f', 3, 64)
}
