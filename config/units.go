package config

import "github.com/brewsignal/brewsignal/units"

// UnitsConfig selects the display units for published readings. Stored
// values are always Celsius and specific gravity; these only affect what the
// bridge publishes and the CLI prints.
type UnitsConfig struct {
	Temperature units.TempUnit    `yaml:"temperature,omitempty"`
	Gravity     units.GravityUnit `yaml:"gravity,omitempty"`
}

var DefaultUnits = UnitsConfig{
	Temperature: units.Celsius,
	Gravity:     units.SG,
}
