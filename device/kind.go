package device

import "fmt"

// Kind is the type of a hydrometer.
type Kind string

// Supported hydrometer kinds.
const (
	Tilt       Kind = "tilt"
	ISpindel   Kind = "ispindel"
	GravityMon Kind = "gravitymon"
)

// ParseKind returns the Kind named by s, case sensitively. A blank s parses
// to the zero Kind, meaning not yet known.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case Tilt, ISpindel, GravityMon, "":
		return k, nil
	}
	return "", fmt.Errorf("unknown device kind %q", s)
}

// Manufacturer returns the maker of the hydrometer kind, for the device
// registry.
func (k Kind) Manufacturer() string {
	switch k {
	case Tilt:
		return "Baron Brew"
	case ISpindel:
		return "Open Source Community"
	case GravityMon:
		return "GravityMon"
	}
	return ""
}

func (k Kind) String() string {
	if k == "" {
		return "unknown"
	}
	return string(k)
}
