package discovery

import (
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/brewsignal/brewsignal/internal/build"
)

// Connection is a tuple of the form [connection_type, connection_identifier]
// used for the device mapping of the discovery payload.
type Connection [2]string

// Device implements the device mapping for the discovery payload. This ties
// components together in Home Assistant's device registry.
type Device struct {
	ConfigurationURL string       `json:"cu,omitempty"`
	Connections      []Connection `json:"cns,omitempty"`
	HWVersion        string       `json:"hw,omitempty"`
	Identifiers      []string     `json:"ids,omitempty"`
	Manufacturer     string       `json:"mf,omitempty"`
	Model            string       `json:"mdl,omitempty"`
	ModelID          string       `json:"mdl_id,omitempty"`
	Name             string       `json:"name,omitempty"`
	SerialNumber     string       `json:"sn,omitempty"`
	SuggestedArea    string       `json:"sa,omitempty"`
	SWVersion        string       `json:"sw,omitempty"`
}

// Slug lower-cases s and replaces everything outside [a-z0-9] with
// underscores, producing a valid object_id fragment.
func Slug(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, c := range strings.ToLower(s) {
		switch {
		case 'a' <= c && c <= 'z', '0' <= c && c <= '9':
			b.WriteRune(c)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// NewDevice returns a new Device named name, or after the host when name is
// blank. The identifier is derived from the name, so one bridge per device
// name may be discovered.
func NewDevice(name string) *Device {
	if name == "" {
		if host, err := os.Hostname(); err == nil && host != "localhost" {
			name = cases.Title(language.English).String(host)
		} else {
			name = "BrewSignal"
		}
	}
	return &Device{
		Name:        name,
		Identifiers: []string{"brewsignal_" + Slug(name)},
		Model:       "BrewSignal Bridge",
		SWVersion:   build.Version(),
	}
}
