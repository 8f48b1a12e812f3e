package discovery

import "github.com/brewsignal/brewsignal/internal/build"

// Origin implements the origin mapping for the discovery payload. This
// provides context to Home Assistant on the origin of the components.
type Origin struct {
	Name       string `json:"name"`
	SWVersion  string `json:"sw,omitempty"`
	SupportURL string `json:"url,omitempty"`
}

// NewOrigin returns the default Origin for the bridge.
func NewOrigin() *Origin {
	return &Origin{
		Name:       "brewsignal",
		SWVersion:  build.Version(),
		SupportURL: "https://" + build.Package(),
	}
}
