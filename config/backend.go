package config

import "time"

// BackendConfig is the configuration for the BrewSignal backend connection.
type BackendConfig struct {
	// URL is the base URL of the backend REST API, e.g.
	// "https://brew.example.net/api".
	URL string `yaml:"url"`
	// Token is the bearer token used to authenticate against the backend.
	Token string `yaml:"token,omitempty"`
	// StreamPath is the path of the live reading WebSocket endpoint,
	// relative to URL. The default value is "/ws/readings".
	StreamPath string `yaml:"stream_path,omitempty"`
	// Timeout is the per-request timeout for REST calls. A duration of 0
	// means no timeout.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

var DefaultBackend = BackendConfig{
	URL:        "$BREWSIGNAL_BACKEND_URL",
	Token:      "$BREWSIGNAL_BACKEND_TOKEN",
	StreamPath: "/ws/readings",
	Timeout:    10 * time.Second,
}

// IsZero indicates whether cfg is the default value.
func (cfg BackendConfig) IsZero() bool {
	return cfg == DefaultBackend
}
