// Package brewsignal implements a bridge to provide corrected hydrometer
// readings from a BrewSignal backend to the MQTT broker.
//
// Configuration can be loaded from multiple YAML files, including from directories.
// If no config file is specified, the default path(s) will be determined by the first
// defined value of $BREWSIGNAL_CONFIG_PATH, $XDG_CONFIG_HOME/brewsignal.yaml, or
// $HOME/.config/brewsignal.yaml. In the case of $BREWSIGNAL_CONFIG_PATH, the value may
// be a comma-separated list of paths. If none of these files exist, the default
// configuration will be used, which looks for the following environment variables:
//
//   - broker:   $BREWSIGNAL_BROKER_ADDRESS
//   - username: $BREWSIGNAL_BROKER_USERNAME
//   - password: $BREWSIGNAL_BROKER_PASSWORD
//   - backend:  $BREWSIGNAL_BACKEND_URL
//   - token:    $BREWSIGNAL_BACKEND_TOKEN
//
// Full documentation is available at:
// https://pkg.go.dev/github.com/brewsignal/brewsignal
package brewsignal
