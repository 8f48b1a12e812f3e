// Package icon provides a few useful [Material Design Icons].
//
// [Material Design Icons]: https://pictogrammers.com/library/mdi/
package icon

// Icon names
const (
	Battery     = "mdi:battery"
	Beer        = "mdi:beer"
	Chart       = "mdi:chart-line"
	Restart     = "mdi:restart"
	TestTube    = "mdi:test-tube"
	Thermometer = "mdi:thermometer"
	Update      = "mdi:update"
	Wifi        = "mdi:wifi"
)

// Icon aliases
const (
	Gravity     = TestTube
	Temperature = Thermometer
	Signal      = Wifi
)
