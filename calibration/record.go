package calibration

// Record is the combined calibration record the backend persists per device.
// Both axes share a single record: Type is "none" only when both axes are
// empty, otherwise "linear". Temperature points are always Celsius.
type Record struct {
	Type string `json:"calibration_type"`
	Data *Data  `json:"calibration_data"`
}

// Data holds the per-axis point lists of a [Record].
type Data struct {
	Points     []Point `json:"points,omitempty"`
	TempPoints []Point `json:"temp_points,omitempty"`
}

// Record types.
const (
	TypeLinear = "linear"
	TypeNone   = "none"
)

// NewRecord builds the combined record for a device's gravity and
// temperature sets. Either set may be nil or empty; clearing one axis does
// not affect the other, and the record only degrades to "none" once both are
// empty.
func NewRecord(gravity, temp *Set) Record {
	var data Data
	if gravity != nil {
		data.Points = gravity.Points()
	}
	if temp != nil {
		data.TempPoints = temp.Points()
	}
	if len(data.Points) == 0 && len(data.TempPoints) == 0 {
		return Record{Type: TypeNone}
	}
	return Record{Type: TypeLinear, Data: &data}
}

// Sets splits the record back into per-axis calibration sets owned by the
// given device. A "none" or empty record yields two empty sets.
func (r Record) Sets(device string) (gravity, temp *Set) {
	gravity = NewSet(Gravity, device)
	temp = NewSet(Temperature, device)
	if r.Type == TypeNone || r.Data == nil {
		return
	}
	gravity = NewSetPoints(Gravity, device, r.Data.Points)
	temp = NewSetPoints(Temperature, device, r.Data.TempPoints)
	return
}

// IsZero reports whether the record carries no calibration.
func (r Record) IsZero() bool {
	return (r.Type == "" || r.Type == TypeNone) && r.Data == nil
}
