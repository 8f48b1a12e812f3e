package api

import (
	"time"

	"github.com/brewsignal/brewsignal/brewcalc"
)

// Device is a hydrometer registered with the backend.
type Device struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Kind     string    `json:"device_type"`
	BatchID  string    `json:"batch_id,omitempty"`
	LastSeen time.Time `json:"last_seen,omitempty"`
}

// Reading is a single raw reading reported by a hydrometer. Gravity is
// uncorrected specific gravity and Temperature is uncorrected degrees
// Celsius. Battery and RSSI are optional and device dependent.
type Reading struct {
	DeviceID    string    `json:"device_id"`
	Gravity     float64   `json:"gravity"`
	Temperature float64   `json:"temperature"`
	Battery     *float64  `json:"battery,omitempty"`
	RSSI        *int      `json:"rssi,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Batch is a fermentation batch tracked by the backend.
type Batch struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	RecipeID string     `json:"recipe_id,omitempty"`
	DeviceID string     `json:"device_id,omitempty"`
	Status   string     `json:"status"`
	Started  *time.Time `json:"started_at,omitempty"`
	Finished *time.Time `json:"finished_at,omitempty"`
	OG       *float64   `json:"og,omitempty"`
	FG       *float64   `json:"fg,omitempty"`
}

// Fermentable is a single grain bill entry of a recipe.
type Fermentable struct {
	Name     string  `json:"name"`
	AmountKg float64 `json:"amount_kg"`
}

// Recipe is a beer recipe stored in the backend. Sizes are liters and times
// are minutes.
type Recipe struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Style        string        `json:"style,omitempty"`
	BatchSizeL   float64       `json:"batch_size_liters"`
	BoilTimeMin  float64       `json:"boil_time_minutes"`
	BoilSizeL    float64       `json:"boil_size_l,omitempty"`
	Fermentables []Fermentable `json:"fermentables,omitempty"`
}

// GrainKg returns the total weight of the recipe's fermentables.
func (r *Recipe) GrainKg() (kg float64) {
	for _, f := range r.Fermentables {
		kg += f.AmountKg
	}
	return kg
}

// WaterInputs maps the recipe onto the inputs of the water calculator.
func (r *Recipe) WaterInputs() brewcalc.Inputs {
	return brewcalc.Inputs{
		BatchSizeL:  r.BatchSizeL,
		GrainKg:     r.GrainKg(),
		BoilTimeMin: r.BoilTimeMin,
		BoilSizeL:   r.BoilSizeL,
	}
}

// SystemInfo describes the backend instance.
type SystemInfo struct {
	Version string `json:"version"`
	Uptime  string `json:"uptime,omitempty"`
	Devices int    `json:"device_count"`
	Batches int    `json:"batch_count"`
}
