package models

import (
	"time"

	"github.com/goccy/go-json"
)

// Detection represents a single vessel detection produced by the prediction engine
type Detection struct {
	Name       string  `json:"name"`
	Lat        float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon        float64 `json:"lon" validate:"gte=-180,lte=180"`
	Prediction float64 `json:"prediction"`

	// Image is an opaque reference to the detection's image chip. It is carried
	// through to the inspector untouched.
	Image string `json:"image"`
}

// DetectionTable is the unified, ordered result of one inference run
type DetectionTable []Detection

// PredictionColumns is the column contract of a per-tile prediction table.
// Source columns are renamed positionally onto these names.
var PredictionColumns = []string{"name", "lat", "lon", "prediction", "image"}

// ToJSON serializes the Detection to JSON
func (d *Detection) ToJSON() ([]byte, error) {
	return json.Marshal(d)
}

// FromJSON deserializes JSON to Detection
func FromJSON(data []byte) (*Detection, error) {
	var d Detection
	err := json.Unmarshal(data, &d)
	return &d, err
}

// Predictions returns the prediction column of the table
func (t DetectionTable) Predictions() []float64 {
	out := make([]float64, len(t))
	for i, d := range t {
		out[i] = d.Prediction
	}
	return out
}

// TimestampRow is one row of the SAR acquisition timestamp table
type TimestampRow struct {
	TileID string `csv:"TILE_ID"`
	Date   string `csv:"DATE"`

	// Timestamp is the acquisition instant (zero if the table has no TIMESTAMP column)
	Timestamp time.Time `csv:"TIMESTAMP"`
}

// AISRecord is a single AIS position report
type AISRecord struct {
	Name      string    `json:"name" csv:"name"`
	MMSI      string    `json:"mmsi" csv:"mmsi"`
	Lat       float64   `json:"lat" csv:"lat"`
	Lon       float64   `json:"lon" csv:"lon"`
	Timestamp time.Time `json:"timestamp" csv:"timestamp"`
}

// RunEvent is published once per completed inference run
type RunEvent struct {
	RunID       string         `json:"run_id"`
	Date        string         `json:"date"`
	Tiles       []string       `json:"tiles"`
	Detections  DetectionTable `json:"detections"`
	CompletedAt time.Time      `json:"completed_at"`
}

// ToJSON serializes the RunEvent to JSON
func (e *RunEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// RunEventFromJSON deserializes JSON to RunEvent
func RunEventFromJSON(data []byte) (*RunEvent, error) {
	var e RunEvent
	err := json.Unmarshal(data, &e)
	return &e, err
}
