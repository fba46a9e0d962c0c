package models

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

func TestDetectionSerialization(t *testing.T) {
	detection := &Detection{
		Name:       "MV Test",
		Lat:        36.5,
		Lon:        22.7,
		Prediction: 0.92,
		Image:      "img/ship_2.png",
	}

	jsonBytes, err := detection.ToJSON()
	if err != nil {
		t.Fatalf("Serialization failed: %v", err)
	}

	// Field names are part of the prediction column contract
	for _, col := range PredictionColumns {
		if !strings.Contains(string(jsonBytes), `"`+col+`"`) {
			t.Errorf("Expected JSON to contain field %q, got %s", col, jsonBytes)
		}
	}

	parsed, err := FromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("Deserialization failed: %v", err)
	}
	if *parsed != *detection {
		t.Errorf("Expected %+v, got %+v", *detection, *parsed)
	}
}

func TestDetectionValidate(t *testing.T) {
	tests := []struct {
		name    string
		lat     float64
		lon     float64
		wantErr bool
	}{
		{"laconian bay", 36.53, 22.72, false},
		{"north pole", 90, 0, false},
		{"antimeridian", 0, -180, false},
		{"lat too high", 90.5, 0, true},
		{"lat too low", -91, 0, true},
		{"lon too high", 0, 180.01, true},
		{"lon too low", 0, -200, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Detection{Name: "ship", Lat: tt.lat, Lon: tt.lon}
			err := d.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDetectionValidateRejectsNonFinite(t *testing.T) {
	tests := map[string]Detection{
		"infinite prediction": {Name: "ship", Lat: 1, Lon: 1, Prediction: math.Inf(1)},
		"nan prediction":      {Name: "ship", Lat: 1, Lon: 1, Prediction: math.NaN()},
		"nan lat":             {Name: "ship", Lat: math.NaN(), Lon: 1},
		"infinite lon":        {Name: "ship", Lat: 1, Lon: math.Inf(-1)},
	}

	for name, d := range tests {
		t.Run(name, func(t *testing.T) {
			if err := d.Validate(); !errors.Is(err, ErrNonFinite) {
				t.Errorf("Expected ErrNonFinite, got %v", err)
			}
		})
	}
}

func TestDetectionTableValidateReportsRow(t *testing.T) {
	table := DetectionTable{
		{Name: "ok", Lat: 1, Lon: 1},
		{Name: "bad", Lat: 100, Lon: 1},
	}

	err := table.Validate()
	if err == nil {
		t.Fatal("Expected validation error, got nil")
	}
	if !strings.Contains(err.Error(), "row 1") {
		t.Errorf("Expected error to name row 1, got %v", err)
	}
}

func TestRunEventRoundTrip(t *testing.T) {
	event := &RunEvent{
		RunID:       "run-1",
		Date:        "2023-02-15",
		Tiles:       []string{"tile-a", "tile-b"},
		Detections:  DetectionTable{{Name: "ship_1", Lat: 36.4, Lon: 22.6, Prediction: 1, Image: "a.png"}},
		CompletedAt: time.Date(2023, 2, 15, 16, 30, 0, 0, time.UTC),
	}

	payload, err := event.ToJSON()
	if err != nil {
		t.Fatalf("Serialization failed: %v", err)
	}
	parsed, err := RunEventFromJSON(payload)
	if err != nil {
		t.Fatalf("Deserialization failed: %v", err)
	}

	if parsed.RunID != "run-1" || parsed.Date != "2023-02-15" {
		t.Errorf("Expected run-1/2023-02-15, got %s/%s", parsed.RunID, parsed.Date)
	}
	if len(parsed.Tiles) != 2 {
		t.Errorf("Expected 2 tiles, got %d", len(parsed.Tiles))
	}
	if len(parsed.Detections) != 1 || parsed.Detections[0].Image != "a.png" {
		t.Errorf("Expected one detection with image a.png, got %+v", parsed.Detections)
	}
	if !parsed.CompletedAt.Equal(event.CompletedAt) {
		t.Errorf("Expected completed_at %v, got %v", event.CompletedAt, parsed.CompletedAt)
	}
}
