// Package inspector turns a selected map point back into an attribute report.
package inspector

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/boyangli/sentinelmap-dashboard/logging"
)

// errMalformedPayload marks a payload that is missing fields or cannot be
// decoded. It never leaves this package: Inspect recovers by defaulting.
var errMalformedPayload = errors.New("malformed selection payload")

// positional is the field order of legacy array payloads
var positional = []string{"name", "lat", "lon", "prediction", "image"}

// SelectionEvent is a click on exactly one rendered point
type SelectionEvent struct {
	Lat        *float64        `json:"lat,omitempty"`
	Lon        *float64        `json:"lon,omitempty"`
	CustomData json.RawMessage `json:"customdata,omitempty"`
}

// Attribute is one row of the report table
type Attribute struct {
	Attribute string `json:"Attribute"`
	Value     any    `json:"Value"`
}

// Report is the inspector output: attribute rows plus the image reference
// for the companion image display ("" when there is none).
type Report struct {
	Rows  []Attribute `json:"rows"`
	Image string      `json:"image"`
}

// Empty reports whether nothing is selected
func (r Report) Empty() bool {
	return len(r.Rows) == 0
}

// Get returns the value of the named attribute
func (r Report) Get(name string) (any, bool) {
	for _, row := range r.Rows {
		if row.Attribute == name {
			return row.Value, true
		}
	}
	return nil, false
}

// Inspector builds reports from selection events
type Inspector struct {
	log zerolog.Logger
}

// New creates an inspector
func New() *Inspector {
	return &Inspector{log: logging.Component("inspector")}
}

// Inspect never fails. A nil event gives an empty report; every attribute
// missing from the payload independently defaults to nil.
func (in *Inspector) Inspect(ev *SelectionEvent) Report {
	if ev == nil {
		return Report{Rows: []Attribute{}}
	}

	fields, err := decode(ev.CustomData)
	if err != nil {
		in.log.Debug().Err(err).RawJSON("customdata", safeRaw(ev.CustomData)).Msg("Recovered malformed selection payload")
	}

	lat, ok := fields["lat"]
	if !ok && ev.Lat != nil {
		lat = *ev.Lat
	}
	lon, ok := fields["lon"]
	if !ok && ev.Lon != nil {
		lon = *ev.Lon
	}

	report := Report{
		Rows: []Attribute{
			{Attribute: "Name", Value: fields["name"]},
			{Attribute: "Lat", Value: lat},
			{Attribute: "Lon", Value: lon},
			{Attribute: "Prediction", Value: fields["prediction"]},
		},
	}
	if img, ok := fields["image"].(string); ok {
		report.Image = img
	}
	return report
}

// decode reads a named (object) or legacy positional (array) payload. The
// returned map is always usable, even alongside errMalformedPayload.
func decode(raw json.RawMessage) (map[string]any, error) {
	fields := make(map[string]any, len(positional))
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return fields, fmt.Errorf("%w: empty", errMalformedPayload)
	}

	switch trimmed[0] {
	case '{':
		var named map[string]any
		if err := json.Unmarshal(trimmed, &named); err != nil {
			return fields, fmt.Errorf("%w: %v", errMalformedPayload, err)
		}
		for _, name := range positional {
			if v, ok := named[name]; ok && v != nil {
				fields[name] = v
			}
		}
	case '[':
		var values []any
		if err := json.Unmarshal(trimmed, &values); err != nil {
			return fields, fmt.Errorf("%w: %v", errMalformedPayload, err)
		}
		for i, name := range positional {
			if i < len(values) && values[i] != nil {
				fields[name] = values[i]
			}
		}
	default:
		return fields, fmt.Errorf("%w: unsupported payload %q", errMalformedPayload, trimmed)
	}

	if len(fields) < len(positional) {
		return fields, fmt.Errorf("%w: %d of %d fields", errMalformedPayload, len(fields), len(positional))
	}
	return fields, nil
}

// safeRaw keeps invalid JSON out of the structured log line
func safeRaw(raw json.RawMessage) []byte {
	if json.Valid(raw) {
		return raw
	}
	b, _ := json.Marshal(string(raw))
	return b
}
