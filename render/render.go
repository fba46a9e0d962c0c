// Package render projects a detection table onto a scatter map model.
package render

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/boyangli/sentinelmap-dashboard/models"
)

// Coordinate is a map position in decimal degrees
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// BaseCenter is the Laconian Bay base map center
var BaseCenter = Coordinate{Lat: 36.53353, Lon: 22.721728}

const (
	DefaultZoom  = 9
	DefaultStyle = "carto-positron"
)

// RenderPoint is one marker. Later points draw on top of earlier ones.
type RenderPoint struct {
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Intensity  float64 `json:"intensity"`
	Color      string  `json:"color"`
	CustomData Payload `json:"customdata"`
}

// OverlayPoint is a secondary marker (AIS vessel positions)
type OverlayPoint struct {
	Name string  `json:"name"`
	MMSI string  `json:"mmsi"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Model is everything the map layer needs to draw a frame
type Model struct {
	Center Coordinate    `json:"center"`
	Zoom   float64       `json:"zoom"`
	Style  string        `json:"style"`
	Points []RenderPoint `json:"points"`

	// Placeholder marks the idle view: nothing has been rendered from a run yet
	Placeholder bool           `json:"placeholder"`
	Overlay     []OverlayPoint `json:"overlay,omitempty"`
}

// Renderer holds the fixed base view
type Renderer struct {
	center Coordinate
	zoom   float64
	style  string
}

// NewRenderer creates a renderer centered on center
func NewRenderer(center Coordinate, zoom float64, style string) *Renderer {
	if zoom <= 0 {
		zoom = DefaultZoom
	}
	if style == "" {
		style = DefaultStyle
	}
	return &Renderer{center: center, zoom: zoom, style: style}
}

// Placeholder returns the idle view: base center, no markers
func (r *Renderer) Placeholder() Model {
	return Model{
		Center:      r.center,
		Zoom:        r.zoom,
		Style:       r.style,
		Points:      []RenderPoint{},
		Placeholder: true,
	}
}

// Render maps each detection to one point in table order. An empty table
// renders the placeholder view; whether that means "idle" or "no detections"
// is for the caller's state to say.
func (r *Renderer) Render(table models.DetectionTable) Model {
	if len(table) == 0 {
		return r.Placeholder()
	}

	m := Model{
		Center: r.center,
		Zoom:   r.zoom,
		Style:  r.style,
		Points: make([]RenderPoint, 0, len(table)),
	}

	scores := table.Predictions()
	lo, hi := floats.Min(scores), floats.Max(scores)

	for _, d := range table {
		intensity := normalize(d.Prediction, lo, hi)
		m.Points = append(m.Points, RenderPoint{
			Lat:        d.Lat,
			Lon:        d.Lon,
			Intensity:  intensity,
			Color:      ColorFor(intensity),
			CustomData: PayloadOf(d),
		})
	}
	return m
}

// WithOverlay returns a copy of m carrying the overlay points
func (m Model) WithOverlay(points []OverlayPoint) Model {
	m.Overlay = points
	return m
}

func normalize(v, lo, hi float64) float64 {
	span := hi - lo
	if span == 0 || !finite(span) || !finite(v) {
		return 1
	}
	return (v - lo) / span
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// plasma is the continuous color scale used for the prediction channel
var plasma = [][3]uint8{
	{0x0d, 0x08, 0x87}, {0x46, 0x03, 0x9f}, {0x72, 0x01, 0xa8}, {0x9c, 0x17, 0x9e},
	{0xbd, 0x37, 0x86}, {0xd8, 0x57, 0x6b}, {0xed, 0x79, 0x53}, {0xfb, 0x9f, 0x3a},
	{0xfd, 0xca, 0x26}, {0xf0, 0xf9, 0x21},
}

// ColorFor maps an intensity in [0,1] onto the color scale as #rrggbb.
// NaN maps to the low end of the scale.
func ColorFor(intensity float64) string {
	if math.IsNaN(intensity) {
		intensity = 0
	}
	t := math.Max(0, math.Min(1, intensity))
	pos := t * float64(len(plasma)-1)
	i := int(math.Floor(pos))
	if i >= len(plasma)-1 {
		c := plasma[len(plasma)-1]
		return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
	}
	frac := pos - float64(i)
	a, b := plasma[i], plasma[i+1]
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*frac))
	}
	return fmt.Sprintf("#%02x%02x%02x", mix(a[0], b[0]), mix(a[1], b[1]), mix(a[2], b[2]))
}
