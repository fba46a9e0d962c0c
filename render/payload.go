package render

import "github.com/boyangli/sentinelmap-dashboard/models"

// Payload is the auxiliary bundle attached to each rendered point. Consumers
// read it by field name; Positional exists only for map layers whose custom
// data slot takes a plain array.
type Payload struct {
	Name       string  `json:"name"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Prediction float64 `json:"prediction"`
	Image      string  `json:"image"`
}

// PayloadOf builds the payload for a detection
func PayloadOf(d models.Detection) Payload {
	return Payload{
		Name:       d.Name,
		Lat:        d.Lat,
		Lon:        d.Lon,
		Prediction: d.Prediction,
		Image:      d.Image,
	}
}

// Positional returns the legacy array form [name, lat, lon, prediction, image]
func (p Payload) Positional() []any {
	return []any{p.Name, p.Lat, p.Lon, p.Prediction, p.Image}
}
