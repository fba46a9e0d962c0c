// Package ais builds the AIS vessel overlay shown next to SAR detections.
package ais

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/boyangli/sentinelmap-dashboard/models"
)

// DefaultWindow is how far either side of the acquisition time AIS reports are kept
const DefaultWindow = 45 * time.Minute

// Vessel is one AIS-reported vessel averaged over the window
type Vessel struct {
	Name    string  `json:"name"`
	MMSI    string  `json:"mmsi"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Reports int     `json:"reports"`
}

type vesselKey struct {
	name string
	mmsi string
}

// Overlay keeps the reports within ±window of at (inclusive), groups them by
// (name, mmsi) and averages each vessel's position. Vessels are sorted by name
// then MMSI.
func Overlay(records []models.AISRecord, at time.Time, window time.Duration) []Vessel {
	if window <= 0 {
		window = DefaultWindow
	}
	start, end := at.Add(-window), at.Add(window)

	lats := make(map[vesselKey][]float64)
	lons := make(map[vesselKey][]float64)
	for _, r := range records {
		if r.Timestamp.Before(start) || r.Timestamp.After(end) {
			continue
		}
		k := vesselKey{name: r.Name, mmsi: r.MMSI}
		lats[k] = append(lats[k], r.Lat)
		lons[k] = append(lons[k], r.Lon)
	}

	vessels := make([]Vessel, 0, len(lats))
	for k, la := range lats {
		vessels = append(vessels, Vessel{
			Name:    k.name,
			MMSI:    k.mmsi,
			Lat:     stat.Mean(la, nil),
			Lon:     stat.Mean(lons[k], nil),
			Reports: len(la),
		})
	}
	sort.Slice(vessels, func(i, j int) bool {
		if vessels[i].Name != vessels[j].Name {
			return vessels[i].Name < vessels[j].Name
		}
		return vessels[i].MMSI < vessels[j].MMSI
	})
	return vessels
}
