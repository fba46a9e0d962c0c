// Package dateindex maps SAR acquisition dates to the tiles captured on them.
package dateindex

import (
	"errors"
	"slices"
	"time"

	"github.com/boyangli/sentinelmap-dashboard/models"
)

// ErrEmptyIndex is returned by Build when the timestamp table has no rows
var ErrEmptyIndex = errors.New("dateindex: timestamp table is empty")

// Index is the immutable date → tile set lookup. It is safe for concurrent use.
type Index struct {
	dates      []string
	tiles      map[string][]string
	timestamps map[string]time.Time
}

// Build inverts the tile-keyed timestamp table into a date index. Dates keep
// their order of first appearance; each date's tiles are sorted. A tile listed
// more than once keeps the first date it was seen with.
func Build(rows []models.TimestampRow) (*Index, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyIndex
	}

	idx := &Index{
		tiles:      make(map[string][]string),
		timestamps: make(map[string]time.Time),
	}
	seen := make(map[string]struct{}, len(rows))

	for _, row := range rows {
		if row.TileID == "" || row.Date == "" {
			continue
		}
		if _, dup := seen[row.TileID]; dup {
			continue
		}
		seen[row.TileID] = struct{}{}

		if _, known := idx.tiles[row.Date]; !known {
			idx.dates = append(idx.dates, row.Date)
		}
		idx.tiles[row.Date] = append(idx.tiles[row.Date], row.TileID)
		if !row.Timestamp.IsZero() {
			idx.timestamps[row.TileID] = row.Timestamp
		}
	}

	if len(idx.dates) == 0 {
		return nil, ErrEmptyIndex
	}
	for _, tiles := range idx.tiles {
		slices.Sort(tiles)
	}
	return idx, nil
}

// Dates returns the distinct dates in first-appearance order
func (idx *Index) Dates() []string {
	if idx == nil {
		return nil
	}
	return slices.Clone(idx.dates)
}

// Len returns the number of distinct dates
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.dates)
}

// Contains reports whether date is a known acquisition date
func (idx *Index) Contains(date string) bool {
	if idx == nil {
		return false
	}
	_, ok := idx.tiles[date]
	return ok
}

// Tiles returns the date's tile identifiers in lexicographic order.
// The boolean is false for an unknown date.
func (idx *Index) Tiles(date string) ([]string, bool) {
	if idx == nil {
		return nil, false
	}
	tiles, ok := idx.tiles[date]
	if !ok {
		return nil, false
	}
	return slices.Clone(tiles), true
}

// Timestamp returns the acquisition instant of a tile, if the table had one
func (idx *Index) Timestamp(tile string) (time.Time, bool) {
	if idx == nil {
		return time.Time{}, false
	}
	ts, ok := idx.timestamps[tile]
	return ts, ok
}
