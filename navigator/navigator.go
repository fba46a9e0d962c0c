// Package navigator is the date cursor behind the Previous/Next controls.
package navigator

import (
	"errors"
	"fmt"
	"slices"
)

// ErrUnknownDate is returned when selecting a date that is not in the index
var ErrUnknownDate = errors.New("navigator: unknown date")

// Navigator is a clamped cursor over an ordered, deduplicated date list.
// It is owned by a single session and is not safe for concurrent mutation.
type Navigator struct {
	dates []string
	pos   int // -1 when dates is empty
}

// New creates a navigator positioned on the first date, or on nothing when
// dates is empty. Duplicate dates are dropped, keeping the first occurrence.
func New(dates []string) *Navigator {
	seen := make(map[string]struct{}, len(dates))
	unique := make([]string, 0, len(dates))
	for _, d := range dates {
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		unique = append(unique, d)
	}

	n := &Navigator{dates: unique, pos: -1}
	if len(unique) > 0 {
		n.pos = 0
	}
	return n
}

// Current returns the selected date. ok is false only when there are no dates.
func (n *Navigator) Current() (date string, ok bool) {
	if n.pos < 0 {
		return "", false
	}
	return n.dates[n.pos], true
}

// Dates returns the navigable dates in order
func (n *Navigator) Dates() []string {
	return slices.Clone(n.dates)
}

// Select moves the cursor to date. An unknown date leaves the cursor unchanged.
func (n *Navigator) Select(date string) error {
	i := slices.Index(n.dates, date)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownDate, date)
	}
	n.pos = i
	return nil
}

// Advance moves to the next date, staying put on the last one
func (n *Navigator) Advance() {
	if n.pos >= 0 && n.pos < len(n.dates)-1 {
		n.pos++
	}
}

// Retreat moves to the previous date, staying put on the first one
func (n *Navigator) Retreat() {
	if n.pos > 0 {
		n.pos--
	}
}

// AtStart reports whether Retreat would be a no-op
func (n *Navigator) AtStart() bool { return n.pos <= 0 }

// AtEnd reports whether Advance would be a no-op
func (n *Navigator) AtEnd() bool { return n.pos < 0 || n.pos == len(n.dates)-1 }
