package session

import "github.com/boyangli/sentinelmap-dashboard/inspector"

// Command is a user action dispatched to a session
type Command interface {
	command() string
}

// SelectDate jumps to a known date
type SelectDate struct {
	Date string
}

// AdvanceDate moves to the next date (clamped)
type AdvanceDate struct{}

// RetreatDate moves to the previous date (clamped)
type RetreatDate struct{}

// RunInference runs the predictor over the current date's tiles
type RunInference struct{}

// SelectPoint inspects a clicked map point; a nil Event clears the selection
type SelectPoint struct {
	Event *inspector.SelectionEvent
}

// ToggleAIS shows or hides the AIS vessel overlay
type ToggleAIS struct {
	On bool
}

func (SelectDate) command() string   { return "select_date" }
func (AdvanceDate) command() string  { return "advance_date" }
func (RetreatDate) command() string  { return "retreat_date" }
func (RunInference) command() string { return "run_inference" }
func (SelectPoint) command() string  { return "select_point" }
func (ToggleAIS) command() string    { return "toggle_ais" }

// State is the session's position in the interaction flow
type State int

const (
	// Idle: no date selected, or the last run failed (see View.Error)
	Idle State = iota
	DateSelected
	RunRequested
	RunComplete
	Inspecting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case DateSelected:
		return "date_selected"
	case RunRequested:
		return "run_requested"
	case RunComplete:
		return "run_complete"
	case Inspecting:
		return "inspecting"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name in JSON views
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
