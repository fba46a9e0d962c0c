package inference

import (
	"errors"
	"fmt"
)

// ErrUnresolvedDate is returned when a run is requested for a date the index does not know
var ErrUnresolvedDate = errors.New("inference: date does not resolve to any tiles")

// InferenceFailure reports the tile whose prediction aborted a run
type InferenceFailure struct {
	Tile  string
	Cause error
}

func (f *InferenceFailure) Error() string {
	return fmt.Sprintf("inference failed on tile %s: %v", f.Tile, f.Cause)
}

func (f *InferenceFailure) Unwrap() error {
	return f.Cause
}
