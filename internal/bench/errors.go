package bench

import (
	"errors"
	"fmt"
)

// Failure kinds for a sweep step.
var (
	// ErrLaunch indicates the binary could not be started at all.
	ErrLaunch = errors.New("bench: launch failure")

	// ErrRuntime indicates the binary started but exited unsuccessfully.
	ErrRuntime = errors.New("bench: runtime failure")

	// ErrTimeout indicates the binary was killed after exceeding the run timeout.
	ErrTimeout = fmt.Errorf("%w (timed out)", ErrRuntime)

	// ErrSerialization indicates the config document could not be written.
	ErrSerialization = errors.New("bench: serialization failure")

	// ErrCleanup indicates a transient file could not be removed.
	ErrCleanup = errors.New("bench: cleanup failure")

	// ErrExport indicates the results artifact could not be written.
	ErrExport = errors.New("bench: export failure")

	ErrInvalidParams = errors.New("bench: invalid parameters")
)

// RunError wraps a failure with the sweep step it happened in.
type RunError struct {
	Seq     int
	Bodies  int
	Wrapped error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("run %d (bodies=%d): %v", e.Seq, e.Bodies, e.Wrapped)
}

func (e *RunError) Unwrap() error {
	return e.Wrapped
}

// StatusOf maps an error to the status recorded for the run.
// ErrTimeout is checked before ErrRuntime since it wraps it.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, ErrTimeout):
		return StatusTimeout
	case errors.Is(err, ErrLaunch):
		return StatusLaunchFailure
	case errors.Is(err, ErrSerialization):
		return StatusSerializationFailure
	default:
		return StatusRuntimeFailure
	}
}
