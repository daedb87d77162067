package bench

import "fmt"

// Params is the parameter tuple for one simulation run.
type Params struct {
	Bodies         int
	Iterations     int
	SaveInterval   int
	Dt             float64
	OutputFilename string
}

func (p Params) Validate() error {
	if p.Bodies <= 0 {
		return fmt.Errorf("%w: bodies must be positive, got %d", ErrInvalidParams, p.Bodies)
	}
	if p.Iterations <= 0 {
		return fmt.Errorf("%w: iterations must be positive, got %d", ErrInvalidParams, p.Iterations)
	}
	if p.SaveInterval <= 0 {
		return fmt.Errorf("%w: save interval must be positive, got %d", ErrInvalidParams, p.SaveInterval)
	}
	if p.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidParams, p.Dt)
	}
	if p.OutputFilename == "" {
		return fmt.Errorf("%w: output filename is empty", ErrInvalidParams)
	}
	return nil
}

type Status string

const (
	StatusOK                   Status = "ok"
	StatusLaunchFailure        Status = "launch_failure"
	StatusRuntimeFailure       Status = "runtime_failure"
	StatusTimeout              Status = "timeout"
	StatusSerializationFailure Status = "serialization_failure"
)

// NoExitCode marks a record whose process never reported an exit status.
const NoExitCode = -1

// Record is one row of benchmark output.
type Record struct {
	Seq             int     `json:"seq"`
	Bodies          int     `json:"bodyCount"`
	ExecutionTimeMs int64   `json:"executionTimeMs"`
	Iterations      int     `json:"iterations"`
	SaveInterval    int     `json:"saveInterval"`
	Dt              float64 `json:"dt"`
	Status          Status  `json:"status"`
	ExitCode        int     `json:"exitCode"`
	Error           string  `json:"error,omitempty"`
}

// NewRecord builds the record for the run of p at sweep position seq.
// A nil err yields an ok record; otherwise the status is derived from err.
func NewRecord(seq int, p Params, elapsedMs int64, exitCode int, err error) Record {
	r := Record{
		Seq:             seq,
		Bodies:          p.Bodies,
		ExecutionTimeMs: elapsedMs,
		Iterations:      p.Iterations,
		SaveInterval:    p.SaveInterval,
		Dt:              p.Dt,
		Status:          StatusOf(err),
		ExitCode:        exitCode,
	}
	if r.ExecutionTimeMs < 0 {
		r.ExecutionTimeMs = 0
	}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

func (r Record) Failed() bool {
	return r.Status != StatusOK
}
