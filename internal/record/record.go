// Package record persists campaign trials as append-only line logs and
// mirrors them into optional sinks.
package record

import (
	"fmt"
	"time"

	"rocket-dispersion/internal/flight"
	"rocket-dispersion/internal/sampler"
)

// Input is the parameter draw of one trial.
type Input struct {
	Trial      int
	Parameters sampler.Parameters
}

// Output is the metrics of one successful trial.
type Output struct {
	Trial int `json:"trial"`
	flight.Metrics
	ExecutionTime float64 `json:"executionTime"`
}

// ErrorRecord is the parameter draw of a failed trial and the reason.
type ErrorRecord struct {
	Trial      int
	Parameters sampler.Parameters
	Error      string
}

// Recorder is implemented by every trial sink.
type Recorder interface {
	WriteInput(Input) error
	WriteOutput(Output) error
	WriteError(ErrorRecord) error
}

// SummaryWriter is implemented by sinks that close a campaign with a
// summary line.
type SummaryWriter interface {
	WriteSummary(Summary) error
}

// Summary closes a campaign log.
type Summary struct {
	Completed int           `json:"completed"`
	CPUTime   time.Duration `json:"cpu_time"`
	WallTime  time.Duration `json:"wall_time"`
}

// String renders the trailing plain-text line of a log file.
func (s Summary) String() string {
	return fmt.Sprintf("Completed %d iterations successfully. Total CPU time: %.6f s. Total wall time %.6f s",
		s.Completed, s.CPUTime.Seconds(), s.WallTime.Seconds())
}
