package campaign

import (
	"time"

	"rocket-dispersion/internal/flight"
	"rocket-dispersion/internal/sampler"
)

// Outcome is the result of exactly one trial: a Success or a Failure.
type Outcome interface {
	TrialNumber() int
	isOutcome()
}

// Success carries the metrics of a flight the engine completed.
type Success struct {
	Trial         int
	Parameters    sampler.Parameters
	Metrics       flight.Metrics
	ExecutionTime time.Duration
}

// Failure carries the draw that could not be simulated and the reason.
type Failure struct {
	Trial      int
	Parameters sampler.Parameters
	Error      string
}

func (s Success) TrialNumber() int { return s.Trial }
func (f Failure) TrialNumber() int { return f.Trial }

func (Success) isOutcome() {}
func (Failure) isOutcome() {}
