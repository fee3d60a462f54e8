// Package flight holds the contract with the external flight-simulation
// engine and the reduction of its flight solution into scalar metrics.
package flight

import (
	"context"
	"errors"
	"fmt"
)

// ErrSimulation marks a trial the engine could not turn into a valid flight.
var ErrSimulation = errors.New("simulation failure")

// Engine runs one simulated flight. Implementations are invoked
// synchronously, once per trial, with a freshly built Request.
type Engine interface {
	Simulate(ctx context.Context, req Request) (*Solution, error)
}

// EngineFunc adapts a function to the Engine interface.
type EngineFunc func(ctx context.Context, req Request) (*Solution, error)

// Simulate calls f.
func (f EngineFunc) Simulate(ctx context.Context, req Request) (*Solution, error) {
	return f(ctx, req)
}

// Site is the launch site. Elevation is the reference for apogee altitude.
type Site struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
	Elevation float64 `json:"elevation" yaml:"elevation"`
}

// Request is the per-trial configuration handed to the engine.
type Request struct {
	Campaign   string             `json:"campaign"`
	Trial      int                `json:"trial"`
	Parameters map[string]float64 `json:"parameters"`
	Site       Site               `json:"site"`
	Settings   map[string]any     `json:"settings,omitempty"`
}

// State column indices of a solution row.
const (
	ColTime = iota
	ColX
	ColY
	ColZ
	ColVX
	ColVY
	ColVZ
	ColE0
	ColE1
	ColE2
	ColE3
	ColW1
	ColW2
	ColW3
	stateWidth
)

// StateVector is one solution row:
// [t, x, y, z, vx, vy, vz, e0, e1, e2, e3, w1, w2, w3].
type StateVector []float64

// ParachuteEvent is a deployment trigger reported by the engine.
type ParachuteEvent struct {
	Name        string  `json:"name"`
	TriggerTime float64 `json:"trigger_time"`
	Lag         float64 `json:"lag"`
}

// Solution is the flight record returned by the engine.
type Solution struct {
	States            []StateVector    `json:"solution"`
	OutOfRailTime     float64          `json:"out_of_rail_time"`
	OutOfRailVelocity float64          `json:"out_of_rail_velocity"`
	ApogeeTime        float64          `json:"apogee_time"`
	Apogee            float64          `json:"apogee"`
	ApogeeX           float64          `json:"apogee_x"`
	ApogeeY           float64          `json:"apogee_y"`
	ImpactX           float64          `json:"x_impact"`
	ImpactY           float64          `json:"y_impact"`
	ImpactVelocity    float64          `json:"impact_velocity"`
	BurnOutTime       float64          `json:"burn_out_time"`
	StaticMargin      Curve            `json:"static_margin"`
	ParachuteEvents   []ParachuteEvent `json:"parachute_events"`
}

// Validate checks the solution has enough structure to extract metrics.
func (s *Solution) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: engine returned no solution", ErrSimulation)
	}
	if len(s.States) == 0 {
		return fmt.Errorf("%w: empty flight solution", ErrSimulation)
	}
	for i, row := range s.States {
		if len(row) <= ColVZ {
			return fmt.Errorf("%w: solution row %d has %d columns, need at least %d", ErrSimulation, i, len(row), ColVZ+1)
		}
	}
	if s.StaticMargin.Len() == 0 {
		return fmt.Errorf("%w: missing static margin curve", ErrSimulation)
	}
	return nil
}
