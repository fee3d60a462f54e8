package flight

import (
	"fmt"
	"math"
	"reflect"
)

// Metrics are the scalar outcomes of one successful flight.
type Metrics struct {
	OutOfRailTime          float64 `json:"outOfRailTime"`
	OutOfRailVelocity      float64 `json:"outOfRailVelocity"`
	ApogeeTime             float64 `json:"apogeeTime"`
	ApogeeAltitude         float64 `json:"apogeeAltitude"`
	ApogeeX                float64 `json:"apogeeX"`
	ApogeeY                float64 `json:"apogeeY"`
	ImpactX                float64 `json:"impactX"`
	ImpactY                float64 `json:"impactY"`
	ImpactVelocity         float64 `json:"impactVelocity"`
	InitialStaticMargin    float64 `json:"initialStaticMargin"`
	OutOfRailStaticMargin  float64 `json:"outOfRailStaticMargin"`
	FinalStaticMargin      float64 `json:"finalStaticMargin"`
	NumberOfEvents         float64 `json:"numberOfEvents"`
	MaxVelocity            float64 `json:"maxVelocity"`
	DrogueTriggerTime      float64 `json:"drogueTriggerTime"`
	DrogueInflatedTime     float64 `json:"drogueInflatedTime"`
	DrogueInflatedVelocity float64 `json:"drogueInflatedVelocity"`
}

// Velocity holds the per-axis velocity curves of a flight and their
// magnitude.
type Velocity struct {
	VX, VY, VZ Curve
	Speed      Curve
}

// VelocityCurves interpolates the velocity columns of the solution.
func VelocityCurves(states []StateVector) (Velocity, error) {
	vx := make([]Point, len(states))
	vy := make([]Point, len(states))
	vz := make([]Point, len(states))
	speed := make([]Point, len(states))
	for i, row := range states {
		t := row[ColTime]
		vx[i] = Point{t, row[ColVX]}
		vy[i] = Point{t, row[ColVY]}
		vz[i] = Point{t, row[ColVZ]}
		speed[i] = Point{t, math.Sqrt(row[ColVX]*row[ColVX] + row[ColVY]*row[ColVY] + row[ColVZ]*row[ColVZ])}
	}
	var v Velocity
	var err error
	if v.VX, err = NewCurve(vx); err != nil {
		return Velocity{}, err
	}
	if v.VY, err = NewCurve(vy); err != nil {
		return Velocity{}, err
	}
	if v.VZ, err = NewCurve(vz); err != nil {
		return Velocity{}, err
	}
	if v.Speed, err = NewCurve(speed); err != nil {
		return Velocity{}, err
	}
	return v, nil
}

// Extract reduces a flight solution to Metrics. Apogee altitude is reported
// above the site elevation.
func Extract(sol *Solution, site Site) (Metrics, error) {
	if err := sol.Validate(); err != nil {
		return Metrics{}, err
	}
	vel, err := VelocityCurves(sol.States)
	if err != nil {
		return Metrics{}, fmt.Errorf("%w: %v", ErrSimulation, err)
	}

	m := Metrics{
		OutOfRailTime:         sol.OutOfRailTime,
		OutOfRailVelocity:     sol.OutOfRailVelocity,
		ApogeeTime:            sol.ApogeeTime,
		ApogeeAltitude:        sol.Apogee - site.Elevation,
		ApogeeX:               sol.ApogeeX,
		ApogeeY:               sol.ApogeeY,
		ImpactX:               sol.ImpactX,
		ImpactY:               sol.ImpactY,
		ImpactVelocity:        sol.ImpactVelocity,
		InitialStaticMargin:   sol.StaticMargin.At(0),
		OutOfRailStaticMargin: sol.StaticMargin.At(sol.OutOfRailTime),
		FinalStaticMargin:     sol.StaticMargin.At(sol.BurnOutTime),
		NumberOfEvents:        float64(len(sol.ParachuteEvents)),
		MaxVelocity:           vel.Speed.Max(),
	}
	if len(sol.ParachuteEvents) > 0 {
		drogue := sol.ParachuteEvents[0]
		inflated := drogue.TriggerTime + drogue.Lag
		m.DrogueTriggerTime = drogue.TriggerTime
		m.DrogueInflatedTime = inflated
		m.DrogueInflatedVelocity = vel.Speed.At(inflated)
	}
	if name, ok := m.firstNonFinite(); ok {
		return Metrics{}, fmt.Errorf("%w: non-finite %s", ErrSimulation, name)
	}
	return m, nil
}

func (m Metrics) firstNonFinite() (string, bool) {
	for _, f := range m.Fields() {
		if math.IsNaN(f.Value) || math.IsInf(f.Value, 0) {
			return f.Name, true
		}
	}
	return "", false
}

// Field is one named metric value.
type Field struct {
	Name  string
	Value float64
}

var metricNames = func() []string {
	t := reflect.TypeOf(Metrics{})
	names := make([]string, t.NumField())
	for i := range names {
		names[i] = t.Field(i).Tag.Get("json")
	}
	return names
}()

// MetricNames returns the record keys of Metrics in declaration order.
func MetricNames() []string {
	out := make([]string, len(metricNames))
	copy(out, metricNames)
	return out
}

// Fields returns the metric values keyed by record name, in declaration order.
func (m Metrics) Fields() []Field {
	v := reflect.ValueOf(m)
	out := make([]Field, len(metricNames))
	for i, name := range metricNames {
		out[i] = Field{Name: name, Value: v.Field(i).Float()}
	}
	return out
}
