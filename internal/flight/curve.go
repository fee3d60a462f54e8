package flight

import (
	"encoding/json"
	"errors"
	"math"
	"sort"
)

// Point is one (time, value) knot of a Curve.
type Point struct {
	T float64 `json:"t"`
	V float64 `json:"v"`
}

// Curve is a piecewise-linear function of time. Outside its knots it
// extrapolates the first or last segment.
type Curve struct {
	points []Point
}

var errEmptyCurve = errors.New("curve has no points")

// NewCurve builds a curve from knots, sorting them by time.
func NewCurve(points []Point) (Curve, error) {
	if len(points) == 0 {
		return Curve{}, errEmptyCurve
	}
	ps := make([]Point, len(points))
	copy(ps, points)
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].T < ps[j].T })
	return Curve{points: ps}, nil
}

// Len returns the number of knots.
func (c Curve) Len() int { return len(c.points) }

// Points returns a copy of the knots.
func (c Curve) Points() []Point {
	out := make([]Point, len(c.points))
	copy(out, c.points)
	return out
}

// At evaluates the curve at t.
func (c Curve) At(t float64) float64 {
	n := len(c.points)
	switch n {
	case 0:
		return math.NaN()
	case 1:
		return c.points[0].V
	}
	i := sort.Search(n, func(i int) bool { return c.points[i].T >= t })
	switch {
	case i == 0:
		i = 1
	case i == n:
		i = n - 1
	}
	a, b := c.points[i-1], c.points[i]
	if b.T == a.T {
		return b.V
	}
	return a.V + (b.V-a.V)*(t-a.T)/(b.T-a.T)
}

// Max returns the largest knot value.
func (c Curve) Max() float64 {
	if len(c.points) == 0 {
		return math.NaN()
	}
	m := c.points[0].V
	for _, p := range c.points[1:] {
		if p.V > m {
			m = p.V
		}
	}
	return m
}

// MarshalJSON encodes the knots as an array of {t, v}.
func (c Curve) MarshalJSON() ([]byte, error) {
	if c.points == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c.points)
}

// UnmarshalJSON accepts an array of {t, v} objects.
func (c *Curve) UnmarshalJSON(b []byte) error {
	var ps []Point
	if err := json.Unmarshal(b, &ps); err != nil {
		return err
	}
	if len(ps) == 0 {
		*c = Curve{}
		return nil
	}
	nc, err := NewCurve(ps)
	if err != nil {
		return err
	}
	*c = nc
	return nil
}
