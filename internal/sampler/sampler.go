// Package sampler draws randomized trial parameters from a distribution table.
package sampler

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat/distuv"
)

// Reserved parameter names collide with record keys in the trial logs.
var reservedNames = []string{"trial", "error"}

// ErrInvalidSpec is returned for distribution tables that cannot be sampled.
var ErrInvalidSpec = errors.New("invalid distribution spec")

// Distribution is either a normal distribution (Mean, StdDev) or a finite
// set of Choices drawn uniformly with replacement.
type Distribution struct {
	Mean    float64
	StdDev  float64
	Choices []float64
}

// Normal returns a normal distribution entry.
func Normal(mean, stddev float64) Distribution {
	return Distribution{Mean: mean, StdDev: stddev}
}

// Choice returns a discrete choice entry. Choice() with no values is still a
// choice entry and fails validation as an empty set.
func Choice(values ...float64) Distribution {
	c := make([]float64, len(values))
	copy(c, values)
	return Distribution{Choices: c}
}

// IsChoice reports whether d is a discrete choice entry.
func (d Distribution) IsChoice() bool { return d.Choices != nil }

func (d Distribution) validate() error {
	if d.IsChoice() {
		if len(d.Choices) == 0 {
			return errors.New("empty choice set")
		}
		for _, c := range d.Choices {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				return fmt.Errorf("non-finite choice %v", c)
			}
		}
		return nil
	}
	if math.IsNaN(d.Mean) || math.IsInf(d.Mean, 0) {
		return fmt.Errorf("non-finite mean %v", d.Mean)
	}
	if math.IsNaN(d.StdDev) || math.IsInf(d.StdDev, 0) || d.StdDev < 0 {
		return fmt.Errorf("standard deviation must be finite and >= 0, got %v", d.StdDev)
	}
	return nil
}

// Spec is an immutable parameter distribution table.
type Spec struct {
	names []string
	dists map[string]Distribution
}

// NewSpec validates and copies a distribution table. Iteration order is the
// sorted parameter names so seeded campaigns draw in a stable order.
func NewSpec(dists map[string]Distribution) (Spec, error) {
	s := Spec{dists: make(map[string]Distribution, len(dists))}
	for name, d := range dists {
		if name == "" {
			return Spec{}, fmt.Errorf("%w: empty parameter name", ErrInvalidSpec)
		}
		if slices.Contains(reservedNames, name) {
			return Spec{}, fmt.Errorf("%w: parameter name %q is reserved", ErrInvalidSpec, name)
		}
		if err := d.validate(); err != nil {
			return Spec{}, fmt.Errorf("%w: %s: %v", ErrInvalidSpec, name, err)
		}
		if d.IsChoice() {
			d.Choices = slices.Clone(d.Choices)
		}
		s.dists[name] = d
	}
	s.names = slices.Sorted(maps.Keys(s.dists))
	return s, nil
}

// Names returns the parameter names in sampling order.
func (s Spec) Names() []string { return slices.Clone(s.names) }

// Len returns the number of parameters.
func (s Spec) Len() int { return len(s.names) }

// Get returns a copy of the named distribution.
func (s Spec) Get(name string) (Distribution, bool) {
	d, ok := s.dists[name]
	if ok && d.IsChoice() {
		d.Choices = slices.Clone(d.Choices)
	}
	return d, ok
}

// Parameters maps a parameter name to its sampled value for one trial.
type Parameters map[string]float64

// Clone returns an independent copy.
func (p Parameters) Clone() Parameters {
	if p == nil {
		return nil
	}
	return maps.Clone(p)
}

// Sampler produces exactly n parameter sets, then stays exhausted.
type Sampler struct {
	spec      Spec
	remaining int
	rng       *rand.Rand
	src       rand.Source
}

// New creates a sampler for n trials. A zero seed seeds from the clock.
func New(spec Spec, n int, seed uint64) *Sampler {
	if n < 0 {
		n = 0
	}
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	return &Sampler{spec: spec, remaining: n, rng: rand.New(src), src: src}
}

// Remaining returns how many parameter sets are left.
func (s *Sampler) Remaining() int { return s.remaining }

// Next draws the next parameter set. ok is false once n sets were produced.
func (s *Sampler) Next() (p Parameters, ok bool) {
	if s.remaining <= 0 {
		return nil, false
	}
	s.remaining--
	p = make(Parameters, len(s.spec.names))
	for _, name := range s.spec.names {
		d := s.spec.dists[name]
		if d.IsChoice() {
			p[name] = d.Choices[s.rng.IntN(len(d.Choices))]
			continue
		}
		p[name] = distuv.Normal{Mu: d.Mean, Sigma: d.StdDev, Src: s.src}.Rand()
	}
	return p, true
}
