// Package analysis reduces the successful trials of a campaign to
// per-metric statistics and dispersion ellipses. It only reads records.
package analysis

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"rocket-dispersion/internal/flight"
	"rocket-dispersion/internal/record"
)

// ErrEmptyAggregate is returned when there are no successful trials to
// aggregate.
var ErrEmptyAggregate = errors.New("empty aggregate: no successful trials")

const executionTimeKey = "executionTime"

// Histogram counts samples into len(Edges)-1 equal-width bins.
type Histogram struct {
	Edges  []float64 `json:"edges"`
	Counts []float64 `json:"counts"`
}

// MetricStats summarises one metric over all successful trials. StdDev is
// the population standard deviation.
type MetricStats struct {
	Name      string    `json:"name"`
	Title     string    `json:"title"`
	Unit      string    `json:"unit"`
	N         int       `json:"n"`
	Mean      float64   `json:"mean"`
	StdDev    float64   `json:"stddev"`
	Min       float64   `json:"min"`
	Max       float64   `json:"max"`
	Samples   []float64 `json:"samples"`
	Histogram Histogram `json:"histogram"`
}

// Aggregate is the reduction of a set of successful trials.
type Aggregate struct {
	N        int              `json:"n"`
	Failures int              `json:"failures"`
	Load     record.LoadStats `json:"load"`
	Metrics  []MetricStats    `json:"metrics"`
	Apogee   Dispersion       `json:"apogee"`
	Impact   Dispersion       `json:"impact"`
	index    map[string]int
}

// Metric looks up the statistics of a metric by record key.
func (a *Aggregate) Metric(name string) (MetricStats, bool) {
	i, ok := a.index[name]
	if !ok {
		return MetricStats{}, false
	}
	return a.Metrics[i], true
}

// MetricNames lists the aggregated metrics in report order.
func MetricNames() []string {
	return append(flight.MetricNames(), executionTimeKey)
}

// Analyze aggregates outputs. It returns ErrEmptyAggregate when outputs is
// empty.
func Analyze(outputs []record.Output) (*Aggregate, error) {
	n := len(outputs)
	if n == 0 {
		return nil, ErrEmptyAggregate
	}
	names := MetricNames()
	columns := make(map[string][]float64, len(names))
	for _, name := range names {
		columns[name] = make([]float64, n)
	}
	for i, out := range outputs {
		for _, f := range out.Metrics.Fields() {
			columns[f.Name][i] = f.Value
		}
		columns[executionTimeKey][i] = out.ExecutionTime
	}

	agg := &Aggregate{N: n, index: make(map[string]int, len(names))}
	for _, name := range names {
		agg.index[name] = len(agg.Metrics)
		agg.Metrics = append(agg.Metrics, describe(name, columns[name]))
	}
	agg.Apogee = NewDispersion("apogee", columns["apogeeX"], columns["apogeeY"])
	agg.Impact = NewDispersion("impact", columns["impactX"], columns["impactY"])
	return agg, nil
}

// AnalyzeFile loads an outputs log and aggregates it. Malformed lines are
// skipped and counted in Aggregate.Load.
func AnalyzeFile(path string) (*Aggregate, error) {
	outs, st, err := record.LoadOutputsFile(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	agg, err := Analyze(outs)
	if err != nil {
		return nil, err
	}
	agg.Load = st
	return agg, nil
}

func describe(name string, xs []float64) MetricStats {
	info := Info(name)
	mean, std := stat.PopMeanStdDev(xs, nil)
	return MetricStats{
		Name:      name,
		Title:     info.Title,
		Unit:      info.Unit,
		N:         len(xs),
		Mean:      mean,
		StdDev:    std,
		Min:       floats.Min(xs),
		Max:       floats.Max(xs),
		Samples:   slices.Clone(xs),
		Histogram: histogram(xs),
	}
}

// BinCount is the integer square root of n, at least 1.
func BinCount(n int) int {
	b := int(math.Sqrt(float64(n)))
	for b*b > n {
		b--
	}
	for (b+1)*(b+1) <= n {
		b++
	}
	return max(b, 1)
}

func histogram(xs []float64) Histogram {
	sorted := slices.Clone(xs)
	slices.Sort(sorted)
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}
	bins := BinCount(len(xs))
	edges := floats.Span(make([]float64, bins+1), lo, hi)
	// The last divider must lie strictly above the largest sample.
	edges[bins] = math.Nextafter(edges[bins], math.Inf(1))
	counts := stat.Histogram(nil, edges, sorted, nil)
	return Histogram{Edges: edges, Counts: counts}
}
