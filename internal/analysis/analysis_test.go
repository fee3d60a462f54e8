package analysis

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/floats"

	"rocket-dispersion/internal/flight"
	"rocket-dispersion/internal/record"
)

const tol = 1e-9

func outputsXY(xs, ys []float64) []record.Output {
	outs := make([]record.Output, len(xs))
	for i := range xs {
		outs[i] = record.Output{Trial: i + 1, Metrics: flight.Metrics{
			ApogeeX: xs[i], ApogeeY: ys[i],
			ImpactX: xs[i], ImpactY: ys[i],
		}}
	}
	return outs
}

func logLine(t *testing.T, trial int, apogee float64) string {
	t.Helper()
	b, err := json.Marshal(record.Output{Trial: trial, Metrics: flight.Metrics{ApogeeAltitude: apogee}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

func TestAnalyzeEmpty(t *testing.T) {
	if _, err := Analyze(nil); !errors.Is(err, ErrEmptyAggregate) {
		t.Fatalf("expected ErrEmptyAggregate, got %v", err)
	}
}

func TestAnalyzeIdenticalMetrics(t *testing.T) {
	outs := make([]record.Output, 3)
	for i := range outs {
		outs[i] = record.Output{Trial: i + 1, Metrics: flight.Metrics{ApogeeAltitude: 1000, ImpactVelocity: -5}}
	}
	agg, err := Analyze(outs)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	st, _ := agg.Metric("apogeeAltitude")
	if agg.N != 3 || st.N != 3 || st.Mean != 1000 || st.StdDev != 0 {
		t.Fatalf("apogeeAltitude = %+v", st)
	}
	if st.Title != "Apogee Altitude" || st.Unit != "m" {
		t.Fatalf("unexpected labels %q %q", st.Title, st.Unit)
	}
	if len(st.Histogram.Counts) != 1 || st.Histogram.Counts[0] != 3 {
		t.Fatalf("histogram = %+v", st.Histogram)
	}
}

func TestAnalyzePopulationStdDev(t *testing.T) {
	outs := []record.Output{
		{Trial: 1, Metrics: flight.Metrics{MaxVelocity: 2}},
		{Trial: 2, Metrics: flight.Metrics{MaxVelocity: 4}},
		{Trial: 3, Metrics: flight.Metrics{MaxVelocity: 4}},
		{Trial: 4, Metrics: flight.Metrics{MaxVelocity: 4}},
		{Trial: 5, Metrics: flight.Metrics{MaxVelocity: 5}},
		{Trial: 6, Metrics: flight.Metrics{MaxVelocity: 5}},
		{Trial: 7, Metrics: flight.Metrics{MaxVelocity: 7}},
		{Trial: 8, Metrics: flight.Metrics{MaxVelocity: 9}, ExecutionTime: 0.5},
	}
	agg, err := Analyze(outs)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	st, _ := agg.Metric("maxVelocity")
	if st.Mean != 5 || !floats.EqualWithinAbs(st.StdDev, 2, tol) {
		t.Fatalf("maxVelocity mean=%v sd=%v, want 5 and 2", st.Mean, st.StdDev)
	}
	if st.Min != 2 || st.Max != 9 || len(st.Samples) != 8 {
		t.Fatalf("unexpected range %+v", st)
	}
	if et, ok := agg.Metric("executionTime"); !ok || et.Max != 0.5 {
		t.Fatalf("executionTime = %+v", et)
	}
	var total float64
	for _, c := range st.Histogram.Counts {
		total += c
	}
	if len(st.Histogram.Counts) != 2 || total != 8 {
		t.Fatalf("histogram = %+v", st.Histogram)
	}
}

func TestAnalyzeCoversEveryMetric(t *testing.T) {
	agg, err := Analyze([]record.Output{{Trial: 1}})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(agg.Metrics) != len(flight.MetricNames())+1 {
		t.Fatalf("metrics = %d", len(agg.Metrics))
	}
	for _, name := range MetricNames() {
		if _, ok := agg.Metric(name); !ok {
			t.Fatalf("missing %s", name)
		}
		if Info(name).Title == name {
			t.Fatalf("metric %s has no title", name)
		}
	}
	if _, ok := agg.Metric("bogus"); ok {
		t.Fatalf("unexpected metric")
	}
}

func TestBinCount(t *testing.T) {
	tests := map[int]int{0: 1, 1: 1, 3: 1, 4: 2, 8: 2, 9: 3, 99: 9, 100: 10, 1000: 31}
	for n, want := range tests {
		if got := BinCount(n); got != want {
			t.Fatalf("BinCount(%d) = %d, want %d", n, got, want)
		}
	}
}

func TestDispersionSinglePointRepeated(t *testing.T) {
	d := NewDispersion("impact", []float64{3, 3, 3, 3}, []float64{-2, -2, -2, -2})
	if d.CenterX != 3 || d.CenterY != -2 {
		t.Fatalf("center = (%v, %v)", d.CenterX, d.CenterY)
	}
	for _, e := range d.Ellipses {
		if e.Width != 0 || e.Height != 0 {
			t.Fatalf("expected degenerate ellipse, got %+v", e)
		}
	}
	if len(d.Ellipses) != 3 {
		t.Fatalf("expected three ellipses")
	}
}

func TestDispersionAxisAligned(t *testing.T) {
	xs := []float64{-2, -1, 0, 1, 2}
	ys := []float64{5, 5, 5, 5, 5}
	d := NewDispersion("apogee", xs, ys)
	if d.Angle != 0 {
		t.Fatalf("angle = %v, want 0", d.Angle)
	}
	// sample variance of xs is 2.5
	if !floats.EqualWithinAbs(d.Eigenvalues[0], 2.5, tol) || !floats.EqualWithinAbs(d.Eigenvalues[1], 0, tol) {
		t.Fatalf("eigenvalues = %v", d.Eigenvalues)
	}
	w := 2 * math.Sqrt(2.5)
	for i, e := range d.Ellipses {
		if e.Sigma != float64(i+1) || !floats.EqualWithinAbs(e.Width, w*e.Sigma, tol) || !floats.EqualWithinAbs(e.Height, 0, 1e-6) {
			t.Fatalf("ellipse %d = %+v", i, e)
		}
	}
}

func TestDispersionVerticalAndDiagonal(t *testing.T) {
	d := NewDispersion("v", []float64{1, 1, 1}, []float64{1, 2, 3})
	if !floats.EqualWithinAbs(d.Angle, 90, tol) {
		t.Fatalf("vertical angle = %v, want 90", d.Angle)
	}
	d = NewDispersion("d", []float64{1, 2, 3}, []float64{1, 2, 3})
	if !floats.EqualWithinAbs(d.Angle, 45, tol) {
		t.Fatalf("diagonal angle = %v, want 45", d.Angle)
	}
	d = NewDispersion("a", []float64{1, 2, 3}, []float64{3, 2, 1})
	if !floats.EqualWithinAbs(d.Angle, -45, tol) {
		t.Fatalf("anti-diagonal angle = %v, want -45", d.Angle)
	}
	if d.Eigenvalues[0] < d.Eigenvalues[1] {
		t.Fatalf("eigenvalues not descending: %v", d.Eigenvalues)
	}
}

func TestDispersionCovarianceIsSample(t *testing.T) {
	d := NewDispersion("c", []float64{0, 2}, []float64{0, 4})
	// n-1 normalisation: var(x)=2, cov=4, var(y)=8
	want := [2][2]float64{{2, 4}, {4, 8}}
	for i := range want {
		for j := range want[i] {
			if !floats.EqualWithinAbs(d.Covariance[i][j], want[i][j], tol) {
				t.Fatalf("covariance = %v, want %v", d.Covariance, want)
			}
		}
	}
}

func TestDispersionSinglePoint(t *testing.T) {
	d := NewDispersion("one", []float64{4}, []float64{5})
	if d.CenterX != 4 || d.CenterY != 5 || d.Covariance != ([2][2]float64{}) {
		t.Fatalf("unexpected single-point dispersion %+v", d)
	}
	if d.Ellipses[2].Width != 0 {
		t.Fatalf("single point must have zero-size ellipses")
	}
}

func TestAnalyzeUsesBothScatterFamilies(t *testing.T) {
	agg, err := Analyze(outputsXY([]float64{1, 2, 3}, []float64{1, 2, 3}))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if agg.Apogee.Name != "apogee" || agg.Impact.Name != "impact" {
		t.Fatalf("unexpected dispersion names")
	}
	if !floats.EqualWithinAbs(agg.Apogee.Angle, 45, tol) || !floats.EqualWithinAbs(agg.Impact.CenterX, 2, tol) {
		t.Fatalf("apogee=%+v impact=%+v", agg.Apogee, agg.Impact)
	}
}

func TestAnalyzeFileSkipsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.disp_outputs.txt")
	data := logLine(t, 1, 10) + "\n" +
		`{"trial": 2, "apogeeAltitude": oops}` + "\n" +
		logLine(t, 3, 30) + "\n" +
		"Completed 3 iterations successfully. Total CPU time: 0.1 s. Total wall time 0.1 s\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	before, _ := os.ReadFile(path)
	agg, err := AnalyzeFile(path)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	st, _ := agg.Metric("apogeeAltitude")
	if st.N != 2 || st.Mean != 20 || agg.Load.Malformed != 1 || agg.Load.NonRecord != 1 {
		t.Fatalf("unexpected aggregate: %+v, load %+v", st, agg.Load)
	}
	after, _ := os.ReadFile(path)
	if string(before) != string(after) {
		t.Fatalf("analysis modified the log")
	}
	// Re-running yields the same result.
	again, err := AnalyzeFile(path)
	if err != nil {
		t.Fatalf("re-analyze: %v", err)
	}
	if st2, _ := again.Metric("apogeeAltitude"); st2.Mean != st.Mean || st2.StdDev != st.StdDev {
		t.Fatalf("analysis is not repeatable")
	}
}

func TestAnalyzeFileEmptyLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.disp_outputs.txt")
	if err := os.WriteFile(path, []byte("Completed 0 iterations successfully. Total CPU time: 0 s. Total wall time 0 s\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := AnalyzeFile(path); !errors.Is(err, ErrEmptyAggregate) {
		t.Fatalf("expected ErrEmptyAggregate, got %v", err)
	}
}

func TestNormalizeAngle(t *testing.T) {
	tests := map[float64]float64{0: 0, 90: 90, -90: 90, 180: 0, -180: 0, 135: -45, -135: 45, 270: 90}
	for in, want := range tests {
		if got := normalizeAngle(in); got != want {
			t.Fatalf("normalizeAngle(%v) = %v, want %v", in, got, want)
		}
	}
}
