package analysis

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Sigmas are the confidence levels ellipses are reported at.
var Sigmas = []float64{1, 2, 3}

// Ellipse is one confidence region of a dispersion.
type Ellipse struct {
	Sigma  float64 `json:"sigma"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Dispersion describes a 2-D scatter by its covariance eigendecomposition.
// Eigenvalues are sorted descending and Eigenvectors[i] belongs to
// Eigenvalues[i]. Angle is the direction of the dominant eigenvector in
// degrees, in (-90, 90].
type Dispersion struct {
	Name         string        `json:"name"`
	N            int           `json:"n"`
	CenterX      float64       `json:"center_x"`
	CenterY      float64       `json:"center_y"`
	Covariance   [2][2]float64 `json:"covariance"`
	Eigenvalues  [2]float64    `json:"eigenvalues"`
	Eigenvectors [2][2]float64 `json:"eigenvectors"`
	Angle        float64       `json:"angle"`
	Ellipses     []Ellipse     `json:"ellipses"`
}

// NewDispersion fits 1, 2 and 3 sigma ellipses to the points (xs[i], ys[i]).
// The covariance uses the n-1 normalisation and is zero for fewer than two
// points.
func NewDispersion(name string, xs, ys []float64) Dispersion {
	d := Dispersion{
		Name:         name,
		N:            len(xs),
		Eigenvectors: [2][2]float64{{1, 0}, {0, 1}},
	}
	if len(xs) == 0 {
		return d.withEllipses()
	}
	d.CenterX = stat.Mean(xs, nil)
	d.CenterY = stat.Mean(ys, nil)
	if len(xs) < 2 {
		return d.withEllipses()
	}

	cxx := stat.Covariance(xs, xs, nil)
	cxy := stat.Covariance(xs, ys, nil)
	cyy := stat.Covariance(ys, ys, nil)
	d.Covariance = [2][2]float64{{cxx, cxy}, {cxy, cyy}}
	if cxx == 0 && cxy == 0 && cyy == 0 {
		return d.withEllipses()
	}

	var es mat.EigenSym
	if ok := es.Factorize(mat.NewSymDense(2, []float64{cxx, cxy, cxy, cyy}), true); !ok {
		return d.withEllipses()
	}
	vals := es.Values(nil)
	var vecs mat.Dense
	es.VectorsTo(&vecs)

	// Values come back ascending.
	order := [2]int{1, 0}
	if vals[0] > vals[1] {
		order = [2]int{0, 1}
	}
	for i, j := range order {
		d.Eigenvalues[i] = math.Max(vals[j], 0)
		d.Eigenvectors[i] = [2]float64{vecs.At(0, j), vecs.At(1, j)}
	}
	d.Angle = normalizeAngle(math.Atan2(d.Eigenvectors[0][1], d.Eigenvectors[0][0]) * 180 / math.Pi)
	return d.withEllipses()
}

func (d Dispersion) withEllipses() Dispersion {
	w := 2 * math.Sqrt(d.Eigenvalues[0])
	h := 2 * math.Sqrt(d.Eigenvalues[1])
	d.Ellipses = make([]Ellipse, len(Sigmas))
	for i, s := range Sigmas {
		d.Ellipses[i] = Ellipse{Sigma: s, Width: w * s, Height: h * s}
	}
	return d
}

// normalizeAngle maps an axis direction to (-90, 90]; an ellipse is
// symmetric under a half turn.
func normalizeAngle(deg float64) float64 {
	for deg > 90 {
		deg -= 180
	}
	for deg <= -90 {
		deg += 180
	}
	if deg == 0 {
		return 0
	}
	return deg
}
