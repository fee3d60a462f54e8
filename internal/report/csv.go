package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"rocket-dispersion/internal/analysis"
)

var csvHeader = []string{
	"kind", "name", "title", "unit", "n", "mean", "stddev", "min", "max",
	"sigma", "center_x", "center_y", "width", "height", "angle",
}

// CSV writes one row per metric followed by one row per dispersion ellipse.
// Columns that do not apply to a row are left empty.
func CSV(w io.Writer, agg *analysis.Aggregate) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, m := range agg.Metrics {
		row := []string{
			"metric", m.Name, m.Title, m.Unit, strconv.Itoa(m.N),
			ftoa(m.Mean), ftoa(m.StdDev), ftoa(m.Min), ftoa(m.Max),
			"", "", "", "", "", "",
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	for _, d := range []analysis.Dispersion{agg.Apogee, agg.Impact} {
		for _, e := range d.Ellipses {
			row := []string{
				"ellipse", d.Name, "", "m", strconv.Itoa(d.N),
				"", "", "", "",
				ftoa(e.Sigma), ftoa(d.CenterX), ftoa(d.CenterY), ftoa(e.Width), ftoa(e.Height), ftoa(d.Angle),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
