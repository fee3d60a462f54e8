package report

import (
	"encoding/json"
	"io"

	"rocket-dispersion/internal/analysis"
)

// JSON writes the whole aggregate, samples and histograms included.
func JSON(w io.Writer, agg *analysis.Aggregate) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(agg)
}
