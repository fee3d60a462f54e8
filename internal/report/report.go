// Package report renders an analysis.Aggregate as text, JSON or CSV.
package report

import (
	"fmt"
	"io"

	"rocket-dispersion/internal/analysis"
)

// Format selects a renderer.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatText, FormatJSON, FormatCSV:
		return f, nil
	default:
		return "", fmt.Errorf("unknown report format: %s", s)
	}
}

// Render writes agg to w in the given format.
func Render(w io.Writer, f Format, agg *analysis.Aggregate) error {
	switch f {
	case FormatText:
		return Text(w, agg)
	case FormatJSON:
		return JSON(w, agg)
	case FormatCSV:
		return CSV(w, agg)
	default:
		return fmt.Errorf("unknown report format: %s", f)
	}
}
