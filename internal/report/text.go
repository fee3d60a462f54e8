package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"rocket-dispersion/internal/analysis"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)

// Text writes the mean and standard deviation of every metric, a summary
// table and the dispersion ellipses.
func Text(w io.Writer, agg *analysis.Aggregate) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Number of simulations: %d\n", agg.N)
	if agg.Failures > 0 {
		fmt.Fprintf(&b, "Failed simulations: %d\n", agg.Failures)
	}
	if agg.Load.Malformed > 0 {
		fmt.Fprintf(&b, "Skipped malformed records: %d\n", agg.Load.Malformed)
	}
	b.WriteString("\n")

	width := 0
	for _, m := range agg.Metrics {
		width = max(width, len(m.Title))
	}
	for _, m := range agg.Metrics {
		unit := withSpace(m.Unit)
		fmt.Fprintf(&b, "%*s -         Mean Value: %0.3f%s\n", width, m.Title, m.Mean, unit)
		fmt.Fprintf(&b, "%*s - Standard Deviation: %0.3f%s\n", width, m.Title, m.StdDev, unit)
	}
	b.WriteString("\n")

	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers("Metric", "N", "Mean", "Std Dev", "Min", "Max", "Unit")
	for _, m := range agg.Metrics {
		t.Row(m.Name, fmt.Sprint(m.N), num(m.Mean), num(m.StdDev), num(m.Min), num(m.Max), m.Unit)
	}
	b.WriteString(t.String())
	b.WriteString("\n\n")

	for _, d := range []analysis.Dispersion{agg.Apogee, agg.Impact} {
		writeDispersion(&b, d)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeDispersion(b *strings.Builder, d analysis.Dispersion) {
	fmt.Fprintf(b, "%s dispersion: center (%0.3f, %0.3f) m, angle %0.3f deg\n", title(d.Name), d.CenterX, d.CenterY, d.Angle)
	for _, e := range d.Ellipses {
		fmt.Fprintf(b, "  %gσ ellipse: width %0.3f m, height %0.3f m\n", e.Sigma, e.Width, e.Height)
	}
}

func num(v float64) string { return fmt.Sprintf("%0.3f", v) }

func withSpace(unit string) string {
	if unit == "" {
		return ""
	}
	return " " + unit
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
