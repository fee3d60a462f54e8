// Package dashboard renders Grafana dashboards over the GreptimeDB trial tables.
package dashboard

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"rocket-dispersion/internal/flight"
	"rocket-dispersion/internal/record"
)

//go:embed templates/*.tmpl
var templates embed.FS

// Panel is one time-series panel plotting a metric column per trial.
type Panel struct {
	Title  string
	Column string
}

type data struct {
	Inputs  string
	Outputs string
	Errors  string
	Panels  []Panel
}

func newData(cfg record.GreptimeConfig) data {
	cfg = cfg.WithDefaults()
	d := data{Inputs: cfg.InputsTable, Outputs: cfg.OutputsTable, Errors: cfg.ErrorsTable}
	for _, name := range append(flight.MetricNames(), "executionTime") {
		d.Panels = append(d.Panels, Panel{Title: name, Column: record.ColumnName(name)})
	}
	return d
}

// Render writes one dashboard per embedded template to outDir. The Grafana
// datasource uid comes from GREPTIMEDB_DATASOURCE_UID.
func Render(outDir string, cfg record.GreptimeConfig) error {
	funcMap := template.FuncMap{
		"env": func(key string) (string, error) {
			v := os.Getenv(key)
			if v == "" {
				return "", fmt.Errorf("environment variable %s not set", key)
			}
			return v, nil
		},
		"add": func(a, b int) int { return a + b },
		// three histogram panels per row below the 12-high summary row
		"col": func(i int) int { return (i % 3) * 8 },
		"row": func(i int) int { return 12 + (i/3)*8 },
	}

	names, err := templates.ReadDir("templates")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	d := newData(cfg)
	for _, entry := range names {
		t, err := template.New(entry.Name()).Funcs(funcMap).ParseFS(templates, "templates/"+entry.Name())
		if err != nil {
			return err
		}
		outPath := filepath.Join(outDir, strings.TrimSuffix(entry.Name(), ".tmpl"))
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		if err := t.Execute(f, d); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}
