package dashboard

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rocket-dispersion/internal/flight"
	"rocket-dispersion/internal/record"
)

func TestRenderMissingEnv(t *testing.T) {
	t.Setenv("GREPTIMEDB_DATASOURCE_UID", "")
	if err := Render(t.TempDir(), record.GreptimeConfig{}); err == nil {
		t.Fatalf("expected error for missing env vars")
	}
}

func TestRenderSuccess(t *testing.T) {
	t.Setenv("GREPTIMEDB_DATASOURCE_UID", "uid1")
	dir := t.TempDir()
	if err := Render(dir, record.GreptimeConfig{OutputsTable: "nimbus_outputs"}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(dir, "dispersion-dashboard.json"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var dash struct {
		Panels []struct {
			ID    int    `json:"id"`
			Title string `json:"title"`
		} `json:"panels"`
	}
	if err := json.Unmarshal(b, &dash); err != nil {
		t.Fatalf("rendered dashboard is not valid JSON: %v", err)
	}
	if want := 2 + len(flight.MetricNames()) + 1; len(dash.Panels) != want {
		t.Fatalf("panels = %d, want %d", len(dash.Panels), want)
	}
	out := string(b)
	for _, s := range []string{"uid1", "FROM nimbus_outputs", "FROM dispersion_errors", "SELECT apogee_altitude"} {
		if !strings.Contains(out, s) {
			t.Fatalf("dashboard missing %q", s)
		}
	}
}
