package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validCampaign = `
campaign:
  name: nimbus
  trials: 20
  output: out/nimbus
  seed: 7
site:
  latitude: 39.232292
  longitude: -8.172027
  elevation: 160
parameters:
  rocketMass: {mean: 50.2, stddev: 0.01}
  heading: {mean: 133, stddev: 5}
  motor: {choices: [1, 2, 3]}
engine:
  command: ./sim
  args: [--json]
  settings:
    max_time: 600
    rail: {length: 12}
sinks:
  sqlite:
    path: trials.db
  greptime:
    host: localhost
    port: 4001
admin:
  addr: ":8080"
log_level: debug
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "campaign.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestLoadConfig_Valid(t *testing.T) {
	cfg, err := Load(writeConfig(t, validCampaign), "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Campaign.Name != "nimbus" || cfg.Campaign.Trials != 20 || cfg.Campaign.Seed != 7 {
		t.Fatalf("unexpected campaign section: %+v", cfg.Campaign)
	}
	if cfg.Site.Elevation != 160 || cfg.Site.Latitude != 39.232292 {
		t.Fatalf("unexpected site: %+v", cfg.Site)
	}
	if cfg.Sinks.SQLite == nil || cfg.Sinks.SQLite.Path != "trials.db" {
		t.Fatalf("sqlite sink not decoded: %+v", cfg.Sinks)
	}
	if g := cfg.Sinks.Greptime.Record(); g.Host != "localhost" || g.Port != 4001 {
		t.Fatalf("greptime sink not decoded: %+v", g)
	}
	rail, ok := cfg.Engine.Settings["rail"].(map[string]any)
	if !ok || rail["length"] != 12 {
		t.Fatalf("nested engine settings not decoded: %#v", cfg.Engine.Settings)
	}

	spec, err := cfg.ToSpec()
	if err != nil {
		t.Fatalf("ToSpec: %v", err)
	}
	if got := strings.Join(spec.Names(), ","); got != "heading,motor,rocketMass" {
		t.Fatalf("spec names = %s", got)
	}
	if d, _ := spec.Get("motor"); !d.IsChoice() || len(d.Choices) != 3 {
		t.Fatalf("motor should be a choice entry: %+v", d)
	}
	if d, _ := spec.Get("rocketMass"); d.Mean != 50.2 || d.StdDev != 0.01 {
		t.Fatalf("rocketMass = %+v", d)
	}

	eng, err := cfg.ExecEngine()
	if err != nil || eng.Command != "./sim" || len(eng.Args) != 1 {
		t.Fatalf("engine = %+v, %v", eng, err)
	}
}

func TestLoadConfig_SchemaFile(t *testing.T) {
	if _, err := Load(writeConfig(t, validCampaign), "../../schemas/campaign.cue"); err != nil {
		t.Fatalf("Load with schema file failed: %v", err)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := map[string]struct {
		from, to string
	}{
		"negative stddev":   {"heading: {mean: 133, stddev: 5}", "heading: {mean: 133, stddev: -5}"},
		"reserved name":     {"heading:", "trial:"},
		"mixed forms":       {"motor: {choices: [1, 2, 3]}", "motor: {mean: 1, stddev: 1, choices: [1]}"},
		"empty choices":     {"motor: {choices: [1, 2, 3]}", "motor: {choices: []}"},
		"missing command":   {"  command: ./sim\n", ""},
		"negative trials":   {"trials: 20", "trials: -1"},
		"unknown field":     {"log_level: debug", "log_level: debug\nextra: 1"},
		"bad log level":     {"log_level: debug", "log_level: loud"},
		"latitude range":    {"latitude: 39.232292", "latitude: 120"},
		"missing stddev":    {"rocketMass: {mean: 50.2, stddev: 0.01}", "rocketMass: {mean: 50.2}"},
		"empty sqlite sink": {"path: trials.db", "path: \"\""},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			body := strings.Replace(validCampaign, tc.from, tc.to, 1)
			if body == validCampaign {
				t.Fatalf("replacement %q did not apply", tc.from)
			}
			if _, err := Load(writeConfig(t, body), ""); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), ""); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestCampaignConfigValidate(t *testing.T) {
	mean, sd := 1.0, 0.0
	cfg := CampaignConfig{
		Campaign:   CampaignSection{Trials: 1, Output: "out"},
		Parameters: map[string]ParameterConfig{"x": {Mean: &mean, StdDev: &sd}},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("zero stddev should be valid: %v", err)
	}
	cfg.Parameters["error"] = ParameterConfig{Choices: []float64{1}}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("reserved parameter name accepted")
	}
	delete(cfg.Parameters, "error")
	cfg.Campaign.Output = ""
	if err := cfg.Validate(); err == nil {
		t.Fatalf("missing output accepted")
	}
}

func TestExecEngineRequiresCommand(t *testing.T) {
	var cfg CampaignConfig
	if _, err := cfg.ExecEngine(); err == nil {
		t.Fatalf("expected error for empty command")
	}
}
