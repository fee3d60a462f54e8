package main

import (
	"os"
	"path/filepath"
	"testing"

	"rocket-dispersion/internal/config"
	"rocket-dispersion/internal/flight"
	"rocket-dispersion/internal/record"
	"rocket-dispersion/internal/sampler"
)

func testConfig(t *testing.T) *config.CampaignConfig {
	t.Helper()
	return &config.CampaignConfig{
		Campaign: config.CampaignSection{Name: "nimbus", Trials: 2, Output: filepath.Join(t.TempDir(), "nimbus")},
	}
}

func TestRunSinksFileOnly(t *testing.T) {
	cfg := testConfig(t)
	sinks, err := runSinks(cfg, "c1", false)
	if err != nil {
		t.Fatalf("runSinks returned error: %v", err)
	}
	if _, ok := sinks.Recorder().(*record.FileRecorder); !ok {
		t.Fatalf("expected *record.FileRecorder, got %T", sinks.Recorder())
	}
	if err := sinks.Recorder().WriteInput(record.Input{Trial: 1, Parameters: sampler.Parameters{"m": 1}}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := sinks.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	info, err := os.Stat(record.PathsFor(cfg.Campaign.Output).Inputs)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if info.Size() == 0 {
		t.Fatalf("expected inputs log to be non-empty")
	}
}

func TestRunSinksSQLiteMirror(t *testing.T) {
	cfg := testConfig(t)
	dbPath := filepath.Join(t.TempDir(), "trials.db")
	cfg.Sinks.SQLite = &config.SQLiteConfig{Path: dbPath}
	sinks, err := runSinks(cfg, "c1", false)
	if err != nil {
		t.Fatalf("runSinks returned error: %v", err)
	}
	if _, ok := sinks.Recorder().(*record.MultiRecorder); !ok {
		t.Fatalf("expected *record.MultiRecorder, got %T", sinks.Recorder())
	}
	if err := sinks.Recorder().WriteOutput(record.Output{Trial: 1, Metrics: flight.Metrics{ApogeeAltitude: 900}}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := sinks.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	store, err := record.NewSQLiteStore(dbPath, "c1")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store.Close()
	outs, err := store.Outputs("c1")
	if err != nil || len(outs) != 1 || outs[0].ApogeeAltitude != 900 {
		t.Fatalf("mirror rows = %+v, %v", outs, err)
	}
}

func TestRunSinksBadOutput(t *testing.T) {
	cfg := testConfig(t)
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg.Campaign.Output = filepath.Join(blocker, "nimbus")
	if _, err := runSinks(cfg, "c1", false); err == nil {
		t.Fatalf("expected error when the log directory cannot be created")
	}
}

func TestReplaySinks(t *testing.T) {
	withSQLite := testConfig(t)
	withSQLite.Sinks.SQLite = &config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "replay.db")}

	tests := []struct {
		name      string
		cfg       *config.CampaignConfig
		printOnly bool
		stdout    bool
	}{
		{"no config", nil, false, true},
		{"no mirrors", testConfig(t), false, true},
		{"print only", withSQLite, true, true},
		{"sqlite mirror", withSQLite, false, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sinks, err := replaySinks(tc.cfg, "r1", tc.printOnly)
			if err != nil {
				t.Fatalf("replaySinks returned error: %v", err)
			}
			defer sinks.Close()
			_, isStdout := sinks.Recorder().(*record.StdoutRecorder)
			if isStdout != tc.stdout {
				t.Fatalf("recorder = %T, want stdout=%v", sinks.Recorder(), tc.stdout)
			}
		})
	}
}
