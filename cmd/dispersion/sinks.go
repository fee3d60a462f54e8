package main

import (
	"errors"
	"io"

	"rocket-dispersion/internal/config"
	"rocket-dispersion/internal/record"
)

// sinkSet is the recorder handed to a campaign plus everything that must be
// closed when it ends.
type sinkSet struct {
	recorders []record.Recorder
	closers   []io.Closer
}

func (s *sinkSet) add(r record.Recorder) {
	s.recorders = append(s.recorders, r)
	if c, ok := r.(io.Closer); ok {
		s.closers = append(s.closers, c)
	}
}

// Recorder returns the single sink or a fan-out over all of them.
func (s *sinkSet) Recorder() record.Recorder {
	if len(s.recorders) == 1 {
		return s.recorders[0]
	}
	return record.NewMultiRecorder(s.recorders...)
}

// Close closes sinks in reverse order of creation.
func (s *sinkSet) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i].Close())
	}
	return errors.Join(errs...)
}

// addMirrors attaches the optional database sinks of the config.
func (s *sinkSet) addMirrors(sinks config.SinksConfig, campaignID string) error {
	if sinks.Greptime != nil {
		g, err := record.NewGreptimeRecorder(sinks.Greptime.Record(), campaignID)
		if err != nil {
			return err
		}
		s.add(g)
	}
	if sinks.SQLite != nil {
		st, err := record.NewSQLiteStore(sinks.SQLite.Path, campaignID)
		if err != nil {
			return err
		}
		s.add(st)
	}
	return nil
}

// runSinks sets up the trial logs of a campaign, the configured mirrors and
// optionally the TUI.
func runSinks(cfg *config.CampaignConfig, campaignID string, tui bool) (*sinkSet, error) {
	set := &sinkSet{}
	fr, err := record.NewFileRecorder(record.PathsFor(cfg.Campaign.Output))
	if err != nil {
		return nil, err
	}
	set.add(fr)
	if err := set.addMirrors(cfg.Sinks, campaignID); err != nil {
		set.Close()
		return nil, err
	}
	if tui {
		set.add(record.NewTUIRecorder(cfg.Campaign.Name, cfg.Campaign.Trials))
	}
	return set, nil
}

// replaySinks chooses where replayed outputs go: STDOUT when printOnly is
// set or no mirror is configured, the configured mirrors otherwise.
func replaySinks(cfg *config.CampaignConfig, campaignID string, printOnly bool) (*sinkSet, error) {
	set := &sinkSet{}
	if printOnly || cfg == nil || (cfg.Sinks.Greptime == nil && cfg.Sinks.SQLite == nil) {
		set.add(record.NewStdoutRecorder())
		return set, nil
	}
	if err := set.addMirrors(cfg.Sinks, campaignID); err != nil {
		set.Close()
		return nil, err
	}
	return set, nil
}
