package record

import (
	"io"
	"os"
)

// ReplayLog re-feeds the output records of a log into rec, in log order.
// Malformed lines are skipped as they are when loading.
func ReplayLog(r io.Reader, rec Recorder) (LoadStats, error) {
	var writeErr error
	st, err := scanRecords(r, func(line []byte) error {
		if writeErr != nil {
			return nil
		}
		o, err := ParseOutput(line)
		if err != nil {
			return err
		}
		writeErr = rec.WriteOutput(o)
		return nil
	})
	if writeErr != nil {
		return st, writeErr
	}
	return st, err
}

// ReplayLogFile opens a file and replays its output records.
func ReplayLogFile(path string, rec Recorder) (LoadStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return LoadStats{}, err
	}
	defer f.Close()
	return ReplayLog(f, rec)
}
