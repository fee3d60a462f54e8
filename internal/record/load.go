package record

import (
	"bufio"
	"bytes"
	"io"
	"os"
)

const maxLineBytes = 1 << 20

// LoadStats counts what a loader saw.
type LoadStats struct {
	Records   int `json:"records"`
	Malformed int `json:"malformed"`
	NonRecord int `json:"non_record"`
}

// scanRecords feeds every line starting with '{' to parse. Other lines,
// such as the trailing summary, are counted and skipped; lines parse
// rejects are counted as malformed and skipped.
func scanRecords(r io.Reader, parse func([]byte) error) (LoadStats, error) {
	var st LoadStats
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		if line[0] != '{' {
			st.NonRecord++
			continue
		}
		if err := parse(line); err != nil {
			st.Malformed++
			continue
		}
		st.Records++
	}
	return st, sc.Err()
}

// LoadOutputs reads successful-trial records from r.
func LoadOutputs(r io.Reader) ([]Output, LoadStats, error) {
	var outs []Output
	st, err := scanRecords(r, func(line []byte) error {
		o, err := ParseOutput(line)
		if err != nil {
			return err
		}
		outs = append(outs, o)
		return nil
	})
	return outs, st, err
}

// LoadInputs reads parameter-draw records from r.
func LoadInputs(r io.Reader) ([]Input, LoadStats, error) {
	var ins []Input
	st, err := scanRecords(r, func(line []byte) error {
		in, err := ParseInput(line)
		if err != nil {
			return err
		}
		ins = append(ins, in)
		return nil
	})
	return ins, st, err
}

// LoadErrors reads failed-trial records from r.
func LoadErrors(r io.Reader) ([]ErrorRecord, LoadStats, error) {
	var errs []ErrorRecord
	st, err := scanRecords(r, func(line []byte) error {
		e, err := ParseError(line)
		if err != nil {
			return err
		}
		errs = append(errs, e)
		return nil
	})
	return errs, st, err
}

// LoadOutputsFile opens path and reads its successful-trial records.
func LoadOutputsFile(path string) ([]Output, LoadStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, LoadStats{}, err
	}
	defer f.Close()
	return LoadOutputs(f)
}

// LoadErrorsFile opens path and reads its failed-trial records.
func LoadErrorsFile(path string) ([]ErrorRecord, LoadStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, LoadStats{}, err
	}
	defer f.Close()
	return LoadErrors(f)
}
