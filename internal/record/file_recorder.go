package record

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Paths names the three log files of a campaign.
type Paths struct {
	Inputs  string
	Outputs string
	Errors  string
}

// PathsFor derives the log paths from an output base name, e.g.
// "monte_carlo_outputs/nimbus" -> "monte_carlo_outputs/nimbus.disp_outputs.txt".
func PathsFor(base string) Paths {
	return Paths{
		Inputs:  base + ".disp_inputs.txt",
		Outputs: base + ".disp_outputs.txt",
		Errors:  base + ".disp_errors.txt",
	}
}

// FileRecorder writes inputs, outputs and errors to one line-per-trial file
// each. Every record is written with a single write call as soon as it is
// recorded, so an interrupted campaign leaves parseable logs.
type FileRecorder struct {
	inFile  *os.File
	outFile *os.File
	errFile *os.File
	inEnc   *json.Encoder
	outEnc  *json.Encoder
	errEnc  *json.Encoder
}

// NewFileRecorder creates (truncating) the three log files.
func NewFileRecorder(p Paths) (*FileRecorder, error) {
	for _, path := range []string{p.Inputs, p.Outputs, p.Errors} {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create log directory: %w", err)
			}
		}
	}
	fr := &FileRecorder{}
	var err error
	if fr.inFile, err = os.Create(p.Inputs); err != nil {
		return nil, err
	}
	if fr.outFile, err = os.Create(p.Outputs); err != nil {
		fr.Close()
		return nil, err
	}
	if fr.errFile, err = os.Create(p.Errors); err != nil {
		fr.Close()
		return nil, err
	}
	fr.inEnc = newLineEncoder(fr.inFile)
	fr.outEnc = newLineEncoder(fr.outFile)
	fr.errEnc = newLineEncoder(fr.errFile)
	return fr, nil
}

func newLineEncoder(f *os.File) *json.Encoder {
	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	return enc
}

// WriteInput logs a trial's parameter draw.
func (f *FileRecorder) WriteInput(in Input) error {
	return f.inEnc.Encode(in)
}

// WriteOutput logs a successful trial's metrics.
func (f *FileRecorder) WriteOutput(out Output) error {
	return f.outEnc.Encode(out)
}

// WriteError logs a failed trial.
func (f *FileRecorder) WriteError(e ErrorRecord) error {
	return f.errEnc.Encode(e)
}

// WriteSummary appends the summary line to all three files.
func (f *FileRecorder) WriteSummary(s Summary) error {
	line := s.String() + "\n"
	for _, file := range []*os.File{f.inFile, f.outFile, f.errFile} {
		if _, err := file.WriteString(line); err != nil {
			return err
		}
	}
	return nil
}

// Close closes any underlying files.
func (f *FileRecorder) Close() error {
	var err error
	for _, file := range []*os.File{f.inFile, f.outFile, f.errFile} {
		if file == nil {
			continue
		}
		if e := file.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}
