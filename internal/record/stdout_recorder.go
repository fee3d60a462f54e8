package record

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// StdoutRecorder prints trial records as JSON lines, tagged by log kind.
type StdoutRecorder struct {
	out io.Writer
}

// NewStdoutRecorder creates a StdoutRecorder writing to os.Stdout.
func NewStdoutRecorder() *StdoutRecorder {
	return &StdoutRecorder{out: os.Stdout}
}

func (w *StdoutRecorder) print(kind string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w.out, "%s %s\n", kind, data)
	return err
}

// WriteInput prints an input record.
func (w *StdoutRecorder) WriteInput(in Input) error { return w.print("input", in) }

// WriteOutput prints an output record.
func (w *StdoutRecorder) WriteOutput(out Output) error { return w.print("output", out) }

// WriteError prints an error record.
func (w *StdoutRecorder) WriteError(e ErrorRecord) error { return w.print("error", e) }

// WriteSummary prints the campaign summary line.
func (w *StdoutRecorder) WriteSummary(s Summary) error {
	_, err := fmt.Fprintln(w.out, s.String())
	return err
}
