package record

// MultiRecorder fan-outs trial records to multiple recorders. The first
// recorder to fail stops the fan-out for that record.
type MultiRecorder struct {
	recorders []Recorder
}

// NewMultiRecorder creates a new MultiRecorder.
func NewMultiRecorder(rs ...Recorder) *MultiRecorder {
	return &MultiRecorder{recorders: rs}
}

// WriteInput sends an input record to all recorders.
func (m *MultiRecorder) WriteInput(in Input) error {
	for _, r := range m.recorders {
		if err := r.WriteInput(in); err != nil {
			return err
		}
	}
	return nil
}

// WriteOutput sends an output record to all recorders.
func (m *MultiRecorder) WriteOutput(out Output) error {
	for _, r := range m.recorders {
		if err := r.WriteOutput(out); err != nil {
			return err
		}
	}
	return nil
}

// WriteError sends an error record to all recorders.
func (m *MultiRecorder) WriteError(e ErrorRecord) error {
	for _, r := range m.recorders {
		if err := r.WriteError(e); err != nil {
			return err
		}
	}
	return nil
}

// WriteSummary forwards the summary to recorders that support it.
func (m *MultiRecorder) WriteSummary(s Summary) error {
	for _, r := range m.recorders {
		if sw, ok := r.(SummaryWriter); ok {
			if err := sw.WriteSummary(s); err != nil {
				return err
			}
		}
	}
	return nil
}
