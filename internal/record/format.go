package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"rocket-dispersion/internal/flight"
	"rocket-dispersion/internal/sampler"
)

// ErrMalformedRecord is returned for a log line that is not a well-formed
// record.
var ErrMalformedRecord = errors.New("malformed record")

const (
	keyTrial         = "trial"
	keyError         = "error"
	keyExecutionTime = "executionTime"
)

var outputKeys = append(flight.MetricNames(), keyTrial, keyExecutionTime)

// MarshalJSON flattens the parameters next to the trial number.
func (in Input) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(in.Parameters)+1)
	for k, v := range in.Parameters {
		m[k] = v
	}
	m[keyTrial] = in.Trial
	return json.Marshal(m)
}

// MarshalJSON flattens the parameters next to the trial number and reason.
func (e ErrorRecord) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(e.Parameters)+2)
	for k, v := range e.Parameters {
		m[k] = v
	}
	m[keyTrial] = e.Trial
	m[keyError] = e.Error
	return json.Marshal(m)
}

// ParseInput parses one inputs-log line.
func ParseInput(line []byte) (Input, error) {
	obj, err := parseObject(line)
	if err != nil {
		return Input{}, err
	}
	trial, err := takeTrial(obj)
	if err != nil {
		return Input{}, err
	}
	params, err := numbers(obj)
	if err != nil {
		return Input{}, err
	}
	return Input{Trial: trial, Parameters: params}, nil
}

// ParseError parses one errors-log line.
func ParseError(line []byte) (ErrorRecord, error) {
	obj, err := parseObject(line)
	if err != nil {
		return ErrorRecord{}, err
	}
	trial, err := takeTrial(obj)
	if err != nil {
		return ErrorRecord{}, err
	}
	raw, ok := obj[keyError]
	if !ok {
		return ErrorRecord{}, fmt.Errorf("%w: missing %q", ErrMalformedRecord, keyError)
	}
	var reason string
	if err := json.Unmarshal(raw, &reason); err != nil || isNull(raw) {
		return ErrorRecord{}, fmt.Errorf("%w: %q is not a string", ErrMalformedRecord, keyError)
	}
	delete(obj, keyError)
	params, err := numbers(obj)
	if err != nil {
		return ErrorRecord{}, err
	}
	return ErrorRecord{Trial: trial, Parameters: params, Error: reason}, nil
}

// ParseOutput parses one outputs-log line. Every metric and the execution
// time must be present as a number; unknown keys are rejected.
func ParseOutput(line []byte) (Output, error) {
	obj, err := parseObject(line)
	if err != nil {
		return Output{}, err
	}
	if _, err := takeTrial(obj); err != nil {
		return Output{}, err
	}
	for k := range obj {
		if !slices.Contains(outputKeys, k) {
			return Output{}, fmt.Errorf("%w: unknown key %q", ErrMalformedRecord, k)
		}
	}
	for _, k := range outputKeys {
		if _, ok := obj[k]; !ok && k != keyTrial {
			return Output{}, fmt.Errorf("%w: missing %q", ErrMalformedRecord, k)
		}
	}
	if _, err := numbers(obj); err != nil {
		return Output{}, err
	}
	var out Output
	if err := json.Unmarshal(line, &out); err != nil {
		return Output{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return out, nil
}

// parseObject decodes exactly one JSON object with scalar values.
func parseObject(line []byte) (map[string]json.RawMessage, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 || line[0] != '{' {
		return nil, fmt.Errorf("%w: not an object", ErrMalformedRecord)
	}
	dec := json.NewDecoder(bytes.NewReader(line))
	var obj map[string]json.RawMessage
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data", ErrMalformedRecord)
	}
	for k, v := range obj {
		switch bytes.TrimSpace(v)[0] {
		case '{', '[':
			return nil, fmt.Errorf("%w: %q is not a scalar", ErrMalformedRecord, k)
		}
	}
	return obj, nil
}

// takeTrial removes and validates the trial number.
func takeTrial(obj map[string]json.RawMessage) (int, error) {
	raw, ok := obj[keyTrial]
	if !ok {
		return 0, fmt.Errorf("%w: missing %q", ErrMalformedRecord, keyTrial)
	}
	var trial int
	if err := json.Unmarshal(raw, &trial); err != nil || isNull(raw) || trial < 1 {
		return 0, fmt.Errorf("%w: invalid %q %s", ErrMalformedRecord, keyTrial, raw)
	}
	delete(obj, keyTrial)
	return trial, nil
}

// numbers decodes every remaining value as a float64.
func numbers(obj map[string]json.RawMessage) (sampler.Parameters, error) {
	out := make(sampler.Parameters, len(obj))
	for k, raw := range obj {
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil || isNull(raw) {
			return nil, fmt.Errorf("%w: %q is not a number", ErrMalformedRecord, k)
		}
		out[k] = v
	}
	return out, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
