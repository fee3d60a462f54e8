package flight

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

const stderrTail = 512

// ExecEngine runs an external simulator process once per trial. The request
// is written to the process's stdin as JSON and a Solution is read back from
// stdout. A reply of the form {"error": "..."} or a non-zero exit status is a
// simulation failure.
type ExecEngine struct {
	Command string
	Args    []string
	Dir     string
	Env     []string
}

// Simulate implements Engine.
func (e *ExecEngine) Simulate(ctx context.Context, req Request) (*Solution, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	cmd := exec.CommandContext(ctx, e.Command, e.Args...)
	cmd.Dir = e.Dir
	if len(e.Env) > 0 {
		cmd.Env = append(cmd.Environ(), e.Env...)
	}
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v%s", ErrSimulation, e.Command, err, tail(stderr.String()))
	}
	return decodeReply(stdout.Bytes())
}

type engineReply struct {
	Error string `json:"error"`
	*Solution
}

func decodeReply(b []byte) (*Solution, error) {
	reply := engineReply{Solution: &Solution{}}
	if err := json.Unmarshal(b, &reply); err != nil {
		return nil, fmt.Errorf("%w: decode engine reply: %v", ErrSimulation, err)
	}
	if reply.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrSimulation, reply.Error)
	}
	return reply.Solution, nil
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if len(s) > stderrTail {
		s = "..." + s[len(s)-stderrTail:]
	}
	return ": " + s
}
