//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package campaign

import "time"

// ProcessCPUTime falls back to wall time since process start where
// getrusage is unavailable.
func ProcessCPUTime() time.Duration {
	return time.Since(processStart)
}
