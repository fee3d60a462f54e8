//go:build linux || darwin || freebsd || netbsd || openbsd

package campaign

import (
	"syscall"
	"time"
)

// ProcessCPUTime returns the user and system time consumed by this process
// and its reaped children, so exec-based engines are accounted for.
func ProcessCPUTime() time.Duration {
	var self, children syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &self); err != nil {
		return time.Since(processStart)
	}
	total := timeval(self.Utime) + timeval(self.Stime)
	if err := syscall.Getrusage(syscall.RUSAGE_CHILDREN, &children); err == nil {
		total += timeval(children.Utime) + timeval(children.Stime)
	}
	return total
}

func timeval(tv syscall.Timeval) time.Duration {
	return time.Duration(tv.Nano())
}
