package campaign

import "time"

var processStart = time.Now()

// Clock reports a monotonically increasing amount of consumed time.
type Clock func() time.Duration
