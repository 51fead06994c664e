//go:build !windows

package health

import "time"

// SystemIdle is unsupported here; the monitor relies on the hook's own events.
func SystemIdle() (time.Duration, bool) { return 0, false }
