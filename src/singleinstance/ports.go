package singleinstance

import (
	"os"
	"strconv"
)

const (
	defaultPortStart = 49560
	defaultPortEnd   = 49569
)

// PortRange is an inclusive range of loopback ports. The resident binds
// Start; clients scan the whole range.
type PortRange struct {
	Start, End int
}

// PortRangeFromEnv reads SINGLEINSTANCE_PORT_START and SINGLEINSTANCE_PORT_END.
// Falls back to defaults when unset/invalid, and clamps to [1024, 65535].
func PortRangeFromEnv() PortRange {
	r := PortRange{Start: defaultPortStart, End: defaultPortEnd}
	if v := os.Getenv("SINGLEINSTANCE_PORT_START"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			r.Start = n
		}
	}
	if v := os.Getenv("SINGLEINSTANCE_PORT_END"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			r.End = n
		}
	}
	return r.normalize()
}

func (r PortRange) normalize() PortRange {
	if r.Start < 1024 {
		r.Start = 1024
	}
	if r.End > 65535 {
		r.End = 65535
	}
	if r.End < r.Start {
		r.Start, r.End = r.End, r.Start
	}
	return r
}
