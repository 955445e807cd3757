// SPDX-License-Identifier: MIT
package sched

import "time"

// Periodic tracks a "last done" timestamp for an interval polled from the
// control loop. Not safe for concurrent use.
type Periodic struct {
	interval time.Duration
	last     time.Time
}

// NewPeriodic returns a Periodic whose first deadline is one interval after start.
func NewPeriodic(interval time.Duration, start time.Time) *Periodic {
	return &Periodic{interval: interval, last: start}
}

// Due reports whether the interval has elapsed since the last run and, if so,
// records now as the new last run.
func (p *Periodic) Due(now time.Time) bool {
	if now.Sub(p.last) < p.interval {
		return false
	}
	p.last = now
	return true
}

// Interval returns the configured interval.
func (p *Periodic) Interval() time.Duration {
	return p.interval
}

// Last returns the time of the last run (or the start time).
func (p *Periodic) Last() time.Time {
	return p.last
}
