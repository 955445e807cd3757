// SPDX-License-Identifier: MIT
package meter

import "math"

// MovingAverage averages the last N samples. The mean is always taken over
// all N slots, so zero-initialized slots pull the output toward 0 during
// warm-up.
type MovingAverage struct {
	ring *Ring
}

// NewMovingAverage returns a filter over size samples.
func NewMovingAverage(size int) *MovingAverage {
	return &MovingAverage{ring: NewRing(size)}
}

// Update pushes x and returns the mean over the full window.
func (m *MovingAverage) Update(x float64) float64 {
	m.ring.Push(x)
	return m.ring.Sum() / float64(m.ring.Cap())
}

// SlewLimiter caps large per-tick jumps. A change bigger than trigger is
// replaced by a fixed step in the same direction; smaller changes pass.
type SlewLimiter struct {
	trigger  float64
	step     float64
	previous float64
}

// NewSlewLimiter returns a limiter that reacts to deltas above trigger by
// moving step units toward the input.
func NewSlewLimiter(trigger, step float64) *SlewLimiter {
	return &SlewLimiter{trigger: trigger, step: step}
}

// Update returns the limited value and remembers it for the next tick.
func (s *SlewLimiter) Update(current float64) float64 {
	if math.Abs(current-s.previous) > s.trigger {
		if current > s.previous {
			current = s.previous + s.step
		} else {
			current = s.previous - s.step
		}
	}
	s.previous = current
	return current
}

// Smoother is a first-order exponential smoother. It starts at 0 and is
// never reset.
type Smoother struct {
	alpha float64
	value float64
}

// NewSmoother returns a smoother with factor alpha in (0, 1].
func NewSmoother(alpha float64) *Smoother {
	return &Smoother{alpha: alpha}
}

// Update folds x into the smoothed value and returns it.
func (s *Smoother) Update(x float64) float64 {
	s.value = s.value*(1-s.alpha) + x*s.alpha
	return s.value
}

// Value returns the current smoothed value.
func (s *Smoother) Value() float64 { return s.value }
