// SPDX-License-Identifier: MIT
package meter

import "gonum.org/v1/gonum/floats"

// Ring is a fixed-capacity circular buffer of float64 values with a write
// cursor and a filled count. Once full, each Push overwrites the oldest value.
// Reductions only look at filled slots, so unwritten slots never leak in.
type Ring struct {
	data   []float64
	cursor int // next write position
	filled int // valid entries, saturates at len(data)
}

// NewRing allocates a ring holding capacity values. Capacities below 1 are
// raised to 1.
func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{data: make([]float64, capacity)}
}

// Push writes v at the cursor and advances it modulo the capacity.
func (r *Ring) Push(v float64) {
	r.data[r.cursor] = v
	r.cursor = (r.cursor + 1) % len(r.data)
	if r.filled < len(r.data) {
		r.filled++
	}
}

// Len returns the number of valid entries.
func (r *Ring) Len() int { return r.filled }

// Cap returns the fixed capacity.
func (r *Ring) Cap() int { return len(r.data) }

// Sum returns the sum of the valid entries. Writes start at slot 0, so the
// valid entries are always data[:filled].
func (r *Ring) Sum() float64 {
	return floats.Sum(r.data[:r.filled])
}

// Mean returns the mean of the valid entries, or 0 when empty.
func (r *Ring) Mean() float64 {
	if r.filled == 0 {
		return 0
	}
	return r.Sum() / float64(r.filled)
}

// Max returns the largest valid entry, or 0 when empty.
func (r *Ring) Max() float64 {
	if r.filled == 0 {
		return 0
	}
	return floats.Max(r.data[:r.filled])
}
