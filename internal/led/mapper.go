// SPDX-License-Identifier: MIT
/*
Package led maps a smoothed volume onto a one-dimensional strip lit from the
center outward, and defines the sinks that display the result.
*/
package led

import (
	"fmt"
	"math"

	"ledvu/internal/config"
)

// Mapper converts a volume into a Frame. It owns a reusable pixel buffer, so
// the Frame returned by Map is only valid until the next call.
type Mapper struct {
	length    int
	minVolume float64
	targetMax float64
	fullScale float64 // fraction of targetMax that lights the whole strip
	exponent  float64

	center int
	half   int
	buf    Frame
}

// NewMapper returns a mapper for a strip of length LEDs.
func NewMapper(length int, minVolume, targetMax, fullScale, exponent float64) (*Mapper, error) {
	if length < 1 {
		return nil, fmt.Errorf("strip length must be at least 1, got %d", length)
	}
	if targetMax <= minVolume {
		return nil, fmt.Errorf("target max %f must exceed min volume %f", targetMax, minVolume)
	}
	if exponent <= 0 {
		return nil, fmt.Errorf("curve exponent must be positive, got %f", exponent)
	}
	return &Mapper{
		length:    length,
		minVolume: minVolume,
		targetMax: targetMax,
		fullScale: fullScale,
		exponent:  exponent,
		center:    length / 2,
		half:      length / 2,
		buf:       make(Frame, 0, length),
	}, nil
}

// DefaultMapper builds the mapper for the configured strip.
func DefaultMapper() *Mapper {
	m, err := NewMapper(config.LEDCount, config.MinVolume, config.MaxVolumeTarget,
		config.FullScale, config.CurveExponent)
	if err != nil {
		panic(err) // constants are wrong
	}
	return m
}

// Length returns the strip length.
func (m *Mapper) Length() int { return m.length }

// Count returns how many LEDs the volume lights. It is monotone in v.
func (m *Mapper) Count(v float64) int {
	switch {
	case !(v > m.minVolume):
		return 0
	case v >= m.targetMax*m.fullScale:
		return m.length
	}
	norm := (v - m.minVolume) / (m.targetMax - m.minVolume)
	n := int(math.Round(math.Pow(norm, m.exponent) * float64(m.length)))
	return min(max(n, 1), m.length)
}

// Index returns the strip position of the k-th LED lit. Even k go right of
// center, odd k go left. ok is false when the position is off the strip.
func (m *Mapper) Index(k int) (index int, ok bool) {
	if k%2 == 0 {
		index = m.center + k/2
	} else {
		index = m.center - 1 - k/2
	}
	return index, index >= 0 && index < m.length
}

// ColorAt returns the color of the LED at index, banded by its distance from
// center.
func (m *Mapper) ColorAt(index int) Color {
	if m.half == 0 {
		return Green
	}
	d := math.Abs(float64(index-m.center)) / float64(m.half)
	switch {
	case d < 0.33:
		return Green
	case d < 0.66:
		return Yellow
	default:
		return Red
	}
}

// Map returns the lit pixels for volume v.
//
// Hot path: no allocations.
func (m *Mapper) Map(v float64) Frame {
	n := m.Count(v)
	m.buf = m.buf[:0]
	for k := range n {
		i, ok := m.Index(k)
		if !ok {
			continue
		}
		m.buf = append(m.buf, Pixel{Index: i, Color: m.ColorAt(i)})
	}
	return m.buf
}
