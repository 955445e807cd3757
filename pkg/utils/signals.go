// SPDX-License-Identifier: MIT
//
// Package utils holds frame generators and doubles shared by the package
// tests. Levels are given in post-shift units, the scale the meter works in.
package utils

import "math"

// ConstantFrame returns size samples alternating between +level and -level
// after a right shift by shift, so the frame RMS is exactly level.
func ConstantFrame(level int32, size int, shift uint) []int32 {
	buffer := make([]int32, size)
	raw := level << shift
	for i := range buffer {
		if i%2 == 0 {
			buffer[i] = raw
		} else {
			buffer[i] = -raw
		}
	}
	return buffer
}

// SineFrame returns a sine of peak amplitude level (post-shift units).
func SineFrame(size int, sampleRate, frequency float64, level int32, shift uint) []int32 {
	buffer := make([]int32, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		v := math.Sin(2*math.Pi*frequency*t) * float64(level)
		buffer[i] = int32(math.Round(v)) << shift
	}
	return buffer
}

// SpikeFrame returns a frame with every sample at the int32 extremes, which
// any sane spike ceiling rejects.
func SpikeFrame(size int) []int32 {
	buffer := make([]int32, size)
	for i := range buffer {
		if i%2 == 0 {
			buffer[i] = math.MaxInt32
		} else {
			buffer[i] = math.MinInt32
		}
	}
	return buffer
}
