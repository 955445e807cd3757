// SPDX-License-Identifier: MIT
package meter

import "math"

// RMS reduces a frame to its root-mean-square energy. Each sample is
// arithmetically shifted right by shift to drop the unused low bits, and
// samples whose magnitude is not below ceiling are treated as electrical
// spikes and skipped. ok is false when no sample survives, in which case the
// frame carries no usable data.
//
// Hot path: no allocations, no branches on the sign.
func RMS(frame []int32, shift uint, ceiling int32) (rms float64, ok bool) {
	var sum float64
	accepted := 0
	limit := int64(ceiling)

	for _, raw := range frame {
		sample := int64(raw >> shift)
		mask := sample >> 63
		magnitude := (sample ^ mask) - mask
		if magnitude >= limit {
			continue
		}
		s := float64(sample)
		sum += s * s
		accepted++
	}

	if accepted == 0 {
		return 0, false
	}
	return math.Sqrt(sum / float64(accepted)), true
}
