// SPDX-License-Identifier: MIT
//
// Package bitint holds the power-of-two helpers used to validate capture
// block sizes. Audio drivers hand out DMA-sized blocks, so a frames-per-buffer
// value that is not a power of two is almost always a typo.
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of 2 >= size. Non-positive sizes
// return 1.
//
//	Input  Output
//	64     64
//	100    128
//	0      1
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	// size-1 keeps exact powers of two unchanged.
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of 2.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
