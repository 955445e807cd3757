// SPDX-License-Identifier: MIT
package bitint

import (
	"fmt"
	"testing"
)

func TestNextPowerOfTwo(t *testing.T) {
	tests := []struct {
		n, expected int
	}{
		{-8, 1},
		{0, 1},
		{1, 1},
		{2, 2},
		{3, 4},
		{63, 64},
		{64, 64},
		{65, 128},
		{100, 128},
		{8191, 8192},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.n), func(t *testing.T) {
			if result := NextPowerOfTwo(tt.n); result != tt.expected {
				t.Errorf("NextPowerOfTwo(%d) = %d, expected %d", tt.n, result, tt.expected)
			}
		})
	}
}

func TestIsPowerOfTwo(t *testing.T) {
	tests := []struct {
		n        int
		expected bool
	}{
		{-64, false},
		{0, false},
		{1, true},
		{64, true},
		{96, false},
		{512, true},
		{1023, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.n), func(t *testing.T) {
			if result := IsPowerOfTwo(tt.n); result != tt.expected {
				t.Errorf("IsPowerOfTwo(%d) = %v, expected %v", tt.n, result, tt.expected)
			}
		})
	}
}

func BenchmarkNextPowerOfTwo(b *testing.B) {
	i := 0
	for b.Loop() {
		NextPowerOfTwo(i % 10000)
		i++
	}
}
