// SPDX-License-Identifier: MIT
/*
Package bitint provides the power-of-two helpers used to size FFT windows.

NextPowerOfTwo relies on bits.Len of (size-1): for an exact power of two
the subtraction clears the top bit, so the shift lands back on size
instead of doubling it.

	NextPowerOfTwo(8)    // 8
	NextPowerOfTwo(1000) // 1024
	IsPowerOfTwo(1024)   // true
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of two >= size. Non-positive
// sizes return 1.
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
