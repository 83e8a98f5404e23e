/*
Package bitint provides the power-of-2 helpers used to size analysis
windows. The FFT behind the tuner only accepts power-of-2 window sizes,
so configuration validation, table construction and the transform all
go through this package.

Usage:

	// Reject a window the transform cannot handle
	if !bitint.IsPowerOfTwo(windowSize) { ... }

	// Suggest the nearest valid size in an error message
	hint := bitint.NextPowerOfTwo(6000) // Returns 8192

	// Exponent of a power-of-2 window (8192 -> 13)
	exp := bitint.Log2(8192)

----------------------------------------------------------------------

NextPowerOfTwo subtracts one before looking at the highest set bit so
that exact powers of 2 map to themselves:

	size = 8, size-1 = 7 (0111), bits.Len(7) = 3, 1 << 3 = 8
	size = 9, size-1 = 8 (1000), bits.Len(8) = 4, 1 << 4 = 16
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the next power of 2 >= size.
//
// Examples:
//
//	Input  Output
//	4      4
//	5      8
//	0      1
//	-1     1
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo checks if n is a power of 2. Powers of 2 have exactly
// one bit set, so n & (n-1) clears it and leaves zero.
//
//	Input  Output  Binary
//	8      true    1000 & 0111 = 0000
//	7      false   0111 & 0110 = 0110
//	0      false   Not positive
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// Log2 returns the exponent of a power of 2 (8192 -> 13). For values that
// are not a power of 2 it returns the exponent of the next larger power,
// and 0 for n <= 1.
func Log2(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}
