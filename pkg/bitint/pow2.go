/*
Package bitint provides the power-of-2 helpers used to size analysis
windows and FFT workspaces.

Design Principles:
- Zero Allocations: All operations use stack memory only
- Predictable Performance: O(1) constant time operations
- Real-Time Safe: No locks, syscalls, or blocking operations

Usage:

	// Snap a configured window size onto the FFT lattice
	size := bitint.ClosestPowerOfTwo(1000) // Returns 1024

	// Verify FFT input length is valid
	isValid := bitint.IsPowerOfTwo(len(samples))

----------------------------------------------------------------------

What this code does:

	NextPowerOfTwo returns the next power of 2 greater than or
	equal to size. The subtraction (size-1) keeps exact powers
	of 2 unchanged:

	- For input 8: size-1 = 7 (binary 0111), bits.Len64(7) = 3,
	  1 << 3 = 8.
	- Without the subtraction bits.Len64(8) = 4 and the input
	  would be doubled.

	ClosestPowerOfTwo picks whichever of the two neighbouring
	powers of 2 is nearer. Ties resolve upwards, so 3 becomes 4,
	6 becomes 8 and 12 becomes 16.
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the next power of 2 >= size.
//
// Examples:
//
//	Input  Output  Explanation
//	4      4      Already power of 2 (preserved)
//	5      8      Next power after 5
//	0      1      Handle zero case
//	-1     1      Handle negative case
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return int(1 << bits.Len64(uint64(size-1)))
}

// ClosestPowerOfTwo returns the power of 2 nearest to size. Non-positive
// input returns 0, which callers treat as an invalid size.
//
// Examples:
//
//	Input  Output
//	1000   1024
//	700    512
//	768    1024   (tie rounds up)
//	1      1
//	0      0
func ClosestPowerOfTwo(size int) int {
	if size <= 0 {
		return 0
	}
	next := NextPowerOfTwo(size)
	prev := next >> 1
	if prev > 0 && size-prev < next-size {
		return prev
	}
	return next
}

// IsPowerOfTwo checks if n is a power of 2 using bit manipulation.
// The expression (n & (n-1)) == 0 works because:
//   - Powers of 2 have exactly one bit set
//   - Subtracting 1 from a power of 2 sets all lower bits
//   - AND operation will be 0 only for powers of 2
//
// Examples:
//
//	Input  Output  Binary
//	8      true    1000 & 0111 = 0000
//	7      false   0111 & 0110 = 0110
//	0      false   Not positive
//	-8     false   Not positive
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// Log2 returns log2(n) for a power of 2 n, the number of butterfly stages
// an FFT of that length needs. The result is meaningless for other inputs.
func Log2(n int) int {
	return bits.TrailingZeros64(uint64(n))
}
