package bits

import (
	mbits "math/bits"
	"reflect"
)

const (
	// MaxFieldWidth is the widest single field a layout accepts.
	MaxFieldWidth = 128
	// MaxWordWidth is the widest field readable into a uint64.
	MaxWordWidth = 64
)

// ByteLen returns the number of bytes needed to hold n bits.
func ByteLen(n uint32) uint32 {
	return (n + 7) / 8
}

// Mask64 returns a mask with the low width bits set. Widths >= 64 yield all ones.
func Mask64(width uint32) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return uint64(1)<<width - 1
}

// Fits reports whether v is representable in width bits.
func Fits(v uint64, width uint32) bool {
	if width >= 64 {
		return true
	}
	return v>>width == 0
}

// For returns the minimal number of bits that can index n distinct values.
// For(0) and For(1) are 0.
func For(n uint64) uint32 {
	if n <= 1 {
		return 0
	}
	return uint32(mbits.Len64(n - 1))
}

// RoundUp rounds n up to a multiple of align. Align 0 returns n.
func RoundUp(n, align uint32) uint32 {
	if align == 0 {
		return n
	}
	return (n + align - 1) / align * align
}

// SafeAddU32 adds with an overflow check.
func SafeAddU32(a, b uint32) (uint32, bool) {
	if a > ^uint32(0)-b {
		return 0, false
	}
	return a + b, true
}

// TypeName returns "nil" for nil values, avoiding reflect.TypeOf(nil) panic.
func TypeName(value any) string {
	if value == nil {
		return "nil"
	}
	return reflect.TypeOf(value).String()
}
