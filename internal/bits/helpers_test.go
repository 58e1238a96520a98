package bits

import (
	"math"
	"testing"
)

func TestByteLen(t *testing.T) {
	tests := []struct {
		bits uint32
		want uint32
	}{
		{0, 0}, {1, 1}, {7, 1}, {8, 1}, {9, 2}, {16, 2}, {31, 4}, {128, 16}, {129, 17},
	}

	for _, tt := range tests {
		if got := ByteLen(tt.bits); got != tt.want {
			t.Errorf("ByteLen(%d) = %d, want %d", tt.bits, got, tt.want)
		}
	}
}

func TestMask64(t *testing.T) {
	tests := []struct {
		width uint32
		want  uint64
	}{
		{0, 0},
		{1, 1},
		{5, 0x1f},
		{8, 0xff},
		{63, math.MaxUint64 >> 1},
		{64, math.MaxUint64},
		{100, math.MaxUint64},
	}

	for _, tt := range tests {
		if got := Mask64(tt.width); got != tt.want {
			t.Errorf("Mask64(%d) = %#x, want %#x", tt.width, got, tt.want)
		}
	}
}

func TestFits(t *testing.T) {
	tests := []struct {
		name  string
		v     uint64
		width uint32
		want  bool
	}{
		{"zero in one bit", 0, 1, true},
		{"one in one bit", 1, 1, true},
		{"two in one bit", 2, 1, false},
		{"max u7", 0x7f, 7, true},
		{"u8 in u7", 0x80, 7, false},
		{"max u64", math.MaxUint64, 64, true},
		{"wider than word", math.MaxUint64, 100, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fits(tt.v, tt.width); got != tt.want {
				t.Errorf("Fits(%#x, %d) = %v, want %v", tt.v, tt.width, got, tt.want)
			}
		})
	}
}

func TestFor(t *testing.T) {
	tests := []struct {
		n    uint64
		want uint32
	}{
		{0, 0}, {1, 0}, {2, 1}, {3, 2}, {4, 2}, {5, 3}, {8, 3}, {9, 4}, {256, 8}, {257, 9},
	}

	for _, tt := range tests {
		if got := For(tt.n); got != tt.want {
			t.Errorf("For(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestRoundUp(t *testing.T) {
	tests := []struct {
		n, align, want uint32
	}{
		{5, 0, 5},
		{0, 8, 0},
		{1, 8, 8},
		{8, 8, 8},
		{9, 8, 16},
		{33, 32, 64},
	}

	for _, tt := range tests {
		if got := RoundUp(tt.n, tt.align); got != tt.want {
			t.Errorf("RoundUp(%d, %d) = %d, want %d", tt.n, tt.align, got, tt.want)
		}
	}
}

func TestSafeAddU32(t *testing.T) {
	if got, ok := SafeAddU32(1, 2); !ok || got != 3 {
		t.Errorf("SafeAddU32(1, 2) = %d, %v", got, ok)
	}
	if _, ok := SafeAddU32(math.MaxUint32, 1); ok {
		t.Error("SafeAddU32 should report overflow")
	}
}

func TestTypeName(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{"nil", nil, "nil"},
		{"uint8", uint8(1), "uint8"},
		{"bool", true, "bool"},
		{"pointer", new(uint32), "*uint32"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TypeName(tt.input); got != tt.want {
				t.Errorf("TypeName(%v) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
