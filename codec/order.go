package codec

import (
	"strings"

	"github.com/wippyai/bitpack/errors"
)

// Order is the bit-order policy of a packed buffer.
type Order uint8

const (
	// LSBFirst places logical bit 0 in the least-significant bit of byte 0.
	// The buffer is the little-endian encoding of the whole-struct integer.
	LSBFirst Order = iota
	// MSBFirst places logical bit 0 in the most-significant bit of byte 0.
	// The buffer is the big-endian encoding of the whole-struct integer.
	MSBFirst
)

func (o Order) String() string {
	switch o {
	case LSBFirst:
		return "lsb"
	case MSBFirst:
		return "msb"
	default:
		return "unknown"
	}
}

// Valid reports whether o is one of the defined policies.
func (o Order) Valid() bool {
	return o == LSBFirst || o == MSBFirst
}

// ParseOrder accepts "lsb", "lsb0", "lsb-first", "little" and the msb
// equivalents, case-insensitively.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lsb", "lsb0", "lsb-first", "little":
		return LSBFirst, nil
	case "msb", "msb0", "msb-first", "big":
		return MSBFirst, nil
	default:
		return LSBFirst, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Value(s).
			Detail("unknown bit order %q", s).
			Build()
	}
}

// Locate returns the byte index and the bit within that byte (0 = least
// significant) holding logical bit i.
func Locate(i uint32, order Order) (byteIdx uint32, bit uint8) {
	byteIdx = i >> 3
	bit = uint8(i & 7)
	if order == MSBFirst {
		bit = 7 - bit
	}
	return byteIdx, bit
}

// ByteSpan returns the first and last byte touched by logical bits
// [offset, offset+width). The span is the same under both orders.
func ByteSpan(offset, width uint32) (first, last uint32) {
	if width == 0 {
		return offset >> 3, offset >> 3
	}
	return offset >> 3, (offset + width - 1) >> 3
}
