package codec

import (
	"github.com/wippyai/bitpack/errors"
	"github.com/wippyai/bitpack/internal/bits"
)

// A field occupying logical bits [offset, offset+width) of an n-byte buffer is
// a contiguous run of whole-struct integer bits [lo, lo+width), value bit j at
// integer bit lo+j. Integer bit p lives in bit p&7 of byte p>>3 counted from
// the little end (LSBFirst) or from the big end (MSBFirst).

func low(n int, offset, width uint32, order Order) uint32 {
	if order == MSBFirst {
		return uint32(n)*8 - offset - width
	}
	return offset
}

func byteIndex(n int, p uint32, order Order) int {
	if order == MSBFirst {
		return n - 1 - int(p>>3)
	}
	return int(p >> 3)
}

func check(phase errors.Phase, buf []byte, offset, width uint32, order Order) error {
	if !order.Valid() {
		return errors.New(phase, errors.KindInvalidInput).
			Value(order).
			Detail("invalid bit order %d", uint8(order)).
			Build()
	}
	if width == 0 {
		return errors.New(phase, errors.KindZeroWidthField).
			Detail("width must be positive").
			Build()
	}
	if uint64(offset)+uint64(width) > uint64(len(buf))*8 {
		return errors.OutOfBounds(phase, nil, offset, width, uint32(len(buf))*8)
	}
	return nil
}

// readWord accumulates up to 64 integer bits starting at lo: a leading partial
// byte, whole interior bytes, and a trailing partial byte.
func readWord(buf []byte, lo, width uint32, order Order) uint64 {
	n := len(buf)
	end := lo + width
	var v uint64
	for p := lo; p < end; {
		sh := p & 7
		take := min(8-sh, end-p)
		chunk := uint64(buf[byteIndex(n, p, order)]>>sh) & (uint64(1)<<take - 1)
		v |= chunk << (p - lo)
		p += take
	}
	return v
}

// writeWord is the mirror of readWord. Each touched byte is updated as
// (old &^ mask) | (shifted & mask).
func writeWord(buf []byte, lo, width uint32, v uint64, order Order) {
	n := len(buf)
	end := lo + width
	for p := lo; p < end; {
		sh := p & 7
		take := min(8-sh, end-p)
		mask := byte(uint16(1)<<take-1) << sh
		i := byteIndex(n, p, order)
		buf[i] = buf[i]&^mask | byte(v>>(p-lo)<<sh)&mask
		p += take
	}
}

// Get reads width bits (1..64) at the logical offset without mutating buf.
func Get(buf []byte, offset, width uint32, order Order) (uint64, error) {
	if width > bits.MaxWordWidth {
		return 0, errors.New(errors.PhaseDecode, errors.KindInvalidInput).
			Value(width).
			Detail("width %d exceeds 64 bits, use GetWords or GetBig", width).
			Build()
	}
	if err := check(errors.PhaseDecode, buf, offset, width, order); err != nil {
		return 0, err
	}
	return readWord(buf, low(len(buf), offset, width, order), width, order), nil
}

// Set writes value into width bits (1..64) at the logical offset, leaving all
// other bits unchanged. A value that needs more than width bits is rejected
// with a value_out_of_range error and buf is not modified.
func Set(buf []byte, offset, width uint32, value uint64, order Order) error {
	if width > bits.MaxWordWidth {
		return errors.New(errors.PhaseEncode, errors.KindInvalidInput).
			Value(width).
			Detail("width %d exceeds 64 bits, use SetWords or SetBig", width).
			Build()
	}
	if err := check(errors.PhaseEncode, buf, offset, width, order); err != nil {
		return err
	}
	if !bits.Fits(value, width) {
		return errors.ValueOutOfRange(nil, value, width)
	}
	writeWord(buf, low(len(buf), offset, width, order), width, value, order)
	return nil
}

// SetTruncating writes the low width bits of value and discards the rest.
// Only bounds errors are returned.
func SetTruncating(buf []byte, offset, width uint32, value uint64, order Order) error {
	if width > bits.MaxWordWidth {
		return errors.New(errors.PhaseEncode, errors.KindInvalidInput).
			Value(width).
			Detail("width %d exceeds 64 bits, use SetWordsTruncating or SetBigTruncating", width).
			Build()
	}
	if err := check(errors.PhaseEncode, buf, offset, width, order); err != nil {
		return err
	}
	writeWord(buf, low(len(buf), offset, width, order), width, value&bits.Mask64(width), order)
	return nil
}
