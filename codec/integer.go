package codec

import (
	"math/big"

	"github.com/wippyai/bitpack/errors"
	"github.com/wippyai/bitpack/internal/bits"
)

// ToBig returns the whole buffer as one unsigned integer. It is GetBig over
// offset 0 and the full buffer width.
func ToBig(buf []byte, order Order) *big.Int {
	if len(buf) == 0 {
		return new(big.Int)
	}
	v, err := GetBig(buf, 0, uint32(len(buf))*8, order)
	if err != nil {
		// unreachable: the range always covers the buffer exactly
		panic(err)
	}
	return v
}

// FromBig encodes v into a new buffer of totalBits/8 bytes. totalBits must be
// a positive multiple of 8. Values that are negative or need more than
// totalBits bits fail with an overflow error.
func FromBig(v *big.Int, totalBits uint32, order Order) ([]byte, error) {
	if err := checkTotal(totalBits, order); err != nil {
		return nil, err
	}
	if v == nil {
		return nil, errors.InvalidInput(errors.PhaseConvert, "nil value")
	}
	if v.Sign() < 0 || v.BitLen() > int(totalBits) {
		return nil, errors.Overflow(nil, v.String(), totalBits)
	}
	buf := make([]byte, totalBits/8)
	writeWords(buf, 0, totalBits, bigToWords(v, totalBits), order)
	return buf, nil
}

// ToUint64 returns the whole buffer as a uint64. Buffers longer than 8 bytes
// convert only when the value fits.
func ToUint64(buf []byte, order Order) (uint64, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	if len(buf) <= 8 {
		return readWord(buf, 0, uint32(len(buf))*8, order), nil
	}
	v := ToBig(buf, order)
	if v.BitLen() > 64 {
		return 0, errors.Overflow(nil, v.String(), 64)
	}
	return v.Uint64(), nil
}

// FromUint64 encodes v into a new buffer of totalBits/8 bytes.
func FromUint64(v uint64, totalBits uint32, order Order) ([]byte, error) {
	if err := checkTotal(totalBits, order); err != nil {
		return nil, err
	}
	if !bits.Fits(v, totalBits) {
		return nil, errors.Overflow(nil, v, totalBits)
	}
	buf := make([]byte, totalBits/8)
	// integer bit 0 is the low end under both orders
	writeWord(buf, 0, min(totalBits, 64), v, order)
	return buf, nil
}

func checkTotal(totalBits uint32, order Order) error {
	if !order.Valid() {
		return errors.New(errors.PhaseConvert, errors.KindInvalidInput).
			Value(order).
			Detail("invalid bit order %d", uint8(order)).
			Build()
	}
	if totalBits == 0 || totalBits%8 != 0 {
		return errors.SizeMismatch(errors.PhaseConvert, nil, totalBits, bits.RoundUp(max(totalBits, 1), 8))
	}
	return nil
}
