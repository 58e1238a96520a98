package codec

import (
	"math/big"

	"github.com/wippyai/bitpack/errors"
	"github.com/wippyai/bitpack/internal/bits"
)

// WordCount returns the number of uint64 words holding a width-bit value.
func WordCount(width uint32) int {
	return int((width + 63) / 64)
}

// GetWords reads width bits at the logical offset into little-endian 64-bit
// words appended to dst[:0]. The read is chunked one machine word at a time,
// so it allocates only when dst lacks capacity.
func GetWords(buf []byte, offset, width uint32, order Order, dst []uint64) ([]uint64, error) {
	if err := check(errors.PhaseDecode, buf, offset, width, order); err != nil {
		return dst[:0], err
	}
	dst = dst[:0]
	lo := low(len(buf), offset, width, order)
	for k := uint32(0); k < width; k += 64 {
		dst = append(dst, readWord(buf, lo+k, min(64, width-k), order))
	}
	return dst, nil
}

// SetWords writes a little-endian word value into width bits at the logical
// offset. Missing high words are zero; any set bit at or above width is
// rejected with a value_out_of_range error.
func SetWords(buf []byte, offset, width uint32, words []uint64, order Order) error {
	if err := check(errors.PhaseEncode, buf, offset, width, order); err != nil {
		return err
	}
	if !wordsFit(words, width) {
		return errors.ValueOutOfRange(nil, wordsToBig(words).Text(16), width)
	}
	writeWords(buf, offset, width, words, order)
	return nil
}

// SetWordsTruncating writes the low width bits of words and discards the rest.
func SetWordsTruncating(buf []byte, offset, width uint32, words []uint64, order Order) error {
	if err := check(errors.PhaseEncode, buf, offset, width, order); err != nil {
		return err
	}
	writeWords(buf, offset, width, words, order)
	return nil
}

func writeWords(buf []byte, offset, width uint32, words []uint64, order Order) {
	lo := low(len(buf), offset, width, order)
	for k, i := uint32(0), 0; k < width; k, i = k+64, i+1 {
		var w uint64
		if i < len(words) {
			w = words[i]
		}
		n := min(64, width-k)
		writeWord(buf, lo+k, n, w&bits.Mask64(n), order)
	}
}

func wordsFit(words []uint64, width uint32) bool {
	need := WordCount(width)
	for i := need; i < len(words); i++ {
		if words[i] != 0 {
			return false
		}
	}
	if rem := width % 64; rem != 0 && need <= len(words) {
		return bits.Fits(words[need-1], rem)
	}
	return true
}

// GetBig reads width bits at the logical offset as an arbitrary-precision
// unsigned integer.
func GetBig(buf []byte, offset, width uint32, order Order) (*big.Int, error) {
	var scratch [2]uint64
	words, err := GetWords(buf, offset, width, order, scratch[:0])
	if err != nil {
		return nil, err
	}
	return wordsToBig(words), nil
}

// SetBig writes v into width bits at the logical offset. Negative values and
// values of more than width bits are rejected with a value_out_of_range error.
func SetBig(buf []byte, offset, width uint32, v *big.Int, order Order) error {
	if err := check(errors.PhaseEncode, buf, offset, width, order); err != nil {
		return err
	}
	if v == nil {
		return errors.InvalidInput(errors.PhaseEncode, "nil value")
	}
	if v.Sign() < 0 || v.BitLen() > int(width) {
		return errors.ValueOutOfRange(nil, v.String(), width)
	}
	writeWords(buf, offset, width, bigToWords(v, width), order)
	return nil
}

// SetBigTruncating writes v modulo 2^width. Negative values are truncated in
// two's complement, so -1 sets every bit of the field.
func SetBigTruncating(buf []byte, offset, width uint32, v *big.Int, order Order) error {
	if err := check(errors.PhaseEncode, buf, offset, width, order); err != nil {
		return err
	}
	if v == nil {
		return errors.InvalidInput(errors.PhaseEncode, "nil value")
	}
	mask := new(big.Int).Lsh(big.NewInt(1), uint(width))
	mask.Sub(mask, big.NewInt(1))
	writeWords(buf, offset, width, bigToWords(new(big.Int).And(v, mask), width), order)
	return nil
}

func wordsToBig(words []uint64) *big.Int {
	z := new(big.Int)
	w := new(big.Int)
	for i := len(words) - 1; i >= 0; i-- {
		z.Lsh(z, 64)
		z.Or(z, w.SetUint64(words[i]))
	}
	return z
}

// bigToWords expects 0 <= v < 2^width.
func bigToWords(v *big.Int, width uint32) []uint64 {
	raw := v.FillBytes(make([]byte, WordCount(width)*8))
	words := make([]uint64, WordCount(width))
	for i := range words {
		var w uint64
		for _, b := range raw[len(raw)-8*(i+1) : len(raw)-8*i] {
			w = w<<8 | uint64(b)
		}
		words[i] = w
	}
	return words
}
