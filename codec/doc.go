// Package codec reads and writes bit ranges of packed byte buffers.
//
// A packed buffer is a fixed-length byte slice holding fields that are not
// byte aligned. Fields are addressed by a logical bit offset and a width; the
// bit-order policy decides where logical bit 0 lives:
//
//	LSBFirst  byte 0 bit 0 (least significant), little-endian whole integer
//	MSBFirst  byte 0 bit 7 (most significant),  big-endian whole integer
//
// Under both policies logical bit i lies in byte i/8, so a field's byte span
// does not depend on the order. Field values keep their natural significance:
// under MSBFirst the first logical bit of a field is its most-significant bit.
//
// # Operations
//
//	Get / Set / SetTruncating              widths 1..64 as uint64
//	GetWords / SetWords / SetWordsTruncating  any width as little-endian []uint64
//	GetBig / SetBig / SetBigTruncating     any width as *big.Int
//	ToBig / FromBig / ToUint64 / FromUint64   whole-buffer integer conversion
//
// Checked setters reject values wider than the field with a
// value_out_of_range error and leave the buffer untouched. Truncating setters
// keep the low width bits. Every operation leaves bits outside its range
// unchanged and holds no state, so concurrent use on distinct buffers is safe.
//
// ToBig is GetBig over the whole buffer, so
//
//	FromBig(ToBig(buf, o), len(buf)*8, o) == buf
//	ToBig(FromBig(v, n, o), o) == v   for 0 <= v < 2^n
package codec
