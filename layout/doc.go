// Package layout resolves ordered field declarations into bit layouts.
//
// A layout assigns every field a logical bit offset equal to the sum of the
// widths declared before it, and records the bit-order policy the codec uses
// to map logical bits onto the packed buffer.
//
// # Validation
//
// Resolve rejects a declaration when:
//   - a field has zero width
//   - a field is wider than its type allows (bool 1, Uint(N) N, enum its
//     declared bits, nested its layout's total, anything 128)
//   - an enum's cases need more bits than its field
//   - the total is not a whole number of bytes, or differs from WithTotalBits
//   - WithTotalBits is given twice with different values
//
// Every problem found is returned in one error built with go.uber.org/multierr,
// and errors.Is matches each of them.
//
// # Usage
//
//	l, err := layout.Resolve([]layout.Field{
//		layout.BoolField("sign"),
//		layout.UintField("value", 31),
//	}, layout.WithOrder(codec.MSBFirst), layout.WithTotalBits(32))
//
// A Resolver caches layouts so instances declared from the same field list
// share one *Layout. Layouts are immutable and safe for concurrent use.
package layout
