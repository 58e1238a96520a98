// Package errors provides structured error types for the bitpack module.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: field path, Go/field type names, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseLayout, errors.KindFieldTooWide).
//		Path("header", "mode").
//		FieldType("u3").
//		Detail("width %d exceeds capacity %d", 4, 3).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.ZeroWidthField([]string{"header", "flags"})
//	err := errors.ValueOutOfRange([]string{"header", "mode"}, 9, 3)
//
// Layout errors are raised at resolution time and mean no struct instance can
// be built. Value and conversion errors are returned at runtime by checked
// setters and integer conversion. The sentinels ErrSizeMismatch,
// ErrFieldTooWide, ErrZeroWidthField, ErrValueOutOfRange and ErrOverflow match
// with errors.Is; ErrLayout matches any layout-phase error.
package errors
