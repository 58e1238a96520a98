package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseLayout  Phase = "layout"  // layout resolution
	PhaseEncode  Phase = "encode"  // field setters
	PhaseDecode  Phase = "decode"  // field getters
	PhaseConvert Phase = "convert" // whole-struct integer and byte conversion
	PhaseMemory  Phase = "memory"  // linear memory persistence
	PhaseSchema  Phase = "schema"  // Go struct tag declarations
	PhaseConfig  Phase = "config"  // declaration files
)

// Kind categorizes the error
type Kind string

const (
	KindSizeMismatch         Kind = "size_mismatch"
	KindFieldTooWide         Kind = "field_too_wide"
	KindZeroWidthField       Kind = "zero_width_field"
	KindDiscriminantOverflow Kind = "discriminant_overflow"
	KindDuplicateField       Kind = "duplicate_field"
	KindAmbiguousSize        Kind = "ambiguous_size"
	KindValueOutOfRange      Kind = "value_out_of_range"
	KindOverflow             Kind = "overflow"
	KindOutOfBounds          Kind = "out_of_bounds"
	KindFieldUnknown         Kind = "field_unknown"
	KindReservedField        Kind = "reserved_field"
	KindTypeMismatch         Kind = "type_mismatch"
	KindInvalidDiscriminant  Kind = "invalid_discriminant"
	KindInvalidInput         Kind = "invalid_input"
	KindUnsupported          Kind = "unsupported"
)

// Sentinels for errors.Is. A sentinel with an empty Kind matches every
// error of its phase.
var (
	ErrLayout = &Error{Phase: PhaseLayout}

	ErrSizeMismatch   = &Error{Phase: PhaseLayout, Kind: KindSizeMismatch}
	ErrFieldTooWide   = &Error{Phase: PhaseLayout, Kind: KindFieldTooWide}
	ErrZeroWidthField = &Error{Phase: PhaseLayout, Kind: KindZeroWidthField}

	ErrValueOutOfRange = &Error{Phase: PhaseEncode, Kind: KindValueOutOfRange}
	ErrOverflow        = &Error{Phase: PhaseConvert, Kind: KindOverflow}
)

// Error is the structured error type used throughout the module
type Error struct {
	Value     any
	Cause     error
	Phase     Phase
	Kind      Kind
	GoType    string
	FieldType string
	Detail    string
	Path      []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.GoType != "" || e.FieldType != "" {
		b.WriteString(": ")
		if e.GoType != "" && e.FieldType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", field type ")
			b.WriteString(e.FieldType)
		} else if e.GoType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		} else {
			b.WriteString("field type ")
			b.WriteString(e.FieldType)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.FieldType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. Empty Phase or Kind on the
// target act as wildcards.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase != "" && t.Phase != e.Phase {
		return false
	}
	if t.Kind != "" && t.Kind != e.Kind {
		return false
	}
	return t.Phase != "" || t.Kind != ""
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// FieldType sets the declared field type name
func (b *Builder) FieldType(t string) *Builder {
	b.err.FieldType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// SizeMismatch creates a container size mismatch error
func SizeMismatch(phase Phase, path []string, got, want uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindSizeMismatch,
		Path:   path,
		Detail: fmt.Sprintf("got %d bits, want %d", got, want),
		Value:  got,
	}
}

// FieldTooWide creates an error for a width beyond the field type's capacity
func FieldTooWide(path []string, width, capacity uint32, fieldType string) *Error {
	return &Error{
		Phase:     PhaseLayout,
		Kind:      KindFieldTooWide,
		Path:      path,
		FieldType: fieldType,
		Detail:    fmt.Sprintf("width %d exceeds capacity %d", width, capacity),
		Value:     width,
	}
}

// ZeroWidthField creates an error for a field declared with no bits
func ZeroWidthField(path []string) *Error {
	return &Error{
		Phase:  PhaseLayout,
		Kind:   KindZeroWidthField,
		Path:   path,
		Detail: "field width must be positive",
	}
}

// DiscriminantOverflow creates an error for an enum whose cases do not fit its width
func DiscriminantOverflow(path []string, cases, width uint32, fieldType string) *Error {
	return &Error{
		Phase:     PhaseLayout,
		Kind:      KindDiscriminantOverflow,
		Path:      path,
		FieldType: fieldType,
		Detail:    fmt.Sprintf("%d cases do not fit in %d bits", cases, width),
		Value:     cases,
	}
}

// DuplicateField creates an error for a field name declared twice
func DuplicateField(path []string, name string) *Error {
	return &Error{
		Phase:  PhaseLayout,
		Kind:   KindDuplicateField,
		Path:   path,
		Detail: fmt.Sprintf("field %q declared more than once", name),
	}
}

// AmbiguousSize creates an error for conflicting total size annotations
func AmbiguousSize(phase Phase, path []string, first, second uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAmbiguousSize,
		Path:   path,
		Detail: fmt.Sprintf("conflicting total sizes %d and %d", first, second),
		Value:  second,
	}
}

// ValueOutOfRange creates an error for a value wider than its field
func ValueOutOfRange(path []string, value any, width uint32) *Error {
	return &Error{
		Phase:  PhaseEncode,
		Kind:   KindValueOutOfRange,
		Path:   path,
		Detail: fmt.Sprintf("value %v does not fit in %d bits", value, width),
		Value:  value,
	}
}

// Overflow creates a whole-struct conversion overflow error
func Overflow(path []string, value any, bits uint32) *Error {
	return &Error{
		Phase:  PhaseConvert,
		Kind:   KindOverflow,
		Path:   path,
		Detail: fmt.Sprintf("value %v overflows %d bits", value, bits),
		Value:  value,
	}
}

// OutOfBounds creates an error for a bit range outside the buffer
func OutOfBounds(phase Phase, path []string, offset, width, limit uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("bits [%d, %d) out of bounds (length %d)", offset, uint64(offset)+uint64(width), limit),
		Value:  offset,
	}
}

// FieldUnknown creates an unknown field error
func FieldUnknown(phase Phase, path []string, fieldName string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindFieldUnknown,
		Path:   path,
		Detail: fmt.Sprintf("unknown field %q", fieldName),
	}
}

// ReservedField creates an error for accessing a field without accessors
func ReservedField(phase Phase, path []string, fieldName string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindReservedField,
		Path:   path,
		Detail: fmt.Sprintf("field %q is reserved", fieldName),
	}
}

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, goType, fieldType string) *Error {
	return &Error{
		Phase:     phase,
		Kind:      KindTypeMismatch,
		Path:      path,
		GoType:    goType,
		FieldType: fieldType,
	}
}

// InvalidDiscriminant creates an error for stored bits naming no enum case
func InvalidDiscriminant(phase Phase, path []string, disc uint64, cases uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidDiscriminant,
		Path:   path,
		Detail: fmt.Sprintf("discriminant %d out of range (%d cases)", disc, cases),
		Value:  disc,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// WithPath returns a copy of err with path prepended to its field path.
// Errors that are not *Error are returned unchanged.
func WithPath(err error, path ...string) error {
	var e *Error
	if !stderrors.As(err, &e) {
		return err
	}
	cp := *e
	cp.Path = append(append([]string(nil), path...), e.Path...)
	return &cp
}
