package bitpack

import (
	"fmt"
	"reflect"

	"github.com/wippyai/bitpack/codec"
	"github.com/wippyai/bitpack/errors"
	"github.com/wippyai/bitpack/internal/bits"
	"github.com/wippyai/bitpack/layout"
)

// Unsigned is the set of Go types a typed accessor can return.
type Unsigned interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uint
}

// accessor is the part shared by every typed accessor: a field bound to the
// layout it was resolved in.
type accessor struct {
	layout *layout.Layout
	field  layout.Field
}

func bind(l *layout.Layout, name string, tag layout.Tag, goBits uint32) accessor {
	f, ok := l.Lookup(name)
	if !ok {
		panic(errors.FieldUnknown(errors.PhaseLayout, pathOf(l), name))
	}
	if f.Type.Tag != tag {
		panic(errors.TypeMismatch(errors.PhaseLayout, l.Path(name), tag.String(), f.Type.String()))
	}
	if f.Width > goBits {
		panic(errors.FieldTooWide(l.Path(name), f.Width, goBits, f.Type.String()))
	}
	return accessor{layout: l, field: f}
}

func (a accessor) check(s *Struct) {
	if s.layout != a.layout {
		panic(fmt.Sprintf("bitpack: accessor for %s used on instance of %s", a.layout, s.layout))
	}
}

func (a accessor) get(s *Struct) uint64 {
	a.check(s)
	v, err := codec.Get(s.buf, a.field.Offset, a.field.Width, a.layout.Order())
	if err != nil {
		// bounds were validated when the layout was resolved
		panic(err)
	}
	return v
}

func (a accessor) set(s *Struct, v uint64) error {
	a.check(s)
	if err := codec.Set(s.buf, a.field.Offset, a.field.Width, v, a.layout.Order()); err != nil {
		return errors.WithPath(err, a.layout.Path(a.field.Name)...)
	}
	return nil
}

func (a accessor) setTruncating(s *Struct, v uint64) {
	a.check(s)
	if err := codec.SetTruncating(s.buf, a.field.Offset, a.field.Width, v, a.layout.Order()); err != nil {
		panic(err)
	}
}

// Field returns the resolved field the accessor reads and writes.
func (a accessor) Field() layout.Field {
	return a.field
}

func bitsOf[T Unsigned]() uint32 {
	return uint32(reflect.TypeFor[T]().Bits())
}

// UintField is a typed accessor for an unsigned integer field.
type UintField[T Unsigned] struct {
	accessor
}

// Uint binds the named uint field of l. It panics when the field is missing,
// reserved, not an unsigned integer, or wider than T, so accessors are best
// declared as package variables next to their layout.
func Uint[T Unsigned](l *layout.Layout, name string) UintField[T] {
	return UintField[T]{bind(l, name, layout.TagUint, bitsOf[T]())}
}

func (a UintField[T]) Get(s *Struct) T {
	return T(a.get(s))
}

// Set is the checked setter.
func (a UintField[T]) Set(s *Struct, v T) error {
	return a.set(s, uint64(v))
}

// SetTruncating keeps the low field-width bits of v.
func (a UintField[T]) SetTruncating(s *Struct, v T) {
	a.setTruncating(s, uint64(v))
}

// BoolField is a typed accessor for a bool field.
type BoolField struct {
	accessor
}

// Bool binds the named bool field of l.
func Bool(l *layout.Layout, name string) BoolField {
	return BoolField{bind(l, name, layout.TagBool, 1)}
}

func (a BoolField) Get(s *Struct) bool {
	return a.get(s) != 0
}

func (a BoolField) Set(s *Struct, v bool) {
	var bit uint64
	if v {
		bit = 1
	}
	a.setTruncating(s, bit)
}

// EnumField is a typed accessor for an enum discriminant.
type EnumField[T Unsigned] struct {
	accessor
}

// Enum binds the named enum field of l.
func Enum[T Unsigned](l *layout.Layout, name string) EnumField[T] {
	return EnumField[T]{bind(l, name, layout.TagEnum, bitsOf[T]())}
}

// Get returns the stored discriminant. Bits that name no case fail with an
// invalid_discriminant error.
func (a EnumField[T]) Get(s *Struct) (T, error) {
	v := a.get(s)
	if cases := a.field.Type.Cases; cases > 0 && v >= uint64(cases) {
		return 0, errors.InvalidDiscriminant(errors.PhaseDecode, a.layout.Path(a.field.Name), v, cases)
	}
	return T(v), nil
}

// Set stores a discriminant, rejecting values that name no case.
func (a EnumField[T]) Set(s *Struct, v T) error {
	if cases := a.field.Type.Cases; cases > 0 && uint64(v) >= uint64(cases) && bits.Fits(uint64(v), a.field.Width) {
		return errors.InvalidDiscriminant(errors.PhaseEncode, a.layout.Path(a.field.Name), uint64(v), cases)
	}
	return a.set(s, uint64(v))
}

// SetTruncating keeps the low field-width bits of v. The result may name no
// case; Get reports that.
func (a EnumField[T]) SetTruncating(s *Struct, v T) {
	a.setTruncating(s, uint64(v))
}

// Name returns the case name of the stored discriminant, or "" when unnamed.
func (a EnumField[T]) Name(s *Struct) string {
	return a.field.Type.CaseName(a.get(s))
}
