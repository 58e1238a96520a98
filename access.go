package bitpack

import (
	"math/big"
	"strconv"

	"github.com/wippyai/bitpack/codec"
	"github.com/wippyai/bitpack/errors"
	"github.com/wippyai/bitpack/internal/bits"
	"github.com/wippyai/bitpack/layout"
)

// field finds an accessible field by name. Reserved fields and unknown names
// are reported with distinct error kinds.
func (s *Struct) field(phase errors.Phase, name string) (layout.Field, error) {
	if f, ok := s.layout.Lookup(name); ok {
		return f, nil
	}
	for i := range s.layout.NumFields() {
		if f := s.layout.Field(i); f.Reserved && f.Name == name {
			return layout.Field{}, errors.ReservedField(phase, s.layout.Path(name), name)
		}
	}
	return layout.Field{}, errors.FieldUnknown(phase, pathOf(s.layout), name)
}

func (s *Struct) fieldAt(phase errors.Phase, i int) (layout.Field, error) {
	if i < 0 || i >= s.layout.NumFields() {
		return layout.Field{}, errors.New(phase, errors.KindFieldUnknown).
			Path(pathOf(s.layout)...).
			Value(i).
			Detail("field index %d out of range (%d fields)", i, s.layout.NumFields()).
			Build()
	}
	f := s.layout.Field(i)
	if f.Reserved {
		return layout.Field{}, errors.ReservedField(phase, s.layout.Path("#"+strconv.Itoa(i)), f.Name)
	}
	return f, nil
}

func (s *Struct) fail(err error, f layout.Field) error {
	return errors.WithPath(err, s.layout.Path(f.Name)...)
}

// checkDiscriminant rejects enum values that name no case.
func (s *Struct) checkDiscriminant(f layout.Field, v uint64) error {
	if f.Type.Tag == layout.TagEnum && f.Type.Cases > 0 && v >= uint64(f.Type.Cases) {
		return errors.InvalidDiscriminant(errors.PhaseEncode, s.layout.Path(f.Name), v, f.Type.Cases)
	}
	return nil
}

func (s *Struct) get(f layout.Field) (uint64, error) {
	v, err := codec.Get(s.buf, f.Offset, f.Width, s.layout.Order())
	if err != nil {
		return 0, s.fail(err, f)
	}
	return v, nil
}

// Get returns the value of a field at most 64 bits wide.
func (s *Struct) Get(name string) (uint64, error) {
	f, err := s.field(errors.PhaseDecode, name)
	if err != nil {
		return 0, err
	}
	return s.get(f)
}

// GetAt returns the value of the i-th declared field.
func (s *Struct) GetAt(i int) (uint64, error) {
	f, err := s.fieldAt(errors.PhaseDecode, i)
	if err != nil {
		return 0, err
	}
	return s.get(f)
}

// GetBig returns the value of a field of any width.
func (s *Struct) GetBig(name string) (*big.Int, error) {
	f, err := s.field(errors.PhaseDecode, name)
	if err != nil {
		return nil, err
	}
	v, err := codec.GetBig(s.buf, f.Offset, f.Width, s.layout.Order())
	if err != nil {
		return nil, s.fail(err, f)
	}
	return v, nil
}

// Bool returns a bool field.
func (s *Struct) Bool(name string) (bool, error) {
	f, err := s.field(errors.PhaseDecode, name)
	if err != nil {
		return false, err
	}
	if f.Type.Tag != layout.TagBool {
		return false, errors.TypeMismatch(errors.PhaseDecode, s.layout.Path(name), "bool", f.Type.String())
	}
	v, err := s.get(f)
	return v != 0, err
}

// Set stores v in a field at most 64 bits wide. A value that needs more bits
// than the field has is rejected with a value_out_of_range error and the
// instance is left unchanged.
func (s *Struct) Set(name string, v uint64) error {
	f, err := s.field(errors.PhaseEncode, name)
	if err != nil {
		return err
	}
	if bits.Fits(v, f.Width) {
		if err := s.checkDiscriminant(f, v); err != nil {
			return err
		}
	}
	if err := codec.Set(s.buf, f.Offset, f.Width, v, s.layout.Order()); err != nil {
		return s.fail(err, f)
	}
	return nil
}

// SetTruncating stores the low bits of v that fit the field and discards the
// rest, so SetTruncating("b", 9) on a 3-bit field stores 1.
func (s *Struct) SetTruncating(name string, v uint64) error {
	f, err := s.field(errors.PhaseEncode, name)
	if err != nil {
		return err
	}
	if err := codec.SetTruncating(s.buf, f.Offset, f.Width, v, s.layout.Order()); err != nil {
		return s.fail(err, f)
	}
	return nil
}

// SetBig is the checked setter for fields of any width.
func (s *Struct) SetBig(name string, v *big.Int) error {
	f, err := s.field(errors.PhaseEncode, name)
	if err != nil {
		return err
	}
	if v != nil && v.IsUint64() && bits.Fits(v.Uint64(), f.Width) {
		if err := s.checkDiscriminant(f, v.Uint64()); err != nil {
			return err
		}
	}
	if err := codec.SetBig(s.buf, f.Offset, f.Width, v, s.layout.Order()); err != nil {
		return s.fail(err, f)
	}
	return nil
}

// SetBigTruncating stores the low field-width bits of v's two's complement
// representation.
func (s *Struct) SetBigTruncating(name string, v *big.Int) error {
	f, err := s.field(errors.PhaseEncode, name)
	if err != nil {
		return err
	}
	if err := codec.SetBigTruncating(s.buf, f.Offset, f.Width, v, s.layout.Order()); err != nil {
		return s.fail(err, f)
	}
	return nil
}

// SetBool stores a bool field.
func (s *Struct) SetBool(name string, v bool) error {
	f, err := s.field(errors.PhaseEncode, name)
	if err != nil {
		return err
	}
	if f.Type.Tag != layout.TagBool {
		return errors.TypeMismatch(errors.PhaseEncode, s.layout.Path(name), "bool", f.Type.String())
	}
	var bit uint64
	if v {
		bit = 1
	}
	if err := codec.Set(s.buf, f.Offset, f.Width, bit, s.layout.Order()); err != nil {
		return s.fail(err, f)
	}
	return nil
}

// Nested returns a copy of a nested field as an instance of its layout. The
// nested value is the nested instance's whole-struct integer.
func (s *Struct) Nested(name string) (*Struct, error) {
	f, err := s.field(errors.PhaseDecode, name)
	if err != nil {
		return nil, err
	}
	if f.Type.Tag != layout.TagNested {
		return nil, errors.TypeMismatch(errors.PhaseDecode, s.layout.Path(name), "nested", f.Type.String())
	}
	v, err := codec.GetBig(s.buf, f.Offset, f.Width, s.layout.Order())
	if err != nil {
		return nil, s.fail(err, f)
	}
	n, err := FromBig(f.Type.Nested, v)
	if err != nil {
		return nil, s.fail(err, f)
	}
	return n, nil
}

// SetNested stores n, which must be an instance of the field's layout.
func (s *Struct) SetNested(name string, n *Struct) error {
	f, err := s.field(errors.PhaseEncode, name)
	if err != nil {
		return err
	}
	if f.Type.Tag != layout.TagNested || n == nil || n.layout != f.Type.Nested {
		got := "nil"
		if n != nil {
			got = "nested " + n.layout.Name()
		}
		return errors.TypeMismatch(errors.PhaseEncode, s.layout.Path(name), got, f.Type.String())
	}
	if err := codec.SetBig(s.buf, f.Offset, f.Width, n.Big(), s.layout.Order()); err != nil {
		return s.fail(err, f)
	}
	return nil
}

// With sets a field with the checked setter and returns s for chaining.
// It panics on error and is meant for literals whose values are known to fit.
func (s *Struct) With(name string, v uint64) *Struct {
	if err := s.Set(name, v); err != nil {
		panic(err)
	}
	return s
}
