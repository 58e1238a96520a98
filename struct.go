package bitpack

import (
	"bytes"
	"math/big"
	"strconv"
	"strings"

	"github.com/wippyai/bitpack/codec"
	"github.com/wippyai/bitpack/errors"
	"github.com/wippyai/bitpack/layout"
)

// Struct is an instance of a resolved layout: a packed buffer of exactly
// ByteLen bytes that is mutated only through field setters.
// It is NOT safe for concurrent use; callers synchronize access.
type Struct struct {
	layout *layout.Layout
	buf    []byte
}

// New returns a zero-initialized instance of l.
func New(l *layout.Layout) *Struct {
	return &Struct{layout: l, buf: make([]byte, l.ByteLen())}
}

// FromBytes returns an instance holding a copy of b, which must be exactly
// l.ByteLen() bytes long.
func FromBytes(l *layout.Layout, b []byte) (*Struct, error) {
	if len(b) != l.ByteLen() {
		return nil, errors.SizeMismatch(errors.PhaseConvert, pathOf(l), uint32(len(b))*8, l.TotalBits())
	}
	return &Struct{layout: l, buf: bytes.Clone(b)}, nil
}

// FromBig returns the instance whose whole-struct integer is v.
func FromBig(l *layout.Layout, v *big.Int) (*Struct, error) {
	buf, err := codec.FromBig(v, l.TotalBits(), l.Order())
	if err != nil {
		return nil, errors.WithPath(err, pathOf(l)...)
	}
	return &Struct{layout: l, buf: buf}, nil
}

// FromUint64 is FromBig for values that fit a uint64.
func FromUint64(l *layout.Layout, v uint64) (*Struct, error) {
	buf, err := codec.FromUint64(v, l.TotalBits(), l.Order())
	if err != nil {
		return nil, errors.WithPath(err, pathOf(l)...)
	}
	return &Struct{layout: l, buf: buf}, nil
}

func pathOf(l *layout.Layout) []string {
	if l.Name() == "" {
		return nil
	}
	return []string{l.Name()}
}

// Layout returns the layout the instance was created from.
func (s *Struct) Layout() *layout.Layout {
	return s.layout
}

// View returns a read-only view of the packed buffer.
func (s *Struct) View() View {
	return View{b: s.buf}
}

// Raw returns the packed buffer itself. Writes through it bypass field
// validation; the slice must not be resized.
func (s *Struct) Raw() []byte {
	return s.buf
}

// Big returns the whole-struct integer.
func (s *Struct) Big() *big.Int {
	return codec.ToBig(s.buf, s.layout.Order())
}

// Uint64 returns the whole-struct integer when it fits 64 bits.
func (s *Struct) Uint64() (uint64, error) {
	v, err := codec.ToUint64(s.buf, s.layout.Order())
	if err != nil {
		return 0, errors.WithPath(err, pathOf(s.layout)...)
	}
	return v, nil
}

// Clone returns an independent copy.
func (s *Struct) Clone() *Struct {
	return &Struct{layout: s.layout, buf: bytes.Clone(s.buf)}
}

// Equal reports whether both instances share a layout and hold the same bits.
func (s *Struct) Equal(other *Struct) bool {
	if other == nil {
		return false
	}
	return s.layout == other.layout && bytes.Equal(s.buf, other.buf)
}

// String renders the accessible fields, e.g. "Header{ready: true, count: 3}".
func (s *Struct) String() string {
	var b strings.Builder
	b.WriteString(s.layout.Name())
	b.WriteByte('{')
	first := true
	for i := range s.layout.NumFields() {
		f := s.layout.Field(i)
		if f.Reserved {
			continue
		}
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(f.Name)
		b.WriteString(": ")
		b.WriteString(s.format(f))
	}
	b.WriteByte('}')
	return b.String()
}

// Format renders one field the way String does: bools as true or false,
// enums by case name, nested fields recursively and wide integers in hex.
func (s *Struct) Format(name string) (string, error) {
	f, err := s.field(errors.PhaseDecode, name)
	if err != nil {
		return "", err
	}
	return s.format(f), nil
}

func (s *Struct) format(f layout.Field) string {
	v, err := codec.GetBig(s.buf, f.Offset, f.Width, s.layout.Order())
	if err != nil {
		return "?"
	}
	switch f.Type.Tag {
	case layout.TagBool:
		return strconv.FormatBool(v.Sign() != 0)
	case layout.TagEnum:
		if v.IsUint64() {
			if name := f.Type.CaseName(v.Uint64()); name != "" {
				return name
			}
		}
		return v.String()
	case layout.TagNested:
		n, err := FromBig(f.Type.Nested, v)
		if err != nil {
			return "?"
		}
		return n.String()
	default:
		if f.Width > 64 {
			return "0x" + v.Text(16)
		}
		return v.String()
	}
}

// View is a read-only window over a packed buffer.
type View struct {
	b []byte
}

// Len returns the buffer length in bytes.
func (v View) Len() int {
	return len(v.b)
}

// At returns byte i.
func (v View) At(i int) byte {
	return v.b[i]
}

// CopyTo copies the buffer into dst and returns the number of bytes copied.
func (v View) CopyTo(dst []byte) int {
	return copy(dst, v.b)
}

// Bytes returns a copy of the buffer.
func (v View) Bytes() []byte {
	return bytes.Clone(v.b)
}
