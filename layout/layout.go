package layout

import (
	"strconv"
	"strings"

	"github.com/wippyai/bitpack/codec"
)

// Field is a declared field. Offset and Index are filled in by Resolve.
type Field struct {
	Type     Type
	Name     string
	Width    uint32
	Offset   uint32
	Index    int
	Reserved bool
}

// BoolField declares a one-bit flag.
func BoolField(name string) Field {
	return Field{Name: name, Width: 1, Type: Bool()}
}

// UintField declares an unsigned integer occupying exactly width bits.
func UintField(name string, width uint32) Field {
	return Field{Name: name, Width: width, Type: Uint(width)}
}

// EnumField declares a discriminant occupying the type's capacity.
func EnumField(name string, t Type) Field {
	return Field{Name: name, Width: t.Capacity(), Type: t}
}

// NestedField embeds l as a single field.
func NestedField(name string, l *Layout) Field {
	t := Nested(l)
	return Field{Name: name, Width: t.Capacity(), Type: t}
}

// ReservedField occupies width bits without accessors.
func ReservedField(name string, width uint32) Field {
	return Field{Name: name, Width: width, Type: Uint(width), Reserved: true}
}

// End returns the logical bit just past the field.
func (f Field) End() uint32 {
	return f.Offset + f.Width
}

// ByteSpan returns the first and last byte the field touches.
func (f Field) ByteSpan() (first, last uint32) {
	return codec.ByteSpan(f.Offset, f.Width)
}

// Straddles reports whether the field crosses a byte boundary.
func (f Field) Straddles() bool {
	first, last := f.ByteSpan()
	return first != last
}

func (f Field) String() string {
	var b strings.Builder
	if f.Name == "" {
		b.WriteString("_")
	} else {
		b.WriteString(f.Name)
	}
	b.WriteByte(':')
	b.WriteString(f.Type.String())
	b.WriteByte('@')
	b.WriteString(strconv.FormatUint(uint64(f.Offset), 10))
	b.WriteByte('+')
	b.WriteString(strconv.FormatUint(uint64(f.Width), 10))
	if f.Reserved {
		b.WriteString(" reserved")
	}
	return b.String()
}

// Layout is a resolved, immutable field table. It is safe for concurrent use.
type Layout struct {
	index  map[string]int
	name   string
	fields []Field
	total  uint32
	order  codec.Order
}

func (l *Layout) Name() string {
	return l.name
}

func (l *Layout) Order() codec.Order {
	return l.order
}

func (l *Layout) TotalBits() uint32 {
	return l.total
}

func (l *Layout) ByteLen() int {
	return int(l.total / 8)
}

func (l *Layout) NumFields() int {
	return len(l.fields)
}

func (l *Layout) Field(i int) Field {
	return l.fields[i]
}

// Fields returns a copy of the resolved fields in declaration order.
func (l *Layout) Fields() []Field {
	return append([]Field(nil), l.fields...)
}

// Lookup finds an accessible field by name. Reserved fields are not found.
func (l *Layout) Lookup(name string) (Field, bool) {
	i, ok := l.index[name]
	if !ok {
		return Field{}, false
	}
	return l.fields[i], true
}

// Straddling returns the fields that cross a byte boundary.
func (l *Layout) Straddling() []Field {
	var out []Field
	for _, f := range l.fields {
		if f.Straddles() {
			out = append(out, f)
		}
	}
	return out
}

// Path returns the error path for a field of this layout.
func (l *Layout) Path(field string) []string {
	if l.name == "" {
		return []string{field}
	}
	return []string{l.name, field}
}

func (l *Layout) String() string {
	var b strings.Builder
	if l.name != "" {
		b.WriteString(l.name)
	}
	b.WriteByte('{')
	for i, f := range l.fields {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f.String())
	}
	b.WriteString("} ")
	b.WriteString(l.order.String())
	b.WriteByte(' ')
	b.WriteString(strconv.FormatUint(uint64(l.total), 10))
	b.WriteString(" bits")
	return b.String()
}
