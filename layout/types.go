package layout

import (
	"strconv"

	"github.com/wippyai/bitpack/internal/bits"
)

// Tag is the declared kind of a field.
type Tag uint8

const (
	TagUint Tag = iota
	TagBool
	TagEnum
	TagNested
)

var tagNames = [...]string{
	TagUint:   "uint",
	TagBool:   "bool",
	TagEnum:   "enum",
	TagNested: "nested",
}

func (t Tag) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return "unknown"
}

// Type describes what a field holds and bounds the width it may occupy.
type Type struct {
	Nested    *Layout
	Name      string
	CaseNames []string
	Bits      uint32
	Cases     uint32
	Tag       Tag
}

// Uint is an unsigned integer of at most n bits. Uint(0) accepts any width up
// to the field maximum.
func Uint(n uint32) Type {
	return Type{Tag: TagUint, Bits: n}
}

// Bool is a single-bit flag.
func Bool() Type {
	return Type{Tag: TagBool, Bits: 1}
}

// Enum is a discriminant declared with the given bit capacity and number of
// cases. A zero capacity is derived from the cases.
func Enum(name string, capacity, cases uint32) Type {
	return Type{Tag: TagEnum, Name: name, Bits: capacity, Cases: cases}
}

// EnumOf is Enum with named cases; case i has discriminant i.
func EnumOf(name string, capacity uint32, cases ...string) Type {
	t := Enum(name, capacity, uint32(len(cases)))
	t.CaseNames = cases
	return t
}

// Nested embeds a resolved layout as a single field.
func Nested(l *Layout) Type {
	t := Type{Tag: TagNested, Nested: l}
	if l != nil {
		t.Name = l.Name()
		t.Bits = l.TotalBits()
	}
	return t
}

// Capacity returns the widest field this type can occupy.
func (t Type) Capacity() uint32 {
	switch t.Tag {
	case TagBool:
		return 1
	case TagEnum:
		if t.Bits != 0 {
			return t.Bits
		}
		return max(bits.For(uint64(t.Cases)), 1)
	case TagNested:
		if t.Nested == nil {
			return 0
		}
		return t.Nested.TotalBits()
	default:
		if t.Bits != 0 {
			return t.Bits
		}
		return bits.MaxFieldWidth
	}
}

// CaseName returns the name of discriminant d, or "" when unnamed.
func (t Type) CaseName(d uint64) string {
	if d < uint64(len(t.CaseNames)) {
		return t.CaseNames[d]
	}
	return ""
}

func (t Type) String() string {
	switch t.Tag {
	case TagBool:
		return "bool"
	case TagEnum:
		if t.Name != "" {
			return "enum " + t.Name
		}
		return "enum"
	case TagNested:
		if t.Name != "" {
			return "nested " + t.Name
		}
		return "nested"
	default:
		if t.Bits == 0 {
			return "uint"
		}
		return "u" + strconv.FormatUint(uint64(t.Bits), 10)
	}
}
