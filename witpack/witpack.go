package witpack

import (
	"sync"

	"go.bytecodealliance.org/wit"
	"go.uber.org/zap"

	"github.com/wippyai/bitpack"
	"github.com/wippyai/bitpack/codec"
	"github.com/wippyai/bitpack/errors"
	"github.com/wippyai/bitpack/internal/bits"
	"github.com/wippyai/bitpack/layout"
)

// Converter derives layouts from WIT types and caches them per type
// definition.
type Converter struct {
	cache map[*wit.TypeDef]*layout.Layout
	mu    sync.Mutex
}

func NewConverter() *Converter {
	return &Converter{cache: make(map[*wit.TypeDef]*layout.Layout)}
}

var defaultConverter = NewConverter()

// FromType derives a layout with the package converter.
func FromType(t wit.Type) (*layout.Layout, error) {
	return defaultConverter.FromType(t)
}

// FromType derives the layout of a flags, enum or record type definition.
//
// Flags and enums keep their canonical ABI memory representation: flag i is
// bit i of the little-endian flag words, and an enum is a 1, 2 or 4 byte
// discriminant. Records pack their fields without padding, LSB first, and
// end with reserved bits up to the next byte.
func (c *Converter) FromType(t wit.Type) (*layout.Layout, error) {
	td, ok := t.(*wit.TypeDef)
	if !ok {
		return nil, errors.Unsupported(errors.PhaseSchema, "only flags, enum and record type definitions have a layout")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.typeDef(td, nil)
}

func (c *Converter) typeDef(td *wit.TypeDef, path []string) (*layout.Layout, error) {
	if cached, ok := c.cache[td]; ok {
		return cached, nil
	}

	name := typeName(td)
	if name != "" {
		path = append(append([]string(nil), path...), name)
	}

	var (
		l   *layout.Layout
		err error
	)
	switch kind := td.Kind.(type) {
	case *wit.Flags:
		l, err = c.flags(kind, name)
	case *wit.Enum:
		l, err = c.enum(kind, name)
	case *wit.Record:
		l, err = c.record(kind, name, path)
	case wit.Type:
		// alias: type a = b
		if inner, ok := kind.(*wit.TypeDef); ok {
			l, err = c.typeDef(inner, path)
			break
		}
		err = errors.New(errors.PhaseSchema, errors.KindUnsupported).
			Path(path...).
			Detail("WIT alias of %T has no bit layout", kind).
			Build()
	default:
		err = errors.New(errors.PhaseSchema, errors.KindUnsupported).
			Path(path...).
			Detail("WIT %T has no bit layout", kind).
			Build()
	}
	if err != nil {
		return nil, err
	}

	c.cache[td] = l
	layout.Logger().Debug("derived WIT layout",
		zap.String("type", name),
		zap.Uint32("bits", l.TotalBits()))
	return l, nil
}

func typeName(td *wit.TypeDef) string {
	if td.Name != nil {
		return *td.Name
	}
	return ""
}

func (c *Converter) flags(f *wit.Flags, name string) (*layout.Layout, error) {
	size := flagsBytes(len(f.Flags)) * 8
	fields := make([]layout.Field, 0, len(f.Flags)+1)
	for _, flag := range f.Flags {
		fields = append(fields, layout.BoolField(flag.Name))
	}
	if tail := size - uint32(len(f.Flags)); tail > 0 {
		fields = append(fields, layout.ReservedField("", tail))
	}
	return layout.Resolve(fields,
		layout.WithName(name),
		layout.WithOrder(codec.LSBFirst),
		layout.WithTotalBits(size))
}

func (c *Converter) enum(e *wit.Enum, name string) (*layout.Layout, error) {
	cases := make([]string, len(e.Cases))
	for i, ec := range e.Cases {
		cases[i] = ec.Name
	}
	size := discriminantBytes(len(cases)) * 8
	return layout.Resolve([]layout.Field{
		layout.EnumField("case", layout.EnumOf(name, size, cases...)),
	}, layout.WithName(name), layout.WithOrder(codec.LSBFirst))
}

func (c *Converter) record(r *wit.Record, name string, path []string) (*layout.Layout, error) {
	fields := make([]layout.Field, 0, len(r.Fields)+1)
	var total uint32
	for _, wf := range r.Fields {
		f, err := c.field(wf, append(append([]string(nil), path...), wf.Name))
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
		total += f.Width
	}
	if tail := bits.RoundUp(total, 8) - total; tail > 0 {
		fields = append(fields, layout.ReservedField("", tail))
	}
	return layout.Resolve(fields, layout.WithName(name), layout.WithOrder(codec.LSBFirst))
}

func (c *Converter) field(wf wit.Field, path []string) (layout.Field, error) {
	switch t := wf.Type.(type) {
	case wit.Bool:
		return layout.BoolField(wf.Name), nil
	case wit.U8:
		return layout.UintField(wf.Name, 8), nil
	case wit.U16:
		return layout.UintField(wf.Name, 16), nil
	case wit.U32:
		return layout.UintField(wf.Name, 32), nil
	case wit.U64:
		return layout.UintField(wf.Name, 64), nil
	case *wit.TypeDef:
		// enums inside records take the minimal discriminant width
		if e, ok := t.Kind.(*wit.Enum); ok {
			cases := make([]string, len(e.Cases))
			for i, ec := range e.Cases {
				cases[i] = ec.Name
			}
			return layout.EnumField(wf.Name, layout.EnumOf(typeName(t), 0, cases...)), nil
		}
		nested, err := c.typeDef(t, path)
		if err != nil {
			return layout.Field{}, err
		}
		return layout.NestedField(wf.Name, nested), nil
	}
	return layout.Field{}, errors.New(errors.PhaseSchema, errors.KindUnsupported).
		Path(path...).
		Detail("WIT %T has no bit layout", wf.Type).
		Build()
}

// SetFlags returns the names of the flags set in s, in declaration order.
func SetFlags(s *bitpack.Struct) []string {
	var names []string
	l := s.Layout()
	for i := range l.NumFields() {
		f := l.Field(i)
		if f.Reserved || f.Type.Tag != layout.TagBool {
			continue
		}
		if on, _ := s.Bool(f.Name); on {
			names = append(names, f.Name)
		}
	}
	return names
}

// Flags returns an instance of a flags layout with the named flags set.
func Flags(l *layout.Layout, names ...string) (*bitpack.Struct, error) {
	s := bitpack.New(l)
	for _, name := range names {
		if err := s.SetBool(name, true); err != nil {
			return nil, err
		}
	}
	return s, nil
}
