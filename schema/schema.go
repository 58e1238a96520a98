package schema

import (
	"fmt"
	"math/big"
	"reflect"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/bitpack"
	"github.com/wippyai/bitpack/errors"
	"github.com/wippyai/bitpack/internal/bits"
	"github.com/wippyai/bitpack/layout"
)

// Enum is implemented by unsigned Go types used as discriminants. Case i has
// discriminant i. Types that also implement fmt.Stringer name their cases.
type Enum interface {
	BitfieldCases() int
}

var (
	enumType   = reflect.TypeFor[Enum]()
	bigIntType = reflect.TypeFor[*big.Int]()
)

type kind uint8

const (
	kindBool kind = iota
	kindUint
	kindEnum
	kindNested
	kindBig
	kindReserved
)

type compiledField struct {
	nested *Schema
	name   string
	index  int
	kind   kind
}

// Schema binds a Go struct type to the layout declared by its tags.
type Schema struct {
	goType reflect.Type
	layout *layout.Layout
	fields []compiledField
}

// Layout returns the resolved layout.
func (s *Schema) Layout() *layout.Layout {
	return s.layout
}

// GoType returns the struct type the schema was compiled from.
func (s *Schema) GoType() reflect.Type {
	return s.goType
}

// Compiler compiles struct types into schemas and caches the result per type.
type Compiler struct {
	resolver *layout.Resolver
	cache    sync.Map // reflect.Type -> *Schema
}

func NewCompiler() *Compiler {
	return &Compiler{resolver: layout.NewResolver()}
}

var defaultCompiler = NewCompiler()

// Compile compiles t with the package compiler.
func Compile(t reflect.Type) (*Schema, error) {
	return defaultCompiler.Compile(t)
}

// For compiles T with the package compiler.
func For[T any]() (*Schema, error) {
	return defaultCompiler.Compile(reflect.TypeFor[T]())
}

func (c *Compiler) Compile(t reflect.Type) (*Schema, error) {
	if t == nil {
		return nil, errors.InvalidInput(errors.PhaseSchema, "type cannot be nil")
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if cached, ok := c.cache.Load(t); ok {
		return cached.(*Schema), nil
	}

	s, err := c.compile(t, nil)
	if err != nil {
		return nil, err
	}
	actual, _ := c.cache.LoadOrStore(t, s)
	return actual.(*Schema), nil
}

func (c *Compiler) compile(t reflect.Type, path []string) (*Schema, error) {
	if t.Kind() != reflect.Struct {
		return nil, errors.TypeMismatch(errors.PhaseSchema, path, t.String(), "struct")
	}

	name := t.Name()
	var (
		fields []layout.Field
		opts   []layout.Option
		out    []compiledField
	)
	for i := range t.NumField() {
		sf := t.Field(i)
		fieldPath := append(append([]string(nil), path...), sf.Name)

		tg, err := parseTag(sf.Tag.Get(TagName), fieldPath)
		if err != nil {
			return nil, err
		}
		if tg.skip {
			continue
		}

		// `_ struct{}` carries layout options
		if sf.Name == "_" && sf.Type.Kind() == reflect.Struct && sf.Type.NumField() == 0 {
			opts = append(opts, tg.opts...)
			if tg.name != "" {
				name = tg.name
			}
			continue
		}
		if len(tg.opts) > 0 {
			return nil, badTag(fieldPath, sf.Tag.Get(TagName), "layout options belong on a blank struct{} field")
		}
		if sf.Name != "_" && !sf.IsExported() {
			continue
		}

		f, cf, err := c.compileField(sf, tg, fieldPath)
		if err != nil {
			return nil, err
		}
		cf.index = i
		cf.name = f.Name
		fields = append(fields, f)
		out = append(out, cf)
	}

	if name != "" {
		opts = append(opts, layout.WithName(name))
	}
	l, err := c.resolver.Resolve(fields, opts...)
	if err != nil {
		return nil, err
	}

	layout.Logger().Debug("compiled schema",
		zap.Stringer("type", t),
		zap.Uint32("bits", l.TotalBits()),
		zap.Int("fields", len(fields)))
	return &Schema{goType: t, layout: l, fields: out}, nil
}

func (c *Compiler) compileField(sf reflect.StructField, tg tag, path []string) (layout.Field, compiledField, error) {
	name := sf.Name
	if tg.name != "" {
		name = tg.name
	}
	t := sf.Type
	width := tg.width

	if sf.Name == "_" {
		if !isUnsigned(t) && t.Kind() != reflect.Bool {
			return layout.Field{}, compiledField{}, errors.TypeMismatch(errors.PhaseSchema, path, t.String(), "unsigned reserved bits")
		}
		if width == 0 {
			width = goBits(t)
		}
		return layout.ReservedField(tg.name, width), compiledField{kind: kindReserved}, nil
	}

	switch {
	case t == bigIntType:
		if width == 0 {
			return layout.Field{}, compiledField{}, errors.New(errors.PhaseSchema, errors.KindInvalidInput).
				Path(path...).
				GoType(t.String()).
				Detail("*big.Int fields need an explicit width").
				Build()
		}
		return layout.Field{Name: name, Width: width, Type: layout.Uint(0)}, compiledField{kind: kindBig}, nil

	case isUnsigned(t) && t.Implements(enumType):
		cases := reflect.Zero(t).Interface().(Enum).BitfieldCases()
		if cases < 0 {
			return layout.Field{}, compiledField{}, errors.New(errors.PhaseSchema, errors.KindInvalidInput).
				Path(path...).
				GoType(t.String()).
				Detail("negative case count %d", cases).
				Build()
		}
		et := layout.EnumOf(t.Name(), 0, caseNames(t, cases)...)
		if width == 0 {
			width = et.Capacity()
		}
		// a tagged width may exceed the minimal one, up to the Go type's size
		et.Bits = min(width, goBits(t))
		return layout.Field{Name: name, Width: width, Type: et}, compiledField{kind: kindEnum}, nil

	case t.Kind() == reflect.Bool:
		if width == 0 {
			width = 1
		}
		return layout.Field{Name: name, Width: width, Type: layout.Bool()}, compiledField{kind: kindBool}, nil

	case isUnsigned(t):
		if width == 0 {
			width = goBits(t)
		}
		return layout.Field{Name: name, Width: width, Type: layout.Uint(goBits(t))}, compiledField{kind: kindUint}, nil

	case t.Kind() == reflect.Struct:
		nested, err := c.nested(t, path)
		if err != nil {
			return layout.Field{}, compiledField{}, err
		}
		f := layout.NestedField(name, nested.layout)
		if width != 0 {
			f.Width = width
		}
		return f, compiledField{kind: kindNested, nested: nested}, nil
	}

	return layout.Field{}, compiledField{}, errors.TypeMismatch(errors.PhaseSchema, path, t.String(), "bool, unsigned integer, Enum, struct or *big.Int")
}

// nested compiles an embedded struct type through the cache, so every field
// of that type shares one schema and one layout.
func (c *Compiler) nested(t reflect.Type, path []string) (*Schema, error) {
	if cached, ok := c.cache.Load(t); ok {
		return cached.(*Schema), nil
	}
	s, err := c.compile(t, path)
	if err != nil {
		return nil, err
	}
	actual, _ := c.cache.LoadOrStore(t, s)
	return actual.(*Schema), nil
}

func isUnsigned(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint:
		return true
	}
	return false
}

func goBits(t reflect.Type) uint32 {
	if t.Kind() == reflect.Bool {
		return 1
	}
	return uint32(t.Bits())
}

func caseNames(t reflect.Type, cases int) []string {
	names := make([]string, cases)
	if !t.Implements(reflect.TypeFor[fmt.Stringer]()) {
		return names
	}
	v := reflect.New(t).Elem()
	for i := range names {
		v.SetUint(uint64(i))
		names[i] = v.Interface().(fmt.Stringer).String()
	}
	return names
}

// structValue dereferences v down to an addressable or plain struct value of
// the schema's type.
func (s *Schema) structValue(v any, phase errors.Phase) (reflect.Value, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return reflect.Value{}, errors.InvalidInput(phase, "nil pointer")
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() || rv.Type() != s.goType {
		return reflect.Value{}, errors.TypeMismatch(phase, nil, bits.TypeName(v), s.goType.String())
	}
	return rv, nil
}

// Pack encodes a struct value (or pointer to one) with the checked setters.
func (s *Schema) Pack(v any) (*bitpack.Struct, error) {
	rv, err := s.structValue(v, errors.PhaseEncode)
	if err != nil {
		return nil, err
	}
	return s.pack(rv)
}

func (s *Schema) pack(rv reflect.Value) (*bitpack.Struct, error) {
	out := bitpack.New(s.layout)
	for _, f := range s.fields {
		fv := rv.Field(f.index)
		var err error
		switch f.kind {
		case kindBool:
			err = out.SetBool(f.name, fv.Bool())
		case kindUint, kindEnum:
			err = out.Set(f.name, fv.Uint())
		case kindBig:
			v := new(big.Int)
			if !fv.IsNil() {
				v = fv.Interface().(*big.Int)
			}
			err = out.SetBig(f.name, v)
		case kindNested:
			var n *bitpack.Struct
			if n, err = f.nested.pack(fv); err == nil {
				err = out.SetNested(f.name, n)
			}
		}
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Unpack decodes p into dst, which must be a non-nil pointer to the schema's
// struct type. Reserved bits are ignored.
func (s *Schema) Unpack(p *bitpack.Struct, dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.New(errors.PhaseDecode, errors.KindInvalidInput).
			GoType(bits.TypeName(dst)).
			Detail("destination must be a non-nil pointer").
			Build()
	}
	if rv.Elem().Type() != s.goType {
		return errors.TypeMismatch(errors.PhaseDecode, nil, rv.Type().String(), "*"+s.goType.String())
	}
	if p.Layout() != s.layout {
		return errors.TypeMismatch(errors.PhaseDecode, nil, p.Layout().String(), s.layout.String())
	}
	return s.unpack(p, rv.Elem())
}

func (s *Schema) unpack(p *bitpack.Struct, rv reflect.Value) error {
	for _, f := range s.fields {
		fv := rv.Field(f.index)
		switch f.kind {
		case kindBool:
			v, err := p.Bool(f.name)
			if err != nil {
				return err
			}
			fv.SetBool(v)
		case kindUint:
			v, err := p.Get(f.name)
			if err != nil {
				return err
			}
			fv.SetUint(v)
		case kindEnum:
			v, err := p.Get(f.name)
			if err != nil {
				return err
			}
			field, _ := s.layout.Lookup(f.name)
			if cases := field.Type.Cases; cases > 0 && v >= uint64(cases) {
				return errors.InvalidDiscriminant(errors.PhaseDecode, s.layout.Path(f.name), v, cases)
			}
			fv.SetUint(v)
		case kindBig:
			v, err := p.GetBig(f.name)
			if err != nil {
				return err
			}
			fv.Set(reflect.ValueOf(v))
		case kindNested:
			n, err := p.Nested(f.name)
			if err != nil {
				return err
			}
			if err := f.nested.unpack(n, fv); err != nil {
				return errors.WithPath(err, s.layout.Path(f.name)...)
			}
		}
	}
	return nil
}

func schemaOf(v any) (*Schema, error) {
	t := reflect.TypeOf(v)
	if t == nil {
		return nil, errors.InvalidInput(errors.PhaseSchema, "value cannot be nil")
	}
	return Compile(t)
}

// Pack compiles v's type and encodes v.
func Pack(v any) (*bitpack.Struct, error) {
	s, err := schemaOf(v)
	if err != nil {
		return nil, err
	}
	return s.Pack(v)
}

// Unpack compiles dst's type and decodes p into it.
func Unpack(p *bitpack.Struct, dst any) error {
	s, err := schemaOf(dst)
	if err != nil {
		return err
	}
	return s.Unpack(p, dst)
}

// Marshal returns the packed buffer of v.
func Marshal(v any) ([]byte, error) {
	p, err := Pack(v)
	if err != nil {
		return nil, err
	}
	return p.View().Bytes(), nil
}

// Unmarshal decodes a packed buffer into dst.
func Unmarshal(data []byte, dst any) error {
	s, err := schemaOf(dst)
	if err != nil {
		return err
	}
	p, err := bitpack.FromBytes(s.layout, data)
	if err != nil {
		return err
	}
	return s.Unpack(p, dst)
}
