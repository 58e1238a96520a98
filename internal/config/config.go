package config

import (
	"os"
	"strconv"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v2"

	"github.com/wippyai/bitpack/codec"
	"github.com/wippyai/bitpack/errors"
	"github.com/wippyai/bitpack/layout"
)

// File is the YAML declaration file read by the CLI.
//
//	layouts:
//	  - name: Color
//	    fields:
//	      - {name: r, bits: 3}
//	      - {name: g, bits: 3}
//	      - {name: b, bits: 2}
//	  - name: Pixel
//	    order: msb
//	    bits: 24
//	    fields:
//	      - {name: fg, type: nested, layout: Color}
//	      - {name: mode, type: enum, cases: [off, on, auto]}
//	      - {name: blink, type: bool}
//	      - {type: reserved, bits: 5}
//	      - {name: level, bits: 8}
type File struct {
	Layouts []Decl `yaml:"layouts"`
}

// Decl declares one layout. Bits, when set, is the declared total width.
type Decl struct {
	Name   string      `yaml:"name"`
	Order  string      `yaml:"order"`
	Fields []FieldDecl `yaml:"fields"`
	Bits   uint32      `yaml:"bits"`
}

// FieldDecl declares one field. Type is uint (the default), bool, enum,
// nested or reserved. Enums take their cases by name or by count.
type FieldDecl struct {
	Name   string   `yaml:"name"`
	Type   string   `yaml:"type"`
	Layout string   `yaml:"layout"`
	Cases  []string `yaml:"cases"`
	Count  uint32   `yaml:"count"`
	Bits   uint32   `yaml:"bits"`
}

// Set holds the layouts resolved from a File, in declaration order.
type Set struct {
	byName map[string]*layout.Layout
	names  []string
}

// Names returns the layout names in declaration order.
func (s *Set) Names() []string {
	return append([]string(nil), s.names...)
}

// Get returns a layout by name.
func (s *Set) Get(name string) (*layout.Layout, bool) {
	l, ok := s.byName[name]
	return l, ok
}

// LoadFile reads and resolves a declaration file.
func LoadFile(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "read "+path)
	}
	return Parse(data)
}

// Parse decodes YAML strictly and resolves every declared layout. Layouts may
// reference each other in any order; every failing layout is reported.
func Parse(data []byte) (*Set, error) {
	var f File
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "decode yaml")
	}
	if len(f.Layouts) == 0 {
		return nil, errors.InvalidInput(errors.PhaseConfig, "no layouts declared")
	}

	r := &resolver{
		decls:    make(map[string]*Decl, len(f.Layouts)),
		set:      &Set{byName: make(map[string]*layout.Layout, len(f.Layouts))},
		failed:   make(map[string]error),
		visiting: make(map[string]bool),
		resolver: layout.NewResolver(),
	}

	var errs error
	for i := range f.Layouts {
		d := &f.Layouts[i]
		if d.Name == "" {
			errs = multierr.Append(errs, errors.InvalidInput(errors.PhaseConfig, "layout without a name"))
			continue
		}
		if _, dup := r.decls[d.Name]; dup {
			errs = multierr.Append(errs, errors.New(errors.PhaseConfig, errors.KindDuplicateField).
				Path(d.Name).
				Detail("layout %q declared twice", d.Name).
				Build())
			continue
		}
		r.decls[d.Name] = d
		r.set.names = append(r.set.names, d.Name)
	}
	for _, name := range r.set.names {
		_, _ = r.resolve(name, nil)
	}
	for _, name := range r.set.names {
		if err, ok := r.failed[name]; ok {
			errs = multierr.Append(errs, err)
		}
	}
	if errs != nil {
		return nil, errs
	}
	return r.set, nil
}

type resolver struct {
	decls    map[string]*Decl
	set      *Set
	failed   map[string]error
	visiting map[string]bool
	resolver *layout.Resolver
}

// resolve returns the layout declared as name. A declared layout that fails
// is recorded in r.failed exactly once.
func (r *resolver) resolve(name string, from []string) (*layout.Layout, error) {
	if l, ok := r.set.byName[name]; ok {
		return l, nil
	}
	if err, ok := r.failed[name]; ok {
		return nil, err
	}
	d, ok := r.decls[name]
	if !ok {
		return nil, errors.FieldUnknown(errors.PhaseConfig, from, name)
	}
	if r.visiting[name] {
		return nil, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Path(from...).
			Detail("layout %q contains itself", name).
			Build()
	}
	r.visiting[name] = true
	defer delete(r.visiting, name)

	l, err := r.build(d)
	if err != nil {
		r.failed[name] = err
		return nil, err
	}
	r.set.byName[name] = l
	return l, nil
}

func (r *resolver) build(d *Decl) (*layout.Layout, error) {
	var (
		fields []layout.Field
		errs   error
	)
	for i, fd := range d.Fields {
		label := fd.Name
		if label == "" {
			label = "#" + strconv.Itoa(i)
		}
		f, err := r.field(fd, []string{d.Name, label})
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		fields = append(fields, f)
	}

	opts := []layout.Option{layout.WithName(d.Name)}
	if d.Order != "" {
		o, err := codec.ParseOrder(d.Order)
		if err != nil {
			errs = multierr.Append(errs, errors.WithPath(err, d.Name, "order"))
		}
		opts = append(opts, layout.WithOrder(o))
	}
	if d.Bits != 0 {
		opts = append(opts, layout.WithTotalBits(d.Bits))
	}
	if errs != nil {
		return nil, errs
	}
	return r.resolver.Resolve(fields, opts...)
}

func (r *resolver) field(fd FieldDecl, path []string) (layout.Field, error) {
	switch strings.ToLower(fd.Type) {
	case "", "uint":
		return layout.UintField(fd.Name, fd.Bits), nil
	case "bool":
		f := layout.BoolField(fd.Name)
		if fd.Bits != 0 {
			f.Width = fd.Bits
		}
		return f, nil
	case "enum":
		t := layout.EnumOf(fd.Name, fd.Bits, fd.Cases...)
		if len(fd.Cases) == 0 {
			t = layout.Enum(fd.Name, fd.Bits, fd.Count)
		}
		return layout.EnumField(fd.Name, t), nil
	case "reserved":
		return layout.ReservedField(fd.Name, fd.Bits), nil
	case "nested":
		if fd.Layout == "" {
			return layout.Field{}, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
				Path(path...).
				Detail("nested field needs a layout").
				Build()
		}
		nested, err := r.resolve(fd.Layout, path)
		if _, declared := r.failed[fd.Layout]; err != nil && declared {
			// reported against the nested layout itself
			return layout.Field{}, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
				Path(path...).
				Detail("nested layout %q is invalid", fd.Layout).
				Build()
		}
		if err != nil {
			return layout.Field{}, err
		}
		f := layout.NestedField(fd.Name, nested)
		if fd.Bits != 0 {
			f.Width = fd.Bits
		}
		return f, nil
	}
	return layout.Field{}, errors.New(errors.PhaseConfig, errors.KindUnsupported).
		Path(path...).
		Value(fd.Type).
		Detail("unknown field type %q", fd.Type).
		Build()
}
