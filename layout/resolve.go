package layout

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/bitpack/codec"
	"github.com/wippyai/bitpack/errors"
	"github.com/wippyai/bitpack/internal/bits"
)

// maxTotalBits bounds a layout so byte arithmetic stays in uint32.
const maxTotalBits = 1 << 28

type options struct {
	name   string
	totals []uint32
	order  codec.Order
}

// Option configures resolution.
type Option func(*options)

// WithOrder sets the bit-order policy. The default is codec.LSBFirst.
func WithOrder(o codec.Order) Option {
	return func(opts *options) { opts.order = o }
}

// WithTotalBits declares the container size, e.g. 32 for a struct that must
// fill a uint32. It may be given more than once: identical values are
// accepted, differing values are rejected as ambiguous.
func WithTotalBits(n uint32) Option {
	return func(opts *options) { opts.totals = append(opts.totals, n) }
}

// WithName names the layout; the name prefixes error paths.
func WithName(name string) Option {
	return func(opts *options) { opts.name = name }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// declaredTotal returns the container size override, 0 when none was given.
func (o options) declaredTotal(path []string) (uint32, error) {
	if len(o.totals) == 0 {
		return 0, nil
	}
	first := o.totals[0]
	for _, n := range o.totals[1:] {
		if n != first {
			return 0, errors.AmbiguousSize(errors.PhaseLayout, path, first, n)
		}
	}
	return first, nil
}

// Resolve computes offsets for fields and validates the result. All field
// errors are reported together; errors.Is matches each of them.
func Resolve(fields []Field, opts ...Option) (*Layout, error) {
	return resolve(fields, buildOptions(opts))
}

func resolve(fields []Field, o options) (*Layout, error) {
	var root []string
	if o.name != "" {
		root = []string{o.name}
	}

	var errs error
	declared, err := o.declaredTotal(root)
	errs = multierr.Append(errs, err)

	if !o.order.Valid() {
		errs = multierr.Append(errs, errors.New(errors.PhaseLayout, errors.KindInvalidInput).
			Path(root...).
			Value(o.order).
			Detail("invalid bit order %d", uint8(o.order)).
			Build())
	}
	if len(fields) == 0 {
		return nil, multierr.Append(errs, errors.New(errors.PhaseLayout, errors.KindSizeMismatch).
			Path(root...).
			Detail("layout has no fields").
			Build())
	}

	l := &Layout{
		name:   o.name,
		order:  o.order,
		fields: make([]Field, len(fields)),
		index:  make(map[string]int, len(fields)),
	}

	var offset uint64
	for i, f := range fields {
		label := f.Name
		if label == "" {
			label = "#" + strconv.Itoa(i)
		}
		path := append(append([]string(nil), root...), label)

		errs = multierr.Append(errs, validateField(f, path))

		if !f.Reserved {
			if f.Name == "" {
				errs = multierr.Append(errs, errors.New(errors.PhaseLayout, errors.KindInvalidInput).
					Path(path...).
					Detail("field needs a name unless reserved").
					Build())
			} else if _, dup := l.index[f.Name]; dup {
				errs = multierr.Append(errs, errors.DuplicateField(path, f.Name))
			} else {
				l.index[f.Name] = i
			}
		}

		f.Offset = uint32(offset)
		f.Index = i
		l.fields[i] = f
		offset += uint64(f.Width)
		if offset > maxTotalBits {
			return nil, multierr.Append(errs, errors.New(errors.PhaseLayout, errors.KindSizeMismatch).
				Path(root...).
				Detail("layout exceeds %d bits", maxTotalBits).
				Build())
		}
	}

	total := uint32(offset)
	l.total = total
	switch {
	case declared != 0 && declared%8 != 0:
		errs = multierr.Append(errs, errors.New(errors.PhaseLayout, errors.KindSizeMismatch).
			Path(root...).
			Value(declared).
			Detail("declared total %d bits is not a whole number of bytes", declared).
			Build())
	case declared != 0 && total != declared:
		errs = multierr.Append(errs, errors.SizeMismatch(errors.PhaseLayout, root, total, declared))
	case declared == 0 && total%8 != 0:
		errs = multierr.Append(errs, errors.SizeMismatch(errors.PhaseLayout, root, total, bits.RoundUp(total, 8)))
	}

	if errs != nil {
		return nil, errs
	}

	Logger().Debug("resolved layout",
		zap.String("name", l.name),
		zap.Uint32("bits", l.total),
		zap.Int("fields", len(l.fields)),
		zap.Stringer("order", l.order),
		zap.Int("straddling", len(l.Straddling())))
	return l, nil
}

func validateField(f Field, path []string) error {
	if f.Width == 0 {
		return errors.ZeroWidthField(path)
	}

	t := f.Type
	switch t.Tag {
	case TagNested:
		if t.Nested == nil {
			return errors.New(errors.PhaseLayout, errors.KindInvalidInput).
				Path(path...).
				Detail("nested field without a layout").
				Build()
		}
		capacity := t.Nested.TotalBits()
		if f.Width > capacity {
			return errors.FieldTooWide(path, f.Width, capacity, t.String())
		}
		if f.Width < capacity {
			return errors.SizeMismatch(errors.PhaseLayout, path, f.Width, capacity)
		}
		return nil
	case TagUint, TagBool, TagEnum:
	default:
		return errors.New(errors.PhaseLayout, errors.KindUnsupported).
			Path(path...).
			Detail("unknown field tag %d", uint8(t.Tag)).
			Build()
	}

	if f.Width > bits.MaxFieldWidth {
		return errors.FieldTooWide(path, f.Width, bits.MaxFieldWidth, t.String())
	}
	if capacity := t.Capacity(); f.Width > capacity {
		return errors.FieldTooWide(path, f.Width, capacity, t.String())
	}
	if t.Tag == TagEnum && bits.For(uint64(t.Cases)) > f.Width {
		return errors.DiscriminantOverflow(path, t.Cases, f.Width, t.String())
	}
	return nil
}

// Resolver resolves layouts and caches them by their declaration, so every
// instance sharing a field list shares one *Layout.
type Resolver struct {
	cache sync.Map // fingerprint -> *Layout
}

// NewResolver creates a Resolver with an empty cache.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve is the cached form of the package-level Resolve. Failed resolutions
// are not cached.
func (r *Resolver) Resolve(fields []Field, opts ...Option) (*Layout, error) {
	o := buildOptions(opts)
	key := fingerprint(fields, o)
	if cached, ok := r.cache.Load(key); ok {
		Logger().Debug("layout cache hit", zap.String("name", o.name))
		return cached.(*Layout), nil
	}

	l, err := resolve(fields, o)
	if err != nil {
		return nil, err
	}
	actual, _ := r.cache.LoadOrStore(key, l)
	return actual.(*Layout), nil
}

func fingerprint(fields []Field, o options) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%d|%v", o.name, o.order, o.totals)
	for _, f := range fields {
		t := f.Type
		fmt.Fprintf(&b, "|%q:%d:%d:%d:%d:%t:%p:%q:%q",
			f.Name, f.Width, t.Tag, t.Bits, t.Cases, f.Reserved, t.Nested, t.Name, t.CaseNames)
	}
	return b.String()
}
