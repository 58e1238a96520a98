package layout

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/multierr"

	"github.com/wippyai/bitpack/codec"
	"github.com/wippyai/bitpack/errors"
)

func mustResolve(t *testing.T, fields []Field, opts ...Option) *Layout {
	t.Helper()
	l, err := Resolve(fields, opts...)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	return l
}

func TestResolveOffsets(t *testing.T) {
	l := mustResolve(t, []Field{
		UintField("x", 5),
		UintField("y", 6),
		UintField("z", 5),
	})

	type span struct {
		Name          string
		Offset, Width uint32
		First, Last   uint32
	}
	var got []span
	for _, f := range l.Fields() {
		first, last := f.ByteSpan()
		got = append(got, span{f.Name, f.Offset, f.Width, first, last})
	}
	want := []span{
		{"x", 0, 5, 0, 0},
		{"y", 5, 6, 0, 1},
		{"z", 11, 5, 1, 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("offsets (-want +got):\n%s", diff)
	}

	if l.TotalBits() != 16 || l.ByteLen() != 2 {
		t.Errorf("size: got %d bits, %d bytes", l.TotalBits(), l.ByteLen())
	}
	if l.Order() != codec.LSBFirst {
		t.Errorf("default order: got %s", l.Order())
	}

	straddling := l.Straddling()
	if len(straddling) != 1 || straddling[0].Name != "y" {
		t.Errorf("straddling: got %v, want [y]", straddling)
	}
}

func TestResolveFieldIndex(t *testing.T) {
	l := mustResolve(t, []Field{
		BoolField("sign"),
		UintField("value", 31),
	}, WithOrder(codec.MSBFirst), WithTotalBits(32), WithName("SignedInt"))

	f, ok := l.Lookup("value")
	if !ok {
		t.Fatal("value not found")
	}
	if f.Index != 1 || f.Offset != 1 || f.End() != 32 {
		t.Errorf("value: got index %d offset %d end %d", f.Index, f.Offset, f.End())
	}
	if _, ok := l.Lookup("missing"); ok {
		t.Error("Lookup found a missing field")
	}
	if diff := cmp.Diff([]string{"SignedInt", "sign"}, l.Path("sign")); diff != "" {
		t.Errorf("path (-want +got):\n%s", diff)
	}
	if got, want := l.String(), "SignedInt{sign:bool@0+1, value:u31@1+31} msb 32 bits"; got != want {
		t.Errorf("String: got %q, want %q", got, want)
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name   string
		fields []Field
		opts   []Option
		want   *errors.Error
	}{
		{
			name:   "zero width",
			fields: []Field{UintField("a", 0), UintField("b", 8)},
			want:   errors.ErrZeroWidthField,
		},
		{
			name:   "bool too wide",
			fields: []Field{{Name: "a", Width: 2, Type: Bool()}, UintField("b", 6)},
			want:   errors.ErrFieldTooWide,
		},
		{
			name:   "uint wider than its type",
			fields: []Field{{Name: "a", Width: 5, Type: Uint(4)}, UintField("b", 3)},
			want:   errors.ErrFieldTooWide,
		},
		{
			name:   "beyond max width",
			fields: []Field{{Name: "a", Width: 129, Type: Uint(0)}, UintField("b", 7)},
			want:   errors.ErrFieldTooWide,
		},
		{
			name:   "enum wider than declared",
			fields: []Field{{Name: "m", Width: 4, Type: Enum("Mode", 3, 5)}, UintField("b", 4)},
			want:   errors.ErrFieldTooWide,
		},
		{
			name:   "enum cases overflow width",
			fields: []Field{EnumField("m", Enum("Mode", 2, 5)), UintField("b", 6)},
			want:   &errors.Error{Phase: errors.PhaseLayout, Kind: errors.KindDiscriminantOverflow},
		},
		{
			name:   "total not whole bytes",
			fields: []Field{UintField("a", 3), UintField("b", 4)},
			want:   errors.ErrSizeMismatch,
		},
		{
			name:   "total differs from override",
			fields: []Field{UintField("a", 8), UintField("b", 8)},
			opts:   []Option{WithTotalBits(32)},
			want:   errors.ErrSizeMismatch,
		},
		{
			name:   "override not whole bytes",
			fields: []Field{UintField("a", 12)},
			opts:   []Option{WithTotalBits(12)},
			want:   errors.ErrSizeMismatch,
		},
		{
			name:   "duplicate name",
			fields: []Field{UintField("a", 4), UintField("a", 4)},
			want:   &errors.Error{Phase: errors.PhaseLayout, Kind: errors.KindDuplicateField},
		},
		{
			name:   "unnamed accessible field",
			fields: []Field{UintField("", 8)},
			want:   &errors.Error{Phase: errors.PhaseLayout, Kind: errors.KindInvalidInput},
		},
		{
			name:   "no fields",
			fields: nil,
			want:   errors.ErrSizeMismatch,
		},
		{
			name:   "invalid order",
			fields: []Field{UintField("a", 8)},
			opts:   []Option{WithOrder(codec.Order(7))},
			want:   &errors.Error{Phase: errors.PhaseLayout, Kind: errors.KindInvalidInput},
		},
		{
			name:   "nested without layout",
			fields: []Field{{Name: "n", Width: 8, Type: Type{Tag: TagNested}}},
			want:   &errors.Error{Phase: errors.PhaseLayout, Kind: errors.KindInvalidInput},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := Resolve(tt.fields, tt.opts...)
			if err == nil {
				t.Fatalf("Resolve succeeded: %v", l)
			}
			if l != nil {
				t.Error("failed Resolve returned a layout")
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %s", err, tt.want.Kind)
			}
			if !errors.Is(err, errors.ErrLayout) {
				t.Errorf("%v is not a layout error", err)
			}
		})
	}
}

func TestResolveCollectsAllErrors(t *testing.T) {
	_, err := Resolve([]Field{
		UintField("a", 0),
		{Name: "b", Width: 3, Type: Bool()},
		UintField("a", 5),
	}, WithName("Broken"))

	errs := multierr.Errors(err)
	if len(errs) != 3 {
		t.Fatalf("got %d errors, want 3: %v", len(errs), err)
	}
	for _, want := range []*errors.Error{errors.ErrZeroWidthField, errors.ErrFieldTooWide} {
		if !errors.Is(err, want) {
			t.Errorf("aggregate does not match %s", want.Kind)
		}
	}

	var first *errors.Error
	if !errors.As(errs[0], &first) {
		t.Fatalf("first error is %T", errs[0])
	}
	if diff := cmp.Diff([]string{"Broken", "a"}, first.Path); diff != "" {
		t.Errorf("path (-want +got):\n%s", diff)
	}
}

func TestResolveTotalSizeOverrides(t *testing.T) {
	fields := []Field{UintField("a", 16), UintField("b", 16)}

	t.Run("matching override", func(t *testing.T) {
		l := mustResolve(t, fields, WithTotalBits(32))
		if l.TotalBits() != 32 {
			t.Errorf("got %d bits", l.TotalBits())
		}
	})

	t.Run("repeated identical override", func(t *testing.T) {
		mustResolve(t, fields, WithTotalBits(32), WithTotalBits(32))
	})

	t.Run("conflicting overrides are ambiguous", func(t *testing.T) {
		for _, opts := range [][]Option{
			{WithTotalBits(32), WithTotalBits(64)},
			{WithTotalBits(64), WithTotalBits(32)},
		} {
			_, err := Resolve(fields, opts...)
			if !errors.Is(err, &errors.Error{Phase: errors.PhaseLayout, Kind: errors.KindAmbiguousSize}) {
				t.Errorf("got %v, want ambiguous_size", err)
			}
		}
	})
}

func TestResolveReservedFields(t *testing.T) {
	l := mustResolve(t, []Field{
		BoolField("ready"),
		ReservedField("", 3),
		ReservedField("pad", 4),
		UintField("count", 8),
	})

	if _, ok := l.Lookup("pad"); ok {
		t.Error("reserved field is reachable through Lookup")
	}
	f, ok := l.Lookup("count")
	if !ok || f.Offset != 8 {
		t.Errorf("count: got %v, %v", f, ok)
	}
	if !l.Field(1).Reserved || l.Field(1).Offset != 1 {
		t.Errorf("unnamed reserved field: got %v", l.Field(1))
	}
}

func TestResolveEnumAndNested(t *testing.T) {
	mode := EnumOf("Mode", 0, "off", "on", "auto")
	if mode.Capacity() != 2 {
		t.Errorf("derived enum capacity: got %d, want 2", mode.Capacity())
	}
	if mode.CaseName(2) != "auto" || mode.CaseName(3) != "" {
		t.Errorf("case names: %q %q", mode.CaseName(2), mode.CaseName(3))
	}

	inner := mustResolve(t, []Field{
		EnumField("mode", mode),
		UintField("level", 6),
	}, WithName("Control"))

	outer := mustResolve(t, []Field{
		NestedField("ctl", inner),
		UintField("id", 8),
	})
	f, _ := outer.Lookup("ctl")
	if f.Width != 8 || f.Type.String() != "nested Control" {
		t.Errorf("nested field: got %v", f)
	}

	_, err := Resolve([]Field{
		{Name: "ctl", Width: 16, Type: Nested(inner)},
	})
	if !errors.Is(err, errors.ErrFieldTooWide) {
		t.Errorf("wider nested field: got %v", err)
	}
	_, err = Resolve([]Field{
		{Name: "ctl", Width: 4, Type: Nested(inner)},
		UintField("x", 4),
	})
	if !errors.Is(err, errors.ErrSizeMismatch) {
		t.Errorf("narrower nested field: got %v", err)
	}
}

func TestResolverCache(t *testing.T) {
	r := NewResolver()
	fields := []Field{UintField("x", 5), UintField("y", 6), UintField("z", 5)}

	a, err := r.Resolve(fields, WithOrder(codec.MSBFirst))
	if err != nil {
		t.Fatal(err)
	}
	b, _ := r.Resolve([]Field{UintField("x", 5), UintField("y", 6), UintField("z", 5)}, WithOrder(codec.MSBFirst))
	if a != b {
		t.Error("identical declarations should share one layout")
	}

	c, _ := r.Resolve(fields)
	if c == a {
		t.Error("a different order must resolve a different layout")
	}
	d, _ := r.Resolve([]Field{UintField("x", 6), UintField("y", 5), UintField("z", 5)}, WithOrder(codec.MSBFirst))
	if d == a {
		t.Error("different widths must resolve a different layout")
	}

	if _, err := r.Resolve([]Field{UintField("x", 3)}); err == nil {
		t.Error("invalid declaration should fail")
	}
	if _, err := r.Resolve([]Field{UintField("x", 3)}); err == nil {
		t.Error("failed declarations must not be cached")
	}
}
