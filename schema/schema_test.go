package schema

import (
	"math/big"
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/bitpack"
	"github.com/wippyai/bitpack/codec"
	"github.com/wippyai/bitpack/errors"
)

type Mode uint8

func (Mode) BitfieldCases() int { return 3 }

func (m Mode) String() string {
	return [...]string{"off", "on", "auto"}[m]
}

type Header struct {
	_       struct{} `bitfield:"bits=16,order=msb"`
	Version uint8    `bitfield:"3"`
	Urgent  bool
	Mode    Mode
	_       uint8  `bitfield:"2"`
	Length  uint16 `bitfield:"8"`
	Note    string `bitfield:"-"`
}

type Color struct {
	R uint8 `bitfield:"3"`
	G uint8 `bitfield:"3"`
	B uint8 `bitfield:"2"`
}

type Tagged struct {
	Fg Color
	Bg Color
	ID *big.Int `bitfield:"80"`
	OK bool
	_  uint8 `bitfield:"7"`
}

func TestCompileHeader(t *testing.T) {
	s, err := For[Header]()
	if err != nil {
		t.Fatal(err)
	}
	l := s.Layout()
	if l.Name() != "Header" || l.TotalBits() != 16 || l.Order() != codec.MSBFirst {
		t.Errorf("layout: got %s", l)
	}

	var names []string
	for _, f := range l.Fields() {
		names = append(names, f.String())
	}
	want := []string{
		"Version:u8@0+3",
		"Urgent:bool@3+1",
		"Mode:enum Mode@4+2",
		"_:u2@6+2 reserved",
		"Length:u16@8+8",
	}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("fields (-want +got):\n%s", diff)
	}

	f, _ := l.Lookup("Mode")
	if f.Type.CaseName(2) != "auto" {
		t.Errorf("case names: got %v", f.Type.CaseNames)
	}

	again, _ := Compile(reflect.TypeFor[*Header]())
	if again != s {
		t.Error("Compile should return the cached schema")
	}
}

func TestMarshalHeader(t *testing.T) {
	h := Header{Version: 5, Urgent: true, Mode: 2, Length: 0xab, Note: "ignored"}

	data, err := Marshal(h)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]byte{0xb8, 0xab}, data); diff != "" {
		t.Errorf("packed (-want +got):\n%s", diff)
	}

	var got Header
	if err := Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	h.Note = ""
	if got != h {
		t.Errorf("Unmarshal: got %+v, want %+v", got, h)
	}
}

func TestPackErrors(t *testing.T) {
	if _, err := Pack(Header{Version: 8}); !errors.Is(err, errors.ErrValueOutOfRange) {
		t.Errorf("Version 8 in 3 bits: got %v", err)
	}
	if _, err := Pack(&Header{Mode: 3}); !errors.Is(err, &errors.Error{Kind: errors.KindInvalidDiscriminant}) {
		t.Errorf("Mode 3: got %v", err)
	}
	if _, err := Pack((*Header)(nil)); !errors.Is(err, &errors.Error{Kind: errors.KindInvalidInput}) {
		t.Errorf("nil pointer: got %v", err)
	}

	s, _ := For[Header]()
	if _, err := s.Pack(Color{}); !errors.Is(err, &errors.Error{Kind: errors.KindTypeMismatch}) {
		t.Errorf("wrong type: got %v", err)
	}
}

func TestUnmarshalErrors(t *testing.T) {
	var h Header
	if err := Unmarshal([]byte{0x0c, 0x00}, &h); !errors.Is(err, &errors.Error{Phase: errors.PhaseDecode, Kind: errors.KindInvalidDiscriminant}) {
		t.Errorf("mode bits 11: got %v", err)
	}
	if err := Unmarshal([]byte{0x00}, &h); !errors.Is(err, &errors.Error{Kind: errors.KindSizeMismatch}) {
		t.Errorf("short buffer: got %v", err)
	}

	s, _ := For[Header]()
	p := bitpack.New(s.Layout())
	if err := s.Unpack(p, h); !errors.Is(err, &errors.Error{Kind: errors.KindInvalidInput}) {
		t.Errorf("non-pointer destination: got %v", err)
	}
	var c Color
	if err := s.Unpack(p, &c); !errors.Is(err, &errors.Error{Kind: errors.KindTypeMismatch}) {
		t.Errorf("wrong destination type: got %v", err)
	}
	colors, _ := For[Color]()
	if err := s.Unpack(bitpack.New(colors.Layout()), &h); !errors.Is(err, &errors.Error{Kind: errors.KindTypeMismatch}) {
		t.Errorf("instance of another layout: got %v", err)
	}
}

func TestNestedAndWide(t *testing.T) {
	id, _ := new(big.Int).SetString("fedcba9876543210abcd", 16)
	v := Tagged{
		Fg: Color{R: 7, G: 2, B: 1},
		Bg: Color{R: 1, G: 0, B: 3},
		ID: id,
		OK: true,
	}

	p, err := Pack(&v)
	if err != nil {
		t.Fatal(err)
	}
	if p.Layout().TotalBits() != 104 {
		t.Fatalf("total: got %d bits", p.Layout().TotalBits())
	}

	colors, _ := For[Color]()
	fg, err := p.Nested("Fg")
	if err != nil {
		t.Fatal(err)
	}
	if fg.Layout() != colors.Layout() {
		t.Error("nested fields should share the Color layout")
	}

	var got Tagged
	if err := Unpack(p, &got); err != nil {
		t.Fatal(err)
	}
	if got.Fg != v.Fg || got.Bg != v.Bg || !got.OK || got.ID.Cmp(id) != 0 {
		t.Errorf("Unpack: got %+v, want %+v", got, v)
	}

	if _, err := Pack(Tagged{}); err != nil {
		t.Errorf("nil *big.Int should pack as zero: %v", err)
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		typ  reflect.Type
		want *errors.Error
	}{
		{
			name: "width beyond Go type",
			typ: reflect.TypeFor[struct {
				A uint8 `bitfield:"9"`
				B uint8 `bitfield:"7"`
			}](),
			want: errors.ErrFieldTooWide,
		},
		{
			name: "total not whole bytes",
			typ: reflect.TypeFor[struct {
				A uint8 `bitfield:"3"`
			}](),
			want: errors.ErrSizeMismatch,
		},
		{
			name: "conflicting total sizes",
			typ: reflect.TypeFor[struct {
				_ struct{} `bitfield:"bits=16"`
				_ struct{} `bitfield:"bits=32"`
				A uint16
			}](),
			want: &errors.Error{Phase: errors.PhaseLayout, Kind: errors.KindAmbiguousSize},
		},
		{
			name: "big.Int without width",
			typ: reflect.TypeFor[struct {
				A *big.Int
			}](),
			want: &errors.Error{Phase: errors.PhaseSchema, Kind: errors.KindInvalidInput},
		},
		{
			name: "signed integer",
			typ: reflect.TypeFor[struct {
				A int8
			}](),
			want: &errors.Error{Phase: errors.PhaseSchema, Kind: errors.KindTypeMismatch},
		},
		{
			name: "zero width tag",
			typ: reflect.TypeFor[struct {
				A uint8 `bitfield:"0"`
			}](),
			want: errors.ErrZeroWidthField,
		},
		{
			name: "options on a named field",
			typ: reflect.TypeFor[struct {
				A uint8 `bitfield:"8,bits=8"`
			}](),
			want: &errors.Error{Phase: errors.PhaseSchema, Kind: errors.KindInvalidInput},
		},
		{
			name: "unknown option",
			typ: reflect.TypeFor[struct {
				_ struct{} `bitfield:"endian=big"`
				A uint8
			}](),
			want: &errors.Error{Phase: errors.PhaseSchema, Kind: errors.KindInvalidInput},
		},
		{
			name: "bad order",
			typ: reflect.TypeFor[struct {
				_ struct{} `bitfield:"order=middle"`
				A uint8
			}](),
			want: &errors.Error{Phase: errors.PhaseConfig, Kind: errors.KindInvalidInput},
		},
		{
			name: "not a struct",
			typ:  reflect.TypeFor[uint32](),
			want: &errors.Error{Kind: errors.KindTypeMismatch},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCompiler()
			s, err := c.Compile(tt.typ)
			if err == nil {
				t.Fatalf("Compile succeeded: %s", s.Layout())
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %s %s", err, tt.want.Phase, tt.want.Kind)
			}
		})
	}
}

func TestFieldRenameAndIdenticalTotals(t *testing.T) {
	type pair struct {
		_  struct{} `bitfield:"bits=8,name=Pair"`
		_  struct{} `bitfield:"bits=8"`
		Lo uint8    `bitfield:"4,name=lo"`
		Hi uint8    `bitfield:"4,name=hi"`
	}

	s, err := For[pair]()
	if err != nil {
		t.Fatal(err)
	}
	if s.Layout().Name() != "Pair" {
		t.Errorf("layout name: got %q", s.Layout().Name())
	}

	p, err := Pack(pair{Lo: 0x3, Hi: 0xc})
	if err != nil {
		t.Fatal(err)
	}
	if lo, _ := p.Get("lo"); lo != 0x3 {
		t.Errorf("lo: got %#x", lo)
	}
	if diff := cmp.Diff([]byte{0xc3}, p.View().Bytes()); diff != "" {
		t.Errorf("packed (-want +got):\n%s", diff)
	}
}
