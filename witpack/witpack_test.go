package witpack

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/bitpack"
	"github.com/wippyai/bitpack/errors"
)

func named(name string, kind wit.TypeDefKind) *wit.TypeDef {
	return &wit.TypeDef{Name: &name, Kind: kind}
}

func TestFlagsLayout(t *testing.T) {
	tests := []struct {
		name  string
		count int
		bytes int
	}{
		{"one", 1, 1},
		{"eight", 8, 1},
		{"nine", 9, 2},
		{"sixteen", 16, 2},
		{"seventeen", 17, 4},
		{"thirty-three", 33, 8},
		{"sixty-five", 65, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := make([]wit.Flag, tt.count)
			for i := range flags {
				flags[i] = wit.Flag{Name: "flag" + string(rune('a'+i%26)) + string(rune('a'+i/26))}
			}
			l, err := NewConverter().FromType(named("perms", &wit.Flags{Flags: flags}))
			if err != nil {
				t.Fatal(err)
			}
			if l.ByteLen() != tt.bytes {
				t.Errorf("size: got %d bytes, want %d", l.ByteLen(), tt.bytes)
			}
			last := l.Field(tt.count - 1)
			if last.Offset != uint32(tt.count-1) {
				t.Errorf("last flag offset: got %d", last.Offset)
			}
		})
	}
}

func TestFlagsBitPositions(t *testing.T) {
	names := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	flags := make([]wit.Flag, len(names))
	for i, n := range names {
		flags[i] = wit.Flag{Name: n}
	}
	l, err := FromType(named("ten", &wit.Flags{Flags: flags}))
	if err != nil {
		t.Fatal(err)
	}

	s, err := Flags(l, "a", "j")
	if err != nil {
		t.Fatal(err)
	}
	// flag i is bit i of a little-endian u16
	if diff := cmp.Diff([]byte{0x01, 0x02}, s.View().Bytes()); diff != "" {
		t.Errorf("buffer (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "j"}, SetFlags(s)); diff != "" {
		t.Errorf("SetFlags (-want +got):\n%s", diff)
	}

	raw, _ := bitpack.FromBytes(l, []byte{0x84, 0x01})
	if diff := cmp.Diff([]string{"c", "h", "i"}, SetFlags(raw)); diff != "" {
		t.Errorf("decoded flags (-want +got):\n%s", diff)
	}

	if _, err := Flags(l, "k"); !errors.Is(err, &errors.Error{Kind: errors.KindFieldUnknown}) {
		t.Errorf("unknown flag: got %v", err)
	}
}

func TestEnumLayout(t *testing.T) {
	color := named("color", &wit.Enum{Cases: []wit.EnumCase{{Name: "red"}, {Name: "green"}, {Name: "blue"}}})
	l, err := FromType(color)
	if err != nil {
		t.Fatal(err)
	}
	if l.TotalBits() != 8 {
		t.Errorf("size: got %d bits", l.TotalBits())
	}
	s, _ := bitpack.FromBytes(l, []byte{2})
	if got := s.String(); got != "color{case: blue}" {
		t.Errorf("String: got %q", got)
	}

	cases := make([]wit.EnumCase, 300)
	for i := range cases {
		cases[i] = wit.EnumCase{Name: "c" + string(rune('a'+i%26)) + string(rune('a'+i/26))}
	}
	wide, err := FromType(named("wide", &wit.Enum{Cases: cases}))
	if err != nil {
		t.Fatal(err)
	}
	if wide.TotalBits() != 16 {
		t.Errorf("300 cases: got %d bits, want 16", wide.TotalBits())
	}
}

func TestRecordLayout(t *testing.T) {
	mode := named("mode", &wit.Enum{Cases: []wit.EnumCase{{Name: "off"}, {Name: "on"}, {Name: "auto"}}})
	perms := named("perms", &wit.Flags{Flags: []wit.Flag{{Name: "read"}, {Name: "write"}, {Name: "exec"}}})
	status := named("status", &wit.Record{Fields: []wit.Field{
		{Name: "ready", Type: wit.Bool{}},
		{Name: "mode", Type: mode},
		{Name: "level", Type: wit.U8{}},
		{Name: "perms", Type: perms},
	}})

	c := NewConverter()
	l, err := c.FromType(status)
	if err != nil {
		t.Fatal(err)
	}

	var got []string
	for _, f := range l.Fields() {
		got = append(got, f.String())
	}
	want := []string{
		"ready:bool@0+1",
		"mode:enum mode@1+2",
		"level:u8@3+8",
		"perms:nested perms@11+8",
		"_:u5@19+5 reserved",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("fields (-want +got):\n%s", diff)
	}

	permsLayout, _ := c.FromType(perms)
	p, _ := Flags(permsLayout, "write")
	s := bitpack.New(l).With("mode", 2).With("level", 200)
	if err := s.SetNested("perms", p); err != nil {
		t.Fatal(err)
	}
	back, _ := s.Nested("perms")
	if diff := cmp.Diff([]string{"write"}, SetFlags(back)); diff != "" {
		t.Errorf("nested flags (-want +got):\n%s", diff)
	}

	again, _ := c.FromType(status)
	if again != l {
		t.Error("FromType should return the cached layout")
	}
}

func TestUnsupportedTypes(t *testing.T) {
	tests := []struct {
		name string
		typ  wit.Type
	}{
		{"primitive", wit.U32{}},
		{"string field", named("msg", &wit.Record{Fields: []wit.Field{{Name: "text", Type: wit.String{}}}})},
		{"signed field", named("point", &wit.Record{Fields: []wit.Field{{Name: "x", Type: wit.S32{}}}})},
		{"list", named("items", &wit.List{Type: wit.U8{}})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConverter().FromType(tt.typ)
			if !errors.Is(err, &errors.Error{Phase: errors.PhaseSchema, Kind: errors.KindUnsupported}) {
				t.Errorf("got %v, want unsupported", err)
			}
		})
	}
}
