// Package bitpack provides compact bitfield structs: declared fields packed
// into a minimal number of bits over a fixed-size byte buffer.
//
// # Architecture Overview
//
// The module is organized into packages with distinct responsibilities:
//
//	bitpack/             Struct instances, field accessors, Memory persistence
//	├── layout/          Resolves field declarations into bit offsets
//	├── codec/           Bit-range get/set and whole-buffer integer conversion
//	├── schema/          Layouts declared with Go struct tags
//	├── witpack/         Layouts derived from WIT flags, enum and record types
//	├── wasmmem/         Memory adapter for wazero linear memory
//	├── errors/          Structured error types
//	├── internal/config/ YAML layout declarations
//	├── internal/render/ Terminal bit diagrams
//	└── cmd/bitfield/    Inspector CLI
//
// # Quick Start
//
// Resolve a layout once and create instances from it:
//
//	signed, err := layout.Resolve([]layout.Field{
//	    layout.BoolField("sign"),
//	    layout.UintField("value", 31),
//	}, layout.WithOrder(codec.MSBFirst), layout.WithTotalBits(32))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	s, _ := bitpack.FromUint64(signed, 0x8000_0123)
//	neg, _ := s.Bool("sign")     // true
//	v, _ := s.Get("value")       // 0x123
//
// # Accessors
//
// Fields are read and written by name (Get, Set, SetTruncating, ...) or
// through typed accessors bound once per layout:
//
//	var value = bitpack.Uint[uint32](signed, "value")
//
//	err := value.Set(s, 1<<31)      // value_out_of_range, s unchanged
//	value.SetTruncating(s, 1<<31|7) // stores 7
//
// Checked setters never modify the instance on error. Truncating setters
// keep the low field-width bits and discard the rest.
//
// # Thread Safety
//
// Layouts are immutable and safe for concurrent use. Struct is NOT thread-safe
// and must be synchronized by the caller.
package bitpack
