// Package witpack derives bit layouts from WIT type definitions.
//
// Flags and enums map onto their canonical ABI memory representation, so an
// instance's packed buffer can be copied to and from guest linear memory
// unchanged:
//
//	flags  one bool per flag, flag i at bit i, padded to 1, 2, 4 or 8 bytes
//	       (4-byte words above 64 flags)
//	enum   one discriminant field named "case" of 1, 2 or 4 bytes
//
// Records of bool, u8..u64, enum, flags and record fields are packed
// compactly: each enum takes the minimal number of bits for its cases, and
// reserved bits pad the record to a whole byte.
//
// Layouts are cached per *wit.TypeDef.
package witpack
