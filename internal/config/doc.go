// Package config loads layout declarations from YAML files.
//
// A file declares a list of named layouts. Fields default to unsigned
// integers; bool, enum, nested and reserved fields are selected with type.
// Nested fields reference other layouts in the same file by name, in any
// order. Every failing layout is reported in one aggregated error.
package config
