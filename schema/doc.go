// Package schema declares bit layouts with Go struct tags.
//
// Every exported field becomes a layout field in declaration order:
//
//	type Header struct {
//	    _       struct{} `bitfield:"bits=16,order=msb"`
//	    Version uint8    `bitfield:"3"`
//	    Urgent  bool
//	    Mode    Mode     // implements Enum
//	    _       uint8    `bitfield:"2"`
//	    Length  uint16   `bitfield:"8"`
//	}
//
// Field widths default to the Go type's size (bool 1, uint8 8, an Enum the
// minimal width indexing its cases, a struct its own layout's total).
// *big.Int fields must declare a width. Blank fields of unsigned type are
// reserved bits; a blank struct{} field carries layout options:
//
//	bits=N      declared total width (given twice with different values
//	            the declaration is rejected as ambiguous)
//	order=msb   bit order, lsb by default
//	name=X      layout name, the Go type name by default
//
// A field tag may also rename the field with name=X, or exclude it with "-".
//
// Compiled schemas are cached per type. Pack and Marshal use the checked
// setters, so a field value wider than its declared width is an error.
package schema
