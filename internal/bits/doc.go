// Package bits provides width and byte arithmetic shared by the layout
// resolver, the codec and the declaration front ends.
//
// This package is internal to the module.
package bits
