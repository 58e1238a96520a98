// Package render draws packed structs as bit diagrams for the terminal.
package render
