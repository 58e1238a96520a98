package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/bitpack"
	"github.com/wippyai/bitpack/codec"
	"github.com/wippyai/bitpack/layout"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	palette = []lipgloss.Color{"#FF6B6B", "#98FB98", "#87CEEB", "#F4D35E", "#DDA0DD", "#FFA07A"}
)

// Options control the diagram output.
type Options struct {
	// Plain disables colors and emphasis.
	Plain bool
}

// Key returns the single letter that marks field i in the bit diagram.
// Reserved fields are marked with a dot.
func Key(f layout.Field) byte {
	if f.Reserved {
		return '.'
	}
	return byte('a' + f.Index%26)
}

// Diagram renders the layout of s followed by its bytes bit by bit, with
// the owning field of each bit underneath, and one line per field.
//
//	Color  lsb  8 bits  57
//	byte 0  01010111
//	        ccbbbaaa
//	a  r  0+3  u3  7
func Diagram(s *bitpack.Struct, opts Options) string {
	l := s.Layout()
	raw := s.Raw()
	paint := func(st lipgloss.Style, text string) string {
		if opts.Plain {
			return text
		}
		return st.Render(text)
	}

	owners := make([][8]int, len(raw))
	for i := range l.NumFields() {
		f := l.Field(i)
		for p := f.Offset; p < f.End(); p++ {
			b, bit := codec.Locate(p, l.Order())
			owners[b][bit] = i
		}
	}

	var out strings.Builder
	name := l.Name()
	if name == "" {
		name = "layout"
	}
	out.WriteString(paint(titleStyle, name))
	fmt.Fprintf(&out, "  %s  %d bits  %x\n", l.Order(), l.TotalBits(), raw)

	width := len(fmt.Sprint(len(raw) - 1))
	for i, v := range raw {
		var bitsRow, keys strings.Builder
		for bit := 7; bit >= 0; bit-- {
			f := l.Field(owners[i][bit])
			digit := "0"
			if v&(1<<bit) != 0 {
				digit = "1"
			}
			key := string(Key(f))
			if !opts.Plain && !f.Reserved {
				st := lipgloss.NewStyle().Foreground(palette[f.Index%len(palette)])
				digit = st.Render(digit)
				key = st.Render(key)
			} else if !opts.Plain {
				digit = dimStyle.Render(digit)
				key = dimStyle.Render(key)
			}
			bitsRow.WriteString(digit)
			keys.WriteString(key)
		}
		fmt.Fprintf(&out, "byte %*d  %s\n", width, i, bitsRow.String())
		fmt.Fprintf(&out, "%*s  %s\n", width+5, "", keys.String())
	}

	nameWidth := 0
	for _, f := range l.Fields() {
		nameWidth = max(nameWidth, len(f.Name))
	}
	for _, f := range l.Fields() {
		if f.Reserved {
			continue
		}
		value, err := s.Format(f.Name)
		if err != nil {
			value = err.Error()
		}
		fmt.Fprintf(&out, "%c  %-*s  %s  %s  %s\n",
			Key(f),
			nameWidth, f.Name,
			fmt.Sprintf("%d+%d", f.Offset, f.Width),
			paint(typeStyle, f.Type.String()),
			paint(valueStyle, value))
	}
	return out.String()
}
