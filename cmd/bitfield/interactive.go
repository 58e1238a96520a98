package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/bitpack"
	"github.com/wippyai/bitpack/internal/render"
	"github.com/wippyai/bitpack/layout"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	fieldStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type interactiveModel struct {
	err      error
	s        *bitpack.Struct
	fields   []layout.Field
	input    textinput.Model
	opts     render.Options
	selected int
	truncate bool
	state    modelState
}

type modelState int

const (
	stateSelectField modelState = iota
	stateEditValue
)

func newInteractiveModel(l *layout.Layout, opts render.Options) *interactiveModel {
	var fields []layout.Field
	for _, f := range l.Fields() {
		if !f.Reserved {
			fields = append(fields, f)
		}
	}
	return &interactiveModel{
		s:      bitpack.New(l),
		fields: fields,
		opts:   opts,
		state:  stateSelectField,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return nil
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.state == stateSelectField {
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateSelectField && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectField && m.selected < len(m.fields)-1 {
				m.selected++
			}

		case "t":
			if m.state == stateSelectField {
				m.truncate = !m.truncate
			}

		case "0":
			if m.state == stateSelectField {
				m.s = bitpack.New(m.s.Layout())
				m.err = nil
			}

		case "enter":
			switch m.state {
			case stateSelectField:
				if len(m.fields) == 0 {
					return m, nil
				}
				m.prepareInput()
				m.state = stateEditValue
				return m, textinput.Blink
			case stateEditValue:
				m.apply()
				m.state = stateSelectField
				return m, nil
			}

		case "esc":
			if m.state == stateEditValue {
				m.state = stateSelectField
				return m, nil
			}
		}
	}

	if m.state == stateEditValue {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *interactiveModel) prepareInput() {
	f := m.fields[m.selected]
	ti := textinput.New()
	ti.Prompt = f.Name + ": "
	ti.Placeholder = f.Type.String()
	if cur, err := m.s.Format(f.Name); err == nil && f.Type.Tag != layout.TagNested {
		ti.SetValue(cur)
	}
	ti.Width = 40
	ti.Focus()
	m.input = ti
}

// apply sets the selected field on a copy so a rejected value leaves the
// displayed instance untouched.
func (m *interactiveModel) apply() {
	next := m.s.Clone()
	f := m.fields[m.selected]
	if err := setField(next, f.Name, strings.TrimSpace(m.input.Value()), m.truncate); err != nil {
		m.err = err
		return
	}
	m.s = next
	m.err = nil
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Bitfield Editor"))
	mode := "checked"
	if m.truncate {
		mode = "truncating"
	}
	b.WriteString(" " + mode + "\n\n")
	b.WriteString(render.Diagram(m.s, m.opts))
	b.WriteString("\n")

	switch m.state {
	case stateSelectField:
		for i, f := range m.fields {
			line := m.formatField(f)
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		if m.err != nil {
			b.WriteString("\n")
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter edit • t toggle truncation • 0 clear • q quit"))

	case stateEditValue:
		b.WriteString(m.input.View())
		b.WriteString(" ")
		b.WriteString(typeStyle.Render(m.fields[m.selected].Type.String()))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter set • esc back"))
	}

	b.WriteString("\n")
	return b.String()
}

func (m *interactiveModel) formatField(f layout.Field) string {
	value, err := m.s.Format(f.Name)
	if err != nil {
		value = "?"
	}
	return fmt.Sprintf("%s %s = %s", fieldStyle.Render(f.Name), typeStyle.Render(f.Type.String()), value)
}

func runInteractive(l *layout.Layout, opts render.Options) error {
	p := tea.NewProgram(newInteractiveModel(l, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
