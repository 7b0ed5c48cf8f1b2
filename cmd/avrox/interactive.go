package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/avro-xform/codec/document"
	"github.com/wippyai/avro-xform/transcoder"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	opStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

var opDescriptions = []struct {
	op   transcoder.Op
	help string
}{
	{transcoder.OpFlatten, "verbose JSON -> terse"},
	{transcoder.OpUnflatten, "terse JSON -> verbose"},
	{transcoder.OpXFlatten, "partial record -> update ops"},
}

type interactiveModel struct {
	err      error
	tr       *transcoder.Transcoder
	cfg      config
	result   string
	names    []string
	input    textinput.Model
	selected int
	state    modelState
}

type modelState int

const (
	stateSelectOp modelState = iota
	stateInput
	stateShowResult
)

func newInteractiveModel(cfg config) *interactiveModel {
	return &interactiveModel{cfg: cfg, state: stateSelectOp}
}

type loadedMsg struct {
	err   error
	tr    *transcoder.Transcoder
	names []string
}

type resultMsg struct {
	err    error
	result string
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.load
}

func (m *interactiveModel) load() tea.Msg {
	src, dest, err := loadSchemas(m.cfg)
	if err != nil {
		return loadedMsg{err: err}
	}
	tr, err := transcoder.New(src, dest, m.cfg.opts)
	if err != nil {
		return loadedMsg{err: err}
	}
	// Non-record roots have no flattened positions to show.
	names, _ := dest.FlatNames()
	return loadedMsg{tr: tr, names: names}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.state != stateInput {
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateSelectOp && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectOp && m.selected < len(opDescriptions)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectOp:
				m.prepareInput()
				m.state = stateInput
				return m, nil

			case stateInput:
				return m, m.runOp

			case stateShowResult:
				m.state = stateInput
				m.result = ""
				m.err = nil
				m.input.Focus()
				return m, nil
			}

		case "esc":
			switch m.state {
			case stateInput:
				m.state = stateSelectOp
			case stateShowResult:
				m.state = stateSelectOp
				m.result = ""
				m.err = nil
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.tr = msg.tr
		m.names = msg.names

	case resultMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateShowResult
	}

	if m.state == stateInput {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *interactiveModel) prepareInput() {
	ti := textinput.New()
	ti.Prompt = "json: "
	ti.Width = 60
	switch opDescriptions[m.selected].op {
	case transcoder.OpUnflatten:
		ti.Placeholder = "[1, \"a\", ...]"
	default:
		ti.Placeholder = "{\"field\": ...}"
	}
	ti.Focus()
	m.input = ti
}

func (m *interactiveModel) runOp() tea.Msg {
	if m.tr == nil {
		return resultMsg{err: fmt.Errorf("schema not loaded")}
	}
	out, err := transform(m.tr, opDescriptions[m.selected].op, document.FormatJSON, document.FormatJSON, []byte(m.input.Value()))
	if err != nil {
		return resultMsg{err: err}
	}
	return resultMsg{result: strings.TrimRight(string(out), "\n")}
}

func (m *interactiveModel) View() string {
	if m.err != nil && m.state != stateShowResult {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if m.tr == nil {
		return "Loading schema..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Avro Transcoder"))
	b.WriteString(" ")
	b.WriteString(m.tr.Source().String())
	if m.tr.Dest() != m.tr.Source() {
		b.WriteString(" -> ")
		b.WriteString(m.tr.Dest().String())
	}
	b.WriteString(" ")
	b.WriteString(helpStyle.Render("[" + describeOptions(m.cfg.opts) + "]"))
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectOp:
		b.WriteString("Select an operation:\n\n")
		for i, d := range opDescriptions {
			line := fmt.Sprintf("%-10s %s", d.op, d.help)
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + opStyle.Render(line))
			}
			b.WriteString("\n")
		}
		if len(m.names) > 0 {
			b.WriteString("\nPositions:\n")
			for i, n := range m.names {
				b.WriteString(fmt.Sprintf("  %3d %s\n", i+m.cfg.opts.PositionBase, typeStyle.Render(n)))
			}
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter choose • q quit"))

	case stateInput:
		b.WriteString(fmt.Sprintf("%s input\n\n", opStyle.Render(opDescriptions[m.selected].op.String())))
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter run • esc back"))

	case stateShowResult:
		b.WriteString(fmt.Sprintf("Result of %s:\n\n", opStyle.Render(opDescriptions[m.selected].op.String())))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter edit • esc operations • q quit"))
	}

	return b.String()
}

func runInteractive(cfg config) error {
	p := tea.NewProgram(newInteractiveModel(cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
