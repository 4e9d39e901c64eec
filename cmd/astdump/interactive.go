package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kg/design/astpack"
	"github.com/kg/design/compress"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	opStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type interactiveModel struct {
	err      error
	module   *astpack.Module
	raw      []byte
	filename string
	workers  int
	funcs    []funcEntry
	visible  []int
	filter   textinput.Model
	selected int
	state    modelState
}

type funcEntry struct {
	name string
	sig  string
}

type modelState int

const (
	stateSelectFunc modelState = iota
	stateViewFunc
)

func newInteractiveModel(filename string, workers int) *interactiveModel {
	filter := textinput.New()
	filter.Placeholder = "filter"
	filter.Prompt = "/ "
	filter.Width = 30
	filter.Focus()

	return &interactiveModel{
		filename: filename,
		workers:  workers,
		filter:   filter,
		state:    stateSelectFunc,
	}
}

type loadedMsg struct {
	err    error
	module *astpack.Module
	raw    []byte
	funcs  []funcEntry
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.loadModule
}

func (m *interactiveModel) loadModule() tea.Msg {
	data, err := os.ReadFile(m.filename)
	if err != nil {
		return loadedMsg{err: err}
	}

	raw, err := compress.MaybeDecompress(data)
	if err != nil {
		return loadedMsg{err: err}
	}

	mod, err := astpack.DecodeWithOptions(raw, astpack.DecodeOptions{Workers: m.workers})
	if err != nil {
		return loadedMsg{err: err}
	}

	funcs := make([]funcEntry, len(mod.Functions))
	for i := range mod.Functions {
		fn := &mod.Functions[i]
		name := fmt.Sprintf("func%d", i)
		if fn.HasName() {
			if s, nerr := astpack.NameAt(raw, fn.NameOffset); nerr == nil {
				name = s
			}
		}
		sig := "?"
		if int(fn.SignatureIndex) < len(mod.Signatures) {
			sig = formatSignature(mod.Signatures[fn.SignatureIndex])
		}
		funcs[i] = funcEntry{name: name, sig: sig}
	}

	return loadedMsg{module: mod, raw: raw, funcs: funcs}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc":
			if m.state == stateViewFunc {
				m.state = stateSelectFunc
				return m, nil
			}
			return m, tea.Quit

		case "up":
			if m.state == stateSelectFunc && m.selected > 0 {
				m.selected--
			}
			return m, nil

		case "down":
			if m.state == stateSelectFunc && m.selected < len(m.visible)-1 {
				m.selected++
			}
			return m, nil

		case "enter":
			switch m.state {
			case stateSelectFunc:
				if len(m.visible) > 0 {
					m.state = stateViewFunc
				}
			case stateViewFunc:
				m.state = stateSelectFunc
			}
			return m, nil
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.module = msg.module
		m.raw = msg.raw
		m.funcs = msg.funcs
		m.refilter()
		return m, nil
	}

	if m.state == stateSelectFunc {
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(msg)
		m.refilter()
		return m, cmd
	}

	return m, nil
}

func (m *interactiveModel) refilter() {
	needle := strings.ToLower(m.filter.Value())
	m.visible = m.visible[:0]
	for i, f := range m.funcs {
		if needle == "" || strings.Contains(strings.ToLower(f.name), needle) {
			m.visible = append(m.visible, i)
		}
	}
	if m.selected >= len(m.visible) {
		m.selected = len(m.visible) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func (m *interactiveModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress esc to quit.", m.err))
	}

	if m.module == nil {
		return "Loading module..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("AST Dump"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectFunc:
		b.WriteString(m.filter.View())
		b.WriteString("\n\n")
		for pos, idx := range m.visible {
			line := fmt.Sprintf("[%d] %s %s", idx,
				funcStyle.Render(m.funcs[idx].name),
				typeStyle.Render(m.funcs[idx].sig))
			if pos == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter view body • esc quit"))

	case stateViewFunc:
		idx := m.visible[m.selected]
		fn := &m.module.Functions[idx]
		b.WriteString(funcStyle.Render(m.funcs[idx].name))
		b.WriteString(" ")
		b.WriteString(typeStyle.Render(m.funcs[idx].sig))
		b.WriteString("\n\n")
		if fn.IsImport() {
			b.WriteString("(import, no body)\n")
		} else {
			if fn.HasLocals() {
				b.WriteString(fmt.Sprintf("locals: i32=%d i64=%d f32=%d f64=%d\n\n",
					fn.Locals.I32, fn.Locals.I64, fn.Locals.F32, fn.Locals.F64))
			}
			for _, n := range fn.Body {
				renderTree(&b, n, 0)
			}
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter/esc back"))
	}

	return b.String()
}

func renderTree(b *strings.Builder, n *astpack.AstNode, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(opStyle.Render(n.Op.Name()))
	if n.Imm != nil {
		b.WriteString(fmt.Sprintf(" %v", n.Imm))
	}
	b.WriteString("\n")
	for _, kid := range n.Kids {
		renderTree(b, kid, depth+1)
	}
}

func runInteractive(filename string, workers int) error {
	p := tea.NewProgram(newInteractiveModel(filename, workers), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
