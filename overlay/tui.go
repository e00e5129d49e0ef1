package overlay

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TUI message types
type showMsg struct{}
type hideMsg struct{}
type contentMsg struct{ c Content }

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	phaseStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	meterOnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	meterOffDim  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

type tuiModel struct {
	visible bool
	content Content
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case showMsg:
		m.visible = true
	case hideMsg:
		m.visible = false
		m.content = Content{}
	case contentMsg:
		m.content = msg.c
	}
	return m, nil
}

const meterWidth = 24

func levelMeter(level float64) string {
	on := int(level * meterWidth)
	if on > meterWidth {
		on = meterWidth
	}
	var b strings.Builder
	b.WriteString(meterOnStyle.Render(strings.Repeat("█", on)))
	b.WriteString(meterOffDim.Render(strings.Repeat("░", meterWidth-on)))
	return b.String()
}

func (m tuiModel) View() string {
	if !m.visible {
		return "voco — waiting for a hotkey (ctrl+c to quit)\n"
	}
	c := m.content

	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", titleStyle.Render(c.Workflow), phaseStyle.Render(c.Phase))

	switch {
	case c.Err != "":
		fmt.Fprintf(&b, "%s\n", errStyle.Render("✗ "+c.Err))
	case c.WarmupWaiting:
		fmt.Fprintf(&b, "%s\n", warnStyle.Render("waiting for Bluetooth microphone..."))
	case c.QuietWarning:
		fmt.Fprintf(&b, "%s\n", warnStyle.Render("no voice detected"))
	}

	fmt.Fprintf(&b, "%s\n", levelMeter(c.Level))
	if c.Detail != "" {
		fmt.Fprintf(&b, "%s\n", detailStyle.Render(c.Detail))
	}
	return b.String()
}

// TUI renders the panel in the terminal. It satisfies Presenter by sending
// messages into the bubbletea program, which serializes all state changes.
type TUI struct {
	prog *tea.Program
}

func NewTUI() *TUI {
	return &TUI{prog: tea.NewProgram(tuiModel{})}
}

// Run blocks until the program exits (ctrl+c).
func (t *TUI) Run() error {
	_, err := t.prog.Run()
	return err
}

func (t *TUI) Quit() { t.prog.Quit() }

func (t *TUI) Show()            { t.prog.Send(showMsg{}) }
func (t *TUI) Hide()            { t.prog.Send(hideMsg{}) }
func (t *TUI) Update(c Content) { t.prog.Send(contentMsg{c: c}) }
