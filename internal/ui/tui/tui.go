package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/affiliateai/copilot/internal/ui"
)

// SendFunc delivers one user turn to the assistant and returns its reply.
type SendFunc func(ctx context.Context, text string) (string, error)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575"))

	userStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#04B575"))

	assistantStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000"))
)

type Model struct {
	Provider string
	Module   string

	send     SendFunc
	notify   ui.UI
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	lines    []string
	waiting  bool
	quitting bool
	ready    bool
	width    int
	height   int
}

type replyMsg string
type errMsg struct{ err error }

// NewModel builds the chat model. Every turn is mirrored to notify so
// callers can record or relay the transcript; nil means no mirroring.
func NewModel(provider, module string, notify ui.UI, send SendFunc) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask about niches, content, keywords..."
	ti.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	if notify == nil {
		notify = ui.SilentUI{}
	}

	return Model{
		Provider: provider,
		Module:   module,
		send:     send,
		notify:   notify,
		input:    ti,
		spinner:  sp,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyEnter:
			text := strings.TrimSpace(m.input.Value())
			if text == "" || m.waiting {
				break
			}
			m.appendLine(userStyle.Render("you: ") + text)
			m.notify.AddMessage("you", text)
			m.notify.SetStatus("thinking")
			m.input.SetValue("")
			m.waiting = true
			cmds = append(cmds, m.spinner.Tick, m.ask(text))
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-6)
			m.viewport.SetContent(strings.Join(m.lines, "\n"))
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 6
		}

	case replyMsg:
		m.waiting = false
		m.appendLine(assistantStyle.Render("copilot: ") + string(msg))
		m.notify.AddMessage("copilot", string(msg))
		m.notify.SetStatus("")

	case errMsg:
		m.waiting = false
		m.appendLine(errorStyle.Render("error: " + msg.err.Error()))
		m.notify.Log("Error: " + msg.err.Error())
		m.notify.SetStatus("")
	}

	if m.waiting {
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) appendLine(line string) {
	m.lines = append(m.lines, line, "")
	if m.ready {
		m.viewport.SetContent(strings.Join(m.lines, "\n"))
		m.viewport.GotoBottom()
	}
}

func (m Model) ask(text string) tea.Cmd {
	return func() tea.Msg {
		reply, err := m.send(context.Background(), text)
		if err != nil {
			return errMsg{err: err}
		}
		return replyMsg(reply)
	}
}

func (m Model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	header := titleStyle.Render(" Affiliate Copilot ")
	provider := infoStyle.Render(fmt.Sprintf(" Provider: %s ", m.Provider))
	module := ""
	if m.Module != "" {
		module = fmt.Sprintf(" Module: %s ", m.Module)
	}

	prompt := m.input.View()
	if m.waiting {
		prompt = m.spinner.View() + " waiting for reply..."
	}

	view := fmt.Sprintf("%s%s%s\n\n%s\n\n%s",
		header, provider, module,
		m.viewport.View(),
		prompt)

	if m.quitting {
		return view + "\n  Quitting...\n"
	}

	return view
}
