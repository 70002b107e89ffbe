// Package tui is the terminal front end of the questvoice command: who is
// speaking, what was said, and which tools ran.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/danieloquelis/questvoice/core/events"
	"github.com/danieloquelis/questvoice/core/session"
)

const (
	maxEntries      = 200
	refreshInterval = 100 * time.Millisecond
)

// Controller is the part of the orchestrator the UI drives.
type Controller interface {
	Interrupt()
	SetMicrophoneMuted(muted bool)
	IsMicrophoneMuted() bool
	Status() session.Status
	Done() <-chan struct{}
}

type role int

const (
	roleUser role = iota
	roleAgent
	roleTool
	roleSystem
)

type entry struct {
	role  role
	text  string
	final bool
}

// EventMsg carries a conversation event into the program.
type EventMsg struct{ Event events.Event }

type refreshMsg time.Time

type doneMsg struct{}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	userStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	agentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	toolStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	systemStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	activeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
)

type Model struct {
	controller Controller
	title      string

	status  session.Status
	entries []entry

	spinner  spinner.Model
	viewport viewport.Model

	width  int
	height int

	quitting bool
}

func NewModel(controller Controller, title string) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = activeStyle

	return Model{
		controller: controller,
		title:      title,
		spinner:    s,
		viewport:   viewport.New(80, 20),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, refresh(), m.waitDone())
}

func refresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return refreshMsg(t) })
}

func (m Model) waitDone() tea.Cmd {
	done := m.controller.Done()
	return func() tea.Msg {
		<-done
		return doneMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-4, 1)
		m.syncViewport()

	case EventMsg:
		m.handleEvent(msg.Event)
		m.syncViewport()

	case refreshMsg:
		m.status = m.controller.Status()
		return m, refresh()

	case doneMsg:
		m.quitting = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit
	case "i":
		m.controller.Interrupt()
	case "m":
		m.controller.SetMicrophoneMuted(!m.controller.IsMicrophoneMuted())
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleEvent(event events.Event) {
	switch e := event.(type) {
	case events.UserTranscriptSegment:
		m.appendPartial(roleUser, e.Segment)
	case events.UserTranscriptFinal:
		m.finish(roleUser, e.Transcript)
	case events.AssistantTranscriptSegment:
		m.appendPartial(roleAgent, e.Segment)
	case events.AssistantTranscriptFinal:
		m.finish(roleAgent, e.Transcript)
	case events.ToolCallCompleted:
		m.add(roleTool, fmt.Sprintf("%s %s -> %s", e.Name, e.Arguments, e.Response))
	case events.ToolCallFailed:
		m.add(roleTool, fmt.Sprintf("%s %s failed: %s", e.Name, e.Arguments, e.Error))
	case events.TurnCancelled:
		m.closePartial(roleAgent)
		if e.Reason == events.CancelByBargeIn {
			m.add(roleSystem, "you cut in")
		} else {
			m.add(roleSystem, "interrupted")
		}
	case events.ServerError:
		m.add(roleSystem, fmt.Sprintf("server error %s: %s", e.Code, e.Message))
	case events.CaptureUnavailable:
		m.add(roleSystem, fmt.Sprintf("microphone unavailable: %v", e.Err))
	case events.PlaybackUnavailable:
		m.add(roleSystem, fmt.Sprintf("speaker unavailable: %v", e.Err))
	case events.SessionFailed:
		m.add(roleSystem, fmt.Sprintf("connection lost: %v", e.Err))
	}
}

func (m *Model) add(r role, text string) {
	m.entries = append(m.entries, entry{role: r, text: text, final: true})
	if len(m.entries) > maxEntries {
		m.entries = m.entries[len(m.entries)-maxEntries:]
	}
}

// appendPartial extends the open entry of role r, or opens one.
func (m *Model) appendPartial(r role, segment string) {
	if i := m.openEntry(r); i >= 0 {
		m.entries[i].text += segment
		return
	}
	m.entries = append(m.entries, entry{role: r, text: segment})
}

// finish replaces the open entry of role r with the final transcript.
func (m *Model) finish(r role, transcript string) {
	if i := m.openEntry(r); i >= 0 {
		if transcript != "" {
			m.entries[i].text = transcript
		}
		m.entries[i].final = true
		return
	}
	if transcript != "" {
		m.add(r, transcript)
	}
}

func (m *Model) closePartial(r role) {
	if i := m.openEntry(r); i >= 0 {
		m.entries[i].final = true
	}
}

func (m *Model) openEntry(r role) int {
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].role == r && !m.entries[i].final {
			return i
		}
	}
	return -1
}

func (m *Model) syncViewport() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m Model) renderTranscript() string {
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}

	var b strings.Builder
	for _, e := range m.entries {
		prefix, style := "", systemStyle
		switch e.role {
		case roleUser:
			prefix, style = "you   ", userStyle
		case roleAgent:
			prefix, style = "agent ", agentStyle
		case roleTool:
			prefix, style = "tool  ", toolStyle
		case roleSystem:
			prefix = "!     "
		}
		text := e.text
		if !e.final {
			text += "…"
		}
		wrapped := wordwrap.String(text, max(width-len(prefix), 10))
		indent := strings.Repeat(" ", len(prefix))
		for i, line := range strings.Split(wrapped, "\n") {
			if i == 0 {
				b.WriteString(style.Render(prefix))
			} else {
				b.WriteString(indent)
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) View() string {
	if m.quitting {
		return "bye\n"
	}
	return m.renderHeader() + "\n" + m.viewport.View() + "\n" + m.renderHelp()
}

func (m Model) renderHeader() string {
	parts := []string{titleStyle.Render(m.title), m.status.State.String()}

	if m.controller.IsMicrophoneMuted() {
		parts = append(parts, mutedStyle.Render("mic muted"))
	} else if m.status.UserSpeaking {
		parts = append(parts, activeStyle.Render("you are speaking"))
	} else if m.status.Ready {
		parts = append(parts, "listening")
	}

	switch {
	case m.status.AgentSpeaking:
		parts = append(parts, activeStyle.Render("agent speaking"))
	case m.status.Response != session.ResponseIdle || m.status.RunningToolCalls > 0:
		parts = append(parts, m.spinner.View()+" thinking")
	}

	if n := m.status.RunningToolCalls + m.status.PendingToolCalls; n > 0 {
		parts = append(parts, toolStyle.Render(fmt.Sprintf("%d tool calls", n)))
	}
	return strings.Join(parts, mutedStyle.Render(" · "))
}

func (m Model) renderHelp() string {
	return mutedStyle.Render("i interrupt · m mute mic · ↑/↓ scroll · q quit")
}
