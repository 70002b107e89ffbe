package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/danieloquelis/questvoice/core/events"
	"github.com/danieloquelis/questvoice/core/session"
)

type fakeController struct {
	interrupts int
	muted      bool
	status     session.Status
	done       chan struct{}
}

func newFakeController() *fakeController {
	return &fakeController{done: make(chan struct{})}
}

func (c *fakeController) Interrupt()                    { c.interrupts++ }
func (c *fakeController) SetMicrophoneMuted(muted bool) { c.muted = muted }
func (c *fakeController) IsMicrophoneMuted() bool       { return c.muted }
func (c *fakeController) Status() session.Status        { return c.status }
func (c *fakeController) Done() <-chan struct{}         { return c.done }

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("expected Model, got %T", next)
	}
	return model
}

func key(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestTranscriptSegmentsBuildOneEntry(t *testing.T) {
	m := NewModel(newFakeController(), "questvoice")

	m = update(t, m, EventMsg{events.NewAssistantTranscriptSegment("resp_1", "Sure, ")})
	m = update(t, m, EventMsg{events.NewAssistantTranscriptSegment("resp_1", "placing a cube")})

	if len(m.entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(m.entries))
	}
	if m.entries[0].text != "Sure, placing a cube" || m.entries[0].final {
		t.Fatalf("expected open entry with joined text, got %+v", m.entries[0])
	}

	m = update(t, m, EventMsg{events.NewAssistantTranscriptFinal("resp_1", "Sure, placing a cube.")})
	if len(m.entries) != 1 || !m.entries[0].final || m.entries[0].text != "Sure, placing a cube." {
		t.Fatalf("expected final transcript to replace the entry, got %+v", m.entries)
	}
}

func TestUserAndAgentEntriesInterleave(t *testing.T) {
	m := NewModel(newFakeController(), "questvoice")

	m = update(t, m, EventMsg{events.NewUserTranscriptFinal("item_1", "Make a sphere")})
	m = update(t, m, EventMsg{events.NewToolCallCompleted("call_1", "create_primitive", `{"type":"sphere"}`, `{"mesh_id":"sphere_1"}`)})
	m = update(t, m, EventMsg{events.NewAssistantTranscriptFinal("resp_1", "Done.")})

	if len(m.entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(m.entries))
	}
	if m.entries[0].role != roleUser || m.entries[1].role != roleTool || m.entries[2].role != roleAgent {
		t.Fatalf("unexpected entry order: %+v", m.entries)
	}

	transcript := m.renderTranscript()
	for _, want := range []string{"Make a sphere", "create_primitive", "Done."} {
		if !strings.Contains(transcript, want) {
			t.Fatalf("expected transcript to contain %q, got:\n%s", want, transcript)
		}
	}
}

func TestTurnCancelledClosesOpenAgentEntry(t *testing.T) {
	m := NewModel(newFakeController(), "questvoice")

	m = update(t, m, EventMsg{events.NewAssistantTranscriptSegment("resp_1", "Let me expl")})
	m = update(t, m, EventMsg{events.NewTurnCancelled(events.CancelByHost)})
	m = update(t, m, EventMsg{events.NewAssistantTranscriptSegment("resp_2", "Okay.")})

	if len(m.entries) != 3 {
		t.Fatalf("expected cut entry, notice and new entry, got %+v", m.entries)
	}
	if !m.entries[0].final || m.entries[0].text != "Let me expl" {
		t.Fatalf("expected interrupted entry to be closed, got %+v", m.entries[0])
	}
	if m.entries[2].text != "Okay." {
		t.Fatalf("expected new response in its own entry, got %+v", m.entries[2])
	}
}

func TestFailuresAreShown(t *testing.T) {
	m := NewModel(newFakeController(), "questvoice")

	m = update(t, m, EventMsg{events.NewCaptureUnavailable(errors.New("no input device"))})
	m = update(t, m, EventMsg{events.NewToolCallFailed("call_1", "bevel", `{}`, "Mesh 'x' not found")})

	transcript := m.renderTranscript()
	if !strings.Contains(transcript, "no input device") || !strings.Contains(transcript, "not found") {
		t.Fatalf("expected failures in transcript, got:\n%s", transcript)
	}
}

func TestKeysDriveController(t *testing.T) {
	controller := newFakeController()
	m := NewModel(controller, "questvoice")

	m = update(t, m, key('i'))
	if controller.interrupts != 1 {
		t.Fatalf("expected interrupt, got %d", controller.interrupts)
	}

	m = update(t, m, key('m'))
	if !controller.muted {
		t.Fatalf("expected microphone to be muted")
	}
	m = update(t, m, key('m'))
	if controller.muted {
		t.Fatalf("expected microphone to be unmuted")
	}

	_, cmd := m.Update(key('q'))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected quit message")
	}
}

func TestHeaderReflectsStatus(t *testing.T) {
	controller := newFakeController()
	m := NewModel(controller, "questvoice")

	controller.status = session.Status{State: session.StateOpen, Ready: true, AgentSpeaking: true, RunningToolCalls: 1}
	m = update(t, m, refreshMsg{})

	header := m.renderHeader()
	for _, want := range []string{"questvoice", "listening", "agent speaking", "1 tool calls"} {
		if !strings.Contains(header, want) {
			t.Fatalf("expected header to contain %q, got %q", want, header)
		}
	}

	controller.muted = true
	if !strings.Contains(m.renderHeader(), "mic muted") {
		t.Fatalf("expected muted microphone in header")
	}
}

func TestSessionEndQuits(t *testing.T) {
	m := NewModel(newFakeController(), "questvoice")

	next, cmd := m.Update(doneMsg{})
	if !next.(Model).quitting {
		t.Fatalf("expected model to be quitting")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected quit message")
	}
}
