package orchestration

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/danieloquelis/questvoice/core/events"
	"github.com/danieloquelis/questvoice/core/realtime"
	"github.com/danieloquelis/questvoice/core/tools"
)

type connStub struct {
	mu     sync.Mutex
	sent   []realtime.ClientEvent
	closed bool
	events chan realtime.Inbound
}

func newConnStub() *connStub {
	return &connStub{events: make(chan realtime.Inbound, 32)}
}

func (c *connStub) Send(_ context.Context, event realtime.ClientEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, event)
	return nil
}

func (c *connStub) Ping(context.Context) error      { return nil }
func (c *connStub) Events() <-chan realtime.Inbound { return c.events }

func (c *connStub) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *connStub) push(t *testing.T, raw string) {
	t.Helper()
	event, err := realtime.ParseServerEvent([]byte(raw))
	if err != nil {
		t.Fatalf("invalid test event: %v", err)
	}
	c.events <- realtime.Inbound{Event: event}
}

func (c *connStub) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func dialStub(conn *connStub) OrchestratorOption {
	return WithDialer(func(context.Context, string, string, string) (realtime.Conn, error) {
		return conn, nil
	})
}

func waitForCondition(t *testing.T, timeout time.Duration, description string, condition func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("timed out waiting for %s", description)
}

func TestShutdownBeforeStartIsNoop(t *testing.T) {
	o := NewOrchestrator()
	o.Shutdown()
	o.Shutdown()
	o.Interrupt()

	if o.Done() != nil {
		t.Fatalf("expected no conversation before start")
	}
}

func TestStartFailureReportsFailure(t *testing.T) {
	dialErr := errors.New("unreachable")
	o := NewOrchestrator(WithDialer(func(context.Context, string, string, string) (realtime.Conn, error) {
		return nil, dialErr
	}))

	var failure error
	err := o.Start(context.Background(), WithFailureCallback(func(err error) { failure = err }))
	if !errors.Is(err, dialErr) {
		t.Fatalf("expected dial error, got %v", err)
	}
	if !errors.Is(failure, dialErr) {
		t.Fatalf("expected failure callback with dial error, got %v", failure)
	}
	if err := o.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("expected ErrAlreadyStarted, got %v", err)
	}
	o.Shutdown()
}

func TestCallbacksFollowTheConversation(t *testing.T) {
	conn := newConnStub()
	o := NewOrchestrator(dialStub(conn), WithInstructions("help with meshes"))

	var (
		ready          atomic.Bool
		userSpeaking   atomic.Bool
		agentSpeaking  atomic.Bool
		mu             sync.Mutex
		userTranscript string
		agentText      string
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := o.Start(ctx,
		WithReadyCallback(func() { ready.Store(true) }),
		WithUserSpeakingCallback(func(isSpeaking bool) { userSpeaking.Store(isSpeaking) }),
		WithAgentSpeakingCallback(func(isSpeaking bool) { agentSpeaking.Store(isSpeaking) }),
		WithUserTranscriptCallback(func(transcript string) {
			mu.Lock()
			defer mu.Unlock()
			userTranscript = transcript
		}),
		WithAgentTranscriptSegmentCallback(func(segment string) {
			mu.Lock()
			defer mu.Unlock()
			agentText += segment
		}),
	)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer o.Shutdown()

	conn.push(t, `{"type":"session.created","session":{"id":"sess_1"}}`)
	waitForCondition(t, time.Second, "ready callback", ready.Load)

	conn.push(t, `{"type":"input_audio_buffer.speech_started"}`)
	waitForCondition(t, time.Second, "user speaking", userSpeaking.Load)

	conn.push(t, `{"type":"input_audio_buffer.speech_stopped"}`)
	conn.push(t, `{"type":"conversation.item.input_audio_transcription.completed","item_id":"item_1","transcript":"make a cube"}`)
	conn.push(t, `{"type":"response.created","response":{"id":"resp_1"}}`)
	conn.push(t, `{"type":"response.audio.delta","response_id":"resp_1","delta":"AAAAAA=="}`)
	conn.push(t, `{"type":"response.audio_transcript.delta","response_id":"resp_1","delta":"Sure"}`)

	waitForCondition(t, time.Second, "agent speaking", agentSpeaking.Load)
	if userSpeaking.Load() {
		t.Fatalf("expected user speaking to be cleared")
	}

	waitForCondition(t, time.Second, "transcripts", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return userTranscript == "make a cube" && agentText == "Sure"
	})

	conn.push(t, `{"type":"response.audio.done","response_id":"resp_1"}`)
	waitForCondition(t, time.Second, "agent done speaking", func() bool { return !agentSpeaking.Load() })
}

func TestContextCancellationShutsDown(t *testing.T) {
	conn := newConnStub()
	o := NewOrchestrator(dialStub(conn))

	ctx, cancel := context.WithCancel(context.Background())
	if err := o.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	cancel()
	select {
	case <-o.Done():
	case <-time.After(time.Second):
		t.Fatalf("expected conversation to end with its context")
	}
	waitForCondition(t, time.Second, "connection closed", conn.isClosed)
}

func TestPanickingCallbackDoesNotStopConversation(t *testing.T) {
	conn := newConnStub()
	o := NewOrchestrator(dialStub(conn))

	var cancelled atomic.Bool
	err := o.Start(context.Background(),
		WithUserSpeakingCallback(func(bool) { panic("host bug") }),
		WithCancellationCallback(func() { cancelled.Store(true) }),
	)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer o.Shutdown()

	conn.push(t, `{"type":"session.created","session":{"id":"sess_1"}}`)
	conn.push(t, `{"type":"input_audio_buffer.speech_stopped"}`)
	conn.push(t, `{"type":"response.created","response":{"id":"resp_1"}}`)
	waitForCondition(t, time.Second, "active response", func() bool { return o.Status().ResponseID == "resp_1" })

	o.Interrupt()
	waitForCondition(t, time.Second, "cancellation callback", cancelled.Load)
}

func TestSubscribeReceivesRawEvents(t *testing.T) {
	conn := newConnStub()
	o := NewOrchestrator(dialStub(conn))

	var ready atomic.Bool
	unsubscribe := o.Subscribe(func(event events.Event) {
		if event.Kind() == events.KindSessionReady {
			ready.Store(true)
		}
	})
	defer unsubscribe()

	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer o.Shutdown()

	conn.push(t, `{"type":"session.created","session":{"id":"sess_1"}}`)
	waitForCondition(t, time.Second, "session ready event", ready.Load)
}

func TestOrchestrationToolsControlMicrophoneAndSpeech(t *testing.T) {
	o := NewOrchestrator(WithOrchestrationTools())

	names := o.Tools().Names()
	if len(names) != 2 || names[0] != "microphone_control" || names[1] != "speaking_control" {
		t.Fatalf("unexpected orchestration tools: %v", names)
	}

	result := o.Tools().Dispatch(context.Background(), "microphone_control", map[string]any{"is_listening": false})
	if result.IsError() {
		t.Fatalf("unexpected error result: %v", result)
	}
	if !o.IsMicrophoneMuted() {
		t.Fatalf("expected microphone to be muted")
	}

	o.Tools().Dispatch(context.Background(), "speaking_control", map[string]any{"is_speaking": false})
	if o.IsSpeaking() {
		t.Fatalf("expected agent speech to be muted")
	}

	o.Tools().Dispatch(context.Background(), "SPEAKING_CONTROL", map[string]any{"is_speaking": true})
	if !o.IsSpeaking() {
		t.Fatalf("expected agent speech to be unmuted")
	}
}

func TestRegisteredToolsAreAnnounced(t *testing.T) {
	conn := newConnStub()
	o := NewOrchestrator(dialStub(conn))
	if err := o.RegisterTool("get_mesh_info", func(context.Context, map[string]any) (any, error) { return nil, nil },
		tools.Schema{Description: "Mesh details"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer o.Shutdown()

	conn.push(t, `{"type":"session.created","session":{"id":"sess_1"}}`)
	waitForCondition(t, time.Second, "session update", func() bool {
		conn.mu.Lock()
		defer conn.mu.Unlock()
		for _, event := range conn.sent {
			if event.Type == realtime.EventTypeSessionUpdate && len(event.Session.Tools) == 1 {
				return event.Session.Tools[0].Name == "get_mesh_info"
			}
		}
		return false
	})
}
