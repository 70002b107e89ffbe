// Package orchestration wires microphone capture, agent playback and host
// tools into a realtime voice conversation and exposes it to the host
// application.
package orchestration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/codes"

	"github.com/danieloquelis/questvoice/core/audio/capture"
	"github.com/danieloquelis/questvoice/core/events"
	"github.com/danieloquelis/questvoice/core/playback"
	"github.com/danieloquelis/questvoice/core/session"
	"github.com/danieloquelis/questvoice/core/tools"
)

var ErrAlreadyStarted = errors.New("orchestrator already started")

type Orchestrator struct {
	config          session.Config
	dialer          session.Dialer
	captureDevice   capture.Device
	captureOptions  []capture.SourceOption
	sink            playback.Sink
	playbackOptions []playback.QueueOption
	tools           *tools.Registry
	bus             *events.Bus

	withOrchestrationTools bool

	mu      sync.Mutex
	session *session.Session
	source  *capture.Source
	queue   *playback.Queue

	microphoneMuted atomic.Bool
	speakingMuted   atomic.Bool
}

func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		tools: tools.NewRegistry(),
		bus:   events.NewBus(),
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.withOrchestrationTools {
		if err := registerOrchestrationTools(o.tools, o); err != nil {
			logger.Error("failed to register orchestration tools", "error", err)
		}
	}

	return o
}

// Tools returns the registry offered to the agent. Tools registered before
// Start are announced when the session is configured.
func (o *Orchestrator) Tools() *tools.Registry { return o.tools }

// RegisterTool registers a handler the agent may call.
func (o *Orchestrator) RegisterTool(name string, handler tools.Handler, schema tools.Schema) error {
	return o.tools.Register(name, handler, schema)
}

// Subscribe registers a listener for every conversation event and returns
// a function removing it.
func (o *Orchestrator) Subscribe(listener events.Listener) (unsubscribe func()) {
	return o.bus.Subscribe(panicSafeListener("subscriber", listener))
}

// Start connects to the agent and runs the conversation until ctx is done or
// Shutdown is called. Only a failed connection is returned as an error.
//
// Contract: call Start at most once per orchestrator instance.
func (o *Orchestrator) Start(ctx context.Context, opts ...OrchestrateOption) error {
	ctx, span := tracer.Start(ctx, "start conversation")
	defer span.End()

	o.mu.Lock()
	if o.session != nil {
		o.mu.Unlock()
		return ErrAlreadyStarted
	}

	orchestrateOptions := OrchestrateOptions{}
	for _, opt := range opts {
		opt(&orchestrateOptions)
	}
	o.bus.Subscribe(panicSafeListener("callbacks", newCallbackEventEmitter(orchestrateOptions)))

	sessionOpts := []session.Option{
		session.WithBus(o.bus),
		session.WithTools(o.tools),
		session.WithDialer(o.dialer),
	}

	if o.captureDevice != nil {
		o.source = capture.NewSource(o.captureDevice, o.captureOptions...)
		o.source.SetMuted(o.microphoneMuted.Load())
		sessionOpts = append(sessionOpts, session.WithCapture(o.source))
	}

	if o.sink != nil {
		queue, err := playback.NewQueue(o.sink, o.playbackOptions...)
		if err != nil {
			err = fmt.Errorf("failed to create playback queue: %w", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logger.WarnContext(ctx, "agent audio will not be played", "error", err)
			o.bus.Publish(events.NewPlaybackUnavailable(err))
		} else {
			o.queue = queue
			o.queue.SetMuted(o.speakingMuted.Load())
			sessionOpts = append(sessionOpts, session.WithPlayback(o.queue))
		}
	}

	o.session = session.New(o.config, sessionOpts...)
	conversation := o.session
	o.mu.Unlock()

	if err := conversation.Connect(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	go func() {
		select {
		case <-ctx.Done():
			o.Shutdown()
		case <-conversation.Done():
		}
	}()

	return nil
}

// Interrupt cancels the agent's current response and silences playback.
func (o *Orchestrator) Interrupt() {
	if conversation := o.currentSession(); conversation != nil {
		conversation.Interrupt()
	}
}

// Shutdown ends the conversation. It is idempotent and a no-op before Start.
func (o *Orchestrator) Shutdown() {
	if conversation := o.currentSession(); conversation != nil {
		conversation.Shutdown()
	}
}

// Status returns a snapshot of the conversation.
func (o *Orchestrator) Status() session.Status {
	if conversation := o.currentSession(); conversation != nil {
		return conversation.Status()
	}
	return session.Status{}
}

// Done is closed once the conversation has ended. It is nil before Start.
func (o *Orchestrator) Done() <-chan struct{} {
	if conversation := o.currentSession(); conversation != nil {
		return conversation.Done()
	}
	return nil
}

// SetMicrophoneMuted stops sending microphone audio without closing the
// device.
func (o *Orchestrator) SetMicrophoneMuted(muted bool) {
	o.microphoneMuted.Store(muted)

	o.mu.Lock()
	source := o.source
	o.mu.Unlock()
	if source != nil {
		source.SetMuted(muted)
	}
}

func (o *Orchestrator) IsMicrophoneMuted() bool { return o.microphoneMuted.Load() }

// SetSpeaking mutes or unmutes agent playback. Audio reaching the sink while
// muted is dropped.
func (o *Orchestrator) SetSpeaking(isSpeaking bool) {
	o.speakingMuted.Store(!isSpeaking)

	o.mu.Lock()
	queue := o.queue
	o.mu.Unlock()
	if queue != nil {
		queue.SetMuted(!isSpeaking)
	}
}

func (o *Orchestrator) IsSpeaking() bool { return !o.speakingMuted.Load() }

func (o *Orchestrator) currentSession() *session.Session {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session
}
