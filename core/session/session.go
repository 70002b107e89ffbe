// Package session runs the realtime conversation protocol with the remote
// agent: connection lifecycle, turn-taking, streamed output, tool calls and
// interruption.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/danieloquelis/questvoice/core/audio/capture"
	"github.com/danieloquelis/questvoice/core/events"
	"github.com/danieloquelis/questvoice/core/playback"
	"github.com/danieloquelis/questvoice/core/realtime"
	"github.com/danieloquelis/questvoice/core/tools"
)

var (
	ErrClosed         = errors.New("session closed")
	ErrAlreadyStarted = errors.New("session already started")
)

// Dialer opens the connection to the agent.
type Dialer func(ctx context.Context, endpoint, credential, model string) (realtime.Conn, error)

func dialWebSocket(ctx context.Context, endpoint, credential, model string) (realtime.Conn, error) {
	return realtime.Dial(ctx, endpoint, credential, model)
}

type Option func(*Session)

func WithDialer(dialer Dialer) Option {
	return func(s *Session) {
		if dialer != nil {
			s.dialer = dialer
		}
	}
}

// WithCapture sets the microphone source. It is started once the agent
// acknowledged the session.
func WithCapture(source *capture.Source) Option {
	return func(s *Session) { s.capture = source }
}

// WithPlayback sets the queue agent audio is played through.
func WithPlayback(queue *playback.Queue) Option {
	return func(s *Session) { s.playback = queue }
}

// WithTools sets the registry offered to the agent.
func WithTools(registry *tools.Registry) Option {
	return func(s *Session) {
		if registry != nil {
			s.tools = registry
		}
	}
}

// WithBus sets the bus session events are published on. The session closes
// it at shutdown.
func WithBus(bus *events.Bus) Option {
	return func(s *Session) {
		if bus != nil {
			s.bus = bus
		}
	}
}

// WithClock replaces the clock used for the response debounce.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

type command int

const (
	commandInterrupt command = iota
)

type pendingCall struct {
	name      string
	arguments strings.Builder
}

type toolResult struct {
	generation uint64
	callID     string
	name       string
	arguments  string
	result     tools.Result
}

// Session is one conversation with the agent. All conversation state is
// owned by a single loop goroutine; the exported methods only hand work to
// it and are safe for concurrent use.
type Session struct {
	config   Config
	dialer   Dialer
	capture  *capture.Source
	playback *playback.Queue
	tools    *tools.Registry
	bus      *events.Bus
	now      func() time.Time

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}

	commands    chan command
	toolResults chan toolResult
	workers     sync.WaitGroup

	status atomic.Pointer[Status]

	// Owned by the loop goroutine once Connect returns.
	conn               realtime.Conn
	state              State
	ready              bool
	response           ResponseState
	responseID         string
	requestEventID     string
	lastRequest        time.Time
	cancelledResponses map[string]struct{}
	cancelledCreates   int
	userSpeaking       bool
	agentSpeaking      bool
	pending            map[string]*pendingCall
	runningTools       int
	turnTools          int
	generation         uint64
	pendingFollowUp    bool
	agentTranscript    strings.Builder
}

func New(config Config, opts ...Option) *Session {
	s := &Session{
		config:             config.withDefaults(),
		dialer:             dialWebSocket,
		tools:              tools.NewRegistry(),
		bus:                events.NewBus(),
		now:                time.Now,
		done:               make(chan struct{}),
		commands:           make(chan command, 8),
		toolResults:        make(chan toolResult, 8),
		cancelledResponses: make(map[string]struct{}),
		pending:            make(map[string]*pendingCall),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.publishStatus()
	return s
}

func (s *Session) Bus() *events.Bus         { return s.bus }
func (s *Session) Tools() *tools.Registry   { return s.tools }
func (s *Session) Config() Config           { return s.config }
func (s *Session) Done() <-chan struct{}    { return s.done }
func (s *Session) Capture() *capture.Source { return s.capture }

// Status returns the latest snapshot of the session. It never blocks on the
// loop and may be called from event listeners.
func (s *Session) Status() Status {
	return *s.status.Load()
}

// Connect dials the agent and starts the session loop. Only connection
// failures are returned; everything after that is reported through events.
// The session ends when ctx is cancelled or Shutdown is called.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	spanCtx, span := tracer.Start(ctx, "connect session")
	defer span.End()
	span.SetAttributes(attribute.String("session.model", s.config.Model))

	s.setState(StateConnecting)
	s.publishStatus()

	conn, err := s.dialer(runCtx, s.config.Endpoint, s.config.Credential, s.config.Model)
	if err != nil {
		err = fmt.Errorf("failed to connect session: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.ErrorContext(spanCtx, "session connection failed", "error", err)

		s.setState(StateClosed)
		s.publishStatus()
		s.bus.Publish(events.NewSessionFailed(err))
		cancel()
		close(s.done)
		return err
	}

	s.conn = conn
	s.setState(StateOpen)
	s.publishStatus()

	s.workers.Add(1)
	go s.keepalive(runCtx)
	go s.loop(runCtx)

	return nil
}

// Interrupt cancels the response in flight and silences playback. It does
// nothing when the session is not running.
func (s *Session) Interrupt() {
	s.mu.Lock()
	running := s.started && !s.stopped
	s.mu.Unlock()
	if !running {
		return
	}

	select {
	case <-s.done:
	case s.commands <- commandInterrupt:
	default:
		logger.Warn("interrupt dropped, command queue full")
	}
}

// Shutdown stops capture and playback, cancels timers and closes the
// connection, then removes every event listener. It is idempotent and does
// nothing before Connect. Listeners must not call it synchronously.
func (s *Session) Shutdown() {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	<-s.done
	s.bus.Close()
}

func (s *Session) keepalive(ctx context.Context) {
	defer s.workers.Done()

	ticker := time.NewTicker(s.config.KeepaliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.conn.Ping(ctx); err != nil {
				logger.Warn("keepalive failed", "error", err)
			}
		}
	}
}

func (s *Session) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.config.TickInterval)
	defer ticker.Stop()

	inbound := s.conn.Events()
	for {
		select {
		case <-ctx.Done():
			s.teardown(ctx)
			return

		case item, ok := <-inbound:
			if !ok {
				s.fail(ctx, realtime.ErrConnectionClosed)
				return
			}
			if item.Err != nil {
				s.fail(ctx, item.Err)
				return
			}
			framesReceived.Add(ctx, 1, metric.WithAttributes(attribute.String("event.type", item.Event.Type)))
			s.handleEvent(ctx, item.Event)

		case cmd := <-s.commands:
			switch cmd {
			case commandInterrupt:
				s.interrupt(ctx, events.CancelByHost)
			}

		case result := <-s.toolResults:
			s.handleToolResult(ctx, result)

		case <-ticker.C:
			s.tick(ctx)
		}
		s.publishStatus()
	}
}

// tick pumps microphone audio out and agent audio into the sink.
func (s *Session) tick(ctx context.Context) {
	if s.capture != nil {
		for _, chunk := range s.capture.Poll() {
			if !s.ready || s.state != StateOpen {
				continue
			}
			if err := s.send(ctx, realtime.AppendAudio(chunk)); err != nil {
				break
			}
			s.bus.Publish(events.NewUserAudioFrame(chunk))
		}
	}

	if s.playback != nil {
		if _, err := s.playback.Tick(); err != nil {
			logger.Warn("playback failed", "error", err)
			s.bus.Publish(events.NewPlaybackUnavailable(err))
		}
	}

	s.expireRequest()
	s.flushFollowUp(ctx)
}

func (s *Session) send(ctx context.Context, event realtime.ClientEvent) error {
	if s.conn == nil {
		return ErrClosed
	}
	if err := s.conn.Send(ctx, event); err != nil {
		logger.Warn("failed to send event", "type", event.Type, "error", err)
		return err
	}
	framesSent.Add(ctx, 1, metric.WithAttributes(attribute.String("event.type", event.Type)))
	return nil
}

// fail ends the session after the connection was lost.
func (s *Session) fail(ctx context.Context, err error) {
	if ctx.Err() == nil {
		logger.Error("session connection lost", "error", err)
		s.bus.Publish(events.NewSessionFailed(err))
	}
	s.teardown(ctx)
}

func (s *Session) teardown(ctx context.Context) {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	cancel()

	if s.capture != nil {
		if err := s.capture.Stop(); err != nil {
			logger.Warn("failed to stop capture", "error", err)
		}
	}
	if s.playback != nil {
		if err := s.playback.StopImmediately(); err != nil {
			logger.Warn("failed to stop playback", "error", err)
		}
	}
	if err := s.conn.Close(); err != nil {
		logger.Debug("failed to close connection", "error", err)
	}
	s.workers.Wait()

	s.ready = false
	s.userSpeaking = false
	s.agentSpeaking = false
	s.response = ResponseIdle
	s.responseID = ""
	s.requestEventID = ""
	s.pendingFollowUp = false
	clear(s.pending)
	s.runningTools = 0
	s.turnTools = 0
	s.setState(StateClosed)
	s.publishStatus()
	logger.InfoContext(ctx, "session closed")
}

func (s *Session) setState(state State) {
	if s.state == state {
		return
	}
	from := s.state
	s.state = state
	s.bus.Publish(events.NewSessionStateChanged(from.String(), state.String()))
}

func (s *Session) publishStatus() {
	queued := 0
	if s.playback != nil {
		queued = s.playback.Len()
	}
	s.status.Store(&Status{
		State:            s.state,
		Ready:            s.ready,
		Response:         s.response,
		ResponseID:       s.responseID,
		UserSpeaking:     s.userSpeaking,
		AgentSpeaking:    s.agentSpeaking,
		PendingToolCalls: len(s.pending),
		RunningToolCalls: s.runningTools,
		QueuedAudio:      queued,
	})
}
