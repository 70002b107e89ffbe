package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrConnectionClosed = errors.New("connection closed")

	errMissingType = errors.New("event has no type")
)

// Conn is a duplex event stream to the agent.
type Conn interface {
	// Send writes one client event. It is safe for concurrent use.
	Send(ctx context.Context, event ClientEvent) error
	// Ping sends a transport level liveness probe.
	Ping(ctx context.Context) error
	// Events yields inbound events in arrival order. The channel is closed
	// once the connection ends; a final item with Err set explains why.
	Events() <-chan Inbound
	Close() error
}

type Inbound struct {
	Event *ServerEvent
	Err   error
}

type DialOption func(*dialOptions)

type dialOptions struct {
	header           http.Header
	handshakeTimeout time.Duration
	writeTimeout     time.Duration
	eventBuffer      int
}

// WithHeader adds a header to the websocket handshake.
func WithHeader(key, value string) DialOption {
	return func(o *dialOptions) { o.header.Set(key, value) }
}

func WithHandshakeTimeout(timeout time.Duration) DialOption {
	return func(o *dialOptions) { o.handshakeTimeout = timeout }
}

func WithWriteTimeout(timeout time.Duration) DialOption {
	return func(o *dialOptions) { o.writeTimeout = timeout }
}

// WebSocketConn is a Conn over a gorilla websocket.
type WebSocketConn struct {
	conn         *websocket.Conn
	writeTimeout time.Duration

	eventsCh  chan Inbound
	closeCh   chan struct{}
	closeOnce sync.Once
	mu        sync.Mutex
}

// Dial connects to endpoint. credential is sent as a bearer token and model,
// when set, as the model query parameter.
func Dial(ctx context.Context, endpoint, credential, model string, opts ...DialOption) (*WebSocketConn, error) {
	ctx, span := tracer.Start(ctx, "dial realtime", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	options := dialOptions{
		header:           http.Header{},
		handshakeTimeout: 15 * time.Second,
		writeTimeout:     10 * time.Second,
		eventBuffer:      100,
	}
	for _, opt := range opts {
		opt(&options)
	}

	target, err := url.Parse(endpoint)
	if err != nil {
		err = fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if model != "" {
		query := target.Query()
		if query.Get("model") == "" {
			query.Set("model", model)
			target.RawQuery = query.Encode()
		}
	}
	span.SetAttributes(attribute.String("realtime.host", target.Host), attribute.String("realtime.model", model))

	if credential != "" {
		options.header.Set("Authorization", "Bearer "+credential)
	}
	if options.header.Get("OpenAI-Beta") == "" {
		options.header.Set("OpenAI-Beta", "realtime=v1")
	}

	dialer := websocket.Dialer{HandshakeTimeout: options.handshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, target.String(), options.header)
	if err != nil {
		if resp != nil {
			err = fmt.Errorf("failed to connect (status %d): %w", resp.StatusCode, err)
		} else {
			err = fmt.Errorf("failed to connect: %w", err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	c := &WebSocketConn{
		conn:         conn,
		writeTimeout: options.writeTimeout,
		eventsCh:     make(chan Inbound, options.eventBuffer),
		closeCh:      make(chan struct{}),
	}
	go c.readLoop()

	return c, nil
}

func (c *WebSocketConn) Events() <-chan Inbound { return c.eventsCh }

func (c *WebSocketConn) Send(ctx context.Context, event ClientEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", event.Type, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.closeCh:
		return ErrConnectionClosed
	default:
	}

	if event.Type != EventTypeInputAudioBufferAppend {
		logger.DebugContext(ctx, "sending event", "type", event.Type, "content", truncate(string(data), 500))
	}

	if err := c.conn.SetWriteDeadline(c.deadline(ctx)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send %s: %w", event.Type, err)
	}
	return nil
}

func (c *WebSocketConn) Ping(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.closeCh:
		return ErrConnectionClosed
	default:
	}

	if err := c.conn.WriteControl(websocket.PingMessage, nil, c.deadline(ctx)); err != nil {
		return fmt.Errorf("failed to send keepalive: %w", err)
	}
	return nil
}

func (c *WebSocketConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)

		c.mu.Lock()
		_ = c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		c.mu.Unlock()

		err = c.conn.Close()
	})
	return err
}

func (c *WebSocketConn) deadline(ctx context.Context) time.Time {
	deadline := time.Now().Add(c.writeTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		return ctxDeadline
	}
	return deadline
}

// readLoop is the single receive path. Frames that fail to decode are logged
// and dropped.
func (c *WebSocketConn) readLoop() {
	defer close(c.eventsCh)

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.closeCh:
				return
			default:
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				err = fmt.Errorf("%w: %w", ErrConnectionClosed, err)
			} else {
				err = fmt.Errorf("read error: %w", err)
			}
			c.deliver(Inbound{Err: err})
			return
		}

		event, err := ParseServerEvent(message)
		if err != nil {
			logger.Warn("dropping malformed frame", "error", err, "content", truncate(string(message), 200))
			continue
		}

		if event.Type != EventTypeResponseAudioDelta {
			logger.Debug("received event", "type", event.Type, "len", len(message))
		}

		if !c.deliver(Inbound{Event: event}) {
			return
		}
	}
}

func (c *WebSocketConn) deliver(item Inbound) bool {
	select {
	case <-c.closeCh:
		return false
	case c.eventsCh <- item:
		return true
	}
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
