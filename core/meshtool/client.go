// Package meshtool bridges voice tools to a MeshTool server, a websocket
// service that creates and edits 3D meshes on request.
package meshtool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultURL     = "ws://localhost:8765"
	DefaultTimeout = 15 * time.Second
)

// ErrCommandFailed is returned when the server answered with success false.
var ErrCommandFailed = errors.New("mesh command failed")

type request struct {
	Command   string `json:"command"`
	Params    any    `json:"params"`
	RequestID string `json:"request_id,omitempty"`
}

// Response is the decoded server reply with the "success" flag removed.
type Response map[string]any

type ClientOption func(*Client)

// WithTimeout bounds a single command, including dialing.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

func WithHeader(key, value string) ClientOption {
	return func(c *Client) { c.header.Set(key, value) }
}

// Client sends commands to a MeshTool server. The connection is opened on
// first use and reopened after any failure. The server has no request ids,
// so only one command is in flight at a time.
type Client struct {
	url     string
	timeout time.Duration
	header  http.Header

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewClient(url string, opts ...ClientOption) *Client {
	if url == "" {
		url = DefaultURL
	}
	c := &Client{url: url, timeout: DefaultTimeout, header: http.Header{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) URL() string { return c.url }

// Call runs command with params and returns the server response. A reply
// with success false is returned as an error wrapping ErrCommandFailed.
func (c *Client) Call(ctx context.Context, command string, params any) (Response, error) {
	requestID := uuid.NewString()
	ctx, span := tracer.Start(ctx, "mesh command", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("mesh.command", command), attribute.String("mesh.request_id", requestID))

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if params == nil {
		params = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	response, err := c.roundTrip(ctx, request{Command: command, Params: params, RequestID: requestID})
	if err != nil {
		c.dropConn()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	success, _ := response["success"].(bool)
	delete(response, "success")
	if !success {
		message, _ := response["error"].(string)
		if message == "" {
			message = "no error message"
		}
		err := fmt.Errorf("%w: %s: %s", ErrCommandFailed, command, message)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.WarnContext(ctx, "mesh command failed", "command", command, "error", message)
		return nil, err
	}

	logger.DebugContext(ctx, "mesh command completed", "command", command, "request_id", requestID)
	return response, nil
}

func (c *Client) roundTrip(ctx context.Context, req request) (Response, error) {
	if c.conn == nil {
		dialer := websocket.Dialer{HandshakeTimeout: c.timeout}
		conn, _, err := dialer.DialContext(ctx, c.url, c.header)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mesh server %s: %w", c.url, err)
		}
		c.conn = conn
		logger.InfoContext(ctx, "connected to mesh server", "url", c.url)
	}

	deadline, _ := ctx.Deadline()

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", req.Command, err)
	}
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return nil, fmt.Errorf("failed to set write deadline: %w", err)
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return nil, fmt.Errorf("failed to send %s: %w", req.Command, err)
	}

	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return nil, fmt.Errorf("failed to set read deadline: %w", err)
	}
	_, message, err := c.conn.ReadMessage()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return nil, fmt.Errorf("failed to read %s response: %w", req.Command, err)
	}

	var response Response
	if err := json.Unmarshal(message, &response); err != nil {
		return nil, fmt.Errorf("invalid %s response: %w", req.Command, err)
	}
	if response == nil {
		return nil, fmt.Errorf("empty %s response", req.Command)
	}
	return response, nil
}

func (c *Client) dropConn() {
	if c.conn == nil {
		return
	}
	_ = c.conn.Close()
	c.conn = nil
}

// Close closes the current connection, if any. The client stays usable and
// reconnects on the next call.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	err := c.conn.Close()
	c.conn = nil
	return err
}
