package meshtool

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/danieloquelis/questvoice/core/tools"
)

// reply is what the fake server does with one request.
type reply struct {
	body     map[string]any
	hangUp   bool
	noAnswer bool
}

type meshServer struct {
	*httptest.Server
	dials atomic.Int32

	mu       sync.Mutex
	requests []request
	respond  func(n int, req request) reply
}

func newMeshServer(t *testing.T, respond func(n int, req request) reply) *meshServer {
	t.Helper()

	server := &meshServer{respond: respond}
	upgrader := websocket.Upgrader{}
	server.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		server.dials.Add(1)

		for {
			var req request
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			server.mu.Lock()
			server.requests = append(server.requests, req)
			n := len(server.requests)
			server.mu.Unlock()

			answer := server.respond(n, req)
			if answer.noAnswer {
				continue
			}
			if err := conn.WriteJSON(answer.body); err != nil {
				return
			}
			if answer.hangUp {
				return
			}
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func (s *meshServer) wsURL() string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

func (s *meshServer) lastRequest() request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[len(s.requests)-1]
}

func succeed(fields map[string]any) reply {
	body := map[string]any{"success": true}
	for key, value := range fields {
		body[key] = value
	}
	return reply{body: body}
}

func TestCallReturnsResponseWithoutSuccessFlag(t *testing.T) {
	server := newMeshServer(t, func(int, request) reply {
		return succeed(map[string]any{"mesh_id": "box_1", "vertices": 8})
	})
	client := NewClient(server.wsURL())
	defer client.Close()

	response, err := client.Call(context.Background(), "create_primitive", map[string]any{"type": "box"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := response["success"]; ok {
		t.Fatalf("expected success flag to be stripped, got %v", response)
	}
	if response["mesh_id"] != "box_1" {
		t.Fatalf("expected mesh id in response, got %v", response)
	}

	req := server.lastRequest()
	if req.Command != "create_primitive" {
		t.Fatalf("expected command to be sent, got %q", req.Command)
	}
	if req.RequestID == "" {
		t.Fatalf("expected a request id")
	}
	params, _ := req.Params.(map[string]any)
	if params["type"] != "box" {
		t.Fatalf("expected params to be sent, got %v", req.Params)
	}
}

func TestCallWithoutParamsSendsEmptyObject(t *testing.T) {
	server := newMeshServer(t, func(int, request) reply {
		return succeed(map[string]any{"meshes": []any{}})
	})
	client := NewClient(server.wsURL())
	defer client.Close()

	if _, err := client.Call(context.Background(), "list_meshes", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	params, ok := server.lastRequest().Params.(map[string]any)
	if !ok || len(params) != 0 {
		t.Fatalf("expected empty params object, got %#v", server.lastRequest().Params)
	}
}

func TestCallFailureWrapsErrCommandFailed(t *testing.T) {
	server := newMeshServer(t, func(int, request) reply {
		return reply{body: map[string]any{"success": false, "error": "Mesh 'ghost' not found"}}
	})
	client := NewClient(server.wsURL())
	defer client.Close()

	_, err := client.Call(context.Background(), "delete_mesh", map[string]any{"mesh_id": "ghost"})
	if !errors.Is(err, ErrCommandFailed) {
		t.Fatalf("expected ErrCommandFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "ghost") {
		t.Fatalf("expected server message in error, got %v", err)
	}

	// A failed command leaves the connection usable.
	_, _ = client.Call(context.Background(), "delete_mesh", map[string]any{"mesh_id": "ghost"})
	if got := server.dials.Load(); got != 1 {
		t.Fatalf("expected a single connection, got %d", got)
	}
}

func TestCallRedialsAfterServerDrop(t *testing.T) {
	server := newMeshServer(t, func(n int, _ request) reply {
		answer := succeed(map[string]any{"n": n})
		answer.hangUp = n == 1
		return answer
	})
	client := NewClient(server.wsURL(), WithTimeout(2*time.Second))
	defer client.Close()

	if _, err := client.Call(context.Background(), "list_meshes", nil); err != nil {
		t.Fatalf("unexpected error on first call: %v", err)
	}
	if _, err := client.Call(context.Background(), "list_meshes", nil); err == nil {
		t.Fatalf("expected the call on the dropped connection to fail")
	}
	if _, err := client.Call(context.Background(), "list_meshes", nil); err != nil {
		t.Fatalf("expected client to reconnect, got %v", err)
	}
	if got := server.dials.Load(); got != 2 {
		t.Fatalf("expected 2 connections, got %d", got)
	}
}

func TestCallTimesOut(t *testing.T) {
	server := newMeshServer(t, func(int, request) reply {
		return reply{noAnswer: true}
	})
	client := NewClient(server.wsURL(), WithTimeout(50*time.Millisecond))
	defer client.Close()

	start := time.Now()
	_, err := client.Call(context.Background(), "get_mesh_info", map[string]any{"mesh_id": "box_1"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("expected call to give up promptly, took %s", elapsed)
	}
}

func TestCallHonoursCancellation(t *testing.T) {
	server := newMeshServer(t, func(int, request) reply {
		return reply{noAnswer: true}
	})
	client := NewClient(server.wsURL())
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(30*time.Millisecond, cancel)

	_, err := client.Call(ctx, "get_mesh_info", map[string]any{"mesh_id": "box_1"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestCallReportsUnreachableServer(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	server.Close()

	client := NewClient(url, WithTimeout(time.Second))
	_, err := client.Call(context.Background(), "list_meshes", nil)
	if err == nil || !strings.Contains(err.Error(), "failed to connect") {
		t.Fatalf("expected connection error, got %v", err)
	}
}

func TestRegisterExposesEveryCommand(t *testing.T) {
	registry := tools.NewRegistry()
	if err := Register(registry, NewClient("")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, name := range []string{
		"create_primitive", "create_complex_mesh", "boolean_operation", "extrude", "bevel",
		"transform_mesh", "get_mesh_info", "list_meshes", "delete_mesh", "save_mesh_file", "export_mesh",
	} {
		if !registry.Has(name) {
			t.Fatalf("expected %s to be registered", name)
		}
	}
}

func TestDispatchedToolReachesServer(t *testing.T) {
	server := newMeshServer(t, func(_ int, req request) reply {
		return succeed(map[string]any{"mesh_id": "box_1", "command": req.Command})
	})
	client := NewClient(server.wsURL())
	defer client.Close()

	registry := tools.NewRegistry()
	if err := Register(registry, client); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := registry.Dispatch(context.Background(), "transform_mesh", map[string]any{
		"mesh_id": "box_1",
		"scale":   []any{2.0},
	})
	if result.IsError() {
		t.Fatalf("unexpected error result: %v", result)
	}
	if result["mesh_id"] != "box_1" {
		t.Fatalf("expected server response as tool result, got %v", result)
	}

	params, _ := server.lastRequest().Params.(map[string]any)
	if params["scale"] != 2.0 {
		t.Fatalf("expected uniform scale to be sent as a scalar, got %#v", params["scale"])
	}
	if _, ok := params["translate"]; ok {
		t.Fatalf("expected unset fields to be omitted, got %v", params)
	}
}

func TestDispatchedToolFailureBecomesErrorResult(t *testing.T) {
	server := newMeshServer(t, func(int, request) reply {
		return reply{body: map[string]any{"success": false, "error": "Mesh 'a' not found"}}
	})
	client := NewClient(server.wsURL())
	defer client.Close()

	registry := tools.NewRegistry()
	_ = Register(registry, client)

	result := registry.Dispatch(context.Background(), "boolean_operation", map[string]any{
		"mesh_a": "a", "mesh_b": "b", "operation": "union",
	})
	if !result.IsError() {
		t.Fatalf("expected error result, got %v", result)
	}
	if !strings.Contains(result.JSON(), "not found") {
		t.Fatalf("expected server message in result, got %s", result.JSON())
	}
}

func TestExportMeshTruncatesLargeData(t *testing.T) {
	data := strings.Repeat("A", maxInlineExport+1)
	server := newMeshServer(t, func(int, request) reply {
		return succeed(map[string]any{"format": "glb", "data": data})
	})
	client := NewClient(server.wsURL())
	defer client.Close()

	registry := tools.NewRegistry()
	_ = Register(registry, client)

	result := registry.Dispatch(context.Background(), "export_mesh", map[string]any{"mesh_id": "box_1"})
	if _, ok := result["data"]; ok {
		t.Fatalf("expected data to be dropped from the result")
	}
	if result["data_truncated"] != true {
		t.Fatalf("expected truncation marker, got %v", result)
	}
	if result["data_length"] != len(data) {
		t.Fatalf("expected original length, got %v", result["data_length"])
	}
}
