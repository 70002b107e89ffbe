// Package tools maps tool names announced to the remote agent onto host
// handlers and runs them on request.
package tools

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jinzhu/copier"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

const DefaultTimeout = 30 * time.Second

var (
	ErrNotFound = errors.New("tool not found")
	ErrTimeout  = errors.New("tool timed out")
)

// Handler runs a tool with fully parsed arguments. The returned value is
// serialized to JSON and sent back to the agent.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Schema describes a tool to the agent.
type Schema struct {
	Description string
	// Parameters is a JSON schema object describing the arguments.
	Parameters map[string]any
}

// Descriptor is one manifest entry.
type Descriptor struct {
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

type RegistryOption func(*Registry)

// WithTimeout bounds how long a single dispatch may run.
func WithTimeout(timeout time.Duration) RegistryOption {
	return func(r *Registry) {
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

type entry struct {
	descriptor Descriptor
	handler    Handler
}

// Registry holds the tools offered to one or more sessions. It is safe for
// concurrent use.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]*entry
	order   []string
	timeout time.Duration
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		tools:   make(map[string]*entry),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func key(name string) string { return strings.ToLower(strings.TrimSpace(name)) }

// Register adds a tool. Names are matched case-insensitively and registering
// an existing name replaces it while keeping its manifest position.
func (r *Registry) Register(name string, handler Handler, schema Schema) error {
	if key(name) == "" {
		return fmt.Errorf("tool name is required")
	}
	if handler == nil {
		return fmt.Errorf("tool %q: handler is required", name)
	}

	parameters := schema.Parameters
	if parameters == nil {
		parameters = map[string]any{"type": "object", "properties": map[string]any{}}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	k := key(name)
	if _, ok := r.tools[k]; !ok {
		r.order = append(r.order, k)
	}
	r.tools[k] = &entry{
		descriptor: Descriptor{
			Type:        "function",
			Name:        strings.TrimSpace(name),
			Description: schema.Description,
			Parameters:  parameters,
		},
		handler: handler,
	}
	return nil
}

// Unregister removes a tool. It reports whether the tool existed.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key(name)
	if _, ok := r.tools[k]; !ok {
		return false
	}
	delete(r.tools, k)
	r.order = slices.DeleteFunc(r.order, func(existing string) bool { return existing == k })
	return true
}

func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[key(name)]
	return ok
}

// Names lists registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.order))
	for _, k := range r.order {
		names = append(names, r.tools[k].descriptor.Name)
	}
	return names
}

// Manifest returns a copy of every descriptor in registration order.
func (r *Registry) Manifest() []Descriptor {
	r.mu.RLock()
	descriptors := make([]Descriptor, 0, len(r.order))
	for _, k := range r.order {
		descriptors = append(descriptors, r.tools[k].descriptor)
	}
	r.mu.RUnlock()

	var manifest []Descriptor
	if err := copier.CopyWithOption(&manifest, &descriptors, copier.Option{DeepCopy: true}); err != nil {
		logger.Warn("failed to copy tool manifest", "error", err)
		return descriptors
	}
	return manifest
}

// Dispatch runs the named tool and always returns a result: unknown tools,
// handler errors, panics and timeouts are reported as error results.
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]any) Result {
	ctx, span := tracer.Start(ctx, "dispatch tool")
	defer span.End()
	span.SetAttributes(attribute.String("tool.name", name))

	r.mu.RLock()
	tool, ok := r.tools[key(name)]
	timeout := r.timeout
	r.mu.RUnlock()

	if !ok {
		err := fmt.Errorf("%w: %s", ErrNotFound, name)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn("tool not found", "tool", name)
		return notFoundResult(name, r.Names())
	}

	if args == nil {
		args = map[string]any{}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	started := time.Now()
	outcomes := make(chan outcome, 1)
	go runHandler(ctx, tool.handler, args, outcomes)

	var result Result
	select {
	case o := <-outcomes:
		if o.err != nil {
			err := fmt.Errorf("failed to execute tool %q: %w", name, o.err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			result = ErrorResult(o.err)
		} else {
			result = OutputResult(o.output)
		}
	case <-ctx.Done():
		err := ErrTimeout
		if errors.Is(ctx.Err(), context.Canceled) {
			err = ctx.Err()
		}
		err = fmt.Errorf("tool %q: %w", name, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn("tool did not complete", "tool", name, "error", err)
		result = ErrorResult(err)
	}

	dispatchDuration.Record(ctx, time.Since(started).Seconds(),
		metric.WithAttributes(attribute.String("tool.name", name), attribute.Bool("tool.error", result.IsError())))
	return result
}

type outcome struct {
	output any
	err    error
}

func runHandler(ctx context.Context, handler Handler, args map[string]any, outcomes chan<- outcome) {
	defer func() {
		if recovered := recover(); recovered != nil {
			outcomes <- outcome{err: fmt.Errorf("tool panicked: %v", recovered)}
		}
	}()

	output, err := handler(ctx, args)
	outcomes <- outcome{output: output, err: err}
}
