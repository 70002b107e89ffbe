package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// RegisterFunc registers a handler taking a typed parameter struct. The
// parameter schema is reflected from T, so field tags (`json`,
// `jsonschema`) describe the arguments to the agent.
func RegisterFunc[T any](r *Registry, name, description string, fn func(ctx context.Context, params T) (any, error)) error {
	parameters, err := SchemaFor[T]()
	if err != nil {
		return fmt.Errorf("tool %q: %w", name, err)
	}

	handler := func(ctx context.Context, args map[string]any) (any, error) {
		var params T
		data, err := json.Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("failed to encode arguments: %w", err)
		}
		if err := json.Unmarshal(data, &params); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		return fn(ctx, params)
	}

	return r.Register(name, handler, Schema{Description: description, Parameters: parameters})
}

// SchemaFor reflects the JSON schema of T as a plain object.
func SchemaFor[T any]() (map[string]any, error) {
	reflector := jsonschema.Reflector{DoNotReference: true, ExpandedStruct: true}
	schema := reflector.Reflect(new(T))

	data, err := schema.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}

	var parameters map[string]any
	if err := json.Unmarshal(data, &parameters); err != nil {
		return nil, fmt.Errorf("failed to decode schema: %w", err)
	}
	delete(parameters, "$schema")
	delete(parameters, "$id")
	if _, ok := parameters["properties"]; !ok {
		parameters["properties"] = map[string]any{}
	}
	return parameters, nil
}
