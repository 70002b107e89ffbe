package tools

import (
	"encoding/json"
	"fmt"
)

// Result is the structured outcome of a dispatch. Error results carry an
// "error" key.
type Result map[string]any

func (r Result) IsError() bool {
	_, ok := r["error"]
	return ok
}

// JSON serializes the result for a function call output item.
func (r Result) JSON() string {
	if r == nil {
		return "{}"
	}
	data, err := json.Marshal(map[string]any(r))
	if err != nil {
		data, _ = json.Marshal(map[string]any{"error": fmt.Sprintf("failed to serialize tool result: %v", err)})
	}
	return string(data)
}

// OutputResult wraps a handler output. Maps are used as is, anything else is
// placed under "result".
func OutputResult(output any) Result {
	switch value := output.(type) {
	case nil:
		return Result{"result": "ok"}
	case Result:
		return value
	case map[string]any:
		return Result(value)
	default:
		return Result{"result": value}
	}
}

func ErrorResult(err error) Result {
	return Result{"error": err.Error()}
}

func notFoundResult(name string, available []string) Result {
	if available == nil {
		available = []string{}
	}
	return Result{
		"error":     ErrNotFound.Error(),
		"tool":      name,
		"available": available,
	}
}
