package events

const (
	// KindToolCallStarted identifies a tool call announced by the agent.
	KindToolCallStarted Kind = "tool_call.started"
	// KindToolCallCompleted identifies successful tool call completion.
	KindToolCallCompleted Kind = "tool_call.completed"
	// KindToolCallFailed identifies tool call failure.
	KindToolCallFailed Kind = "tool_call.failed"
)

// ToolCallStarted marks a function call announced by the agent. Arguments
// are still streaming at this point.
type ToolCallStarted struct {
	Base
	ID   string
	Name string
}

// NewToolCallStarted creates a tool call started event.
func NewToolCallStarted(id, name string) ToolCallStarted {
	return ToolCallStarted{Base: NewBase(KindToolCallStarted), ID: id, Name: name}
}

// ToolCallCompleted marks successful tool execution.
type ToolCallCompleted struct {
	Base
	ID        string
	Name      string
	Arguments string
	Response  string
}

// NewToolCallCompleted creates a tool call completed event.
func NewToolCallCompleted(id, name, arguments, response string) ToolCallCompleted {
	return ToolCallCompleted{Base: NewBase(KindToolCallCompleted), ID: id, Name: name, Arguments: arguments, Response: response}
}

// ToolCallFailed marks failed tool execution. The failure was still reported
// back to the agent.
type ToolCallFailed struct {
	Base
	ID        string
	Name      string
	Arguments string
	Error     string
}

// NewToolCallFailed creates a tool call failed event.
func NewToolCallFailed(id, name, arguments, err string) ToolCallFailed {
	return ToolCallFailed{Base: NewBase(KindToolCallFailed), ID: id, Name: name, Arguments: arguments, Error: err}
}
