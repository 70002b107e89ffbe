package events

const (
	// KindAssistantResponseStarted identifies the server starting a response.
	KindAssistantResponseStarted Kind = "assistant_response.started"
	// KindAssistantResponseFinal identifies response completion or cancellation.
	KindAssistantResponseFinal Kind = "assistant_response.final"
)

// AssistantResponseStarted marks the start of a response.
type AssistantResponseStarted struct {
	Base
	ResponseID string
}

// NewAssistantResponseStarted creates an assistant response started event.
func NewAssistantResponseStarted(responseID string) AssistantResponseStarted {
	return AssistantResponseStarted{Base: NewBase(KindAssistantResponseStarted), ResponseID: responseID}
}

// AssistantResponseFinal marks the end of a response. Status is the server
// reported status, e.g. "completed" or "cancelled".
type AssistantResponseFinal struct {
	Base
	ResponseID string
	Status     string
}

// NewAssistantResponseFinal creates an assistant response final event.
func NewAssistantResponseFinal(responseID, status string) AssistantResponseFinal {
	return AssistantResponseFinal{Base: NewBase(KindAssistantResponseFinal), ResponseID: responseID, Status: status}
}
