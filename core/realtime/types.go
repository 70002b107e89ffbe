package realtime

import (
	"encoding/json"
	"strings"
	"time"
)

const (
	AudioFormatPCM16 = "pcm16"

	VADServerVAD = "server_vad"

	ModalityText  = "text"
	ModalityAudio = "audio"
)

// SessionConfig is sent with session.update once the server has created the
// session.
type SessionConfig struct {
	Modalities              []string                 `json:"modalities,omitzero"`
	Instructions            string                   `json:"instructions,omitzero"`
	Voice                   string                   `json:"voice,omitzero"`
	InputAudioFormat        string                   `json:"input_audio_format,omitzero"`
	OutputAudioFormat       string                   `json:"output_audio_format,omitzero"`
	InputAudioTranscription *InputAudioTranscription `json:"input_audio_transcription,omitzero"`
	TurnDetection           *TurnDetection           `json:"turn_detection,omitzero"`
	Tools                   []Tool                   `json:"tools,omitzero"`
	ToolChoice              string                   `json:"tool_choice,omitzero"`
	Temperature             float64                  `json:"temperature,omitzero"`
}

type InputAudioTranscription struct {
	Model string `json:"model"`
}

type TurnDetection struct {
	Type              string  `json:"type"`
	Threshold         float64 `json:"threshold,omitzero"`
	PrefixPaddingMs   int     `json:"prefix_padding_ms,omitzero"`
	SilenceDurationMs int     `json:"silence_duration_ms,omitzero"`
	CreateResponse    *bool   `json:"create_response,omitzero"`
	InterruptResponse *bool   `json:"interrupt_response,omitzero"`
}

// Tool declares one function the agent may call.
type Tool struct {
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitzero"`
	Parameters  map[string]any `json:"parameters"`
}

type ConversationItem struct {
	ID        string `json:"id,omitzero"`
	Type      string `json:"type"`
	Status    string `json:"status,omitzero"`
	Role      string `json:"role,omitzero"`
	Name      string `json:"name,omitzero"`
	CallID    string `json:"call_id,omitzero"`
	Arguments string `json:"arguments,omitzero"`
	Output    string `json:"output,omitzero"`
}

type SessionResource struct {
	ID    string `json:"id,omitzero"`
	Model string `json:"model,omitzero"`
	Voice string `json:"voice,omitzero"`
}

type ResponseResource struct {
	ID     string `json:"id,omitzero"`
	Status string `json:"status,omitzero"`
}

// EventError is the payload of an error event.
type EventError struct {
	Type    string `json:"type,omitzero"`
	Code    string `json:"code,omitzero"`
	Message string `json:"message,omitzero"`
	Param   string `json:"param,omitzero"`
	EventID string `json:"event_id,omitzero"`
}

type PingPayload struct {
	EventID json.RawMessage `json:"event_id,omitzero"`
	PingMs  int             `json:"ping_ms,omitzero"`
}

// ServerEvent is any event received from the agent. Only the fields relevant
// to the event's type are set.
type ServerEvent struct {
	Type string `json:"type"`
	// RawEventID is kept raw because ping correlation ids may be numeric.
	RawEventID json.RawMessage `json:"event_id,omitzero"`

	Session  *SessionResource  `json:"session,omitzero"`
	Response *ResponseResource `json:"response,omitzero"`
	Item     *ConversationItem `json:"item,omitzero"`
	Error    *EventError       `json:"error,omitzero"`

	ResponseID string `json:"response_id,omitzero"`
	ItemID     string `json:"item_id,omitzero"`
	CallID     string `json:"call_id,omitzero"`
	Name       string `json:"name,omitzero"`
	Arguments  string `json:"arguments,omitzero"`

	Delta      string `json:"delta,omitzero"`
	Transcript string `json:"transcript,omitzero"`

	PingMs    int          `json:"ping_ms,omitzero"`
	PingEvent *PingPayload `json:"ping_event,omitzero"`
}

// ParseServerEvent decodes one inbound frame, normalizing event type aliases.
func ParseServerEvent(data []byte) (*ServerEvent, error) {
	var event ServerEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	if event.Type == "" {
		return nil, errMissingType
	}
	if canonical, ok := aliases[event.Type]; ok {
		event.Type = canonical
	}
	return &event, nil
}

// EventID returns the event id as text, without quotes.
func (e *ServerEvent) EventID() string {
	return strings.Trim(string(e.RawEventID), `"`)
}

// ResponseRef returns the id of the response this event belongs to.
func (e *ServerEvent) ResponseRef() string {
	if e.ResponseID != "" {
		return e.ResponseID
	}
	if e.Response != nil {
		return e.Response.ID
	}
	return ""
}

// Ping returns the correlation id to echo and the delay to wait before
// answering. Both flat and nested ping payloads are accepted.
func (e *ServerEvent) Ping() (json.RawMessage, time.Duration) {
	if e.PingEvent != nil {
		return e.PingEvent.EventID, time.Duration(e.PingEvent.PingMs) * time.Millisecond
	}
	return e.RawEventID, time.Duration(e.PingMs) * time.Millisecond
}

// FunctionCall returns the function call item carried by an output item
// event, or nil.
func (e *ServerEvent) FunctionCall() *ConversationItem {
	if e.Item == nil || e.Item.Type != ItemTypeFunctionCall {
		return nil
	}
	return e.Item
}
