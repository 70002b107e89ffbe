package realtime

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/danieloquelis/questvoice/core/audio"
)

// ClientEvent is any event sent to the agent.
type ClientEvent struct {
	Type    string            `json:"type"`
	EventID json.RawMessage   `json:"event_id,omitzero"`
	Audio   string            `json:"audio,omitzero"`
	Session *SessionConfig    `json:"session,omitzero"`
	Item    *ConversationItem `json:"item,omitzero"`
}

// NewEventID generates a unique client event id.
func NewEventID() string {
	return "evt_" + uuid.New().String()[:12]
}

// ID returns the event id as text, without quotes.
func (e ClientEvent) ID() string {
	return strings.Trim(string(e.EventID), `"`)
}

func newClientEvent(eventType string) ClientEvent {
	id, _ := json.Marshal(NewEventID())
	return ClientEvent{Type: eventType, EventID: id}
}

func UpdateSession(config SessionConfig) ClientEvent {
	event := newClientEvent(EventTypeSessionUpdate)
	event.Session = &config
	return event
}

func AppendAudio(chunk audio.Chunk) ClientEvent {
	event := newClientEvent(EventTypeInputAudioBufferAppend)
	event.Audio = chunk.Base64()
	return event
}

func CommitInput() ClientEvent { return newClientEvent(EventTypeInputAudioBufferCommit) }

func CreateResponse() ClientEvent { return newClientEvent(EventTypeResponseCreate) }

func CancelResponse() ClientEvent { return newClientEvent(EventTypeResponseCancel) }

// FunctionCallOutput returns the result of a tool call to the agent.
func FunctionCallOutput(callID, output string) ClientEvent {
	event := newClientEvent(EventTypeConversationItemCreate)
	event.Item = &ConversationItem{
		Type:   ItemTypeFunctionCallOutput,
		CallID: callID,
		Output: output,
	}
	return event
}

// Pong answers a server ping, echoing its correlation id verbatim.
func Pong(eventID json.RawMessage) ClientEvent {
	return ClientEvent{Type: EventTypePong, EventID: eventID}
}
