// Package realtime holds the JSON wire protocol spoken with the remote
// speech-to-speech agent and the websocket transport carrying it.
package realtime

// Client events.
const (
	EventTypeSessionUpdate          = "session.update"
	EventTypeInputAudioBufferAppend = "input_audio_buffer.append"
	EventTypeInputAudioBufferCommit = "input_audio_buffer.commit"
	EventTypeConversationItemCreate = "conversation.item.create"
	EventTypeResponseCreate         = "response.create"
	EventTypeResponseCancel         = "response.cancel"
	EventTypePong                   = "pong"
)

// Server events.
const (
	EventTypeError = "error"
	EventTypePing  = "ping"

	EventTypeSessionCreated = "session.created"
	EventTypeSessionUpdated = "session.updated"

	EventTypeInputAudioBufferSpeechStarted = "input_audio_buffer.speech_started"
	EventTypeInputAudioBufferSpeechStopped = "input_audio_buffer.speech_stopped"

	EventTypeInputAudioTranscriptionDelta     = "conversation.item.input_audio_transcription.delta"
	EventTypeInputAudioTranscriptionCompleted = "conversation.item.input_audio_transcription.completed"

	EventTypeResponseCreated   = "response.created"
	EventTypeResponseDone      = "response.done"
	EventTypeResponseCancelled = "response.cancelled"

	EventTypeResponseAudioDelta           = "response.audio.delta"
	EventTypeResponseAudioDone            = "response.audio.done"
	EventTypeResponseAudioTranscriptDelta = "response.audio_transcript.delta"
	EventTypeResponseAudioTranscriptDone  = "response.audio_transcript.done"

	EventTypeResponseOutputItemAdded = "response.output_item.added"
	EventTypeResponseOutputItemDone  = "response.output_item.done"

	EventTypeResponseFunctionCallArgumentsDelta = "response.function_call_arguments.delta"
	EventTypeResponseFunctionCallArgumentsDone  = "response.function_call_arguments.done"
)

// aliases maps event names used by newer protocol revisions onto the names
// above.
var aliases = map[string]string{
	"response.output_audio.delta":            EventTypeResponseAudioDelta,
	"response.output_audio.done":             EventTypeResponseAudioDone,
	"response.output_audio_transcript.delta": EventTypeResponseAudioTranscriptDelta,
	"response.output_audio_transcript.done":  EventTypeResponseAudioTranscriptDone,
	"response.canceled":                      EventTypeResponseCancelled,
}

// Error codes with a defined effect on local turn state.
const (
	ErrorCodeActiveResponse    = "conversation_already_has_active_response"
	ErrorCodeCancelNotActive   = "response_cancel_not_active"
	ErrorCodeCommitEmptyBuffer = "input_audio_buffer_commit_empty"
)

const (
	ItemTypeFunctionCall       = "function_call"
	ItemTypeFunctionCallOutput = "function_call_output"
)
