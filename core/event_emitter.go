package orchestration

import "github.com/danieloquelis/questvoice/core/events"

// ToolCall describes the progress of one tool call.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
	Result    string
	Err       string
	Finished  bool
}

func newCallbackEventEmitter(opts OrchestrateOptions) events.Listener {
	return func(event events.Event) {
		switch typedEvent := event.(type) {
		case events.SessionReady:
			if opts.onReady != nil {
				opts.onReady()
			}
		case events.SessionFailed:
			if opts.onFailure != nil {
				opts.onFailure(typedEvent.Err)
			}
		case events.UserAudioFrame:
			if opts.onInputAudio != nil {
				opts.onInputAudio(typedEvent.Audio)
			}
		case events.UserSpeechStarted:
			if opts.onUserSpeaking != nil {
				opts.onUserSpeaking(true)
			}
		case events.UserSpeechEnded:
			if opts.onUserSpeaking != nil {
				opts.onUserSpeaking(false)
			}
		case events.UserTranscriptSegment:
			if opts.onUserTranscriptSegment != nil {
				opts.onUserTranscriptSegment(typedEvent.Segment)
			}
		case events.UserTranscriptFinal:
			if opts.onUserTranscript != nil {
				opts.onUserTranscript(typedEvent.Transcript)
			}
		case events.AssistantSpeechStarted:
			if opts.onAgentSpeaking != nil {
				opts.onAgentSpeaking(true)
			}
		case events.AssistantSpeechEnded:
			if opts.onAgentSpeaking != nil {
				opts.onAgentSpeaking(false)
			}
		case events.AssistantSpeechFrame:
			if opts.onAudio != nil {
				opts.onAudio(typedEvent.Audio)
			}
		case events.AssistantTranscriptSegment:
			if opts.onAgentTranscriptSegment != nil {
				opts.onAgentTranscriptSegment(typedEvent.Segment)
			}
		case events.AssistantTranscriptFinal:
			if opts.onAgentTranscript != nil {
				opts.onAgentTranscript(typedEvent.Transcript)
			}
		case events.ToolCallStarted:
			if opts.onToolCall != nil {
				opts.onToolCall(ToolCall{ID: typedEvent.ID, Name: typedEvent.Name})
			}
		case events.ToolCallCompleted:
			if opts.onToolCall != nil {
				opts.onToolCall(ToolCall{
					ID:        typedEvent.ID,
					Name:      typedEvent.Name,
					Arguments: typedEvent.Arguments,
					Result:    typedEvent.Response,
					Finished:  true,
				})
			}
		case events.ToolCallFailed:
			if opts.onToolCall != nil {
				opts.onToolCall(ToolCall{
					ID:        typedEvent.ID,
					Name:      typedEvent.Name,
					Arguments: typedEvent.Arguments,
					Err:       typedEvent.Error,
					Finished:  true,
				})
			}
		case events.TurnCancelled:
			if opts.onCancellation != nil {
				opts.onCancellation()
			}
		}
	}
}
