package events

const (
	// KindAssistantSpeechStarted identifies the agent starting to speak.
	KindAssistantSpeechStarted Kind = "assistant_speech.started"
	// KindAssistantSpeechEnded identifies the agent finishing or being cut off.
	KindAssistantSpeechEnded Kind = "assistant_speech.ended"
	// KindAssistantSpeechFrame identifies synthesized assistant speech audio.
	KindAssistantSpeechFrame Kind = "assistant_speech.frame"
	// KindAssistantTranscriptSegment identifies streamed spoken text.
	KindAssistantTranscriptSegment Kind = "assistant_speech.transcript_segment"
	// KindAssistantTranscriptFinal identifies the full spoken text of a response.
	KindAssistantTranscriptFinal Kind = "assistant_speech.transcript_final"
)

// AssistantSpeechStarted marks the first audio of a response.
type AssistantSpeechStarted struct{ Base }

// NewAssistantSpeechStarted creates an assistant speech started event.
func NewAssistantSpeechStarted() AssistantSpeechStarted {
	return AssistantSpeechStarted{Base: NewBase(KindAssistantSpeechStarted)}
}

// AssistantSpeechEnded marks the end of response audio.
type AssistantSpeechEnded struct {
	Base
	Interrupted bool
}

// NewAssistantSpeechEnded creates an assistant speech ended event.
func NewAssistantSpeechEnded(interrupted bool) AssistantSpeechEnded {
	return AssistantSpeechEnded{Base: NewBase(KindAssistantSpeechEnded), Interrupted: interrupted}
}

// AssistantSpeechFrame carries a synthesized assistant speech audio frame.
type AssistantSpeechFrame struct {
	Base
	Audio []byte
}

// NewAssistantSpeechFrame creates an assistant speech audio frame event.
func NewAssistantSpeechFrame(audio []byte) AssistantSpeechFrame {
	return AssistantSpeechFrame{Base: NewBase(KindAssistantSpeechFrame), Audio: audio}
}

// AssistantTranscriptSegment carries a streamed piece of spoken text.
type AssistantTranscriptSegment struct {
	Base
	ResponseID string
	Segment    string
}

// NewAssistantTranscriptSegment creates an assistant transcript segment event.
func NewAssistantTranscriptSegment(responseID, segment string) AssistantTranscriptSegment {
	return AssistantTranscriptSegment{Base: NewBase(KindAssistantTranscriptSegment), ResponseID: responseID, Segment: segment}
}

// AssistantTranscriptFinal carries the full spoken text of a response.
type AssistantTranscriptFinal struct {
	Base
	ResponseID string
	Transcript string
}

// NewAssistantTranscriptFinal creates an assistant transcript final event.
func NewAssistantTranscriptFinal(responseID, transcript string) AssistantTranscriptFinal {
	return AssistantTranscriptFinal{Base: NewBase(KindAssistantTranscriptFinal), ResponseID: responseID, Transcript: transcript}
}
