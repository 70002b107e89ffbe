package orchestration

import (
	"github.com/danieloquelis/questvoice/core/audio/capture"
	"github.com/danieloquelis/questvoice/core/audio/vad"
	"github.com/danieloquelis/questvoice/core/playback"
	"github.com/danieloquelis/questvoice/core/session"
	"github.com/danieloquelis/questvoice/core/tools"
)

type OrchestratorOption func(*Orchestrator)

// WithSessionConfig replaces the whole session configuration. Options applied
// after it refine individual fields.
func WithSessionConfig(config session.Config) OrchestratorOption {
	return func(o *Orchestrator) { o.config = config }
}

func WithEndpoint(endpoint string) OrchestratorOption {
	return func(o *Orchestrator) { o.config.Endpoint = endpoint }
}

func WithCredential(credential string) OrchestratorOption {
	return func(o *Orchestrator) { o.config.Credential = credential }
}

func WithModel(model string) OrchestratorOption {
	return func(o *Orchestrator) { o.config.Model = model }
}

// WithInstructions sets the system prompt of the agent.
func WithInstructions(instructions string) OrchestratorOption {
	return func(o *Orchestrator) { o.config.Instructions = instructions }
}

func WithVoice(voice string) OrchestratorOption {
	return func(o *Orchestrator) { o.config.Voice = voice }
}

// WithDialer replaces how the agent connection is opened.
func WithDialer(dialer session.Dialer) OrchestratorOption {
	return func(o *Orchestrator) { o.dialer = dialer }
}

// WithCaptureDevice sets the microphone. Without one the conversation is
// receive-only.
func WithCaptureDevice(device capture.Device, opts ...capture.SourceOption) OrchestratorOption {
	return func(o *Orchestrator) {
		o.captureDevice = device
		o.captureOptions = opts
	}
}

// WithSilenceGate stops streaming microphone audio once the input has stayed
// silent for a while.
func WithSilenceGate(opts ...vad.GateOption) OrchestratorOption {
	return func(o *Orchestrator) {
		o.captureOptions = append(o.captureOptions, capture.WithSilenceGate(vad.NewSilenceGate(opts...)))
	}
}

// WithPlaybackSink sets where agent speech is played.
func WithPlaybackSink(sink playback.Sink, opts ...playback.QueueOption) OrchestratorOption {
	return func(o *Orchestrator) {
		o.sink = sink
		o.playbackOptions = opts
	}
}

// WithTools sets the registry offered to the agent.
func WithTools(registry *tools.Registry) OrchestratorOption {
	return func(o *Orchestrator) {
		if registry != nil {
			o.tools = registry
		}
	}
}

// WithOrchestrationTools lets the agent mute the microphone and its own
// voice.
func WithOrchestrationTools() OrchestratorOption {
	return func(o *Orchestrator) { o.withOrchestrationTools = true }
}

type OrchestrateOptions struct {
	onReady                  func()
	onUserSpeaking           func(isSpeaking bool)
	onAgentSpeaking          func(isSpeaking bool)
	onUserTranscript         func(transcript string)
	onUserTranscriptSegment  func(segment string)
	onAgentTranscript        func(transcript string)
	onAgentTranscriptSegment func(segment string)
	onToolCall               func(call ToolCall)
	onCancellation           func()
	onFailure                func(err error)
	onInputAudio             func(audio []byte)
	onAudio                  func(audio []byte)
}

type OrchestrateOption func(*OrchestrateOptions)

// WithReadyCallback is called once the agent acknowledged the session and
// audio starts flowing.
func WithReadyCallback(callback func()) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onReady = callback }
}

// WithUserSpeakingCallback reports speech activity detected by the agent.
func WithUserSpeakingCallback(callback func(isSpeaking bool)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onUserSpeaking = callback }
}

// WithAgentSpeakingCallback reports when agent speech starts and stops
// streaming in.
func WithAgentSpeakingCallback(callback func(isSpeaking bool)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onAgentSpeaking = callback }
}

// WithUserTranscriptCallback receives the final transcript of each user
// utterance.
func WithUserTranscriptCallback(callback func(transcript string)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onUserTranscript = callback }
}

func WithUserTranscriptSegmentCallback(callback func(segment string)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onUserTranscriptSegment = callback }
}

// WithAgentTranscriptCallback receives the full text of each agent response.
func WithAgentTranscriptCallback(callback func(transcript string)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onAgentTranscript = callback }
}

// WithAgentTranscriptSegmentCallback receives agent text as it streams in.
func WithAgentTranscriptSegmentCallback(callback func(segment string)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onAgentTranscriptSegment = callback }
}

// WithToolCallCallback follows tool calls from announcement to result, e.g.
// to show a thinking indicator.
func WithToolCallCallback(callback func(call ToolCall)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onToolCall = callback }
}

func WithCancellationCallback(callback func()) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onCancellation = callback }
}

// WithFailureCallback is called when the connection to the agent could not
// be established or was lost. It is the only failure the host is told about.
func WithFailureCallback(callback func(err error)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onFailure = callback }
}

// WithInputAudioCallback receives every microphone chunk sent to the agent.
//
// The callback runs inline on the session loop and should not block.
func WithInputAudioCallback(callback func(audio []byte)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onInputAudio = callback }
}

// WithAudioCallback receives agent audio as it arrives.
func WithAudioCallback(callback func(audio []byte)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onAudio = callback }
}
