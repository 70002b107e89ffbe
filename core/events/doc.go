// Package events defines the typed voice session event contract.
//
// Event kinds are grouped by receiver-facing namespaces:
//
//   - session.*
//   - user_input.*
//   - assistant_response.*
//   - assistant_speech.*
//   - tool_call.*
//   - turn_state.*
//
// Semantics used across the package:
//
//   - Frame: binary audio frame/chunk payload.
//   - Segment: append-only text piece emitted in stream order.
//   - Final: terminal immutable text/state for the current stream/turn phase.
//   - Ended: lifecycle boundary indicating stream completion.
//
// session events
//
//   - SessionStateChanged (session.state_changed): connection state moved.
//   - SessionReady (session.ready): server acknowledged the session and the
//     configuration was sent; audio may flow.
//   - SessionFailed (session.failed): connection could not be established or
//     was lost.
//   - ServerError (session.server_error): error event reported by the agent.
//   - CaptureUnavailable (session.capture_unavailable): microphone could not
//     start; the session continues receive-only.
//   - PlaybackUnavailable (session.playback_unavailable): agent audio could not
//     be played.
//   - ResponseRequestSkipped (session.response_request_skipped): a response
//     request was held back by a guard.
//   - SessionStateResynced (session.state_resynced): local turn state was
//     corrected from a server signal.
//
// user_input events
//
//   - UserAudioFrame (user_input.audio_frame): captured chunk sent to the agent.
//   - UserSpeechStarted (user_input.speech_started): speech activity began.
//   - UserSpeechEnded (user_input.speech_ended): speech activity ended.
//   - UserTranscriptSegment (user_input.transcript_segment): streamed transcript
//     piece.
//   - UserTranscriptFinal (user_input.transcript_final): terminal full
//     transcript for the utterance.
//
// assistant_response events
//
//   - AssistantResponseStarted (assistant_response.started): response began.
//   - AssistantResponseFinal (assistant_response.final): response completed or
//     was cancelled.
//
// assistant_speech events
//
//   - AssistantSpeechStarted (assistant_speech.started): first audio of a
//     response arrived.
//   - AssistantSpeechFrame (assistant_speech.frame): synthesized speech audio
//     frame.
//   - AssistantSpeechEnded (assistant_speech.ended): response audio ended or
//     was cut off.
//   - AssistantTranscriptSegment (assistant_speech.transcript_segment): streamed
//     spoken text.
//   - AssistantTranscriptFinal (assistant_speech.transcript_final): full spoken
//     text of the response.
//
// tool_call events
//
//   - ToolCallStarted (tool_call.started): the agent announced a function call.
//   - ToolCallCompleted (tool_call.completed): tool execution completed.
//   - ToolCallFailed (tool_call.failed): tool execution failed.
//
// turn_state events
//
//   - TurnCancelled (turn_state.cancelled): current turn was cancelled, by the
//     host or by the user talking over the agent.
package events
