package session

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/danieloquelis/questvoice/core/audio"
	"github.com/danieloquelis/questvoice/core/events"
	"github.com/danieloquelis/questvoice/core/realtime"
)

func (s *Session) handleEvent(ctx context.Context, event *realtime.ServerEvent) {
	s.resync(ctx, event)

	switch event.Type {
	case realtime.EventTypeSessionCreated:
		s.handleSessionCreated(ctx, event)
	case realtime.EventTypeSessionUpdated:
		logger.Debug("session configuration acknowledged")

	case realtime.EventTypePing:
		s.handlePing(ctx, event)

	case realtime.EventTypeError:
		s.handleError(event)

	case realtime.EventTypeInputAudioBufferSpeechStarted:
		s.handleSpeechStarted(ctx)
	case realtime.EventTypeInputAudioBufferSpeechStopped:
		s.handleSpeechStopped(ctx)

	case realtime.EventTypeInputAudioTranscriptionDelta:
		if event.Delta != "" {
			s.bus.Publish(events.NewUserTranscriptSegment(event.ItemID, event.Delta))
		}
	case realtime.EventTypeInputAudioTranscriptionCompleted:
		s.bus.Publish(events.NewUserTranscriptFinal(event.ItemID, event.Transcript))

	case realtime.EventTypeResponseAudioDelta:
		s.handleAudioDelta(event)
	case realtime.EventTypeResponseAudioDone:
		if s.discarded(event) {
			return
		}
		s.setAgentSpeaking(false, false)

	case realtime.EventTypeResponseAudioTranscriptDelta:
		if s.discarded(event) || event.Delta == "" {
			return
		}
		s.agentTranscript.WriteString(event.Delta)
		s.bus.Publish(events.NewAssistantTranscriptSegment(event.ResponseRef(), event.Delta))
	case realtime.EventTypeResponseAudioTranscriptDone:
		if s.discarded(event) {
			return
		}
		transcript := event.Transcript
		if transcript == "" {
			transcript = s.agentTranscript.String()
		}
		s.agentTranscript.Reset()
		s.bus.Publish(events.NewAssistantTranscriptFinal(event.ResponseRef(), transcript))

	case realtime.EventTypeResponseOutputItemAdded:
		s.handleOutputItemAdded(event)
	case realtime.EventTypeResponseFunctionCallArgumentsDelta:
		s.handleArgumentsDelta(event)
	case realtime.EventTypeResponseFunctionCallArgumentsDone:
		s.handleArgumentsDone(event)
	case realtime.EventTypeResponseOutputItemDone:
		s.handleOutputItemDone(ctx, event)
	}
}

func (s *Session) handleSessionCreated(ctx context.Context, event *realtime.ServerEvent) {
	ctx, span := tracer.Start(ctx, "configure session")
	defer span.End()

	sessionID := ""
	if event.Session != nil {
		sessionID = event.Session.ID
	}
	span.SetAttributes(attribute.String("session.id", sessionID))

	if s.ready {
		logger.Warn("duplicate session.created ignored", "session_id", sessionID)
		return
	}

	s.ready = true
	config := s.config.sessionConfig(s.tools.Manifest())
	if err := s.send(ctx, realtime.UpdateSession(config)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	logger.InfoContext(ctx, "session ready", "session_id", sessionID, "tools", len(config.Tools))
	s.bus.Publish(events.NewSessionReady(sessionID))

	if s.capture == nil {
		return
	}
	if err := s.capture.Start(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.WarnContext(ctx, "capture unavailable, continuing receive-only", "error", err)
		s.bus.Publish(events.NewCaptureUnavailable(err))
	}
}

// handlePing answers a server ping after the delay it asks for.
func (s *Session) handlePing(ctx context.Context, event *realtime.ServerEvent) {
	id, delay := event.Ping()
	pong := realtime.Pong(id)
	if delay <= 0 {
		_ = s.send(ctx, pong)
		return
	}

	s.workers.Add(1)
	go func() {
		defer s.workers.Done()

		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		if err := s.conn.Send(ctx, pong); err != nil {
			logger.Warn("failed to send pong", "error", err)
			return
		}
		framesSent.Add(ctx, 1)
	}()
}

func (s *Session) handleError(event *realtime.ServerEvent) {
	code, message := "", ""
	if event.Error != nil {
		code, message = event.Error.Code, event.Error.Message
	}

	if code == realtime.ErrorCodeCommitEmptyBuffer {
		logger.Debug("input buffer was already committed by the server")
		return
	}

	logger.Warn("server error", "code", code, "message", message)
	s.bus.Publish(events.NewServerError(code, message))

	if event.Error != nil && event.Error.EventID != "" && event.Error.EventID == s.requestEventID {
		s.requestEventID = ""
		if s.response == ResponseRequested {
			s.abandonRequest("error:" + code)
		} else if s.cancelledCreates > 0 {
			// The interrupted request will never produce response.created.
			s.cancelledCreates--
		}
	}
}

func (s *Session) handleSpeechStarted(ctx context.Context) {
	s.userSpeaking = true
	s.bus.Publish(events.NewUserSpeechStarted())

	if s.config.DisableBargeIn {
		return
	}
	if s.agentSpeaking || s.response != ResponseIdle || (s.playback != nil && s.playback.Busy()) {
		logger.Debug("user barged in, interrupting agent")
		s.interrupt(ctx, events.CancelByBargeIn)
	}
}

func (s *Session) handleSpeechStopped(ctx context.Context) {
	s.userSpeaking = false
	s.bus.Publish(events.NewUserSpeechEnded())

	_ = s.send(ctx, realtime.CommitInput())
	s.requestResponse(ctx, "speech stopped")
}

func (s *Session) handleAudioDelta(event *realtime.ServerEvent) {
	if s.discarded(event) {
		return
	}

	chunk, err := audio.ChunkFromBase64(event.Delta)
	if err != nil {
		logger.Warn("dropping malformed audio delta", "error", err)
		return
	}

	s.setAgentSpeaking(true, false)
	if s.playback != nil {
		if err := s.playback.Enqueue(chunk); err != nil {
			logger.Warn("failed to queue agent audio", "error", err)
		}
	}
	s.bus.Publish(events.NewAssistantSpeechFrame(chunk))
}

// discarded reports whether event belongs to a response this client already
// cancelled, or arrived while no response is in flight.
func (s *Session) discarded(event *realtime.ServerEvent) bool {
	if ref := event.ResponseRef(); ref != "" {
		if _, ok := s.cancelledResponses[ref]; ok {
			return true
		}
	}
	return s.response == ResponseIdle
}

func (s *Session) setAgentSpeaking(speaking, interrupted bool) {
	if s.agentSpeaking == speaking {
		return
	}
	s.agentSpeaking = speaking
	if speaking {
		s.bus.Publish(events.NewAssistantSpeechStarted())
	} else {
		s.bus.Publish(events.NewAssistantSpeechEnded(interrupted))
	}
}

// requestResponse asks the agent to respond unless a response is already in
// flight or the last request was too recent. Held back requests are not
// retried.
func (s *Session) requestResponse(ctx context.Context, reason string) bool {
	s.expireRequest()
	if blocked := s.responseGuard(); blocked != "" {
		logger.Debug("response request skipped", "trigger", reason, "reason", blocked)
		responseRequestsSkipped.Add(ctx, 1)
		s.bus.Publish(events.NewResponseRequestSkipped(blocked))
		return false
	}

	create := realtime.CreateResponse()
	if err := s.send(ctx, create); err != nil {
		return false
	}
	s.response = ResponseRequested
	s.requestEventID = create.ID()
	s.lastRequest = s.now()
	return true
}

// expireRequest gives up on a response request the server never
// acknowledged.
func (s *Session) expireRequest() {
	if s.response != ResponseRequested || s.now().Sub(s.lastRequest) < s.config.ResponseRequestTimeout {
		return
	}
	s.abandonRequest("timeout")
}

// abandonRequest returns a requested response to idle after the server
// rejected or ignored it.
func (s *Session) abandonRequest(signal string) {
	logger.Info("response request abandoned", "signal", signal)
	s.response = ResponseIdle
	s.requestEventID = ""
	s.bus.Publish(events.NewSessionStateResynced(signal, ""))
}

func (s *Session) responseGuard() string {
	if s.response != ResponseIdle {
		return "response " + s.response.String()
	}
	if !s.lastRequest.IsZero() && s.now().Sub(s.lastRequest) < s.config.ResponseDebounce {
		return "debounce"
	}
	return ""
}

// flushFollowUp issues the response request owed after tool results once
// every tool of the turn has answered and the guard allows it.
func (s *Session) flushFollowUp(ctx context.Context) {
	if !s.pendingFollowUp || s.turnTools > 0 || s.responseGuard() != "" {
		return
	}
	if s.requestResponse(ctx, "tool result") {
		s.pendingFollowUp = false
	}
}

// interrupt cancels the current turn locally and asks the server to stop the
// response in flight. Anything still arriving for that turn is discarded.
func (s *Session) interrupt(ctx context.Context, reason events.CancelReason) {
	active := s.response != ResponseIdle || s.agentSpeaking || (s.playback != nil && s.playback.Busy()) ||
		len(s.pending) > 0 || s.runningTools > 0

	if s.response != ResponseIdle {
		_ = s.send(ctx, realtime.CancelResponse())
		if s.responseID != "" {
			s.cancelledResponses[s.responseID] = struct{}{}
		} else {
			s.cancelledCreates++
		}
	}

	if s.playback != nil {
		if err := s.playback.StopImmediately(); err != nil {
			logger.Warn("failed to stop playback", "error", err)
		}
	}
	s.setAgentSpeaking(false, true)

	s.response = ResponseIdle
	s.responseID = ""
	s.lastRequest = time.Time{}
	s.pendingFollowUp = false
	s.agentTranscript.Reset()
	clear(s.pending)
	s.turnTools = 0
	s.generation++

	if active {
		logger.Info("turn interrupted", "reason", string(reason))
		s.bus.Publish(events.NewTurnCancelled(reason))
	}
}
