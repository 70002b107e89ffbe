package session

import (
	"context"

	"github.com/danieloquelis/questvoice/core/events"
	"github.com/danieloquelis/questvoice/core/realtime"
)

// resyncRule corrects the local response state from an authoritative server
// signal. Signals are event types, or "error:<code>" for error events.
type resyncRule struct {
	target ResponseState
	// correction marks signals that mean local bookkeeping was wrong, as
	// opposed to the normal response lifecycle.
	correction bool
}

var resyncRules = map[string]resyncRule{
	realtime.EventTypeResponseCreated:   {target: ResponseActive},
	realtime.EventTypeResponseDone:      {target: ResponseIdle},
	realtime.EventTypeResponseCancelled: {target: ResponseIdle},

	"error:" + realtime.ErrorCodeActiveResponse:  {target: ResponseActive, correction: true},
	"error:" + realtime.ErrorCodeCancelNotActive: {target: ResponseIdle, correction: true},
}

func signalOf(event *realtime.ServerEvent) string {
	if event.Type == realtime.EventTypeError {
		if event.Error == nil || event.Error.Code == "" {
			return ""
		}
		return "error:" + event.Error.Code
	}
	return event.Type
}

func (s *Session) resync(ctx context.Context, event *realtime.ServerEvent) {
	signal := signalOf(event)
	rule, ok := resyncRules[signal]
	if !ok {
		return
	}
	ref := event.ResponseRef()

	switch rule.target {
	case ResponseActive:
		if signal == realtime.EventTypeResponseCreated {
			s.requestEventID = ""
			if s.cancelledCreates > 0 {
				// Created for a request that was interrupted before the
				// server assigned it an id.
				s.cancelledCreates--
				if ref != "" {
					s.cancelledResponses[ref] = struct{}{}
				}
				return
			}
			s.responseID = ref
			s.bus.Publish(events.NewAssistantResponseStarted(ref))
		}

	case ResponseIdle:
		if _, ok := s.cancelledResponses[ref]; ok && ref != "" {
			delete(s.cancelledResponses, ref)
			return
		}
		if ref != "" && s.responseID != "" && ref != s.responseID {
			return
		}
		if signal == "error:"+realtime.ErrorCodeCancelNotActive {
			s.cancelledCreates = 0
		}
		if rule.correction && s.response == ResponseIdle {
			return
		}
		if !rule.correction {
			status := "completed"
			if event.Response != nil && event.Response.Status != "" {
				status = event.Response.Status
			}
			if signal == realtime.EventTypeResponseCancelled {
				status = "cancelled"
			}
			s.bus.Publish(events.NewAssistantResponseFinal(ref, status))
		}
		s.responseID = ""
		s.setAgentSpeaking(false, false)
	}

	if s.response == rule.target {
		return
	}
	if rule.correction {
		logger.Info("resynced response state", "signal", signal, "from", s.response.String(), "to", rule.target.String())
		s.bus.Publish(events.NewSessionStateResynced(signal, ref))
	}
	s.response = rule.target

	if s.response == ResponseIdle {
		s.flushFollowUp(ctx)
	}
}
