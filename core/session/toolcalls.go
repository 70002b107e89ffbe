package session

import (
	"context"

	"github.com/danieloquelis/questvoice/core/events"
	"github.com/danieloquelis/questvoice/core/realtime"
	"github.com/danieloquelis/questvoice/core/tools"
)

func (s *Session) handleOutputItemAdded(event *realtime.ServerEvent) {
	call := event.FunctionCall()
	if call == nil || s.discarded(event) {
		return
	}
	if call.CallID == "" {
		logger.Warn("function call announced without call_id", "name", call.Name)
		return
	}

	s.pending[call.CallID] = &pendingCall{name: call.Name}
	s.bus.Publish(events.NewToolCallStarted(call.CallID, call.Name))
}

func (s *Session) handleArgumentsDelta(event *realtime.ServerEvent) {
	if s.discarded(event) {
		return
	}
	call, ok := s.pending[event.CallID]
	if !ok {
		logger.Debug("arguments for unknown call dropped", "call_id", event.CallID)
		return
	}
	call.arguments.WriteString(event.Delta)
}

// handleArgumentsDone only fills in the arguments when no fragments were
// streamed. Dispatch waits for the output item to complete.
func (s *Session) handleArgumentsDone(event *realtime.ServerEvent) {
	if s.discarded(event) {
		return
	}
	call, ok := s.pending[event.CallID]
	if !ok {
		return
	}
	if call.name == "" {
		call.name = event.Name
	}
	if call.arguments.Len() == 0 && event.Arguments != "" {
		call.arguments.WriteString(event.Arguments)
	}
}

func (s *Session) handleOutputItemDone(ctx context.Context, event *realtime.ServerEvent) {
	item := event.FunctionCall()
	if item == nil || s.discarded(event) {
		return
	}

	call, ok := s.pending[item.CallID]
	delete(s.pending, item.CallID)

	name, arguments := item.Name, item.Arguments
	if ok {
		if call.name != "" {
			name = call.name
		}
		if call.arguments.Len() > 0 {
			arguments = call.arguments.String()
		}
	}

	s.dispatch(ctx, item.CallID, name, arguments)
}

// dispatch runs the tool off the loop. The result is handed back through
// toolResults tagged with the current turn so results of a cancelled turn
// can be dropped.
func (s *Session) dispatch(ctx context.Context, callID, name, arguments string) {
	generation := s.generation
	s.runningTools++
	s.turnTools++

	s.workers.Add(1)
	go func() {
		defer s.workers.Done()

		args, err := tools.ParseArguments(arguments)
		if err != nil {
			logger.Warn("tool arguments unreadable, using empty object", "tool", name, "call_id", callID, "error", err)
		}
		result := s.tools.Dispatch(ctx, name, args)

		select {
		case <-ctx.Done():
		case s.toolResults <- toolResult{
			generation: generation,
			callID:     callID,
			name:       name,
			arguments:  arguments,
			result:     result,
		}:
		}
	}()
}

func (s *Session) handleToolResult(ctx context.Context, result toolResult) {
	if s.runningTools > 0 {
		s.runningTools--
	}
	if result.generation != s.generation {
		logger.Debug("discarding tool result from cancelled turn", "tool", result.name, "call_id", result.callID)
		return
	}
	if s.turnTools > 0 {
		s.turnTools--
	}

	output := result.result.JSON()
	if err := s.send(ctx, realtime.FunctionCallOutput(result.callID, output)); err != nil {
		return
	}

	if result.result.IsError() {
		message, _ := result.result["error"].(string)
		s.bus.Publish(events.NewToolCallFailed(result.callID, result.name, result.arguments, message))
	} else {
		s.bus.Publish(events.NewToolCallCompleted(result.callID, result.name, result.arguments, output))
	}

	s.pendingFollowUp = true
	s.flushFollowUp(ctx)
}
