package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/danieloquelis/questvoice/core/events"
)

// Listener forwards conversation events to program. Audio frames are not
// shown and are dropped here.
func Listener(program *tea.Program) events.Listener {
	return func(event events.Event) {
		switch event.(type) {
		case events.UserAudioFrame, events.AssistantSpeechFrame:
			return
		}
		program.Send(EventMsg{Event: event})
	}
}

// Run shows the conversation until the user quits, ctx is cancelled or the
// controller finishes.
func Run(ctx context.Context, controller Controller, subscribe func(events.Listener) func(), title string) error {
	program := tea.NewProgram(NewModel(controller, title), tea.WithAltScreen(), tea.WithContext(ctx))

	unsubscribe := subscribe(Listener(program))
	defer unsubscribe()

	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
