package orchestration

import (
	"fmt"

	"github.com/danieloquelis/questvoice/core/events"
)

// panicSafeListener keeps a misbehaving host callback from taking down the
// session loop it runs on.
func panicSafeListener(name string, listener events.Listener) events.Listener {
	if listener == nil {
		return nil
	}
	return func(event events.Event) {
		defer func() {
			if recovered := recover(); recovered != nil {
				err := fmt.Errorf("%s listener panicked on %s: %v", name, event.Kind(), recovered)
				logger.Error("listener panicked", "error", err)
			}
		}()
		listener(event)
	}
}
