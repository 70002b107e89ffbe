package orchestration

import (
	"context"
	"errors"

	"github.com/danieloquelis/questvoice/core/tools"
)

type microphoneControl struct {
	IsListening bool `json:"is_listening" jsonschema:"description=Whether the microphone should be listening"`
}

type speakingControl struct {
	IsSpeaking bool `json:"is_speaking" jsonschema:"description=Whether to speak or not"`
}

func registerOrchestrationTools(registry *tools.Registry, o *Orchestrator) error {
	return errors.Join(
		tools.RegisterFunc(registry, "microphone_control",
			"Turn the microphone on or off, might be referred to as 'listening'",
			func(_ context.Context, params microphoneControl) (any, error) {
				o.SetMicrophoneMuted(!params.IsListening)
				return "Success. Respond with a very short phrase", nil
			}),
		tools.RegisterFunc(registry, "speaking_control",
			"Turn off agent's speaking ability. Might be referred to as 'muting'",
			func(_ context.Context, params speakingControl) (any, error) {
				o.SetSpeaking(params.IsSpeaking)
				return "Success. Respond with a very short phrase", nil
			}),
	)
}
