package session

import (
	"time"

	"github.com/jinzhu/copier"

	"github.com/danieloquelis/questvoice/core/realtime"
	"github.com/danieloquelis/questvoice/core/tools"
)

const (
	DefaultEndpoint           = "wss://api.openai.com/v1/realtime"
	DefaultModel              = "gpt-4o-realtime-preview"
	DefaultVoice              = "alloy"
	DefaultTranscriptionModel = "whisper-1"

	DefaultKeepaliveInterval      = 20 * time.Second
	DefaultResponseDebounce       = 200 * time.Millisecond
	DefaultResponseRequestTimeout = 3 * time.Second
	DefaultTickInterval           = 20 * time.Millisecond
)

// Config holds what the agent needs to know about the conversation plus the
// session timing knobs. Zero values fall back to the defaults above.
type Config struct {
	Endpoint   string `yaml:"endpoint"`
	Credential string `yaml:"-"`
	Model      string `yaml:"model"`

	Instructions       string  `yaml:"instructions"`
	Voice              string  `yaml:"voice"`
	TranscriptionModel string  `yaml:"transcription_model"`
	Temperature        float64 `yaml:"temperature"`

	// Server VAD tuning. Zero leaves the server default.
	VADThreshold      float64       `yaml:"vad_threshold"`
	VADPrefixPadding  time.Duration `yaml:"vad_prefix_padding"`
	VADSilenceTimeout time.Duration `yaml:"vad_silence_timeout"`

	KeepaliveInterval time.Duration `yaml:"keepalive_interval"`
	ResponseDebounce  time.Duration `yaml:"response_debounce"`
	TickInterval      time.Duration `yaml:"tick_interval"`

	// ResponseRequestTimeout is how long a response request may go without
	// response.created before the session stops waiting for it.
	ResponseRequestTimeout time.Duration `yaml:"response_request_timeout"`

	// DisableBargeIn keeps the agent talking when the user starts speaking
	// over it.
	DisableBargeIn bool `yaml:"disable_barge_in"`
}

func (c Config) withDefaults() Config {
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Voice == "" {
		c.Voice = DefaultVoice
	}
	if c.TranscriptionModel == "" {
		c.TranscriptionModel = DefaultTranscriptionModel
	}
	if c.KeepaliveInterval <= 0 {
		c.KeepaliveInterval = DefaultKeepaliveInterval
	}
	if c.ResponseDebounce <= 0 {
		c.ResponseDebounce = DefaultResponseDebounce
	}
	if c.ResponseRequestTimeout <= 0 {
		c.ResponseRequestTimeout = DefaultResponseRequestTimeout
	}
	if c.TickInterval <= 0 {
		c.TickInterval = DefaultTickInterval
	}
	return c
}

// sessionConfig builds the session.update payload. Responses are always
// requested by the client so the debounce guard is the only trigger.
func (c Config) sessionConfig(manifest []tools.Descriptor) realtime.SessionConfig {
	createResponse := false
	interruptResponse := false

	config := realtime.SessionConfig{
		Modalities:        []string{realtime.ModalityText, realtime.ModalityAudio},
		Instructions:      c.Instructions,
		Voice:             c.Voice,
		InputAudioFormat:  realtime.AudioFormatPCM16,
		OutputAudioFormat: realtime.AudioFormatPCM16,
		InputAudioTranscription: &realtime.InputAudioTranscription{
			Model: c.TranscriptionModel,
		},
		TurnDetection: &realtime.TurnDetection{
			Type:              realtime.VADServerVAD,
			Threshold:         c.VADThreshold,
			PrefixPaddingMs:   int(c.VADPrefixPadding.Milliseconds()),
			SilenceDurationMs: int(c.VADSilenceTimeout.Milliseconds()),
			CreateResponse:    &createResponse,
			InterruptResponse: &interruptResponse,
		},
		Temperature: c.Temperature,
	}

	if len(manifest) > 0 {
		var declared []realtime.Tool
		if err := copier.CopyWithOption(&declared, &manifest, copier.Option{DeepCopy: true}); err != nil {
			logger.Warn("failed to convert tool manifest", "error", err)
		} else {
			config.Tools = declared
			config.ToolChoice = "auto"
		}
	}
	return config
}
