// Package config loads the questvoice command line configuration from a YAML
// file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/danieloquelis/questvoice/core/meshtool"
	"github.com/danieloquelis/questvoice/core/session"
)

const (
	CaptureMiniaudio  = "miniaudio"
	CapturePortaudio  = "portaudio"
	PlaybackMiniaudio = "miniaudio"
	PlaybackOto       = "oto"
	DeviceNone        = "none"

	DefaultAPIBaseURL       = "https://api.openai.com"
	DefaultPlaybackRate     = 24000
	DefaultGateThresholdDB  = -50
	DefaultGateMinSilence   = 2 * time.Second
	DefaultCaptureBufferLen = 512
)

var ErrInvalid = errors.New("invalid configuration")

// Environment variables read on top of the config file.
const (
	EnvAPIKey      = "OPENAI_API_KEY"
	EnvEndpoint    = "QUESTVOICE_ENDPOINT"
	EnvModel       = "QUESTVOICE_MODEL"
	EnvVoice       = "QUESTVOICE_VOICE"
	EnvMeshToolURL = "MESHTOOL_URL"
)

type Config struct {
	// APIKey is masked by Redacted before the config is printed.
	APIKey string `yaml:"api_key,omitempty"`

	// EphemeralKey exchanges APIKey for a short lived credential before
	// connecting.
	EphemeralKey bool   `yaml:"ephemeral_key"`
	APIBaseURL   string `yaml:"api_base_url"`

	Session  session.Config `yaml:"session"`
	Audio    AudioConfig    `yaml:"audio"`
	MeshTool MeshToolConfig `yaml:"meshtool"`

	OrchestrationTools bool   `yaml:"orchestration_tools"`
	LogFile            string `yaml:"log_file"`
}

type AudioConfig struct {
	Capture  string `yaml:"capture"`
	Playback string `yaml:"playback"`

	// PlaybackRate is the output device rate. Agent audio is resampled to it.
	PlaybackRate int `yaml:"playback_rate"`

	// CaptureBuffer is the frames per portaudio read.
	CaptureBuffer int `yaml:"capture_buffer"`

	SilenceGate     bool          `yaml:"silence_gate"`
	GateThresholdDB float64       `yaml:"gate_threshold_db"`
	GateMinSilence  time.Duration `yaml:"gate_min_silence"`
}

type MeshToolConfig struct {
	Enabled bool          `yaml:"enabled"`
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

func Default() *Config {
	return &Config{
		APIBaseURL: DefaultAPIBaseURL,
		Session: session.Config{
			Endpoint: session.DefaultEndpoint,
			Model:    session.DefaultModel,
			Voice:    session.DefaultVoice,
		},
		Audio: AudioConfig{
			Capture:         CaptureMiniaudio,
			Playback:        PlaybackMiniaudio,
			PlaybackRate:    DefaultPlaybackRate,
			CaptureBuffer:   DefaultCaptureBufferLen,
			GateThresholdDB: DefaultGateThresholdDB,
			GateMinSilence:  DefaultGateMinSilence,
		},
		MeshTool: MeshToolConfig{
			URL:     meshtool.DefaultURL,
			Timeout: meshtool.DefaultTimeout,
		},
		OrchestrationTools: true,
	}
}

// DefaultPath is config.yaml under the user config directory
// ($XDG_CONFIG_HOME/questvoice on Linux).
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".questvoice", "config.yaml")
	}
	return filepath.Join(dir, "questvoice", "config.yaml")
}

// Load reads path over the defaults and applies environment overrides. An
// empty path reads DefaultPath, which may be missing.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookupEnv func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnv(lookupEnv)
	cfg.APIKey = os.ExpandEnv(cfg.APIKey)
	cfg.LogFile = expandHome(cfg.LogFile)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookupEnv func(string) (string, bool)) {
	for name, target := range map[string]*string{
		EnvAPIKey:      &c.APIKey,
		EnvEndpoint:    &c.Session.Endpoint,
		EnvModel:       &c.Session.Model,
		EnvVoice:       &c.Session.Voice,
		EnvMeshToolURL: &c.MeshTool.URL,
	} {
		if value, ok := lookupEnv(name); ok && strings.TrimSpace(value) != "" {
			*target = strings.TrimSpace(value)
		}
	}
}

// Validate checks the values a run depends on. The API key is checked
// separately by RequireCredential so the config can be inspected without one.
func (c *Config) Validate() error {
	var errs []error

	if !isWebSocketURL(c.Session.Endpoint) {
		errs = append(errs, fmt.Errorf("session.endpoint %q is not a ws:// or wss:// URL", c.Session.Endpoint))
	}
	switch c.Audio.Capture {
	case CaptureMiniaudio, CapturePortaudio, DeviceNone:
	default:
		errs = append(errs, fmt.Errorf("audio.capture %q is not one of miniaudio, portaudio, none", c.Audio.Capture))
	}
	switch c.Audio.Playback {
	case PlaybackMiniaudio, PlaybackOto, DeviceNone:
	default:
		errs = append(errs, fmt.Errorf("audio.playback %q is not one of miniaudio, oto, none", c.Audio.Playback))
	}
	if c.Audio.PlaybackRate <= 0 {
		errs = append(errs, fmt.Errorf("audio.playback_rate must be positive"))
	}
	if c.MeshTool.Enabled && !isWebSocketURL(c.MeshTool.URL) {
		errs = append(errs, fmt.Errorf("meshtool.url %q is not a ws:// or wss:// URL", c.MeshTool.URL))
	}
	if c.Session.ResponseDebounce < 0 || c.Session.KeepaliveInterval < 0 || c.Session.TickInterval < 0 ||
		c.Session.ResponseRequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("session intervals must not be negative"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

func (c *Config) RequireCredential() error {
	if c.APIKey == "" {
		return fmt.Errorf("%w: no API key, set %s or api_key", ErrInvalid, EnvAPIKey)
	}
	return nil
}

// SessionConfig is the session configuration with the given credential.
func (c *Config) SessionConfig(credential string) session.Config {
	config := c.Session
	config.Credential = credential
	return config
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() *Config {
	redacted := *c
	if redacted.APIKey != "" {
		redacted.APIKey = mask(redacted.APIKey)
	}
	return &redacted
}

func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

func mask(secret string) string {
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:3] + "****" + secret[len(secret)-4:]
}

func isWebSocketURL(url string) bool {
	return strings.HasPrefix(url, "ws://") || strings.HasPrefix(url, "wss://")
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
