package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danieloquelis/questvoice/core/session"
)

func noEnv(string) (string, bool) { return "", false }

func env(values map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		value, ok := values[name]
		return value, ok
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadMissingDefaultFileUsesDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := load("", noEnv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Session.Endpoint != session.DefaultEndpoint {
		t.Fatalf("expected default endpoint, got %q", cfg.Session.Endpoint)
	}
	if cfg.Audio.Capture != CaptureMiniaudio || cfg.Audio.Playback != PlaybackMiniaudio {
		t.Fatalf("expected miniaudio devices by default, got %+v", cfg.Audio)
	}
	if !cfg.OrchestrationTools {
		t.Fatalf("expected orchestration tools on by default")
	}
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	_, err := load(filepath.Join(t.TempDir(), "absent.yaml"), noEnv)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not exist error, got %v", err)
	}
}

func TestLoadReadsFileOverDefaults(t *testing.T) {
	path := writeConfig(t, `
session:
  instructions: You help build meshes.
  voice: verse
  response_debounce: 350ms
  disable_barge_in: true
audio:
  capture: portaudio
  playback: oto
meshtool:
  enabled: true
  url: ws://mesh.local:9000
  timeout: 5s
`)

	cfg, err := load(path, noEnv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Session.Voice != "verse" || cfg.Session.Instructions != "You help build meshes." {
		t.Fatalf("unexpected session config: %+v", cfg.Session)
	}
	if cfg.Session.ResponseDebounce != 350*time.Millisecond {
		t.Fatalf("expected debounce from file, got %s", cfg.Session.ResponseDebounce)
	}
	if !cfg.Session.DisableBargeIn {
		t.Fatalf("expected barge-in to be disabled")
	}
	if cfg.Session.Model != session.DefaultModel {
		t.Fatalf("expected unset model to keep its default, got %q", cfg.Session.Model)
	}
	if cfg.Audio.Capture != CapturePortaudio || cfg.Audio.Playback != PlaybackOto {
		t.Fatalf("unexpected audio config: %+v", cfg.Audio)
	}
	if cfg.Audio.PlaybackRate != DefaultPlaybackRate {
		t.Fatalf("expected default playback rate, got %d", cfg.Audio.PlaybackRate)
	}
	if cfg.MeshTool.URL != "ws://mesh.local:9000" || cfg.MeshTool.Timeout != 5*time.Second {
		t.Fatalf("unexpected meshtool config: %+v", cfg.MeshTool)
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, `
api_key: from-file
session:
  model: file-model
`)

	cfg, err := load(path, env(map[string]string{
		EnvAPIKey:      "sk-from-env",
		EnvModel:       "env-model",
		EnvEndpoint:    "ws://localhost:8080/realtime",
		EnvVoice:       "  ",
		EnvMeshToolURL: "ws://mesh:1",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIKey != "sk-from-env" {
		t.Fatalf("expected env api key, got %q", cfg.APIKey)
	}
	if cfg.Session.Model != "env-model" || cfg.Session.Endpoint != "ws://localhost:8080/realtime" {
		t.Fatalf("expected env session overrides, got %+v", cfg.Session)
	}
	if cfg.Session.Voice != session.DefaultVoice {
		t.Fatalf("expected blank env value to be ignored, got %q", cfg.Session.Voice)
	}
	if cfg.MeshTool.URL != "ws://mesh:1" {
		t.Fatalf("expected env meshtool url, got %q", cfg.MeshTool.URL)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"endpoint", func(c *Config) { c.Session.Endpoint = "https://api.openai.com" }, "session.endpoint"},
		{"capture", func(c *Config) { c.Audio.Capture = "alsa" }, "audio.capture"},
		{"playback", func(c *Config) { c.Audio.Playback = "pulse" }, "audio.playback"},
		{"playback rate", func(c *Config) { c.Audio.PlaybackRate = 0 }, "audio.playback_rate"},
		{"meshtool url", func(c *Config) { c.MeshTool = MeshToolConfig{Enabled: true, URL: "localhost:8765"} }, "meshtool.url"},
		{"negative interval", func(c *Config) { c.Session.ResponseDebounce = -time.Second }, "intervals"},
		{"negative request timeout", func(c *Config) { c.Session.ResponseRequestTimeout = -time.Second }, "intervals"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error to mention %q, got %v", tt.want, err)
			}
		})
	}

	if err := Default().Validate(); err != nil {
		t.Fatalf("expected defaults to be valid, got %v", err)
	}
}

func TestMeshToolURLOnlyCheckedWhenEnabled(t *testing.T) {
	cfg := Default()
	cfg.MeshTool.URL = "not a url"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected disabled bridge to skip url check, got %v", err)
	}
}

func TestRequireCredential(t *testing.T) {
	cfg := Default()
	if err := cfg.RequireCredential(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected missing key to be rejected, got %v", err)
	}
	cfg.APIKey = "sk-test"
	if err := cfg.RequireCredential(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSessionConfigCarriesCredential(t *testing.T) {
	cfg := Default()
	cfg.APIKey = "sk-long-lived"
	cfg.Session.Instructions = "Be brief."

	config := cfg.SessionConfig("ek-short-lived")
	if config.Credential != "ek-short-lived" {
		t.Fatalf("expected credential to be set, got %q", config.Credential)
	}
	if config.Instructions != "Be brief." {
		t.Fatalf("expected session fields to be kept, got %+v", config)
	}
	if cfg.Session.Credential != "" {
		t.Fatalf("expected loaded config to stay untouched")
	}
}

func TestRedactedYAMLHidesKey(t *testing.T) {
	cfg := Default()
	cfg.APIKey = "sk-abcdefghijklmnop"

	data, err := cfg.Redacted().YAML()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := string(data)
	if strings.Contains(out, "abcdefghijklmnop") {
		t.Fatalf("expected key to be masked, got:\n%s", out)
	}
	if !strings.Contains(out, "sk-****mnop") {
		t.Fatalf("expected masked key, got:\n%s", out)
	}
	if !strings.Contains(out, "response_debounce") {
		t.Fatalf("expected session settings in output, got:\n%s", out)
	}
	if cfg.APIKey != "sk-abcdefghijklmnop" {
		t.Fatalf("expected original config to keep its key")
	}
}
