package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	orchestration "github.com/danieloquelis/questvoice/core"
	"github.com/danieloquelis/questvoice/core/audio/miniaudio"
	"github.com/danieloquelis/questvoice/core/audio/otoplayer"
	"github.com/danieloquelis/questvoice/core/audio/portaudio"
	"github.com/danieloquelis/questvoice/core/audio/vad"
	"github.com/danieloquelis/questvoice/core/realtime"
	"github.com/danieloquelis/questvoice/internal/config"
	"github.com/danieloquelis/questvoice/internal/telemetry"
	"github.com/danieloquelis/questvoice/internal/tui"
)

var (
	headless     bool
	captureFlag  string
	playbackFlag string
	meshToolFlag bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start a conversation",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := globalConfig
		if cmd.Flags().Changed("capture") {
			cfg.Audio.Capture = captureFlag
		}
		if cmd.Flags().Changed("playback") {
			cfg.Audio.Playback = playbackFlag
		}
		if cmd.Flags().Changed("meshtool") {
			cfg.MeshTool.Enabled = meshToolFlag
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := cfg.RequireCredential(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runConversation(ctx, cmd, cfg)
	},
}

func init() {
	runCmd.Flags().BoolVar(&headless, "headless", false, "print transcripts instead of showing the terminal UI")
	runCmd.Flags().StringVar(&captureFlag, "capture", "", "microphone backend: miniaudio, portaudio or none")
	runCmd.Flags().StringVar(&playbackFlag, "playback", "", "speaker backend: miniaudio, oto or none")
	runCmd.Flags().BoolVar(&meshToolFlag, "meshtool", false, "offer the MeshTool commands to the agent")
}

func runConversation(ctx context.Context, cmd *cobra.Command, cfg *config.Config) error {
	runID := uuid.NewString()

	logOptions := []telemetry.Option{telemetry.WithDebug(debug)}
	if !headless || cfg.LogFile != "" {
		logOptions = append(logOptions, telemetry.WithFile(logPath(cfg)))
	}
	shutdownLogs, err := telemetry.Setup(logOptions...)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = shutdownLogs(shutdownCtx)
	}()
	logger.InfoContext(ctx, "starting conversation", "run_id", runID, "model", cfg.Session.Model)

	credential, err := resolveCredential(ctx, cfg)
	if err != nil {
		return err
	}

	registry, closeTools, err := buildTools(cfg)
	if err != nil {
		return err
	}
	defer closeTools()

	opts := append(
		orchestratorToolOptions(cfg, registry),
		orchestration.WithSessionConfig(cfg.SessionConfig(credential)),
	)
	audio, err := openDevices(cfg)
	if err != nil {
		return err
	}
	defer audio.close()
	opts = append(opts, audio.options...)

	orchestrator := orchestration.NewOrchestrator(opts...)

	if headless {
		return runHeadless(ctx, cmd, orchestrator)
	}

	if err := orchestrator.Start(ctx); err != nil {
		return fmt.Errorf("failed to start conversation: %w", err)
	}
	defer orchestrator.Shutdown()

	return tui.Run(ctx, orchestrator, orchestrator.Subscribe, fmt.Sprintf("%s · %s", appName, cfg.Session.Voice))
}

func runHeadless(ctx context.Context, cmd *cobra.Command, orchestrator *orchestration.Orchestrator) error {
	out := cmd.OutOrStdout()

	err := orchestrator.Start(ctx,
		orchestration.WithReadyCallback(func() {
			fmt.Fprintln(out, "* connected, start talking")
		}),
		orchestration.WithUserTranscriptCallback(func(transcript string) {
			fmt.Fprintf(out, "you:   %s\n", transcript)
		}),
		orchestration.WithAgentTranscriptCallback(func(transcript string) {
			fmt.Fprintf(out, "agent: %s\n", transcript)
		}),
		orchestration.WithToolCallCallback(func(call orchestration.ToolCall) {
			switch {
			case !call.Finished:
			case call.Err != "":
				fmt.Fprintf(out, "tool:  %s failed: %s\n", call.Name, call.Err)
			default:
				fmt.Fprintf(out, "tool:  %s %s\n", call.Name, call.Arguments)
			}
		}),
		orchestration.WithCancellationCallback(func() {
			fmt.Fprintln(out, "* interrupted")
		}),
		orchestration.WithFailureCallback(func(err error) {
			fmt.Fprintf(out, "* connection lost: %v\n", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to start conversation: %w", err)
	}
	defer orchestrator.Shutdown()

	select {
	case <-ctx.Done():
	case <-orchestrator.Done():
	}
	return nil
}

// resolveCredential returns the API key, or a short lived key minted from it
// when ephemeral keys are enabled.
func resolveCredential(ctx context.Context, cfg *config.Config) (string, error) {
	if !cfg.EphemeralKey {
		return cfg.APIKey, nil
	}

	key, err := realtime.FetchEphemeralKey(ctx, cfg.APIBaseURL, cfg.APIKey, cfg.Session.Model, cfg.Session.Voice)
	if err != nil {
		return "", fmt.Errorf("failed to obtain ephemeral key: %w", err)
	}
	logger.InfoContext(ctx, "using ephemeral key", "expires_at", key.ExpiresAt)
	return key.Value, nil
}

type devices struct {
	options []orchestration.OrchestratorOption
	closers []func()
}

func (d *devices) close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

// openDevices picks the capture and playback backends. The miniaudio context
// is shared when both sides use it.
func openDevices(cfg *config.Config) (*devices, error) {
	d := &devices{}

	var client *miniaudio.Client
	miniaudioClient := func() (*miniaudio.Client, error) {
		if client != nil {
			return client, nil
		}
		var err error
		client, err = miniaudio.NewClient()
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, client.Close)
		return client, nil
	}

	switch cfg.Audio.Capture {
	case config.CaptureMiniaudio:
		c, err := miniaudioClient()
		if err != nil {
			d.close()
			return nil, err
		}
		d.options = append(d.options, orchestration.WithCaptureDevice(c.Capture()))
	case config.CapturePortaudio:
		d.options = append(d.options, orchestration.WithCaptureDevice(portaudio.NewCapture(cfg.Audio.CaptureBuffer)))
	}

	if cfg.Audio.Capture != config.DeviceNone && cfg.Audio.SilenceGate {
		d.options = append(d.options, orchestration.WithSilenceGate(
			vad.WithThresholdDB(cfg.Audio.GateThresholdDB),
			vad.WithMinSilence(cfg.Audio.GateMinSilence),
		))
	}

	switch cfg.Audio.Playback {
	case config.PlaybackMiniaudio:
		c, err := miniaudioClient()
		if err != nil {
			d.close()
			return nil, err
		}
		player := c.Player(cfg.Audio.PlaybackRate)
		d.closers = append(d.closers, func() { _ = player.Close() })
		d.options = append(d.options, orchestration.WithPlaybackSink(player))
	case config.PlaybackOto:
		sink, err := otoplayer.NewSink(cfg.Audio.PlaybackRate)
		if err != nil {
			d.close()
			return nil, err
		}
		d.closers = append(d.closers, func() { _ = sink.Close() })
		d.options = append(d.options, orchestration.WithPlaybackSink(sink))
	}

	return d, nil
}

func logPath(cfg *config.Config) string {
	if cfg.LogFile != "" {
		return cfg.LogFile
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, appName, appName+".log")
}
