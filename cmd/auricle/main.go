// Command auricle is the main entry point for the Auricle voice assistant
// daemon.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/auricle-voice/auricle/internal/assistant"
	"github.com/auricle-voice/auricle/internal/config"
	"github.com/auricle-voice/auricle/internal/dotenv"
	"github.com/auricle-voice/auricle/internal/health"
	"github.com/auricle-voice/auricle/internal/observe"
	"github.com/auricle-voice/auricle/internal/wake"
	"github.com/auricle-voice/auricle/pkg/audio"
	paudio "github.com/auricle-voice/auricle/pkg/audio/portaudio"
	"github.com/auricle-voice/auricle/pkg/provider/live"
	"github.com/auricle-voice/auricle/pkg/provider/live/gemini"
	"github.com/auricle-voice/auricle/pkg/provider/live/openai"
	providerwake "github.com/auricle-voice/auricle/pkg/provider/wake"
	"github.com/auricle-voice/auricle/pkg/provider/wake/whisperkw"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	envPath := flag.String("env", ".env", "path to an optional dotenv file")
	flag.Parse()

	// ── Environment + configuration ───────────────────────────────────────────
	if err := dotenv.Load(*envPath); err != nil {
		fmt.Fprintf(os.Stderr, "auricle: %v\n", err)
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "auricle: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "auricle: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger, logLevel := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("auricle starting",
		"config", *configPath,
		"log_level", cfg.Server.LogLevel,
		"live_provider", cfg.Live.Provider,
	)

	// ── Observability ─────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "auricle"})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Provider registry ─────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	liveProvider, err := reg.CreateLive(cfg.Live)
	if err != nil {
		slog.Error("failed to create live provider", "name", cfg.Live.Provider, "err", err)
		return 1
	}
	slog.Info("provider created", "kind", "live", "name", cfg.Live.Provider)

	// ── Wake detector (optional) ──────────────────────────────────────────────
	var detector *wake.Detector
	if cfg.Wake.Enabled {
		classifier, err := reg.CreateWake(cfg.Wake)
		if err != nil {
			slog.Error("failed to create wake classifier", "backend", cfg.Wake.Backend, "err", err)
			return 1
		}
		defer func() {
			if err := classifier.Close(); err != nil {
				slog.Warn("wake classifier close error", "err", err)
			}
		}()

		detector, err = wake.NewDetector(classifier, cfg.Audio.SendSampleRate, cfg.Wake.Threshold)
		if err != nil {
			slog.Error("failed to create wake detector", "err", err)
			return 1
		}
		slog.Info("wake detection enabled", "backend", cfg.Wake.Backend, "phrases", cfg.Wake.Phrases)
	} else {
		slog.Warn("wake detection disabled — a live session opens immediately")
	}

	// ── Audio devices ─────────────────────────────────────────────────────────
	capture, player, err := buildAudioDevices(cfg.Audio)
	if err != nil {
		slog.Error("failed to open audio devices", "err", err)
		return 1
	}

	// ── Assistant ─────────────────────────────────────────────────────────────
	asst, err := assistant.New(capture, player, liveProvider, detector, assistant.Config{
		SendSampleRate:     cfg.Audio.SendSampleRate,
		ReceiveSampleRate:  cfg.Audio.ReceiveSampleRate,
		PlaybackSampleRate: cfg.Audio.PlaybackSampleRate,
		Model:              cfg.Live.Model,
		Instructions:       cfg.Live.Instructions,
		SessionTimeout:     time.Duration(cfg.Wake.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		slog.Error("failed to initialise assistant", "err", err)
		return 1
	}

	// ── Metrics + health endpoint ─────────────────────────────────────────────
	var metricsSrv *http.Server
	if cfg.Server.MetricsAddr != "" {
		metricsSrv = newMetricsServer(cfg, asst)
		go func() {
			slog.Info("metrics endpoint listening", "addr", cfg.Server.MetricsAddr)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server error", "err", err)
			}
		}()
	}

	// ── Config hot reload ─────────────────────────────────────────────────────
	watcher, err := config.NewWatcher(*configPath, func(old, new *config.Config) {
		applyConfigChange(asst, logLevel, old, new)
	})
	if err != nil {
		slog.Warn("config watcher disabled", "err", err)
	} else {
		defer watcher.Stop()
	}

	printStartupSummary(cfg)
	slog.Info("assistant ready — press Ctrl+C to shut down")

	// Shutdown unblocks the assistant's audio loops when the signal context
	// is cancelled.
	go func() {
		<-ctx.Done()
		if err := asst.Shutdown(); err != nil {
			slog.Warn("assistant shutdown error", "err", err)
		}
	}()

	if err := asst.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	slog.Info("shutting down…")
	_ = asst.Shutdown()

	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("metrics server shutdown error", "err", err)
		}
	}

	slog.Info("goodbye")
	return 0
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// registerBuiltinProviders wires the live-provider and wake-backend factories
// that ship with Auricle into reg.
func registerBuiltinProviders(reg *config.Registry) {
	reg.RegisterLive("gemini-live", func(cfg config.LiveConfig) (live.Provider, error) {
		var opts []gemini.Option
		if cfg.BaseURL != "" {
			opts = append(opts, gemini.WithBaseURL(cfg.BaseURL))
		}
		return gemini.New(cfg.APIKey, opts...), nil
	})

	reg.RegisterLive("openai-realtime", func(cfg config.LiveConfig) (live.Provider, error) {
		var opts []openai.Option
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		return openai.New(cfg.APIKey, opts...), nil
	})

	reg.RegisterWake(string(config.BackendWhisper), func(cfg config.WakeConfig) (providerwake.Classifier, error) {
		return whisperkw.New(cfg.ModelPath, cfg.Phrases)
	})
}

// buildAudioDevices opens the PortAudio capture and playback streams from the
// audio section of the configuration.
func buildAudioDevices(cfg config.AudioConfig) (audio.Capture, audio.Player, error) {
	capture, err := paudio.NewCapture(paudio.Config{
		SampleRate:      cfg.SendSampleRate,
		Channels:        cfg.Channels,
		FramesPerBuffer: cfg.ChunkSize,
		DeviceIndex:     cfg.InputDeviceIndex,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open capture device: %w", err)
	}

	player, err := paudio.NewPlayer(paudio.Config{
		SampleRate:      cfg.PlaybackSampleRate,
		Channels:        cfg.Channels,
		FramesPerBuffer: cfg.ChunkSize,
		DeviceIndex:     cfg.OutputDeviceIndex,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open playback device: %w", err)
	}

	return capture, player, nil
}

// ── Metrics + health server ───────────────────────────────────────────────────

// newMetricsServer builds the HTTP server exposing /metrics (Prometheus),
// /healthz and /readyz, wrapped in the observability middleware.
func newMetricsServer(cfg *config.Config, asst *assistant.Assistant) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())

	checkers := []health.Checker{
		{
			Name: "assistant",
			Check: func(context.Context) error {
				// Any reachable state means the orchestrator is serving.
				if s := asst.State(); s.String() == "unknown" {
					return fmt.Errorf("assistant in unknown state %d", s)
				}
				return nil
			},
		},
	}
	if cfg.Wake.Enabled {
		modelPath := cfg.Wake.ModelPath
		checkers = append(checkers, health.Checker{
			Name: "wake_model",
			Check: func(context.Context) error {
				_, err := os.Stat(modelPath)
				return err
			},
		})
	}
	health.New(checkers...).Register(mux)

	return &http.Server{
		Addr:              cfg.Server.MetricsAddr,
		Handler:           observe.Middleware(observe.DefaultMetrics())(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// ── Config hot reload ─────────────────────────────────────────────────────────

// applyConfigChange applies the hot-reloadable parts of a config change. Log
// level and session timeout take effect immediately, instructions on the next
// session; wake tuning needs a process restart because the classifier is
// built once at startup.
func applyConfigChange(asst *assistant.Assistant, logLevel *slog.LevelVar, old, new *config.Config) {
	d := config.Diff(old, new)
	if !d.Changed() {
		return
	}

	if d.LogLevelChanged {
		logLevel.Set(slogLevel(d.NewLogLevel))
		slog.Info("log level updated", "level", d.NewLogLevel)
	}
	if d.TimeoutChanged {
		asst.SetSessionTimeout(time.Duration(d.NewTimeout) * time.Second)
		slog.Info("session timeout updated", "timeout_seconds", d.NewTimeout)
	}
	if d.InstructionsChanged {
		asst.SetInstructions(d.NewInstructions)
		slog.Info("instructions updated, applied on next session")
	}
	if d.WakeTuningChanged {
		slog.Warn("wake phrases/threshold changed — restart to apply")
	}
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║         Auricle — startup summary     ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printEntry("Live provider", cfg.Live.Provider+modelSuffix(cfg.Live.Model))
	if cfg.Wake.Enabled {
		printEntry("Wake backend", string(cfg.Wake.Backend))
		printEntry("Wake phrases", fmt.Sprintf("%d configured", len(cfg.Wake.Phrases)))
	} else {
		printEntry("Wake backend", "(disabled)")
	}
	printEntry("Mic rate", fmt.Sprintf("%d Hz", cfg.Audio.SendSampleRate))
	printEntry("Playback rate", fmt.Sprintf("%d Hz", cfg.Audio.PlaybackSampleRate))
	printEntry("Idle timeout", fmt.Sprintf("%d s", cfg.Wake.TimeoutSeconds))
	if cfg.Server.MetricsAddr != "" {
		printEntry("Metrics addr", cfg.Server.MetricsAddr)
	}
	fmt.Println("╚═══════════════════════════════════════╝")
}

func modelSuffix(model string) string {
	if model == "" {
		return ""
	}
	return " / " + model
}

func printEntry(kind, value string) {
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Printf("║  %-14s  : %-19s ║\n", kind, value)
}

// ── Logger ─────────────────────────────────────────────────────────────────────

// newLogger builds the default text logger. The returned LevelVar lets the
// config watcher retune verbosity at runtime.
func newLogger(level config.LogLevel) (*slog.Logger, *slog.LevelVar) {
	lvl := new(slog.LevelVar)
	lvl.Set(slogLevel(level))
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), lvl
}

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
