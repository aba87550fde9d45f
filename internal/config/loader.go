package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"live": {"gemini-live", "openai-realtime"},
	"wake": {"whisper"},
}

// providerEnvKeys maps live provider names to the environment variable the
// loader falls back to when live.api_key is not set.
var providerEnvKeys = map[string]string{
	"gemini-live":     "GEMINI_API_KEY",
	"openai-realtime": "OPENAI_API_KEY",
}

// Load reads the YAML configuration file at path and returns a validated
// [Config] with defaults applied. It is a convenience wrapper around
// [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults and the API
// key environment fallback, and validates the result. Useful in tests where
// configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{
		Audio: AudioConfig{
			InputDeviceIndex:  -1,
			OutputDeviceIndex: -1,
		},
	}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	cfg.ApplyDefaults()
	applyEnvFallbacks(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvFallbacks fills the live API key from the provider's conventional
// environment variable when the YAML left it empty.
func applyEnvFallbacks(cfg *Config) {
	if cfg.Live.APIKey != "" {
		return
	}
	if envKey, ok := providerEnvKeys[cfg.Live.Provider]; ok {
		cfg.Live.APIKey = os.Getenv(envKey)
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Audio
	if cfg.Audio.SendSampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio.send_sample_rate %d must be positive", cfg.Audio.SendSampleRate))
	}
	if cfg.Audio.ReceiveSampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio.receive_sample_rate %d must be positive", cfg.Audio.ReceiveSampleRate))
	}
	if cfg.Audio.PlaybackSampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio.playback_sample_rate %d must be positive", cfg.Audio.PlaybackSampleRate))
	}
	if cfg.Audio.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("audio.chunk_size %d must be positive", cfg.Audio.ChunkSize))
	}
	if cfg.Audio.Channels != 1 {
		errs = append(errs, fmt.Errorf("audio.channels %d is unsupported; only mono (1) audio is handled", cfg.Audio.Channels))
	}

	// Live provider
	if cfg.Live.Provider == "" {
		errs = append(errs, fmt.Errorf("live.provider is required"))
	} else {
		validateProviderName("live", cfg.Live.Provider)
		if cfg.Live.APIKey == "" {
			if envKey, ok := providerEnvKeys[cfg.Live.Provider]; ok {
				errs = append(errs, fmt.Errorf("live.api_key is not set and %s is empty", envKey))
			} else {
				errs = append(errs, fmt.Errorf("live.api_key is required for provider %q", cfg.Live.Provider))
			}
		}
	}

	// Wake detection
	if cfg.Wake.Enabled {
		if !cfg.Wake.Backend.IsValid() {
			errs = append(errs, fmt.Errorf("wake.backend %q is invalid; valid values: whisper", cfg.Wake.Backend))
		}
		if cfg.Wake.ModelPath == "" {
			errs = append(errs, fmt.Errorf("wake.model_path is required when wake detection is enabled"))
		}
		if len(cfg.Wake.Phrases) == 0 {
			errs = append(errs, fmt.Errorf("wake.phrases must list at least one phrase when wake detection is enabled"))
		}
		for i, phrase := range cfg.Wake.Phrases {
			if phrase == "" {
				errs = append(errs, fmt.Errorf("wake.phrases[%d] is empty", i))
			}
		}
		if cfg.Wake.Threshold < 0 || cfg.Wake.Threshold > 1 {
			errs = append(errs, fmt.Errorf("wake.threshold %.2f is out of range [0, 1]", cfg.Wake.Threshold))
		}
		if cfg.Wake.TimeoutSeconds <= 0 {
			errs = append(errs, fmt.Errorf("wake.timeout_seconds %d must be positive", cfg.Wake.TimeoutSeconds))
		}
	} else {
		slog.Warn("wake detection is disabled; the session opens immediately and never times out")
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
