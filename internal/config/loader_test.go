package config_test

import (
	"strings"
	"testing"

	"github.com/auricle-voice/auricle/internal/config"
)

// validYAML is a minimal configuration that passes validation.
const validYAML = `
live:
  provider: gemini-live
  api_key: test-key
wake:
  enabled: true
  model_path: /models/ggml-tiny.en.bin
  phrases:
    - hey auricle
`

func TestLoadFromReader_ValidConfig(t *testing.T) {
	t.Parallel()
	cfg, err := config.LoadFromReader(strings.NewReader(validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Live.Provider != "gemini-live" {
		t.Errorf("live.provider = %q; want gemini-live", cfg.Live.Provider)
	}
	if cfg.Live.APIKey != "test-key" {
		t.Errorf("live.api_key = %q; want test-key", cfg.Live.APIKey)
	}
	if len(cfg.Wake.Phrases) != 1 || cfg.Wake.Phrases[0] != "hey auricle" {
		t.Errorf("wake.phrases = %v", cfg.Wake.Phrases)
	}
}

func TestLoadFromReader_AppliesDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := config.LoadFromReader(strings.NewReader(validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.LogLevel != config.LogInfo {
		t.Errorf("default log_level = %q; want info", cfg.Server.LogLevel)
	}
	if cfg.Audio.SendSampleRate != config.DefaultSendSampleRate {
		t.Errorf("default send_sample_rate = %d; want %d", cfg.Audio.SendSampleRate, config.DefaultSendSampleRate)
	}
	if cfg.Audio.ReceiveSampleRate != config.DefaultReceiveSampleRate {
		t.Errorf("default receive_sample_rate = %d; want %d", cfg.Audio.ReceiveSampleRate, config.DefaultReceiveSampleRate)
	}
	if cfg.Audio.ChunkSize != config.DefaultChunkSize {
		t.Errorf("default chunk_size = %d; want %d", cfg.Audio.ChunkSize, config.DefaultChunkSize)
	}
	if cfg.Audio.Channels != 1 {
		t.Errorf("default channels = %d; want 1", cfg.Audio.Channels)
	}
	if cfg.Audio.InputDeviceIndex != -1 || cfg.Audio.OutputDeviceIndex != -1 {
		t.Errorf("default device indexes = %d/%d; want -1/-1", cfg.Audio.InputDeviceIndex, cfg.Audio.OutputDeviceIndex)
	}
	if cfg.Wake.Backend != config.BackendWhisper {
		t.Errorf("default wake.backend = %q; want whisper", cfg.Wake.Backend)
	}
	if cfg.Wake.Threshold != config.DefaultWakeThreshold {
		t.Errorf("default wake.threshold = %v; want %v", cfg.Wake.Threshold, config.DefaultWakeThreshold)
	}
	if cfg.Wake.TimeoutSeconds != config.DefaultTimeoutSeconds {
		t.Errorf("default wake.timeout_seconds = %d; want %d", cfg.Wake.TimeoutSeconds, config.DefaultTimeoutSeconds)
	}
}

func TestLoadFromReader_ExplicitDeviceIndexZero(t *testing.T) {
	t.Parallel()
	yaml := validYAML + `
audio:
  input_device_index: 0
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Audio.InputDeviceIndex != 0 {
		t.Errorf("input_device_index = %d; want 0 (explicit)", cfg.Audio.InputDeviceIndex)
	}
	if cfg.Audio.OutputDeviceIndex != -1 {
		t.Errorf("output_device_index = %d; want -1 (default)", cfg.Audio.OutputDeviceIndex)
	}
}

func TestLoadFromReader_UnknownFieldRejected(t *testing.T) {
	t.Parallel()
	yaml := validYAML + `
telemetry:
  enabled: true
`
	if _, err := config.LoadFromReader(strings.NewReader(yaml)); err == nil {
		t.Fatal("expected error for unknown top-level field, got nil")
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	t.Parallel()
	yaml := validYAML + `
server:
  log_level: verbose
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for invalid log level, got nil")
	}
	if !strings.Contains(err.Error(), "log_level") {
		t.Errorf("error should mention log_level, got: %v", err)
	}
}

func TestValidate_MissingLiveProvider(t *testing.T) {
	t.Parallel()
	yaml := `
wake:
  enabled: true
  model_path: /models/ggml-tiny.en.bin
  phrases: [hey auricle]
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for missing live provider, got nil")
	}
	if !strings.Contains(err.Error(), "live.provider") {
		t.Errorf("error should mention live.provider, got: %v", err)
	}
}

func TestValidate_MissingAPIKey(t *testing.T) {
	// Not parallel: depends on the GEMINI_API_KEY environment variable.
	t.Setenv("GEMINI_API_KEY", "")
	yaml := `
live:
  provider: gemini-live
wake:
  enabled: true
  model_path: /models/ggml-tiny.en.bin
  phrases: [hey auricle]
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for missing API key, got nil")
	}
	if !strings.Contains(err.Error(), "GEMINI_API_KEY") {
		t.Errorf("error should name the fallback env var, got: %v", err)
	}
}

func TestLoadFromReader_APIKeyEnvFallback(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")
	yaml := `
live:
  provider: openai-realtime
wake:
  enabled: true
  model_path: /models/ggml-tiny.en.bin
  phrases: [hey auricle]
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Live.APIKey != "env-key" {
		t.Errorf("live.api_key = %q; want env-key (from environment)", cfg.Live.APIKey)
	}
}

func TestLoadFromReader_YAMLKeyBeatsEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-key")
	cfg, err := config.LoadFromReader(strings.NewReader(validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Live.APIKey != "test-key" {
		t.Errorf("live.api_key = %q; YAML value should win over env", cfg.Live.APIKey)
	}
}

func TestValidate_WakeEnabledRequiresModelAndPhrases(t *testing.T) {
	t.Parallel()
	yaml := `
live:
  provider: gemini-live
  api_key: test-key
wake:
  enabled: true
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected errors for enabled wake without model/phrases, got nil")
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "model_path") {
		t.Errorf("error should mention model_path, got: %v", err)
	}
	if !strings.Contains(errStr, "phrases") {
		t.Errorf("error should mention phrases, got: %v", err)
	}
}

func TestValidate_WakeDisabledSkipsWakeChecks(t *testing.T) {
	t.Parallel()
	yaml := `
live:
  provider: gemini-live
  api_key: test-key
wake:
  enabled: false
`
	if _, err := config.LoadFromReader(strings.NewReader(yaml)); err != nil {
		t.Fatalf("disabled wake should not require model/phrases: %v", err)
	}
}

func TestValidate_ThresholdOutOfRange(t *testing.T) {
	t.Parallel()
	yaml := `
live:
  provider: gemini-live
  api_key: test-key
wake:
  enabled: true
  model_path: /models/ggml-tiny.en.bin
  phrases: [hey auricle]
  threshold: 1.5
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for threshold out of range, got nil")
	}
	if !strings.Contains(err.Error(), "threshold") {
		t.Errorf("error should mention threshold, got: %v", err)
	}
}

func TestValidate_NonMonoChannelsRejected(t *testing.T) {
	t.Parallel()
	yaml := validYAML + `
audio:
  channels: 2
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for stereo audio, got nil")
	}
	if !strings.Contains(err.Error(), "channels") {
		t.Errorf("error should mention channels, got: %v", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  log_level: loud
live:
  provider: gemini-live
  api_key: test-key
wake:
  enabled: true
  model_path: /models/ggml-tiny.en.bin
  phrases: [hey auricle]
  threshold: -0.2
  timeout_seconds: -5
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected errors, got nil")
	}
	errStr := err.Error()
	for _, want := range []string{"log_level", "threshold", "timeout_seconds"} {
		if !strings.Contains(errStr, want) {
			t.Errorf("error should mention %s, got: %v", want, err)
		}
	}
}

func TestValidProviderNames(t *testing.T) {
	t.Parallel()
	if len(config.ValidProviderNames) == 0 {
		t.Fatal("ValidProviderNames should not be empty")
	}
	liveNames := config.ValidProviderNames["live"]
	found := false
	for _, n := range liveNames {
		if n == "gemini-live" {
			found = true
			break
		}
	}
	if !found {
		t.Error("ValidProviderNames[\"live\"] should contain \"gemini-live\"")
	}
}
