// Package config provides the configuration schema, loader, and provider
// registry for the Auricle voice assistant.
package config

// LogLevel controls log verbosity for the assistant process.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// WakeBackend selects the classifier implementation for wake-phrase scoring.
type WakeBackend string

const (
	// BackendWhisper scores wake phrases from local whisper.cpp transcripts.
	BackendWhisper WakeBackend = "whisper"
)

// IsValid reports whether b is a recognised wake backend.
func (b WakeBackend) IsValid() bool {
	return b == BackendWhisper
}

// Config is the root configuration structure for Auricle.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server ServerConfig `yaml:"server"`
	Audio  AudioConfig  `yaml:"audio"`
	Live   LiveConfig   `yaml:"live"`
	Wake   WakeConfig   `yaml:"wake"`
}

// ServerConfig holds logging and observability settings for the process.
type ServerConfig struct {
	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// MetricsAddr is the TCP address the Prometheus metrics endpoint listens
	// on (e.g., ":9090"). Empty disables the metrics server.
	MetricsAddr string `yaml:"metrics_addr"`
}

// AudioConfig holds PCM format settings for the capture and playback paths.
// All audio is signed 16-bit little-endian.
type AudioConfig struct {
	// SendSampleRate is the rate in Hz of audio captured from the microphone
	// and streamed to the remote model.
	SendSampleRate int `yaml:"send_sample_rate"`

	// ReceiveSampleRate is the rate in Hz of audio the remote model returns.
	ReceiveSampleRate int `yaml:"receive_sample_rate"`

	// PlaybackSampleRate is the rate in Hz the speaker stream is opened at.
	// Received audio is resampled to this rate before playback.
	PlaybackSampleRate int `yaml:"playback_sample_rate"`

	// ChunkSize is the number of samples read from the microphone per chunk.
	ChunkSize int `yaml:"chunk_size"`

	// Channels is the channel count for capture and playback. Only mono is
	// supported upstream, so this should stay 1.
	Channels int `yaml:"channels"`

	// InputDeviceIndex selects the capture device. Negative means the system
	// default input device.
	InputDeviceIndex int `yaml:"input_device_index"`

	// OutputDeviceIndex selects the playback device. Negative means the
	// system default output device.
	OutputDeviceIndex int `yaml:"output_device_index"`
}

// LiveConfig selects and configures the remote realtime speech provider.
type LiveConfig struct {
	// Provider selects the registered live provider implementation
	// (e.g., "gemini-live", "openai-realtime").
	Provider string `yaml:"provider"`

	// APIKey is the authentication key for the provider's API. When empty,
	// the loader falls back to the provider's conventional environment
	// variable (GEMINI_API_KEY or OPENAI_API_KEY).
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default endpoint.
	// Leave empty to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider.
	Model string `yaml:"model"`

	// Instructions is the system prompt injected into every session.
	Instructions string `yaml:"instructions"`
}

// WakeConfig configures wake-phrase detection and session inactivity.
type WakeConfig struct {
	// Enabled toggles wake-phrase gating. When false, a session is opened
	// immediately and stays open until shutdown.
	Enabled bool `yaml:"enabled"`

	// Backend selects the classifier implementation.
	Backend WakeBackend `yaml:"backend"`

	// ModelPath is the filesystem path to the backend's model file.
	ModelPath string `yaml:"model_path"`

	// Phrases lists the wake phrases to detect (e.g., "hey auricle").
	Phrases []string `yaml:"phrases"`

	// Threshold is the minimum classifier score (inclusive) that counts as a
	// detection, in [0, 1].
	Threshold float64 `yaml:"threshold"`

	// TimeoutSeconds is how long a session may sit idle before the watchdog
	// returns the assistant to passive listening.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// Default values applied by [ApplyDefaults] for fields left at their zero
// value in the YAML file.
const (
	DefaultSendSampleRate     = 16000
	DefaultReceiveSampleRate  = 24000
	DefaultPlaybackSampleRate = 24000
	DefaultChunkSize          = 1024
	DefaultChannels           = 1
	DefaultWakeThreshold      = 0.5
	DefaultTimeoutSeconds     = 30
)

// ApplyDefaults fills unset fields with their default values. Device indexes
// cannot be defaulted here because 0 is a valid index; the loader pre-seeds
// them with -1 before decoding so only absent keys keep the default.
func (c *Config) ApplyDefaults() {
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = LogInfo
	}
	if c.Audio.SendSampleRate == 0 {
		c.Audio.SendSampleRate = DefaultSendSampleRate
	}
	if c.Audio.ReceiveSampleRate == 0 {
		c.Audio.ReceiveSampleRate = DefaultReceiveSampleRate
	}
	if c.Audio.PlaybackSampleRate == 0 {
		c.Audio.PlaybackSampleRate = DefaultPlaybackSampleRate
	}
	if c.Audio.ChunkSize == 0 {
		c.Audio.ChunkSize = DefaultChunkSize
	}
	if c.Audio.Channels == 0 {
		c.Audio.Channels = DefaultChannels
	}
	if c.Wake.Backend == "" {
		c.Wake.Backend = BackendWhisper
	}
	if c.Wake.Threshold == 0 {
		c.Wake.Threshold = DefaultWakeThreshold
	}
	if c.Wake.TimeoutSeconds == 0 {
		c.Wake.TimeoutSeconds = DefaultTimeoutSeconds
	}
}
