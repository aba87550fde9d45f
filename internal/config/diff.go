package config

import "slices"

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// TimeoutChanged tracks wake.timeout_seconds; the watchdog picks the new
	// value up on its next poll.
	TimeoutChanged bool
	NewTimeout     int

	// InstructionsChanged tracks live.instructions; applied on the next
	// session cycle.
	InstructionsChanged bool
	NewInstructions     string

	// WakeTuningChanged tracks wake.threshold and wake.phrases. These require
	// rebuilding the classifier, so they only take effect after a restart.
	WakeTuningChanged bool
}

// Changed reports whether the diff carries any change at all.
func (d ConfigDiff) Changed() bool {
	return d.LogLevelChanged || d.TimeoutChanged || d.InstructionsChanged || d.WakeTuningChanged
}

// Diff compares old and new configs and returns what changed.
// Only tracks changes that are safe to apply without restart.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if old.Wake.TimeoutSeconds != new.Wake.TimeoutSeconds {
		d.TimeoutChanged = true
		d.NewTimeout = new.Wake.TimeoutSeconds
	}

	if old.Live.Instructions != new.Live.Instructions {
		d.InstructionsChanged = true
		d.NewInstructions = new.Live.Instructions
	}

	if old.Wake.Threshold != new.Wake.Threshold || !slices.Equal(old.Wake.Phrases, new.Wake.Phrases) {
		d.WakeTuningChanged = true
	}

	return d
}
