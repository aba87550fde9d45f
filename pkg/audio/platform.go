// Package audio defines the interfaces and types for audio device connectivity
// within Auricle.
//
// The two primary abstractions are:
//
//   - [Capture] — a restartable producer of raw PCM chunks from a microphone.
//   - [Player] — a consumer that plays raw PCM chunks on a speaker.
//
// Implementations of these interfaces are provided by device-specific adapter
// packages (e.g., audio/portaudio). The interfaces are intentionally narrow to
// keep the assistant core decoupled from device details.
//
// This package lives under pkg/ because external code (third-party device
// adapters) is expected to implement [Capture] and [Player].
package audio

// Capture is a restartable source of raw audio chunks from a microphone-like
// device. The chunk format (sample rate, channel count, bytes per sample) is
// fixed when the Capture is constructed.
//
// Start and Stop must be safe to call from a different goroutine than the one
// reading Chunks.
type Capture interface {
	// Start begins delivering audio on the channel returned by Chunks.
	// Calling Start on an already started capture is a no-op.
	Start() error

	// Chunks returns the channel on which captured PCM chunks arrive. The
	// channel is closed after Stop is called and any in-flight chunk has
	// been delivered.
	Chunks() <-chan []byte

	// Stop ends the capture stream and closes the Chunks channel. Calling
	// Stop more than once is safe and returns nil.
	Stop() error
}

// Player plays raw PCM chunks on a speaker-like device.
//
// Play is synchronous: it returns once the chunk has been handed to the
// device. Auricle's inbound pipeline is the only caller and serialises calls
// itself, so implementations are not required to support concurrent Play.
type Player interface {
	// Start prepares the output device. Calling Start on an already started
	// player is a no-op.
	Start() error

	// Play writes one chunk of little-endian signed 16-bit mono PCM to the
	// device, blocking until the device has accepted it.
	Play(pcm []byte) error

	// Stop releases the output device. Calling Stop more than once is safe
	// and returns nil.
	Stop() error
}

// Format describes the sample rate and channel count of an audio stream.
type Format struct {
	SampleRate int
	Channels   int
}
