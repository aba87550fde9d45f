// Package live defines the Provider interface for real-time conversational
// audio backends.
//
// A live provider wraps a bidirectional streaming voice service that accepts
// raw audio input and returns synthesised audio output in a single, stateful
// session. Examples include the Gemini Live API and the OpenAI Realtime API.
//
// The central abstraction is SessionHandle: an open duplex session carrying
// audio out and server messages back. Sessions are designed to be long-lived
// (seconds to minutes) — one session spans a full wake-to-timeout
// conversation cycle.
//
// All implementations must be safe for concurrent use.
package live

import "context"

// ServerMessage is one message received from the remote service. Exactly one
// of the two aspects is meaningful per message: either Audio carries the
// ordered model-output payloads of a partial model turn, or TurnComplete
// marks the end of the current turn.
type ServerMessage struct {
	// Audio holds raw PCM payloads synthesised by the model, in the order
	// they must be played. Empty for turn-complete messages.
	Audio [][]byte

	// TurnComplete is true when the model has finished its current response
	// turn and is ready for further input.
	TurnComplete bool
}

// SessionConfig is the initial configuration for a new live session.
type SessionConfig struct {
	// Model selects the remote model (e.g., "gemini-2.5-flash-native-audio-preview-12-2025").
	// Empty uses the provider's default.
	Model string

	// Instructions is the system-level prompt that defines the assistant's
	// persona and behavioural constraints.
	Instructions string

	// SendSampleRate is the sample rate in Hz of the PCM chunks passed to
	// SendAudio, declared to the remote service with every chunk.
	SendSampleRate int
}

// SessionHandle represents an open live session. It is an interface so that
// test code can supply mock implementations without a live connection.
//
// The session is the hot path of the Auricle audio pipelines — SendAudio must
// return quickly and Messages must be drained promptly to keep the provider's
// receive loop from stalling. All methods must be safe for concurrent use.
//
// Callers must call Close when the session is no longer needed.
type SessionHandle interface {
	// SendAudio delivers one chunk of raw little-endian s16 mono PCM at the
	// configured send sample rate. Returns an error if the session is
	// closed or the transport rejects the chunk.
	SendAudio(chunk []byte) error

	// Messages returns a read-only channel that emits ServerMessage values
	// as the model responds. The channel is closed when the session ends or
	// a mid-stream transport error occurs; call [SessionHandle.Err]
	// afterwards to check whether the session ended cleanly.
	Messages() <-chan ServerMessage

	// Err returns the error that caused the Messages channel to close
	// prematurely, or nil if the session ended cleanly.
	Err() error

	// Close terminates the session and releases the underlying transport.
	// Calling Close more than once is safe and returns nil.
	Close() error
}

// Provider is the abstraction over any live conversational audio backend.
//
// Implementations must be safe for concurrent use.
type Provider interface {
	// Connect establishes a new session with the given configuration. The
	// returned SessionHandle is ready to accept audio immediately.
	//
	// Returns an error if the session cannot be established (e.g.,
	// authentication failure or ctx already cancelled). The caller owns the
	// SessionHandle and is responsible for calling Close.
	Connect(ctx context.Context, cfg SessionConfig) (SessionHandle, error)
}
