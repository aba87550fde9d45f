// Package mock provides test doubles for the live package interfaces.
//
// Use Provider to verify that sessions are opened with the expected
// SessionConfig. Use Session to inject scripted ServerMessages and inspect
// the audio chunks that were sent.
//
// Example:
//
//	sess := mock.NewSession()
//	p := &mock.Provider{Session: sess}
//	sess.Emit(live.ServerMessage{Audio: [][]byte{pcm}})
//	sess.Emit(live.ServerMessage{TurnComplete: true})
package mock

import (
	"context"
	"sync"

	"github.com/auricle-voice/auricle/pkg/provider/live"
)

// Compile-time assertions that the mocks satisfy the live interfaces.
var _ live.Provider = (*Provider)(nil)
var _ live.SessionHandle = (*Session)(nil)

// ConnectCall records a single invocation of Provider.Connect.
type ConnectCall struct {
	// Cfg is the SessionConfig passed to Connect.
	Cfg live.SessionConfig
}

// Provider is a mock implementation of live.Provider.
type Provider struct {
	mu sync.Mutex

	// Session is the SessionHandle returned by Connect. If nil, Connect
	// returns a new default Session.
	Session live.SessionHandle

	// ConnectErr, if non-nil, is returned as the error from Connect.
	ConnectErr error

	// ConnectCalls records every call to Connect in order.
	ConnectCalls []ConnectCall

	// ConnectFunc, if non-nil, is invoked per call and its results returned,
	// overriding Session/ConnectErr. Useful for per-cycle sessions.
	ConnectFunc func(cfg live.SessionConfig) (live.SessionHandle, error)
}

// Connect records the call and returns the configured session.
func (p *Provider) Connect(_ context.Context, cfg live.SessionConfig) (live.SessionHandle, error) {
	p.mu.Lock()
	p.ConnectCalls = append(p.ConnectCalls, ConnectCall{Cfg: cfg})
	fn := p.ConnectFunc
	p.mu.Unlock()

	if fn != nil {
		return fn(cfg)
	}
	if p.ConnectErr != nil {
		return nil, p.ConnectErr
	}
	if p.Session != nil {
		return p.Session, nil
	}
	return NewSession(), nil
}

// Calls returns a copy of every recorded Connect invocation, in order.
func (p *Provider) Calls() []ConnectCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]ConnectCall, len(p.ConnectCalls))
	copy(out, p.ConnectCalls)
	return out
}

// SendAudioCall records a single invocation of Session.SendAudio.
type SendAudioCall struct {
	// Chunk is a copy of the PCM chunk passed to SendAudio.
	Chunk []byte
}

// Session is a mock implementation of live.SessionHandle. Script server
// messages with Emit and end the stream with End.
type Session struct {
	mu     sync.Mutex
	ch     chan live.ServerMessage
	ended  bool
	closed bool
	errVal error

	// SendAudioErr, if non-nil, is returned from every SendAudio call.
	SendAudioErr error

	// SendAudioCalls records every call to SendAudio in order.
	SendAudioCalls []SendAudioCall
}

// NewSession creates a Session with a buffered message channel.
func NewSession() *Session {
	return &Session{ch: make(chan live.ServerMessage, 64)}
}

// Emit queues a server message for delivery on Messages.
func (s *Session) Emit(msg live.ServerMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.ch <- msg
}

// End closes the Messages channel, optionally recording err as the session's
// terminal error. Safe to call more than once.
func (s *Session) End(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.ended = true
	s.errVal = err
	close(s.ch)
}

// SendAudio records the chunk.
func (s *Session) SendAudio(chunk []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.SendAudioErr
	}
	buf := make([]byte, len(chunk))
	copy(buf, chunk)
	s.SendAudioCalls = append(s.SendAudioCalls, SendAudioCall{Chunk: buf})
	return s.SendAudioErr
}

// Messages returns the scripted message channel.
func (s *Session) Messages() <-chan live.ServerMessage { return s.ch }

// Err returns the error recorded by End.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errVal
}

// Close marks the session closed and ends the message stream.
func (s *Session) Close() error {
	s.mu.Lock()
	closed := s.closed
	s.closed = true
	s.mu.Unlock()
	if !closed {
		s.End(nil)
	}
	return nil
}

// Sent returns the number of SendAudio calls so far.
func (s *Session) Sent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.SendAudioCalls)
}

// SentChunks returns a copy of every chunk passed to SendAudio, in order.
func (s *Session) SentChunks() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.SendAudioCalls))
	for i, c := range s.SendAudioCalls {
		out[i] = c.Chunk
	}
	return out
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
