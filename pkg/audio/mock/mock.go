// Package mock provides test doubles for the audio package interfaces.
//
// Use Capture to feed scripted PCM chunks into code that consumes a
// microphone stream, and Player to record the chunks that were played.
//
// Example:
//
//	cap := mock.NewCapture()
//	cap.Push([]byte{0x01, 0x00})
//	player := &mock.Player{}
package mock

import (
	"sync"

	"github.com/auricle-voice/auricle/pkg/audio"
)

// Compile-time assertions that the mocks satisfy the audio interfaces.
var _ audio.Capture = (*Capture)(nil)
var _ audio.Player = (*Player)(nil)

// Capture is a mock implementation of audio.Capture backed by a buffered
// channel that the test feeds via Push.
type Capture struct {
	mu      sync.Mutex
	ch      chan []byte
	started bool
	stopped bool

	// StartErr, if non-nil, is returned from Start.
	StartErr error
}

// NewCapture creates a Capture with a buffered chunk channel.
func NewCapture() *Capture {
	return &Capture{ch: make(chan []byte, 256)}
}

// Push queues a chunk for delivery on Chunks. It is a no-op after Stop.
func (c *Capture) Push(chunk []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.ch <- chunk
}

// Start marks the capture as started.
func (c *Capture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.StartErr != nil {
		return c.StartErr
	}
	c.started = true
	return nil
}

// Chunks returns the scripted chunk channel.
func (c *Capture) Chunks() <-chan []byte { return c.ch }

// Stop closes the chunk channel. Safe to call more than once.
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.stopped {
		c.stopped = true
		close(c.ch)
	}
	return nil
}

// Started reports whether Start has been called.
func (c *Capture) Started() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}

// Player is a mock implementation of audio.Player that records every chunk
// passed to Play.
type Player struct {
	mu      sync.Mutex
	played  [][]byte
	started bool
	stopped bool

	// PlayErr, if non-nil, is returned from every Play call.
	PlayErr error

	// PlayFunc, if non-nil, is invoked for every Play call after the chunk
	// is recorded. Useful for synchronising tests with playback.
	PlayFunc func(pcm []byte)
}

// Start marks the player as started.
func (p *Player) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started = true
	return nil
}

// Play records the chunk.
func (p *Player) Play(pcm []byte) error {
	p.mu.Lock()
	buf := make([]byte, len(pcm))
	copy(buf, pcm)
	p.played = append(p.played, buf)
	fn := p.PlayFunc
	err := p.PlayErr
	p.mu.Unlock()

	if fn != nil {
		fn(buf)
	}
	return err
}

// Stop marks the player as stopped. Safe to call more than once.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped = true
	return nil
}

// Played returns a copy of all chunks played so far, in order.
func (p *Player) Played() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]byte, len(p.played))
	copy(out, p.played)
	return out
}

// Stopped reports whether Stop has been called.
func (p *Player) Stopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}
