// Package portaudio implements the audio.Capture and audio.Player interfaces
// on top of the PortAudio library via the gordonklaus/portaudio bindings.
//
// Each Capture/Player owns its own PortAudio stream. PortAudio itself is
// initialised once per component and terminated on Stop; the underlying
// library reference-counts Initialize/Terminate pairs, so captures and
// players can be created and torn down independently.
package portaudio

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/auricle-voice/auricle/pkg/audio"
)

// Compile-time assertions that the adapters satisfy the audio interfaces.
var _ audio.Capture = (*Capture)(nil)
var _ audio.Player = (*Player)(nil)

// Config holds the stream parameters shared by Capture and Player.
type Config struct {
	// SampleRate in Hz (e.g., 16000 for the mic, 24000 for model output).
	SampleRate int

	// Channels is the channel count. Auricle uses mono throughout.
	Channels int

	// FramesPerBuffer is the PortAudio buffer size in frames. Each captured
	// chunk carries this many frames.
	FramesPerBuffer int

	// DeviceIndex selects a specific PortAudio device. Negative means the
	// system default.
	DeviceIndex int
}

// deviceParameters resolves cfg.DeviceIndex to low-latency stream parameters
// for the input or output side.
func deviceParameters(cfg Config, output bool) (portaudio.StreamParameters, error) {
	var (
		dev *portaudio.DeviceInfo
		err error
	)
	if cfg.DeviceIndex < 0 {
		if output {
			dev, err = portaudio.DefaultOutputDevice()
		} else {
			dev, err = portaudio.DefaultInputDevice()
		}
		if err != nil {
			return portaudio.StreamParameters{}, fmt.Errorf("portaudio: default device: %w", err)
		}
	} else {
		devices, err := portaudio.Devices()
		if err != nil {
			return portaudio.StreamParameters{}, fmt.Errorf("portaudio: list devices: %w", err)
		}
		if cfg.DeviceIndex >= len(devices) {
			return portaudio.StreamParameters{}, fmt.Errorf("portaudio: device index %d out of range (%d devices)", cfg.DeviceIndex, len(devices))
		}
		dev = devices[cfg.DeviceIndex]
	}

	var p portaudio.StreamParameters
	side := portaudio.StreamDeviceParameters{
		Device:   dev,
		Channels: cfg.Channels,
		Latency:  dev.DefaultLowInputLatency,
	}
	if output {
		side.Latency = dev.DefaultLowOutputLatency
		p.Output = side
	} else {
		p.Input = side
	}
	p.SampleRate = float64(cfg.SampleRate)
	p.FramesPerBuffer = cfg.FramesPerBuffer
	return p, nil
}

// ─── Capture ──────────────────────────────────────────────────────────────────

// Capture reads s16le PCM from a PortAudio input stream and delivers it as
// fixed-size chunks on a channel. A pump goroutine started by Start performs
// the blocking reads so that consumers only ever block on the channel.
type Capture struct {
	cfg    Config
	stream *portaudio.Stream
	buf    []int16

	ch   chan []byte
	done chan struct{}
	wg   sync.WaitGroup

	mu      sync.Mutex
	started bool
	stopped bool
}

// NewCapture initialises PortAudio and opens an input stream per cfg.
// The stream does not run until Start is called.
func NewCapture(cfg Config) (*Capture, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio: initialize: %w", err)
	}

	c := &Capture{
		cfg:  cfg,
		buf:  make([]int16, cfg.FramesPerBuffer*cfg.Channels),
		ch:   make(chan []byte, 16),
		done: make(chan struct{}),
	}

	params, err := deviceParameters(cfg, false)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, err
	}

	stream, err := portaudio.OpenStream(params, c.buf)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("portaudio: open input stream: %w", err)
	}
	c.stream = stream
	return c, nil
}

// Start begins the input stream and the pump goroutine.
func (c *Capture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started || c.stopped {
		return nil
	}
	if err := c.stream.Start(); err != nil {
		return fmt.Errorf("portaudio: start input stream: %w", err)
	}
	c.started = true

	c.wg.Add(1)
	go c.pump()
	return nil
}

// pump performs blocking reads from the stream and forwards each buffer as a
// byte chunk. It exits when Stop is signalled or the stream errors.
func (c *Capture) pump() {
	defer c.wg.Done()

	for {
		select {
		case <-c.done:
			return
		default:
		}

		if err := c.stream.Read(); err != nil {
			// Overflows are expected under scheduling jitter; anything else
			// ends the stream.
			if err == portaudio.InputOverflowed {
				continue
			}
			return
		}

		chunk := audio.Int16ToBytes(c.buf)
		select {
		case c.ch <- chunk:
		case <-c.done:
			return
		}
	}
}

// Chunks returns the captured chunk channel.
func (c *Capture) Chunks() <-chan []byte { return c.ch }

// Stop ends the pump, closes the chunk channel, and releases the stream.
// Safe to call more than once.
func (c *Capture) Stop() error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.stopped = true
	started := c.started
	c.mu.Unlock()

	close(c.done)
	if started {
		_ = c.stream.Abort()
	}
	c.wg.Wait()
	close(c.ch)

	_ = c.stream.Close()
	return portaudio.Terminate()
}

// ─── Player ───────────────────────────────────────────────────────────────────

// Player writes s16le PCM to a PortAudio output stream. Play blocks until the
// device has consumed the chunk; the final partial buffer of a chunk is
// zero-padded to the stream's buffer size.
type Player struct {
	cfg    Config
	stream *portaudio.Stream
	buf    []int16

	mu      sync.Mutex
	started bool
	stopped bool
}

// NewPlayer initialises PortAudio and opens an output stream per cfg.
func NewPlayer(cfg Config) (*Player, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio: initialize: %w", err)
	}

	p := &Player{
		cfg: cfg,
		buf: make([]int16, cfg.FramesPerBuffer*cfg.Channels),
	}

	params, err := deviceParameters(cfg, true)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, err
	}

	stream, err := portaudio.OpenStream(params, p.buf)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("portaudio: open output stream: %w", err)
	}
	p.stream = stream
	return p, nil
}

// Start begins the output stream.
func (p *Player) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.stopped {
		return nil
	}
	if err := p.stream.Start(); err != nil {
		return fmt.Errorf("portaudio: start output stream: %w", err)
	}
	p.started = true
	return nil
}

// Play writes pcm to the device in stream-buffer-sized slices, blocking until
// all of it has been accepted.
func (p *Player) Play(pcm []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return fmt.Errorf("portaudio: player is stopped")
	}
	if !p.started {
		return fmt.Errorf("portaudio: player not started")
	}

	samples := audio.BytesToInt16(pcm)
	for len(samples) > 0 {
		n := copy(p.buf, samples)
		samples = samples[n:]
		for i := n; i < len(p.buf); i++ {
			p.buf[i] = 0
		}
		if err := p.stream.Write(); err != nil {
			// Underflows recover on the next write.
			if err == portaudio.OutputUnderflowed {
				continue
			}
			return fmt.Errorf("portaudio: write: %w", err)
		}
	}
	return nil
}

// Stop releases the output stream. Safe to call more than once.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return nil
	}
	p.stopped = true
	if p.started {
		_ = p.stream.Stop()
	}
	_ = p.stream.Close()
	return portaudio.Terminate()
}
