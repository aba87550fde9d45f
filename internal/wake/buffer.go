// Package wake implements wake-phrase detection over a raw PCM audio stream.
//
// Incoming audio arrives as arbitrarily sized byte chunks (s16le mono). A
// FrameBuffer reassembles those chunks into the fixed-size sample frames the
// classifier expects, and a Detector runs each frame through a
// wake.Classifier and reports the first label whose score reaches the
// configured threshold.
package wake

import (
	"fmt"

	"github.com/auricle-voice/auricle/pkg/audio"
)

// frameDuration is the fraction of a second covered by one classifier frame.
// At 16 kHz this yields 1280 samples (80 ms) per frame.
const frameDuration = 0.08

// FrameBuffer accumulates raw PCM bytes and emits fixed-size int16 frames.
//
// Chunks may split samples at any byte offset; the buffer carries the
// remainder forward so no audio is lost between Push calls. FrameBuffer is
// not safe for concurrent use.
type FrameBuffer struct {
	frameSamples int
	pending      []byte
}

// NewFrameBuffer creates a FrameBuffer producing frames sized for the given
// sample rate.
func NewFrameBuffer(sampleRate int) (*FrameBuffer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("wake: sample rate must be positive, got %d", sampleRate)
	}
	return &FrameBuffer{
		frameSamples: int(float64(sampleRate) * frameDuration),
	}, nil
}

// FrameSamples returns the number of int16 samples per emitted frame.
func (b *FrameBuffer) FrameSamples() int { return b.frameSamples }

// Push appends chunk to the buffer and returns every complete frame now
// available, in arrival order. Bytes short of a full frame stay buffered for
// the next call. Frame boundaries depend only on the cumulative byte stream,
// never on how it was split into chunks.
func (b *FrameBuffer) Push(chunk []byte) [][]int16 {
	b.pending = append(b.pending, chunk...)

	frameBytes := b.frameSamples * 2
	var frames [][]int16
	for len(b.pending) >= frameBytes {
		frames = append(frames, audio.BytesToInt16(b.pending[:frameBytes]))
		b.pending = b.pending[frameBytes:]
	}
	if len(frames) > 0 {
		if len(b.pending) == 0 {
			b.pending = nil
		} else {
			// Copy the remainder so the consumed prefix can be reclaimed.
			b.pending = append([]byte(nil), b.pending...)
		}
	}
	return frames
}

// Reset discards any buffered partial frame.
func (b *FrameBuffer) Reset() {
	b.pending = nil
}
