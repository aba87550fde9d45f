// Package mock provides a scripted test double for the wake package
// interfaces.
//
// Use Classifier to return a predetermined sequence of score maps, one per
// Predict call, and to inspect the frames that were scored.
//
// Example:
//
//	clf := &mock.Classifier{
//	    LabelList: []string{"hey-auricle"},
//	    Script:    []wake.Scores{{}, {"hey-auricle": 0.9}},
//	}
package mock

import (
	"sync"

	"github.com/auricle-voice/auricle/pkg/provider/wake"
)

// Compile-time assertion that Classifier satisfies wake.Classifier.
var _ wake.Classifier = (*Classifier)(nil)

// Classifier is a mock implementation of wake.Classifier driven by a script
// of per-frame score maps.
type Classifier struct {
	mu sync.Mutex

	// LabelList is returned from Labels.
	LabelList []string

	// Script holds the Scores to return for successive Predict calls.
	// Calls beyond the end of the script return empty Scores.
	Script []wake.Scores

	// next indexes the script entry for the next Predict call.
	next int

	// Frames records every frame passed to Predict, in order.
	Frames [][]int16

	// ResetCalls counts invocations of Reset.
	ResetCalls int

	// Closed reports whether Close has been called.
	Closed bool
}

// Predict records the frame and returns the next scripted Scores.
func (c *Classifier) Predict(frame []int16) wake.Scores {
	c.mu.Lock()
	defer c.mu.Unlock()

	buf := make([]int16, len(frame))
	copy(buf, frame)
	c.Frames = append(c.Frames, buf)

	if c.next >= len(c.Script) {
		return wake.Scores{}
	}
	s := c.Script[c.next]
	c.next++
	return s
}

// Labels returns LabelList.
func (c *Classifier) Labels() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.LabelList
}

// Reset counts the call and rewinds the script so that a subsequent identical
// frame sequence reproduces the same scores, mirroring a real classifier
// returning to a clean state.
func (c *Classifier) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ResetCalls++
	c.next = 0
}

// Close marks the classifier closed.
func (c *Classifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Closed = true
	return nil
}

// PredictCalls returns the number of Predict invocations so far.
func (c *Classifier) PredictCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Frames)
}
