package wake

import (
	"fmt"

	"github.com/auricle-voice/auricle/pkg/provider/wake"
)

// DefaultThreshold is the detection threshold used when none is configured.
const DefaultThreshold = 0.5

// Detector feeds PCM audio through a classifier and reports wake-phrase
// detections. It owns a FrameBuffer for chunk reassembly and treats the
// classifier's frame scores as the sole detection signal.
//
// Detector is not safe for concurrent use; the capture pipeline calls it
// from a single goroutine.
type Detector struct {
	classifier wake.Classifier
	buffer     *FrameBuffer
	threshold  float64
}

// NewDetector creates a Detector over the given classifier. The sample rate
// determines the frame size; threshold is the minimum score (inclusive) that
// counts as a detection.
func NewDetector(classifier wake.Classifier, sampleRate int, threshold float64) (*Detector, error) {
	if classifier == nil {
		return nil, fmt.Errorf("wake: classifier must not be nil")
	}
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("wake: threshold must be in [0, 1], got %v", threshold)
	}
	buf, err := NewFrameBuffer(sampleRate)
	if err != nil {
		return nil, err
	}
	return &Detector{
		classifier: classifier,
		buffer:     buf,
		threshold:  threshold,
	}, nil
}

// ProcessAudio pushes one PCM chunk through the detector. It returns the
// detected label and true as soon as any frame produces a score at or above
// the threshold; frames queued behind a detection are discarded, not
// classified. A detection resets the detector, so the next audio is judged
// free of history. When no frame in the chunk triggers, it returns
// ("", false).
//
// Scores are checked in the classifier's Labels order, so a frame scoring
// several labels past the threshold always resolves to the same one.
func (d *Detector) ProcessAudio(chunk []byte) (string, bool) {
	for _, frame := range d.buffer.Push(chunk) {
		scores := d.classifier.Predict(frame)
		for _, label := range d.classifier.Labels() {
			if score, ok := scores[label]; ok && score >= d.threshold {
				d.Reset()
				return label, true
			}
		}
	}
	return "", false
}

// Reset clears the frame buffer and the classifier's internal state.
// ProcessAudio calls it after each detection; the assistant also calls it
// when returning to passive listening.
func (d *Detector) Reset() {
	d.buffer.Reset()
	d.classifier.Reset()
}

// Threshold returns the configured detection threshold.
func (d *Detector) Threshold() float64 { return d.threshold }
