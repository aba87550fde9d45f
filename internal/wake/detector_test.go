package wake_test

import (
	"testing"

	"github.com/auricle-voice/auricle/internal/wake"
	wakeprovider "github.com/auricle-voice/auricle/pkg/provider/wake"
	wakemock "github.com/auricle-voice/auricle/pkg/provider/wake/mock"
)

// frameChunk returns the PCM bytes of n whole frames at the test sample rate.
func frameChunk(n int) []byte {
	return make([]byte, n*frameBytes)
}

func newDetector(t *testing.T, c wakeprovider.Classifier, threshold float64) *wake.Detector {
	t.Helper()
	d, err := wake.NewDetector(c, testSampleRate, threshold)
	if err != nil {
		t.Fatalf("NewDetector: %v", err)
	}
	return d
}

func TestNewDetector_Validation(t *testing.T) {
	t.Parallel()

	c := &wakemock.Classifier{LabelList: []string{"auricle"}}

	if _, err := wake.NewDetector(nil, testSampleRate, 0.5); err == nil {
		t.Error("nil classifier should return an error")
	}
	if _, err := wake.NewDetector(c, 0, 0.5); err == nil {
		t.Error("zero sample rate should return an error")
	}
	if _, err := wake.NewDetector(c, testSampleRate, -0.1); err == nil {
		t.Error("negative threshold should return an error")
	}
	if _, err := wake.NewDetector(c, testSampleRate, 1.5); err == nil {
		t.Error("threshold above 1 should return an error")
	}
	if _, err := wake.NewDetector(c, testSampleRate, 0.5); err != nil {
		t.Errorf("valid arguments returned error: %v", err)
	}
}

func TestProcessAudio_DetectsOnRisingScore(t *testing.T) {
	t.Parallel()

	c := &wakemock.Classifier{
		LabelList: []string{"auricle"},
		Script: []wakeprovider.Scores{
			{"auricle": 0.1},
			{"auricle": 0.6},
			{"auricle": 0.9},
		},
	}
	d := newDetector(t, c, 0.5)

	// First frame scores below threshold.
	if label, ok := d.ProcessAudio(frameChunk(1)); ok {
		t.Fatalf("frame 1 detected %q; want no detection", label)
	}

	// Second frame crosses the threshold; the third scripted score must
	// never be consulted even if more audio is queued.
	label, ok := d.ProcessAudio(frameChunk(2))
	if !ok || label != "auricle" {
		t.Fatalf("ProcessAudio = (%q, %v); want (auricle, true)", label, ok)
	}
	if got := c.PredictCalls(); got != 2 {
		t.Errorf("Predict calls = %d; want 2 (no classification after detection)", got)
	}
}

func TestProcessAudio_ThresholdIsInclusive(t *testing.T) {
	t.Parallel()

	c := &wakemock.Classifier{
		LabelList: []string{"auricle"},
		Script:    []wakeprovider.Scores{{"auricle": 0.5}},
	}
	d := newDetector(t, c, 0.5)

	label, ok := d.ProcessAudio(frameChunk(1))
	if !ok || label != "auricle" {
		t.Errorf("score exactly at threshold should detect; got (%q, %v)", label, ok)
	}
}

func TestProcessAudio_BelowThresholdNoDetection(t *testing.T) {
	t.Parallel()

	c := &wakemock.Classifier{
		LabelList: []string{"auricle"},
		Script:    []wakeprovider.Scores{{"auricle": 0.4999}},
	}
	d := newDetector(t, c, 0.5)

	if label, ok := d.ProcessAudio(frameChunk(1)); ok {
		t.Errorf("score below threshold detected %q", label)
	}
}

func TestProcessAudio_PartialFrameNoClassification(t *testing.T) {
	t.Parallel()

	c := &wakemock.Classifier{
		LabelList: []string{"auricle"},
		Script:    []wakeprovider.Scores{{"auricle": 0.9}},
	}
	d := newDetector(t, c, 0.5)

	// Less than one frame of audio: nothing to classify yet.
	if _, ok := d.ProcessAudio(make([]byte, frameBytes-2)); ok {
		t.Fatal("partial frame should not trigger classification")
	}
	if got := c.PredictCalls(); got != 0 {
		t.Fatalf("Predict calls = %d; want 0", got)
	}

	// The completing bytes produce a frame and the detection.
	label, ok := d.ProcessAudio(make([]byte, 2))
	if !ok || label != "auricle" {
		t.Errorf("completing frame = (%q, %v); want (auricle, true)", label, ok)
	}
}

// Detection must depend only on the cumulative audio stream, not on how it
// was split into chunks.
func TestProcessAudio_ChunkingInvariance(t *testing.T) {
	t.Parallel()

	script := []wakeprovider.Scores{
		{"auricle": 0.2},
		{"auricle": 0.7},
	}
	stream := frameChunk(2)

	bulk := &wakemock.Classifier{LabelList: []string{"auricle"}, Script: script}
	dBulk := newDetector(t, bulk, 0.5)
	wantLabel, wantOK := dBulk.ProcessAudio(stream)

	trickle := &wakemock.Classifier{LabelList: []string{"auricle"}, Script: script}
	dTrickle := newDetector(t, trickle, 0.5)
	var gotLabel string
	var gotOK bool
	for i := 0; i < len(stream) && !gotOK; i += 100 {
		end := min(i+100, len(stream))
		gotLabel, gotOK = dTrickle.ProcessAudio(stream[i:end])
	}

	if gotOK != wantOK || gotLabel != wantLabel {
		t.Errorf("trickle = (%q, %v); bulk = (%q, %v)", gotLabel, gotOK, wantLabel, wantOK)
	}
}

func TestProcessAudio_MultiplePhrasesLabelOrderWins(t *testing.T) {
	t.Parallel()

	// Both labels cross the threshold in one frame; the first label in the
	// classifier's Labels order must win regardless of score.
	c := &wakemock.Classifier{
		LabelList: []string{"hey auricle", "ok auricle"},
		Script: []wakeprovider.Scores{
			{"hey auricle": 0.6, "ok auricle": 0.95},
		},
	}
	d := newDetector(t, c, 0.5)

	label, ok := d.ProcessAudio(frameChunk(1))
	if !ok || label != "hey auricle" {
		t.Errorf("ProcessAudio = (%q, %v); want (hey auricle, true)", label, ok)
	}
}

// TestProcessAudio_DetectionResetsAndReplays verifies that a detection
// resets the classifier, and that replaying the same audio afterwards yields
// the identical detection.
func TestProcessAudio_DetectionResetsAndReplays(t *testing.T) {
	t.Parallel()

	c := &wakemock.Classifier{
		LabelList: []string{"auricle"},
		Script: []wakeprovider.Scores{
			{"auricle": 0.3},
			{"auricle": 0.8},
		},
	}
	d := newDetector(t, c, 0.5)

	label1, ok1 := d.ProcessAudio(frameChunk(2))
	if !ok1 {
		t.Fatal("first pass should detect")
	}
	if got := c.ResetCalls; got != 1 {
		t.Fatalf("classifier Reset calls after detection = %d; want 1", got)
	}

	label2, ok2 := d.ProcessAudio(frameChunk(2))
	if ok2 != ok1 || label2 != label1 {
		t.Errorf("replay = (%q, %v); first pass = (%q, %v)", label2, ok2, label1, ok1)
	}
}

func TestReset_DiscardsPartialFrame(t *testing.T) {
	t.Parallel()

	c := &wakemock.Classifier{
		LabelList: []string{"auricle"},
		Script:    []wakeprovider.Scores{{"auricle": 0.9}},
	}
	d := newDetector(t, c, 0.5)

	d.ProcessAudio(make([]byte, frameBytes/2))
	d.Reset()

	// Half a frame after reset: the pre-reset half must not complete it.
	if _, ok := d.ProcessAudio(make([]byte, frameBytes/2)); ok {
		t.Error("stale pre-reset audio completed a frame")
	}
	if got := c.PredictCalls(); got != 0 {
		t.Errorf("Predict calls = %d; want 0", got)
	}
}

func TestThreshold_ReturnsConfiguredValue(t *testing.T) {
	t.Parallel()

	c := &wakemock.Classifier{LabelList: []string{"auricle"}}
	d := newDetector(t, c, 0.75)
	if got := d.Threshold(); got != 0.75 {
		t.Errorf("Threshold() = %v; want 0.75", got)
	}
}
