// Package wake defines the Classifier interface for wake-phrase detection
// backends.
//
// A Classifier wraps a frame-level keyword-spotting model and scores each
// fixed-length audio frame against the set of configured wake phrases.
// Classifiers are stateful across frames: most models carry hidden or
// sequential state (feature windows, recurrent activations) from one frame to
// the next, so Reset must be called whenever a fresh listening phase begins —
// otherwise trailing audio from a previous phrase biases the next scores.
//
// Classification is synchronous by design: Predict returns immediately with a
// score map, making it suitable for the low-latency loop that gates session
// activation. Predict is assumed not to fail on a valid fixed-length frame;
// backends that can encounter internal errors must absorb and log them,
// returning empty scores for the affected frame.
//
// A single Classifier should not be shared across goroutines unless the
// implementation explicitly documents thread safety.
package wake

// Scores maps a wake-phrase label to its confidence score in [0.0, 1.0].
type Scores map[string]float64

// Classifier scores fixed-length audio frames against configured wake phrases.
type Classifier interface {
	// Predict scores one frame of mono s16 samples. The frame length is
	// fixed by the detector (80 ms at the configured sample rate); Predict
	// is never called with any other length. Labels absent from the result
	// are treated as score 0.
	Predict(frame []int16) Scores

	// Labels returns the wake-phrase labels this classifier can produce, in
	// a stable order. The detector resolves threshold ties by taking the
	// first passing label in this order.
	Labels() []string

	// Reset clears all hidden and sequential state accumulated across
	// frames. Call it after every detection and at the start of every new
	// listening phase.
	Reset()

	// Close releases model resources. Calling Close more than once is safe
	// and returns nil.
	Close() error
}
