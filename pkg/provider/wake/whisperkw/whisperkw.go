// Package whisperkw implements the wake.Classifier interface as a
// keyword spotter backed by the whisper.cpp CGO bindings. The whisper.cpp
// static library (libwhisper.a) and headers (whisper.h) must be available at
// link time via LIBRARY_PATH and C_INCLUDE_PATH environment variables.
//
// The classifier accumulates 80 ms frames into a rolling audio window. Every
// stride it transcribes the window with whisper.cpp and scores each
// configured phrase against the transcript using Jaro-Winkler string
// similarity, with a Double Metaphone phonetic floor so that spelling
// variants of the phrase ("hey oracle" vs "hey auricle") still score high.
// Frames between inference strides score zero for all labels.
package whisperkw

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/antzucaro/matchr"
	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/auricle-voice/auricle/pkg/provider/wake"
)

// Compile-time assertion that Classifier satisfies wake.Classifier.
var _ wake.Classifier = (*Classifier)(nil)

const (
	defaultLanguage      = "en"
	defaultSampleRate    = 16000
	defaultWindow        = 2 * time.Second
	defaultStride        = 480 * time.Millisecond
	defaultPhoneticFloor = 0.85
)

// Option is a functional option for configuring a Classifier.
type Option func(*Classifier)

// WithLanguage sets the BCP-47 language code used for transcription
// (e.g., "en", "de"). Defaults to "en".
func WithLanguage(lang string) Option {
	return func(c *Classifier) { c.language = lang }
}

// WithSampleRate sets the sample rate in Hz of the frames passed to Predict.
// Defaults to 16000, whisper.cpp's native rate.
func WithSampleRate(rate int) Option {
	return func(c *Classifier) { c.sampleRate = rate }
}

// WithWindow sets the rolling audio window transcribed on each inference
// pass. Longer windows tolerate slow speakers at the cost of inference time.
// Defaults to 2 s.
func WithWindow(d time.Duration) Option {
	return func(c *Classifier) { c.window = d }
}

// WithStride sets how much new audio must accumulate between inference
// passes. Defaults to 480 ms (six 80 ms frames).
func WithStride(d time.Duration) Option {
	return func(c *Classifier) { c.stride = d }
}

// WithPhoneticFloor sets the minimum score granted to a transcript n-gram
// whose Double Metaphone codes match the phrase exactly. Defaults to 0.85.
func WithPhoneticFloor(floor float64) Option {
	return func(c *Classifier) { c.phoneticFloor = floor }
}

// Classifier is a whisper.cpp-backed keyword spotter. It is stateful across
// Predict calls (the rolling window) and must be Reset at the start of every
// listening phase. Not safe for concurrent use.
type Classifier struct {
	model   whisperlib.Model
	phrases []string

	language      string
	sampleRate    int
	window        time.Duration
	stride        time.Duration
	phoneticFloor float64

	// transcribe runs one inference pass over the window. Overridable in
	// tests so the windowing and scoring logic can run without a model.
	transcribe func(samples []float32) (string, error)

	buf            []float32
	samplesPending int
	closed         bool
}

// New creates a Classifier that loads the whisper.cpp model from modelPath
// and spots the given phrases. Phrase labels are the phrases themselves,
// normalised to lower case; Labels preserves the order given here. The caller
// must call Close when the classifier is no longer needed.
func New(modelPath string, phrases []string, opts ...Option) (*Classifier, error) {
	if modelPath == "" {
		return nil, errors.New("whisperkw: modelPath must not be empty")
	}
	if len(phrases) == 0 {
		return nil, errors.New("whisperkw: at least one phrase is required")
	}

	model, err := whisperlib.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("whisperkw: load model %q: %w", modelPath, err)
	}

	c := newWithModel(model, phrases, opts...)
	return c, nil
}

// newWithModel builds a Classifier around an already loaded model (nil in
// tests, which must override transcribe).
func newWithModel(model whisperlib.Model, phrases []string, opts ...Option) *Classifier {
	c := &Classifier{
		model:         model,
		language:      defaultLanguage,
		sampleRate:    defaultSampleRate,
		window:        defaultWindow,
		stride:        defaultStride,
		phoneticFloor: defaultPhoneticFloor,
	}
	for _, p := range phrases {
		c.phrases = append(c.phrases, normalise(p))
	}
	for _, o := range opts {
		o(c)
	}
	c.transcribe = c.infer
	return c
}

// Predict accumulates frame into the rolling window and, when a full stride
// of new audio has arrived, transcribes the window and scores every phrase
// against the transcript. All other calls return empty Scores.
func (c *Classifier) Predict(frame []int16) wake.Scores {
	if c.closed {
		return wake.Scores{}
	}

	for _, s := range frame {
		c.buf = append(c.buf, float32(s)/32768.0)
	}
	c.samplesPending += len(frame)

	// Trim the window from the front.
	if limit := c.windowSamples(); len(c.buf) > limit {
		c.buf = c.buf[len(c.buf)-limit:]
	}

	if c.samplesPending < c.strideSamples() {
		return wake.Scores{}
	}
	c.samplesPending = 0

	text, err := c.transcribe(c.buf)
	if err != nil {
		slog.Error("whisperkw: inference failed", "error", err)
		return wake.Scores{}
	}

	transcript := normalise(text)
	scores := make(wake.Scores, len(c.phrases))
	for _, phrase := range c.phrases {
		scores[phrase] = c.scorePhrase(transcript, phrase)
	}
	return scores
}

// Labels returns the configured phrases in registration order.
func (c *Classifier) Labels() []string {
	labels := make([]string, len(c.phrases))
	copy(labels, c.phrases)
	return labels
}

// Reset clears the rolling window and stride accounting.
func (c *Classifier) Reset() {
	c.buf = c.buf[:0]
	c.samplesPending = 0
}

// Close releases the whisper model. Safe to call more than once.
func (c *Classifier) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if c.model != nil {
		return c.model.Close()
	}
	return nil
}

func (c *Classifier) windowSamples() int {
	return int(c.window.Seconds() * float64(c.sampleRate))
}

func (c *Classifier) strideSamples() int {
	return int(c.stride.Seconds() * float64(c.sampleRate))
}

// infer runs whisper.cpp over samples using a fresh context and returns the
// concatenated segment text. Each context is not thread-safe, but the model
// can be shared, so a context per pass keeps Classifier reuse simple.
func (c *Classifier) infer(samples []float32) (string, error) {
	wctx, err := c.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("whisperkw: create context: %w", err)
	}

	if err := wctx.SetLanguage(c.language); err != nil {
		slog.Warn("whisperkw: failed to set language, using default", "language", c.language, "error", err)
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("whisperkw: process audio: %w", err)
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("whisperkw: read segment: %w", err)
		}
		if text := strings.TrimSpace(segment.Text); text != "" {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, " "), nil
}

// scorePhrase returns the best similarity between phrase and any n-gram of
// transcript words with the same word count as the phrase. An exact Double
// Metaphone match lifts the score to at least the phonetic floor.
func (c *Classifier) scorePhrase(transcript, phrase string) float64 {
	if transcript == "" || phrase == "" {
		return 0
	}

	words := strings.Fields(transcript)
	n := len(strings.Fields(phrase))
	if n == 0 || len(words) < n {
		return 0
	}

	best := 0.0
	for i := 0; i+n <= len(words); i++ {
		cand := strings.Join(words[i:i+n], " ")
		s := matchr.JaroWinkler(cand, phrase, false)
		if s < c.phoneticFloor && phoneticEqual(cand, phrase) {
			s = c.phoneticFloor
		}
		if s > best {
			best = s
		}
	}
	return best
}

// phoneticEqual reports whether every word pair in a and b shares a Double
// Metaphone code. a and b must have the same word count.
func phoneticEqual(a, b string) bool {
	aw := strings.Fields(a)
	bw := strings.Fields(b)
	if len(aw) != len(bw) {
		return false
	}
	for i := range aw {
		p1, s1 := matchr.DoubleMetaphone(aw[i])
		p2, s2 := matchr.DoubleMetaphone(bw[i])
		if !codesOverlap(p1, s1, p2, s2) {
			return false
		}
	}
	return true
}

// codesOverlap reports whether any non-empty code from the first pair equals
// any non-empty code from the second.
func codesOverlap(p1, s1, p2, s2 string) bool {
	for _, a := range []string{p1, s1} {
		if a == "" {
			continue
		}
		if a == p2 || (s2 != "" && a == s2) {
			return true
		}
	}
	return false
}

// normalise lower-cases s and strips everything but letters, digits, and
// single spaces, so transcripts and phrases compare cleanly.
func normalise(s string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}
