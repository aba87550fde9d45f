// Package assistant contains the session orchestrator at the heart of
// Auricle. It runs the wake-gated listen loop, opens live provider sessions,
// and drives the three concurrent session loops: the outbound pipeline
// (mic to model), the inbound pipeline (model to speaker) and the
// inactivity watchdog.
//
// This package is internal because it encapsulates application-private
// orchestration logic and is not intended for import by external code.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/auricle-voice/auricle/internal/observe"
	"github.com/auricle-voice/auricle/internal/wake"
	"github.com/auricle-voice/auricle/pkg/audio"
	"github.com/auricle-voice/auricle/pkg/provider/live"
)

const (
	// defaultWatchdogInterval is how often the inactivity watchdog compares
	// the activity clock against the session timeout.
	defaultWatchdogInterval = time.Second

	// defaultPollInterval is how often the audio pipelines wake from a
	// blocked channel receive to re-check the running flag and state.
	defaultPollInterval = 250 * time.Millisecond
)

// Option is a functional option for configuring an [Assistant].
type Option func(*Assistant)

// WithWatchdogInterval overrides the watchdog poll interval. Useful in tests
// to keep suite execution fast; production code should keep the default.
func WithWatchdogInterval(d time.Duration) Option {
	return func(a *Assistant) {
		a.watchdogInterval = d
	}
}

// WithPollInterval overrides how often blocked pipeline loops re-check the
// running flag and state. Useful in tests.
func WithPollInterval(d time.Duration) Option {
	return func(a *Assistant) {
		a.pollInterval = d
	}
}

// WithMetrics overrides the metrics sink. The default is
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(a *Assistant) {
		a.metrics = m
	}
}

// Config carries the audio and session parameters the orchestrator needs.
type Config struct {
	// SendSampleRate is the sample rate of the capture stream, forwarded to
	// the live provider so it can label outbound audio.
	SendSampleRate int

	// ReceiveSampleRate is the sample rate the live provider produces.
	ReceiveSampleRate int

	// PlaybackSampleRate is the sample rate of the output device. When it
	// differs from ReceiveSampleRate, inbound audio is resampled before
	// playback.
	PlaybackSampleRate int

	// Model names the remote model for live sessions. Empty selects the
	// provider default.
	Model string

	// Instructions is the system instruction sent when a session opens.
	Instructions string

	// SessionTimeout is how long a session may sit in the active state with
	// no outbound sends and no completed turns before the watchdog closes it.
	SessionTimeout time.Duration
}

// Assistant orchestrates the full wake-to-session lifecycle: listen for the
// wake phrase, open a live session, relay audio both ways, and return to
// listening when the conversation goes quiet.
//
// Run blocks until [Assistant.Shutdown] is called or the context is
// cancelled. An Assistant is single-use: once Run returns it cannot be
// restarted.
type Assistant struct {
	capture  audio.Capture
	player   audio.Player
	provider live.Provider
	detector *wake.Detector
	metrics  *observe.Metrics
	cfg      Config

	watchdogInterval time.Duration
	pollInterval     time.Duration

	state stateCell
	clock activityClock

	// running is set by Run and cleared exactly once by Shutdown. Every
	// loop polls it at each iteration boundary.
	running atomic.Bool

	// sessionTimeout and instructions are held behind atomics so the config
	// watcher can update them while a session is open. The timeout takes
	// effect on the watchdog's next poll; instructions on the next session.
	sessionTimeout atomic.Int64
	instructions   atomic.Pointer[string]

	shutdownOnce sync.Once
}

// New creates an Assistant. The detector may be nil, in which case wake
// detection is disabled and Run performs exactly one session cycle.
func New(capture audio.Capture, player audio.Player, provider live.Provider, detector *wake.Detector, cfg Config, opts ...Option) (*Assistant, error) {
	if capture == nil {
		return nil, fmt.Errorf("assistant: capture is required")
	}
	if player == nil {
		return nil, fmt.Errorf("assistant: player is required")
	}
	if provider == nil {
		return nil, fmt.Errorf("assistant: live provider is required")
	}
	if cfg.SessionTimeout <= 0 {
		return nil, fmt.Errorf("assistant: session timeout must be positive, got %s", cfg.SessionTimeout)
	}

	a := &Assistant{
		capture:          capture,
		player:           player,
		provider:         provider,
		detector:         detector,
		cfg:              cfg,
		watchdogInterval: defaultWatchdogInterval,
		pollInterval:     defaultPollInterval,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}
	a.sessionTimeout.Store(int64(cfg.SessionTimeout))
	instructions := cfg.Instructions
	a.instructions.Store(&instructions)
	return a, nil
}

// State returns the current session phase.
func (a *Assistant) State() State { return a.state.get() }

// SetSessionTimeout replaces the inactivity timeout. The watchdog picks the
// new value up on its next poll. Values <= 0 are ignored.
func (a *Assistant) SetSessionTimeout(d time.Duration) {
	if d <= 0 {
		return
	}
	a.sessionTimeout.Store(int64(d))
}

// SetInstructions replaces the system instructions used for future sessions.
// A session that is already open keeps the instructions it connected with.
func (a *Assistant) SetInstructions(s string) {
	a.instructions.Store(&s)
}

// Run starts the audio devices and drives listen/session cycles until
// Shutdown is called or ctx is cancelled. With wake detection disabled it
// opens a single session immediately and returns when that session ends.
//
// Session-level errors (connect failures, transport drops) are logged and
// end the cycle, never Run itself.
func (a *Assistant) Run(ctx context.Context) error {
	if !a.running.CompareAndSwap(false, true) {
		return fmt.Errorf("assistant: already running")
	}

	if err := a.capture.Start(); err != nil {
		return fmt.Errorf("assistant: start capture: %w", err)
	}
	if err := a.player.Start(); err != nil {
		_ = a.capture.Stop()
		return fmt.Errorf("assistant: start player: %w", err)
	}

	for a.running.Load() && ctx.Err() == nil {
		if a.detector != nil {
			label, ok := a.listen(ctx)
			if !ok {
				break
			}
			slog.Info("wake phrase detected", "label", label)
			a.metrics.RecordWakeDetection(ctx, label)
		}

		a.runSession(ctx)

		if a.detector == nil {
			break
		}
	}

	a.state.set(StateListening)
	return nil
}

// Shutdown stops the assistant: it clears the running flag, forces the
// listening state and stops the audio devices. It is idempotent and safe to
// call from any goroutine, including concurrently with Run. Before Run has
// started it is a no-op, so a later Run still gets a working shutdown path.
func (a *Assistant) Shutdown() error {
	if !a.running.Load() {
		return nil
	}
	var err error
	a.shutdownOnce.Do(func() {
		a.running.Store(false)
		a.state.set(StateListening)
		err = errors.Join(a.capture.Stop(), a.player.Stop())
	})
	return err
}

// listen feeds mic chunks to the wake detector until a phrase is detected or
// the assistant shuts down. The returned bool is false on shutdown.
func (a *Assistant) listen(ctx context.Context) (string, bool) {
	a.detector.Reset()
	for {
		if !a.running.Load() {
			return "", false
		}
		select {
		case <-ctx.Done():
			return "", false
		case chunk, ok := <-a.capture.Chunks():
			if !ok {
				return "", false
			}
			if label, hit := a.detector.ProcessAudio(chunk); hit {
				return label, true
			}
		}
	}
}

// runSession opens one live session and runs the outbound, inbound and
// watchdog loops until all three exit, then closes the session and returns
// the assistant to listening.
func (a *Assistant) runSession(ctx context.Context) {
	sessCtx, span := observe.StartSpan(ctx, "assistant.session")
	defer span.End()
	sessCtx, cancel := context.WithCancel(sessCtx)
	defer cancel()

	log := observe.Logger(sessCtx)

	a.state.set(StateActive)
	a.clock.touch()

	sess, err := a.provider.Connect(sessCtx, live.SessionConfig{
		Model:          a.cfg.Model,
		Instructions:   *a.instructions.Load(),
		SendSampleRate: a.cfg.SendSampleRate,
	})
	if err != nil {
		log.Error("live session connect failed", "err", err)
		a.metrics.RecordSessionOpened(sessCtx, "error")
		a.state.set(StateListening)
		return
	}
	a.metrics.RecordSessionOpened(sessCtx, "ok")
	a.metrics.ActiveSessions.Add(sessCtx, 1)
	opened := time.Now()
	log.Info("live session opened", "model", a.cfg.Model)

	g := new(errgroup.Group)
	g.Go(func() error { return a.sendLoop(sessCtx, sess) })
	g.Go(func() error { return a.receiveLoop(sessCtx, sess) })
	g.Go(func() error { return a.watchdog(sessCtx) })
	if err := g.Wait(); err != nil {
		log.Warn("session loop ended with error", "err", err)
	}

	_ = sess.Close()
	a.state.set(StateListening)
	a.metrics.ActiveSessions.Add(sessCtx, -1)
	a.metrics.SessionDuration.Record(sessCtx, time.Since(opened).Seconds())
	log.Info("live session closed", "duration", time.Since(opened))
}

// sendLoop relays mic chunks to the session while the assistant is active or
// the model is responding. It exits, without closing the session, when the
// running flag clears or the state returns to listening. Transport errors
// end the loop.
func (a *Assistant) sendLoop(ctx context.Context, sess live.SessionHandle) error {
	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()

	for {
		if !a.running.Load() || a.state.get() == StateListening {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			// Re-check the flag and state; the mic can be silent for a
			// long time while the model is speaking.
		case chunk, ok := <-a.capture.Chunks():
			if !ok {
				return nil
			}
			if err := sess.SendAudio(chunk); err != nil {
				return fmt.Errorf("assistant: send audio: %w", err)
			}
			a.clock.touch()
			a.metrics.ChunksSent.Add(ctx, 1)
		}
	}
}

// receiveLoop plays model audio and tracks turn boundaries. Model audio
// moves the state to responding; a completed turn moves it back to active
// and touches the activity clock. When the transport ends it forces the
// listening state so the other loops converge promptly instead of waiting
// for the inactivity timeout.
func (a *Assistant) receiveLoop(ctx context.Context, sess live.SessionHandle) error {
	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()

	for {
		if !a.running.Load() || a.state.get() == StateListening {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case msg, ok := <-sess.Messages():
			if !ok {
				a.state.set(StateListening)
				if err := sess.Err(); err != nil {
					return fmt.Errorf("assistant: session ended: %w", err)
				}
				return nil
			}
			if len(msg.Audio) > 0 {
				a.state.set(StateResponding)
				for _, pcm := range msg.Audio {
					a.play(ctx, pcm)
				}
			}
			if msg.TurnComplete {
				a.state.set(StateActive)
				a.clock.touch()
			}
		}
	}
}

// play resamples one inbound payload to the playback rate if needed and
// writes it to the output device. Playback errors are logged, not fatal:
// dropping a chunk of model speech is preferable to tearing the session down.
func (a *Assistant) play(ctx context.Context, pcm []byte) {
	if a.cfg.ReceiveSampleRate != a.cfg.PlaybackSampleRate {
		pcm = audio.ResampleMono16(pcm, a.cfg.ReceiveSampleRate, a.cfg.PlaybackSampleRate)
	}
	if err := a.player.Play(pcm); err != nil {
		observe.Logger(ctx).Warn("playback failed", "err", err, "bytes", len(pcm))
		return
	}
	a.metrics.ChunksReceived.Add(ctx, 1)
}

// watchdog closes out a session that has gone quiet. It only measures
// inactivity while the state is active; a responding session never times
// out, no matter how long the model speaks. On expiry it forces the
// listening state, which the pipelines observe at their next poll.
func (a *Assistant) watchdog(ctx context.Context) error {
	ticker := time.NewTicker(a.watchdogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if !a.running.Load() {
				return nil
			}
			switch a.state.get() {
			case StateListening:
				return nil
			case StateResponding:
				// The model is speaking; the clock is not consulted.
			case StateActive:
				timeout := time.Duration(a.sessionTimeout.Load())
				if elapsed := a.clock.elapsed(); elapsed >= timeout {
					slog.Info("session inactivity timeout", "elapsed", elapsed, "timeout", timeout)
					a.metrics.RecordInactivityTimeout(ctx)
					a.state.set(StateListening)
					return nil
				}
			}
		}
	}
}
