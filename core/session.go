// Package session manages one continuous voice conversation: microphone
// capture, energy-based voice activity detection, the silence-debounced
// recording state machine, the persistent backend channel and playback of
// synthesized replies.
//
// All state transitions are serialized on a single runtime loop. Public
// methods enqueue commands onto that loop and return quickly; outcomes reach
// the caller through the registered callbacks.
package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/medivoice/voice-core/core/events"
	"github.com/medivoice/voice-core/core/transport"
	"github.com/medivoice/voice-core/core/vad"
)

const (
	// DefaultSilenceWindow is how long uninterrupted silence must last before
	// an open recording is sealed and submitted.
	DefaultSilenceWindow = 1500 * time.Millisecond
	// DefaultLanguage lets the backend detect the spoken language.
	DefaultLanguage = "auto"
)

type sessionCallbacks struct {
	onModeChanged  func(mode Mode)
	onTurnAppended func(turn Turn)
	onTurnUpdated  func(turn Turn)
	onAlert        func(message string)
}

type Session struct {
	id          string
	baseContext context.Context

	capture  *capturePipeline
	playback *playbackQueue
	audioOut AudioOutput
	backend  BackendClient
	dial     ChannelDialer

	runtime *sessionRuntime
	vad     *vad.Detector
	vadOpts []vad.Option

	turns turnLog

	language       string
	structuredFlow bool
	userIdentity   string
	speechOutput   bool
	channelURL     string
	vadInterval    time.Duration
	silenceWindow  time.Duration
	connectTimeout time.Duration

	callbacks sessionCallbacks

	closed atomic.Bool

	// modeMu guards mode for readers outside the runtime loop; the loop is
	// the only writer. Everything below mode is owned by the loop outright.
	modeMu sync.RWMutex
	mode   Mode

	channel       Channel
	voiceLoop     *vadLoop
	silenceTimer  *time.Timer
	silenceEpoch  uint64
	pendingVoice  bool
	placeholderID string
}

func NewSession(opts ...SessionOption) *Session {
	session := &Session{
		id:             uuid.NewString(),
		baseContext:    context.Background(),
		runtime:        newSessionRuntime(),
		mode:           ModeIdle,
		language:       DefaultLanguage,
		speechOutput:   true,
		vadInterval:    vad.DefaultInterval,
		silenceWindow:  DefaultSilenceWindow,
		connectTimeout: transport.DefaultConnectTimeout,
	}
	session.capture = newCapturePipeline(nil)

	for _, opt := range opts {
		opt(session)
	}

	session.vad = vad.NewDetector(session.vadOpts...)
	session.playback = newPlaybackQueue(session.audioOut, func() {
		go session.runtime.enqueue(events.NewPlaybackFinished())
	})
	if session.dial == nil && session.channelURL != "" {
		session.dial = defaultChannelDialer(session.channelURL, session.connectTimeout)
	}

	session.runtime.start(session)
	return session
}

func defaultChannelDialer(channelURL string, connectTimeout time.Duration) ChannelDialer {
	return func(ctx context.Context, callbacks transport.Callbacks) (Channel, error) {
		return transport.Dial(ctx, channelURL, callbacks,
			transport.WithConnectTimeout(connectTimeout))
	}
}

func (s *Session) ID() string { return s.id }

// Mode returns the current conversational mode.
func (s *Session) Mode() Mode {
	s.modeMu.RLock()
	defer s.modeMu.RUnlock()
	return s.mode
}

// Turns returns a deep copy of the conversation so far.
func (s *Session) Turns() []Turn { return s.turns.Snapshot() }

// VoiceLevel returns the most recent normalized microphone amplitude.
func (s *Session) VoiceLevel() float64 { return s.capture.Level() }

// SendText submits one user message. The user turn, the assistant's reply
// and any failure all arrive through the turn callbacks.
func (s *Session) SendText(message string) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	if message == "" {
		return fmt.Errorf("refusing to send empty message")
	}

	if !s.runtime.enqueue(newTextCommand(message)) {
		return ErrSessionClosed
	}
	return nil
}

// StartRecording begins a push-to-talk recording. It claims the microphone
// immediately so device failures surface to the caller; the recording itself
// starts on the runtime loop.
func (s *Session) StartRecording() error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	if mode := s.Mode(); mode.IsContinuous() {
		return fmt.Errorf("cannot start push-to-talk recording in mode %q", mode)
	}

	if err := s.capture.Acquire(s.baseContext); err != nil {
		return err
	}
	if !s.runtime.enqueue(newStartRecordingCommand()) {
		s.capture.Release()
		return ErrSessionClosed
	}
	return nil
}

// StopRecording seals the push-to-talk recording and submits it. An empty
// recording is discarded without a backend call.
func (s *Session) StopRecording() error {
	if s.closed.Load() {
		return ErrSessionClosed
	}

	if !s.runtime.enqueue(newStopRecordingCommand()) {
		return ErrSessionClosed
	}
	return nil
}

// EnableContinuousMode dials the backend channel and starts hands-free
// conversation. Also the way out of a halted session.
func (s *Session) EnableContinuousMode() error {
	if s.closed.Load() {
		return ErrSessionClosed
	}

	if !s.runtime.enqueue(newEnableContinuousCommand()) {
		return ErrSessionClosed
	}
	return nil
}

// DisableContinuousMode tears continuous mode down, discarding any open
// recording and in-flight reply.
func (s *Session) DisableContinuousMode() error {
	if s.closed.Load() {
		return ErrSessionClosed
	}

	if !s.runtime.enqueue(newDisableContinuousCommand()) {
		return ErrSessionClosed
	}
	return nil
}

// ClearHistory wipes the local turn log and resets the backend's view of the
// conversation.
func (s *Session) ClearHistory() error {
	if s.closed.Load() {
		return ErrSessionClosed
	}

	if !s.runtime.enqueue(newClearHistoryCommand()) {
		return ErrSessionClosed
	}
	return nil
}

// SetSpeechMuted toggles reply playback. Muting drops clips instead of
// queueing them; it does not cut off a clip already playing.
func (s *Session) SetSpeechMuted(muted bool) {
	if muted {
		s.playback.Mute()
	} else {
		s.playback.Unmute()
	}
}

// Close tears the session down. It drains commands already enqueued, then
// stops the runtime, playback and capture. Safe to call more than once.
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	s.runtime.enqueue(newDisableContinuousCommand())
	s.flushQueue()
	s.runtime.end()
	s.runtime.waitUntilEnded()
	s.playback.Close()
	s.capture.Close()
	return nil
}

// flushQueue blocks until every event enqueued before it has been handled.
func (s *Session) flushQueue() {
	done := make(chan struct{})
	if !s.runtime.enqueue(newFlushEvent(done)) {
		return
	}

	select {
	case <-done:
	case <-s.runtime.done:
	}
}

func (s *Session) setMode(mode Mode) {
	s.modeMu.Lock()
	previous := s.mode
	s.mode = mode
	s.modeMu.Unlock()

	if previous == mode {
		return
	}

	logger.Debug("Session mode changed", "from", previous, "to", mode)
	if s.callbacks.onModeChanged != nil {
		s.callbacks.onModeChanged(mode)
	}
}

// recordingArmed is sampled by the voice activity loop to decide whether
// silent ticks matter.
func (s *Session) recordingArmed() bool {
	return s.Mode().RecordingActive()
}

func (s *Session) appendTurn(turn Turn) {
	appended := s.turns.append(turn)
	if s.callbacks.onTurnAppended != nil {
		s.callbacks.onTurnAppended(appended)
	}
}

func (s *Session) appendErrorTurn(message string) {
	s.appendTurn(Turn{Role: TurnRoleAssistant, Content: message, IsError: true})
}

func (s *Session) alert(message string) {
	logger.Warn("Session alert", "message", message)
	if s.callbacks.onAlert != nil {
		s.callbacks.onAlert(message)
	}
}
