package session

import (
	"context"
	"time"

	"github.com/medivoice/voice-core/core/audio"
	"github.com/medivoice/voice-core/core/backend"
	"github.com/medivoice/voice-core/core/transport"
	"github.com/medivoice/voice-core/core/vad"
)

type SessionOption func(*Session)

// AudioInput is a capture client that streams microphone audio.
type AudioInput interface {
	EncodingInfo() audio.EncodingInfo
	Stream(ctx context.Context, onAudio func(audio []byte)) error
	Close()
}

// AudioInputFine is implemented by capture clients that support explicit
// start/stop controls, which the session prefers over open-ended streaming.
type AudioInputFine interface {
	StartCapture(ctx context.Context, onAudio func(audio []byte)) error
	StopCapture() error
}

// AudioOutput is a playback client that accepts raw audio and reports when
// its buffer has drained.
type AudioOutput interface {
	EncodingInfo() audio.EncodingInfo
	SendAudio(audio []byte) error
	ClearBuffer()
	AwaitMark() error
}

// BackendClient performs the stateless request/response exchanges with the
// conversational service.
type BackendClient interface {
	SendText(ctx context.Context, request backend.TextRequest) (*backend.Exchange, error)
	SendVoice(ctx context.Context, sessionID string, segment *audio.Segment) (*backend.VoiceExchange, error)
	Synthesize(ctx context.Context, sessionID, message, language string) ([]byte, error)
	ClearHistory(ctx context.Context, sessionID string) error
}

// Channel is the persistent continuous-mode connection to the backend.
type Channel interface {
	SendSegment(segment *audio.Segment) error
	SendClearHistory() error
	Close() error
}

// ChannelDialer opens a fresh continuous-mode channel. The session dials one
// per enable; channels are never reused across halts.
type ChannelDialer func(ctx context.Context, callbacks transport.Callbacks) (Channel, error)

func WithAudioInput(client AudioInput) SessionOption {
	return func(s *Session) { s.capture.Set(client) }
}

func WithAudioOutput(client AudioOutput) SessionOption {
	return func(s *Session) { s.audioOut = client }
}

func WithBackendClient(client BackendClient) SessionOption {
	return func(s *Session) { s.backend = client }
}

// WithBackendURL configures the default backend client rooted at baseURL.
func WithBackendURL(baseURL string) SessionOption {
	return func(s *Session) { s.backend = backend.NewClient(baseURL) }
}

// WithChannelURL sets the ws:// or wss:// endpoint the default dialer
// connects to when continuous mode is enabled.
func WithChannelURL(channelURL string) SessionOption {
	return func(s *Session) { s.channelURL = channelURL }
}

func WithChannelDialer(dialer ChannelDialer) SessionOption {
	return func(s *Session) { s.dial = dialer }
}

// WithLanguage fixes the exchange language instead of letting the backend
// detect it.
func WithLanguage(language string) SessionOption {
	return func(s *Session) { s.language = language }
}

// WithStructuredFlow asks the backend to run its guided question flow
// instead of free-form conversation.
func WithStructuredFlow(enabled bool) SessionOption {
	return func(s *Session) { s.structuredFlow = enabled }
}

// WithUserIdentity attaches a user identity to every exchange.
func WithUserIdentity(identity string) SessionOption {
	return func(s *Session) { s.userIdentity = identity }
}

// WithSpeechOutput controls whether replies to text and push-to-talk
// exchanges are synthesized and played back. Continuous-mode replies always
// arrive as audio over the channel.
func WithSpeechOutput(enabled bool) SessionOption {
	return func(s *Session) { s.speechOutput = enabled }
}

// WithVoiceThreshold overrides the energy threshold above which a sample
// counts as voice.
func WithVoiceThreshold(threshold float64) SessionOption {
	return func(s *Session) { s.vadOpts = append(s.vadOpts, vad.WithThreshold(threshold)) }
}

// WithVADInterval overrides the voice activity sampling cadence.
func WithVADInterval(interval time.Duration) SessionOption {
	return func(s *Session) { s.vadInterval = interval }
}

// WithSilenceWindow overrides how long uninterrupted silence must last
// before a recording is sealed.
func WithSilenceWindow(window time.Duration) SessionOption {
	return func(s *Session) { s.silenceWindow = window }
}

// WithConnectTimeout overrides the continuous channel handshake timeout.
func WithConnectTimeout(timeout time.Duration) SessionOption {
	return func(s *Session) { s.connectTimeout = timeout }
}

func WithModeChangedCallback(callback func(mode Mode)) SessionOption {
	return func(s *Session) { s.callbacks.onModeChanged = callback }
}

func WithTurnAppendedCallback(callback func(turn Turn)) SessionOption {
	return func(s *Session) { s.callbacks.onTurnAppended = callback }
}

// WithTurnUpdatedCallback registers a callback for placeholder turns whose
// transcription arrived after the fact.
func WithTurnUpdatedCallback(callback func(turn Turn)) SessionOption {
	return func(s *Session) { s.callbacks.onTurnUpdated = callback }
}

// WithAlertCallback registers a callback for user-facing failures that do
// not belong to any turn, e.g. a failed connection attempt.
func WithAlertCallback(callback func(message string)) SessionOption {
	return func(s *Session) { s.callbacks.onAlert = callback }
}
