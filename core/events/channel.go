package events

const (
	// KindTranscriptionReceived identifies a transcription of a submitted
	// segment delivered over the channel.
	KindTranscriptionReceived Kind = "channel.transcription"
	// KindResponseReceived identifies an assistant reply delivered over the
	// channel.
	KindResponseReceived Kind = "channel.response"
	// KindSpeechAudioReceived identifies synthesized reply audio delivered
	// over the channel.
	KindSpeechAudioReceived Kind = "channel.tts_audio"
	// KindChannelError identifies an application-level error message from the
	// backend. Recoverable, unlike channel closure.
	KindChannelError Kind = "channel.error"
	// KindChannelClosed identifies the channel dropping mid-session.
	KindChannelClosed Kind = "channel.closed"
)

// TranscriptionReceived carries the backend's transcription of the most
// recently submitted segment.
type TranscriptionReceived struct {
	Base
	Text     string
	Language string
}

// NewTranscriptionReceived creates a transcription received event.
func NewTranscriptionReceived(text, language string) TranscriptionReceived {
	return TranscriptionReceived{Base: NewBase(KindTranscriptionReceived), Text: text, Language: language}
}

// ResponseReceived carries an assistant reply.
type ResponseReceived struct {
	Base
	Text     string
	Language string
}

// NewResponseReceived creates a response received event.
func NewResponseReceived(text, language string) ResponseReceived {
	return ResponseReceived{Base: NewBase(KindResponseReceived), Text: text, Language: language}
}

// SpeechAudioReceived carries decoded synthesized speech for the latest
// reply.
type SpeechAudioReceived struct {
	Base
	Audio []byte
}

// NewSpeechAudioReceived creates a speech audio received event.
func NewSpeechAudioReceived(audio []byte) SpeechAudioReceived {
	return SpeechAudioReceived{Base: NewBase(KindSpeechAudioReceived), Audio: audio}
}

// ChannelError carries an application-level error reported by the backend.
type ChannelError struct {
	Base
	Message string
}

// NewChannelError creates a channel error event.
func NewChannelError(message string) ChannelError {
	return ChannelError{Base: NewBase(KindChannelError), Message: message}
}

// ChannelClosed marks the transport dropping. Err is nil on a clean close.
type ChannelClosed struct {
	Base
	Err error
}

// NewChannelClosed creates a channel closed event.
func NewChannelClosed(err error) ChannelClosed {
	return ChannelClosed{Base: NewBase(KindChannelClosed), Err: err}
}
