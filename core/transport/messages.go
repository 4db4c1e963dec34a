package transport

// Message type tags, as spoken by the voice backend.
const (
	messageTypeAudioChunk   = "audio_chunk"
	messageTypeClearHistory = "clear_history"

	messageTypeTranscription = "transcription"
	messageTypeResponse      = "response"
	messageTypeTTSAudio      = "tts_audio"
	messageTypeError         = "error"
)

// OutboundMessage is one client-to-backend frame. Audio is base64-encoded
// for audio_chunk and absent otherwise.
type OutboundMessage struct {
	Type  string `json:"type"`
	Audio string `json:"audio,omitempty"`
}

// InboundMessage is one backend-to-client frame. Exactly one of the optional
// fields is populated depending on Type.
type InboundMessage struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Language string `json:"language,omitempty"`
	Audio    string `json:"audio,omitempty"`
	Message  string `json:"message,omitempty"`
}
