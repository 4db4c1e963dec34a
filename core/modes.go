package session

// Mode is the session's conversational mode. It uniquely determines which
// transport messages are legal to send or receive; all transitions happen on
// the runtime loop.
type Mode string

const (
	// ModeDisconnected is the resting state without a continuous channel.
	ModeDisconnected Mode = "disconnected"
	// ModeConnecting means the continuous channel is being dialed.
	ModeConnecting Mode = "connecting"
	// ModeIdle is the steady non-continuous state (text and push-to-talk).
	ModeIdle Mode = "idle"
	// ModeListening means continuous mode is armed and waiting for voice.
	ModeListening Mode = "listening"
	// ModeRecording means an audio segment is open and buffering.
	ModeRecording Mode = "recording"
	// ModeSilencePending means silence was observed while recording and the
	// debounce timer is running.
	ModeSilencePending Mode = "silence_pending"
	// ModeProcessing means a sealed segment (or text message) is in flight.
	ModeProcessing Mode = "processing"
	// ModeSpeaking means a synthesized reply is playing.
	ModeSpeaking Mode = "speaking"
	// ModeErrorHalted is terminal until the user re-enables continuous mode.
	ModeErrorHalted Mode = "error_halted"
)

// isInactive reports whether no conversational machinery is running.
func (m Mode) isInactive() bool {
	return m == ModeDisconnected || m == ModeIdle || m == ModeErrorHalted
}

// IsContinuous reports whether the mode belongs to the active conversation
// flow between enabling and disabling continuous mode (push-to-talk passes
// through Recording and Processing too).
func (m Mode) IsContinuous() bool {
	switch m {
	case ModeConnecting, ModeListening, ModeRecording, ModeSilencePending,
		ModeProcessing, ModeSpeaking:
		return true
	}
	return false
}

// RecordingActive reports whether an open audio segment exists in this mode.
func (m Mode) RecordingActive() bool {
	return m == ModeRecording || m == ModeSilencePending
}
