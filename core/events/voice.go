package events

const (
	// KindVoiceDetected identifies the amplitude signal crossing above the
	// energy threshold.
	KindVoiceDetected Kind = "voice.detected"
	// KindSilenceObserved identifies a tick at/below the threshold while a
	// recording is active.
	KindSilenceObserved Kind = "voice.silence_observed"
	// KindSilenceElapsed identifies an uninterrupted silence window running
	// out.
	KindSilenceElapsed Kind = "voice.silence_elapsed"
)

// VoiceDetected marks the amplitude signal crossing above the threshold.
type VoiceDetected struct {
	Base
	Level float64
}

// NewVoiceDetected creates a voice detected event.
func NewVoiceDetected(level float64) VoiceDetected {
	return VoiceDetected{Base: NewBase(KindVoiceDetected), Level: level}
}

// SilenceObserved marks a silent tick observed while recording.
type SilenceObserved struct {
	Base
	Level float64
}

// NewSilenceObserved creates a silence observed event.
func NewSilenceObserved(level float64) SilenceObserved {
	return SilenceObserved{Base: NewBase(KindSilenceObserved), Level: level}
}

// SilenceElapsed marks the expiry of the silence debounce timer. Epoch ties
// the expiry to the timer generation that armed it; a stale epoch is ignored
// by the state machine.
type SilenceElapsed struct {
	Base
	Epoch uint64
}

// NewSilenceElapsed creates a silence elapsed event.
func NewSilenceElapsed(epoch uint64) SilenceElapsed {
	return SilenceElapsed{Base: NewBase(KindSilenceElapsed), Epoch: epoch}
}
