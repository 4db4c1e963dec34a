package events

const (
	// KindPlaybackFinished identifies completion of one synthesized-speech
	// clip, including clips that errored out.
	KindPlaybackFinished Kind = "playback.finished"
)

// PlaybackFinished marks one clip finishing playback. Emitted exactly once
// per clip.
type PlaybackFinished struct{ Base }

// NewPlaybackFinished creates a playback finished event.
func NewPlaybackFinished() PlaybackFinished {
	return PlaybackFinished{Base: NewBase(KindPlaybackFinished)}
}
