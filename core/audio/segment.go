package audio

import "time"

// Segment is one bounded span of captured audio representing a single
// utterance. It is created when recording starts and sealed when the silence
// debounce elapses or recording is forcibly stopped.
type Segment struct {
	Bytes     []byte
	MIMEType  string
	StartedAt time.Time
	StoppedAt time.Time
}

func (s *Segment) IsEmpty() bool {
	return s == nil || len(s.Bytes) == 0
}

func (s *Segment) Duration(encodingInfo EncodingInfo) time.Duration {
	if s.IsEmpty() || encodingInfo.IsZero() {
		return 0
	}

	return time.Duration(float64(len(s.Bytes)) /
		float64(encodingInfo.SampleRate) /
		float64(encodingInfo.Format.ByteSize()) *
		float64(time.Second))
}
