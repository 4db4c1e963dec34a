package audio

import (
	"testing"
	"time"
)

func TestSegmentEmptiness(t *testing.T) {
	var nilSegment *Segment
	if !nilSegment.IsEmpty() {
		t.Fatalf("expected nil segment to be empty")
	}
	if !(&Segment{}).IsEmpty() {
		t.Fatalf("expected zero segment to be empty")
	}
	if (&Segment{Bytes: []byte{0x01}}).IsEmpty() {
		t.Fatalf("expected segment with audio to be non-empty")
	}
}

func TestSegmentDuration(t *testing.T) {
	encodingInfo := GetDefaultEncodingInfo()

	// One second of 16kHz 16-bit mono audio.
	segment := &Segment{Bytes: make([]byte, DefaultSampleRate*2)}
	if duration := segment.Duration(encodingInfo); duration != time.Second {
		t.Fatalf("expected one second, got %v", duration)
	}

	if duration := (&Segment{}).Duration(encodingInfo); duration != 0 {
		t.Fatalf("expected zero duration for empty segment, got %v", duration)
	}
}
