package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/medivoice/voice-core/core/audio"
)

// streamOnlyInput has no capture controls; ending the stream context is the
// only way to stop it.
type streamOnlyInput struct {
	stopped chan struct{}
}

func (i *streamOnlyInput) EncodingInfo() audio.EncodingInfo { return audio.GetDefaultEncodingInfo() }

func (i *streamOnlyInput) Stream(ctx context.Context, onAudio func(audio []byte)) error {
	<-ctx.Done()
	close(i.stopped)
	return nil
}

func (i *streamOnlyInput) Close() {}

func TestCaptureBuffersOnlyWhileSegmentOpen(t *testing.T) {
	input := &stubInput{}
	pipeline := newCapturePipeline(input)
	defer pipeline.Close()

	if err := pipeline.Acquire(context.Background()); err != nil {
		t.Fatalf("failed to acquire microphone: %v", err)
	}

	input.push([]byte{0x01, 0x02})
	if !pipeline.BeginSegment() {
		t.Fatalf("failed to open segment")
	}
	input.push([]byte{0x03, 0x04})

	segment := pipeline.EndSegment()
	if segment == nil {
		t.Fatalf("expected a sealed segment")
	}
	if len(segment.Bytes) != 2 || segment.Bytes[0] != 0x03 {
		t.Fatalf("expected only in-segment audio, got %v", segment.Bytes)
	}
}

func TestBeginSegmentIsIdempotent(t *testing.T) {
	pipeline := newCapturePipeline(&stubInput{})
	defer pipeline.Close()

	if !pipeline.BeginSegment() {
		t.Fatalf("failed to open segment")
	}
	if pipeline.BeginSegment() {
		t.Fatalf("opened a second segment over an open one")
	}
}

func TestEndSegmentWithoutAudioReturnsNil(t *testing.T) {
	pipeline := newCapturePipeline(&stubInput{})
	defer pipeline.Close()

	pipeline.BeginSegment()
	if segment := pipeline.EndSegment(); segment != nil {
		t.Fatalf("expected nil segment, got %+v", segment)
	}
	if segment := pipeline.EndSegment(); segment != nil {
		t.Fatalf("sealing twice returned a segment: %+v", segment)
	}
}

func TestMicrophoneGuardRejectsSecondPipeline(t *testing.T) {
	first := newCapturePipeline(&stubInput{})
	defer first.Close()
	second := newCapturePipeline(&stubInput{})
	defer second.Close()

	if err := first.Acquire(context.Background()); err != nil {
		t.Fatalf("failed to acquire microphone: %v", err)
	}
	if err := second.Acquire(context.Background()); !errors.Is(err, ErrMicrophoneHeld) {
		t.Fatalf("expected ErrMicrophoneHeld, got %v", err)
	}

	first.Release()
	if err := second.Acquire(context.Background()); err != nil {
		t.Fatalf("expected acquisition after release, got %v", err)
	}
}

func TestReleaseStopsStreamOnlyCapture(t *testing.T) {
	input := &streamOnlyInput{stopped: make(chan struct{})}
	pipeline := newCapturePipeline(input)

	if err := pipeline.Acquire(context.Background()); err != nil {
		t.Fatalf("failed to acquire microphone: %v", err)
	}
	pipeline.Release()

	select {
	case <-input.stopped:
	case <-time.After(2 * time.Second):
		t.Fatalf("capture stream kept running after release")
	}
}

func TestUnconfiguredPipelineReportsDeviceUnavailable(t *testing.T) {
	pipeline := newCapturePipeline(nil)

	if err := pipeline.Acquire(context.Background()); !errors.Is(err, ErrDeviceUnavailable) {
		t.Fatalf("expected ErrDeviceUnavailable, got %v", err)
	}
}
