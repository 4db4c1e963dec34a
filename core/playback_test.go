package session

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type countingOutput struct {
	stubOutput
	mu      sync.Mutex
	sendErr error
}

func (o *countingOutput) SendAudio(clip []byte) error {
	o.mu.Lock()
	sendErr := o.sendErr
	o.mu.Unlock()
	if sendErr != nil {
		return sendErr
	}
	return o.stubOutput.SendAudio(clip)
}

func awaitCompletions(t *testing.T, completions <-chan struct{}, want int) {
	t.Helper()
	for range want {
		select {
		case <-completions:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %d playback completions", want)
		}
	}
}

func TestPlaybackCompletesEveryClip(t *testing.T) {
	output := &countingOutput{}
	completions := make(chan struct{}, 8)
	playback := newPlaybackQueue(output, func() { completions <- struct{}{} })
	defer playback.Close()

	if !playback.Enqueue([]byte{0x01}) {
		t.Fatalf("failed to enqueue clip")
	}
	if !playback.Enqueue([]byte{0x02}) {
		t.Fatalf("failed to enqueue clip")
	}

	awaitCompletions(t, completions, 2)
	if playback.Busy() {
		t.Fatalf("expected idle queue after completions")
	}
	if output.clipCount() != 2 {
		t.Fatalf("expected two played clips, got %d", output.clipCount())
	}
}

func TestPlaybackErrorStillCompletes(t *testing.T) {
	output := &countingOutput{sendErr: errors.New("device gone")}
	completions := make(chan struct{}, 8)
	playback := newPlaybackQueue(output, func() { completions <- struct{}{} })
	defer playback.Close()

	if !playback.Enqueue([]byte{0x01}) {
		t.Fatalf("failed to enqueue clip")
	}

	awaitCompletions(t, completions, 1)
	if playback.Busy() {
		t.Fatalf("expected idle queue after a failed clip")
	}
}

func TestMutedPlaybackDropsClips(t *testing.T) {
	output := &countingOutput{}
	playback := newPlaybackQueue(output, nil)
	defer playback.Close()

	playback.Mute()
	if playback.Enqueue([]byte{0x01}) {
		t.Fatalf("muted queue accepted a clip")
	}
	if playback.Busy() {
		t.Fatalf("dropped clip left the queue busy")
	}

	playback.Unmute()
	if !playback.Enqueue([]byte{0x02}) {
		t.Fatalf("unmuted queue refused a clip")
	}
}

func TestPlaybackWithoutOutputStillCompletes(t *testing.T) {
	completions := make(chan struct{}, 8)
	playback := newPlaybackQueue(nil, func() { completions <- struct{}{} })
	defer playback.Close()

	if !playback.Enqueue([]byte{0x01}) {
		t.Fatalf("failed to enqueue clip")
	}
	awaitCompletions(t, completions, 1)
}
