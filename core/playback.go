package session

import (
	"sync"
	"sync/atomic"
)

const playbackQueueCapacity = 16

// playbackQueue plays synthesized reply clips serially on the configured
// output client. Each enqueued clip produces exactly one onFinished call,
// including clips that error out or play on no output at all; the state
// machine relies on that to leave Speaking.
type playbackQueue struct {
	out AudioOutput

	queue   chan []byte
	closeCh chan struct{}
	done    chan struct{}

	closeOnce sync.Once

	muted   atomic.Bool
	pending atomic.Int32

	// onFinished is called from the playback worker after every clip.
	onFinished func()
}

func newPlaybackQueue(out AudioOutput, onFinished func()) *playbackQueue {
	if onFinished == nil {
		onFinished = func() {}
	}

	playback := &playbackQueue{
		out:        out,
		queue:      make(chan []byte, playbackQueueCapacity),
		closeCh:    make(chan struct{}),
		done:       make(chan struct{}),
		onFinished: onFinished,
	}
	go playback.playClips()
	return playback
}

// Enqueue schedules one clip for playback. Muted and closed queues drop the
// clip and report false; no completion fires for dropped clips.
func (p *playbackQueue) Enqueue(clip []byte) bool {
	if p == nil || p.muted.Load() {
		return false
	}

	p.pending.Add(1)
	select {
	case <-p.closeCh:
		p.pending.Add(-1)
		return false
	case p.queue <- clip:
		return true
	}
}

// Busy reports whether clips are still queued or playing.
func (p *playbackQueue) Busy() bool { return p != nil && p.pending.Load() > 0 }

// Mute drops newly enqueued clips. Clips already queued keep playing unless
// Clear is called too.
func (p *playbackQueue) Mute()   { p.muted.Store(true) }
func (p *playbackQueue) Unmute() { p.muted.Store(false) }

// Clear flushes buffered output on the client and drops queued clips. Each
// dropped clip still completes so Speaking cannot wedge.
func (p *playbackQueue) Clear() {
	if p == nil {
		return
	}

	if p.out != nil {
		p.out.ClearBuffer()
	}

	for {
		select {
		case <-p.queue:
			p.pending.Add(-1)
			p.onFinished()
		default:
			return
		}
	}
}

func (p *playbackQueue) Close() {
	if p == nil {
		return
	}

	p.closeOnce.Do(func() { close(p.closeCh) })
	<-p.done
}

func (p *playbackQueue) playClips() {
	defer close(p.done)

	for {
		select {
		case <-p.closeCh:
			return
		case clip := <-p.queue:
			p.play(clip)
			p.pending.Add(-1)
			p.onFinished()
		}
	}
}

// play pushes one clip to the output and waits for it to drain. Errors count
// as completion; a broken output device must not stall the conversation.
func (p *playbackQueue) play(clip []byte) {
	if p.out == nil {
		return
	}

	if err := p.out.SendAudio(clip); err != nil {
		logger.Warn("Failed to send clip to audio output", "error", err)
		return
	}
	if err := p.out.AwaitMark(); err != nil {
		logger.Warn("Failed to await clip playback", "error", err)
	}
}
