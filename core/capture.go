package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/medivoice/voice-core/core/audio"
)

// micGuard serializes microphone ownership across sessions in the same
// process. Capture backends misbehave when two streams open the same device.
var micGuard struct {
	mu     sync.Mutex
	holder *capturePipeline
}

// capturePipeline owns the microphone stream. Every captured chunk feeds the
// level meter; chunks are additionally buffered into the open segment while
// one exists. At most one segment is ever open.
type capturePipeline struct {
	// base stores the configured input client used for streaming audio.
	base AudioInput
	// fine is set when the input client supports explicit capture controls.
	fine AudioInputFine

	level *audio.LevelMeter

	capturing atomic.Bool

	mu           sync.Mutex
	cancelStream context.CancelFunc
	open         bool
	buf          []byte
	startedAt    time.Time
}

func newCapturePipeline(client AudioInput) *capturePipeline {
	pipeline := &capturePipeline{level: audio.NewLevelMeter()}
	pipeline.Set(client)
	return pipeline
}

func (p *capturePipeline) Set(client AudioInput) {
	if p == nil {
		return
	}

	p.base = client
	p.fine = nil
	if client == nil {
		return
	}

	if fine, ok := client.(AudioInputFine); ok {
		p.fine = fine
	}
}

func (p *capturePipeline) IsConfigured() bool { return p != nil && p.base != nil }

// Acquire claims the microphone for this pipeline and starts capturing. It
// fails with ErrMicrophoneHeld when another pipeline currently owns the
// device and ErrDeviceUnavailable when capture cannot start.
func (p *capturePipeline) Acquire(ctx context.Context) error {
	if !p.IsConfigured() {
		return ErrDeviceUnavailable
	}

	micGuard.mu.Lock()
	if micGuard.holder != nil && micGuard.holder != p {
		micGuard.mu.Unlock()
		return ErrMicrophoneHeld
	}
	micGuard.holder = p
	micGuard.mu.Unlock()

	if !p.capturing.CompareAndSwap(false, true) {
		return nil
	}

	if p.fine != nil {
		if err := p.fine.StartCapture(ctx, p.onChunk); err != nil {
			p.capturing.Store(false)
			p.releaseGuard()
			return fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
		}
		return nil
	}

	// Stream-only clients have no stop call; cancelling this context is the
	// only way Release can end the stream.
	streamCtx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	p.cancelStream = cancel
	p.mu.Unlock()

	go func() {
		defer cancel()
		if err := p.base.Stream(streamCtx, p.onChunk); err != nil {
			p.capturing.Store(false)
			logger.Error("Audio input stream failed", "error", err)
		}
	}()
	return nil
}

// Release stops capturing and gives the microphone back. Any open segment is
// discarded.
func (p *capturePipeline) Release() {
	if p == nil {
		return
	}

	if p.capturing.CompareAndSwap(true, false) {
		if p.fine != nil {
			if err := p.fine.StopCapture(); err != nil {
				logger.Warn("Failed to stop audio capture", "error", err)
			}
		}
		p.mu.Lock()
		cancel := p.cancelStream
		p.cancelStream = nil
		p.mu.Unlock()
		if cancel != nil {
			cancel()
		}
	}

	p.DiscardSegment()
	p.releaseGuard()
}

func (p *capturePipeline) releaseGuard() {
	micGuard.mu.Lock()
	if micGuard.holder == p {
		micGuard.holder = nil
	}
	micGuard.mu.Unlock()
}

func (p *capturePipeline) Close() {
	p.Release()
	if p.base != nil {
		p.base.Close()
	}
}

// BeginSegment opens a new segment unless one is already open. Opening is
// idempotent so a duplicate voice edge cannot fork the recording.
func (p *capturePipeline) BeginSegment() (opened bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.open {
		return false
	}

	p.open = true
	p.buf = nil
	p.startedAt = time.Now()
	return true
}

// EndSegment seals and returns the open segment. It returns nil when no
// segment is open or when nothing was captured; empty segments are never
// submitted anywhere.
func (p *capturePipeline) EndSegment() *audio.Segment {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.open {
		return nil
	}

	p.open = false
	buf := p.buf
	p.buf = nil
	if len(buf) == 0 {
		return nil
	}

	return &audio.Segment{
		Bytes:     buf,
		MIMEType:  p.EncodingInfo().MIMEType(),
		StartedAt: p.startedAt,
		StoppedAt: time.Now(),
	}
}

func (p *capturePipeline) DiscardSegment() {
	p.mu.Lock()
	p.open = false
	p.buf = nil
	p.mu.Unlock()
}

func (p *capturePipeline) SegmentOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

func (p *capturePipeline) Level() float64 { return p.level.Level() }

func (p *capturePipeline) EncodingInfo() audio.EncodingInfo {
	if p == nil || p.base == nil {
		return audio.GetDefaultEncodingInfo()
	}

	return p.base.EncodingInfo()
}

func (p *capturePipeline) onChunk(chunk []byte) {
	p.level.Update(chunk, p.EncodingInfo())

	p.mu.Lock()
	if p.open {
		p.buf = append(p.buf, chunk...)
	}
	p.mu.Unlock()
}
