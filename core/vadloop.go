package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/medivoice/voice-core/core/events"
	"github.com/medivoice/voice-core/core/vad"
)

// vadLoop samples the capture level on a fixed cadence and turns detector
// observations into state machine events. It runs only while continuous mode
// is active.
type vadLoop struct {
	detector *vad.Detector
	interval time.Duration

	stopCh chan struct{}
	done   chan struct{}

	started  atomic.Bool
	stopOnce sync.Once
}

func newVADLoop(detector *vad.Detector, interval time.Duration) *vadLoop {
	if interval <= 0 {
		interval = vad.DefaultInterval
	}

	return &vadLoop{
		detector: detector,
		interval: interval,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// start launches the sampling goroutine. level and armed are sampled each
// tick; emit delivers at most one event per tick.
func (l *vadLoop) start(level func() float64, armed func() bool, emit func(events.Event)) {
	l.detector.Reset()
	l.started.Store(true)

	go func() {
		defer close(l.done)

		ticker := time.NewTicker(l.interval)
		defer ticker.Stop()

		for {
			select {
			case <-l.stopCh:
				return
			case <-ticker.C:
				sample := level()
				switch l.detector.Observe(sample, armed()) {
				case vad.ObservationVoiceDetected:
					emit(events.NewVoiceDetected(sample))
				case vad.ObservationSilenceObserved:
					emit(events.NewSilenceObserved(sample))
				}
			}
		}
	}()
}

func (l *vadLoop) stop() {
	if l == nil {
		return
	}

	l.stopOnce.Do(func() { close(l.stopCh) })
	if l.started.Load() {
		<-l.done
	}
}
