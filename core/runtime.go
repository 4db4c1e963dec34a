package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/medivoice/voice-core/core/events"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const sessionEventQueueCapacity = 32

type queuedEvent struct {
	event    events.Event
	queuedAt time.Time
}

// sessionRuntime serializes all state machine work onto one loop. Everything
// that mutates session state goes through the queue; handlers never run
// concurrently with each other.
type sessionRuntime struct {
	queue   chan queuedEvent
	closeCh chan struct{}
	done    chan struct{}

	startOnce sync.Once
	endOnce   sync.Once

	started atomic.Bool
}

func newSessionRuntime() *sessionRuntime {
	return &sessionRuntime{
		queue:   make(chan queuedEvent, sessionEventQueueCapacity),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (runtime *sessionRuntime) start(session *Session) (started bool) {
	if runtime == nil || runtime.isClosed() {
		return false
	}

	runtime.startOnce.Do(func() {
		started = true
		runtime.started.Store(true)
		go func() {
			defer close(runtime.done)

			for {
				select {
				case <-runtime.closeCh:
					return
				case queuedEvent := <-runtime.queue:
					if runtime.isClosed() {
						return
					}
					runtime.processQueuedEvent(session, queuedEvent)
				}
			}
		}()
	})

	return started
}

func (runtime *sessionRuntime) end() {
	if runtime == nil {
		return
	}

	runtime.endOnce.Do(func() { close(runtime.closeCh) })
}

func (runtime *sessionRuntime) waitUntilEnded() {
	if runtime == nil {
		return
	}

	if runtime.started.Load() {
		<-runtime.done
	}
}

func (runtime *sessionRuntime) enqueue(event events.Event) bool {
	if runtime == nil || runtime.isClosed() {
		return false
	}

	queueItem := queuedEvent{event: event, queuedAt: time.Now()}
	select {
	case <-runtime.closeCh:
		return false
	case runtime.queue <- queueItem:
		return true
	}
}

// offer is the non-blocking variant of enqueue, for producers that must
// never stall even when the queue is saturated (the voice activity sampler,
// playback completion). A dropped tick is harmless; a blocked sampler is not.
func (runtime *sessionRuntime) offer(event events.Event) bool {
	if runtime == nil || runtime.isClosed() {
		return false
	}

	select {
	case runtime.queue <- queuedEvent{event: event, queuedAt: time.Now()}:
		return true
	default:
		return false
	}
}

func (runtime *sessionRuntime) isClosed() bool {
	if runtime == nil {
		return false
	}

	select {
	case <-runtime.closeCh:
		return true
	default:
		return false
	}
}

func (runtime *sessionRuntime) processQueuedEvent(session *Session, queuedEvent queuedEvent) {
	if runtime == nil || session == nil {
		return
	}

	_, span := tracer.Start(session.baseContext, "process session event")
	defer span.End()

	queuedTime := time.Since(queuedEvent.queuedAt).Seconds()
	span.SetAttributes(
		attribute.String("session.event.kind", string(queuedEvent.event.Kind())),
		attribute.Float64("session.event.queued_time", queuedTime),
	)
	span.AddEvent("taken out of queue", trace.WithAttributes(
		attribute.Float64("session.event.queued_time", queuedTime)))

	session.handleEvent(queuedEvent.event)
}
