// Package vad classifies amplitude samples as speech or silence.
//
// The detector only detects: it reports threshold crossings and silent ticks.
// When a recording actually stops — the debounce policy — is decided by the
// session state machine, so the silence window can be tuned without touching
// signal analysis.
package vad

import "time"

const (
	// DefaultThreshold is the empirical normalized-RMS energy above which a
	// sample counts as voice. Tunable, not derived.
	DefaultThreshold = 0.03
	// DefaultInterval is the detection tick cadence.
	DefaultInterval = 100 * time.Millisecond
)

// Observation is the edge-triggered outcome of one detection tick.
type Observation int

const (
	// ObservationNone means no event should reach the state machine.
	ObservationNone Observation = iota
	// ObservationVoiceDetected means the signal crossed above the threshold.
	ObservationVoiceDetected
	// ObservationSilenceObserved means a silent tick occurred while
	// observation was armed.
	ObservationSilenceObserved
)

type Detector struct {
	threshold float64

	wasVoice bool
}

type Option func(*Detector)

// WithThreshold overrides the energy threshold.
func WithThreshold(threshold float64) Option {
	return func(d *Detector) { d.threshold = threshold }
}

func NewDetector(opts ...Option) *Detector {
	detector := &Detector{threshold: DefaultThreshold}
	for _, opt := range opts {
		opt(detector)
	}
	return detector
}

func (d *Detector) Threshold() float64 { return d.threshold }

// Classify reports whether a single amplitude sample counts as voice.
func (d *Detector) Classify(level float64) bool {
	return level > d.threshold
}

// Observe classifies one tick's sample. VoiceDetected is emitted only on the
// upward crossing; SilenceObserved is emitted on every silent tick while
// armed (recording active). At most one observation per tick.
func (d *Detector) Observe(level float64, armed bool) Observation {
	hasVoice := d.Classify(level)

	if hasVoice {
		if d.wasVoice {
			return ObservationNone
		}
		d.wasVoice = true
		return ObservationVoiceDetected
	}

	d.wasVoice = false
	if armed {
		return ObservationSilenceObserved
	}
	return ObservationNone
}

// Reset clears the edge-tracking state, e.g. when listening restarts.
func (d *Detector) Reset() {
	d.wasVoice = false
}
