package vad

import "testing"

func TestDetectorEmitsVoiceDetectedOnlyOnUpwardCrossing(t *testing.T) {
	detector := NewDetector(WithThreshold(0.5))

	observations := []Observation{
		detector.Observe(0.1, false),
		detector.Observe(0.9, false),
		detector.Observe(0.9, false),
		detector.Observe(0.1, false),
		detector.Observe(0.9, false),
	}

	expected := []Observation{
		ObservationNone,
		ObservationVoiceDetected,
		ObservationNone,
		ObservationNone,
		ObservationVoiceDetected,
	}
	for i, observation := range observations {
		if observation != expected[i] {
			t.Fatalf("tick %d: expected observation %v, got %v", i, expected[i], observation)
		}
	}
}

func TestDetectorEmitsSilenceOnlyWhileArmed(t *testing.T) {
	detector := NewDetector(WithThreshold(0.5))

	if got := detector.Observe(0.1, false); got != ObservationNone {
		t.Fatalf("expected no observation on silent tick while disarmed, got %v", got)
	}
	if got := detector.Observe(0.1, true); got != ObservationSilenceObserved {
		t.Fatalf("expected silence observed on silent tick while armed, got %v", got)
	}
	if got := detector.Observe(0.1, true); got != ObservationSilenceObserved {
		t.Fatalf("expected silence observed on every armed silent tick, got %v", got)
	}
}

func TestDetectorBoundaryLevelCountsAsSilence(t *testing.T) {
	detector := NewDetector(WithThreshold(0.5))

	if detector.Classify(0.5) {
		t.Fatalf("expected level at threshold to classify as silence")
	}
	if !detector.Classify(0.500001) {
		t.Fatalf("expected level above threshold to classify as voice")
	}
}

func TestDetectorResetRearmsVoiceEdge(t *testing.T) {
	detector := NewDetector(WithThreshold(0.5))

	if got := detector.Observe(0.9, false); got != ObservationVoiceDetected {
		t.Fatalf("expected initial voice detection, got %v", got)
	}

	detector.Reset()

	if got := detector.Observe(0.9, false); got != ObservationVoiceDetected {
		t.Fatalf("expected voice detection after reset without an intervening silent tick, got %v", got)
	}
}
