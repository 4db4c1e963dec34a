package session

import "errors"

var (
	// ErrDeviceUnavailable means the microphone could not be acquired, either
	// because no device exists or because capture permission was denied.
	// Fatal to starting a recording; an already-open session is unaffected.
	ErrDeviceUnavailable = errors.New("session: audio device unavailable")

	// ErrSessionClosed is returned by commands issued after Close.
	ErrSessionClosed = errors.New("session: session closed")

	// ErrMicrophoneHeld means another session currently owns the microphone.
	ErrMicrophoneHeld = errors.New("session: microphone held by another session")
)
