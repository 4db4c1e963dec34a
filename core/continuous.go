package session

import (
	"fmt"
	"time"

	"github.com/medivoice/voice-core/core/events"
	"github.com/medivoice/voice-core/core/transport"
)

func (s *Session) handleEnableContinuous() {
	// Enabling mid-exchange is refused rather than queued; Processing and
	// Speaking settle back into an inactive mode on their own.
	if !s.mode.isInactive() {
		return
	}
	if s.dial == nil {
		s.alert("no voice channel endpoint configured")
		return
	}

	if err := s.capture.Acquire(s.baseContext); err != nil {
		s.alert(fmt.Sprintf("failed to open microphone: %v", err))
		return
	}

	s.pendingVoice = false
	s.setMode(ModeConnecting)

	dial := s.dial
	callbacks := s.channelCallbacks()
	go func() {
		channel, err := dial(s.baseContext, callbacks)
		if err != nil {
			s.runtime.enqueue(newChannelOpenFailed(err))
			return
		}
		s.runtime.enqueue(newChannelOpened(channel))
	}()
}

// channelCallbacks bridges the transport read loop onto the runtime queue.
// Ordering matters here: transcription, response and audio frames must reach
// the state machine in arrival order, so these block instead of dropping.
func (s *Session) channelCallbacks() transport.Callbacks {
	return transport.Callbacks{
		OnTranscription: func(text, language string) {
			s.runtime.enqueue(events.NewTranscriptionReceived(text, language))
		},
		OnResponse: func(text, language string) {
			s.runtime.enqueue(events.NewResponseReceived(text, language))
		},
		OnSpeechAudio: func(audio []byte) {
			s.runtime.enqueue(events.NewSpeechAudioReceived(audio))
		},
		OnError: func(message string) {
			s.runtime.enqueue(events.NewChannelError(message))
		},
		OnClosed: func(err error) {
			s.runtime.enqueue(events.NewChannelClosed(err))
		},
	}
}

func (s *Session) handleChannelOpened(event channelOpened) {
	// Disabled while the dial was in flight; the fresh channel is unwanted.
	if s.mode != ModeConnecting {
		event.channel.Close()
		return
	}

	s.channel = event.channel
	s.voiceLoop = newVADLoop(s.vad, s.vadInterval)
	s.voiceLoop.start(s.capture.Level, s.recordingArmed, func(event events.Event) {
		s.runtime.offer(event)
	})
	s.setMode(ModeListening)
}

func (s *Session) handleChannelOpenFailed(event channelOpenFailed) {
	if s.mode != ModeConnecting {
		return
	}

	// Nothing started yet, so there is nothing to halt over; the session
	// returns to its resting state and the user can simply retry.
	s.capture.Release()
	s.alert(fmt.Sprintf("failed to open voice channel: %v", event.err))
	s.setMode(ModeDisconnected)
}

func (s *Session) handleDisableContinuous() {
	if !s.mode.IsContinuous() {
		return
	}

	s.teardownContinuous()
	s.setMode(ModeDisconnected)
}

// teardownContinuous stops every moving part of continuous mode: the voice
// activity loop, the silence timer, the open recording, the microphone,
// queued playback and the channel itself.
func (s *Session) teardownContinuous() {
	if s.voiceLoop != nil {
		s.voiceLoop.stop()
		s.voiceLoop = nil
	}
	s.cancelSilenceTimer()
	s.pendingVoice = false
	s.placeholderID = ""
	s.capture.Release()
	s.playback.Clear()

	if s.channel != nil {
		if err := s.channel.Close(); err != nil {
			logger.Warn("Failed to close voice channel", "error", err)
		}
		s.channel = nil
	}
}

func (s *Session) handleVoiceDetected() {
	switch s.mode {
	case ModeListening:
		s.capture.BeginSegment()
		s.setMode(ModeRecording)

	case ModeSilencePending:
		// Speech resumed inside the debounce window; the pause was a breath,
		// not the end of the utterance.
		s.cancelSilenceTimer()
		s.setMode(ModeRecording)

	case ModeProcessing, ModeSpeaking:
		if s.channel != nil {
			s.pendingVoice = true
		}
	}
}

func (s *Session) handleSilenceObserved() {
	// A silent tick in SilencePending does not restart the timer; only
	// resumed speech does.
	if s.mode != ModeRecording {
		return
	}

	s.startSilenceTimer()
	s.setMode(ModeSilencePending)
}

func (s *Session) startSilenceTimer() {
	s.silenceEpoch++
	epoch := s.silenceEpoch
	s.silenceTimer = time.AfterFunc(s.silenceWindow, func() {
		s.runtime.enqueue(events.NewSilenceElapsed(epoch))
	})
}

// cancelSilenceTimer stops the debounce timer and bumps the epoch so an
// expiry already in flight is recognized as stale.
func (s *Session) cancelSilenceTimer() {
	if s.silenceTimer != nil {
		s.silenceTimer.Stop()
		s.silenceTimer = nil
	}
	s.silenceEpoch++
}

func (s *Session) handleSilenceElapsed(event events.SilenceElapsed) {
	if s.mode != ModeSilencePending || event.Epoch != s.silenceEpoch {
		return
	}
	s.silenceTimer = nil

	segment := s.capture.EndSegment()
	if segment == nil {
		// Nothing was captured; threshold flapping must not produce empty
		// submissions.
		s.setMode(ModeListening)
		return
	}

	placeholder := s.turns.appendPlaceholder("…")
	if s.callbacks.onTurnAppended != nil {
		s.callbacks.onTurnAppended(placeholder)
	}
	s.placeholderID = placeholder.ID
	s.setMode(ModeProcessing)

	// The websocket write must not run on the loop: backpressure on the
	// channel would stall tick and disconnect handling.
	channel := s.channel
	go func() {
		if err := channel.SendSegment(segment); err != nil {
			s.runtime.enqueue(newSegmentSendFailed(err))
		}
	}()
}

func (s *Session) handleSegmentSendFailed(event segmentSendFailed) {
	if s.channel == nil || s.mode != ModeProcessing {
		return
	}

	s.placeholderID = ""
	s.appendErrorTurn(event.err.Error())
	s.alert(event.err.Error())
	s.setMode(ModeListening)
}

func (s *Session) handleTranscription(event events.TranscriptionReceived) {
	if s.placeholderID == "" {
		return
	}

	confirmed, ok := s.turns.confirm(s.placeholderID, event.Text, event.Language)
	s.placeholderID = ""
	if ok && s.callbacks.onTurnUpdated != nil {
		s.callbacks.onTurnUpdated(confirmed)
	}
}

func (s *Session) handleResponse(event events.ResponseReceived) {
	if s.channel == nil || s.mode != ModeProcessing {
		return
	}

	s.appendTurn(Turn{
		Role:     TurnRoleAssistant,
		Content:  event.Text,
		Language: event.Language,
	})
}

func (s *Session) handleSpeechAudio(event events.SpeechAudioReceived) {
	if s.channel == nil || (s.mode != ModeProcessing && s.mode != ModeSpeaking) {
		return
	}

	if s.playback.Enqueue(event.Audio) {
		s.setMode(ModeSpeaking)
		return
	}
	if s.mode == ModeProcessing {
		// Muted playback dropped the clip; nothing left to wait for.
		s.resumeAfterReply()
	}
}

// handleChannelError deals with application-level errors the backend sends
// over the channel. These are recoverable: the error becomes a turn and the
// session goes back to listening.
func (s *Session) handleChannelError(event events.ChannelError) {
	if !s.mode.IsContinuous() || s.mode == ModeConnecting {
		return
	}

	s.appendErrorTurn(event.Message)
	s.alert(event.Message)

	s.cancelSilenceTimer()
	s.capture.DiscardSegment()
	s.pendingVoice = false
	s.placeholderID = ""
	s.setMode(ModeListening)
}

// handleChannelClosed deals with the transport dropping. Unlike channel
// errors this halts the session; the channel is not self-healing and only a
// fresh enable dials a new one.
func (s *Session) handleChannelClosed(event events.ChannelClosed) {
	if event.Err == nil {
		// Locally initiated close; teardown already ran.
		return
	}
	if !s.mode.IsContinuous() {
		return
	}

	s.teardownContinuous()
	s.alert(fmt.Sprintf("voice channel lost: %v", event.Err))
	s.setMode(ModeErrorHalted)
}
