package session

import (
	"github.com/medivoice/voice-core/core/backend"
	"github.com/medivoice/voice-core/core/events"
)

// handleEvent is the single dispatch point of the state machine. It runs
// exclusively on the runtime loop, so handlers mutate session state without
// further locking.
func (s *Session) handleEvent(event events.Event) {
	switch event := event.(type) {
	case flushEvent:
		close(event.done)

	case enableContinuousCommand:
		s.handleEnableContinuous()
	case disableContinuousCommand:
		s.handleDisableContinuous()
	case channelOpened:
		s.handleChannelOpened(event)
	case channelOpenFailed:
		s.handleChannelOpenFailed(event)
	case segmentSendFailed:
		s.handleSegmentSendFailed(event)

	case events.VoiceDetected:
		s.handleVoiceDetected()
	case events.SilenceObserved:
		s.handleSilenceObserved()
	case events.SilenceElapsed:
		s.handleSilenceElapsed(event)

	case events.TranscriptionReceived:
		s.handleTranscription(event)
	case events.ResponseReceived:
		s.handleResponse(event)
	case events.SpeechAudioReceived:
		s.handleSpeechAudio(event)
	case events.ChannelError:
		s.handleChannelError(event)
	case events.ChannelClosed:
		s.handleChannelClosed(event)
	case events.PlaybackFinished:
		s.handlePlaybackFinished()

	case textCommand:
		s.handleTextCommand(event)
	case textExchangeCompleted:
		s.handleTextExchangeCompleted(event)
	case startRecordingCommand:
		s.handleStartRecording()
	case stopRecordingCommand:
		s.handleStopRecording()
	case voiceExchangeCompleted:
		s.handleVoiceExchangeCompleted(event)
	case synthesisCompleted:
		s.handleSynthesisCompleted(event)
	case clearHistoryCommand:
		s.handleClearHistory()

	default:
		logger.Warn("Skipping event of unknown kind", "kind", event.Kind())
	}
}

// resumeAfterReply decides where the session goes once a reply has fully
// played (or was skipped). Voice detected while the assistant was busy
// flows straight into a new recording.
func (s *Session) resumeAfterReply() {
	if s.channel == nil {
		s.setMode(ModeIdle)
		return
	}

	if s.pendingVoice {
		s.pendingVoice = false
		s.capture.BeginSegment()
		s.setMode(ModeRecording)
		return
	}

	s.setMode(ModeListening)
}

func (s *Session) handleTextCommand(event textCommand) {
	if s.mode != ModeIdle && s.mode != ModeDisconnected {
		s.alert("cannot send a message while the session is busy")
		return
	}
	if s.backend == nil {
		s.alert("no backend configured")
		return
	}

	s.appendTurn(Turn{Role: TurnRoleUser, Content: event.message})
	s.setMode(ModeProcessing)

	request := backend.TextRequest{
		Message:           event.message,
		SessionID:         s.id,
		Language:          s.language,
		UseStructuredFlow: s.structuredFlow,
		UserIdentity:      s.userIdentity,
	}
	go func() {
		exchange, err := s.backend.SendText(s.baseContext, request)
		s.runtime.enqueue(newTextExchangeCompleted(exchange, err))
	}()
}

func (s *Session) handleTextExchangeCompleted(event textExchangeCompleted) {
	if s.mode != ModeProcessing {
		return
	}

	if event.err != nil {
		s.appendErrorTurn(event.err.Error())
		s.alert(event.err.Error())
		s.resumeAfterReply()
		return
	}

	s.appendTurn(Turn{
		Role:     TurnRoleAssistant,
		Content:  event.exchange.Response,
		Language: event.exchange.DetectedLanguage,
	})
	s.synthesizeReply(event.exchange.Response, event.exchange.DetectedLanguage)
}

// synthesizeReply fetches spoken audio for a reply obtained over the
// stateless API. The session stays in Processing until synthesis lands.
func (s *Session) synthesizeReply(message, language string) {
	if !s.speechOutput || s.backend == nil {
		s.resumeAfterReply()
		return
	}

	go func() {
		audioBytes, err := s.backend.Synthesize(s.baseContext, s.id, message, language)
		s.runtime.enqueue(newSynthesisCompleted(audioBytes, err))
	}()
}

func (s *Session) handleSynthesisCompleted(event synthesisCompleted) {
	if s.mode != ModeProcessing {
		return
	}

	if event.err != nil {
		// The reply text already landed as a turn; losing its audio is not
		// worth an error turn.
		s.alert(event.err.Error())
		s.resumeAfterReply()
		return
	}

	if s.playback.Enqueue(event.audio) {
		s.setMode(ModeSpeaking)
		return
	}
	s.resumeAfterReply()
}

func (s *Session) handleStartRecording() {
	if s.mode != ModeIdle && s.mode != ModeDisconnected {
		// In continuous modes the capture belongs to the channel flow and the
		// acquire done in StartRecording was a no-op on it; releasing here
		// would tear the live conversation's microphone down.
		if !s.mode.IsContinuous() {
			s.capture.Release()
		}
		s.alert("cannot start recording while the session is busy")
		return
	}

	s.capture.BeginSegment()
	s.setMode(ModeRecording)
}

func (s *Session) handleStopRecording() {
	// Continuous recordings are sealed by the silence window, not by hand.
	if s.mode != ModeRecording || s.channel != nil {
		return
	}

	segment := s.capture.EndSegment()
	s.capture.Release()
	if segment == nil {
		s.setMode(ModeIdle)
		return
	}
	if s.backend == nil {
		s.alert("no backend configured")
		s.setMode(ModeIdle)
		return
	}

	placeholder := s.turns.appendPlaceholder("…")
	if s.callbacks.onTurnAppended != nil {
		s.callbacks.onTurnAppended(placeholder)
	}
	s.placeholderID = placeholder.ID
	s.setMode(ModeProcessing)

	go func() {
		exchange, err := s.backend.SendVoice(s.baseContext, s.id, segment)
		s.runtime.enqueue(newVoiceExchangeCompleted(placeholder.ID, exchange, err))
	}()
}

func (s *Session) handleVoiceExchangeCompleted(event voiceExchangeCompleted) {
	if s.mode != ModeProcessing {
		return
	}
	s.placeholderID = ""

	if event.err != nil {
		s.appendErrorTurn(event.err.Error())
		s.alert(event.err.Error())
		s.resumeAfterReply()
		return
	}

	if confirmed, ok := s.turns.confirm(
		event.placeholderID, event.exchange.Transcription, event.exchange.DetectedLanguage,
	); ok && s.callbacks.onTurnUpdated != nil {
		s.callbacks.onTurnUpdated(confirmed)
	}

	s.appendTurn(Turn{
		Role:     TurnRoleAssistant,
		Content:  event.exchange.Response,
		Language: event.exchange.DetectedLanguage,
	})
	s.synthesizeReply(event.exchange.Response, event.exchange.DetectedLanguage)
}

func (s *Session) handlePlaybackFinished() {
	if s.mode != ModeSpeaking {
		return
	}
	// Replies may span several clips; wait for the last one.
	if s.playback.Busy() {
		return
	}

	s.resumeAfterReply()
}

func (s *Session) handleClearHistory() {
	s.turns.clear()
	s.placeholderID = ""

	if s.channel != nil {
		if err := s.channel.SendClearHistory(); err != nil {
			s.alert(err.Error())
		}
		return
	}

	if s.backend == nil {
		return
	}
	go func() {
		if err := s.backend.ClearHistory(s.baseContext, s.id); err != nil {
			s.alert(err.Error())
		}
	}()
}
