package session

import (
	"github.com/medivoice/voice-core/core/backend"
	"github.com/medivoice/voice-core/core/events"
)

// Internal events carried on the runtime queue alongside the public ones.
// Commands originate from the public API; the remainder report the outcome
// of work the handlers fanned out to goroutines.
const (
	kindFlush                  events.Kind = "command.flush"
	kindEnableContinuous       events.Kind = "command.enable_continuous"
	kindDisableContinuous      events.Kind = "command.disable_continuous"
	kindSendText               events.Kind = "command.send_text"
	kindStartRecording         events.Kind = "command.start_recording"
	kindStopRecording          events.Kind = "command.stop_recording"
	kindClearHistory           events.Kind = "command.clear_history"
	kindChannelOpened          events.Kind = "continuous.channel_opened"
	kindChannelOpenFailed      events.Kind = "continuous.channel_open_failed"
	kindSegmentSendFailed      events.Kind = "continuous.segment_send_failed"
	kindTextExchangeCompleted  events.Kind = "exchange.text_completed"
	kindVoiceExchangeCompleted events.Kind = "exchange.voice_completed"
	kindSynthesisCompleted     events.Kind = "exchange.synthesis_completed"
)

// flushEvent is a queue barrier: handling it proves every event enqueued
// before it has been processed.
type flushEvent struct {
	events.Base
	done chan struct{}
}

func newFlushEvent(done chan struct{}) flushEvent {
	return flushEvent{Base: events.NewBase(kindFlush), done: done}
}

type enableContinuousCommand struct{ events.Base }

func newEnableContinuousCommand() enableContinuousCommand {
	return enableContinuousCommand{Base: events.NewBase(kindEnableContinuous)}
}

type disableContinuousCommand struct{ events.Base }

func newDisableContinuousCommand() disableContinuousCommand {
	return disableContinuousCommand{Base: events.NewBase(kindDisableContinuous)}
}

type textCommand struct {
	events.Base
	message string
}

func newTextCommand(message string) textCommand {
	return textCommand{Base: events.NewBase(kindSendText), message: message}
}

type startRecordingCommand struct{ events.Base }

func newStartRecordingCommand() startRecordingCommand {
	return startRecordingCommand{Base: events.NewBase(kindStartRecording)}
}

type stopRecordingCommand struct{ events.Base }

func newStopRecordingCommand() stopRecordingCommand {
	return stopRecordingCommand{Base: events.NewBase(kindStopRecording)}
}

type clearHistoryCommand struct{ events.Base }

func newClearHistoryCommand() clearHistoryCommand {
	return clearHistoryCommand{Base: events.NewBase(kindClearHistory)}
}

type channelOpened struct {
	events.Base
	channel Channel
}

func newChannelOpened(channel Channel) channelOpened {
	return channelOpened{Base: events.NewBase(kindChannelOpened), channel: channel}
}

type channelOpenFailed struct {
	events.Base
	err error
}

func newChannelOpenFailed(err error) channelOpenFailed {
	return channelOpenFailed{Base: events.NewBase(kindChannelOpenFailed), err: err}
}

type segmentSendFailed struct {
	events.Base
	err error
}

func newSegmentSendFailed(err error) segmentSendFailed {
	return segmentSendFailed{Base: events.NewBase(kindSegmentSendFailed), err: err}
}

type textExchangeCompleted struct {
	events.Base
	exchange *backend.Exchange
	err      error
}

func newTextExchangeCompleted(exchange *backend.Exchange, err error) textExchangeCompleted {
	return textExchangeCompleted{Base: events.NewBase(kindTextExchangeCompleted), exchange: exchange, err: err}
}

type voiceExchangeCompleted struct {
	events.Base
	placeholderID string
	exchange      *backend.VoiceExchange
	err           error
}

func newVoiceExchangeCompleted(placeholderID string, exchange *backend.VoiceExchange, err error) voiceExchangeCompleted {
	return voiceExchangeCompleted{
		Base:          events.NewBase(kindVoiceExchangeCompleted),
		placeholderID: placeholderID,
		exchange:      exchange,
		err:           err,
	}
}

type synthesisCompleted struct {
	events.Base
	audio []byte
	err   error
}

func newSynthesisCompleted(audio []byte, err error) synthesisCompleted {
	return synthesisCompleted{Base: events.NewBase(kindSynthesisCompleted), audio: audio, err: err}
}
