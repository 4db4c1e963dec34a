// Package transport carries the persistent continuous-mode channel between
// the session and the voice backend.
//
// The channel is per-session and not self-healing: once it drops, the
// session halts and the user must re-enable continuous mode, which dials a
// fresh channel. The stateless request/response exchanges live in
// core/backend instead.
package transport

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/medivoice/voice-core/core/audio"
	"go.opentelemetry.io/otel/codes"
)

const (
	// DefaultConnectTimeout bounds the websocket handshake.
	DefaultConnectTimeout = 5 * time.Second
	// DefaultPath is the backend's voice channel endpoint.
	DefaultPath = "/ws/voice"
)

var (
	// ErrConnectionTimeout is returned when the handshake does not complete
	// within the connect timeout.
	ErrConnectionTimeout = errors.New("transport: connection timed out")
	// ErrConnectionFailed is returned when the channel could not be opened at
	// all.
	ErrConnectionFailed = errors.New("transport: connection failed")
	// ErrChannelClosed is returned by sends after the channel has closed.
	ErrChannelClosed = errors.New("transport: channel closed")
)

// Callbacks receive inbound frames, decoded and dispatched in arrival order
// from the read loop. OnClosed fires exactly once, with nil on a clean
// close.
type Callbacks struct {
	OnTranscription func(text, language string)
	OnResponse      func(text, language string)
	OnSpeechAudio   func(audio []byte)
	OnError         func(message string)
	OnClosed        func(err error)
}

type Channel struct {
	conn   *websocket.Conn
	connMu sync.Mutex

	callbacks Callbacks

	closeOnce sync.Once
	closedCh  chan struct{}
}

type DialOption func(*dialOptions)

type dialOptions struct {
	connectTimeout time.Duration
}

// WithConnectTimeout overrides the handshake timeout.
func WithConnectTimeout(timeout time.Duration) DialOption {
	return func(o *dialOptions) { o.connectTimeout = timeout }
}

// Dial opens the continuous-mode channel and starts its read loop. channelURL
// is the full ws:// or wss:// address of the voice endpoint; it is dialed
// directly, not through the stateless API proxy.
func Dial(ctx context.Context, channelURL string, callbacks Callbacks, opts ...DialOption) (*Channel, error) {
	ctx, span := tracer.Start(ctx, "dial voice channel")
	defer span.End()

	options := dialOptions{connectTimeout: DefaultConnectTimeout}
	for _, opt := range opts {
		opt(&options)
	}

	dialer := websocket.Dialer{HandshakeTimeout: options.connectTimeout}
	dialCtx, cancel := context.WithTimeout(ctx, options.connectTimeout)
	defer cancel()

	conn, _, err := dialer.DialContext(dialCtx, channelURL, nil)
	if err != nil {
		recordedErr := classifyDialError(err)
		span.RecordError(recordedErr)
		span.SetStatus(codes.Error, recordedErr.Error())
		return nil, recordedErr
	}

	channel := &Channel{
		conn:      conn,
		callbacks: callbacks,
		closedCh:  make(chan struct{}),
	}
	go channel.readAndDispatchMessages(conn)

	return channel, nil
}

func classifyDialError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %w", ErrConnectionTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
}

// SendSegment transmits one sealed audio segment as an audio_chunk frame.
func (c *Channel) SendSegment(segment *audio.Segment) error {
	if segment.IsEmpty() {
		return fmt.Errorf("refusing to send empty segment")
	}

	return c.writeMessage(OutboundMessage{
		Type:  messageTypeAudioChunk,
		Audio: base64.StdEncoding.EncodeToString(segment.Bytes),
	})
}

// SendClearHistory asks the backend to reset the session's conversation.
func (c *Channel) SendClearHistory() error {
	return c.writeMessage(OutboundMessage{Type: messageTypeClearHistory})
}

func (c *Channel) writeMessage(message OutboundMessage) error {
	select {
	case <-c.closedCh:
		return ErrChannelClosed
	default:
	}

	c.connMu.Lock()
	defer c.connMu.Unlock()

	if err := c.conn.WriteJSON(message); err != nil {
		return fmt.Errorf("failed to write %s message: %w", message.Type, err)
	}
	return nil
}

// Close tears the channel down. The read loop's OnClosed still fires exactly
// once, reporting a clean close.
func (c *Channel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closedCh)

		c.connMu.Lock()
		defer c.connMu.Unlock()
		_ = c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		err = c.conn.Close()
	})
	return err
}

func (c *Channel) readAndDispatchMessages(conn *websocket.Conn) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			c.dispatchClosed(err)
			return
		}

		c.dispatchMessage(msg)
	}
}

func (c *Channel) dispatchClosed(err error) {
	select {
	case <-c.closedCh:
		// Local close, not a drop.
		err = nil
	default:
		c.closeOnce.Do(func() {
			close(c.closedCh)
			c.connMu.Lock()
			defer c.connMu.Unlock()
			_ = c.conn.Close()
		})
		if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
			err = nil
		} else {
			err = fmt.Errorf("%w: %w", ErrChannelClosed, err)
		}
	}

	if c.callbacks.OnClosed != nil {
		c.callbacks.OnClosed(err)
	}
}

func (c *Channel) dispatchMessage(msg []byte) {
	var parsedMsg InboundMessage
	if err := json.Unmarshal(msg, &parsedMsg); err != nil {
		logger.Warn("Failed to unmarshal channel message", "error", err)
		return
	}

	switch parsedMsg.Type {
	case messageTypeTranscription:
		if c.callbacks.OnTranscription != nil {
			c.callbacks.OnTranscription(parsedMsg.Text, parsedMsg.Language)
		}

	case messageTypeResponse:
		if c.callbacks.OnResponse != nil {
			c.callbacks.OnResponse(parsedMsg.Text, parsedMsg.Language)
		}

	case messageTypeTTSAudio:
		decoded, err := base64.StdEncoding.DecodeString(parsedMsg.Audio)
		if err != nil {
			logger.Warn("Failed to decode tts_audio payload", "error", err)
			return
		}
		if c.callbacks.OnSpeechAudio != nil {
			c.callbacks.OnSpeechAudio(decoded)
		}

	case messageTypeError:
		if c.callbacks.OnError != nil {
			c.callbacks.OnError(parsedMsg.Message)
		}

	default:
		logger.Warn("Skipping channel message of unknown type", "type", parsedMsg.Type)
	}
}
