package transport

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/medivoice/voice-core/core/audio"
)

type channelTestServer struct {
	*httptest.Server

	mu       sync.Mutex
	conn     *websocket.Conn
	received []OutboundMessage
	connCh   chan struct{}
}

func newChannelTestServer(t *testing.T) *channelTestServer {
	t.Helper()

	server := &channelTestServer{connCh: make(chan struct{})}
	upgrader := websocket.Upgrader{}

	server.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("failed to upgrade test connection: %v", err)
			return
		}

		server.mu.Lock()
		server.conn = conn
		server.mu.Unlock()
		close(server.connCh)

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var parsed OutboundMessage
			if err := json.Unmarshal(msg, &parsed); err != nil {
				t.Errorf("failed to parse outbound message: %v", err)
				continue
			}
			server.mu.Lock()
			server.received = append(server.received, parsed)
			server.mu.Unlock()
		}
	}))
	t.Cleanup(server.Close)

	return server
}

func (s *channelTestServer) url() string {
	return "ws" + strings.TrimPrefix(s.URL, "http") + DefaultPath
}

func (s *channelTestServer) push(t *testing.T, message InboundMessage) {
	t.Helper()

	select {
	case <-s.connCh:
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for server-side connection")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.WriteJSON(message); err != nil {
		t.Fatalf("failed to push inbound message: %v", err)
	}
}

func (s *channelTestServer) outbound() []OutboundMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	messages := make([]OutboundMessage, len(s.received))
	copy(messages, s.received)
	return messages
}

func TestChannelDispatchesTaggedInboundMessages(t *testing.T) {
	server := newChannelTestServer(t)

	type dispatched struct {
		kind, text, language, message string
		audio                         []byte
	}
	dispatchedCh := make(chan dispatched, 4)

	channel, err := Dial(context.Background(), server.url(), Callbacks{
		OnTranscription: func(text, language string) {
			dispatchedCh <- dispatched{kind: "transcription", text: text, language: language}
		},
		OnResponse: func(text, language string) {
			dispatchedCh <- dispatched{kind: "response", text: text, language: language}
		},
		OnSpeechAudio: func(audio []byte) {
			dispatchedCh <- dispatched{kind: "tts_audio", audio: audio}
		},
		OnError: func(message string) {
			dispatchedCh <- dispatched{kind: "error", message: message}
		},
	})
	if err != nil {
		t.Fatalf("expected dial to succeed, got %v", err)
	}
	defer channel.Close()

	server.push(t, InboundMessage{Type: "transcription", Text: "hello there", Language: "en"})
	server.push(t, InboundMessage{Type: "response", Text: "hi", Language: "en"})
	server.push(t, InboundMessage{Type: "tts_audio", Audio: base64.StdEncoding.EncodeToString([]byte{0x01, 0x02})})
	server.push(t, InboundMessage{Type: "error", Message: "backend down"})

	expectDispatch := func(expected dispatched) {
		t.Helper()
		select {
		case got := <-dispatchedCh:
			if got.kind != expected.kind || got.text != expected.text ||
				got.language != expected.language || got.message != expected.message {
				t.Fatalf("expected dispatch %+v, got %+v", expected, got)
			}
			if expected.kind == "tts_audio" && (len(got.audio) != 2 || got.audio[0] != 0x01) {
				t.Fatalf("expected decoded audio payload, got %v", got.audio)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %s dispatch", expected.kind)
		}
	}

	expectDispatch(dispatched{kind: "transcription", text: "hello there", language: "en"})
	expectDispatch(dispatched{kind: "response", text: "hi", language: "en"})
	expectDispatch(dispatched{kind: "tts_audio"})
	expectDispatch(dispatched{kind: "error", message: "backend down"})
}

func TestChannelSendSegmentEncodesAudioChunk(t *testing.T) {
	server := newChannelTestServer(t)

	channel, err := Dial(context.Background(), server.url(), Callbacks{})
	if err != nil {
		t.Fatalf("expected dial to succeed, got %v", err)
	}
	defer channel.Close()

	segment := &audio.Segment{Bytes: []byte("pcm-bytes"), MIMEType: "audio/pcm;rate=16000"}
	if err := channel.SendSegment(segment); err != nil {
		t.Fatalf("expected send to succeed, got %v", err)
	}
	if err := channel.SendClearHistory(); err != nil {
		t.Fatalf("expected clear history send to succeed, got %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for {
		messages := server.outbound()
		if len(messages) == 2 {
			if messages[0].Type != "audio_chunk" {
				t.Fatalf("expected first message to be audio_chunk, got %q", messages[0].Type)
			}
			decoded, err := base64.StdEncoding.DecodeString(messages[0].Audio)
			if err != nil || string(decoded) != "pcm-bytes" {
				t.Fatalf("expected base64 pcm payload, got %q (%v)", messages[0].Audio, err)
			}
			if messages[1].Type != "clear_history" || messages[1].Audio != "" {
				t.Fatalf("expected bare clear_history message, got %+v", messages[1])
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for outbound messages, got %d", len(messages))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestChannelRefusesEmptySegment(t *testing.T) {
	server := newChannelTestServer(t)

	channel, err := Dial(context.Background(), server.url(), Callbacks{})
	if err != nil {
		t.Fatalf("expected dial to succeed, got %v", err)
	}
	defer channel.Close()

	if err := channel.SendSegment(&audio.Segment{}); err == nil {
		t.Fatalf("expected empty segment send to fail")
	}

	time.Sleep(20 * time.Millisecond)
	if got := len(server.outbound()); got != 0 {
		t.Fatalf("expected no outbound messages, got %d", got)
	}
}

func TestChannelReportsRemoteDropOnceAndFailsLaterSends(t *testing.T) {
	server := newChannelTestServer(t)

	closedCh := make(chan error, 2)
	channel, err := Dial(context.Background(), server.url(), Callbacks{
		OnClosed: func(err error) { closedCh <- err },
	})
	if err != nil {
		t.Fatalf("expected dial to succeed, got %v", err)
	}

	select {
	case <-server.connCh:
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for server-side connection")
	}
	server.mu.Lock()
	server.conn.Close()
	server.mu.Unlock()

	select {
	case err := <-closedCh:
		if !errors.Is(err, ErrChannelClosed) {
			t.Fatalf("expected dropped channel error, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for closed callback")
	}

	if err := channel.SendClearHistory(); !errors.Is(err, ErrChannelClosed) {
		t.Fatalf("expected send after drop to fail with ErrChannelClosed, got %v", err)
	}

	select {
	case err := <-closedCh:
		t.Fatalf("expected closed callback exactly once, got second call with %v", err)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestChannelLocalCloseReportsCleanClosure(t *testing.T) {
	server := newChannelTestServer(t)

	closedCh := make(chan error, 1)
	channel, err := Dial(context.Background(), server.url(), Callbacks{
		OnClosed: func(err error) { closedCh <- err },
	})
	if err != nil {
		t.Fatalf("expected dial to succeed, got %v", err)
	}

	if err := channel.Close(); err != nil {
		t.Fatalf("expected close to succeed, got %v", err)
	}

	select {
	case err := <-closedCh:
		if err != nil {
			t.Fatalf("expected clean closure to report nil, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for closed callback")
	}
}

func TestDialFailureIsClassified(t *testing.T) {
	_, err := Dial(context.Background(), "ws://127.0.0.1:1/ws/voice", Callbacks{},
		WithConnectTimeout(200*time.Millisecond))
	if err == nil {
		t.Fatalf("expected dial to an unreachable address to fail")
	}
	if !errors.Is(err, ErrConnectionFailed) && !errors.Is(err, ErrConnectionTimeout) {
		t.Fatalf("expected a classified connection error, got %v", err)
	}
}

func TestWireSchemasDescribeMessageFields(t *testing.T) {
	outbound, err := json.Marshal(OutboundSchema())
	if err != nil {
		t.Fatalf("failed to marshal outbound schema: %v", err)
	}
	for _, field := range []string{"type", "audio"} {
		if !strings.Contains(string(outbound), `"`+field+`"`) {
			t.Fatalf("expected outbound schema to describe %q, got %s", field, outbound)
		}
	}

	inbound, err := json.Marshal(InboundSchema())
	if err != nil {
		t.Fatalf("failed to marshal inbound schema: %v", err)
	}
	for _, field := range []string{"type", "text", "language", "audio", "message"} {
		if !strings.Contains(string(inbound), `"`+field+`"`) {
			t.Fatalf("expected inbound schema to describe %q, got %s", field, inbound)
		}
	}
}
