package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/medivoice/voice-core/core/audio"
)

func TestSendTextRoundTrip(t *testing.T) {
	var received TextRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat/text" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		json.NewEncoder(w).Encode(Exchange{
			Response:         "Hi",
			Timestamp:        "2026-08-31T10:00:00Z",
			DetectedLanguage: "en",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	exchange, err := client.SendText(context.Background(), TextRequest{
		Message:           "Hello",
		SessionID:         "session-1",
		Language:          "auto",
		UseStructuredFlow: true,
		UserIdentity:      "pat@example.com",
	})
	if err != nil {
		t.Fatalf("expected exchange to succeed, got %v", err)
	}

	if received.Message != "Hello" || received.SessionID != "session-1" ||
		received.Language != "auto" || !received.UseStructuredFlow ||
		received.UserIdentity != "pat@example.com" {
		t.Fatalf("unexpected wire request: %+v", received)
	}
	if exchange.Response != "Hi" || exchange.DetectedLanguage != "en" {
		t.Fatalf("unexpected exchange: %+v", exchange)
	}
}

func TestSendVoiceBuildsMultipartForm(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/voice" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("failed to parse multipart form: %v", err)
			return
		}
		if got := r.FormValue("session_id"); got != "session-1" {
			t.Errorf("expected session_id field, got %q", got)
		}
		file, _, err := r.FormFile("audio")
		if err != nil {
			t.Errorf("expected audio file part: %v", err)
			return
		}
		payload, _ := io.ReadAll(file)
		if string(payload) != "pcm-bytes" {
			t.Errorf("unexpected audio payload: %q", payload)
		}
		json.NewEncoder(w).Encode(VoiceExchange{
			Transcription: "hello there",
			Response:      "hi",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	exchange, err := client.SendVoice(context.Background(), "session-1", &audio.Segment{Bytes: []byte("pcm-bytes")})
	if err != nil {
		t.Fatalf("expected voice exchange to succeed, got %v", err)
	}
	if exchange.Transcription != "hello there" || exchange.Response != "hi" {
		t.Fatalf("unexpected exchange: %+v", exchange)
	}
}

func TestSendVoiceRefusesEmptySegment(t *testing.T) {
	client := NewClient("http://unused.invalid")
	if _, err := client.SendVoice(context.Background(), "session-1", &audio.Segment{}); err == nil {
		t.Fatalf("expected empty segment to be refused")
	}
}

func TestSynthesizeReturnsRawAudio(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tts" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte{0xFF, 0xF3, 0x01})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	audioBytes, err := client.Synthesize(context.Background(), "session-1", "Hi", "en")
	if err != nil {
		t.Fatalf("expected synthesis to succeed, got %v", err)
	}
	if len(audioBytes) != 3 || audioBytes[0] != 0xFF {
		t.Fatalf("unexpected audio payload: %v", audioBytes)
	}
}

func TestClearHistorySendsDelete(t *testing.T) {
	var method, path string
	var received struct {
		SessionID string `json:"session_id"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		json.NewDecoder(r.Body).Decode(&received)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if err := client.ClearHistory(context.Background(), "session-1"); err != nil {
		t.Fatalf("expected clear to succeed, got %v", err)
	}
	if method != http.MethodDelete || path != "/chat/clear" {
		t.Fatalf("expected DELETE /chat/clear, got %s %s", method, path)
	}
	if received.SessionID != "session-1" {
		t.Fatalf("expected session_id in body, got %+v", received)
	}
}

func TestUnavailableBackendIsClassified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.SendText(context.Background(), TextRequest{Message: "Hello"})

	var unavailableErr *ServiceUnavailableError
	if !errors.As(err, &unavailableErr) {
		t.Fatalf("expected ServiceUnavailableError, got %v", err)
	}
	if unavailableErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", unavailableErr.StatusCode)
	}
}

func TestRemoteErrorDetailPassesThroughVerbatim(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"detail": "language not supported"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.SendText(context.Background(), TextRequest{Message: "Hello"})

	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if remoteErr.Detail != "language not supported" {
		t.Fatalf("expected verbatim detail, got %q", remoteErr.Detail)
	}
}

func TestRemoteErrorWithoutDetailFallsBackToStatusText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.SendText(context.Background(), TextRequest{Message: "Hello"})

	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if remoteErr.Detail != http.StatusText(http.StatusInternalServerError) {
		t.Fatalf("expected status text fallback, got %q", remoteErr.Detail)
	}
}
