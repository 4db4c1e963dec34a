// Package backend implements the stateless request/response exchanges with
// the conversational service: text chat, one-shot voice, speech synthesis
// and history clearing.
//
// None of these calls are retried. A failed exchange is surfaced to the
// session (which renders it as an error turn) rather than replayed, so a
// spoken segment is never submitted twice.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/medivoice/voice-core/core/audio"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	textPath  = "/chat/text"
	voicePath = "/chat/voice"
	ttsPath   = "/tts"
	clearPath = "/chat/clear"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type ClientOption func(*Client)

// WithHTTPClient substitutes the underlying HTTP client, e.g. to tighten
// timeouts. The default client already carries the otel transport.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = httpClient }
}

// NewClient creates a backend client rooted at baseURL (e.g.
// "http://localhost:8000/api/med").
func NewClient(baseURL string, opts ...ClientOption) *Client {
	client := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// TextRequest is one text-chat exchange request.
type TextRequest struct {
	Message           string `json:"message"`
	SessionID         string `json:"session_id"`
	Language          string `json:"language"`
	UseStructuredFlow bool   `json:"use_question_flow"`
	UserIdentity      string `json:"username,omitempty"`
}

// Exchange is the backend's reply to a text exchange.
type Exchange struct {
	Response         string `json:"response"`
	Timestamp        string `json:"timestamp"`
	DetectedLanguage string `json:"detected_language"`
}

// VoiceExchange is the backend's reply to a one-shot voice exchange.
type VoiceExchange struct {
	Transcription    string `json:"transcription"`
	Response         string `json:"response"`
	Timestamp        string `json:"timestamp"`
	DetectedLanguage string `json:"detected_language"`
}

// SendText submits one user message and returns the assistant's reply.
func (c *Client) SendText(ctx context.Context, request TextRequest) (*Exchange, error) {
	ctx, span := tracer.Start(ctx, "send text exchange")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", request.SessionID))

	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("error marshalling text request: %w", err)
	}

	responseBody, err := c.post(ctx, textPath, "application/json", bytes.NewReader(body))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var exchange Exchange
	if err := json.Unmarshal(responseBody, &exchange); err != nil {
		return nil, fmt.Errorf("error unmarshalling text exchange: %w", err)
	}
	return &exchange, nil
}

// SendVoice submits one sealed audio segment as a multipart upload and
// returns the transcription together with the assistant's reply.
func (c *Client) SendVoice(ctx context.Context, sessionID string, segment *audio.Segment) (*VoiceExchange, error) {
	ctx, span := tracer.Start(ctx, "send voice exchange")
	defer span.End()
	span.SetAttributes(
		attribute.String("session.id", sessionID),
		attribute.Int("segment.bytes", len(segment.Bytes)),
	)

	if segment.IsEmpty() {
		return nil, fmt.Errorf("refusing to send empty segment")
	}

	form := &bytes.Buffer{}
	writer := multipart.NewWriter(form)
	audioPart, err := writer.CreateFormFile("audio", "recording.pcm")
	if err != nil {
		return nil, fmt.Errorf("error building voice form: %w", err)
	}
	if _, err := audioPart.Write(segment.Bytes); err != nil {
		return nil, fmt.Errorf("error writing voice form audio: %w", err)
	}
	if err := writer.WriteField("session_id", sessionID); err != nil {
		return nil, fmt.Errorf("error writing voice form session: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("error sealing voice form: %w", err)
	}

	responseBody, err := c.post(ctx, voicePath, writer.FormDataContentType(), form)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var exchange VoiceExchange
	if err := json.Unmarshal(responseBody, &exchange); err != nil {
		return nil, fmt.Errorf("error unmarshalling voice exchange: %w", err)
	}
	return &exchange, nil
}

// Synthesize asks the backend to speak a reply and returns the raw audio
// payload.
func (c *Client) Synthesize(ctx context.Context, sessionID, message, language string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "synthesize speech")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", sessionID))

	body, err := json.Marshal(struct {
		Message   string `json:"message"`
		SessionID string `json:"session_id"`
		Language  string `json:"language"`
	}{Message: message, SessionID: sessionID, Language: language})
	if err != nil {
		return nil, fmt.Errorf("error marshalling tts request: %w", err)
	}

	audioBytes, err := c.post(ctx, ttsPath, "application/json", bytes.NewReader(body))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return audioBytes, nil
}

// ClearHistory resets the session's conversation on the backend. Used when
// the continuous channel is not open; otherwise the equivalent
// clear_history message goes over the channel.
func (c *Client) ClearHistory(ctx context.Context, sessionID string) error {
	ctx, span := tracer.Start(ctx, "clear history")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", sessionID))

	body, err := json.Marshal(struct {
		SessionID string `json:"session_id"`
	}{SessionID: sessionID})
	if err != nil {
		return fmt.Errorf("error marshalling clear request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+clearPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("error creating clear request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if _, err := c.do(req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (c *Client) post(ctx context.Context, path, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyResponse(resp.StatusCode, responseBody)
	}

	return responseBody, nil
}

func classifyResponse(statusCode int, body []byte) error {
	if statusCode == http.StatusBadGateway || statusCode == http.StatusServiceUnavailable {
		return &ServiceUnavailableError{StatusCode: statusCode}
	}

	var errorPayload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &errorPayload); err != nil || errorPayload.Detail == "" {
		logger.Warn("Backend error without detail payload", "status", statusCode)
		errorPayload.Detail = http.StatusText(statusCode)
	}

	return &RemoteError{StatusCode: statusCode, Detail: errorPayload.Detail}
}
