package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"agendio-push/internal/model"
)

// ProjectID is the Firebase project every message is sent through.
const ProjectID = "agendio-bf0af"

const fcmBaseURL = "https://fcm.googleapis.com"

// AccessTokenProvider mints bearer tokens for the FCM API.
type AccessTokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

// UpstreamError is returned when FCM answers with a non-2xx status.
// Body is FCM's response text, unmodified.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("fcm api error: status=%d body=%s", e.StatusCode, e.Body)
}

// FCMClient sends single-token messages through the FCM HTTP v1 API.
//
// Each Send asks the token provider for a bearer token, then issues exactly
// one POST. Nothing is retried and the HTTP client has no timeout of its own;
// the caller's context bounds the call.
type FCMClient struct {
	tokens     AccessTokenProvider
	httpClient *http.Client
	endpoint   string
}

// NewFCMClient creates a client that sends to projectID using tokens for auth.
func NewFCMClient(tokens AccessTokenProvider, projectID string) *FCMClient {
	log.Printf("[FCM] Initialized for project: %s", projectID)
	return NewFCMClientWithEndpoint(tokens, SendURL(fcmBaseURL, projectID))
}

// NewFCMClientWithEndpoint creates a client that posts to a full send URL,
// e.g. an emulator or test server.
func NewFCMClientWithEndpoint(tokens AccessTokenProvider, endpoint string) *FCMClient {
	return &FCMClient{
		tokens:     tokens,
		httpClient: &http.Client{},
		endpoint:   endpoint,
	}
}

// SendURL returns the messages:send endpoint for projectID under baseURL.
func SendURL(baseURL, projectID string) string {
	return fmt.Sprintf("%s/v1/projects/%s/messages:send", baseURL, projectID)
}

// Send delivers msg and returns FCM's JSON response.
// A non-2xx answer is reported as *UpstreamError; a 2xx answer whose body is
// not valid JSON is an ordinary error.
func (c *FCMClient) Send(ctx context.Context, msg *model.FCMMessage) (json.RawMessage, error) {
	accessToken, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(model.SendEnvelope{Message: msg})
	if err != nil {
		return nil, fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var out bytes.Buffer
	if err := json.Compact(&out, respBody); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return out.Bytes(), nil
}
