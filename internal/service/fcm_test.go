package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agendio-push/internal/model"
)

// =============================================================================
// Fakes
// =============================================================================

type fakeTokenProvider struct {
	accessTokenFn func(ctx context.Context) (string, error)
	calls         int
}

func (f *fakeTokenProvider) AccessToken(ctx context.Context) (string, error) {
	f.calls++
	if f.accessTokenFn != nil {
		return f.accessTokenFn(ctx)
	}
	return "test-access-token", nil
}

type capturedRequest struct {
	Method        string
	Path          string
	Authorization string
	ContentType   string
	Body          []byte
}

// newFCMServer starts a fake FCM endpoint that records the last request and
// answers with status and body.
func newFCMServer(t *testing.T, status int, body string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.Method = r.Method
		captured.Path = r.URL.Path
		captured.Authorization = r.Header.Get("Authorization")
		captured.ContentType = r.Header.Get("Content-Type")
		captured.Body, _ = io.ReadAll(r.Body)

		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func newTestClient(tokens AccessTokenProvider, baseURL string) *FCMClient {
	return NewFCMClientWithEndpoint(tokens, SendURL(baseURL, ProjectID))
}

func strPtr(s string) *string { return &s }

// =============================================================================
// Tests
// =============================================================================

func TestSendURL(t *testing.T) {
	assert.Equal(t,
		"https://fcm.googleapis.com/v1/projects/agendio-bf0af/messages:send",
		SendURL(fcmBaseURL, ProjectID))
}

func TestFCMClient_Send_Success(t *testing.T) {
	srv, captured := newFCMServer(t, http.StatusOK, "{\n  \"name\": \"projects/agendio-bf0af/messages/0:1500415314455276%31bd1c9631bd1c96\"\n}\n")
	tokens := &fakeTokenProvider{}
	client := newTestClient(tokens, srv.URL)

	msg := model.NewFCMMessage(model.PushRequest{
		Token: "device-token",
		Title: strPtr("Hi"),
		Data:  map[string]string{"appointment_id": "42"},
	})

	out, err := client.Send(context.Background(), msg)
	require.NoError(t, err)

	assert.Equal(t, `{"name":"projects/agendio-bf0af/messages/0:1500415314455276%31bd1c9631bd1c96"}`, string(out))
	assert.Equal(t, 1, tokens.calls)

	assert.Equal(t, http.MethodPost, captured.Method)
	assert.Equal(t, "/v1/projects/agendio-bf0af/messages:send", captured.Path)
	assert.Equal(t, "Bearer test-access-token", captured.Authorization)
	assert.Equal(t, "application/json", captured.ContentType)
	assert.JSONEq(t,
		`{"message":{"token":"device-token","notification":{"title":"Hi"},"data":{"appointment_id":"42"}}}`,
		string(captured.Body))
}

func TestFCMClient_Send_UpstreamError(t *testing.T) {
	fcmErr := `{"error":{"code":404,"message":"Requested entity was not found.","status":"NOT_FOUND"}}`
	srv, _ := newFCMServer(t, http.StatusNotFound, fcmErr)
	client := newTestClient(&fakeTokenProvider{}, srv.URL)

	out, err := client.Send(context.Background(), model.NewFCMMessage(model.PushRequest{Token: "stale"}))
	assert.Nil(t, out)

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusNotFound, upstream.StatusCode)
	assert.Equal(t, fcmErr, upstream.Body)
}

func TestFCMClient_Send_InvalidSuccessBody(t *testing.T) {
	srv, _ := newFCMServer(t, http.StatusOK, "not json")
	client := newTestClient(&fakeTokenProvider{}, srv.URL)

	_, err := client.Send(context.Background(), model.NewFCMMessage(model.PushRequest{Token: "abc"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse response")

	var upstream *UpstreamError
	assert.False(t, errors.As(err, &upstream))
}

func TestFCMClient_Send_TokenError(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	tokens := &fakeTokenProvider{
		accessTokenFn: func(ctx context.Context) (string, error) {
			return "", errors.New("get access token: invalid_grant")
		},
	}
	client := newTestClient(tokens, srv.URL)

	_, err := client.Send(context.Background(), model.NewFCMMessage(model.PushRequest{Token: "abc"}))
	require.EqualError(t, err, "get access token: invalid_grant")
	assert.Zero(t, hits.Load(), "FCM must not be called without a token")
}

func TestFCMClient_Send_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	client := newTestClient(&fakeTokenProvider{}, baseURL)

	_, err := client.Send(context.Background(), model.NewFCMMessage(model.PushRequest{Token: "abc"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "send request")
}

func TestFCMClient_Send_FreshTokenPerCall(t *testing.T) {
	srv, captured := newFCMServer(t, http.StatusOK, `{"name":"ok"}`)

	issued := 0
	tokens := &fakeTokenProvider{
		accessTokenFn: func(ctx context.Context) (string, error) {
			issued++
			return "token-" + string(rune('0'+issued)), nil
		},
	}
	client := newTestClient(tokens, srv.URL)

	for i := 0; i < 2; i++ {
		_, err := client.Send(context.Background(), model.NewFCMMessage(model.PushRequest{Token: "abc"}))
		require.NoError(t, err)
	}

	assert.Equal(t, 2, tokens.calls)
	assert.Equal(t, "Bearer token-2", captured.Authorization)
}

func TestUpstreamError_Message(t *testing.T) {
	err := &UpstreamError{StatusCode: 401, Body: "unauthorized"}
	assert.Equal(t, "fcm api error: status=401 body=unauthorized", err.Error())

	var target *UpstreamError
	assert.True(t, errors.As(fmt.Errorf("relay: %w", err), &target))
	assert.Equal(t, "unauthorized", target.Body)
}
