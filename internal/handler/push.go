package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"agendio-push/internal/httputil"
	"agendio-push/internal/model"
	"agendio-push/internal/service"
)

// MissingTokenMessage is the exact body returned when token is absent.
const MissingTokenMessage = "Missing token"

// PushSender delivers one message to FCM and returns FCM's JSON response.
type PushSender interface {
	Send(ctx context.Context, msg *model.FCMMessage) (json.RawMessage, error)
}

type PushHandler struct {
	sender PushSender
}

func NewPushHandler(sender PushSender) *PushHandler {
	return &PushHandler{
		sender: sender,
	}
}

// Send handles the relay endpoint. Any method is accepted.
//
//	400 "Missing token"       token absent or empty
//	200 <FCM JSON>            FCM accepted the message
//	500 <FCM error text>      FCM answered non-2xx
//	500 <error string>        bad JSON, auth or network failure
func (h *PushHandler) Send(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	req, err := decodePushRequest(r.Body)
	if err != nil {
		log.Printf("[ERROR] Push relay: req=%s decode err=%v", reqID, err)
		httputil.WriteText(w, http.StatusInternalServerError, err.Error())
		return
	}

	if req.Token == "" {
		httputil.WriteText(w, http.StatusBadRequest, MissingTokenMessage)
		return
	}

	out, err := h.sender.Send(r.Context(), model.NewFCMMessage(req))
	if err != nil {
		var upstream *service.UpstreamError
		if errors.As(err, &upstream) {
			log.Printf("[ERROR] Push relay: req=%s fcm status=%d", reqID, upstream.StatusCode)
			httputil.WriteText(w, http.StatusInternalServerError, upstream.Body)
			return
		}
		log.Printf("[ERROR] Push relay: req=%s err=%v", reqID, err)
		httputil.WriteText(w, http.StatusInternalServerError, err.Error())
		return
	}

	log.Printf("[Push] Relayed: req=%s", reqID)
	httputil.WriteRawJSON(w, http.StatusOK, out)
}

// ServeHTTP lets the handler be registered directly as a serverless function.
func (h *PushHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.Send(w, r)
}

// decodePushRequest parses the whole body; trailing data after the JSON
// value is an error.
func decodePushRequest(body io.Reader) (model.PushRequest, error) {
	var req model.PushRequest

	raw, err := io.ReadAll(body)
	if err != nil {
		return req, fmt.Errorf("read body: %w", err)
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		return req, err
	}
	return req, nil
}
