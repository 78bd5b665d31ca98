package model

// PushRequest is the inbound relay request body.
// Title and Body are pointers so an omitted field stays omitted in the
// outbound message while an explicit "" is forwarded as-is.
type PushRequest struct {
	Token string            `json:"token"`
	Title *string           `json:"title,omitempty"`
	Body  *string           `json:"body,omitempty"`
	Data  map[string]string `json:"data,omitempty"`
}

// Notification is the visible part of an FCM message.
type Notification struct {
	Title *string `json:"title,omitempty"`
	Body  *string `json:"body,omitempty"`
}

// FCMMessage is the "message" object of an FCM HTTP v1 send request.
// Data is always serialised, as {} when there is no payload.
type FCMMessage struct {
	Token        string            `json:"token"`
	Notification *Notification     `json:"notification,omitempty"`
	Data         map[string]string `json:"data"`
}

// SendEnvelope is the body POSTed to projects/{id}/messages:send.
type SendEnvelope struct {
	Message *FCMMessage `json:"message"`
}

// NewFCMMessage builds the outbound message for req.
// The notification block is included only when title or body is non-empty;
// a title-only request still gets one.
func NewFCMMessage(req PushRequest) *FCMMessage {
	msg := &FCMMessage{
		Token: req.Token,
		Data:  req.Data,
	}
	if msg.Data == nil {
		msg.Data = map[string]string{}
	}

	if nonEmpty(req.Title) || nonEmpty(req.Body) {
		msg.Notification = &Notification{
			Title: req.Title,
			Body:  req.Body,
		}
	}
	return msg
}

func nonEmpty(s *string) bool {
	return s != nil && *s != ""
}
