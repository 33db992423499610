package feed

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/nhle/mastodon-notify/internal/model"
)

// eventNotification is the only stream event decoded past the envelope.
const eventNotification = "notification"

// Envelope is the outer message of the Mastodon streaming API. Payload is
// itself a JSON document encoded as a string.
type Envelope struct {
	Event   string `json:"event"`
	Payload string `json:"payload"`
}

// IsNotification reports whether the envelope carries a notification.
func (e Envelope) IsNotification() bool {
	return strings.EqualFold(e.Event, eventNotification)
}

// ErrMissingField is wrapped by a DecodeError when a required field is
// absent or empty.
var ErrMissingField = errors.New("missing required field")

// rawEnvelope tells an absent field from an empty one.
type rawEnvelope struct {
	Event   *string `json:"event"`
	Payload *string `json:"payload"`
}

// rawNotification is the payload as received. Account and type are
// required; status is optional.
type rawNotification struct {
	Account *model.Account          `json:"account"`
	Kind    *model.NotificationKind `json:"type"`
	Status  *model.Status           `json:"status"`
}

func missing(field string) error {
	return fmt.Errorf("%w: %s", ErrMissingField, field)
}

func decodeEnvelope(data []byte) (Envelope, error) {
	var raw rawEnvelope
	if err := json.Unmarshal(data, &raw); err != nil {
		return Envelope{}, err
	}
	if raw.Event == nil {
		return Envelope{}, missing("event")
	}
	if raw.Payload == nil {
		return Envelope{}, missing("payload")
	}
	return Envelope{Event: *raw.Event, Payload: *raw.Payload}, nil
}

func decodePayload(payload string) (*model.Notification, error) {
	var raw rawNotification
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, err
	}
	if raw.Account == nil {
		return nil, missing("account")
	}
	if raw.Account.ID == "" {
		return nil, missing("account.id")
	}
	if raw.Account.Username == "" {
		return nil, missing("account.username")
	}
	if raw.Kind == nil {
		return nil, missing("type")
	}
	return &model.Notification{
		Account: *raw.Account,
		Kind:    *raw.Kind,
		Status:  raw.Status,
	}, nil
}

// Decode turns one websocket frame into a notification. It returns nil
// without error for non-text frames and for events other than
// notifications. An envelope without event or payload, or a notification
// without account or type, is a DecodeError.
func Decode(messageType int, data []byte) (*model.Notification, error) {
	if messageType != websocket.TextMessage {
		return nil, nil
	}

	env, err := decodeEnvelope(data)
	if err != nil {
		return nil, &DecodeError{Stage: StageEnvelope, Err: err}
	}
	if !env.IsNotification() {
		return nil, nil
	}

	n, err := decodePayload(env.Payload)
	if err != nil {
		return nil, &DecodeError{Stage: StagePayload, Err: err}
	}
	return n, nil
}
