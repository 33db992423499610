package desktop

import (
	"fmt"

	"github.com/nhle/mastodon-notify/internal/model"
)

// ActionResult is the outcome of a correlated signal: either Closed or
// Invoked.
type ActionResult interface {
	// Source returns the notification the signal referred to.
	Source() model.Notification
	isActionResult()
}

// Closed reports that a notification was closed.
type Closed struct {
	ID           uint32
	Notification model.Notification
	Reason       CloseReason
}

// Invoked reports that the user triggered an action on a notification.
type Invoked struct {
	ID           uint32
	Notification model.Notification
	Action       string
}

func (c Closed) Source() model.Notification  { return c.Notification }
func (i Invoked) Source() model.Notification { return i.Notification }

func (Closed) isActionResult()  {}
func (Invoked) isActionResult() {}

// CloseReason is the reason code of a NotificationClosed signal.
type CloseReason uint32

const (
	ReasonExpired   CloseReason = 1
	ReasonDismissed CloseReason = 2
	ReasonClosed    CloseReason = 3
	ReasonUndefined CloseReason = 4
)

func (r CloseReason) String() string {
	switch r {
	case ReasonExpired:
		return "expired"
	case ReasonDismissed:
		return "dismissed"
	case ReasonClosed:
		return "closed"
	case ReasonUndefined:
		return "undefined"
	default:
		return fmt.Sprintf("reason(%d)", uint32(r))
	}
}
