package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// NotificationKind identifies what happened on the remote account.
type NotificationKind int

const (
	KindOther NotificationKind = iota
	KindMention
	KindFollow
	KindReblog
	KindFavourite
	KindStatus
)

// kindNames maps wire values to kinds. Lookups are case-insensitive.
var kindNames = map[string]NotificationKind{
	"mention":   KindMention,
	"follow":    KindFollow,
	"reblog":    KindReblog,
	"favourite": KindFavourite,
	"status":    KindStatus,
}

// ParseKind converts a wire value into a NotificationKind. Unknown values
// map to KindOther.
func ParseKind(s string) NotificationKind {
	if k, ok := kindNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return k
	}
	return KindOther
}

// String returns the wire value of the kind, or "other".
func (k NotificationKind) String() string {
	for name, kind := range kindNames {
		if kind == k {
			return name
		}
	}
	return "other"
}

// UnmarshalJSON decodes a kind from its string form. It never fails on an
// unrecognized value.
func (k *NotificationKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("notification type must be a string: %w", err)
	}
	*k = ParseKind(s)
	return nil
}

// MarshalJSON encodes the kind as its wire value.
func (k NotificationKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// Notification is a single event from the user's Mastodon stream.
type Notification struct {
	// Account is the actor who triggered the notification.
	Account Account `json:"account"`

	// Kind is the notification type.
	Kind NotificationKind `json:"type"`

	// Status is the post the notification refers to, if any.
	Status *Status `json:"status,omitempty"`
}

// Summary returns the short title shown by the desktop notification.
func (n Notification) Summary() string {
	name := n.Account.Name()
	switch n.Kind {
	case KindMention:
		return fmt.Sprintf("%s mentioned you", name)
	case KindFollow:
		return "Follow"
	case KindReblog:
		return fmt.Sprintf("%s boosted your status", name)
	case KindFavourite:
		return fmt.Sprintf("%s favourited your status", name)
	case KindStatus:
		return fmt.Sprintf("%s just posted", name)
	default:
		return ""
	}
}

// Body returns the longer notification text.
func (n Notification) Body() string {
	switch n.Kind {
	case KindMention, KindReblog, KindFavourite, KindStatus:
		if n.Status == nil {
			return ""
		}
		return n.Status.PlainContent()
	case KindFollow:
		return fmt.Sprintf("%s is now following you", n.Account.Name())
	default:
		return ""
	}
}

// URL returns the link to open when the notification is clicked. Only
// status-bearing kinds have one.
func (n Notification) URL() (string, bool) {
	switch n.Kind {
	case KindMention, KindReblog, KindFavourite, KindStatus:
		if n.Status == nil {
			return "", false
		}
		return n.Status.URL, true
	default:
		return "", false
	}
}
