package desktop

import (
	"context"
	"errors"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/nhle/mastodon-notify/internal/model"
)

// fakeSender records Notify calls and issues sequential ids.
type fakeSender struct {
	mu       sync.Mutex
	requests []Request
	closed   []uint32
	nextID   uint32
	fail     error
}

func (f *fakeSender) Notify(_ context.Context, req Request) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return 0, f.fail
	}
	f.requests = append(f.requests, req)
	f.nextID++
	return f.nextID, nil
}

func (f *fakeSender) CloseNotification(_ context.Context, id uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = append(f.closed, id)
	return nil
}

var errBusDown = errors.New("bus down")

func favourite() model.Notification {
	return model.Notification{
		Account: model.Account{ID: "1", Username: "alice"},
		Kind:    model.KindFavourite,
		Status:  &model.Status{ID: "2", URL: "https://x/1", Content: "<p>hi</p>"},
	}
}

func invokedSignal(id uint32, action string) *dbus.Signal {
	return &dbus.Signal{
		Path: notificationsPath,
		Name: signalActionInvoked,
		Body: []interface{}{id, action},
	}
}

func closedSignal(id, reason uint32) *dbus.Signal {
	return &dbus.Signal{
		Path: notificationsPath,
		Name: signalNotificationClosed,
		Body: []interface{}{id, reason},
	}
}
