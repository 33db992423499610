package desktop

import (
	"context"
	"log"
	"math"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/nhle/mastodon-notify/internal/model"
	"github.com/nhle/mastodon-notify/internal/pending"
)

// maxTimeout is the longest timeout the Notify call can carry as int32
// milliseconds.
const maxTimeout = math.MaxInt32 * time.Millisecond

// clampTimeout bounds timeout to what the service accepts.
func clampTimeout(timeout time.Duration) time.Duration {
	return min(max(timeout, 0), maxTimeout)
}

// defaultActions offers a single "default" action, which most daemons map
// to clicking the notification body.
var defaultActions = []string{"default", "default"}

// Settings is the static configuration of the dispatcher and its store.
type Settings struct {
	// AppName is reported to the notification service with every request.
	AppName string

	// Grace is added to each notification's timeout before it is forgotten.
	Grace time.Duration
}

// DefaultSettings returns the application name and the standard grace
// period.
func DefaultSettings() Settings {
	return Settings{
		AppName: model.AppName,
		Grace:   pending.DefaultGrace,
	}
}

// Sender is the part of the notification service the dispatcher calls.
// *Bus implements it.
type Sender interface {
	Notify(ctx context.Context, req Request) (uint32, error)
	CloseNotification(ctx context.Context, id uint32) error
}

// Recorder journals a shown notification under its id.
type Recorder interface {
	Record(ctx context.Context, id uint32, n model.Notification) error
}

// Dispatcher shows notifications and records them in a pending store.
type Dispatcher struct {
	sender   Sender
	store    *pending.Store
	settings Settings
	recorder Recorder
}

// NewDispatcher creates a Dispatcher. A nil store gets a fresh one using
// the configured grace period.
func NewDispatcher(sender Sender, store *pending.Store, settings Settings) *Dispatcher {
	if settings.AppName == "" {
		settings.AppName = model.AppName
	}
	if store == nil {
		store = pending.New(settings.Grace)
	}
	return &Dispatcher{
		sender:   sender,
		store:    store,
		settings: settings,
	}
}

// Store returns the pending store shared with the correlator.
func (d *Dispatcher) Store() *pending.Store {
	return d.store
}

// SetRecorder makes Send journal each shown notification before it becomes
// pending, so an outcome can always find its row. Call it before the first
// Send.
func (d *Dispatcher) SetRecorder(r Recorder) {
	d.recorder = r
}

// request builds the Notify arguments for n.
func (d *Dispatcher) request(n model.Notification, icon string, timeout time.Duration) Request {
	return Request{
		AppName:    d.settings.AppName,
		ReplacesID: 0,
		Icon:       icon,
		Summary:    n.Summary(),
		Body:       n.Body(),
		Actions:    defaultActions,
		Hints:      map[string]dbus.Variant{},
		TimeoutMs:  int32(timeout / time.Millisecond),
	}
}

// Send shows n and remembers it under the id the service returns. Nothing is
// stored when the service call fails. The timeout is clamped to the int32
// milliseconds range of the Notify call.
func (d *Dispatcher) Send(
	ctx context.Context,
	n model.Notification,
	icon string,
	timeout time.Duration,
) (uint32, error) {
	timeout = clampTimeout(timeout)
	req := d.request(n, icon, timeout)

	id, err := d.sender.Notify(ctx, req)
	if err != nil {
		return 0, &DispatchError{Summary: req.Summary, Err: err}
	}

	if d.recorder != nil {
		if err := d.recorder.Record(ctx, id, n); err != nil {
			log.Printf("recording notification %d: %v", id, err)
		}
	}

	d.store.Insert(id, n, timeout)
	d.store.ScheduleExpiry(id, timeout)

	return id, nil
}

// Close asks the service to dismiss notification id. The store entry is
// removed when the resulting NotificationClosed signal is correlated.
func (d *Dispatcher) Close(ctx context.Context, id uint32) error {
	return d.sender.CloseNotification(ctx, id)
}
