package desktop

import (
	"context"

	"github.com/godbus/dbus/v5"

	"github.com/nhle/mastodon-notify/internal/pending"
)

// signalBuffer is the capacity of signal and result channels.
const signalBuffer = 16

// Correlator turns notification service signals into ActionResults for
// notifications that are still pending.
type Correlator struct {
	store *pending.Store
}

// NewCorrelator creates a Correlator over store.
func NewCorrelator(store *pending.Store) *Correlator {
	return &Correlator{store: store}
}

// Stream consumes signals until ctx is done or signals is closed, emitting
// one result per signal whose id was still pending. The returned channel is
// closed when Stream stops.
func (c *Correlator) Stream(ctx context.Context, signals <-chan *dbus.Signal) <-chan ActionResult {
	out := make(chan ActionResult, signalBuffer)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case sig, ok := <-signals:
				if !ok {
					return
				}
				result, ok := c.Correlate(sig)
				if !ok {
					continue
				}
				select {
				case out <- result:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}

// Correlate maps one signal to a result. It reports false for signals of
// another kind, malformed bodies, and ids that are no longer pending.
func (c *Correlator) Correlate(sig *dbus.Signal) (ActionResult, bool) {
	if sig == nil {
		return nil, false
	}

	switch sig.Name {
	case signalActionInvoked:
		id, action, ok := actionInvokedBody(sig.Body)
		if !ok {
			return nil, false
		}
		n, found := c.store.Remove(id)
		if !found {
			return nil, false
		}
		return Invoked{ID: id, Notification: n, Action: action}, true

	case signalNotificationClosed:
		id, reason, ok := notificationClosedBody(sig.Body)
		if !ok {
			return nil, false
		}
		n, found := c.store.Remove(id)
		if !found {
			return nil, false
		}
		return Closed{ID: id, Notification: n, Reason: CloseReason(reason)}, true
	}

	return nil, false
}

// actionInvokedBody decodes the (u s) body of ActionInvoked.
func actionInvokedBody(body []interface{}) (uint32, string, bool) {
	if len(body) != 2 {
		return 0, "", false
	}
	id, ok := body[0].(uint32)
	if !ok {
		return 0, "", false
	}
	action, ok := body[1].(string)
	if !ok {
		return 0, "", false
	}
	return id, action, true
}

// notificationClosedBody decodes the (u u) body of NotificationClosed.
func notificationClosedBody(body []interface{}) (uint32, uint32, bool) {
	if len(body) != 2 {
		return 0, 0, false
	}
	id, ok := body[0].(uint32)
	if !ok {
		return 0, 0, false
	}
	reason, ok := body[1].(uint32)
	if !ok {
		return 0, 0, false
	}
	return id, reason, true
}
