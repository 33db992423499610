// Package desktop talks to the freedesktop notification service: it shows
// notifications, remembers what it showed, and maps the service's action and
// close signals back to the original Mastodon notifications.
package desktop

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

// D-Bus names of the freedesktop notification service.
const (
	notificationsInterface = "org.freedesktop.Notifications"
	notificationsService   = "org.freedesktop.Notifications"
	notificationsPath      = dbus.ObjectPath("/org/freedesktop/Notifications")

	memberActionInvoked      = "ActionInvoked"
	memberNotificationClosed = "NotificationClosed"

	signalActionInvoked      = notificationsInterface + "." + memberActionInvoked
	signalNotificationClosed = notificationsInterface + "." + memberNotificationClosed
)

// Request is the argument list of org.freedesktop.Notifications.Notify.
type Request struct {
	AppName    string
	ReplacesID uint32
	Icon       string
	Summary    string
	Body       string
	Actions    []string
	Hints      map[string]dbus.Variant
	TimeoutMs  int32
}

// Bus is a session bus connection to the notification service.
type Bus struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

// ConnectSession connects to the user's session bus.
func ConnectSession() (*Bus, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connecting to session bus: %w", err)
	}
	return &Bus{
		conn: conn,
		obj:  conn.Object(notificationsService, notificationsPath),
	}, nil
}

// Close closes the bus connection.
func (b *Bus) Close() error {
	return b.conn.Close()
}

// Notify shows a notification and returns the id the service assigned.
func (b *Bus) Notify(ctx context.Context, req Request) (uint32, error) {
	hints := req.Hints
	if hints == nil {
		hints = map[string]dbus.Variant{}
	}
	actions := req.Actions
	if actions == nil {
		actions = []string{}
	}

	call := b.obj.CallWithContext(ctx, notificationsInterface+".Notify", 0,
		req.AppName,
		req.ReplacesID,
		req.Icon,
		req.Summary,
		req.Body,
		actions,
		hints,
		req.TimeoutMs,
	)

	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, fmt.Errorf("calling Notify: %w", err)
	}
	return id, nil
}

// CloseNotification asks the service to dismiss notification id.
func (b *Bus) CloseNotification(ctx context.Context, id uint32) error {
	call := b.obj.CallWithContext(ctx, notificationsInterface+".CloseNotification", 0, id)
	if call.Err != nil {
		return fmt.Errorf("calling CloseNotification(%d): %w", id, call.Err)
	}
	return nil
}

// matchRules returns the signal subscriptions the correlator needs.
func matchRules() [][]dbus.MatchOption {
	return [][]dbus.MatchOption{
		{dbus.WithMatchInterface(notificationsInterface), dbus.WithMatchMember(memberActionInvoked)},
		{dbus.WithMatchInterface(notificationsInterface), dbus.WithMatchMember(memberNotificationClosed)},
	}
}

// Subscribe starts receiving ActionInvoked and NotificationClosed signals.
// The subscription is dropped when ctx is done; the channel is not closed.
func (b *Bus) Subscribe(ctx context.Context) (<-chan *dbus.Signal, error) {
	rules := matchRules()
	for i, rule := range rules {
		if err := b.conn.AddMatchSignal(rule...); err != nil {
			for _, added := range rules[:i] {
				_ = b.conn.RemoveMatchSignal(added...)
			}
			return nil, &SubscriptionError{Err: fmt.Errorf("adding match rule: %w", err)}
		}
	}

	ch := make(chan *dbus.Signal, signalBuffer)
	b.conn.Signal(ch)

	go func() {
		<-ctx.Done()
		b.conn.RemoveSignal(ch)
		for _, rule := range rules {
			_ = b.conn.RemoveMatchSignal(rule...)
		}
	}()

	return ch, nil
}
