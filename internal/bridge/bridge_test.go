package bridge

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/nhle/mastodon-notify/internal/desktop"
	"github.com/nhle/mastodon-notify/internal/feed"
	"github.com/nhle/mastodon-notify/internal/model"
)

// feedItem is one result of fakeFeed.Next.
type feedItem struct {
	n   *model.Notification
	err error
}

// fakeFeed returns queued items, then blocks until ctx is done.
type fakeFeed struct {
	items chan feedItem
}

func newFakeFeed(items ...feedItem) *fakeFeed {
	ch := make(chan feedItem, len(items)+1)
	for _, it := range items {
		ch <- it
	}
	return &fakeFeed{items: ch}
}

func (f *fakeFeed) Next(ctx context.Context) (*model.Notification, error) {
	select {
	case it := <-f.items:
		return it.n, it.err
	case <-ctx.Done():
		return nil, &feed.TransportError{Op: "read", Err: ctx.Err()}
	}
}

type fakeSender struct {
	mu      sync.Mutex
	nextID  uint32
	sent    []string
	failFor string
}

func (s *fakeSender) Notify(_ context.Context, req desktop.Request) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFor != "" && req.Summary == s.failFor {
		return 0, errors.New("notification daemon rejected request")
	}
	s.nextID++
	s.sent = append(s.sent, req.Summary)
	return s.nextID, nil
}

func (s *fakeSender) CloseNotification(context.Context, uint32) error { return nil }

func (s *fakeSender) summaries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent...)
}

type fakeSubscriber struct {
	ch  chan *dbus.Signal
	err error
}

func (s *fakeSubscriber) Subscribe(context.Context) (<-chan *dbus.Signal, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.ch, nil
}

type fakeOpener struct {
	opened chan string
}

func (o *fakeOpener) Open(url string) error {
	o.opened <- url
	return nil
}

type fakeJournal struct {
	mu       sync.Mutex
	recorded []uint32
	resolved map[uint32]string
}

func (j *fakeJournal) Record(_ context.Context, id uint32, _ model.Notification) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.recorded = append(j.recorded, id)
	return nil
}

func (j *fakeJournal) Resolve(_ context.Context, id uint32, outcome string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.resolved == nil {
		j.resolved = make(map[uint32]string)
	}
	j.resolved[id] = outcome
	return nil
}

func mention(user, url string) *model.Notification {
	return &model.Notification{
		Account: model.Account{Username: user},
		Kind:    model.KindMention,
		Status:  &model.Status{URL: url, Content: "<p>hey</p>"},
	}
}

func newBridge(f Feed, sender *fakeSender, sub *fakeSubscriber, opener Opener, journal Journal) *Bridge {
	return New(Options{
		Feed:       f,
		Dispatcher: desktop.NewDispatcher(sender, nil, desktop.DefaultSettings()),
		Signals:    sub,
		Opener:     opener,
		Journal:    journal,
		Timeout:    time.Minute,
	})
}

func TestInboundSkipsItemErrorsAndStopsOnTransport(t *testing.T) {
	transportErr := &feed.TransportError{Op: "read", Err: io.ErrUnexpectedEOF}
	f := newFakeFeed(
		feedItem{n: mention("alice", "https://x/1")},
		feedItem{err: &feed.DecodeError{Stage: feed.StagePayload, Err: errors.New("bad json")}},
		feedItem{n: mention("mallory", "https://x/2")},
		feedItem{n: mention("bob", "https://x/3")},
		feedItem{err: transportErr},
	)
	sender := &fakeSender{failFor: "mallory mentioned you"}
	b := newBridge(f, sender, &fakeSubscriber{ch: make(chan *dbus.Signal)}, nil, nil)

	err := b.Run(context.Background())
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("Run = %v, want the transport error", err)
	}

	got := sender.summaries()
	want := []string{"alice mentioned you", "bob mentioned you"}
	if len(got) != len(want) {
		t.Fatalf("sent %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sent[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if n := b.dispatcher.Store().Len(); n != 2 {
		t.Errorf("pending = %d, want 2", n)
	}
}

func TestInvokedOpensLink(t *testing.T) {
	sub := &fakeSubscriber{ch: make(chan *dbus.Signal, 4)}
	opener := &fakeOpener{opened: make(chan string, 1)}
	journal := &fakeJournal{}
	sender := &fakeSender{}
	b := newBridge(newFakeFeed(feedItem{n: mention("alice", "https://x/1")}), sender, sub, opener, journal)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for len(sender.summaries()) == 0 {
		select {
		case <-deadline:
			t.Fatal("notification never dispatched")
		case <-time.After(5 * time.Millisecond):
		}
	}

	sub.ch <- &dbus.Signal{
		Name: "org.freedesktop.Notifications.ActionInvoked",
		Body: []interface{}{uint32(1), "default"},
	}

	select {
	case url := <-opener.opened:
		if url != "https://x/1" {
			t.Errorf("opened %q", url)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("link never opened")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run after cancel = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	if b.dispatcher.Store().Len() != 0 {
		t.Errorf("pending = %d, want 0", b.dispatcher.Store().Len())
	}
	journal.mu.Lock()
	defer journal.mu.Unlock()
	if len(journal.recorded) != 1 || journal.resolved[1] != "invoked:default" {
		t.Errorf("journal = %v / %v", journal.recorded, journal.resolved)
	}
}

func TestClosedOpensNothing(t *testing.T) {
	sub := &fakeSubscriber{ch: make(chan *dbus.Signal, 4)}
	opener := &fakeOpener{opened: make(chan string, 1)}
	sender := &fakeSender{}
	b := newBridge(newFakeFeed(feedItem{n: mention("alice", "https://x/1")}), sender, sub, opener, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	for i := 0; i < 400 && len(sender.summaries()) == 0; i++ {
		time.Sleep(5 * time.Millisecond)
	}
	sub.ch <- &dbus.Signal{
		Name: "org.freedesktop.Notifications.NotificationClosed",
		Body: []interface{}{uint32(1), uint32(2)},
	}

	for i := 0; i < 400 && b.dispatcher.Store().Len() != 0; i++ {
		time.Sleep(5 * time.Millisecond)
	}
	if b.dispatcher.Store().Len() != 0 {
		t.Fatal("close signal did not remove the entry")
	}

	select {
	case url := <-opener.opened:
		t.Errorf("closed notification opened %q", url)
	default:
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run = %v", err)
	}
}

func TestSubscriptionFailure(t *testing.T) {
	f := newFakeFeed(feedItem{n: mention("alice", "https://x/1")})
	sender := &fakeSender{}
	b := newBridge(f, sender, &fakeSubscriber{err: errors.New("no session bus")}, nil, nil)

	err := b.Run(context.Background())
	if !desktop.IsSubscriptionError(err) {
		t.Fatalf("Run = %v, want subscription error", err)
	}
	if len(sender.summaries()) != 0 {
		t.Error("feed was consumed despite failed subscription")
	}
}

func TestExpiredNotificationIsJournaled(t *testing.T) {
	sender := &fakeSender{}
	journal := &fakeJournal{}
	b := New(Options{
		Feed:       newFakeFeed(feedItem{n: mention("alice", "https://x/1")}),
		Dispatcher: desktop.NewDispatcher(sender, nil, desktop.Settings{Grace: 0}),
		Signals:    &fakeSubscriber{ch: make(chan *dbus.Signal)},
		Journal:    journal,
		Timeout:    20 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	outcome := func() string {
		journal.mu.Lock()
		defer journal.mu.Unlock()
		return journal.resolved[1]
	}
	for i := 0; i < 400 && outcome() == ""; i++ {
		time.Sleep(5 * time.Millisecond)
	}
	if got := outcome(); got != "expired" {
		t.Errorf("outcome = %q, want expired", got)
	}

	journal.mu.Lock()
	recorded := append([]uint32(nil), journal.recorded...)
	journal.mu.Unlock()
	if len(recorded) != 1 || recorded[0] != 1 {
		t.Errorf("recorded = %v, want [1]", recorded)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run = %v", err)
	}
}
