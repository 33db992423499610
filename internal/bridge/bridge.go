// Package bridge runs the daemon: Mastodon notifications flow in from the
// feed and out to the desktop, and desktop clicks flow back as opened links.
package bridge

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/godbus/dbus/v5"
	"golang.org/x/sync/errgroup"

	"github.com/nhle/mastodon-notify/internal/desktop"
	"github.com/nhle/mastodon-notify/internal/feed"
	"github.com/nhle/mastodon-notify/internal/model"
	"github.com/nhle/mastodon-notify/internal/pending"
)

// outcomeExpired is journaled for notifications nobody acted on.
const outcomeExpired = "expired"

// Feed yields decoded notifications. *feed.Stream implements it.
type Feed interface {
	Next(ctx context.Context) (*model.Notification, error)
}

// Subscriber provides the notification service's signals. *desktop.Bus
// implements it.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan *dbus.Signal, error)
}

// Opener opens a link, typically in a browser.
type Opener interface {
	Open(url string) error
}

// Journal records deliveries and their outcomes.
type Journal interface {
	Record(ctx context.Context, id uint32, n model.Notification) error
	Resolve(ctx context.Context, id uint32, outcome string) error
}

// Options wires a Bridge.
type Options struct {
	Feed       Feed
	Dispatcher *desktop.Dispatcher
	Signals    Subscriber
	Opener     Opener

	// Journal is optional.
	Journal Journal

	Icon    string
	Timeout time.Duration
}

// Bridge owns the inbound and outbound pipelines.
type Bridge struct {
	feed       Feed
	dispatcher *desktop.Dispatcher
	correlator *desktop.Correlator
	signals    Subscriber
	opener     Opener
	journal    Journal
	icon       string
	timeout    time.Duration
}

// New creates a Bridge. The correlator shares the dispatcher's store. With a
// journal, the dispatcher records each notification before it becomes
// pending.
func New(opts Options) *Bridge {
	if opts.Journal != nil {
		opts.Dispatcher.SetRecorder(opts.Journal)
	}
	return &Bridge{
		feed:       opts.Feed,
		dispatcher: opts.Dispatcher,
		correlator: desktop.NewCorrelator(opts.Dispatcher.Store()),
		signals:    opts.Signals,
		opener:     opts.Opener,
		journal:    opts.Journal,
		icon:       opts.Icon,
		timeout:    opts.Timeout,
	}
}

// Run subscribes to desktop signals and then runs both pipelines until the
// feed fails or ctx is done. A feed transport failure is returned; a
// cancelled ctx returns nil.
func (b *Bridge) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	signals, err := b.signals.Subscribe(ctx)
	if err != nil {
		var subErr *desktop.SubscriptionError
		if errors.As(err, &subErr) {
			return err
		}
		return &desktop.SubscriptionError{Err: err}
	}
	results := b.correlator.Stream(ctx, signals)

	if b.journal != nil {
		store := b.dispatcher.Store()
		store.OnExpire(func(e pending.Entry) {
			b.resolve(ctx, e.ID, outcomeExpired)
		})
		defer store.OnExpire(nil)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// The outbound side has no end of its own.
		defer cancel()
		return b.inbound(gctx)
	})
	g.Go(func() error {
		b.outbound(gctx, results)
		return nil
	})

	err = g.Wait()
	if err != nil && ctx.Err() != nil && errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// inbound dispatches notifications in feed order.
func (b *Bridge) inbound(ctx context.Context) error {
	for {
		n, err := b.feed.Next(ctx)
		if err != nil {
			if feed.IsDecodeError(err) {
				log.Printf("skipping feed item: %v", err)
				continue
			}
			return err
		}

		if _, err := b.dispatcher.Send(ctx, *n, b.icon, b.timeout); err != nil {
			log.Printf("notification not shown: %v", err)
		}
	}
}

// outbound reacts to correlated signals until results is closed.
func (b *Bridge) outbound(ctx context.Context, results <-chan desktop.ActionResult) {
	for result := range results {
		b.react(ctx, result)
	}
}

func (b *Bridge) react(ctx context.Context, result desktop.ActionResult) {
	var id uint32
	var outcome string

	switch r := result.(type) {
	case desktop.Invoked:
		id, outcome = r.ID, "invoked:"+r.Action
		if url, ok := r.Notification.URL(); ok && b.opener != nil {
			if err := b.opener.Open(url); err != nil {
				log.Printf("opening %s: %v", url, err)
			}
		}
	case desktop.Closed:
		id, outcome = r.ID, "closed:"+r.Reason.String()
		log.Printf("notification %d closed (%s)", r.ID, r.Reason)
	default:
		return
	}

	b.resolve(ctx, id, outcome)
}

// resolve writes outcome to the journal row of id, if journaling.
func (b *Bridge) resolve(ctx context.Context, id uint32, outcome string) {
	if b.journal == nil {
		return
	}
	if err := b.journal.Resolve(ctx, id, outcome); err != nil {
		log.Printf("resolving notification %d: %v", id, err)
	}
}
