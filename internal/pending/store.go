// Package pending remembers which displayed desktop notification belongs to
// which Mastodon notification until the user acts on it or it expires.
package pending

import (
	"sync"
	"time"

	"github.com/nhle/mastodon-notify/internal/model"
)

// DefaultGrace is added to a notification's timeout before it is forgotten,
// since notification daemons may keep a bubble up slightly longer.
const DefaultGrace = 200 * time.Millisecond

// Entry is a displayed notification awaiting an action or expiry.
type Entry struct {
	ID           uint32
	Notification model.Notification
	InsertedAt   time.Time
	Timeout      time.Duration
}

// slot is the stored form of an Entry. gen distinguishes successive
// entries stored under the same id.
type slot struct {
	entry Entry
	gen   uint64
	timer *time.Timer
}

// Store maps notification ids issued by the desktop notification service
// to the notifications that produced them. It is safe for concurrent use.
type Store struct {
	grace time.Duration

	mu       sync.Mutex
	entries  map[uint32]*slot
	nextGen  uint64
	onExpire func(Entry)
}

// New creates an empty Store. A negative grace is treated as zero.
func New(grace time.Duration) *Store {
	if grace < 0 {
		grace = 0
	}
	return &Store{
		grace:   grace,
		entries: make(map[uint32]*slot),
	}
}

// Grace returns the extra time added to each expiry.
func (s *Store) Grace() time.Duration {
	return s.grace
}

// Insert stores n under id. An existing entry with the same id is replaced
// and its expiry timer stopped.
func (s *Store) Insert(id uint32, n model.Notification, timeout time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[id]; ok && old.timer != nil {
		old.timer.Stop()
	}

	s.nextGen++
	s.entries[id] = &slot{
		entry: Entry{
			ID:           id,
			Notification: n,
			InsertedAt:   time.Now(),
			Timeout:      timeout,
		},
		gen: s.nextGen,
	}
}

// Remove deletes the entry for id and returns its notification. Only the
// first of several concurrent or repeated calls gets ok == true.
func (s *Store) Remove(id uint32) (model.Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.entries[id]
	if !ok {
		return model.Notification{}, false
	}
	return s.removeLocked(id, sl), true
}

// ScheduleExpiry removes the entry for id once timeout plus the grace
// period has elapsed, unless it was removed or replaced before then. A
// negative timeout counts as zero, so every entry expires after at most
// the grace period.
func (s *Store) ScheduleExpiry(id uint32, timeout time.Duration) {
	timeout = max(timeout, 0)

	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.entries[id]
	if !ok {
		return
	}
	if sl.timer != nil {
		sl.timer.Stop()
	}

	gen := sl.gen
	sl.timer = time.AfterFunc(timeout+s.grace, func() {
		s.expire(id, gen)
	})
}

// OnExpire sets fn to be called with each entry the expiry timer removes.
// fn runs on the timer goroutine, outside the lock. A nil fn clears it.
func (s *Store) OnExpire(fn func(Entry)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onExpire = fn
}

// expire removes id only if it still holds the entry the timer was armed for.
func (s *Store) expire(id uint32, gen uint64) {
	s.mu.Lock()
	sl, ok := s.entries[id]
	if !ok || sl.gen != gen {
		s.mu.Unlock()
		return
	}
	s.removeLocked(id, sl)
	fn := s.onExpire
	s.mu.Unlock()

	if fn != nil {
		fn(sl.entry)
	}
}

func (s *Store) removeLocked(id uint32, sl *slot) model.Notification {
	if sl.timer != nil {
		sl.timer.Stop()
	}
	delete(s.entries, id)
	return sl.entry.Notification
}

// Get returns the entry for id without removing it.
func (s *Store) Get(id uint32) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.entries[id]
	if !ok {
		return Entry{}, false
	}
	return sl.entry, true
}

// Len returns the number of live entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
