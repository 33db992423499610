package credential

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/99designs/keyring"
)

func TestStoreRoundTrip(t *testing.T) {
	s := NewStoreWith(keyring.NewArrayKeyring(nil))

	if err := s.Set("alice@hachyderm.io", "tok-123"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get("alice@hachyderm.io")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "tok-123" {
		t.Errorf("Get = %q", got)
	}

	if err := s.Delete("alice@hachyderm.io"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get("alice@hachyderm.io"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}
}

func TestGetMissing(t *testing.T) {
	s := NewStoreWith(keyring.NewArrayKeyring(nil))
	if _, err := s.Get("nobody@nowhere"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get = %v, want ErrNotFound", err)
	}
}

// lateGetter starts returning a token after a number of misses.
type lateGetter struct {
	mu     sync.Mutex
	misses int
	calls  int
}

func (g *lateGetter) Get(string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.calls <= g.misses {
		return "", ErrNotFound
	}
	return "tok", nil
}

func TestAwaitPollsUntilAvailable(t *testing.T) {
	g := &lateGetter{misses: 2}
	token, err := Await(context.Background(), g, "alice@x", 5*time.Millisecond)
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	if token != "tok" || g.calls != 3 {
		t.Errorf("token = %q after %d calls", token, g.calls)
	}
}

func TestAwaitCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := Await(ctx, &lateGetter{misses: 1 << 30}, "alice@x", 5*time.Millisecond)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Await = %v, want deadline exceeded", err)
	}
}
