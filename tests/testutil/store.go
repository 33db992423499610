package testutil

import (
	"testing"

	"github.com/nhle/mastodon-notify/internal/history"
)

// NewTestJournal creates an in-memory history store with all migrations
// applied. It automatically closes the store when the test completes.
func NewTestJournal(t *testing.T) *history.SQLiteStore {
	t.Helper()

	s, err := history.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test journal: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test journal: %v", err)
		}
	})

	return s
}
