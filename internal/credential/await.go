package credential

import (
	"context"
	"errors"
	"log"
	"time"
)

// DefaultPollInterval is how often Await checks the keyring.
const DefaultPollInterval = 5 * time.Second

// Getter looks up a stored token. *Store implements it.
type Getter interface {
	Get(key string) (string, error)
}

// Await blocks until a token for key is available or ctx is done. It polls
// every interval so the daemon can start before setup has run.
func Await(ctx context.Context, g Getter, key string, interval time.Duration) (string, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		token, err := g.Get(key)
		if err == nil {
			return token, nil
		}
		if errors.Is(err, ErrNotFound) {
			log.Printf("token for %s not found; run with --mode config to set up authentication", key)
		} else {
			log.Printf("reading token for %s: %v", key, err)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}
