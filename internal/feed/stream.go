package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/nhle/mastodon-notify/internal/model"
)

// streamPath is the Mastodon streaming endpoint for the user timeline.
const streamPath = "/api/v1/streaming/"

// FrameReader yields raw websocket frames. *websocket.Conn satisfies it.
type FrameReader interface {
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

// Stream reads decoded notifications from a Mastodon user stream.
type Stream struct {
	conn      FrameReader
	closeOnce sync.Once
	closeErr  error
}

// NewStream wraps an open frame source.
func NewStream(conn FrameReader) *Stream {
	return &Stream{conn: conn}
}

// StreamURL builds the websocket URL of the user stream on host.
func StreamURL(host string) string {
	u := url.URL{
		Scheme:   "wss",
		Host:     host,
		Path:     streamPath,
		RawQuery: url.Values{"stream": {"user"}}.Encode(),
	}
	return u.String()
}

// Dial connects to the user stream of host, authenticating with token.
func Dial(ctx context.Context, host, token string) (*Stream, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, StreamURL(host), header)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			err = fmt.Errorf("authentication failed (401): check the stored token for %s: %w", host, err)
		}
		return nil, &TransportError{Op: "dial", Err: err}
	}
	return NewStream(conn), nil
}

// Next blocks until the next notification arrives. Frames that carry no
// notification are skipped. A *DecodeError leaves the stream usable; any
// other error is a *TransportError and ends the stream.
func (s *Stream) Next(ctx context.Context) (*model.Notification, error) {
	stop := context.AfterFunc(ctx, func() { _ = s.Close() })
	defer stop()

	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, &TransportError{Op: "read", Err: ctxErr}
			}
			return nil, &TransportError{Op: "read", Err: err}
		}

		n, err := Decode(messageType, data)
		if err != nil {
			return nil, err
		}
		if n != nil {
			return n, nil
		}
	}
}

// Close closes the underlying connection. It is safe to call more than once.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}
