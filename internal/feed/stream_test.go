package feed

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type rawFrame struct {
	messageType int
	data        []byte
}

// fakeConn replays frames and then blocks until closed.
type fakeConn struct {
	mu     sync.Mutex
	frames []rawFrame
	err    error
	closed chan struct{}
	once   sync.Once
}

func newFakeConn(frames ...rawFrame) *fakeConn {
	return &fakeConn{frames: frames, closed: make(chan struct{})}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	c.mu.Lock()
	if len(c.frames) > 0 {
		f := c.frames[0]
		c.frames = c.frames[1:]
		c.mu.Unlock()
		return f.messageType, f.data, nil
	}
	err := c.err
	c.mu.Unlock()
	if err != nil {
		return 0, nil, err
	}
	<-c.closed
	return 0, nil, errors.New("use of closed network connection")
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func TestStreamSkipsUntilNotification(t *testing.T) {
	conn := newFakeConn(
		rawFrame{websocket.BinaryMessage, []byte{0x1}},
		rawFrame{websocket.TextMessage, frame(t, "update", `{"id":"1"}`)},
		rawFrame{websocket.TextMessage, frame(t, "notification", favouritePayload)},
	)
	s := NewStream(conn)

	n, err := s.Next(context.Background())
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if n.Account.Username != "alice" {
		t.Errorf("account = %q", n.Account.Username)
	}
}

func TestStreamDecodeErrorIsRecoverable(t *testing.T) {
	conn := newFakeConn(
		rawFrame{websocket.TextMessage, frame(t, "notification", "{broken")},
		rawFrame{websocket.TextMessage, frame(t, "notification", favouritePayload)},
	)
	s := NewStream(conn)

	if _, err := s.Next(context.Background()); !IsDecodeError(err) {
		t.Fatalf("first Next error = %v, want decode error", err)
	}
	n, err := s.Next(context.Background())
	if err != nil || n == nil {
		t.Fatalf("second Next = %v, %v; want notification", n, err)
	}
}

func TestStreamReadFailureIsTransportError(t *testing.T) {
	conn := newFakeConn()
	conn.err = io.ErrUnexpectedEOF
	s := NewStream(conn)

	_, err := s.Next(context.Background())
	if !IsTransportError(err) {
		t.Fatalf("error = %v, want transport error", err)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("error %v does not wrap the read failure", err)
	}
}

func TestStreamNextHonorsCancellation(t *testing.T) {
	s := NewStream(newFakeConn())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := s.Next(ctx)
	if !IsTransportError(err) {
		t.Fatalf("error = %v, want transport error", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error %v does not wrap the context error", err)
	}
}

func TestStreamURL(t *testing.T) {
	got := StreamURL("hachyderm.io")
	want := "wss://hachyderm.io/api/v1/streaming/?stream=user"
	if got != want {
		t.Errorf("StreamURL = %q, want %q", got, want)
	}
}
