package feed

import (
	"errors"
	"fmt"
)

// DecodeStage identifies which layer of a frame failed to decode.
type DecodeStage string

const (
	StageEnvelope DecodeStage = "envelope"
	StagePayload  DecodeStage = "payload"
)

// DecodeError reports a single frame that could not be decoded. The stream
// is still usable after one.
type DecodeError struct {
	Stage DecodeStage
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s: %v", e.Stage, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsDecodeError reports whether err (or any error in its chain) is a
// DecodeError.
func IsDecodeError(err error) bool {
	var decodeErr *DecodeError
	return errors.As(err, &decodeErr)
}

// TransportError reports a failure of the underlying connection. The
// stream is finished once one is returned.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("feed transport (%s): %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransportError reports whether err (or any error in its chain) is a
// TransportError.
func IsTransportError(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}
