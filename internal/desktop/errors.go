package desktop

import (
	"errors"
	"fmt"
)

// DispatchError reports a notification that could not be shown.
type DispatchError struct {
	Summary string
	Err     error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatching notification %q: %v", e.Summary, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// IsDispatchError reports whether err (or any error in its chain) is a
// DispatchError.
func IsDispatchError(err error) bool {
	var dispatchErr *DispatchError
	return errors.As(err, &dispatchErr)
}

// SubscriptionError reports a failure to subscribe to the notification
// service's signals.
type SubscriptionError struct {
	Err error
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("subscribing to notification signals: %v", e.Err)
}

func (e *SubscriptionError) Unwrap() error {
	return e.Err
}

// IsSubscriptionError reports whether err (or any error in its chain) is a
// SubscriptionError.
func IsSubscriptionError(err error) bool {
	var subErr *SubscriptionError
	return errors.As(err, &subErr)
}
