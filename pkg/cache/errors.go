package cache

import (
	"context"
	"errors"
	"net"
	"time"
)

// ErrNetwork is returned when a remote backend cannot be reached.
var ErrNetwork = errors.New("cache backend unreachable")

// TransientError marks a backend failure that may succeed when tried again.
type TransientError struct{ Err error }

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err wraps a [TransientError].
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// transient marks transport failures of remote backends. Other errors,
// including "not found" replies, pass through unchanged.
func transient(err error) error {
	if err == nil || IsTransient(err) {
		return err
	}
	var ne net.Error
	if errors.As(err, &ne) || errors.Is(err, ErrNetwork) {
		return &TransientError{Err: err}
	}
	return err
}

// backoff retries calls to a remote backend, doubling the delay after
// each transient failure.
type backoff struct {
	attempts int
	base     time.Duration
}

var remoteBackoff = backoff{attempts: 3, base: 200 * time.Millisecond}

func (b backoff) do(ctx context.Context, fn func() error) error {
	delay := b.base
	var err error
	for i := range b.attempts {
		if i > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
			delay *= 2
		}
		if err = transient(fn()); !IsTransient(err) {
			return err
		}
	}
	return err
}
