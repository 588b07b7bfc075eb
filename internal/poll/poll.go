// Package poll provides the poll-with-deadline loop shared by the hardware
// adapters (finger-present polling, camera capture retries, GPS log updates).
package poll

import (
	"context"
	"errors"
	"time"
)

// ErrDeadlineExceeded is returned when the deadline elapses before the
// condition reports done.
var ErrDeadlineExceeded = errors.New("poll: deadline exceeded")

// Until calls fn every interval until it returns done, returns an error, or
// the deadline elapses. The first call happens immediately. A non-nil error
// from fn is terminal and returned as-is; the hardware paths use this to
// distinguish "keep waiting" statuses from fatal ones.
//
// Cancelling ctx stops the loop between calls. The fingerprint adapter
// deliberately passes context.Background() so that an in-flight capture runs
// to its own deadline regardless of the caller disconnecting.
func Until(ctx context.Context, interval, deadline time.Duration, fn func() (bool, error)) error {
	timeout := time.NewTimer(deadline)
	defer timeout.Stop()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		done, err := fn()
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timeout.C:
			return ErrDeadlineExceeded
		case <-ticker.C:
		}
	}
}
