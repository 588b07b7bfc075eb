package poll_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Burrun/Arduino/internal/poll"
	"github.com/stretchr/testify/require"
)

func TestUntil(t *testing.T) {
	t.Run("returns immediately on first success", func(t *testing.T) {
		calls := 0
		err := poll.Until(context.Background(), time.Hour, time.Hour, func() (bool, error) {
			calls++
			return true, nil
		})
		require.NoError(t, err)
		require.Equal(t, 1, calls)
	})

	t.Run("retries until done", func(t *testing.T) {
		calls := 0
		err := poll.Until(context.Background(), time.Millisecond, time.Second, func() (bool, error) {
			calls++
			return calls == 3, nil
		})
		require.NoError(t, err)
		require.Equal(t, 3, calls)
	})

	t.Run("deadline exceeded", func(t *testing.T) {
		err := poll.Until(context.Background(), time.Millisecond, 20*time.Millisecond, func() (bool, error) {
			return false, nil
		})
		require.ErrorIs(t, err, poll.ErrDeadlineExceeded)
	})

	t.Run("terminal error propagates", func(t *testing.T) {
		boom := errors.New("boom")
		calls := 0
		err := poll.Until(context.Background(), time.Millisecond, time.Second, func() (bool, error) {
			calls++
			return false, boom
		})
		require.ErrorIs(t, err, boom)
		require.Equal(t, 1, calls)
	})

	t.Run("context cancellation stops the loop", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := poll.Until(ctx, time.Millisecond, time.Second, func() (bool, error) {
			return false, nil
		})
		require.ErrorIs(t, err, context.Canceled)
	})
}
