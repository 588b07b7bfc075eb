package camera_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Burrun/Arduino/camera"
	kioskerrors "github.com/Burrun/Arduino/internal/errors"
)

func TestClientCapture(t *testing.T) {
	t.Run("ReturnsAndPersistsFrame", func(t *testing.T) {
		frame := []byte("jpeg frame")
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/capture", r.URL.Path)
			_, _ = w.Write(frame)
		}))
		defer srv.Close()

		store := camera.NewStore(t.TempDir())
		client := camera.NewClient(srv.URL, store)

		got, path, err := client.Capture(context.Background(), 2*time.Second)
		require.NoError(t, err)
		require.Equal(t, frame, got)
		require.NotEmpty(t, path)

		latest, _, err := store.Latest()
		require.NoError(t, err)
		require.Equal(t, frame, latest)
	})

	t.Run("RetriesUntilFrameAppears", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			_, _ = w.Write([]byte("frame"))
		}))
		defer srv.Close()

		client := camera.NewClient(srv.URL, camera.NewStore(t.TempDir()))

		got, _, err := client.Capture(context.Background(), 5*time.Second)
		require.NoError(t, err)
		require.Equal(t, []byte("frame"), got)
		require.GreaterOrEqual(t, calls.Load(), int32(2))
	})

	t.Run("TimesOutWhenCameraSilent", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		client := camera.NewClient(srv.URL, camera.NewStore(t.TempDir()))

		_, _, err := client.Capture(context.Background(), 300*time.Millisecond)
		require.ErrorIs(t, err, kioskerrors.ErrCameraTimeout)
	})

	t.Run("EmptyFrameIsNotAFrame", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		client := camera.NewClient(srv.URL, camera.NewStore(t.TempDir()))

		_, _, err := client.Capture(context.Background(), 300*time.Millisecond)
		require.ErrorIs(t, err, kioskerrors.ErrCameraTimeout)
	})
}
