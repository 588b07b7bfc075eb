package camera_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Burrun/Arduino/camera"
	kioskerrors "github.com/Burrun/Arduino/internal/errors"
)

func TestStoreSaveUpload(t *testing.T) {
	t.Run("PersistsAndCachesFrame", func(t *testing.T) {
		dir := t.TempDir()
		fixed := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
		store := camera.NewStore(dir, camera.WithNowTime(func() time.Time { return fixed }))

		frame := []byte("jpeg bytes")
		path, err := store.SaveUpload(frame)
		require.NoError(t, err)
		require.Equal(t, filepath.Join(dir, "images"), filepath.Dir(path))
		require.Contains(t, filepath.Base(path), "upload_20260314_092653_")

		onDisk, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Equal(t, frame, onDisk)

		latest, latestPath, err := store.Latest()
		require.NoError(t, err)
		require.Equal(t, frame, latest)
		require.Equal(t, path, latestPath)
	})

	t.Run("RejectsEmptyFrame", func(t *testing.T) {
		_, err := camera.NewStore(t.TempDir()).SaveUpload(nil)
		require.Error(t, err)
	})

	t.Run("LatestTracksNewestFrame", func(t *testing.T) {
		store := camera.NewStore(t.TempDir())

		_, err := store.SaveUpload([]byte("first"))
		require.NoError(t, err)
		_, err = store.SaveUpload([]byte("second"))
		require.NoError(t, err)

		latest, _, err := store.Latest()
		require.NoError(t, err)
		require.Equal(t, []byte("second"), latest)
	})

	t.Run("CapturePrefix", func(t *testing.T) {
		store := camera.NewStore(t.TempDir())

		path, err := store.SaveCapture([]byte("frame"))
		require.NoError(t, err)
		require.Contains(t, filepath.Base(path), "camera_")
	})
}

func TestStoreLatestWithoutUpload(t *testing.T) {
	_, _, err := camera.NewStore(t.TempDir()).Latest()
	require.ErrorIs(t, err, kioskerrors.ErrNoImage)
}

func TestStoreFreshWithin(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	store := camera.NewStore(t.TempDir(), camera.WithNowTime(func() time.Time { return now }))

	require.False(t, store.FreshWithin(30*time.Second))

	_, err := store.SaveUpload([]byte("frame"))
	require.NoError(t, err)
	require.True(t, store.FreshWithin(30*time.Second))

	now = now.Add(31 * time.Second)
	require.False(t, store.FreshWithin(30*time.Second))
}
