// Package camera receives frames pushed by the ESP32-CAM collaborator and
// pulls captures from it on demand.
package camera

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	kioskerrors "github.com/Burrun/Arduino/internal/errors"
)

// Store persists received frames under the data folder and keeps the newest
// one in memory for the face verification step.
type Store struct {
	dir string
	now func() time.Time

	mu         sync.Mutex
	latest     []byte
	latestPath string
	latestAt   time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithNowTime overrides the wall clock used for filenames and freshness
// (tests).
func WithNowTime(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// NewStore returns a Store writing under dataFolder.
func NewStore(dataFolder string, opts ...StoreOption) *Store {
	s := &Store{
		dir: filepath.Join(dataFolder, "images"),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SaveUpload persists a frame pushed by the collaborator.
func (s *Store) SaveUpload(jpeg []byte) (string, error) {
	return s.save("upload", jpeg)
}

// SaveCapture persists a frame pulled from the collaborator.
func (s *Store) SaveCapture(jpeg []byte) (string, error) {
	return s.save("camera", jpeg)
}

func (s *Store) save(prefix string, jpeg []byte) (string, error) {
	if len(jpeg) == 0 {
		return "", errors.New("[save] empty image")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", errors.Wrap(err, "[save] create image directory")
	}

	now := s.now()
	name := fmt.Sprintf("%s_%s_%s.jpg", prefix, now.Format("20060102_150405"), uuid.NewString()[:8])
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, jpeg, 0o644); err != nil {
		return "", errors.Wrap(err, "[save] write image")
	}

	s.latest = append([]byte{}, jpeg...)
	s.latestPath = path
	s.latestAt = now
	return path, nil
}

// Latest returns the newest frame and the file it was persisted to.
func (s *Store) Latest() ([]byte, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.latest) == 0 {
		return nil, "", errors.Wrap(kioskerrors.ErrNoImage, "[Latest] no frame received yet")
	}
	return append([]byte{}, s.latest...), s.latestPath, nil
}

// FreshWithin reports whether a frame arrived within the window. The
// collaborator pushes frames continuously while alive, so a recent frame is
// the camera's liveness signal.
func (s *Store) FreshWithin(window time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return !s.latestAt.IsZero() && s.now().Sub(s.latestAt) <= window
}
