package camera

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	kioskerrors "github.com/Burrun/Arduino/internal/errors"
	"github.com/Burrun/Arduino/internal/poll"
)

const (
	// captureAttemptTimeout bounds a single /capture request; the module can
	// take a moment to expose a frame after boot.
	captureAttemptTimeout = 5 * time.Second
	captureRetryInterval  = time.Second
)

// Client pulls captures from the ESP32-CAM over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	store   *Store
}

// NewClient returns a Client for the module at baseURL, persisting frames
// through store.
func NewClient(baseURL string, store *Store) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: captureAttemptTimeout},
		store:   store,
	}
}

// Capture polls the module's /capture endpoint until it produces a frame or
// timeout elapses, then persists the frame. Failed attempts are retried
// once a second; the deadline turns into ErrCameraTimeout.
func (c *Client) Capture(ctx context.Context, timeout time.Duration) ([]byte, string, error) {
	var jpeg []byte
	err := poll.Until(ctx, captureRetryInterval, timeout, func() (bool, error) {
		frame, err := c.fetchFrame(ctx)
		if err != nil {
			log.Debug().Err(err).Str("camera", c.baseURL).Msg("camera not answering")
			return false, nil
		}
		jpeg = frame
		return true, nil
	})
	if kioskerrors.Is(err, poll.ErrDeadlineExceeded) {
		return nil, "", errors.Wrapf(kioskerrors.ErrCameraTimeout, "no frame within %s", timeout)
	}
	if err != nil {
		return nil, "", err
	}

	path, err := c.store.SaveCapture(jpeg)
	if err != nil {
		return nil, "", err
	}
	return jpeg, path, nil
}

func (c *Client) fetchFrame(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/capture", nil)
	if err != nil {
		return nil, errors.Wrap(err, "[fetchFrame] build request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("[fetchFrame] unexpected status %d", resp.StatusCode)
	}
	frame, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "[fetchFrame] read body")
	}
	if len(frame) == 0 {
		return nil, errors.New("[fetchFrame] empty frame")
	}
	return frame, nil
}
