// Package remote proxies verification evidence to the AuthBox authorization
// service, or accepts it locally when no service is configured.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	kioskerrors "github.com/Burrun/Arduino/internal/errors"
)

// Modality names the evidence kind of a verification step.
type Modality string

const (
	ModalityGPS         Modality = "gps"
	ModalityOTP         Modality = "otp"
	ModalityFace        Modality = "face"
	ModalityFingerprint Modality = "fingerprint"
	ModalitySignature   Modality = "signature"
	ModalityMail        Modality = "mail"
)

// Per-step deadlines. One outbound call per step, no retry; the OTP check is
// slow because the service fetches news articles for its quiz.
const (
	timeoutJSON  = 10 * time.Second
	timeoutImage = 30 * time.Second
	timeoutOTP   = 60 * time.Second
)

// Verdict is the service's answer to one accepted step.
type Verdict struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body,omitempty"`
}

// Client forwards each verification step to the authorization service and
// relays its per-step result.
type Client interface {
	Login(ctx context.Context, id, password string) error
	StartVerification(ctx context.Context, userID string) (int64, error)
	VerifyGPS(ctx context.Context, logID int64, latitude, longitude float64) (Verdict, error)
	VerifyOTP(ctx context.Context, logID int64, userReporter string) (Verdict, error)
	VerifyImage(ctx context.Context, logID int64, modality Modality, filename, mime string, image []byte) (Verdict, error)
	SendMail(ctx context.Context, logID int64, senderEmail string) (Verdict, error)
}

var (
	_ Client = (*HTTPClient)(nil)
	_ Client = (*OfflineClient)(nil)
)

// RejectedError reports a non-2xx answer from the authorization service,
// keeping the status and body for the caller to relay.
type RejectedError struct {
	Path   string
	Status int
	Body   []byte
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("remote rejected %s: status %d: %s", e.Path, e.Status, truncateBody(e.Body))
}

func (e *RejectedError) Unwrap() error { return kioskerrors.ErrRemoteRejected }

func truncateBody(body []byte) string {
	const max = 200
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
