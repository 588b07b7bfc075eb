package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/pkg/errors"

	kioskerrors "github.com/Burrun/Arduino/internal/errors"
)

// HTTPClient talks to a real AuthBox service.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient returns a client for the service at baseURL. Deadlines are
// per call, not per client.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
}

// Login checks the credential pair against the service. A 401/403 answer is
// an invalid credential; anything else non-2xx is a service-side rejection.
func (c *HTTPClient) Login(ctx context.Context, id, password string) error {
	payload := struct {
		ID       string `json:"id"`
		Password string `json:"password"`
	}{ID: id, Password: password}

	_, err := c.postJSON(ctx, "/api/user/login", payload, timeoutJSON)
	var rejected *RejectedError
	if kioskerrors.As(err, &rejected) &&
		(rejected.Status == http.StatusUnauthorized || rejected.Status == http.StatusForbidden) {
		return errors.Wrapf(kioskerrors.ErrInvalidCredentials, "remote status %d", rejected.Status)
	}
	return err
}

// StartVerification opens a verification log on the service and returns its
// id.
func (c *HTTPClient) StartVerification(ctx context.Context, userID string) (int64, error) {
	payload := struct {
		UserID string `json:"userId"`
	}{UserID: userID}

	verdict, err := c.postJSON(ctx, "/api/verification/start", payload, timeoutJSON)
	if err != nil {
		return 0, err
	}

	var out struct {
		LogID int64 `json:"logId"`
	}
	if err := json.Unmarshal(verdict.Body, &out); err != nil || out.LogID == 0 {
		return 0, errors.Wrapf(kioskerrors.ErrRemoteRejected, "no logId in response %s", truncateBody(verdict.Body))
	}
	return out.LogID, nil
}

func (c *HTTPClient) VerifyGPS(ctx context.Context, logID int64, latitude, longitude float64) (Verdict, error) {
	payload := struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	}{Latitude: latitude, Longitude: longitude}

	return c.postJSON(ctx, c.stepPath(logID, ModalityGPS), payload, timeoutJSON)
}

func (c *HTTPClient) VerifyOTP(ctx context.Context, logID int64, userReporter string) (Verdict, error) {
	payload := struct {
		UserReporter string `json:"userReporter"`
	}{UserReporter: userReporter}

	return c.postJSON(ctx, c.stepPath(logID, ModalityOTP), payload, timeoutOTP)
}

// VerifyImage forwards captured evidence as a multipart upload under the
// "image" field, the shape the service expects for face, fingerprint and
// signature alike.
func (c *HTTPClient) VerifyImage(ctx context.Context, logID int64, modality Modality, filename, mime string, image []byte) (Verdict, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {fmt.Sprintf(`form-data; name="image"; filename="%s"`, filename)},
		"Content-Type":        {mime},
	})
	if err != nil {
		return Verdict{}, errors.Wrap(err, "[VerifyImage] create form part")
	}
	if _, err := part.Write(image); err != nil {
		return Verdict{}, errors.Wrap(err, "[VerifyImage] write image")
	}
	if err := mw.Close(); err != nil {
		return Verdict{}, errors.Wrap(err, "[VerifyImage] close form")
	}

	return c.post(ctx, c.stepPath(logID, modality), mw.FormDataContentType(), &buf, timeoutImage)
}

func (c *HTTPClient) SendMail(ctx context.Context, logID int64, senderEmail string) (Verdict, error) {
	payload := struct {
		SenderEmail string `json:"senderEmail"`
	}{SenderEmail: senderEmail}

	return c.postJSON(ctx, c.stepPath(logID, ModalityMail), payload, timeoutJSON)
}

func (c *HTTPClient) stepPath(logID int64, modality Modality) string {
	return fmt.Sprintf("/api/verification/%d/%s", logID, modality)
}

func (c *HTTPClient) postJSON(ctx context.Context, path string, payload any, timeout time.Duration) (Verdict, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Verdict{}, errors.Wrap(err, "[postJSON] encode payload")
	}
	return c.post(ctx, path, "application/json", bytes.NewReader(body), timeout)
}

// post performs exactly one outbound call with a fixed deadline. Network
// failure is ErrRemoteUnavailable; a non-2xx answer is a RejectedError.
func (c *HTTPClient) post(ctx context.Context, path, contentType string, body io.Reader, timeout time.Duration) (Verdict, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return Verdict{}, errors.Wrap(err, "[post] build request")
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return Verdict{}, errors.Wrapf(kioskerrors.ErrRemoteUnavailable, "%s: %v", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Verdict{}, errors.Wrapf(kioskerrors.ErrRemoteUnavailable, "%s: read body: %v", path, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode > 299 {
		return Verdict{}, &RejectedError{Path: path, Status: resp.StatusCode, Body: raw}
	}
	return Verdict{Status: resp.StatusCode, Body: raw}, nil
}
