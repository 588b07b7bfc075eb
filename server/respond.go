package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	kioskerrors "github.com/Burrun/Arduino/internal/errors"
	"github.com/Burrun/Arduino/remote"
)

const contentTypeJSON = "application/json; charset=utf-8"

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONError writes an error response with a machine-readable kind and
// a human-readable detail
func writeJSONError(w http.ResponseWriter, errorCode, detail string, statusCode int) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":  errorCode,
		"detail": detail,
	})
}

// writeVerdict relays the authorization service's answer for a step: its
// status code and, when present, its body verbatim.
func writeVerdict(w http.ResponseWriter, verdict remote.Verdict) {
	w.Header().Set("Content-Type", contentTypeJSON)
	statusCode := verdict.Status
	if statusCode == 0 {
		statusCode = http.StatusOK
	}
	w.WriteHeader(statusCode)
	if len(verdict.Body) > 0 {
		_, _ = w.Write(verdict.Body)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "success"})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	statusCode, errorCode := classifyError(err)
	if s.env == "DEV" {
		logError(r.Method, r.URL.Path, err.Error())
	}
	if statusCode >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSONError(w, errorCode, err.Error(), statusCode)
}

// classifyError maps the error taxonomy onto distinguishing HTTP statuses.
// A rejection from the authorization service relays the remote's own status.
func classifyError(err error) (statusCode int, errorCode string) {
	var rejected *remote.RejectedError
	switch {
	case kioskerrors.As(err, &rejected):
		return rejected.Status, "remote_rejected"
	case kioskerrors.Is(err, kioskerrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials"
	case kioskerrors.Is(err, kioskerrors.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case kioskerrors.Is(err, kioskerrors.ErrSessionNotFound):
		return http.StatusNotFound, "session_not_found"
	case kioskerrors.Is(err, kioskerrors.ErrSessionExpired):
		return http.StatusGone, "session_expired"
	case kioskerrors.Is(err, kioskerrors.ErrInvalidGPSFix):
		return http.StatusUnprocessableEntity, "invalid_gps_fix"
	case kioskerrors.Is(err, kioskerrors.ErrBlankSignature):
		return http.StatusUnprocessableEntity, "blank_signature"
	case kioskerrors.Is(err, kioskerrors.ErrSignatureDecode):
		return http.StatusUnprocessableEntity, "signature_decode"
	case kioskerrors.Is(err, kioskerrors.ErrNoImage):
		return http.StatusNotFound, "no_image"
	case kioskerrors.Is(err, kioskerrors.ErrRemoteUnavailable):
		return http.StatusBadGateway, "remote_unavailable"
	case kioskerrors.Is(err, kioskerrors.ErrRemoteRejected):
		return http.StatusBadGateway, "remote_rejected"
	case kioskerrors.Is(err, kioskerrors.ErrPortUnavailable):
		return http.StatusServiceUnavailable, "port_unavailable"
	case kioskerrors.Is(err, kioskerrors.ErrHandshakeFailed):
		return http.StatusServiceUnavailable, "handshake_failed"
	case kioskerrors.Is(err, kioskerrors.ErrCaptureTimeout):
		return http.StatusGatewayTimeout, "capture_timeout"
	case kioskerrors.Is(err, kioskerrors.ErrCameraTimeout):
		return http.StatusGatewayTimeout, "camera_timeout"
	case kioskerrors.Is(err, kioskerrors.ErrCaptureFailed):
		return http.StatusInternalServerError, "capture_failed"
	case kioskerrors.Is(err, kioskerrors.ErrTransferFailed):
		return http.StatusInternalServerError, "transfer_failed"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
