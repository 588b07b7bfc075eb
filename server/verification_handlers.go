package server

import (
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/Burrun/Arduino/internal/utils"
)

// pathLogID parses the {logId} path segment.
func pathLogID(r *http.Request) (int64, error) {
	logID, err := strconv.ParseInt(r.PathValue("logId"), 10, 64)
	if err != nil || logID <= 0 {
		return 0, errors.Errorf("invalid logId %q", r.PathValue("logId"))
	}
	return logID, nil
}

// LoginHandler delegates the credential check to the authorization service
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID       string `json:"id"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, "invalid_request", "body must be JSON with id and password", http.StatusBadRequest)
			return
		}

		if err := s.verifier.Login(r.Context(), req.ID, req.Password); err != nil {
			s.writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
	}
}

// VerificationStartHandler opens a verification session for a user
func (s *Server) VerificationStartHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID string `json:"userId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, "invalid_request", "body must be JSON with userId", http.StatusBadRequest)
			return
		}

		logID, err := s.verifier.Start(r.Context(), req.UserID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]int64{"logId": logID})
	}
}

// VerifyGPSHandler forwards a position for the gps step. The caller may
// send coordinates; otherwise the kiosk resolves its own via the location
// log (falling back to the configured fixed coordinate).
func (s *Server) VerifyGPSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logID, err := pathLogID(r)
		if err != nil {
			writeJSONError(w, "invalid_request", err.Error(), http.StatusBadRequest)
			return
		}

		var req struct {
			Latitude  *float64 `json:"latitude"`
			Longitude *float64 `json:"longitude"`
		}
		// The body is optional; only a malformed one is an error.
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeJSONError(w, "invalid_request", "body must be JSON", http.StatusBadRequest)
			return
		}

		latitude, longitude := utils.Value(req.Latitude), utils.Value(req.Longitude)
		if req.Latitude == nil || req.Longitude == nil {
			fix, err := s.devices.GPS.Resolve(r.Context())
			if err != nil {
				s.writeError(w, r, err)
				return
			}
			latitude, longitude = fix.Latitude, fix.Longitude
		}

		verdict, err := s.verifier.VerifyGPS(r.Context(), logID, latitude, longitude)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		writeVerdict(w, verdict)
	}
}

// VerifyOTPHandler forwards the reporter answer for the otp step
func (s *Server) VerifyOTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logID, err := pathLogID(r)
		if err != nil {
			writeJSONError(w, "invalid_request", err.Error(), http.StatusBadRequest)
			return
		}

		var req struct {
			UserReporter string `json:"userReporter"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, "invalid_request", "body must be JSON with userReporter", http.StatusBadRequest)
			return
		}

		verdict, err := s.verifier.VerifyOTP(r.Context(), logID, req.UserReporter)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		writeVerdict(w, verdict)
	}
}

// VerifyFaceHandler forwards the most recently uploaded camera frame for
// the face step
func (s *Server) VerifyFaceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logID, err := pathLogID(r)
		if err != nil {
			writeJSONError(w, "invalid_request", err.Error(), http.StatusBadRequest)
			return
		}

		jpeg, path, err := s.devices.CameraStore.Latest()
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		verdict, err := s.verifier.VerifyFace(r.Context(), logID, filepath.Base(path), "image/jpeg", jpeg)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		writeVerdict(w, verdict)
	}
}

// VerifyFingerprintHandler runs a live capture on the sensor and forwards
// the image for the fingerprint step
func (s *Server) VerifyFingerprintHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logID, err := pathLogID(r)
		if err != nil {
			writeJSONError(w, "invalid_request", err.Error(), http.StatusBadRequest)
			return
		}

		img, err := s.devices.Fingerprint.Scan(s.config.GetFingerprintPort(), s.config.GetFingerprintTimeout())
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		// Keep a local copy; forwarding matters more than persistence.
		if _, err := s.saveFingerprint(img); err != nil {
			log.Warn().Err(err).Msg("could not persist fingerprint image")
		}

		png, err := img.EncodePNG()
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		verdict, err := s.verifier.VerifyFingerprint(r.Context(), logID, "fingerprint.png", "image/png", png)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		writeVerdict(w, verdict)
	}
}

// VerifySignatureHandler validates a drawn signature and forwards it for
// the signature step
func (s *Server) VerifySignatureHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logID, err := pathLogID(r)
		if err != nil {
			writeJSONError(w, "invalid_request", err.Error(), http.StatusBadRequest)
			return
		}

		var req struct {
			Image string `json:"image"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, "invalid_request", "body must be JSON with image", http.StatusBadRequest)
			return
		}

		sig, err := s.devices.Signature.Validate(req.Image)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		verdict, err := s.verifier.VerifySignature(r.Context(), logID, "signature.png", "image/png", sig.Raw)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		writeVerdict(w, verdict)
	}
}

// VerifyMailHandler asks the authorization service to deliver the report;
// on success the session is finished
func (s *Server) VerifyMailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logID, err := pathLogID(r)
		if err != nil {
			writeJSONError(w, "invalid_request", err.Error(), http.StatusBadRequest)
			return
		}

		var req struct {
			SenderEmail string `json:"senderEmail"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, "invalid_request", "body must be JSON with senderEmail", http.StatusBadRequest)
			return
		}

		verdict, err := s.verifier.Finalize(r.Context(), logID, req.SenderEmail)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		writeVerdict(w, verdict)
	}
}
