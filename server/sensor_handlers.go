package server

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/Burrun/Arduino/fingerprint"
)

// cameraLivenessWindow bounds how old the newest pushed frame may be for
// the camera to count as alive; the module pushes frames continuously
// while it is up.
const cameraLivenessWindow = 30 * time.Second

// UploadImageHandler accepts a raw JPEG pushed by the camera module
func (s *Server) UploadImageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeJSONError(w, "invalid_request", "could not read body", http.StatusBadRequest)
			return
		}
		if len(body) == 0 {
			writeJSONError(w, "empty_body", "image body is required", http.StatusBadRequest)
			return
		}

		path, err := s.devices.CameraStore.SaveUpload(body)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"status":   "OK",
			"filename": filepath.Base(path),
		})
	}
}

// UploadGPSHandler accepts a raw location line pushed by the GPS module
func (s *Server) UploadGPSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeJSONError(w, "invalid_request", "could not read body", http.StatusBadRequest)
			return
		}

		if err := s.devices.GPSStore.Append(string(body)); err != nil {
			writeJSONError(w, "empty_body", err.Error(), http.StatusBadRequest)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
	}
}

// SensorsStatusHandler probes every modality concurrently and reports
// per-modality availability
func (s *Server) SensorsStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			wg                          sync.WaitGroup
			fingerprintOK, gpsOK, rtcOK bool
		)

		wg.Add(3)
		go func() {
			defer wg.Done()
			fingerprintOK = s.devices.Fingerprint.Available()
		}()
		go func() {
			defer wg.Done()
			gpsOK = s.devices.GPSStore.UpdatedWithin(r.Context(), s.config.GetGPSWait())
		}()
		go func() {
			defer wg.Done()
			rtcOK = s.devices.Clock.Available()
		}()
		cameraOK := s.devices.CameraStore.FreshWithin(cameraLivenessWindow)
		wg.Wait()

		writeJSON(w, http.StatusOK, map[string]bool{
			"fingerprint": fingerprintOK,
			"gps":         gpsOK,
			"rtc":         rtcOK,
			"camera":      cameraOK,
		})
	}
}

// RTCHandler reports the current time and which clock answered
func (s *Server) RTCHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.devices.Clock.Now())
	}
}

// RTCSyncHandler writes the system time into the hardware clock
func (s *Server) RTCSyncHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.devices.Clock.SetTime(time.Now()); err != nil {
			s.writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, s.devices.Clock.Now())
	}
}

// GPSHandler resolves the kiosk's position outside any session
func (s *Server) GPSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fix, err := s.devices.GPS.Resolve(r.Context())
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"status": "success",
			"data":   fix,
		})
	}
}

// CameraHandler pulls a frame from the camera module on demand
func (s *Server) CameraHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, path, err := s.devices.Camera.Capture(r.Context(), s.config.GetCameraTimeout())
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "success",
			"message": "Camera captured",
			"path":    path,
		})
	}
}

// FingerprintHandler runs a capture without a verification session, for
// hardware checks
func (s *Server) FingerprintHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		img, err := s.devices.Fingerprint.Scan(s.config.GetFingerprintPort(), s.config.GetFingerprintTimeout())
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		path, err := s.saveFingerprint(img)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "success",
			"message": "Fingerprint captured",
			"path":    path,
		})
	}
}

// saveFingerprint persists a capture under the data folder, stamped with
// the hardware clock like every other artefact.
func (s *Server) saveFingerprint(img *fingerprint.Image) (string, error) {
	dir := filepath.Join(s.config.GetDataFolder(), "fingerprints")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "[saveFingerprint]")
	}

	name := fmt.Sprintf("fingerprint_%s.pgm", s.devices.Clock.Now().Time.Format("20060102_150405"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, img.EncodePGM(), 0o644); err != nil {
		return "", errors.Wrap(err, "[saveFingerprint]")
	}
	return path, nil
}
