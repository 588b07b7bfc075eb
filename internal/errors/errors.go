package errors

import (
	"errors"
	"fmt"
)

// Common error types for the kiosk orchestrator
var (
	// Login errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("login required")

	// Verification session errors
	ErrSessionNotFound = errors.New("verification session not found")
	ErrSessionExpired  = errors.New("verification session expired")

	// Fingerprint sensor errors
	ErrPortUnavailable = errors.New("no serial port available")
	ErrHandshakeFailed = errors.New("sensor handshake failed")
	ErrCaptureTimeout  = errors.New("fingerprint capture timed out")
	ErrCaptureFailed   = errors.New("fingerprint capture failed")
	ErrTransferFailed  = errors.New("fingerprint image transfer failed")

	// GPS errors
	ErrInvalidGPSFix = errors.New("invalid gps fix")

	// Signature errors
	ErrSignatureDecode = errors.New("signature image could not be decoded")
	ErrBlankSignature  = errors.New("signature is blank")

	// Camera errors
	ErrNoImage       = errors.New("no uploaded image available")
	ErrCameraTimeout = errors.New("camera capture timed out")

	// Remote authorization service errors
	ErrRemoteUnavailable = errors.New("remote verification service unavailable")
	ErrRemoteRejected    = errors.New("remote verification service rejected the request")

	// General errors
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
