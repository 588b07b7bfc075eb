// Package verification tracks the kiosk's login state and its verification
// sessions, and forwards each step's evidence to the authorization service.
package verification

import (
	"time"

	"github.com/Burrun/Arduino/remote"
)

// Step names one verification step.
type Step string

const (
	StepGPS         Step = "gps"
	StepOTP         Step = "otp"
	StepFace        Step = "face"
	StepFingerprint Step = "fingerprint"
	StepSignature   Step = "signature"
	StepMail        Step = "mail"
)

// StepResult is the stored outcome of one step call, failed attempts
// included.
type StepResult struct {
	Passed  bool
	Verdict remote.Verdict
	At      time.Time
}

// Session is one verification run, keyed by the log id the authorization
// service issued (or the kiosk synthesized offline).
type Session struct {
	LogID       int64
	UserID      string
	CreatedAt   time.Time
	StepResults map[Step]StepResult
}

// LoginState is the kiosk's single active login.
type LoginState struct {
	UserID    string
	LoginTime time.Time
}
