package verification

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	kioskerrors "github.com/Burrun/Arduino/internal/errors"
	"github.com/Burrun/Arduino/remote"
)

// DefaultSessionTimeout bounds both the login and each verification session.
const DefaultSessionTimeout = 20 * time.Minute

// Service drives the verification flow: the single kiosk login, session
// lifetime, and one remote forward per step. Steps carry no ordering: each
// call re-validates the session independently, so callers may invoke or
// repeat them in any order.
type Service struct {
	sessions SessionRepo
	remote   remote.Client
	timeout  time.Duration
	nowTime  func() time.Time // nowTime function (injectable for testing)

	mu    sync.Mutex
	login *LoginState
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// NewService initializes a Service over the given session store and
// authorization client. A non-positive timeout selects the default.
func NewService(sessions SessionRepo, client remote.Client, timeout time.Duration, opts ...ServiceOption) *Service {
	if timeout <= 0 {
		timeout = DefaultSessionTimeout
	}
	s := &Service{
		sessions: sessions,
		remote:   client,
		timeout:  timeout,
		nowTime:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login delegates the credential check to the authorization service and
// records the kiosk's single active login.
func (s *Service) Login(ctx context.Context, id, password string) error {
	if err := s.remote.Login(ctx, id, password); err != nil {
		return errors.Wrap(err, "[Login]")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.login = &LoginState{UserID: id, LoginTime: s.nowTime()}
	log.Info().Str("userId", id).Msg("login recorded")
	return nil
}

// Start requires an unexpired login, obtains a log id from the
// authorization service and opens a session under it.
func (s *Service) Start(ctx context.Context, userID string) (int64, error) {
	if err := s.requireLogin(); err != nil {
		return 0, err
	}

	logID, err := s.remote.StartVerification(ctx, userID)
	if err != nil {
		return 0, errors.Wrap(err, "[Start]")
	}

	session := Session{
		LogID:       logID,
		UserID:      userID,
		CreatedAt:   s.nowTime(),
		StepResults: map[Step]StepResult{},
	}
	if err := s.sessions.Upsert(logID, session); err != nil {
		return 0, errors.Wrap(err, "[Start]")
	}
	log.Info().Int64("logId", logID).Str("userId", userID).Msg("verification session opened")
	return logID, nil
}

// ValidateSession returns the session if it exists and its lifetime has not
// elapsed. Exactly at the boundary the session counts as expired; expired
// sessions are removed.
func (s *Service) ValidateSession(logID int64) (Session, error) {
	session, err := s.sessions.Get(logID)
	if err != nil {
		return Session{}, errors.Wrapf(kioskerrors.ErrSessionNotFound, "logId %d", logID)
	}
	if s.nowTime().Sub(session.CreatedAt) >= s.timeout {
		if err := s.sessions.Delete(logID); err != nil {
			log.Warn().Err(err).Int64("logId", logID).Msg("could not remove expired session")
		}
		return Session{}, errors.Wrapf(kioskerrors.ErrSessionExpired, "logId %d", logID)
	}
	return session, nil
}

// VerifyGPS forwards a position for the session's gps step. A (0,0)
// position is never a usable fix.
func (s *Service) VerifyGPS(ctx context.Context, logID int64, latitude, longitude float64) (remote.Verdict, error) {
	if latitude == 0 && longitude == 0 {
		return remote.Verdict{}, errors.Wrap(kioskerrors.ErrInvalidGPSFix, "coordinates are (0,0)")
	}
	if _, err := s.ValidateSession(logID); err != nil {
		return remote.Verdict{}, err
	}

	verdict, err := s.remote.VerifyGPS(ctx, logID, latitude, longitude)
	s.record(logID, StepGPS, verdict, err)
	if err != nil {
		return remote.Verdict{}, errors.Wrap(err, "[VerifyGPS]")
	}
	return verdict, nil
}

// VerifyOTP forwards the reporter answer for the session's otp step.
func (s *Service) VerifyOTP(ctx context.Context, logID int64, userReporter string) (remote.Verdict, error) {
	if _, err := s.ValidateSession(logID); err != nil {
		return remote.Verdict{}, err
	}

	verdict, err := s.remote.VerifyOTP(ctx, logID, userReporter)
	s.record(logID, StepOTP, verdict, err)
	if err != nil {
		return remote.Verdict{}, errors.Wrap(err, "[VerifyOTP]")
	}
	return verdict, nil
}

// VerifyFace forwards a camera frame for the session's face step.
func (s *Service) VerifyFace(ctx context.Context, logID int64, filename, mime string, image []byte) (remote.Verdict, error) {
	return s.verifyImage(ctx, logID, StepFace, remote.ModalityFace, filename, mime, image)
}

// VerifyFingerprint forwards a captured fingerprint for the session's
// fingerprint step.
func (s *Service) VerifyFingerprint(ctx context.Context, logID int64, filename, mime string, image []byte) (remote.Verdict, error) {
	return s.verifyImage(ctx, logID, StepFingerprint, remote.ModalityFingerprint, filename, mime, image)
}

// VerifySignature forwards a validated signature for the session's
// signature step.
func (s *Service) VerifySignature(ctx context.Context, logID int64, filename, mime string, image []byte) (remote.Verdict, error) {
	return s.verifyImage(ctx, logID, StepSignature, remote.ModalitySignature, filename, mime, image)
}

func (s *Service) verifyImage(ctx context.Context, logID int64, step Step, modality remote.Modality, filename, mime string, image []byte) (remote.Verdict, error) {
	if _, err := s.ValidateSession(logID); err != nil {
		return remote.Verdict{}, err
	}

	verdict, err := s.remote.VerifyImage(ctx, logID, modality, filename, mime, image)
	s.record(logID, step, verdict, err)
	if err != nil {
		return remote.Verdict{}, errors.Wrapf(err, "[verifyImage] %s", step)
	}
	return verdict, nil
}

// Finalize forwards the mail step; on success the session and the login are
// both cleared.
func (s *Service) Finalize(ctx context.Context, logID int64, senderEmail string) (remote.Verdict, error) {
	if _, err := s.ValidateSession(logID); err != nil {
		return remote.Verdict{}, err
	}

	verdict, err := s.remote.SendMail(ctx, logID, senderEmail)
	s.record(logID, StepMail, verdict, err)
	if err != nil {
		return remote.Verdict{}, errors.Wrap(err, "[Finalize]")
	}

	if err := s.sessions.Delete(logID); err != nil {
		log.Warn().Err(err).Int64("logId", logID).Msg("could not clear session")
	}
	s.mu.Lock()
	s.login = nil
	s.mu.Unlock()

	log.Info().Int64("logId", logID).Msg("verification finalized")
	return verdict, nil
}

func (s *Service) requireLogin() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.login == nil {
		return errors.Wrap(kioskerrors.ErrUnauthenticated, "no active login")
	}
	if s.nowTime().Sub(s.login.LoginTime) >= s.timeout {
		s.login = nil
		return errors.Wrap(kioskerrors.ErrSessionExpired, "login expired")
	}
	return nil
}

// record stores the step verdict, failed attempts included, so repeated
// tries stay visible.
func (s *Service) record(logID int64, step Step, verdict remote.Verdict, stepErr error) {
	result := StepResult{
		Passed:  stepErr == nil,
		Verdict: verdict,
		At:      s.nowTime(),
	}
	if err := s.sessions.RecordStep(logID, step, result); err != nil {
		log.Warn().Err(err).Int64("logId", logID).Str("step", string(step)).Msg("could not record step result")
	}
}
