package verification_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	kioskerrors "github.com/Burrun/Arduino/internal/errors"
	"github.com/Burrun/Arduino/remote"
	"github.com/Burrun/Arduino/verification"
)

const (
	testUserID       = "reporter-7"
	testUserPassword = "password123"
	testLogID        = int64(42)
)

// stepCall records one forwarded step on the fake authorization client.
type stepCall struct {
	logID    int64
	modality remote.Modality
	filename string
}

// fakeRemote is a configurable stand-in for the authorization service.
type fakeRemote struct {
	loginErr   error
	startLogID int64
	startErr   error
	stepErr    error
	verdict    remote.Verdict

	loginCalls int
	calls      []stepCall
}

var _ remote.Client = (*fakeRemote)(nil)

func (r *fakeRemote) Login(_ context.Context, _, _ string) error {
	r.loginCalls++
	return r.loginErr
}

func (r *fakeRemote) StartVerification(_ context.Context, _ string) (int64, error) {
	if r.startErr != nil {
		return 0, r.startErr
	}
	return r.startLogID, nil
}

func (r *fakeRemote) VerifyGPS(_ context.Context, logID int64, _, _ float64) (remote.Verdict, error) {
	return r.step(logID, remote.ModalityGPS, "")
}

func (r *fakeRemote) VerifyOTP(_ context.Context, logID int64, _ string) (remote.Verdict, error) {
	return r.step(logID, remote.ModalityOTP, "")
}

func (r *fakeRemote) VerifyImage(_ context.Context, logID int64, modality remote.Modality, filename, _ string, _ []byte) (remote.Verdict, error) {
	return r.step(logID, modality, filename)
}

func (r *fakeRemote) SendMail(_ context.Context, logID int64, _ string) (remote.Verdict, error) {
	return r.step(logID, remote.ModalityMail, "")
}

func (r *fakeRemote) step(logID int64, modality remote.Modality, filename string) (remote.Verdict, error) {
	r.calls = append(r.calls, stepCall{logID: logID, modality: modality, filename: filename})
	if r.stepErr != nil {
		return remote.Verdict{}, r.stepErr
	}
	if r.verdict.Status == 0 {
		return remote.Verdict{Status: 200}, nil
	}
	return r.verdict, nil
}

// testFixture holds the service under test with a controllable clock.
type testFixture struct {
	remote   *fakeRemote
	sessions *verification.InMemorySessionRepo
	service  *verification.Service
	now      time.Time
}

// setupTestFixture creates a service over fresh fakes with a fixed clock
func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{
		remote:   &fakeRemote{startLogID: testLogID},
		sessions: verification.NewInMemorySessionRepo(),
		now:      time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
	}
	f.service = verification.NewService(f.sessions, f.remote, 0,
		verification.WithNowTime(func() time.Time { return f.now }))
	return f
}

func (f *testFixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

// loginAndStart performs the login and opens a session, returning its log id
func (f *testFixture) loginAndStart(t *testing.T) int64 {
	t.Helper()

	require.NoError(t, f.service.Login(context.Background(), testUserID, testUserPassword))
	logID, err := f.service.Start(context.Background(), testUserID)
	require.NoError(t, err)
	return logID
}

// TestLogin_RecordsActiveLogin tests that a successful login unlocks Start
func TestLogin_RecordsActiveLogin(t *testing.T) {
	f := setupTestFixture(t)

	err := f.service.Login(context.Background(), testUserID, testUserPassword)

	require.NoError(t, err)
	require.Equal(t, 1, f.remote.loginCalls)

	logID, err := f.service.Start(context.Background(), testUserID)
	require.NoError(t, err)
	require.Equal(t, testLogID, logID)
}

// TestLogin_RemoteFailure tests that a rejected login leaves the kiosk
// unauthenticated
func TestLogin_RemoteFailure(t *testing.T) {
	f := setupTestFixture(t)
	f.remote.loginErr = kioskerrors.ErrInvalidCredentials

	err := f.service.Login(context.Background(), testUserID, "wrong")
	require.Error(t, err)
	require.ErrorIs(t, err, kioskerrors.ErrInvalidCredentials)

	_, err = f.service.Start(context.Background(), testUserID)
	require.ErrorIs(t, err, kioskerrors.ErrUnauthenticated)
}

// TestStart_RequiresLogin tests that Start is refused without a login
func TestStart_RequiresLogin(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.Start(context.Background(), testUserID)

	require.ErrorIs(t, err, kioskerrors.ErrUnauthenticated)
	require.Empty(t, f.remote.calls)
}

// TestStart_ExpiredLogin tests that the login lifetime is enforced, with
// the boundary itself counting as expired
func TestStart_ExpiredLogin(t *testing.T) {
	f := setupTestFixture(t)
	require.NoError(t, f.service.Login(context.Background(), testUserID, testUserPassword))

	f.advance(verification.DefaultSessionTimeout)

	_, err := f.service.Start(context.Background(), testUserID)
	require.ErrorIs(t, err, kioskerrors.ErrSessionExpired)
}

// TestStart_OpensSession tests that Start stores a session under the
// remote's log id
func TestStart_OpensSession(t *testing.T) {
	f := setupTestFixture(t)
	createdAt := f.now

	logID := f.loginAndStart(t)
	require.Equal(t, testLogID, logID)

	session, err := f.sessions.Get(logID)
	require.NoError(t, err)
	require.Equal(t, testUserID, session.UserID)
	require.Equal(t, createdAt, session.CreatedAt)
	require.Empty(t, session.StepResults)
}

// TestStart_RemoteFailureStoresNoSession tests that no session is opened
// when the remote refuses to issue a log id
func TestStart_RemoteFailureStoresNoSession(t *testing.T) {
	f := setupTestFixture(t)
	f.remote.startErr = kioskerrors.ErrRemoteUnavailable
	require.NoError(t, f.service.Login(context.Background(), testUserID, testUserPassword))

	_, err := f.service.Start(context.Background(), testUserID)
	require.ErrorIs(t, err, kioskerrors.ErrRemoteUnavailable)

	_, err = f.sessions.Get(testLogID)
	require.ErrorIs(t, err, kioskerrors.ErrSessionNotFound)
}

// TestValidateSession_ReturnsActiveSession tests lookup just inside the
// session lifetime
func TestValidateSession_ReturnsActiveSession(t *testing.T) {
	f := setupTestFixture(t)
	logID := f.loginAndStart(t)

	f.advance(verification.DefaultSessionTimeout - time.Second)

	session, err := f.service.ValidateSession(logID)
	require.NoError(t, err)
	require.Equal(t, logID, session.LogID)
	require.Equal(t, testUserID, session.UserID)
}

// TestValidateSession_ExpiresAtBoundary tests that a session is expired and
// removed exactly at the end of its lifetime
func TestValidateSession_ExpiresAtBoundary(t *testing.T) {
	f := setupTestFixture(t)
	logID := f.loginAndStart(t)

	f.advance(verification.DefaultSessionTimeout)

	_, err := f.service.ValidateSession(logID)
	require.ErrorIs(t, err, kioskerrors.ErrSessionExpired)

	_, err = f.sessions.Get(logID)
	require.ErrorIs(t, err, kioskerrors.ErrSessionNotFound)
}

// TestValidateSession_UnknownLogID tests lookup of a log id that was never
// issued
func TestValidateSession_UnknownLogID(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.ValidateSession(999)

	require.ErrorIs(t, err, kioskerrors.ErrSessionNotFound)
}

// TestVerifyGPS_ForwardsAndRecords tests the gps step happy path
func TestVerifyGPS_ForwardsAndRecords(t *testing.T) {
	f := setupTestFixture(t)
	logID := f.loginAndStart(t)

	verdict, err := f.service.VerifyGPS(context.Background(), logID, 37.5665, 126.9780)

	require.NoError(t, err)
	require.Equal(t, 200, verdict.Status)
	require.Len(t, f.remote.calls, 1)
	require.Equal(t, stepCall{logID: logID, modality: remote.ModalityGPS}, f.remote.calls[0])

	session, err := f.sessions.Get(logID)
	require.NoError(t, err)
	require.True(t, session.StepResults[verification.StepGPS].Passed)
}

// TestVerifyGPS_RejectsZeroFix tests that (0,0) is refused before anything
// is forwarded
func TestVerifyGPS_RejectsZeroFix(t *testing.T) {
	f := setupTestFixture(t)
	logID := f.loginAndStart(t)

	_, err := f.service.VerifyGPS(context.Background(), logID, 0, 0)

	require.ErrorIs(t, err, kioskerrors.ErrInvalidGPSFix)
	require.Empty(t, f.remote.calls)
}

// TestVerifyStep_UnknownSession tests that steps against an unknown log id
// never reach the remote
func TestVerifyStep_UnknownSession(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.VerifyOTP(context.Background(), 999, "이순신")

	require.ErrorIs(t, err, kioskerrors.ErrSessionNotFound)
	require.Empty(t, f.remote.calls)
}

// TestVerifyStep_ExpiredSession tests that steps against an expired session
// are refused
func TestVerifyStep_ExpiredSession(t *testing.T) {
	f := setupTestFixture(t)
	logID := f.loginAndStart(t)

	f.advance(verification.DefaultSessionTimeout)

	_, err := f.service.VerifyOTP(context.Background(), logID, "이순신")
	require.ErrorIs(t, err, kioskerrors.ErrSessionExpired)
	require.Empty(t, f.remote.calls)
}

// TestVerifyStep_RemoteRejectionRecorded tests that a rejected step is
// stored as failed and the rejection is surfaced
func TestVerifyStep_RemoteRejectionRecorded(t *testing.T) {
	f := setupTestFixture(t)
	logID := f.loginAndStart(t)
	f.remote.stepErr = &remote.RejectedError{Path: "/api/verification/42/face", Status: 401, Body: []byte(`{"status":"fail"}`)}

	_, err := f.service.VerifyFace(context.Background(), logID, "face.jpg", "image/jpeg", []byte("jpeg-bytes"))

	require.Error(t, err)
	require.ErrorIs(t, err, kioskerrors.ErrRemoteRejected)

	session, getErr := f.sessions.Get(logID)
	require.NoError(t, getErr)
	result, ok := session.StepResults[verification.StepFace]
	require.True(t, ok)
	require.False(t, result.Passed)
}

// TestVerifyStep_RepeatOverwritesResult tests that retrying a step replaces
// its stored outcome
func TestVerifyStep_RepeatOverwritesResult(t *testing.T) {
	f := setupTestFixture(t)
	logID := f.loginAndStart(t)

	f.remote.stepErr = &remote.RejectedError{Path: "/api/verification/42/otp", Status: 401}
	_, err := f.service.VerifyOTP(context.Background(), logID, "이순신")
	require.Error(t, err)

	f.remote.stepErr = nil
	_, err = f.service.VerifyOTP(context.Background(), logID, "이순신")
	require.NoError(t, err)

	session, err := f.sessions.Get(logID)
	require.NoError(t, err)
	require.Len(t, session.StepResults, 1)
	require.True(t, session.StepResults[verification.StepOTP].Passed)
}

// TestVerifyImage_ForwardsModalities tests that each image step reaches the
// remote under its own modality and filename
func TestVerifyImage_ForwardsModalities(t *testing.T) {
	f := setupTestFixture(t)
	logID := f.loginAndStart(t)

	_, err := f.service.VerifyFingerprint(context.Background(), logID, "fingerprint.png", "image/png", []byte("png-bytes"))
	require.NoError(t, err)
	_, err = f.service.VerifySignature(context.Background(), logID, "signature.png", "image/png", []byte("png-bytes"))
	require.NoError(t, err)

	require.Len(t, f.remote.calls, 2)
	require.Equal(t, remote.ModalityFingerprint, f.remote.calls[0].modality)
	require.Equal(t, "fingerprint.png", f.remote.calls[0].filename)
	require.Equal(t, remote.ModalitySignature, f.remote.calls[1].modality)
	require.Equal(t, "signature.png", f.remote.calls[1].filename)

	session, err := f.sessions.Get(logID)
	require.NoError(t, err)
	require.True(t, session.StepResults[verification.StepFingerprint].Passed)
	require.True(t, session.StepResults[verification.StepSignature].Passed)
}

// TestFinalize_ClearsSessionAndLogin tests that a delivered report closes
// the session and logs the kiosk out
func TestFinalize_ClearsSessionAndLogin(t *testing.T) {
	f := setupTestFixture(t)
	logID := f.loginAndStart(t)

	verdict, err := f.service.Finalize(context.Background(), logID, "reporter@example.com")
	require.NoError(t, err)
	require.Equal(t, 200, verdict.Status)

	_, err = f.sessions.Get(logID)
	require.ErrorIs(t, err, kioskerrors.ErrSessionNotFound)

	_, err = f.service.Start(context.Background(), testUserID)
	require.ErrorIs(t, err, kioskerrors.ErrUnauthenticated)
}

// TestFinalize_RemoteFailureKeepsSession tests that a failed mail delivery
// leaves the session and login in place for a retry
func TestFinalize_RemoteFailureKeepsSession(t *testing.T) {
	f := setupTestFixture(t)
	logID := f.loginAndStart(t)
	f.remote.stepErr = kioskerrors.ErrRemoteUnavailable

	_, err := f.service.Finalize(context.Background(), logID, "reporter@example.com")
	require.ErrorIs(t, err, kioskerrors.ErrRemoteUnavailable)

	session, err := f.sessions.Get(logID)
	require.NoError(t, err)
	require.False(t, session.StepResults[verification.StepMail].Passed)

	f.remote.stepErr = nil
	_, err = f.service.Finalize(context.Background(), logID, "reporter@example.com")
	require.NoError(t, err)
}
