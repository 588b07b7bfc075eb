package config

import "time"

type RemoteConfig interface {
	GetRemoteURL() string
	GetSessionTimeout() time.Duration
	GetAdminID() string
	GetAdminPasswordHash() string
}

type Remote struct{}

var _ RemoteConfig = Remote{}

// GetRemoteURL is the base URL of the AuthBox authorization service. An
// empty value selects offline mode, in which all evidence is accepted
// without real verification.
func (Remote) GetRemoteURL() string {
	return GetEnv("AUTHBOX_URL", "")
}

// GetSessionTimeout bounds both the login state and each verification
// session.
func (Remote) GetSessionTimeout() time.Duration {
	return GetEnvDuration("SESSION_TIMEOUT", 20*time.Minute)
}

// GetAdminID and GetAdminPasswordHash configure an optional local
// credential for offline mode. When unset, offline login accepts any
// non-empty id/password pair.
func (Remote) GetAdminID() string {
	return GetEnv("KIOSK_ADMIN_ID", "")
}

func (Remote) GetAdminPasswordHash() string {
	return GetEnv("KIOSK_ADMIN_PASSWORD_HASH", "")
}
