package verification

// SessionRepo stores active verification sessions keyed by log id.
// RecordStep must be atomic with respect to concurrent step calls against
// the same session.
type SessionRepo interface {
	Upsert(logID int64, session Session) error
	Get(logID int64) (Session, error)
	Delete(logID int64) error
	RecordStep(logID int64, step Step, result StepResult) error
}
