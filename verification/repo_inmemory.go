package verification

import (
	"fmt"
	"sync"

	kioskerrors "github.com/Burrun/Arduino/internal/errors"
)

// InMemorySessionRepo is an in-memory implementation of SessionRepo
type InMemorySessionRepo struct {
	mu       sync.RWMutex
	sessions map[int64]Session
}

// NewInMemorySessionRepo creates a new in-memory verification session repository
func NewInMemorySessionRepo() *InMemorySessionRepo {
	return &InMemorySessionRepo{
		sessions: make(map[int64]Session),
	}
}

// Upsert creates or updates a verification session
func (r *InMemorySessionRepo) Upsert(logID int64, session Session) error {
	if logID == 0 {
		return fmt.Errorf("logID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Copy the step results so the caller cannot mutate the stored session
	session.StepResults = copyStepResults(session.StepResults)
	r.sessions[logID] = session
	return nil
}

// Get retrieves a verification session by log ID
func (r *InMemorySessionRepo) Get(logID int64) (Session, error) {
	if logID == 0 {
		return Session{}, fmt.Errorf("logID is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[logID]
	if !ok {
		return Session{}, kioskerrors.ErrSessionNotFound
	}

	session.StepResults = copyStepResults(session.StepResults)
	return session, nil
}

// Delete removes a verification session
func (r *InMemorySessionRepo) Delete(logID int64) error {
	if logID == 0 {
		return fmt.Errorf("logID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, logID)
	return nil
}

// RecordStep stores one step outcome under the session, atomically with
// respect to concurrent recordings against the same session
func (r *InMemorySessionRepo) RecordStep(logID int64, step Step, result StepResult) error {
	if logID == 0 {
		return fmt.Errorf("logID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[logID]
	if !ok {
		return kioskerrors.ErrSessionNotFound
	}

	session.StepResults = copyStepResults(session.StepResults)
	session.StepResults[step] = result
	r.sessions[logID] = session
	return nil
}

func copyStepResults(in map[Step]StepResult) map[Step]StepResult {
	out := make(map[Step]StepResult, len(in))
	for step, result := range in {
		out[step] = result
	}
	return out
}
