package memory

import (
	"sync"

	"poker-quiz-service/internal/app"
	"poker-quiz-service/internal/domain"
)

// SessionRegistry is the in-memory implementation of app.SessionRegistry.
// Sessions have no TTL; an abandoned quiz stays registered until revealed.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*app.Session),
	}
}

func (r *SessionRegistry) Create(session *app.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[session.ID()]; ok {
		return domain.ErrDuplicateQuizID
	}
	r.sessions[session.ID()] = session
	return nil
}

func (r *SessionRegistry) Get(quizID string) (*app.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[quizID]
	return session, ok
}

func (r *SessionRegistry) Delete(quizID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, quizID)
}
