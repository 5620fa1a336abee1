package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"saga-server/internal/models"
	"saga-server/internal/notifications"
	"saga-server/internal/repository"
	"saga-server/internal/state"
)

// Session bundles the live, in-memory parts of one adventure: the state
// store and the ephemeral notification queue. At most one turn runs per
// session at a time; the busy flag enforces that.
type Session struct {
	ID            uuid.UUID
	Store         *state.Store
	Notifications *notifications.Queue

	busy atomic.Bool
}

// BeginTurn reports whether the caller acquired the turn slot.
func (s *Session) BeginTurn() bool {
	return s.busy.CompareAndSwap(false, true)
}

// EndTurn releases the turn slot.
func (s *Session) EndTurn() {
	s.busy.Store(false)
}

// Registry owns every live session. Sessions evicted from memory (after a
// restart) are rehydrated from their persisted snapshot on first access.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session

	repo     repository.SessionRepository
	notifTTL time.Duration
	logger   *zap.Logger
}

func NewRegistry(repo repository.SessionRepository, notifTTL time.Duration, logger *zap.Logger) *Registry {
	return &Registry{
		sessions: make(map[uuid.UUID]*Session),
		repo:     repo,
		notifTTL: notifTTL,
		logger:   logger.Named("SessionRegistry"),
	}
}

// Create registers a new live session around the given initial state.
func (r *Registry) Create(initial models.GameState) *Session {
	session := &Session{
		ID:            initial.SessionID,
		Store:         state.NewStore(initial, r.logger),
		Notifications: notifications.NewQueue(r.notifTTL, r.logger),
	}

	r.mu.Lock()
	r.sessions[session.ID] = session
	r.mu.Unlock()
	return session
}

// Resolve returns the live session, rehydrating from the snapshot store
// when the process restarted since the session was created.
func (r *Registry) Resolve(ctx context.Context, sessionID uuid.UUID) (*Session, error) {
	r.mu.RLock()
	session, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if ok {
		return session, nil
	}

	snapshot, err := r.repo.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another caller may have rehydrated while we were loading.
	if session, ok := r.sessions[sessionID]; ok {
		return session, nil
	}
	session = &Session{
		ID:            sessionID,
		Store:         state.NewStore(*snapshot, r.logger),
		Notifications: notifications.NewQueue(r.notifTTL, r.logger),
	}
	r.sessions[sessionID] = session
	r.logger.Info("Session rehydrated from snapshot", zap.String("sessionID", sessionID.String()))
	return session, nil
}

// Remove drops the live session and stops its notification timers.
func (r *Registry) Remove(sessionID uuid.UUID) {
	r.mu.Lock()
	session, ok := r.sessions[sessionID]
	delete(r.sessions, sessionID)
	r.mu.Unlock()

	if ok {
		session.Notifications.Close()
	}
}

// Close stops every live session's timers. Used on shutdown.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, session := range r.sessions {
		session.Notifications.Close()
		delete(r.sessions, id)
	}
}
