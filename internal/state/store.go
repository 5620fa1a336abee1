package state

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"saga-server/internal/models"
)

// Store is the single authority over one session's GameState. Transitions
// from one interpretation pass are applied as a unit: either every
// transition in the pass applies, or the state is left untouched.
//
// The turn pipeline itself is serialized by the session's busy flag; the
// mutex here only fences the detached side-effect patches that arrive
// after a turn is already done.
type Store struct {
	mu     sync.Mutex
	state  models.GameState
	logger *zap.Logger
}

// NewStore creates a store owning the given initial state.
func NewStore(initial models.GameState, logger *zap.Logger) *Store {
	return &Store{
		state:  initial,
		logger: logger.Named("StateStore"),
	}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() models.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// ApplyPass applies an ordered list of transitions atomically and returns
// the resulting state. On the first failing transition the whole pass is
// discarded and the prior state kept.
func (s *Store) ApplyPass(transitions []Transition) (models.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.state
	for i, t := range transitions {
		next, err := Apply(working, t)
		if err != nil {
			s.logger.Warn("Transition pass rejected",
				zap.Int("index", i),
				zap.String("kind", string(t.Kind)),
				zap.Error(err))
			return s.state.Clone(), err
		}
		working = next
	}
	s.state = working
	return s.state.Clone(), nil
}

// PatchEntry applies a late media patch to a story entry. Returns false
// when the entry no longer exists (for example after a session reset), in
// which case the patch is dropped silently per the side-effect contract.
func (s *Store) PatchEntry(entryID uuid.UUID, patch models.EntryPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := Apply(s.state, Transition{
		Kind:    KindPatchEntry,
		Payload: PatchEntryPayload{EntryID: entryID, Patch: patch},
	})
	if err != nil {
		s.logger.Debug("Entry patch dropped", zap.String("entryID", entryID.String()), zap.Error(err))
		return false
	}
	s.state = next
	return true
}
