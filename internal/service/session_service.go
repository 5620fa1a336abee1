package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"saga-server/internal/models"
	"saga-server/internal/repository"
	"saga-server/internal/state"
)

const (
	baseHitPoints = 20
	defaultClass  = "Adventurer"
)

// CreateSessionRequest seeds a new adventure.
type CreateSessionRequest struct {
	CharacterName  string
	CharacterClass string
	Scenario       string
}

// SessionService manages session lifecycle and the player-initiated
// state mutations that happen outside a narrated turn.
type SessionService interface {
	CreateSession(ctx context.Context, req CreateSessionRequest) (models.GameState, error)
	GetSession(ctx context.Context, sessionID uuid.UUID) (models.GameState, error)
	EndSession(ctx context.Context, sessionID uuid.UUID) error

	AcceptSideQuest(ctx context.Context, sessionID uuid.UUID) (models.GameState, error)
	RejectSideQuest(ctx context.Context, sessionID uuid.UUID) (models.GameState, error)
	ResolveDiceRoll(ctx context.Context, sessionID uuid.UUID, rolls []models.DiceRoll) (models.GameState, error)
	DismissCompanion(ctx context.Context, sessionID uuid.UUID, companionID uuid.UUID) (models.GameState, error)
	SetAutoPlayVoice(ctx context.Context, sessionID uuid.UUID, enabled bool) (models.GameState, error)

	Notifications(ctx context.Context, sessionID uuid.UUID) ([]models.Notification, error)
	DismissNotification(ctx context.Context, sessionID uuid.UUID, notificationID uuid.UUID) error
}

type sessionServiceImpl struct {
	registry *Registry
	repo     repository.SessionRepository
	logger   *zap.Logger
}

func NewSessionService(registry *Registry, repo repository.SessionRepository, logger *zap.Logger) SessionService {
	return &sessionServiceImpl{
		registry: registry,
		repo:     repo,
		logger:   logger.Named("SessionService"),
	}
}

func (s *sessionServiceImpl) CreateSession(ctx context.Context, req CreateSessionRequest) (models.GameState, error) {
	name := strings.TrimSpace(req.CharacterName)
	if name == "" {
		return models.GameState{}, fmt.Errorf("%w: character name is required", models.ErrInvalidInput)
	}
	class := strings.TrimSpace(req.CharacterClass)
	if class == "" {
		class = defaultClass
	}

	now := time.Now()
	initial := models.GameState{
		SessionID: uuid.New(),
		Character: models.CharacterSheet{
			Name:         name,
			Class:        class,
			Level:        1,
			HitPoints:    baseHitPoints,
			MaxHitPoints: baseHitPoints,
		},
		Quests: []models.QuestProgress{seedMainQuest(req.Scenario)},
		World: models.WorldMemory{
			NPCs:  map[string]models.NPCRecord{},
			Flags: map[string]bool{},
		},
		Location:  models.LocationState{Current: "The Crossroads"},
		Arc:       models.StoryArc{Act: 1},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if scenario := strings.TrimSpace(req.Scenario); scenario != "" {
		initial.Story = []models.StoryEntry{{
			ID:        uuid.New(),
			Role:      models.EntryRoleSystem,
			Text:      scenario,
			CreatedAt: now,
		}}
	}

	session := s.registry.Create(initial)
	snapshot := session.Store.Snapshot()

	if err := s.repo.Save(ctx, snapshot); err != nil {
		s.registry.Remove(initial.SessionID)
		return models.GameState{}, err
	}

	s.logger.Info("Session created",
		zap.String("sessionID", initial.SessionID.String()),
		zap.String("character", name))
	return snapshot, nil
}

func seedMainQuest(scenario string) models.QuestProgress {
	title := "The Unwritten Legend"
	if scenario = strings.TrimSpace(scenario); scenario != "" {
		title = firstSentence(scenario)
	}
	return models.QuestProgress{
		ID:          uuid.New(),
		Title:       title,
		Description: "See the adventure through to its end.",
		Milestones: []models.Milestone{
			{ID: uuid.NewString(), Description: "Set out on the journey"},
			{ID: uuid.NewString(), Description: "Uncover the heart of the threat"},
			{ID: uuid.NewString(), Description: "Face the final challenge"},
		},
		MaxProgress: 100,
		IsMainQuest: true,
	}
}

func firstSentence(text string) string {
	if idx := strings.IndexAny(text, ".!?"); idx > 0 {
		text = text[:idx]
	}
	if len(text) > 80 {
		text = text[:80]
	}
	return strings.TrimSpace(text)
}

func (s *sessionServiceImpl) GetSession(ctx context.Context, sessionID uuid.UUID) (models.GameState, error) {
	session, err := s.registry.Resolve(ctx, sessionID)
	if err != nil {
		return models.GameState{}, err
	}
	return session.Store.Snapshot(), nil
}

func (s *sessionServiceImpl) EndSession(ctx context.Context, sessionID uuid.UUID) error {
	if _, err := s.registry.Resolve(ctx, sessionID); err != nil {
		return err
	}
	s.registry.Remove(sessionID)
	if err := s.repo.Delete(ctx, sessionID); err != nil {
		return err
	}
	s.logger.Info("Session ended", zap.String("sessionID", sessionID.String()))
	return nil
}

func (s *sessionServiceImpl) AcceptSideQuest(ctx context.Context, sessionID uuid.UUID) (models.GameState, error) {
	return s.mutate(ctx, sessionID, func(snapshot models.GameState) ([]state.Transition, error) {
		if snapshot.SuggestedQuest == nil {
			return nil, models.ErrNoSuggestedQuest
		}
		return []state.Transition{{Kind: state.KindAcceptSideQuest}}, nil
	})
}

func (s *sessionServiceImpl) RejectSideQuest(ctx context.Context, sessionID uuid.UUID) (models.GameState, error) {
	return s.mutate(ctx, sessionID, func(snapshot models.GameState) ([]state.Transition, error) {
		if snapshot.SuggestedQuest == nil {
			return nil, models.ErrNoSuggestedQuest
		}
		return []state.Transition{{Kind: state.KindRejectSideQuest}}, nil
	})
}

func (s *sessionServiceImpl) ResolveDiceRoll(ctx context.Context, sessionID uuid.UUID, rolls []models.DiceRoll) (models.GameState, error) {
	if len(rolls) == 0 {
		return models.GameState{}, fmt.Errorf("%w: at least one roll is required", models.ErrInvalidInput)
	}
	return s.mutate(ctx, sessionID, func(snapshot models.GameState) ([]state.Transition, error) {
		if snapshot.PendingRoll == nil {
			return nil, models.ErrNoPendingDiceRoll
		}
		transitions := []state.Transition{{
			Kind:    state.KindResolveDiceRoll,
			Payload: state.ResolveDiceRollPayload{Rolls: rolls},
		}}
		if snapshot.Character.DeathSaves.Active {
			transitions = append(transitions, deathSaveTransitions(snapshot.Character.DeathSaves, rolls[0])...)
		}
		return transitions, nil
	})
}

// A death save succeeds on a d20 result of 10 or higher.
const deathSaveSuccessFloor = 10

// deathSaveTransitions records the roll as a death save. Unless this
// save stabilizes or kills the character, the next one is prompted
// immediately.
func deathSaveTransitions(saves models.DeathSaveState, roll models.DiceRoll) []state.Transition {
	success := roll.Result >= deathSaveSuccessFloor
	transitions := []state.Transition{{
		Kind:    state.KindRecordDeathSave,
		Payload: state.RecordDeathSavePayload{Success: success},
	}}
	resolved := success && saves.Successes+1 >= state.DeathSaveThreshold ||
		!success && saves.Failures+1 >= state.DeathSaveThreshold
	if !resolved {
		transitions = append(transitions, state.Transition{
			Kind:    state.KindAwaitDiceRoll,
			Payload: state.AwaitDiceRollPayload{Reason: "Death save"},
		})
	}
	return transitions
}

func (s *sessionServiceImpl) DismissCompanion(ctx context.Context, sessionID uuid.UUID, companionID uuid.UUID) (models.GameState, error) {
	return s.mutate(ctx, sessionID, func(snapshot models.GameState) ([]state.Transition, error) {
		if snapshot.FindCompanion(companionID) < 0 {
			return nil, models.ErrCompanionNotFound
		}
		return []state.Transition{{
			Kind:    state.KindCompanionLeave,
			Payload: state.CompanionLeavePayload{CompanionID: companionID},
		}}, nil
	})
}

func (s *sessionServiceImpl) SetAutoPlayVoice(ctx context.Context, sessionID uuid.UUID, enabled bool) (models.GameState, error) {
	return s.mutate(ctx, sessionID, func(models.GameState) ([]state.Transition, error) {
		return []state.Transition{{
			Kind:    state.KindSetAutoPlayVoice,
			Payload: state.SetAutoPlayVoicePayload{Enabled: enabled},
		}}, nil
	})
}

func (s *sessionServiceImpl) Notifications(ctx context.Context, sessionID uuid.UUID) ([]models.Notification, error) {
	session, err := s.registry.Resolve(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return session.Notifications.Active(), nil
}

func (s *sessionServiceImpl) DismissNotification(ctx context.Context, sessionID uuid.UUID, notificationID uuid.UUID) error {
	session, err := s.registry.Resolve(ctx, sessionID)
	if err != nil {
		return err
	}
	session.Notifications.Dismiss(notificationID)
	return nil
}

// mutate resolves the session, derives transitions from a fresh snapshot,
// applies them as one pass and persists the result.
func (s *sessionServiceImpl) mutate(
	ctx context.Context,
	sessionID uuid.UUID,
	derive func(models.GameState) ([]state.Transition, error),
) (models.GameState, error) {
	session, err := s.registry.Resolve(ctx, sessionID)
	if err != nil {
		return models.GameState{}, err
	}

	transitions, err := derive(session.Store.Snapshot())
	if err != nil {
		return models.GameState{}, err
	}

	next, err := session.Store.ApplyPass(transitions)
	if err != nil {
		return models.GameState{}, err
	}

	if err := s.repo.Save(ctx, next); err != nil {
		s.logger.Warn("Failed to persist session snapshot",
			zap.String("sessionID", sessionID.String()), zap.Error(err))
	}
	return next, nil
}
