package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"saga-server/internal/clients"
	"saga-server/internal/engine"
	"saga-server/internal/messaging"
	"saga-server/internal/models"
	"saga-server/internal/repository"
	"saga-server/internal/sideeffects"
	"saga-server/internal/state"
	"saga-server/internal/stream"
)

// historyWindow is how many recent story entries travel to the narrative
// service as context.
const historyWindow = 12

var (
	turnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saga_turns_total",
			Help: "Total processed turns by outcome.",
		},
		[]string{"outcome"},
	)
	turnDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "saga_turn_duration_seconds",
			Help:    "End-to-end turn processing duration.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		},
	)
)

// TurnResult is everything the transport needs after a completed turn.
type TurnResult struct {
	State         models.GameState
	EntryID       uuid.UUID
	Narrative     string
	Fallback      bool
	Notifications []models.Notification
}

// TurnService runs the full turn pipeline: player entry, streamed
// narration, interpretation, one atomic state pass, notifications and
// detached side effects.
type TurnService interface {
	SubmitTurn(ctx context.Context, sessionID uuid.UUID, action string, onFragment stream.FragmentFunc) (*TurnResult, error)
}

type turnServiceImpl struct {
	registry    *Registry
	repo        repository.SessionRepository
	ai          clients.NarrativeClient
	interpreter *engine.Interpreter
	pipeline    *sideeffects.Pipeline
	publisher   messaging.ClientUpdatePublisher
	sceneImages bool
	logger      *zap.Logger
}

func NewTurnService(
	registry *Registry,
	repo repository.SessionRepository,
	ai clients.NarrativeClient,
	interpreter *engine.Interpreter,
	pipeline *sideeffects.Pipeline,
	publisher messaging.ClientUpdatePublisher,
	sceneImages bool,
	logger *zap.Logger,
) TurnService {
	return &turnServiceImpl{
		registry:    registry,
		repo:        repo,
		ai:          ai,
		interpreter: interpreter,
		pipeline:    pipeline,
		publisher:   publisher,
		sceneImages: sceneImages,
		logger:      logger.Named("TurnService"),
	}
}

func (s *turnServiceImpl) SubmitTurn(ctx context.Context, sessionID uuid.UUID, action string, onFragment stream.FragmentFunc) (*TurnResult, error) {
	action = strings.TrimSpace(action)
	if action == "" {
		return nil, models.ErrEmptyAction
	}

	session, err := s.registry.Resolve(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	snapshot := session.Store.Snapshot()
	if snapshot.Flags.IsDead || snapshot.Flags.HasWon {
		return nil, models.ErrSessionEnded
	}

	if !session.BeginTurn() {
		turnsTotal.WithLabelValues("rejected_busy").Inc()
		return nil, models.ErrTurnInProgress
	}
	defer session.EndTurn()

	log := s.logger.With(zap.String("sessionID", sessionID.String()))
	startTime := time.Now()

	// The player's action becomes part of the story before the narrator
	// answers, so even a failed turn keeps what the player said.
	playerEntry := models.StoryEntry{
		ID:        uuid.New(),
		Role:      models.EntryRolePlayer,
		Text:      action,
		CreatedAt: startTime,
	}
	prior, err := session.Store.ApplyPass([]state.Transition{{
		Kind:    state.KindAppendEntry,
		Payload: state.AppendEntryPayload{Entry: playerEntry},
	}})
	if err != nil {
		return nil, err
	}

	channel := stream.NewTextChannel(onFragment, nil)
	resp, aiErr := s.ai.StreamTurn(ctx, clients.TurnRequest{
		Action:           action,
		CharacterSummary: prior.CharacterSummary(),
		RecentHistory:    prior.RecentHistory(historyWindow),
		ActiveQuests:     prior.ActiveQuests(),
	}, func(fragment string) error {
		channel.Write(fragment)
		return nil
	})
	if aiErr != nil {
		log.Warn("Narrative generation failed, taking fallback path", zap.Error(aiErr))
		channel.Fail(aiErr)
		resp = nil
	} else {
		channel.Complete(resp)
	}

	now := time.Now()
	outcome := s.interpreter.Interpret(resp, prior, now)

	narratorEntry := models.StoryEntry{
		ID:        uuid.New(),
		Role:      models.EntryRoleNarrator,
		Text:      outcome.Narrative,
		CreatedAt: now,
	}
	if resp != nil {
		narratorEntry.DiceRolls = resp.DiceRolls
	}

	pass := make([]state.Transition, 0, len(outcome.Transitions)+1)
	pass = append(pass, state.Transition{
		Kind:    state.KindAppendEntry,
		Payload: state.AppendEntryPayload{Entry: narratorEntry},
	})
	pass = append(pass, outcome.Transitions...)

	next, err := session.Store.ApplyPass(pass)
	if err != nil {
		// A rejected pass must not swallow the narration the player
		// already read; keep the entry and drop the mechanical effects.
		log.Error("Transition pass rejected, keeping narrative only", zap.Error(err))
		next, err = session.Store.ApplyPass(pass[:1])
		if err != nil {
			turnsTotal.WithLabelValues("error").Inc()
			return nil, err
		}
		outcome.Notifications = nil
		outcome.SideEffects = nil
	}

	notes := make([]models.Notification, 0, len(outcome.Notifications))
	for _, n := range outcome.Notifications {
		note := session.Notifications.Push(n.Message, n.Category)
		notes = append(notes, note)
		s.publishNotification(ctx, sessionID, note, log)
	}

	s.dispatchSideEffects(session, narratorEntry.ID, next, outcome)

	if err := s.repo.Save(ctx, next); err != nil {
		log.Warn("Failed to persist session snapshot", zap.Error(err))
	}
	s.publishTurnCompleted(ctx, sessionID, log)

	if outcome.Fallback {
		turnsTotal.WithLabelValues("fallback").Inc()
	} else {
		turnsTotal.WithLabelValues("success").Inc()
	}
	turnDuration.Observe(time.Since(startTime).Seconds())

	return &TurnResult{
		State:         next,
		EntryID:       narratorEntry.ID,
		Narrative:     outcome.Narrative,
		Fallback:      outcome.Fallback,
		Notifications: notes,
	}, nil
}

// dispatchSideEffects launches the detached generations. Voice synthesis
// is opt-in per session; scene images are a deployment-level switch. A
// fallback turn gets no media at all.
func (s *turnServiceImpl) dispatchSideEffects(session *Session, entryID uuid.UUID, next models.GameState, outcome engine.Outcome) {
	effects := outcome.SideEffects
	if !outcome.Fallback {
		if next.Flags.AutoPlayVoice {
			effects = append(effects, engine.SideEffectRequest{Kind: engine.SideEffectSpeech, Text: outcome.Narrative})
		}
		if s.sceneImages {
			effects = append(effects, engine.SideEffectRequest{Kind: engine.SideEffectSceneImage, Text: outcome.Narrative})
		}
	}
	if len(effects) == 0 {
		return
	}
	s.pipeline.Run(sideeffects.Dispatch{
		SessionID: session.ID,
		EntryID:   entryID,
		Patcher:   session.Store,
	}, effects)
}

func (s *turnServiceImpl) publishNotification(ctx context.Context, sessionID uuid.UUID, note models.Notification, log *zap.Logger) {
	n := note
	err := s.publisher.PublishClientUpdate(ctx, messaging.ClientUpdatePayload{
		SessionID:    sessionID,
		Type:         messaging.ClientUpdateNotification,
		Notification: &n,
	})
	if err != nil {
		log.Warn("Failed to publish notification update", zap.Error(err))
	}
}

func (s *turnServiceImpl) publishTurnCompleted(ctx context.Context, sessionID uuid.UUID, log *zap.Logger) {
	err := s.publisher.PublishClientUpdate(ctx, messaging.ClientUpdatePayload{
		SessionID: sessionID,
		Type:      messaging.ClientUpdateTurnCompleted,
	})
	if err != nil {
		log.Warn("Failed to publish turn completion", zap.Error(err))
	}
}
