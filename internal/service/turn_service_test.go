package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"saga-server/internal/clients"
	clientmocks "saga-server/internal/clients/mocks"
	"saga-server/internal/engine"
	"saga-server/internal/messaging"
	messagingmocks "saga-server/internal/messaging/mocks"
	"saga-server/internal/models"
	"saga-server/internal/random"
	repomocks "saga-server/internal/repository/mocks"
	"saga-server/internal/sideeffects"
)

type turnFixture struct {
	svc       TurnService
	registry  *Registry
	repo      *repomocks.MockSessionRepository
	ai        *clientmocks.MockNarrativeClient
	publisher *messagingmocks.MockClientUpdatePublisher
}

func newTurnFixture(t *testing.T) *turnFixture {
	t.Helper()
	repo := new(repomocks.MockSessionRepository)
	ai := new(clientmocks.MockNarrativeClient)
	publisher := new(messagingmocks.MockClientUpdatePublisher)

	registry := NewRegistry(repo, time.Minute, zap.NewNop())
	t.Cleanup(registry.Close)

	interpreter := engine.NewInterpreter(engine.DefaultConfig(), random.Forced(0.99), zap.NewNop())
	pipeline := sideeffects.NewPipeline(nil, nil, nil, nil, messaging.NopPublisher{}, time.Second, zap.NewNop())

	return &turnFixture{
		svc:       NewTurnService(registry, repo, ai, interpreter, pipeline, publisher, false, zap.NewNop()),
		registry:  registry,
		repo:      repo,
		ai:        ai,
		publisher: publisher,
	}
}

func livingState() models.GameState {
	return models.GameState{
		SessionID: uuid.New(),
		Character: models.CharacterSheet{
			Name:         "Mira",
			Class:        "Ranger",
			Level:        1,
			HitPoints:    20,
			MaxHitPoints: 20,
		},
		Location: models.LocationState{Current: "The Crossroads"},
		Arc:      models.StoryArc{Act: 1},
	}
}

func TestSubmitTurnRejectsEmptyAction(t *testing.T) {
	f := newTurnFixture(t)
	_, err := f.svc.SubmitTurn(context.Background(), uuid.New(), "   ", nil)
	assert.ErrorIs(t, err, models.ErrEmptyAction)
}

func TestSubmitTurnUnknownSession(t *testing.T) {
	f := newTurnFixture(t)
	f.repo.On("Load", mock.Anything, mock.Anything).Return(nil, models.ErrSessionNotFound)

	_, err := f.svc.SubmitTurn(context.Background(), uuid.New(), "look around", nil)
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}

func TestSubmitTurnEndedSession(t *testing.T) {
	f := newTurnFixture(t)

	dead := livingState()
	dead.Flags.IsDead = true
	session := f.registry.Create(dead)

	_, err := f.svc.SubmitTurn(context.Background(), session.ID, "get up", nil)
	assert.ErrorIs(t, err, models.ErrSessionEnded)

	won := livingState()
	won.Flags.HasWon = true
	session = f.registry.Create(won)

	_, err = f.svc.SubmitTurn(context.Background(), session.ID, "keep going", nil)
	assert.ErrorIs(t, err, models.ErrSessionEnded)
}

func TestSubmitTurnBusySession(t *testing.T) {
	f := newTurnFixture(t)
	session := f.registry.Create(livingState())

	require.True(t, session.BeginTurn())
	defer session.EndTurn()

	_, err := f.svc.SubmitTurn(context.Background(), session.ID, "attack", nil)
	assert.ErrorIs(t, err, models.ErrTurnInProgress)
}

func TestSubmitTurnSuccess(t *testing.T) {
	f := newTurnFixture(t)
	session := f.registry.Create(livingState())

	resp := &models.TurnResponse{
		Narrative:        "The dragon roars, and you stand your ground.",
		DamageTaken:      intPointer(4),
		ExperienceGained: intPointer(50),
	}
	f.ai.On("StreamTurn", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			emit := args.Get(2).(func(string) error)
			_ = emit("The dragon roars, ")
			_ = emit("and you stand your ground.")
		}).
		Return(resp, nil)
	f.repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.publisher.On("PublishClientUpdate", mock.Anything, mock.Anything).Return(nil)

	var fragments []string
	result, err := f.svc.SubmitTurn(context.Background(), session.ID, "stand my ground", func(accumulated string) {
		fragments = append(fragments, accumulated)
	})
	require.NoError(t, err)

	assert.False(t, result.Fallback)
	assert.Equal(t, resp.Narrative, result.Narrative)
	assert.Equal(t, []string{
		"The dragon roars, ",
		"The dragon roars, and you stand your ground.",
	}, fragments)

	// Player entry, then the narrator's answer.
	require.Len(t, result.State.Story, 2)
	assert.Equal(t, models.EntryRolePlayer, result.State.Story[0].Role)
	assert.Equal(t, models.EntryRoleNarrator, result.State.Story[1].Role)
	assert.Equal(t, result.EntryID, result.State.Story[1].ID)

	assert.Equal(t, 16, result.State.Character.HitPoints)
	assert.Equal(t, 50, result.State.Character.Experience)

	// The experience grant surfaces as a notification.
	require.Len(t, result.Notifications, 1)
	assert.Equal(t, "Gained 50 experience", result.Notifications[0].Message)
	assert.Len(t, session.Notifications.Active(), 1)

	// One update per notification plus the completion signal.
	f.publisher.AssertNumberOfCalls(t, "PublishClientUpdate", 2)

	// The slot is free again.
	assert.True(t, session.BeginTurn())
	session.EndTurn()
}

func TestSubmitTurnFallbackOnGenerationFailure(t *testing.T) {
	f := newTurnFixture(t)
	session := f.registry.Create(livingState())

	f.ai.On("StreamTurn", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, assert.AnError)
	f.repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.publisher.On("PublishClientUpdate", mock.Anything, mock.Anything).Return(nil)

	result, err := f.svc.SubmitTurn(context.Background(), session.ID, "open the door", nil)
	require.NoError(t, err, "a failed generation degrades, it does not error")

	assert.True(t, result.Fallback)
	assert.Equal(t, engine.FallbackNarrative, result.Narrative)
	assert.Empty(t, result.Notifications)

	// The player's action and the fallback narration are both kept.
	require.Len(t, result.State.Story, 2)
	assert.Equal(t, "open the door", result.State.Story[0].Text)
	assert.Equal(t, engine.FallbackNarrative, result.State.Story[1].Text)

	// Character state is untouched on a fallback turn.
	assert.Equal(t, 20, result.State.Character.HitPoints)
}

func TestSubmitTurnPersistFailureIsNotFatal(t *testing.T) {
	f := newTurnFixture(t)
	session := f.registry.Create(livingState())

	f.ai.On("StreamTurn", mock.Anything, mock.Anything, mock.Anything).
		Return(&models.TurnResponse{Narrative: "You walk on."}, nil)
	f.repo.On("Save", mock.Anything, mock.Anything).Return(assert.AnError)
	f.publisher.On("PublishClientUpdate", mock.Anything, mock.Anything).Return(nil)

	result, err := f.svc.SubmitTurn(context.Background(), session.ID, "walk on", nil)
	require.NoError(t, err)
	assert.False(t, result.Fallback)
}

type legendRecorderStub struct {
	hints chan string
}

func (s *legendRecorderStub) RecordLegend(_ context.Context, _ uuid.UUID, titleHint string) {
	s.hints <- titleHint
}

func TestSubmitTurnVictoryRecordsLegend(t *testing.T) {
	repo := new(repomocks.MockSessionRepository)
	ai := new(clientmocks.MockNarrativeClient)
	publisher := new(messagingmocks.MockClientUpdatePublisher)
	recorder := &legendRecorderStub{hints: make(chan string, 1)}

	registry := NewRegistry(repo, time.Minute, zap.NewNop())
	t.Cleanup(registry.Close)

	interpreter := engine.NewInterpreter(engine.DefaultConfig(), random.Forced(0.99), zap.NewNop())
	pipeline := sideeffects.NewPipeline(nil, nil, nil, recorder, messaging.NopPublisher{}, time.Second, zap.NewNop())
	svc := NewTurnService(registry, repo, ai, interpreter, pipeline, publisher, false, zap.NewNop())

	session := registry.Create(livingState())

	narrative := "You lower your blade at last. Your legend will be remembered."
	ai.On("StreamTurn", mock.Anything, mock.Anything, mock.Anything).
		Return(&models.TurnResponse{
			Narrative:     narrative,
			StoryProgress: &models.StoryProgressUpdate{Ending: true},
		}, nil)
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	publisher.On("PublishClientUpdate", mock.Anything, mock.Anything).Return(nil)

	result, err := svc.SubmitTurn(context.Background(), session.ID, "finish it", nil)
	require.NoError(t, err)
	assert.True(t, result.State.Flags.HasWon)

	select {
	case hint := <-recorder.hints:
		assert.Equal(t, narrative, hint)
	case <-time.After(time.Second):
		t.Fatal("legend recorder was never invoked")
	}
}

func TestSubmitTurnSendsRecentHistory(t *testing.T) {
	f := newTurnFixture(t)
	session := f.registry.Create(livingState())

	var captured clients.TurnRequest
	f.ai.On("StreamTurn", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(clients.TurnRequest)
		}).
		Return(&models.TurnResponse{Narrative: "Noted."}, nil)
	f.repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.publisher.On("PublishClientUpdate", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.SubmitTurn(context.Background(), session.ID, "inspect the altar", nil)
	require.NoError(t, err)

	assert.Equal(t, "inspect the altar", captured.Action)
	assert.Contains(t, captured.CharacterSummary, "Mira")
	// The player entry committed before the request is part of the history.
	require.NotEmpty(t, captured.RecentHistory)
	assert.Equal(t, "inspect the altar", captured.RecentHistory[len(captured.RecentHistory)-1].Text)
}

func intPointer(v int) *int { return &v }
