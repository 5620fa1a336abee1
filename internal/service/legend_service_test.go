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
	"saga-server/internal/messaging"
	messagingmocks "saga-server/internal/messaging/mocks"
	"saga-server/internal/models"
	repomocks "saga-server/internal/repository/mocks"
)

type legendFixture struct {
	svc       LegendService
	registry  *Registry
	repo      *repomocks.MockLegendRepository
	ai        *clientmocks.MockNarrativeClient
	images    *clientmocks.MockImageClient
	publisher *messagingmocks.MockClientUpdatePublisher
}

func newLegendFixture(t *testing.T) *legendFixture {
	t.Helper()
	sessionRepo := new(repomocks.MockSessionRepository)
	repo := new(repomocks.MockLegendRepository)
	ai := new(clientmocks.MockNarrativeClient)
	images := new(clientmocks.MockImageClient)
	publisher := new(messagingmocks.MockClientUpdatePublisher)

	registry := NewRegistry(sessionRepo, time.Minute, zap.NewNop())
	t.Cleanup(registry.Close)
	sessionRepo.On("Load", mock.Anything, mock.Anything).Return(nil, models.ErrSessionNotFound).Maybe()

	return &legendFixture{
		svc:       NewLegendService(registry, repo, ai, images, publisher, zap.NewNop()),
		registry:  registry,
		repo:      repo,
		ai:        ai,
		images:    images,
		publisher: publisher,
	}
}

func victoriousState() models.GameState {
	s := livingState()
	s.Flags.HasWon = true
	s.Stats = models.AchievementStats{
		EnemiesDefeated: 7,
		PuzzlesSolved:   2,
		CriticalHits:    3,
		TurnsTaken:      41,
	}
	return s
}

func TestRecordLegend(t *testing.T) {
	f := newLegendFixture(t)
	session := f.registry.Create(victoriousState())

	f.ai.On("GenerateShortText", mock.Anything, clients.ShortTextLegendTitle, mock.Anything).
		Return(`"The Comet's Bane"`, nil)
	f.images.On("GenerateImage", mock.Anything, mock.Anything, mock.Anything).
		Return("/media/legend_x.png", nil)

	var stored *models.Legend
	f.repo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*models.Legend)
	}).Return(nil)
	f.publisher.On("PublishClientUpdate", mock.Anything, mock.MatchedBy(func(p messaging.ClientUpdatePayload) bool {
		return p.Type == messaging.ClientUpdateLegendCreated && p.LegendID != nil
	})).Return(nil)

	f.svc.RecordLegend(context.Background(), session.ID, "And so the adventure ends.")

	require.NotNil(t, stored)
	assert.Equal(t, "Mira", stored.CharacterName)
	assert.Equal(t, "Ranger", stored.CharacterClass)
	assert.Equal(t, "The Comet's Bane", stored.Title, "generated titles are unquoted")
	assert.Equal(t, "And so the adventure ends.", stored.Summary)
	assert.Equal(t, 7, stored.EnemiesDefeated)
	assert.Equal(t, 41, stored.TurnsTaken)
	require.NotNil(t, stored.ImageURL)
	assert.Equal(t, "/media/legend_x.png", *stored.ImageURL)

	f.publisher.AssertExpectations(t)
}

func TestRecordLegendTitleFallback(t *testing.T) {
	f := newLegendFixture(t)
	session := f.registry.Create(victoriousState())

	f.ai.On("GenerateShortText", mock.Anything, mock.Anything, mock.Anything).
		Return("", assert.AnError)
	f.images.On("GenerateImage", mock.Anything, mock.Anything, mock.Anything).
		Return("", assert.AnError)

	var stored *models.Legend
	f.repo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*models.Legend)
	}).Return(nil)
	f.publisher.On("PublishClientUpdate", mock.Anything, mock.Anything).Return(nil)

	f.svc.RecordLegend(context.Background(), session.ID, "Thus ends the tale.")

	require.NotNil(t, stored)
	assert.Equal(t, "The Saga of Mira", stored.Title)
	assert.Nil(t, stored.ImageURL, "a failed portrait leaves the legend without one")
}

func TestRecordLegendUnknownSessionIsSilent(t *testing.T) {
	f := newLegendFixture(t)

	f.svc.RecordLegend(context.Background(), uuid.New(), "hint")

	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.publisher.AssertNotCalled(t, "PublishClientUpdate", mock.Anything, mock.Anything)
}

func TestRecordLegendStoreFailureIsSilent(t *testing.T) {
	f := newLegendFixture(t)
	session := f.registry.Create(victoriousState())

	f.ai.On("GenerateShortText", mock.Anything, mock.Anything, mock.Anything).Return("A Title", nil)
	f.images.On("GenerateImage", mock.Anything, mock.Anything, mock.Anything).Return("", assert.AnError)
	f.repo.On("Create", mock.Anything, mock.Anything).Return(assert.AnError)

	f.svc.RecordLegend(context.Background(), session.ID, "hint")

	f.publisher.AssertNotCalled(t, "PublishClientUpdate", mock.Anything, mock.Anything)
}

func TestLegendSummaryTruncation(t *testing.T) {
	long := make([]byte, maxLegendSummaryLength+50)
	for i := range long {
		long[i] = 'a'
	}
	assert.Len(t, truncate(string(long), maxLegendSummaryLength), maxLegendSummaryLength)
	assert.Equal(t, "short", truncate("  short  ", maxLegendSummaryLength))
}
