package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"saga-server/internal/clients"
	"saga-server/internal/messaging"
	"saga-server/internal/models"
	"saga-server/internal/repository"
)

const maxLegendSummaryLength = 400

// LegendService records finished adventures and serves the hall of
// legends. Recording runs detached from the victory turn and never fails
// the gameplay path; a lost legend is logged and gone.
type LegendService interface {
	RecordLegend(ctx context.Context, sessionID uuid.UUID, titleHint string)
	GetLegend(ctx context.Context, id uuid.UUID) (*models.Legend, error)
	ListLegends(ctx context.Context, limit, offset int) ([]*models.Legend, error)
}

type legendServiceImpl struct {
	registry  *Registry
	repo      repository.LegendRepository
	ai        clients.NarrativeClient
	images    clients.ImageClient
	publisher messaging.ClientUpdatePublisher
	logger    *zap.Logger
}

func NewLegendService(
	registry *Registry,
	repo repository.LegendRepository,
	ai clients.NarrativeClient,
	images clients.ImageClient,
	publisher messaging.ClientUpdatePublisher,
	logger *zap.Logger,
) LegendService {
	return &legendServiceImpl{
		registry:  registry,
		repo:      repo,
		ai:        ai,
		images:    images,
		publisher: publisher,
		logger:    logger.Named("LegendService"),
	}
}

func (s *legendServiceImpl) RecordLegend(ctx context.Context, sessionID uuid.UUID, titleHint string) {
	log := s.logger.With(zap.String("sessionID", sessionID.String()))

	session, err := s.registry.Resolve(ctx, sessionID)
	if err != nil {
		log.Warn("Cannot record legend, session not found", zap.Error(err))
		return
	}
	snapshot := session.Store.Snapshot()

	legend := &models.Legend{
		ID:              uuid.New(),
		CharacterName:   snapshot.Character.Name,
		CharacterClass:  snapshot.Character.Class,
		Level:           snapshot.Character.Level,
		Title:           s.generateTitle(ctx, snapshot, titleHint, log),
		Summary:         truncate(titleHint, maxLegendSummaryLength),
		EnemiesDefeated: snapshot.Stats.EnemiesDefeated,
		PuzzlesSolved:   snapshot.Stats.PuzzlesSolved,
		CriticalHits:    snapshot.Stats.CriticalHits,
		TurnsTaken:      snapshot.Stats.TurnsTaken,
		CreatedAt:       time.Now(),
	}

	if s.images != nil {
		prompt := fmt.Sprintf("Heroic portrait of %s, a level %d %s, at the moment of final triumph",
			legend.CharacterName, legend.Level, legend.CharacterClass)
		imageURL, imgErr := s.images.GenerateImage(ctx, prompt, "legend_"+legend.ID.String())
		if imgErr != nil {
			log.Warn("Legend image generation failed", zap.Error(imgErr))
		} else {
			legend.ImageURL = &imageURL
		}
	}

	if err := s.repo.Create(ctx, legend); err != nil {
		log.Error("Failed to store legend", zap.Error(err))
		return
	}

	legendID := legend.ID
	err = s.publisher.PublishClientUpdate(ctx, messaging.ClientUpdatePayload{
		SessionID: sessionID,
		Type:      messaging.ClientUpdateLegendCreated,
		LegendID:  &legendID,
	})
	if err != nil {
		log.Warn("Failed to publish legend creation", zap.Error(err))
	}

	log.Info("Legend recorded",
		zap.String("legendID", legend.ID.String()),
		zap.String("title", legend.Title))
}

// generateTitle asks the narrative service for an epitaph and falls back
// to a deterministic title when generation fails.
func (s *legendServiceImpl) generateTitle(ctx context.Context, snapshot models.GameState, hint string, log *zap.Logger) string {
	contextText := fmt.Sprintf("Hero: %s. Final scene: %s", snapshot.CharacterSummary(), truncate(hint, 500))
	title, err := s.ai.GenerateShortText(ctx, clients.ShortTextLegendTitle, contextText)
	if err != nil || strings.TrimSpace(title) == "" {
		log.Warn("Legend title generation failed, using fallback", zap.Error(err))
		return fmt.Sprintf("The Saga of %s", snapshot.Character.Name)
	}
	return strings.Trim(strings.TrimSpace(title), `"`)
}

func (s *legendServiceImpl) GetLegend(ctx context.Context, id uuid.UUID) (*models.Legend, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *legendServiceImpl) ListLegends(ctx context.Context, limit, offset int) ([]*models.Legend, error) {
	return s.repo.List(ctx, limit, offset)
}

func truncate(text string, max int) string {
	text = strings.TrimSpace(text)
	if len(text) <= max {
		return text
	}
	return text[:max]
}
