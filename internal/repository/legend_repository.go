package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"saga-server/internal/models"
)

// LegendRepository stores the permanent records of finished adventures.
type LegendRepository interface {
	Create(ctx context.Context, legend *models.Legend) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Legend, error)
	List(ctx context.Context, limit, offset int) ([]*models.Legend, error)
}

const (
	createLegendQuery = `
        INSERT INTO legends (id, character_name, character_class, level, title, summary, image_url,
                             enemies_defeated, puzzles_solved, critical_hits, turns_taken, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
    `
	getLegendByIDQuery = `
        SELECT id, character_name, character_class, level, title, summary, image_url,
               enemies_defeated, puzzles_solved, critical_hits, turns_taken, created_at
        FROM legends WHERE id = $1
    `
	listLegendsQuery = `
        SELECT id, character_name, character_class, level, title, summary, image_url,
               enemies_defeated, puzzles_solved, critical_hits, turns_taken, created_at
        FROM legends ORDER BY created_at DESC LIMIT $1 OFFSET $2
    `
)

type pgLegendRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewPgLegendRepository(db *pgxpool.Pool, logger *zap.Logger) LegendRepository {
	return &pgLegendRepository{
		db:     db,
		logger: logger.Named("LegendRepo"),
	}
}

func (r *pgLegendRepository) Create(ctx context.Context, legend *models.Legend) error {
	log := r.logger.With(zap.String("legend_id", legend.ID.String()))

	_, err := r.db.Exec(ctx, createLegendQuery,
		legend.ID, legend.CharacterName, legend.CharacterClass, legend.Level,
		legend.Title, legend.Summary, legend.ImageURL,
		legend.EnemiesDefeated, legend.PuzzlesSolved, legend.CriticalHits,
		legend.TurnsTaken, legend.CreatedAt)
	if err != nil {
		log.Error("Error creating legend", zap.Error(err))
		return fmt.Errorf("failed to create legend: %w", err)
	}

	log.Info("Legend created", zap.String("title", legend.Title))
	return nil
}

func (r *pgLegendRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Legend, error) {
	log := r.logger.With(zap.String("legend_id", id.String()))

	var legend models.Legend
	err := pgxscan.Get(ctx, r.db, &legend, getLegendByIDQuery, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrLegendNotFound
		}
		log.Error("Error getting legend by id", zap.Error(err))
		return nil, fmt.Errorf("failed to get legend %s: %w", id, err)
	}
	return &legend, nil
}

func (r *pgLegendRepository) List(ctx context.Context, limit, offset int) ([]*models.Legend, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var legends []*models.Legend
	err := pgxscan.Select(ctx, r.db, &legends, listLegendsQuery, limit, offset)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []*models.Legend{}, nil
		}
		r.logger.Error("Error listing legends", zap.Error(err))
		return nil, fmt.Errorf("failed to list legends: %w", err)
	}
	if legends == nil {
		legends = []*models.Legend{}
	}
	return legends, nil
}
