package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"saga-server/internal/models"
)

// SessionRepository persists game-state snapshots so a session survives a
// process restart. Snapshots expire after the configured idle TTL.
type SessionRepository interface {
	Save(ctx context.Context, snapshot models.GameState) error
	Load(ctx context.Context, sessionID uuid.UUID) (*models.GameState, error)
	Delete(ctx context.Context, sessionID uuid.UUID) error
}

var _ SessionRepository = (*redisSessionRepository)(nil)

type redisSessionRepository struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisSessionRepository(client *redis.Client, ttl time.Duration, logger *zap.Logger) SessionRepository {
	return &redisSessionRepository{
		client: client,
		ttl:    ttl,
		logger: logger.Named("RedisSessionRepo"),
	}
}

func sessionKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("session_state:%s", sessionID)
}

func (r *redisSessionRepository) Save(ctx context.Context, snapshot models.GameState) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal session state: %w", err)
	}

	key := sessionKey(snapshot.SessionID)
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		r.logger.Error("Failed to save session state in redis",
			zap.String("sessionID", snapshot.SessionID.String()), zap.Error(err))
		return fmt.Errorf("failed to save session state in redis: %w", err)
	}

	r.logger.Debug("Session state saved",
		zap.String("sessionID", snapshot.SessionID.String()),
		zap.Int("size_bytes", len(data)),
		zap.Duration("ttl", r.ttl))
	return nil
}

func (r *redisSessionRepository) Load(ctx context.Context, sessionID uuid.UUID) (*models.GameState, error) {
	data, err := r.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, models.ErrSessionNotFound
		}
		r.logger.Error("Failed to load session state from redis",
			zap.String("sessionID", sessionID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to load session state from redis: %w", err)
	}

	var snapshot models.GameState
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session state: %w", err)
	}
	return &snapshot, nil
}

func (r *redisSessionRepository) Delete(ctx context.Context, sessionID uuid.UUID) error {
	if err := r.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		r.logger.Error("Failed to delete session state from redis",
			zap.String("sessionID", sessionID.String()), zap.Error(err))
		return fmt.Errorf("failed to delete session state from redis: %w", err)
	}
	return nil
}
