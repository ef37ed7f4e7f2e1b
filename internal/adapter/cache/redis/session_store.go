package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/drink-service/internal/auth"
	"github.com/Abdurahmanit/GroupProject/drink-service/internal/platform/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const sessionKeyPrefix = "session:"

// NewRedisClient connects and pings.
func NewRedisClient(addr, password string, db int, log *logger.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Error("Failed to connect to Redis", zap.String("address", addr), zap.Error(err))
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}
	log.Info("Successfully connected to Redis", zap.String("address", addr))
	return rdb, nil
}

// SessionStore is the Redis-backed auth.SessionStore, keyed by token id.
type SessionStore struct {
	client *redis.Client
	logger *logger.Logger
}

func NewSessionStore(client *redis.Client, log *logger.Logger) *SessionStore {
	return &SessionStore{client: client, logger: log.Named("SessionStore")}
}

func sessionKey(jti string) string { return sessionKeyPrefix + jti }

// Save records the token id for email until ttl elapses.
func (s *SessionStore) Save(ctx context.Context, jti, email string, ttl time.Duration) error {
	if err := s.client.Set(ctx, sessionKey(jti), email, ttl).Err(); err != nil {
		s.logger.Error("Redis Set failed", zap.String("jti", jti), zap.Error(err))
		return fmt.Errorf("save session %s: %w", jti, err)
	}
	s.logger.Debug("Session saved", zap.String("jti", jti), zap.Duration("ttl", ttl))
	return nil
}

// Lookup returns the email a live token id belongs to.
func (s *SessionStore) Lookup(ctx context.Context, jti string) (string, error) {
	email, err := s.client.Get(ctx, sessionKey(jti)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", auth.ErrSessionNotFound
		}
		s.logger.Error("Redis Get failed", zap.String("jti", jti), zap.Error(err))
		return "", fmt.Errorf("lookup session %s: %w", jti, err)
	}
	return email, nil
}

// Revoke deletes the token id. Revoking an unknown id is not an error.
func (s *SessionStore) Revoke(ctx context.Context, jti string) error {
	n, err := s.client.Del(ctx, sessionKey(jti)).Result()
	if err != nil {
		s.logger.Error("Redis Del failed", zap.String("jti", jti), zap.Error(err))
		return fmt.Errorf("revoke session %s: %w", jti, err)
	}
	s.logger.Debug("Session revoked", zap.String("jti", jti), zap.Int64("deleted", n))
	return nil
}
