package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Session - активная сессия оператора. Жизненный цикл учетных данных
// принадлежит провайдеру; здесь хранится только факт входа.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionStore определяет контракт хранилища сессий
type SessionStore interface {
	Create(ctx context.Context, user *UserInfo) (*Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// RedisSessionStore хранит сессии в Redis с TTL
type RedisSessionStore struct {
	redisClient *redis.Client
	ttl         time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{
		redisClient: client,
		ttl:         ttl,
	}
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

// Create создает новую сессию для аутентифицированного пользователя
func (s *RedisSessionStore) Create(ctx context.Context, user *UserInfo) (*Session, error) {
	session := &Session{
		ID:        uuid.NewString(),
		UserID:    user.UserID,
		Email:     user.Email,
		CreatedAt: time.Now(),
	}

	val, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.redisClient.Set(ctx, sessionKey(session.ID), val, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	return session, nil
}

// Get возвращает сессию по id. Отсутствующая или истекшая сессия - (nil, nil).
func (s *RedisSessionStore) Get(ctx context.Context, id string) (*Session, error) {
	val, err := s.redisClient.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	session := &Session{}
	if err := json.Unmarshal(val, session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return session, nil
}

// Delete завершает сессию. Удаление несуществующей сессии не является ошибкой.
func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	if err := s.redisClient.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
