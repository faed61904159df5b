package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	alertEventQueueKey = "alert_events"

	EventAlertCreated   = "alert.created"
	EventAlertEscalated = "alert.escalated"
)

// AlertEvent - структура события жизненного цикла тревоги для вебхука
type AlertEvent struct {
	Event     string    `json:"event"`
	AlertID   string    `json:"alert_id"`
	Type      string    `json:"type"`
	Location  string    `json:"location"`
	Status    string    `json:"status"`
	Escalated bool      `json:"escalated"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher - интерфейс для публикации событий тревог
type Publisher interface {
	Publish(ctx context.Context, event AlertEvent) error
}

// RedisPublisher - реализация Publisher, использующая очередь в Redis
type RedisPublisher struct {
	redisClient *redis.Client
}

// NewRedisPublisher создает новый RedisPublisher
func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{
		redisClient: client,
	}
}

// Publish публикует событие тревоги в очередь Redis
func (p *RedisPublisher) Publish(ctx context.Context, event AlertEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal alert event: %w", err)
	}

	// LPUSH кладет событие в левую часть списка (очереди)
	if err := p.redisClient.LPush(ctx, alertEventQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish alert event to Redis: %w", err)
	}
	return nil
}
