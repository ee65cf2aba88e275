package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fashion-muse-go/internal/model"

	"github.com/go-redis/redis/v8"
)

// SessionRepository 定义了浏览器会话对话历史的操作接口。
type SessionRepository interface {
	GetHistory(ctx context.Context, sessionID string) ([]model.Turn, error)
	// AppendTurns 追加消息并返回截断后实际保存的历史。
	AppendTurns(ctx context.Context, sessionID string, turns ...model.Turn) ([]model.Turn, error)
	ClearHistory(ctx context.Context, sessionID string) error
}

type redisSessionRepository struct {
	redisClient *redis.Client
	ttl         time.Duration
	maxTurns    int
}

// NewSessionRepository 创建一个新的 SessionRepository 实例。
// maxTurns <= 0 表示不截断；否则向下取偶数，保证历史总是以用户消息开头。
func NewSessionRepository(redisClient *redis.Client, ttl time.Duration, maxTurns int) SessionRepository {
	if maxTurns > 0 {
		maxTurns -= maxTurns % 2
	}
	return &redisSessionRepository{redisClient: redisClient, ttl: ttl, maxTurns: maxTurns}
}

func historyKey(sessionID string) string {
	return fmt.Sprintf("fashion_muse:session:%s:history", sessionID)
}

// GetHistory 从 Redis 获取对话历史记录，不存在时返回空切片。
func (r *redisSessionRepository) GetHistory(ctx context.Context, sessionID string) ([]model.Turn, error) {
	jsonData, err := r.redisClient.Get(ctx, historyKey(sessionID)).Result()
	if err == redis.Nil {
		return []model.Turn{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session history: %w", err)
	}
	var turns []model.Turn
	if err := json.Unmarshal([]byte(jsonData), &turns); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session history: %w", err)
	}
	return turns, nil
}

// AppendTurns 追加消息并刷新过期时间。
func (r *redisSessionRepository) AppendTurns(ctx context.Context, sessionID string, turns ...model.Turn) ([]model.Turn, error) {
	history, err := r.GetHistory(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	history = append(history, turns...)
	if r.maxTurns > 0 && len(history) > r.maxTurns {
		history = history[len(history)-r.maxTurns:]
	}
	jsonData, err := json.Marshal(history)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session history: %w", err)
	}
	if err := r.redisClient.Set(ctx, historyKey(sessionID), jsonData, r.ttl).Err(); err != nil {
		return nil, fmt.Errorf("failed to set session history: %w", err)
	}
	return history, nil
}

// ClearHistory 删除该会话的全部历史。
func (r *redisSessionRepository) ClearHistory(ctx context.Context, sessionID string) error {
	if err := r.redisClient.Del(ctx, historyKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to clear session history: %w", err)
	}
	return nil
}
