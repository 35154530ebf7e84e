package memory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jxin/knowledgeqa/internal/config"
	"github.com/jxin/knowledgeqa/internal/domain/chatmodel"
	"github.com/jxin/knowledgeqa/pkg/logger_i"
)

// RedisStore keeps session history in a Redis list so it survives restarts
// and can be shared across instances. One list per session, trimmed to the
// newest 2*maxTurns entries on every append.
type RedisStore struct {
	client   *redis.Client
	key      string
	capacity int64
	logger   *logger_i.Logger
}

func NewRedisStore(client *redis.Client, sessionId string, maxTurns int) *RedisStore {
	return &RedisStore{
		client:   client,
		key:      "chat:history:" + sessionId,
		capacity: int64(2 * maxTurns),
		logger:   logger_i.NewLogger("memoryStore"),
	}
}

func (s *RedisStore) Append(ctx context.Context, msg chatmodel.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, s.key, payload)
	pipe.LTrim(ctx, s.key, -s.capacity, -1)
	pipe.Expire(ctx, s.key, config.RedisMemoryStoreTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("appending to session history: %w", err)
	}
	return nil
}

func (s *RedisStore) Messages(ctx context.Context) ([]chatmodel.Message, error) {
	raw, err := s.client.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading session history: %w", err)
	}

	messages := make([]chatmodel.Message, 0, len(raw))
	for _, item := range raw {
		var msg chatmodel.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			s.logger.Warn("skipping malformed history entry", "error", err)
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clearing session history: %w", err)
	}
	return nil
}
