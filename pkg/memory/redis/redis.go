package redis

import (
	"context"
	"encoding/json"
	"fmt"

	memory "github.com/barekit/remedy/pkg/memory/types"
	"github.com/redis/go-redis/v9"
)

// RedisMemory implements memory.Memory using Redis.
type RedisMemory struct {
	client *redis.Client
}

// New creates a new RedisMemory.
func New(client *redis.Client) *RedisMemory {
	return &RedisMemory{client: client}
}

// Save appends an exchange to the conversation transcript.
// Exchanges are stored as a JSON list under "conversation:{conversationID}".
func (m *RedisMemory) Save(ctx context.Context, conversationID string, ex memory.Exchange) error {
	b, err := json.Marshal(ex)
	if err != nil {
		return fmt.Errorf("failed to marshal exchange: %w", err)
	}

	key := fmt.Sprintf("conversation:%s", conversationID)
	return m.client.RPush(ctx, key, b).Err()
}

// Load returns the conversation's exchanges in insertion order.
func (m *RedisMemory) Load(ctx context.Context, conversationID string) ([]memory.Exchange, error) {
	key := fmt.Sprintf("conversation:%s", conversationID)

	result, err := m.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	exchanges := make([]memory.Exchange, len(result))
	for i, item := range result {
		var ex memory.Exchange
		if err := json.Unmarshal([]byte(item), &ex); err != nil {
			return nil, fmt.Errorf("failed to unmarshal exchange at index %d: %w", i, err)
		}
		exchanges[i] = ex
	}
	return exchanges, nil
}
