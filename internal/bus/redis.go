package bus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisPublisher publishes events over Redis pub/sub so fan-out reaches
// sessions on every server instance, not just the one handling the write.
type RedisPublisher struct {
	client *redis.Client
}

var _ Publisher = (*RedisPublisher)(nil)

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) PublishCommunity(ctx context.Context, communityID uuid.UUID, ev Event) error {
	return p.publish(ctx, CommunityChannel(communityID), ev)
}

func (p *RedisPublisher) PublishUser(ctx context.Context, userID uuid.UUID, ev Event) error {
	return p.publish(ctx, UserChannel(userID), ev)
}

func (p *RedisPublisher) publish(ctx context.Context, channel string, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", channel, err)
	}
	return nil
}
