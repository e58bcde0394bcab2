package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	channelPrefix  = "collab:events:"   // Pub/Sub channel per project: collab:events:{project_id}
	feedKeyPrefix  = "collab:activity:" // Capped list per project: collab:activity:{project_id}
	feedMaxEntries = 100
	feedTTL        = 30 * 24 * time.Hour
)

// RedisPublisher fans events out on Redis Pub/Sub and records them in a
// capped activity list.
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// Publish writes the event to the feed and the project channel in one MULTI block.
func (p *RedisPublisher) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	feedKey := p.feedKey(e.ProjectID)
	_, err = p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, feedKey, data)
		pipe.LTrim(ctx, feedKey, 0, feedMaxEntries-1)
		pipe.Expire(ctx, feedKey, feedTTL)
		pipe.Publish(ctx, p.channel(e.ProjectID), data)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

func (p *RedisPublisher) Recent(ctx context.Context, projectID string, limit int) ([]Event, error) {
	if limit <= 0 || limit > feedMaxEntries {
		limit = feedMaxEntries
	}

	raw, err := p.client.LRange(ctx, p.feedKey(projectID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read activity: %w", err)
	}

	out := make([]Event, 0, len(raw))
	for _, item := range raw {
		var e Event
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			// skip entries written by an older event schema
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// Subscribe streams a project's events until ctx is done. The subscription
// is confirmed before it returns, so later publishes are not missed.
func (p *RedisPublisher) Subscribe(ctx context.Context, projectID string) (<-chan Event, error) {
	ps := p.client.Subscribe(ctx, p.channel(projectID))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	out := make(chan Event)
	go func() {
		defer close(out)
		defer ps.Close()

		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var e Event
				if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
					continue
				}
				select {
				case out <- e:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (p *RedisPublisher) channel(projectID string) string {
	return fmt.Sprintf("%s%s", channelPrefix, projectID)
}

func (p *RedisPublisher) feedKey(projectID string) string {
	return fmt.Sprintf("%s%s", feedKeyPrefix, projectID)
}
