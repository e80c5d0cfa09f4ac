package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hackmate/hackathon-console/internal/config"
	"github.com/hackmate/hackathon-console/internal/model"
)

// BoardIntentRepository is the Redis intent queue and board event channel.
type BoardIntentRepository struct {
	rdb *redis.Client
}

// NewBoardIntentRepository creates a new BoardIntentRepository.
func NewBoardIntentRepository(rdb *redis.Client) *BoardIntentRepository {
	return &BoardIntentRepository{rdb: rdb}
}

// Enqueue appends an intent to the delivery queue.
func (r *BoardIntentRepository) Enqueue(ctx context.Context, intent model.BoardIntent) error {
	raw, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("encode intent: %w", err)
	}
	return r.rdb.RPush(ctx, config.WorkerKey.BoardIntentsQueue, raw).Err()
}

// Requeue puts a failed intent back at the head of the queue so it is
// retried before any intent queued after it. Board moves depend on order.
func (r *BoardIntentRepository) Requeue(ctx context.Context, intent model.BoardIntent) error {
	raw, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("encode intent: %w", err)
	}
	return r.rdb.LPush(ctx, config.WorkerKey.BoardIntentsQueue, raw).Err()
}

// Pop blocks up to timeout for the next intent. It returns nil, nil when the
// queue stayed empty. Undecodable entries are returned as errors and dropped.
func (r *BoardIntentRepository) Pop(ctx context.Context, timeout time.Duration) (*model.BoardIntent, error) {
	res, err := r.rdb.BLPop(ctx, timeout, config.WorkerKey.BoardIntentsQueue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	// res[0] is the key, res[1] the value.
	var intent model.BoardIntent
	if err := json.Unmarshal([]byte(res[1]), &intent); err != nil {
		return nil, fmt.Errorf("decode intent: %w", err)
	}
	return &intent, nil
}

// Len returns the number of queued intents.
func (r *BoardIntentRepository) Len(ctx context.Context) (int64, error) {
	return r.rdb.LLen(ctx, config.WorkerKey.BoardIntentsQueue).Result()
}

// Publish fans an event out to every board open on the hackathon.
func (r *BoardIntentRepository) Publish(ctx context.Context, event model.BoardEvent) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return r.rdb.Publish(ctx, config.CacheKey.BoardChannel(event.HackathonID), raw).Err()
}

// Subscribe opens the board channel of a hackathon and decodes its events.
// The channel closes once stop is called or the subscription drops;
// undecodable messages are skipped.
func (r *BoardIntentRepository) Subscribe(ctx context.Context, hackathonID string) (<-chan model.BoardEvent, func(), error) {
	pubsub := r.rdb.Subscribe(ctx, config.CacheKey.BoardChannel(hackathonID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe board channel: %w", err)
	}

	out := make(chan model.BoardEvent, 16)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			var event model.BoardEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				continue
			}
			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, func() { _ = pubsub.Close() }, nil
}
