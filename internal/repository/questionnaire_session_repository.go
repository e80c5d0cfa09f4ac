package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/hackmate/hackathon-console/internal/config"
	"github.com/hackmate/hackathon-console/internal/questionnaire"
)

// ErrSessionNotFound is returned when no wizard snapshot is stored.
var ErrSessionNotFound = errors.New("questionnaire session not found")

// releaseLockScript deletes the lock only if it still holds our token.
var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// QuestionnaireSessionRepository stores wizard snapshots and submit locks in Redis.
type QuestionnaireSessionRepository struct {
	rdb *redis.Client
}

// NewQuestionnaireSessionRepository creates a new QuestionnaireSessionRepository.
func NewQuestionnaireSessionRepository(rdb *redis.Client) *QuestionnaireSessionRepository {
	return &QuestionnaireSessionRepository{rdb: rdb}
}

// Load returns the stored snapshot for a participant's questionnaire.
func (r *QuestionnaireSessionRepository) Load(ctx context.Context, hackathonID string, participantID int) (*questionnaire.Snapshot, error) {
	raw, err := r.rdb.Get(ctx, config.CacheKey.QuestionnaireSessionKey(hackathonID, participantID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	var snap questionnaire.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &snap, nil
}

// Save stores the snapshot and refreshes its TTL.
func (r *QuestionnaireSessionRepository) Save(ctx context.Context, hackathonID string, participantID int, snap questionnaire.Snapshot, ttl time.Duration) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.rdb.Set(ctx, config.CacheKey.QuestionnaireSessionKey(hackathonID, participantID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	return nil
}

// Delete removes the stored snapshot.
func (r *QuestionnaireSessionRepository) Delete(ctx context.Context, hackathonID string, participantID int) error {
	return r.rdb.Del(ctx, config.CacheKey.QuestionnaireSessionKey(hackathonID, participantID)).Err()
}

// AcquireSubmitLock takes the submit lock for ttl. It returns the lock token,
// or "" when another submission holds the lock.
func (r *QuestionnaireSessionRepository) AcquireSubmitLock(ctx context.Context, hackathonID string, participantID int, ttl time.Duration) (string, error) {
	token := uuid.New().String()
	ok, err := r.rdb.SetNX(ctx, config.CacheKey.QuestionnaireSubmitLockKey(hackathonID, participantID), token, ttl).Result()
	if err != nil {
		return "", fmt.Errorf("acquire submit lock: %w", err)
	}
	if !ok {
		return "", nil
	}
	return token, nil
}

// ReleaseSubmitLock drops the lock if token still owns it.
func (r *QuestionnaireSessionRepository) ReleaseSubmitLock(ctx context.Context, hackathonID string, participantID int, token string) error {
	key := config.CacheKey.QuestionnaireSubmitLockKey(hackathonID, participantID)
	if err := releaseLockScript.Run(ctx, r.rdb, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release submit lock: %w", err)
	}
	return nil
}

// SubmitLocked reports whether a submission currently holds the lock.
func (r *QuestionnaireSessionRepository) SubmitLocked(ctx context.Context, hackathonID string, participantID int) (bool, error) {
	n, err := r.rdb.Exists(ctx, config.CacheKey.QuestionnaireSubmitLockKey(hackathonID, participantID)).Result()
	if err != nil {
		return false, fmt.Errorf("check submit lock: %w", err)
	}
	return n > 0, nil
}
