package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const dedupKeyPrefix = "submission:"

// DedupRepositoryRedis remembers seen submission IDs so retried webhook
// deliveries are processed exactly once.
type DedupRepositoryRedis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDedupRepository constructs the repository. The TTL bounds how long a
// submission ID is remembered.
func NewDedupRepository(client *redis.Client, ttl time.Duration) *DedupRepositoryRedis {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &DedupRepositoryRedis{client: client, ttl: ttl}
}

// FirstSeen atomically claims a submission ID. It reports true for the first
// caller and false for every later delivery of the same ID within the TTL.
func (r *DedupRepositoryRedis) FirstSeen(ctx context.Context, submissionID string) (bool, error) {
	ok, err := r.client.SetNX(ctx, dedupKeyPrefix+submissionID, time.Now().UTC().Format(time.RFC3339), r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("repo: dedup claim: %w", err)
	}
	return ok, nil
}
