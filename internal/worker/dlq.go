package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// DLQPrefix namespaces the parked copy of a queue: dlq:jobs:notifications.
const DLQPrefix = "dlq:"

// DLQEntry is a notification job that exhausted MaxJobAttempts or had no handler.
type DLQEntry struct {
	OriginalQueue string    `json:"originalQueue"`
	Job           Job       `json:"job"`
	Reason        string    `json:"reason"`
	FailedAt      time.Time `json:"failedAt"`
}

// park moves job to the dead letter list of queue. Errors are only logged:
// losing a notification must never block the worker loop.
func park(ctx context.Context, rdb *redis.Client, queue string, job Job, reason string) {
	data, err := json.Marshal(DLQEntry{OriginalQueue: queue, Job: job, Reason: reason, FailedAt: time.Now().UTC()})
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: marshal entry")
		return
	}
	if err := rdb.LPush(ctx, DLQPrefix+queue, data).Err(); err != nil {
		log.Error().Err(err).Str("queue", queue).Str("type", job.Type).Msg("dlq: push failed, notification lost")
		return
	}
	log.Warn().
		Str("queue", queue).
		Str("type", job.Type).
		Int("attempts", job.Attempts).
		Str("reason", reason).
		Msg("dlq: notification parked")
}

// DLQLength returns the number of parked entries; reported by /health.
func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}

// ReplayDLQ moves up to limit parked jobs back onto their queue with a fresh
// attempt budget, oldest first. Entries that cannot be decoded stay parked.
func ReplayDLQ(ctx context.Context, rdb *redis.Client, queue string, limit int) (int, error) {
	if limit <= 0 {
		limit = 100
	}
	replayed := 0
	for replayed < limit {
		raw, err := rdb.RPop(ctx, DLQPrefix+queue).Result()
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			return replayed, fmt.Errorf("dlq: pop: %w", err)
		}
		var entry DLQEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			// put it back at the head so the next replay does not spin on it
			_ = rdb.LPush(ctx, DLQPrefix+queue, raw).Err()
			return replayed, fmt.Errorf("dlq: decode entry: %w", err)
		}
		entry.Job.Attempts = 0
		if err := push(ctx, rdb, queue, entry.Job); err != nil {
			_ = rdb.RPush(ctx, DLQPrefix+queue, raw).Err()
			return replayed, fmt.Errorf("dlq: requeue: %w", err)
		}
		replayed++
	}
	if replayed > 0 {
		log.Info().Str("queue", queue).Int("replayed", replayed).Msg("dlq: notifications requeued")
	}
	return replayed, nil
}
