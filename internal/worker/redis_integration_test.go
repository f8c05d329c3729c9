//go:build integration

package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/bildin8/postergram-juice-sub001/internal/infra"
	"github.com/bildin8/postergram-juice-sub001/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()
	c, err := tcRedis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(ctx) })
	url, err := c.ConnectionString(ctx)
	require.NoError(t, err)
	rdb, err := infra.NewRedis(url)
	require.NoError(t, err)
	return rdb
}

type failingHandler struct{ calls int }

func (h *failingHandler) Process(context.Context, json.RawMessage) error {
	h.calls++
	return errors.New("telegram down")
}

func TestFailedJobIsRequeuedThenParked(t *testing.T) {
	rdb := startRedis(t)
	ctx := context.Background()

	require.NoError(t, NewDispatcher(rdb).NotifySale(ctx, service.SaleNotification{ExternalID: "8812"}))

	h := &failingHandler{}
	handlers := map[string]JobHandler{JobSale: h}
	for i := 0; i < MaxJobAttempts; i++ {
		raw, err := rdb.RPop(ctx, QueueNotifications).Result()
		require.NoError(t, err, "attempt %d", i+1)
		processJob(ctx, rdb, handlers, QueueNotifications, raw)
	}

	assert.Equal(t, MaxJobAttempts, h.calls)
	n, err := rdb.LLen(ctx, QueueNotifications).Result()
	require.NoError(t, err)
	assert.Zero(t, n)

	parked, err := DLQLength(ctx, rdb, QueueNotifications)
	require.NoError(t, err)
	assert.EqualValues(t, 1, parked)

	raw, err := rdb.LIndex(ctx, DLQPrefix+QueueNotifications, 0).Result()
	require.NoError(t, err)
	var entry DLQEntry
	require.NoError(t, json.Unmarshal([]byte(raw), &entry))
	assert.Equal(t, JobSale, entry.Job.Type)
	assert.Equal(t, MaxJobAttempts, entry.Job.Attempts)
	assert.Contains(t, entry.Reason, "telegram down")

	replayed, err := ReplayDLQ(ctx, rdb, QueueNotifications, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, replayed)
	parked, err = DLQLength(ctx, rdb, QueueNotifications)
	require.NoError(t, err)
	assert.Zero(t, parked)

	raw, err = rdb.RPop(ctx, QueueNotifications).Result()
	require.NoError(t, err)
	var job Job
	require.NoError(t, json.Unmarshal([]byte(raw), &job))
	assert.Zero(t, job.Attempts, "replayed jobs get a fresh attempt budget")
}

func TestUnknownJobTypeGoesStraightToDLQ(t *testing.T) {
	rdb := startRedis(t)
	ctx := context.Background()

	processJob(ctx, rdb, map[string]JobHandler{}, QueueNotifications, `{"type":"fax","payload":{}}`)
	parked, err := DLQLength(ctx, rdb, QueueNotifications)
	require.NoError(t, err)
	assert.EqualValues(t, 1, parked)
}

func TestWorkerPoolDeliversSale(t *testing.T) {
	rdb := startRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	chat := &fakeChat{}
	StartWorkerPool(ctx, rdb, NewNotificationWorker(chat, nil, nil, t.TempDir()).Handlers(), 1)
	require.NoError(t, NewDispatcher(rdb).NotifySale(ctx, service.SaleNotification{ExternalID: "77"}))

	assert.Eventually(t, func() bool {
		chat.mu.Lock()
		defer chat.mu.Unlock()
		return len(chat.sent) == 1
	}, 10*time.Second, 50*time.Millisecond)
}

func TestRedisLockerIsExclusive(t *testing.T) {
	rdb := startRedis(t)
	ctx := context.Background()
	locker := NewRedisLocker(rdb)

	release, ok, err := locker.Acquire(ctx, SyncLockKey, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = locker.Acquire(ctx, SyncLockKey, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second holder is refused")

	release()
	_, ok, err = locker.Acquire(ctx, SyncLockKey, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
