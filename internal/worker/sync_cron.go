package worker

// sync_cron.go
// Periodic incremental POS sync. robfig/cron drives the schedule with
// SkipIfStillRunning so ticks never overlap inside one process; a Redis
// SET NX lock keeps two instances from syncing at the same time.

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bildin8/postergram-juice-sub001/internal/service"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const (
	SyncLockKey = "locks:sync:transactions"
	syncLockTTL = 4 * time.Minute
	syncTimeout = 3 * time.Minute
)

// Locker grants a short-lived exclusive lease on a key.
type Locker interface {
	// Acquire returns ok=false when another holder owns the key.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

// RedisLocker implements Locker with SET NX and a compare-and-delete release.
type RedisLocker struct {
	rdb *redis.Client
}

func NewRedisLocker(rdb *redis.Client) *RedisLocker { return &RedisLocker{rdb: rdb} }

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil || !ok {
		return nil, false, err
	}
	release := func() {
		// fresh context: the caller's may already be cancelled
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(rctx, l.rdb, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("key", key).Msg("sync_cron: lock release failed")
		}
	}
	return release, true, nil
}

// SyncScheduler runs SyncService.SyncTransactions on a cron schedule. It is
// started and stopped as a whole.
type SyncScheduler struct {
	syncer   service.SyncService
	locker   Locker
	schedule string

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

func NewSyncScheduler(syncSvc service.SyncService, locker Locker, schedule string) *SyncScheduler {
	if schedule == "" {
		schedule = "@every 5m"
	}
	return &SyncScheduler{syncer: syncSvc, locker: locker, schedule: schedule}
}

// Start schedules the job. Starting a running scheduler is a no-op.
func (s *SyncScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	c := cron.New(cron.WithChain(cron.Recover(cronLogger{}), cron.SkipIfStillRunning(cronLogger{})))
	if _, err := c.AddFunc(s.schedule, s.Tick); err != nil {
		return fmt.Errorf("sync_cron: invalid schedule %q: %w", s.schedule, err)
	}
	c.Start()
	s.cron = c
	s.running = true
	log.Info().Str("schedule", s.schedule).Msg("sync_cron: started")
	return nil
}

// Stop unschedules the job and waits for an in-flight tick to finish.
func (s *SyncScheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.running = false
	s.mu.Unlock()

	if c == nil {
		return
	}
	<-c.Stop().Done()
	log.Info().Msg("sync_cron: stopped")
}

func (s *SyncScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *SyncScheduler) Schedule() string { return s.schedule }

// Tick runs one incremental sync if the cross-instance lock is free.
func (s *SyncScheduler) Tick() {
	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	if s.locker != nil {
		release, ok, err := s.locker.Acquire(ctx, SyncLockKey, syncLockTTL)
		if err != nil {
			log.Warn().Err(err).Msg("sync_cron: lock unavailable, skipping tick")
			return
		}
		if !ok {
			log.Debug().Msg("sync_cron: another instance holds the lock")
			return
		}
		defer release()
	}

	res, err := s.syncer.SyncTransactions(ctx)
	if err != nil {
		log.Error().Err(err).Msg("sync_cron: sync failed")
		return
	}
	log.Info().
		Int("fetched", res.Fetched).
		Int("synced", res.Synced).
		Int("skipped", res.Skipped).
		Int("errors", len(res.Errors)).
		Msg("sync_cron: tick done")
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
