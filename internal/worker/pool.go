package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bildin8/postergram-juice-sub001/internal/infra"
	"github.com/bildin8/postergram-juice-sub001/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueNotifications = "jobs:notifications"

	JobSale     = "sale"
	JobVariance = "variance"

	// MaxJobAttempts is how often a job is tried before it lands in the DLQ.
	MaxJobAttempts = 3
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// JobHandler processes one job payload. A returned error triggers a retry.
type JobHandler interface {
	Process(ctx context.Context, payload json.RawMessage) error
}

// Dispatcher enqueues notification jobs into Redis; the worker pool dequeues
// them via BRPOP. It implements service.Notifier so enqueueing never blocks
// ingestion on Telegram or SMTP.
type Dispatcher struct {
	rdb *redis.Client
}

var _ service.Notifier = (*Dispatcher)(nil)

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

func (d *Dispatcher) NotifySale(ctx context.Context, n service.SaleNotification) error {
	return d.enqueue(ctx, QueueNotifications, JobSale, n)
}

func (d *Dispatcher) NotifyVariance(ctx context.Context, a service.VarianceAlert) error {
	return d.enqueue(ctx, QueueNotifications, JobVariance, a)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return push(ctx, d.rdb, queue, Job{Type: jobType, Payload: data})
}

func push(ctx context.Context, rdb *redis.Client, queue string, job Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return rdb.LPush(ctx, queue, encoded).Err()
}

// StartWorkerPool launches numWorkers goroutines consuming the notification queue.
// Each goroutine blocks on BRPOP, so idle workers cost nothing.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, handlers map[string]JobHandler, numWorkers int) {
	if numWorkers < 1 {
		numWorkers = 1
	}
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, handlers, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, handlers map[string]JobHandler, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, QueueNotifications).Result()
			if err != nil {
				continue
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, rdb, handlers, result[0], result[1])
		}
	}
}

func processJob(ctx context.Context, rdb *redis.Client, handlers map[string]JobHandler, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}

	h, ok := handlers[job.Type]
	if !ok {
		park(ctx, rdb, queue, job, "no handler for job type")
		infra.NotificationJobsTotal.WithLabelValues(job.Type, "dead").Inc()
		return
	}

	err := h.Process(ctx, job.Payload)
	if err == nil {
		infra.NotificationJobsTotal.WithLabelValues(job.Type, "ok").Inc()
		return
	}

	job.Attempts++
	if job.Attempts >= MaxJobAttempts {
		park(ctx, rdb, queue, job, fmt.Sprintf("max attempts (%d) exceeded: %s", MaxJobAttempts, err.Error()))
		infra.NotificationJobsTotal.WithLabelValues(job.Type, "dead").Inc()
		return
	}

	log.Warn().Err(err).Str("type", job.Type).Int("attempts", job.Attempts).Msg("job failed, requeued")
	infra.NotificationJobsTotal.WithLabelValues(job.Type, "retry").Inc()
	if err := push(ctx, rdb, queue, job); err != nil {
		log.Error().Err(err).Str("type", job.Type).Msg("failed to requeue job")
	}
}
