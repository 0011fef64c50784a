package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ranklift/ranklift-backend/internal/config"
	"github.com/ranklift/ranklift-backend/internal/model"
	"github.com/ranklift/ranklift-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	violationBatchSize    = 50
	violationBatchTimeout = 2 * time.Second
	violationPollTimeout  = 1 * time.Second // Must be >= 1s to satisfy Redis
)

// ViolationWorker consumes persist_violations_queue and lands violation
// rows in PostgreSQL in batches. The nullification decision has already
// been taken synchronously by the proctor service; this worker only makes
// the log durable.
type ViolationWorker struct {
	violations *repository.ViolationRepository
	rdb        *redis.Client
	log        zerolog.Logger
}

// NewViolationWorker creates a new ViolationWorker.
func NewViolationWorker(violations *repository.ViolationRepository, rdb *redis.Client, log zerolog.Logger) *ViolationWorker {
	return &ViolationWorker{
		violations: violations,
		rdb:        rdb,
		log:        log.With().Str("component", "violation_worker").Logger(),
	}
}

// Start begins the worker loop with batching. Call in a goroutine.
func (w *ViolationWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	buffer := make([]*model.Violation, 0, violationBatchSize)
	lastFlush := time.Now()

	for {
		// 1. Check flush conditions (size or time).
		if len(buffer) > 0 {
			if len(buffer) >= violationBatchSize || time.Since(lastFlush) >= violationBatchTimeout {
				w.flushSafe(ctx, buffer)
				buffer = buffer[:0] // Clear buffer, keep capacity
				lastFlush = time.Now()
			}
		}

		// 2. Check context (graceful shutdown).
		select {
		case <-ctx.Done():
			w.shutdown(buffer)
			return
		default:
		}

		// 3. Fetch from Redis. BLPop blocks for 1 second and returns
		// immediately if data exists.
		result, err := w.rdb.BLPop(ctx, violationPollTimeout, config.WorkerKey.PersistViolationsQueue).Result()
		if err != nil {
			if err == redis.Nil {
				continue // Queue empty, loop back to check flush timer
			}
			if ctx.Err() != nil {
				return
			}
			w.log.Error().Err(err).Msg("Redis connection error, sleeping 3s")
			time.Sleep(3 * time.Second)
			continue
		}

		if len(result) < 2 {
			continue
		}

		var payload repository.ViolationPayload
		if err := json.Unmarshal([]byte(result[1]), &payload); err != nil {
			// Malformed JSON cannot be retried. Log and discard.
			w.log.Error().Err(err).Str("data", result[1]).Msg("Discarding malformed JSON")
			continue
		}

		v, err := payload.ToModel()
		if err != nil {
			w.log.Error().Err(err).Str("session_id", payload.SessionID).Msg("Discarding violation with invalid UUID")
			continue
		}

		buffer = append(buffer, v)
	}
}

// flushSafe attempts bulk insert, then row-by-row fallback, then requeue.
func (w *ViolationWorker) flushSafe(ctx context.Context, batch []*model.Violation) {
	if len(batch) == 0 {
		return
	}

	if err := w.violations.BulkInsert(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk insert failed, attempting row-by-row recovery")
		w.fallbackInsert(ctx, batch)
	}
}

func (w *ViolationWorker) fallbackInsert(ctx context.Context, batch []*model.Violation) {
	requeueList := make([]*model.Violation, 0)

	for _, v := range batch {
		if err := w.violations.Insert(ctx, v); err != nil {
			w.log.Error().Err(err).Str("session_id", v.SessionID.String()).Msg("Insert failed, requeueing")
			requeueList = append(requeueList, v)
		}
	}

	if len(requeueList) > 0 {
		w.requeue(ctx, requeueList)
	}
}

func (w *ViolationWorker) requeue(ctx context.Context, items []*model.Violation) {
	pipe := w.rdb.Pipeline()
	for _, v := range items {
		data, _ := json.Marshal(repository.ViolationPayload{
			SessionID:   v.SessionID.String(),
			Type:        string(v.Type),
			Severity:    string(v.Severity),
			Description: v.Description,
			RecordedAt:  v.RecordedAt.Unix(),
		})
		pipe.RPush(ctx, config.WorkerKey.PersistViolationsQueue, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Msg("CRITICAL: Failed to requeue violations to Redis. Data loss occurred.")
		return
	}
	w.log.Info().Int("count", len(items)).Msg("Requeued failed items back to Redis")
	// Sleep a bit to avoid thrashing if the DB is down hard.
	time.Sleep(2 * time.Second)
}

func (w *ViolationWorker) shutdown(buffer []*model.Violation) {
	w.log.Info().Msg("Worker stopping, flushing remaining buffer...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if len(buffer) > 0 {
		w.flushSafe(shutdownCtx, buffer)
	}
}
