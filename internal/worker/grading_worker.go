package worker

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/ranklift/ranklift-backend/internal/config"
	"github.com/ranklift/ranklift-backend/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	gradePollTimeout = 1 * time.Second // Must be >= 1s to satisfy Redis
	gradeRetryDelay  = 5 * time.Second
)

// GradingWorker consumes grade_sessions_queue and runs the full-session
// grading pass. Sealing enqueues here; the grade endpoint can also run
// the same pass on demand, so a lost queue item is recoverable.
type GradingWorker struct {
	grading *service.GradingService
	rdb     *redis.Client
	log     zerolog.Logger
}

// NewGradingWorker creates a new GradingWorker.
func NewGradingWorker(grading *service.GradingService, rdb *redis.Client, log zerolog.Logger) *GradingWorker {
	return &GradingWorker{
		grading: grading,
		rdb:     rdb,
		log:     log.With().Str("component", "grading_worker").Logger(),
	}
}

// Start begins the worker loop. Call in a goroutine.
func (w *GradingWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *GradingWorker) processNext(ctx context.Context) {
	result, err := w.rdb.BLPop(ctx, gradePollTimeout, config.WorkerKey.GradeSessionsQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error, sleeping 3s")
			time.Sleep(3 * time.Second)
		}
		return
	}

	if len(result) < 2 {
		return
	}

	sessionID, err := uuid.Parse(result[1])
	if err != nil {
		// Malformed IDs cannot be retried. Log and discard.
		w.log.Error().Err(err).Str("data", result[1]).Msg("Discarding malformed session ID")
		return
	}

	if _, err := w.grading.GradeSession(ctx, sessionID); err != nil {
		// Terminal-state errors mean a nullification beat us; nothing to
		// retry. Everything else is requeued with a backoff.
		if errors.Is(err, service.ErrSessionTerminal) || errors.Is(err, service.ErrSessionNotFound) {
			w.log.Warn().Err(err).Str("session_id", result[1]).Msg("Skipping ungradeable session")
			return
		}
		w.log.Error().Err(err).Str("session_id", result[1]).Msg("Grading failed, requeueing")
		w.rdb.RPush(ctx, config.WorkerKey.GradeSessionsQueue, result[1])
		time.Sleep(gradeRetryDelay)
	}
}
