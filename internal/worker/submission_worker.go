package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/formpulse/formpulse-backend/internal/config"
	"github.com/formpulse/formpulse-backend/internal/metrics"
	"github.com/formpulse/formpulse-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// SubmissionWorker consumes persist_submissions_queue, marks responses
// completed in bulk and cleans up their Redis autosave buffers.
type SubmissionWorker struct {
	pool    *pgxpool.Pool
	rdb     *redis.Client
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// NewSubmissionWorker creates a new SubmissionWorker.
func NewSubmissionWorker(pool *pgxpool.Pool, rdb *redis.Client, m *metrics.Metrics, log zerolog.Logger) *SubmissionWorker {
	return &SubmissionWorker{
		pool:    pool,
		rdb:     rdb,
		metrics: m,
		log:     log.With().Str("component", "submission_worker").Logger(),
	}
}

// Start begins the worker loop. Call in a goroutine.
func (w *SubmissionWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	buffer := make([]*model.PersistSubmissionJob, 0, BatchSize)
	lastFlush := time.Now()

	for {
		if len(buffer) > 0 {
			if len(buffer) >= BatchSize || time.Since(lastFlush) >= BatchTimeout {
				w.flushSafe(ctx, buffer)
				buffer = buffer[:0]
				lastFlush = time.Now()
			}
		}

		select {
		case <-ctx.Done():
			w.shutdown(buffer)
			return
		default:
		}

		result, err := w.rdb.BLPop(ctx, PollTimeout, config.WorkerKey.PersistSubmissionsQueue).Result()
		if err != nil {
			if err == redis.Nil {
				continue
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

		var job model.PersistSubmissionJob
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			w.log.Error().Err(err).Str("data", result[1]).Msg("Discarding malformed JSON")
			continue
		}

		buffer = append(buffer, &job)
	}
}

func (w *SubmissionWorker) flushSafe(ctx context.Context, batch []*model.PersistSubmissionJob) {
	w.metrics.WorkerBatchSize.WithLabelValues("submission").Observe(float64(len(batch)))

	if err := w.bulkComplete(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk update failed, attempting row-by-row recovery")
		w.metrics.WorkerBatchFlushes.WithLabelValues("submission", "fallback").Inc()
		w.fallbackComplete(ctx, batch)
	} else {
		w.metrics.WorkerBatchFlushes.WithLabelValues("submission", "ok").Inc()
	}

	w.cleanupBuffers(ctx, batch)
}

func (w *SubmissionWorker) bulkComplete(ctx context.Context, batch []*model.PersistSubmissionJob) error {
	responseIDs := make([]string, len(batch))
	completedAts := make([]time.Time, len(batch))
	for i, job := range batch {
		responseIDs[i] = job.ResponseID.String()
		completedAts[i] = job.CompletedAt
	}

	// The status guard makes replays idempotent: a response completed by an
	// earlier flush keeps its original completion time.
	_, err := w.pool.Exec(ctx,
		`UPDATE responses r
		 SET status = 'completed', completed_at = v.completed_at
		 FROM UNNEST($1::uuid[], $2::timestamptz[]) AS v(id, completed_at)
		 WHERE r.id = v.id AND r.status = 'in_progress'`,
		responseIDs, completedAts,
	)
	return err
}

func (w *SubmissionWorker) fallbackComplete(ctx context.Context, batch []*model.PersistSubmissionJob) {
	requeueList := make([]*model.PersistSubmissionJob, 0)

	for _, job := range batch {
		_, err := w.pool.Exec(ctx,
			`UPDATE responses
			 SET status = 'completed', completed_at = $2
			 WHERE id = $1 AND status = 'in_progress'`,
			job.ResponseID, job.CompletedAt,
		)
		if err != nil {
			w.log.Error().Err(err).
				Str("response_id", job.ResponseID.String()).
				Msg("Update failed, requeueing")
			requeueList = append(requeueList, job)
		}
	}

	if len(requeueList) > 0 {
		w.requeue(ctx, requeueList)
	}
}

// cleanupBuffers drops the Redis autosave buffers of completed responses.
func (w *SubmissionWorker) cleanupBuffers(ctx context.Context, batch []*model.PersistSubmissionJob) {
	pipe := w.rdb.Pipeline()
	for _, job := range batch {
		pipe.Del(ctx, config.CacheKey.ResponseAnswersKey(job.SurveyID.String(), job.ResponseID.String()))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Warn().Err(err).Msg("Buffer cleanup failed, keys will expire on their own")
	}
}

func (w *SubmissionWorker) requeue(ctx context.Context, items []*model.PersistSubmissionJob) {
	pipe := w.rdb.Pipeline()
	for _, job := range items {
		data, _ := json.Marshal(job)
		pipe.RPush(ctx, config.WorkerKey.PersistSubmissionsQueue, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Msg("CRITICAL: Failed to requeue items to Redis. Data loss occurred.")
		return
	}
	w.metrics.WorkerBatchFlushes.WithLabelValues("submission", "requeued").Inc()
	w.log.Info().Int("count", len(items)).Msg("Requeued failed items back to Redis")
	time.Sleep(2 * time.Second)
}

func (w *SubmissionWorker) shutdown(buffer []*model.PersistSubmissionJob) {
	w.log.Info().Msg("Worker stopping, flushing remaining buffer...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if len(buffer) > 0 {
		w.flushSafe(shutdownCtx, buffer)
	}
}
