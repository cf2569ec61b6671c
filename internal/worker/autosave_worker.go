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

const (
	BatchSize    = 50
	BatchTimeout = 2 * time.Second
	PollTimeout  = 1 * time.Second // Must be >= 1s to satisfy Redis
)

// AutosaveWorker consumes persist_answers_queue and bulk-upserts answers into
// PostgreSQL. Respondents autosave aggressively, so single-row writes would
// hammer the database; batching coalesces them.
type AutosaveWorker struct {
	pool    *pgxpool.Pool
	rdb     *redis.Client
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// NewAutosaveWorker creates a new AutosaveWorker.
func NewAutosaveWorker(pool *pgxpool.Pool, rdb *redis.Client, m *metrics.Metrics, log zerolog.Logger) *AutosaveWorker {
	return &AutosaveWorker{
		pool:    pool,
		rdb:     rdb,
		metrics: m,
		log:     log.With().Str("component", "autosave_worker").Logger(),
	}
}

// Start begins the worker loop. Call in a goroutine.
func (w *AutosaveWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	buffer := make([]*model.PersistAnswerJob, 0, BatchSize)
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

		result, err := w.rdb.BLPop(ctx, PollTimeout, config.WorkerKey.PersistAnswersQueue).Result()
		if err != nil {
			if err == redis.Nil {
				continue // Queue empty, loop back to check the flush timer
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

		var job model.PersistAnswerJob
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			// Malformed JSON cannot be retried. Log and discard.
			w.log.Error().Err(err).Str("data", result[1]).Msg("Discarding malformed JSON")
			continue
		}

		buffer = append(buffer, &job)
	}
}

// flushSafe attempts the bulk upsert, falling back to row-by-row on failure.
func (w *AutosaveWorker) flushSafe(ctx context.Context, batch []*model.PersistAnswerJob) {
	batch = dedupe(batch)
	w.metrics.WorkerBatchSize.WithLabelValues("autosave").Observe(float64(len(batch)))

	if err := w.bulkUpsert(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk upsert failed, attempting row-by-row recovery")
		w.metrics.WorkerBatchFlushes.WithLabelValues("autosave", "fallback").Inc()
		w.fallbackUpsert(ctx, batch)
		return
	}
	w.metrics.WorkerBatchFlushes.WithLabelValues("autosave", "ok").Inc()
}

// dedupe keeps only the last job per (response, question) pair. A single
// batch touching the same row twice would break ON CONFLICT DO UPDATE.
func dedupe(batch []*model.PersistAnswerJob) []*model.PersistAnswerJob {
	type key struct{ resp, q string }
	last := make(map[key]int, len(batch))
	for i, job := range batch {
		last[key{job.ResponseID.String(), job.QuestionID.String()}] = i
	}
	out := make([]*model.PersistAnswerJob, 0, len(last))
	for i, job := range batch {
		if last[key{job.ResponseID.String(), job.QuestionID.String()}] == i {
			out = append(out, job)
		}
	}
	return out
}

func (w *AutosaveWorker) bulkUpsert(ctx context.Context, batch []*model.PersistAnswerJob) error {
	responseIDs := make([]string, len(batch))
	questionIDs := make([]string, len(batch))
	values := make([]string, len(batch))
	seconds := make([]*float64, len(batch))
	for i, job := range batch {
		responseIDs[i] = job.ResponseID.String()
		questionIDs[i] = job.QuestionID.String()
		values[i] = string(job.Value)
		seconds[i] = job.SecondsSpent
	}

	_, err := w.pool.Exec(ctx,
		`INSERT INTO answers (response_id, question_id, value, seconds_spent)
		 SELECT * FROM UNNEST($1::uuid[], $2::uuid[], $3::jsonb[], $4::float8[])
		 ON CONFLICT (response_id, question_id) DO UPDATE
		 SET value = EXCLUDED.value,
		     seconds_spent = COALESCE(EXCLUDED.seconds_spent, answers.seconds_spent),
		     updated_at = NOW()`,
		responseIDs, questionIDs, values, seconds,
	)
	return err
}

func (w *AutosaveWorker) fallbackUpsert(ctx context.Context, batch []*model.PersistAnswerJob) {
	requeueList := make([]*model.PersistAnswerJob, 0)

	for _, job := range batch {
		_, err := w.pool.Exec(ctx,
			`INSERT INTO answers (response_id, question_id, value, seconds_spent)
			 VALUES ($1, $2, $3::jsonb, $4)
			 ON CONFLICT (response_id, question_id) DO UPDATE
			 SET value = EXCLUDED.value,
			     seconds_spent = COALESCE(EXCLUDED.seconds_spent, answers.seconds_spent),
			     updated_at = NOW()`,
			job.ResponseID, job.QuestionID, string(job.Value), job.SecondsSpent,
		)
		if err != nil {
			w.log.Error().Err(err).
				Str("response_id", job.ResponseID.String()).
				Msg("Upsert failed, requeueing")
			requeueList = append(requeueList, job)
		}
	}

	if len(requeueList) > 0 {
		w.requeue(ctx, requeueList)
	}
}

func (w *AutosaveWorker) requeue(ctx context.Context, items []*model.PersistAnswerJob) {
	pipe := w.rdb.Pipeline()
	for _, job := range items {
		data, _ := json.Marshal(job)
		pipe.RPush(ctx, config.WorkerKey.PersistAnswersQueue, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Msg("CRITICAL: Failed to requeue items to Redis. Data loss occurred.")
		return
	}
	w.metrics.WorkerBatchFlushes.WithLabelValues("autosave", "requeued").Inc()
	w.log.Info().Int("count", len(items)).Msg("Requeued failed items back to Redis")
	// Avoid thrashing while the database is down.
	time.Sleep(2 * time.Second)
}

func (w *AutosaveWorker) shutdown(buffer []*model.PersistAnswerJob) {
	w.log.Info().Msg("Worker stopping, flushing remaining buffer...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if len(buffer) > 0 {
		w.flushSafe(shutdownCtx, buffer)
	}
}
