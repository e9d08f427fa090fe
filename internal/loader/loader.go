// Package loader writes records to the store in fixed-size, paced chunks.
package loader

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/yigit/horario/internal/app/repositories"
	"github.com/yigit/horario/internal/pkg/apperrors"
)

// Defaults used when the configuration leaves the loader section empty.
const (
	DefaultBatchSize = 20
	DefaultPace      = 300 * time.Millisecond
)

// Limiter paces successive chunk inserts. *rate.Limiter satisfies it.
type Limiter interface {
	Wait(ctx context.Context) error
}

// NewRateLimiter allows one chunk per pace interval with no burst.
// A non-positive pace disables pacing.
func NewRateLimiter(pace time.Duration) Limiter {
	if pace <= 0 {
		return NoopLimiter{}
	}
	return rate.NewLimiter(rate.Every(pace), 1)
}

// NoopLimiter never waits.
type NoopLimiter struct{}

// Wait only reports context cancellation.
func (NoopLimiter) Wait(ctx context.Context) error {
	return ctx.Err()
}

// BatchLoader inserts records chunk by chunk, in order, one chunk at a time.
type BatchLoader struct {
	store     repositories.Store
	batchSize int
	limiter   Limiter
	log       zerolog.Logger
}

// NewBatchLoader creates a BatchLoader. A non-positive batchSize falls back to
// DefaultBatchSize and a nil limiter disables pacing.
func NewBatchLoader(store repositories.Store, batchSize int, limiter Limiter, lgr zerolog.Logger) *BatchLoader {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if limiter == nil {
		limiter = NoopLimiter{}
	}
	return &BatchLoader{
		store:     store,
		batchSize: batchSize,
		limiter:   limiter,
		log:       lgr.With().Str("component", "loader").Logger(),
	}
}

// BatchSize reports the chunk size in use.
func (l *BatchLoader) BatchSize() int {
	return l.batchSize
}

// Load inserts records into collection in ceil(len/batchSize) calls, each
// preceded by a limiter Wait, and returns how many records were written. The
// first failing chunk stops the load; records of earlier chunks stay written.
func (l *BatchLoader) Load(ctx context.Context, collection string, records []repositories.Record) (int, error) {
	total := len(records)
	if total == 0 {
		return 0, nil
	}

	inserted := 0
	for start, batch := 0, 1; start < total; start, batch = start+l.batchSize, batch+1 {
		end := min(start+l.batchSize, total)

		// every chunk takes a token, so two inserts are always a full pace apart
		if err := l.limiter.Wait(ctx); err != nil {
			return inserted, err
		}

		if err := l.store.Insert(ctx, collection, records[start:end]); err != nil {
			l.log.Error().Err(err).
				Str("collection", collection).
				Int("batch", batch).
				Int("from", start+1).
				Int("to", end).
				Msg("Batch insert failed")
			return inserted, apperrors.NewStoreError("insert batch", collection, err)
		}

		inserted = end
		l.log.Info().
			Str("collection", collection).
			Int("batch", batch).
			Msgf("inserted %d/%d", inserted, total)
	}

	return inserted, nil
}
