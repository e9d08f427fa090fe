package loader

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/yigit/horario/internal/app/models"
	"github.com/yigit/horario/internal/app/repositories"
	"github.com/yigit/horario/internal/pkg/apperrors"
)

// recordingStore remembers every Insert call and fails the call numbered failOn.
type recordingStore struct {
	calls  [][]repositories.Record
	failOn int
}

func (s *recordingStore) Select(context.Context, string, repositories.Filter, ...string) ([]repositories.Record, error) {
	return nil, nil
}

func (s *recordingStore) Insert(_ context.Context, _ string, records []repositories.Record) error {
	s.calls = append(s.calls, records)
	if s.failOn > 0 && len(s.calls) == s.failOn {
		return errors.New("connection reset")
	}
	return nil
}

func (s *recordingStore) Delete(context.Context, string, repositories.Filter) error {
	return nil
}

type countingLimiter struct{ waits int }

func (l *countingLimiter) Wait(context.Context) error {
	l.waits++
	return nil
}

func records(n int) []repositories.Record {
	out := make([]repositories.Record, n)
	for i := range out {
		out[i] = repositories.Record{"name": fmt.Sprintf("Profesor %d", i)}
	}
	return out
}

func TestLoad_ChunksInOrder(t *testing.T) {
	tests := []struct {
		n, k      int
		wantCalls int
	}{
		{n: 1, k: 20, wantCalls: 1},
		{n: 20, k: 20, wantCalls: 1},
		{n: 21, k: 20, wantCalls: 2},
		{n: 45, k: 20, wantCalls: 3},
		{n: 7, k: 3, wantCalls: 3},
		{n: 5, k: 1, wantCalls: 5},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_by_%d", tt.n, tt.k), func(t *testing.T) {
			store := &recordingStore{}
			limiter := &countingLimiter{}
			in := records(tt.n)

			n, err := NewBatchLoader(store, tt.k, limiter, zerolog.Nop()).Load(context.Background(), models.CollectionInstructors, in)
			require.NoError(t, err)
			assert.Equal(t, tt.n, n)
			require.Len(t, store.calls, tt.wantCalls)
			assert.Equal(t, tt.wantCalls, limiter.waits)

			var flat []repositories.Record
			for i, call := range store.calls {
				assert.LessOrEqual(t, len(call), tt.k)
				if i < len(store.calls)-1 {
					assert.Len(t, call, tt.k)
				}
				flat = append(flat, call...)
			}
			assert.Equal(t, in, flat)
		})
	}
}

func TestLoad_Empty(t *testing.T) {
	store := &recordingStore{}
	n, err := NewBatchLoader(store, 20, nil, zerolog.Nop()).Load(context.Background(), models.CollectionSections, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, store.calls)
}

func TestLoad_StopsAtFirstFailingChunk(t *testing.T) {
	store := &recordingStore{failOn: 2}

	n, err := NewBatchLoader(store, 20, nil, zerolog.Nop()).Load(context.Background(), models.CollectionMeetingBlocks, records(45))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrStoreOperation)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, 20, n)
	assert.Len(t, store.calls, 2)
}

func TestLoad_CancelledWhileWaiting(t *testing.T) {
	store := &recordingStore{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, err := NewBatchLoader(store, 2, NoopLimiter{}, zerolog.Nop()).Load(ctx, models.CollectionInstructors, records(5))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)
	assert.Empty(t, store.calls)
}

func TestNewBatchLoader_Defaults(t *testing.T) {
	l := NewBatchLoader(&recordingStore{}, 0, nil, zerolog.Nop())
	assert.Equal(t, DefaultBatchSize, l.BatchSize())
	assert.IsType(t, NoopLimiter{}, l.limiter)
}

func TestNewRateLimiter(t *testing.T) {
	assert.IsType(t, NoopLimiter{}, NewRateLimiter(0))

	l, ok := NewRateLimiter(DefaultPace).(*rate.Limiter)
	require.True(t, ok)
	assert.Equal(t, rate.Every(DefaultPace), l.Limit())
	assert.Equal(t, 1, l.Burst())
}

// timedStore records when each Insert call arrives.
type timedStore struct {
	recordingStore
	at []time.Time
}

func (s *timedStore) Insert(ctx context.Context, collection string, records []repositories.Record) error {
	s.at = append(s.at, time.Now())
	return s.recordingStore.Insert(ctx, collection, records)
}

func TestLoad_PausesAfterEveryChunk(t *testing.T) {
	store := &timedStore{}
	pace := 50 * time.Millisecond

	_, err := NewBatchLoader(store, 1, NewRateLimiter(pace), zerolog.Nop()).Load(context.Background(), models.CollectionInstructors, records(3))
	require.NoError(t, err)
	require.Len(t, store.at, 3)

	// timestamps are taken inside Insert, a little after each Wait returns
	slack := 5 * time.Millisecond
	for i := 1; i < len(store.at); i++ {
		gap := store.at[i].Sub(store.at[i-1])
		assert.GreaterOrEqual(t, gap, pace-slack, "gap before chunk %d", i+1)
	}
}
