package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIdempotencyService(t *testing.T, window time.Duration) *IdempotencyService {
	db := setupTestDB(t)
	return NewIdempotencyService(db, window, zerolog.Nop())
}

func TestIdempotencyLookup(t *testing.T) {
	ctx := context.Background()

	t.Run("unseen request id", func(t *testing.T) {
		svc := newTestIdempotencyService(t, 5*time.Minute)

		entry, err := svc.Lookup(ctx, "req-1")
		require.NoError(t, err)
		assert.Nil(t, entry)
	})

	t.Run("recorded response is replayed", func(t *testing.T) {
		svc := newTestIdempotencyService(t, 5*time.Minute)

		require.NoError(t, svc.Record(ctx, "req-1", "POST", "/api/v1/flights", 201, []byte(`{"id":1}`)))

		entry, err := svc.Lookup(ctx, "req-1")
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.Equal(t, 201, entry.StatusCode)
		assert.Equal(t, []byte(`{"id":1}`), entry.Response)
	})

	t.Run("expired entry is treated as unseen", func(t *testing.T) {
		svc := newTestIdempotencyService(t, 5*time.Minute)
		base := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

		svc.now = func() time.Time { return base }
		require.NoError(t, svc.Record(ctx, "req-1", "POST", "/api/v1/flights", 201, nil))

		svc.now = func() time.Time { return base.Add(6 * time.Minute) }
		entry, err := svc.Lookup(ctx, "req-1")
		require.NoError(t, err)
		assert.Nil(t, entry)
	})

	t.Run("duplicate record is swallowed", func(t *testing.T) {
		svc := newTestIdempotencyService(t, 5*time.Minute)

		require.NoError(t, svc.Record(ctx, "req-1", "POST", "/api/v1/flights", 201, nil))
		assert.NoError(t, svc.Record(ctx, "req-1", "POST", "/api/v1/flights", 201, nil))
	})
}

func TestIdempotencySweep(t *testing.T) {
	ctx := context.Background()
	svc := newTestIdempotencyService(t, 5*time.Minute)
	base := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	svc.now = func() time.Time { return base }
	require.NoError(t, svc.Record(ctx, "old", "POST", "/api/v1/flights", 201, nil))

	svc.now = func() time.Time { return base.Add(4 * time.Minute) }
	require.NoError(t, svc.Record(ctx, "fresh", "POST", "/api/v1/flights", 201, nil))

	svc.now = func() time.Time { return base.Add(6 * time.Minute) }
	removed, err := svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	entry, err := svc.Lookup(ctx, "fresh")
	require.NoError(t, err)
	assert.NotNil(t, entry)
}
