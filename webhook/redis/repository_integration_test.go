//go:build integration

package redis_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/marcelsud/webhook-shield/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecord(t *testing.T) webhook.Record {
	t.Helper()
	return webhook.Record{
		ID:           GenerateID(t),
		EncryptedURL: "00112233445566778899aabb:deadbeef",
		CreatedAt:    time.Now().UTC(),
	}
}

func TestRepository_Store_Integration(t *testing.T) {
	ctx := context.Background()

	t.Run("store and retrieve record", func(t *testing.T) {
		repo, cleanup := SetupRedisRepository(t, ctx)
		defer cleanup()

		rec := newRecord(t)
		require.NoError(t, repo.Store(ctx, rec))

		retrieved, err := repo.Get(ctx, rec.ID)
		require.NoError(t, err)

		assert.Equal(t, rec.ID, retrieved.ID)
		assert.Equal(t, rec.EncryptedURL, retrieved.EncryptedURL)
		assert.True(t, rec.CreatedAt.Equal(retrieved.CreatedAt))
		assert.Equal(t, int64(0), retrieved.UsageCount)
		assert.Nil(t, retrieved.LastUsed)
		assert.Equal(t, rec.EncryptedURL, HashField(t, repo, rec.ID, "encrypted_url"))
		assert.Equal(t, []string{rec.ID}, TrackedIDs(t, repo))

		n, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		repo, cleanup := SetupRedisRepository(t, ctx)
		defer cleanup()

		_, err := repo.Get(ctx, "doesnotexist")
		assert.ErrorIs(t, err, webhook.ErrNotFound)
	})

	t.Run("expiring record gets a TTL", func(t *testing.T) {
		repo, cleanup := SetupRedisRepository(t, ctx)
		defer cleanup()

		rec := newRecord(t)
		expires := time.Now().Add(2 * time.Hour)
		rec.ExpiresAt = &expires
		require.NoError(t, repo.Store(ctx, rec))

		ttl := HashTTL(t, repo, rec.ID)
		assert.Greater(t, ttl, time.Hour)
		assert.LessOrEqual(t, ttl, 2*time.Hour)
	})
}

func TestRepository_Touch_Integration(t *testing.T) {
	ctx := context.Background()

	t.Run("increments usage and sets last used", func(t *testing.T) {
		repo, cleanup := SetupRedisRepository(t, ctx)
		defer cleanup()

		rec := newRecord(t)
		require.NoError(t, repo.Store(ctx, rec))

		at := time.Now().UTC()
		updated, err := repo.Touch(ctx, rec.ID, at)
		require.NoError(t, err)
		assert.Equal(t, int64(1), updated.UsageCount)
		require.NotNil(t, updated.LastUsed)
		assert.True(t, at.Equal(*updated.LastUsed))
		assert.Equal(t, "1", HashField(t, repo, rec.ID, "usage_count"))
	})

	t.Run("does not resurrect a missing record", func(t *testing.T) {
		repo, cleanup := SetupRedisRepository(t, ctx)
		defer cleanup()

		id := GenerateID(t)
		_, err := repo.Touch(ctx, id, time.Now())
		assert.ErrorIs(t, err, webhook.ErrNotFound)
		assert.False(t, HashExists(t, repo, id))
	})

	t.Run("concurrent touches are not lost", func(t *testing.T) {
		repo, cleanup := SetupRedisRepository(t, ctx)
		defer cleanup()

		rec := newRecord(t)
		require.NoError(t, repo.Store(ctx, rec))

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.Touch(ctx, rec.ID, time.Now())
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		stored, err := repo.Get(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(50), stored.UsageCount)
	})
}

func TestRepository_Delete_Integration(t *testing.T) {
	ctx := context.Background()

	repo, cleanup := SetupRedisRepository(t, ctx)
	defer cleanup()

	rec := newRecord(t)
	require.NoError(t, repo.Store(ctx, rec))

	require.NoError(t, repo.Delete(ctx, rec.ID))

	_, err := repo.Get(ctx, rec.ID)
	assert.ErrorIs(t, err, webhook.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, rec.ID), webhook.ErrNotFound)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestRepository_Count_Integration(t *testing.T) {
	ctx := context.Background()

	repo, cleanup := SetupRedisRepository(t, ctx)
	defer cleanup()

	live := newRecord(t)
	require.NoError(t, repo.Store(ctx, live))

	expiring := newRecord(t)
	expires := time.Now().Add(time.Second)
	expiring.ExpiresAt = &expires
	require.NoError(t, repo.Store(ctx, expiring))

	require.Eventually(t, func() bool {
		return !HashExists(t, repo, expiring.ID)
	}, 5*time.Second, 100*time.Millisecond)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, []string{live.ID}, TrackedIDs(t, repo))
}
