//go:build integration

package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/marcelsud/webhook-shield/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_Integration(t *testing.T) {
	ctx := context.Background()
	repo, cleanup := SetupPostgresRepository(t, ctx)
	defer cleanup()

	id, err := webhook.NewID()
	require.NoError(t, err)
	rec := webhook.Record{
		ID:           id,
		EncryptedURL: "nonce:sealed",
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}

	t.Run("store and get", func(t *testing.T) {
		require.NoError(t, repo.Store(ctx, rec))

		got, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, rec.EncryptedURL, got.EncryptedURL)
		assert.True(t, rec.CreatedAt.Equal(got.CreatedAt))
		assert.Nil(t, got.LastUsed)
	})

	t.Run("concurrent touches are not lost", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 25; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.Touch(ctx, id, time.Now().UTC())
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		got, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int64(25), got.UsageCount)
		assert.NotNil(t, got.LastUsed)
	})

	t.Run("count and delete", func(t *testing.T) {
		n, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		require.NoError(t, repo.Delete(ctx, id))
		_, err = repo.Get(ctx, id)
		assert.ErrorIs(t, err, webhook.ErrNotFound)
	})
}
