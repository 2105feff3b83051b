//go:build integration

package redis_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/marcelsud/webhook-shield/webhook"
	"github.com/marcelsud/webhook-shield/webhook/redis"
	"github.com/stretchr/testify/require"
	testcontainersredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

/* Test helpers for the Redis store
 * - one container per test, torn down on cleanup
 * - inspection goes through the repository's own client
 */

// SetupRedisRepository starts a container and returns a repository connected to it
func SetupRedisRepository(t *testing.T, ctx context.Context) (*redis.Repository, func()) {
	t.Helper()

	container, err := testcontainersredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err, "failed to start Redis container")

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err, "failed to get Redis connection string")

	repo, err := redis.NewRepository(strings.TrimPrefix(uri, "redis://"), "", 0)
	require.NoError(t, err, "failed to create Redis repository")

	cleanup := func() {
		_ = repo.Close(ctx)
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Redis container: %v", err)
		}
	}

	return repo, cleanup
}

// GenerateID returns a fresh record id
func GenerateID(t *testing.T) string {
	t.Helper()
	id, err := webhook.NewID()
	require.NoError(t, err)
	return id
}

// HashTTL returns the remaining lifetime of the webhook:{id} hash
func HashTTL(t *testing.T, repo *redis.Repository, id string) time.Duration {
	t.Helper()
	ttl, err := repo.GetClient().TTL(context.Background(), hashKey(id)).Result()
	require.NoError(t, err)
	return ttl
}

// HashExists reports whether the webhook:{id} hash is present
func HashExists(t *testing.T, repo *redis.Repository, id string) bool {
	t.Helper()
	n, err := repo.GetClient().Exists(context.Background(), hashKey(id)).Result()
	require.NoError(t, err)
	return n > 0
}

// HashField reads one raw field of the webhook:{id} hash
func HashField(t *testing.T, repo *redis.Repository, id, field string) string {
	t.Helper()
	v, err := repo.GetClient().HGet(context.Background(), hashKey(id), field).Result()
	require.NoError(t, err)
	return v
}

// TrackedIDs returns the members of the webhooks:ids set
func TrackedIDs(t *testing.T, repo *redis.Repository) []string {
	t.Helper()
	ids, err := repo.GetClient().SMembers(context.Background(), "webhooks:ids").Result()
	require.NoError(t, err)
	return ids
}

func hashKey(id string) string {
	return fmt.Sprintf("webhook:%s", id)
}
