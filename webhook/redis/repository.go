package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/marcelsud/webhook-shield/webhook"
	"github.com/redis/go-redis/v9"
)

/* Redis implementation of webhook.Repository
 * Uses one Redis Hash per record and a Set of ids for counting
 * Usage updates run as a Lua script so the increment is atomic across processes
 */

const (
	hashPrefix = "webhook"      // Hash naming: webhook:{id}
	idsKey     = "webhooks:ids" // Set of all registered ids
)

// touchScript increments usage only when the hash still exists
var touchScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return -1
end
local count = redis.call("HINCRBY", KEYS[1], "usage_count", 1)
redis.call("HSET", KEYS[1], "last_used", ARGV[1])
return count
`)

/* countScript drops ids whose hash has expired and returns the live count
 * ARGV[1] is the hash prefix, so this assumes a single-node deployment
 */
var countScript = redis.NewScript(`
local live = 0
for _, id in ipairs(redis.call("SMEMBERS", KEYS[1])) do
	if redis.call("EXISTS", ARGV[1] .. id) == 1 then
		live = live + 1
	else
		redis.call("SREM", KEYS[1], id)
	end
end
return live
`)

var _ webhook.Repository = (*Repository)(nil)

type Repository struct {
	client *redis.Client
}

// NewRepository creates a new Redis repository
func NewRepository(addr, password string, db int) (*Repository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}

	return &Repository{
		client: client,
	}, nil
}

// Store writes the record hash and applies its expiry, if any
func (r *Repository) Store(ctx context.Context, rec webhook.Record) error {
	key := hashKey(rec.ID)

	fields := map[string]interface{}{
		"id":            rec.ID,
		"encrypted_url": rec.EncryptedURL,
		"created_at":    rec.CreatedAt.UnixNano(),
		"usage_count":   rec.UsageCount,
	}
	if rec.LastUsed != nil {
		fields["last_used"] = rec.LastUsed.UnixNano()
	}
	if rec.ExpiresAt != nil {
		fields["expires_at"] = rec.ExpiresAt.UnixNano()
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fields)
		pipe.SAdd(ctx, idsKey, rec.ID)
		if rec.ExpiresAt != nil {
			pipe.ExpireAt(ctx, key, *rec.ExpiresAt)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("storing webhook record: %w", err)
	}

	return nil
}

// Get retrieves a record by id from its Redis hash
func (r *Repository) Get(ctx context.Context, id string) (webhook.Record, error) {
	data, err := r.client.HGetAll(ctx, hashKey(id)).Result()
	if err != nil {
		return webhook.Record{}, fmt.Errorf("getting webhook record: %w", err)
	}
	if len(data) == 0 {
		// the hash may have expired; keep the id set in step
		r.client.SRem(ctx, idsKey, id)
		return webhook.Record{}, webhook.ErrNotFound
	}

	return fromHash(id, data), nil
}

// Count returns the number of live records, pruning ids left behind by expired hashes
func (r *Repository) Count(ctx context.Context) (int64, error) {
	n, err := countScript.Run(ctx, r.client, []string{idsKey}, hashPrefix+":").Int64()
	if err != nil {
		return 0, fmt.Errorf("counting webhook records: %w", err)
	}
	return n, nil
}

// Touch increments usage and sets last_used atomically
func (r *Repository) Touch(ctx context.Context, id string, at time.Time) (webhook.Record, error) {
	count, err := touchScript.Run(ctx, r.client, []string{hashKey(id)}, at.UnixNano()).Int64()
	if err != nil {
		return webhook.Record{}, fmt.Errorf("incrementing usage count: %w", err)
	}
	if count < 0 {
		return webhook.Record{}, webhook.ErrNotFound
	}

	rec, err := r.Get(ctx, id)
	if errors.Is(err, webhook.ErrNotFound) {
		// expired between the script and the read
		lastUsed := at
		return webhook.Record{ID: id, UsageCount: count, LastUsed: &lastUsed}, nil
	}
	if err != nil {
		return webhook.Record{}, err
	}
	rec.UsageCount = count
	return rec, nil
}

// Delete removes the record hash and its id from the set
func (r *Repository) Delete(ctx context.Context, id string) error {
	var removed *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.Del(ctx, hashKey(id))
		pipe.SRem(ctx, idsKey, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("deleting webhook record: %w", err)
	}
	if removed.Val() == 0 {
		return webhook.ErrNotFound
	}
	return nil
}

// Close closes the Redis connection
func (r *Repository) Close(ctx context.Context) error {
	return r.client.Close()
}

// GetClient returns the underlying Redis client
func (r *Repository) GetClient() *redis.Client {
	return r.client
}

// Helper functions

func hashKey(id string) string {
	return fmt.Sprintf("%s:%s", hashPrefix, id)
}

func fromHash(id string, data map[string]string) webhook.Record {
	rec := webhook.Record{
		ID:           id,
		EncryptedURL: data["encrypted_url"],
		CreatedAt:    time.Unix(0, parseInt64(data["created_at"])).UTC(),
		UsageCount:   parseInt64(data["usage_count"]),
	}
	if v, ok := data["last_used"]; ok && v != "" {
		t := time.Unix(0, parseInt64(v)).UTC()
		rec.LastUsed = &t
	}
	if v, ok := data["expires_at"]; ok && v != "" {
		t := time.Unix(0, parseInt64(v)).UTC()
		rec.ExpiresAt = &t
	}
	return rec
}

func parseInt64(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
