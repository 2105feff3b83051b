package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/marcelsud/webhook-shield/webhook"
	"github.com/spf13/afero"
)

/* Single-document implementation of webhook.Repository
 * Every operation reloads the whole document from disk and every mutation rewrites it,
 * so state survives restarts and several short-lived processes see each other's writes.
 * The mutex serializes mutations inside one process; there is no cross-process lock.
 */

// DefaultPath is the well-known location of the mapping document
const DefaultPath = "data/webhooks.json"

// record is the persisted shape of webhook.Record, keyed by id in the document
type record struct {
	EncryptedURL string     `json:"encryptedUrl"`
	CreatedAt    time.Time  `json:"createdAt"`
	UsageCount   int64      `json:"usageCount"`
	LastUsed     *time.Time `json:"lastUsed,omitempty"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
}

var _ webhook.Repository = (*Repository)(nil)

type Repository struct {
	fs   afero.Fs
	path string
	mu   sync.Mutex
}

// NewRepository creates a repository backed by the OS filesystem
func NewRepository(path string) *Repository {
	return NewRepositoryWithFs(afero.NewOsFs(), path)
}

// NewRepositoryWithFs creates a repository on any afero filesystem
func NewRepositoryWithFs(fs afero.Fs, path string) *Repository {
	if path == "" {
		path = DefaultPath
	}
	return &Repository{fs: fs, path: path}
}

// Load reads the whole mapping. A missing document is an empty mapping.
func (r *Repository) Load(ctx context.Context) (map[string]webhook.Record, error) {
	data, err := afero.ReadFile(r.fs, r.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]webhook.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading mapping file: %w", err)
	}

	var doc map[string]record
	if len(data) > 0 {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing mapping file: %w", err)
		}
	}

	mapping := make(map[string]webhook.Record, len(doc))
	for id, rec := range doc {
		mapping[id] = toDomain(id, rec)
	}
	return mapping, nil
}

// Save rewrites the whole mapping, creating the containing directory if needed
func (r *Repository) Save(ctx context.Context, mapping map[string]webhook.Record) error {
	doc := make(map[string]record, len(mapping))
	for id, rec := range mapping {
		doc[id] = fromDomain(rec)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling mapping: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := r.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	// write then rename so a crash never leaves a truncated document behind
	tmp := r.path + ".tmp"
	if err := afero.WriteFile(r.fs, tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing mapping file: %w", err)
	}
	if err := r.fs.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("replacing mapping file: %w", err)
	}
	return nil
}

// Get retrieves a record by id
func (r *Repository) Get(ctx context.Context, id string) (webhook.Record, error) {
	mapping, err := r.Load(ctx)
	if err != nil {
		return webhook.Record{}, err
	}
	rec, ok := mapping[id]
	if !ok {
		return webhook.Record{}, webhook.ErrNotFound
	}
	return rec, nil
}

// Count returns the number of stored records
func (r *Repository) Count(ctx context.Context) (int64, error) {
	mapping, err := r.Load(ctx)
	if err != nil {
		return 0, err
	}
	return int64(len(mapping)), nil
}

// Store puts the record and rewrites the document
func (r *Repository) Store(ctx context.Context, rec webhook.Record) error {
	return r.mutate(ctx, func(mapping map[string]webhook.Record) error {
		mapping[rec.ID] = rec
		return nil
	})
}

// Touch increments usage and sets LastUsed under the process lock
func (r *Repository) Touch(ctx context.Context, id string, at time.Time) (webhook.Record, error) {
	var updated webhook.Record
	err := r.mutate(ctx, func(mapping map[string]webhook.Record) error {
		rec, ok := mapping[id]
		if !ok {
			return webhook.ErrNotFound
		}
		rec.UsageCount++
		rec.LastUsed = &at
		mapping[id] = rec
		updated = rec
		return nil
	})
	if err != nil {
		return webhook.Record{}, err
	}
	return updated, nil
}

// Delete removes a record. Deleting an unknown id is ErrNotFound.
func (r *Repository) Delete(ctx context.Context, id string) error {
	return r.mutate(ctx, func(mapping map[string]webhook.Record) error {
		if _, ok := mapping[id]; !ok {
			return webhook.ErrNotFound
		}
		delete(mapping, id)
		return nil
	})
}

// Close is a no-op: the document is closed after every operation
func (r *Repository) Close(ctx context.Context) error {
	return nil
}

func (r *Repository) mutate(ctx context.Context, fn func(map[string]webhook.Record) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	mapping, err := r.Load(ctx)
	if err != nil {
		return err
	}
	if err := fn(mapping); err != nil {
		return err
	}
	return r.Save(ctx, mapping)
}

func toDomain(id string, rec record) webhook.Record {
	return webhook.Record{
		ID:           id,
		EncryptedURL: rec.EncryptedURL,
		CreatedAt:    rec.CreatedAt,
		UsageCount:   rec.UsageCount,
		LastUsed:     rec.LastUsed,
		ExpiresAt:    rec.ExpiresAt,
	}
}

func fromDomain(rec webhook.Record) record {
	return record{
		EncryptedURL: rec.EncryptedURL,
		CreatedAt:    rec.CreatedAt,
		UsageCount:   rec.UsageCount,
		LastUsed:     rec.LastUsed,
		ExpiresAt:    rec.ExpiresAt,
	}
}
