package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/marcelsud/webhook-shield/webhook"
)

/*
PostgreSQL implementation of webhook.Repository

- One row per record, id is the primary key
- Touch is a single UPDATE ... RETURNING so concurrent forwards never lose an increment
- Expired rows are kept; the service treats them as not found
*/

const (
	createTableQuery = `CREATE TABLE IF NOT EXISTS webhooks (
	id TEXT PRIMARY KEY,
	encrypted_url TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	usage_count BIGINT NOT NULL DEFAULT 0,
	last_used TIMESTAMPTZ,
	expires_at TIMESTAMPTZ
)`

	upsertQuery = `INSERT INTO webhooks (id, encrypted_url, created_at, usage_count, last_used, expires_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET
	encrypted_url = EXCLUDED.encrypted_url,
	usage_count = EXCLUDED.usage_count,
	last_used = EXCLUDED.last_used,
	expires_at = EXCLUDED.expires_at`

	selectQuery = `SELECT id, encrypted_url, created_at, usage_count, last_used, expires_at FROM webhooks WHERE id = $1`

	touchQuery = `UPDATE webhooks SET usage_count = usage_count + 1, last_used = $2 WHERE id = $1
RETURNING id, encrypted_url, created_at, usage_count, last_used, expires_at`

	deleteQuery = `DELETE FROM webhooks WHERE id = $1`

	countQuery = `SELECT COUNT(*) FROM webhooks`

	dropTableQuery = `DROP TABLE IF EXISTS webhooks`
)

var _ webhook.Repository = (*Repository)(nil)

type Repository struct {
	DB *sql.DB
}

// NewRepository opens a PostgreSQL repository with the default pool (25, 5, 5 min)
func NewRepository(connectionString string) (*Repository, error) {
	return NewRepositoryWithPoolConfig(connectionString, 25, 5, 5)
}

// NewRepositoryWithPoolConfig opens a PostgreSQL repository with a custom pool
// maxOpenConns: maximum simultaneous connections (0 = unlimited)
// maxIdleConns: idle connections kept in the pool
// maxLifeMinutes: how long a connection may be reused
func NewRepositoryWithPoolConfig(connectionString string, maxOpenConns, maxIdleConns, maxLifeMinutes int) (*Repository, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}
	if maxIdleConns > 0 {
		db.SetMaxIdleConns(maxIdleConns)
	}
	if maxLifeMinutes > 0 {
		db.SetConnMaxLifetime(time.Duration(maxLifeMinutes) * time.Minute)
	}

	return &Repository{
		DB: db,
	}, nil
}

// Store inserts the record, or overwrites it when the id already exists
func (r *Repository) Store(ctx context.Context, rec webhook.Record) error {
	_, err := r.DB.ExecContext(ctx, upsertQuery,
		rec.ID,
		rec.EncryptedURL,
		rec.CreatedAt,
		rec.UsageCount,
		nullTime(rec.LastUsed),
		nullTime(rec.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("storing webhook record: %w", err)
	}
	return nil
}

// Get retrieves a record by id
func (r *Repository) Get(ctx context.Context, id string) (webhook.Record, error) {
	rec, err := scanRecord(r.DB.QueryRowContext(ctx, selectQuery, id))
	if errors.Is(err, sql.ErrNoRows) {
		return webhook.Record{}, webhook.ErrNotFound
	}
	if err != nil {
		return webhook.Record{}, fmt.Errorf("selecting webhook record: %w", err)
	}
	return rec, nil
}

// Count returns the number of stored records
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.DB.QueryRowContext(ctx, countQuery).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting webhook records: %w", err)
	}
	return n, nil
}

// Touch increments usage and sets last_used in one statement
func (r *Repository) Touch(ctx context.Context, id string, at time.Time) (webhook.Record, error) {
	rec, err := scanRecord(r.DB.QueryRowContext(ctx, touchQuery, id, at))
	if errors.Is(err, sql.ErrNoRows) {
		return webhook.Record{}, webhook.ErrNotFound
	}
	if err != nil {
		return webhook.Record{}, fmt.Errorf("updating usage: %w", err)
	}
	return rec, nil
}

// Delete removes a record by id
func (r *Repository) Delete(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, deleteQuery, id)
	if err != nil {
		return fmt.Errorf("deleting webhook record: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rows == 0 {
		return webhook.ErrNotFound
	}
	return nil
}

// Close closes the database pool
func (r *Repository) Close(ctx context.Context) error {
	if r.DB != nil {
		return r.DB.Close()
	}
	return nil
}

// CreateTable creates the webhooks table if it does not exist
func (r *Repository) CreateTable(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, createTableQuery); err != nil {
		return fmt.Errorf("creating table: %w", err)
	}
	return nil
}

// DropTable removes the webhooks table (useful for tests)
func (r *Repository) DropTable(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, dropTableQuery); err != nil {
		return fmt.Errorf("dropping table: %w", err)
	}
	return nil
}

func scanRecord(row *sql.Row) (webhook.Record, error) {
	var (
		rec       webhook.Record
		lastUsed  sql.NullTime
		expiresAt sql.NullTime
	)
	err := row.Scan(&rec.ID, &rec.EncryptedURL, &rec.CreatedAt, &rec.UsageCount, &lastUsed, &expiresAt)
	if err != nil {
		return webhook.Record{}, err
	}
	if lastUsed.Valid {
		t := lastUsed.Time
		rec.LastUsed = &t
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		rec.ExpiresAt = &t
	}
	return rec, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
