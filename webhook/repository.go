package webhook

import (
	"context"
	"time"
)

/* Small, focused interfaces following "The Go Way"
 * Interfaces abstract behavior, not things
 * Written for users of the API, not just for testing
 */

// Reader provides read operations for records
type Reader interface {
	/* Get returns ErrNotFound for an unknown id, never a zero Record
	 */
	Get(ctx context.Context, id string) (Record, error)
	Count(ctx context.Context) (int64, error)
}

// Writer provides write operations for records
type Writer interface {
	/* Store puts the record and persists it before returning
	 */
	Store(ctx context.Context, record Record) error
	/* Touch increments the usage count by one and sets LastUsed in a single step
	 * Returns the updated record, or ErrNotFound if the id disappeared
	 */
	Touch(ctx context.Context, id string, at time.Time) (Record, error)
	Delete(ctx context.Context, id string) error
}

/* Interface composition - combining small interfaces into larger ones
 * This is preferred over large monolithic interfaces
 */
type Repository interface {
	Reader
	Writer
	Close(ctx context.Context) error
}

// Codec turns a destination URL into an opaque token and back
type Codec interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(token string) (string, error)
}

// Relayer issues the single outbound call to the real destination
type Relayer interface {
	/* Relay returns an error only when the destination could not be reached
	 * A non-2xx answer is a valid Response, not an error
	 */
	Relay(ctx context.Context, destination string, in Inbound) (Response, error)
}

// Response is what the real destination answered
type Response struct {
	StatusCode int
	Body       []byte
}
