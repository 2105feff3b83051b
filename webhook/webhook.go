package webhook

import (
	"net/http"
	"time"
)

/* Record represents one registered destination
 * Uses value semantics as it represents data, not behavior
 * EncryptedURL is the only place the real destination lives at rest
 */
type Record struct {
	ID           string
	EncryptedURL string
	CreatedAt    time.Time
	UsageCount   int64
	LastUsed     *time.Time
	ExpiresAt    *time.Time
}

// Expired reports whether the record has an expiry that is not after now
func (r Record) Expired(now time.Time) bool {
	return r.ExpiresAt != nil && !now.Before(*r.ExpiresAt)
}

// Registration is returned to the caller after a destination is protected
type Registration struct {
	ID        string
	PublicURL string
}

// Inbound is the call received on a substitute URL
type Inbound struct {
	Body   []byte
	Header http.Header
}

// Forwarded is the structured result of a relay
type Forwarded struct {
	OriginalStatus int
	Message        string
	Usage          int64
}
