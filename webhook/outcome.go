package webhook

import (
	"errors"
	"fmt"
)

/* Outcome classifies how a forward ended
 * Used for metrics and logging, never sent to the caller
 */
type Outcome int

const (
	Relayed Outcome = iota + 1
	Unknown
	DecryptFailed
	UpstreamFailed
	Failed
)

// String returns the string representation of the outcome
func (o Outcome) String() string {
	switch o {
	case Relayed:
		return "relayed"
	case Unknown:
		return "not_found"
	case DecryptFailed:
		return "decrypt_failed"
	case UpstreamFailed:
		return "upstream_failed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// OutcomeOf maps the error returned by Forward to an Outcome
func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return Relayed
	case errors.Is(err, ErrNotFound):
		return Unknown
	case errors.Is(err, ErrDecrypt):
		return DecryptFailed
	case errors.Is(err, ErrUpstream):
		return UpstreamFailed
	default:
		return Failed
	}
}

/* UsagePolicy decides which relays count as usage
 * CountAttempts counts every relay that was attempted, even when the destination is down
 * CountSuccesses counts only relays answered with a 2xx status
 */
type UsagePolicy int

const (
	CountAttempts UsagePolicy = iota + 1
	CountSuccesses
)

// String returns the string representation of the usage policy
func (p UsagePolicy) String() string {
	switch p {
	case CountAttempts:
		return "attempts"
	case CountSuccesses:
		return "successes"
	default:
		return "unknown"
	}
}

// NewUsagePolicy creates a UsagePolicy from a string
func NewUsagePolicy(s string) UsagePolicy {
	switch s {
	case "successes":
		return CountSuccesses
	default:
		return CountAttempts
	}
}

// Validate checks if the usage policy is valid
func (p UsagePolicy) Validate() error {
	if p != CountAttempts && p != CountSuccesses {
		return fmt.Errorf("invalid usage policy: %d", p)
	}
	return nil
}

func (p UsagePolicy) counts(resp Response, relayErr error) bool {
	if p == CountSuccesses {
		return relayErr == nil && resp.StatusCode >= 200 && resp.StatusCode < 300
	}
	return true
}
