package webhook

import "errors"

var (
	// ErrNotFound is returned when an identifier does not resolve to a live record
	ErrNotFound = errors.New("webhook not found")

	// ErrMissingURL is returned when registration is attempted without a URL
	ErrMissingURL = errors.New("webhook URL is required")

	// ErrInvalidURL is returned when the URL is not an absolute http(s) URL
	ErrInvalidURL = errors.New("invalid URL format")

	// ErrDecrypt is returned when a persisted record cannot be decrypted
	ErrDecrypt = errors.New("decrypting destination")

	// ErrUpstream is returned when the real destination could not be reached
	ErrUpstream = errors.New("destination unreachable")

	// ErrPersistence is returned when the store fails and strict persistence is on
	ErrPersistence = errors.New("persisting record")
)

// IsValidation reports whether err is caused by bad caller input
func IsValidation(err error) bool {
	return errors.Is(err, ErrMissingURL) || errors.Is(err, ErrInvalidURL)
}
