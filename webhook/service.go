package webhook

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

const (
	// PathPrefix is the fixed path under which substitute URLs are served
	PathPrefix = "/webhook/"

	idBytes         = 16
	maxMessageBytes = 1024
	defaultMessage  = "Request forwarded successfully"
	touchTimeout    = 5 * time.Second
)

var idPattern = regexp.MustCompile(`^[0-9a-f]{32}$`)

/* Service represents the business logic layer
 * Uses pointer semantics as it's an API, not data
 */

// UseCase defines the business operations for protected webhooks
type UseCase interface {
	Register(ctx context.Context, rawURL, baseURL string) (Registration, error)
	Forward(ctx context.Context, id string, in Inbound) (Forwarded, error)
	Inspect(ctx context.Context, id string) (Record, string, error)
	Revoke(ctx context.Context, id string) error
}

type Service struct {
	Repo    Repository
	Codec   Codec
	Relayer Relayer

	logger            zerolog.Logger
	validate          *validator.Validate
	ttl               time.Duration
	policy            UsagePolicy
	strictPersistence bool
	now               func() time.Time
}

// Option configures optional Service behavior
type Option func(*Service)

// WithLogger sets the logger used for non-fatal warnings
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithTTL makes new registrations expire after ttl. Zero means never.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) { s.ttl = ttl }
}

// WithUsagePolicy chooses whether failed relays count as usage
func WithUsagePolicy(p UsagePolicy) Option {
	return func(s *Service) { s.policy = p }
}

// WithStrictPersistence turns store failures into caller-visible errors
func WithStrictPersistence(strict bool) Option {
	return func(s *Service) { s.strictPersistence = strict }
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new webhook service with dependency injection
func NewService(repo Repository, codec Codec, relayer Relayer, opts ...Option) *Service {
	s := &Service{
		Repo:     repo,
		Codec:    codec,
		Relayer:  relayer,
		logger:   zerolog.Nop(),
		validate: validator.New(),
		policy:   CountAttempts,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register protects rawURL and returns the substitute URL built on baseURL
func (s *Service) Register(ctx context.Context, rawURL, baseURL string) (Registration, error) {
	if err := s.validateURL(rawURL); err != nil {
		return Registration{}, err
	}

	id, err := NewID()
	if err != nil {
		return Registration{}, fmt.Errorf("generating id: %w", err)
	}

	token, err := s.Codec.Encrypt(rawURL)
	if err != nil {
		return Registration{}, fmt.Errorf("encrypting destination: %w", err)
	}

	now := s.now().UTC()
	record := Record{
		ID:           id,
		EncryptedURL: token,
		CreatedAt:    now,
		UsageCount:   0,
	}
	if s.ttl > 0 {
		expires := now.Add(s.ttl)
		record.ExpiresAt = &expires
	}

	if err := s.Repo.Store(ctx, record); err != nil {
		if s.strictPersistence {
			return Registration{}, fmt.Errorf("%w: %w", ErrPersistence, err)
		}
		s.logger.Warn().Err(err).Str("webhook_id", id).Msg("registration not persisted")
	}

	return Registration{
		ID:        id,
		PublicURL: strings.TrimRight(baseURL, "/") + PathPrefix + id,
	}, nil
}

/* Forward runs Lookup -> Decrypt -> Relay -> UpdateUsage -> Respond
 * At most one relay attempt is made per call
 */
func (s *Service) Forward(ctx context.Context, id string, in Inbound) (Forwarded, error) {
	record, err := s.lookup(ctx, id)
	if err != nil {
		return Forwarded{}, err
	}

	destination, err := s.Codec.Decrypt(record.EncryptedURL)
	if err != nil {
		return Forwarded{}, fmt.Errorf("%w: %w", ErrDecrypt, err)
	}

	resp, relayErr := s.Relayer.Relay(ctx, destination, in)

	usage := record.UsageCount
	if s.policy.counts(resp, relayErr) {
		usage = s.touch(ctx, record)
	}

	if relayErr != nil {
		s.logger.Warn().Err(relayErr).Str("webhook_id", id).Msg("relay failed")
		return Forwarded{Usage: usage}, fmt.Errorf("%w: %w", ErrUpstream, relayErr)
	}

	return Forwarded{
		OriginalStatus: resp.StatusCode,
		Message:        summarize(resp.Body),
		Usage:          usage,
	}, nil
}

// Inspect returns the record and its decrypted destination
func (s *Service) Inspect(ctx context.Context, id string) (Record, string, error) {
	record, err := s.lookup(ctx, id)
	if err != nil {
		return Record{}, "", err
	}
	destination, err := s.Codec.Decrypt(record.EncryptedURL)
	if err != nil {
		return Record{}, "", fmt.Errorf("%w: %w", ErrDecrypt, err)
	}
	return record, destination, nil
}

// Revoke removes a mapping so its substitute URL stops resolving
func (s *Service) Revoke(ctx context.Context, id string) error {
	if !ValidID(id) {
		return ErrNotFound
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting record: %w", err)
	}
	return nil
}

func (s *Service) lookup(ctx context.Context, id string) (Record, error) {
	if !ValidID(id) {
		return Record{}, ErrNotFound
	}
	record, err := s.Repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("getting record: %w", err)
	}
	if record.Expired(s.now()) {
		return Record{}, ErrNotFound
	}
	return record, nil
}

/* touch persists the usage update. A failure is a warning: the relay already happened.
 * It outlives the inbound request so a disconnected caller still counts.
 */
func (s *Service) touch(ctx context.Context, record Record) int64 {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), touchTimeout)
	defer cancel()

	updated, err := s.Repo.Touch(ctx, record.ID, s.now().UTC())
	if err != nil {
		s.logger.Warn().Err(err).Str("webhook_id", record.ID).Msg("usage not persisted")
		return record.UsageCount + 1
	}
	return updated.UsageCount
}

func (s *Service) validateURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return ErrMissingURL
	}
	if err := s.validate.Var(rawURL, "http_url"); err != nil {
		return ErrInvalidURL
	}
	return nil
}

// NewID draws a fresh unguessable identifier
func NewID() (string, error) {
	b := make([]byte, idBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// ValidID reports whether id has the shape produced by NewID
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

func summarize(body []byte) string {
	if len(body) > maxMessageBytes {
		body = body[:maxMessageBytes]
	}
	msg := strings.ToValidUTF8(string(body), "")
	if msg == "" {
		return defaultMessage
	}
	return msg
}
