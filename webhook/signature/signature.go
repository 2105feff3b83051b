package signature

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

/*
Standard Webhooks signing for relayed calls

A relayed call carries three headers:
- webhook-id: msg_<uuid>
- webhook-timestamp: unix seconds
- webhook-signature: space separated list of v1,<base64 hmac>

The signed content is {id}.{timestamp}.{body}.
*/

const (
	SecretPrefix = "whsec_"
	Version      = "v1"

	MinSecretBytes = 24
	MaxSecretBytes = 64

	HeaderID        = "webhook-id"
	HeaderTimestamp = "webhook-timestamp"
	HeaderSignature = "webhook-signature"

	// DefaultTolerance bounds how far a timestamp may drift from the verifier clock
	DefaultTolerance = 5 * time.Minute
)

var (
	ErrMissingHeaders = errors.New("missing signature headers")
	ErrStale          = errors.New("timestamp outside tolerance")
	ErrNoMatch        = errors.New("no matching signature")
)

// Secret is a symmetric signing key
type Secret struct {
	raw []byte
}

// GenerateSecret draws a random secret of size bytes
func GenerateSecret(size int) (Secret, error) {
	if size < MinSecretBytes || size > MaxSecretBytes {
		return Secret{}, fmt.Errorf("secret size must be between %d and %d bytes", MinSecretBytes, MaxSecretBytes)
	}
	raw := make([]byte, size)
	if _, err := rand.Read(raw); err != nil {
		return Secret{}, fmt.Errorf("reading random bytes: %w", err)
	}
	return Secret{raw: raw}, nil
}

// ParseSecret decodes a whsec_ prefixed secret
func ParseSecret(encoded string) (Secret, error) {
	b64, ok := strings.CutPrefix(encoded, SecretPrefix)
	if !ok {
		return Secret{}, fmt.Errorf("secret must start with %s prefix", SecretPrefix)
	}
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return Secret{}, fmt.Errorf("decoding base64 secret: %w", err)
	}
	if len(raw) < MinSecretBytes || len(raw) > MaxSecretBytes {
		return Secret{}, fmt.Errorf("secret size must be between %d and %d bytes", MinSecretBytes, MaxSecretBytes)
	}
	return Secret{raw: raw}, nil
}

func (s Secret) String() string {
	return SecretPrefix + base64.StdEncoding.EncodeToString(s.raw)
}

// Sign returns the v1,<base64> signature of a message
func Sign(secret Secret, msgID string, ts time.Time, body []byte) (string, error) {
	if strings.Contains(msgID, ".") {
		return "", fmt.Errorf("message id must not contain '.'")
	}
	return Version + "," + base64.StdEncoding.EncodeToString(mac(secret, msgID, ts, body)), nil
}

func mac(secret Secret, msgID string, ts time.Time, body []byte) []byte {
	h := hmac.New(sha256.New, secret.raw)
	h.Write([]byte(msgID))
	h.Write([]byte("."))
	h.Write([]byte(strconv.FormatInt(ts.Unix(), 10)))
	h.Write([]byte("."))
	h.Write(body)
	return h.Sum(nil)
}

// Signer stamps outgoing requests
type Signer struct {
	secret Secret
	now    func() time.Time
}

func NewSigner(secret Secret) *Signer {
	return &Signer{secret: secret, now: time.Now}
}

// Apply sets the three signature headers for body on h
func (s *Signer) Apply(h http.Header, body []byte) error {
	msgID := "msg_" + uuid.NewString()
	ts := s.now()
	sig, err := Sign(s.secret, msgID, ts, body)
	if err != nil {
		return fmt.Errorf("signing relayed body: %w", err)
	}
	h.Set(HeaderID, msgID)
	h.Set(HeaderTimestamp, strconv.FormatInt(ts.Unix(), 10))
	h.Set(HeaderSignature, sig)
	return nil
}

// Verify checks the signature headers of a received call against body.
// Any one matching v1 signature in the header list is accepted.
func Verify(secret Secret, h http.Header, body []byte, now time.Time, tolerance time.Duration) error {
	msgID := h.Get(HeaderID)
	rawTS := h.Get(HeaderTimestamp)
	sigs := h.Get(HeaderSignature)
	if msgID == "" || rawTS == "" || sigs == "" {
		return ErrMissingHeaders
	}

	unix, err := strconv.ParseInt(rawTS, 10, 64)
	if err != nil {
		return fmt.Errorf("parsing timestamp: %w", err)
	}
	ts := time.Unix(unix, 0)
	if now.Sub(ts) > tolerance || ts.Sub(now) > tolerance {
		return ErrStale
	}

	expected := mac(secret, msgID, ts, body)
	for _, candidate := range strings.Fields(sigs) {
		version, encoded, ok := strings.Cut(candidate, ",")
		if !ok || version != Version {
			continue
		}
		got, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			continue
		}
		if hmac.Equal(got, expected) {
			return nil
		}
	}
	return ErrNoMatch
}
