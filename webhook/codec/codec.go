package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the required length of the process-wide secret
const KeySize = 32

const (
	separator   = ":"
	keyAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

var (
	// ErrInvalidKey is returned when the secret is absent or not KeySize bytes
	ErrInvalidKey = errors.New("encryption key must be exactly 32 bytes")

	// ErrMalformedToken is returned when a token is not nonce:ciphertext hex
	ErrMalformedToken = errors.New("malformed token")

	// ErrAuthentication is returned when the tag does not verify
	ErrAuthentication = errors.New("token failed authentication")
)

/* Algorithm selects the AEAD construction
 * Both take a 32 byte key and authenticate the ciphertext
 */
type Algorithm int

const (
	AESGCM Algorithm = iota + 1
	XChaCha20Poly1305
)

// String returns the string representation of the algorithm
func (a Algorithm) String() string {
	switch a {
	case AESGCM:
		return "aes-gcm"
	case XChaCha20Poly1305:
		return "xchacha20-poly1305"
	default:
		return "unknown"
	}
}

// NewAlgorithm creates an Algorithm from a string
func NewAlgorithm(s string) Algorithm {
	switch s {
	case "xchacha20-poly1305":
		return XChaCha20Poly1305
	case "aes-gcm", "":
		return AESGCM
	default:
		return 0
	}
}

// Validate checks if the algorithm is valid
func (a Algorithm) Validate() error {
	if a != AESGCM && a != XChaCha20Poly1305 {
		return fmt.Errorf("invalid cipher: %d", a)
	}
	return nil
}

// Codec encrypts destination URLs into self-describing tokens
type Codec struct {
	aead cipher.AEAD
}

// New builds a Codec. It fails fast on a bad key so callers can abort at startup.
func New(key []byte, alg Algorithm) (*Codec, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	if err := alg.Validate(); err != nil {
		return nil, err
	}

	var (
		aead cipher.AEAD
		err  error
	)
	switch alg {
	case XChaCha20Poly1305:
		aead, err = chacha20poly1305.NewX(key)
	default:
		var block cipher.Block
		block, err = aes.NewCipher(key)
		if err == nil {
			aead, err = cipher.NewGCM(block)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("creating %s cipher: %w", alg, err)
	}

	return &Codec{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random nonce
func (c *Codec) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}
	sealed := c.aead.Seal(nil, nonce, []byte(plaintext), nil)
	return hex.EncodeToString(nonce) + separator + hex.EncodeToString(sealed), nil
}

// Decrypt opens a token produced by Encrypt, failing closed on any tampering
func (c *Codec) Decrypt(token string) (string, error) {
	nonceHex, sealedHex, ok := strings.Cut(token, separator)
	if !ok {
		return "", ErrMalformedToken
	}
	nonce, err := hex.DecodeString(nonceHex)
	if err != nil || len(nonce) != c.aead.NonceSize() {
		return "", ErrMalformedToken
	}
	sealed, err := hex.DecodeString(sealedHex)
	if err != nil || len(sealed) < c.aead.Overhead() {
		return "", ErrMalformedToken
	}
	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrAuthentication
	}
	return string(plaintext), nil
}

// GenerateKey returns a random KeySize character key suitable for ENCRYPTION_KEY
func GenerateKey() (string, error) {
	// bytes at or above limit are rejected so every character is equally likely
	limit := 256 - 256%len(keyAlphabet)
	key := make([]byte, 0, KeySize)
	buf := make([]byte, KeySize)
	for len(key) < KeySize {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("generating random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit || len(key) == KeySize {
				continue
			}
			key = append(key, keyAlphabet[int(b)%len(keyAlphabet)])
		}
	}
	return string(key), nil
}
