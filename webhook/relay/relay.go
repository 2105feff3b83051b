package relay

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/marcelsud/webhook-shield/webhook"
	"github.com/marcelsud/webhook-shield/webhook/payload"
	"github.com/marcelsud/webhook-shield/webhook/signature"
)

const (
	// DefaultTimeout bounds a single relay attempt
	DefaultTimeout = 10 * time.Second

	maxResponseBody = 1024 // the caller only ever sees the first 1 KiB
)

// headers never copied from the inbound request
var dropped = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Proxy-Connection",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
	"Host",
	"Content-Length",
	"Accept-Encoding",
}

var _ webhook.Relayer = (*HTTPRelayer)(nil)

// HTTPRelayer sends one POST per forward to the real destination
type HTTPRelayer struct {
	client *http.Client
	signer *signature.Signer
}

// Option configures an HTTPRelayer
type Option func(*HTTPRelayer)

// WithSigner signs every relayed call with Standard Webhooks headers
func WithSigner(s *signature.Signer) Option {
	return func(r *HTTPRelayer) { r.signer = s }
}

// WithClient replaces the HTTP client, mostly for tests
func WithClient(c *http.Client) Option {
	return func(r *HTTPRelayer) { r.client = c }
}

// New creates a relayer whose calls give up after timeout
func New(timeout time.Duration, opts ...Option) *HTTPRelayer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	r := &HTTPRelayer{
		client: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Relay posts the normalized inbound body to destination.
// Any HTTP answer, including 4xx and 5xx, is returned as a Response.
func (r *HTTPRelayer) Relay(ctx context.Context, destination string, in webhook.Inbound) (webhook.Response, error) {
	body := payload.Normalize(in.Body)

	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, destination, reader)
	if err != nil {
		return webhook.Response{}, fmt.Errorf("creating request: %w", err)
	}

	req.Header = CopyHeaders(in.Header)
	req.Header.Set("Content-Type", "application/json")

	if r.signer != nil {
		if err := r.signer.Apply(req.Header, body); err != nil {
			return webhook.Response{}, err
		}
	}

	resp, err := r.client.Do(req) //nolint:gosec // destination is the registered URL
	if err != nil {
		return webhook.Response{}, fmt.Errorf("posting to destination: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return webhook.Response{}, fmt.Errorf("reading response: %w", err)
	}

	return webhook.Response{
		StatusCode: resp.StatusCode,
		Body:       respBody,
	}, nil
}

// CopyHeaders clones h without hop-by-hop and transport-owned headers
func CopyHeaders(h http.Header) http.Header {
	out := h.Clone()
	if out == nil {
		return http.Header{}
	}
	for _, name := range dropped {
		out.Del(name)
	}
	return out
}
