package chi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog"
	"github.com/marcelsud/webhook-shield/webhook"
)

/* HTTP layer DTOs
 * Field names are the public JSON contract, separate from domain types
 */

type protectRequest struct {
	WebhookURL string `json:"webhookUrl"`
}

type protectResponse struct {
	Success      bool   `json:"success"`
	ProtectedURL string `json:"protectedUrl"`
	WebhookID    string `json:"webhookId"`
}

type forwardResponse struct {
	Success        bool   `json:"success"`
	OriginalStatus int    `json:"originalStatus"`
	Message        string `json:"message"`
	Usage          int64  `json:"usage"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// protect handles POST /protect
func protect(webhookService webhook.UseCase, opts Options) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodOptions:
			preflight(w)
			return
		case http.MethodPost:
		default:
			writeError(w, http.StatusMethodNotAllowed, errorResponse{Error: "Method not allowed"})
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			readFailed(w, err)
			return
		}

		var req protectRequest
		if len(body) > 0 {
			if err := json.Unmarshal(body, &req); err != nil {
				writeError(w, http.StatusBadRequest, errorResponse{Error: "Invalid JSON body"})
				return
			}
		}

		reg, err := webhookService.Register(r.Context(), req.WebhookURL, baseURL(r, opts.BaseURL))
		switch {
		case err == nil:
		case errors.Is(err, webhook.ErrMissingURL):
			writeError(w, http.StatusBadRequest, errorResponse{Error: "Webhook URL is required"})
			return
		case errors.Is(err, webhook.ErrInvalidURL):
			writeError(w, http.StatusBadRequest, errorResponse{Error: "Invalid URL format"})
			return
		default:
			oplog := httplog.LogEntry(r.Context())
			oplog.Error().Err(err).Msg("protecting webhook")
			writeError(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
			return
		}

		opts.Metrics.RecordRegistration(r.Context())
		writeJSON(w, http.StatusOK, protectResponse{
			Success:      true,
			ProtectedURL: reg.PublicURL,
			WebhookID:    reg.ID,
		})
	})
}

// forward handles POST /webhook/{id}
func forward(webhookService webhook.UseCase, opts Options) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodOptions:
			preflight(w)
			return
		case http.MethodPost:
		default:
			writeError(w, http.StatusMethodNotAllowed, errorResponse{
				Error:   "Method not allowed",
				Message: "This webhook only accepts POST requests",
			})
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			readFailed(w, err)
			return
		}

		id := chi.URLParam(r, "id")
		res, err := webhookService.Forward(r.Context(), id, webhook.Inbound{
			Body:   body,
			Header: r.Header,
		})
		opts.Metrics.RecordForward(r.Context(), webhook.OutcomeOf(err).String())

		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, forwardResponse{
				Success:        true,
				OriginalStatus: res.OriginalStatus,
				Message:        res.Message,
				Usage:          res.Usage,
			})
		case errors.Is(err, webhook.ErrNotFound):
			writeError(w, http.StatusNotFound, errorResponse{
				Error:   "Webhook not found",
				Message: "This webhook may have expired or been reset",
			})
		case errors.Is(err, webhook.ErrUpstream):
			writeError(w, http.StatusInternalServerError, errorResponse{
				Error:   "Failed to forward webhook",
				Message: webhook.ErrUpstream.Error(),
			})
		case errors.Is(err, webhook.ErrDecrypt):
			oplog := httplog.LogEntry(r.Context())
			oplog.Error().Err(err).Str("webhook_id", id).Msg("decrypting destination")
			writeError(w, http.StatusInternalServerError, errorResponse{
				Error:   "Failed to forward webhook",
				Message: "stored destination could not be read",
			})
		default:
			oplog := httplog.LogEntry(r.Context())
			oplog.Error().Err(err).Str("webhook_id", id).Msg("forwarding webhook")
			writeError(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
		}
	})
}

// baseURL prefers the configured public URL, then the request's own scheme and host
func baseURL(r *http.Request, configured string) string {
	if configured != "" {
		return strings.TrimRight(configured, "/")
	}
	scheme := "https"
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
	}
	return scheme + "://" + r.Host
}
