package ratelimit

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/nuran-nahadi/CSE-3216-SDP-Project/middleware/ratelimit/domain"
)

const problemContentType = "application/problem+json"

// ProblemDetails é o corpo RFC 9457 da resposta 429.
type ProblemDetails struct {
	Type       string         `json:"type"`
	Title      string         `json:"title"`
	Status     int            `json:"status"`
	Detail     string         `json:"detail"`
	Instance   string         `json:"instance"`
	RetryAfter int            `json:"retry_after"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// WriteError traduz um bloqueio de rate limit em 429 + Retry-After.
// Retorna false (sem escrever nada) para qualquer outro erro.
func WriteError(w http.ResponseWriter, r *http.Request, err error) bool {
	return writeRejection(w, r, err, http.StatusTooManyRequests)
}

// writeRejection é o WriteError com status configurável (Options.RejectStatus).
func writeRejection(w http.ResponseWriter, r *http.Request, err error, status int) bool {
	ex, ok := domain.AsExceeded(err)
	if !ok {
		return false
	}

	// sem recomendação do limiter, a janela inteira é o limite superior
	retry := ex.RetryAfter
	if retry <= 0 {
		retry = ex.Window
	}
	seconds := ceilSeconds(retry)

	w.Header().Set("Retry-After", formatInt(seconds))
	w.Header().Set("Content-Type", problemContentType)
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(ProblemDetails{
		Type:       "about:blank",
		Title:      http.StatusText(status),
		Status:     status,
		Detail:     fmt.Sprintf("Too many requests. Try again in %d seconds.", seconds),
		Instance:   r.URL.Path,
		RetryAfter: seconds,
		Extensions: map[string]any{
			"operation":      ex.Operation,
			"limit":          ex.Limit,
			"window_seconds": ceilSeconds(ex.Window),
		},
	})
	return true
}
