package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrRateLimitExceeded é o sentinela de todo bloqueio por rate limit.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrSaturated indica que não houve vaga de concorrência dentro do prazo.
	ErrSaturated = errors.New("no concurrency slot available")
)

// ExceededError carrega a operação e a regra que bloquearam a chamada,
// para que a borda (HTTP, etc.) monte uma resposta útil.
type ExceededError struct {
	Operation  string
	Limit      int
	Window     time.Duration
	RetryAfter time.Duration
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s: %d calls per %s", e.Operation, e.Limit, e.Window)
}

func (e *ExceededError) Unwrap() error { return ErrRateLimitExceeded }

// IsExceeded reporta se err (ou algo que ele embrulha) é um bloqueio por rate limit.
func IsExceeded(err error) bool {
	return errors.Is(err, ErrRateLimitExceeded)
}

// AsExceeded extrai o ExceededError da cadeia de err.
func AsExceeded(err error) (*ExceededError, bool) {
	var e *ExceededError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// ValidationError é erro de configuração, detectado no registro da operação.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
