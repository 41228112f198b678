package application

import (
	"context"

	"github.com/nuran-nahadi/CSE-3216-SDP-Project/middleware/ratelimit/domain"
)

// Handler é uma operação bloqueante.
type Handler[A, R any] func(ctx context.Context, arg A) (R, error)

// Sync protege um Handler bloqueante.
type Sync[A, R any] struct {
	*guard[A]
	fn Handler[A, R]
}

// NewSync valida a configuração e registra a operação.
// scope nil usa o extrator padrão da estratégia.
func NewSync[A, R any](cfg Config, scope Extractor[A], fn Handler[A, R]) (*Sync[A, R], error) {
	if fn == nil {
		return nil, domain.NewValidationError("handler", "is required")
	}
	g, err := newGuard(cfg, scope, fn)
	if err != nil {
		return nil, err
	}
	s := &Sync[A, R]{guard: g, fn: fn}
	if err := register(cfg.Registry, s); err != nil {
		return nil, err
	}
	return s, nil
}

func MustSync[A, R any](cfg Config, scope Extractor[A], fn Handler[A, R]) *Sync[A, R] {
	s, err := NewSync(cfg, scope, fn)
	if err != nil {
		panic(err)
	}
	return s
}

// Call tem o mesmo contrato do handler. Bloqueado: *domain.ExceededError e o
// handler não é chamado.
func (s *Sync[A, R]) Call(ctx context.Context, arg A) (R, error) {
	if err := s.admit(ctx, arg); err != nil {
		var zero R
		return zero, err
	}
	return s.fn(ctx, arg)
}
