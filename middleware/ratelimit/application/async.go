package application

import (
	"context"

	"github.com/nuran-nahadi/CSE-3216-SDP-Project/middleware/ratelimit/domain"
)

// AsyncHandler inicia uma operação e devolve o future do resultado.
type AsyncHandler[A, R any] func(ctx context.Context, arg A) Future[R]

// Async protege um AsyncHandler.
type Async[A, R any] struct {
	*guard[A]
	fn AsyncHandler[A, R]
}

func NewAsync[A, R any](cfg Config, scope Extractor[A], fn AsyncHandler[A, R]) (*Async[A, R], error) {
	if fn == nil {
		return nil, domain.NewValidationError("handler", "is required")
	}
	g, err := newGuard(cfg, scope, fn)
	if err != nil {
		return nil, err
	}
	a := &Async[A, R]{guard: g, fn: fn}
	if err := register(cfg.Registry, a); err != nil {
		return nil, err
	}
	return a, nil
}

func MustAsync[A, R any](cfg Config, scope Extractor[A], fn AsyncHandler[A, R]) *Async[A, R] {
	a, err := NewAsync(cfg, scope, fn)
	if err != nil {
		panic(err)
	}
	return a
}

// Call decide na hora da chamada. Bloqueado: future pronto com o erro.
func (a *Async[A, R]) Call(ctx context.Context, arg A) Future[R] {
	if err := a.admit(ctx, arg); err != nil {
		var zero R
		return Ready(zero, err)
	}
	return a.fn(ctx, arg)
}
