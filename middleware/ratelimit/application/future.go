package application

import (
	"context"
	"errors"
)

// ErrFutureClosed é retornado quando o canal do future fecha sem resultado.
var ErrFutureClosed = errors.New("future closed without result")

type Result[R any] struct {
	Value R
	Err   error
}

// Future entrega exatamente um Result.
type Future[R any] <-chan Result[R]

// Go roda fn em uma goroutine e devolve o future do resultado.
func Go[R any](ctx context.Context, fn func(ctx context.Context) (R, error)) Future[R] {
	ch := make(chan Result[R], 1)
	go func() {
		v, err := fn(ctx)
		ch <- Result[R]{Value: v, Err: err}
	}()
	return ch
}

// Ready devolve um future já resolvido.
func Ready[R any](v R, err error) Future[R] {
	ch := make(chan Result[R], 1)
	ch <- Result[R]{Value: v, Err: err}
	return ch
}

// Await espera o resultado ou o fim do ctx.
func Await[R any](ctx context.Context, f Future[R]) (R, error) {
	var zero R
	select {
	case res, ok := <-f:
		if !ok {
			return zero, ErrFutureClosed
		}
		return res.Value, res.Err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
