package application

import (
	"context"
	"time"

	"github.com/nuran-nahadi/CSE-3216-SDP-Project/middleware/ratelimit/domain"

	"go.uber.org/zap"
)

// ConcurrencyService concentra a regra de aquisição/liberação de vagas com timeout,
// sem saber nada sobre HTTP.
type ConcurrencyService struct {
	Pool           domain.SlotPool
	AcquireTimeout time.Duration
	Logger         *zap.Logger
}

// Acquire tenta adquirir uma vaga.
// - Se `AcquireTimeout <= 0`, espera indefinidamente (até ctx cancelar).
// - Se `AcquireTimeout > 0`, espera até o timeout.
// Sem vaga retorna domain.ErrSaturated e nenhum release.
func (s ConcurrencyService) Acquire(ctx context.Context) (func(), error) {
	if s.Pool == nil {
		return func() {}, nil
	}

	acqCtx := ctx
	if s.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		acqCtx, cancel = context.WithTimeout(ctx, s.AcquireTimeout)
		defer cancel()
	}

	release, ok := s.Pool.Acquire(acqCtx)
	if !ok {
		if s.Logger != nil {
			s.Logger.Debug("concurrency slot unavailable", zap.Duration("timeout", s.AcquireTimeout))
		}
		return nil, domain.ErrSaturated
	}
	return release, nil
}
