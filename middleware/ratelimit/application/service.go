package application

import (
	"context"
	"time"

	"github.com/nuran-nahadi/CSE-3216-SDP-Project/middleware/ratelimit/domain"

	"go.uber.org/zap"
)

// Service concentra a regra de aplicação do rate limit.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
type Service struct {
	Limiter domain.Limiter
	Stats   domain.StatsStore
	Logger  *zap.Logger

	// now é usado só para carimbar o StatsEvent.
	now func() time.Time
}

// Decide monta a chave "{operation}:{scope}" e consulta o limiter.
//
// Sem Limiter tudo é permitido. Falha ao gravar estatística é só logada.
func (s Service) Decide(ctx context.Context, operation string, rule domain.Rule, scope string) domain.Decision {
	if s.Limiter == nil {
		return domain.Decision{Allowed: true}
	}

	key := domain.BucketKey(operation, scope)
	dec := domain.Decision{Allowed: s.Limiter.IsAllowed(key, rule.Limit, rule.Window)}
	if !dec.Allowed {
		if ra, ok := s.Limiter.(domain.RetryAdvisor); ok {
			dec.RetryAfter = ra.RetryAfter(key, rule.Window)
		}
	}

	s.record(ctx, domain.StatsEvent{
		Key:       key,
		Operation: operation,
		Strategy:  rule.Identifier,
		Allowed:   dec.Allowed,
	})
	return dec
}

func (s Service) record(ctx context.Context, ev domain.StatsEvent) {
	if s.Stats == nil {
		return
	}
	if s.now != nil {
		ev.At = s.now()
	} else {
		ev.At = time.Now()
	}
	if err := s.Stats.Record(ctx, ev); err != nil {
		s.logger().Warn("failed to record rate limit stats",
			zap.String("operation", ev.Operation),
			zap.Error(err),
		)
	}
}

func (s Service) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
