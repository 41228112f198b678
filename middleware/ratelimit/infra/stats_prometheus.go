package infra

import (
	"context"
	"errors"

	"github.com/nuran-nahadi/CSE-3216-SDP-Project/middleware/ratelimit/domain"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusStats expõe as decisões como contador.
//
// Rótulos: operation, strategy, outcome ("allowed"|"denied"). A chave do bucket
// fica de fora de propósito (cardinalidade).
type PrometheusStats struct {
	decisions *prometheus.CounterVec
}

// NewPrometheusStats registra o contador em reg. Se já houver um contador
// igual registrado, reaproveita o existente.
func NewPrometheusStats(reg prometheus.Registerer) (*PrometheusStats, error) {
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tracker_ratelimit_decisions_total",
		Help: "Rate limit admission decisions by operation and outcome",
	}, []string{"operation", "strategy", "outcome"})

	if err := reg.Register(decisions); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, err
		}
		existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, err
		}
		decisions = existing
	}

	return &PrometheusStats{decisions: decisions}, nil
}

func (p *PrometheusStats) Record(_ context.Context, ev domain.StatsEvent) error {
	outcome := "denied"
	if ev.Allowed {
		outcome = "allowed"
	}
	p.decisions.WithLabelValues(ev.Operation, string(ev.Strategy), outcome).Inc()
	return nil
}

// MultiStats repassa o evento para vários stores e junta os erros.
type MultiStats []domain.StatsStore

func (m MultiStats) Record(ctx context.Context, ev domain.StatsEvent) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Record(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	_ domain.StatsStore = (*PrometheusStats)(nil)
	_ domain.StatsStore = (*MemoryStatsStore)(nil)
	_ domain.StatsStore = (*RedisStatsStore)(nil)
	_ domain.StatsStore = MultiStats(nil)
)
