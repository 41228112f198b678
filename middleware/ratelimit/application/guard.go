package application

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"time"

	"github.com/nuran-nahadi/CSE-3216-SDP-Project/middleware/ratelimit/domain"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Config é a configuração de uma operação protegida.
type Config struct {
	// Name identifica a operação na chave do bucket.
	// Vazio: derivado do símbolo do handler (OperationName).
	Name     string
	Rule     domain.Rule
	Limiter  domain.Limiter
	Stats    domain.StatsStore
	Logger   *zap.Logger
	Registry *Registry
}

// Operation é a capacidade comum de Sync e Async.
type Operation interface {
	Name() string
	Rule() domain.Rule
}

type guard[A any] struct {
	name  string
	rule  domain.Rule
	scope Extractor[A]
	svc   Service
	log   *zap.Logger

	// no máximo uma linha de bloqueio por segundo por operação
	denials rate.Sometimes
}

func newGuard[A any](cfg Config, scope Extractor[A], fn any) (*guard[A], error) {
	if err := cfg.Rule.Validate(); err != nil {
		return nil, err
	}
	if cfg.Limiter == nil {
		return nil, domain.NewValidationError("limiter", "is required")
	}

	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = OperationName(fn)
	}
	if name == "" {
		return nil, domain.NewValidationError("name", "cannot be derived from handler")
	}
	// instâncias de uma função genérica têm o mesmo símbolo
	if strings.Contains(name, "[...]") {
		return nil, domain.NewValidationError("name", fmt.Sprintf("generic handler %q needs an explicit name", name))
	}

	if scope == nil {
		scope = defaultExtractor[A](cfg.Rule.Identifier)
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &guard[A]{
		name:    name,
		rule:    cfg.Rule,
		scope:   scope,
		svc:     Service{Limiter: cfg.Limiter, Stats: cfg.Stats, Logger: log},
		log:     log,
		denials: rate.Sometimes{Interval: time.Second},
	}, nil
}

func (g *guard[A]) Name() string      { return g.name }
func (g *guard[A]) Rule() domain.Rule { return g.rule }

// admit decide a chamada. A trava do limiter só é mantida dentro de Decide.
func (g *guard[A]) admit(ctx context.Context, arg A) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	scope := resolveScope(ctx, g.rule.Identifier, g.scope, arg)
	dec := g.svc.Decide(ctx, g.name, g.rule, scope)
	if dec.Allowed {
		return nil
	}

	g.denials.Do(func() {
		g.log.Warn("rate limit exceeded",
			zap.String("operation", g.name),
			zap.String("key", string(domain.BucketKey(g.name, scope))),
			zap.Int("limit", g.rule.Limit),
			zap.Duration("window", g.rule.Window),
			zap.Duration("retry_after", dec.RetryAfter),
		)
	})

	return &domain.ExceededError{
		Operation:  g.name,
		Limit:      g.rule.Limit,
		Window:     g.rule.Window,
		RetryAfter: dec.RetryAfter,
	}
}

func register(reg *Registry, op Operation) error {
	if reg == nil {
		return nil
	}
	return reg.Register(op)
}

// OperationName deriva um nome estável a partir do símbolo completo da função
// (caminho do pacote incluso), ex.: "example.com/tracker/expenses.(*api).create".
func OperationName(fn any) string {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return ""
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return ""
	}
	return strings.TrimSuffix(f.Name(), "-fm")
}
