package ratelimit

import (
	"context"
	"net/http"
	"strings"

	"github.com/nuran-nahadi/CSE-3216-SDP-Project/middleware/ratelimit/application"
	"github.com/nuran-nahadi/CSE-3216-SDP-Project/middleware/ratelimit/domain"

	"go.uber.org/zap"
)

type Options struct {
	// Name é o nome da operação (obrigatório), ex.: "auth.login".
	Name string
	Rule domain.Rule

	// Limiter nil usa Shared().
	Limiter  domain.Limiter
	Stats    domain.StatsStore
	Logger   *zap.Logger
	Registry *application.Registry

	KeyFn               KeyFunc
	KeyHeader           string
	TrustXForwardedFor  bool
	RejectStatus        int
	AddRateLimitHeaders bool
}

// httpCall é o argumento do guard: a request inteira vira uma chamada.
type httpCall struct {
	w    http.ResponseWriter
	r    *http.Request
	next http.Handler
	addr string
}

func (c httpCall) ClientAddr() string { return c.addr }

func serveCall(_ context.Context, c httpCall) (struct{}, error) {
	c.next.ServeHTTP(c.w, c.r)
	return struct{}{}, nil
}

// Middleware protege um http.Handler inteiro como uma operação.
// Configuração inválida falha aqui, não na primeira request.
func Middleware(opts Options) (func(next http.Handler) http.Handler, error) {
	if strings.TrimSpace(opts.Name) == "" {
		return nil, domain.NewValidationError("name", "is required")
	}
	if opts.Limiter == nil {
		opts.Limiter = Shared()
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusTooManyRequests
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.KeyHeader, opts.TrustXForwardedFor)
	}

	guard, err := application.NewSync(application.Config{
		Name:     opts.Name,
		Rule:     opts.Rule,
		Limiter:  opts.Limiter,
		Stats:    opts.Stats,
		Logger:   opts.Logger,
		Registry: opts.Registry,
	}, nil, serveCall)
	if err != nil {
		return nil, err
	}

	limit := formatInt(opts.Rule.Limit)
	window := formatSeconds(opts.Rule.Window)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if opts.AddRateLimitHeaders {
				w.Header().Set("X-RateLimit-Limit", limit)
				w.Header().Set("X-RateLimit-Window", window)
			}

			_, err := guard.Call(r.Context(), httpCall{w: w, r: r, next: next, addr: opts.KeyFn(r)})
			if err == nil || writeRejection(w, r, err, opts.RejectStatus) {
				return
			}
			// só sobra ctx cancelado: o cliente já foi embora
		})
	}, nil
}
