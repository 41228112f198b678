package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nuran-nahadi/CSE-3216-SDP-Project/middleware/ratelimit"
)

type routerOptions struct {
	keyFn       ratelimit.KeyFunc
	concurrency ratelimit.ConcurrencyOptions
	addHeaders  bool
	deps        guardDeps
}

func newRouter(a *api, opts routerOptions) (http.Handler, error) {
	login, err := ratelimit.Middleware(ratelimit.Options{
		Name:                "auth.login",
		Rule:                opts.deps.rules.Rule("auth.login"),
		Limiter:             opts.deps.limiter,
		Stats:               opts.deps.stats,
		Logger:              opts.deps.log,
		Registry:            opts.deps.registry,
		KeyFn:               opts.keyFn,
		AddRateLimitHeaders: opts.addHeaders,
	})
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(ratelimit.ConcurrencyMiddleware(opts.concurrency))
	r.Use(ratelimit.ClientAddr(opts.keyFn))
	r.Use(a.tokens.Authenticate)

	r.With(login).Post("/auth/login", a.handleLogin)
	r.Get("/system/status", a.handleSystemStatus)

	r.Group(func(r chi.Router) {
		r.Use(requireUser)

		r.Post("/expenses", a.handleCreateExpense)
		r.Get("/expenses", a.handleListExpenses)
		r.Post("/tasks", a.handleCreateTask)
		r.Post("/journal", a.handleCreateJournal)
		r.Post("/journal/export", a.handleExportJournal)
	})

	return r, nil
}
