package ratelimit

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nuran-nahadi/CSE-3216-SDP-Project/middleware/ratelimit/application"
	"github.com/nuran-nahadi/CSE-3216-SDP-Project/middleware/ratelimit/domain"
	"github.com/nuran-nahadi/CSE-3216-SDP-Project/middleware/ratelimit/infra"
)

func loginRule(limit int) domain.Rule {
	return domain.Rule{Limit: limit, Window: time.Minute, Identifier: domain.StrategyNetworkAddress}
}

func mustMiddleware(t *testing.T, opts Options) func(http.Handler) http.Handler {
	t.Helper()
	mw, err := Middleware(opts)
	if err != nil {
		t.Fatalf("unexpected middleware error: %v", err)
	}
	return mw
}

func serve(h http.Handler, remote string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, "http://example/auth/login", nil)
	r.RemoteAddr = remote
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestMiddleware_AllowsThenRejectsSameKey(t *testing.T) {
	calls := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	})

	h := mustMiddleware(t, Options{
		Name:                "auth.login",
		Rule:                loginRule(1),
		Limiter:             infra.NewSlidingWindow(),
		AddRateLimitHeaders: true,
	})(next)

	// 1) primeira passa
	w1 := serve(h, "10.0.0.1:1234")
	if w1.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w1.Code)
	}
	if got := w1.Header().Get("X-RateLimit-Limit"); got != "1" {
		t.Fatalf("expected X-RateLimit-Limit=1, got %q", got)
	}
	if got := w1.Header().Get("X-RateLimit-Window"); got != "60" {
		t.Fatalf("expected X-RateLimit-Window=60, got %q", got)
	}

	// 2) segunda do mesmo endereço bloqueia
	w2 := serve(h, "10.0.0.1:1234")
	if w2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w2.Code)
	}
	if got := w2.Header().Get("Retry-After"); got == "" {
		t.Fatalf("expected Retry-After header to be set")
	}

	// 3) outro endereço tem bucket próprio
	if w3 := serve(h, "10.0.0.2:1234"); w3.Code != http.StatusOK {
		t.Fatalf("expected 200 for another address, got %d", w3.Code)
	}

	if calls != 2 {
		t.Fatalf("expected next handler to be called twice, got %d", calls)
	}
}

func TestMiddleware_KeyByHeader(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	h := mustMiddleware(t, Options{
		Name:      "auth.login",
		Rule:      loginRule(1),
		Limiter:   infra.NewSlidingWindow(),
		KeyHeader: "X-Api-Key",
	})(next)

	// duas chaves diferentes => ambos devem passar (cada chave tem seu próprio bucket)
	for _, key := range []string{"k1", "k2"} {
		r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
		r.Header.Set("X-Api-Key", key)
		r.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200 for key %s, got %d", key, w.Code)
		}
	}
}

func TestMiddleware_RetryAfterRoundsUp(t *testing.T) {
	now := time.Date(2025, 10, 12, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	h := mustMiddleware(t, Options{
		Name:    "auth.login",
		Rule:    domain.Rule{Limit: 1, Window: 10 * time.Second, Identifier: domain.StrategyGlobal},
		Limiter: infra.NewSlidingWindow(infra.WithClock(clock)),
	})(next)

	if w1 := serve(h, "10.0.0.1:1234"); w1.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w1.Code)
	}

	now = now.Add(7500 * time.Millisecond)
	w2 := serve(h, "10.0.0.1:1234")
	if w2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w2.Code)
	}
	if got := strings.TrimSpace(w2.Header().Get("Retry-After")); got != "3" {
		// 2.5s restantes => 3
		t.Fatalf("expected Retry-After=3, got %q", got)
	}

	var body ProblemDetails
	if err := json.NewDecoder(w2.Body).Decode(&body); err != nil {
		t.Fatalf("decode problem body: %v", err)
	}
	if body.Status != http.StatusTooManyRequests || body.RetryAfter != 3 || body.Instance != "/auth/login" {
		t.Fatalf("unexpected problem body %+v", body)
	}
	if body.Extensions["operation"] != "auth.login" {
		t.Fatalf("expected operation extension, got %v", body.Extensions["operation"])
	}
	if ct := w2.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("unexpected content type %q", ct)
	}
}

func TestMiddleware_UserStrategyReadsContext(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := mustMiddleware(t, Options{
		Name:    "expenses.list",
		Rule:    domain.Rule{Limit: 1, Window: time.Minute, Identifier: domain.StrategyUser},
		Limiter: infra.NewSlidingWindow(),
	})(next)

	call := func(user string) int {
		r := httptest.NewRequest(http.MethodGet, "http://example/expenses", nil)
		r = r.WithContext(application.WithUserID(r.Context(), user))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w.Code
	}

	if got := call("alice"); got != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", got)
	}
	if got := call("bob"); got != http.StatusNoContent {
		t.Fatalf("expected 204 for a different user, got %d", got)
	}
	if got := call("alice"); got != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", got)
	}
}

func TestMiddleware_RejectsInvalidConfig(t *testing.T) {
	if _, err := Middleware(Options{Rule: loginRule(1)}); err == nil {
		t.Fatalf("expected error for missing name")
	}
	if _, err := Middleware(Options{Name: "auth.login", Rule: loginRule(0)}); err == nil {
		t.Fatalf("expected error for zero limit")
	}

	reg := application.NewRegistry()
	if _, err := Middleware(Options{Name: "auth.login", Rule: loginRule(1), Registry: reg}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := Middleware(Options{Name: "auth.login", Rule: loginRule(1), Registry: reg}); err == nil {
		t.Fatalf("expected duplicate name error")
	}
}

func TestMiddleware_DefaultsToSharedLimiter(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := mustMiddleware(t, Options{
		Name: "middleware-test.shared",
		Rule: domain.Rule{Limit: 1, Window: time.Minute, Identifier: domain.StrategyGlobal},
	})(next)

	serve(h, "10.0.0.1:1")
	if Shared().Len() == 0 {
		t.Fatalf("expected the shared limiter to hold the bucket")
	}
	if Shared() != Shared() {
		t.Fatalf("expected a single shared limiter")
	}
}

func TestWriteError_IgnoresOtherErrors(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	if WriteError(w, r, io.EOF) {
		t.Fatalf("expected false for non rate limit error")
	}
	if w.Code != http.StatusOK || w.Body.Len() != 0 {
		t.Fatalf("expected nothing written, got %d %q", w.Code, w.Body.String())
	}
}

func TestWriteError_UsesWindowWithoutAdvice(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "http://example/tasks", nil)
	err := &domain.ExceededError{Operation: "tasks.create", Limit: 5, Window: 30 * time.Second}

	if !WriteError(w, r, err) {
		t.Fatalf("expected rate limit error to be written")
	}
	if got := w.Header().Get("Retry-After"); got != "30" {
		t.Fatalf("expected Retry-After=30, got %q", got)
	}
}

func TestMiddleware_CustomRejectStatus(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := mustMiddleware(t, Options{
		Name:         "auth.login",
		Rule:         loginRule(1),
		Limiter:      infra.NewSlidingWindow(),
		RejectStatus: http.StatusServiceUnavailable,
	})(next)

	serve(h, "10.0.0.1:1234")
	w := serve(h, "10.0.0.1:1234")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got == "" {
		t.Fatalf("expected Retry-After header to be set")
	}

	var body ProblemDetails
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode problem body: %v", err)
	}
	if body.Status != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503 in body, got %d", body.Status)
	}
}
