package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nuran-nahadi/CSE-3216-SDP-Project/middleware/ratelimit"
	"github.com/nuran-nahadi/CSE-3216-SDP-Project/middleware/ratelimit/application"
	"github.com/nuran-nahadi/CSE-3216-SDP-Project/middleware/ratelimit/domain"

	"go.uber.org/zap"
)

var errInvalidInput = errors.New("invalid input")

func invalid(msg string) error { return fmt.Errorf("%w: %s", errInvalidInput, msg) }

// Argumentos dos casos de uso. owner vem do contexto autenticado e é o que
// o extrator padrão da estratégia "user" usa via UserID().

type expenseInput struct {
	owner    string
	Amount   float64 `json:"amount"`
	Category string  `json:"category"`
	Note     string  `json:"note"`
}

func (in expenseInput) UserID() string { return in.owner }

type expenseQuery struct {
	owner    string
	category string
}

func (q expenseQuery) UserID() string { return q.owner }

type taskInput struct {
	owner string
	Title string     `json:"title"`
	Due   *time.Time `json:"due"`
}

func (in taskInput) UserID() string { return in.owner }

type journalInput struct {
	owner string
	Body  string `json:"body"`
	Mood  string `json:"mood"`
}

func (in journalInput) UserID() string { return in.owner }

type exportRequest struct {
	owner string
}

func (r exportRequest) UserID() string { return r.owner }

type journalExport struct {
	Entries     int       `json:"entries"`
	GeneratedAt time.Time `json:"generated_at"`
	Document    string    `json:"document"`
}

type statusReport struct {
	Status     string   `json:"status"`
	Uptime     string   `json:"uptime"`
	Operations []string `json:"operations"`
}

type api struct {
	store    *memStore
	tokens   *tokens
	registry *application.Registry
	log      *zap.Logger
	started  time.Time

	createExpense *application.Sync[expenseInput, expense]
	listExpenses  *application.Sync[expenseQuery, []expense]
	createTask    *application.Sync[taskInput, task]
	createJournal *application.Sync[journalInput, journalEntry]
	exportJournal *application.Async[exportRequest, journalExport]
	systemStatus  *application.Sync[struct{}, statusReport]
}

type guardDeps struct {
	rules    ratelimit.Rules
	limiter  domain.Limiter
	stats    domain.StatsStore
	registry *application.Registry
	log      *zap.Logger
}

func (d guardDeps) config(name string) application.Config {
	return application.Config{
		Name:     name,
		Rule:     d.rules.Rule(name),
		Limiter:  d.limiter,
		Stats:    d.stats,
		Logger:   d.log,
		Registry: d.registry,
	}
}

func newAPI(store *memStore, tok *tokens, deps guardDeps) (*api, error) {
	a := &api{
		store:    store,
		tokens:   tok,
		registry: deps.registry,
		log:      deps.log,
		started:  time.Now(),
	}

	var err error
	if a.createExpense, err = application.NewSync(deps.config("expenses.create"), nil, a.doCreateExpense); err != nil {
		return nil, fmt.Errorf("guard expenses.create: %w", err)
	}
	if a.listExpenses, err = application.NewSync(deps.config("expenses.list"), nil, a.doListExpenses); err != nil {
		return nil, fmt.Errorf("guard expenses.list: %w", err)
	}
	if a.createTask, err = application.NewSync(deps.config("tasks.create"), nil, a.doCreateTask); err != nil {
		return nil, fmt.Errorf("guard tasks.create: %w", err)
	}
	if a.createJournal, err = application.NewSync(deps.config("journal.create"), nil, a.doCreateJournal); err != nil {
		return nil, fmt.Errorf("guard journal.create: %w", err)
	}
	if a.exportJournal, err = application.NewAsync(deps.config("journal.export"), nil, a.doExportJournal); err != nil {
		return nil, fmt.Errorf("guard journal.export: %w", err)
	}
	if a.systemStatus, err = application.NewSync(deps.config("system.status"), nil, a.doSystemStatus); err != nil {
		return nil, fmt.Errorf("guard system.status: %w", err)
	}
	return a, nil
}

// --- casos de uso (sem HTTP) ---

func (a *api) doCreateExpense(_ context.Context, in expenseInput) (expense, error) {
	if in.Amount <= 0 {
		return expense{}, invalid("amount must be > 0")
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		return expense{}, invalid("category is required")
	}
	return a.store.addExpense(in.owner, expense{Amount: in.Amount, Category: category, Note: in.Note}), nil
}

func (a *api) doListExpenses(_ context.Context, q expenseQuery) ([]expense, error) {
	return a.store.expensesOf(q.owner, q.category), nil
}

func (a *api) doCreateTask(_ context.Context, in taskInput) (task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return task{}, invalid("title is required")
	}
	return a.store.addTask(in.owner, task{Title: title, Due: in.Due}), nil
}

func (a *api) doCreateJournal(_ context.Context, in journalInput) (journalEntry, error) {
	if strings.TrimSpace(in.Body) == "" {
		return journalEntry{}, invalid("body is required")
	}
	return a.store.addJournal(in.owner, journalEntry{Body: in.Body, Mood: in.Mood}), nil
}

// doExportJournal monta o documento fora da goroutine da request.
func (a *api) doExportJournal(ctx context.Context, req exportRequest) application.Future[journalExport] {
	return application.Go(ctx, func(ctx context.Context) (journalExport, error) {
		entries := a.store.journalOf(req.owner)

		var b strings.Builder
		for _, e := range entries {
			if err := ctx.Err(); err != nil {
				return journalExport{}, err
			}
			fmt.Fprintf(&b, "## %s", e.CreatedAt.Format(time.RFC3339))
			if e.Mood != "" {
				fmt.Fprintf(&b, " (%s)", e.Mood)
			}
			fmt.Fprintf(&b, "\n\n%s\n\n", e.Body)
		}

		return journalExport{
			Entries:     len(entries),
			GeneratedAt: time.Now().UTC(),
			Document:    b.String(),
		}, nil
	})
}

func (a *api) doSystemStatus(context.Context, struct{}) (statusReport, error) {
	ops := a.registry.Operations()
	names := make([]string, 0, len(ops))
	for _, op := range ops {
		names = append(names, op.Name())
	}
	return statusReport{
		Status:     "ok",
		Uptime:     time.Since(a.started).Truncate(time.Second).String(),
		Operations: names,
	}, nil
}

// --- HTTP ---

func (a *api) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	username := strings.TrimSpace(body.Username)
	if username == "" {
		writeError(w, http.StatusBadRequest, "username is required")
		return
	}

	token, err := a.tokens.Issue(username)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access_token": token, "token_type": "Bearer"})
}

func (a *api) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var in expenseInput
	if !decode(w, r, &in) {
		return
	}
	in.owner = userOf(r)

	out, err := a.createExpense.Call(r.Context(), in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (a *api) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	q := expenseQuery{owner: userOf(r), category: r.URL.Query().Get("category")}

	out, err := a.listExpenses.Call(r.Context(), q)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *api) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var in taskInput
	if !decode(w, r, &in) {
		return
	}
	in.owner = userOf(r)

	out, err := a.createTask.Call(r.Context(), in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (a *api) handleCreateJournal(w http.ResponseWriter, r *http.Request) {
	var in journalInput
	if !decode(w, r, &in) {
		return
	}
	in.owner = userOf(r)

	out, err := a.createJournal.Call(r.Context(), in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (a *api) handleExportJournal(w http.ResponseWriter, r *http.Request) {
	out, err := application.Await(r.Context(), a.exportJournal.Call(r.Context(), exportRequest{owner: userOf(r)}))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *api) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	out, err := a.systemStatus.Call(r.Context(), struct{}{})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// fail traduz erros dos casos de uso para HTTP.
func (a *api) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case ratelimit.WriteError(w, r, err):
	case errors.Is(err, errInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled):
		// cliente desconectou
	default:
		a.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func userOf(r *http.Request) string {
	id, _ := application.UserIDFromContext(r.Context())
	return id
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
