package main

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type expense struct {
	ID        string    `json:"id"`
	Amount    float64   `json:"amount"`
	Category  string    `json:"category"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type task struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Due       *time.Time `json:"due,omitempty"`
	Done      bool       `json:"done"`
	CreatedAt time.Time  `json:"created_at"`
}

type journalEntry struct {
	ID        string    `json:"id"`
	Body      string    `json:"body"`
	Mood      string    `json:"mood,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// memStore guarda os registros do tracker por usuário, só em memória.
type memStore struct {
	mu       sync.RWMutex
	expenses map[string][]expense
	tasks    map[string][]task
	journal  map[string][]journalEntry
	now      func() time.Time
}

func newMemStore() *memStore {
	return &memStore{
		expenses: make(map[string][]expense),
		tasks:    make(map[string][]task),
		journal:  make(map[string][]journalEntry),
		now:      time.Now,
	}
}

func (s *memStore) addExpense(owner string, e expense) expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = uuid.NewString()
	e.CreatedAt = s.now().UTC()
	s.expenses[owner] = append(s.expenses[owner], e)
	return e
}

// expensesOf devolve as despesas do usuário, mais recentes primeiro.
func (s *memStore) expensesOf(owner, category string) []expense {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]expense, 0, len(s.expenses[owner]))
	for _, e := range s.expenses[owner] {
		if category == "" || e.Category == category {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *memStore) addTask(owner string, t task) task {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = uuid.NewString()
	t.CreatedAt = s.now().UTC()
	s.tasks[owner] = append(s.tasks[owner], t)
	return t
}

func (s *memStore) addJournal(owner string, e journalEntry) journalEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = uuid.NewString()
	e.CreatedAt = s.now().UTC()
	s.journal[owner] = append(s.journal[owner], e)
	return e
}

func (s *memStore) journalOf(owner string) []journalEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]journalEntry, len(s.journal[owner]))
	copy(out, s.journal[owner])
	return out
}
