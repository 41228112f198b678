package application

import (
	"fmt"
	"sort"
	"sync"

	"github.com/nuran-nahadi/CSE-3216-SDP-Project/middleware/ratelimit/domain"
)

// Registry guarda as operações protegidas por nome.
type Registry struct {
	mu  sync.RWMutex
	ops map[string]Operation
}

func NewRegistry() *Registry {
	return &Registry{ops: make(map[string]Operation)}
}

// Register falha se já existir uma operação com o mesmo nome: duas operações
// com o mesmo nome dividiriam buckets.
func (r *Registry) Register(op Operation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := op.Name()
	if _, exists := r.ops[name]; exists {
		return domain.NewValidationError("name", fmt.Sprintf("operation %q already registered", name))
	}
	r.ops[name] = op
	return nil
}

func (r *Registry) Lookup(name string) (Operation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.ops[name]
	return op, ok
}

// Operations retorna as operações ordenadas por nome.
func (r *Registry) Operations() []Operation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Operation, 0, len(r.ops))
	for _, op := range r.ops {
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}
