package domain

// Camada de domínio do rate limit.
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import (
	"fmt"
	"strings"
	"time"
)

// Key identifica um bucket: "{operação}:{escopo}".
type Key string

// GlobalScope é o escopo sentinela compartilhado por todas as chamadas de uma operação.
const GlobalScope = "global"

// BucketKey monta a chave de uma operação para um escopo já resolvido.
// Escopo vazio cai no bucket global.
func BucketKey(operation, scope string) Key {
	if scope == "" {
		scope = GlobalScope
	}
	return Key(operation + ":" + scope)
}

// UserScope e AddrScope prefixam o token para que um id de usuário nunca
// colida com o sentinela global nem com um endereço.
func UserScope(id string) string { return "user:" + id }
func AddrScope(addr string) string { return "ip:" + addr }

// Strategy define como o escopo do bucket é resolvido a cada chamada.
type Strategy string

const (
	StrategyUser           Strategy = "user"
	StrategyNetworkAddress Strategy = "network-address"
	StrategyGlobal         Strategy = "global"
)

// ParseStrategy aceita os nomes canônicos e o alias "ip".
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user":
		return StrategyUser, nil
	case "network-address", "ip":
		return StrategyNetworkAddress, nil
	case "global":
		return StrategyGlobal, nil
	}
	return "", NewValidationError("identifier", fmt.Sprintf("unknown strategy %q", s))
}

func (s Strategy) valid() bool {
	return s == StrategyUser || s == StrategyNetworkAddress || s == StrategyGlobal
}

// Rule é a configuração de uma operação protegida.
// É fixada no registro da operação e nunca muda depois.
type Rule struct {
	Limit      int
	Window     time.Duration
	Identifier Strategy
}

// Validate falha para limit/window não positivos ou estratégia desconhecida.
func (r Rule) Validate() error {
	if r.Limit <= 0 {
		return NewValidationError("limit", "must be > 0")
	}
	if r.Window <= 0 {
		return NewValidationError("window", "must be > 0")
	}
	if !r.Identifier.valid() {
		return NewValidationError("identifier", fmt.Sprintf("unknown strategy %q", r.Identifier))
	}
	return nil
}

// Limiter decide se uma chamada ao bucket é admitida agora.
//
// A implementação deve ser segura para uso concorrente e registrar a chamada
// admitida na mesma seção crítica da decisão.
type Limiter interface {
	IsAllowed(key Key, limit int, window time.Duration) bool
}

// RetryAdvisor é opcional: quanto falta para o bucket ter vaga de novo.
type RetryAdvisor interface {
	RetryAfter(key Key, window time.Duration) time.Duration
}

type Decision struct {
	Allowed bool
	// RetryAfter é o valor a ser retornado em Retry-After quando bloquear.
	// Se 0, não há recomendação.
	RetryAfter time.Duration
}
