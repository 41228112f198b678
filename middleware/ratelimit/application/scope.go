package application

import (
	"context"
	"strings"

	"github.com/nuran-nahadi/CSE-3216-SDP-Project/middleware/ratelimit/domain"
)

// Extractor devolve a identidade (id do usuário ou endereço) de uma chamada.
// ok=false ou id vazio cai no bucket global.
type Extractor[A any] func(ctx context.Context, arg A) (id string, ok bool)

type ctxKey int

const (
	userIDKey ctxKey = iota
	clientAddrKey
)

// WithUserID guarda a identidade já resolvida pela autenticação.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// WithClientAddr guarda o endereço de rede do chamador.
func WithClientAddr(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, clientAddrKey, addr)
}

func ClientAddrFromContext(ctx context.Context) (string, bool) {
	addr, ok := ctx.Value(clientAddrKey).(string)
	return addr, ok && addr != ""
}

// UserIdentified é implementado por argumentos que carregam o usuário.
type UserIdentified interface {
	UserID() string
}

// Addressed é implementado por argumentos que carregam o endereço do chamador.
type Addressed interface {
	ClientAddr() string
}

// UserExtractor usa UserID() do argumento e, se vazio, o contexto.
func UserExtractor[A any]() Extractor[A] {
	return func(ctx context.Context, arg A) (string, bool) {
		if u, ok := any(arg).(UserIdentified); ok {
			if id := strings.TrimSpace(u.UserID()); id != "" {
				return id, true
			}
		}
		return UserIDFromContext(ctx)
	}
}

// AddrExtractor usa ClientAddr() do argumento e, se vazio, o contexto.
func AddrExtractor[A any]() Extractor[A] {
	return func(ctx context.Context, arg A) (string, bool) {
		if a, ok := any(arg).(Addressed); ok {
			if addr := strings.TrimSpace(a.ClientAddr()); addr != "" {
				return addr, true
			}
		}
		return ClientAddrFromContext(ctx)
	}
}

func defaultExtractor[A any](s domain.Strategy) Extractor[A] {
	switch s {
	case domain.StrategyUser:
		return UserExtractor[A]()
	case domain.StrategyNetworkAddress:
		return AddrExtractor[A]()
	}
	return nil
}

// resolveScope transforma a identidade em token de escopo.
func resolveScope[A any](ctx context.Context, s domain.Strategy, ex Extractor[A], arg A) string {
	if s == domain.StrategyGlobal || ex == nil {
		return domain.GlobalScope
	}
	id, ok := ex(ctx, arg)
	id = strings.TrimSpace(id)
	if !ok || id == "" {
		return domain.GlobalScope
	}
	if s == domain.StrategyNetworkAddress {
		return domain.AddrScope(id)
	}
	return domain.UserScope(id)
}
