package ratelimit

import (
	"net"
	"net/http"
	"strings"

	"github.com/nuran-nahadi/CSE-3216-SDP-Project/middleware/ratelimit/application"
)

// KeyFunc extrai o endereço do chamador. "" quando não há nada utilizável.
type KeyFunc func(r *http.Request) string

func DefaultKeyFunc(keyHeader string, trustXFF bool) KeyFunc {
	return func(r *http.Request) string {
		if keyHeader != "" {
			if v := strings.TrimSpace(r.Header.Get(keyHeader)); v != "" {
				return v
			}
		}

		if trustXFF {
			// pega o primeiro IP do X-Forwarded-For (cliente original)
			if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
				first, _, _ := strings.Cut(xff, ",")
				if ip := strings.TrimSpace(first); ip != "" {
					return ip
				}
			}
		}

		// fallback: RemoteAddr
		addr := strings.TrimSpace(r.RemoteAddr)
		host, _, err := net.SplitHostPort(addr)
		if err == nil && host != "" {
			return host
		}
		// sem endereço o guard cai no bucket global
		return addr
	}
}

// ClientAddr coloca o endereço do chamador no contexto da request, onde o
// extrator padrão da estratégia network-address vai procurar.
func ClientAddr(keyFn KeyFunc) func(next http.Handler) http.Handler {
	if keyFn == nil {
		keyFn = DefaultKeyFunc("", false)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if addr := keyFn(r); addr != "" {
				r = r.WithContext(application.WithClientAddr(r.Context(), addr))
			}
			next.ServeHTTP(w, r)
		})
	}
}
