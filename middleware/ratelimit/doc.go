// Package ratelimit fornece adapters HTTP (net/http) para rate limit e limite de concorrência.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: casos de uso (decisão allow/deny, guard Sync/Async, acquire/timeout) sem net/http
//   - infra: implementações concretas (janela deslizante, stats, semáforo), detalhes de infraestrutura
//   - ratelimit (este pacote): middlewares HTTP + extração do endereço + tradução para status/headers
//
// Fluxo de uma request protegida:
//
//  1. Extrai o endereço do cliente (header/XFF/RemoteAddr) e, se houver, o usuário autenticado
//  2. O guard resolve o bucket "{operação}:{escopo}" e pede a decisão ao limiter
//  3. Se bloqueado, WriteError responde 429 (rate limit); o ConcurrencyMiddleware responde 503
//  4. Se permitido, chama o próximo handler
//
// As regras por operação vêm de um arquivo YAML (LoadRules). O binário cmd/tracker-api
// lê o caminho de RATE_RULES_FILE.
package ratelimit
