// Package application contém os casos de uso (regras de aplicação) para rate limit
// e limite de concorrência.
//
// Ele depende apenas do pacote domain e não conhece net/http.
//
//   - Service.Decide: monta a chave do bucket e retorna uma Decision (allow/deny + retry-after)
//   - Sync / Async: guard que envolve um handler bloqueante ou que devolve Future
//   - Registry: nomes das operações protegidas, sem duplicatas
//   - ConcurrencyService: acquire com timeout sobre um SlotPool
package application
