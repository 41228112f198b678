// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - SlidingWindow: janela deslizante em memória por bucket, com janitor
//   - MemoryStatsStore / RedisStatsStore / PrometheusStats: estatísticas de decisão
//   - SemaphorePool: limite de concorrência sobre golang.org/x/sync/semaphore
package infra
