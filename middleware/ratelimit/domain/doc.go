// Package domain define contratos e tipos de domínio para rate limit e concorrência.
//
// Este pacote não depende de net/http nem de implementações concretas.
// Aqui ficam a chave de bucket, a regra (limit/window/identifier), a decisão,
// o erro de limite excedido e os contratos de limiter/estatísticas.
package domain
