package infra

import (
	"context"
	"sync"
	"time"

	"github.com/nuran-nahadi/CSE-3216-SDP-Project/middleware/ratelimit/domain"
)

// SlidingWindow é o limiter em memória do processo: para cada bucket guarda
// os instantes das chamadas admitidas dentro da janela.
//
// Um único mutex serializa todas as decisões. A seção crítica é curta
// (lookup + poda + comparação + append), então não compensa particionar.
type SlidingWindow struct {
	mu      sync.Mutex
	buckets map[domain.Key]*bucket

	now          func() time.Time
	cleanupEvery time.Duration
}

type bucket struct {
	// stamps está em ordem cronológica (não decrescente).
	stamps []time.Time
	// window é a última janela usada no bucket; só o janitor lê.
	window time.Duration
}

type SlidingWindowOption func(*SlidingWindow)

// WithClock troca o relógio (testes).
func WithClock(now func() time.Time) SlidingWindowOption {
	return func(s *SlidingWindow) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCleanupEvery define o intervalo do janitor. 0 desliga.
func WithCleanupEvery(d time.Duration) SlidingWindowOption {
	return func(s *SlidingWindow) { s.cleanupEvery = d }
}

func NewSlidingWindow(opts ...SlidingWindowOption) *SlidingWindow {
	s := &SlidingWindow{
		buckets:      make(map[domain.Key]*bucket),
		now:          time.Now,
		cleanupEvery: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SlidingWindow) CleanupEvery() time.Duration { return s.cleanupEvery }

// IsAllowed implementa domain.Limiter.
//
// Poda os instantes anteriores a now-window, nega sem registrar se o bucket
// já tem limit chamadas, senão registra now e admite.
func (s *SlidingWindow) IsAllowed(key domain.Key, limit int, window time.Duration) bool {
	if limit <= 0 || window <= 0 {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	b, ok := s.buckets[key]
	if !ok {
		b = &bucket{}
		s.buckets[key] = b
	}
	b.window = window
	b.prune(now.Add(-window))

	if len(b.stamps) >= limit {
		return false
	}

	if n := len(b.stamps); n > 0 && now.Before(b.stamps[n-1]) {
		// relógio andou para trás: mantém a sequência ordenada
		now = b.stamps[n-1]
	}
	b.stamps = append(b.stamps, now)
	return true
}

// RetryAfter implementa domain.RetryAdvisor: quanto falta para o instante mais
// antigo sair da janela. Não registra nada.
func (s *SlidingWindow) RetryAfter(key domain.Key, window time.Duration) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[key]
	if !ok || len(b.stamps) == 0 {
		return 0
	}
	now := s.now()
	wait := b.stamps[0].Add(window).Sub(now)
	if wait < 0 {
		return 0
	}
	return wait
}

// prune remove os instantes estritamente anteriores a cutoff.
// Reaproveita o array para que a capacidade fique limitada a limit.
func (b *bucket) prune(cutoff time.Time) {
	i := 0
	for i < len(b.stamps) && b.stamps[i].Before(cutoff) {
		i++
	}
	if i == 0 {
		return
	}
	n := copy(b.stamps, b.stamps[i:])
	b.stamps = b.stamps[:n]
}

// Len retorna quantos buckets estão em memória.
func (s *SlidingWindow) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}

// Reset apaga o histórico de um bucket.
func (s *SlidingWindow) Reset(key domain.Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buckets, key)
}

// Cleanup remove buckets cujos instantes já saíram todos da janela.
// Um bucket ausente equivale a um bucket vazio, então a decisão não muda.
func (s *SlidingWindow) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, b := range s.buckets {
		b.prune(now.Add(-b.window))
		if len(b.stamps) == 0 {
			delete(s.buckets, k)
		}
	}
}

// StartJanitor inicia uma goroutine que limpa buckets ociosos periodicamente.
// Pare cancelando o contexto.
func (s *SlidingWindow) StartJanitor(ctx context.Context) {
	if s.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}

var (
	_ domain.Limiter      = (*SlidingWindow)(nil)
	_ domain.RetryAdvisor = (*SlidingWindow)(nil)
)
