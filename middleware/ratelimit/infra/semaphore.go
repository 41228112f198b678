package infra

import (
	"context"

	"github.com/nuran-nahadi/CSE-3216-SDP-Project/middleware/ratelimit/domain"

	"golang.org/x/sync/semaphore"
)

type semaphorePool struct {
	sem *semaphore.Weighted
}

// NewSemaphorePool cria um pool de max vagas sobre semaphore.Weighted.
func NewSemaphorePool(max int) domain.SlotPool {
	return &semaphorePool{sem: semaphore.NewWeighted(int64(max))}
}

func (p *semaphorePool) Acquire(ctx context.Context) (func(), bool) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, false
	}
	return func() { p.sem.Release(1) }, true
}
