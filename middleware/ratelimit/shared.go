package ratelimit

import (
	"sync"

	"github.com/nuran-nahadi/CSE-3216-SDP-Project/middleware/ratelimit/infra"
)

var (
	sharedOnce sync.Once
	shared     *infra.SlidingWindow
)

// Shared devolve o limiter do processo, criado na primeira chamada.
// Todas as operações que não recebem um Limiter próprio dividem este.
func Shared() *infra.SlidingWindow {
	sharedOnce.Do(func() {
		shared = infra.NewSlidingWindow()
	})
	return shared
}
