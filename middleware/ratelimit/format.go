// utilitário pequeno para formatação de valores numéricos em headers.
// Segundos sempre arredondam para cima: Retry-After=0 faria o cliente voltar cedo demais.

package ratelimit

import (
	"math"
	"strconv"
	"time"
)

func formatInt(v int) string { return strconv.Itoa(v) }

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}

func formatSeconds(d time.Duration) string { return formatInt(ceilSeconds(d)) }
