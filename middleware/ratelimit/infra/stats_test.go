package infra

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nuran-nahadi/CSE-3216-SDP-Project/middleware/ratelimit/domain"
)

func newTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	server, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		server.Close()
	})
	return client, server
}

func event(op string, allowed bool) domain.StatsEvent {
	return domain.StatsEvent{
		Key:       domain.BucketKey(op, domain.UserScope("u1")),
		Operation: op,
		Strategy:  domain.StrategyUser,
		Allowed:   allowed,
		At:        time.Date(2025, 10, 12, 10, 30, 0, 0, time.UTC),
	}
}

func TestMemoryStatsStore_CountsByOperation(t *testing.T) {
	s := NewMemoryStatsStore()
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, event("expenses.create", true)))
	require.NoError(t, s.Record(ctx, event("expenses.create", false)))
	require.NoError(t, s.Record(ctx, event("tasks.create", true)))

	assert.Equal(t, Counters{Allowed: 2, Denied: 1}, s.Total())
	byOp := s.ByOperation()
	assert.Equal(t, Counters{Allowed: 1, Denied: 1}, byOp["expenses.create"])
	assert.Equal(t, Counters{Allowed: 1}, byOp["tasks.create"])
	assert.Empty(t, s.ByKey(), "keys are only tracked when enabled")
}

func TestMemoryStatsStore_TrackKeys(t *testing.T) {
	s := NewMemoryStatsStore(WithTrackKeys(true))
	ev := event("expenses.create", false)

	require.NoError(t, s.Record(context.Background(), ev))

	assert.Equal(t, Counters{Denied: 1}, s.ByKey()[ev.Key])
}

func TestRedisStatsStore_Record(t *testing.T) {
	client, server := newTestRedis(t)
	s := NewRedisStatsStore(client, WithStatsPrefix("tracker:stats:"), WithStatsTrackKeys(true), WithStatsTTL(time.Hour))
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, event("expenses.create", true)))
	require.NoError(t, s.Record(ctx, event("expenses.create", false)))
	require.NoError(t, s.Record(ctx, event("expenses.create", false)))

	assert.Equal(t, "1", server.HGet("tracker:stats:total", "allowed"))
	assert.Equal(t, "2", server.HGet("tracker:stats:total", "denied"))
	assert.Equal(t, "2", server.HGet("tracker:stats:operation", "expenses.create:denied"))
	assert.Equal(t, "2", server.HGet("tracker:stats:minute:202510121030", "denied"))

	keyKey := "tracker:stats:key:expenses.create:user:u1"
	assert.Equal(t, "1", server.HGet(keyKey, "allowed"))
	assert.Equal(t, time.Hour, server.TTL(keyKey))
	assert.Zero(t, server.TTL("tracker:stats:total"), "cumulative counters never expire")
}

func TestRedisStatsStore_NoMinuteBucket(t *testing.T) {
	client, server := newTestRedis(t)
	s := NewRedisStatsStore(client, WithStatsBucket("none"))

	require.NoError(t, s.Record(context.Background(), event("tasks.create", true)))

	for _, k := range server.Keys() {
		assert.False(t, strings.Contains(k, ":minute:"), "unexpected bucket key %s", k)
	}
}

func TestRedisStatsStore_ReportsUnavailableServer(t *testing.T) {
	client, server := newTestRedis(t)
	server.Close()

	err := NewRedisStatsStore(client).Record(context.Background(), event("tasks.create", true))
	assert.Error(t, err)
}

func TestPrometheusStats_CountsByOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, err := NewPrometheusStats(reg)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, p.Record(ctx, event("expenses.create", true)))
	require.NoError(t, p.Record(ctx, event("expenses.create", false)))
	require.NoError(t, p.Record(ctx, event("expenses.create", false)))

	assert.Equal(t, 1.0, testutil.ToFloat64(p.decisions.WithLabelValues("expenses.create", "user", "allowed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(p.decisions.WithLabelValues("expenses.create", "user", "denied")))
}

func TestPrometheusStats_ReusesRegisteredCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPrometheusStats(reg)
	require.NoError(t, err)
	second, err := NewPrometheusStats(reg)
	require.NoError(t, err)

	require.NoError(t, second.Record(context.Background(), event("tasks.create", true)))

	assert.Equal(t, 1.0, testutil.ToFloat64(first.decisions.WithLabelValues("tasks.create", "user", "allowed")))
}

type failingStats struct{ err error }

func (f failingStats) Record(context.Context, domain.StatsEvent) error { return f.err }

func TestMultiStats_RecordsEverywhereAndJoinsErrors(t *testing.T) {
	mem := NewMemoryStatsStore()
	boom := errors.New("boom")
	m := MultiStats{mem, nil, failingStats{err: boom}}

	err := m.Record(context.Background(), event("tasks.create", true))

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, Counters{Allowed: 1}, mem.Total())
}
