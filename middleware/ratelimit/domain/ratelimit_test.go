package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketKey(t *testing.T) {
	assert.Equal(t, Key("expenses.create:user:42"), BucketKey("expenses.create", UserScope("42")))
	assert.Equal(t, Key("auth.login:ip:10.0.0.1"), BucketKey("auth.login", AddrScope("10.0.0.1")))
	assert.Equal(t, Key("status:global"), BucketKey("status", ""))
	assert.Equal(t, Key("status:global"), BucketKey("status", GlobalScope))
}

func TestBucketKey_UserNamedGlobalDoesNotHitSentinel(t *testing.T) {
	assert.NotEqual(t, BucketKey("op", GlobalScope), BucketKey("op", UserScope("global")))
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in   string
		want Strategy
	}{
		{"user", StrategyUser},
		{" USER ", StrategyUser},
		{"network-address", StrategyNetworkAddress},
		{"ip", StrategyNetworkAddress},
		{"global", StrategyGlobal},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStrategy(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseStrategy("tenant")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "identifier", verr.Field)
}

func TestRule_Validate(t *testing.T) {
	ok := Rule{Limit: 3, Window: time.Minute, Identifier: StrategyGlobal}
	assert.NoError(t, ok.Validate())

	tests := []struct {
		name  string
		rule  Rule
		field string
	}{
		{"zero limit", Rule{Limit: 0, Window: time.Minute, Identifier: StrategyUser}, "limit"},
		{"negative limit", Rule{Limit: -1, Window: time.Minute, Identifier: StrategyUser}, "limit"},
		{"zero window", Rule{Limit: 1, Window: 0, Identifier: StrategyUser}, "window"},
		{"unknown identifier", Rule{Limit: 1, Window: time.Second, Identifier: "tenant"}, "identifier"},
		{"empty identifier", Rule{Limit: 1, Window: time.Second}, "identifier"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var verr *ValidationError
			require.ErrorAs(t, tt.rule.Validate(), &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestExceededError(t *testing.T) {
	var err error = &ExceededError{Operation: "tasks.create", Limit: 2, Window: 10 * time.Second, RetryAfter: 4 * time.Second}

	assert.True(t, errors.Is(err, ErrRateLimitExceeded))
	assert.True(t, IsExceeded(fmt.Errorf("handler: %w", err)))
	assert.Contains(t, err.Error(), "tasks.create")

	got, ok := AsExceeded(fmt.Errorf("wrapped: %w", err))
	require.True(t, ok)
	assert.Equal(t, 2, got.Limit)
	assert.Equal(t, 4*time.Second, got.RetryAfter)

	_, ok = AsExceeded(errors.New("boom"))
	assert.False(t, ok)
	assert.False(t, IsExceeded(errors.New("boom")))
	assert.False(t, IsExceeded(nil))
}
