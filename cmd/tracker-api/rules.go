package main

import (
	"time"

	"github.com/nuran-nahadi/CSE-3216-SDP-Project/middleware/ratelimit"
	"github.com/nuran-nahadi/CSE-3216-SDP-Project/middleware/ratelimit/domain"
)

// builtinRules valem sem RATE_RULES_FILE; o arquivo sobrescreve por operação.
func builtinRules() ratelimit.Rules {
	perUser := func(limit int, window time.Duration) domain.Rule {
		return domain.Rule{Limit: limit, Window: window, Identifier: domain.StrategyUser}
	}
	return ratelimit.Rules{
		Defaults: ratelimit.DefaultRule(),
		Operations: map[string]domain.Rule{
			"auth.login":      {Limit: 5, Window: time.Minute, Identifier: domain.StrategyNetworkAddress},
			"expenses.create": perUser(30, time.Minute),
			"expenses.list":   perUser(120, time.Minute),
			"tasks.create":    perUser(30, time.Minute),
			"journal.create":  perUser(20, time.Minute),
			"journal.export":  perUser(2, 5*time.Minute),
			"system.status":   {Limit: 10, Window: 10 * time.Second, Identifier: domain.StrategyGlobal},
		},
	}
}

func loadRules(path string) (ratelimit.Rules, error) {
	rules := builtinRules()
	if path == "" {
		return rules, nil
	}
	file, err := ratelimit.LoadRulesFile(path)
	if err != nil {
		return ratelimit.Rules{}, err
	}
	return rules.Merge(file), nil
}
