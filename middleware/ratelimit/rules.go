package ratelimit

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/nuran-nahadi/CSE-3216-SDP-Project/middleware/ratelimit/domain"

	"gopkg.in/yaml.v3"
)

// RuleSpec é a forma de uma regra no arquivo. Window em segundos.
// Campos zerados herdam de defaults.
type RuleSpec struct {
	Limit      int    `yaml:"limit"`
	Window     int    `yaml:"window"`
	Identifier string `yaml:"identifier"`
}

type rulesFile struct {
	Defaults   RuleSpec            `yaml:"defaults"`
	Operations map[string]RuleSpec `yaml:"operations"`
}

// Rules são as regras já validadas por operação.
type Rules struct {
	Defaults   domain.Rule
	Operations map[string]domain.Rule
}

// DefaultRule: 60 chamadas por minuto por usuário.
func DefaultRule() domain.Rule {
	return domain.Rule{Limit: 60, Window: 60 * time.Second, Identifier: domain.StrategyUser}
}

// LoadRules lê o YAML e valida todas as regras. Arquivo vazio = só defaults.
func LoadRules(r io.Reader) (Rules, error) {
	var f rulesFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return Rules{}, fmt.Errorf("decode rules: %w", err)
	}

	defaults, err := f.Defaults.apply(DefaultRule())
	if err != nil {
		return Rules{}, fmt.Errorf("rules defaults: %w", err)
	}

	out := Rules{Defaults: defaults, Operations: make(map[string]domain.Rule, len(f.Operations))}
	for name, spec := range f.Operations {
		rule, err := spec.apply(defaults)
		if err != nil {
			return Rules{}, fmt.Errorf("rules operation %q: %w", name, err)
		}
		out.Operations[name] = rule
	}
	return out, nil
}

func LoadRulesFile(path string) (Rules, error) {
	fh, err := os.Open(path)
	if err != nil {
		return Rules{}, fmt.Errorf("open rules file: %w", err)
	}
	defer fh.Close()
	return LoadRules(fh)
}

// Rule devolve a regra da operação ou os defaults.
func (r Rules) Rule(name string) domain.Rule {
	if rule, ok := r.Operations[name]; ok {
		return rule
	}
	if r.Defaults == (domain.Rule{}) {
		return DefaultRule()
	}
	return r.Defaults
}

// Merge devolve r com as regras de over por cima: operações de over
// substituem as de r e os defaults de over, se definidos, substituem os de r.
func (r Rules) Merge(over Rules) Rules {
	out := Rules{Defaults: r.Defaults, Operations: make(map[string]domain.Rule, len(r.Operations)+len(over.Operations))}
	if over.Defaults != (domain.Rule{}) {
		out.Defaults = over.Defaults
	}
	for name, rule := range r.Operations {
		out.Operations[name] = rule
	}
	for name, rule := range over.Operations {
		out.Operations[name] = rule
	}
	return out
}

func (s RuleSpec) apply(base domain.Rule) (domain.Rule, error) {
	rule := base
	if s.Limit != 0 {
		rule.Limit = s.Limit
	}
	if s.Window != 0 {
		rule.Window = time.Duration(s.Window) * time.Second
	}
	if s.Identifier != "" {
		strategy, err := domain.ParseStrategy(s.Identifier)
		if err != nil {
			return domain.Rule{}, err
		}
		rule.Identifier = strategy
	}
	if err := rule.Validate(); err != nil {
		return domain.Rule{}, err
	}
	return rule, nil
}
