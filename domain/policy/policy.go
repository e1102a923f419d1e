// Package policy decides which host resources scripts may reach.
package policy

import (
	"github.com/bmatcuk/doublestar/v4"
	"github.com/reglet-dev/hostbridge/domain/ports"
)

// policyConfig holds configuration shared by policies.
type policyConfig struct {
	denialHandler ports.DenialHandler // Handler invoked on policy denials
}

func defaultPolicyConfig() policyConfig {
	return policyConfig{
		denialHandler: &NopDenialHandler{},
	}
}

// PolicyOption configures a policy.
type PolicyOption func(*policyConfig)

// WithDenialHandler sets the denial handler.
func WithDenialHandler(h ports.DenialHandler) PolicyOption {
	return func(c *policyConfig) {
		c.denialHandler = h
	}
}

// EnvPolicy allows environment variables whose names match one of its glob
// patterns, e.g. "HOME" or "AWS_*". An empty pattern list allows nothing.
type EnvPolicy struct {
	config   policyConfig
	patterns []string
}

// NewEnvPolicy creates an EnvPolicy. Malformed patterns are dropped.
func NewEnvPolicy(allow []string, opts ...PolicyOption) *EnvPolicy {
	cfg := defaultPolicyConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &EnvPolicy{config: cfg}
	for _, pattern := range allow {
		if doublestar.ValidatePattern(pattern) {
			p.patterns = append(p.patterns, pattern)
		}
	}
	return p
}

// Patterns returns the patterns in effect.
func (p *EnvPolicy) Patterns() []string {
	return p.patterns
}

// Allowed reports whether name matches a pattern. Denials go to the denial handler.
func (p *EnvPolicy) Allowed(name string) bool {
	if len(p.patterns) == 0 {
		p.config.denialHandler.OnDenial("env", name, "no variables granted")
		return false
	}

	for _, pattern := range p.patterns {
		if matched, _ := doublestar.Match(pattern, name); matched {
			return true
		}
	}

	p.config.denialHandler.OnDenial("env", name, "variable not allowed")
	return false
}
