// Package config loads the tunables that bound a running process: call
// depth, step budget, and the buffer size used between a runtime and
// whatever drives it over the protocol package's Command/Update sums. These
// are environment-driven rather than flags, since they are usually fixed by
// the embedding host (a game build, a CI harness) rather than chosen per
// invocation.
package config

import "github.com/caarlos0/env/v6"

// Runtime holds the limits an Evaluator is constructed with.
type Runtime struct {
	// MaxCallDepth bounds non-tail-call recursion; exceeding it raises
	// EffectCallDepthExceeded rather than exhausting host memory.
	MaxCallDepth int `env:"CROSSCUT_MAX_CALL_DEPTH" envDefault:"32"`

	// MaxSteps bounds how many instructions a single Run invocation executes
	// before it is forced to yield, as a safety net against a runaway
	// evaluation loop with no breakpoints or host calls to pause it. 0 means
	// unbounded.
	MaxSteps int `env:"CROSSCUT_MAX_STEPS" envDefault:"0"`

	// UpdateBufferSize is a channel buffer depth for relaying
	// protocol.Update values from a running Evaluator to a debugger client.
	// It is loaded with the rest of Runtime; no code in this module reads it.
	UpdateBufferSize int `env:"CROSSCUT_UPDATE_BUFFER_SIZE" envDefault:"64"`
}

// Load reads a Runtime configuration from the process environment, applying
// the defaults above for anything unset.
func Load() (Runtime, error) {
	var rt Runtime
	if err := env.Parse(&rt); err != nil {
		return Runtime{}, err
	}
	return rt, nil
}
