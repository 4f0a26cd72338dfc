package sequence

import "github.com/kndndrj/lazystream/core"

type config struct {
	name        string
	env         *core.Env
	source      core.Source
	count       int
	hasCount    bool
	estimate    int
	hasEstimate bool
}

type Option func(*config)

func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// WithCount sets an exact count hint for a lazy producer.
func WithCount(n int) Option {
	return func(c *config) {
		c.count = n
		c.hasCount = true
	}
}

// WithEstimate sets an upper bound of the item count.
func WithEstimate(n int) Option {
	return func(c *config) {
		c.estimate = n
		c.hasEstimate = true
	}
}

// WithSource links the handle to the connector it came from. Count and
// estimate hints are taken from the source when it exposes them.
func WithSource(src core.Source) Option {
	return func(c *config) {
		c.source = src
		if src == nil {
			return
		}
		if counter, ok := src.(core.Counter); ok && !c.hasCount {
			c.count, c.hasCount = counter.Count()
		}
		if estimator, ok := src.(core.Estimator); ok && !c.hasEstimate {
			c.estimate, c.hasEstimate = estimator.EstimatedCount()
		}
	}
}

func WithEnv(env *core.Env) Option {
	return func(c *config) {
		c.env = env
	}
}
