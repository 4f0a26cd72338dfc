package streambuilder

import (
	"github.com/kndndrj/lazystream/core"
	"github.com/kndndrj/lazystream/sequence"
)

type config struct {
	name        string
	env         *core.Env
	source      core.Source
	count       int
	hasCount    bool
	estimate    int
	hasEstimate bool
	schema      *core.Struct
	titleRow    bool
}

type Option func(*config)

func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// WithCount tells the builder the exact number of items a lazy producer
// yields.
func WithCount(n int) Option {
	return func(c *config) {
		c.count, c.hasCount = n, true
	}
}

// WithEstimate sets an upper bound of the item count.
func WithEstimate(n int) Option {
	return func(c *config) {
		c.estimate, c.hasEstimate = n, true
	}
}

// WithSource links the stream to the connector it was read from. A source
// that knows its count, estimate or struct contributes them.
func WithSource(src core.Source) Option {
	return func(c *config) {
		c.source = src
	}
}

func WithEnv(env *core.Env) Option {
	return func(c *config) {
		c.env = env
	}
}

// WithStruct attaches a struct to the stream.
func WithStruct(s *core.Struct) Option {
	return func(c *config) {
		c.schema = s
	}
}

// WithTitleRow treats the first item as field names and detects a struct
// from it. The title is not part of the stream.
func WithTitleRow() Option {
	return func(c *config) {
		c.titleRow = true
	}
}

func (c *config) sequenceOptions() []sequence.Option {
	opts := []sequence.Option{
		sequence.WithName(c.name),
		sequence.WithEnv(c.env),
	}
	if c.hasCount {
		opts = append(opts, sequence.WithCount(c.count))
	}
	if c.hasEstimate {
		opts = append(opts, sequence.WithEstimate(c.estimate))
	}
	// explicit hints first: the source only fills in what is missing
	return append(opts, sequence.WithSource(c.source))
}

// apply copies the configured metadata onto an existing sequence.
func (c *config) apply(seq *sequence.Sequence[core.Item]) {
	if c.name != "" {
		seq.SetName(c.name)
	}
	if c.env != nil {
		seq.SetEnv(c.env)
	}
	if c.source != nil {
		seq.SetSource(c.source)
		if counter, ok := c.source.(core.Counter); ok && !c.hasCount {
			c.count, c.hasCount = counter.Count()
		}
		if estimator, ok := c.source.(core.Estimator); ok && !c.hasEstimate {
			c.estimate, c.hasEstimate = estimator.EstimatedCount()
		}
	}
	if c.hasCount {
		seq.SetCount(c.count)
	}
	if c.hasEstimate {
		seq.SetEstimate(c.estimate)
	}
}
