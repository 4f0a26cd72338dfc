package mock

import "github.com/kndndrj/lazystream/core"

var (
	_ core.Source     = (*Source)(nil)
	_ core.Counter    = (*Source)(nil)
	_ core.Estimator  = (*Source)(nil)
	_ core.Structured = (*Source)(nil)
)

// Source is a mocked connector exposing every metadata capability.
type Source struct {
	name   string
	config *sourceConfig
}

func NewSource(name string, opts ...SourceOption) *Source {
	config := &sourceConfig{}
	for _, opt := range opts {
		opt(config)
	}
	return &Source{
		name:   name,
		config: config,
	}
}

func (s *Source) Name() string { return s.name }

func (s *Source) Count() (int, bool) { return s.config.count, s.config.hasCount }

func (s *Source) EstimatedCount() (int, bool) { return s.config.estimate, s.config.hasEst }

func (s *Source) Struct() *core.Struct { return s.config.schema }
