package core

import "github.com/kndndrj/lazystream/models"

// DefaultMaxItemsInMemory is the safety threshold used when none is set.
const DefaultMaxItemsInMemory = 100_000

// Env is the ambient configuration handed to every handle at construction.
// There is no process-wide default instance.
type Env struct {
	// Logger receives diagnostics; skipped items and ignored cycles are
	// reported here.
	Logger models.Logger
	// MaxItemsInMemory bounds implicit materialization (actualize, sort).
	MaxItemsInMemory int
	// Name prefixes generated handle names.
	Name string
}

type EnvOption func(*Env)

func EnvWithLogger(logger models.Logger) EnvOption {
	return func(e *Env) {
		e.Logger = logger
	}
}

func EnvWithMaxItemsInMemory(n int) EnvOption {
	return func(e *Env) {
		e.MaxItemsInMemory = n
	}
}

func EnvWithName(name string) EnvOption {
	return func(e *Env) {
		e.Name = name
	}
}

func NewEnv(opts ...EnvOption) *Env {
	env := &Env{
		Logger:           models.NopLogger{},
		MaxItemsInMemory: DefaultMaxItemsInMemory,
		Name:             "stream",
	}
	for _, opt := range opts {
		opt(env)
	}
	if env.Logger == nil {
		env.Logger = models.NopLogger{}
	}
	return env
}

// Log returns the logger, never nil. Safe on a nil Env.
func (e *Env) Log() models.Logger {
	if e == nil || e.Logger == nil {
		return models.NopLogger{}
	}
	return e.Logger
}

// Threshold returns MaxItemsInMemory, falling back to the default. Safe on a
// nil Env.
func (e *Env) Threshold() int {
	if e == nil || e.MaxItemsInMemory <= 0 {
		return DefaultMaxItemsInMemory
	}
	return e.MaxItemsInMemory
}

func (e *Env) Prefix() string {
	if e == nil || e.Name == "" {
		return "stream"
	}
	return e.Name
}
