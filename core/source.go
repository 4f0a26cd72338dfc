package core

type (
	// Source is the collaborator a stream was read from (a file, a table, a
	// query). The core only uses it for diagnostics and metadata.
	Source interface {
		Name() string
	}

	// Counter is implemented by sources that know their exact item count.
	Counter interface {
		Count() (int, bool)
	}

	// Estimator is implemented by sources that can give an upper bound.
	Estimator interface {
		EstimatedCount() (int, bool)
	}

	// Structured is implemented by sources that carry a schema.
	Structured interface {
		Struct() *Struct
	}
)
