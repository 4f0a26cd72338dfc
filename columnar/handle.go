// Package columnar adds field-aware operations to item sequences: select,
// sort, group by and joins over rows, records and struct rows.
package columnar

import (
	"fmt"
	"io"
	"iter"
	"strconv"

	"github.com/kndndrj/lazystream/core"
	"github.com/kndndrj/lazystream/core/format"
	"github.com/kndndrj/lazystream/join"
	"github.com/kndndrj/lazystream/sequence"
)

// Handle is what every stream exposes: metadata, diagnostics and the
// terminal operations.
type Handle interface {
	Name() string
	Kind() core.Kind
	Struct() *core.Struct
	Count() (int, bool)
	EstimatedCount() (int, bool)
	IsInMemory() bool
	State() sequence.State
	Describe() string

	Sequence() *sequence.Sequence[core.Item]
	Collect() ([]core.Item, error)
	Items() iter.Seq2[core.Item, error]
	Show(n int) (string, error)
	WriteOut(w io.Writer, f core.Formatter) (int, error)
	Close()
}

type Selectable interface {
	Handle
	Select(exprs ...Expr) (*Stream, error)
}

type Sortable interface {
	Handle
	Sort(keys []any, opts ...SortOption) (*Stream, error)
}

type Groupable interface {
	Handle
	GroupBy(keys []any, values ...any) (*Stream, error)
	SortedGroupBy(keys []any, values ...any) *Stream
}

type Joinable interface {
	Handle
	MapSideJoin(right Handle, spec join.Spec) (*Stream, error)
	MergeJoin(right Handle, spec join.Spec) (*Stream, error)
}

var (
	_ Selectable = (*Stream)(nil)
	_ Sortable   = (*Stream)(nil)
	_ Groupable  = (*Stream)(nil)
	_ Joinable   = (*Stream)(nil)
	_ Handle     = (*LineStream)(nil)
)

// base carries what Stream and LineStream share.
type base struct {
	seq    *sequence.Sequence[core.Item]
	kind   core.Kind
	schema *core.Struct
}

func (b *base) Name() string                            { return b.seq.Name() }
func (b *base) Kind() core.Kind                         { return b.kind }
func (b *base) Struct() *core.Struct                    { return b.schema }
func (b *base) Count() (int, bool)                      { return b.seq.Count() }
func (b *base) EstimatedCount() (int, bool)             { return b.seq.EstimatedCount() }
func (b *base) IsInMemory() bool                        { return b.seq.IsInMemory() }
func (b *base) State() sequence.State                   { return b.seq.State() }
func (b *base) Sequence() *sequence.Sequence[core.Item] { return b.seq }
func (b *base) Items() iter.Seq2[core.Item, error]      { return b.seq.All() }
func (b *base) Close()                                  { b.seq.Close() }

func (b *base) env() *core.Env { return b.seq.Env() }

// Collect materializes the stream; it stays readable afterwards.
func (b *base) Collect() ([]core.Item, error) {
	return b.seq.Collect()
}

func (b *base) describe(label string) string {
	count := "unknown"
	if n, ok := b.seq.Count0(); ok {
		count = strconv.Itoa(n)
	}
	schema := "<none>"
	if b.schema != nil {
		schema = b.schema.String()
	}
	return fmt.Sprintf("%s(name=%q, kind=%s, state=%s, count=%s, in_memory=%t, struct=%s)",
		label, b.seq.Name(), b.kind, b.seq.State(), count, b.seq.IsInMemory(), schema)
}

// Show renders the first n items as a table without consuming the stream.
func (b *base) Show(n int) (string, error) {
	items, err := b.seq.Peek(n)
	if err != nil {
		return "", err
	}
	header := core.HeaderOf(b.schema, items)
	out, err := format.NewTable().Format(header, items, &core.FormatterOptions{Captions: captionsOf(b.schema, header)})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// WriteOut reads the stream to the end and writes it with the formatter. It
// returns the number of written items.
func (b *base) WriteOut(w io.Writer, f core.Formatter) (int, error) {
	var items []core.Item
	err := b.seq.ForEach(func(item core.Item) error {
		items = append(items, item)
		return nil
	})
	if err != nil {
		return 0, err
	}

	schemaType := core.SchemaFul
	if b.schema == nil && (b.kind == core.KindAny || b.kind == core.KindLine) {
		schemaType = core.SchemaLess
	}
	header := core.HeaderOf(b.schema, items)
	out, err := f.Format(header, items, &core.FormatterOptions{
		SchemaType: schemaType,
		Captions:   captionsOf(b.schema, header),
	})
	if err != nil {
		return 0, fmt.Errorf("f.Format: %w", err)
	}
	if _, err := w.Write(out); err != nil {
		return 0, fmt.Errorf("w.Write: %w", err)
	}
	return len(items), nil
}

func captionsOf(schema *core.Struct, header core.Header) []string {
	if schema == nil {
		return nil
	}
	captions := make([]string, len(header))
	for i, name := range header {
		if pos, ok := schema.Position(name); ok {
			f, _ := schema.Field(pos)
			captions[i] = f.Caption
		}
	}
	return captions
}

// actualize pulls count, estimate and struct from the source and
// materializes the items when they fit under the memory threshold.
func (b *base) actualize() error {
	if src := b.seq.Source(); src != nil {
		if counter, ok := src.(core.Counter); ok {
			if n, ok := counter.Count(); ok {
				b.seq.SetCount(n)
			}
		}
		if estimator, ok := src.(core.Estimator); ok {
			if n, ok := estimator.EstimatedCount(); ok {
				b.seq.SetEstimate(n)
			}
		}
		if structured, ok := src.(core.Structured); ok && b.schema == nil {
			b.schema = structured.Struct()
		}
	}

	if b.seq.IsMaterialized() {
		return nil
	}

	threshold := b.env().Threshold()
	if n, ok := b.seq.EstimatedCount(); ok && n > threshold {
		b.env().Log().Debugf("%s: %d items over the threshold of %d, staying lazy", b.seq.Name(), n, threshold)
		return nil
	}

	// the count may be unknown: look ahead one item past the threshold
	head, err := b.seq.Peek(threshold + 1)
	if err != nil {
		return err
	}
	if len(head) > threshold {
		b.env().Log().Debugf("%s: more than %d items, staying lazy", b.seq.Name(), threshold)
		return nil
	}
	_, err = b.seq.Collect()
	return err
}
