// Package streambuilder turns whatever a connector produced (slices,
// cursors, iterators or other streams) into a typed stream handle.
package streambuilder

import (
	"errors"
	"fmt"
	"iter"

	"github.com/kndndrj/lazystream/columnar"
	"github.com/kndndrj/lazystream/core"
	"github.com/kndndrj/lazystream/sequence"
)

// number of rows after the title used to sniff field types
const sampleSize = 20

var ErrUnsupportedData = errors.New("unsupported data")

// Build wraps data in a handle of the requested kind. Items are converted to
// the kind as they are read; KindAny keeps them as they are. KindAuto takes
// the kind from the first item without losing it, empty input gives KindAny.
func Build(kind core.Kind, data any, opts ...Option) (columnar.Handle, error) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	return build(kind, data, cfg)
}

// Auto is Build with KindAuto.
func Auto(data any, opts ...Option) (columnar.Handle, error) {
	return Build(core.KindAuto, data, opts...)
}

func Lines(data any, opts ...Option) (*columnar.LineStream, error) {
	h, err := Build(core.KindLine, data, opts...)
	if err != nil {
		return nil, err
	}
	return h.(*columnar.LineStream), nil
}

func Rows(data any, opts ...Option) (*columnar.Stream, error) {
	return stream(core.KindRow, data, opts)
}

func Records(data any, opts ...Option) (*columnar.Stream, error) {
	return stream(core.KindRecord, data, opts)
}

// StructRows needs a struct from WithStruct, WithTitleRow, a structured
// source or the input stream.
func StructRows(data any, opts ...Option) (*columnar.Stream, error) {
	return stream(core.KindStructRow, data, opts)
}

func stream(kind core.Kind, data any, opts []Option) (*columnar.Stream, error) {
	h, err := Build(kind, data, opts...)
	if err != nil {
		return nil, err
	}
	return h.(*columnar.Stream), nil
}

func build(kind core.Kind, data any, cfg *config) (columnar.Handle, error) {
	detect := kind == core.KindAuto

	seq, err := toSequence(data, cfg)
	if err != nil {
		return nil, err
	}

	schema := cfg.schema
	if schema == nil {
		if structured, ok := cfg.source.(core.Structured); ok {
			schema = structured.Struct()
		}
	}
	if h, ok := data.(columnar.Handle); ok {
		if schema == nil {
			schema = h.Struct()
		}
		if detect && h.Kind() != core.KindAny {
			kind, detect = h.Kind(), false
		}
	}

	if cfg.titleRow {
		seq, schema, err = titleRow(seq)
		if err != nil {
			return nil, err
		}
	}

	if detect {
		kind, schema, err = detectKind(seq, schema)
		if err != nil {
			return nil, err
		}
	}

	return wrap(kind, seq, schema)
}

// toSequence adapts the supported data shapes. Slices are converted
// eagerly; everything else stays lazy.
func toSequence(data any, cfg *config) (*sequence.Sequence[core.Item], error) {
	opts := cfg.sequenceOptions()

	switch d := data.(type) {
	case nil:
		return sequence.Empty[core.Item](opts...), nil
	case []core.Item:
		return sequence.FromSlice(d, opts...), nil
	case []any:
		return fromSlice(d, opts), nil
	case []string:
		return fromSlice(d, opts), nil
	case []core.Row:
		return fromSlice(d, opts), nil
	case [][]any:
		return fromSlice(d, opts), nil
	case []map[string]any:
		return fromSlice(d, opts), nil
	case core.Cursor[core.Item]:
		return sequence.FromCursor(d, opts...), nil
	case iter.Seq[core.Item]:
		return sequence.FromSeq[core.Item](d, opts...), nil
	case func(func(core.Item) bool):
		return sequence.FromSeq[core.Item](d, opts...), nil
	case iter.Seq2[core.Item, error]:
		return sequence.FromSeq2[core.Item](d, opts...), nil
	case func(func(core.Item, error) bool):
		return sequence.FromSeq2[core.Item](d, opts...), nil
	case iter.Seq[any]:
		return fromSeq(d, opts), nil
	case func(func(any) bool):
		return fromSeq(d, opts), nil
	case *sequence.Sequence[core.Item]:
		cfg.apply(d)
		return d, nil
	case columnar.Handle:
		seq := d.Sequence()
		cfg.apply(seq)
		return seq, nil
	default:
		return nil, fmt.Errorf("%T: %w", data, ErrUnsupportedData)
	}
}

func fromSlice[T any](values []T, opts []sequence.Option) *sequence.Sequence[core.Item] {
	items := make([]core.Item, len(values))
	for i, v := range values {
		items[i] = core.AsItem(v)
	}
	return sequence.FromSlice(items, opts...)
}

func fromSeq(values iter.Seq[any], opts []sequence.Option) *sequence.Sequence[core.Item] {
	return sequence.Map(sequence.FromSeq(values, opts...), func(v any) (core.Item, error) {
		return core.AsItem(v), nil
	})
}

// titleRow detects a struct from the first item and drops it.
func titleRow(seq *sequence.Sequence[core.Item]) (*sequence.Sequence[core.Item], *core.Struct, error) {
	head, err := seq.Peek(sampleSize + 1)
	if err != nil {
		return nil, nil, err
	}
	if len(head) == 0 {
		return seq, nil, nil
	}

	sample := make([]core.Row, 0, len(head)-1)
	for _, item := range head[1:] {
		sample = append(sample, core.RowOf(item, nil))
	}
	schema, err := core.DetectStruct(core.RowOf(head[0], nil), sample)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: title row: %w", seq.Name(), err)
	}

	seq.Env().Log().Debugf("%s: detected struct %s", seq.Name(), schema)
	return seq.Skip(1), schema, nil
}

func detectKind(seq *sequence.Sequence[core.Item], schema *core.Struct) (core.Kind, *core.Struct, error) {
	head, err := seq.Peek(1)
	if err != nil {
		return core.KindAny, nil, err
	}
	if len(head) == 0 {
		return core.KindAny, schema, nil
	}

	switch first := head[0].(type) {
	case *core.StructRow:
		if schema == nil {
			schema = first.Struct()
		}
		return core.KindStructRow, schema, nil
	case core.Row:
		if schema != nil {
			return core.KindStructRow, schema, nil
		}
		return core.KindRow, nil, nil
	default:
		return first.Kind(), schema, nil
	}
}

func wrap(kind core.Kind, seq *sequence.Sequence[core.Item], schema *core.Struct) (columnar.Handle, error) {
	switch kind {
	case core.KindLine:
		return columnar.NewLines(convert(seq, toLine)), nil
	case core.KindRow:
		header := schema.Names()
		return columnar.New(convert(seq, func(item core.Item) (core.Item, error) {
			return core.RowOf(item, header), nil
		}), core.KindRow, nil), nil
	case core.KindRecord:
		names := schema.Names()
		return columnar.New(convert(seq, func(item core.Item) (core.Item, error) {
			return core.RecordOf(item, names), nil
		}), core.KindRecord, nil), nil
	case core.KindStructRow:
		if schema == nil {
			return nil, fmt.Errorf("%s: %w", seq.Name(), core.ErrMissingStruct)
		}
		header := schema.Names()
		return columnar.New(convert(seq, func(item core.Item) (core.Item, error) {
			if sr, ok := item.(*core.StructRow); ok && sr.Struct().Equal(schema) {
				return sr, nil
			}
			return core.NewStructRow(schema, core.RowOf(item, header))
		}), core.KindStructRow, schema), nil
	default:
		return columnar.New(seq, core.KindAny, schema), nil
	}
}

// convert maps in-memory items right away so the result stays materialized.
func convert(seq *sequence.Sequence[core.Item], fn func(core.Item) (core.Item, error)) *sequence.Sequence[core.Item] {
	if !seq.IsMaterialized() {
		return sequence.Map(seq, fn)
	}

	items, err := seq.Collect()
	if err != nil {
		return sequence.Map(seq, fn)
	}
	out := make([]core.Item, len(items))
	for i, item := range items {
		converted, err := fn(item)
		if err != nil {
			// leave it to the reader to hit the error
			return sequence.Map(seq, fn)
		}
		out[i] = converted
	}
	return sequence.FromSlice(out,
		sequence.WithName(seq.Name()),
		sequence.WithEnv(seq.Env()),
		sequence.WithSource(seq.Source()),
	)
}

func toLine(item core.Item) (core.Item, error) {
	if l, ok := item.(*core.Line); ok {
		return l, nil
	}
	return core.NewLine(core.LineText(item)), nil
}
