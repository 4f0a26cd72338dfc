package columnar

import (
	"fmt"

	"github.com/kndndrj/lazystream/core"
	"github.com/kndndrj/lazystream/core/builders"
	"github.com/kndndrj/lazystream/sequence"
)

// Stream is a handle over rows, records, struct rows, or items of any shape.
type Stream struct {
	base
}

// New wraps a sequence. schema may be nil unless kind is core.KindStructRow.
func New(seq *sequence.Sequence[core.Item], kind core.Kind, schema *core.Struct) *Stream {
	return &Stream{
		base: base{
			seq:    seq,
			kind:   kind,
			schema: schema,
		},
	}
}

func (s *Stream) derive(seq *sequence.Sequence[core.Item]) *Stream {
	return New(seq, s.kind, s.schema)
}

func (s *Stream) Describe() string { return s.describe("Stream") }

func (s *Stream) Filter(pred func(core.Item) bool) *Stream {
	return s.derive(s.seq.Filter(pred))
}

// Map transforms every item. The result may hold any item shape, so its
// kind is core.KindAny.
func (s *Stream) Map(fn func(core.Item) (core.Item, error)) *Stream {
	return New(sequence.Map(s.seq, fn), core.KindAny, nil)
}

func (s *Stream) FlatMap(fn func(core.Item) ([]core.Item, error)) *Stream {
	return New(sequence.FlatMap(s.seq, fn), core.KindAny, nil)
}

func (s *Stream) Take(n int) *Stream { return s.derive(s.seq.Take(n)) }
func (s *Stream) Skip(n int) *Stream { return s.derive(s.seq.Skip(n)) }
func (s *Stream) Tail(n int) *Stream { return s.derive(s.seq.Tail(n)) }

func (s *Stream) Tee(n int) []*Stream {
	return s.wrapAll(s.seq.Tee(n))
}

func (s *Stream) SplitByPosition(n int) (*Stream, *Stream) {
	a, b := s.seq.SplitByPosition(n)
	return s.derive(a), s.derive(b)
}

func (s *Stream) SplitByPositions(positions ...int) ([]*Stream, error) {
	parts, err := s.seq.SplitByPositions(positions...)
	if err != nil {
		return nil, err
	}
	return s.wrapAll(parts), nil
}

func (s *Stream) SplitByPredicate(pred func(core.Item) bool) (*Stream, *Stream) {
	a, b := s.seq.SplitByPredicate(pred)
	return s.derive(a), s.derive(b)
}

func (s *Stream) SplitByClassifier(classify func(core.Item) int, k int) []*Stream {
	return s.wrapAll(s.seq.SplitByClassifier(classify, k))
}

func (s *Stream) wrapAll(seqs []*sequence.Sequence[core.Item]) []*Stream {
	out := make([]*Stream, len(seqs))
	for i, seq := range seqs {
		out[i] = s.derive(seq)
	}
	return out
}

// Validated checks every item with validate. Invalid items fail the read,
// or with skipErrors are dropped and logged.
func (s *Stream) Validated(validate func(core.Item) error, skipErrors bool) *Stream {
	return s.derive(validated(s.seq, validate, skipErrors))
}

func validated(seq *sequence.Sequence[core.Item], validate func(core.Item) error, skipErrors bool) *sequence.Sequence[core.Item] {
	name := seq.Name()
	log := seq.Env().Log()

	return sequence.FlatMap(seq, func(item core.Item) ([]core.Item, error) {
		if err := validate(item); err != nil {
			if !skipErrors {
				return nil, fmt.Errorf("invalid item %v: %w", item, err)
			}
			log.Warnf("%s: skipping invalid item %v: %s", name, item, err)
			return nil, nil
		}
		return []core.Item{item}, nil
	})
}

// Actualize refreshes metadata from the source and materializes the stream
// when it fits under the memory threshold.
func (s *Stream) Actualize() (*Stream, error) {
	if err := s.actualize(); err != nil {
		return nil, err
	}
	return s, nil
}

// ToRecords converts items to records named by the struct, record keys, or
// positional names.
func (s *Stream) ToRecords() *Stream {
	names := s.schema.Names()
	seq := sequence.Map(s.seq, func(item core.Item) (core.Item, error) {
		return core.RecordOf(item, names), nil
	})
	return New(seq, core.KindRecord, nil)
}

// ToRows converts items to plain rows. Records are laid out by the struct
// when one is attached, otherwise in their key order.
func (s *Stream) ToRows() *Stream {
	header := s.schema.Names()
	seq := sequence.Map(s.seq, func(item core.Item) (core.Item, error) {
		return core.RowOf(item, header), nil
	})
	return New(seq, core.KindRow, nil)
}

// StructRows pairs every item with schema, or with the attached struct when
// schema is nil. Records are laid out by the struct names.
func (s *Stream) StructRows(schema *core.Struct) (*Stream, error) {
	if schema == nil {
		schema = s.schema
	}
	if schema == nil {
		return nil, fmt.Errorf("%s: %w", s.Name(), core.ErrMissingStruct)
	}

	header := schema.Names()
	seq := sequence.Map(s.seq, func(item core.Item) (core.Item, error) {
		return core.NewStructRow(schema, core.RowOf(item, header))
	})
	return New(seq, core.KindStructRow, schema), nil
}

// errCursor fails on the first pull.
func errCursor(err error) core.Cursor[core.Item] {
	failed := false
	return builders.NewCursorBuilder[core.Item]().
		WithNextFunc(func() (core.Item, error) {
			failed = true
			return nil, err
		}, func() bool {
			return !failed
		}).
		Build()
}
