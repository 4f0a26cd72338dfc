package columnar

import (
	"fmt"

	"github.com/kndndrj/lazystream/core"
	"github.com/kndndrj/lazystream/join"
	"github.com/kndndrj/lazystream/sequence"
)

// fillStructs defaults the join structs to the ones attached to the sides.
func (s *Stream) fillStructs(right Handle, spec join.Spec) join.Spec {
	if spec.LeftStruct == nil && s.kind == core.KindStructRow {
		spec.LeftStruct = s.schema
	}
	if spec.RightStruct == nil && right.Kind() == core.KindStructRow {
		spec.RightStruct = right.Struct()
	}
	return spec
}

func (s *Stream) joinedKind(right Handle, spec join.Spec, schema *core.Struct) core.Kind {
	switch {
	case spec.Merge != nil:
		return core.KindAny
	case schema != nil:
		return core.KindStructRow
	case s.kind == core.KindRecord && right.Kind() == core.KindRecord:
		return core.KindRecord
	case s.kind == core.KindStructRow || s.kind == core.KindRow:
		return core.KindRow
	default:
		return core.KindAny
	}
}

// MapSideJoin joins with right through a hash table. right is read into
// memory right away; this stream stays lazy.
func (s *Stream) MapSideJoin(right Handle, spec join.Spec) (*Stream, error) {
	spec = s.fillStructs(right, spec)
	schema, err := spec.Struct()
	if err != nil {
		return nil, fmt.Errorf("%s: map side join: %w", s.Name(), err)
	}

	rightCur, err := right.Sequence().Iter()
	if err != nil {
		return nil, fmt.Errorf("%s: map side join: %w", s.Name(), err)
	}
	table, err := join.BuildHash(rightCur, spec)
	if err != nil {
		return nil, fmt.Errorf("%s: map side join: %w", s.Name(), err)
	}
	s.env().Log().Debugf("%s: hash table of %d items built from %s", s.Name(), table.Len(), right.Name())

	seq := sequence.Transform(s.seq, table.Join)
	return New(seq, s.joinedKind(right, spec, schema), schema), nil
}

// MergeJoin joins with right in one pass over both; the two streams must be
// sorted on their keys. Nothing is read until the result is. When right can
// be read only once, so can the result.
func (s *Stream) MergeJoin(right Handle, spec join.Spec) (*Stream, error) {
	spec = s.fillStructs(right, spec)
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("%s: merge join: %w", s.Name(), err)
	}
	schema, _ := spec.Struct()

	rightSeq := right.Sequence().View()
	seq := sequence.Transform(s.seq, func(left core.Cursor[core.Item]) core.Cursor[core.Item] {
		rightCur, err := rightSeq.Iter()
		if err != nil {
			left.Close()
			return errCursor(err)
		}
		cur, err := join.Merge(left, rightCur, spec)
		if err != nil {
			return errCursor(err)
		}
		return cur
	})
	if !rightSeq.IsInMemory() {
		seq = seq.Once()
	}
	return New(seq, s.joinedKind(right, spec, schema), schema), nil
}
