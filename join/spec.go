package join

import (
	"errors"
	"fmt"

	"github.com/kndndrj/lazystream/core"
)

// ErrKeyMismatch is returned when the two sides use a different number of
// key fields.
var ErrKeyMismatch = errors.New("left and right join keys differ")

// MergeFunc combines a matched pair into one item. The absent side of an
// unmatched item is nil.
type MergeFunc func(left, right core.Item) (core.Item, error)

// Spec configures both join algorithms.
type Spec struct {
	// LeftKeys are field names, positions or core.Selector functions.
	LeftKeys []any
	// RightKeys default to LeftKeys.
	RightKeys []any
	How       How
	// RightIsUniq makes a duplicate right key an error instead of a bucket.
	RightIsUniq bool
	// Reverse declares both merge join inputs sorted descending.
	Reverse bool
	// Merge overrides the default merge of matched items.
	Merge MergeFunc

	// Structs of the two sides. With both set, StructRows are merged into
	// StructRows of the merged struct; otherwise they merge as plain rows.
	LeftStruct  *core.Struct
	RightStruct *core.Struct
}

func (s Spec) rightKeys() []any {
	if len(s.RightKeys) == 0 {
		return s.LeftKeys
	}
	return s.RightKeys
}

// Validate checks the keys and, when both structs are set, the merged
// struct.
func (s Spec) Validate() error {
	if err := s.validate(); err != nil {
		return err
	}
	_, err := s.Struct()
	return err
}

func (s Spec) validate() error {
	if len(s.LeftKeys) == 0 {
		return fmt.Errorf("no join keys: %w", ErrKeyMismatch)
	}
	if len(s.rightKeys()) != len(s.LeftKeys) {
		return fmt.Errorf("%d left keys, %d right keys: %w", len(s.LeftKeys), len(s.rightKeys()), ErrKeyMismatch)
	}
	return nil
}

// Struct returns the struct of the joined items, or nil when it is not known
// ahead of the join (no structs, or a custom merge function).
func (s Spec) Struct() (*core.Struct, error) {
	if s.Merge != nil || s.LeftStruct == nil || s.RightStruct == nil {
		return nil, nil
	}
	if err := s.validate(); err != nil {
		return nil, err
	}

	drop, err := positions(s.RightStruct, s.rightKeys())
	if err != nil {
		return nil, fmt.Errorf("right key: %w", err)
	}

	fields := s.LeftStruct.Fields()
	for i, f := range s.RightStruct.Fields() {
		if _, ok := drop[i]; ok {
			continue
		}
		if s.LeftStruct.Contains(f.Name) {
			return nil, fmt.Errorf("field %q exists on both sides: %w", f.Name, core.ErrAmbiguousMerge)
		}
		fields = append(fields, f)
	}
	return core.NewStruct(fields...)
}

// positions maps positional keys to their key index. Selector functions
// have no position and are skipped.
func positions(schema *core.Struct, keys []any) (map[int]int, error) {
	out := make(map[int]int, len(keys))
	for i, k := range keys {
		switch k.(type) {
		case core.Selector, func(core.Item) (any, error):
			continue
		}
		if schema == nil {
			if pos, ok := k.(int); ok {
				out[pos] = i
			}
			continue
		}
		pos, err := schema.Resolve(k)
		if err != nil {
			return nil, err
		}
		out[pos] = i
	}
	return out, nil
}
