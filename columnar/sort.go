package columnar

import (
	"fmt"
	"slices"

	"github.com/kndndrj/lazystream/core"
	"github.com/kndndrj/lazystream/core/builders"
	"github.com/kndndrj/lazystream/sequence"
)

type sortConfig struct {
	reverse    bool
	allowLarge bool
}

type SortOption func(*sortConfig)

// SortReverse sorts descending. Items with equal keys keep their order.
func SortReverse() SortOption {
	return func(c *sortConfig) {
		c.reverse = true
	}
}

// SortAllowLarge sorts streams known to be over the memory threshold.
func SortAllowLarge() SortOption {
	return func(c *sortConfig) {
		c.allowLarge = true
	}
}

// Sort reads the whole stream and sorts it by keys, stably. Keys are field
// names, positions or core.Selector functions.
func (s *Stream) Sort(keys []any, opts ...SortOption) (*Stream, error) {
	cfg := &sortConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	threshold := s.env().Threshold()
	if n, ok := s.seq.Count0(); ok && n > threshold && !cfg.allowLarge {
		return nil, fmt.Errorf("%s: sort of %d items, threshold is %d: %w", s.Name(), n, threshold, core.ErrRequiresMemory)
	}

	items, err := s.seq.Collect()
	if err != nil {
		return nil, err
	}

	selectors := core.Selectors(keys...)
	type keyed struct {
		key  core.Key
		item core.Item
	}
	ks := make([]keyed, len(items))
	for i, item := range items {
		key, err := core.KeyOf(item, selectors...)
		if err != nil {
			return nil, fmt.Errorf("%s: sort: %w", s.Name(), err)
		}
		ks[i] = keyed{key: key, item: item}
	}

	slices.SortStableFunc(ks, func(a, b keyed) int {
		if cfg.reverse {
			return b.key.Compare(a.key)
		}
		return a.key.Compare(b.key)
	})

	sorted := make([]core.Item, len(ks))
	for i, k := range ks {
		sorted[i] = k.item
	}
	return s.derive(sequence.FromSlice(sorted,
		sequence.WithName(s.Name()),
		sequence.WithEnv(s.env()),
		sequence.WithSource(s.seq.Source()),
	)), nil
}

// SortedGroupBy groups runs of items with equal keys in a single pass; the
// stream is expected to be sorted on keys already. Every group becomes a row
// of the key values followed by a list of:
//   - the items themselves, without values
//   - the value of one values selector
//   - a row of values for several selectors
func (s *Stream) SortedGroupBy(keys []any, values ...any) *Stream {
	keySel := core.Selectors(keys...)
	valueSel := core.Selectors(values...)

	seq := sequence.Transform(s.seq, func(cur core.Cursor[core.Item]) core.Cursor[core.Item] {
		g := &grouper{
			cur:    cur,
			keys:   keySel,
			values: valueSel,
		}
		return builders.NewCursorBuilder[core.Item]().
			WithNextFunc(g.next, g.hasNext).
			WithCloseFunc(cur.Close).
			Build()
	})
	if n, ok := s.seq.EstimatedCount(); ok {
		seq.SetEstimate(n)
	}
	return New(seq, core.KindRow, nil)
}

// GroupBy is Sort followed by SortedGroupBy.
func (s *Stream) GroupBy(keys []any, values ...any) (*Stream, error) {
	sorted, err := s.Sort(keys)
	if err != nil {
		return nil, err
	}
	return sorted.SortedGroupBy(keys, values...), nil
}

type grouper struct {
	cur    core.Cursor[core.Item]
	keys   []core.Selector
	values []core.Selector

	head    core.Item
	headKey core.Key
	hasHead bool
}

func (g *grouper) hasNext() bool {
	return g.hasHead || g.cur.HasNext()
}

func (g *grouper) advance() error {
	g.head, g.headKey, g.hasHead = nil, nil, false
	if !g.cur.HasNext() {
		return nil
	}
	item, err := g.cur.Next()
	if err != nil {
		return err
	}
	key, err := core.KeyOf(item, g.keys...)
	if err != nil {
		return fmt.Errorf("group key: %w", err)
	}
	g.head, g.headKey, g.hasHead = item, key, true
	return nil
}

func (g *grouper) value(item core.Item) (any, error) {
	switch len(g.values) {
	case 0:
		return item, nil
	case 1:
		return g.values[0](item)
	}
	row, err := core.KeyOf(item, g.values...)
	if err != nil {
		return nil, err
	}
	return core.Row(row), nil
}

func (g *grouper) next() (core.Item, error) {
	if !g.hasHead {
		if err := g.advance(); err != nil {
			return nil, err
		}
		if !g.hasHead {
			return nil, core.ErrNoNext
		}
	}

	key := g.headKey
	var group []any
	for g.hasHead && g.headKey.Equal(key) {
		v, err := g.value(g.head)
		if err != nil {
			return nil, fmt.Errorf("group value: %w", err)
		}
		group = append(group, v)
		if err := g.advance(); err != nil {
			return nil, err
		}
	}

	row := make(core.Row, 0, len(key)+1)
	row = append(row, key...)
	row = append(row, group)
	return row, nil
}
