package join

import (
	"fmt"

	"github.com/kndndrj/lazystream/core"
)

// UnsortedInputError reports a pair of consecutive keys violating the
// declared order of a merge join input.
type UnsortedInputError struct {
	Side string
	Prev core.Key
	Next core.Key
}

func (e *UnsortedInputError) Error() string {
	return fmt.Sprintf("%s input is not sorted: key %v followed by %v", e.Side, e.Prev.Unwrap(), e.Next.Unwrap())
}

func (e *UnsortedInputError) Unwrap() error {
	return core.ErrUnsortedInput
}

// sortedSide reads one merge join input a key group at a time and checks
// that consecutive keys keep the declared order.
type sortedSide struct {
	name    string
	cur     core.Cursor[core.Item]
	keyFn   func(core.Item) (core.Key, error)
	observe func(core.Item)
	reverse bool

	head    core.Item
	headKey core.Key
	hasHead bool
	prev    core.Key
	hasPrev bool
	closed  bool
}

func (s *sortedSide) peek() (core.Key, bool, error) {
	if s.hasHead {
		return s.headKey, true, nil
	}
	if s.closed || !s.cur.HasNext() {
		s.close()
		return nil, false, nil
	}

	item, err := s.cur.Next()
	if err != nil {
		return nil, false, fmt.Errorf("%s side: %w", s.name, err)
	}
	s.observe(item)
	key, err := s.keyFn(item)
	if err != nil {
		return nil, false, err
	}

	if s.hasPrev {
		c := s.prev.Compare(key)
		if s.reverse {
			c = -c
		}
		if c > 0 {
			return nil, false, &UnsortedInputError{Side: s.name, Prev: s.prev, Next: key}
		}
	}
	s.prev, s.hasPrev = key, true
	s.head, s.headKey, s.hasHead = item, key, true
	return key, true, nil
}

// group takes the run of items sharing the head key.
func (s *sortedSide) group() ([]core.Item, core.Key, error) {
	key, ok, err := s.peek()
	if err != nil || !ok {
		return nil, nil, err
	}

	var items []core.Item
	for {
		items = append(items, s.head)
		s.head, s.headKey, s.hasHead = nil, nil, false

		next, ok, err := s.peek()
		if err != nil {
			return nil, nil, err
		}
		if !ok || !next.Equal(key) {
			return items, key, nil
		}
	}
}

func (s *sortedSide) close() {
	if s.closed {
		return
	}
	s.closed = true
	s.cur.Close()
}

// Merge joins two inputs sorted on their keys (ascending, or descending with
// Reverse) in a single pass, buffering one key group per side. Order is
// checked between consecutive keys only; a violation fails with
// *UnsortedInputError.
//
// Within a matched group the output is left-major.
func Merge(left, right core.Cursor[core.Item], spec Spec) (core.Cursor[core.Item], error) {
	m, err := newMerger(spec)
	if err != nil {
		left.Close()
		right.Close()
		return nil, fmt.Errorf("join.Merge: %w", err)
	}

	l := &sortedSide{
		name:    "left",
		cur:     left,
		keyFn:   m.leftKey,
		observe: func(item core.Item) { m.observe(item, true) },
		reverse: spec.Reverse,
	}
	r := &sortedSide{
		name:    "right",
		cur:     right,
		keyFn:   m.rightKey,
		observe: func(item core.Item) { m.observe(item, false) },
		reverse: spec.Reverse,
	}
	how := spec.How

	emit := func(key core.Key, lg, rg []core.Item) ([]core.Item, error) {
		var batch []core.Item
		switch {
		case len(rg) == 0:
			for _, li := range lg {
				out, err := m.merge(key, li, nil)
				if err != nil {
					return nil, err
				}
				batch = append(batch, out)
			}
		case len(lg) == 0:
			for _, ri := range rg {
				out, err := m.merge(key, nil, ri)
				if err != nil {
					return nil, err
				}
				batch = append(batch, out)
			}
		default:
			for _, li := range lg {
				for _, ri := range rg {
					out, err := m.merge(key, li, ri)
					if err != nil {
						return nil, err
					}
					batch = append(batch, out)
				}
			}
		}
		return batch, nil
	}

	fill := func() ([]core.Item, bool, error) {
		lk, lok, err := l.peek()
		if err != nil {
			return nil, false, fmt.Errorf("join.Merge: %w", err)
		}
		rk, rok, err := r.peek()
		if err != nil {
			return nil, false, fmt.Errorf("join.Merge: %w", err)
		}

		var (
			c      int
			lg, rg []core.Item
			key    core.Key
		)
		switch {
		case !lok && !rok:
			return nil, true, nil
		case !rok:
			c = -1
		case !lok:
			c = 1
		default:
			c = lk.Compare(rk)
			if spec.Reverse {
				c = -c
			}
		}

		if c <= 0 {
			lg, key, err = l.group()
			if err != nil {
				return nil, false, fmt.Errorf("join.Merge: %w", err)
			}
		}
		if c >= 0 {
			rg, key, err = r.group()
			if err != nil {
				return nil, false, fmt.Errorf("join.Merge: %w", err)
			}
		}

		if (c < 0 && !how.keepsLeft()) || (c > 0 && !how.keepsRight()) {
			return nil, false, nil
		}
		batch, err := emit(key, lg, rg)
		if err != nil {
			return nil, false, fmt.Errorf("join.Merge: %w", err)
		}
		return batch, false, nil
	}

	return &cursor{
		fill: fill,
		release: func() {
			l.close()
			r.close()
		},
	}, nil
}
