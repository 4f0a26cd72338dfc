package sequence

import (
	"fmt"

	"github.com/emirpasic/gods/queues/linkedlistqueue"

	"github.com/kndndrj/lazystream/core"
)

type teeEntry[T any] struct {
	item T
	err  error
}

// tee fans one single-pass producer out to several readers. Every reader has
// its own queue holding the items it did not see yet; items are appended
// only to queues of branches which are still open.
type tee[T any] struct {
	open    func() (core.Cursor[T], error)
	release func()

	src     core.Cursor[T]
	err     error
	started bool
	srcDone bool

	queues []*linkedlistqueue.Queue
	live   int
}

func (t *tee[T]) start() error {
	if t.started {
		return t.err
	}
	t.started = true
	t.src, t.err = t.open()
	return t.err
}

func (t *tee[T]) pull(i int) (T, bool, error) {
	var zero T

	q := t.queues[i]
	if q == nil {
		return zero, false, nil
	}
	if v, ok := q.Dequeue(); ok {
		entry := v.(teeEntry[T])
		return entry.item, true, entry.err
	}
	if t.srcDone {
		return zero, false, nil
	}

	item, ok, err := pullFrom(t.src)
	if !ok {
		t.srcDone = true
		return zero, false, nil
	}
	for j, other := range t.queues {
		if j != i && other != nil {
			other.Enqueue(teeEntry[T]{item: item, err: err})
		}
	}
	return item, true, err
}

func (t *tee[T]) closeBranch(i int) {
	if t.queues[i] == nil {
		return
	}
	t.queues[i].Clear()
	t.queues[i] = nil
	t.live--

	if t.live > 0 {
		return
	}
	if t.src != nil {
		t.src.Close()
		return
	}
	if t.release != nil {
		t.release()
	}
}

func (t *tee[T]) size(i int) int {
	if t.queues[i] == nil {
		return 0
	}
	return t.queues[i].Size()
}

// Tee returns n independent handles which yield the same items in the same
// order. For in-memory handles the branches share the items; for single-pass
// ones every branch buffers only what it lags behind the fastest reader.
func (s *Sequence[T]) Tee(n int) []*Sequence[T] {
	if n <= 0 {
		return nil
	}

	branches := make([]*Sequence[T], n)
	if s.IsInMemory() {
		for i := range branches {
			branches[i] = s.View()
		}
		return branches
	}

	open, _ := s.handOff()
	t := &tee[T]{
		open:    open,
		release: s.Close,
		queues:  make([]*linkedlistqueue.Queue, n),
		live:    n,
	}
	for i := range t.queues {
		t.queues[i] = linkedlistqueue.New()
	}

	for i := range branches {
		b := &Sequence[T]{
			name:        fmt.Sprintf("%s[%d]", s.name, i),
			env:         s.env,
			source:      s.source,
			count:       s.count,
			hasCount:    s.hasCount,
			estimate:    s.estimate,
			hasEstimate: s.hasEstimate,
		}
		b.open = func() (core.Cursor[T], error) {
			if err := t.start(); err != nil {
				return nil, err
			}
			return newPullCursor(func() (T, bool, error) {
				return t.pull(i)
			}, func() {
				t.closeBranch(i)
			}), nil
		}
		b.release = func() { t.closeBranch(i) }
		b.buffered = func() int { return t.size(i) }
		branches[i] = b
	}
	return branches
}

// SplitByPosition splits the items into the first n and the rest.
func (s *Sequence[T]) SplitByPosition(n int) (*Sequence[T], *Sequence[T]) {
	n = max(n, 0)
	b := s.Tee(2)
	return b[0].Take(n), b[1].Skip(n)
}

// SplitByPositions splits the items at every given position. Positions must
// be non-negative and non-decreasing; k positions give k+1 parts.
func (s *Sequence[T]) SplitByPositions(positions ...int) ([]*Sequence[T], error) {
	prev := 0
	for _, p := range positions {
		if p < prev {
			return nil, fmt.Errorf("split positions must be non-decreasing and non-negative, got %v: %w", positions, core.ErrOutOfRange)
		}
		prev = p
	}

	branches := s.Tee(len(positions) + 1)
	parts := make([]*Sequence[T], len(branches))
	start := 0
	for i, b := range branches {
		part := b.Skip(start)
		if i < len(positions) {
			part = part.Take(positions[i] - start)
			start = positions[i]
		}
		parts[i] = part
	}
	return parts, nil
}

// SplitByPredicate returns the items pred accepts and the ones it rejects.
// pred runs once per item.
func (s *Sequence[T]) SplitByPredicate(pred func(T) bool) (*Sequence[T], *Sequence[T]) {
	parts := s.SplitByClassifier(func(item T) int {
		if pred(item) {
			return 0
		}
		return 1
	}, 2)
	return parts[0], parts[1]
}

type classified[T any] struct {
	item  T
	class int
}

// SplitByClassifier returns k parts; an item goes to the part its class
// points to. Items classified outside of [0, k) are dropped. classify runs
// once per item: parts of a single-pass or reopened producer share one
// tee of classified items, so they can be read only once.
func (s *Sequence[T]) SplitByClassifier(classify func(T) int, k int) []*Sequence[T] {
	if k <= 0 {
		return nil
	}
	if s.inMemory {
		return s.splitItems(classify, k)
	}

	pairs := Map(s.Once(), func(item T) (classified[T], error) {
		return classified[T]{item: item, class: classify(item)}, nil
	})
	branches := pairs.Tee(k)
	parts := make([]*Sequence[T], k)
	for i, b := range branches {
		matching := b.Filter(func(c classified[T]) bool { return c.class == i })
		parts[i] = Map(matching, func(c classified[T]) (T, error) { return c.item, nil })
	}
	return parts
}

// splitItems classifies the items on the first read of any part; the parts
// stay re-readable.
func (s *Sequence[T]) splitItems(classify func(T) int, k int) []*Sequence[T] {
	var split [][]T
	classifyAll := func() {
		if split != nil {
			return
		}
		split = make([][]T, k)
		for _, item := range s.items {
			if c := classify(item); c >= 0 && c < k {
				split[c] = append(split[c], item)
			}
		}
	}

	parts := make([]*Sequence[T], k)
	for i := range parts {
		part := FromFunc(func() (core.Cursor[T], error) {
			classifyAll()
			return newSliceCursor(split[i]), nil
		}, WithName(fmt.Sprintf("%s[%d]", s.name, i)), WithEnv(s.env))
		part.source = s.source
		parts[i] = part
	}
	return parts
}
