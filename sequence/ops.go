package sequence

import (
	"github.com/emirpasic/gods/queues/circularbuffer"

	"github.com/kndndrj/lazystream/core"
)

// discard releases a single-pass producer whose items will never be read.
func (s *Sequence[T]) discard() {
	if !s.IsInMemory() {
		s.Close()
	}
}

func identity[T any](cur core.Cursor[T]) core.Cursor[T] { return cur }

// View returns a new handle over the same producer. For single-pass handles
// the producer moves to the view.
func (s *Sequence[T]) View() *Sequence[T] {
	if s.inMemory {
		return s.sliced(s.items)
	}
	child := derive(s, identity[T])
	child.count, child.hasCount = s.count, s.hasCount
	child.estimate, child.hasEstimate = s.estimate, s.hasEstimate
	return child
}

// Once returns a handle over s that can be read a single time, even when s
// itself can be re-read.
func (s *Sequence[T]) Once() *Sequence[T] {
	if !s.IsInMemory() {
		return s
	}
	child := derive(s, identity[T])
	child.restartable = false
	child.count, child.hasCount = s.Count0()
	child.estimate, child.hasEstimate = s.estimate, s.hasEstimate
	return child
}

// Take returns the first n items. A negative n is the same as Tail(-n).
func (s *Sequence[T]) Take(n int) *Sequence[T] {
	switch {
	case n < 0:
		return s.Tail(-n)
	case n == 0:
		s.discard()
		return s.sliced(nil)
	case s.inMemory:
		k := min(n, len(s.items))
		return s.sliced(s.items[:k:k])
	}

	child := derive(s, func(cur core.Cursor[T]) core.Cursor[T] {
		taken := 0
		return newPullCursor(func() (T, bool, error) {
			if taken >= n {
				var zero T
				return zero, false, nil
			}
			item, ok, err := pullFrom(cur)
			if ok && err == nil {
				taken++
			}
			return item, ok, err
		}, cur.Close)
	})

	if s.hasCount {
		child.count, child.hasCount = min(n, s.count), true
	}
	child.estimate, child.hasEstimate = n, true
	if est, ok := s.EstimatedCount(); ok {
		child.estimate = min(n, est)
	}
	return child
}

// Skip drops the first n items.
func (s *Sequence[T]) Skip(n int) *Sequence[T] {
	if n <= 0 {
		return s.View()
	}
	if s.inMemory {
		return s.sliced(s.items[min(n, len(s.items)):])
	}

	child := derive(s, func(cur core.Cursor[T]) core.Cursor[T] {
		skipped := false
		return newPullCursor(func() (T, bool, error) {
			if !skipped {
				skipped = true
				for range n {
					item, ok, err := pullFrom(cur)
					if !ok || err != nil {
						return item, ok, err
					}
				}
			}
			return pullFrom(cur)
		}, cur.Close)
	})

	if s.hasCount {
		child.count, child.hasCount = max(s.count-n, 0), true
	}
	if est, ok := s.EstimatedCount(); ok {
		child.estimate, child.hasEstimate = max(est-n, 0), true
	}
	return child
}

// Tail returns the last n items. A lazy producer is read to the end on the
// first pull, keeping only n items in a ring buffer.
func (s *Sequence[T]) Tail(n int) *Sequence[T] {
	switch {
	case n <= 0:
		s.discard()
		return s.sliced(nil)
	case s.inMemory:
		return s.sliced(s.items[max(len(s.items)-n, 0):])
	}

	child := derive(s, func(cur core.Cursor[T]) core.Cursor[T] {
		var (
			buf    []T
			filled bool
		)
		return newPullCursor(func() (T, bool, error) {
			var zero T
			if !filled {
				filled = true
				ring := circularbuffer.New(n)
				for cur.HasNext() {
					item, err := cur.Next()
					if err != nil {
						return zero, true, err
					}
					ring.Enqueue(item)
				}
				cur.Close()

				for _, v := range ring.Values() {
					buf = append(buf, v.(T))
				}
			}
			if len(buf) == 0 {
				return zero, false, nil
			}
			item := buf[0]
			buf = buf[1:]
			return item, true, nil
		}, cur.Close)
	})

	if s.hasCount {
		child.count, child.hasCount = min(n, s.count), true
	}
	child.estimate, child.hasEstimate = n, true
	if est, ok := s.EstimatedCount(); ok {
		child.estimate = min(n, est)
	}
	return child
}

// Filter keeps the items pred accepts. The count of the result is unknown
// until it is read.
func (s *Sequence[T]) Filter(pred func(T) bool) *Sequence[T] {
	child := derive(s, func(cur core.Cursor[T]) core.Cursor[T] {
		return newPullCursor(func() (T, bool, error) {
			for {
				item, ok, err := pullFrom(cur)
				if !ok || err != nil {
					return item, ok, err
				}
				if pred(item) {
					return item, true, nil
				}
			}
		}, cur.Close)
	})

	if est, ok := s.EstimatedCount(); ok {
		child.estimate, child.hasEstimate = est, true
	}
	return child
}

// Map applies fn to every item. The count is preserved.
func Map[T, U any](s *Sequence[T], fn func(T) (U, error)) *Sequence[U] {
	hasCount := s.inMemory || s.hasCount
	count, _ := s.Count0()
	est, hasEst := s.EstimatedCount()

	child := derive(s, func(cur core.Cursor[T]) core.Cursor[U] {
		return newPullCursor(func() (U, bool, error) {
			var zero U
			item, ok, err := pullFrom(cur)
			if !ok || err != nil {
				return zero, ok, err
			}
			out, err := fn(item)
			if err != nil {
				return zero, true, err
			}
			return out, true, nil
		}, cur.Close)
	})

	child.count, child.hasCount = count, hasCount
	child.estimate, child.hasEstimate = est, hasEst
	return child
}

// FlatMap replaces every item with zero or more items.
func FlatMap[T, U any](s *Sequence[T], fn func(T) ([]U, error)) *Sequence[U] {
	return derive(s, func(cur core.Cursor[T]) core.Cursor[U] {
		var pending []U
		return newPullCursor(func() (U, bool, error) {
			var zero U
			for len(pending) == 0 {
				item, ok, err := pullFrom(cur)
				if !ok || err != nil {
					return zero, ok, err
				}
				pending, err = fn(item)
				if err != nil {
					return zero, true, err
				}
			}
			out := pending[0]
			pending = pending[1:]
			return out, true, nil
		}, cur.Close)
	})
}

// Transform derives a handle whose producer wraps the producer of s. wrap
// runs when the result is read, once per read for in-memory sources.
func Transform[T, U any](s *Sequence[T], wrap func(core.Cursor[T]) core.Cursor[U]) *Sequence[U] {
	return derive(s, wrap)
}
