package sequence

import (
	"iter"

	"github.com/kndndrj/lazystream/core"
	"github.com/kndndrj/lazystream/core/builders"
)

// pullFunc returns the next value, ok=false at the end. An error is
// terminal for the cursor built on top of it.
type pullFunc[T any] func() (T, bool, error)

// pullCursor turns a pull function into a core.Cursor with one item of
// lookahead, which is what HasNext needs for filtering cursors.
type pullCursor[T any] struct {
	pull    pullFunc[T]
	release func()

	peeked bool
	item   T
	err    error
	done   bool
	closed bool
}

func newPullCursor[T any](pull pullFunc[T], release func()) *pullCursor[T] {
	return &pullCursor[T]{
		pull:    pull,
		release: release,
	}
}

func (c *pullCursor[T]) HasNext() bool {
	if c.peeked {
		return true
	}
	if c.done {
		return false
	}

	item, ok, err := c.pull()
	if err != nil {
		c.err = err
		c.peeked = true
		return true
	}
	if !ok {
		c.done = true
		c.Close()
		return false
	}

	c.item, c.peeked = item, true
	return true
}

func (c *pullCursor[T]) Next() (T, error) {
	var zero T
	if !c.HasNext() {
		return zero, core.ErrNoNext
	}
	c.peeked = false

	if c.err != nil {
		err := c.err
		c.err = nil
		c.done = true
		c.Close()
		return zero, err
	}

	item := c.item
	c.item = zero
	return item, nil
}

func (c *pullCursor[T]) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.done = true
	if c.release != nil {
		c.release()
	}
}

// pullFrom reads one value from an upstream cursor.
func pullFrom[T any](cur core.Cursor[T]) (T, bool, error) {
	var zero T
	if !cur.HasNext() {
		return zero, false, nil
	}
	item, err := cur.Next()
	if err != nil {
		return zero, true, err
	}
	return item, true, nil
}

type sliceCursor[T any] struct {
	items []T
	index int
}

func newSliceCursor[T any](items []T) *sliceCursor[T] {
	return &sliceCursor[T]{items: items}
}

func (c *sliceCursor[T]) HasNext() bool {
	return c.index < len(c.items)
}

func (c *sliceCursor[T]) Next() (T, error) {
	if !c.HasNext() {
		var zero T
		return zero, core.ErrNoNext
	}
	item := c.items[c.index]
	c.index++
	return item, nil
}

func (c *sliceCursor[T]) Close() {
	c.index = len(c.items)
}

// prependCursor replays already pulled values before the rest of a cursor.
type prependCursor[T any] struct {
	head []T
	rest core.Cursor[T]
}

func (c *prependCursor[T]) HasNext() bool {
	return len(c.head) > 0 || c.rest.HasNext()
}

func (c *prependCursor[T]) Next() (T, error) {
	if len(c.head) > 0 {
		item := c.head[0]
		c.head = c.head[1:]
		return item, nil
	}
	return c.rest.Next()
}

func (c *prependCursor[T]) Close() {
	c.head = nil
	c.rest.Close()
}

// trackedCursor reports exhaustion back to the owning sequence.
type trackedCursor[T any] struct {
	core.Cursor[T]
	onDone func(n int, complete bool)
	n      int
	failed bool
	done   bool
}

func (c *trackedCursor[T]) HasNext() bool {
	if c.Cursor.HasNext() {
		return true
	}
	if !c.done {
		c.done = true
		c.onDone(c.n, !c.failed)
	}
	return false
}

func (c *trackedCursor[T]) Next() (T, error) {
	item, err := c.Cursor.Next()
	if err == nil {
		c.n++
	} else {
		c.failed = true
	}
	return item, err
}

// seqCursor pulls from a Go iterator in lock-step with the reader.
func seqCursor[T any](seq iter.Seq[T]) core.Cursor[T] {
	next, hasNext, stop := builders.NextSeq(seq)
	return builders.NewCursorBuilder[T]().
		WithNextFunc(next, hasNext).
		WithCloseFunc(stop).
		Build()
}

func seq2Cursor[T any](seq iter.Seq2[T, error]) core.Cursor[T] {
	next, hasNext, stop := builders.NextSeq2(seq)
	return builders.NewCursorBuilder[T]().
		WithNextFunc(next, hasNext).
		WithCloseFunc(stop).
		Build()
}
