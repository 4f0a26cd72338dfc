package builders

import (
	"sync"

	"github.com/kndndrj/lazystream/core"
)

var _ core.Cursor[core.Item] = (*Cursor[core.Item])(nil)

// Cursor fills the core.Cursor interface from plain functions.
type Cursor[T any] struct {
	next     func() (T, error)
	hasNext  func() bool
	close    func()
	callback func()
	once     sync.Once
	closed   bool
}

func (c *Cursor[T]) SetCallback(callback func()) {
	c.callback = callback
}

func (c *Cursor[T]) HasNext() bool {
	if c.closed {
		return false
	}
	return c.hasNext()
}

// Next closes the cursor on error.
func (c *Cursor[T]) Next() (T, error) {
	if c.closed {
		var zero T
		return zero, core.ErrNoNext
	}
	item, err := c.next()
	if err != nil {
		c.Close()
		var zero T
		return zero, err
	}
	return item, nil
}

func (c *Cursor[T]) Close() {
	c.once.Do(func() {
		c.closed = true
		c.close()
		if c.callback != nil {
			c.callback()
		}
	})
}

// CursorBuilder builds the cursor
type CursorBuilder[T any] struct {
	next    func() (T, error)
	hasNext func() bool
	close   func()
}

func NewCursorBuilder[T any]() *CursorBuilder[T] {
	next, hasNext := NextNil[T]()
	return &CursorBuilder[T]{
		next:    next,
		hasNext: hasNext,
		close:   func() {},
	}
}

func (b *CursorBuilder[T]) WithNextFunc(fn func() (T, error), has func() bool) *CursorBuilder[T] {
	b.next = fn
	b.hasNext = has
	return b
}

func (b *CursorBuilder[T]) WithCloseFunc(fn func()) *CursorBuilder[T] {
	b.close = fn
	return b
}

func (b *CursorBuilder[T]) Build() *Cursor[T] {
	return &Cursor[T]{
		next:    b.next,
		hasNext: b.hasNext,
		close:   b.close,
	}
}

// SliceCursor is a shorthand for a cursor over an in-memory slice.
func SliceCursor[T any](values []T) *Cursor[T] {
	return NewCursorBuilder[T]().
		WithNextFunc(NextSlice[T, T](values, nil)).
		Build()
}
