// Package sequence implements a lazy, pull-based sequence handle.
//
// A Sequence wraps one producer of values: either an in-memory slice, which
// can be read any number of times, or a single-pass cursor, which can be read
// exactly once. Composition (Take, Skip, Filter, Map, Tee, ...) builds new
// handles without pulling anything; pulling happens only when a terminal
// operation (Iter, Collect, Count, ForEach, Reduce) drives the chain. There
// are no background goroutines: a pull blocks the caller until the upstream
// producer computes the next value, and dropping a partially read handle is
// always safe.
package sequence

import (
	"fmt"
	"iter"
	"slices"
	"strconv"

	"github.com/google/uuid"

	"github.com/kndndrj/lazystream/core"
)

// State of a handle: Fresh -> Iterating -> {Exhausted | Materialized}.
type State int

const (
	StateFresh State = iota
	StateIterating
	StateExhausted
	StateMaterialized
)

func (s State) String() string {
	switch s {
	case StateFresh:
		return "fresh"
	case StateIterating:
		return "iterating"
	case StateExhausted:
		return "exhausted"
	case StateMaterialized:
		return "materialized"
	default:
		return "unknown"
	}
}

// Sequence is a handle over a producer of T plus metadata.
type Sequence[T any] struct {
	name   string
	env    *core.Env
	source core.Source

	items    []T
	inMemory bool

	open        func() (core.Cursor[T], error)
	restartable bool
	consumed    bool
	handedOff   bool
	release     func()
	buffered    func() int

	count       int
	hasCount    bool
	estimate    int
	hasEstimate bool

	state State
}

func newSequence[T any](opts []Option) *Sequence[T] {
	config := &config{}
	for _, opt := range opts {
		opt(config)
	}

	s := &Sequence[T]{
		name:        config.name,
		env:         config.env,
		source:      config.source,
		count:       config.count,
		hasCount:    config.hasCount,
		estimate:    config.estimate,
		hasEstimate: config.hasEstimate,
	}
	if s.name == "" {
		s.name = s.env.Prefix() + "-" + uuid.NewString()[:8]
	}
	return s
}

// FromSlice wraps an in-memory slice. The handle is restartable and its
// count is exact.
func FromSlice[T any](items []T, opts ...Option) *Sequence[T] {
	s := newSequence[T](opts)
	s.setItems(items)
	return s
}

// FromCursor wraps a single-pass producer.
func FromCursor[T any](cur core.Cursor[T], opts ...Option) *Sequence[T] {
	s := newSequence[T](opts)
	s.open = func() (core.Cursor[T], error) {
		return cur, nil
	}
	s.release = cur.Close
	return s
}

// FromFunc wraps a producer that can be reopened; every read calls open.
func FromFunc[T any](open func() (core.Cursor[T], error), opts ...Option) *Sequence[T] {
	s := newSequence[T](opts)
	s.open = open
	s.restartable = true
	return s
}

// FromSeq wraps a Go iterator as a single-pass producer.
func FromSeq[T any](seq iter.Seq[T], opts ...Option) *Sequence[T] {
	return FromCursor(seqCursor(seq), opts...)
}

// FromSeq2 wraps an iterator of values and errors, the shape All returns. An
// error fails the read at the position it was yielded.
func FromSeq2[T any](seq iter.Seq2[T, error], opts ...Option) *Sequence[T] {
	return FromCursor(seq2Cursor(seq), opts...)
}

// Empty returns an in-memory sequence with no items.
func Empty[T any](opts ...Option) *Sequence[T] {
	return FromSlice[T](nil, opts...)
}

func (s *Sequence[T]) setItems(items []T) {
	s.items = items
	s.inMemory = true
	s.open = nil
	s.release = nil
	s.consumed = false
	s.count, s.hasCount = len(items), true
	s.state = StateMaterialized
}

// sliced returns an in-memory handle sharing metadata with s.
func (s *Sequence[T]) sliced(items []T) *Sequence[T] {
	c := &Sequence[T]{
		name:   s.name,
		env:    s.env,
		source: s.source,
	}
	c.setItems(items)
	return c
}

func (s *Sequence[T]) Name() string         { return s.name }
func (s *Sequence[T]) SetName(name string)  { s.name = name }
func (s *Sequence[T]) Env() *core.Env       { return s.env }
func (s *Sequence[T]) SetEnv(env *core.Env) { s.env = env }
func (s *Sequence[T]) Source() core.Source  { return s.source }

func (s *Sequence[T]) SetSource(src core.Source) { s.source = src }

func (s *Sequence[T]) State() State { return s.state }

// IsInMemory reports whether the handle is backed by an in-memory sequence,
// directly or through lazy transformations. Such handles can be re-read.
func (s *Sequence[T]) IsInMemory() bool {
	return s.inMemory || s.restartable
}

// IsMaterialized reports whether the items are held by the handle itself.
func (s *Sequence[T]) IsMaterialized() bool {
	return s.inMemory
}

// SetCount records an exact count hint. Ignored for materialized handles.
func (s *Sequence[T]) SetCount(n int) {
	if s.inMemory {
		return
	}
	s.count, s.hasCount = n, true
}

// SetEstimate records an upper bound hint.
func (s *Sequence[T]) SetEstimate(n int) {
	s.estimate, s.hasEstimate = n, true
}

// Count returns the exact count if it is known. Handles backed by memory
// recompute it by exhaustion; single-pass handles never pull for it.
func (s *Sequence[T]) Count() (int, bool) {
	switch {
	case s.inMemory:
		return len(s.items), true
	case s.hasCount:
		return s.count, true
	case s.restartable:
		n := 0
		if err := s.ForEach(func(T) error { n++; return nil }); err != nil {
			return 0, false
		}
		s.count, s.hasCount = n, true
		return n, true
	default:
		return 0, false
	}
}

// EstimatedCount returns the exact count when known, otherwise the upper
// bound hint. It never pulls.
func (s *Sequence[T]) EstimatedCount() (int, bool) {
	switch {
	case s.inMemory:
		return len(s.items), true
	case s.hasCount:
		return s.count, true
	case s.hasEstimate:
		return s.estimate, true
	default:
		return 0, false
	}
}

// Buffered returns the number of items a tee branch holds for its reader.
func (s *Sequence[T]) Buffered() int {
	if s.buffered == nil {
		return 0
	}
	return s.buffered()
}

// Iter returns a cursor over the items. In-memory handles return a fresh
// cursor on every call; single-pass handles fail with
// core.ErrAlreadyConsumed on the second call.
func (s *Sequence[T]) Iter() (core.Cursor[T], error) {
	if s.handedOff {
		return nil, fmt.Errorf("%s: %w", s.name, core.ErrAlreadyConsumed)
	}
	return s.iter()
}

func (s *Sequence[T]) iter() (core.Cursor[T], error) {
	if s.inMemory {
		return newSliceCursor(s.items), nil
	}
	if !s.restartable {
		if s.consumed {
			return nil, fmt.Errorf("%s: %w", s.name, core.ErrAlreadyConsumed)
		}
		s.consumed = true
	}

	cur, err := s.open()
	if err != nil {
		return nil, err
	}
	s.state = StateIterating

	return &trackedCursor[T]{
		Cursor: cur,
		onDone: s.finish,
	}, nil
}

func (s *Sequence[T]) finish(n int, complete bool) {
	if s.inMemory {
		return
	}
	if s.restartable {
		s.state = StateFresh
	} else {
		s.state = StateExhausted
	}
	if complete && !s.hasCount {
		s.count, s.hasCount = n, true
	}
}

// handOff gives the producer to a derived handle. In-memory producers are
// shared; single-pass ones move, and the receiver is consumed afterwards.
func (s *Sequence[T]) handOff() (func() (core.Cursor[T], error), bool) {
	if s.inMemory || s.restartable {
		return s.iter, true
	}
	if s.consumed || s.handedOff {
		name := s.name
		return func() (core.Cursor[T], error) {
			return nil, fmt.Errorf("%s: %w", name, core.ErrAlreadyConsumed)
		}, false
	}

	s.handedOff = true
	return s.iter, false
}

// derive builds a lazy handle reading from s through wrap.
func derive[T, U any](s *Sequence[T], wrap func(core.Cursor[T]) core.Cursor[U]) *Sequence[U] {
	open, restartable := s.handOff()

	child := &Sequence[U]{
		name:        s.name,
		env:         s.env,
		source:      s.source,
		restartable: restartable,
	}
	child.open = func() (core.Cursor[U], error) {
		cur, err := open()
		if err != nil {
			return nil, err
		}
		return wrap(cur), nil
	}
	if !restartable {
		child.release = s.Close
	}
	return child
}

// Collect drives the producer to exhaustion and keeps the items: the handle
// is materialized afterwards and can be re-read.
func (s *Sequence[T]) Collect() ([]T, error) {
	if s.inMemory {
		return s.items, nil
	}

	cur, err := s.Iter()
	if err != nil {
		return nil, err
	}
	defer cur.Close()

	var items []T
	if n, ok := s.EstimatedCount(); ok && n <= s.env.Threshold() {
		items = make([]T, 0, n)
	}
	for cur.HasNext() {
		item, err := cur.Next()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.name, err)
		}
		items = append(items, item)
	}

	s.setItems(items)
	return items, nil
}

// Peek returns up to n leading items without consuming the handle.
func (s *Sequence[T]) Peek(n int) ([]T, error) {
	if n <= 0 {
		return nil, nil
	}
	if s.inMemory {
		return slices.Clone(s.items[:min(n, len(s.items))]), nil
	}
	if s.handedOff || s.consumed {
		return nil, fmt.Errorf("%s: %w", s.name, core.ErrAlreadyConsumed)
	}

	cur, err := s.open()
	if err != nil {
		return nil, err
	}

	var head []T
	for len(head) < n && cur.HasNext() {
		item, err := cur.Next()
		if err != nil {
			cur.Close()
			s.consumed = true
			return nil, fmt.Errorf("%s: %w", s.name, err)
		}
		head = append(head, item)
	}

	if s.restartable {
		cur.Close()
		return head, nil
	}

	// replay the pulled items in front of the remaining ones
	replay := slices.Clone(head)
	s.open = func() (core.Cursor[T], error) {
		return &prependCursor[T]{head: replay, rest: cur}, nil
	}
	s.release = cur.Close
	return head, nil
}

// ForEach calls fn for every item, stopping at the first error.
func (s *Sequence[T]) ForEach(fn func(T) error) error {
	cur, err := s.Iter()
	if err != nil {
		return err
	}
	defer cur.Close()

	for cur.HasNext() {
		item, err := cur.Next()
		if err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
		if err := fn(item); err != nil {
			return err
		}
	}
	return nil
}

// All returns an iterator over the items. A read error is yielded once as the
// last pair.
func (s *Sequence[T]) All() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		cur, err := s.Iter()
		if err != nil {
			yield(zero, err)
			return
		}
		defer cur.Close()

		for cur.HasNext() {
			item, err := cur.Next()
			if err != nil {
				yield(zero, err)
				return
			}
			if !yield(item, nil) {
				return
			}
		}
	}
}

// Reduce folds the items into an accumulator.
func Reduce[T, A any](s *Sequence[T], init A, fn func(A, T) (A, error)) (A, error) {
	acc := init
	err := s.ForEach(func(item T) error {
		var err error
		acc, err = fn(acc, item)
		return err
	})
	return acc, err
}

// Close releases the producer and any buffered tee state. Dropping a handle
// without closing it is safe as well.
func (s *Sequence[T]) Close() {
	if s.release != nil {
		release := s.release
		s.release = nil
		release()
	}
	if !s.inMemory && !s.restartable {
		s.consumed = true
	}
}

func (s *Sequence[T]) Describe() string {
	src := "<none>"
	if s.source != nil {
		src = s.source.Name()
	}
	return fmt.Sprintf("Sequence(name=%q, state=%s, count=%s, estimate=%s, in_memory=%t, source=%s)",
		s.name, s.state, optInt(s.Count0()), optInt(s.EstimatedCount()), s.IsInMemory(), src)
}

// Count0 is Count without recomputation: it reports only what is already
// known.
func (s *Sequence[T]) Count0() (int, bool) {
	if s.inMemory {
		return len(s.items), true
	}
	return s.count, s.hasCount
}

func optInt(n int, ok bool) string {
	if !ok {
		return "unknown"
	}
	return strconv.Itoa(n)
}
