package builders

import (
	"iter"

	"github.com/kndndrj/lazystream/core"
)

// NextSlice creates next and hasNext functions from provided values.
// preprocess is optional and converts a value before it is returned.
func NextSlice[T, U any](values []T, preprocess func(T) U) (func() (U, error), func() bool) {
	index := 0

	hasNext := func() bool {
		return index < len(values)
	}

	// iterator functions
	next := func() (U, error) {
		if !hasNext() {
			var zero U
			return zero, core.ErrNoNext
		}

		v := values[index]
		index++
		if preprocess == nil {
			return any(v).(U), nil
		}
		return preprocess(v), nil
	}

	return next, hasNext
}

// NextNil creates next and hasNext functions that don't return anything
func NextNil[T any]() (func() (T, error), func() bool) {
	hasNext := func() bool {
		return false
	}

	next := func() (T, error) {
		var zero T
		return zero, core.ErrNoNext
	}

	return next, hasNext
}

// NextSeq creates next and hasNext functions from an iterator. The iterator
// runs in lock-step with the caller: nothing is computed ahead of a pull.
// stop must be called if the iterator is abandoned before it is drained.
func NextSeq[T any](seq iter.Seq[T]) (next func() (T, error), hasNext func() bool, stop func()) {
	pull, stop := iter.Pull(seq)

	var (
		peeked bool
		done   bool
		value  T
	)

	hasNext = func() bool {
		if peeked {
			return true
		}
		if done {
			return false
		}
		v, ok := pull()
		if !ok {
			done = true
			stop()
			return false
		}
		value, peeked = v, true
		return true
	}

	next = func() (T, error) {
		if !hasNext() {
			var zero T
			return zero, core.ErrNoNext
		}
		peeked = false
		return value, nil
	}

	return next, hasNext, stop
}

// NextSeq2 is NextSeq for iterators that yield errors alongside values. An
// error is returned by next at the position it was yielded.
func NextSeq2[T any](seq iter.Seq2[T, error]) (next func() (T, error), hasNext func() bool, stop func()) {
	pull, stop := iter.Pull2(seq)

	var (
		peeked bool
		done   bool
		value  T
		err    error
	)

	hasNext = func() bool {
		if peeked {
			return true
		}
		if done {
			return false
		}
		v, e, ok := pull()
		if !ok {
			done = true
			stop()
			return false
		}
		value, err, peeked = v, e, true
		return true
	}

	next = func() (T, error) {
		if !hasNext() {
			var zero T
			return zero, core.ErrNoNext
		}
		peeked = false
		if err != nil {
			var zero T
			return zero, err
		}
		return value, nil
	}

	return next, hasNext, stop
}
