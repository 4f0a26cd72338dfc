package join

import (
	"fmt"

	"github.com/kndndrj/lazystream/core"
)

// Hash joins left with right by consuming right into a Multimap first, so
// right has to fit in memory while left is read lazily, once.
//
// Matched items are emitted in left order, a left item against every item of
// its bucket. With Right or Full, right items whose key no left item matched
// follow after the left side ends, in the order their keys were first seen.
func Hash(left, right core.Cursor[core.Item], spec Spec) (core.Cursor[core.Item], error) {
	table, err := BuildHash(right, spec)
	if err != nil {
		left.Close()
		return nil, err
	}
	return table.Join(left), nil
}

// HashTable is the build side of a hash join.
type HashTable struct {
	mm  *Multimap
	m   *merger
	how How
}

// BuildHash drains right into a hash table. With spec.RightIsUniq a
// duplicate key fails with core.ErrDuplicateKey.
func BuildHash(right core.Cursor[core.Item], spec Spec) (*HashTable, error) {
	m, err := newMerger(spec)
	if err != nil {
		right.Close()
		return nil, fmt.Errorf("join.Hash: %w", err)
	}

	mm, err := BuildMultimap(right, func(item core.Item) (core.Key, error) {
		m.observe(item, false)
		return m.rightKey(item)
	}, spec.RightIsUniq)
	if err != nil {
		return nil, fmt.Errorf("join.Hash: right side: %w", err)
	}

	return &HashTable{mm: mm, m: m, how: spec.How}, nil
}

// Len returns the number of right items.
func (t *HashTable) Len() int { return t.mm.Len() }

// Join streams left through the table. Each call tracks matched keys on
// its own, so several results may be read at the same time.
func (t *HashTable) Join(left core.Cursor[core.Item]) core.Cursor[core.Item] {
	return newHashCursor(left, t.mm, t.m, t.how)
}

func newHashCursor(left core.Cursor[core.Item], mm *Multimap, m *merger, how How) *cursor {
	leftDone := false
	tail := 0
	matched := make([]bool, len(mm.Buckets()))

	leftClosed := false
	closeLeft := func() {
		if !leftClosed {
			leftClosed = true
			left.Close()
		}
	}

	fill := func() ([]core.Item, bool, error) {
		if !leftDone {
			if !left.HasNext() {
				leftDone = true
				closeLeft()
				return nil, false, nil
			}
			l, err := left.Next()
			if err != nil {
				return nil, false, fmt.Errorf("join.Hash: left side: %w", err)
			}
			m.observe(l, true)

			key, err := m.leftKey(l)
			if err != nil {
				return nil, false, fmt.Errorf("join.Hash: %w", err)
			}

			b := mm.Get(key)
			if b == nil {
				if !how.keepsLeft() {
					return nil, false, nil
				}
				out, err := m.merge(key, l, nil)
				if err != nil {
					return nil, false, fmt.Errorf("join.Hash: %w", err)
				}
				return []core.Item{out}, false, nil
			}

			matched[b.pos] = true
			batch := make([]core.Item, 0, len(b.Items))
			for _, r := range b.Items {
				out, err := m.merge(key, l, r)
				if err != nil {
					return nil, false, fmt.Errorf("join.Hash: %w", err)
				}
				batch = append(batch, out)
			}
			return batch, false, nil
		}

		if !how.keepsRight() {
			return nil, true, nil
		}

		buckets := mm.Buckets()
		for tail < len(buckets) {
			b := buckets[tail]
			tail++
			if matched[b.pos] {
				continue
			}
			batch := make([]core.Item, 0, len(b.Items))
			for _, r := range b.Items {
				out, err := m.merge(b.Key, nil, r)
				if err != nil {
					return nil, false, fmt.Errorf("join.Hash: %w", err)
				}
				batch = append(batch, out)
			}
			return batch, false, nil
		}
		return nil, true, nil
	}

	return &cursor{
		fill:    fill,
		release: closeLeft,
	}
}
