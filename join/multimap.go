package join

import (
	"fmt"

	"github.com/kndndrj/lazystream/core"
)

// Bucket holds the items sharing one key, in arrival order.
type Bucket struct {
	Key   core.Key
	Items []core.Item

	pos int // index in first-seen order
}

// Multimap groups items by key. Keys are hashed with core.Key.Hash and
// compared exactly inside a hash slot, so equal keys of different numeric
// types land in the same bucket.
type Multimap struct {
	slots map[uint64][]*Bucket
	order []*Bucket
	uniq  bool
	size  int
}

// NewMultimap returns an empty multimap. With uniq set, adding a second item
// under an existing key fails with core.ErrDuplicateKey.
func NewMultimap(uniq bool) *Multimap {
	return &Multimap{
		slots: make(map[uint64][]*Bucket),
		uniq:  uniq,
	}
}

func (m *Multimap) Add(key core.Key, item core.Item) error {
	b := m.Get(key)
	if b == nil {
		b = &Bucket{Key: key, pos: len(m.order)}
		h := key.Hash()
		m.slots[h] = append(m.slots[h], b)
		m.order = append(m.order, b)
	} else if m.uniq {
		return fmt.Errorf("key %v: %w", key, core.ErrDuplicateKey)
	}
	b.Items = append(b.Items, item)
	m.size++
	return nil
}

// Get returns the bucket of key or nil.
func (m *Multimap) Get(key core.Key) *Bucket {
	for _, b := range m.slots[key.Hash()] {
		if b.Key.Equal(key) {
			return b
		}
	}
	return nil
}

// Buckets returns the buckets in the order their keys were first seen.
func (m *Multimap) Buckets() []*Bucket { return m.order }

// Len returns the number of items.
func (m *Multimap) Len() int { return m.size }

// BuildMultimap drains cur into a multimap and closes it.
func BuildMultimap(cur core.Cursor[core.Item], keyFn func(core.Item) (core.Key, error), uniq bool) (*Multimap, error) {
	defer cur.Close()

	m := NewMultimap(uniq)
	for cur.HasNext() {
		item, err := cur.Next()
		if err != nil {
			return nil, err
		}
		key, err := keyFn(item)
		if err != nil {
			return nil, err
		}
		if err := m.Add(key, item); err != nil {
			return nil, err
		}
	}
	return m, nil
}
