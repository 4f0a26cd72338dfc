package join

import (
	"fmt"

	"github.com/kndndrj/lazystream/core"
)

// merger combines matched and unmatched items. Rows keep the left row and
// append the right row without its key positions; right-only rows get the
// key values at the left key positions. Records are united, dropping the
// right key fields.
type merger struct {
	spec     Spec
	leftSel  []core.Selector
	rightSel []core.Selector

	leftKeys  map[int]int // left position -> key index
	rightKeys map[int]int // right position -> key index

	leftNames  []string // record name of every left key, "" if not a name
	rightNames map[string]struct{}

	leftWidth  int
	rightWidth int

	schema *core.Struct
}

func newMerger(spec Spec) (*merger, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}

	m := &merger{
		spec:       spec,
		leftSel:    core.Selectors(spec.LeftKeys...),
		rightSel:   core.Selectors(spec.rightKeys()...),
		leftNames:  make([]string, len(spec.LeftKeys)),
		rightNames: make(map[string]struct{}),
	}
	if spec.Merge != nil {
		return m, nil
	}

	for i, k := range spec.LeftKeys {
		if name, ok := k.(string); ok {
			m.leftNames[i] = name
		}
	}
	for _, k := range spec.rightKeys() {
		if name, ok := k.(string); ok {
			m.rightNames[name] = struct{}{}
		}
	}

	var err error
	m.schema, err = spec.Struct()
	if err != nil {
		return nil, err
	}

	m.leftKeys, err = positions(spec.LeftStruct, spec.LeftKeys)
	if err != nil {
		return nil, fmt.Errorf("left key: %w", err)
	}
	m.rightKeys, err = positions(spec.RightStruct, spec.rightKeys())
	if err != nil {
		return nil, fmt.Errorf("right key: %w", err)
	}

	m.leftWidth = spec.LeftStruct.Len()
	for pos := range m.leftKeys {
		m.leftWidth = max(m.leftWidth, pos+1)
	}
	m.rightWidth = spec.RightStruct.Len()

	return m, nil
}

func (m *merger) leftKey(item core.Item) (core.Key, error) {
	key, err := core.KeyOf(item, m.leftSel...)
	if err != nil {
		return nil, fmt.Errorf("left key: %w", err)
	}
	return key, nil
}

func (m *merger) rightKey(item core.Item) (core.Key, error) {
	key, err := core.KeyOf(item, m.rightSel...)
	if err != nil {
		return nil, fmt.Errorf("right key: %w", err)
	}
	return key, nil
}

// observe widens the row layout with an item seen on one side.
func (m *merger) observe(item core.Item, left bool) {
	var width int
	switch t := item.(type) {
	case core.Row:
		width = len(t)
	case *core.StructRow:
		width = len(t.Row)
	default:
		return
	}
	if left {
		m.leftWidth = max(m.leftWidth, width)
	} else {
		m.rightWidth = max(m.rightWidth, width)
	}
}

// merge combines a pair; one of left and right may be nil. key is the key
// of the present side.
func (m *merger) merge(key core.Key, left, right core.Item) (core.Item, error) {
	if m.spec.Merge != nil {
		return m.spec.Merge(left, right)
	}

	kind := kindOf(left, right)
	if left != nil && right != nil && rowish(left.Kind()) != rowish(right.Kind()) {
		return nil, fmt.Errorf("cannot merge %s with %s: %w", left.Kind(), right.Kind(), core.ErrInvalidKind)
	}

	switch kind {
	case core.KindRecord:
		return m.records(key, left, right)
	case core.KindRow, core.KindStructRow:
		row := m.rows(key, rowOf(left), rowOf(right), left == nil, right == nil)
		if kind == core.KindStructRow && m.schema != nil {
			return core.NewStructRow(m.schema, row)
		}
		return row, nil
	default:
		return nil, fmt.Errorf("cannot merge %s items without a merge function: %w", kind, core.ErrInvalidKind)
	}
}

func (m *merger) rows(key core.Key, left, right core.Row, noLeft, noRight bool) core.Row {
	out := make(core.Row, m.leftWidth, m.leftWidth+m.rightWidth)
	if noLeft {
		for pos, i := range m.leftKeys {
			out[pos] = key[i]
		}
	} else {
		copy(out, left)
		if len(left) > m.leftWidth {
			out = append(out[:0], left...)
		}
	}

	for pos := range max(m.rightWidth, len(right)) {
		if _, ok := m.rightKeys[pos]; ok {
			continue
		}
		var v any
		if !noRight && pos < len(right) {
			v = right[pos]
		}
		out = append(out, v)
	}
	return out
}

func (m *merger) records(key core.Key, left, right core.Item) (core.Item, error) {
	out := core.NewRecord()
	if l, ok := left.(*core.Record); ok {
		keys, values := l.Keys(), l.Values()
		for i, k := range keys {
			out.Put(k, values[i])
		}
	} else {
		for i, name := range m.leftNames {
			if name != "" {
				out.Put(name, key[i])
			}
		}
	}

	r, ok := right.(*core.Record)
	if !ok {
		return out, nil
	}
	keys, values := r.Keys(), r.Values()
	for i, k := range keys {
		if _, isKey := m.rightNames[k]; isKey {
			continue
		}
		if out.Has(k) {
			return nil, fmt.Errorf("field %q exists on both sides: %w", k, core.ErrAmbiguousMerge)
		}
		out.Put(k, values[i])
	}
	return out, nil
}

func kindOf(left, right core.Item) core.Kind {
	if left != nil {
		return left.Kind()
	}
	if right != nil {
		return right.Kind()
	}
	return core.KindAny
}

// rowish folds rows and struct rows together, they merge positionally.
func rowish(k core.Kind) core.Kind {
	if k == core.KindStructRow {
		return core.KindRow
	}
	return k
}

func rowOf(item core.Item) core.Row {
	switch t := item.(type) {
	case core.Row:
		return t
	case *core.StructRow:
		return t.Row
	default:
		return nil
	}
}
