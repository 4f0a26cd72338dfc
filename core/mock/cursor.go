package mock

import (
	"fmt"

	"github.com/kndndrj/lazystream/core"
)

var _ core.Cursor[core.Item] = (*Cursor)(nil)

// Cursor is a mocked single-pass producer over provided items. It keeps
// track of how many items were pulled and whether it was closed.
type Cursor struct {
	items  []core.Item
	index  int
	pulled int
	closed int
	config *cursorConfig
}

// NewCursor returns a mocked cursor with provided items.
func NewCursor(items []core.Item, opts ...CursorOption) *Cursor {
	config := &cursorConfig{
		failAt: -1,
	}
	for _, opt := range opts {
		opt(config)
	}

	return &Cursor{
		items:  items,
		config: config,
	}
}

func (c *Cursor) HasNext() bool {
	if c.closed > 0 {
		return false
	}
	return c.index < len(c.items)
}

func (c *Cursor) Next() (core.Item, error) {
	if !c.HasNext() {
		return nil, core.ErrNoNext
	}
	if c.index == c.config.failAt {
		c.index++
		return nil, c.config.failErr
	}

	item := c.items[c.index]
	c.index++
	c.pulled++
	return item, nil
}

func (c *Cursor) Close() {
	c.closed++
	if c.config.onClose != nil {
		c.config.onClose()
	}
}

// Pulled returns the number of successfully returned items.
func (c *Cursor) Pulled() int { return c.pulled }

// Closed reports whether Close was called at least once.
func (c *Cursor) Closed() bool { return c.closed > 0 }

// NewRows returns a slice of rows in form of:
//
//	{ <index>(int), "row_<index>"(string) }
//
// where the first index is "from" and the last one is one less than "to".
func NewRows(from, to int) []core.Item {
	var rows []core.Item

	for i := from; i < to; i++ {
		rows = append(rows, core.Row{i, fmt.Sprintf("row_%d", i)})
	}
	return rows
}

// NewLines returns lines "line_<index>" for indices in [from, to).
func NewLines(from, to int) []core.Item {
	var lines []core.Item

	for i := from; i < to; i++ {
		lines = append(lines, core.NewLine(fmt.Sprintf("line_%d", i)))
	}
	return lines
}

// NewRecords returns records {"id": <index>, "name": "row_<index>"}.
func NewRecords(from, to int) []core.Item {
	var records []core.Item

	for i := from; i < to; i++ {
		records = append(records, core.RecordFrom([]string{"id", "name"}, []any{i, fmt.Sprintf("row_%d", i)}))
	}
	return records
}
