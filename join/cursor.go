package join

import "github.com/kndndrj/lazystream/core"

var _ core.Cursor[core.Item] = (*cursor)(nil)

// cursor emits items produced in batches by fill. fill returns done=true
// once nothing is left; an error ends the cursor.
type cursor struct {
	fill    func() (batch []core.Item, done bool, err error)
	release func()

	pending []core.Item
	err     error
	done    bool
	closed  bool
}

func (c *cursor) HasNext() bool {
	for len(c.pending) == 0 && c.err == nil && !c.done {
		batch, done, err := c.fill()
		switch {
		case err != nil:
			c.err = err
		case done:
			c.done = true
			c.Close()
		default:
			c.pending = batch
		}
	}
	return len(c.pending) > 0 || c.err != nil
}

func (c *cursor) Next() (core.Item, error) {
	if !c.HasNext() {
		return nil, core.ErrNoNext
	}
	if len(c.pending) > 0 {
		item := c.pending[0]
		c.pending = c.pending[1:]
		return item, nil
	}

	err := c.err
	c.err = nil
	c.done = true
	c.Close()
	return nil, err
}

func (c *cursor) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.done = true
	c.pending = nil
	if c.release != nil {
		c.release()
	}
}
