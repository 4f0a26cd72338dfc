package mock

import "github.com/kndndrj/lazystream/core"

type cursorConfig struct {
	failAt  int
	failErr error
	onClose func()
}

type CursorOption func(*cursorConfig)

// CursorWithErrorAt makes the cursor return err instead of the item at the
// given index.
func CursorWithErrorAt(index int, err error) CursorOption {
	return func(c *cursorConfig) {
		c.failAt = index
		c.failErr = err
	}
}

func CursorWithCloseCallback(fn func()) CursorOption {
	return func(c *cursorConfig) {
		c.onClose = fn
	}
}

type sourceConfig struct {
	count    int
	hasCount bool
	estimate int
	hasEst   bool
	schema   *core.Struct
}

type SourceOption func(*sourceConfig)

func SourceWithCount(n int) SourceOption {
	return func(c *sourceConfig) {
		c.count = n
		c.hasCount = true
	}
}

func SourceWithEstimate(n int) SourceOption {
	return func(c *sourceConfig) {
		c.estimate = n
		c.hasEst = true
	}
}

func SourceWithStruct(s *core.Struct) SourceOption {
	return func(c *sourceConfig) {
		c.schema = s
	}
}
