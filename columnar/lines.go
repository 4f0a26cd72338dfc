package columnar

import (
	"github.com/kndndrj/lazystream/core"
	"github.com/kndndrj/lazystream/sequence"
)

// LineStream is a handle over opaque text lines. Lines have no fields, so
// select, sort, group and join are only available after ToRows.
type LineStream struct {
	base
}

func NewLines(seq *sequence.Sequence[core.Item]) *LineStream {
	return &LineStream{
		base: base{
			seq:  seq,
			kind: core.KindLine,
		},
	}
}

func (s *LineStream) derive(seq *sequence.Sequence[core.Item]) *LineStream {
	return NewLines(seq)
}

func (s *LineStream) Describe() string { return s.describe("LineStream") }

func (s *LineStream) Filter(pred func(string) bool) *LineStream {
	return s.derive(s.seq.Filter(func(item core.Item) bool {
		return pred(core.LineText(item))
	}))
}

func (s *LineStream) Map(fn func(string) (string, error)) *LineStream {
	return s.derive(sequence.Map(s.seq, func(item core.Item) (core.Item, error) {
		text, err := fn(core.LineText(item))
		if err != nil {
			return nil, err
		}
		return core.NewLine(text), nil
	}))
}

func (s *LineStream) Take(n int) *LineStream { return s.derive(s.seq.Take(n)) }
func (s *LineStream) Skip(n int) *LineStream { return s.derive(s.seq.Skip(n)) }
func (s *LineStream) Tail(n int) *LineStream { return s.derive(s.seq.Tail(n)) }

func (s *LineStream) Tee(n int) []*LineStream {
	seqs := s.seq.Tee(n)
	out := make([]*LineStream, len(seqs))
	for i, seq := range seqs {
		out[i] = s.derive(seq)
	}
	return out
}

func (s *LineStream) SplitByPosition(n int) (*LineStream, *LineStream) {
	a, b := s.seq.SplitByPosition(n)
	return s.derive(a), s.derive(b)
}

func (s *LineStream) Validated(validate func(string) error, skipErrors bool) *LineStream {
	return s.derive(validated(s.seq, func(item core.Item) error {
		return validate(core.LineText(item))
	}, skipErrors))
}

func (s *LineStream) Actualize() (*LineStream, error) {
	if err := s.actualize(); err != nil {
		return nil, err
	}
	return s, nil
}

// ToRows turns every line into a single-value row. With split set, lines
// are split into fields by it instead.
func (s *LineStream) ToRows(split func(string) []string) *Stream {
	seq := sequence.Map(s.seq, func(item core.Item) (core.Item, error) {
		text := core.LineText(item)
		if split == nil {
			return core.Row{text}, nil
		}
		return core.AsItem(split(text)), nil
	})
	return New(seq, core.KindRow, nil)
}

// Lines collects the text of every line.
func (s *LineStream) Lines() ([]string, error) {
	items, err := s.Collect()
	if err != nil {
		return nil, err
	}
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = core.LineText(item)
	}
	return out, nil
}

