package sequence_test

import (
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kndndrj/lazystream/core"
	"github.com/kndndrj/lazystream/core/mock"
	"github.com/kndndrj/lazystream/sequence"
)

func ints(from, to int) []int {
	var out []int
	for i := from; i < to; i++ {
		out = append(out, i)
	}
	return out
}

func lazyInts(from, to int, opts ...sequence.Option) *sequence.Sequence[int] {
	return sequence.FromSeq(slices.Values(ints(from, to)), opts...)
}

func TestSequence_InMemoryRereadable(t *testing.T) {
	r := require.New(t)

	s := sequence.FromSlice(ints(0, 5))

	first, err := s.Collect()
	r.NoError(err)
	second, err := s.Collect()
	r.NoError(err)
	r.Equal(first, second)

	n, ok := s.Count()
	r.True(ok)
	r.Equal(5, n)
	r.True(s.IsInMemory())
	r.Equal(sequence.StateMaterialized, s.State())
}

func TestSequence_SinglePass(t *testing.T) {
	r := require.New(t)

	cur := mock.NewCursor(mock.NewRows(0, 4))
	s := sequence.FromCursor[core.Item](cur)

	_, ok := s.Count()
	r.False(ok)

	n := 0
	r.NoError(s.ForEach(func(core.Item) error { n++; return nil }))
	r.Equal(4, n)
	r.Equal(sequence.StateExhausted, s.State())

	// the exact count is known after exhaustion
	count, ok := s.Count()
	r.True(ok)
	r.Equal(4, count)

	_, err := s.Iter()
	r.ErrorIs(err, core.ErrAlreadyConsumed)
}

func TestSequence_CollectMaterializes(t *testing.T) {
	r := require.New(t)

	s := lazyInts(0, 3)
	items, err := s.Collect()
	r.NoError(err)
	r.Equal([]int{0, 1, 2}, items)
	r.Equal(sequence.StateMaterialized, s.State())

	again, err := s.Collect()
	r.NoError(err)
	r.Equal(items, again)
}

func TestSequence_ErrorPropagation(t *testing.T) {
	errBoom := errors.New("boom")
	cur := mock.NewCursor(mock.NewRows(0, 5), mock.CursorWithErrorAt(2, errBoom))

	_, err := sequence.FromCursor[core.Item](cur).Take(4).Collect()
	require.ErrorIs(t, err, errBoom)
}

func TestSequence_TakeSkip(t *testing.T) {
	type testCase struct {
		name     string
		build    func(*sequence.Sequence[int]) *sequence.Sequence[int]
		expected []int
	}

	testCases := []testCase{
		{
			name:     "take",
			build:    func(s *sequence.Sequence[int]) *sequence.Sequence[int] { return s.Take(3) },
			expected: []int{0, 1, 2},
		},
		{
			name:     "take is idempotent",
			build:    func(s *sequence.Sequence[int]) *sequence.Sequence[int] { return s.Take(3).Take(3) },
			expected: []int{0, 1, 2},
		},
		{
			name:     "take of take uses the smaller bound",
			build:    func(s *sequence.Sequence[int]) *sequence.Sequence[int] { return s.Take(6).Take(2) },
			expected: []int{0, 1},
		},
		{
			name:     "take zero",
			build:    func(s *sequence.Sequence[int]) *sequence.Sequence[int] { return s.Take(0) },
			expected: nil,
		},
		{
			name:     "take more than available",
			build:    func(s *sequence.Sequence[int]) *sequence.Sequence[int] { return s.Take(100) },
			expected: ints(0, 10),
		},
		{
			name:     "negative take is tail",
			build:    func(s *sequence.Sequence[int]) *sequence.Sequence[int] { return s.Take(-2) },
			expected: []int{8, 9},
		},
		{
			name:     "skip",
			build:    func(s *sequence.Sequence[int]) *sequence.Sequence[int] { return s.Skip(7) },
			expected: []int{7, 8, 9},
		},
		{
			name:     "skip then take",
			build:    func(s *sequence.Sequence[int]) *sequence.Sequence[int] { return s.Skip(2).Take(3) },
			expected: []int{2, 3, 4},
		},
		{
			name:     "skip everything",
			build:    func(s *sequence.Sequence[int]) *sequence.Sequence[int] { return s.Skip(20) },
			expected: nil,
		},
		{
			name:     "tail",
			build:    func(s *sequence.Sequence[int]) *sequence.Sequence[int] { return s.Tail(4) },
			expected: []int{6, 7, 8, 9},
		},
		{
			name:     "tail longer than the sequence",
			build:    func(s *sequence.Sequence[int]) *sequence.Sequence[int] { return s.Tail(40) },
			expected: ints(0, 10),
		},
	}

	for _, tc := range testCases {
		for _, lazy := range []bool{false, true} {
			t.Run(fmt.Sprintf("%s/lazy=%t", tc.name, lazy), func(t *testing.T) {
				src := sequence.FromSlice(ints(0, 10))
				if lazy {
					src = lazyInts(0, 10)
				}

				got, err := tc.build(src).Collect()
				require.NoError(t, err)
				assert.Equal(t, len(tc.expected), len(got))
				if len(tc.expected) > 0 {
					assert.Equal(t, tc.expected, got)
				}
			})
		}
	}
}

func TestSequence_SkipComposes(t *testing.T) {
	type testCase struct {
		a, b int
	}

	testCases := []testCase{
		{a: 0, b: 0},
		{a: 0, b: 3},
		{a: 1, b: 2},
		{a: 3, b: 4},
		{a: 4, b: 4},
		{a: 5, b: 10},
		{a: 20, b: 1},
	}

	for _, tc := range testCases {
		for _, lazy := range []bool{false, true} {
			t.Run(fmt.Sprintf("skip(%d).skip(%d)/lazy=%t", tc.a, tc.b, lazy), func(t *testing.T) {
				r := require.New(t)

				src := func() *sequence.Sequence[int] {
					if lazy {
						return sequence.FromCursor[core.Item](mock.NewCursor(mock.NewRows(0, 8)), sequence.WithCount(8))
					}
					return sequence.FromSlice(mock.NewRows(0, 8))
				}

				chained := src().Skip(tc.a).Skip(tc.b)
				direct := src().Skip(tc.a + tc.b)

				n, ok := chained.Count0()
				r.True(ok)
				expectedN, expectedOK := direct.Count0()
				r.True(expectedOK)
				r.Equal(expectedN, n)
				r.Equal(max(8-tc.a-tc.b, 0), n)

				got, err := chained.Collect()
				r.NoError(err)
				expected, err := direct.Collect()
				r.NoError(err)
				r.Len(got, n)
				r.Len(expected, n)
				for i := range got {
					r.Equal(expected[i], got[i])
				}
			})
		}
	}
}

func TestSequence_TakePullsOnlyWhatIsNeeded(t *testing.T) {
	r := require.New(t)

	cur := mock.NewCursor(mock.NewRows(0, 100))
	items, err := sequence.FromCursor[core.Item](cur).Take(5).Collect()
	r.NoError(err)
	r.Len(items, 5)
	r.Equal(5, cur.Pulled())
	r.True(cur.Closed())
}

func TestSequence_Counts(t *testing.T) {
	r := require.New(t)

	s := lazyInts(0, 10, sequence.WithCount(10))
	taken := s.Take(4)
	n, ok := taken.Count()
	r.True(ok)
	r.Equal(4, n)

	est := lazyInts(0, 10, sequence.WithEstimate(50)).Filter(func(i int) bool { return i%2 == 0 })
	_, ok = est.Count()
	r.False(ok)
	n, ok = est.EstimatedCount()
	r.True(ok)
	r.Equal(50, n)

	mapped := sequence.Map(sequence.FromSlice(ints(0, 7)), func(i int) (string, error) { return fmt.Sprint(i), nil })
	n, ok = mapped.Count()
	r.True(ok)
	r.Equal(7, n)

	// derived from memory: the count is recomputed and the handle stays readable
	odd := sequence.FromSlice(ints(0, 7)).Filter(func(i int) bool { return i%2 == 1 })
	n, ok = odd.Count()
	r.True(ok)
	r.Equal(3, n)
	items, err := odd.Collect()
	r.NoError(err)
	r.Equal([]int{1, 3, 5}, items)
}

func TestSequence_SourceHints(t *testing.T) {
	r := require.New(t)

	src := mock.NewSource("users", mock.SourceWithCount(3))
	s := sequence.FromCursor[core.Item](mock.NewCursor(mock.NewRows(0, 3)), sequence.WithSource(src))

	n, ok := s.Count()
	r.True(ok)
	r.Equal(3, n)
	r.Equal("users", s.Source().Name())
	r.Contains(s.Describe(), "source=users")
}

func TestSequence_Peek(t *testing.T) {
	r := require.New(t)

	s := lazyInts(0, 6)
	head, err := s.Peek(2)
	r.NoError(err)
	r.Equal([]int{0, 1}, head)
	r.Equal(sequence.StateFresh, s.State())

	all, err := s.Collect()
	r.NoError(err)
	r.Equal(ints(0, 6), all)
}

func TestSequence_MapFlatMapReduce(t *testing.T) {
	r := require.New(t)

	doubled := sequence.Map(lazyInts(1, 4), func(i int) (int, error) { return i * 2, nil })
	flat := sequence.FlatMap(doubled, func(i int) ([]int, error) { return []int{i, i}, nil })

	sum, err := sequence.Reduce(flat, 0, func(acc, i int) (int, error) { return acc + i, nil })
	r.NoError(err)
	r.Equal(24, sum)

	errBad := errors.New("bad")
	_, err = sequence.Map(sequence.FromSlice(ints(0, 3)), func(i int) (int, error) {
		if i == 1 {
			return 0, errBad
		}
		return i, nil
	}).Collect()
	r.ErrorIs(err, errBad)
}

func TestSequence_DerivingMovesSinglePassProducer(t *testing.T) {
	r := require.New(t)

	s := lazyInts(0, 3)
	child := s.Filter(func(int) bool { return true })

	_, err := s.Iter()
	r.ErrorIs(err, core.ErrAlreadyConsumed)

	items, err := child.Collect()
	r.NoError(err)
	r.Equal([]int{0, 1, 2}, items)
}

func TestSequence_All(t *testing.T) {
	var got []int
	for v, err := range sequence.FromSlice(ints(0, 4)).All() {
		require.NoError(t, err)
		if v == 2 {
			break
		}
		got = append(got, v)
	}
	assert.Equal(t, []int{0, 1}, got)
}
