package columnar_test

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/kndndrj/lazystream/columnar"
	"github.com/kndndrj/lazystream/core"
	"github.com/kndndrj/lazystream/core/format"
	"github.com/kndndrj/lazystream/core/mock"
	"github.com/kndndrj/lazystream/join"
	"github.com/kndndrj/lazystream/logging"
	"github.com/kndndrj/lazystream/sequence"
)

func rows(items ...core.Item) *columnar.Stream {
	return columnar.New(sequence.FromSlice(items), core.KindRow, nil)
}

func lazyRows(cur core.Cursor[core.Item], opts ...sequence.Option) *columnar.Stream {
	return columnar.New(sequence.FromCursor(cur, opts...), core.KindRow, nil)
}

func mustStruct(t *testing.T, fields ...core.Field) *core.Struct {
	t.Helper()
	s, err := core.NewStruct(fields...)
	require.NoError(t, err)
	return s
}

func structRows(t *testing.T, schema *core.Struct, values ...core.Row) *columnar.Stream {
	t.Helper()
	items := make([]core.Item, len(values))
	for i, v := range values {
		sr, err := core.NewStructRow(schema, v)
		require.NoError(t, err)
		items[i] = sr
	}
	return columnar.New(sequence.FromSlice(items), core.KindStructRow, schema)
}

func TestStream_GroupByScenario(t *testing.T) {
	r := require.New(t)

	s := rows(core.Row{1, "a"}, core.Row{2, "b"}, core.Row{1, "c"})
	grouped, err := s.GroupBy([]any{0}, 1)
	r.NoError(err)

	items, err := grouped.Collect()
	r.NoError(err)
	r.Equal([]core.Item{
		core.Row{1, []any{"a", "c"}},
		core.Row{2, []any{"b"}},
	}, items)
}

func TestStream_GroupByWholeItemsAndTuples(t *testing.T) {
	r := require.New(t)

	input := []core.Item{core.Row{"x", 1, true}, core.Row{"y", 2, false}, core.Row{"x", 3, false}}

	grouped, err := rows(input...).GroupBy([]any{0})
	r.NoError(err)
	items, err := grouped.Collect()
	r.NoError(err)
	r.Equal(core.Row{"x", []any{input[0], input[2]}}, items[0])

	grouped, err = rows(input...).GroupBy([]any{0}, 1, 2)
	r.NoError(err)
	items, err = grouped.Collect()
	r.NoError(err)
	r.Equal(core.Row{"x", []any{core.Row{1, true}, core.Row{3, false}}}, items[0])
	r.Equal(core.Row{"y", []any{core.Row{2, false}}}, items[1])
}

func TestStream_GroupByPermutations(t *testing.T) {
	var input []core.Item
	for i := range 40 {
		input = append(input, core.Row{i % 5, fmt.Sprintf("v%d", i)})
	}

	membership := func(items []core.Item) map[any][]string {
		out := make(map[any][]string)
		for _, it := range items {
			row := it.(core.Row)
			var values []string
			for _, v := range row[1].([]any) {
				values = append(values, v.(string))
			}
			slices.Sort(values)
			out[row[0]] = values
		}
		return out
	}

	grouped, err := rows(input...).GroupBy([]any{0}, 1)
	require.NoError(t, err)
	items, err := grouped.Collect()
	require.NoError(t, err)
	expected := membership(items)
	require.Len(t, expected, 5)

	rng := rand.New(rand.NewPCG(7, 11))
	for range 10 {
		shuffled := slices.Clone(input)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		grouped, err := rows(shuffled...).GroupBy([]any{0}, 1)
		require.NoError(t, err)
		items, err := grouped.Collect()
		require.NoError(t, err)

		if diff := cmp.Diff(expected, membership(items)); diff != "" {
			t.Errorf("group membership differs (-want +got):\n%s", diff)
		}
	}
}

func TestStream_Sort(t *testing.T) {
	r := require.New(t)

	input := []core.Item{
		core.Row{2, "a"},
		core.Row{1, "b"},
		core.Row{2, "c"},
		core.Row{1.5, "d"},
		core.Row{nil, "e"},
	}

	sorted, err := rows(input...).Sort([]any{0})
	r.NoError(err)
	items, err := sorted.Collect()
	r.NoError(err)
	r.Equal([]core.Item{
		core.Row{nil, "e"},
		core.Row{1, "b"},
		core.Row{1.5, "d"},
		core.Row{2, "a"},
		core.Row{2, "c"},
	}, items)

	sorted, err = rows(input...).Sort([]any{0}, columnar.SortReverse())
	r.NoError(err)
	items, err = sorted.Collect()
	r.NoError(err)
	// equal keys keep their input order
	r.Equal(core.Row{2, "a"}, items[0])
	r.Equal(core.Row{2, "c"}, items[1])
	r.Equal(core.Row{nil, "e"}, items[4])
}

func TestStream_SortRequiresMemory(t *testing.T) {
	r := require.New(t)

	env := core.NewEnv(core.EnvWithMaxItemsInMemory(3))

	cur := mock.NewCursor(mock.NewRows(0, 10))
	s := lazyRows(cur, sequence.WithEnv(env), sequence.WithCount(10))
	_, err := s.Sort([]any{1})
	r.ErrorIs(err, core.ErrRequiresMemory)
	r.Equal(0, cur.Pulled())

	sorted, err := s.Sort([]any{1}, columnar.SortAllowLarge(), columnar.SortReverse())
	r.NoError(err)
	items, err := sorted.Collect()
	r.NoError(err)
	r.Len(items, 10)
	r.Equal(core.Row{9, "row_9"}, items[0])
}

func TestStream_SelectRows(t *testing.T) {
	r := require.New(t)

	s := rows(core.Row{1, "alice", 30}, core.Row{2, "bob", 40})
	selected, err := s.Select(
		columnar.Field(1),
		columnar.Compute("older", func(item core.Item) (any, error) {
			age, err := item.Get(2)
			if err != nil {
				return nil, err
			}
			return age.(int) + 1, nil
		}),
		columnar.Const("source", "test"),
	)
	r.NoError(err)
	r.Equal(core.KindRow, selected.Kind())

	items, err := selected.Collect()
	r.NoError(err)
	r.Equal([]core.Item{
		core.Row{"alice", 31, "test"},
		core.Row{"bob", 41, "test"},
	}, items)

	// without a struct, bad references fail when read
	bad, err := rows(core.Row{1}).Select(columnar.Field(3))
	r.NoError(err)
	_, err = bad.Collect()
	r.ErrorIs(err, core.ErrOutOfRange)
}

func TestStream_SelectRecords(t *testing.T) {
	r := require.New(t)

	s := columnar.New(sequence.FromSlice(mock.NewRecords(0, 2)), core.KindRecord, nil)
	selected, err := s.Select(columnar.Field("name").As("label"), columnar.Field("id"))
	r.NoError(err)

	items, err := selected.Collect()
	r.NoError(err)
	r.Equal(core.RecordFrom([]string{"label", "id"}, []any{"row_0", 0}), items[0])

	bad, err := columnar.New(sequence.FromSlice(mock.NewRecords(0, 1)), core.KindRecord, nil).Select(columnar.Field("missing"))
	r.NoError(err)
	_, err = bad.Collect()
	r.ErrorIs(err, core.ErrMissingKey)
}

func TestStream_SelectStructRows(t *testing.T) {
	r := require.New(t)

	schema := mustStruct(t,
		core.Field{Name: "id", Type: core.TypeInt},
		core.Field{Name: "name", Type: core.TypeString, Caption: "user name"},
	)
	s := structRows(t, schema, core.Row{1, "alice"}, core.Row{2, "bob"})

	selected, err := s.Select(columnar.Field("name"), columnar.Field("id").As("user_id"))
	r.NoError(err)
	r.Equal(core.KindStructRow, selected.Kind())
	r.Equal(core.Header{"name", "user_id"}, selected.Struct().Names())
	f, _ := selected.Struct().Field(0)
	r.Equal(core.TypeString, f.Type)
	r.Equal("user name", f.Caption)

	items, err := selected.Collect()
	r.NoError(err)
	sr := items[1].(*core.StructRow)
	r.Equal(core.Row{"bob", 2}, sr.Row)
	r.Same(selected.Struct(), sr.Struct())
}

func TestStream_SelectUnknownFieldIsEager(t *testing.T) {
	r := require.New(t)

	schema := mustStruct(t, core.Field{Name: "id"})
	cur := mock.NewCursor(nil)
	s := columnar.New(sequence.FromCursor[core.Item](cur), core.KindStructRow, schema)

	_, err := s.Select(columnar.Field("nope"))
	r.ErrorIs(err, core.ErrUnknownField)

	_, err = s.Select(columnar.Field("id"), columnar.Const("id", 1))
	r.ErrorIs(err, core.ErrDuplicateField)
	r.Equal(0, cur.Pulled())
}

func TestStream_Validated(t *testing.T) {
	r := require.New(t)

	errOdd := errors.New("odd id")
	validate := func(item core.Item) error {
		id, err := item.Get(0)
		if err != nil {
			return err
		}
		if id.(int)%2 == 1 {
			return errOdd
		}
		return nil
	}

	logger, logs := logging.NewObserver(zapcore.DebugLevel)
	env := core.NewEnv(core.EnvWithLogger(logger))

	s := columnar.New(sequence.FromSlice(mock.NewRows(0, 5), sequence.WithEnv(env)), core.KindRow, nil)
	items, err := s.Validated(validate, true).Collect()
	r.NoError(err)
	r.Len(items, 3)
	r.Equal(2, logs.FilterLevelExact(zapcore.WarnLevel).Len())

	_, err = s.Validated(validate, false).Collect()
	r.ErrorIs(err, errOdd)
}

func TestStream_Actualize(t *testing.T) {
	r := require.New(t)

	schema := mustStruct(t, core.Field{Name: "id"}, core.Field{Name: "name"})
	src := mock.NewSource("users", mock.SourceWithEstimate(10), mock.SourceWithStruct(schema))

	s := lazyRows(mock.NewCursor(mock.NewRows(0, 3)), sequence.WithSource(src))
	r.Nil(s.Struct())

	s, err := s.Actualize()
	r.NoError(err)
	r.Same(schema, s.Struct())
	r.True(s.Sequence().IsMaterialized())
	n, ok := s.Count()
	r.True(ok)
	r.Equal(3, n)
}

func TestStream_ActualizeStaysLazyOverThreshold(t *testing.T) {
	r := require.New(t)

	env := core.NewEnv(core.EnvWithMaxItemsInMemory(2))
	s := lazyRows(mock.NewCursor(mock.NewRows(0, 5)), sequence.WithEnv(env))

	s, err := s.Actualize()
	r.NoError(err)
	r.False(s.Sequence().IsMaterialized())

	// the look-ahead is not lost
	items, err := s.Collect()
	r.NoError(err)
	r.Equal(mock.NewRows(0, 5), items)
}

func TestStream_ShowAndWriteOut(t *testing.T) {
	r := require.New(t)

	s := lazyRows(mock.NewCursor(mock.NewRows(0, 4)))

	preview, err := s.Show(2)
	r.NoError(err)
	r.Contains(preview, "column_0")
	r.Contains(preview, "row_1")
	r.NotContains(preview, "row_2")

	var buf bytes.Buffer
	n, err := s.WriteOut(&buf, format.NewCSV())
	r.NoError(err)
	r.Equal(4, n)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	r.Equal([]string{"column_0,column_1", "0,row_0", "1,row_1", "2,row_2", "3,row_3"}, lines)
}

func TestStream_ShowCaptions(t *testing.T) {
	r := require.New(t)

	schema := mustStruct(t,
		core.Field{Name: "id", Type: core.TypeInt, Caption: "BIGINT"},
		core.Field{Name: "name", Type: core.TypeString},
	)
	s := structRows(t, schema, core.Row{1, "alice"})

	preview, err := s.Show(5)
	r.NoError(err)
	r.Contains(preview, "BIGINT")
	r.Contains(preview, "alice")

	plain, err := rows(core.Row{1, "alice"}).Show(5)
	r.NoError(err)
	r.Less(strings.Count(plain, "\n"), strings.Count(preview, "\n"))
}

func TestStream_Reshape(t *testing.T) {
	r := require.New(t)

	schema := mustStruct(t, core.Field{Name: "id"}, core.Field{Name: "name"})

	records, err := structRows(t, schema, core.Row{1, "a"}).ToRecords().Collect()
	r.NoError(err)
	r.Equal([]core.Item{core.RecordFrom([]string{"id", "name"}, []any{1, "a"})}, records)

	positional, err := rows(core.Row{1, "a"}).ToRecords().Collect()
	r.NoError(err)
	r.Equal([]core.Item{core.RecordFrom([]string{"column_0", "column_1"}, []any{1, "a"})}, positional)

	back := columnar.New(sequence.FromSlice(records), core.KindRecord, nil).ToRows()
	r.Equal(core.KindRow, back.Kind())
	items, err := back.Collect()
	r.NoError(err)
	r.Equal([]core.Item{core.Row{1, "a"}}, items)

	attached, err := rows(core.Row{1, "a"}).StructRows(schema)
	r.NoError(err)
	items, err = attached.Collect()
	r.NoError(err)
	r.Equal(schema, items[0].(*core.StructRow).Struct())

	_, err = rows(core.Row{1}).StructRows(nil)
	r.ErrorIs(err, core.ErrMissingStruct)
}

func TestStream_MapSideJoinScenario(t *testing.T) {
	r := require.New(t)

	left := lazyRows(mock.NewCursor([]core.Item{core.Row{1, "L1"}, core.Row{2, "L2"}}))
	right := rows(core.Row{1, "R1"})

	joined, err := left.MapSideJoin(right, join.Spec{LeftKeys: []any{0}, How: join.Left})
	r.NoError(err)
	r.Equal(core.KindRow, joined.Kind())

	items, err := joined.Collect()
	r.NoError(err)
	r.Equal([]core.Item{core.Row{1, "L1", "R1"}, core.Row{2, "L2", nil}}, items)
}

func TestStream_MapSideJoinConcurrentReaders(t *testing.T) {
	r := require.New(t)

	left := rows(core.Row{1, "L1"})
	right := rows(core.Row{1, "R1"}, core.Row{2, "R2"})

	joined, err := left.MapSideJoin(right, join.Spec{LeftKeys: []any{0}, How: join.Full})
	r.NoError(err)

	c1, err := joined.Sequence().Iter()
	r.NoError(err)
	defer c1.Close()
	r.True(c1.HasNext())
	item, err := c1.Next()
	r.NoError(err)
	r.Equal(core.Row{1, "L1", "R1"}, item)

	c2, err := joined.Sequence().Iter()
	r.NoError(err)
	var second []core.Item
	for c2.HasNext() {
		item, err := c2.Next()
		r.NoError(err)
		second = append(second, item)
	}
	c2.Close()
	r.Equal([]core.Item{core.Row{1, "L1", "R1"}, core.Row{2, nil, "R2"}}, second)

	var rest []core.Item
	for c1.HasNext() {
		item, err := c1.Next()
		r.NoError(err)
		rest = append(rest, item)
	}
	r.Equal([]core.Item{core.Row{2, nil, "R2"}}, rest)
}

func TestStream_JoinStructRows(t *testing.T) {
	r := require.New(t)

	users := mustStruct(t, core.Field{Name: "id"}, core.Field{Name: "name"})
	orders := mustStruct(t, core.Field{Name: "user_id"}, core.Field{Name: "total"})

	left := structRows(t, users, core.Row{1, "alice"}, core.Row{2, "bob"})
	right := structRows(t, orders, core.Row{1, 10}, core.Row{1, 20}, core.Row{3, 5})
	spec := join.Spec{LeftKeys: []any{"id"}, RightKeys: []any{"user_id"}, How: join.Inner}

	hashed, err := left.MapSideJoin(right, spec)
	r.NoError(err)
	r.Equal(core.KindStructRow, hashed.Kind())
	r.Equal(core.Header{"id", "name", "total"}, hashed.Struct().Names())

	merged, err := left.MergeJoin(right, spec)
	r.NoError(err)

	a, err := hashed.Collect()
	r.NoError(err)
	b, err := merged.Collect()
	r.NoError(err)
	r.Len(a, 2)
	r.Equal(a, b)
}

func TestStream_MergeJoinUnsorted(t *testing.T) {
	left := rows(core.Row{2, "a"}, core.Row{1, "b"})
	right := rows(core.Row{1, "x"}, core.Row{2, "y"})

	joined, err := left.MergeJoin(right, join.Spec{LeftKeys: []any{0}, How: join.Full})
	require.NoError(t, err)
	_, err = joined.Collect()
	require.ErrorIs(t, err, core.ErrUnsortedInput)
}

func TestStream_MergeJoinSinglePassRight(t *testing.T) {
	r := require.New(t)

	left := rows(core.Row{1, "L1"}, core.Row{2, "L2"})
	right := lazyRows(mock.NewCursor([]core.Item{core.Row{1, "R1"}, core.Row{2, "R2"}}))

	joined, err := left.MergeJoin(right, join.Spec{LeftKeys: []any{0}, How: join.Inner})
	r.NoError(err)
	r.False(joined.IsInMemory())

	cur, err := joined.Sequence().Iter()
	r.NoError(err)
	var items []core.Item
	for cur.HasNext() {
		item, err := cur.Next()
		r.NoError(err)
		items = append(items, item)
	}
	cur.Close()
	r.Equal([]core.Item{core.Row{1, "L1", "R1"}, core.Row{2, "L2", "R2"}}, items)

	_, err = joined.Sequence().Iter()
	r.ErrorIs(err, core.ErrAlreadyConsumed)

	// an in-memory right side keeps the result re-readable
	again, err := left.MergeJoin(rows(core.Row{1, "R1"}), join.Spec{LeftKeys: []any{0}, How: join.Inner})
	r.NoError(err)
	r.True(again.IsInMemory())
}

func TestStream_Describe(t *testing.T) {
	s := columnar.New(sequence.FromSlice(mock.NewRows(0, 2), sequence.WithName("users")), core.KindRow, nil)
	d := s.Describe()
	assert.Contains(t, d, `Stream(name="users"`)
	assert.Contains(t, d, "kind=row")
	assert.Contains(t, d, "count=2")
	assert.Contains(t, d, "in_memory=true")
}

func TestStream_SplitKeepsKind(t *testing.T) {
	r := require.New(t)

	schema := mustStruct(t, core.Field{Name: "id"}, core.Field{Name: "name"})
	s := structRows(t, schema, core.Row{1, "a"}, core.Row{2, "b"}, core.Row{3, "c"})

	head, rest := s.SplitByPosition(1)
	r.Equal(core.KindStructRow, head.Kind())
	r.Same(schema, rest.Struct())

	items, err := rest.Collect()
	r.NoError(err)
	r.Len(items, 2)
}
