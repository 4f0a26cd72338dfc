package core_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kndndrj/lazystream/core"
)

func TestRow_GetSet(t *testing.T) {
	r := require.New(t)

	row := core.Row{1, "a"}
	v, err := row.Get(1)
	r.NoError(err)
	r.Equal("a", v)

	_, err = row.Get(2)
	r.ErrorIs(err, core.ErrOutOfRange)
	_, err = row.Get("a")
	r.ErrorIs(err, core.ErrUnknownField)

	r.NoError(row.Set(int64(0), 5))
	r.Equal(core.Row{5, "a"}, row)
	r.ErrorIs(row.Set(3, nil), core.ErrOutOfRange)

	r.Equal([]any{0, 1}, row.Fields())

	clone := row.Clone().(core.Row)
	clone[0] = 9
	r.Equal(5, row[0])
}

func TestRecord(t *testing.T) {
	r := require.New(t)

	rec := core.RecordFrom([]string{"b", "a"}, []any{2})
	r.Equal([]string{"b", "a"}, rec.Keys())
	r.Equal([]any{2, nil}, rec.Values())

	_, err := rec.Get("c")
	r.ErrorIs(err, core.ErrMissingKey)
	_, err = rec.Get(0)
	r.ErrorIs(err, core.ErrMissingKey)

	// set adds new keys at the end
	r.NoError(rec.Set("c", 3))
	r.NoError(rec.Set("b", 20))
	r.Equal([]string{"b", "a", "c"}, rec.Keys())
	r.Equal([]any{20, nil, 3}, rec.Values())

	clone := rec.Clone().(*core.Record)
	clone.Delete("b")
	r.False(clone.Has("b"))
	r.True(rec.Has("b"))
	r.Equal(2, clone.Len())

	r.Equal("{b: 20, a: <nil>, c: 3}", rec.String())

	sorted := core.RecordFromMap(map[string]any{"z": 1, "m": 2, "a": 3})
	r.Equal([]string{"a", "m", "z"}, sorted.Keys())
}

func TestLine(t *testing.T) {
	r := require.New(t)

	line := core.NewLine("hello")
	v, err := line.Get(0)
	r.NoError(err)
	r.Equal("hello", v)

	_, err = line.Get(1)
	r.ErrorIs(err, core.ErrOutOfRange)

	r.NoError(line.Set(0, 42))
	r.Equal("42", line.Text)
}

func TestLineText(t *testing.T) {
	type testCase struct {
		name     string
		item     core.Item
		expected string
	}

	testCases := []testCase{
		{name: "line", item: core.NewLine("a b"), expected: "a b"},
		{name: "strings keep a separator", item: core.Row{"a", "b"}, expected: "a\tb"},
		{name: "mixed", item: core.Row{1, nil, "x"}, expected: "1\t<nil>\tx"},
		{name: "record", item: core.RecordFrom([]string{"k", "v"}, []any{"id", 2}), expected: "id\t2"},
		{name: "empty row", item: core.Row{}, expected: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, core.LineText(tc.item))
		})
	}
}

func TestStructRow(t *testing.T) {
	r := require.New(t)

	schema, err := core.StructFromNames("id", "name", "email")
	r.NoError(err)

	sr, err := core.NewStructRow(schema, core.Row{1, "alice"})
	r.NoError(err)
	r.Equal(core.Row{1, "alice", nil}, sr.Row)

	v, err := sr.Get("name")
	r.NoError(err)
	r.Equal("alice", v)
	v, err = sr.Get(0)
	r.NoError(err)
	r.Equal(1, v)

	_, err = sr.Get("missing")
	r.ErrorIs(err, core.ErrUnknownField)

	r.NoError(sr.Set("email", "a@example.com"))
	r.Equal([]any{"id", "name", "email"}, sr.Fields())
	r.Equal(core.RecordFrom([]string{"id", "name", "email"}, []any{1, "alice", "a@example.com"}), sr.Record())

	clone := sr.Clone().(*core.StructRow)
	r.Same(schema, clone.Struct())
	clone.Row[0] = 2
	r.Equal(1, sr.Row[0])

	_, err = core.NewStructRow(schema, core.Row{1, 2, 3, 4})
	r.ErrorIs(err, core.ErrOutOfRange)
	_, err = core.NewStructRow(nil, core.Row{1})
	r.ErrorIs(err, core.ErrMissingStruct)
}

func TestAsItem(t *testing.T) {
	type testCase struct {
		name     string
		value    any
		expected core.Item
	}

	testCases := []testCase{
		{name: "item", value: core.Row{1}, expected: core.Row{1}},
		{name: "string", value: "x", expected: core.NewLine("x")},
		{name: "slice", value: []any{1, 2}, expected: core.Row{1, 2}},
		{name: "strings", value: []string{"a", "b"}, expected: core.Row{"a", "b"}},
		{name: "map", value: map[string]any{"k": 1}, expected: core.RecordFrom([]string{"k"}, []any{1})},
		{name: "scalar", value: 3.5, expected: core.Row{3.5}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, core.AsItem(tc.value))
		})
	}
}

func TestConversions(t *testing.T) {
	r := require.New(t)

	rec := core.RecordFrom([]string{"a", "b"}, []any{1, 2})
	r.Equal(core.Row{1, 2}, core.RowOf(rec, nil))
	r.Equal(core.Row{2, nil}, core.RowOf(rec, core.Header{"b", "c"}))
	r.Equal(core.Row{"text"}, core.RowOf(core.NewLine("text"), nil))

	r.Equal(core.RecordFrom([]string{"x", "column_1"}, []any{1, 2}), core.RecordOf(core.Row{1, 2}, core.Header{"x"}))
	r.Same(rec, core.RecordOf(rec, nil))
	r.Equal(core.RecordFrom([]string{"line"}, []any{"t"}), core.RecordOf(core.NewLine("t"), nil))
}

func TestHeaderOf(t *testing.T) {
	r := require.New(t)

	schema, err := core.StructFromNames("a")
	r.NoError(err)

	r.Equal(core.Header{"a"}, core.HeaderOf(schema, nil))
	r.Equal(core.Header{}, core.HeaderOf(nil, nil))
	r.Equal(core.Header{"column_0", "column_1", "column_2"}, core.HeaderOf(nil, []core.Item{core.Row{1}, core.Row{1, 2, 3}}))
	r.Equal(core.Header{"k"}, core.HeaderOf(nil, []core.Item{core.RecordFrom([]string{"k"}, nil)}))
	r.Equal(core.Header{"line"}, core.HeaderOf(nil, []core.Item{core.NewLine("x")}))
}

func TestParseKind(t *testing.T) {
	r := require.New(t)

	for _, k := range []core.Kind{core.KindAny, core.KindLine, core.KindRow, core.KindRecord, core.KindStructRow, core.KindAuto} {
		parsed, err := core.ParseKind(k.String())
		r.NoError(err)
		r.Equal(k, parsed)
	}

	_, err := core.ParseKind("table")
	r.ErrorIs(err, core.ErrInvalidKind)
}
