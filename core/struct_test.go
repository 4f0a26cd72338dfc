package core_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kndndrj/lazystream/core"
)

func TestStruct(t *testing.T) {
	r := require.New(t)

	schema, err := core.NewStruct(
		core.Field{Name: "id", Type: core.TypeInt},
		core.Field{Name: "name", Type: core.TypeString},
	)
	r.NoError(err)
	r.Equal(2, schema.Len())
	r.Equal(core.Header{"id", "name"}, schema.Names())
	r.True(schema.Contains("name"))
	r.Equal("Struct(id int, name str)", schema.String())

	pos, err := schema.Resolve("name")
	r.NoError(err)
	r.Equal(1, pos)
	_, err = schema.Resolve("nope")
	r.ErrorIs(err, core.ErrUnknownField)
	_, err = schema.Resolve(5)
	r.ErrorIs(err, core.ErrOutOfRange)

	_, err = core.NewStruct(core.Field{Name: "a"}, core.Field{Name: "a"})
	r.ErrorIs(err, core.ErrDuplicateField)
}

func TestStruct_CopyOnWrite(t *testing.T) {
	r := require.New(t)

	schema, err := core.StructFromNames("id", "name")
	r.NoError(err)

	added, err := schema.AddField(core.Field{Name: "email"}, false)
	r.NoError(err)
	r.Equal(2, schema.Len())
	r.Equal(core.Header{"id", "name", "email"}, added.Names())

	removed, err := added.RemoveField("id", false)
	r.NoError(err)
	r.Equal(core.Header{"name", "email"}, removed.Names())
	pos, ok := removed.Position("email")
	r.True(ok)
	r.Equal(1, pos)
	r.Equal(3, added.Len())

	_, err = schema.AddField(core.Field{Name: "id"}, true)
	r.ErrorIs(err, core.ErrDuplicateField)
	_, err = schema.RemoveField("nope", false)
	r.ErrorIs(err, core.ErrUnknownField)

	same, err := schema.AddField(core.Field{Name: "extra"}, true)
	r.NoError(err)
	r.Same(schema, same)
	r.Equal(3, schema.Len())
}

func TestDetectStruct(t *testing.T) {
	r := require.New(t)

	schema, err := core.DetectStruct(
		core.Row{" id ", "value", nil, "when"},
		[]core.Row{
			{1, 2, "x", time.Now()},
			{2, 2.5, 3},
			{nil, nil, nil, nil},
		},
	)
	r.NoError(err)
	r.Equal(core.Header{"id", "value", "column_2", "when"}, schema.Names())

	types := make([]core.FieldType, 0, schema.Len())
	for _, f := range schema.Fields() {
		types = append(types, f.Type)
	}
	r.Equal([]core.FieldType{core.TypeInt, core.TypeFloat, core.TypeString, core.TypeTime}, types)
}

func TestFieldType(t *testing.T) {
	r := require.New(t)

	r.Equal(core.TypeInt, core.ParseFieldType("BIGINT"))
	r.Equal(core.TypeAny, core.ParseFieldType("geometry"))
	r.Equal(core.TypeFloat, core.TypeInt.Widen(core.TypeFloat))
	r.Equal(core.TypeString, core.TypeBool.Widen(core.TypeInt))
	r.Equal(core.TypeBool, core.TypeAny.Widen(core.TypeBool))
}
