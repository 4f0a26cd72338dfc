package builders

import (
	"database/sql"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/kndndrj/lazystream/core"
)

type sqlConfig struct {
	typeProcessors map[string]func(any) any
}

type SQLOption func(*sqlConfig)

// WithCustomTypeProcessor registers a value converter for a database type
// name (as reported by the driver, case insensitive).
func WithCustomTypeProcessor(typ string, fn func(any) any) SQLOption {
	return func(cc *sqlConfig) {
		t := strings.ToLower(typ)
		_, ok := cc.typeProcessors[t]
		if ok {
			// processor already registered for this type
			return
		}

		cc.typeProcessors[t] = fn
	}
}

func defaultTypeProcessor(val any) any {
	valb, ok := val.([]byte)
	if ok {
		return string(valb)
	}
	return val
}

// CursorFromSQLRows adapts an already executed query into a cursor of struct
// rows. The struct is derived from the column names and scan types. The
// rows are closed together with the cursor.
func CursorFromSQLRows(dbRows *sql.Rows, opts ...SQLOption) (*Cursor[core.Item], *core.Struct, error) {
	config := sqlConfig{
		typeProcessors: make(map[string]func(any) any),
	}
	for _, opt := range opts {
		opt(&config)
	}

	dbCols, err := dbRows.ColumnTypes()
	if err != nil {
		_ = dbRows.Close()
		return nil, nil, fmt.Errorf("dbRows.ColumnTypes: %w", err)
	}

	fields := make([]core.Field, len(dbCols))
	processors := make([]func(any) any, len(dbCols))
	for i, col := range dbCols {
		fields[i] = core.Field{
			Name:    col.Name(),
			Type:    fieldTypeOf(col),
			Caption: col.DatabaseTypeName(),
		}
		proc, ok := config.typeProcessors[strings.ToLower(col.DatabaseTypeName())]
		if !ok {
			proc = defaultTypeProcessor
		}
		processors[i] = proc
	}

	schema, err := core.NewStruct(fields...)
	if err != nil {
		_ = dbRows.Close()
		return nil, nil, err
	}

	// rows.Next advances, so remember whether it was already called for the
	// current row
	var (
		advanced bool
		has      bool
	)
	hasNext := func() bool {
		if advanced {
			return has
		}
		advanced = true
		has = dbRows.Next()
		if !has && dbRows.NextResultSet() {
			has = dbRows.Next()
		}
		return has
	}

	next := func() (core.Item, error) {
		if !hasNext() {
			if err := dbRows.Err(); err != nil {
				return nil, err
			}
			return nil, core.ErrNoNext
		}
		advanced = false

		columns := make([]any, len(dbCols))
		columnPointers := make([]any, len(dbCols))
		for i := range columns {
			columnPointers[i] = &columns[i]
		}

		if err := dbRows.Scan(columnPointers...); err != nil {
			return nil, err
		}

		row := make(core.Row, len(dbCols))
		for i := range dbCols {
			row[i] = processors[i](columns[i])
		}

		return core.NewStructRow(schema, row)
	}

	cursor := NewCursorBuilder[core.Item]().
		WithNextFunc(next, hasNext).
		WithCloseFunc(func() {
			_ = dbRows.Close()
		}).
		Build()

	return cursor, schema, nil
}

func fieldTypeOf(col *sql.ColumnType) core.FieldType {
	st := col.ScanType()
	if st == nil {
		return core.ParseFieldType(col.DatabaseTypeName())
	}

	switch st.Kind() {
	case reflect.String:
		return core.TypeString
	case reflect.Bool:
		return core.TypeBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return core.TypeInt
	case reflect.Float32, reflect.Float64:
		return core.TypeFloat
	}

	switch st {
	case reflect.TypeOf(time.Time{}), reflect.TypeOf(sql.NullTime{}):
		return core.TypeTime
	case reflect.TypeOf(sql.NullString{}):
		return core.TypeString
	case reflect.TypeOf(sql.NullInt64{}), reflect.TypeOf(sql.NullInt32{}), reflect.TypeOf(sql.NullInt16{}):
		return core.TypeInt
	case reflect.TypeOf(sql.NullFloat64{}):
		return core.TypeFloat
	case reflect.TypeOf(sql.NullBool{}):
		return core.TypeBool
	}

	return core.ParseFieldType(col.DatabaseTypeName())
}
