package builders

import (
	"errors"
	"fmt"

	"github.com/kndndrj/lazystream/core"
)

// StructFromCursor converts a description cursor to a struct.
// The cursor should return rows that are at least 2 columns wide and
// have the following structure:
//
//	1st elem: name - string
//	2nd elem: type - string
//
// An optional 3rd string element is used as the field caption.
func StructFromCursor(items core.Cursor[core.Item]) (*core.Struct, error) {
	defer items.Close()

	var fields []core.Field

	for items.HasNext() {
		item, err := items.Next()
		if err != nil {
			return nil, fmt.Errorf("items.Next: %w", err)
		}

		row := core.Values(item, nil)
		if len(row) < 2 {
			return nil, errors.New("could not retrieve field info: insufficient data")
		}

		name, ok := row[0].(string)
		if !ok {
			return nil, errors.New("could not retrieve field info: name not a string")
		}

		typ, ok := row[1].(string)
		if !ok {
			return nil, errors.New("could not retrieve field info: type not a string")
		}

		field := core.Field{
			Name: name,
			Type: core.ParseFieldType(typ),
		}
		if len(row) > 2 {
			if caption, ok := row[2].(string); ok {
				field.Caption = caption
			}
		}

		fields = append(fields, field)
	}

	return core.NewStruct(fields...)
}
