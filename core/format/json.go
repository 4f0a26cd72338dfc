package format

import (
	"encoding/json"
	"fmt"

	"github.com/kndndrj/lazystream/core"
)

var _ core.Formatter = (*JSON)(nil)

type JSON struct{}

func NewJSON() *JSON {
	return &JSON{}
}

func (jf *JSON) parseSchemaFul(header core.Header, items []core.Item) []map[string]any {
	data := make([]map[string]any, 0, len(items))

	for _, item := range items {
		values := core.Values(item, header)
		record := make(map[string]any, len(values))
		for i, val := range values {
			var h string
			if i < len(header) {
				h = header[i]
			} else {
				h = fmt.Sprintf("<unknown-field-%d>", i)
			}
			record[h] = val
		}
		data = append(data, record)
	}

	return data
}

func (jf *JSON) parseSchemaLess(items []core.Item) []any {
	data := make([]any, 0, len(items))

	for _, item := range items {
		values := core.Values(item, nil)
		if len(values) == 1 {
			data = append(data, values[0])
		} else if len(values) > 1 {
			data = append(data, values)
		}
	}
	return data
}

func (jf *JSON) Format(header core.Header, items []core.Item, opts *core.FormatterOptions) ([]byte, error) {
	var data any
	schemaType := core.SchemaFul
	if opts != nil {
		schemaType = opts.SchemaType
	}

	switch schemaType {
	case core.SchemaLess:
		data = jf.parseSchemaLess(items)
	case core.SchemaFul:
		fallthrough
	default:
		data = jf.parseSchemaFul(header, items)
	}

	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("json.MarshalIndent: %w", err)
	}

	return out, nil
}
