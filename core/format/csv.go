package format

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/kndndrj/lazystream/core"
)

var _ core.Formatter = (*CSV)(nil)

// CSV writes the header and one record per item. Every record has as many
// fields as the header; missing and nil values are empty.
type CSV struct {
	comma    rune
	noHeader bool
}

type CSVOption func(*CSV)

func CSVWithComma(comma rune) CSVOption {
	return func(cf *CSV) {
		cf.comma = comma
	}
}

func CSVWithoutHeader() CSVOption {
	return func(cf *CSV) {
		cf.noHeader = true
	}
}

func NewCSV(opts ...CSVOption) *CSV {
	cf := &CSV{comma: ','}
	for _, opt := range opts {
		opt(cf)
	}
	return cf
}

func (cf *CSV) Format(header core.Header, items []core.Item, _ *core.FormatterOptions) ([]byte, error) {
	b := new(bytes.Buffer)
	w := csv.NewWriter(b)
	w.Comma = cf.comma

	if !cf.noHeader {
		if err := w.Write(header); err != nil {
			return nil, fmt.Errorf("w.Write: %w", err)
		}
	}

	record := make([]string, len(header))
	for _, item := range items {
		values := core.Values(item, header)
		for i := range record {
			record[i] = ""
			if i < len(values) && values[i] != nil {
				record[i] = fmt.Sprint(values[i])
			}
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("w.Write: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("w.Flush: %w", err)
	}
	return b.Bytes(), nil
}
