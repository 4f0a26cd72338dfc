package format

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/kndndrj/lazystream/core"
)

var _ core.Formatter = (*Table)(nil)

// Table renders items as a light, borderless table with a leading index
// column. Field captions, when there are any, go to a second header line.
type Table struct {
	maxWidth int
}

type TableOption func(*Table)

// TableWithMaxWidth wraps cells wider than n characters.
func TableWithMaxWidth(n int) TableOption {
	return func(tf *Table) {
		tf.maxWidth = n
	}
}

func NewTable(opts ...TableOption) *Table {
	tf := &Table{}
	for _, opt := range opts {
		opt(tf)
	}
	return tf
}

func (tf *Table) Format(header core.Header, items []core.Item, opts *core.FormatterOptions) ([]byte, error) {
	if opts == nil {
		opts = &core.FormatterOptions{}
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Format = table.FormatOptions{
		Footer: text.FormatDefault,
		Header: text.FormatDefault,
		Row:    text.FormatDefault,
	}
	t.Style().Options.DrawBorder = false
	t.SuppressTrailingSpaces()

	t.AppendHeader(labelRow(header))
	if hasCaptions(opts.Captions) {
		captions := make([]string, len(header))
		copy(captions, opts.Captions)
		t.AppendHeader(labelRow(captions))
	}

	for i, item := range items {
		row := table.Row{opts.ChunkStart + i + 1}
		t.AppendRow(append(row, core.Values(item, header)...))
	}

	if tf.maxWidth > 0 {
		configs := make([]table.ColumnConfig, 0, len(header))
		for i := range header {
			// column 1 is the index
			configs = append(configs, table.ColumnConfig{Number: i + 2, WidthMax: tf.maxWidth})
		}
		t.SetColumnConfigs(configs)
	}

	return []byte(t.Render()), nil
}

func labelRow(labels []string) table.Row {
	row := make(table.Row, 0, len(labels)+1)
	row = append(row, "")
	for _, l := range labels {
		row = append(row, l)
	}
	return row
}

func hasCaptions(captions []string) bool {
	for _, c := range captions {
		if c != "" {
			return true
		}
	}
	return false
}
