package core

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Item is one unit flowing through a stream. The set of implementations is
// closed: *Line, Row, *Record and *StructRow.
type Item interface {
	Kind() Kind
	// Get returns the value of a field. Fields are positions (int) or
	// names (string) depending on the variant.
	Get(field any) (any, error)
	// Set overwrites the value of a field.
	Set(field any, value any) error
	// Fields returns a fresh slice of addressable fields.
	Fields() []any
	// Clone copies the container, not the values.
	Clone() Item

	item()
}

var (
	_ Item = (*Line)(nil)
	_ Item = Row(nil)
	_ Item = (*Record)(nil)
	_ Item = (*StructRow)(nil)
)

// Line is a single opaque text value. Its only field is 0.
type Line struct {
	Text string
}

func NewLine(text string) *Line {
	return &Line{Text: text}
}

func (*Line) item()      {}
func (*Line) Kind() Kind { return KindLine }

func (l *Line) Get(field any) (any, error) {
	if i, ok := asIndex(field); !ok || i != 0 {
		return nil, fmt.Errorf("line field %v: %w", field, ErrOutOfRange)
	}
	return l.Text, nil
}

func (l *Line) Set(field any, value any) error {
	if i, ok := asIndex(field); !ok || i != 0 {
		return fmt.Errorf("line field %v: %w", field, ErrOutOfRange)
	}
	if s, ok := value.(string); ok {
		l.Text = s
	} else {
		l.Text = fmt.Sprint(value)
	}
	return nil
}

func (*Line) Fields() []any { return []any{0} }

func (l *Line) Clone() Item { return &Line{Text: l.Text} }

func (l *Line) String() string { return l.Text }

// Row is an ordered sequence of values addressed by position.
type Row []any

func (Row) item()      {}
func (Row) Kind() Kind { return KindRow }

func (r Row) Get(field any) (any, error) {
	i, ok := asIndex(field)
	if !ok {
		return nil, fmt.Errorf("row field %v: %w", field, ErrUnknownField)
	}
	if i < 0 || i >= len(r) {
		return nil, fmt.Errorf("row field %d of %d: %w", i, len(r), ErrOutOfRange)
	}
	return r[i], nil
}

func (r Row) Set(field any, value any) error {
	i, ok := asIndex(field)
	if !ok {
		return fmt.Errorf("row field %v: %w", field, ErrUnknownField)
	}
	if i < 0 || i >= len(r) {
		return fmt.Errorf("row field %d of %d: %w", i, len(r), ErrOutOfRange)
	}
	r[i] = value
	return nil
}

func (r Row) Fields() []any {
	fields := make([]any, len(r))
	for i := range r {
		fields[i] = i
	}
	return fields
}

func (r Row) Clone() Item { return slices.Clone(r) }

// Record maps field names to values. Lookup ignores order, but the insertion
// order of keys is kept for display.
type Record struct {
	keys   []string
	values map[string]any
}

func NewRecord() *Record {
	return &Record{values: make(map[string]any)}
}

// RecordFrom builds a record from parallel key and value slices. Missing
// values are nil.
func RecordFrom(keys []string, values []any) *Record {
	r := &Record{
		keys:   make([]string, 0, len(keys)),
		values: make(map[string]any, len(keys)),
	}
	for i, k := range keys {
		var v any
		if i < len(values) {
			v = values[i]
		}
		r.Put(k, v)
	}
	return r
}

// RecordFromMap builds a record with keys in sorted order.
func RecordFromMap(m map[string]any) *Record {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	r := &Record{
		keys:   keys,
		values: make(map[string]any, len(m)),
	}
	for k, v := range m {
		r.values[k] = v
	}
	return r
}

func (*Record) item()      {}
func (*Record) Kind() Kind { return KindRecord }

func (r *Record) Get(field any) (any, error) {
	name, ok := field.(string)
	if !ok {
		return nil, fmt.Errorf("record field %v: %w", field, ErrMissingKey)
	}
	v, ok := r.values[name]
	if !ok {
		return nil, fmt.Errorf("record field %q: %w", name, ErrMissingKey)
	}
	return v, nil
}

// Set overwrites an existing key or appends a new one.
func (r *Record) Set(field any, value any) error {
	name, ok := field.(string)
	if !ok {
		return fmt.Errorf("record field %v: %w", field, ErrMissingKey)
	}
	r.Put(name, value)
	return nil
}

// Put is Set for callers that already have a string key.
func (r *Record) Put(name string, value any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, ok := r.values[name]; !ok {
		r.keys = append(r.keys, name)
	}
	r.values[name] = value
}

func (r *Record) Has(name string) bool {
	_, ok := r.values[name]
	return ok
}

// Delete removes a key if present.
func (r *Record) Delete(name string) {
	if _, ok := r.values[name]; !ok {
		return
	}
	delete(r.values, name)
	r.keys = slices.DeleteFunc(r.keys, func(k string) bool { return k == name })
}

func (r *Record) Fields() []any {
	fields := make([]any, len(r.keys))
	for i, k := range r.keys {
		fields[i] = k
	}
	return fields
}

// Keys returns the keys in insertion order.
func (r *Record) Keys() []string { return slices.Clone(r.keys) }

// Values returns the values in key order.
func (r *Record) Values() []any {
	out := make([]any, len(r.keys))
	for i, k := range r.keys {
		out[i] = r.values[k]
	}
	return out
}

func (r *Record) Len() int { return len(r.keys) }

func (r *Record) Clone() Item {
	c := &Record{
		keys:   slices.Clone(r.keys),
		values: make(map[string]any, len(r.values)),
	}
	for k, v := range r.values {
		c.values[k] = v
	}
	return c
}

func (r *Record) String() string {
	parts := make([]string, len(r.keys))
	for i, k := range r.keys {
		parts[i] = fmt.Sprintf("%s: %v", k, r.values[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// StructRow is a Row paired with the Struct that names and types its
// positions. The Struct is shared, never owned or mutated by the row.
type StructRow struct {
	Row    Row
	schema *Struct
}

// NewStructRow pairs a row with a struct. Short rows are padded with nil,
// rows wider than the struct are rejected.
func NewStructRow(schema *Struct, row Row) (*StructRow, error) {
	if schema == nil {
		return nil, ErrMissingStruct
	}
	if len(row) > schema.Len() {
		return nil, fmt.Errorf("row of %d values for struct of %d fields: %w", len(row), schema.Len(), ErrOutOfRange)
	}
	if len(row) < schema.Len() {
		padded := make(Row, schema.Len())
		copy(padded, row)
		row = padded
	}
	return &StructRow{Row: row, schema: schema}, nil
}

func (*StructRow) item()      {}
func (*StructRow) Kind() Kind { return KindStructRow }

func (r *StructRow) Struct() *Struct { return r.schema }

func (r *StructRow) position(field any) (int, error) {
	if name, ok := field.(string); ok {
		pos, ok := r.schema.Position(name)
		if !ok {
			return 0, fmt.Errorf("struct field %q: %w", name, ErrUnknownField)
		}
		return pos, nil
	}
	i, ok := asIndex(field)
	if !ok {
		return 0, fmt.Errorf("struct field %v: %w", field, ErrUnknownField)
	}
	if i < 0 || i >= len(r.Row) {
		return 0, fmt.Errorf("struct field %d of %d: %w", i, len(r.Row), ErrOutOfRange)
	}
	return i, nil
}

func (r *StructRow) Get(field any) (any, error) {
	pos, err := r.position(field)
	if err != nil {
		return nil, err
	}
	return r.Row[pos], nil
}

func (r *StructRow) Set(field any, value any) error {
	pos, err := r.position(field)
	if err != nil {
		return err
	}
	r.Row[pos] = value
	return nil
}

// Fields returns the struct names.
func (r *StructRow) Fields() []any {
	names := r.schema.Names()
	fields := make([]any, len(names))
	for i, n := range names {
		fields[i] = n
	}
	return fields
}

func (r *StructRow) Clone() Item {
	return &StructRow{Row: slices.Clone(r.Row), schema: r.schema}
}

// Record converts the row to a record keyed by struct names.
func (r *StructRow) Record() *Record {
	return RecordFrom(r.schema.Names(), r.Row)
}

// AsItem converts a raw value to an Item. Values with no natural item shape
// become a single-value Row.
func AsItem(v any) Item {
	switch t := v.(type) {
	case Item:
		return t
	case string:
		return NewLine(t)
	case []any:
		return Row(t)
	case []string:
		row := make(Row, len(t))
		for i, s := range t {
			row[i] = s
		}
		return row
	case map[string]any:
		return RecordFromMap(t)
	default:
		return Row{v}
	}
}

// Values flattens an item into display order. Records follow header when it
// is not empty.
func Values(item Item, header Header) []any {
	switch t := item.(type) {
	case *Line:
		return []any{t.Text}
	case Row:
		return t
	case *StructRow:
		return t.Row
	case *Record:
		if len(header) == 0 {
			return t.Values()
		}
		out := make([]any, len(header))
		for i, h := range header {
			out[i] = t.values[h]
		}
		return out
	default:
		return nil
	}
}

// RowOf lays item out as a plain row. Records follow header when it is not
// empty.
func RowOf(item Item, header Header) Row {
	if r, ok := item.(Row); ok {
		return r
	}
	return Row(Values(item, header))
}

// RecordOf converts item to a record. Rows are named by names, positions past
// its end get positional names.
func RecordOf(item Item, names Header) *Record {
	switch t := item.(type) {
	case *Record:
		return t
	case *StructRow:
		return t.Record()
	case *Line:
		return RecordFrom([]string{"line"}, []any{t.Text})
	case Row:
		keys := make([]string, len(t))
		for i := range t {
			if i < len(names) {
				keys[i] = names[i]
				continue
			}
			keys[i] = "column_" + strconv.Itoa(i)
		}
		return RecordFrom(keys, t)
	default:
		return NewRecord()
	}
}

// HeaderOf derives display names for a batch of items. A struct wins, then
// record keys of the first item, otherwise positional names are generated.
func HeaderOf(schema *Struct, items []Item) Header {
	if schema != nil {
		return schema.Names()
	}
	if len(items) == 0 {
		return Header{}
	}
	switch t := items[0].(type) {
	case *StructRow:
		return t.schema.Names()
	case *Record:
		return t.Keys()
	case *Line:
		return Header{"line"}
	}

	width := 0
	for _, it := range items {
		width = max(width, len(Values(it, nil)))
	}
	header := make(Header, width)
	for i := range header {
		header[i] = "column_" + strconv.Itoa(i)
	}
	return header
}

func asIndex(field any) (int, bool) {
	switch i := field.(type) {
	case int:
		return i, true
	case int8:
		return int(i), true
	case int16:
		return int(i), true
	case int32:
		return int(i), true
	case int64:
		return int(i), true
	case uint:
		return int(i), true
	case uint8:
		return int(i), true
	case uint16:
		return int(i), true
	case uint32:
		return int(i), true
	case uint64:
		return int(i), true
	default:
		return 0, false
	}
}

// LineText renders an item as one line of text, values separated by tabs.
func LineText(item Item) string {
	if l, ok := item.(*Line); ok {
		return l.Text
	}
	values := Values(item, nil)
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, "\t")
}
