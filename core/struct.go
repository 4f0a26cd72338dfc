package core

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// FieldType is the declared type of a Struct field.
type FieldType int

const (
	TypeAny FieldType = iota
	TypeString
	TypeInt
	TypeFloat
	TypeBool
	TypeTime
)

func (t FieldType) String() string {
	switch t {
	case TypeString:
		return "str"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	case TypeTime:
		return "time"
	default:
		return "any"
	}
}

func ParseFieldType(s string) FieldType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "str", "string", "text", "varchar", "char":
		return TypeString
	case "int", "integer", "bigint", "smallint", "int64", "int32":
		return TypeInt
	case "float", "double", "real", "numeric", "decimal", "float64":
		return TypeFloat
	case "bool", "boolean":
		return TypeBool
	case "time", "date", "datetime", "timestamp":
		return TypeTime
	default:
		return TypeAny
	}
}

// DetectType guesses the field type of a single value. nil gives TypeAny.
func DetectType(v any) FieldType {
	switch v.(type) {
	case string, []byte:
		return TypeString
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return TypeInt
	case float32, float64:
		return TypeFloat
	case bool:
		return TypeBool
	case time.Time:
		return TypeTime
	default:
		return TypeAny
	}
}

// Widen returns a type able to hold values of both t and o.
func (t FieldType) Widen(o FieldType) FieldType {
	switch {
	case t == o:
		return t
	case t == TypeAny:
		return o
	case o == TypeAny:
		return t
	case (t == TypeInt && o == TypeFloat) || (t == TypeFloat && o == TypeInt):
		return TypeFloat
	default:
		return TypeString
	}
}

// Field describes one position of a Struct.
type Field struct {
	Name    string
	Type    FieldType
	Caption string
	Group   string
}

// Struct is an ordered schema. Names are unique within one Struct and
// positions never change once assigned. A Struct handed out to rows must be
// treated as immutable: use the copy-on-write form of AddField/RemoveField.
type Struct struct {
	fields []Field
	index  map[string]int
}

func NewStruct(fields ...Field) (*Struct, error) {
	s := &Struct{
		fields: make([]Field, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		if err := s.append(f); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// StructFromNames builds a struct of untyped fields.
func StructFromNames(names ...string) (*Struct, error) {
	fields := make([]Field, len(names))
	for i, n := range names {
		fields[i] = Field{Name: n}
	}
	return NewStruct(fields...)
}

// DetectStruct builds a struct from a title row. Types are widened over the
// sample rows; empty titles get positional names.
func DetectStruct(title Row, sample []Row) (*Struct, error) {
	fields := make([]Field, len(title))
	for i, t := range title {
		name := ""
		if t != nil {
			name = strings.TrimSpace(fmt.Sprint(t))
		}
		if name == "" {
			name = "column_" + strconv.Itoa(i)
		}
		fields[i] = Field{Name: name}
	}
	for _, row := range sample {
		for i := range fields {
			if i >= len(row) || row[i] == nil {
				continue
			}
			fields[i].Type = fields[i].Type.Widen(DetectType(row[i]))
		}
	}
	return NewStruct(fields...)
}

func (s *Struct) append(f Field) error {
	if _, ok := s.index[f.Name]; ok {
		return fmt.Errorf("field %q: %w", f.Name, ErrDuplicateField)
	}
	s.index[f.Name] = len(s.fields)
	s.fields = append(s.fields, f)
	return nil
}

func (s *Struct) Len() int {
	if s == nil {
		return 0
	}
	return len(s.fields)
}

func (s *Struct) Names() Header {
	if s == nil {
		return Header{}
	}
	names := make(Header, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// Field returns the descriptor at position i.
func (s *Struct) Field(i int) (Field, bool) {
	if s == nil || i < 0 || i >= len(s.fields) {
		return Field{}, false
	}
	return s.fields[i], true
}

func (s *Struct) Fields() []Field {
	if s == nil {
		return nil
	}
	return slices.Clone(s.fields)
}

func (s *Struct) Position(name string) (int, bool) {
	if s == nil {
		return 0, false
	}
	i, ok := s.index[name]
	return i, ok
}

func (s *Struct) Contains(name string) bool {
	_, ok := s.Position(name)
	return ok
}

// Resolve turns a field selector (name or position) into a position.
func (s *Struct) Resolve(field any) (int, error) {
	if name, ok := field.(string); ok {
		pos, ok := s.Position(name)
		if !ok {
			return 0, fmt.Errorf("struct field %q: %w", name, ErrUnknownField)
		}
		return pos, nil
	}
	i, ok := asIndex(field)
	if !ok {
		return 0, fmt.Errorf("struct field %v: %w", field, ErrUnknownField)
	}
	if i < 0 || i >= s.Len() {
		return 0, fmt.Errorf("struct field %d of %d: %w", i, s.Len(), ErrOutOfRange)
	}
	return i, nil
}

func (s *Struct) clone() *Struct {
	c := &Struct{
		fields: slices.Clone(s.fields),
		index:  make(map[string]int, len(s.index)),
	}
	for k, v := range s.index {
		c.index[k] = v
	}
	return c
}

// AddField appends a field. With inplace=false the receiver is left
// untouched and a modified copy is returned.
func (s *Struct) AddField(f Field, inplace bool) (*Struct, error) {
	target := s
	if !inplace {
		target = s.clone()
	}
	if err := target.append(f); err != nil {
		return nil, err
	}
	return target, nil
}

// RemoveField drops a field by name. Positions after it shift left, so only
// do this on structs that no row references yet, or with inplace=false.
func (s *Struct) RemoveField(name string, inplace bool) (*Struct, error) {
	pos, ok := s.Position(name)
	if !ok {
		return nil, fmt.Errorf("struct field %q: %w", name, ErrUnknownField)
	}
	target := s
	if !inplace {
		target = s.clone()
	}
	target.fields = slices.Delete(target.fields, pos, pos+1)
	target.index = make(map[string]int, len(target.fields))
	for i, f := range target.fields {
		target.index[f.Name] = i
	}
	return target, nil
}

func (s *Struct) Equal(o *Struct) bool {
	if s == nil || o == nil {
		return s == o
	}
	return slices.Equal(s.fields, o.fields)
}

func (s *Struct) String() string {
	parts := make([]string, 0, s.Len())
	for _, f := range s.Fields() {
		parts = append(parts, f.Name+" "+f.Type.String())
	}
	return "Struct(" + strings.Join(parts, ", ") + ")"
}
