package columnar

import (
	"fmt"
	"strconv"

	"github.com/kndndrj/lazystream/core"
	"github.com/kndndrj/lazystream/sequence"
)

// Expr is one output field of Select.
type Expr struct {
	alias   string
	field   any
	compute func(core.Item) (any, error)
	value   any
	isConst bool
}

// Field selects a field by name or position.
func Field(field any) Expr {
	return Expr{field: field}
}

// Compute derives a value from the whole item.
func Compute(alias string, fn func(core.Item) (any, error)) Expr {
	return Expr{alias: alias, compute: fn}
}

// Const emits the same value for every item.
func Const(alias string, v any) Expr {
	return Expr{alias: alias, value: v, isConst: true}
}

// As renames the output field.
func (e Expr) As(alias string) Expr {
	e.alias = alias
	return e
}

func (e Expr) name(i int) string {
	if e.alias != "" {
		return e.alias
	}
	if name, ok := e.field.(string); ok {
		return name
	}
	return "column_" + strconv.Itoa(i)
}

func (e Expr) eval(item core.Item) (any, error) {
	switch {
	case e.isConst:
		return e.value, nil
	case e.compute != nil:
		return e.compute(item)
	default:
		return item.Get(e.field)
	}
}

// Select projects, renames and computes fields. Rows stay rows, records stay
// records and struct rows get a struct derived from the attached one. With a
// struct attached, references to unknown fields fail here; otherwise they
// fail when the offending item is read.
func (s *Stream) Select(exprs ...Expr) (*Stream, error) {
	names := make([]string, len(exprs))
	for i, e := range exprs {
		names[i] = e.name(i)
	}

	var out *core.Struct
	if s.schema != nil {
		fields := make([]core.Field, len(exprs))
		for i, e := range exprs {
			fields[i] = core.Field{Name: names[i]}
			if e.compute != nil || e.isConst {
				continue
			}
			pos, err := s.schema.Resolve(e.field)
			if err != nil {
				return nil, fmt.Errorf("%s: select %v: %w", s.Name(), e.field, core.ErrUnknownField)
			}
			src, _ := s.schema.Field(pos)
			fields[i].Type = src.Type
			fields[i].Caption = src.Caption
			fields[i].Group = src.Group
		}

		var err error
		out, err = core.NewStruct(fields...)
		if err != nil {
			return nil, fmt.Errorf("%s: select: %w", s.Name(), err)
		}
	}

	project := func(item core.Item) (core.Item, error) {
		values := make(core.Row, len(exprs))
		for i, e := range exprs {
			v, err := e.eval(item)
			if err != nil {
				return nil, fmt.Errorf("select %s: %w", names[i], err)
			}
			values[i] = v
		}

		switch item.(type) {
		case *core.Record:
			return core.RecordFrom(names, values), nil
		case *core.StructRow:
			if out == nil {
				return core.RecordFrom(names, values), nil
			}
			return core.NewStructRow(out, values)
		default:
			return values, nil
		}
	}

	kind, schema := s.kind, out
	if kind != core.KindStructRow {
		schema = nil
	}
	return New(sequence.Map(s.seq, project), kind, schema), nil
}
