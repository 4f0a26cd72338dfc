package core

import (
	"fmt"
	"strings"
)

type SchemaType int

const (
	SchemaFul SchemaType = iota
	SchemaLess
)

type (
	// FormatterOptions provide various options for formatters
	FormatterOptions struct {
		SchemaType SchemaType
		ChunkStart int
		// Captions holds a caption per header name, if the stream has any.
		Captions []string
	}

	// Formatter converts header and items to bytes
	Formatter interface {
		Format(header Header, items []Item, opts *FormatterOptions) ([]byte, error)
	}
)

// Header is the ordered list of field names used for display.
type Header []string

// Cursor is a single-pass, pull-based producer.
// HasNext may block while the next value is computed. Next returns ErrNoNext
// when called past the end. Close releases the underlying producer and is
// safe to call multiple times.
type Cursor[T any] interface {
	HasNext() bool
	Next() (T, error)
	Close()
}

// Kind identifies an Item variant, or a stream of them.
type Kind int

const (
	// KindAny is the most permissive kind: items of any shape.
	KindAny Kind = iota
	KindLine
	KindRow
	KindRecord
	KindStructRow
	// KindAuto is only valid as a request: detect the kind from the data.
	KindAuto
)

func (k Kind) String() string {
	switch k {
	case KindAny:
		return "any"
	case KindLine:
		return "line"
	case KindRow:
		return "row"
	case KindRecord:
		return "record"
	case KindStructRow:
		return "struct"
	case KindAuto:
		return "auto"
	default:
		return "unknown"
	}
}

// ParseKind is the inverse of Kind.String. It also accepts a couple of
// aliases ("structrow", "lines", "rows", "records").
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "any":
		return KindAny, nil
	case "auto", "":
		return KindAuto, nil
	case "line", "lines":
		return KindLine, nil
	case "row", "rows":
		return KindRow, nil
	case "record", "records":
		return KindRecord, nil
	case "struct", "structrow", "structrows":
		return KindStructRow, nil
	default:
		return KindAny, fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
}
