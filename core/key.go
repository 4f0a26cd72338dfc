package core

import (
	"cmp"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Selector evaluates one key component of an item.
type Selector func(Item) (any, error)

// FieldSelector selects a field by name or position.
func FieldSelector(field any) Selector {
	return func(item Item) (any, error) {
		return item.Get(field)
	}
}

// Selectors normalizes a mixed list of fields and selector functions.
func Selectors(keys ...any) []Selector {
	out := make([]Selector, len(keys))
	for i, k := range keys {
		switch t := k.(type) {
		case Selector:
			out[i] = t
		case func(Item) (any, error):
			out[i] = t
		default:
			out[i] = FieldSelector(k)
		}
	}
	return out
}

// Key is a comparable key tuple.
type Key []any

// KeyOf evaluates selectors against an item.
func KeyOf(item Item, selectors ...Selector) (Key, error) {
	key := make(Key, len(selectors))
	for i, sel := range selectors {
		v, err := sel(item)
		if err != nil {
			return nil, fmt.Errorf("key component %d: %w", i, err)
		}
		key[i] = v
	}
	return key, nil
}

func (k Key) Compare(o Key) int {
	return compareList(k, o)
}

func (k Key) Equal(o Key) bool {
	return len(k) == len(o) && k.Compare(o) == 0
}

// Hash is consistent with Equal: values that compare equal hash equally.
func (k Key) Hash() uint64 {
	d := xxhash.New()
	for _, v := range k {
		writeCanonical(d, v)
	}
	return d.Sum64()
}

// Unwrap returns the single component of a one-field key, or the key
// itself as a Row.
func (k Key) Unwrap() any {
	if len(k) == 1 {
		return k[0]
	}
	return Row(k)
}

const (
	rankNil = iota
	rankBool
	rankNumber
	rankString
	rankTime
	rankList
	rankOther
)

func rank(v any) int {
	switch v.(type) {
	case nil:
		return rankNil
	case bool:
		return rankBool
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return rankNumber
	case string, []byte:
		return rankString
	case time.Time:
		return rankTime
	case []any, Row, Key:
		return rankList
	default:
		return rankOther
	}
}

// Compare orders two values: nil first, then bools, numbers (across int and
// float kinds), strings, times, lists (lexicographically) and finally
// anything else by type name and printed form.
func Compare(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}

	switch ra {
	case rankNil:
		return 0
	case rankBool:
		x, y := a.(bool), b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		default:
			return 1
		}
	case rankNumber:
		return compareNumbers(a, b)
	case rankString:
		return cmp.Compare(asString(a), asString(b))
	case rankTime:
		return a.(time.Time).Compare(b.(time.Time))
	case rankList:
		return compareList(asList(a), asList(b))
	default:
		ta, tb := reflect.TypeOf(a).String(), reflect.TypeOf(b).String()
		if ta != tb {
			return cmp.Compare(ta, tb)
		}
		return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
}

func compareList(a, b []any) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a), len(b))
}

func compareNumbers(a, b any) int {
	ia, aInt := asInt64(a)
	ib, bInt := asInt64(b)
	if aInt && bInt {
		return cmp.Compare(ia, ib)
	}
	return cmp.Compare(asFloat64(a), asFloat64(b))
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), n <= math.MaxInt64
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), n <= math.MaxInt64
	default:
		return 0, false
	}
}

func asFloat64(v any) float64 {
	switch n := v.(type) {
	case float32:
		return float64(n)
	case float64:
		return n
	case uint:
		return float64(n)
	case uint64:
		return float64(n)
	}
	i, _ := asInt64(v)
	return float64(i)
}

func asString(v any) string {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v.(string)
}

func asList(v any) []any {
	switch l := v.(type) {
	case Row:
		return l
	case Key:
		return l
	default:
		return v.([]any)
	}
}

func writeCanonical(d *xxhash.Digest, v any) {
	switch rank(v) {
	case rankNil:
		_, _ = d.WriteString("z\x00")
	case rankBool:
		_, _ = d.WriteString("b" + strconv.FormatBool(v.(bool)) + "\x00")
	case rankNumber:
		// numbers that compare equal must hash equal, so 1 and 1.0 share a form
		_, _ = d.WriteString("n" + strconv.FormatFloat(asFloat64(v), 'g', -1, 64) + "\x00")
	case rankString:
		s := asString(v)
		_, _ = d.WriteString("s" + strconv.Itoa(len(s)) + ":")
		_, _ = d.WriteString(s)
	case rankTime:
		_, _ = d.WriteString("t" + strconv.FormatInt(v.(time.Time).UnixNano(), 10) + "\x00")
	case rankList:
		l := asList(v)
		_, _ = d.WriteString("l" + strconv.Itoa(len(l)) + ":")
		for _, e := range l {
			writeCanonical(d, e)
		}
	default:
		_, _ = d.WriteString("o" + reflect.TypeOf(v).String() + ":" + fmt.Sprint(v) + "\x00")
	}
}
