package listview

import (
	"cmp"
	"reflect"
	"strings"
	"time"
)

// SortDirection is the order applied to the sort column.
type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// Flip returns the opposite direction.
func (d SortDirection) Flip() SortDirection {
	if d == Ascending {
		return Descending
	}
	return Ascending
}

type kind int

const (
	kindBool kind = iota
	kindNumber
	kindString
	kindTime
	kindOther
	kindMissing
)

func kindOf(v any) kind {
	switch t := v.(type) {
	case nil:
		return kindMissing
	case bool:
		return kindBool
	case string:
		return kindString
	case time.Time:
		return kindTime
	case *time.Time:
		if t == nil {
			return kindMissing
		}
		return kindTime
	}
	if _, ok := asFloat(v); ok {
		return kindNumber
	}
	rv := reflect.ValueOf(v)
	switch {
	case rv.Kind() == reflect.String:
		return kindString
	case rv.Kind() == reflect.Pointer && rv.IsNil():
		return kindMissing
	}
	return kindOther
}

// Compare orders two raw field values. Strings compare byte-wise, so upper
// case sorts before lower case. Numbers compare numerically, false sorts before
// true and timestamps compare chronologically. Values of different kinds
// order as bool, number, string, time; values without a natural order come
// next and compare equal to each other; nil sorts last.
func Compare(a, b any) int {
	ka, kb := kindOf(a), kindOf(b)
	if ka != kb {
		return cmp.Compare(ka, kb)
	}
	switch ka {
	case kindBool:
		return compareBool(a.(bool), b.(bool))
	case kindNumber:
		x, _ := asFloat(a)
		y, _ := asFloat(b)
		return cmp.Compare(x, y)
	case kindString:
		return strings.Compare(reflect.ValueOf(a).String(), reflect.ValueOf(b).String())
	case kindTime:
		x, _ := asTime(a)
		y, _ := asTime(b)
		return x.Compare(y)
	default:
		return 0
	}
}

// compareSorted applies dir to Compare but keeps nil values at the end in
// both directions.
func compareSorted(a, b any, dir SortDirection) int {
	ma, mb := kindOf(a) == kindMissing, kindOf(b) == kindMissing
	if ma || mb {
		return compareBool(ma, mb)
	}
	c := Compare(a, b)
	if dir == Descending {
		return -c
	}
	return c
}

func compareBool(x, y bool) int {
	switch {
	case x == y:
		return 0
	case !x:
		return -1
	default:
		return 1
	}
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	default:
		return time.Time{}, false
	}
}

func asFloat(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}
