package chtype

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

var (
	timeType     = reflect.TypeFor[time.Time]()
	stringerType = reflect.TypeFor[fmt.Stringer]()
)

// AssignableFrom reports whether values of the Go type t can be written to a
// column of type ct by the ClickHouse driver.
//
// The check is intentionally close to what clickhouse-go accepts when
// appending structs to a batch: integer widths and signedness must match,
// Nullable columns take pointers, arrays take slices, maps take maps and
// LowCardinality is transparent. Interface types accept anything. Types the
// function does not know about (geo types, JSON, Variant, ...) are accepted and
// left for the server to validate.
//
// Example:
//
//	ct := chtype.MustParse("Nullable(String)")
//	ct.AssignableFrom(reflect.TypeOf((*string)(nil))) // true
//	ct.AssignableFrom(reflect.TypeOf(""))             // false
func (ct *Type) AssignableFrom(t reflect.Type) bool {
	if t.Kind() == reflect.Interface {
		return true
	}

	switch {
	case ct.LowCardinality != nil:
		return ct.LowCardinality.Type.AssignableFrom(t)

	case ct.Nullable != nil:
		if t.Kind() == reflect.Ptr {
			return ct.Nullable.Type.AssignableFrom(t.Elem())
		}
		return isSQLNull(t)

	case ct.Array != nil:
		if t.Kind() != reflect.Slice && t.Kind() != reflect.Array {
			return false
		}
		return ct.Array.Type.AssignableFrom(t.Elem())

	case ct.Map != nil:
		if t.Kind() != reflect.Map {
			return false
		}
		return ct.Map.Key.AssignableFrom(t.Key()) && ct.Map.Value.AssignableFrom(t.Elem())

	case ct.Tuple != nil:
		switch t.Kind() {
		case reflect.Struct:
			return true
		case reflect.Slice, reflect.Array:
			return true
		case reflect.Map:
			return t.Key().Kind() == reflect.String
		}
		return false

	case ct.Nested != nil:
		return t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Struct

	case ct.Simple != nil:
		return simpleAssignable(unquote(ct.Simple.Name), t)
	}

	return false
}

func simpleAssignable(name string, t reflect.Type) bool {
	k := t.Kind()

	switch name {
	case "Int8":
		return k == reflect.Int8
	case "Int16":
		return k == reflect.Int16
	case "Int32":
		return k == reflect.Int32
	case "Int64":
		return k == reflect.Int64 || k == reflect.Int
	case "UInt8":
		return k == reflect.Uint8 || k == reflect.Bool
	case "UInt16":
		return k == reflect.Uint16
	case "UInt32":
		return k == reflect.Uint32
	case "UInt64":
		return k == reflect.Uint64 || k == reflect.Uint
	case "Int128", "Int256", "UInt128", "UInt256":
		return isBigInt(t)
	case "Float32":
		return k == reflect.Float32
	case "Float64":
		return k == reflect.Float64
	case "Bool", "Boolean":
		return k == reflect.Bool
	case "String", "FixedString":
		return k == reflect.String || isBytes(t)
	case "UUID":
		return k == reflect.String || (k == reflect.Array && t.Len() == 16 && t.Elem().Kind() == reflect.Uint8)
	case "Date", "Date32", "DateTime", "DateTime32", "DateTime64":
		return isTime(t)
	case "Enum8":
		return k == reflect.String || k == reflect.Int8
	case "Enum16":
		return k == reflect.String || k == reflect.Int16
	case "IPv4", "IPv6":
		return k == reflect.String || isBytes(t) || (k == reflect.Struct && t.Name() == "Addr")
	case "Nothing":
		return false
	}

	if strings.HasPrefix(name, "Decimal") {
		return k == reflect.String || k == reflect.Float64 || (k == reflect.Struct && t.Implements(stringerType))
	}

	return true
}

func isTime(t reflect.Type) bool {
	return t == timeType
}

func isBigInt(t reflect.Type) bool {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	return t.Kind() == reflect.Struct && t.PkgPath() == "math/big" && t.Name() == "Int"
}

func isBytes(t reflect.Type) bool {
	return t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8
}

func isSQLNull(t reflect.Type) bool {
	return t.Kind() == reflect.Struct && t.PkgPath() == "database/sql" && strings.HasPrefix(t.Name(), "Null")
}
