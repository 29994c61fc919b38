package postgres

import (
	"reflect"
	"sync"
)

// columnCache maps a struct type to its db column names.
var columnCache sync.Map // map[reflect.Type][]string

// Columns returns the "db" tag names of T's fields in declaration order,
// descending into embedded structs. Results are cached per type.
//
//	cols := Columns[taxRuleRow]() // ["idx", "charge_type", "rate", ...]
func Columns[T any]() []string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if cached, ok := columnCache.Load(t); ok {
		return cached.([]string)
	}
	cols := columnsOf(t)
	columnCache.Store(t, cols)
	return cols
}

func columnsOf(t reflect.Type) []string {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	var cols []string
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous {
			cols = append(cols, columnsOf(field.Type)...)
			continue
		}
		tag := field.Tag.Get("db")
		if tag == "" || tag == "-" || !field.IsExported() {
			continue
		}
		cols = append(cols, tag)
	}
	return cols
}

// Values returns v's "db"-tagged field values in the same order as Columns.
func Values(v any) []any {
	return valuesOf(reflect.ValueOf(v))
}

func valuesOf(rv reflect.Value) []any {
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	var out []any
	for i := 0; i < rv.NumField(); i++ {
		field := rv.Type().Field(i)
		if field.Anonymous {
			out = append(out, valuesOf(rv.Field(i))...)
			continue
		}
		tag := field.Tag.Get("db")
		if tag == "" || tag == "-" || !field.IsExported() {
			continue
		}
		out = append(out, rv.Field(i).Interface())
	}
	return out
}
