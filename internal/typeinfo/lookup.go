// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package typeinfo

import (
	"reflect"
	"strings"

	"github.com/pkg/errors"
)

// ErrNotFound is the cause of errors for properties missing from a row.
var ErrNotFound = errors.New("property not found")

// Lookup returns the value of property in row. The row may be a map with
// string keys, a struct with "db" tags or a pointer to either. A property
// qualified with a table or alias, such as "person.name", is also found by
// its column name. Field values are returned as they are, pointers
// included.
func Lookup(row any, property string) (any, error) {
	v := reflect.ValueOf(row)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, errors.Errorf("cannot look up %q in nil %T", property, row)
		}
		v = v.Elem()
	}

	var found reflect.Value
	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil, errors.Errorf("cannot look up %q in %T: map keys are not strings", property, row)
		}
		found = lookupMap(v, property)
	case reflect.Struct:
		info, err := GetInfo(v.Type())
		if err != nil {
			return nil, err
		}
		found = lookupStruct(v, info, property)
	case reflect.Invalid:
		return nil, errors.Errorf("cannot look up %q in nil row", property)
	default:
		return nil, errors.Errorf("cannot look up %q in %T: need map or struct", property, row)
	}
	if !found.IsValid() {
		return nil, errors.Wrapf(ErrNotFound, "cannot look up %q in %T", property, row)
	}
	return found.Interface(), nil
}

func unqualified(property string) (string, bool) {
	i := strings.LastIndexByte(property, '.')
	if i < 0 {
		return property, false
	}
	return property[i+1:], true
}

func lookupMap(m reflect.Value, property string) reflect.Value {
	key := reflect.ValueOf(property).Convert(m.Type().Key())
	if v := m.MapIndex(key); v.IsValid() {
		return v
	}
	if col, ok := unqualified(property); ok {
		return m.MapIndex(reflect.ValueOf(col).Convert(m.Type().Key()))
	}
	return reflect.Value{}
}

func lookupStruct(s reflect.Value, info *Info, property string) reflect.Value {
	if f, ok := info.Field(property); ok {
		return s.Field(f.Index)
	}
	if col, ok := unqualified(property); ok {
		if f, ok := info.Field(col); ok {
			return s.Field(f.Index)
		}
	}
	return reflect.Value{}
}
