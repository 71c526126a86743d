// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package typeinfo

import (
	"database/sql"
	"reflect"

	"github.com/pkg/errors"
)

var scannerInterface = reflect.TypeOf((*sql.Scanner)(nil)).Elem()

// ScanProxy is a shim for scanning query results
// into types for which we have information.
type ScanProxy struct {
	original reflect.Value
	scan     reflect.Value
	key      reflect.Value
}

// OnSuccess copies the scanned value into its destination. NULL scanned for
// a field that cannot hold nil leaves the field's zero value.
func (sp ScanProxy) OnSuccess() {
	if sp.key.IsValid() {
		sp.original.SetMapIndex(sp.key, sp.scan)
		return
	}
	var val reflect.Value
	if !sp.scan.IsNil() {
		val = sp.scan.Elem()
	} else {
		val = reflect.Zero(sp.original.Type())
	}
	sp.original.Set(val)
}

// ScanTargets returns the pointers to pass to rows.Scan for the given result
// columns. output must be a pointer to a struct with "db" tags or a map
// with string keys. Columns qualified with a table name are matched by
// their column name. The proxies must be run once the scan succeeds.
func ScanTargets(output any, columns []string) ([]any, []ScanProxy, error) {
	v := reflect.ValueOf(output)
	switch {
	case v.Kind() == reflect.Map:
		if v.IsNil() {
			return nil, nil, errors.New("need map or pointer to struct, got nil map")
		}
		if v.Type().Key().Kind() != reflect.String {
			return nil, nil, errors.Errorf("need map with string keys, got %s", v.Type())
		}
		return mapTargets(v, columns)
	case v.Kind() == reflect.Pointer && !v.IsNil() && v.Elem().Kind() == reflect.Struct:
		return structTargets(v.Elem(), columns)
	case v.Kind() == reflect.Pointer && !v.IsNil() && v.Elem().Kind() == reflect.Map:
		if v.Elem().IsNil() {
			v.Elem().Set(reflect.MakeMap(v.Elem().Type()))
		}
		return ScanTargets(v.Elem().Interface(), columns)
	case v.Kind() == reflect.Pointer:
		return nil, nil, errors.Errorf("need map or pointer to struct, got %T", output)
	case v.Kind() == reflect.Invalid:
		return nil, nil, errors.New("need map or pointer to struct, got nil")
	}
	return nil, nil, errors.Errorf("need map or pointer to struct, got %s", v.Kind())
}

func mapTargets(m reflect.Value, columns []string) ([]any, []ScanProxy, error) {
	ptrs := make([]any, len(columns))
	proxies := make([]ScanProxy, len(columns))
	for i, col := range columns {
		name, _ := unqualified(col)
		scanVal := reflect.New(m.Type().Elem()).Elem()
		ptrs[i] = scanVal.Addr().Interface()
		proxies[i] = ScanProxy{original: m, scan: scanVal, key: reflect.ValueOf(name).Convert(m.Type().Key())}
	}
	return ptrs, proxies, nil
}

func structTargets(s reflect.Value, columns []string) ([]any, []ScanProxy, error) {
	info, err := GetInfo(s.Type())
	if err != nil {
		return nil, nil, err
	}
	ptrs := make([]any, len(columns))
	var proxies []ScanProxy
	for i, col := range columns {
		name, _ := unqualified(col)
		f, ok := info.TagToField[name]
		if !ok {
			return nil, nil, errors.Errorf("no tag for column %q in struct %q", col, s.Type().Name())
		}
		val := s.Field(f.Index)
		pt := reflect.PointerTo(val.Type())
		if val.Kind() != reflect.Pointer && !pt.Implements(scannerInterface) {
			scanVal := reflect.New(pt).Elem()
			ptrs[i] = scanVal.Addr().Interface()
			proxies = append(proxies, ScanProxy{original: val, scan: scanVal})
			continue
		}
		ptrs[i] = val.Addr().Interface()
	}
	return ptrs, proxies, nil
}
