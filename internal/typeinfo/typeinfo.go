// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package typeinfo

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

var cacheMutex sync.RWMutex
var cache = make(map[reflect.Type]*Info)

// GetTypeInfo returns the Info of the struct type of value, generating and
// caching it as required. value may also be a pointer to a struct.
func GetTypeInfo(value any) (*Info, error) {
	if value == (any)(nil) {
		return nil, errors.New("cannot reflect nil value")
	}

	v := reflect.ValueOf(value)
	v = reflect.Indirect(v)
	if !v.IsValid() {
		return nil, errors.Errorf("cannot reflect nil %T", value)
	}
	return GetInfo(v.Type())
}

// GetInfo returns the Info of a struct type.
func GetInfo(t reflect.Type) (*Info, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	cacheMutex.RLock()
	info, found := cache[t]
	cacheMutex.RUnlock()
	if found {
		return info, nil
	}

	info, err := generate(t)
	if err != nil {
		return nil, err
	}

	cacheMutex.Lock()
	cache[t] = info
	cacheMutex.Unlock()

	return info, nil
}

// generate produces the reflection information of a struct type.
func generate(typ reflect.Type) (*Info, error) {
	// Reflection information is only generated for structs.
	if typ.Kind() != reflect.Struct {
		return nil, errors.Errorf("can only reflect struct type, got %s", typ.Kind())
	}

	info := Info{
		TagToField: make(map[string]Field),
		FieldToTag: make(map[string]string),
		Type:       typ,
	}

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		// Fields without a "db" tag are not columns.
		tag := field.Tag.Get("db")
		if tag == "" {
			continue
		}
		if !field.IsExported() {
			return nil, errors.Errorf("field %q of struct %q has a db tag but is not exported", field.Name, typ.Name())
		}
		tag, omitEmpty, err := parseTag(tag)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot parse tag for field %s.%s", typ.Name(), field.Name)
		}
		if _, ok := info.TagToField[tag]; ok {
			return nil, errors.Errorf("db tag %q appears in more than one field of struct %q", tag, typ.Name())
		}
		f := Field{
			Name:      field.Name,
			Tag:       tag,
			Index:     i,
			OmitEmpty: omitEmpty,
			Type:      field.Type,
		}
		info.Fields = append(info.Fields, f)
		info.TagToField[tag] = f
		info.FieldToTag[field.Name] = tag
	}

	return &info, nil
}

// This expression should be aligned with the characters accepted in
// placeholder names by the binder.
var validColNameRx = regexp.MustCompile(`^([a-zA-Z_])+([a-zA-Z_0-9])*$`)

// parseTag parses the input tag string and returns its
// name and whether it contains the "omitempty" option.
func parseTag(tag string) (string, bool, error) {
	options := strings.Split(tag, ",")

	var omitEmpty bool
	// Refuse to parse if there are more than 2 items.
	if len(options) > 2 {
		return "", false, errors.New("too many options in 'db' tag")
	}
	if len(options) == 2 {
		if strings.ToLower(options[1]) != "omitempty" {
			return "", false, errors.Errorf("unexpected tag value %q", options[1])
		}
		omitEmpty = true
	}

	name := options[0]
	if len(name) == 0 {
		return "", false, errors.New("empty db tag")
	}

	if !validColNameRx.MatchString(name) {
		return "", false, errors.Errorf("invalid column name %q in 'db' tag", name)
	}

	return name, omitEmpty, nil
}
