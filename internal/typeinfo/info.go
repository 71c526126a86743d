// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package typeinfo

import (
	"reflect"
)

// Field represents a single field from a struct type.
type Field struct {
	Type reflect.Type

	// Name is the name of the struct field.
	Name string

	// Tag is the column name from the field's "db" tag.
	Tag string

	// Index of this field in the structure.
	Index int

	// OmitEmpty is true when "omitempty" is
	// a property of the field's "db" tag.
	OmitEmpty bool
}

// Info represents reflected information about a struct type.
type Info struct {
	Type reflect.Type

	// Fields holds the tagged fields in declaration order.
	Fields []Field

	// Relate tag names to fields.
	TagToField map[string]Field

	// Relate field names to tags.
	FieldToTag map[string]string
}

// Tags returns the column names in declaration order.
func (info *Info) Tags() []string {
	tags := make([]string, len(info.Fields))
	for i, f := range info.Fields {
		tags[i] = f.Tag
	}
	return tags
}

// Field returns the field for a property, which is either a column name
// from a "db" tag or the name of a tagged struct field.
func (info *Info) Field(property string) (Field, bool) {
	if f, ok := info.TagToField[property]; ok {
		return f, true
	}
	if tag, ok := info.FieldToTag[property]; ok {
		return info.TagToField[tag], true
	}
	return Field{}, false
}
