// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// fieldInfo describes one settable field of a message type
type fieldInfo struct {
	Path string // dotted path for nested structs
	Kind reflect.Kind
	Len  int // array length, 0 otherwise
}

// scalarField names the value of a registered type that is not a struct
const scalarField = "Value"

// messageFields lists the settable fields of v in wire order
func messageFields(v any) []fieldInfo {
	t := reflect.TypeOf(v)
	switch t.Kind() {
	case reflect.Struct:
	case reflect.Array:
		return []fieldInfo{{Path: scalarField, Kind: t.Elem().Kind(), Len: t.Len()}}
	default:
		return []fieldInfo{{Path: scalarField, Kind: t.Kind()}}
	}
	var fields []fieldInfo
	collectFields(t, "", &fields)
	return fields
}

func collectFields(t reflect.Type, prefix string, out *[]fieldInfo) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Name == "_" {
			continue
		}
		path := prefix + f.Name
		switch f.Type.Kind() {
		case reflect.Struct:
			collectFields(f.Type, path+".", out)
		case reflect.Array:
			*out = append(*out, fieldInfo{Path: path, Kind: f.Type.Elem().Kind(), Len: f.Type.Len()})
		default:
			*out = append(*out, fieldInfo{Path: path, Kind: f.Type.Kind()})
		}
	}
}

// setFields returns a copy of proto with "Field=Value" assignments applied.
// Nested fields use dotted paths; arrays take comma-separated values.
func setFields(proto any, assignments []string) (any, error) {
	ptr := reflect.New(reflect.TypeOf(proto))
	ptr.Elem().Set(reflect.ValueOf(proto))

	for _, a := range assignments {
		name, value, ok := strings.Cut(a, "=")
		if !ok {
			return nil, fmt.Errorf("invalid assignment %q (want Field=Value)", a)
		}
		field, err := lookupField(ptr.Elem(), strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		if err := setValue(field, strings.TrimSpace(value)); err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
	}

	return ptr.Elem().Interface(), nil
}

func lookupField(v reflect.Value, path string) (reflect.Value, error) {
	if v.Kind() != reflect.Struct && path == scalarField {
		return v, nil
	}
	for _, part := range strings.Split(path, ".") {
		if v.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field %s: %s is not a struct", path, v.Type())
		}
		f, ok := v.Type().FieldByName(part)
		if !ok || part == "_" || !f.IsExported() {
			return reflect.Value{}, fmt.Errorf("unknown field %s in %s", path, v.Type())
		}
		v = v.FieldByIndex(f.Index)
	}
	return v, nil
}

func setValue(v reflect.Value, s string) error {
	if v.Kind() == reflect.Array {
		parts := strings.Split(s, ",")
		if len(parts) > v.Len() {
			return fmt.Errorf("%d values for an array of %d", len(parts), v.Len())
		}
		for i, p := range parts {
			if err := setValue(v.Index(i), strings.TrimSpace(p)); err != nil {
				return fmt.Errorf("index %d: %w", i, err)
			}
		}
		return nil
	}

	switch v.Kind() {
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		v.SetBool(b)
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 0, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetInt(n)
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 0, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetFloat(f)
	default:
		return fmt.Errorf("cannot set %s from text", v.Kind())
	}
	return nil
}
