// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package serialfactory

import (
	"fmt"
	"reflect"
	"strings"
)

// FormatMessage formats a message into a human-readable string
func FormatMessage(r *Registry, m *GenericMessage) string {
	timestamp := m.Timestamp().Format("15:04:05.000")
	result := fmt.Sprintf("[%s] %s (0x%02X) len=%d crc=0x%02X\n",
		timestamp, r.Name(m.ID()), m.ID(), m.Length(), m.Checksum())

	v, err := r.Decode(m)
	if err != nil {
		result += fmt.Sprintf("  Decode error: %v\n", err)
		result += fmt.Sprintf("  Raw: %s\n", FormatHex(m.Payload()))
		return result
	}
	result += FormatValue(v)
	return result
}

// FormatValue formats the fields of a message value, one per line
func FormatValue(v any) string {
	rv := reflect.Indirect(reflect.ValueOf(v))
	if rv.Kind() != reflect.Struct {
		return fmt.Sprintf("  Value: %v\n", rv.Interface())
	}
	if rv.NumField() == 0 {
		return "  (empty payload)\n"
	}

	var b strings.Builder
	t := rv.Type()
	for i := 0; i < rv.NumField(); i++ {
		if t.Field(i).Name == "_" {
			continue
		}
		fmt.Fprintf(&b, "  %s: %s\n", t.Field(i).Name, formatField(rv.Field(i)))
	}
	return b.String()
}

func formatField(v reflect.Value) string {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return fmt.Sprintf("%g", v.Float())
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return fmt.Sprintf("%d (0x%X)", v.Uint(), v.Uint())
	case reflect.Struct:
		parts := make([]string, 0, v.NumField())
		for i := 0; i < v.NumField(); i++ {
			name := v.Type().Field(i).Name
			if name == "_" {
				continue
			}
			parts = append(parts, name+"="+formatField(v.Field(i)))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return fmt.Sprintf("%v", v.Interface())
}

// FormatHex formats bytes as space-separated hex pairs
func FormatHex(data []byte) string {
	var b strings.Builder
	for i, c := range data {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%02X", c)
	}
	return b.String()
}
