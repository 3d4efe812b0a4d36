// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package serialfactory

import (
	"fmt"
	"math"
	"reflect"
)

// AnomalyType represents different types of message anomalies
type AnomalyType int

const (
	AnomalyUnknownID AnomalyType = iota
	AnomalyLengthMismatch
	AnomalyDecodeError
	AnomalyNonFinite
)

// String returns the anomaly name
func (a AnomalyType) String() string {
	switch a {
	case AnomalyUnknownID:
		return "unknown id"
	case AnomalyLengthMismatch:
		return "length mismatch"
	case AnomalyDecodeError:
		return "decode error"
	case AnomalyNonFinite:
		return "non-finite value"
	}
	return "unknown anomaly"
}

// ValidationError represents a message validation failure
type ValidationError struct {
	Type    AnomalyType
	Message string
	Details map[string]interface{}
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	return v.Message
}

// Validate checks a checksum-valid message against the registry.
// Returns a slice of validation errors (empty if the message is sound)
func (r *Registry) Validate(m *GenericMessage) []ValidationError {
	errors := []ValidationError{}

	size, ok := r.Size(m.ID())
	if !ok {
		return []ValidationError{{
			Type:    AnomalyUnknownID,
			Message: fmt.Sprintf("Unknown message id %d (registry has %d types)", m.ID(), r.Len()),
			Details: map[string]interface{}{"id": m.ID(), "types": r.Len()},
		}}
	}

	if int(m.Length()) != size {
		return []ValidationError{{
			Type:    AnomalyLengthMismatch,
			Message: fmt.Sprintf("%s payload length mismatch (expected %d bytes)", r.Name(m.ID()), size),
			Details: map[string]interface{}{"received": int(m.Length()), "expected": size},
		}}
	}

	v, err := r.Decode(m)
	if err != nil {
		return []ValidationError{{
			Type:    AnomalyDecodeError,
			Message: fmt.Sprintf("%s failed to decode: %v", r.Name(m.ID()), err),
			Details: map[string]interface{}{"error": err.Error()},
		}}
	}

	walkFloats(reflect.ValueOf(v), r.Name(m.ID()), func(path string, f float64) {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			errors = append(errors, ValidationError{
				Type:    AnomalyNonFinite,
				Message: fmt.Sprintf("%s is %v", path, f),
				Details: map[string]interface{}{"field": path, "value": f},
			})
		}
	})

	return errors
}

// walkFloats calls fn for every float field reachable from v
func walkFloats(v reflect.Value, path string, fn func(string, float64)) {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		fn(path, v.Float())
	case reflect.Array:
		for i := 0; i < v.Len(); i++ {
			walkFloats(v.Index(i), fmt.Sprintf("%s[%d]", path, i), fn)
		}
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			if t.Field(i).Name == "_" {
				continue
			}
			walkFloats(v.Field(i), path+"."+t.Field(i).Name, fn)
		}
	}
}
