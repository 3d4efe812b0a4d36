// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package serialfactory

import (
	"encoding/binary"
	"fmt"
	"reflect"
)

// entry describes one registered message type
type entry struct {
	typ  reflect.Type
	size int
}

// Registry maps an ordered list of message types to one-byte ids and bounds
// the payload size of every frame built from it.
//
// A Registry is immutable after construction and may be shared between any
// number of encoders and parsers.
type Registry struct {
	order   binary.ByteOrder
	entries []entry
	index   map[reflect.Type]uint8
	maxSize int
}

// NewRegistry builds a registry from prototype values (or pointers to them).
// Ids are assigned by position. Payload fields are laid out in declaration
// order at their fixed width with multi-byte values in the given byte order;
// a nil order selects little-endian.
func NewRegistry(order binary.ByteOrder, types ...any) (*Registry, error) {
	if len(types) > MaxMessageTypes {
		return nil, fmt.Errorf("%w: %d types (max %d)", ErrTooManyTypes, len(types), MaxMessageTypes)
	}
	if order == nil {
		order = binary.LittleEndian
	}

	r := &Registry{
		order:   order,
		entries: make([]entry, 0, len(types)),
		index:   make(map[reflect.Type]uint8, len(types)),
	}

	for i, proto := range types {
		t := baseType(reflect.TypeOf(proto))
		if t == nil {
			return nil, fmt.Errorf("%w: prototype %d is nil", ErrVariableSize, i)
		}
		if err := checkFixedLayout(t); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrVariableSize, t, err)
		}
		size := binary.Size(reflect.New(t).Interface())
		if size < 0 {
			return nil, fmt.Errorf("%w: %s", ErrVariableSize, t)
		}
		if size > MaxPayloadSize {
			return nil, fmt.Errorf("%w: %s is %d bytes (max %d)", ErrPayloadTooLarge, t, size, MaxPayloadSize)
		}
		if prev, ok := r.index[t]; ok {
			return nil, fmt.Errorf("%w: %s at ids %d and %d", ErrDuplicateType, t, prev, i)
		}

		r.index[t] = uint8(i)
		r.entries = append(r.entries, entry{typ: t, size: size})
		if size > r.maxSize {
			r.maxSize = size
		}
	}

	return r, nil
}

// MustRegistry is NewRegistry for package-level registries. It panics on a
// layout violation so a bad registry stops the program at startup.
func MustRegistry(order binary.ByteOrder, types ...any) *Registry {
	r, err := NewRegistry(order, types...)
	if err != nil {
		panic(err)
	}
	return r
}

// ID returns the id assigned to T in r
func ID[T any](r *Registry) (uint8, error) {
	return r.idOfType(baseType(reflect.TypeFor[T]()))
}

// MustID is ID for types known to be registered
func MustID[T any](r *Registry) uint8 {
	id, err := ID[T](r)
	if err != nil {
		panic(err)
	}
	return id
}

// IDOf returns the id assigned to the dynamic type of v
func (r *Registry) IDOf(v any) (uint8, error) {
	return r.idOfType(baseType(reflect.TypeOf(v)))
}

// Contains reports whether the dynamic type of v is registered
func (r *Registry) Contains(v any) bool {
	_, err := r.IDOf(v)
	return err == nil
}

func (r *Registry) idOfType(t reflect.Type) (uint8, error) {
	if t != nil {
		if id, ok := r.index[t]; ok {
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w: %v", ErrUnregisteredType, t)
}

// Len returns the number of registered types
func (r *Registry) Len() int {
	return len(r.entries)
}

// MaxPayloadSize returns the size of the largest registered type
func (r *Registry) MaxPayloadSize() int {
	return r.maxSize
}

// FrameCapacity returns the size of the largest possible frame
func (r *Registry) FrameCapacity() int {
	return FrameOverhead + r.maxSize
}

// ByteOrder returns the byte order of multi-byte payload fields
func (r *Registry) ByteOrder() binary.ByteOrder {
	return r.order
}

// Size returns the payload size of the type registered at id
func (r *Registry) Size(id uint8) (int, bool) {
	if int(id) >= len(r.entries) {
		return 0, false
	}
	return r.entries[id].size, true
}

// Type returns the type registered at id, or nil
func (r *Registry) Type(id uint8) reflect.Type {
	if int(id) >= len(r.entries) {
		return nil
	}
	return r.entries[id].typ
}

// Name returns the type name registered at id
func (r *Registry) Name(id uint8) string {
	t := r.Type(id)
	if t == nil {
		return fmt.Sprintf("UNKNOWN_%d", id)
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

// New returns the zero value of the type registered at id
func (r *Registry) New(id uint8) (any, error) {
	t := r.Type(id)
	if t == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownID, id)
	}
	return reflect.New(t).Elem().Interface(), nil
}

// baseType strips pointer indirection
func baseType(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// checkFixedLayout rejects types whose wire size depends on the platform or
// on the value, and structs that cannot be decoded into.
func checkFixedLayout(t reflect.Type) error {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		return nil
	case reflect.Array:
		return checkFixedLayout(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.Name != "_" && !f.IsExported() {
				return fmt.Errorf("field %s is unexported", f.Name)
			}
			if err := checkFixedLayout(f.Type); err != nil {
				return fmt.Errorf("field %s: %w", f.Name, err)
			}
		}
		return nil
	}
	return fmt.Errorf("kind %s has no fixed wire size", t.Kind())
}
