// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package serialfactory

import (
	"encoding/binary"
	"errors"
	"reflect"
	"testing"
)

// ============================================================
// Registry Construction Tests
// ============================================================

func TestNewRegistry_AssignsIDsByPosition(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		name string
		got  func(*Registry) (uint8, error)
		want uint8
	}{
		{"testA", ID[testA], 0},
		{"testB", ID[testB], 1},
		{"testC", ID[testC], 2},
		{"testEmpty", ID[testEmpty], 3},
		{"pointer to testB", ID[*testB], 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := tt.got(r)
			if err != nil {
				t.Fatalf("ID failed: %v", err)
			}
			if id != tt.want {
				t.Errorf("Expected id %d, got %d", tt.want, id)
			}
		})
	}
}

func TestNewRegistry_Sizes(t *testing.T) {
	r := newTestRegistry(t)

	want := []int{3, 20, 8, 0}
	for id, size := range want {
		got, ok := r.Size(uint8(id))
		if !ok {
			t.Fatalf("Size(%d) not found", id)
		}
		if got != size {
			t.Errorf("Size(%d): expected %d, got %d", id, size, got)
		}
	}
	if _, ok := r.Size(4); ok {
		t.Error("Size(4) should not be found")
	}

	if r.Len() != 4 {
		t.Errorf("Expected 4 types, got %d", r.Len())
	}
	if r.MaxPayloadSize() != 20 {
		t.Errorf("Expected max payload 20, got %d", r.MaxPayloadSize())
	}
	if r.FrameCapacity() != 24 {
		t.Errorf("Expected frame capacity 24, got %d", r.FrameCapacity())
	}
}

func TestNewRegistry_NilOrderIsLittleEndian(t *testing.T) {
	r, err := NewRegistry(nil, testC{})
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	if r.ByteOrder() != binary.LittleEndian {
		t.Errorf("Expected little-endian, got %v", r.ByteOrder())
	}
}

func TestNewRegistry_Empty(t *testing.T) {
	r, err := NewRegistry(nil)
	if err != nil {
		t.Fatalf("Empty registry should build: %v", err)
	}
	if r.Len() != 0 || r.MaxPayloadSize() != 0 || r.FrameCapacity() != FrameOverhead {
		t.Errorf("Unexpected empty registry: len=%d max=%d cap=%d", r.Len(), r.MaxPayloadSize(), r.FrameCapacity())
	}
}

func TestNewRegistry_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		types []any
		err   error
	}{
		{"int is platform sized", []any{int(0)}, ErrVariableSize},
		{"uint field", []any{struct{ N uint }{}}, ErrVariableSize},
		{"string field", []any{struct{ S string }{}}, ErrVariableSize},
		{"slice field", []any{struct{ B []byte }{}}, ErrVariableSize},
		{"map field", []any{struct{ M map[int8]int8 }{}}, ErrVariableSize},
		{"pointer field", []any{struct{ P *int8 }{}}, ErrVariableSize},
		{"unexported field", []any{struct{ hidden uint8 }{}}, ErrVariableSize},
		{"nil prototype", []any{nil}, ErrVariableSize},
		{"duplicate", []any{testA{}, testB{}, testA{}}, ErrDuplicateType},
		{"duplicate via pointer", []any{testA{}, &testA{}}, ErrDuplicateType},
		{"256 byte payload", []any{byteArray(256)}, ErrPayloadTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(nil, tt.types...)
			if !errors.Is(err, tt.err) {
				t.Errorf("Expected %v, got %v", tt.err, err)
			}
		})
	}
}

func TestNewRegistry_BlankPaddingAllowed(t *testing.T) {
	r, err := NewRegistry(nil, testNested{})
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	// testC(8) + 3*float32(12) + padding(2) + int16(2)
	if size, _ := r.Size(0); size != 24 {
		t.Errorf("Expected size 24, got %d", size)
	}
}

// ============================================================
// Registry Boundary Tests
// ============================================================

// fullRegistryTypes returns [0]byte through [255]byte: 256 distinct types
// with the largest at the payload limit
func fullRegistryTypes() []any {
	types := make([]any, MaxMessageTypes)
	for n := range types {
		types[n] = byteArray(n)
	}
	return types
}

func TestNewRegistry_ExactlyMaxTypes(t *testing.T) {
	r, err := NewRegistry(nil, fullRegistryTypes()...)
	if err != nil {
		t.Fatalf("Registry of %d types should build: %v", MaxMessageTypes, err)
	}
	if r.Len() != MaxMessageTypes {
		t.Errorf("Expected %d types, got %d", MaxMessageTypes, r.Len())
	}
	if r.MaxPayloadSize() != MaxPayloadSize {
		t.Errorf("Expected max payload %d, got %d", MaxPayloadSize, r.MaxPayloadSize())
	}

	id, err := ID[[255]byte](r)
	if err != nil || id != 255 {
		t.Errorf("Expected [255]byte at id 255, got %d (%v)", id, err)
	}
}

func TestNewRegistry_TooManyTypes(t *testing.T) {
	types := append(fullRegistryTypes(), testA{})
	_, err := NewRegistry(nil, types...)
	if !errors.Is(err, ErrTooManyTypes) {
		t.Errorf("Expected ErrTooManyTypes for %d types, got %v", len(types), err)
	}
}

func TestMustRegistry_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustRegistry should panic on a bad layout")
		}
	}()
	MustRegistry(nil, struct{ S string }{})
}

// ============================================================
// Registry Lookup Tests
// ============================================================

func TestRegistry_IDOf(t *testing.T) {
	r := newTestRegistry(t)

	if id, err := r.IDOf(testC{ID: 1}); err != nil || id != 2 {
		t.Errorf("IDOf(testC) = %d, %v", id, err)
	}
	if id, err := r.IDOf(&testB{}); err != nil || id != 1 {
		t.Errorf("IDOf(*testB) = %d, %v", id, err)
	}
	if _, err := r.IDOf(testNested{}); !errors.Is(err, ErrUnregisteredType) {
		t.Errorf("Expected ErrUnregisteredType, got %v", err)
	}
	if _, err := r.IDOf(nil); !errors.Is(err, ErrUnregisteredType) {
		t.Errorf("Expected ErrUnregisteredType for nil, got %v", err)
	}

	if !r.Contains(testA{}) || r.Contains(testNested{}) {
		t.Error("Contains reported the wrong membership")
	}
}

func TestMustID_PanicsForUnregistered(t *testing.T) {
	r := newTestRegistry(t)
	defer func() {
		if recover() == nil {
			t.Error("MustID should panic for an unregistered type")
		}
	}()
	MustID[testNested](r)
}

func TestRegistry_NameAndType(t *testing.T) {
	r := newTestRegistry(t)

	if name := r.Name(1); name != "testB" {
		t.Errorf("Expected testB, got %s", name)
	}
	if name := r.Name(200); name != "UNKNOWN_200" {
		t.Errorf("Expected UNKNOWN_200, got %s", name)
	}
	if typ := r.Type(2); typ != reflect.TypeOf(testC{}) {
		t.Errorf("Expected testC type, got %v", typ)
	}
	if typ := r.Type(4); typ != nil {
		t.Errorf("Expected nil type, got %v", typ)
	}
}

func TestRegistry_New(t *testing.T) {
	r := newTestRegistry(t)

	v, err := r.New(0)
	if err != nil {
		t.Fatalf("New(0) failed: %v", err)
	}
	if _, ok := v.(testA); !ok {
		t.Errorf("Expected testA, got %T", v)
	}

	if _, err := r.New(9); !errors.Is(err, ErrUnknownID) {
		t.Errorf("Expected ErrUnknownID, got %v", err)
	}
}
