// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package serialfactory

import (
	"encoding/binary"
	"reflect"
	"testing"
)

// ============================================================
// Test Message Types
// ============================================================

type testA struct {
	Flag bool
	Data uint16
}

type testB struct {
	ID    uint32
	Data1 float64
	Data2 float64
}

type testC struct {
	ID   uint32
	Data uint32
}

type testEmpty struct{}

type testNested struct {
	Header testC
	Values [3]float32
	_      [2]byte
	Signed int16
}

// newTestRegistry builds {testA, testB, testC, testEmpty}
func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry(binary.LittleEndian, testA{}, testB{}, testC{}, testEmpty{})
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	return r
}

// byteArray returns the zero value of [n]byte
func byteArray(n int) any {
	return reflect.New(reflect.ArrayOf(n, reflect.TypeOf(byte(0)))).Elem().Interface()
}

// feedAll feeds data one byte at a time and collects emitted messages
func feedAll(p *Parser, data []byte) []*GenericMessage {
	var msgs []*GenericMessage
	for _, b := range data {
		if msg := p.Feed(b); msg != nil {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}

// mustFrame encodes v or fails the test
func mustFrame(t *testing.T, r *Registry, v any) []byte {
	t.Helper()
	frame, err := r.EncodeFrame(v)
	if err != nil {
		t.Fatalf("EncodeFrame(%T) failed: %v", v, err)
	}
	return frame
}
