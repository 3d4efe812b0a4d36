// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package serialfactory

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

// ============================================================
// Encode Tests
// ============================================================

func TestEncode_FrameLayout(t *testing.T) {
	r := newTestRegistry(t)
	buf := make([]byte, r.FrameCapacity())

	n, err := r.Encode(buf, testC{ID: 0x01020304, Data: 0xAABBCCDD})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if n != FrameOverhead+8 {
		t.Fatalf("Expected %d bytes, got %d", FrameOverhead+8, n)
	}

	expected := []byte{
		StartByte, 0x02, 0x08,
		0x04, 0x03, 0x02, 0x01, // ID, little-endian
		0xDD, 0xCC, 0xBB, 0xAA, // Data, little-endian
	}
	expected = append(expected, Checksum(expected))

	if !bytes.Equal(buf[:n], expected) {
		t.Errorf("Frame mismatch:\n  expected: % X\n  got:      % X", expected, buf[:n])
	}
}

func TestEncode_ConcreteScenario(t *testing.T) {
	r := newTestRegistry(t)
	buf := make([]byte, r.FrameCapacity())

	n, err := r.Encode(buf, testB{ID: 42, Data1: 245.62, Data2: 63.367})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if n != FrameOverhead+20 {
		t.Errorf("Expected frame length %d, got %d", FrameOverhead+20, n)
	}
	if buf[0] != StartByte {
		t.Errorf("Expected start byte 0x%02X, got 0x%02X", StartByte, buf[0])
	}
	if buf[1] != 1 {
		t.Errorf("Expected id 1, got %d", buf[1])
	}
	if buf[2] != 20 {
		t.Errorf("Expected length 20, got %d", buf[2])
	}
	if got := binary.LittleEndian.Uint32(buf[3:]); got != 42 {
		t.Errorf("Expected ID 42 in payload, got %d", got)
	}
	if got := math.Float64frombits(binary.LittleEndian.Uint64(buf[7:])); got != 245.62 {
		t.Errorf("Expected Data1 245.62 in payload, got %v", got)
	}
	if buf[n-1] != Checksum(buf[:n-1]) {
		t.Errorf("Trailer 0x%02X is not the CRC of the frame", buf[n-1])
	}
}

func TestEncode_BigEndian(t *testing.T) {
	r, err := NewRegistry(binary.BigEndian, testC{})
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	frame := mustFrame(t, r, testC{ID: 0x01020304})
	if !bytes.Equal(frame[3:7], []byte{0x01, 0x02, 0x03, 0x04}) {
		t.Errorf("Expected big-endian ID, got % X", frame[3:7])
	}
}

func TestEncode_EmptyPayload(t *testing.T) {
	r := newTestRegistry(t)

	frame := mustFrame(t, r, testEmpty{})
	if len(frame) != FrameOverhead {
		t.Fatalf("Expected %d byte frame, got %d", FrameOverhead, len(frame))
	}
	if frame[1] != 3 || frame[2] != 0 {
		t.Errorf("Expected id 3 length 0, got id %d length %d", frame[1], frame[2])
	}
	if frame[3] != Checksum(frame[:3]) {
		t.Errorf("Bad trailer 0x%02X", frame[3])
	}
}

func TestEncode_BufferTooSmall(t *testing.T) {
	r := newTestRegistry(t)

	// One byte short of a testB frame
	buf := make([]byte, FrameOverhead+19)
	for i := range buf {
		buf[i] = 0x55
	}

	n, err := r.Encode(buf, testB{ID: 1})
	if !errors.Is(err, ErrBufferTooSmall) {
		t.Fatalf("Expected ErrBufferTooSmall, got %v", err)
	}
	if n != 0 {
		t.Errorf("Expected 0 bytes written, got %d", n)
	}
	for i, b := range buf {
		if b != 0x55 {
			t.Fatalf("Byte %d was modified to 0x%02X", i, b)
		}
	}
}

func TestEncode_UnregisteredType(t *testing.T) {
	r := newTestRegistry(t)
	buf := make([]byte, 64)

	if _, err := r.Encode(buf, testNested{}); !errors.Is(err, ErrUnregisteredType) {
		t.Errorf("Expected ErrUnregisteredType, got %v", err)
	}
}

func TestEncode_Pointer(t *testing.T) {
	r := newTestRegistry(t)

	byValue := mustFrame(t, r, testA{Flag: true, Data: 7})
	byPointer := mustFrame(t, r, &testA{Flag: true, Data: 7})
	if !bytes.Equal(byValue, byPointer) {
		t.Errorf("Pointer frame % X differs from value frame % X", byPointer, byValue)
	}
}

// ============================================================
// Append Tests
// ============================================================

func TestAppendFrame_PreservesPrefix(t *testing.T) {
	r := newTestRegistry(t)

	prefix := []byte{0x01, 0x02}
	out, err := r.AppendFrame(prefix, testA{Data: 0x1234})
	if err != nil {
		t.Fatalf("AppendFrame failed: %v", err)
	}
	if !bytes.Equal(out[:2], prefix) {
		t.Errorf("Prefix changed: % X", out[:2])
	}
	if !bytes.Equal(out[2:], mustFrame(t, r, testA{Data: 0x1234})) {
		t.Errorf("Appended frame mismatch: % X", out[2:])
	}
}

func TestAppendFrame_ErrorLeavesDst(t *testing.T) {
	r := newTestRegistry(t)

	prefix := []byte{0x01}
	out, err := r.AppendFrame(prefix, testNested{})
	if err == nil {
		t.Fatal("Expected an error")
	}
	if !bytes.Equal(out, prefix) {
		t.Errorf("Expected dst unchanged, got % X", out)
	}
}

func TestMustEncodeFrame_Panics(t *testing.T) {
	r := newTestRegistry(t)
	defer func() {
		if recover() == nil {
			t.Error("MustEncodeFrame should panic for an unregistered type")
		}
	}()
	r.MustEncodeFrame(testNested{})
}

func TestAppendRawFrame(t *testing.T) {
	r := newTestRegistry(t)

	v := testC{ID: 9, Data: 10}
	payload, err := binary.Append(nil, binary.LittleEndian, v)
	if err != nil {
		t.Fatalf("binary.Append failed: %v", err)
	}
	raw, err := AppendRawFrame(nil, 2, payload)
	if err != nil {
		t.Fatalf("AppendRawFrame failed: %v", err)
	}
	if !bytes.Equal(raw, mustFrame(t, r, v)) {
		t.Errorf("Raw frame % X differs from encoded frame", raw)
	}

	if _, err := AppendRawFrame(nil, 0, make([]byte, MaxPayloadSize+1)); !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("Expected ErrPayloadTooLarge, got %v", err)
	}
}
