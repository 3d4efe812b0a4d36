// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package serialfactory

import (
	"encoding/binary"
	"fmt"
	"reflect"
	"time"
)

// GenericMessage is a checksum-validated frame whose payload has not yet been
// decoded into a concrete type. The id selects the type; Unpack checks it.
type GenericMessage struct {
	id        uint8
	length    uint8
	payload   []byte
	checksum  uint8
	timestamp time.Time
}

// NewGenericMessage creates a message from already-validated frame fields.
// The payload is copied.
func NewGenericMessage(id uint8, payload []byte, checksum uint8) *GenericMessage {
	return &GenericMessage{
		id:        id,
		length:    uint8(len(payload)),
		payload:   append([]byte(nil), payload...),
		checksum:  checksum,
		timestamp: time.Now(),
	}
}

// ID returns the type id received on the wire
func (m *GenericMessage) ID() uint8 {
	return m.id
}

// Length returns the payload length received on the wire
func (m *GenericMessage) Length() uint8 {
	return m.length
}

// Payload returns the raw payload bytes
func (m *GenericMessage) Payload() []byte {
	return m.payload
}

// Checksum returns the frame's CRC-8 trailer
func (m *GenericMessage) Checksum() uint8 {
	return m.checksum
}

// Timestamp returns the time the frame was completed
func (m *GenericMessage) Timestamp() time.Time {
	return m.timestamp
}

// Frame rebuilds the wire bytes of the message
func (m *GenericMessage) Frame() []byte {
	frame, _ := AppendRawFrame(make([]byte, 0, FrameOverhead+len(m.payload)), m.id, m.payload)
	return frame
}

// Unpack decodes m as a T. The message id must be the id of T in r and the
// payload length must be the size of T.
func Unpack[T any](r *Registry, m *GenericMessage) (T, error) {
	var v T
	id, err := ID[T](r)
	if err != nil {
		return v, err
	}
	if m.id != id {
		return v, fmt.Errorf("%w: message is %s (id %d), requested %s (id %d)",
			ErrTypeMismatch, r.Name(m.id), m.id, r.Name(id), id)
	}
	if err := r.checkLength(m); err != nil {
		return v, err
	}

	if _, err := binary.Decode(m.payload, r.order, baseValuePtr(&v)); err != nil {
		return v, fmt.Errorf("failed to decode %s: %w", r.Name(id), err)
	}
	return v, nil
}

// Decode returns the payload of m as a value of the type registered at its
// id, ready for a type switch.
func (r *Registry) Decode(m *GenericMessage) (any, error) {
	t := r.Type(m.id)
	if t == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownID, m.id)
	}
	if err := r.checkLength(m); err != nil {
		return nil, err
	}

	ptr := reflect.New(t)
	if _, err := binary.Decode(m.payload, r.order, ptr.Interface()); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", r.Name(m.id), err)
	}
	return ptr.Elem().Interface(), nil
}

func (r *Registry) checkLength(m *GenericMessage) error {
	size, _ := r.Size(m.id)
	if int(m.length) != size || len(m.payload) != size {
		return fmt.Errorf("%w: %s expects %d bytes, got %d",
			ErrLengthMismatch, r.Name(m.id), size, m.length)
	}
	return nil
}

// baseValuePtr returns a pointer to the innermost non-pointer value behind v,
// allocating nil pointers on the way. Unpack[*T] decodes into a fresh T.
func baseValuePtr(v any) any {
	rv := reflect.ValueOf(v)
	for rv.Elem().Kind() == reflect.Pointer {
		if rv.Elem().IsNil() {
			rv.Elem().Set(reflect.New(rv.Elem().Type().Elem()))
		}
		rv = rv.Elem()
	}
	return rv.Interface()
}
