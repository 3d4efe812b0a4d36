// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package serialfactory

import (
	"encoding/binary"
	"fmt"
)

// Encode writes the frame for v into dst and returns the frame length.
// The type of v must be registered. dst must hold FrameOverhead plus the
// size of v; nothing is written otherwise.
//
// Encode keeps no state and is safe for concurrent use as long as every
// caller writes into its own buffer.
func (r *Registry) Encode(dst []byte, v any) (int, error) {
	id, err := r.IDOf(v)
	if err != nil {
		return 0, err
	}
	size := r.entries[id].size
	frameLen := FrameOverhead + size
	if len(dst) < frameLen {
		return 0, fmt.Errorf("%w: need %d bytes, have %d", ErrBufferTooSmall, frameLen, len(dst))
	}

	dst[0] = StartByte
	dst[1] = id
	dst[2] = uint8(size)

	n, err := binary.Encode(dst[headerSize:headerSize+size], r.order, v)
	if err != nil {
		return 0, fmt.Errorf("failed to encode %s payload: %w", r.Name(id), err)
	}
	if n != size {
		return 0, fmt.Errorf("failed to encode %s payload: wrote %d of %d bytes", r.Name(id), n, size)
	}

	dst[headerSize+size] = Checksum(dst[:headerSize+size])
	return frameLen, nil
}

// AppendFrame appends the frame for v to dst
func (r *Registry) AppendFrame(dst []byte, v any) ([]byte, error) {
	id, err := r.IDOf(v)
	if err != nil {
		return dst, err
	}
	frameLen := FrameOverhead + r.entries[id].size

	start := len(dst)
	dst = append(dst, make([]byte, frameLen)...)
	if _, err := r.Encode(dst[start:], v); err != nil {
		return dst[:start], err
	}
	return dst, nil
}

// EncodeFrame returns a newly allocated frame for v
func (r *Registry) EncodeFrame(v any) ([]byte, error) {
	return r.AppendFrame(nil, v)
}

// MustEncodeFrame returns the frame for v.
// Panics on encoding error (use EncodeFrame for error handling).
func (r *Registry) MustEncodeFrame(v any) []byte {
	frame, err := r.EncodeFrame(v)
	if err != nil {
		panic(fmt.Sprintf("serialfactory: encode error: %v", err))
	}
	return frame
}

// AppendRawFrame appends a frame carrying an already-serialized payload.
// The id is not checked against any registry.
func AppendRawFrame(dst []byte, id uint8, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadSize {
		return dst, fmt.Errorf("%w: payload is %d bytes (max %d)", ErrPayloadTooLarge, len(payload), MaxPayloadSize)
	}

	start := len(dst)
	dst = append(dst, StartByte, id, uint8(len(payload)))
	dst = append(dst, payload...)
	return append(dst, Checksum(dst[start:])), nil
}
